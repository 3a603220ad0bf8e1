package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfigIsValid(t *testing.T) {
	if err := Validate(DefaultConfig()); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad sort", func(c *Config) { c.Search.Sort = "popular" }},
		{"relative base url", func(c *Config) { c.Search.BaseURL = "/talks" }},
		{"zero page size", func(c *Config) { c.Listing.PageSize = 0 }},
		{"inverted duration", func(c *Config) { c.Filter.MinDuration, c.Filter.MaxDuration = 18, 12 }},
		{"inverted years", func(c *Config) { c.Filter.StartYear, c.Filter.EndYear = 2022, 2018 }},
		{"zero top count", func(c *Config) { c.Filter.TopCount = 0 }},
		{"unknown loader", func(c *Config) { c.Detail.Loader = "curl" }},
		{"unknown storage", func(c *Config) { c.Storage.Type = "xlsx" }},
		{"mongo without uri", func(c *Config) { c.Storage.Type = "mongodb" }},
		{"unknown storage in list", func(c *Config) { c.Storage.Type = "csv,xlsx" }},
		{"bad log level", func(c *Config) { c.Logging.Level = "trace" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if err := Validate(cfg); err == nil {
				t.Errorf("expected validation error")
			}
		})
	}
}

func TestValidateAcceptsStorageList(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Storage.Type = "csv, mongodb"
	cfg.Storage.MongoURI = "mongodb://localhost:27017"
	if err := Validate(cfg); err != nil {
		t.Errorf("storage list should validate: %v", err)
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "talkscout.yaml")
	yaml := `
search:
  topics: [science, technology]
  sort: oldest
filter:
  top_count: 10
politeness:
  request_delay: 250ms
`
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Search.Sort != "oldest" {
		t.Errorf("expected sort oldest, got %q", cfg.Search.Sort)
	}
	if len(cfg.Search.Topics) != 2 || cfg.Search.Topics[1] != "technology" {
		t.Errorf("unexpected topics %v", cfg.Search.Topics)
	}
	if cfg.Filter.TopCount != 10 {
		t.Errorf("expected top_count 10, got %d", cfg.Filter.TopCount)
	}
	if cfg.Politeness.RequestDelay != 250*time.Millisecond {
		t.Errorf("expected 250ms delay, got %s", cfg.Politeness.RequestDelay)
	}
	// Untouched sections keep their defaults.
	if cfg.Listing.PageSize != 24 {
		t.Errorf("expected default page size, got %d", cfg.Listing.PageSize)
	}
}

func TestLoadMissingExplicitFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing explicit config file")
	}
}
