package config

import (
	"fmt"
	"net/url"
	"slices"
	"strings"
)

// SortOrders lists the accepted listing sort values.
var SortOrders = []string{"newest", "oldest"}

// Validate checks the configuration for invalid values.
func Validate(cfg *Config) error {
	if err := ValidateURL(cfg.Search.BaseURL); err != nil {
		return fmt.Errorf("search.base_url: %w", err)
	}
	if !slices.Contains(SortOrders, cfg.Search.Sort) {
		return fmt.Errorf("search.sort must be one of %s, got %q", strings.Join(SortOrders, ", "), cfg.Search.Sort)
	}

	if cfg.Listing.CardSelector == "" {
		return fmt.Errorf("listing.card_selector must not be empty")
	}
	if cfg.Listing.PageSize < 1 {
		return fmt.Errorf("listing.page_size must be >= 1, got %d", cfg.Listing.PageSize)
	}
	if cfg.Listing.HardCap < 0 || cfg.Listing.FallbackCap < 0 {
		return fmt.Errorf("listing caps must be >= 0")
	}
	if cfg.Listing.LoadTimeout <= 0 || cfg.Listing.CardsTimeout <= 0 {
		return fmt.Errorf("listing wait timeouts must be > 0")
	}

	if cfg.Detail.Loader != "browser" && cfg.Detail.Loader != "http" {
		return fmt.Errorf("detail.loader must be 'browser' or 'http', got %q", cfg.Detail.Loader)
	}
	if cfg.Detail.RequestTimeout <= 0 {
		return fmt.Errorf("detail.request_timeout must be > 0")
	}
	if cfg.Detail.MaxBodySize <= 0 {
		return fmt.Errorf("detail.max_body_size must be > 0")
	}

	if cfg.Filter.MinDuration < 0 || cfg.Filter.MaxDuration < cfg.Filter.MinDuration {
		return fmt.Errorf("filter duration range [%v, %v] is invalid", cfg.Filter.MinDuration, cfg.Filter.MaxDuration)
	}
	if cfg.Filter.EndYear < cfg.Filter.StartYear {
		return fmt.Errorf("filter year range [%d, %d] is invalid", cfg.Filter.StartYear, cfg.Filter.EndYear)
	}
	if cfg.Filter.TopCount < 1 {
		return fmt.Errorf("filter.top_count must be >= 1, got %d", cfg.Filter.TopCount)
	}

	if cfg.Politeness.RequestDelay < 0 {
		return fmt.Errorf("politeness.request_delay must be >= 0")
	}

	validStorageTypes := map[string]bool{
		"json": true, "jsonl": true, "csv": true, "mongodb": true,
	}
	for _, kind := range strings.Split(cfg.Storage.Type, ",") {
		kind = strings.TrimSpace(kind)
		if !validStorageTypes[kind] {
			return fmt.Errorf("storage.type %q is not supported (valid: json, jsonl, csv, mongodb)", kind)
		}
		if kind == "mongodb" && cfg.Storage.MongoURI == "" {
			return fmt.Errorf("storage.mongo_uri is required for mongodb storage")
		}
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[cfg.Logging.Level] {
		return fmt.Errorf("logging.level must be debug/info/warn/error, got %q", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "text" && cfg.Logging.Format != "json" {
		return fmt.Errorf("logging.format must be 'text' or 'json', got %q", cfg.Logging.Format)
	}

	if cfg.Metrics.Enabled {
		if cfg.Metrics.Port < 1 || cfg.Metrics.Port > 65535 {
			return fmt.Errorf("metrics.port must be 1-65535, got %d", cfg.Metrics.Port)
		}
	}

	return nil
}

// ValidateURL checks if a URL string is an absolute http(s) URL.
func ValidateURL(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("URL scheme must be http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("URL must have a host")
	}
	return nil
}
