package config

import (
	"time"
)

// Version is set at build time via ldflags.
var Version = "dev"

// Config is the root configuration for talkscout.
type Config struct {
	Search     SearchConfig     `mapstructure:"search"     yaml:"search"`
	Browser    BrowserConfig    `mapstructure:"browser"    yaml:"browser"`
	Listing    ListingConfig    `mapstructure:"listing"    yaml:"listing"`
	Detail     DetailConfig     `mapstructure:"detail"     yaml:"detail"`
	Filter     FilterConfig     `mapstructure:"filter"     yaml:"filter"`
	Politeness PolitenessConfig `mapstructure:"politeness" yaml:"politeness"`
	Storage    StorageConfig    `mapstructure:"storage"    yaml:"storage"`
	Logging    LoggingConfig    `mapstructure:"logging"    yaml:"logging"`
	Metrics    MetricsConfig    `mapstructure:"metrics"    yaml:"metrics"`
}

// SearchConfig describes the listing search to run.
type SearchConfig struct {
	BaseURL  string   `mapstructure:"base_url"  yaml:"base_url"`
	Topics   []string `mapstructure:"topics"    yaml:"topics"`
	Sort     string   `mapstructure:"sort"      yaml:"sort"`
	Language string   `mapstructure:"language"  yaml:"language"`
}

// BrowserConfig controls the headless browser session.
type BrowserConfig struct {
	Headless   bool   `mapstructure:"headless"    yaml:"headless"`
	WindowSize string `mapstructure:"window_size" yaml:"window_size"`
	Bin        string `mapstructure:"bin"         yaml:"bin"`
	Stealth    bool   `mapstructure:"stealth"     yaml:"stealth"`
	NoSandbox  bool   `mapstructure:"no_sandbox"  yaml:"no_sandbox"`
}

// ListingConfig holds the listing-page selectors and pagination bounds.
type ListingConfig struct {
	CardSelector     string        `mapstructure:"card_selector"      yaml:"card_selector"`
	CounterSelector  string        `mapstructure:"counter_selector"   yaml:"counter_selector"`
	LoadMoreSelector string        `mapstructure:"load_more_selector" yaml:"load_more_selector"`
	ConsentSelector  string        `mapstructure:"consent_selector"   yaml:"consent_selector"`
	PageSize         int           `mapstructure:"page_size"          yaml:"page_size"`
	HardCap          int           `mapstructure:"hard_cap"           yaml:"hard_cap"`
	FallbackCap      int           `mapstructure:"fallback_cap"       yaml:"fallback_cap"`
	ConsentTimeout   time.Duration `mapstructure:"consent_timeout"    yaml:"consent_timeout"`
	CardsTimeout     time.Duration `mapstructure:"cards_timeout"      yaml:"cards_timeout"`
	LoadTimeout      time.Duration `mapstructure:"load_timeout"       yaml:"load_timeout"`
	SettleDelay      time.Duration `mapstructure:"settle_delay"       yaml:"settle_delay"`
	ScrollPause      time.Duration `mapstructure:"scroll_pause"       yaml:"scroll_pause"`
}

// DetailConfig controls how detail pages are loaded.
type DetailConfig struct {
	Loader         string        `mapstructure:"loader"          yaml:"loader"` // browser, http
	PageSettle     time.Duration `mapstructure:"page_settle"     yaml:"page_settle"`
	RequestTimeout time.Duration `mapstructure:"request_timeout" yaml:"request_timeout"`
	UserAgent      string        `mapstructure:"user_agent"      yaml:"user_agent"`
	MaxBodySize    int64         `mapstructure:"max_body_size"   yaml:"max_body_size"`
}

// FilterConfig holds the duration and year ranges and the ranking size.
type FilterConfig struct {
	MinDuration float64 `mapstructure:"min_duration" yaml:"min_duration"`
	MaxDuration float64 `mapstructure:"max_duration" yaml:"max_duration"`
	StartYear   int     `mapstructure:"start_year"   yaml:"start_year"`
	EndYear     int     `mapstructure:"end_year"     yaml:"end_year"`
	TopCount    int     `mapstructure:"top_count"    yaml:"top_count"`
}

// PolitenessConfig controls request spacing.
type PolitenessConfig struct {
	RequestDelay time.Duration `mapstructure:"request_delay" yaml:"request_delay"`
}

// StorageConfig controls output/storage.
type StorageConfig struct {
	Type            string `mapstructure:"type"             yaml:"type"`
	OutputPath      string `mapstructure:"output_path"      yaml:"output_path"`
	TranscriptsDir  string `mapstructure:"transcripts_dir"  yaml:"transcripts_dir"`
	DebugDir        string `mapstructure:"debug_dir"        yaml:"debug_dir"`
	MongoURI        string `mapstructure:"mongo_uri"        yaml:"mongo_uri"`
	MongoDatabase   string `mapstructure:"mongo_database"   yaml:"mongo_database"`
	MongoCollection string `mapstructure:"mongo_collection" yaml:"mongo_collection"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	Level  string `mapstructure:"level"  yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// MetricsConfig controls the Prometheus text endpoint.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Port    int    `mapstructure:"port"    yaml:"port"`
	Path    string `mapstructure:"path"    yaml:"path"`
}

// DefaultTopics is the topic set searched when none is configured.
var DefaultTopics = []string{
	"aging", "communication", "compassion", "creativity", "curiosity",
	"death", "depression", "emotions", "empathy", "ethics", "fear",
	"happiness", "love", "mental health", "mindfulness", "motivation",
	"personal growth", "sex", "sleep", "trust", "vulnerability",
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Search: SearchConfig{
			BaseURL:  "https://www.ted.com",
			Topics:   append([]string(nil), DefaultTopics...),
			Sort:     "newest",
			Language: "english",
		},
		Browser: BrowserConfig{
			Headless:   true,
			WindowSize: "1920,1080",
			NoSandbox:  true,
		},
		Listing: ListingConfig{
			CardSelector:     `div.xs-tui\:col-span-1 > a.relative[href*='/talks/']`,
			CounterSelector:  "p.text-textPrimary-onLight.font-normal.body2",
			LoadMoreSelector: "//button//span[contains(text(), 'Show 24 more')]",
			ConsentSelector:  "//button[contains(text(), 'Accept all')]",
			PageSize:         24,
			HardCap:          200,
			FallbackCap:      50,
			ConsentTimeout:   5 * time.Second,
			CardsTimeout:     15 * time.Second,
			LoadTimeout:      10 * time.Second,
			SettleDelay:      3 * time.Second,
			ScrollPause:      500 * time.Millisecond,
		},
		Detail: DetailConfig{
			Loader:         "browser",
			PageSettle:     2 * time.Second,
			RequestTimeout: 30 * time.Second,
			UserAgent:      "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36",
			MaxBodySize:    10 * 1024 * 1024, // 10MB
		},
		Filter: FilterConfig{
			MinDuration: 12,
			MaxDuration: 18,
			StartYear:   2018,
			EndYear:     2022,
			TopCount:    100,
		},
		Politeness: PolitenessConfig{
			RequestDelay: 1 * time.Second,
		},
		Storage: StorageConfig{
			Type:            "csv",
			OutputPath:      "./output",
			TranscriptsDir:  "./output/transcripts",
			DebugDir:        "./output/debug",
			MongoDatabase:   "talkscout",
			MongoCollection: "ranked_talks",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Port:    9090,
			Path:    "/metrics",
		},
	}
}
