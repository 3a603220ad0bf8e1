package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Load reads configuration from file, environment, and defaults.
// Priority (highest to lowest): env vars > config file > defaults.
// CLI flags are applied by the caller afterwards.
func Load(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	v := viper.New()
	v.SetConfigType("yaml")

	setDefaults(v, cfg)

	v.SetEnvPrefix("TALKSCOUT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("talkscout")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		home, err := os.UserHomeDir()
		if err == nil {
			v.AddConfigPath(filepath.Join(home, ".talkscout"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && configPath != "" {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return cfg, nil
}

// setDefaults registers default values in viper so env overrides resolve.
func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("search.base_url", cfg.Search.BaseURL)
	v.SetDefault("search.topics", cfg.Search.Topics)
	v.SetDefault("search.sort", cfg.Search.Sort)
	v.SetDefault("search.language", cfg.Search.Language)

	v.SetDefault("browser.headless", cfg.Browser.Headless)
	v.SetDefault("browser.window_size", cfg.Browser.WindowSize)
	v.SetDefault("browser.bin", cfg.Browser.Bin)
	v.SetDefault("browser.stealth", cfg.Browser.Stealth)
	v.SetDefault("browser.no_sandbox", cfg.Browser.NoSandbox)

	v.SetDefault("listing.card_selector", cfg.Listing.CardSelector)
	v.SetDefault("listing.counter_selector", cfg.Listing.CounterSelector)
	v.SetDefault("listing.load_more_selector", cfg.Listing.LoadMoreSelector)
	v.SetDefault("listing.consent_selector", cfg.Listing.ConsentSelector)
	v.SetDefault("listing.page_size", cfg.Listing.PageSize)
	v.SetDefault("listing.hard_cap", cfg.Listing.HardCap)
	v.SetDefault("listing.fallback_cap", cfg.Listing.FallbackCap)
	v.SetDefault("listing.consent_timeout", cfg.Listing.ConsentTimeout)
	v.SetDefault("listing.cards_timeout", cfg.Listing.CardsTimeout)
	v.SetDefault("listing.load_timeout", cfg.Listing.LoadTimeout)
	v.SetDefault("listing.settle_delay", cfg.Listing.SettleDelay)
	v.SetDefault("listing.scroll_pause", cfg.Listing.ScrollPause)

	v.SetDefault("detail.loader", cfg.Detail.Loader)
	v.SetDefault("detail.page_settle", cfg.Detail.PageSettle)
	v.SetDefault("detail.request_timeout", cfg.Detail.RequestTimeout)
	v.SetDefault("detail.user_agent", cfg.Detail.UserAgent)
	v.SetDefault("detail.max_body_size", cfg.Detail.MaxBodySize)

	v.SetDefault("filter.min_duration", cfg.Filter.MinDuration)
	v.SetDefault("filter.max_duration", cfg.Filter.MaxDuration)
	v.SetDefault("filter.start_year", cfg.Filter.StartYear)
	v.SetDefault("filter.end_year", cfg.Filter.EndYear)
	v.SetDefault("filter.top_count", cfg.Filter.TopCount)

	v.SetDefault("politeness.request_delay", cfg.Politeness.RequestDelay)

	v.SetDefault("storage.type", cfg.Storage.Type)
	v.SetDefault("storage.output_path", cfg.Storage.OutputPath)
	v.SetDefault("storage.transcripts_dir", cfg.Storage.TranscriptsDir)
	v.SetDefault("storage.debug_dir", cfg.Storage.DebugDir)
	v.SetDefault("storage.mongo_uri", cfg.Storage.MongoURI)
	v.SetDefault("storage.mongo_database", cfg.Storage.MongoDatabase)
	v.SetDefault("storage.mongo_collection", cfg.Storage.MongoCollection)

	v.SetDefault("logging.level", cfg.Logging.Level)
	v.SetDefault("logging.format", cfg.Logging.Format)

	v.SetDefault("metrics.enabled", cfg.Metrics.Enabled)
	v.SetDefault("metrics.port", cfg.Metrics.Port)
	v.SetDefault("metrics.path", cfg.Metrics.Path)
}
