package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Load reads configuration from the JSON file at path and the environment.
// Priority (highest to lowest): env vars > config file > defaults. A missing
// file is created from the defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath
	}

	v := viper.New()
	v.SetConfigType("json")
	setDefaults(v, DefaultConfig())

	v.SetEnvPrefix("PIRACY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigFile(path)

	_, statErr := os.Stat(path)
	switch {
	case errors.Is(statErr, fs.ErrNotExist):
		if err := WriteDefault(path); err != nil {
			return nil, err
		}
	case statErr != nil:
		return nil, fmt.Errorf("failed to stat config file: %w", statErr)
	default:
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}

	return cfg, nil
}

// WriteDefault writes the default configuration to path, creating its
// directory.
func WriteDefault(path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}

	v := viper.New()
	v.SetConfigType("json")
	setDefaults(v, DefaultConfig())
	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("failed to write default config: %w", err)
	}
	return nil
}

// setDefaults registers default values in viper.
func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("scraping.search_terms", cfg.Scraping.SearchTerms)
	v.SetDefault("scraping.max_pages", cfg.Scraping.MaxPages)
	v.SetDefault("scraping.headless", cfg.Scraping.Headless)
	v.SetDefault("scraping.base_url", cfg.Scraping.BaseURL)
	v.SetDefault("scraping.wait_timeout_seconds", cfg.Scraping.WaitTimeoutSeconds)
	v.SetDefault("scraping.navigation_retries", cfg.Scraping.NavigationRetries)
	v.SetDefault("scraping.page_delay_ms", cfg.Scraping.PageDelayMS)
	v.SetDefault("scraping.search_delay_ms", cfg.Scraping.SearchDelayMS)
	v.SetDefault("scraping.detail_seller_lookup", cfg.Scraping.DetailSellerLookup)
	v.SetDefault("scraping.detail_pass", cfg.Scraping.DetailPass)

	v.SetDefault("ai.model_file", cfg.AI.ModelFile)
	v.SetDefault("ai.confidence_threshold", cfg.AI.ConfidenceThreshold)

	v.SetDefault("risk_analysis.high_risk_threshold", cfg.RiskAnalysis.HighRiskThreshold)
	v.SetDefault("risk_analysis.medium_risk_threshold", cfg.RiskAnalysis.MediumRiskThreshold)

	v.SetDefault("output.results_file", cfg.Output.ResultsFile)
	v.SetDefault("output.report_file", cfg.Output.ReportFile)

	v.SetDefault("data.dataset_files", cfg.Data.DatasetFiles)

	v.SetDefault("suspicion.title_keywords", cfg.Suspicion.TitleKeywords)
	v.SetDefault("suspicion.seller_keywords", cfg.Suspicion.SellerKeywords)
	v.SetDefault("suspicion.trusted_sellers", cfg.Suspicion.TrustedSellers)

	v.SetDefault("alert.redis_addr", cfg.Alert.RedisAddr)
	v.SetDefault("alert.stream", cfg.Alert.Stream)

	v.SetDefault("server.port", cfg.Server.Port)

	v.SetDefault("logging.level", cfg.Logging.Level)
	v.SetDefault("logging.format", cfg.Logging.Format)
	v.SetDefault("logging.file", cfg.Logging.File)
}
