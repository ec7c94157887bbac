package config

import (
	"fmt"
	"time"

	"github.com/maltedev/amazon-piracy-detector/internal/suspicion"
)

// DefaultPath is used when no config file is given.
const DefaultPath = "config.json"

type Config struct {
	Scraping     ScrapingConfig     `mapstructure:"scraping"`
	AI           AIConfig           `mapstructure:"ai"`
	RiskAnalysis RiskAnalysisConfig `mapstructure:"risk_analysis"`
	Output       OutputConfig       `mapstructure:"output"`
	Data         DataConfig         `mapstructure:"data"`
	Suspicion    SuspicionConfig    `mapstructure:"suspicion"`
	Alert        AlertConfig        `mapstructure:"alert"`
	Server       ServerConfig       `mapstructure:"server"`
	Logging      LoggingConfig      `mapstructure:"logging"`
}

type ScrapingConfig struct {
	SearchTerms        []string `mapstructure:"search_terms"`
	MaxPages           int      `mapstructure:"max_pages"`
	Headless           bool     `mapstructure:"headless"`
	BaseURL            string   `mapstructure:"base_url"`
	WaitTimeoutSeconds int      `mapstructure:"wait_timeout_seconds"`
	NavigationRetries  int      `mapstructure:"navigation_retries"`
	PageDelayMS        int      `mapstructure:"page_delay_ms"`
	SearchDelayMS      int      `mapstructure:"search_delay_ms"`
	DetailSellerLookup bool     `mapstructure:"detail_seller_lookup"`
	DetailPass         bool     `mapstructure:"detail_pass"`
}

func (s ScrapingConfig) WaitTimeout() time.Duration {
	return time.Duration(s.WaitTimeoutSeconds) * time.Second
}

func (s ScrapingConfig) PageDelay() time.Duration {
	return time.Duration(s.PageDelayMS) * time.Millisecond
}

func (s ScrapingConfig) SearchDelay() time.Duration {
	return time.Duration(s.SearchDelayMS) * time.Millisecond
}

type AIConfig struct {
	ModelFile           string  `mapstructure:"model_file"`
	ConfidenceThreshold float64 `mapstructure:"confidence_threshold"`
}

type RiskAnalysisConfig struct {
	HighRiskThreshold   int `mapstructure:"high_risk_threshold"`
	MediumRiskThreshold int `mapstructure:"medium_risk_threshold"`
}

type OutputConfig struct {
	ResultsFile string `mapstructure:"results_file"`
	ReportFile  string `mapstructure:"report_file"`
}

type DataConfig struct {
	DatasetFiles []string `mapstructure:"dataset_files"`
}

type SuspicionConfig struct {
	TitleKeywords  []string `mapstructure:"title_keywords"`
	SellerKeywords []string `mapstructure:"seller_keywords"`
	TrustedSellers []string `mapstructure:"trusted_sellers"`
}

func (s SuspicionConfig) Keywords() suspicion.Keywords {
	return suspicion.Keywords{
		Title:   s.TitleKeywords,
		Seller:  s.SellerKeywords,
		Trusted: s.TrustedSellers,
	}
}

type AlertConfig struct {
	RedisAddr string `mapstructure:"redis_addr"`
	Stream    string `mapstructure:"stream"`
}

type ServerConfig struct {
	Port int `mapstructure:"port"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	File   string `mapstructure:"file"`
}

func DefaultConfig() *Config {
	return &Config{
		Scraping: ScrapingConfig{
			SearchTerms: []string{
				"cartucho HP 667",
				"cartucho HP 667XL",
				"cartucho HP 664",
				"cartucho HP 662",
			},
			MaxPages:           2,
			Headless:           true,
			BaseURL:            "https://www.amazon.com.br",
			WaitTimeoutSeconds: 10,
			NavigationRetries:  3,
			PageDelayMS:        3000,
			SearchDelayMS:      2000,
			DetailSellerLookup: true,
			DetailPass:         false,
		},
		AI: AIConfig{
			ModelFile:           "results/piracy_model.json",
			ConfidenceThreshold: 0.7,
		},
		RiskAnalysis: RiskAnalysisConfig{
			HighRiskThreshold:   4,
			MediumRiskThreshold: 2,
		},
		Output: OutputConfig{
			ResultsFile: "results/piracy_detection_results.csv",
			ReportFile:  "results/piracy_report.html",
		},
		Data: DataConfig{
			DatasetFiles: []string{"data/base_dados.csv", "base_dados.csv"},
		},
		Suspicion: SuspicionConfig{
			TitleKeywords:  suspicion.DefaultTitleKeywords,
			SellerKeywords: suspicion.DefaultSellerKeywords,
			TrustedSellers: suspicion.DefaultTrustedSellers,
		},
		Alert: AlertConfig{
			Stream: "stream:piracy_alerts",
		},
		Server: ServerConfig{
			Port: 8084,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			File:   "logs/pipeline.log",
		},
	}
}

func (c *Config) Validate() error {
	if len(c.Scraping.SearchTerms) == 0 {
		return fmt.Errorf("scraping.search_terms must not be empty")
	}

	if c.Scraping.MaxPages < 1 {
		return fmt.Errorf("scraping.max_pages must be at least 1")
	}

	if c.Scraping.WaitTimeoutSeconds < 1 {
		return fmt.Errorf("scraping.wait_timeout_seconds must be at least 1")
	}

	if c.AI.ConfidenceThreshold < 0 || c.AI.ConfidenceThreshold > 1 {
		return fmt.Errorf("ai.confidence_threshold must be between 0 and 1")
	}

	if c.RiskAnalysis.MediumRiskThreshold > c.RiskAnalysis.HighRiskThreshold {
		return fmt.Errorf("risk_analysis.medium_risk_threshold cannot be greater than risk_analysis.high_risk_threshold")
	}

	if c.Output.ResultsFile == "" || c.Output.ReportFile == "" {
		return fmt.Errorf("output.results_file and output.report_file are required")
	}

	return nil
}
