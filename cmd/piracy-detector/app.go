package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/maltedev/amazon-piracy-detector/internal/alert"
	"github.com/maltedev/amazon-piracy-detector/internal/browser"
	"github.com/maltedev/amazon-piracy-detector/internal/classifier"
	"github.com/maltedev/amazon-piracy-detector/internal/config"
	"github.com/maltedev/amazon-piracy-detector/internal/extract"
	"github.com/maltedev/amazon-piracy-detector/internal/jobs"
	"github.com/maltedev/amazon-piracy-detector/internal/logging"
	"github.com/maltedev/amazon-piracy-detector/internal/observability"
	"github.com/maltedev/amazon-piracy-detector/internal/pipeline"
	"github.com/maltedev/amazon-piracy-detector/internal/ratelimit"
	"github.com/maltedev/amazon-piracy-detector/internal/scraper"
	"github.com/maltedev/amazon-piracy-detector/internal/seller"
	"github.com/maltedev/amazon-piracy-detector/internal/suspicion"
)

// app holds what outlives a single run.
type app struct {
	cfg        *config.Config
	logger     *slog.Logger
	metrics    *observability.Metrics
	classifier *classifier.KeywordClassifier
	assessor   *suspicion.Heuristic
	alerter    *alert.Alerter
	closers    []io.Closer
}

func newApp() (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	level := cfg.Logging.Level
	if verbose {
		level = "debug"
	}
	logger, logCloser := logging.New(logging.Options{
		Level:  level,
		Format: cfg.Logging.Format,
		File:   cfg.Logging.File,
	})
	slog.SetDefault(logger)

	a := &app{
		cfg:     cfg,
		logger:  logger,
		metrics: observability.NewMetrics(),
		classifier: classifier.New(classifier.Options{
			ConfidenceThreshold: cfg.AI.ConfidenceThreshold,
			HighRiskThreshold:   cfg.RiskAnalysis.HighRiskThreshold,
			MediumRiskThreshold: cfg.RiskAnalysis.MediumRiskThreshold,
		}),
		assessor: suspicion.New(cfg.Suspicion.Keywords()),
		closers:  []io.Closer{logCloser},
	}

	var publishers []alert.Publisher
	if cfg.Alert.RedisAddr != "" {
		p := alert.NewRedisPublisher(cfg.Alert.RedisAddr, cfg.Alert.Stream)
		publishers = append(publishers, p)
		a.closers = append(a.closers, p)
		logger.Info("alert stream enabled", "addr", cfg.Alert.RedisAddr, "stream", cfg.Alert.Stream)
	}
	a.alerter = alert.New(logger, publishers...)

	return a, nil
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		_ = a.closers[i].Close()
	}
}

// newPipeline starts a browser and wires a pipeline around it. The pipeline
// closes the browser when its run ends.
func (a *app) newPipeline(_ context.Context, req jobs.Request) (*pipeline.Pipeline, error) {
	sc := a.cfg.Scraping
	terms := sc.SearchTerms
	if len(req.SearchTerms) > 0 {
		terms = req.SearchTerms
	}
	maxPages := sc.MaxPages
	if req.MaxPages > 0 {
		maxPages = req.MaxPages
	}

	opts := browser.DefaultOptions()
	opts.Headless = sc.Headless

	b, err := browser.New(opts, a.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize browser: %w", err)
	}

	driver, err := b.NewDriver(sc.NavigationRetries)
	if err != nil {
		b.Close()
		return nil, fmt.Errorf("failed to open page: %w", err)
	}

	fields, err := extract.NewFields(sc.BaseURL)
	if err != nil {
		b.Close()
		return nil, err
	}

	sellers := seller.NewResolver(driver, fields, seller.Options{
		DetailLookup: sc.DetailSellerLookup,
		WaitTimeout:  sc.WaitTimeout(),
	}, a.logger)

	harvester := scraper.NewHarvester(scraper.Deps{
		Driver:   driver,
		Fields:   fields,
		Filter:   extract.NewProductFilter(nil),
		Sellers:  sellers,
		Assessor: a.assessor,
		Limiter:  ratelimit.NewSimpleRateLimiter(sc.PageDelay(), sc.PageDelay()*2),
		Logger:   a.logger,
	}, scraper.Options{
		BaseURL:     sc.BaseURL,
		MaxPages:    maxPages,
		WaitTimeout: sc.WaitTimeout(),
		DetailPass:  sc.DetailPass,
	})

	return pipeline.New(pipeline.Deps{
		Scraper:    harvester,
		Classifier: a.classifier,
		Assessor:   a.assessor,
		Alerter:    a.alerter,
		Limiter:    ratelimit.Fixed(sc.SearchDelay()),
		Metrics:    a.metrics,
		Closer:     b,
		Logger:     a.logger,
	}, pipeline.Options{
		SearchTerms:  terms,
		DatasetFiles: a.cfg.Data.DatasetFiles,
		ModelFile:    a.cfg.AI.ModelFile,
		ResultsFile:  a.cfg.Output.ResultsFile,
		ReportFile:   a.cfg.Output.ReportFile,
	}), nil
}
