package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"time"

	"github.com/maltedev/amazon-piracy-detector/internal/models"
	"github.com/maltedev/amazon-piracy-detector/internal/observability"
	"github.com/maltedev/amazon-piracy-detector/internal/ratelimit"
	"github.com/maltedev/amazon-piracy-detector/internal/report"
	"github.com/maltedev/amazon-piracy-detector/internal/scraper"
	"github.com/maltedev/amazon-piracy-detector/internal/storage"
)

const (
	StageLoadDataset = "load_dataset"
	StageTrain       = "train_or_load"
	StageHarvest     = "harvest"
	StageMerge       = "merge"
	StageClassify    = "classify"
	StageRisk        = "risk"
	StagePersist     = "persist"
	StageReport      = "report"
	StageAlert       = "alert"
)

// Classifier labels and risk-ranks analysed records.
type Classifier interface {
	IsTrained() bool
	Train(samples []models.Sample) (float64, error)
	Save(path string) error
	Load(path string) error
	Predict(records []models.AnalyzedRecord) ([]models.AnalyzedRecord, error)
	ApplyHeuristicRules(r models.ProductRecord) models.Label
	AnalyzeRiskLevel(records []models.AnalyzedRecord) ([]models.AnalyzedRecord, error)
	Accuracy() float64
}

// Alerter reports high-risk records and returns how many were reported.
type Alerter interface {
	Alert(ctx context.Context, records []models.AnalyzedRecord) (int, error)
}

// DefaultConfidence is assigned to rule-based predictions.
const DefaultConfidence = 0.5

type Options struct {
	SearchTerms  []string
	DatasetFiles []string
	ModelFile    string
	ResultsFile  string
	ReportFile   string
}

type Deps struct {
	Scraper    scraper.Scraper
	Classifier Classifier
	Assessor   models.Assessor
	Alerter    Alerter
	// Limiter spaces out consecutive search terms.
	Limiter ratelimit.RateLimiter
	Metrics *observability.Metrics
	// Closer releases the browser once the run ends.
	Closer io.Closer
	Logger *slog.Logger
}

// Result is the outcome of one run.
type Result struct {
	Records    []models.AnalyzedRecord `json:"-"`
	Harvested  int                     `json:"harvested"`
	Suspicious int                     `json:"suspicious"`
	HighRisk   int                     `json:"high_risk"`
	Failures   []*StageError           `json:"-"`
	StartedAt  time.Time               `json:"started_at"`
	FinishedAt time.Time               `json:"finished_at"`
}

// FailedStages lists the names of the stages that failed.
func (r Result) FailedStages() []string {
	out := make([]string, 0, len(r.Failures))
	for _, f := range r.Failures {
		out = append(out, f.Stage)
	}
	return out
}

type Pipeline struct {
	deps   Deps
	opts   Options
	logger *slog.Logger
	now    func() time.Time
}

func New(deps Deps, opts Options) *Pipeline {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		deps:   deps,
		opts:   opts,
		logger: logger.With("component", "pipeline"),
		now:    time.Now,
	}
}

// run holds the data flowing between stages.
type run struct {
	samples  []models.Sample
	records  []models.ProductRecord
	analyzed []models.AnalyzedRecord
	result   Result
}

// Run executes every stage in order. A failing stage is logged and recorded
// in Result.Failures; later stages run on whatever data exists. Run returns
// an error only when ctx is cancelled.
func (p *Pipeline) Run(ctx context.Context) (res Result, err error) {
	st := &run{}
	st.result.StartedAt = p.now()

	defer func() {
		if p.deps.Closer != nil {
			if cerr := p.deps.Closer.Close(); cerr != nil {
				p.logger.Warn("failed to close browser", "error", cerr)
			}
		}
		st.result.FinishedAt = p.now()
		res = st.result
	}()

	p.logger.Info("pipeline started", "terms", len(p.opts.SearchTerms))

	p.runStage(ctx, st, StageLoadDataset, p.loadDataset)
	p.runStage(ctx, st, StageTrain, p.trainOrLoad)
	p.runStage(ctx, st, StageHarvest, p.harvest)
	if err := ctx.Err(); err != nil {
		return st.result, err
	}

	st.result.Harvested = len(st.records)
	if len(st.records) == 0 {
		p.logger.Warn("no products harvested, stopping")
		return st.result, nil
	}

	p.runStage(ctx, st, StageMerge, p.merge)
	p.runStage(ctx, st, StageClassify, p.classify)
	p.runStage(ctx, st, StageRisk, p.rank)
	p.runStage(ctx, st, StagePersist, p.persist)
	p.runStage(ctx, st, StageReport, p.report)
	p.runStage(ctx, st, StageAlert, p.alert)

	st.result.Records = st.analyzed
	st.result.Suspicious = countSuspicious(st.analyzed)

	p.logger.Info("pipeline finished",
		"records", len(st.analyzed),
		"high_risk", st.result.HighRisk,
		"failed_stages", len(st.result.Failures))

	return st.result, ctx.Err()
}

func (p *Pipeline) runStage(ctx context.Context, st *run, name string, fn func(context.Context, *run) error) {
	logger := p.logger.With("stage", name)
	start := time.Now()

	err := func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("panic: %v", r)
			}
		}()
		if err := ctx.Err(); err != nil {
			return err
		}
		return fn(ctx, st)
	}()

	p.deps.Metrics.ObserveStage(name, time.Since(start).Seconds())

	if err != nil {
		logger.Error("stage failed", "error", err)
		p.deps.Metrics.StageFailed(name)
		st.result.Failures = append(st.result.Failures, &StageError{Stage: name, Err: err})
		return
	}
	logger.Debug("stage completed", "duration", time.Since(start))
}

func (p *Pipeline) loadDataset(_ context.Context, st *run) error {
	path, err := storage.FindDataset(p.opts.DatasetFiles)
	if err != nil {
		if errors.Is(err, storage.ErrDatasetNotFound) {
			p.logger.Warn("no dataset found", "paths", p.opts.DatasetFiles)
			return nil
		}
		return err
	}

	samples, err := storage.LoadDataset(path)
	if err != nil {
		return err
	}
	st.samples = samples
	p.logger.Info("dataset loaded", "path", path, "samples", len(samples))
	return nil
}

func (p *Pipeline) trainOrLoad(_ context.Context, st *run) error {
	c := p.deps.Classifier
	if c.IsTrained() {
		return nil
	}

	if p.opts.ModelFile != "" {
		err := c.Load(p.opts.ModelFile)
		switch {
		case err == nil:
			p.logger.Info("model loaded", "path", p.opts.ModelFile, "accuracy", c.Accuracy())
			return nil
		case errors.Is(err, fs.ErrNotExist):
			p.logger.Debug("no saved model", "path", p.opts.ModelFile)
		default:
			p.logger.Warn("failed to load model", "path", p.opts.ModelFile, "error", err)
		}
	}

	if len(st.samples) == 0 {
		p.logger.Info("no training data, using rule-based classification")
		return nil
	}

	accuracy, err := c.Train(st.samples)
	if err != nil {
		return fmt.Errorf("failed to train classifier: %w", err)
	}
	p.logger.Info("classifier trained", "samples", len(st.samples), "accuracy", accuracy)

	if p.opts.ModelFile == "" {
		return nil
	}
	if err := c.Save(p.opts.ModelFile); err != nil {
		return fmt.Errorf("failed to save model: %w", err)
	}
	return nil
}

func (p *Pipeline) harvest(ctx context.Context, st *run) error {
	for i, term := range p.opts.SearchTerms {
		if i > 0 && p.deps.Limiter != nil {
			if err := p.deps.Limiter.Wait(ctx); err != nil {
				return err
			}
		}

		records, err := p.harvestTerm(ctx, term)
		if err != nil {
			p.logger.Warn("search term failed", "term", term, "error", err)
			continue
		}

		p.deps.Metrics.Harvested(term, len(records))
		p.logger.Info("search term harvested", "term", term, "records", len(records))
		st.records = append(st.records, records...)
	}
	return nil
}

func (p *Pipeline) harvestTerm(ctx context.Context, term string) (records []models.ProductRecord, err error) {
	defer func() {
		if r := recover(); r != nil {
			records, err = nil, fmt.Errorf("panic: %v", r)
		}
	}()
	return p.deps.Scraper.Harvest(ctx, term)
}

func (p *Pipeline) merge(_ context.Context, st *run) error {
	for i, r := range st.records {
		merged := r.Merged()
		if p.deps.Assessor != nil {
			merged = merged.Assessed(p.deps.Assessor)
		}
		st.records[i] = merged
	}
	st.analyzed = models.NewAnalyzedRecords(st.records)
	return nil
}

func (p *Pipeline) classify(_ context.Context, st *run) error {
	if st.analyzed == nil {
		st.analyzed = models.NewAnalyzedRecords(st.records)
	}

	c := p.deps.Classifier
	if c.IsTrained() {
		out, err := c.Predict(st.analyzed)
		if err == nil {
			st.analyzed = out
			return nil
		}
		p.logger.Warn("prediction failed, using rule-based classification", "error", err)
	}

	for i := range st.analyzed {
		st.analyzed[i].Prediction = c.ApplyHeuristicRules(st.analyzed[i].ProductRecord)
		st.analyzed[i].Confidence = DefaultConfidence
	}
	return nil
}

func (p *Pipeline) rank(_ context.Context, st *run) error {
	out, err := p.deps.Classifier.AnalyzeRiskLevel(st.analyzed)
	if err != nil {
		return err
	}

	now := p.now()
	for i := range out {
		out[i].AnalyzedAt = now
	}
	st.analyzed = out

	st.result.HighRisk = countHighRisk(out)
	p.deps.Metrics.SetHighRisk(st.result.HighRisk)
	return nil
}

func (p *Pipeline) persist(_ context.Context, st *run) error {
	if err := storage.WriteResults(p.opts.ResultsFile, st.analyzed); err != nil {
		return err
	}

	total := len(st.analyzed)
	suspicious := countSuspicious(st.analyzed)
	p.logger.Info("results saved",
		"path", p.opts.ResultsFile,
		"total", total,
		"suspicious", suspicious,
		"high_risk", countHighRisk(st.analyzed),
		"suspicious_rate", fmt.Sprintf("%.1f%%", percent(suspicious, total)))
	return nil
}

func (p *Pipeline) report(_ context.Context, st *run) error {
	if err := report.Write(p.opts.ReportFile, st.analyzed, p.now()); err != nil {
		return err
	}
	p.logger.Info("report written", "path", p.opts.ReportFile)
	return nil
}

func (p *Pipeline) alert(ctx context.Context, st *run) error {
	if p.deps.Alerter == nil {
		return nil
	}
	_, err := p.deps.Alerter.Alert(ctx, st.analyzed)
	return err
}

func countSuspicious(records []models.AnalyzedRecord) int {
	n := 0
	for _, r := range records {
		if r.IsSuspicious() {
			n++
		}
	}
	return n
}

func countHighRisk(records []models.AnalyzedRecord) int {
	n := 0
	for _, r := range records {
		if r.RiskLevel == models.RiskHigh {
			n++
		}
	}
	return n
}

func percent(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(n) / float64(total) * 100
}
