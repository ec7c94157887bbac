package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/maltedev/amazon-piracy-detector/internal/models"
	"github.com/maltedev/amazon-piracy-detector/internal/observability"
	"github.com/maltedev/amazon-piracy-detector/internal/pipeline"
)

var (
	ErrRunInProgress = errors.New("a run is already in progress")
	ErrRunNotFound   = errors.New("run not found")
)

const (
	StatusPending   = "pending"
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// Runner executes one pipeline run.
type Runner interface {
	Run(ctx context.Context) (pipeline.Result, error)
}

// Factory builds a fresh runner for a request. It owns browser startup, so a
// factory error fails the run.
type Factory func(ctx context.Context, req Request) (Runner, error)

// Request overrides the configured search parameters of one run.
type Request struct {
	SearchTerms []string `json:"search_terms,omitempty"`
	MaxPages    int      `json:"max_pages,omitempty"`
}

// Run represents a pipeline run
type Run struct {
	ID           string     `json:"id"`
	Status       string     `json:"status"`
	SearchTerms  []string   `json:"search_terms,omitempty"`
	MaxPages     int        `json:"max_pages,omitempty"`
	Harvested    int        `json:"harvested"`
	Suspicious   int        `json:"suspicious"`
	HighRisk     int        `json:"high_risk"`
	FailedStages []string   `json:"failed_stages,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	StartedAt    *time.Time `json:"started_at,omitempty"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
	Error        string     `json:"error,omitempty"`
}

// Stats summarises the runs seen by the manager.
type Stats struct {
	TotalRuns     int     `json:"total_runs"`
	RunningRuns   int     `json:"running_runs"`
	CompletedRuns int     `json:"completed_runs"`
	FailedRuns    int     `json:"failed_runs"`
	SuccessRate   float64 `json:"success_rate"`
}

// Manager runs pipelines in the background, one at a time.
type Manager struct {
	mu      sync.Mutex
	runs    map[string]*Run
	active  string
	records []models.AnalyzedRecord

	ctx     context.Context
	factory Factory
	metrics *observability.Metrics
	logger  *slog.Logger
	wg      sync.WaitGroup
	now     func() time.Time
}

// NewManager returns a manager whose runs live as long as ctx.
func NewManager(ctx context.Context, factory Factory, metrics *observability.Metrics, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		runs:    make(map[string]*Run),
		ctx:     ctx,
		factory: factory,
		metrics: metrics,
		logger:  logger.With("component", "run_manager"),
		now:     time.Now,
	}
}

// Start creates a run and executes it in the background.
func (m *Manager) Start(req Request) (*Run, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.active != "" {
		return nil, fmt.Errorf("%w: %s", ErrRunInProgress, m.active)
	}

	run := &Run{
		ID:          uuid.New().String(),
		Status:      StatusPending,
		SearchTerms: req.SearchTerms,
		MaxPages:    req.MaxPages,
		CreatedAt:   m.now(),
	}
	m.runs[run.ID] = run
	m.active = run.ID

	m.wg.Add(1)
	go m.execute(run.ID, req)

	m.logger.Info("run created", "id", run.ID, "terms", len(req.SearchTerms))
	return run.copy(), nil
}

func (m *Manager) execute(id string, req Request) {
	defer m.wg.Done()

	m.update(id, func(r *Run) {
		now := m.now()
		r.Status = StatusRunning
		r.StartedAt = &now
	})

	res, err := m.runPipeline(req)

	m.mu.Lock()
	defer m.mu.Unlock()

	run := m.runs[id]
	now := m.now()
	run.CompletedAt = &now
	run.Harvested = res.Harvested
	run.Suspicious = res.Suspicious
	run.HighRisk = res.HighRisk
	run.FailedStages = res.FailedStages()
	m.active = ""

	if err != nil {
		run.Status = StatusFailed
		run.Error = err.Error()
		m.metrics.RunFinished(StatusFailed)
		m.logger.Error("run failed", "id", id, "error", err)
		return
	}

	run.Status = StatusCompleted
	m.records = res.Records
	m.metrics.RunFinished(StatusCompleted)
	m.logger.Info("run completed", "id", id, "records", res.Harvested, "high_risk", res.HighRisk)
}

func (m *Manager) runPipeline(req Request) (res pipeline.Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("run panicked: %v", r)
		}
	}()

	runner, err := m.factory(m.ctx, req)
	if err != nil {
		return pipeline.Result{}, fmt.Errorf("failed to set up run: %w", err)
	}
	return runner.Run(m.ctx)
}

func (m *Manager) update(id string, fn func(*Run)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r, ok := m.runs[id]; ok {
		fn(r)
	}
}

// Get retrieves a run by ID
func (m *Manager) Get(id string) (*Run, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.runs[id]
	if !ok {
		return nil, ErrRunNotFound
	}
	return r.copy(), nil
}

// List returns all runs, newest first.
func (m *Manager) List() []*Run {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]*Run, 0, len(m.runs))
	for _, r := range m.runs {
		out = append(out, r.copy())
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

// Records returns the analysed records of the last completed run.
func (m *Manager) Records() []models.AnalyzedRecord {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]models.AnalyzedRecord, len(m.records))
	copy(out, m.records)
	return out
}

func (m *Manager) Stats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()

	var s Stats
	for _, r := range m.runs {
		s.TotalRuns++
		switch r.Status {
		case StatusRunning, StatusPending:
			s.RunningRuns++
		case StatusCompleted:
			s.CompletedRuns++
		case StatusFailed:
			s.FailedRuns++
		}
	}
	if s.TotalRuns > 0 {
		s.SuccessRate = float64(s.CompletedRuns) / float64(s.TotalRuns) * 100
	}
	return s
}

// Wait blocks until every started run has finished.
func (m *Manager) Wait() {
	m.wg.Wait()
}

func (r *Run) copy() *Run {
	c := *r
	c.SearchTerms = append([]string(nil), r.SearchTerms...)
	c.FailedStages = append([]string(nil), r.FailedStages...)
	return &c
}
