package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/maltedev/amazon-piracy-detector/internal/jobs"
	"github.com/maltedev/amazon-piracy-detector/internal/models"
	"github.com/maltedev/amazon-piracy-detector/internal/report"
)

// RunManager is the run lifecycle used by the handlers.
type RunManager interface {
	Start(req jobs.Request) (*jobs.Run, error)
	Get(id string) (*jobs.Run, error)
	List() []*jobs.Run
	Records() []models.AnalyzedRecord
	Stats() jobs.Stats
}

type Handlers struct {
	runs   RunManager
	logger *slog.Logger
	now    func() time.Time
}

func NewHandlers(runs RunManager, logger *slog.Logger) *Handlers {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handlers{
		runs:   runs,
		logger: logger.With("component", "api"),
		now:    time.Now,
	}
}

// CreateRunResponse represents the run creation response
type CreateRunResponse struct {
	RunID   string `json:"run_id"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

// ResultItem is one analysed record as served by the API.
type ResultItem struct {
	models.AnalyzedRecord
	IsSuspicious     bool     `json:"is_suspicious"`
	SuspicionReasons []string `json:"suspicion_reasons"`
}

func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status": "ok",
		"runs":   h.runs.Stats(),
	})
}

// CreateRun starts a pipeline run in the background
func (h *Handlers) CreateRun(w http.ResponseWriter, r *http.Request) {
	var req jobs.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		h.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.MaxPages < 0 {
		h.respondError(w, http.StatusBadRequest, "max_pages must not be negative")
		return
	}

	run, err := h.runs.Start(req)
	if errors.Is(err, jobs.ErrRunInProgress) {
		h.respondError(w, http.StatusConflict, "a run is already in progress")
		return
	}
	if err != nil {
		h.logger.Error("failed to start run", "error", err)
		h.respondError(w, http.StatusInternalServerError, "failed to start run")
		return
	}

	h.respondJSON(w, http.StatusAccepted, CreateRunResponse{
		RunID:   run.ID,
		Status:  run.Status,
		Message: "Run started",
	})
}

func (h *Handlers) GetRun(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "runID")
	if runID == "" {
		h.respondError(w, http.StatusBadRequest, "run ID is required")
		return
	}

	run, err := h.runs.Get(runID)
	if err != nil {
		h.respondError(w, http.StatusNotFound, "run not found")
		return
	}

	h.respondJSON(w, http.StatusOK, run)
}

func (h *Handlers) ListRuns(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, h.runs.List())
}

// GetResults returns the records of the last completed run, optionally
// filtered by ?risk_level=HIGH|MEDIUM|LOW.
func (h *Handlers) GetResults(w http.ResponseWriter, r *http.Request) {
	level := models.RiskLevel(r.URL.Query().Get("risk_level"))

	items := make([]ResultItem, 0)
	for _, rec := range h.runs.Records() {
		if level != "" && rec.RiskLevel != level {
			continue
		}
		items = append(items, ResultItem{
			AnalyzedRecord:   rec,
			IsSuspicious:     rec.IsSuspicious(),
			SuspicionReasons: rec.SuspicionReasons(),
		})
	}

	h.respondJSON(w, http.StatusOK, items)
}

// GetReport renders the HTML report of the last completed run.
func (h *Handlers) GetReport(w http.ResponseWriter, r *http.Request) {
	records := h.runs.Records()
	if len(records) == 0 {
		h.respondError(w, http.StatusNotFound, "no results available")
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := report.Render(w, report.Build(records, h.now())); err != nil {
		h.logger.Error("failed to render report", "error", err)
	}
}

// Helper methods
func (h *Handlers) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

func (h *Handlers) respondError(w http.ResponseWriter, status int, message string) {
	h.respondJSON(w, status, map[string]string{"error": message})
}
