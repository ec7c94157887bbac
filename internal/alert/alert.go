package alert

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/maltedev/amazon-piracy-detector/internal/models"
)

// Publisher forwards high-risk records to an external channel.
type Publisher interface {
	Publish(ctx context.Context, records []models.AnalyzedRecord) error
}

// Alerter reports high-risk records in the log and to every publisher.
type Alerter struct {
	publishers []Publisher
	logger     *slog.Logger
}

func New(logger *slog.Logger, publishers ...Publisher) *Alerter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Alerter{
		publishers: publishers,
		logger:     logger.With("component", "alert"),
	}
}

// HighRisk returns the records in the high risk tier.
func HighRisk(records []models.AnalyzedRecord) []models.AnalyzedRecord {
	var out []models.AnalyzedRecord
	for _, r := range records {
		if r.RiskLevel == models.RiskHigh {
			out = append(out, r)
		}
	}
	return out
}

// Alert returns the number of high-risk records reported. Records without
// risk data produce no alert and no error.
func (a *Alerter) Alert(ctx context.Context, records []models.AnalyzedRecord) (int, error) {
	high := HighRisk(records)
	if len(high) == 0 {
		a.logger.Info("no high risk products", "records", len(records))
		return 0, nil
	}

	a.logger.Warn(fmt.Sprintf("ALERT: %d high risk products", len(high)))
	for _, r := range high {
		a.logger.Warn("high risk product",
			"title", r.Title,
			"price", price(r.Price),
			"seller", r.Seller,
			"risk_score", r.RiskScore,
			"url", r.URL)
	}

	var errs []error
	for _, p := range a.publishers {
		if err := p.Publish(ctx, high); err != nil {
			a.logger.Error("failed to publish alerts", "error", err)
			errs = append(errs, err)
		}
	}

	return len(high), errors.Join(errs...)
}

func price(p *float64) string {
	if p == nil {
		return "N/A"
	}
	return fmt.Sprintf("R$ %.2f", *p)
}
