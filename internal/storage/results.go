package storage

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/maltedev/amazon-piracy-detector/internal/models"
)

var ErrNoRecords = errors.New("no records to write")

// ResultColumns is the header of the results file.
var ResultColumns = []string{
	"asin", "title", "url", "price", "rating", "review_count", "seller",
	"search_term", "scraped_at", "is_suspicious", "suspicion_reasons",
	"seller_detailed", "price_detailed", "ai_prediction", "ai_confidence",
	"risk_score", "risk_level", "analysis_timestamp",
}

const reasonSeparator = "; "

// WriteResults writes records as CSV to path, replacing any previous file.
// The parent directory is created when missing.
func WriteResults(path string, records []models.AnalyzedRecord) error {
	if len(records) == 0 {
		return ErrNoRecords
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create results directory: %w", err)
	}

	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("failed to create results file: %w", err)
	}

	w := csv.NewWriter(f)
	if err := w.Write(ResultColumns); err != nil {
		f.Close()
		return fmt.Errorf("failed to write header: %w", err)
	}
	for _, r := range records {
		if err := w.Write(row(r)); err != nil {
			f.Close()
			return fmt.Errorf("failed to write record %s: %w", r.ASIN, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return fmt.Errorf("failed to flush results: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close results file: %w", err)
	}

	return os.Rename(tmp, path)
}

func row(r models.AnalyzedRecord) []string {
	return []string{
		r.ASIN,
		r.Title,
		r.URL,
		formatFloat(r.Price, 2),
		formatFloat(r.Rating, 1),
		formatInt(r.ReviewCount),
		r.Seller,
		r.SearchTerm,
		formatTime(r.ScrapedAt),
		strconv.FormatBool(r.IsSuspicious()),
		strings.Join(r.SuspicionReasons(), reasonSeparator),
		r.SellerDetailed,
		formatFloat(r.PriceDetailed, 2),
		string(r.Prediction),
		strconv.FormatFloat(r.Confidence, 'f', 3, 64),
		strconv.Itoa(r.RiskScore),
		string(r.RiskLevel),
		formatTime(r.AnalyzedAt),
	}
}

func formatFloat(v *float64, prec int) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', prec, 64)
}

func formatInt(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}
