// Package report renders the HTML summary of an analysis run.
package report

import (
	"bytes"
	"fmt"
	"html/template"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/maltedev/amazon-piracy-detector/internal/models"
)

type Row struct {
	Title      string
	Price      string
	Seller     string
	Prediction string
	Confidence string
	RiskScore  int
	RiskLevel  string
	RiskClass  string
	URL        string
	SearchTerm string
}

type PredictionRow struct {
	Label   string
	Count   int
	Percent string
}

type Data struct {
	GeneratedAt string
	Total       int
	High        int
	Medium      int
	Low         int
	HighRisk    []Row
	Predictions []PredictionRow
	Records     []Row
}

var page = template.Must(template.New("report").Parse(reportTemplate))

// Build summarizes records for rendering.
func Build(records []models.AnalyzedRecord, generatedAt time.Time) Data {
	d := Data{
		GeneratedAt: generatedAt.Format("02/01/2006 15:04:05"),
		Total:       len(records),
	}

	counts := make(map[string]int)
	for _, r := range records {
		row := toRow(r)
		d.Records = append(d.Records, row)

		switch r.RiskLevel {
		case models.RiskHigh:
			d.High++
			d.HighRisk = append(d.HighRisk, row)
		case models.RiskMedium:
			d.Medium++
		case models.RiskLow:
			d.Low++
		}

		label := string(r.Prediction)
		if label == "" {
			label = "N/A"
		}
		counts[label]++
	}

	for label, n := range counts {
		d.Predictions = append(d.Predictions, PredictionRow{
			Label:   label,
			Count:   n,
			Percent: fmt.Sprintf("%.1f%%", 100*float64(n)/float64(len(records))),
		})
	}
	sort.Slice(d.Predictions, func(i, j int) bool {
		if d.Predictions[i].Count != d.Predictions[j].Count {
			return d.Predictions[i].Count > d.Predictions[j].Count
		}
		return d.Predictions[i].Label < d.Predictions[j].Label
	})

	return d
}

func toRow(r models.AnalyzedRecord) Row {
	price := "N/A"
	if r.Price != nil {
		price = fmt.Sprintf("R$ %.2f", *r.Price)
	}
	level := string(r.RiskLevel)
	class := "risk-unknown"
	switch r.RiskLevel {
	case models.RiskHigh:
		class = "risk-high"
	case models.RiskMedium:
		class = "risk-medium"
	case models.RiskLow:
		class = "risk-low"
	}
	return Row{
		Title:      r.Title,
		Price:      price,
		Seller:     r.Seller,
		Prediction: string(r.Prediction),
		Confidence: fmt.Sprintf("%.2f", r.Confidence),
		RiskScore:  r.RiskScore,
		RiskLevel:  level,
		RiskClass:  class,
		URL:        r.URL,
		SearchTerm: r.SearchTerm,
	}
}

func Render(w io.Writer, d Data) error {
	return page.Execute(w, d)
}

// Write renders the report for records into path, creating its directory.
func Write(path string, records []models.AnalyzedRecord, generatedAt time.Time) error {
	var buf bytes.Buffer
	if err := Render(&buf, Build(records, generatedAt)); err != nil {
		return fmt.Errorf("failed to render report: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create report directory: %w", err)
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}
