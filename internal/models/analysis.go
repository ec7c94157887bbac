package models

import (
	"strings"
	"time"
)

type Label string

const (
	LabelSuspicious Label = "SUSPICIOUS"
	LabelOriginal   Label = "ORIGINAL"
)

// ParseLabel maps dataset label spellings onto a Label. Anything not
// recognised as suspicious is treated as original.
func ParseLabel(s string) Label {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "suspicious", "suspeito", "pirata", "pirated", "fake", "falso", "1", "true", "yes", "sim":
		return LabelSuspicious
	default:
		return LabelOriginal
	}
}

type RiskLevel string

const (
	RiskHigh   RiskLevel = "HIGH"
	RiskMedium RiskLevel = "MEDIUM"
	RiskLow    RiskLevel = "LOW"
)

// AnalyzedRecord is a ProductRecord annotated by classification and risk scoring.
type AnalyzedRecord struct {
	ProductRecord

	Prediction Label     `json:"ai_prediction,omitempty"`
	Confidence float64   `json:"ai_confidence"`
	RiskScore  int       `json:"risk_score"`
	RiskLevel  RiskLevel `json:"risk_level,omitempty"`
	AnalyzedAt time.Time `json:"analysis_timestamp"`
}

func NewAnalyzedRecords(records []ProductRecord) []AnalyzedRecord {
	out := make([]AnalyzedRecord, len(records))
	for i, r := range records {
		out[i] = AnalyzedRecord{ProductRecord: r}
	}
	return out
}

// Sample is one labelled row of the training dataset.
type Sample struct {
	Title  string
	Seller string
	Price  *float64
	Label  Label
}
