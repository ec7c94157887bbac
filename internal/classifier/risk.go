package classifier

import (
	"sort"

	"github.com/maltedev/amazon-piracy-detector/internal/models"
)

const lowRating = 3.0

// AnalyzeRiskLevel scores every record and buckets it into a risk tier.
//
// Points: 3 for a confident suspicious prediction (2 below the confidence
// threshold), 1 per suspicion reason, 1 for an unidentified seller, 1 for a
// price under half the median of its search term, 1 for a rating under 3.
func (c *KeywordClassifier) AnalyzeRiskLevel(records []models.AnalyzedRecord) ([]models.AnalyzedRecord, error) {
	medians := medianPrices(records)

	out := make([]models.AnalyzedRecord, len(records))
	for i, r := range records {
		score := c.score(r, medians[r.SearchTerm])
		out[i] = r
		out[i].RiskScore = score
		out[i].RiskLevel = c.level(score)
	}
	return out, nil
}

func (c *KeywordClassifier) score(r models.AnalyzedRecord, median float64) int {
	score := 0

	if r.Prediction == models.LabelSuspicious {
		if r.Confidence >= c.opts.ConfidenceThreshold {
			score += 3
		} else {
			score += 2
		}
	}

	score += len(r.SuspicionReasons())

	if !r.HasIdentifiedSeller() {
		score++
	}
	if r.Price != nil && median > 0 && *r.Price < median/2 {
		score++
	}
	if r.Rating != nil && *r.Rating < lowRating {
		score++
	}

	return score
}

func (c *KeywordClassifier) level(score int) models.RiskLevel {
	switch {
	case score >= c.opts.HighRiskThreshold:
		return models.RiskHigh
	case score >= c.opts.MediumRiskThreshold:
		return models.RiskMedium
	default:
		return models.RiskLow
	}
}

func medianPrices(records []models.AnalyzedRecord) map[string]float64 {
	byTerm := make(map[string][]float64)
	for _, r := range records {
		if r.Price != nil {
			byTerm[r.SearchTerm] = append(byTerm[r.SearchTerm], *r.Price)
		}
	}

	medians := make(map[string]float64, len(byTerm))
	for term, prices := range byTerm {
		sort.Float64s(prices)
		n := len(prices)
		if n%2 == 1 {
			medians[term] = prices[n/2]
		} else {
			medians[term] = (prices[n/2-1] + prices[n/2]) / 2
		}
	}
	return medians
}
