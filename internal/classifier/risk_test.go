package classifier

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maltedev/amazon-piracy-detector/internal/models"
)

func priced(r models.AnalyzedRecord, price float64) models.AnalyzedRecord {
	r.Price = &price
	return r
}

func TestAnalyzeRiskLevel(t *testing.T) {
	c := New(DefaultOptions())

	confident := record("Cartucho HP 667 Compatível", "Marketplace BR")
	confident.Prediction, confident.Confidence = models.LabelSuspicious, 0.9

	unsure := record("Cartucho HP 667 Preto", "Loja Azul")
	unsure.Prediction, unsure.Confidence = models.LabelSuspicious, 0.55

	clean := record("Cartucho HP 667 Original", "HP")
	clean.Prediction, clean.Confidence = models.LabelOriginal, 0.9

	out, err := c.AnalyzeRiskLevel([]models.AnalyzedRecord{confident, unsure, clean})
	require.NoError(t, err)
	require.Len(t, out, 3)

	// 3 prediction + compatível + marketplace
	assert.Equal(t, 5, out[0].RiskScore)
	assert.Equal(t, models.RiskHigh, out[0].RiskLevel)

	assert.Equal(t, 2, out[1].RiskScore)
	assert.Equal(t, models.RiskMedium, out[1].RiskLevel)

	assert.Equal(t, 0, out[2].RiskScore)
	assert.Equal(t, models.RiskLow, out[2].RiskLevel)

	assert.Empty(t, confident.RiskLevel, "input records are not modified")
}

func TestAnalyzeRiskLevel_PriceAndRatingSignals(t *testing.T) {
	c := New(DefaultOptions())

	cheap := priced(record("Cartucho HP 667 Preto", models.SellerUnidentified), 20)
	rating := 2.5
	cheap.Rating = &rating

	normal := priced(record("Cartucho HP 667 Preto", "HP"), 80)
	other := priced(record("Cartucho HP 667 Colorido", "HP"), 90)
	noPrice := record("Cartucho HP 667 Tricolor", "HP")

	out, err := c.AnalyzeRiskLevel([]models.AnalyzedRecord{cheap, normal, other, noPrice})
	require.NoError(t, err)

	// unidentified seller + under half of the median (80) + low rating
	assert.Equal(t, 3, out[0].RiskScore)
	assert.Equal(t, models.RiskMedium, out[0].RiskLevel)
	assert.Equal(t, 0, out[1].RiskScore)
	assert.Equal(t, 0, out[3].RiskScore, "a missing price adds nothing")
}

func TestMedianPrices(t *testing.T) {
	a := priced(models.AnalyzedRecord{ProductRecord: models.ProductRecord{SearchTerm: "a"}}, 10)
	b := priced(models.AnalyzedRecord{ProductRecord: models.ProductRecord{SearchTerm: "a"}}, 30)
	c := priced(models.AnalyzedRecord{ProductRecord: models.ProductRecord{SearchTerm: "b"}}, 7)

	m := medianPrices([]models.AnalyzedRecord{a, b, c})

	assert.Equal(t, 20.0, m["a"])
	assert.Equal(t, 7.0, m["b"])
}
