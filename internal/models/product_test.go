package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type stubAssessor struct{}

func (stubAssessor) Assess(title, seller string) (bool, []string) {
	if seller == "marketplace" {
		return true, []string{"seller: 'marketplace'"}
	}
	return false, nil
}

func TestProductRecord_Assessed(t *testing.T) {
	r := ProductRecord{Title: "Cartucho", Seller: "marketplace"}

	assessed := r.Assessed(stubAssessor{})

	assert.False(t, r.IsSuspicious(), "original must stay untouched")
	assert.True(t, assessed.IsSuspicious())
	assert.Equal(t, []string{"seller: 'marketplace'"}, assessed.SuspicionReasons())
}

func TestProductRecord_Merged(t *testing.T) {
	listing := 50.0
	detail := 45.9
	r := ProductRecord{Seller: "Loja X", Price: &listing, SellerDetailed: "TECKKIN", PriceDetailed: &detail}

	merged := r.Merged()

	assert.Equal(t, "TECKKIN", merged.Seller)
	assert.InDelta(t, 45.9, *merged.Price, 0.001)
	assert.InDelta(t, 50.0, *r.Price, 0.001)
}

func TestProductRecord_MergedKeepsListingValues(t *testing.T) {
	price := 10.0
	r := ProductRecord{Seller: "Loja X", Price: &price}

	merged := r.Merged()

	assert.Equal(t, "Loja X", merged.Seller)
	assert.Equal(t, 10.0, *merged.Price)
}

func TestParseLabel(t *testing.T) {
	tests := map[string]Label{
		"SUSPEITO":    LabelSuspicious,
		" suspicious": LabelSuspicious,
		"1":           LabelSuspicious,
		"ORIGINAL":    LabelOriginal,
		"":            LabelOriginal,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseLabel(in), in)
	}
}

func TestHasIdentifiedSeller(t *testing.T) {
	assert.False(t, ProductRecord{Seller: SellerUnidentified}.HasIdentifiedSeller())
	assert.False(t, ProductRecord{}.HasIdentifiedSeller())
	assert.True(t, ProductRecord{Seller: "HP"}.HasIdentifiedSeller())
}
