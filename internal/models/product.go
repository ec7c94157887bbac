package models

import (
	"time"
)

const (
	// TitleUnavailable is stored when no title strategy produced a value.
	TitleUnavailable = "title unavailable"
	// SellerUnidentified is stored when every seller tier failed.
	SellerUnidentified = "unidentified"
)

// Assessor derives the suspicion verdict of a record from its title and seller.
type Assessor interface {
	Assess(title, seller string) (bool, []string)
}

// ProductRecord is one product harvested from a search listing.
type ProductRecord struct {
	ASIN        string    `json:"asin"`
	Title       string    `json:"title"`
	URL         string    `json:"url,omitempty"`
	Price       *float64  `json:"price,omitempty"`
	Rating      *float64  `json:"rating,omitempty"`
	ReviewCount *int      `json:"review_count,omitempty"`
	Seller      string    `json:"seller"`
	SearchTerm  string    `json:"search_term"`
	ScrapedAt   time.Time `json:"scraped_at"`

	SellerDetailed string   `json:"seller_detailed,omitempty"`
	PriceDetailed  *float64 `json:"price_detailed,omitempty"`

	suspicious bool
	reasons    []string
}

func (r ProductRecord) IsSuspicious() bool {
	return r.suspicious
}

func (r ProductRecord) SuspicionReasons() []string {
	out := make([]string, len(r.reasons))
	copy(out, r.reasons)
	return out
}

// Assessed returns a copy of r with its suspicion verdict recomputed by a.
func (r ProductRecord) Assessed(a Assessor) ProductRecord {
	r.suspicious, r.reasons = a.Assess(r.Title, r.Seller)
	return r
}

func (r ProductRecord) HasIdentifiedSeller() bool {
	return r.Seller != "" && r.Seller != SellerUnidentified
}

// Merged returns a copy of r where the values found on the detail page take
// precedence over the listing values.
func (r ProductRecord) Merged() ProductRecord {
	if r.SellerDetailed != "" {
		r.Seller = r.SellerDetailed
	}
	if r.PriceDetailed != nil {
		p := *r.PriceDetailed
		r.Price = &p
	}
	return r
}
