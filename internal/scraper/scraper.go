package scraper

import (
	"context"
	"errors"
	"net/url"
	"strings"

	"github.com/maltedev/amazon-piracy-detector/internal/models"
)

var (
	ErrEmptyTerm    = errors.New("empty search term")
	ErrSearchFailed = errors.New("search page could not be loaded")
	ErrNoDetailURL  = errors.New("record has no detail URL")
)

// Scraper harvests the product records of one search term.
type Scraper interface {
	Harvest(ctx context.Context, term string) ([]models.ProductRecord, error)
}

// SearchURL builds the results URL for term on the marketplace at base.
func SearchURL(base, term string) string {
	return strings.TrimRight(base, "/") + "/s?k=" + url.QueryEscape(term)
}
