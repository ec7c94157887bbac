package scraper

import (
	"context"

	"github.com/maltedev/amazon-piracy-detector/internal/browser"
	"github.com/maltedev/amazon-piracy-detector/internal/models"
	"github.com/maltedev/amazon-piracy-detector/internal/parser"
	"github.com/maltedev/amazon-piracy-detector/internal/seller"
)

// enrich visits each record's detail page in a separate tab and stores the
// seller and price found there in the detailed fields.
func (h *Harvester) enrich(ctx context.Context, records []models.ProductRecord) []models.ProductRecord {
	out := make([]models.ProductRecord, len(records))
	copy(out, records)

	for i, r := range records {
		info, err := h.visitDetail(ctx, r)
		if err != nil {
			h.logger.Warn("detail page skipped", "asin", r.ASIN, "term", r.SearchTerm, "error", err)
			continue
		}

		if info.Seller != "" && seller.IsValidSellerName(info.Seller) {
			out[i].SellerDetailed = info.Seller
		}
		out[i].PriceDetailed = info.Price

		if err := h.limiter.Wait(ctx); err != nil {
			return out
		}
	}
	return out
}

func (h *Harvester) visitDetail(ctx context.Context, r models.ProductRecord) (*parser.DetailInfo, error) {
	target := r.URL
	if target == "" {
		if r.ASIN == "" {
			return nil, ErrNoDetailURL
		}
		target = h.fields.DetailURL(r.ASIN)
	}

	var info *parser.DetailInfo
	err := browser.WithTab(h.driver, func() error {
		if err := h.driver.Navigate(ctx, target); err != nil {
			return err
		}
		h.driver.WaitFor(ctx, "#productTitle", h.opts.WaitTimeout)

		html, err := h.driver.Content()
		if err != nil {
			return err
		}
		info, err = h.detail.ParseDetailPage(html)
		return err
	})
	return info, err
}
