package seller

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/maltedev/amazon-piracy-detector/internal/browser"
	"github.com/maltedev/amazon-piracy-detector/internal/extract"
	"github.com/maltedev/amazon-piracy-detector/internal/models"
)

type Tier int

const (
	TierNone Tier = iota
	TierListingSelectors
	TierListingText
	TierDetailPage
	TierLexicon
)

func (t Tier) String() string {
	switch t {
	case TierListingSelectors:
		return "listing-selectors"
	case TierListingText:
		return "listing-text"
	case TierDetailPage:
		return "detail-page"
	case TierLexicon:
		return "lexicon"
	default:
		return "none"
	}
}

// listingSelectors match seller profile and storefront links, not
// /gp/bestsellers badges.
var listingSelectors = []string{
	"a[href*='seller=']",
	"a[href*='/sp?']",
	"a[href*='/shops/']",
	"a[href*='merchant=']",
	"a[href*='storefront']",
	"[data-cy='seller-name']",
	".offer-display-feature-text-message",
	"span.offer-display-feature-text-message",
	".a-size-small .a-link-normal[href*='seller=']",
	".a-size-small .a-link-normal[href*='merchant=']",
	".a-size-small .a-link-normal[href*='storefront']",
	".a-link-normal[href*='seller=']",
	".a-link-normal[href*='/shops/']",
	".a-link-normal[href*='merchant=']",
	".a-link-normal[href*='storefront']",
}

// merchantInfoSelectors are anchors whose label sits in the parent element.
var merchantInfoSelectors = []string{
	"a[data-csa-c-content-id='odf-desktop-merchant-info']",
	"a[data-csa-c-slot-id='odf-desktop-merchant-info-anchor-text']",
}

var detailSelectors = []string{
	"[data-cel-widget='desktop-merchant-info']",
	"[offer-display-feature-name='desktop-merchant-info']",
	".offer-display-feature-label[data-cel-widget='desktop-merchant-info']",
	"#merchant-info",
	"[data-cy='seller-name']",
	"a[href*='seller=']",
	"a[href*='merchant=']",
	"a[data-csa-c-content-id='odf-desktop-merchant-info']",
	"a[data-csa-c-slot-id='odf-desktop-merchant-info-anchor-text']",
	".offer-display-feature-text-message",
	"span.offer-display-feature-text-message",
}

// DefaultKnownSellers is the lexicon of the last tier, matched in order.
var DefaultKnownSellers = []string{
	"Amazon.com.br", "Amazon", "Microjet", "TECKKIN", "WISETA", "Valuetoner",
	"GPC Image", "YATUNINK", "ASANSH", "Zencoma", "Supreme Quality",
	"HP", "Epson", "Canon", "Brother",
}

// Listing identifies the result whose seller is being resolved.
type Listing struct {
	ASIN string
	URL  string
}

type Options struct {
	// DetailLookup enables the detail-page tier.
	DetailLookup bool
	WaitTimeout  time.Duration
	KnownSellers []string
}

// Resolver determines the seller of a search result, trying each tier only
// when the previous ones produced nothing usable.
type Resolver struct {
	driver  browser.Driver
	fields  *extract.Fields
	opts    Options
	listing []extract.Strategy[string]
	detail  []extract.Strategy[string]
	logger  *slog.Logger
}

func NewResolver(driver browser.Driver, fields *extract.Fields, opts Options, logger *slog.Logger) *Resolver {
	if len(opts.KnownSellers) == 0 {
		opts.KnownSellers = DefaultKnownSellers
	}
	if opts.WaitTimeout <= 0 {
		opts.WaitTimeout = 10 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}

	listing := extract.Selectors(listingSelectors, extract.AllText, Candidate, nil)
	for _, sel := range merchantInfoSelectors {
		listing = append(listing, extract.Strategy[string]{Name: sel, Locate: parentText(sel), Parse: soldBy})
	}

	detail := []extract.Strategy[string]{{Name: "#sellerProfileTriggerId", Locate: extract.FirstText("#sellerProfileTriggerId"), Parse: Candidate}}
	detail = append(detail, extract.Selectors(detailSelectors, extract.AllText, Candidate, nil)...)
	detail = append(detail, extract.Strategy[string]{Name: "body-text", Locate: extract.FirstText("body"), Parse: FromText})

	return &Resolver{
		driver:  driver,
		fields:  fields,
		opts:    opts,
		listing: listing,
		detail:  detail,
		logger:  logger.With("component", "seller_resolver"),
	}
}

// Resolve returns the seller of the listing node and the tier that found it.
// When every tier fails it returns models.SellerUnidentified and TierNone.
func (r *Resolver) Resolve(ctx context.Context, node browser.Node, l Listing) (string, Tier) {
	if name, ok := extract.Resolve(node, r.listing); ok {
		return name, TierListingSelectors
	}

	if name, ok := r.fromListingText(node.Text()); ok {
		return name, TierListingText
	}

	if r.opts.DetailLookup && r.driver != nil {
		if name, ok := r.fromDetailPage(ctx, node, l); ok {
			return name, TierDetailPage
		}
	}

	if name, ok := r.fromLexicon(node.Text()); ok {
		return name, TierLexicon
	}

	return models.SellerUnidentified, TierNone
}

func (r *Resolver) fromListingText(text string) (string, bool) {
	if name, ok := match(text, soldByPatterns); ok {
		return name, true
	}
	if operatorPhrase(text) {
		return Canonical, true
	}
	return match(text, loosePatterns)
}

func (r *Resolver) fromDetailPage(ctx context.Context, node browser.Node, l Listing) (string, bool) {
	target := r.detailURL(node, l)
	if target == "" {
		r.logger.Debug("no detail link for listing", "asin", l.ASIN)
		return "", false
	}

	var name string
	err := browser.WithTab(r.driver, func() error {
		if err := r.driver.Navigate(ctx, target); err != nil {
			return err
		}
		r.driver.WaitFor(ctx, "body", r.opts.WaitTimeout)

		name, _ = extract.Resolve(r.driver.Document(), r.detail)
		return nil
	})
	if err != nil {
		r.logger.Warn("detail page lookup failed", "asin", l.ASIN, "url", target, "error", err)
		return "", false
	}

	return name, name != ""
}

func (r *Resolver) detailURL(node browser.Node, l Listing) string {
	if l.URL != "" {
		return l.URL
	}
	if u := r.fields.URL(node); u != "" {
		return u
	}
	if extract.ValidASIN(l.ASIN) {
		return r.fields.DetailURL(l.ASIN)
	}
	return ""
}

func (r *Resolver) fromLexicon(text string) (string, bool) {
	lower := strings.ToLower(text)
	for _, known := range r.opts.KnownSellers {
		if known != "" && strings.Contains(lower, strings.ToLower(known)) {
			return known, true
		}
	}
	return "", false
}

func parentText(selector string) func(browser.Node) []string {
	return func(scope browser.Node) []string {
		var out []string
		for _, n := range scope.FindAll(selector) {
			if p, ok := n.Parent(); ok {
				if text := strings.TrimSpace(p.Text()); text != "" {
					out = append(out, text)
				}
			}
		}
		return out
	}
}

func soldBy(text string) (string, bool) {
	return match(text, soldByPatterns)
}
