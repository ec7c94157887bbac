package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/maltedev/amazon-piracy-detector/internal/browser"
	"github.com/maltedev/amazon-piracy-detector/internal/extract"
	"github.com/maltedev/amazon-piracy-detector/internal/models"
	"github.com/maltedev/amazon-piracy-detector/internal/parser"
	"github.com/maltedev/amazon-piracy-detector/internal/ratelimit"
	"github.com/maltedev/amazon-piracy-detector/internal/seller"
)

var resultSelectors = []string{
	"[data-asin]",
	"[data-component-type='s-search-result']",
	".s-result-item",
	".s-search-result",
}

var nextPageSelectors = []string{
	"a[aria-label='Próxima página']",
	"a.s-pagination-next",
	".s-pagination-next",
}

// bannerPhrases mark section headers, sponsored slots and pagination strips
// that share the result markup.
var bannerPhrases = []string{
	"patrocinado", "pesquisas relacionadas", "impressoras e acessórios",
	"anterior", "próximo", "resultados", "escolha da amazon",
}

const leadingTextRunes = 60

type Options struct {
	BaseURL     string
	MaxPages    int
	WaitTimeout time.Duration
	// DetailPass visits every kept record's detail page after the listing pages.
	DetailPass bool
}

func DefaultOptions() Options {
	return Options{
		BaseURL:     "https://www.amazon.com.br",
		MaxPages:    2,
		WaitTimeout: 10 * time.Second,
	}
}

// Harvester walks the result pages of a search and turns listing nodes into
// product records.
type Harvester struct {
	driver   browser.Driver
	fields   *extract.Fields
	filter   *extract.ProductFilter
	sellers  *seller.Resolver
	assessor models.Assessor
	detail   *parser.DetailParser
	limiter  ratelimit.RateLimiter
	opts     Options
	now      func() time.Time
	logger   *slog.Logger
}

type Deps struct {
	Driver   browser.Driver
	Fields   *extract.Fields
	Filter   *extract.ProductFilter
	Sellers  *seller.Resolver
	Assessor models.Assessor
	Limiter  ratelimit.RateLimiter
	Logger   *slog.Logger
}

func NewHarvester(deps Deps, opts Options) *Harvester {
	if opts.MaxPages < 1 {
		opts.MaxPages = 1
	}
	if opts.WaitTimeout <= 0 {
		opts.WaitTimeout = DefaultOptions().WaitTimeout
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Limiter == nil {
		deps.Limiter = ratelimit.NewSimpleRateLimiter(0, 0)
	}
	if deps.Filter == nil {
		deps.Filter = extract.NewProductFilter(nil)
	}

	return &Harvester{
		driver:   deps.Driver,
		fields:   deps.Fields,
		filter:   deps.Filter,
		sellers:  deps.Sellers,
		assessor: deps.Assessor,
		detail:   parser.NewDetailParser(),
		limiter:  deps.Limiter,
		opts:     opts,
		now:      time.Now,
		logger:   deps.Logger.With("component", "harvester"),
	}
}

// Harvest searches for term and collects records from up to MaxPages result
// pages. A search whose results never appear yields no records and no error.
func (h *Harvester) Harvest(ctx context.Context, term string) ([]models.ProductRecord, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil, ErrEmptyTerm
	}

	searchURL := SearchURL(h.opts.BaseURL, term)
	h.logger.Info("searching", "term", term, "url", searchURL)

	if err := h.driver.Navigate(ctx, searchURL); err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrSearchFailed, term, err)
	}

	if !h.waitForResults(ctx) {
		h.logger.Warn("no results loaded", "term", term)
		return nil, nil
	}

	var records []models.ProductRecord
	seen := make(map[string]bool)

	for page := 1; ; page++ {
		found := h.collect(ctx, term, page, seen)
		records = append(records, found...)
		h.logger.Info("page collected", "term", term, "page", page, "records", len(found))

		if page >= h.opts.MaxPages {
			break
		}
		if !h.nextPage(ctx, term, page) {
			break
		}
	}

	if h.opts.DetailPass {
		records = h.enrich(ctx, records)
	}

	return records, nil
}

func (h *Harvester) waitForResults(ctx context.Context) bool {
	for _, sel := range resultSelectors {
		if h.driver.WaitFor(ctx, sel, h.opts.WaitTimeout) {
			return true
		}
	}
	return false
}

func (h *Harvester) listingNodes() []browser.Node {
	doc := h.driver.Document()
	for _, sel := range resultSelectors {
		if nodes := doc.FindAll(sel); len(nodes) > 0 {
			return nodes
		}
	}
	return nil
}

func (h *Harvester) collect(ctx context.Context, term string, page int, seen map[string]bool) []models.ProductRecord {
	var records []models.ProductRecord
	for _, node := range h.listingNodes() {
		record, ok := h.extractNode(ctx, node, term, page)
		if !ok || seen[record.ASIN] {
			continue
		}
		seen[record.ASIN] = true
		records = append(records, record)
	}
	return records
}

func (h *Harvester) extractNode(ctx context.Context, node browser.Node, term string, page int) (record models.ProductRecord, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			h.logger.Warn("listing skipped after failure", "term", term, "page", page, "panic", r)
			ok = false
		}
	}()

	asin, present := node.Attr("data-asin")
	if present && strings.TrimSpace(asin) == "" {
		return record, false
	}
	asin = strings.ToUpper(strings.TrimSpace(asin))
	if !extract.ValidASIN(asin) {
		return record, false
	}

	if isBanner(node.Text()) {
		return record, false
	}

	title := h.fields.Title(node)
	if !h.filter.IsValidProduct(title) {
		h.logger.Debug("listing is not a product", "term", term, "asin", asin, "title", title)
		return record, false
	}

	record = models.ProductRecord{
		ASIN:        asin,
		Title:       title,
		URL:         h.fields.URL(node),
		Price:       h.fields.Price(node),
		Rating:      h.fields.Rating(node),
		ReviewCount: h.fields.ReviewCount(node),
		SearchTerm:  term,
		ScrapedAt:   h.now(),
	}

	record.Seller = models.SellerUnidentified
	if h.sellers != nil {
		name, tier := h.sellers.Resolve(ctx, node, seller.Listing{ASIN: asin, URL: record.URL})
		record.Seller = name
		h.logger.Debug("seller resolved", "asin", asin, "seller", name, "tier", tier.String())
	}

	if h.assessor != nil {
		record = record.Assessed(h.assessor)
	}

	return record, true
}

func isBanner(text string) bool {
	lead := []rune(strings.ToLower(strings.TrimSpace(text)))
	if len(lead) > leadingTextRunes {
		lead = lead[:leadingTextRunes]
	}
	s := string(lead)
	for _, p := range bannerPhrases {
		if strings.Contains(s, p) {
			return true
		}
	}
	return false
}

// nextPage advances to the following result page. It reports false when
// there is no enabled next control or the next page does not load.
func (h *Harvester) nextPage(ctx context.Context, term string, page int) bool {
	doc := h.driver.Document()
	for _, sel := range nextPageSelectors {
		next, ok := doc.Find(sel)
		if !ok {
			continue
		}
		if disabled(next) {
			h.logger.Info("last page reached", "term", term, "page", page)
			return false
		}

		if err := next.Click(); err != nil {
			h.logger.Warn("failed to open next page", "term", term, "page", page, "selector", sel, "error", err)
			return false
		}
		if err := h.limiter.Wait(ctx); err != nil {
			return false
		}
		return h.waitForResults(ctx)
	}

	h.logger.Info("no next page control", "term", term, "page", page)
	return false
}

func disabled(n browser.Node) bool {
	if v, ok := n.Attr("aria-disabled"); ok && v == "true" {
		return true
	}
	if _, ok := n.Attr("disabled"); ok {
		return true
	}
	class, _ := n.Attr("class")
	return strings.Contains(class, "s-pagination-disabled")
}
