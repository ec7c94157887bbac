package extract

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/maltedev/amazon-piracy-detector/internal/browser"
)

// DetailPathMarker identifies product detail links.
const DetailPathMarker = "/dp/"

var (
	priceNumber = regexp.MustCompile(`^\d+(\.\d+)?$`)

	pricePatterns = []*regexp.Regexp{
		regexp.MustCompile(`R\$\s*(\d[\d.,]*)`),
		regexp.MustCompile(`(?i)(\d[\d.,]*)\s*reais`),
		regexp.MustCompile(`(\d[\d.,]*)\s*R\$`),
		regexp.MustCompile(`(\d[\d.,]*)\s*\$`),
	}

	ratingNumber = regexp.MustCompile(`(\d+[,.]\d+)`)
	asinPattern  = regexp.MustCompile(`(?i)^[A-Z0-9]{10}$`)
)

var priceSelectors = []string{
	".a-price .a-offscreen",
	".a-price-range .a-offscreen",
	"[data-a-color='price'] .a-offscreen",
	".a-price-whole",
	".a-price-symbol + .a-price-whole",
	".a-price .a-price-whole",
	".a-price-range .a-price-whole",
}

var ratingSelectors = []string{
	".a-icon-alt",
	"[aria-label*='estrelas']",
	".a-icon-star-small .a-icon-alt",
	".a-icon-star .a-icon-alt",
}

var reviewSelectors = []string{
	"a[href*='reviews'] span",
	"[aria-label*='avaliações']",
	".a-size-base",
	".a-link-normal span",
}

var urlSelectors = []string{
	"h2 a",
	"a[href*='/dp/']",
	".s-link-style",
	"h2 .a-link-normal",
}

// ParsePrice reads a price as displayed on the marketplace. Both "R$ 1.234,56"
// and already-normalized "10.50" are accepted.
func ParsePrice(raw string) (float64, bool) {
	s := strings.ReplaceAll(raw, "R$", "")
	s = strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\u00a0', '\t', '\n', '\r':
			return -1
		}
		return r
	}, s)
	s = strings.TrimRight(s, ".,")
	if s == "" {
		return 0, false
	}

	lastDot := strings.LastIndex(s, ".")
	lastComma := strings.LastIndex(s, ",")

	switch {
	case lastDot >= 0 && lastComma >= 0:
		if lastComma > lastDot {
			s = strings.ReplaceAll(s, ".", "")
			s = strings.Replace(s, ",", ".", 1)
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	case lastComma >= 0:
		if strings.Count(s, ",") > 1 {
			s = strings.ReplaceAll(s, ",", "")
		} else {
			s = strings.Replace(s, ",", ".", 1)
		}
	case lastDot >= 0:
		if strings.Count(s, ".") > 1 || len(s)-lastDot-1 == 3 {
			s = strings.ReplaceAll(s, ".", "")
		}
	}

	if !priceNumber.MatchString(s) {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v < 0 {
		return 0, false
	}
	return v, true
}

// PriceFromText scans free text for the first currency-shaped amount.
func PriceFromText(text string) (float64, bool) {
	for _, re := range pricePatterns {
		m := re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		if v, ok := ParsePrice(m[1]); ok {
			return v, true
		}
	}
	return 0, false
}

func ParseRating(raw string) (float64, bool) {
	m := ratingNumber.FindString(raw)
	if m == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.Replace(m, ",", ".", 1), 64)
	if err != nil || v < 0 || v > 5 {
		return 0, false
	}
	return v, true
}

func ParseReviewCount(raw string) (int, bool) {
	s := strings.TrimSpace(raw)
	s = strings.TrimSuffix(strings.TrimPrefix(s, "("), ")")
	s = strings.NewReplacer(".", "", ",", "", " ", "", "\u00a0", "").Replace(s)
	if s == "" {
		return 0, false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return v, true
}

// ValidASIN reports whether s is a well-formed ten character product identifier.
func ValidASIN(s string) bool {
	return asinPattern.MatchString(s)
}

// Fields extracts the listing fields of one search result node.
type Fields struct {
	base *url.URL

	price   []Strategy[float64]
	rating  []Strategy[float64]
	reviews []Strategy[int]
	url     []Strategy[string]
	title   []Strategy[string]
}

func NewFields(baseURL string) (*Fields, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, err
	}

	f := &Fields{base: base}

	f.price = Selectors(priceSelectors, FirstTextContent, ParsePrice, nil)
	f.price = append(f.price, Strategy[float64]{Name: "price-text", Locate: ScopeText, Parse: PriceFromText})

	f.rating = Selectors(ratingSelectors, FirstTextContent, ParseRating, nil)
	f.rating = append(f.rating, Selectors(ratingSelectors, attrOf("aria-label"), ParseRating, nil)...)

	f.reviews = Selectors(reviewSelectors, FirstText, ParseReviewCount, nil)

	f.url = Selectors(urlSelectors, attrOf("href"), f.resolveDetailURL, nil)

	f.title = titleStrategies()

	return f, nil
}

func (f *Fields) Price(scope browser.Node) *float64 {
	return optional(Resolve(scope, f.price))
}

func (f *Fields) Rating(scope browser.Node) *float64 {
	return optional(Resolve(scope, f.rating))
}

func (f *Fields) ReviewCount(scope browser.Node) *int {
	return optional(Resolve(scope, f.reviews))
}

// URL returns the absolute detail URL of the listing, or "".
func (f *Fields) URL(scope browser.Node) string {
	u, _ := Resolve(scope, f.url)
	return u
}

// DetailURL builds the canonical detail URL for an ASIN.
func (f *Fields) DetailURL(asin string) string {
	return f.base.ResolveReference(&url.URL{Path: DetailPathMarker + asin}).String()
}

func (f *Fields) resolveDetailURL(href string) (string, bool) {
	if !strings.Contains(href, DetailPathMarker) {
		return "", false
	}
	ref, err := url.Parse(href)
	if err != nil {
		return "", false
	}
	return f.base.ResolveReference(ref).String(), true
}

// FirstTextContent locates the raw text content of the first element matching selector.
func FirstTextContent(selector string) func(browser.Node) []string {
	return func(scope browser.Node) []string {
		n, ok := scope.Find(selector)
		if !ok {
			return nil
		}
		return nonEmpty(n.TextContent())
	}
}

func attrOf(attr string) func(string) func(browser.Node) []string {
	return func(selector string) func(browser.Node) []string {
		return FirstAttr(selector, attr)
	}
}

func optional[T any](v T, ok bool) *T {
	if !ok {
		return nil
	}
	return &v
}
