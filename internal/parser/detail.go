package parser

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/maltedev/amazon-piracy-detector/internal/browser"
	"github.com/maltedev/amazon-piracy-detector/internal/extract"
	"github.com/maltedev/amazon-piracy-detector/internal/seller"
)

// DetailInfo holds what a product detail page adds to a listing.
type DetailInfo struct {
	Title       string
	Price       *float64
	Seller      string
	Rating      *float64
	ReviewCount *int
}

type DetailParser struct {
	priceSelectors  []string
	sellerSelectors []string
}

func NewDetailParser() *DetailParser {
	return &DetailParser{
		priceSelectors: []string{
			"#corePrice_feature_div .a-offscreen",
			"#corePriceDisplay_desktop_feature_div .a-offscreen",
			"#apex_desktop .a-offscreen",
			"#priceblock_dealprice",
			"#priceblock_ourprice",
			".a-price .a-offscreen",
			".a-price-whole",
		},
		sellerSelectors: []string{
			"#sellerProfileTriggerId",
			"#merchant-info",
			"[offer-display-feature-name='desktop-merchant-info']",
			"[data-cel-widget='desktop-merchant-info']",
			"#tabular-buybox",
		},
	}
}

func (p *DetailParser) ParseDetailPage(html string) (*DetailInfo, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	info := &DetailInfo{
		Title:  strings.TrimSpace(doc.Find("#productTitle").First().Text()),
		Price:  p.extractPrice(doc),
		Seller: p.extractSeller(doc),
	}

	if title, ok := doc.Find("#acrPopover").First().Attr("title"); ok {
		if v, ok := extract.ParseRating(title); ok {
			info.Rating = &v
		}
	}

	if words := strings.Fields(doc.Find("#acrCustomerReviewText").First().Text()); len(words) > 0 {
		if n, ok := extract.ParseReviewCount(words[0]); ok {
			info.ReviewCount = &n
		}
	}

	return info, nil
}

func (p *DetailParser) extractPrice(doc *goquery.Document) *float64 {
	for _, selector := range p.priceSelectors {
		text := strings.TrimSpace(doc.Find(selector).First().Text())
		if text == "" {
			continue
		}
		if v, ok := extract.ParsePrice(text); ok && v > 0 {
			return &v
		}
	}
	return nil
}

func (p *DetailParser) extractSeller(doc *goquery.Document) string {
	for _, selector := range p.sellerSelectors {
		sel := doc.Find(selector).First()
		if sel.Length() == 0 {
			continue
		}
		if name, ok := seller.Candidate(browser.RenderText(sel)); ok {
			return name
		}
	}

	if name, ok := seller.FromText(browser.RenderText(doc.Find("body"))); ok {
		return name
	}
	return ""
}
