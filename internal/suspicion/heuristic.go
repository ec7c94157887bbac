// Package suspicion flags listings whose title or seller suggest a
// non-original product.
package suspicion

import (
	"fmt"
	"strings"
)

var DefaultTitleKeywords = []string{
	"genérico", "cópia", "compatível", "recondicionado", "usado",
	"refurbished", "remanufactured", "compatible", "generic",
	"não original", "alternativo", "substituto",
}

var DefaultSellerKeywords = []string{
	"marketplace", "terceiros", "vendedor externo",
}

var DefaultTrustedSellers = []string{"Amazon.com.br"}

type Keywords struct {
	Title   []string
	Seller  []string
	Trusted []string
}

func DefaultKeywords() Keywords {
	return Keywords{
		Title:   DefaultTitleKeywords,
		Seller:  DefaultSellerKeywords,
		Trusted: DefaultTrustedSellers,
	}
}

// Heuristic is immutable after construction and safe for concurrent use.
type Heuristic struct {
	title   []string
	seller  []string
	trusted map[string]bool
}

func New(kw Keywords) *Heuristic {
	h := &Heuristic{
		title:   lowered(kw.Title),
		seller:  lowered(kw.Seller),
		trusted: make(map[string]bool, len(kw.Trusted)),
	}
	for _, s := range lowered(kw.Trusted) {
		h.trusted[s] = true
	}
	return h
}

// Assess returns whether the product looks suspicious and the matched
// keywords, title matches first, each in keyword-list order.
func (h *Heuristic) Assess(title, seller string) (bool, []string) {
	var reasons []string

	t := strings.ToLower(title)
	for _, kw := range h.title {
		if strings.Contains(t, kw) {
			reasons = append(reasons, fmt.Sprintf("keyword: '%s'", kw))
		}
	}

	s := strings.ToLower(strings.TrimSpace(seller))
	if !h.trusted[s] {
		for _, kw := range h.seller {
			if strings.Contains(s, kw) {
				reasons = append(reasons, fmt.Sprintf("seller: '%s'", kw))
			}
		}
	}

	return len(reasons) > 0, reasons
}

func lowered(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.ToLower(strings.TrimSpace(s)); s != "" {
			out = append(out, s)
		}
	}
	return out
}
