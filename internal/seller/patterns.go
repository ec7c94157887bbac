package seller

import (
	"regexp"
	"strings"
)

// Canonical is the name used for the marketplace operator itself.
const Canonical = "Amazon.com.br"

// soldByPatterns capture the selling party. The combined shipped-by/sold-by
// form comes first so its second group wins over the shipper.
var soldByPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)Enviado\s+por\s+[^/\n\r]+\s*/\s*Vendido\s+por\s+([^\n\r]+)`),
	regexp.MustCompile(`(?i)Shipped\s+by\s+[^/\n\r]+\s*/\s*Sold\s+by\s+([^\n\r]+)`),
	regexp.MustCompile(`(?i)Vendido\s+por\s+([^\n\r]+)`),
	regexp.MustCompile(`(?i)Sold\s+by\s+([^\n\r]+)`),
}

// loosePatterns are tried last on listing text; they require the name to
// start with a letter and follow a sold-by or shipped-by label.
var loosePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)Vendido\s+por\s+([A-Za-z][A-Za-z0-9\s.\-]+)`),
	regexp.MustCompile(`(?i)Sold\s+by\s+([A-Za-z][A-Za-z0-9\s.\-]+)`),
	regexp.MustCompile(`(?i)Enviado\s+por\s+([A-Za-z][A-Za-z0-9\s.\-]+)`),
	regexp.MustCompile(`(?i)Shipped\s+by\s+([A-Za-z][A-Za-z0-9\s.\-]+)`),
}

var shippedByPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)Enviado\s+por\s+([^\n\r/]+)`),
	regexp.MustCompile(`(?i)Shipped\s+by\s+([^\n\r/]+)`),
}

var operatorPhrases = []string{
	"vendido por amazon.com.br",
	"vendido e entregue por amazon",
	"vendido por amazon",
	"sold by amazon",
}

var operatorAliases = map[string]bool{
	"amazon":        true,
	"amazon.com.br": true,
	"amazon.com":    true,
	"amazon serviços de varejo do brasil ltda": true,
	"amazon servicos de varejo do brasil ltda": true,
}

var nameTerminators = []string{
	" e entregue", " e enviado", " and shipped", " and fulfilled", " | ", " · ", " - ver ", " /",
}

// clean collapses whitespace, cuts trailing fulfilment text and maps
// operator aliases to Canonical.
func clean(s string) string {
	s = cutTerminator(strings.Join(strings.Fields(s), " "))
	s = strings.TrimRight(strings.TrimSpace(s), ".,;:")
	if operatorAliases[strings.ToLower(s)] {
		return Canonical
	}
	return s
}

// cutTerminator cuts s at the first name terminator, compared without case
// on the original bytes.
func cutTerminator(s string) string {
	for i := 1; i < len(s); i++ {
		for _, t := range nameTerminators {
			if len(s)-i >= len(t) && strings.EqualFold(s[i:i+len(t)], t) {
				return s[:i]
			}
		}
	}
	return s
}

// match returns the first valid name captured by patterns in text.
func match(text string, patterns []*regexp.Regexp) (string, bool) {
	for _, re := range patterns {
		for _, m := range re.FindAllStringSubmatch(text, -1) {
			if name := clean(m[1]); IsValidSellerName(name) {
				return name, true
			}
		}
	}
	return "", false
}

// Candidate turns element text into a seller name: the sold-by capture when
// the text carries a label, the cleaned text itself otherwise.
func Candidate(text string) (string, bool) {
	if name, ok := match(text, soldByPatterns); ok {
		return name, true
	}
	if strings.Contains(text, "\n") {
		return "", false
	}
	name := clean(text)
	return name, IsValidSellerName(name)
}

func operatorPhrase(text string) bool {
	lower := strings.ToLower(strings.Join(strings.Fields(text), " "))
	for _, p := range operatorPhrases {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}

// FromText scans free page text for a sold-by phrase, then a shipped-by one.
func FromText(text string) (string, bool) {
	if name, ok := match(text, soldByPatterns); ok {
		return name, true
	}
	return match(text, shippedByPatterns)
}
