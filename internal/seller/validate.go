package seller

import (
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"
)

var numericArtifacts = []*regexp.Regexp{
	regexp.MustCompile(`^\([0-9,.\s]+\)$`),
	regexp.MustCompile(`^[0-9,.\s]+$`),
	regexp.MustCompile(`^\d+$`),
	regexp.MustCompile(`^\([0-9]+\)$`),
	regexp.MustCompile(`^\d+[,.]\d*$`),
	regexp.MustCompile(`(?i)^\d+[,.]\d*\s*(mil|thousand|k)$`),
	regexp.MustCompile(`(?i)^\([0-9,.\s]+\s*(mil|thousand|k)\)$`),
}

// labelVocabulary marks rating, availability, price, shipping and badge
// labels that sit next to the seller in the markup.
var labelVocabulary = []string{
	"avaliação", "avaliações", "review", "rating", "estrela", "star",
	"disponível", "available", "preço", "price",
	"frete", "shipping", "entrega", "delivery",
	"mais vendido", "escolha da amazon", "best seller", "amazon's choice",
}

// IsValidSellerName rejects candidates that are review counts, ratings or
// other labels rather than a seller name.
func IsValidSellerName(text string) bool {
	text = strings.TrimSpace(text)
	if utf8.RuneCountInString(text) < 2 {
		return false
	}

	for _, re := range numericArtifacts {
		if re.MatchString(text) {
			return false
		}
	}

	lower := strings.ToLower(text)
	for _, word := range labelVocabulary {
		if strings.Contains(lower, word) {
			return false
		}
	}

	if strings.HasPrefix(text, "(") || strings.HasSuffix(text, ")") {
		return false
	}

	if _, err := strconv.ParseFloat(strings.ReplaceAll(text, ",", "."), 64); err == nil {
		return false
	}

	return true
}
