package extract

import (
	"unicode/utf8"

	"github.com/maltedev/amazon-piracy-detector/internal/browser"
	"github.com/maltedev/amazon-piracy-detector/internal/models"
)

var titleSelectors = []string{
	"h2 a span",
	"h2 span",
	"h2 a",
	"[data-cy='title-recipe-title']",
	".s-size-mini .s-link-style .s-color-base",
	"h2 .a-link-normal .a-text-normal",
	".s-title-instructions-style span",
	"h2 .a-size-mini .a-link-normal",
	".a-size-mini .a-link-normal span",
	"h2 .a-size-base-plus .a-color-base",
	".a-size-base-plus .a-color-base",
	"h2 .a-size-medium .a-color-base",
	".a-size-medium .a-color-base",
	"h2 .a-size-small .a-color-base",
	".a-size-small .a-color-base",
	"h2 .a-text-normal",
	".a-text-normal",
	"h2",
	"span[data-cy='title-recipe-title']",
	".s-link-style span",
}

func titleStrategies() []Strategy[string] {
	strategies := Selectors(titleSelectors, FirstText, nil, longerThan(3))
	return append(strategies,
		Strategy[string]{Name: "any-heading", Locate: AllText("h2"), Validate: longerThan(3)},
		Strategy[string]{Name: "any-span", Locate: AllText("span"), Validate: func(s string) bool {
			n := utf8.RuneCountInString(s)
			return n > 10 && n < 200
		}},
	)
}

// Title returns the listing title or models.TitleUnavailable.
func (f *Fields) Title(scope browser.Node) string {
	if t, ok := Resolve(scope, f.title); ok {
		return t
	}
	return models.TitleUnavailable
}

func longerThan(n int) func(string) bool {
	return func(s string) bool {
		return utf8.RuneCountInString(s) > n
	}
}
