package extract

import (
	"strings"

	"github.com/maltedev/amazon-piracy-detector/internal/browser"
)

// Strategy is one way of obtaining a field: Locate yields raw candidates in
// document order, Parse converts a candidate and Validate gates the result.
// A nil Parse or Validate accepts everything.
type Strategy[T any] struct {
	Name     string
	Locate   func(scope browser.Node) []string
	Parse    func(raw string) (T, bool)
	Validate func(v T) bool
}

// Resolve walks the strategies in order and returns the first candidate
// that parses and validates.
func Resolve[T any](scope browser.Node, strategies []Strategy[T]) (T, bool) {
	var zero T
	if scope == nil {
		return zero, false
	}

	for _, s := range strategies {
		for _, raw := range s.Locate(scope) {
			v, ok := parse(s, raw)
			if !ok {
				continue
			}
			if s.Validate != nil && !s.Validate(v) {
				continue
			}
			return v, true
		}
	}

	return zero, false
}

func parse[T any](s Strategy[T], raw string) (T, bool) {
	if s.Parse != nil {
		return s.Parse(raw)
	}
	v, ok := any(raw).(T)
	return v, ok
}

// FirstText locates the rendered text of the first element matching selector.
func FirstText(selector string) func(browser.Node) []string {
	return func(scope browser.Node) []string {
		n, ok := scope.Find(selector)
		if !ok {
			return nil
		}
		return nonEmpty(n.Text())
	}
}

// AllText locates the rendered text of every element matching selector.
func AllText(selector string) func(browser.Node) []string {
	return func(scope browser.Node) []string {
		var out []string
		for _, n := range scope.FindAll(selector) {
			out = append(out, nonEmpty(n.Text())...)
		}
		return out
	}
}

// FirstAttr locates an attribute of the first element matching selector.
func FirstAttr(selector, attr string) func(browser.Node) []string {
	return func(scope browser.Node) []string {
		n, ok := scope.Find(selector)
		if !ok {
			return nil
		}
		v, ok := n.Attr(attr)
		if !ok {
			return nil
		}
		return nonEmpty(v)
	}
}

// ScopeText locates the rendered text of the scope itself.
func ScopeText(scope browser.Node) []string {
	return nonEmpty(scope.Text())
}

func nonEmpty(s string) []string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return []string{s}
}

// Selectors builds one strategy per selector sharing locate kind, parser and validator.
func Selectors[T any](selectors []string, locate func(string) func(browser.Node) []string,
	parse func(string) (T, bool), validate func(T) bool) []Strategy[T] {
	out := make([]Strategy[T], 0, len(selectors))
	for _, sel := range selectors {
		out = append(out, Strategy[T]{Name: sel, Locate: locate(sel), Parse: parse, Validate: validate})
	}
	return out
}
