package browser

import (
	"context"
	"errors"
	"time"
)

var (
	ErrPageNotFound = errors.New("page not found")
	ErrNoTab        = errors.New("no such tab")
)

// Node is a scoped element of the current document. Lookups that find
// nothing report false instead of failing.
type Node interface {
	Find(selector string) (Node, bool)
	FindAll(selector string) []Node
	Parent() (Node, bool)
	// Text is the rendered text, one line per block element.
	Text() string
	// TextContent is the raw text, including visually hidden elements.
	TextContent() string
	Attr(name string) (string, bool)
	Click() error
}

// Driver is the browser-control boundary: a set of tabs, one of them current.
type Driver interface {
	Navigate(ctx context.Context, url string) error
	Document() Node
	Content() (string, error)
	URL() string
	WaitFor(ctx context.Context, selector string, timeout time.Duration) bool

	CurrentTab() string
	OpenTab() (string, error)
	SwitchTab(id string) error
	CloseTab(id string) error
}

// WithTab opens a new tab, runs fn in it and always closes the tab and
// returns to the tab that was current before, whatever fn does.
func WithTab(d Driver, fn func() error) (err error) {
	origin := d.CurrentTab()

	tab, err := d.OpenTab()
	if err != nil {
		return err
	}

	defer func() {
		if cerr := d.CloseTab(tab); cerr != nil && err == nil {
			err = cerr
		}
		if serr := d.SwitchTab(origin); serr != nil && err == nil {
			err = serr
		}
	}()

	if err := d.SwitchTab(tab); err != nil {
		return err
	}

	return fn()
}
