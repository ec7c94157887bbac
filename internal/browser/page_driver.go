package browser

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/playwright-community/playwright-go"
)

// PageDriver drives real tabs of a Browser.
type PageDriver struct {
	browser    *Browser
	tabs       map[string]playwright.Page
	current    string
	nextID     int
	maxRetries int
	logger     *slog.Logger
}

func (b *Browser) NewDriver(maxRetries int) (*PageDriver, error) {
	if maxRetries < 1 {
		maxRetries = 1
	}

	d := &PageDriver{
		browser:    b,
		tabs:       make(map[string]playwright.Page),
		maxRetries: maxRetries,
		logger:     b.logger.With("component", "page_driver"),
	}

	id, err := d.OpenTab()
	if err != nil {
		return nil, err
	}
	d.current = id

	return d, nil
}

func (d *PageDriver) page() (playwright.Page, error) {
	p, ok := d.tabs[d.current]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoTab, d.current)
	}
	return p, nil
}

func (d *PageDriver) Navigate(ctx context.Context, url string) error {
	page, err := d.page()
	if err != nil {
		return err
	}

	var lastErr error
	for i := 0; i < d.maxRetries; i++ {
		if i > 0 {
			d.logger.Info("retrying navigation", "attempt", i+1, "url", url)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Duration(i) * time.Second):
			}
		}

		_, err := page.Goto(url, playwright.PageGotoOptions{
			WaitUntil: playwright.WaitUntilStateDomcontentloaded,
			Timeout:   playwright.Float(float64(d.browser.opts.Timeout.Milliseconds())),
		})
		if err == nil {
			return nil
		}

		lastErr = err
		d.logger.Warn("navigation failed", "error", err, "attempt", i+1, "url", url)
	}

	return fmt.Errorf("failed after %d attempts: %w", d.maxRetries, lastErr)
}

func (d *PageDriver) Document() Node {
	page, err := d.page()
	if err != nil {
		return missingNode{}
	}
	return &locatorNode{loc: page.Locator("html")}
}

func (d *PageDriver) Content() (string, error) {
	page, err := d.page()
	if err != nil {
		return "", err
	}
	return page.Content()
}

func (d *PageDriver) URL() string {
	page, err := d.page()
	if err != nil {
		return ""
	}
	return page.URL()
}

func (d *PageDriver) WaitFor(ctx context.Context, selector string, timeout time.Duration) bool {
	if ctx.Err() != nil {
		return false
	}
	page, err := d.page()
	if err != nil {
		return false
	}
	_, err = page.WaitForSelector(selector, playwright.PageWaitForSelectorOptions{
		Timeout: playwright.Float(float64(timeout.Milliseconds())),
	})
	return err == nil
}

func (d *PageDriver) CurrentTab() string {
	return d.current
}

func (d *PageDriver) OpenTab() (string, error) {
	page, err := d.browser.NewPage()
	if err != nil {
		return "", err
	}
	d.nextID++
	id := "tab-" + strconv.Itoa(d.nextID)
	d.tabs[id] = page
	return id, nil
}

func (d *PageDriver) SwitchTab(id string) error {
	page, ok := d.tabs[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNoTab, id)
	}
	d.current = id
	return page.BringToFront()
}

func (d *PageDriver) CloseTab(id string) error {
	page, ok := d.tabs[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNoTab, id)
	}
	delete(d.tabs, id)
	return page.Close()
}

// actionTimeout bounds reads on elements that are already known to exist.
const actionTimeout = 2000.0

type locatorNode struct {
	loc playwright.Locator
}

func (n *locatorNode) Find(selector string) (Node, bool) {
	sub := n.loc.Locator(selector).First()
	count, err := sub.Count()
	if err != nil || count == 0 {
		return nil, false
	}
	return &locatorNode{loc: sub}, true
}

func (n *locatorNode) FindAll(selector string) []Node {
	all, err := n.loc.Locator(selector).All()
	if err != nil {
		return nil
	}
	nodes := make([]Node, 0, len(all))
	for _, l := range all {
		nodes = append(nodes, &locatorNode{loc: l})
	}
	return nodes
}

func (n *locatorNode) Parent() (Node, bool) {
	return n.Find("xpath=..")
}

func (n *locatorNode) Text() string {
	text, err := n.loc.InnerText(playwright.LocatorInnerTextOptions{Timeout: playwright.Float(actionTimeout)})
	if err != nil {
		return ""
	}
	return strings.TrimSpace(text)
}

func (n *locatorNode) TextContent() string {
	text, err := n.loc.TextContent(playwright.LocatorTextContentOptions{Timeout: playwright.Float(actionTimeout)})
	if err != nil {
		return ""
	}
	return strings.TrimSpace(text)
}

func (n *locatorNode) Attr(name string) (string, bool) {
	v, err := n.loc.Evaluate("(el, name) => el.getAttribute(name)", name)
	if err != nil || v == nil {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

func (n *locatorNode) Click() error {
	return n.loc.Click(playwright.LocatorClickOptions{Timeout: playwright.Float(actionTimeout * 5)})
}

type missingNode struct{}

func (missingNode) Find(string) (Node, bool)   { return nil, false }
func (missingNode) FindAll(string) []Node      { return nil }
func (missingNode) Parent() (Node, bool)       { return nil, false }
func (missingNode) Text() string               { return "" }
func (missingNode) TextContent() string        { return "" }
func (missingNode) Attr(string) (string, bool) { return "", false }
func (missingNode) Click() error               { return ErrNoTab }

var _ Driver = (*PageDriver)(nil)
