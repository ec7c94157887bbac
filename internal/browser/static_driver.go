package browser

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// StaticDriver serves pre-fetched HTML keyed by absolute URL. It renders no
// scripts; clicking an anchor navigates the current tab to its href.
type StaticDriver struct {
	mu      sync.Mutex
	pages   map[string]string
	tabs    map[string]*staticTab
	current string
	nextID  int
	visits  []string
}

type staticTab struct {
	url string
	doc *goquery.Document
}

func NewStaticDriver(pages map[string]string) *StaticDriver {
	d := &StaticDriver{
		pages: make(map[string]string, len(pages)),
		tabs:  make(map[string]*staticTab),
	}
	for u, html := range pages {
		d.pages[u] = html
	}
	d.current, _ = d.OpenTab()
	return d
}

// Visits lists every URL loaded, in order.
func (d *StaticDriver) Visits() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]string, len(d.visits))
	copy(out, d.visits)
	return out
}

// OpenTabs is the number of tabs that are still open.
func (d *StaticDriver) OpenTabs() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.tabs)
}

func (d *StaticDriver) Navigate(ctx context.Context, u string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.load(u)
}

func (d *StaticDriver) load(u string) error {
	tab, ok := d.tabs[d.current]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNoTab, d.current)
	}

	d.visits = append(d.visits, u)

	html, ok := d.pages[u]
	if !ok {
		return fmt.Errorf("%w: %s", ErrPageNotFound, u)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return fmt.Errorf("failed to parse HTML: %w", err)
	}

	tab.url = u
	tab.doc = doc
	return nil
}

func (d *StaticDriver) tab() *staticTab {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.tabs[d.current]
}

func (d *StaticDriver) Document() Node {
	tab := d.tab()
	if tab == nil || tab.doc == nil {
		return missingNode{}
	}
	return &staticNode{sel: tab.doc.Selection, driver: d, base: tab.url}
}

func (d *StaticDriver) Content() (string, error) {
	tab := d.tab()
	if tab == nil || tab.doc == nil {
		return "", ErrNoTab
	}
	return tab.doc.Html()
}

func (d *StaticDriver) URL() string {
	tab := d.tab()
	if tab == nil {
		return ""
	}
	return tab.url
}

func (d *StaticDriver) WaitFor(ctx context.Context, selector string, _ time.Duration) bool {
	if ctx.Err() != nil {
		return false
	}
	tab := d.tab()
	if tab == nil || tab.doc == nil {
		return false
	}
	return tab.doc.Find(selector).Length() > 0
}

func (d *StaticDriver) CurrentTab() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.current
}

func (d *StaticDriver) OpenTab() (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.nextID++
	id := "tab-" + strconv.Itoa(d.nextID)
	d.tabs[id] = &staticTab{}
	return id, nil
}

func (d *StaticDriver) SwitchTab(id string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.tabs[id]; !ok {
		return fmt.Errorf("%w: %s", ErrNoTab, id)
	}
	d.current = id
	return nil
}

func (d *StaticDriver) CloseTab(id string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.tabs[id]; !ok {
		return fmt.Errorf("%w: %s", ErrNoTab, id)
	}
	delete(d.tabs, id)
	return nil
}

var _ Driver = (*StaticDriver)(nil)

type staticNode struct {
	sel    *goquery.Selection
	driver *StaticDriver
	base   string
}

func (n *staticNode) wrap(sel *goquery.Selection) *staticNode {
	return &staticNode{sel: sel, driver: n.driver, base: n.base}
}

func (n *staticNode) Find(selector string) (Node, bool) {
	found := n.sel.Find(selector)
	if found.Length() == 0 {
		return nil, false
	}
	return n.wrap(found.First()), true
}

func (n *staticNode) FindAll(selector string) []Node {
	var nodes []Node
	n.sel.Find(selector).Each(func(_ int, s *goquery.Selection) {
		nodes = append(nodes, n.wrap(s))
	})
	return nodes
}

func (n *staticNode) Parent() (Node, bool) {
	p := n.sel.Parent()
	if p.Length() == 0 {
		return nil, false
	}
	return n.wrap(p), true
}

func (n *staticNode) Text() string {
	return RenderText(n.sel)
}

func (n *staticNode) TextContent() string {
	return strings.TrimSpace(n.sel.Text())
}

func (n *staticNode) Attr(name string) (string, bool) {
	return n.sel.Attr(name)
}

func (n *staticNode) Click() error {
	anchor := n.sel
	if goquery.NodeName(anchor) != "a" {
		anchor = anchor.Closest("a")
	}
	href, ok := anchor.Attr("href")
	if !ok || href == "" {
		return nil
	}

	target, err := resolve(n.base, href)
	if err != nil {
		return err
	}

	n.driver.mu.Lock()
	defer n.driver.mu.Unlock()
	return n.driver.load(target)
}

func resolve(base, href string) (string, error) {
	ref, err := url.Parse(href)
	if err != nil {
		return "", fmt.Errorf("invalid href %q: %w", href, err)
	}
	b, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("invalid base %q: %w", base, err)
	}
	return b.ResolveReference(ref).String(), nil
}
