// Package browsertest provides an in-memory browser.Page backed by recorded
// page fixtures.
package browsertest

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/lunch-cli/internal/browser"
)

// Document is one recorded page.
type Document struct {
	Text string
	HTML string
	// Visible lists the selectors WaitVisible reports as present.
	Visible []string
	// Clickable lists the button texts ClickText finds. Clicking swaps the
	// document for the one stored under the text.
	Clickable map[string]Document
}

// Page serves Documents keyed by URL. It also implements browser.Session.
type Page struct {
	mu        sync.Mutex
	docs      map[string]Document
	current   Document
	url       string
	navErrs   map[string]error
	Navigated []string
	Cookies   []browser.Cookie
	Clicked   []string
	Released  int
}

// NewPage creates a Page serving docs.
func NewPage(docs map[string]Document) *Page {
	return &Page{docs: docs, navErrs: map[string]error{}}
}

// FailNavigation makes every navigation to url fail with err.
func (p *Page) FailNavigation(url string, err error) *Page {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.navErrs[url] = err
	return p
}

func (p *Page) Navigate(_ context.Context, url string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Navigated = append(p.Navigated, url)
	if err, ok := p.navErrs[url]; ok {
		return &browser.NavigationError{URL: url, Err: err}
	}
	doc, ok := p.docs[url]
	if !ok {
		return &browser.NavigationError{URL: url, Err: eris.New("browsertest: no fixture")}
	}
	p.current = doc
	p.url = url
	return nil
}

func (p *Page) URL() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.url
}

func (p *Page) Text(context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current.Text, nil
}

func (p *Page) HTML(context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current.HTML, nil
}

func (p *Page) WaitVisible(_ context.Context, sel string, _ time.Duration) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, v := range p.current.Visible {
		if v == sel {
			return true, nil
		}
	}
	return false, nil
}

func (p *Page) ClickText(_ context.Context, text string, _ time.Duration) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for label, next := range p.current.Clickable {
		if strings.Contains(label, text) {
			p.Clicked = append(p.Clicked, label)
			p.current = next
			return true, nil
		}
	}
	return false, nil
}

func (p *Page) Settle(ctx context.Context, _ time.Duration) error {
	return ctx.Err()
}

func (p *Page) SetCookie(_ context.Context, c browser.Cookie) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Cookies = append(p.Cookies, c)
	return nil
}

func (p *Page) Release() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Released++
}

// Acquirer hands out Pages built by New, one per Acquire call.
type Acquirer struct {
	New  func() *Page
	Err  error
	mu   sync.Mutex
	Made []*Page
}

func (a *Acquirer) Acquire(context.Context) (browser.Session, error) {
	if a.Err != nil {
		return nil, a.Err
	}
	p := a.New()
	a.mu.Lock()
	a.Made = append(a.Made, p)
	a.mu.Unlock()
	return p, nil
}
