// Package browser drives the headless Chrome session used to load restaurant
// pages. One Session serves exactly one restaurant scrape.
package browser

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/lunch-cli/internal/resilience"
)

// ErrNavigation marks a page that could not be loaded after every attempt.
var ErrNavigation = eris.New("browser: navigation failed")

// NavigationError carries the last load error for a page. It matches
// ErrNavigation and unwraps to the cause.
type NavigationError struct {
	URL string
	Err error
}

func (e *NavigationError) Error() string {
	return "browser: navigate " + e.URL + ": " + e.Err.Error()
}

func (e *NavigationError) Unwrap() error { return e.Err }

func (e *NavigationError) Is(target error) bool { return target == ErrNavigation }

// Cookie is set on the session before navigation.
type Cookie struct {
	Name   string
	Value  string
	Domain string
	Path   string
}

// Page is what an extractor may do with the loaded page.
type Page interface {
	// Navigate loads url and waits for the DOM content to be parsed.
	Navigate(ctx context.Context, url string) error
	// URL returns the address of the current document.
	URL() string
	// Text returns the rendered text of the document body.
	Text(ctx context.Context) (string, error)
	// HTML returns the serialized document.
	HTML(ctx context.Context) (string, error)
	// WaitVisible waits up to timeout for sel to become visible. A timeout is
	// reported as false, not as an error.
	WaitVisible(ctx context.Context, sel string, timeout time.Duration) (bool, error)
	// ClickText clicks the first button or link whose text contains text,
	// waiting up to timeout for it to appear.
	ClickText(ctx context.Context, text string, timeout time.Duration) (bool, error)
	// Settle pauses to let client-side rendering finish.
	Settle(ctx context.Context, d time.Duration) error
	// SetCookie stores a cookie for later navigations.
	SetCookie(ctx context.Context, c Cookie) error
}

// Session is a Page with an owned lifecycle.
type Session interface {
	Page
	// Release closes the page and the browser. Safe to call more than once.
	Release()
}

// Acquirer opens sessions.
type Acquirer interface {
	Acquire(ctx context.Context) (Session, error)
}

// Config controls browser sessions.
type Config struct {
	Headless          bool
	ChromePath        string
	UserAgent         string
	AcceptLanguage    string
	NavigationTimeout time.Duration
	ActionTimeout     time.Duration
	Settle            time.Duration
	Retry             resilience.RetryConfig
}

// DefaultConfig mirrors the settings the menu sites tolerate.
func DefaultConfig() Config {
	return Config{
		Headless:          true,
		UserAgent:         "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36",
		AcceptLanguage:    "cs-CZ,cs;q=0.9",
		NavigationTimeout: 45 * time.Second,
		ActionTimeout:     15 * time.Second,
		Settle:            time.Second,
		Retry:             resilience.NavigationRetryConfig(3, time.Second),
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.UserAgent == "" {
		c.UserAgent = d.UserAgent
	}
	if c.AcceptLanguage == "" {
		c.AcceptLanguage = d.AcceptLanguage
	}
	if c.NavigationTimeout <= 0 {
		c.NavigationTimeout = d.NavigationTimeout
	}
	if c.ActionTimeout <= 0 {
		c.ActionTimeout = d.ActionTimeout
	}
	// Actions must give up before a navigation would.
	if c.ActionTimeout >= c.NavigationTimeout {
		c.ActionTimeout = c.NavigationTimeout / 3
	}
	if c.Settle < 0 {
		c.Settle = 0
	}
	if c.Retry.MaxAttempts <= 0 {
		c.Retry = d.Retry
	}
	return c
}

// NavigateWithRetry runs load until it succeeds or the retry budget is spent.
// The final error is returned as a *NavigationError.
func NavigateWithRetry(ctx context.Context, cfg resilience.RetryConfig, url string, load func(ctx context.Context) error) error {
	if cfg.ShouldRetry == nil {
		cfg.ShouldRetry = resilience.Always
	}
	err := resilience.Do(ctx, cfg, load)
	if err != nil {
		return &NavigationError{URL: url, Err: err}
	}
	return nil
}
