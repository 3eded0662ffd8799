package browser

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"sync"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/lunch-cli/internal/resilience"
)

// Launcher starts a fresh Chrome process per session so that cookies and
// storage never leak between restaurants.
type Launcher struct {
	cfg Config
}

// NewLauncher creates a Launcher.
func NewLauncher(cfg Config) *Launcher {
	return &Launcher{cfg: cfg.withDefaults()}
}

// Acquire starts a browser, opens a tab and applies the locale headers.
func (l *Launcher) Acquire(ctx context.Context) (Session, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", l.cfg.Headless),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("lang", "cs-CZ"),
		chromedp.UserAgent(l.cfg.UserAgent),
		chromedp.WindowSize(1366, 900),
	)
	// Chrome refuses to start as root with its sandbox on; containers run as root.
	if os.Geteuid() == 0 {
		opts = append(opts, chromedp.NoSandbox)
	}
	if l.cfg.ChromePath != "" {
		opts = append(opts, chromedp.ExecPath(l.cfg.ChromePath))
	}

	// The browser outlives individual calls; it is bound to Release, not ctx.
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.WithoutCancel(ctx), opts...)
	tabCtx, cancelTab := chromedp.NewContext(allocCtx, chromedp.WithLogf(zap.S().Debugf))

	s := &chromeSession{
		cfg:         l.cfg,
		tab:         tabCtx,
		cancelTab:   cancelTab,
		cancelAlloc: cancelAlloc,
	}

	// The first Run starts the process and binds it to the context it is
	// given, so it must run on the tab itself and never on a timeout child.
	if err := chromedp.Run(tabCtx); err != nil {
		s.Release()
		return nil, eris.Wrap(err, "browser: start chrome")
	}

	err := s.run(ctx, l.cfg.NavigationTimeout,
		network.Enable(),
		network.SetExtraHTTPHeaders(network.Headers{"Accept-Language": l.cfg.AcceptLanguage}),
	)
	if err != nil {
		s.Release()
		return nil, eris.Wrap(err, "browser: start session")
	}
	return s, nil
}

type chromeSession struct {
	cfg         Config
	tab         context.Context
	cancelTab   context.CancelFunc
	cancelAlloc context.CancelFunc

	mu      sync.Mutex
	url     string
	release sync.Once
}

// run executes actions on the tab, bounded by timeout and by ctx.
func (s *chromeSession) run(ctx context.Context, timeout time.Duration, actions ...chromedp.Action) error {
	tctx, cancel := context.WithTimeout(s.tab, timeout)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()
	return chromedp.Run(tctx, actions...)
}

func (s *chromeSession) Navigate(ctx context.Context, url string) error {
	retry := s.cfg.Retry
	retry.OnRetry = resilience.RetryLogger("browser", "navigate", zap.String("url", url))

	err := NavigateWithRetry(ctx, retry, url, func(ctx context.Context) error {
		return s.run(ctx, s.cfg.NavigationTimeout,
			chromedp.ActionFunc(func(ctx context.Context) error {
				_, _, errText, err := page.Navigate(url).Do(ctx)
				if err != nil {
					return err
				}
				if errText != "" {
					return eris.Errorf("browser: page load error %s", errText)
				}
				return nil
			}),
			// DOMContentLoaded, not network idle: trackers keep some sites busy forever.
			chromedp.Poll(`document.readyState !== "loading"`, nil,
				chromedp.WithPollingTimeout(s.cfg.NavigationTimeout)),
		)
	})
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.url = url
	s.mu.Unlock()

	var loc string
	if err := s.run(ctx, s.cfg.ActionTimeout, chromedp.Location(&loc)); err == nil && loc != "" {
		s.mu.Lock()
		s.url = loc
		s.mu.Unlock()
	}
	return s.Settle(ctx, s.cfg.Settle)
}

func (s *chromeSession) URL() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.url
}

func (s *chromeSession) Text(ctx context.Context) (string, error) {
	var text string
	err := s.run(ctx, s.cfg.ActionTimeout,
		chromedp.Evaluate(`document.body ? document.body.innerText : ""`, &text))
	if err != nil {
		return "", eris.Wrap(err, "browser: read body text")
	}
	return text, nil
}

func (s *chromeSession) HTML(ctx context.Context) (string, error) {
	var html string
	err := s.run(ctx, s.cfg.ActionTimeout, chromedp.OuterHTML("html", &html, chromedp.ByQuery))
	if err != nil {
		return "", eris.Wrap(err, "browser: read html")
	}
	return html, nil
}

func (s *chromeSession) WaitVisible(ctx context.Context, sel string, timeout time.Duration) (bool, error) {
	err := s.run(ctx, timeout, chromedp.WaitVisible(sel, chromedp.ByQuery))
	return s.waitResult(ctx, err, "browser: wait for "+sel)
}

func (s *chromeSession) ClickText(ctx context.Context, text string, timeout time.Duration) (bool, error) {
	quoted, err := json.Marshal(text)
	if err != nil {
		return false, eris.Wrap(err, "browser: quote click text")
	}
	expr := `(() => {
		const el = [...document.querySelectorAll("button, a, [role=button]")]
			.find(e => (e.textContent || "").includes(` + string(quoted) + `));
		if (!el) return false;
		el.click();
		return true;
	})()`
	err = s.run(ctx, timeout, chromedp.Poll(expr, nil, chromedp.WithPollingTimeout(timeout)))
	return s.waitResult(ctx, err, "browser: click "+text)
}

// waitResult turns a wait timeout into false so callers can treat a missing
// element as data, not failure.
func (s *chromeSession) waitResult(ctx context.Context, err error, action string) (bool, error) {
	switch {
	case err == nil:
		return true, nil
	case ctx.Err() != nil:
		return false, eris.Wrap(ctx.Err(), action)
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, chromedp.ErrPollingTimeout):
		return false, nil
	default:
		return false, eris.Wrap(err, action)
	}
}

func (s *chromeSession) Settle(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func (s *chromeSession) SetCookie(ctx context.Context, c Cookie) error {
	path := c.Path
	if path == "" {
		path = "/"
	}
	err := s.run(ctx, s.cfg.ActionTimeout, chromedp.ActionFunc(func(ctx context.Context) error {
		return network.SetCookies([]*network.CookieParam{{
			Name:   c.Name,
			Value:  c.Value,
			Domain: c.Domain,
			Path:   path,
		}}).Do(ctx)
	}))
	if err != nil {
		return eris.Wrapf(err, "browser: set cookie %s", c.Name)
	}
	return nil
}

func (s *chromeSession) Release() {
	s.release.Do(func() {
		// Closes the tab and then kills the browser process.
		if err := chromedp.Cancel(s.tab); err != nil {
			zap.L().Debug("browser: close tab", zap.Error(err))
		}
		s.cancelTab()
		s.cancelAlloc()
	})
}
