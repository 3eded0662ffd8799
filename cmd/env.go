package main

import (
	"context"
	"io"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/lunch-cli/internal/browser"
	"github.com/sells-group/lunch-cli/internal/config"
	"github.com/sells-group/lunch-cli/internal/extract"
	"github.com/sells-group/lunch-cli/internal/fetcher"
	"github.com/sells-group/lunch-cli/internal/pdftext"
	"github.com/sells-group/lunch-cli/internal/pipeline"
	"github.com/sells-group/lunch-cli/internal/registry"
	"github.com/sells-group/lunch-cli/internal/resilience"
	"github.com/sells-group/lunch-cli/internal/store"
)

// scrapeEnv holds everything a scrape run needs. Callers should defer
// env.Close().
type scrapeEnv struct {
	Store       store.Store
	Restaurants *registry.Registry
	Extractors  *extract.Registry
	Pipeline    *pipeline.Pipeline
}

// Close releases resources held by the environment.
func (e *scrapeEnv) Close() {
	if e.Store != nil {
		_ = e.Store.Close()
	}
}

// initScrape opens the store, loads the restaurant list and builds the
// pipeline with a Chrome launcher.
func initScrape(ctx context.Context, c *config.Config) (*scrapeEnv, error) {
	if err := c.Validate("scrape"); err != nil {
		return nil, err
	}

	restaurants, err := registry.Load(c.Scrape.RestaurantsFile)
	if err != nil {
		return nil, err
	}

	pdf, err := pdftext.NewExtractor(c.PDF)
	if err != nil {
		return nil, err
	}

	st, err := store.New(ctx, c.Store)
	if err != nil {
		return nil, err
	}

	extractors := extract.Default(extract.Deps{
		Fetcher: newFetcher(c.Fetch),
		PDF:     pdf,
		Wait:    time.Duration(c.Browser.SettleMs) * time.Millisecond,
	})

	p := pipeline.New(
		pipeline.Settings{Concurrency: c.Scrape.Concurrency, Location: c.Scrape.Location()},
		restaurants,
		extractors,
		browser.NewLauncher(browserConfig(c.Browser)),
		st,
	)

	zap.L().Debug("scrape environment ready",
		zap.Int("restaurants", len(restaurants.All())),
		zap.Strings("extractors", extractors.IDs()),
		zap.String("store", c.Store.Driver),
	)
	return &scrapeEnv{Store: st, Restaurants: restaurants, Extractors: extractors, Pipeline: p}, nil
}

func browserConfig(c config.BrowserConfig) browser.Config {
	return browser.Config{
		Headless:          c.Headless,
		ChromePath:        c.ChromePath,
		UserAgent:         c.UserAgent,
		AcceptLanguage:    c.AcceptLanguage,
		NavigationTimeout: time.Duration(c.NavigationTimeoutSecs) * time.Second,
		ActionTimeout:     time.Duration(c.ActionTimeoutSecs) * time.Second,
		Settle:            time.Duration(c.SettleMs) * time.Millisecond,
		Retry:             resilience.FromNavigationConfig(c.NavAttempts, c.NavBackoffMs),
	}
}

func newFetcher(c config.FetchConfig) *fetcher.HTTPFetcher {
	return fetcher.NewHTTPFetcher(fetcher.HTTPOptions{
		UserAgent:         c.UserAgent,
		Timeout:           time.Duration(c.TimeoutSecs) * time.Second,
		MaxRetries:        c.MaxRetries,
		RequestsPerSecond: c.RequestsPerSecond,
	})
}

// openStore opens the configured store for the read-only commands.
func openStore(ctx context.Context, c *config.Config) (store.Store, error) {
	if c.Store.Driver == "" {
		return nil, eris.New("store.driver is required")
	}
	return store.New(ctx, c.Store)
}

func newTable(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(w)
	return t
}
