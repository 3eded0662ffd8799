// Package pipeline orchestrates a scrape run: it picks the restaurants to
// scrape, drives a browser session through each site's extractor, merges the
// results with what is already stored for the day and saves the collection.
package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/lunch-cli/internal/browser"
	"github.com/sells-group/lunch-cli/internal/extract"
	"github.com/sells-group/lunch-cli/internal/locale"
	"github.com/sells-group/lunch-cli/internal/model"
	"github.com/sells-group/lunch-cli/internal/registry"
	"github.com/sells-group/lunch-cli/internal/store"
)

// ErrUnknownRestaurant is returned when a run names a restaurant that is not
// configured.
var ErrUnknownRestaurant = eris.New("pipeline: unknown restaurant")

// Settings tune a Pipeline.
type Settings struct {
	// Concurrency is the number of restaurants scraped at once, each in its
	// own browser session. Values below 2 scrape sequentially.
	Concurrency int
	// Location decides which calendar day "today" is.
	Location *time.Location
}

// Options select what a single run scrapes.
type Options struct {
	// RestaurantID restricts the run to one restaurant, scraped even if its
	// stored menu is complete.
	RestaurantID string
	// Incremental skips restaurants whose stored menu for today is complete.
	Incremental bool
}

// Pipeline scrapes the configured restaurants.
type Pipeline struct {
	settings    Settings
	restaurants *registry.Registry
	extractors  *extract.Registry
	browser     browser.Acquirer
	store       store.Store
	now         func() time.Time
}

// New creates a Pipeline with all dependencies.
func New(
	settings Settings,
	restaurants *registry.Registry,
	extractors *extract.Registry,
	acq browser.Acquirer,
	st store.Store,
) *Pipeline {
	if settings.Location == nil {
		settings.Location = time.Local
	}
	return &Pipeline{
		settings:    settings,
		restaurants: restaurants,
		extractors:  extractors,
		browser:     acq,
		store:       st,
		now:         time.Now,
	}
}

// Today is the day a run started now would scrape.
func (p *Pipeline) Today() locale.Day {
	return locale.Today(p.now(), p.settings.Location)
}

// Run executes one scrape run. Per-restaurant failures are recorded in the
// summary; only selection and persistence errors are returned. When saving
// fails the summary is still returned alongside the error.
func (p *Pipeline) Run(ctx context.Context, opts Options) (*model.RunSummary, error) {
	day := p.Today()
	summary := &model.RunSummary{
		RunID:     uuid.New().String(),
		Date:      day.ISODate(),
		StartedAt: p.now().UTC(),
	}
	log := zap.L().With(zap.String("run_id", summary.RunID), zap.String("date", summary.Date))

	stored, err := p.store.Load(ctx, summary.Date)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: load stored menus")
	}

	targets, err := p.selectRestaurants(stored, opts)
	if err != nil {
		return nil, err
	}
	if opts.RestaurantID == "" {
		for _, r := range p.restaurants.All() {
			if !contains(targets, r.ID) {
				summary.Skipped = append(summary.Skipped, r.ID)
			}
		}
	}
	log.Info("pipeline: starting run",
		zap.Int("restaurants", len(targets)),
		zap.Int("skipped", len(summary.Skipped)),
		zap.Bool("incremental", opts.Incremental && opts.RestaurantID == ""),
	)

	results := p.scrapeAll(ctx, targets, day)
	for i, res := range results {
		r := targets[i]
		if res.Success && res.Menu != nil {
			summary.Scraped = append(summary.Scraped, *res.Menu)
			continue
		}
		summary.Failed = append(summary.Failed, model.RunFailure{
			RestaurantID:   r.ID,
			RestaurantName: r.Name,
			Error:          res.Error,
		})
	}

	if len(summary.Scraped) > 0 {
		if err := p.save(ctx, summary.Date, summary.Scraped); err != nil {
			summary.FinishedAt = p.now().UTC()
			log.Error("pipeline: failed to save menus", zap.Error(err))
			return summary, err
		}
		summary.Saved = true
	}

	summary.FinishedAt = p.now().UTC()
	log.Info("pipeline: run complete",
		zap.Int("scraped", len(summary.Scraped)),
		zap.Int("available", summary.Available()),
		zap.Int("failed", len(summary.Failed)),
		zap.Duration("duration", summary.FinishedAt.Sub(summary.StartedAt)),
	)
	return summary, nil
}

func (p *Pipeline) selectRestaurants(stored model.Collection, opts Options) ([]model.Restaurant, error) {
	if opts.RestaurantID != "" {
		r, ok := p.restaurants.ByID(opts.RestaurantID)
		if !ok {
			return nil, eris.Wrap(ErrUnknownRestaurant, fmt.Sprintf(
				"restaurant %q not found (available: %s)",
				opts.RestaurantID, strings.Join(p.restaurants.IDs(), ", ")))
		}
		return []model.Restaurant{r}, nil
	}

	var out []model.Restaurant
	for _, r := range p.restaurants.All() {
		if opts.Incremental && !NeedsScrape(stored, r.ID) {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

// scrapeAll returns one result per restaurant, in the order given.
func (p *Pipeline) scrapeAll(ctx context.Context, targets []model.Restaurant, day locale.Day) []model.ScraperResult {
	results := make([]model.ScraperResult, len(targets))
	if p.settings.Concurrency < 2 {
		for i, r := range targets {
			results[i] = p.Scrape(ctx, r, day)
		}
		return results
	}

	// Workers never return errors: every failure is already a result.
	var g errgroup.Group
	g.SetLimit(p.settings.Concurrency)
	for i, r := range targets {
		g.Go(func() error {
			results[i] = p.Scrape(ctx, r, day)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// Scrape runs one restaurant end to end inside a failure boundary. It never
// panics and never returns an error; failures become a failed result.
func (p *Pipeline) Scrape(ctx context.Context, r model.Restaurant, day locale.Day) (res model.ScraperResult) {
	log := zap.L().With(zap.String("restaurant", r.ID))
	start := time.Now()
	defer func() {
		if rec := recover(); rec != nil {
			log.Error("pipeline: panic while scraping", zap.Any("panic", rec))
			res = model.Failed(eris.Errorf("pipeline: panic: %v", rec))
		}
		if !res.Success {
			log.Error("pipeline: restaurant failed", zap.String("error", res.Error), zap.Duration("elapsed", time.Since(start)))
		}
	}()

	ex, err := p.extractors.Lookup(r.ID)
	if err != nil {
		return model.Failed(err)
	}

	sess, err := p.browser.Acquire(ctx)
	if err != nil {
		return model.Failed(eris.Wrap(err, "pipeline: acquire browser"))
	}
	defer sess.Release()

	if prep, ok := ex.(extract.Preparer); ok {
		if err := prep.Prepare(ctx, sess, r); err != nil {
			return model.Failed(eris.Wrap(err, "pipeline: prepare session"))
		}
	}

	url := ex.TargetURL(r, day)
	log.Info("pipeline: scraping", zap.String("url", url))
	if err := sess.Navigate(ctx, url); err != nil {
		return model.Failed(err)
	}

	out, err := extract.Run(ctx, ex, sess, extract.Request{Restaurant: r, Day: day, Log: log})
	if err != nil {
		return model.Failed(err)
	}

	menu := model.NewRestaurantMenu(r, day.ISODate(), day.Name, out.MenuItems(), url, p.now())
	log.Info("pipeline: restaurant scraped",
		zap.Int("items", len(menu.Items)),
		zap.Bool("available", menu.IsAvailable),
		zap.Duration("elapsed", time.Since(start)),
	)
	return model.Succeeded(menu)
}

// save merges against a fresh read of the stored collection so a run that
// overlapped with this one keeps its results.
func (p *Pipeline) save(ctx context.Context, date string, scraped []model.RestaurantMenu) error {
	latest, err := p.store.Load(ctx, date)
	if err != nil {
		return eris.Wrap(err, "pipeline: reload stored menus")
	}
	merged := Merge(latest, scraped)
	if err := p.store.Save(ctx, date, merged); err != nil {
		return eris.Wrap(err, "pipeline: save menus")
	}
	return nil
}

func contains(rs []model.Restaurant, id string) bool {
	for _, r := range rs {
		if r.ID == id {
			return true
		}
	}
	return false
}
