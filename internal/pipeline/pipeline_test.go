package pipeline

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/sells-group/lunch-cli/internal/browser"
	"github.com/sells-group/lunch-cli/internal/browser/browsertest"
	"github.com/sells-group/lunch-cli/internal/extract"
	"github.com/sells-group/lunch-cli/internal/locale"
	"github.com/sells-group/lunch-cli/internal/model"
	"github.com/sells-group/lunch-cli/internal/registry"
	"github.com/sells-group/lunch-cli/internal/store"
)

const testRestaurants = `
- id: alpha
  name: Alpha
  url: https://alpha.cz/
  scrape: {type: static}
- id: beta
  name: Beta
  url: https://beta.cz/
  scrape: {type: static}
- id: lasadelitas
  name: Las Adelitas
  url: https://www.lasadelitas.cz/denni-menu/
  scrape: {type: static}
`

var runTime = time.Date(2024, 9, 2, 10, 0, 0, 0, time.UTC)

type stubExtractor struct {
	outcome extract.Outcome
	calls   atomic.Int32
}

func (s *stubExtractor) TargetURL(r model.Restaurant, _ locale.Day) string { return r.URL }

func (s *stubExtractor) Extract(context.Context, browser.Page, extract.Request) (extract.Outcome, error) {
	s.calls.Add(1)
	return s.outcome, nil
}

type panickyExtractor struct{ stubExtractor }

func (*panickyExtractor) Prepare(context.Context, browser.Page, model.Restaurant) error {
	panic("cookie jar on fire")
}

type fixture struct {
	alpha, beta *stubExtractor
	extractors  *extract.Registry
	acquirer    *browsertest.Acquirer
	store       store.Store
	failNav     map[string]bool
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		alpha:   &stubExtractor{outcome: extract.Items([]model.MenuItem{{Name: "Guláš", Price: 159}})},
		beta:    &stubExtractor{outcome: extract.NotYetPosted()},
		store:   store.NewFile(t.TempDir()),
		failNav: map[string]bool{},
	}
	f.extractors = extract.NewRegistry()
	f.extractors.Register("alpha", f.alpha)
	f.extractors.Register("beta", f.beta)
	f.acquirer = &browsertest.Acquirer{New: func() *browsertest.Page {
		p := browsertest.NewPage(map[string]browsertest.Document{
			"https://alpha.cz/": {Text: "alpha"},
			"https://beta.cz/":  {Text: "beta"},
		})
		for url := range f.failNav {
			p.FailNavigation(url, errors.New("net::ERR_TIMED_OUT"))
		}
		return p
	}}
	return f
}

func (f *fixture) pipeline(t *testing.T, concurrency int) *Pipeline {
	t.Helper()
	reg, err := registry.Parse([]byte(testRestaurants))
	require.NoError(t, err)
	p := New(Settings{Concurrency: concurrency, Location: time.UTC}, reg, f.extractors, f.acquirer, f.store)
	p.now = func() time.Time { return runTime }
	return p
}

func (f *fixture) stored(t *testing.T) model.Collection {
	t.Helper()
	c, err := f.store.Load(context.Background(), "2024-09-02")
	require.NoError(t, err)
	return c
}

func TestRun_AllRestaurants(t *testing.T) {
	f := newFixture(t)
	summary, err := f.pipeline(t, 1).Run(context.Background(), Options{})
	require.NoError(t, err)

	assert.NotEmpty(t, summary.RunID)
	assert.Equal(t, "2024-09-02", summary.Date)
	assert.True(t, summary.Saved)
	require.Equal(t, 2, summary.Succeeded())
	assert.Equal(t, 1, summary.Available())

	alpha := summary.Scraped[0]
	assert.Equal(t, "alpha", alpha.RestaurantID)
	assert.Equal(t, "pondělí", alpha.DayOfWeek)
	assert.Equal(t, "https://alpha.cz/", alpha.SourceURL)
	assert.True(t, alpha.IsAvailable)

	beta := summary.Scraped[1]
	assert.False(t, beta.IsAvailable)
	assert.Equal(t, []model.MenuItem{extract.NotYetPostedItem}, beta.Items)
	assert.Equal(t, model.NoItemsMessage, beta.ErrorMessage)

	// No extractor is a reported failure, not a crash.
	require.Len(t, summary.Failed, 1)
	assert.Equal(t, "lasadelitas", summary.Failed[0].RestaurantID)
	assert.Contains(t, summary.Failed[0].Error, "no scraper implemented for restaurant lasadelitas")

	assert.Len(t, f.stored(t), 2)

	// One session per scraped restaurant, each released.
	require.Len(t, f.acquirer.Made, 2)
	for _, p := range f.acquirer.Made {
		assert.Equal(t, 1, p.Released)
	}
}

func TestRun_IncrementalSkipsCompleteMenus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	reg, _ := registry.Parse([]byte(testRestaurants))
	alphaR, _ := reg.ByID("alpha")
	betaR, _ := reg.ByID("beta")
	earlier := runTime.Add(-time.Hour)
	previous := model.Collection{
		model.NewRestaurantMenu(alphaR, "2024-09-02", "pondělí", []model.MenuItem{{Name: "Svíčková", Price: 189}}, alphaR.URL, earlier),
		model.NewRestaurantMenu(betaR, "2024-09-02", "pondělí", nil, betaR.URL, earlier),
	}
	require.NoError(t, f.store.Save(ctx, "2024-09-02", previous))

	f.beta.outcome = extract.Items([]model.MenuItem{{Name: "Kulajda", Price: 69}})
	summary, err := f.pipeline(t, 1).Run(ctx, Options{Incremental: true})
	require.NoError(t, err)

	assert.Equal(t, int32(0), f.alpha.calls.Load())
	assert.Equal(t, int32(1), f.beta.calls.Load())
	assert.Equal(t, []string{"alpha"}, summary.Skipped)

	stored := f.stored(t)
	require.Len(t, stored, 2)
	assert.Equal(t, previous[0].Items, stored[0].Items, "skipped restaurant is untouched")
	assert.Equal(t, "beta", stored[1].RestaurantID)
	assert.True(t, stored[1].IsAvailable)
}

func TestRun_SingleRestaurantIgnoresStoredState(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.pipeline(t, 1).Run(ctx, Options{})
	require.NoError(t, err)

	summary, err := f.pipeline(t, 1).Run(ctx, Options{RestaurantID: "alpha", Incremental: true})
	require.NoError(t, err)
	assert.Equal(t, int32(2), f.alpha.calls.Load())
	assert.Equal(t, 1, summary.Succeeded())
	assert.Empty(t, summary.Skipped)
	assert.Len(t, f.stored(t), 2)
}

func TestRun_UnknownRestaurant(t *testing.T) {
	f := newFixture(t)
	_, err := f.pipeline(t, 1).Run(context.Background(), Options{RestaurantID: "nope"})
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrUnknownRestaurant))
	assert.Contains(t, err.Error(), "alpha, beta, lasadelitas")
}

func TestRun_NavigationFailureIsContained(t *testing.T) {
	f := newFixture(t)
	f.failNav["https://alpha.cz/"] = true

	summary, err := f.pipeline(t, 1).Run(context.Background(), Options{})
	require.NoError(t, err)

	require.Len(t, summary.Failed, 2)
	assert.Equal(t, "alpha", summary.Failed[0].RestaurantID)
	assert.Equal(t, "browser: navigate https://alpha.cz/: net::ERR_TIMED_OUT", summary.Failed[0].Error)
	assert.Equal(t, 1, summary.Succeeded())
	assert.Equal(t, int32(0), f.alpha.calls.Load())
}

func TestScrape_FailureLoggedAtError(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	restore := zap.ReplaceGlobals(zap.New(core))
	t.Cleanup(restore)

	f := newFixture(t)
	f.failNav["https://alpha.cz/"] = true
	_, err := f.pipeline(t, 1).Run(context.Background(), Options{RestaurantID: "alpha"})
	require.NoError(t, err)

	failed := logs.FilterMessage("pipeline: restaurant failed").All()
	require.Len(t, failed, 1)
	assert.Equal(t, zapcore.ErrorLevel, failed[0].Level)
	assert.Equal(t, "alpha", failed[0].ContextMap()["restaurant"])
}

func TestRun_PanicIsContained(t *testing.T) {
	f := newFixture(t)
	f.extractors.Register("alpha", &panickyExtractor{})

	summary, err := f.pipeline(t, 1).Run(context.Background(), Options{})
	require.NoError(t, err)
	require.NotEmpty(t, summary.Failed)
	assert.Equal(t, "alpha", summary.Failed[0].RestaurantID)
	assert.Contains(t, summary.Failed[0].Error, "cookie jar on fire")
	assert.Equal(t, 1, f.acquirer.Made[0].Released, "session released after panic")
}

func TestRun_AcquireFailure(t *testing.T) {
	f := newFixture(t)
	f.acquirer.Err = errors.New("chrome not found")

	summary, err := f.pipeline(t, 1).Run(context.Background(), Options{})
	require.NoError(t, err)
	assert.Zero(t, summary.Succeeded())
	assert.Len(t, summary.Failed, 3)
	assert.False(t, summary.Saved)
	assert.Empty(t, f.stored(t))
}

func TestRun_Concurrent(t *testing.T) {
	f := newFixture(t)
	summary, err := f.pipeline(t, 3).Run(context.Background(), Options{})
	require.NoError(t, err)

	require.Equal(t, 2, summary.Succeeded())
	assert.Equal(t, "alpha", summary.Scraped[0].RestaurantID)
	assert.Equal(t, "beta", summary.Scraped[1].RestaurantID)
	assert.Len(t, f.acquirer.Made, 2, "each restaurant gets its own session")
}

type failingSaveStore struct{ store.Store }

func (failingSaveStore) Save(context.Context, string, model.Collection) error {
	return errors.New("disk full")
}

func TestRun_SaveFailureReturnsSummary(t *testing.T) {
	f := newFixture(t)
	f.store = failingSaveStore{f.store}

	summary, err := f.pipeline(t, 1).Run(context.Background(), Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
	require.NotNil(t, summary)
	assert.False(t, summary.Saved)
	assert.Equal(t, 2, summary.Succeeded())
}

func TestToday(t *testing.T) {
	reg, err := registry.Parse([]byte(testRestaurants))
	require.NoError(t, err)
	prague, err := time.LoadLocation("Europe/Prague")
	require.NoError(t, err)

	p := New(Settings{Location: prague}, reg, extract.NewRegistry(), &browsertest.Acquirer{}, store.NewFile(t.TempDir()))
	// 23:30 UTC on Sunday is already Monday in Prague.
	p.now = func() time.Time { return time.Date(2024, 9, 1, 23, 30, 0, 0, time.UTC) }
	assert.Equal(t, "2024-09-02", p.Today().ISODate())
	assert.Equal(t, time.Monday, p.Today().Weekday)
}
