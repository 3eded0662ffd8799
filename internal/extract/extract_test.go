package extract

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/lunch-cli/internal/browser"
	"github.com/sells-group/lunch-cli/internal/browser/browsertest"
	"github.com/sells-group/lunch-cli/internal/locale"
	"github.com/sells-group/lunch-cli/internal/model"
)

var monday = locale.DayOf(time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC))

type stubExtractor struct {
	out   Outcome
	err   error
	explode bool
}

func (s stubExtractor) TargetURL(r model.Restaurant, _ locale.Day) string { return r.URL }

func (s stubExtractor) Extract(context.Context, browser.Page, Request) (Outcome, error) {
	if s.explode {
		panic("selector exploded")
	}
	return s.out, s.err
}

func req(r model.Restaurant, day locale.Day) Request {
	return Request{Restaurant: r, Day: day}
}

func TestOutcomeMenuItems(t *testing.T) {
	items := []model.MenuItem{{Name: "Guláš", Price: 159}}
	assert.Equal(t, items, Items(items).MenuItems())
	assert.Equal(t, []model.MenuItem{NotYetPostedItem}, NotYetPosted().MenuItems())
	assert.Equal(t, []model.MenuItem{UnavailableItem}, Unavailable().MenuItems())

	assert.Equal(t, KindUnavailable, Items(nil).Kind)
	assert.Equal(t, "not_yet_posted", KindNotYetPosted.String())
}

func TestRun_PanicBecomesUnavailable(t *testing.T) {
	out, err := Run(context.Background(), stubExtractor{explode: true}, browsertest.NewPage(nil), req(model.Restaurant{ID: "x"}, monday))
	require.NoError(t, err)
	assert.Equal(t, KindUnavailable, out.Kind)
}

func TestRun_ErrorBecomesUnavailable(t *testing.T) {
	out, err := Run(context.Background(), stubExtractor{err: errors.New("no such node")}, browsertest.NewPage(nil), req(model.Restaurant{ID: "x"}, monday))
	require.NoError(t, err)
	assert.Equal(t, KindUnavailable, out.Kind)
}

func TestRun_NavigationErrorPropagates(t *testing.T) {
	navErr := eris.Wrap(browser.ErrNavigation, "click led away")
	_, err := Run(context.Background(), stubExtractor{err: navErr}, browsertest.NewPage(nil), req(model.Restaurant{ID: "x"}, monday))
	require.Error(t, err)
	assert.True(t, eris.Is(err, browser.ErrNavigation))
}

func TestRun_CanceledContextPropagates(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Run(ctx, stubExtractor{err: context.Canceled}, browsertest.NewPage(nil), req(model.Restaurant{ID: "x"}, monday))
	assert.Error(t, err)
}

func TestRun_EmptyItemsBecomeUnavailable(t *testing.T) {
	out, err := Run(context.Background(), stubExtractor{out: Outcome{Kind: KindItems}}, browsertest.NewPage(nil), req(model.Restaurant{ID: "x"}, monday))
	require.NoError(t, err)
	assert.Equal(t, KindUnavailable, out.Kind)
}

func TestRegistryLookup(t *testing.T) {
	r := NewRegistry()
	r.Register("hybernska", Hybernska{})

	ex, err := r.Lookup("hybernska")
	require.NoError(t, err)
	assert.IsType(t, Hybernska{}, ex)
	assert.True(t, r.Has("hybernska"))

	_, err = r.Lookup("lasadelitas")
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrNoExtractor))
	assert.Contains(t, err.Error(), "no scraper implemented for restaurant lasadelitas")
}

func TestDefaultRegistry(t *testing.T) {
	r := Default(Deps{})
	assert.Equal(t, []string{
		"hybernska", "kantyna", "magburger", "masarycka",
		"meatbeer", "nekazanka", "saporevero", "tiskarna",
	}, r.IDs())
	assert.False(t, r.Has("lasadelitas"))
}
