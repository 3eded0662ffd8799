// Package extract turns a loaded restaurant page into menu items. Each site
// has its own Extractor; the Registry maps restaurant ids to them.
package extract

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/lunch-cli/internal/browser"
	"github.com/sells-group/lunch-cli/internal/fetcher"
	"github.com/sells-group/lunch-cli/internal/locale"
	"github.com/sells-group/lunch-cli/internal/model"
	"github.com/sells-group/lunch-cli/internal/pdftext"
)

// ErrNoExtractor is returned for restaurants without a registered extractor.
var ErrNoExtractor = eris.New("extract: no extractor registered")

// Kind is the shape of an extraction outcome.
type Kind int

const (
	KindItems Kind = iota
	KindNotYetPosted
	KindUnavailable
)

func (k Kind) String() string {
	switch k {
	case KindItems:
		return "items"
	case KindNotYetPosted:
		return "not_yet_posted"
	default:
		return "unavailable"
	}
}

// Sentinel items stand in for a menu that could not be listed.
var (
	NotYetPostedItem = model.MenuItem{Name: "Menu not posted yet", Price: 0, Description: "Check back later"}
	UnavailableItem  = model.MenuItem{Name: "Menu temporarily unavailable", Price: 0, Description: "Could not process menu"}
)

// Outcome is what an extractor found on the page.
type Outcome struct {
	Kind  Kind
	Items []model.MenuItem
}

// Items wraps a parsed item list. An empty list is reported as unavailable.
func Items(items []model.MenuItem) Outcome {
	if len(items) == 0 {
		return Unavailable()
	}
	return Outcome{Kind: KindItems, Items: items}
}

// NotYetPosted means the site has no menu for today yet.
func NotYetPosted() Outcome {
	return Outcome{Kind: KindNotYetPosted}
}

// Unavailable means the menu exists but could not be parsed.
func Unavailable() Outcome {
	return Outcome{Kind: KindUnavailable}
}

// MenuItems returns the items to store, sentinel included.
func (o Outcome) MenuItems() []model.MenuItem {
	switch o.Kind {
	case KindItems:
		return o.Items
	case KindNotYetPosted:
		return []model.MenuItem{NotYetPostedItem}
	default:
		return []model.MenuItem{UnavailableItem}
	}
}

// Request carries what an extractor needs to know about the scrape.
type Request struct {
	Restaurant model.Restaurant
	Day        locale.Day
	Log        *zap.Logger
}

func (r Request) logger() *zap.Logger {
	if r.Log != nil {
		return r.Log
	}
	return zap.L().With(zap.String("restaurant", r.Restaurant.ID))
}

// Extractor parses one site.
type Extractor interface {
	// TargetURL is the page to load for the given day.
	TargetURL(r model.Restaurant, day locale.Day) string
	// Extract reads the loaded page. Errors degrade to Unavailable unless
	// they wrap browser.ErrNavigation.
	Extract(ctx context.Context, page browser.Page, req Request) (Outcome, error)
}

// Preparer is implemented by extractors that must configure the session
// before the first navigation.
type Preparer interface {
	Prepare(ctx context.Context, page browser.Page, r model.Restaurant) error
}

// Run calls ex.Extract inside a failure boundary. Panics and ordinary errors
// become Unavailable; navigation failures are returned so the caller can
// fail the whole scrape.
func Run(ctx context.Context, ex Extractor, page browser.Page, req Request) (out Outcome, err error) {
	log := req.logger()
	defer func() {
		if r := recover(); r != nil {
			log.Error("extract: panic during extraction", zap.Any("panic", r))
			out, err = Unavailable(), nil
		}
	}()

	out, err = ex.Extract(ctx, page, req)
	if err != nil {
		if eris.Is(err, browser.ErrNavigation) || ctx.Err() != nil {
			return Outcome{}, err
		}
		log.Warn("extract: extraction failed", zap.Error(err))
		return Unavailable(), nil
	}
	if out.Kind == KindItems && len(out.Items) == 0 {
		out = Unavailable()
	}
	log.Info("extract: finished",
		zap.String("outcome", out.Kind.String()),
		zap.Int("items", len(out.Items)),
	)
	return out, nil
}

// Deps are the collaborators some extractors need.
type Deps struct {
	Fetcher fetcher.Fetcher
	PDF     pdftext.Extractor
	// Wait is the extra pause for sites that render their menu late. Zero
	// disables it.
	Wait time.Duration
}

// Registry maps restaurant ids to extractors.
type Registry struct {
	byID map[string]Extractor
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{byID: make(map[string]Extractor)}
}

// Register binds an extractor to a restaurant id, replacing any previous one.
func (r *Registry) Register(id string, ex Extractor) {
	r.byID[id] = ex
}

// Lookup returns the restaurant's extractor or ErrNoExtractor.
func (r *Registry) Lookup(id string) (Extractor, error) {
	ex, ok := r.byID[id]
	if !ok {
		return nil, eris.Wrap(ErrNoExtractor, fmt.Sprintf("no scraper implemented for restaurant %s", id))
	}
	return ex, nil
}

// Has reports whether id has an extractor.
func (r *Registry) Has(id string) bool {
	_, ok := r.byID[id]
	return ok
}

// IDs returns the registered ids in sorted order.
func (r *Registry) IDs() []string {
	ids := make([]string, 0, len(r.byID))
	for id := range r.byID {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Default registers every built-in site extractor.
func Default(deps Deps) *Registry {
	r := NewRegistry()
	r.Register("hybernska", &Hybernska{})
	r.Register("kantyna", &Kantyna{})
	r.Register("masarycka", &Masarycka{wait: deps.Wait})
	r.Register("tiskarna", &Tiskarna{})
	r.Register("meatbeer", &Meatbeer{wait: deps.Wait})
	r.Register("nekazanka", &Nekazanka{wait: deps.Wait})
	r.Register("saporevero", &Saporevero{wait: deps.Wait})
	r.Register("magburger", &Magburger{fetcher: deps.Fetcher, pdf: deps.PDF})
	return r
}
