// Package registry loads the configured restaurants.
package registry

import (
	_ "embed"
	"net/url"
	"os"
	"sort"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/lunch-cli/internal/model"
)

//go:embed restaurants.yaml
var builtin []byte

// Registry is the immutable, ordered set of restaurants.
type Registry struct {
	list []model.Restaurant
	byID map[string]int
}

// Default returns the built-in restaurant list.
func Default() (*Registry, error) {
	return Parse(builtin)
}

// Load reads restaurants from path, or the built-in list when path is empty.
func Load(path string) (*Registry, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "registry: read restaurants file")
	}
	return Parse(data)
}

// Parse decodes a YAML list of restaurants and validates it.
func Parse(data []byte) (*Registry, error) {
	var list []model.Restaurant
	if err := yaml.Unmarshal(data, &list); err != nil {
		return nil, eris.Wrap(err, "registry: unmarshal restaurants")
	}
	if len(list) == 0 {
		return nil, eris.New("registry: no restaurants configured")
	}

	r := &Registry{list: list, byID: make(map[string]int, len(list))}
	for i, rest := range list {
		if err := validate(rest); err != nil {
			return nil, eris.Wrapf(err, "registry: restaurant %d", i)
		}
		if _, dup := r.byID[rest.ID]; dup {
			return nil, eris.Errorf("registry: duplicate restaurant id %q", rest.ID)
		}
		r.byID[rest.ID] = i
	}
	return r, nil
}

func validate(r model.Restaurant) error {
	if r.ID == "" {
		return eris.New("registry: id is required")
	}
	if r.Name == "" {
		return eris.Errorf("registry: %s: name is required", r.ID)
	}
	for _, raw := range []string{r.URL, r.MenuURL, r.SocialURL, r.Scrape.PDFURL} {
		if raw == "" {
			continue
		}
		if u, err := url.Parse(raw); err != nil || u.Host == "" {
			return eris.Errorf("registry: %s: invalid url %q", r.ID, raw)
		}
	}
	if r.MenuOrSiteURL() == "" {
		return eris.Errorf("registry: %s: url or menu_url is required", r.ID)
	}
	switch r.Scrape.Type {
	case model.ScrapeTypeStatic, model.ScrapeTypeDynamic, model.ScrapeTypePDF:
	default:
		return eris.Errorf("registry: %s: unknown scrape type %q", r.ID, r.Scrape.Type)
	}
	return nil
}

// All returns the restaurants in configuration order.
func (r *Registry) All() []model.Restaurant {
	out := make([]model.Restaurant, len(r.list))
	copy(out, r.list)
	return out
}

// ByID looks up a restaurant.
func (r *Registry) ByID(id string) (model.Restaurant, bool) {
	i, ok := r.byID[id]
	if !ok {
		return model.Restaurant{}, false
	}
	return r.list[i], true
}

// IDs returns every restaurant id, sorted.
func (r *Registry) IDs() []string {
	ids := make([]string, 0, len(r.list))
	for _, rest := range r.list {
		ids = append(ids, rest.ID)
	}
	sort.Strings(ids)
	return ids
}
