package model

// ScrapeType identifies how a restaurant publishes its daily menu.
type ScrapeType string

const (
	ScrapeTypeStatic  ScrapeType = "static"  // menu rendered in the page markup
	ScrapeTypeDynamic ScrapeType = "dynamic" // one URL per weekday
	ScrapeTypePDF     ScrapeType = "pdf"     // menu published as a document
)

// Selectors names the DOM nodes of a statically rendered menu.
type Selectors struct {
	MenuContainer   string `yaml:"menu_container,omitempty" json:"menuContainer,omitempty"`
	MenuItem        string `yaml:"menu_item,omitempty" json:"menuItem,omitempty"`
	ItemName        string `yaml:"item_name,omitempty" json:"itemName,omitempty"`
	ItemPrice       string `yaml:"item_price,omitempty" json:"itemPrice,omitempty"`
	ItemDescription string `yaml:"item_description,omitempty" json:"itemDescription,omitempty"`
	DaySection      string `yaml:"day_section,omitempty" json:"daySection,omitempty"`
}

// ScrapeConfig is the per-restaurant scrape variant.
type ScrapeConfig struct {
	Type          ScrapeType `yaml:"type" json:"type"`
	Selectors     *Selectors `yaml:"selectors,omitempty" json:"selectors,omitempty"`
	DayURLPattern string     `yaml:"day_url_pattern,omitempty" json:"dayUrlPattern,omitempty"`
	PDFURL        string     `yaml:"pdf_url,omitempty" json:"pdfUrl,omitempty"`
}

// Restaurant is one configured lunch venue. Loaded once at startup and never
// mutated afterwards.
type Restaurant struct {
	ID        string       `yaml:"id" json:"id"`
	Name      string       `yaml:"name" json:"name"`
	URL       string       `yaml:"url" json:"url"`
	MenuURL   string       `yaml:"menu_url,omitempty" json:"menuUrl,omitempty"`
	SocialURL string       `yaml:"social_url,omitempty" json:"instagramUrl,omitempty"`
	Scrape    ScrapeConfig `yaml:"scrape" json:"scrapeConfig"`
}

// MenuOrSiteURL returns the menu-specific URL when configured, else the site URL.
func (r Restaurant) MenuOrSiteURL() string {
	if r.MenuURL != "" {
		return r.MenuURL
	}
	return r.URL
}
