package model

import (
	"encoding/json"
	"time"
)

// DateLayout is the ISO calendar date used as the collection key.
const DateLayout = "2006-01-02"

// NoItemsMessage is set on menus where no priced item was found.
const NoItemsMessage = "No valid menu items found"

// NoDataMessage is set on placeholder menus served when nothing is stored.
const NoDataMessage = "No menu data available"

// MenuItem is a single dish. A zero price marks a placeholder item.
type MenuItem struct {
	Name        string `json:"name"`
	Price       int    `json:"price"`
	Description string `json:"description,omitempty"`
}

// RestaurantMenu is one restaurant's menu for one date.
type RestaurantMenu struct {
	RestaurantID   string     `json:"restaurantId"`
	RestaurantName string     `json:"restaurantName"`
	Date           string     `json:"date"`
	DayOfWeek      string     `json:"dayOfWeek"`
	Items          []MenuItem `json:"items"`
	SourceURL      string     `json:"sourceUrl"`
	SocialURL      string     `json:"instagramUrl,omitempty"`
	ScrapedAt      *time.Time `json:"scrapedAt"`
	IsAvailable    bool       `json:"isAvailable"`
	ErrorMessage   string     `json:"errorMessage,omitempty"`
}

// HasPricedItem reports whether at least one item carries a positive price.
// Placeholder items priced at zero never count.
func HasPricedItem(items []MenuItem) bool {
	for _, it := range items {
		if it.Price > 0 {
			return true
		}
	}
	return false
}

// NewRestaurantMenu builds a scraped menu record and derives availability
// from the items.
func NewRestaurantMenu(r Restaurant, date, dayName string, items []MenuItem, sourceURL string, scrapedAt time.Time) RestaurantMenu {
	if items == nil {
		items = []MenuItem{}
	}
	ts := scrapedAt.UTC()
	m := RestaurantMenu{
		RestaurantID:   r.ID,
		RestaurantName: r.Name,
		Date:           date,
		DayOfWeek:      dayName,
		Items:          items,
		SourceURL:      sourceURL,
		SocialURL:      r.SocialURL,
		ScrapedAt:      &ts,
		IsAvailable:    HasPricedItem(items),
	}
	if !m.IsAvailable {
		m.ErrorMessage = NoItemsMessage
	}
	return m
}

// PlaceholderMenu is the record served for a restaurant with no stored data.
func PlaceholderMenu(r Restaurant, date, dayName string) RestaurantMenu {
	return RestaurantMenu{
		RestaurantID:   r.ID,
		RestaurantName: r.Name,
		Date:           date,
		DayOfWeek:      dayName,
		Items:          []MenuItem{},
		SourceURL:      r.URL,
		SocialURL:      r.SocialURL,
		IsAvailable:    false,
		ErrorMessage:   NoDataMessage,
	}
}

// Complete reports whether the record needs no further scraping today.
func (m RestaurantMenu) Complete() bool {
	return m.IsAvailable && len(m.Items) > 0
}

// ScraperResult is the outcome of scraping a single restaurant.
type ScraperResult struct {
	Success bool            `json:"success"`
	Menu    *RestaurantMenu `json:"menu,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// Succeeded wraps a scraped menu.
func Succeeded(menu RestaurantMenu) ScraperResult {
	return ScraperResult{Success: true, Menu: &menu}
}

// Failed wraps a scrape error.
func Failed(err error) ScraperResult {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	return ScraperResult{Success: false, Error: msg}
}

// Collection is the dated set of menus, one per restaurant, in stored order.
type Collection []RestaurantMenu

// Index returns the position of the restaurant's record, or -1.
func (c Collection) Index(restaurantID string) int {
	for i := range c {
		if c[i].RestaurantID == restaurantID {
			return i
		}
	}
	return -1
}

// Get returns the record for a restaurant.
func (c Collection) Get(restaurantID string) (RestaurantMenu, bool) {
	if i := c.Index(restaurantID); i >= 0 {
		return c[i], true
	}
	return RestaurantMenu{}, false
}

// LastUpdated returns the most recent scrape instant in the collection.
func (c Collection) LastUpdated() *time.Time {
	var latest *time.Time
	for i := range c {
		ts := c[i].ScrapedAt
		if ts == nil {
			continue
		}
		if latest == nil || ts.After(*latest) {
			t := *ts
			latest = &t
		}
	}
	return latest
}

// Encode renders the collection as the indented JSON blob that is persisted.
func (c Collection) Encode() ([]byte, error) {
	if c == nil {
		c = Collection{}
	}
	return json.MarshalIndent(c, "", "  ")
}

// DecodeCollection parses a persisted blob. Empty input is an empty collection.
func DecodeCollection(data []byte) (Collection, error) {
	if len(data) == 0 {
		return Collection{}, nil
	}
	var c Collection
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, err
	}
	if c == nil {
		c = Collection{}
	}
	return c, nil
}
