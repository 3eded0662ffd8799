package model

import "time"

// RunFailure records a restaurant that could not be scraped in a run.
type RunFailure struct {
	RestaurantID   string `json:"restaurant_id"`
	RestaurantName string `json:"restaurant_name"`
	Error          string `json:"error"`
}

// RunSummary is the outcome of one orchestrated scrape run.
type RunSummary struct {
	RunID      string           `json:"run_id"`
	Date       string           `json:"date"`
	StartedAt  time.Time        `json:"started_at"`
	FinishedAt time.Time        `json:"finished_at"`
	Scraped    []RestaurantMenu `json:"scraped"`
	Skipped    []string         `json:"skipped,omitempty"`
	Failed     []RunFailure     `json:"failed,omitempty"`
	Saved      bool             `json:"saved"`
}

// Succeeded returns the number of restaurants scraped successfully.
func (s *RunSummary) Succeeded() int {
	return len(s.Scraped)
}

// Available returns how many scraped menus carry a priced item.
func (s *RunSummary) Available() int {
	n := 0
	for _, m := range s.Scraped {
		if m.IsAvailable {
			n++
		}
	}
	return n
}
