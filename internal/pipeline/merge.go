package pipeline

import "github.com/sells-group/lunch-cli/internal/model"

// Merge reconciles this run's menus with the stored collection for the same
// date. Stored records keep their position and are replaced only when the
// restaurant was scraped again; restaurants new to the date are appended in
// the order they were scraped. Neither input is modified.
func Merge(stored, fresh model.Collection) model.Collection {
	updates := make(map[string]model.RestaurantMenu, len(fresh))
	for _, m := range fresh {
		updates[m.RestaurantID] = m
	}

	out := make(model.Collection, 0, len(stored)+len(fresh))
	seen := make(map[string]bool, len(stored)+len(fresh))
	for _, m := range stored {
		if u, ok := updates[m.RestaurantID]; ok {
			m = u
		}
		if seen[m.RestaurantID] {
			continue
		}
		seen[m.RestaurantID] = true
		out = append(out, m)
	}
	for _, m := range fresh {
		if seen[m.RestaurantID] {
			continue
		}
		seen[m.RestaurantID] = true
		out = append(out, updates[m.RestaurantID])
	}
	return out
}

// NeedsScrape reports whether an incremental run should scrape the
// restaurant: it has no stored record, or the record is unavailable or
// empty.
func NeedsScrape(stored model.Collection, restaurantID string) bool {
	m, ok := stored.Get(restaurantID)
	return !ok || !m.Complete()
}
