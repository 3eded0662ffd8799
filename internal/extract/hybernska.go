package extract

import (
	"context"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"

	"github.com/sells-group/lunch-cli/internal/browser"
	"github.com/sells-group/lunch-cli/internal/locale"
	"github.com/sells-group/lunch-cli/internal/model"
	"github.com/sells-group/lunch-cli/internal/textnorm"
)

// hybernskaWindow is how much body text after a heading belongs to its dish.
const hybernskaWindow = 400

var hybernskaPriceRe = regexp.MustCompile(`\d+.*Kč`)

// Hybernska reads dish names from h3 headings and finds each dish's
// description and price in the body text that follows the heading.
type Hybernska struct{}

func (Hybernska) TargetURL(r model.Restaurant, _ locale.Day) string {
	return r.URL
}

func (Hybernska) Extract(ctx context.Context, page browser.Page, _ Request) (Outcome, error) {
	doc, err := document(ctx, page)
	if err != nil {
		return Outcome{}, err
	}
	body, err := page.Text(ctx)
	if err != nil {
		return Outcome{}, err
	}

	var items []model.MenuItem
	doc.Find("h3").Each(func(_ int, h *goquery.Selection) {
		name := strings.TrimSpace(h.Text())
		if utf8.RuneCountInString(name) < 3 {
			return
		}
		c, ok := hybernskaDish(body, name)
		if ok {
			items = append(items, c.MenuItem())
		}
	})
	return Items(items), nil
}

func hybernskaDish(body, name string) (Candidate, bool) {
	idx := strings.Index(body, name)
	if idx < 0 {
		return Candidate{}, false
	}
	window := []rune(body[idx:])
	if len(window) > hybernskaWindow {
		window = window[:hybernskaWindow]
	}

	c := Candidate{Name: name}
	lines := strings.Split(string(window), "\n")
	for _, line := range lines[1:] {
		line = strings.TrimSpace(line)
		switch {
		case line == "":
		case hybernskaPriceRe.MatchString(line):
			c.PriceText = line
			return c, true
		case textnorm.Classify(line) == textnorm.Allergen:
		case c.Description == "" && utf8.RuneCountInString(line) > 10:
			c.Description = line
		}
	}
	return Candidate{}, false
}
