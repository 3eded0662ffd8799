package extract

import (
	"context"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/sells-group/lunch-cli/internal/browser"
	"github.com/sells-group/lunch-cli/internal/locale"
	"github.com/sells-group/lunch-cli/internal/model"
	"github.com/sells-group/lunch-cli/internal/textnorm"
)

const (
	saporeveroURL    = "https://www.saporevero.cz/"
	saporeveroButton = "Denní Menu"
	saporeveroName   = "h4.font-sans.text-lg.font-bold"
)

// saporeveroLocale makes the site render Czech descriptions.
var saporeveroLocale = browser.Cookie{Name: "NEXT_LOCALE", Value: "cz", Domain: ".saporevero.cz", Path: "/"}

// Saporevero shows the daily menu in a modal opened from a button on the
// home page. Dish headings are Italian; the Czech name leads the
// description.
type Saporevero struct {
	wait time.Duration
}

func (Saporevero) TargetURL(r model.Restaurant, _ locale.Day) string {
	if r.URL != "" {
		return r.URL
	}
	return saporeveroURL
}

func (Saporevero) Prepare(ctx context.Context, page browser.Page, _ model.Restaurant) error {
	return page.SetCookie(ctx, saporeveroLocale)
}

func (s Saporevero) Extract(ctx context.Context, page browser.Page, _ Request) (Outcome, error) {
	if err := page.Settle(ctx, s.wait); err != nil {
		return Outcome{}, err
	}
	clicked, err := page.ClickText(ctx, saporeveroButton, 10*time.Second)
	if err != nil {
		return Outcome{}, err
	}
	if !clicked {
		return NotYetPosted(), nil
	}
	if err := page.Settle(ctx, s.wait); err != nil {
		return Outcome{}, err
	}

	doc, err := document(ctx, page)
	if err != nil {
		return Outcome{}, err
	}
	items := saporeveroItems(doc)
	if len(items) == 0 {
		return NotYetPosted(), nil
	}
	return Items(items), nil
}

func saporeveroItems(doc *goquery.Document) []model.MenuItem {
	var items []model.MenuItem
	doc.Find(saporeveroName).Each(func(_ int, h *goquery.Selection) {
		box := h.Parent().Parent()
		price := text(box.Find("p.text-sm").First())
		desc := text(box.Find("p.mt-1").First())
		if price == "" || desc == "" {
			return
		}
		name, _, _ := strings.Cut(desc, "-")
		if name = strings.TrimSpace(name); name == "" {
			return
		}
		items = append(items, textnorm.NewMenuItem(name, price, ""))
	})
	return items
}
