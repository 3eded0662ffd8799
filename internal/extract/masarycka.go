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
	masaryckaItem  = ".styles_menuItem__rvgPH"
	masaryckaTitle = ".styles_menu-item-title__Mnuv_"
	masaryckaPrice = ".styles_menu-item-price__G8nZ_"
	// Items per day assumed when the day headings cannot be found.
	masaryckaPerDay = 10
)

// Masarycka serves one page per weekday. The page still lists the whole
// week, so items are taken from between today's heading and the next one.
type Masarycka struct {
	wait time.Duration
}

func (Masarycka) TargetURL(r model.Restaurant, day locale.Day) string {
	if p := r.Scrape.DayURLPattern; p != "" {
		return strings.ReplaceAll(p, "{day}", day.URLName)
	}
	return r.MenuOrSiteURL() + day.URLName
}

func (m Masarycka) Extract(ctx context.Context, page browser.Page, req Request) (Outcome, error) {
	if err := page.Settle(ctx, m.wait); err != nil {
		return Outcome{}, err
	}
	doc, err := document(ctx, page)
	if err != nil {
		return Outcome{}, err
	}
	return Items(masaryckaItems(doc, req.Day)), nil
}

func masaryckaItems(doc *goquery.Document, day locale.Day) []model.MenuItem {
	var nodes []*goquery.Selection

	headers := masaryckaHeaders(doc)
	for i, h := range headers {
		if h.weekday != day.Weekday {
			continue
		}
		var next *goquery.Selection
		if i+1 < len(headers) {
			next = headers[i+1].sel
		}
		h.sel.NextAll().EachWithBreak(func(_ int, sib *goquery.Selection) bool {
			if next != nil && sib.IsSelection(next) {
				return false
			}
			if sib.Is(masaryckaItem) {
				nodes = append(nodes, sib)
			} else {
				sib.Find(masaryckaItem).Each(func(_ int, it *goquery.Selection) {
					nodes = append(nodes, it)
				})
			}
			return true
		})
		break
	}

	if len(nodes) == 0 {
		all := doc.Find(masaryckaItem)
		start := 0
		if day.IsWeekday() {
			start = (int(day.Weekday) - 1) * masaryckaPerDay
		}
		for i := start; i < start+masaryckaPerDay && i < all.Length(); i++ {
			nodes = append(nodes, all.Eq(i))
		}
	}

	var items []model.MenuItem
	seen := make(map[string]bool)
	for _, n := range nodes {
		name := text(n.Find(masaryckaTitle).First())
		price := text(n.Find(masaryckaPrice).First())
		if name == "" || price == "" {
			continue
		}
		key := name + "\x00" + price
		if seen[key] {
			continue
		}
		seen[key] = true
		items = append(items, textnorm.NewMenuItem(name, price, ""))
	}
	return items
}

type dayHeader struct {
	weekday time.Weekday
	sel     *goquery.Selection
}

// masaryckaHeaders returns leaf elements holding just a workday name, in
// document order. Short forms like "st" are too ambiguous to count.
func masaryckaHeaders(doc *goquery.Document) []dayHeader {
	var out []dayHeader
	doc.Find("*").Each(func(_ int, s *goquery.Selection) {
		if s.Children().Length() > 0 {
			return
		}
		label := strings.TrimSpace(s.Text())
		if len([]rune(label)) <= 2 {
			return
		}
		wd, ok := locale.ParseWeekday(label)
		if !ok || wd == time.Saturday || wd == time.Sunday {
			return
		}
		out = append(out, dayHeader{weekday: wd, sel: s})
	})
	return out
}
