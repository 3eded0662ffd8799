package extract

import (
	"context"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/lunch-cli/internal/browser"
	"github.com/sells-group/lunch-cli/internal/fetcher"
	"github.com/sells-group/lunch-cli/internal/locale"
	"github.com/sells-group/lunch-cli/internal/model"
	"github.com/sells-group/lunch-cli/internal/pdftext"
)

const magburgerLinkSel = `a[href$=".pdf"], a[href*=".pdf?"]`

// Magburger publishes the weekly menu as a PDF linked from its lunch page.
// Burgers sold without a bun ("NAKED") are variants, not separate dishes.
type Magburger struct {
	fetcher fetcher.Fetcher
	pdf     pdftext.Extractor
}

func (Magburger) TargetURL(r model.Restaurant, _ locale.Day) string {
	return r.MenuOrSiteURL()
}

func (m Magburger) Extract(ctx context.Context, page browser.Page, req Request) (Outcome, error) {
	if m.fetcher == nil || m.pdf == nil {
		return Outcome{}, eris.New("extract: magburger needs a fetcher and a pdf extractor")
	}

	pdfURL := req.Restaurant.Scrape.PDFURL
	if !strings.Contains(strings.ToLower(pdfURL), ".pdf") {
		visible, err := page.WaitVisible(ctx, magburgerLinkSel, 10*time.Second)
		if err != nil {
			return Outcome{}, err
		}
		if !visible {
			return NotYetPosted(), nil
		}
		doc, err := document(ctx, page)
		if err != nil {
			return Outcome{}, err
		}
		href, ok := firstHref(doc, magburgerLinkSel)
		if !ok {
			return NotYetPosted(), nil
		}
		pdfURL = resolveURL(page.URL(), href)
	}

	data, err := m.fetcher.Fetch(ctx, pdfURL)
	if err != nil {
		return Outcome{}, eris.Wrapf(err, "extract: download %s", pdfURL)
	}
	body, err := m.pdf.ExtractText(ctx, data)
	if err != nil {
		return Outcome{}, eris.Wrap(err, "extract: pdf text")
	}
	req.logger().Debug("extract: pdf text extracted", zap.String("url", pdfURL), zap.Int("chars", len(body)))

	// Single-day documents carry no day headings; use the whole text then.
	section, ok := Section(body, req.Day, SectionOptions{})
	if !ok {
		section = body
	}

	var items []model.MenuItem
	for _, c := range PairLines(RawLines(section), DefaultPriceBounds) {
		if strings.Contains(strings.ToUpper(c.Name), "NAKED") {
			continue
		}
		items = append(items, c.MenuItem())
	}
	return Items(items), nil
}

func firstHref(doc *goquery.Document, sel string) (string, bool) {
	href, ok := doc.Find(sel).First().Attr("href")
	return strings.TrimSpace(href), ok && strings.TrimSpace(href) != ""
}
