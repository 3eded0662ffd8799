package extract

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/sells-group/lunch-cli/internal/browser"
	"github.com/sells-group/lunch-cli/internal/locale"
	"github.com/sells-group/lunch-cli/internal/model"
	"github.com/sells-group/lunch-cli/internal/textnorm"
)

const (
	meatbeerSoups = "POLÉVKY"
	meatbeerMains = "HLAVNÍ JÍDLA"
	// The permanent grill menu follows the lunch offer on the same page.
	meatbeerEnd = "Z MEAT BEER GRILU NA DŘEVĚNÉM UHLÍ"
)

var (
	meatbeerPriceRe  = regexp.MustCompile(`(\d+)[\s\p{Zs}]*Kč`)
	meatbeerPrefixRe = regexp.MustCompile(`(?i)^(?:BEZMASOVKA|RYCHLOVKA|TUTOVKA|STREETOVKA|MEATOVKA|SRDCOVKA):\s*`)
)

// Meatbeer lists soups and mains under two capital headings. A dish name
// may wrap over several lines and ends at its price.
type Meatbeer struct {
	wait time.Duration
}

func (Meatbeer) TargetURL(r model.Restaurant, _ locale.Day) string {
	if r.MenuURL != "" {
		return r.MenuURL
	}
	return "https://www.meatbeer.cz/menu/"
}

func (m Meatbeer) Extract(ctx context.Context, page browser.Page, _ Request) (Outcome, error) {
	if err := page.Settle(ctx, m.wait); err != nil {
		return Outcome{}, err
	}
	body, err := page.Text(ctx)
	if err != nil {
		return Outcome{}, err
	}
	items, found := parseMeatbeer(textnorm.Lines(body))
	if !found {
		return NotYetPosted(), nil
	}
	return Items(items), nil
}

// parseMeatbeer returns the lunch items and whether any lunch heading was
// present at all.
func parseMeatbeer(lines []string) ([]model.MenuItem, bool) {
	var (
		items   []model.MenuItem
		name    []string
		inSoups bool
		inMains bool
	)
	for _, line := range lines {
		if strings.Contains(line, meatbeerEnd) {
			break
		}
		switch {
		case strings.Contains(line, meatbeerSoups):
			inSoups, inMains, name = true, false, nil
			continue
		case strings.Contains(line, meatbeerMains):
			inSoups, inMains, name = false, true, nil
			continue
		}
		if !inSoups && !inMains {
			continue
		}

		m := meatbeerPriceRe.FindStringSubmatchIndex(line)
		if m == nil {
			name = append(name, line)
			continue
		}
		if before := strings.TrimSpace(line[:m[0]]); before != "" {
			name = append(name, before)
		}
		full := strings.TrimSpace(meatbeerPrefixRe.ReplaceAllString(strings.Join(name, " "), ""))
		name = nil

		price := textnorm.ParsePrice(line[m[2]:m[3]])
		if full == "" || price <= 0 || price >= 500 {
			continue
		}
		desc := ""
		if inSoups {
			desc = "Polévka"
		}
		items = append(items, model.MenuItem{
			Name:        textnorm.NormalizeText(full),
			Price:       price,
			Description: textnorm.NormalizeText(desc),
		})
	}
	return items, inSoups || inMains
}
