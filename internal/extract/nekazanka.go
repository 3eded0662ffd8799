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

// The bistro's own site embeds this page in an iframe.
const nekazankaMenuURL = "https://www.prazskejrej.cz/menu-na-web/bistro-nekazanka-11"

var (
	nekazankaPriceRe  = regexp.MustCompile(`(\d+)[\s\p{Zs}]*Kč`)
	nekazankaNumberRe = regexp.MustCompile(`^\d+$`)
)

// Nekazanka reads a soup block followed by numbered main dishes, each laid
// out as number, name and price on consecutive lines.
type Nekazanka struct {
	wait time.Duration
}

func (Nekazanka) TargetURL(r model.Restaurant, _ locale.Day) string {
	if r.MenuURL != "" {
		return r.MenuURL
	}
	return nekazankaMenuURL
}

func (n Nekazanka) Extract(ctx context.Context, page browser.Page, _ Request) (Outcome, error) {
	if err := page.Settle(ctx, n.wait); err != nil {
		return Outcome{}, err
	}
	body, err := page.Text(ctx)
	if err != nil {
		return Outcome{}, err
	}
	return Items(parseNekazanka(textnorm.Lines(body))), nil
}

func parseNekazanka(lines []string) []model.MenuItem {
	var (
		items  []model.MenuItem
		inSoup bool
		inMain bool
	)
	for i := 0; i < len(lines); i++ {
		line := lines[i]
		lower := strings.ToLower(line)
		switch {
		case lower == "polévka":
			inSoup, inMain = true, false
			continue
		case strings.Contains(lower, "hlavní"):
			inSoup, inMain = false, true
			continue
		}

		if inSoup && i+1 < len(lines) {
			if m := nekazankaPriceRe.FindStringSubmatch(lines[i+1]); m != nil {
				items = append(items, textnorm.NewMenuItem(line, m[1], "Polévka"))
				inSoup = false
				i++
			}
			continue
		}
		if inMain && nekazankaNumberRe.MatchString(line) && i+2 < len(lines) {
			if m := nekazankaPriceRe.FindStringSubmatch(lines[i+2]); m != nil {
				items = append(items, textnorm.NewMenuItem(lines[i+1], m[1], ""))
				i += 2
			}
		}
	}
	return items
}
