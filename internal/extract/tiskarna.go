package extract

import (
	"context"
	"regexp"

	"github.com/sells-group/lunch-cli/internal/browser"
	"github.com/sells-group/lunch-cli/internal/locale"
	"github.com/sells-group/lunch-cli/internal/model"
	"github.com/sells-group/lunch-cli/internal/textnorm"
)

var tiskarnaPrefixRe = regexp.MustCompile(`(?i)^(?:\d+\.\s*|náš tip:\s*)+`)

// Tiskarna publishes the whole week as text, one dated heading per day.
// Dish names are written in capitals; short capital lines are course
// headers.
type Tiskarna struct{}

func (Tiskarna) TargetURL(r model.Restaurant, _ locale.Day) string {
	return r.MenuOrSiteURL()
}

func (Tiskarna) Extract(ctx context.Context, page browser.Page, req Request) (Outcome, error) {
	body, err := page.Text(ctx)
	if err != nil {
		return Outcome{}, err
	}
	section, ok := Section(body, req.Day, SectionOptions{RequireDate: true})
	if !ok {
		return NotYetPosted(), nil
	}
	// The first line is the dated heading, possibly with a year attached.
	lines := textnorm.Lines(section)[1:]
	cs := ParseLines(lines, CascadeOptions{
		HeaderMaxLen: 20,
		StripPrefix:  tiskarnaPrefixRe,
	})
	return Items(ToMenuItems(cs)), nil
}
