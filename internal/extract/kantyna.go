package extract

import (
	"context"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/sells-group/lunch-cli/internal/browser"
	"github.com/sells-group/lunch-cli/internal/locale"
	"github.com/sells-group/lunch-cli/internal/model"
	"github.com/sells-group/lunch-cli/internal/textnorm"
)

var kantynaSelectors = model.Selectors{
	MenuItem:        "li.MenuItem_itemWrapper__IptXL",
	ItemName:        ".MenuItem_name__4OMO2",
	ItemDescription: ".MenuItem_description__PEtmC",
	ItemPrice:       ".MenuItem_price__6_X_Z",
}

// Kantyna reads a menu rendered as one list item per dish. The selectors
// come from the restaurant's configuration when present.
type Kantyna struct{}

func (Kantyna) TargetURL(r model.Restaurant, _ locale.Day) string {
	return r.MenuOrSiteURL()
}

func (Kantyna) Extract(ctx context.Context, page browser.Page, req Request) (Outcome, error) {
	sel := kantynaSelectors
	if s := req.Restaurant.Scrape.Selectors; s != nil && s.MenuItem != "" {
		sel = *s
	}

	visible, err := page.WaitVisible(ctx, sel.MenuItem, 10*time.Second)
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
	items := StructuredItems(doc.Selection, sel)
	if len(items) == 0 {
		return NotYetPosted(), nil
	}
	return Items(items), nil
}

// StructuredItems extracts one dish per sel.MenuItem node. The description
// is folded into the name as "name - description".
func StructuredItems(root *goquery.Selection, sel model.Selectors) []model.MenuItem {
	var items []model.MenuItem
	root.Find(sel.MenuItem).Each(func(_ int, node *goquery.Selection) {
		name := text(node.Find(sel.ItemName).First())
		price := text(node.Find(sel.ItemPrice).First())
		if name == "" || price == "" {
			return
		}
		if sel.ItemDescription != "" {
			if desc := text(node.Find(sel.ItemDescription).First()); desc != "" {
				name = name + " - " + desc
			}
		}
		items = append(items, textnorm.NewMenuItem(name, price, ""))
	})
	return items
}
