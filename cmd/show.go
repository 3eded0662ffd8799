package main

import (
	"fmt"
	"io"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"github.com/sells-group/lunch-cli/internal/locale"
	"github.com/sells-group/lunch-cli/internal/model"
	"github.com/sells-group/lunch-cli/internal/store"
	"github.com/sells-group/lunch-cli/internal/textnorm"
)

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the stored menus for a date",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		date, _ := cmd.Flags().GetString("date")
		if date == "" {
			date = locale.Today(nowFunc(), cfg.Scrape.Location()).ISODate()
		}
		if err := store.ValidDate(date); err != nil {
			return err
		}

		st, err := openStore(ctx, cfg)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		menus, err := st.Load(ctx, date)
		if err != nil {
			return err
		}
		printMenus(cmd.OutOrStdout(), date, menus)
		return nil
	},
}

func printMenus(w io.Writer, date string, menus model.Collection) {
	if len(menus) == 0 {
		fmt.Fprintf(w, "No menus stored for %s.\n", date)
		return
	}
	t0, _ := time.Parse(model.DateLayout, date)
	day := locale.DayOf(t0)
	fmt.Fprintf(w, "Menus for %s (%s)\n", day.FormatDate(), date)

	for _, m := range menus {
		t := newTable(w)
		t.SetTitle(fmt.Sprintf("%s (%s)", m.RestaurantName, day.Title()))
		t.AppendHeader(table.Row{"Item", "Price", "Description"})
		for _, it := range m.Items {
			price := "-"
			if it.Price > 0 {
				price = fmt.Sprintf("%d Kč", it.Price)
			}
			t.AppendRow(table.Row{dishName(it.Name), price, it.Description})
		}
		if !m.IsAvailable {
			t.AppendFooter(table.Row{"unavailable", "", m.ErrorMessage})
		}
		t.Render()
	}
	if ts := menus.LastUpdated(); ts != nil {
		fmt.Fprintf(w, "Last updated %s\n", ts.Format("2006-01-02 15:04:05 MST"))
	}
}

// dishName emphasizes the leading words of a dish the way the menu board
// does.
func dishName(name string) string {
	bold, rest := textnorm.SplitName(name)
	if rest == "" {
		return text.Bold.Sprint(bold)
	}
	return text.Bold.Sprint(bold) + " " + rest
}

func init() {
	showCmd.Flags().String("date", "", "date to show, YYYY-MM-DD (default today)")
	rootCmd.AddCommand(showCmd)
}
