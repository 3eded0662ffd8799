package main

import (
	"fmt"
	"io"
	"os/signal"
	"syscall"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/lunch-cli/internal/model"
	"github.com/sells-group/lunch-cli/internal/pipeline"
)

// errNoSuccess makes the process exit non-zero when every attempted
// restaurant failed.
var errNoSuccess = eris.New("scrape: no restaurant scraped successfully")

var scrapeCmd = &cobra.Command{
	Use:   "scrape",
	Short: "Scrape today's lunch menus",
	Long: `Scrapes today's menus and merges them into the stored collection.

Without --restaurant only restaurants whose stored menu for today is missing
or unavailable are scraped. With --restaurant that one restaurant is scraped
regardless of what is stored.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		restaurantID, _ := cmd.Flags().GetString("restaurant")
		full, _ := cmd.Flags().GetBool("full")

		env, err := initScrape(ctx, cfg)
		if err != nil {
			return err
		}
		defer env.Close()

		summary, err := env.Pipeline.Run(ctx, pipeline.Options{
			RestaurantID: restaurantID,
			Incremental:  !full,
		})
		if summary != nil {
			printSummary(cmd.OutOrStdout(), summary)
		}
		if err != nil {
			return err
		}
		return scrapeExit(summary)
	},
}

// scrapeExit fails the command only when restaurants were attempted and none
// of them succeeded.
func scrapeExit(s *model.RunSummary) error {
	if s.Succeeded() == 0 && len(s.Failed) > 0 {
		return errNoSuccess
	}
	return nil
}

func printSummary(w io.Writer, s *model.RunSummary) {
	fmt.Fprintf(w, "Run %s for %s\n", s.RunID, s.Date)

	if len(s.Scraped) > 0 {
		t := newTable(w)
		t.AppendHeader(table.Row{"Restaurant", "Items", "Available", "Preview"})
		for _, m := range s.Scraped {
			t.AppendRow(table.Row{m.RestaurantName, len(m.Items), m.IsAvailable, preview(m.Items)})
		}
		t.Render()
	}

	if len(s.Failed) > 0 {
		t := newTable(w)
		t.SetTitle("Failed")
		t.AppendHeader(table.Row{"Restaurant", "Error"})
		for _, f := range s.Failed {
			t.AppendRow(table.Row{f.RestaurantName, f.Error})
		}
		t.Render()
	}

	fmt.Fprintf(w, "Succeeded: %d  Available: %d  Failed: %d  Skipped: %d  Saved: %t\n",
		s.Succeeded(), s.Available(), len(s.Failed), len(s.Skipped), s.Saved)
}

// preview lists up to three items.
func preview(items []model.MenuItem) string {
	out := ""
	for i, it := range items {
		if i == 3 {
			out += fmt.Sprintf(" (+%d more)", len(items)-3)
			break
		}
		if i > 0 {
			out += "; "
		}
		out += fmt.Sprintf("%s (%d Kč)", it.Name, it.Price)
	}
	return out
}

func init() {
	scrapeCmd.Flags().String("restaurant", "", "scrape only this restaurant id")
	scrapeCmd.Flags().Bool("full", false, "scrape every restaurant even if today's menu is already stored")
	rootCmd.AddCommand(scrapeCmd)
}
