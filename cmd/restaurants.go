package main

import (
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/sells-group/lunch-cli/internal/extract"
	"github.com/sells-group/lunch-cli/internal/registry"
)

var restaurantsCmd = &cobra.Command{
	Use:   "restaurants",
	Short: "List configured restaurants",
	RunE: func(cmd *cobra.Command, _ []string) error {
		restaurants, err := registry.Load(cfg.Scrape.RestaurantsFile)
		if err != nil {
			return err
		}
		printRestaurants(cmd.OutOrStdout(), restaurants, extract.Default(extract.Deps{}))
		return nil
	},
}

func printRestaurants(w io.Writer, restaurants *registry.Registry, extractors *extract.Registry) {
	t := newTable(w)
	t.AppendHeader(table.Row{"ID", "Name", "Type", "Menu URL", "Scraper"})
	for _, r := range restaurants.All() {
		scraper := "none"
		if extractors.Has(r.ID) {
			scraper = "yes"
		}
		t.AppendRow(table.Row{r.ID, r.Name, r.Scrape.Type, r.MenuOrSiteURL(), scraper})
	}
	t.Render()
}

func init() {
	rootCmd.AddCommand(restaurantsCmd)
}
