package main

import (
	"fmt"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// nowFunc is replaced in tests.
var nowFunc = time.Now

var pruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete stored collections older than the retention window",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		keepDays, _ := cmd.Flags().GetInt("keep-days")
		if keepDays == 0 {
			keepDays = cfg.Store.RetentionDays
		}
		if keepDays < 1 {
			return eris.Errorf("prune: keep-days must be at least 1, got %d", keepDays)
		}

		st, err := openStore(ctx, cfg)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		n, err := st.Prune(ctx, keepDays, nowFunc())
		if err != nil {
			return err
		}
		zap.L().Info("pruned stored menus", zap.Int("removed", n), zap.Int("keep_days", keepDays))
		fmt.Fprintf(cmd.OutOrStdout(), "Removed %d collection(s) older than %d day(s).\n", n, keepDays)
		return nil
	},
}

func init() {
	pruneCmd.Flags().Int("keep-days", 0, "days to keep (default store.retention_days)")
	rootCmd.AddCommand(pruneCmd)
}
