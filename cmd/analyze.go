package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

// analyzeCmd asks the AI analyst for the themes across the current channels.
var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Fetch news and print an AI trend analysis",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()
		analyst, err := newAnalyst(cfg)
		if err != nil {
			return err
		}
		ctx, cancel := context.WithTimeout(cmd.Context(), 3*time.Minute)
		defer cancel()

		a, err := newApp(ctx, cfg, false)
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.refresher.Refresh(ctx, false); err != nil {
			return err
		}
		out, err := analyst.AnalyzeChannels(ctx, a.store.Channels(), a.store.Settings().Language)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), out)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
}
