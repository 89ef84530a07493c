package cmd

import (
	"context"
	"fmt"

	"producthot/internal/state"

	"github.com/spf13/cobra"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Show or change stored settings",
}

var settingsGetCmd = &cobra.Command{
	Use:       "get [key]",
	Short:     "Print one setting, or all of them",
	Args:      cobra.MaximumNArgs(1),
	ValidArgs: state.SettingKeys(),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(cmd, func(ctx context.Context, a *app) error {
			s := a.store.Settings()
			keys := state.SettingKeys()
			if len(args) == 1 {
				keys = args
			}
			for _, k := range keys {
				v, err := s.Get(k)
				if err != nil {
					return err
				}
				if len(args) == 1 {
					fmt.Fprintln(cmd.OutOrStdout(), v)
				} else {
					fmt.Fprintf(cmd.OutOrStdout(), "%s=%s\n", k, v)
				}
			}
			return nil
		})
	},
}

var settingsSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Change a setting",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(cmd, func(ctx context.Context, a *app) error {
			s := a.store.Settings()
			if err := s.Set(args[0], args[1]); err != nil {
				return err
			}
			if err := a.store.Dispatch(ctx, state.UpdateSettings{Settings: s}); err != nil {
				return err
			}
			v, _ := a.store.Settings().Get(args[0])
			fmt.Fprintf(cmd.OutOrStdout(), "%s=%s\n", args[0], v)
			return nil
		})
	},
}

func init() {
	settingsCmd.AddCommand(settingsGetCmd, settingsSetCmd)
	rootCmd.AddCommand(settingsCmd)
}
