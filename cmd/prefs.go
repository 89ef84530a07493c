package cmd

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

// withStore runs fn against an app whose preferences are backed by redis.
func withStore(cmd *cobra.Command, fn func(ctx context.Context, a *app) error) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
	defer cancel()
	a, err := newApp(ctx, GetConfig(), true)
	if err != nil {
		return err
	}
	defer a.Close()
	if err := a.requireStore(); err != nil {
		return err
	}
	return fn(ctx, a)
}

func parseIDArgs(args []string) ([]int, error) {
	ids := make([]int, 0, len(args))
	for _, s := range args {
		id, err := strconv.Atoi(strings.TrimSpace(s))
		if err != nil || id <= 0 {
			return nil, fmt.Errorf("invalid id %q: must be a positive integer", s)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func printIDs(w io.Writer, ids []int) {
	if len(ids) == 0 {
		fmt.Fprintln(w, "(empty)")
		return
	}
	for _, id := range ids {
		fmt.Fprintln(w, id)
	}
}

// idListCommand builds `<name> add|remove|list` for an id list in the store.
func idListCommand(name, short string, add, remove func(ctx context.Context, a *app, id int) error, list func(a *app) []int) *cobra.Command {
	parent := &cobra.Command{Use: name, Short: short}

	mutate := func(op func(ctx context.Context, a *app, id int) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			ids, err := parseIDArgs(args)
			if err != nil {
				return err
			}
			return withStore(cmd, func(ctx context.Context, a *app) error {
				for _, id := range ids {
					if err := op(ctx, a, id); err != nil {
						return err
					}
				}
				printIDs(cmd.OutOrStdout(), list(a))
				return nil
			})
		}
	}

	parent.AddCommand(&cobra.Command{
		Use:   "add <id>...",
		Short: "Add news ids",
		Args:  cobra.MinimumNArgs(1),
		RunE:  mutate(add),
	})
	if remove != nil {
		parent.AddCommand(&cobra.Command{
			Use:   "remove <id>...",
			Short: "Remove news ids",
			Args:  cobra.MinimumNArgs(1),
			RunE:  mutate(remove),
		})
	}
	parent.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "Print the stored ids",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, func(ctx context.Context, a *app) error {
				printIDs(cmd.OutOrStdout(), list(a))
				return nil
			})
		},
	})
	return parent
}

var favoritesCmd = idListCommand("favorites", "Manage favorite news ids",
	func(ctx context.Context, a *app, id int) error { return a.store.AddFavorite(ctx, id) },
	func(ctx context.Context, a *app, id int) error { return a.store.RemoveFavorite(ctx, id) },
	func(a *app) []int { return a.store.Favorites() },
)

var bookmarksCmd = idListCommand("bookmarks", "Manage bookmarked news ids",
	func(ctx context.Context, a *app, id int) error { return a.store.AddBookmark(ctx, id) },
	func(ctx context.Context, a *app, id int) error { return a.store.RemoveBookmark(ctx, id) },
	func(a *app) []int { return a.store.Bookmarks() },
)

var historyCmd = idListCommand("history", "Manage reading history (most recent first)",
	func(ctx context.Context, a *app, id int) error { return a.store.AddHistory(ctx, id) },
	nil,
	func(a *app) []int { return a.store.History() },
)

var historyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Clear the reading history",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(cmd, func(ctx context.Context, a *app) error {
			if err := a.store.ClearHistory(ctx); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "history cleared")
			return nil
		})
	},
}

func init() {
	historyCmd.AddCommand(historyClearCmd)
	rootCmd.AddCommand(favoritesCmd, bookmarksCmd, historyCmd)
}
