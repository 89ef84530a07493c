package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"producthot/internal/redisclient"
	"producthot/internal/storage"

	"github.com/spf13/cobra"
)

var tokenTTL time.Duration

// tokenCmd manages the bearer token sent with API requests.
var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Manage the API bearer token",
}

func withRedisStore(cmd *cobra.Command, fn func(ctx context.Context, s *storage.RedisStore) error) error {
	cfg := GetConfig()
	ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Second)
	defer cancel()
	rdb, err := redisclient.Connect(ctx, cfg.Redis, 2*time.Second)
	if err != nil {
		return err
	}
	defer rdb.Close()
	return fn(ctx, storage.NewRedisStore(rdb, cfg.Redis.KeyPrefix, cfg.App.Profile))
}

var tokenSetCmd = &cobra.Command{
	Use:   "set <token>",
	Short: "Store the token",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		tok := strings.TrimSpace(args[0])
		if tok == "" {
			return fmt.Errorf("token must not be empty")
		}
		return withRedisStore(cmd, func(ctx context.Context, s *storage.RedisStore) error {
			if err := s.SetToken(ctx, tok, tokenTTL); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "token stored")
			return nil
		})
	},
}

var tokenClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove the stored token",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withRedisStore(cmd, func(ctx context.Context, s *storage.RedisStore) error {
			if err := s.ClearToken(ctx); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "token cleared")
			return nil
		})
	},
}

func init() {
	tokenSetCmd.Flags().DurationVar(&tokenTTL, "ttl", 0, "expiry; 0 keeps the token until cleared")
	tokenCmd.AddCommand(tokenSetCmd, tokenClearCmd)
	rootCmd.AddCommand(tokenCmd)
}
