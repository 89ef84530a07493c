package cmd

import (
	"context"
	"fmt"
	"time"

	"producthot/internal/redisclient"
	"producthot/internal/storage"

	"github.com/spf13/cobra"
)

// redisCmd groups Redis-related subcommands.
var redisCmd = &cobra.Command{
	Use:   "redis",
	Short: "Redis utilities (ping, response cache)",
}

// pingCmd pings the configured Redis server.
var pingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Ping Redis and print PONG",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()

		rdb := redisclient.New(cfg.Redis)
		defer rdb.Close()

		ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Second)
		defer cancel()

		res, err := rdb.Ping(ctx).Result()
		if err != nil {
			return fmt.Errorf("redis %s: %w", cfg.Redis.Addr, err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), res)
		return nil
	},
}

// clearCacheCmd drops cached news responses.
var clearCacheCmd = &cobra.Command{
	Use:   "clear-cache",
	Short: "Delete cached news responses",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withRedisStore(cmd, func(ctx context.Context, s *storage.RedisStore) error {
			if err := s.ClearNewsCache(ctx); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "news cache cleared")
			return nil
		})
	},
}

func init() {
	redisCmd.AddCommand(pingCmd, clearCacheCmd)
	rootCmd.AddCommand(redisCmd)
}
