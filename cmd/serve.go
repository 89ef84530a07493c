package cmd

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"producthot/internal/server"
	"producthot/worker"

	"github.com/spf13/cobra"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve news over HTTP and refresh it in the background",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()
		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()

		a, err := newApp(ctx, cfg, false)
		if err != nil {
			return err
		}
		defer a.Close()

		addr := cfg.Server.Addr
		if serveAddr != "" {
			addr = serveAddr
		}
		opts := server.Options{
			Store:       a.store,
			Refresher:   a.refresher,
			Metrics:     a.metrics,
			Logger:      slog.Default(),
			DigestTitle: cfg.Digest.Title,
		}
		if a.redis != nil {
			opts.Health = a.redis.Ping
		}
		srv := server.New(addr, opts)

		ws := []worker.Worker{srv}
		if cfg.Refresh.Auto || a.store.Settings().AutoRefresh {
			slog.Info("serve: auto refresh enabled", "interval", a.refresher.Period())
			ws = append(ws, a.refresher)
		} else {
			// One load so the first request has data.
			ws = append(ws, worker.Func(func(ctx context.Context) error {
				if err := a.refresher.Refresh(ctx, false); err != nil && ctx.Err() == nil {
					slog.Error("serve: initial refresh failed", "error", err)
				}
				<-ctx.Done()
				return nil
			}))
		}

		// Signal handling for systemd
		sigc := make(chan os.Signal, 1)
		signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(sigc)
		go func() {
			select {
			case s := <-sigc:
				slog.Info("serve: received signal, shutting down", "signal", s.String())
				cancel()
			case <-ctx.Done():
			}
		}()

		return worker.NewManager(ws...).Start(ctx)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default: server.addr)")
}
