// Package server exposes the news store over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"producthot/internal/metrics"
	"producthot/internal/state"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Refresher triggers a news refresh.
type Refresher interface {
	Refresh(ctx context.Context, force bool) error
}

// Options are the router dependencies.
type Options struct {
	Store     *state.Store
	Refresher Refresher
	Metrics   *metrics.Metrics
	Logger    *slog.Logger
	// Health reports dependency problems on /healthz; nil means always healthy.
	Health func(ctx context.Context) error
	// DigestTitle is the title of GET /digest; supports {.CurrentDate}.
	DigestTitle string
	// Timeout bounds each request; zero means no limit.
	Timeout time.Duration
}

// NewRouter builds the chi router with middleware and routes.
func NewRouter(opts Options) http.Handler {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	h := &handlers{store: opts.Store, refresher: opts.Refresher, health: opts.Health, digestTitle: opts.DigestTitle}

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer,
		middleware.RequestID,
		middleware.RealIP,
		requestLogger(opts.Logger),
	)
	if opts.Timeout > 0 {
		r.Use(middleware.Timeout(opts.Timeout))
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	r.Get("/healthz", h.healthz)
	r.Handle("/metrics", opts.Metrics.Handler())
	r.Get("/digest", h.digest)

	r.Route("/api", func(r chi.Router) {
		r.Get("/news", h.listNews)
		r.Get("/channels", h.listChannels)
		r.Get("/channels/{id}", h.getChannel)
		r.Post("/refresh", h.refresh)

		r.Get("/favorites", h.listFavorites)
		r.Put("/favorites/{id}", h.addFavorite)
		r.Delete("/favorites/{id}", h.removeFavorite)

		r.Get("/bookmarks", h.listBookmarks)
		r.Put("/bookmarks/{id}", h.addBookmark)
		r.Delete("/bookmarks/{id}", h.removeBookmark)

		r.Get("/history", h.listHistory)
		r.Delete("/history", h.clearHistory)
		r.Post("/history/{id}", h.addHistory)

		r.Get("/filter", h.getFilter)
		r.Put("/filter", h.setFilter)
		r.Delete("/filter", h.resetFilter)

		r.Get("/settings", h.getSettings)
		r.Patch("/settings", h.patchSettings)
	})
	return r
}

// Server is an http.Server that runs as a worker.
type Server struct {
	srv *http.Server
	log *slog.Logger
}

func New(addr string, opts Options) *Server {
	l := opts.Logger
	if l == nil {
		l = slog.Default()
	}
	return &Server{
		srv: &http.Server{
			Addr:              addr,
			Handler:           NewRouter(opts),
			ReadHeaderTimeout: 10 * time.Second,
		},
		log: l,
	}
}

// Start serves until ctx is done, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	errc := make(chan error, 1)
	go func() {
		s.log.Info("server: listening", "addr", s.srv.Addr)
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- fmt.Errorf("server: listen: %w", err)
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s.log.Info("server: shutting down")
	if err := s.srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	return <-errc
}
