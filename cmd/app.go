package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"producthot/internal/config"
	"producthot/internal/httpclient"
	"producthot/internal/metrics"
	"producthot/internal/newsapi"
	"producthot/internal/redisclient"
	"producthot/internal/state"
	"producthot/internal/storage"
	"producthot/worker"

	"github.com/redis/go-redis/v9"
)

// app bundles the components shared by subcommands.
type app struct {
	cfg       config.Config
	loc       *time.Location
	rdb       *redis.Client // nil when redis is unreachable
	redis     *storage.RedisStore
	metrics   *metrics.Metrics
	news      *newsapi.Service
	store     *state.Store
	refresher *worker.Refresher
}

// newApp wires configuration into the fetch pipeline and the state store.
// Without redis the store keeps preferences in memory only. requireRedis
// turns an unreachable redis into an error instead.
func newApp(ctx context.Context, cfg config.Config, requireRedis bool) (*app, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	a := &app{cfg: cfg, loc: loc, metrics: metrics.New()}

	rdb, err := redisclient.Connect(ctx, cfg.Redis, 2*time.Second)
	switch {
	case err == nil:
		a.rdb = rdb
		a.redis = storage.NewRedisStore(rdb, cfg.Redis.KeyPrefix, cfg.App.Profile)
	case requireRedis:
		return nil, err
	default:
		slog.Warn("app: redis unavailable, preferences are not persisted", "addr", cfg.Redis.Addr, "error", err)
	}

	copts := httpclient.Options{
		BaseURL:      cfg.API.BaseURL,
		Timeout:      cfg.API.Timeout,
		UserAgent:    cfg.API.UserAgent,
		MaxRedirects: cfg.API.MaxRedirects,
	}
	if cfg.API.MaxRedirects == 0 {
		copts.MaxRedirects = -1
	}
	nopts := newsapi.OptionsFromConfig(cfg)
	nopts.Metrics = a.metrics
	var persister state.Persister
	if a.redis != nil {
		copts.Tokens = a.redis
		persister = a.redis
		if cfg.Features.Caching {
			nopts.Cache = a.redis
		}
	}
	a.news = newsapi.New(httpclient.New(copts), nopts)

	a.store = state.New(persister, slog.Default())
	if err := a.store.Load(ctx); err != nil {
		a.Close()
		return nil, err
	}
	if s := a.store.Settings(); s.Language != cfg.App.Locale && persister == nil {
		s.Language = cfg.App.Locale
		if err := a.store.Dispatch(ctx, state.UpdateSettings{Settings: s}); err != nil {
			slog.Warn("app: seeding language from app.locale failed", "locale", cfg.App.Locale, "error", err)
		}
	}

	a.refresher = &worker.Refresher{
		News:            a.news,
		Store:           a.store,
		Location:        loc,
		SynthesizeViews: cfg.Features.SynthesizeViews,
		Metrics:         a.metrics,
		Logger:          slog.Default(),
	}
	if cfg.Refresh.Interval > 0 {
		a.refresher.Interval = cfg.Refresh.Interval
	}
	return a, nil
}

// requireStore fails for commands whose only purpose is persisted state.
func (a *app) requireStore() error {
	if a.redis == nil {
		return fmt.Errorf("redis %s is not reachable; preferences cannot be saved", a.cfg.Redis.Addr)
	}
	return nil
}

func (a *app) Close() {
	if a.rdb != nil {
		_ = a.rdb.Close()
	}
}
