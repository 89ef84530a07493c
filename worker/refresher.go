package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"producthot/internal/channels"
	"producthot/internal/metrics"
	"producthot/internal/newsapi"
	"producthot/internal/normalize"
	"producthot/internal/state"
)

// NewsSource is the part of newsapi.Service the refresher needs.
type NewsSource interface {
	GetNews(ctx context.Context, lang string) (newsapi.Result, error)
	Refresh(ctx context.Context, lang string) (newsapi.Result, error)
}

// Refresher runs fetch -> normalize -> partition -> store, once or on a ticker.
type Refresher struct {
	News            NewsSource
	Store           *state.Store
	Location        *time.Location
	SynthesizeViews bool
	// Interval overrides the interval from the stored settings.
	Interval time.Duration
	Metrics  *metrics.Metrics
	Logger   *slog.Logger
}

func (r *Refresher) log() *slog.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return slog.Default()
}

// Refresh fetches news in the stored language and replaces the store contents.
// force skips the response cache. A refresh overtaken by a newer one returns
// state.ErrStaleGeneration and leaves the store untouched.
func (r *Refresher) Refresh(ctx context.Context, force bool) error {
	lang := r.Store.Settings().Language
	gen := r.Store.BeginFetch()

	fetch := r.News.GetNews
	if force {
		fetch = r.News.Refresh
	}
	res, err := fetch(ctx, lang)
	if err != nil {
		if ferr := r.Store.FailFetch(gen, err); errors.Is(ferr, state.ErrStaleGeneration) {
			r.Metrics.ObserveRefresh("stale", 0)
			return ferr
		}
		r.Metrics.ObserveRefresh("error", 0)
		return fmt.Errorf("refresher: %w", err)
	}

	items := normalize.Transform(res.Data, normalize.Options{
		Locale:          lang,
		Location:        r.Location,
		SynthesizeViews: r.SynthesizeViews,
		Logger:          r.log(),
	})
	chs := channels.Partition(items, res.Data, channels.Options{Locale: lang, Location: r.Location})

	if err := r.Store.CompleteFetch(gen, items, chs); err != nil {
		r.log().Info("refresher: dropping superseded result", "generation", gen)
		r.Metrics.ObserveRefresh("stale", 0)
		return err
	}
	r.Metrics.ObserveRefresh("ok", len(items))
	r.log().Info("refresher: news updated", "items", len(items), "message", res.Message, "generation", gen)
	return nil
}

// Period is the tick interval: Interval when set, else the stored
// refresh_interval setting.
func (r *Refresher) Period() time.Duration {
	if r.Interval > 0 {
		return r.Interval
	}
	if d := r.Store.Settings().RefreshInterval; d > 0 {
		return d
	}
	return 5 * time.Minute
}

// Start refreshes immediately, then on every tick until ctx is done.
// Failures are logged and do not stop the loop.
func (r *Refresher) Start(ctx context.Context) error {
	r.runOnce(ctx)

	t := time.NewTicker(r.Period())
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
			r.runOnce(ctx)
		}
	}
}

func (r *Refresher) runOnce(ctx context.Context) {
	if err := r.Refresh(ctx, true); err != nil && ctx.Err() == nil {
		r.log().Error("refresher: refresh failed", "error", err)
	}
}
