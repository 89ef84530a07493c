// Package newsapi fetches the news payload and applies the fallback policy.
package newsapi

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"producthot/internal/config"
	"producthot/internal/httpclient"
	"producthot/internal/metrics"
	"producthot/internal/model"
	"producthot/internal/retry"
)

// Supported languages.
const (
	LangZH          = "zh"
	LangEN          = "en"
	DefaultLanguage = LangZH
)

// Result messages.
const (
	MessageSuccess = "success"
	MessageCached  = "success (cached)"
	MessageMock    = "mock data"
)

const defaultPath = "/api/news"

// ErrInvalidLanguage is returned for a lang other than zh or en.
var ErrInvalidLanguage = errors.New("newsapi: unsupported language")

//go:embed mock_news.json
var mockJSON []byte

// Doer performs GET requests. *httpclient.Client implements it.
type Doer interface {
	Get(ctx context.Context, path string, query url.Values) (*httpclient.Response, error)
}

// Cache stores decoded responses per language.
type Cache interface {
	CachedNews(ctx context.Context, lang string) (model.NewsResponse, bool, error)
	CacheNews(ctx context.Context, lang string, resp model.NewsResponse, ttl time.Duration) error
}

// Result is the client-side envelope around a NewsResponse.
type Result struct {
	Success bool               `json:"success"`
	Data    model.NewsResponse `json:"data"`
	Message string             `json:"message"`
}

// Options configures a Service.
type Options struct {
	Path       string // default /api/news
	Retry      retry.Options
	Production bool // propagate errors instead of serving mock data
	MockData   bool // never touch the network
	Cache      Cache
	CacheTTL   time.Duration
	Metrics    *metrics.Metrics
	Logger     *slog.Logger
}

// OptionsFromConfig maps configuration onto Options. Cache and Metrics are left to the caller.
func OptionsFromConfig(cfg config.Config) Options {
	return Options{
		Path: cfg.API.NewsPath,
		Retry: retry.Options{
			Attempts: cfg.API.RetryAttempts,
			Delay:    cfg.API.RetryDelay,
		},
		Production: cfg.IsProduction(),
		MockData:   cfg.Features.MockData,
		CacheTTL:   cfg.Features.CacheTTL,
	}
}

// Service fetches news through a Doer.
type Service struct {
	doer Doer
	opts Options
	log  *slog.Logger
}

func New(doer Doer, opts Options) *Service {
	if opts.Path == "" {
		opts.Path = defaultPath
	}
	l := opts.Logger
	if l == nil {
		l = slog.Default()
	}
	return &Service{doer: doer, opts: opts, log: l}
}

// NormalizeLanguage lower-cases lang and defaults it to zh.
func NormalizeLanguage(lang string) (string, error) {
	l := strings.ToLower(strings.TrimSpace(lang))
	switch l {
	case "":
		return DefaultLanguage, nil
	case LangZH, LangEN:
		return l, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidLanguage, lang)
	}
}

// GetNews returns the news for lang, served from the cache when one is configured and fresh.
func (s *Service) GetNews(ctx context.Context, lang string) (Result, error) {
	return s.get(ctx, lang, true)
}

// Refresh is GetNews without the cache read. A successful fetch still updates the cache.
func (s *Service) Refresh(ctx context.Context, lang string) (Result, error) {
	return s.get(ctx, lang, false)
}

func (s *Service) get(ctx context.Context, lang string, useCache bool) (Result, error) {
	lang, err := NormalizeLanguage(lang)
	if err != nil {
		return Result{}, err
	}
	start := time.Now()

	if s.opts.MockData {
		s.opts.Metrics.ObserveFetch(metrics.OutcomeMock, time.Since(start))
		return Result{Success: true, Data: Mock(), Message: MessageMock}, nil
	}

	if useCache && s.opts.Cache != nil {
		data, ok, err := s.opts.Cache.CachedNews(ctx, lang)
		switch {
		case err != nil:
			s.log.Warn("newsapi: cache read failed", "lang", lang, "error", err)
		case ok:
			s.log.Debug("newsapi: cache hit", "lang", lang)
			s.opts.Metrics.ObserveFetch(metrics.OutcomeCache, time.Since(start))
			return Result{Success: true, Data: data, Message: MessageCached}, nil
		}
	}

	data, err := s.fetch(ctx, lang)
	if err != nil {
		// A cancelled caller gets its error back in every environment.
		if s.opts.Production || ctx.Err() != nil {
			s.opts.Metrics.ObserveFetch(metrics.OutcomeError, time.Since(start))
			return Result{}, fmt.Errorf("newsapi: get news: %w", err)
		}
		s.log.Warn("newsapi: fetch failed, serving mock data", "lang", lang, "error", err)
		s.opts.Metrics.ObserveFetch(metrics.OutcomeFallback, time.Since(start))
		return Result{Success: true, Data: Mock(), Message: MessageMock}, nil
	}

	if s.opts.Cache != nil && s.opts.CacheTTL > 0 {
		if err := s.opts.Cache.CacheNews(ctx, lang, data, s.opts.CacheTTL); err != nil {
			s.log.Warn("newsapi: cache write failed", "lang", lang, "error", err)
		}
	}
	s.opts.Metrics.ObserveFetch(metrics.OutcomeSuccess, time.Since(start))
	s.log.Info("newsapi: fetched news", "lang", lang, "posts", data.PostCount(), "elapsed", time.Since(start))
	return Result{Success: true, Data: data, Message: MessageSuccess}, nil
}

func (s *Service) fetch(ctx context.Context, lang string) (model.NewsResponse, error) {
	ropts := s.opts.Retry
	onRetry := ropts.OnRetry
	ropts.OnRetry = func(attempt int, wait time.Duration, err error) {
		s.opts.Metrics.IncRetry()
		s.log.Warn("newsapi: retrying", "attempt", attempt, "wait", wait, "error", err)
		if onRetry != nil {
			onRetry(attempt, wait, err)
		}
	}

	return retry.Do(ctx, func(ctx context.Context) (model.NewsResponse, error) {
		resp, err := s.doer.Get(ctx, s.opts.Path, url.Values{"lang": {lang}})
		if err != nil {
			return model.NewsResponse{}, err
		}
		s.opts.Metrics.AddRedirects(resp.Redirects)
		var data model.NewsResponse
		if err := resp.JSON(&data); err != nil {
			return model.NewsResponse{}, err
		}
		data.EnsureCategories()
		return data, nil
	}, ropts)
}

// Mock returns a fresh copy of the embedded dataset.
func Mock() model.NewsResponse {
	var r model.NewsResponse
	if err := json.Unmarshal(mockJSON, &r); err != nil {
		panic(fmt.Sprintf("newsapi: embedded mock data: %v", err))
	}
	r.EnsureCategories()
	return r
}
