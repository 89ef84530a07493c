package newsapi

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"producthot/internal/httpclient"
	"producthot/internal/metrics"
	"producthot/internal/model"
	"producthot/internal/retry"

	"github.com/stretchr/testify/require"
)

const sampleBody = `{
  "new_products": [{"title":"PH","logo":null,"update_time":"2024-01-01T00:00:00Z",
    "posts":[{"title":"A","url":"https://a","description":"da","upvotes":5}]}],
  "reddits": [],
  "trendings": [{"title":"GH","logo":null,"update_time":"2024-01-02T00:00:00Z",
    "posts":[{"title":"B","url":"https://b","description":null,"upvotes":9}]}]
}`

func quiet() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func newService(t *testing.T, base string, opts Options) *Service {
	t.Helper()
	c := httpclient.New(httpclient.Options{BaseURL: base, Logger: quiet()})
	opts.Logger = quiet()
	if opts.Retry.Delay == 0 {
		opts.Retry.Delay = time.Millisecond
	}
	return New(c, opts)
}

type memCache struct {
	mu   sync.Mutex
	data map[string]model.NewsResponse
	ttl  time.Duration
}

func (m *memCache) CachedNews(_ context.Context, lang string) (model.NewsResponse, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.data[lang]
	return r, ok, nil
}

func (m *memCache) CacheNews(_ context.Context, lang string, resp model.NewsResponse, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.data == nil {
		m.data = map[string]model.NewsResponse{}
	}
	m.data[lang] = resp
	m.ttl = ttl
	return nil
}

func TestGetNews_Success(t *testing.T) {
	var lang string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/news", r.URL.Path)
		lang = r.URL.Query().Get("lang")
		_, _ = w.Write([]byte(sampleBody))
	}))
	defer srv.Close()

	res, err := newService(t, srv.URL, Options{Production: true}).GetNews(context.Background(), "")
	require.NoError(t, err)
	require.True(t, res.Success)
	require.Equal(t, MessageSuccess, res.Message)
	require.Equal(t, "zh", lang)
	require.Len(t, res.Data.NewProducts, 1)
	require.NotNil(t, res.Data.Reddits)
	require.Empty(t, res.Data.Reddits)
	require.Equal(t, 2, res.Data.PostCount())
}

func TestGetNews_Follows307(t *testing.T) {
	var calls int32
	target := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		require.Equal(t, "/api/news", r.URL.Path)
		_, _ = w.Write([]byte(sampleBody))
	}))
	defer target.Close()

	origin := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.Header().Set("Location", target.URL+"/api/news?lang=en")
		w.WriteHeader(http.StatusTemporaryRedirect)
	}))
	defer origin.Close()

	m := metrics.New()
	res, err := newService(t, origin.URL, Options{Production: true, Metrics: m}).GetNews(context.Background(), "en")
	require.NoError(t, err)
	require.True(t, res.Success)
	require.Equal(t, 2, res.Data.PostCount())
	require.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestGetNews_ClientErrorNotRetried(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := newService(t, srv.URL, Options{Production: true, Retry: retry.Options{Attempts: 3}}).GetNews(context.Background(), "zh")
	require.Error(t, err)
	require.True(t, httpclient.IsStatus(err, http.StatusNotFound))
	require.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestGetNews_ServerErrorRetriedThenPropagated(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := newService(t, srv.URL, Options{Production: true, Retry: retry.Options{Attempts: 3}}).GetNews(context.Background(), "zh")
	var se *httpclient.StatusError
	require.ErrorAs(t, err, &se)
	require.Equal(t, http.StatusServiceUnavailable, se.StatusCode)
	require.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestGetNews_DevelopmentFallsBackToMock(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	res, err := newService(t, srv.URL, Options{Retry: retry.Options{Attempts: 2}}).GetNews(context.Background(), "zh")
	require.NoError(t, err)
	require.True(t, res.Success)
	require.Equal(t, MessageMock, res.Message)
	require.Equal(t, Mock().PostCount(), res.Data.PostCount())
}

func TestGetNews_MalformedPayload(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		_, _ = w.Write([]byte(`{"new_products": "nope"`))
	}))
	defer srv.Close()

	_, err := newService(t, srv.URL, Options{Production: true}).GetNews(context.Background(), "zh")
	require.Error(t, err)
	require.Equal(t, int32(1), atomic.LoadInt32(&calls))

	res, err := newService(t, srv.URL, Options{}).GetNews(context.Background(), "zh")
	require.NoError(t, err)
	require.Equal(t, MessageMock, res.Message)
}

func TestGetNews_MissingCategoriesDefaultToEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"reddits": null}`))
	}))
	defer srv.Close()

	res, err := newService(t, srv.URL, Options{Production: true}).GetNews(context.Background(), "zh")
	require.NoError(t, err)
	require.NotNil(t, res.Data.NewProducts)
	require.NotNil(t, res.Data.Reddits)
	require.NotNil(t, res.Data.Trendings)
	require.Zero(t, res.Data.PostCount())
}

func TestGetNews_MockDataSkipsNetwork(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	}))
	defer srv.Close()

	res, err := newService(t, srv.URL, Options{MockData: true, Production: true}).GetNews(context.Background(), "en")
	require.NoError(t, err)
	require.Equal(t, MessageMock, res.Message)
	require.Equal(t, 19, res.Data.PostCount())
	require.Zero(t, atomic.LoadInt32(&calls))
}

func TestGetNews_InvalidLanguage(t *testing.T) {
	_, err := newService(t, "http://unused.invalid", Options{}).GetNews(context.Background(), "fr")
	require.ErrorIs(t, err, ErrInvalidLanguage)
}

func TestGetNews_CacheHitAndRefreshBypass(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		_, _ = w.Write([]byte(sampleBody))
	}))
	defer srv.Close()

	cache := &memCache{}
	svc := newService(t, srv.URL, Options{Production: true, Cache: cache, CacheTTL: time.Minute})

	res, err := svc.GetNews(context.Background(), "zh")
	require.NoError(t, err)
	require.Equal(t, MessageSuccess, res.Message)
	require.Equal(t, time.Minute, cache.ttl)

	res, err = svc.GetNews(context.Background(), "zh")
	require.NoError(t, err)
	require.Equal(t, MessageCached, res.Message)
	require.Equal(t, 2, res.Data.PostCount())
	require.Equal(t, int32(1), atomic.LoadInt32(&calls))

	_, err = svc.Refresh(context.Background(), "zh")
	require.NoError(t, err)
	require.Equal(t, int32(2), atomic.LoadInt32(&calls))

	_, err = svc.GetNews(context.Background(), "en")
	require.NoError(t, err)
	require.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestGetNews_CancelledContextIsNotMasked(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := newService(t, srv.URL, Options{}).GetNews(ctx, "zh")
	require.Error(t, err)
	require.True(t, errors.Is(err, context.Canceled))
}

func TestMock_IsFreshCopy(t *testing.T) {
	a := Mock()
	a.NewProducts[0].Title = "changed"
	b := Mock()
	require.Equal(t, "Product Hunt", b.NewProducts[0].Title)
	require.Len(t, b.NewProducts, 3)
	require.Len(t, b.Reddits, 3)
	require.Len(t, b.Trendings, 3)
}
