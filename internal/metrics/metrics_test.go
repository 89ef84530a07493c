package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Record(t *testing.T) {
	m := New()
	m.ObserveFetch(OutcomeSuccess, 20*time.Millisecond)
	m.ObserveFetch(OutcomeFallback, time.Second)
	m.IncRetry()
	m.IncRetry()
	m.AddRedirects(1)
	m.AddRedirects(0)
	m.ObserveRefresh("ok", 42)
	m.ObserveRefresh("error", 0)

	require.Equal(t, 1.0, testutil.ToFloat64(m.fetches.WithLabelValues(OutcomeSuccess)))
	require.Equal(t, 1.0, testutil.ToFloat64(m.fetches.WithLabelValues(OutcomeFallback)))
	require.Equal(t, 2.0, testutil.ToFloat64(m.retries))
	require.Equal(t, 1.0, testutil.ToFloat64(m.redirects))
	require.Equal(t, 42.0, testutil.ToFloat64(m.items))
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	m.ObserveFetch(OutcomeError, time.Second)
	m.IncRetry()
	m.AddRedirects(3)
	m.ObserveRefresh("ok", 1)
	require.NotNil(t, m.Handler())
}

func TestMetrics_Handler(t *testing.T) {
	m := New()
	m.IncRetry()

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Contains(t, string(b), "producthot_news_fetch_retries_total 1")
}
