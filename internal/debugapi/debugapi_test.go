package debugapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func redirectingServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/news", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/api/news/", http.StatusTemporaryRedirect)
	})
	mux.HandleFunc("/api/news/", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, userAgent, r.Header.Get("User-Agent"))
		_, _ = w.Write([]byte(`{"new_products":[]}`))
	})
	mux.HandleFunc("/loop", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/loop", http.StatusFound)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestTrace_RecordsRedirectWithoutFollowing(t *testing.T) {
	srv := redirectingServer(t)
	r := Trace(context.Background(), srv.URL+"/api/news", Options{})

	require.Equal(t, http.StatusTemporaryRedirect, r.Status)
	require.Len(t, r.Redirects, 1)
	require.Equal(t, srv.URL+"/api/news", r.Redirects[0].From)
	require.Equal(t, srv.URL+"/api/news/", r.Redirects[0].To)
	require.Equal(t, srv.URL+"/api/news", r.FinalURL)
	require.Empty(t, r.Error)
}

func TestTrace_FollowRedirects(t *testing.T) {
	srv := redirectingServer(t)
	r := Trace(context.Background(), srv.URL+"/api/news", Options{FollowRedirects: true})

	require.Equal(t, http.StatusOK, r.Status)
	require.Equal(t, "OK", r.StatusText)
	require.Len(t, r.Redirects, 1)
	require.Equal(t, srv.URL+"/api/news/", r.FinalURL)
}

func TestTrace_LoopIsBounded(t *testing.T) {
	srv := redirectingServer(t)
	r := Trace(context.Background(), srv.URL+"/loop", Options{FollowRedirects: true, MaxHops: 2})

	require.Equal(t, http.StatusFound, r.Status)
	require.Len(t, r.Redirects, 2)
	require.Contains(t, r.Error, "stopped after 2 redirects")
	require.Equal(t, r.Redirects[1].To, r.FinalURL)
}

func TestTrace_NetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	r := Trace(context.Background(), url, Options{})
	require.Zero(t, r.Status)
	require.Equal(t, "Network Error", r.StatusText)
	require.NotEmpty(t, r.Error)
}

func TestTraceManyAndReport(t *testing.T) {
	srv := redirectingServer(t)
	results := TraceMany(context.Background(), ProjectEndpoints(srv.URL+"/"), Options{})
	require.Len(t, results, 4)
	require.Equal(t, "News API", results[0].Name)
	require.Equal(t, http.StatusOK, results[0].Status)
	require.Equal(t, http.StatusNotFound, results[3].Status)

	results = append(results, Trace(context.Background(), srv.URL+"/api/news", Options{}))
	results[4].Name = "Redirecting"
	report := Report(results)
	require.True(t, strings.HasPrefix(report, "# API Debug Report"))
	require.Contains(t, report, "## Health")
	require.Contains(t, report, "- **Status**: 404 Not Found")
	require.Contains(t, report, "  1. 307: "+srv.URL+"/api/news → "+srv.URL+"/api/news/")
}

func TestProjectEndpoints(t *testing.T) {
	eps := ProjectEndpoints("https://api.producthot.top/")
	require.Equal(t, "https://api.producthot.top/api/news/", eps[0].URL)
	require.Equal(t, "https://api.producthot.top/news", eps[1].URL)
	require.Equal(t, "https://api.producthot.top", eps[2].URL)
	require.Equal(t, "https://api.producthot.top/health", eps[3].URL)
}
