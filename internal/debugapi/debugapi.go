// Package debugapi probes API endpoints and records their redirect chains,
// for diagnosing scheme-upgrade proxies and trailing-slash redirects.
package debugapi

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

const (
	userAgent       = "ProductHot-Debugger/1.0"
	defaultMaxHops  = 5
	defaultTimeout  = 10 * time.Second
	maxBodyDiscards = 1 << 20
)

// Hop is one redirect response.
type Hop struct {
	From   string `json:"from"`
	To     string `json:"to"`
	Status int    `json:"status"`
}

// Result describes one probe. Any status counts as a result; Error is set only
// when no final response was received.
type Result struct {
	Name       string        `json:"name"`
	URL        string        `json:"url"`
	Method     string        `json:"method"`
	Status     int           `json:"status"`
	StatusText string        `json:"statusText"`
	Header     http.Header   `json:"headers,omitempty"`
	Redirects  []Hop         `json:"redirects"`
	FinalURL   string        `json:"finalUrl"`
	Elapsed    time.Duration `json:"elapsed"`
	Error      string        `json:"error,omitempty"`
}

// Endpoint names a URL to probe.
type Endpoint struct {
	Name   string
	URL    string
	Method string
}

// Options controls Trace.
type Options struct {
	Method          string
	Header          http.Header
	FollowRedirects bool // follow any 3xx with a Location, up to MaxHops
	MaxHops         int
	Timeout         time.Duration
	Transport       http.RoundTripper
}

// ProjectEndpoints are the endpoints worth checking for a deployment at baseURL.
func ProjectEndpoints(baseURL string) []Endpoint {
	base := strings.TrimRight(baseURL, "/")
	return []Endpoint{
		{Name: "News API", URL: base + "/api/news/"},
		{Name: "News API (no /api prefix)", URL: base + "/news"},
		{Name: "Root", URL: base},
		{Name: "Health", URL: base + "/health"},
	}
}

// Trace requests rawURL and records every redirect it sees. Without
// FollowRedirects the first 3xx is the final response.
func Trace(ctx context.Context, rawURL string, opts Options) Result {
	method := opts.Method
	if method == "" {
		method = http.MethodGet
	}
	maxHops := opts.MaxHops
	if maxHops <= 0 {
		maxHops = defaultMaxHops
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	client := &http.Client{
		Timeout:   timeout,
		Transport: opts.Transport,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}

	start := time.Now()
	res := Result{URL: rawURL, Method: method, FinalURL: rawURL, Redirects: []Hop{}}
	current := rawURL
	for {
		resp, err := probe(ctx, client, method, current, opts.Header)
		if err != nil {
			res.Elapsed = time.Since(start)
			res.StatusText = "Network Error"
			res.Error = err.Error()
			slog.Warn("debugapi: probe failed", "url", current, "error", err)
			return res
		}
		res.Status = resp.StatusCode
		res.StatusText = http.StatusText(resp.StatusCode)
		res.Header = resp.Header
		res.FinalURL = current

		loc := resp.Header.Get("Location")
		if resp.StatusCode < 300 || resp.StatusCode >= 400 || loc == "" {
			break
		}
		next, err := resp.Request.URL.Parse(loc)
		if err != nil {
			res.Error = fmt.Sprintf("bad Location %q: %v", loc, err)
			break
		}
		if opts.FollowRedirects && len(res.Redirects) >= maxHops {
			res.Error = fmt.Sprintf("stopped after %d redirects", maxHops)
			break
		}
		res.Redirects = append(res.Redirects, Hop{From: current, To: next.String(), Status: resp.StatusCode})
		slog.Info("debugapi: redirect", "status", resp.StatusCode, "from", current, "to", next.String())
		if !opts.FollowRedirects {
			break
		}
		current = next.String()
	}
	res.Elapsed = time.Since(start)
	return res
}

func probe(ctx context.Context, client *http.Client, method, target string, header http.Header) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, target, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json, text/plain, */*")
	for k, vs := range header {
		req.Header[k] = append([]string(nil), vs...)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyDiscards))
	_ = resp.Body.Close()
	return resp, nil
}

// TraceMany probes endpoints in order.
func TraceMany(ctx context.Context, eps []Endpoint, opts Options) []Result {
	out := make([]Result, 0, len(eps))
	for _, ep := range eps {
		o := opts
		if ep.Method != "" {
			o.Method = ep.Method
		}
		r := Trace(ctx, ep.URL, o)
		r.Name = ep.Name
		if r.Name == "" {
			r.Name = ep.URL
		}
		out = append(out, r)
	}
	return out
}

// Report renders results as Markdown.
func Report(results []Result) string {
	b := &strings.Builder{}
	b.WriteString("# API Debug Report\n\n")
	for _, r := range results {
		fmt.Fprintf(b, "## %s\n", r.Name)
		fmt.Fprintf(b, "- **URL**: %s\n", r.URL)
		fmt.Fprintf(b, "- **Method**: %s\n", r.Method)
		fmt.Fprintf(b, "- **Status**: %d %s\n", r.Status, r.StatusText)
		fmt.Fprintf(b, "- **Response time**: %dms\n", r.Elapsed.Milliseconds())
		if len(r.Redirects) > 0 {
			b.WriteString("- **Redirect chain**:\n")
			for i, h := range r.Redirects {
				fmt.Fprintf(b, "  %d. %d: %s → %s\n", i+1, h.Status, h.From, h.To)
			}
		}
		if r.Error != "" {
			fmt.Fprintf(b, "- **Error**: %s\n", r.Error)
		}
		fmt.Fprintf(b, "- **Final URL**: %s\n\n", r.FinalURL)
	}
	return b.String()
}
