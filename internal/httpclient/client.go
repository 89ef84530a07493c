// Package httpclient wraps net/http with a base URL, default headers, hook chains
// and an explicit redirect policy for JSON APIs.
package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	defaultTimeout      = 10 * time.Second
	defaultMaxRedirects = 3
	maxBodyInError      = 512
)

// RequestHook may mutate an outgoing request. Hooks run on every hop, redirects included.
type RequestHook func(req *http.Request) error

// ResponseHook observes a received response before status handling.
type ResponseHook func(resp *Response) error

// ErrorHook sees every error returned by Do and may replace it.
type ErrorHook func(ctx context.Context, err error) error

// TokenStore provides the bearer token attached to requests.
type TokenStore interface {
	Token(ctx context.Context) (string, error)
	ClearToken(ctx context.Context) error
}

// Request describes a call relative to the client base URL.
// Path may also be an absolute URL, in which case the base URL is ignored.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Header http.Header
	Body   any // JSON-encoded when non-nil
}

// Response is a fully read HTTP response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
	Request    *http.Request
	Redirects  int // 307 hops followed to get here
}

// JSON decodes the body into v.
func (r *Response) JSON(v any) error {
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("httpclient: decode %s: %w", r.Request.URL.Redacted(), err)
	}
	return nil
}

// Options configures New.
type Options struct {
	BaseURL      string
	Timeout      time.Duration
	UserAgent    string
	MaxRedirects int // 307 hops followed per request; negative disables following
	Tokens       TokenStore
	Logger       *slog.Logger
	Transport    http.RoundTripper
}

// Client is a JSON HTTP client with hook chains.
type Client struct {
	baseURL      string
	maxRedirects int
	http         *http.Client
	log          *slog.Logger

	requestHooks  []RequestHook
	responseHooks []ResponseHook
	errorHooks    []ErrorHook
}

// New creates a Client with the default hook chain: request tagging, bearer auth,
// response logging, and token invalidation on 401.
func New(opts Options) *Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	maxRedirects := opts.MaxRedirects
	if maxRedirects == 0 {
		maxRedirects = defaultMaxRedirects
	}
	if maxRedirects < 0 {
		maxRedirects = 0
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	c := &Client{
		baseURL:      strings.TrimRight(opts.BaseURL, "/"),
		maxRedirects: maxRedirects,
		log:          logger,
		http: &http.Client{
			Timeout:   timeout,
			Transport: opts.Transport,
			// Redirects are resolved by Do, never by net/http.
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}

	c.UseRequest(TagRequest(opts.UserAgent))
	if opts.Tokens != nil {
		c.UseRequest(BearerAuth(opts.Tokens))
		c.UseError(ClearTokenOnUnauthorized(opts.Tokens, logger))
	}
	c.UseResponse(LogResponse(logger))
	c.UseError(LogError(logger))
	return c
}

// UseRequest appends request hooks.
func (c *Client) UseRequest(h ...RequestHook) { c.requestHooks = append(c.requestHooks, h...) }

// UseResponse appends response hooks.
func (c *Client) UseResponse(h ...ResponseHook) { c.responseHooks = append(c.responseHooks, h...) }

// UseError appends error hooks.
func (c *Client) UseError(h ...ErrorHook) { c.errorHooks = append(c.errorHooks, h...) }

// Get is a shorthand for a GET Do.
func (c *Client) Get(ctx context.Context, path string, query url.Values) (*Response, error) {
	return c.Do(ctx, Request{Method: http.MethodGet, Path: path, Query: query})
}

// Do sends the request. 2xx responses are returned; 307 responses with a Location
// are re-issued against the target up to MaxRedirects times; other 3xx become
// *RedirectError, 4xx/5xx become *StatusError, transport failures *NetworkError.
func (c *Client) Do(ctx context.Context, r Request) (*Response, error) {
	resp, err := c.do(ctx, r)
	if err != nil {
		for _, h := range c.errorHooks {
			err = h(ctx, err)
		}
		return nil, err
	}
	return resp, nil
}

func (c *Client) do(ctx context.Context, r Request) (*Response, error) {
	method := r.Method
	if method == "" {
		method = http.MethodGet
	}
	target, err := c.resolve(r.Path, r.Query)
	if err != nil {
		return nil, err
	}
	var body []byte
	if r.Body != nil {
		if body, err = json.Marshal(r.Body); err != nil {
			return nil, fmt.Errorf("httpclient: encode body: %w", err)
		}
	}

	for hops := 0; ; hops++ {
		resp, err := c.roundTrip(ctx, method, target, r.Header, body)
		if err != nil {
			return nil, err
		}
		resp.Redirects = hops

		for _, h := range c.responseHooks {
			if err := h(resp); err != nil {
				return nil, err
			}
		}

		switch {
		case resp.StatusCode >= 300 && resp.StatusCode < 400:
			next, err := c.redirectTarget(method, target, resp, hops)
			if err != nil {
				return nil, err
			}
			target = next
		case resp.StatusCode >= 400:
			return nil, &StatusError{
				Method:     method,
				URL:        target.Redacted(),
				StatusCode: resp.StatusCode,
				Body:       truncate(string(resp.Body), maxBodyInError),
			}
		default:
			return resp, nil
		}
	}
}

func (c *Client) roundTrip(ctx context.Context, method string, target *url.URL, header http.Header, body []byte) (*Response, error) {
	var rd io.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, target.String(), rd)
	if err != nil {
		return nil, fmt.Errorf("httpclient: new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	for k, vs := range header {
		req.Header[k] = append([]string(nil), vs...)
	}
	for _, h := range c.requestHooks {
		if err := h(req); err != nil {
			return nil, err
		}
	}

	c.log.Debug("httpclient: request", "method", method, "url", target.Redacted())
	hresp, err := c.http.Do(req)
	if err != nil {
		return nil, &NetworkError{Method: method, URL: target.Redacted(), Err: err}
	}
	defer hresp.Body.Close()

	b, err := io.ReadAll(hresp.Body)
	if err != nil {
		return nil, &NetworkError{Method: method, URL: target.Redacted(), Err: err}
	}
	return &Response{
		StatusCode: hresp.StatusCode,
		Header:     hresp.Header,
		Body:       b,
		Request:    req,
	}, nil
}

// resolve joins path onto the base URL unless path is already absolute.
func (c *Client) resolve(path string, query url.Values) (*url.URL, error) {
	raw := path
	if !isAbsolute(path) {
		if c.baseURL == "" {
			return nil, fmt.Errorf("httpclient: relative path %q without base URL", path)
		}
		if path != "" && !strings.HasPrefix(path, "/") {
			path = "/" + path
		}
		raw = c.baseURL + path
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("httpclient: parse url: %w", err)
	}
	if len(query) > 0 {
		q := u.Query()
		for k, vs := range query {
			for _, v := range vs {
				q.Add(k, v)
			}
		}
		u.RawQuery = q.Encode()
	}
	return u, nil
}

func isAbsolute(path string) bool {
	u, err := url.Parse(path)
	return err == nil && u.IsAbs() && u.Host != ""
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// IsStatus reports whether err carries the given HTTP status.
func IsStatus(err error, status int) bool {
	var se *StatusError
	if errors.As(err, &se) {
		return se.StatusCode == status
	}
	var re *RedirectError
	if errors.As(err, &re) {
		return re.StatusCode == status
	}
	return false
}
