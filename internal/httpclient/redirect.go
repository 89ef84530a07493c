package httpclient

import (
	"net/http"
	"net/url"
	"strings"
)

// redirectTarget decides what to do with a 3xx response. Only 307 with a Location
// is followed, and only while the hop budget lasts. Everything else is surfaced as
// a *RedirectError so the caller can see where the upstream wanted to send it.
func (c *Client) redirectTarget(method string, current *url.URL, resp *Response, hops int) (*url.URL, error) {
	loc := strings.TrimSpace(resp.Header.Get("Location"))
	rerr := &RedirectError{
		Method:     method,
		URL:        current.Redacted(),
		StatusCode: resp.StatusCode,
		Location:   loc,
	}
	if resp.StatusCode != http.StatusTemporaryRedirect || loc == "" {
		return nil, rerr
	}
	if hops >= c.maxRedirects {
		rerr.Err = ErrTooManyRedirects
		return nil, rerr
	}
	next, err := current.Parse(loc)
	if err != nil {
		rerr.Err = err
		return nil, rerr
	}
	c.log.Info("httpclient: following redirect",
		"status", resp.StatusCode,
		"from", current.Redacted(),
		"to", next.Redacted(),
		"hop", hops+1,
	)
	return next, nil
}
