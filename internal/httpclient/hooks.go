package httpclient

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// Headers set by TagRequest.
const (
	HeaderRequestTime = "X-Request-Time"
	HeaderRequestID   = "X-Request-ID"
)

// TagRequest stamps each request with the send time (unix millis), a fresh request id
// and the user agent.
func TagRequest(userAgent string) RequestHook {
	return func(req *http.Request) error {
		req.Header.Set(HeaderRequestTime, strconv.FormatInt(time.Now().UnixMilli(), 10))
		req.Header.Set(HeaderRequestID, uuid.NewString())
		if userAgent != "" {
			req.Header.Set("User-Agent", userAgent)
		}
		return nil
	}
}

// BearerAuth attaches the stored token, if any. A failing store does not block the request.
func BearerAuth(tokens TokenStore) RequestHook {
	return func(req *http.Request) error {
		tok, err := tokens.Token(req.Context())
		if err != nil {
			slog.Warn("httpclient: token lookup failed", "error", err)
			return nil
		}
		if tok != "" {
			req.Header.Set("Authorization", "Bearer "+tok)
		}
		return nil
	}
}

// LogResponse logs the status of every response and, at debug level, its body.
func LogResponse(l *slog.Logger) ResponseHook {
	return func(resp *Response) error {
		l.Info("httpclient: response",
			"status", resp.StatusCode,
			"url", resp.Request.URL.Redacted(),
			"bytes", len(resp.Body),
		)
		l.Debug("httpclient: response body", "body", truncate(string(resp.Body), 2048))
		return nil
	}
}

// ClearTokenOnUnauthorized invalidates stored credentials when the server answers 401.
func ClearTokenOnUnauthorized(tokens TokenStore, l *slog.Logger) ErrorHook {
	return func(ctx context.Context, err error) error {
		if IsStatus(err, http.StatusUnauthorized) {
			if cerr := tokens.ClearToken(ctx); cerr != nil {
				l.Warn("httpclient: clear token failed", "error", cerr)
			} else {
				l.Info("httpclient: cleared stored token after 401")
			}
		}
		return err
	}
}

// LogError logs failed calls.
func LogError(l *slog.Logger) ErrorHook {
	return func(_ context.Context, err error) error {
		var ne *NetworkError
		if errors.As(err, &ne) {
			l.Warn("httpclient: network error, check the connection", "url", ne.URL, "error", ne.Err)
			return err
		}
		l.Warn("httpclient: request failed", "error", err)
		return err
	}
}
