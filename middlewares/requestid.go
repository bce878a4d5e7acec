package middlewares

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/dmitrymomot/relay/internal"
	"github.com/dmitrymomot/relay/pkg/logger"
)

type requestIDKey struct{}

// maxRequestIDLength bounds IDs accepted from upstream.
const maxRequestIDLength = 128

type requestID struct {
	generate func() string
	echo     string
	trusted  []string
}

// RequestIDOption configures RequestID.
type RequestIDOption func(*requestID)

// WithRequestIDHeaders replaces the request headers an upstream ID is read
// from. The first non-empty one wins. No headers means IDs are always
// generated.
func WithRequestIDHeaders(headers ...string) RequestIDOption {
	return func(r *requestID) {
		r.trusted = headers
	}
}

// WithRequestIDGenerator replaces uuid.NewString.
func WithRequestIDGenerator(gen func() string) RequestIDOption {
	return func(r *requestID) {
		if gen != nil {
			r.generate = gen
		}
	}
}

// WithRequestIDResponseHeader sets the header the ID is echoed in; empty
// disables the echo.
func WithRequestIDResponseHeader(header string) RequestIDOption {
	return func(r *requestID) {
		r.echo = header
	}
}

// RequestID tags every request with an ID. An ID from X-Request-ID or
// X-Correlation-ID is reused when it looks sane; otherwise a UUID is
// generated. The ID is echoed in X-Request-ID and stamped on any HTTPError
// the rest of the chain returns.
func RequestID(opts ...RequestIDOption) internal.Middleware {
	r := &requestID{
		generate: uuid.NewString,
		echo:     "X-Request-ID",
		trusted:  []string{"X-Request-ID", "X-Correlation-ID"},
	}
	for _, opt := range opts {
		opt(r)
	}

	return func(next internal.HandlerFunc) internal.HandlerFunc {
		return func(c internal.Context) error {
			id := r.upstream(c)
			if id == "" {
				id = r.generate()
			}

			c.Set(requestIDKey{}, id)
			if r.echo != "" {
				c.SetHeader(r.echo, id)
			}

			err := next(c)
			if he := internal.AsHTTPError(err); he != nil && he.RequestID == "" {
				he.RequestID = id
			}
			return err
		}
	}
}

func (r *requestID) upstream(c internal.Context) string {
	for _, h := range r.trusted {
		v := c.Header(h)
		if v == "" {
			continue
		}
		if len(v) > maxRequestIDLength || !printable(v) {
			return ""
		}
		return v
	}
	return ""
}

func printable(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < 0x21 || s[i] > 0x7e {
			return false
		}
	}
	return true
}

// GetRequestID returns the ID RequestID assigned, or "".
func GetRequestID(c internal.Context) string {
	return internal.ContextValue[string](c, requestIDKey{})
}

// RequestIDExtractor adds "request_id" to log entries written with the
// request context.
func RequestIDExtractor() logger.ContextExtractor {
	return func(ctx context.Context) (slog.Attr, bool) {
		id, _ := ctx.Value(requestIDKey{}).(string)
		if id == "" {
			return slog.Attr{}, false
		}
		return slog.String("request_id", id), true
	}
}
