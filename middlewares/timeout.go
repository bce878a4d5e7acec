package middlewares

import (
	"context"
	"errors"
	"time"

	"github.com/dmitrymomot/relay/internal"
)

// DefaultTimeout is the default request timeout.
const DefaultTimeout = 30 * time.Second

// Timeout returns middleware that puts a deadline on the request context.
//
// Handlers run on the request goroutine and are expected to honor
// c.Done() in blocking calls. When the deadline passes and nothing has been
// written yet, the request fails with a *TimeoutError; a response that was
// already started is left alone.
func Timeout(timeout time.Duration) internal.Middleware {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return func(next internal.HandlerFunc) internal.HandlerFunc {
		return func(c internal.Context) error {
			parent := c.Context()
			ctx, cancel := context.WithTimeout(parent, timeout)
			defer cancel()

			c.SetContext(ctx)
			err := next(c)
			c.SetContext(parent)

			if !errors.Is(ctx.Err(), context.DeadlineExceeded) || c.Written() {
				return err
			}
			if err != nil && !errors.Is(err, context.DeadlineExceeded) && !internal.IsHalt(err) {
				return err
			}

			c.LogWarn("request timeout", "timeout", timeout.String(), "route", c.Route())
			return &TimeoutError{Duration: timeout, Route: c.Route()}
		}
	}
}
