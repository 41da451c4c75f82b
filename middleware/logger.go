// Package middleware provides stock onion middleware for compose chains:
// structured logging, panic recovery, and identity enforcement. All of it
// works uniformly across queries, mutations, and actions.
package middleware

import (
	"log/slog"
	"time"

	"github.com/bjaus/compose"
)

// Logger returns middleware that logs one line per invocation on the way
// out, with the function name (when a host recorded one), kind, duration,
// and error. Logging is a side effect only; the result and error pass
// through untouched.
//
//	q := compose.Query().Use(middleware.Logger(slog.Default()))
func Logger(log *slog.Logger) compose.Middleware {
	if log == nil {
		log = slog.Default()
	}
	return func(ctx *compose.Ctx, next compose.Next) (any, error) {
		start := time.Now()
		out, err := next(ctx)

		attrs := []any{
			slog.String("kind", string(ctx.Kind())),
			slog.Duration("duration", time.Since(start)),
		}
		if name, ok := compose.FunctionName().Get(ctx); ok {
			attrs = append(attrs, slog.String("function", name))
		}
		if err != nil {
			attrs = append(attrs, slog.Any("error", err))
			log.ErrorContext(ctx.Context(), "function failed", attrs...)
		} else {
			log.InfoContext(ctx.Context(), "function completed", attrs...)
		}
		return out, err
	}
}
