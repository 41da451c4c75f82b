package host

import (
	"context"
	"time"

	"github.com/bjaus/compose"
)

// OnInvokeFunc is called before a function runs. Use it to enrich the
// context with logging fields or trace spans; the returned context is used
// for the rest of the invocation.
type OnInvokeFunc func(ctx context.Context, kind compose.Kind, name string) context.Context

// OnSuccessFunc is called after a function completes successfully.
type OnSuccessFunc func(ctx context.Context, kind compose.Kind, name string, duration time.Duration)

// OnFailureFunc is called after a function fails.
type OnFailureFunc func(ctx context.Context, kind compose.Kind, name string, err error, duration time.Duration)

// hooks holds all configured hook functions.
type hooks struct {
	onInvoke  []OnInvokeFunc
	onSuccess []OnSuccessFunc
	onFailure []OnFailureFunc
}

// WithOnInvoke adds a hook called before every invocation. Multiple hooks
// run in order, with context chaining through each.
//
// Example:
//
//	host.WithOnInvoke(func(ctx context.Context, kind compose.Kind, name string) context.Context {
//	    return trace.Start(ctx, string(kind)+"/"+name)
//	})
func WithOnInvoke(fn OnInvokeFunc) Option {
	return func(r *Registry) {
		r.hooks.onInvoke = append(r.hooks.onInvoke, fn)
	}
}

// WithOnSuccess adds a hook called after a function succeeds. Multiple
// hooks run in order.
//
// Example:
//
//	host.WithOnSuccess(func(ctx context.Context, kind compose.Kind, name string, d time.Duration) {
//	    metrics.Timing("invoke.success", d, "function:"+name)
//	})
func WithOnSuccess(fn OnSuccessFunc) Option {
	return func(r *Registry) {
		r.hooks.onSuccess = append(r.hooks.onSuccess, fn)
	}
}

// WithOnFailure adds a hook called after a function fails. Multiple hooks
// run in order.
//
// Example:
//
//	host.WithOnFailure(func(ctx context.Context, kind compose.Kind, name string, err error, d time.Duration) {
//	    metrics.Incr("invoke.failure", "function:"+name)
//	})
func WithOnFailure(fn OnFailureFunc) Option {
	return func(r *Registry) {
		r.hooks.onFailure = append(r.hooks.onFailure, fn)
	}
}
