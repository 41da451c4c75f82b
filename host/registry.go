// Package host is an in-process host runtime for compose functions.
//
// The Registry implements the registration side of the compose boundary:
// it accepts Registered functions, builds the kind-appropriate invocation
// context (queries get read access, mutations read/write, actions get a
// scheduler and the ability to run other registered functions), and
// dispatches invocations by name. Public functions are additionally
// reachable over HTTP via Handler.
//
// Usage:
//  1. Create a registry with New, passing capabilities as options
//  2. Register functions with Register
//  3. Invoke by name with Invoke, or serve Handler
//
// Registry is safe for concurrent use after configuration is complete. Do
// not call Register after calling Invoke or serving the handler.
package host

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/bjaus/compose"
)

// Store combines the read and write capabilities a backing store supplies.
type Store interface {
	compose.Reader
	compose.Writer
}

// Registry holds registered functions and the capabilities handed to their
// invocation contexts.
type Registry struct {
	logger    *slog.Logger
	auth      compose.Identity
	store     Store
	scheduler compose.Scheduler
	hooks     hooks
	functions map[string]compose.Registration
}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the structured logger. Defaults to slog.Default.
func WithLogger(log *slog.Logger) Option {
	return func(r *Registry) { r.logger = log }
}

// WithIdentity supplies the identity capability handed to every context.
func WithIdentity(auth compose.Identity) Option {
	return func(r *Registry) { r.auth = auth }
}

// WithStore supplies the backing store. Queries see its read side,
// mutations both sides.
func WithStore(s Store) Option {
	return func(r *Registry) { r.store = s }
}

// WithScheduler supplies the scheduling capability handed to actions.
func WithScheduler(s compose.Scheduler) Option {
	return func(r *Registry) { r.scheduler = s }
}

// New creates a Registry with the given options.
//
// Example:
//
//	reg := host.New(
//	    host.WithStore(host.NewMemStore()),
//	    host.WithIdentity(sessionAuth),
//	    host.WithOnFailure(func(ctx context.Context, kind compose.Kind, name string, err error, d time.Duration) {
//	        metrics.Incr("invoke.failure", "function:"+name)
//	    }),
//	)
func New(opts ...Option) *Registry {
	r := &Registry{
		logger:    slog.Default(),
		functions: make(map[string]compose.Registration),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register adds a function under a name. Names share one namespace across
// kinds; registering the same name twice is an error.
func (r *Registry) Register(name string, fn *compose.Registered) error {
	if name == "" {
		return fmt.Errorf("empty function name")
	}
	if fn == nil {
		return fmt.Errorf("nil function")
	}
	if _, exists := r.functions[name]; exists {
		return fmt.Errorf("function %q already registered", name)
	}
	r.functions[name] = fn.Registration()
	return nil
}

// Lookup returns the registration bundle for a name.
func (r *Registry) Lookup(name string) (compose.Registration, bool) {
	reg, ok := r.functions[name]
	return reg, ok
}

// Invoke runs a registered function by name. The registry builds the
// invocation context for the function's kind, runs the composed pipeline,
// and reports the outcome to hooks and the logger.
func (r *Registry) Invoke(ctx context.Context, name string, args json.RawMessage) (json.RawMessage, error) {
	reg, ok := r.functions[name]
	if !ok {
		return nil, fmt.Errorf("no function registered under %q", name)
	}

	for _, fn := range r.hooks.onInvoke {
		ctx = fn(ctx, reg.Kind, name)
	}

	cctx := compose.FunctionName().With(r.buildCtx(ctx, reg.Kind), name)

	start := time.Now()
	out, err := reg.Invoke(cctx, args)
	duration := time.Since(start)

	if err != nil {
		for _, fn := range r.hooks.onFailure {
			fn(ctx, reg.Kind, name, err, duration)
		}
		r.logger.ErrorContext(ctx, "invoke failed",
			slog.String("function", name),
			slog.String("kind", string(reg.Kind)),
			slog.Duration("duration", duration),
			slog.Any("error", err),
		)
		return nil, err
	}

	for _, fn := range r.hooks.onSuccess {
		fn(ctx, reg.Kind, name, duration)
	}
	r.logger.DebugContext(ctx, "invoke succeeded",
		slog.String("function", name),
		slog.String("kind", string(reg.Kind)),
		slog.Duration("duration", duration),
	)
	return out, nil
}

// buildCtx assembles the capability set a function kind is entitled to.
func (r *Registry) buildCtx(ctx context.Context, kind compose.Kind) *compose.Ctx {
	caps := compose.Capabilities{Auth: r.auth}
	switch kind {
	case compose.KindQuery:
		if r.store != nil {
			caps.Reader = r.store
		}
	case compose.KindMutation:
		if r.store != nil {
			caps.Reader = r.store
			caps.Writer = r.store
		}
	case compose.KindAction:
		caps.Scheduler = r.scheduler
		caps.Runner = &registryRunner{registry: r}
	}
	return compose.NewCtx(ctx, kind, caps)
}

// registryRunner lets actions invoke other registered functions, internal
// ones included, without going through the outer surface.
type registryRunner struct {
	registry *Registry
}

func (rr *registryRunner) Run(ctx context.Context, name string, args []byte) ([]byte, error) {
	return rr.registry.Invoke(ctx, name, args)
}

// Call names one function invocation in a batch.
type Call struct {
	Name string
	Args json.RawMessage
}

// InvokeAll runs several invocations concurrently and returns their results
// in call order. The first error cancels the remaining calls' contexts.
// Definitions are immutable and every invocation gets a fresh context, so
// the calls need no coordination beyond the group itself.
func (r *Registry) InvokeAll(ctx context.Context, calls []Call) ([]json.RawMessage, error) {
	results := make([]json.RawMessage, len(calls))
	g, gctx := errgroup.WithContext(ctx)
	for i, call := range calls {
		i, call := i, call
		g.Go(func() error {
			out, err := r.Invoke(gctx, call.Name, call.Args)
			if err != nil {
				return fmt.Errorf("%s: %w", call.Name, err)
			}
			results[i] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
