// Package compose is a typed builder for request-handling functions.
//
// It assembles three kinds of functions (read-only queries, writing
// mutations, and side-effecting actions) out of reusable pieces: input and
// output validation, ordered middleware, and a terminal handler. The result
// is registered with a host runtime under public or internal visibility, or
// invoked directly without any host at all.
//
// # Quick Start
//
// Select a kind, attach middleware and validators, set the handler:
//
//	type GreetArgs struct {
//	    Name string `json:"name"`
//	}
//
//	greet := compose.Handler(
//	    compose.Query().
//	        Use(middleware.Logger(slog.Default())).
//	        Input(compose.Object(compose.F("name", compose.String()))),
//	    func(ctx *compose.Ctx, args GreetArgs) (string, error) {
//	        return "hello " + args.Name, nil
//	    },
//	)
//
// The returned Callable is directly invokable:
//
//	ctx := compose.NewCtx(context.Background(), compose.KindQuery, caps)
//	out, err := compose.Call[GreetArgs, string](greet, ctx, GreetArgs{Name: "alice"})
//
// or registered, which ends its callable life:
//
//	registry.Register("greet", greet.Public())
//
// # Builder States
//
// The legal call order is carried by the types, not by runtime checks:
//
//   - Query, Mutation, Action are the only entry points, so the kind is
//     always selected first.
//   - Builder exposes Use, Input, and Returns; Handler turns it into a
//     Callable, after which validators are frozen.
//   - Callable exposes Call, Use, Public, and Internal.
//   - Registered exposes no invocation surface; it is handed to a host.
//
// Every step returns a new immutable value. Chains may branch: two
// handlers built from one shared builder prefix do not affect each other,
// and a fully built definition can serve concurrent invocations without
// locking.
//
// # Middleware
//
// Middleware composes as an onion. Code before the call to next runs on
// the way in, in attachment order; code after next runs on the way out, in
// reverse order:
//
//	q.Use(func(ctx *compose.Ctx, next compose.Next) (any, error) {
//	    ctx = userTag.With(ctx, "alice") // visible to everything downstream
//	    out, err := next(ctx)
//	    // side effects only on the way out
//	    return out, err
//	})
//
// Contexts grow monotonically: a middleware extends the context with
// typed tags and passes the child to next, and every later stage sees the
// union of everything added so far. The invocation result is always the
// handler's value: middleware can observe it but not replace it. Errors
// do flow through middleware, which may catch, wrap, and rethrow them.
//
// # Validation
//
// Two validator vocabularies are accepted. Spec values are the structural
// vocabulary the host understands: shapes and optionality only. Richer
// schema dialects (see the schema subpackage) also carry value-level
// refinements such as ranges and formats; the builder translates their
// shape into a Spec for the host and keeps the refinement as a hook.
//
// Args are checked, structurally and then by refinement, before the first
// middleware runs; a rejected input never reaches the chain. Results are
// checked after the handler runs and before the caller sees them.
//
// # Extending
//
// A plugin can widen the accepted validator vocabulary by implementing
// Dialect and installing it at kind selection with WithDialects. The
// dialect set is part of the immutable definition, so it survives every
// later builder transition. Middleware that should work across all three
// kinds declares the one capability it needs via NarrowTo and
// CreateMiddleware instead of depending on a concrete context shape.
//
// # Errors
//
// Configuration mistakes (untranslatable validators, double registration,
// a second handler) panic with *UsageError at build time. Invocation-time
// failures are returned: *ValidationError for structural or refinement
// rejections on either side, handler and middleware errors unchanged, and
// *AuthorizationError as the conventional, errors.As-detectable kind for
// missing identity.
//
// # Thread Safety
//
// Definitions are immutable after construction and safe to invoke
// concurrently. Each invocation gets a fresh Ctx; nothing is shared
// between concurrent calls.
package compose
