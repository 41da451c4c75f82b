package compose

import (
	"encoding/json"
	"fmt"
)

// Kind is the function kind a definition was built for.
type Kind string

const (
	// KindQuery marks a read-only function.
	KindQuery Kind = "query"

	// KindMutation marks a function that may write to the host's store.
	KindMutation Kind = "mutation"

	// KindAction marks a side-effecting function that may schedule and
	// run other functions.
	KindAction Kind = "action"
)

// Visibility controls how a registered function is reachable.
type Visibility string

const (
	// Public functions are exposed on the host's outer surface.
	Public Visibility = "public"

	// Internal functions are reachable only from other functions and
	// in-process callers.
	Internal Visibility = "internal"
)

// definition is the sole piece of builder state. It is immutable: every
// builder method clones it, replaces or appends one field, and wraps the
// clone in a new Builder or Callable. Because nothing mutates a definition
// after it escapes, concurrent invocations can share one freely.
type definition struct {
	kind          Kind
	middlewares   []Middleware
	dialects      []Dialect
	argsSpec      Spec
	argsRefine    RefineFunc
	returnsSpec   Spec
	returnsRefine RefineFunc
	handler       *erasedHandler
	visibility    Visibility
}

// clone copies the definition, including private copies of the slices so
// derived chains never alias a sibling's backing array.
func (d definition) clone() definition {
	next := d
	next.middlewares = append([]Middleware(nil), d.middlewares...)
	next.dialects = append([]Dialect(nil), d.dialects...)
	return next
}

// erasedHandler is a typed handler flattened into a uniform shape, the same
// trick used to store handlers of different types in one table: decode
// turns validated raw args into the handler's input type, call runs the
// handler and marshals its result.
type erasedHandler struct {
	decode func(raw json.RawMessage) (any, error)
	call   func(ctx *Ctx, in any) (json.RawMessage, error)
}

// Option configures a builder at kind selection.
type Option func(*definition)

// WithDialects installs extra validator dialects (see Dialect). The dialect
// set is part of the definition, so every builder state derived from this
// one keeps accepting the extended vocabulary.
func WithDialects(ds ...Dialect) Option {
	return func(d *definition) {
		d.dialects = append(d.dialects, ds...)
	}
}

// Builder assembles a function definition of a fixed kind. Builders are
// immutable values: each method returns a new Builder and the receiver
// remains usable, so chains may branch.
//
// The legal call order is enforced by the types. Kind selection is the only
// way to obtain a Builder; Input, Returns, and Use are only available
// before Handler; after Handler the result is a Callable, which accepts
// further middleware but no validators.
type Builder struct {
	def definition
}

func newBuilder(kind Kind, opts []Option) *Builder {
	d := definition{kind: kind}
	for _, opt := range opts {
		opt(&d)
	}
	return &Builder{def: d}
}

// Query starts a builder for a read-only function.
//
// Example:
//
//	latest := compose.Handler(
//	    compose.Query().Input(compose.Object(compose.F("limit", compose.Int()))),
//	    func(ctx *compose.Ctx, args ListArgs) ([]Item, error) { ... },
//	)
func Query(opts ...Option) *Builder { return newBuilder(KindQuery, opts) }

// Mutation starts a builder for a writing function.
func Mutation(opts ...Option) *Builder { return newBuilder(KindMutation, opts) }

// Action starts a builder for a side-effecting function.
func Action(opts ...Option) *Builder { return newBuilder(KindAction, opts) }

// Use appends one middleware. Middleware runs in the order it was attached:
// the first Use is the outermost onion layer.
func (b *Builder) Use(mw Middleware) *Builder {
	if mw == nil {
		panic(usageErrorf("nil middleware"))
	}
	d := b.def.clone()
	d.middlewares = append(d.middlewares, mw)
	return &Builder{def: d}
}

// Input sets the args validator. v may be a Spec, a value understood by an
// installed dialect, or any value implementing SpecProvider (and optionally
// Refiner). An unsupported or untranslatable validator is a configuration
// bug and panics with a *UsageError here, not at invocation time.
//
// Calling Input again replaces the previous validator; last write wins, so
// an extension may re-specify the validator a base chain already set.
func (b *Builder) Input(v any) *Builder {
	spec, refine, err := normalizeValidator(b.def.dialects, v)
	if err != nil {
		panic(usageErrorf("input validator: %v", err))
	}
	d := b.def.clone()
	d.argsSpec = spec
	d.argsRefine = refine
	return &Builder{def: d}
}

// Returns sets the result validator, with the same acceptance rules as
// Input. It is only available before the handler is set: once a Callable
// exists the result type is frozen.
func (b *Builder) Returns(v any) *Builder {
	spec, refine, err := normalizeValidator(b.def.dialects, v)
	if err != nil {
		panic(usageErrorf("returns validator: %v", err))
	}
	d := b.def.clone()
	d.returnsSpec = spec
	d.returnsRefine = refine
	return &Builder{def: d}
}

// Handler sets the terminal handler and returns the callable form of the
// definition. The handler always receives the fully middleware-extended
// context, never the raw invocation context.
//
// This is a package-level function rather than a method because Go methods
// cannot introduce type parameters of their own.
func Handler[A, R any](b *Builder, fn func(ctx *Ctx, args A) (R, error)) *Callable {
	if fn == nil {
		panic(usageErrorf("nil handler"))
	}
	if b.def.handler != nil {
		panic(usageErrorf("handler already set for this definition"))
	}
	d := b.def.clone()
	d.handler = &erasedHandler{
		decode: func(raw json.RawMessage) (any, error) {
			if len(raw) == 0 {
				raw = json.RawMessage("null")
			}
			var args A
			if err := json.Unmarshal(raw, &args); err != nil {
				return nil, fmt.Errorf("decode args: %w", err)
			}
			return args, nil
		},
		call: func(ctx *Ctx, in any) (json.RawMessage, error) {
			out, err := fn(ctx, in.(A))
			if err != nil {
				return nil, err
			}
			raw, err := json.Marshal(out)
			if err != nil {
				return nil, fmt.Errorf("encode result: %w", err)
			}
			return raw, nil
		},
	}
	return &Callable{def: d}
}

// invoke runs the full pipeline for one invocation: structural args check,
// args refinement, decode, the middleware onion around the handler, then
// structural and refinement checks on the result. Validation failures on
// the way in mean no middleware and no handler ever runs.
func (d *definition) invoke(ctx *Ctx, args json.RawMessage) (json.RawMessage, error) {
	if d.handler == nil {
		return nil, usageErrorf("definition has no handler")
	}
	if ctx == nil {
		return nil, usageErrorf("nil invocation context")
	}
	if ctx.kind != d.kind {
		return nil, usageErrorf("context built for %s used to invoke a %s", ctx.kind, d.kind)
	}

	if d.argsSpec != nil {
		if err := d.argsSpec.Check(args); err != nil {
			return nil, &ValidationError{Stage: StageArgs, err: err}
		}
	}
	if d.argsRefine != nil {
		if err := d.argsRefine(args); err != nil {
			return nil, &ValidationError{Stage: StageArgs, err: err}
		}
	}

	in, err := d.handler.decode(args)
	if err != nil {
		return nil, &ValidationError{Stage: StageArgs, err: err}
	}

	out, err := runChain(d.middlewares, ctx, func(c *Ctx) (any, error) {
		return d.handler.call(c, in)
	})
	if err != nil {
		return nil, err
	}
	raw := out.(json.RawMessage)

	if d.returnsSpec != nil {
		if err := d.returnsSpec.Check(raw); err != nil {
			return nil, &ValidationError{Stage: StageReturns, err: err}
		}
	}
	if d.returnsRefine != nil {
		if err := d.returnsRefine(raw); err != nil {
			return nil, &ValidationError{Stage: StageReturns, err: err}
		}
	}
	return raw, nil
}
