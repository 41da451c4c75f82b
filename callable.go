package compose

import (
	"encoding/json"
	"fmt"
	"sync/atomic"
)

// Callable is a handler-bearing definition that has not been registered
// yet. It can be invoked directly, which makes it the unit of in-process
// reuse and of testing: no host is needed to exercise the full pipeline,
// validators and middleware included.
//
// Registering the callable with Public or Internal ends its callable life.
// The resulting Registered value has no invocation surface, and the old
// reference refuses further calls at runtime.
type Callable struct {
	def definition

	// registered latches once Public or Internal ran. The definition
	// itself stays immutable; this flag is lifecycle state of the
	// artifact, not of the definition.
	registered atomic.Bool
}

// Call invokes the function with an initial context and raw JSON args,
// returning the handler's result as raw JSON. The full pipeline runs:
// structural and refinement validation of args, the middleware onion, the
// handler, then result validation.
func (c *Callable) Call(ctx *Ctx, args json.RawMessage) (json.RawMessage, error) {
	if c.registered.Load() {
		return nil, usageErrorf("function was registered; invoke it through the host")
	}
	return c.def.invoke(ctx, args)
}

// Call is the typed convenience form of Callable.Call: args are marshaled
// in, the result is unmarshaled into R.
//
// Package-level for the same reason as Handler: methods cannot add type
// parameters.
func Call[A, R any](c *Callable, ctx *Ctx, args A) (R, error) {
	var zero R
	raw, err := json.Marshal(args)
	if err != nil {
		return zero, fmt.Errorf("encode args: %w", err)
	}
	out, err := c.Call(ctx, raw)
	if err != nil {
		return zero, err
	}
	var result R
	if err := json.Unmarshal(out, &result); err != nil {
		return zero, fmt.Errorf("decode result: %w", err)
	}
	return result, nil
}

// Use attaches one more middleware and returns a new Callable. The new
// middleware still runs ahead of the handler, after all previously
// attached middleware; attaching after the handler was set does not change
// its position relative to the handler.
func (c *Callable) Use(mw Middleware) *Callable {
	if mw == nil {
		panic(usageErrorf("nil middleware"))
	}
	if c.registered.Load() {
		panic(usageErrorf("function was registered; it can no longer be extended"))
	}
	d := c.def.clone()
	d.middlewares = append(d.middlewares, mw)
	return &Callable{def: d}
}

// Public registers the function with public visibility. The returned
// Registered is the only remaining form of the function; the receiver
// stops being invokable.
func (c *Callable) Public() *Registered { return c.seal(Public) }

// Internal registers the function with internal visibility.
func (c *Callable) Internal() *Registered { return c.seal(Internal) }

func (c *Callable) seal(v Visibility) *Registered {
	if !c.registered.CompareAndSwap(false, true) {
		panic(usageErrorf("function already registered"))
	}
	d := c.def.clone()
	d.visibility = v
	return &Registered{def: d}
}

// Registered is the host-facing form of a function. It cannot be invoked
// from here; hand its Registration to a host's registration entry point to
// make it reachable.
type Registered struct {
	def definition
}

// Kind returns the function kind.
func (r *Registered) Kind() Kind { return r.def.kind }

// Visibility returns the registered visibility.
func (r *Registered) Visibility() Visibility { return r.def.visibility }

// Registration is the bundle a host consumes: the structural validators in
// the host vocabulary and the composed invoker that runs the whole
// pipeline. The refinement hooks are already folded into Invoke, so a host
// needs no knowledge of richer dialects.
type Registration struct {
	Kind       Kind
	Visibility Visibility

	// Args is the structural args validator, nil when the definition
	// declared none.
	Args Spec

	// Returns is the structural result validator, nil when the definition
	// declared none.
	Returns Spec

	// Invoke runs the composed pipeline. The host supplies the initial
	// context, built for the function's kind, and the raw args.
	Invoke func(ctx *Ctx, args json.RawMessage) (json.RawMessage, error)
}

// Registration exports the host-boundary bundle for this function.
func (r *Registered) Registration() Registration {
	return Registration{
		Kind:       r.def.kind,
		Visibility: r.def.visibility,
		Args:       r.def.argsSpec,
		Returns:    r.def.returnsSpec,
		Invoke: func(ctx *Ctx, args json.RawMessage) (json.RawMessage, error) {
			return r.def.invoke(ctx, args)
		},
	}
}
