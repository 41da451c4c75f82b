package compose

import (
	"encoding/json"
	"fmt"
)

// RefineFunc is a value-level check layered on top of structural
// validation: ranges, formats, cross-field predicates. It receives the raw
// JSON value after the structural check passed.
type RefineFunc func(raw json.RawMessage) error

// SpecProvider is the structural half of a richer validator dialect. A
// value implementing it can translate its own shape into the host
// vocabulary. Translation drops refinements; when the shape itself cannot
// be expressed, ValidatorSpec returns an error and the builder rejects the
// validator at configuration time.
//
// Detection is by method set on purpose: values from different copies of
// the same schema library still satisfy the interface.
type SpecProvider interface {
	ValidatorSpec() (Spec, error)
}

// Refiner is the value-level half of a richer dialect. When a validator
// handed to Input or Returns implements both SpecProvider and Refiner, the
// structural translation goes to the host and Refine is kept as a hook that
// runs against the raw value on every invocation.
type Refiner interface {
	Refine(raw json.RawMessage) error
}

// Dialect teaches a builder to accept validator values beyond the built-in
// vocabulary. Install dialects with WithDialects at kind selection; they
// are consulted in installation order, after Spec pass-through and before
// the SpecProvider fallback, and survive every subsequent builder
// transition. A dialect that recognizes an already-understood shape may
// normalize it itself or wrap and delegate.
type Dialect interface {
	// Detect reports whether this dialect understands v.
	Detect(v any) bool

	// Normalize translates v into the structural vocabulary plus an
	// optional refinement hook.
	Normalize(v any) (Spec, RefineFunc, error)
}

// normalizeValidator reconciles the validator vocabularies: native Specs
// pass through untouched, extension dialects get first refusal on anything
// else, and SpecProvider/Refiner values are translated with their
// refinements retained as a hook.
func normalizeValidator(dialects []Dialect, v any) (Spec, RefineFunc, error) {
	if v == nil {
		return nil, nil, fmt.Errorf("nil validator")
	}
	if s, ok := v.(Spec); ok {
		return s, nil, nil
	}
	for _, d := range dialects {
		if d.Detect(v) {
			spec, refine, err := d.Normalize(v)
			if err != nil {
				return nil, nil, fmt.Errorf("dialect %T: %w", d, err)
			}
			if spec == nil {
				return nil, nil, fmt.Errorf("dialect %T produced no spec", d)
			}
			return spec, refine, nil
		}
	}
	if p, ok := v.(SpecProvider); ok {
		spec, err := p.ValidatorSpec()
		if err != nil {
			return nil, nil, fmt.Errorf("translate validator: %w", err)
		}
		var refine RefineFunc
		if r, ok := v.(Refiner); ok {
			refine = r.Refine
		}
		return spec, refine, nil
	}
	return nil, nil, fmt.Errorf("unsupported validator value of type %T", v)
}

// ContextSpec pins the minimal capability a middleware needs, so one
// middleware serves queries, mutations, and actions alike. It deliberately
// exposes nothing but CreateMiddleware: narrowing happens on the
// middleware, never on a builder, so middleware already attached to a
// chain cannot be discarded by narrowing.
type ContextSpec[C any] struct{}

// NarrowTo declares the capability interface C that middleware built from
// the returned ContextSpec will require.
func NarrowTo[C any]() ContextSpec[C] {
	return ContextSpec[C]{}
}

// CreateMiddleware builds a middleware that resolves C from the invocation
// context before running fn. Invoking the resulting chain with a context
// that lacks the capability is a usage error.
func (ContextSpec[C]) CreateMiddleware(fn func(ctx *Ctx, cap C, next Next) (any, error)) Middleware {
	return func(ctx *Ctx, next Next) (any, error) {
		capability, ok := CapabilityAs[C](ctx)
		if !ok {
			return nil, usageErrorf("context provides no capability satisfying %T", (*C)(nil))
		}
		return fn(ctx, capability, next)
	}
}
