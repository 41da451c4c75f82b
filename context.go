package compose

import "context"

// Identity looks up the identity of the current caller. Hosts supply an
// implementation backed by their auth system; the library only consumes it.
type Identity interface {
	Identity(ctx context.Context) (string, error)
}

// Reader provides read access to the host's backing store.
type Reader interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
}

// Writer provides write access to the host's backing store.
type Writer interface {
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

// Scheduler enqueues a named function for later execution.
type Scheduler interface {
	Schedule(ctx context.Context, name string, args []byte) error
}

// Runner invokes another registered function in-process. Hosts hand this to
// action contexts so actions can orchestrate queries and mutations.
type Runner interface {
	Run(ctx context.Context, name string, args []byte) ([]byte, error)
}

// Capabilities is the per-invocation environment the host supplies. Which
// slots are populated depends on the function kind: queries receive read
// access, mutations read/write access, actions scheduling and the ability
// to run other functions. Unused slots stay nil.
type Capabilities struct {
	Auth      Identity
	Reader    Reader
	Writer    Writer
	Scheduler Scheduler
	Runner    Runner
}

// Ctx is the invocation context threaded through middleware and handlers.
//
// A Ctx is created fresh for every invocation and never shared between
// concurrent calls. Middleware extends it with With, which returns a child
// Ctx; lookups walk back through the parent chain, so every value visible
// at one stage remains visible at all later stages.
type Ctx struct {
	parent *Ctx
	std    context.Context
	kind   Kind
	caps   Capabilities
	values map[any]any
}

// NewCtx creates the root context for one invocation. The host (or a test)
// decides which capabilities the function kind is entitled to.
func NewCtx(ctx context.Context, kind Kind, caps Capabilities) *Ctx {
	if ctx == nil {
		ctx = context.Background()
	}
	return &Ctx{std: ctx, kind: kind, caps: caps}
}

// Context returns the underlying context.Context.
func (c *Ctx) Context() context.Context { return c.std }

// Kind returns the function kind this context was built for.
func (c *Ctx) Kind() Kind { return c.kind }

// Auth returns the identity capability, or nil if the host supplied none.
func (c *Ctx) Auth() Identity { return c.caps.Auth }

// Reader returns the read capability, or nil.
func (c *Ctx) Reader() Reader { return c.caps.Reader }

// Writer returns the write capability, or nil.
func (c *Ctx) Writer() Writer { return c.caps.Writer }

// Scheduler returns the scheduling capability, or nil.
func (c *Ctx) Scheduler() Scheduler { return c.caps.Scheduler }

// Runner returns the function-running capability, or nil.
func (c *Ctx) Runner() Runner { return c.caps.Runner }

// With returns a child context carrying one additional key/value pair. The
// receiver is not modified: contexts only ever grow, and growth is visible
// downstream only.
func (c *Ctx) With(key, value any) *Ctx {
	return &Ctx{
		parent: c,
		std:    c.std,
		kind:   c.kind,
		caps:   c.caps,
		values: map[any]any{key: value},
	}
}

// WithContext returns a child whose Context() is ctx. Use this to attach
// deadlines or request-scoped values from the standard library side.
func (c *Ctx) WithContext(ctx context.Context) *Ctx {
	return &Ctx{parent: c, std: ctx, kind: c.kind, caps: c.caps}
}

// Value looks key up in this context and then in its ancestors.
func (c *Ctx) Value(key any) (any, bool) {
	for cur := c; cur != nil; cur = cur.parent {
		if v, ok := cur.values[key]; ok {
			return v, true
		}
	}
	return nil, false
}

// Tag is a type-safe context key. Declare tags as package variables and use
// them to pass values from middleware to downstream middleware and handlers
// without losing the static type.
type Tag[T any] struct {
	id *tagID
}

type tagID struct {
	key string
}

// NewTag creates a tag with a fresh identity. The key is only used for
// diagnostics: every call mints a distinct key, so two tags created with
// the same key and type never collide.
func NewTag[T any](key string) Tag[T] {
	return Tag[T]{id: &tagID{key: key}}
}

// Key returns the tag's diagnostic key.
func (t Tag[T]) Key() string { return t.id.key }

// Get retrieves the tag's value from ctx or any of its ancestors.
func (t Tag[T]) Get(c *Ctx) (T, bool) {
	v, ok := c.Value(t)
	if !ok {
		var zero T
		return zero, false
	}
	return v.(T), true
}

// GetOrDefault retrieves the tag's value or returns def when absent.
func (t Tag[T]) GetOrDefault(c *Ctx, def T) T {
	if v, ok := t.Get(c); ok {
		return v
	}
	return def
}

// With returns a child context carrying the tag's value.
func (t Tag[T]) With(c *Ctx, val T) *Ctx {
	return c.With(t, val)
}

var functionNameTag = NewTag[string]("compose.function_name")

// FunctionName is the tag under which hosts record the registered name of
// the function being invoked. Middleware such as loggers read it; directly
// invoked callables have no name and the tag is absent.
func FunctionName() Tag[string] { return functionNameTag }

// CapabilityAs extracts a capability from the context by interface. It
// checks every populated capability slot and returns the first one that
// satisfies C. This lets middleware depend on a narrow interface of its own
// choosing instead of a concrete host type.
func CapabilityAs[C any](c *Ctx) (C, bool) {
	slots := []any{c.caps.Auth, c.caps.Reader, c.caps.Writer, c.caps.Scheduler, c.caps.Runner}
	for _, slot := range slots {
		if slot == nil {
			continue
		}
		if cap, ok := slot.(C); ok {
			return cap, true
		}
	}
	var zero C
	return zero, false
}
