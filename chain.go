package compose

// Next runs the remainder of the chain: the middleware declared after the
// current one, then the handler. The context passed to Next becomes the
// context every later stage sees, so middleware extends it with Ctx.With
// and hands the child down.
type Next func(ctx *Ctx) (any, error)

// Middleware wraps the rest of an invocation. Code before the call to next
// runs on the way in, in declaration order; code after next returns runs on
// the way out, in reverse order. Middleware must call next exactly once and
// return its value unchanged:
//
//	func timed(ctx *compose.Ctx, next compose.Next) (any, error) {
//	    start := time.Now()
//	    out, err := next(ctx)
//	    log.Printf("took %s", time.Since(start))
//	    return out, err
//	}
//
// The value returned by the whole invocation is always the handler's
// result; the executor records it at the terminal frame, so post-next code
// is for side effects (timing, logging, error translation) and cannot
// rewrite the payload. Errors, in contrast, do flow through middleware
// returns: a middleware may catch a downstream error and wrap or replace
// it, as long as the cause is preserved with %w.
type Middleware func(ctx *Ctx, next Next) (any, error)

// runChain executes the middleware onion around a terminal function.
//
// The recursion is the classic continuation form: frame i invokes
// middleware i with a next that runs frame i+1. Frame len(mws) runs the
// terminal and records its result. No concurrency is introduced; each
// frame runs on the caller's goroutine.
func runChain(mws []Middleware, ctx *Ctx, terminal func(*Ctx) (any, error)) (any, error) {
	var (
		result any
		ran    bool
	)

	var runFrom func(i int, c *Ctx) (any, error)
	runFrom = func(i int, c *Ctx) (any, error) {
		if c == nil {
			return nil, usageErrorf("middleware %d passed a nil context to next", i-1)
		}
		if i == len(mws) {
			out, err := terminal(c)
			if err != nil {
				return nil, err
			}
			result = out
			ran = true
			return out, nil
		}
		mw := mws[i]
		return mw(c, func(next *Ctx) (any, error) {
			return runFrom(i+1, next)
		})
	}

	if _, err := runFrom(0, ctx); err != nil {
		return nil, err
	}
	if !ran {
		// A middleware returned nil without calling next. There is no
		// handler result to hand back, and silently inventing one would
		// violate the result contract.
		return nil, usageErrorf("middleware returned without calling next")
	}
	return result, nil
}
