package middleware

import (
	"fmt"
	"runtime/debug"

	"github.com/bjaus/compose"
)

// PanicError is the error Recover produces from a panicking handler or
// downstream middleware. It keeps the recovered value and the stack at the
// point of the panic.
type PanicError struct {
	Recovered any
	Stack     []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Recovered)
}

// Recover returns middleware that converts panics from downstream stages
// into a *PanicError. Attach it early (outermost) so it covers the whole
// chain.
func Recover() compose.Middleware {
	return func(ctx *compose.Ctx, next compose.Next) (out any, err error) {
		defer func() {
			if r := recover(); r != nil {
				out = nil
				err = &PanicError{Recovered: r, Stack: debug.Stack()}
			}
		}()
		return next(ctx)
	}
}
