package compose

import "fmt"

// UsageError reports misuse of the builder API: registering a definition
// twice, setting a second handler, supplying a validator the overlay cannot
// translate, or invoking a function after it was registered.
//
// Configuration methods panic with a *UsageError because these are caller
// bugs, not runtime conditions. Invocation paths that cannot be guarded
// statically (calling an already-registered function) return one instead.
type UsageError struct {
	msg string
}

func usageErrorf(format string, args ...any) *UsageError {
	return &UsageError{msg: fmt.Sprintf(format, args...)}
}

func (e *UsageError) Error() string { return e.msg }

// Stage identifies which side of an invocation failed validation.
type Stage string

const (
	// StageArgs marks validation of the input, before any middleware runs.
	StageArgs Stage = "args"

	// StageReturns marks validation of the handler's result, after the
	// handler ran but before the caller observes it.
	StageReturns Stage = "returns"
)

// ValidationError wraps a structural or refinement failure so callers can
// distinguish it from handler errors.
type ValidationError struct {
	Stage Stage
	err   error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validate %s: %v", e.Stage, e.err)
}

func (e *ValidationError) Unwrap() error { return e.err }

// AuthorizationError is the conventional error an authentication middleware
// returns when no identity is present. It is an ordinary handler error as
// far as propagation is concerned; the distinct type exists so callers can
// detect it with errors.As instead of matching messages.
type AuthorizationError struct {
	Reason string
}

func (e *AuthorizationError) Error() string {
	if e.Reason == "" {
		return "unauthorized"
	}
	return "unauthorized: " + e.Reason
}
