package middleware

import (
	"github.com/bjaus/compose"
)

var identityTag = compose.NewTag[string]("middleware.identity")

// Identity is the tag under which RequireIdentity records the resolved
// caller identity for downstream middleware and handlers.
func Identity() compose.Tag[string] { return identityTag }

// RequireIdentity returns middleware that resolves the caller's identity
// through the host's identity capability and stores it under the Identity
// tag. When the lookup fails or yields nobody, the chain stops with a
// *compose.AuthorizationError before the handler runs.
//
// The middleware narrows to the identity capability alone, so the same
// value serves query, mutation, and action chains.
func RequireIdentity() compose.Middleware {
	return compose.NarrowTo[compose.Identity]().CreateMiddleware(
		func(ctx *compose.Ctx, auth compose.Identity, next compose.Next) (any, error) {
			who, err := auth.Identity(ctx.Context())
			if err != nil {
				return nil, &compose.AuthorizationError{Reason: err.Error()}
			}
			if who == "" {
				return nil, &compose.AuthorizationError{Reason: "no identity present"}
			}
			return next(identityTag.With(ctx, who))
		})
}
