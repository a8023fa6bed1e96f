package rpc

import (
	"github.com/agrilink/agrilink/internal/apperr"
	"github.com/agrilink/agrilink/internal/users"
)

// Guard is an access check run before a procedure's handler. Guards run in
// registration order and the first failure aborts the call.
type Guard func(ctx *Ctx) error

// Authenticated requires a signed-in caller.
func Authenticated() Guard {
	return func(ctx *Ctx) error {
		if ctx.Caller == nil {
			return apperr.New(apperr.CodeUnauthenticated, "authentication required")
		}
		return nil
	}
}

// RequireRole requires the caller to hold exactly the given role. There is no
// role hierarchy: an admin does not pass a farmer-only guard.
func RequireRole(role users.Role) Guard {
	return func(ctx *Ctx) error {
		if ctx.Caller == nil {
			return apperr.New(apperr.CodeUnauthenticated, "authentication required")
		}
		if ctx.Caller.Role != role {
			return apperr.Newf(apperr.CodeForbidden, "%s access required", role)
		}
		return nil
	}
}
