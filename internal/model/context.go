package model

import "context"

// Principal is the authenticated identity attached to a request.
type Principal struct {
	UserID string
	Email  string
	Roles  []string
}

// ContextManager carries the request principal through the call chain.
// The principal is set once by the request authenticator and read by
// downstream handlers; there is no ambient security state.
type ContextManager interface {
	SetPrincipal(ctx context.Context, p Principal) context.Context
	GetPrincipal(ctx context.Context) (Principal, bool)
}
