package httpctx

import (
	"context"

	"github.com/identra/identra/internal/model"
)

type principalKey struct{}

// Manager stores the request principal as an explicit context value. The
// authenticator sets it once per request; handlers read it. There is no
// ambient or global security state.
type Manager struct{}

func NewManager() *Manager {
	return &Manager{}
}

var _ model.ContextManager = (*Manager)(nil)

// SetPrincipal returns a child context carrying p.
func (m *Manager) SetPrincipal(ctx context.Context, p model.Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// GetPrincipal retrieves the principal set by the authenticator, if any.
func (m *Manager) GetPrincipal(ctx context.Context) (model.Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(model.Principal)
	return p, ok
}
