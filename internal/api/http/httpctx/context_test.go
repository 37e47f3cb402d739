package httpctx

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/identra/identra/internal/model"
)

func TestManager_SetGetPrincipal(t *testing.T) {
	t.Parallel()

	m := NewManager()
	p := model.Principal{
		UserID: uuid.NewString(),
		Email:  "alice@example.com",
		Roles:  []string{"user"},
	}

	ctx := m.SetPrincipal(context.Background(), p)

	got, ok := m.GetPrincipal(ctx)
	require.True(t, ok)
	assert.Equal(t, p, got)
}

func TestManager_GetPrincipal_Unset(t *testing.T) {
	t.Parallel()

	m := NewManager()

	_, ok := m.GetPrincipal(context.Background())
	assert.False(t, ok)
}
