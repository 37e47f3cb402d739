//go:build integration

package postgres_test

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/identra/identra/internal/model"
	repo "github.com/identra/identra/internal/repository/postgres"
)

var dsn string

func TestMain(m *testing.M) {
	ctx := context.Background()
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: tc.ContainerRequest{
			Image:        "postgres:15-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "postgres",
				"POSTGRES_PASSWORD": "password",
				"POSTGRES_DB":       "identra_test",
			},
			WaitingFor: wait.ForListeningPort("5432/tcp").WithStartupTimeout(2 * time.Minute),
		},
		Started: true,
	})
	if err != nil {
		panic(err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		panic(err)
	}
	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		panic(err)
	}
	dsn = fmt.Sprintf("postgres://postgres:password@%s:%s/identra_test?sslmode=disable", host, port.Port())

	code := m.Run()
	_ = container.Terminate(ctx)
	os.Exit(code)
}

func newTestUser(email string) model.User {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return model.User{
		ID:           uuid.New(),
		Name:         "Test User",
		Email:        email,
		PasswordHash: "$2a$10$hash",
		Enabled:      true,
		Provider:     model.ProviderLocal,
		Roles:        []string{"user"},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func newTestRefreshToken(userID uuid.UUID) model.RefreshToken {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return model.RefreshToken{
		ID:        uuid.New(),
		JTI:       uuid.NewString(),
		UserID:    userID,
		CreatedAt: now,
		ExpiresAt: now.Add(30 * 24 * time.Hour),
	}
}

func TestUserRepository(t *testing.T) {
	ctx := context.Background()
	conn, err := repo.NewConection(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	ur := repo.NewUserRepository(conn)

	t.Run("create_and_get", func(t *testing.T) {
		u := newTestUser("crud@example.com")
		saved, err := ur.Create(ctx, u)
		require.NoError(t, err)
		require.Equal(t, u.ID, saved.ID)
		require.Equal(t, []string{"user"}, saved.Roles)

		byEmail, err := ur.GetByEmail(ctx, u.Email)
		require.NoError(t, err)
		require.Equal(t, u.ID, byEmail.ID)

		byID, err := ur.GetByID(ctx, u.ID)
		require.NoError(t, err)
		require.Equal(t, u.Email, byID.Email)
	})

	t.Run("duplicate_email_is_conflict", func(t *testing.T) {
		u := newTestUser("dup@example.com")
		_, err := ur.Create(ctx, u)
		require.NoError(t, err)

		dup := newTestUser("dup@example.com")
		_, err = ur.Create(ctx, dup)
		require.ErrorIs(t, err, model.ErrConflict)
	})

	t.Run("get_missing_is_not_found", func(t *testing.T) {
		_, err := ur.GetByEmail(ctx, "missing@example.com")
		require.ErrorIs(t, err, model.ErrNotFound)

		_, err = ur.GetByID(ctx, uuid.New())
		require.ErrorIs(t, err, model.ErrNotFound)
	})

	t.Run("update", func(t *testing.T) {
		u := newTestUser("update@example.com")
		_, err := ur.Create(ctx, u)
		require.NoError(t, err)

		u.Name = "Renamed"
		u.Enabled = false
		updated, err := ur.Update(ctx, u)
		require.NoError(t, err)
		require.Equal(t, "Renamed", updated.Name)
		require.False(t, updated.Enabled)
	})

	t.Run("delete", func(t *testing.T) {
		u := newTestUser("delete@example.com")
		_, err := ur.Create(ctx, u)
		require.NoError(t, err)

		require.NoError(t, ur.Delete(ctx, u.ID))
		require.ErrorIs(t, ur.Delete(ctx, u.ID), model.ErrNotFound)
	})
}

func TestRefreshTokenRepository(t *testing.T) {
	ctx := context.Background()
	conn, err := repo.NewConection(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	ur := repo.NewUserRepository(conn)
	tr := repo.NewRefreshTokenRepository(conn)

	owner := newTestUser("tokens@example.com")
	_, err = ur.Create(ctx, owner)
	require.NoError(t, err)

	t.Run("create_and_get", func(t *testing.T) {
		rt := newTestRefreshToken(owner.ID)
		require.NoError(t, tr.Create(ctx, rt))

		got, err := tr.GetByJTI(ctx, rt.JTI)
		require.NoError(t, err)
		require.Equal(t, rt.UserID, got.UserID)
		require.False(t, got.Revoked)
		require.Nil(t, got.ReplacedBy)
	})

	t.Run("get_missing_is_not_found", func(t *testing.T) {
		_, err := tr.GetByJTI(ctx, uuid.NewString())
		require.ErrorIs(t, err, model.ErrNotFound)
	})

	t.Run("revoke_and_chain", func(t *testing.T) {
		old := newTestRefreshToken(owner.ID)
		require.NoError(t, tr.Create(ctx, old))

		next := newTestRefreshToken(owner.ID)
		next.ExpiresAt = old.ExpiresAt
		require.NoError(t, tr.RevokeAndChain(ctx, old, next))

		gotOld, err := tr.GetByJTI(ctx, old.JTI)
		require.NoError(t, err)
		require.True(t, gotOld.Revoked)
		require.NotNil(t, gotOld.ReplacedBy)
		require.Equal(t, next.JTI, *gotOld.ReplacedBy)

		gotNext, err := tr.GetByJTI(ctx, next.JTI)
		require.NoError(t, err)
		require.False(t, gotNext.Revoked)
		require.Equal(t, old.ExpiresAt, gotNext.ExpiresAt.UTC())

		// Second rotation of the same record is a replay.
		again := newTestRefreshToken(owner.ID)
		require.ErrorIs(t, tr.RevokeAndChain(ctx, old, again), model.ErrTokenReused)

		// The loser's record must not exist.
		_, err = tr.GetByJTI(ctx, again.JTI)
		require.ErrorIs(t, err, model.ErrNotFound)
	})

	t.Run("concurrent_rotation_single_winner", func(t *testing.T) {
		old := newTestRefreshToken(owner.ID)
		require.NoError(t, tr.Create(ctx, old))

		const workers = 8
		errs := make([]error, workers)
		var wg sync.WaitGroup
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				errs[i] = tr.RevokeAndChain(ctx, old, newTestRefreshToken(owner.ID))
			}(i)
		}
		wg.Wait()

		wins := 0
		for _, err := range errs {
			if err == nil {
				wins++
			} else {
				require.ErrorIs(t, err, model.ErrTokenReused)
			}
		}
		require.Equal(t, 1, wins)
	})

	t.Run("revoke_is_idempotent", func(t *testing.T) {
		rt := newTestRefreshToken(owner.ID)
		require.NoError(t, tr.Create(ctx, rt))

		require.NoError(t, tr.Revoke(ctx, rt.JTI))
		require.NoError(t, tr.Revoke(ctx, rt.JTI))
		require.NoError(t, tr.Revoke(ctx, uuid.NewString()))
	})

	t.Run("revoke_all_by_user", func(t *testing.T) {
		victim := newTestUser("victim@example.com")
		_, err := ur.Create(ctx, victim)
		require.NoError(t, err)

		first := newTestRefreshToken(victim.ID)
		second := newTestRefreshToken(victim.ID)
		require.NoError(t, tr.Create(ctx, first))
		require.NoError(t, tr.Create(ctx, second))

		require.NoError(t, tr.RevokeAllByUser(ctx, victim.ID))

		for _, jti := range []string{first.JTI, second.JTI} {
			got, err := tr.GetByJTI(ctx, jti)
			require.NoError(t, err)
			require.True(t, got.Revoked)
		}
	})

	t.Run("deleting_user_cascades_tokens", func(t *testing.T) {
		gone := newTestUser("cascade@example.com")
		_, err := ur.Create(ctx, gone)
		require.NoError(t, err)

		rt := newTestRefreshToken(gone.ID)
		require.NoError(t, tr.Create(ctx, rt))

		require.NoError(t, ur.Delete(ctx, gone.ID))

		_, err = tr.GetByJTI(ctx, rt.JTI)
		require.ErrorIs(t, err, model.ErrNotFound)
	})
}
