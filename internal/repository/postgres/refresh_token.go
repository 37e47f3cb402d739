package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/identra/identra/internal/model"
)

var _ model.RefreshTokenStore = (*RefreshTokenRepository)(nil)

type RefreshTokenRepository struct {
	db *Connection
}

func NewRefreshTokenRepository(db *Connection) *RefreshTokenRepository {
	return &RefreshTokenRepository{db: db}
}

func (r *RefreshTokenRepository) Create(ctx context.Context, token model.RefreshToken) error {
	const query = `
        INSERT INTO refresh_tokens (id, jti, user_id, created_at, expires_at, revoked, replaced_by)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
    `

	if token.ID == uuid.Nil {
		token.ID = uuid.New()
	}

	_, err := r.db.Exec(ctx, query,
		token.ID, token.JTI, token.UserID, token.CreatedAt, token.ExpiresAt,
		token.Revoked, token.ReplacedBy,
	)
	if err != nil {
		return fmt.Errorf("failed to create refresh token: %w", err)
	}
	return nil
}

func (r *RefreshTokenRepository) GetByJTI(ctx context.Context, jti string) (model.RefreshToken, error) {
	const query = `
        SELECT id, jti, user_id, created_at, expires_at, revoked, replaced_by
        FROM refresh_tokens WHERE jti = $1
    `
	var rt model.RefreshToken
	err := r.db.QueryRow(ctx, query, jti).Scan(
		&rt.ID, &rt.JTI, &rt.UserID, &rt.CreatedAt, &rt.ExpiresAt,
		&rt.Revoked, &rt.ReplacedBy,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.RefreshToken{}, model.ErrNotFound
		}
		return model.RefreshToken{}, fmt.Errorf("failed to get refresh token by jti: %w", err)
	}
	return rt, nil
}

// RevokeAndChain runs inside one transaction. The revoked = FALSE guard on
// the update is the replay-safety crux: of two concurrent rotations of the
// same jti exactly one sees an unrevoked row; the other aborts with
// ErrTokenReused and nothing it staged is applied.
func (r *RefreshTokenRepository) RevokeAndChain(ctx context.Context, old model.RefreshToken, next model.RefreshToken) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin rotation transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	const revokeQuery = `
        UPDATE refresh_tokens SET revoked = TRUE, replaced_by = $1
        WHERE jti = $2 AND revoked = FALSE
    `
	tag, err := tx.Exec(ctx, revokeQuery, next.JTI, old.JTI)
	if err != nil {
		return fmt.Errorf("failed to revoke rotated refresh token: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrTokenReused
	}

	if next.ID == uuid.Nil {
		next.ID = uuid.New()
	}
	const insertQuery = `
        INSERT INTO refresh_tokens (id, jti, user_id, created_at, expires_at, revoked, replaced_by)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
    `
	_, err = tx.Exec(ctx, insertQuery,
		next.ID, next.JTI, next.UserID, next.CreatedAt, next.ExpiresAt,
		next.Revoked, next.ReplacedBy,
	)
	if err != nil {
		return fmt.Errorf("failed to create rotated refresh token: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit rotation: %w", err)
	}
	return nil
}

// Revoke is idempotent: revoking an already revoked or missing jti is not
// an error.
func (r *RefreshTokenRepository) Revoke(ctx context.Context, jti string) error {
	const query = `
        UPDATE refresh_tokens SET revoked = TRUE
        WHERE jti = $1 AND revoked = FALSE
    `
	if _, err := r.db.Exec(ctx, query, jti); err != nil {
		return fmt.Errorf("failed to revoke refresh token: %w", err)
	}
	return nil
}

func (r *RefreshTokenRepository) RevokeAllByUser(ctx context.Context, userID uuid.UUID) error {
	const query = `
        UPDATE refresh_tokens SET revoked = TRUE
        WHERE user_id = $1 AND revoked = FALSE
    `
	if _, err := r.db.Exec(ctx, query, userID); err != nil {
		return fmt.Errorf("failed to revoke refresh tokens by user: %w", err)
	}
	return nil
}
