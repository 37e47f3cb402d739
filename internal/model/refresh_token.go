package model

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// RefreshTokenStore persists issued refresh tokens. Records are never
// deleted; revoked and expired rows are kept for audit and replay detection.
type RefreshTokenStore interface {
	Create(ctx context.Context, token RefreshToken) error
	GetByJTI(ctx context.Context, jti string) (RefreshToken, error)
	// RevokeAndChain atomically marks old revoked, points it at next and
	// persists next. When old was already revoked by a concurrent rotation
	// it applies nothing and returns ErrTokenReused.
	RevokeAndChain(ctx context.Context, old RefreshToken, next RefreshToken) error
	Revoke(ctx context.Context, jti string) error
	RevokeAllByUser(ctx context.Context, userID uuid.UUID) error
}

// RefreshToken is the stored record of one issued refresh token.
// JTI, UserID and CreatedAt are immutable; Revoked only ever flips
// false to true; ReplacedBy is set exactly once, on rotation.
type RefreshToken struct {
	ID         uuid.UUID
	JTI        string
	UserID     uuid.UUID
	CreatedAt  time.Time
	ExpiresAt  time.Time
	Revoked    bool
	ReplacedBy *string
}

// Expired reports whether the record is past its expiry at instant now.
// The boundary is exclusive: a record expiring exactly at now is still valid.
func (t RefreshToken) Expired(now time.Time) bool {
	return now.After(t.ExpiresAt)
}
