package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/identra/identra/internal/logger"
	"github.com/identra/identra/internal/model"
)

// TokenLifecycle orchestrates issuance, rotation and revocation of token
// pairs. It composes the TokenManager and the RefreshTokenStore; all of
// its durable state lives in the store, so instances are stateless and
// safe to run side by side.
type TokenLifecycle struct {
	manager   model.TokenManager
	store     model.RefreshTokenStore
	userStore model.UserStore
	logger    *logger.Logger
}

func NewTokenLifecycle(manager model.TokenManager, store model.RefreshTokenStore, userStore model.UserStore, logger *logger.Logger) *TokenLifecycle {
	return &TokenLifecycle{manager: manager, store: store, userStore: userStore, logger: logger}
}

// Issue creates a fresh access/refresh pair for user. The refresh record
// is persisted before either token is signed so a signed refresh token
// always has a backing record.
func (s *TokenLifecycle) Issue(ctx context.Context, user model.User) (model.TokenPair, error) {
	jti := uuid.NewString()
	now := time.Now().UTC()

	rt := model.RefreshToken{
		ID:        uuid.New(),
		JTI:       jti,
		UserID:    user.ID,
		CreatedAt: now,
		ExpiresAt: now.Add(s.manager.RefreshTTL()),
		Revoked:   false,
	}
	if err := s.store.Create(ctx, rt); err != nil {
		return model.TokenPair{}, fmt.Errorf("failed to persist refresh token: %w", err)
	}

	return s.signPair(user, jti)
}

// Rotate exchanges a presented refresh token for a new pair, permanently
// revoking the old record. A presented-but-revoked token is treated as a
// security event and refused with ErrTokenReused: the manager cannot tell
// a stolen-token replay from a legitimate client retrying an
// unacknowledged rotation, so it refuses both.
func (s *TokenLifecycle) Rotate(ctx context.Context, presented string) (model.TokenPair, model.User, error) {
	claims, err := s.manager.Parse(presented)
	if err != nil {
		return model.TokenPair{}, model.User{}, err
	}
	if claims.Type != model.TokenTypeRefresh {
		return model.TokenPair{}, model.User{}, fmt.Errorf("%w: wrong token type %q", model.ErrBadCredentials, claims.Type)
	}

	rt, err := s.store.GetByJTI(ctx, claims.JTI)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return model.TokenPair{}, model.User{}, fmt.Errorf("%w: refresh token not recognized", model.ErrBadCredentials)
		}
		return model.TokenPair{}, model.User{}, fmt.Errorf("failed to look up refresh token: %w", err)
	}

	if rt.Revoked {
		s.logger.Warn("Token lifecycle: revoked refresh token presented",
			"jti", rt.JTI,
			"user_id", rt.UserID)
		return model.TokenPair{}, model.User{}, model.ErrTokenReused
	}
	if rt.Expired(time.Now().UTC()) {
		return model.TokenPair{}, model.User{}, model.ErrTokenExpired
	}
	if rt.UserID != claims.UserID {
		return model.TokenPair{}, model.User{}, model.ErrOwnerMismatch
	}

	user, err := s.userStore.GetByID(ctx, rt.UserID)
	if err != nil {
		return model.TokenPair{}, model.User{}, fmt.Errorf("failed to load refresh token owner: %w", err)
	}

	// The child record inherits the parent's expiry: rotation never
	// extends the family window granted at first issue.
	next := model.RefreshToken{
		ID:        uuid.New(),
		JTI:       uuid.NewString(),
		UserID:    rt.UserID,
		CreatedAt: time.Now().UTC(),
		ExpiresAt: rt.ExpiresAt,
		Revoked:   false,
	}

	if err := s.store.RevokeAndChain(ctx, rt, next); err != nil {
		if errors.Is(err, model.ErrTokenReused) {
			s.logger.Warn("Token lifecycle: lost rotation race, treating as reuse",
				"jti", rt.JTI,
				"user_id", rt.UserID)
			return model.TokenPair{}, model.User{}, model.ErrTokenReused
		}
		return model.TokenPair{}, model.User{}, fmt.Errorf("failed to rotate refresh token: %w", err)
	}

	pair, err := s.signPair(user, next.JTI)
	if err != nil {
		return model.TokenPair{}, model.User{}, err
	}
	return pair, user, nil
}

// Revoke marks the record revoked. Revoking an already revoked or unknown
// jti is not an error; logout must never fail over token bookkeeping.
func (s *TokenLifecycle) Revoke(ctx context.Context, jti string) error {
	if err := s.store.Revoke(ctx, jti); err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("failed to revoke refresh token: %w", err)
	}
	return nil
}

// RevokeByToken parses the presented refresh token and revokes its record.
func (s *TokenLifecycle) RevokeByToken(ctx context.Context, presented string) error {
	claims, err := s.manager.Parse(presented)
	if err != nil {
		return err
	}
	if claims.Type != model.TokenTypeRefresh {
		return fmt.Errorf("%w: wrong token type %q", model.ErrBadCredentials, claims.Type)
	}
	return s.Revoke(ctx, claims.JTI)
}

// RevokeAllForUser revokes every live refresh record of userID. This is
// the escalation point for compromised chains.
func (s *TokenLifecycle) RevokeAllForUser(ctx context.Context, userID uuid.UUID) error {
	return s.store.RevokeAllByUser(ctx, userID)
}

// RefreshTTLSeconds returns the configured refresh lifetime in seconds,
// used by the boundary for the cookie max-age.
func (s *TokenLifecycle) RefreshTTLSeconds() int64 {
	return int64(s.manager.RefreshTTL().Seconds())
}

func (s *TokenLifecycle) signPair(user model.User, jti string) (model.TokenPair, error) {
	access, err := s.manager.GenerateAccessToken(user)
	if err != nil {
		return model.TokenPair{}, fmt.Errorf("failed to sign access token: %w", err)
	}
	refresh, err := s.manager.GenerateRefreshToken(user, jti)
	if err != nil {
		return model.TokenPair{}, fmt.Errorf("failed to sign refresh token: %w", err)
	}
	return model.TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int64(s.manager.AccessTTL().Seconds()),
	}, nil
}
