package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/identra/identra/internal/logger"
	"github.com/identra/identra/internal/model"
)

const defaultRole = "user"

// Auth implements password and federated login on top of the token
// lifecycle. Password verification is a one-way bcrypt check; federated
// callers arrive with an already verified external identity.
type Auth struct {
	userStore model.UserStore
	tokens    *TokenLifecycle
	logger    *logger.Logger
}

func NewAuth(userStore model.UserStore, tokens *TokenLifecycle, logger *logger.Logger) *Auth {
	return &Auth{
		userStore: userStore,
		tokens:    tokens,
		logger:    logger,
	}
}

// RegisterParams carries the fields needed to create a local user.
type RegisterParams struct {
	Name     string
	Email    string
	Password string
	Gender   string
}

// Register creates a local, enabled user with a hashed password.
func (a *Auth) Register(ctx context.Context, params RegisterParams) (model.User, error) {
	a.logger.Debug("Auth service: registering user",
		"email", params.Email)

	hash, err := bcrypt.GenerateFromPassword([]byte(params.Password), bcrypt.DefaultCost)
	if err != nil {
		return model.User{}, fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now().UTC()
	user, err := a.userStore.Create(ctx, model.User{
		ID:           uuid.New(),
		Name:         params.Name,
		Email:        params.Email,
		PasswordHash: string(hash),
		Gender:       params.Gender,
		Enabled:      true,
		Provider:     model.ProviderLocal,
		Roles:        []string{defaultRole},
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		return model.User{}, err
	}

	a.logger.Info("Auth service: user registered",
		"user_id", user.ID,
		"email", user.Email)
	return user, nil
}

// Login verifies the password and issues a token pair. Unknown emails and
// wrong passwords collapse into the same ErrBadCredentials.
func (a *Auth) Login(ctx context.Context, email, password string) (model.TokenPair, model.User, error) {
	user, err := a.userStore.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return model.TokenPair{}, model.User{}, model.ErrBadCredentials
		}
		return model.TokenPair{}, model.User{}, fmt.Errorf("failed to get user by email: %w", err)
	}

	if user.PasswordHash == "" {
		// Federated account with no local password.
		return model.TokenPair{}, model.User{}, model.ErrBadCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return model.TokenPair{}, model.User{}, model.ErrBadCredentials
	}
	if !user.Enabled {
		return model.TokenPair{}, model.User{}, model.ErrUserDisabled
	}

	pair, err := a.tokens.Issue(ctx, user)
	if err != nil {
		return model.TokenPair{}, model.User{}, err
	}

	a.logger.Info("Auth service: user logged in",
		"user_id", user.ID,
		"email", user.Email)
	return pair, user, nil
}

// ResolveOrCreate maps a verified external identity to a persisted user,
// creating an enabled, passwordless user on first federated login. It is
// idempotent by email; the unique index on email backstops concurrent
// first logins, the loser surfaces ErrConflict.
func (a *Auth) ResolveOrCreate(ctx context.Context, ident model.ExternalIdentity) (model.User, error) {
	existing, err := a.userStore.GetByEmail(ctx, ident.Email)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, model.ErrNotFound) {
		return model.User{}, fmt.Errorf("failed to get user by email: %w", err)
	}

	now := time.Now().UTC()
	user, err := a.userStore.Create(ctx, model.User{
		ID:         uuid.New(),
		Name:       ident.Name,
		Email:      ident.Email,
		Image:      ident.AvatarURL,
		Enabled:    true,
		Provider:   ident.Provider,
		ProviderID: ident.SubjectID,
		Roles:      []string{defaultRole},
		CreatedAt:  now,
		UpdatedAt:  now,
	})
	if err != nil {
		return model.User{}, err
	}

	a.logger.Info("Auth service: user created via federated login",
		"user_id", user.ID,
		"provider", user.Provider)
	return user, nil
}

// FederatedLogin resolves the identity and issues a token pair.
func (a *Auth) FederatedLogin(ctx context.Context, ident model.ExternalIdentity) (model.TokenPair, model.User, error) {
	user, err := a.ResolveOrCreate(ctx, ident)
	if err != nil {
		return model.TokenPair{}, model.User{}, err
	}
	if !user.Enabled {
		return model.TokenPair{}, model.User{}, model.ErrUserDisabled
	}

	pair, err := a.tokens.Issue(ctx, user)
	if err != nil {
		return model.TokenPair{}, model.User{}, err
	}
	return pair, user, nil
}

// Logout best-effort revokes the presented refresh token. Failures are
// logged and swallowed: the client session always ends.
func (a *Auth) Logout(ctx context.Context, presentedRefresh string) {
	if presentedRefresh == "" {
		return
	}
	if err := a.tokens.RevokeByToken(ctx, presentedRefresh); err != nil {
		a.logger.Warn("Auth service: failed to revoke refresh token on logout",
			"error", err.Error())
	}
}

// LogoutAll revokes every live refresh token of userID.
func (a *Auth) LogoutAll(ctx context.Context, userID uuid.UUID) error {
	return a.tokens.RevokeAllForUser(ctx, userID)
}
