package model

import (
	"time"

	"github.com/google/uuid"
)

// TokenType discriminates access from refresh tokens. Verification never
// enforces it; every caller checks the type for its own path.
type TokenType string

const (
	TokenTypeAccess  TokenType = "access"
	TokenTypeRefresh TokenType = "refresh"
)

// TokenManager signs and verifies access/refresh tokens.
type TokenManager interface {
	GenerateAccessToken(user User) (string, error)
	GenerateRefreshToken(user User, jti string) (string, error)
	Parse(token string) (TokenClaims, error)
	AccessTTL() time.Duration
	RefreshTTL() time.Duration
}

// TokenClaims is the verified claim set of a signed token.
type TokenClaims struct {
	JTI       string
	Subject   string
	UserID    uuid.UUID
	Roles     []string
	Type      TokenType
	Issuer    string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// TokenPair is one issued access/refresh pair. ExpiresIn is the access
// token lifetime in seconds.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    int64
}
