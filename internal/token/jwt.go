package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/identra/identra/internal/model"
)

// MinSecretLen is the minimum HMAC key length in bytes. A shorter key
// undermines every downstream guarantee, so construction fails fast.
const MinSecretLen = 64

// Claims is the signed claim set carried by both token types.
type Claims struct {
	jwt.RegisteredClaims
	UserID    uuid.UUID `json:"userId"`
	Roles     []string  `json:"roles,omitempty"`
	TokenType string    `json:"typ"`
}

// JWT implements model.TokenManager backed by symmetric HMAC-SHA256.
type JWT struct {
	secretKey  []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	issuer     string
}

var _ model.TokenManager = (*JWT)(nil)

// NewJWT creates a JWT token manager. It returns an error when the secret
// is shorter than MinSecretLen bytes.
func NewJWT(secret string, accessTTL, refreshTTL time.Duration, issuer string) (*JWT, error) {
	if len(secret) < MinSecretLen {
		return nil, fmt.Errorf("jwt secret must be at least %d bytes, got %d", MinSecretLen, len(secret))
	}
	return &JWT{
		secretKey:  []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		issuer:     issuer,
	}, nil
}

// GenerateAccessToken signs a short-lived self-contained access token.
// Access tokens carry the user's roles and are never persisted.
func (j *JWT) GenerateAccessToken(user model.User) (string, error) {
	now := time.Now()
	roles := user.Roles
	if roles == nil {
		roles = []string{}
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   user.Email,
			Issuer:    j.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(j.accessTTL)),
		},
		UserID:    user.ID,
		Roles:     roles,
		TokenType: string(model.TokenTypeAccess),
	})

	tokenString, err := token.SignedString(j.secretKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign access token: %w", err)
	}

	return tokenString, nil
}

// GenerateRefreshToken signs a refresh token bound to jti. The jti is
// chosen by the lifecycle manager so the signed token and the stored
// record always correlate.
func (j *JWT) GenerateRefreshToken(user model.User, jti string) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			Subject:   user.Email,
			Issuer:    j.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(j.refreshTTL)),
		},
		UserID:    user.ID,
		TokenType: string(model.TokenTypeRefresh),
	})

	tokenString, err := token.SignedString(j.secretKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign refresh token: %w", err)
	}

	return tokenString, nil
}

// Parse verifies the signature and returns the claim set. It does not
// enforce the token type; callers check Type for their own path. Library
// failures are normalized to the model sentinels.
func (j *JWT) Parse(tokenString string) (model.TokenClaims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("%w: signing method %v", model.ErrTokenUnsupported, t.Header["alg"])
		}
		return j.secretKey, nil
	})
	if err != nil {
		return model.TokenClaims{}, normalizeError(err)
	}
	if !token.Valid {
		return model.TokenClaims{}, model.ErrTokenMalformed
	}

	out := model.TokenClaims{
		JTI:     claims.ID,
		Subject: claims.Subject,
		UserID:  claims.UserID,
		Roles:   claims.Roles,
		Type:    model.TokenType(claims.TokenType),
		Issuer:  claims.Issuer,
	}
	if claims.IssuedAt != nil {
		out.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		out.ExpiresAt = claims.ExpiresAt.Time
	}
	return out, nil
}

// AccessTTL returns the configured access token lifetime.
func (j *JWT) AccessTTL() time.Duration {
	return j.accessTTL
}

// RefreshTTL returns the configured refresh token lifetime.
func (j *JWT) RefreshTTL() time.Duration {
	return j.refreshTTL
}

func normalizeError(err error) error {
	switch {
	case errors.Is(err, model.ErrTokenUnsupported):
		return model.ErrTokenUnsupported
	case errors.Is(err, jwt.ErrTokenExpired):
		return model.ErrTokenExpired
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return model.ErrTokenSignatureInvalid
	case errors.Is(err, jwt.ErrTokenMalformed):
		return model.ErrTokenMalformed
	default:
		return fmt.Errorf("%w: %v", model.ErrTokenMalformed, err)
	}
}
