package token

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/identra/identra/internal/model"
)

const testSecret = "0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef"

func newTestJWT(t *testing.T) *JWT {
	t.Helper()
	j, err := NewJWT(testSecret, 15*time.Minute, 30*24*time.Hour, "identra")
	require.NoError(t, err)
	return j
}

func TestNewJWT_RejectsShortSecret(t *testing.T) {
	_, err := NewJWT("short", time.Minute, time.Hour, "identra")
	require.Error(t, err)
}

func TestJWT_AccessToken_Roundtrip(t *testing.T) {
	j := newTestJWT(t)
	u := model.User{
		ID:    uuid.New(),
		Email: "user@example.com",
		Roles: []string{"user", "admin"},
	}

	access, err := j.GenerateAccessToken(u)
	require.NoError(t, err)

	claims, err := j.Parse(access)
	require.NoError(t, err)
	require.Equal(t, u.ID, claims.UserID)
	require.Equal(t, u.Email, claims.Subject)
	require.Equal(t, []string{"user", "admin"}, claims.Roles)
	require.Equal(t, model.TokenTypeAccess, claims.Type)
	require.Equal(t, "identra", claims.Issuer)
	require.NotEmpty(t, claims.JTI)
}

func TestJWT_RefreshToken_Roundtrip(t *testing.T) {
	j := newTestJWT(t)
	u := model.User{ID: uuid.New(), Email: "user@example.com"}
	jti := uuid.NewString()

	refresh, err := j.GenerateRefreshToken(u, jti)
	require.NoError(t, err)

	claims, err := j.Parse(refresh)
	require.NoError(t, err)
	require.Equal(t, jti, claims.JTI)
	require.Equal(t, u.ID, claims.UserID)
	require.Equal(t, model.TokenTypeRefresh, claims.Type)
}

func TestJWT_Parse_DoesNotEnforceType(t *testing.T) {
	j := newTestJWT(t)
	u := model.User{ID: uuid.New(), Email: "user@example.com"}

	access, err := j.GenerateAccessToken(u)
	require.NoError(t, err)

	claims, err := j.Parse(access)
	require.NoError(t, err)
	require.Equal(t, model.TokenTypeAccess, claims.Type)
}

func TestJWT_Parse_Expired(t *testing.T) {
	j, err := NewJWT(testSecret, -time.Minute, -time.Minute, "identra")
	require.NoError(t, err)
	u := model.User{ID: uuid.New(), Email: "user@example.com"}

	access, err := j.GenerateAccessToken(u)
	require.NoError(t, err)

	_, err = j.Parse(access)
	require.ErrorIs(t, err, model.ErrTokenExpired)
}

func TestJWT_Parse_TamperedSignature(t *testing.T) {
	j := newTestJWT(t)
	u := model.User{ID: uuid.New(), Email: "user@example.com"}

	access, err := j.GenerateAccessToken(u)
	require.NoError(t, err)

	parts := strings.Split(access, ".")
	require.Len(t, parts, 3)
	tampered := parts[0] + "." + parts[1] + "." + "AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA"

	_, err = j.Parse(tampered)
	require.ErrorIs(t, err, model.ErrTokenSignatureInvalid)
}

func TestJWT_Parse_WrongKey(t *testing.T) {
	j := newTestJWT(t)
	other, err := NewJWT(strings.Repeat("x", 64), time.Minute, time.Hour, "identra")
	require.NoError(t, err)

	access, err := other.GenerateAccessToken(model.User{ID: uuid.New(), Email: "user@example.com"})
	require.NoError(t, err)

	_, err = j.Parse(access)
	require.ErrorIs(t, err, model.ErrTokenSignatureInvalid)
}

func TestJWT_Parse_Malformed(t *testing.T) {
	j := newTestJWT(t)

	_, err := j.Parse("not.a.token")
	require.ErrorIs(t, err, model.ErrTokenMalformed)
}

func TestJWT_Parse_UnsignedAlgorithm(t *testing.T) {
	j := newTestJWT(t)

	// alg=none token: {"alg":"none","typ":"JWT"}.{"sub":"x"}.
	unsigned := "eyJhbGciOiJub25lIiwidHlwIjoiSldUIn0.eyJzdWIiOiJ4In0."
	_, err := j.Parse(unsigned)
	require.Error(t, err)
}

func TestJWT_TTLAccessors(t *testing.T) {
	j := newTestJWT(t)
	require.Equal(t, 15*time.Minute, j.AccessTTL())
	require.Equal(t, 30*24*time.Hour, j.RefreshTTL())
}
