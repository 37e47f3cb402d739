package middleware

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/identra/identra/internal/api/http/handler"
	"github.com/identra/identra/internal/api/http/httpctx"
	"github.com/identra/identra/internal/mocks"
	"github.com/identra/identra/internal/model"
	"github.com/identra/identra/internal/testutil"
)

func TestAuthenticate_Handle(t *testing.T) {
	gin.SetMode(gin.TestMode)

	userID := uuid.New()
	enabledUser := model.User{
		ID:      userID,
		Email:   "alice@example.com",
		Enabled: true,
		Roles:   []string{"user"},
	}
	accessClaims := model.TokenClaims{
		Subject: "alice@example.com",
		UserID:  userID,
		Roles:   []string{"user"},
		Type:    model.TokenTypeAccess,
	}

	tests := []struct {
		name          string
		authHeader    string
		setupMocks    func(*mocks.TokenManager, *mocks.UserStore)
		wantStatus    int
		wantPrincipal bool
	}{
		{
			name:          "no header passes through unauthenticated",
			authHeader:    "",
			setupMocks:    func(m *mocks.TokenManager, us *mocks.UserStore) {},
			wantStatus:    http.StatusOK,
			wantPrincipal: false,
		},
		{
			name:          "non-bearer header passes through unauthenticated",
			authHeader:    "Basic dXNlcjpwYXNz",
			setupMocks:    func(m *mocks.TokenManager, us *mocks.UserStore) {},
			wantStatus:    http.StatusOK,
			wantPrincipal: false,
		},
		{
			name:       "malformed token passes through unauthenticated",
			authHeader: "Bearer garbage",
			setupMocks: func(m *mocks.TokenManager, us *mocks.UserStore) {
				m.On("Parse", "garbage").Return(model.TokenClaims{}, model.ErrTokenMalformed)
			},
			wantStatus:    http.StatusOK,
			wantPrincipal: false,
		},
		{
			name:       "invalid signature is rejected",
			authHeader: "Bearer forged",
			setupMocks: func(m *mocks.TokenManager, us *mocks.UserStore) {
				m.On("Parse", "forged").Return(model.TokenClaims{}, model.ErrTokenSignatureInvalid)
			},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "expired token is rejected",
			authHeader: "Bearer expired",
			setupMocks: func(m *mocks.TokenManager, us *mocks.UserStore) {
				m.On("Parse", "expired").Return(model.TokenClaims{}, model.ErrTokenExpired)
			},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "refresh token passes through unauthenticated",
			authHeader: "Bearer refresh-token",
			setupMocks: func(m *mocks.TokenManager, us *mocks.UserStore) {
				claims := accessClaims
				claims.Type = model.TokenTypeRefresh
				m.On("Parse", "refresh-token").Return(claims, nil)
			},
			wantStatus:    http.StatusOK,
			wantPrincipal: false,
		},
		{
			name:       "deleted user is rejected",
			authHeader: "Bearer valid",
			setupMocks: func(m *mocks.TokenManager, us *mocks.UserStore) {
				m.On("Parse", "valid").Return(accessClaims, nil)
				us.On("GetByEmail", mock.Anything, "alice@example.com").Return(model.User{}, model.ErrNotFound)
			},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "disabled user is rejected",
			authHeader: "Bearer valid",
			setupMocks: func(m *mocks.TokenManager, us *mocks.UserStore) {
				disabled := enabledUser
				disabled.Enabled = false
				m.On("Parse", "valid").Return(accessClaims, nil)
				us.On("GetByEmail", mock.Anything, "alice@example.com").Return(disabled, nil)
			},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "valid token sets principal",
			authHeader: "Bearer valid",
			setupMocks: func(m *mocks.TokenManager, us *mocks.UserStore) {
				m.On("Parse", "valid").Return(accessClaims, nil)
				us.On("GetByEmail", mock.Anything, "alice@example.com").Return(enabledUser, nil)
			},
			wantStatus:    http.StatusOK,
			wantPrincipal: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			manager := mocks.NewTokenManager(t)
			userStore := mocks.NewUserStore(t)
			tt.setupMocks(manager, userStore)

			ctxMgr := httpctx.NewManager()
			mw := NewAuthenticate(manager, userStore, ctxMgr, testutil.MakeNoopLogger())

			var gotPrincipal model.Principal
			var hasPrincipal bool

			engine := gin.New()
			engine.Use(mw.Handle())
			engine.GET("/probe", func(c *gin.Context) {
				gotPrincipal, hasPrincipal = ctxMgr.GetPrincipal(c.Request.Context())
				c.Status(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodGet, "/probe", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}
			rec := httptest.NewRecorder()
			engine.ServeHTTP(rec, req)

			require.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantPrincipal, hasPrincipal)
			if tt.wantPrincipal {
				assert.Equal(t, userID.String(), gotPrincipal.UserID)
				assert.Equal(t, "alice@example.com", gotPrincipal.Email)
				assert.Equal(t, []string{"user"}, gotPrincipal.Roles)
			}
		})
	}
}

func TestAuthenticate_Handle_RejectionBodyIsNormalized(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name        string
		parseErr    error
		wantMessage string
	}{
		{
			name:        "unsupported algorithm hides internals",
			parseErr:    fmt.Errorf("%w: signing method none", model.ErrTokenUnsupported),
			wantMessage: "invalid credentials",
		},
		{
			name:        "invalid signature",
			parseErr:    model.ErrTokenSignatureInvalid,
			wantMessage: "invalid credentials",
		},
		{
			name:        "expired token",
			parseErr:    model.ErrTokenExpired,
			wantMessage: "token expired",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			manager := mocks.NewTokenManager(t)
			userStore := mocks.NewUserStore(t)
			manager.On("Parse", "rejected").Return(model.TokenClaims{}, tt.parseErr)

			mw := NewAuthenticate(manager, userStore, httpctx.NewManager(), testutil.MakeNoopLogger())

			engine := gin.New()
			engine.Use(mw.Handle())
			engine.GET("/probe", func(c *gin.Context) { c.Status(http.StatusOK) })

			req := httptest.NewRequest(http.MethodGet, "/probe", nil)
			req.Header.Set("Authorization", "Bearer rejected")
			rec := httptest.NewRecorder()
			engine.ServeHTTP(rec, req)

			require.Equal(t, http.StatusUnauthorized, rec.Code)

			var got handler.ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
			assert.Equal(t, tt.wantMessage, got.Message)
			assert.NotContains(t, got.Message, "signing method")
		})
	}
}

func TestAuthenticate_RequireAuth(t *testing.T) {
	gin.SetMode(gin.TestMode)

	manager := mocks.NewTokenManager(t)
	userStore := mocks.NewUserStore(t)
	ctxMgr := httpctx.NewManager()
	mw := NewAuthenticate(manager, userStore, ctxMgr, testutil.MakeNoopLogger())

	engine := gin.New()
	engine.GET("/protected", mw.RequireAuth(), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
