package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/identra/identra/internal/api/http/cookie"
	"github.com/identra/identra/internal/logger"
	"github.com/identra/identra/internal/model"
	"github.com/identra/identra/internal/oauth"
	"github.com/identra/identra/internal/service"
)

// AuthService defines registration and login operations.
type AuthService interface {
	Register(ctx context.Context, params service.RegisterParams) (model.User, error)
	Login(ctx context.Context, email, password string) (model.TokenPair, model.User, error)
	FederatedLogin(ctx context.Context, ident model.ExternalIdentity) (model.TokenPair, model.User, error)
	Logout(ctx context.Context, presentedRefresh string)
	LogoutAll(ctx context.Context, userID uuid.UUID) error
}

// TokenService defines token rotation.
type TokenService interface {
	Rotate(ctx context.Context, presented string) (model.TokenPair, model.User, error)
	RefreshTTLSeconds() int64
}

// Auth handles HTTP endpoints for authentication.
type Auth struct {
	authService    AuthService
	tokenService   TokenService
	providers      *oauth.Registry
	cookies        *cookie.Manager
	contextManager model.ContextManager
	logger         *logger.Logger
}

// NewAuth creates a new Auth handler.
func NewAuth(
	authService AuthService,
	tokenService TokenService,
	providers *oauth.Registry,
	cookies *cookie.Manager,
	contextManager model.ContextManager,
	logger *logger.Logger,
) *Auth {
	return &Auth{
		authService:    authService,
		tokenService:   tokenService,
		providers:      providers,
		cookies:        cookies,
		contextManager: contextManager,
		logger:         logger,
	}
}

// RegisterRequest is the register request body.
type RegisterRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	Gender   string `json:"gender"`
}

// LoginRequest is the login request body.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// OAuthCallbackRequest carries the verified attribute map produced by the
// provider handshake, which happens upstream of this service.
type OAuthCallbackRequest struct {
	Attributes map[string]any `json:"attributes" binding:"required"`
}

// Register creates a local user.
func (h *Auth) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handleBindError(c, err)
		return
	}

	user, err := h.authService.Register(c.Request.Context(), service.RegisterParams{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Gender:   req.Gender,
	})
	if err != nil {
		h.logger.Error("Auth handler: registration failed",
			"email", req.Email,
			"error", err.Error())
		handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, toUserResponse(user))
}

// Login authenticates with email and password and issues a token pair.
// The refresh token travels both in the body (for cookie-less clients)
// and as the HTTP-only refresh cookie.
func (h *Auth) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handleBindError(c, err)
		return
	}

	pair, user, err := h.authService.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.logger.Error("Auth handler: login failed",
			"email", req.Email,
			"error", err.Error())
		handleError(c, err)
		return
	}

	h.attachPair(c, pair)
	c.JSON(http.StatusOK, toTokenResponse(pair, user))
}

// OAuthCallback finishes a federated login for a verified external
// identity.
func (h *Auth) OAuthCallback(c *gin.Context) {
	provider := model.Provider(c.Param("provider"))
	if !h.providers.Supported(provider) {
		AbortWithError(c, http.StatusNotFound, "unsupported oauth provider")
		return
	}

	var req OAuthCallbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handleBindError(c, err)
		return
	}

	ident, err := h.providers.Extract(provider, req.Attributes)
	if err != nil {
		handleError(c, err)
		return
	}

	pair, user, err := h.authService.FederatedLogin(c.Request.Context(), ident)
	if err != nil {
		h.logger.Error("Auth handler: federated login failed",
			"provider", provider,
			"error", err.Error())
		handleError(c, err)
		return
	}

	h.attachPair(c, pair)
	c.JSON(http.StatusOK, toTokenResponse(pair, user))
}

// Refresh rotates the refresh token presented in the cookie and returns a
// new pair.
func (h *Auth) Refresh(c *gin.Context) {
	presented := h.cookies.Read(c.Request)
	if presented == "" {
		AbortWithError(c, http.StatusUnauthorized, "refresh token missing")
		return
	}

	pair, user, err := h.tokenService.Rotate(c.Request.Context(), presented)
	if err != nil {
		h.logger.Error("Auth handler: token rotation failed",
			"error", err.Error())
		handleError(c, err)
		return
	}

	h.attachPair(c, pair)
	c.JSON(http.StatusOK, toTokenResponse(pair, user))
}

// Logout clears the refresh cookie and best-effort revokes the record.
// It always succeeds, even when the cookie was absent or the record was
// already revoked.
func (h *Auth) Logout(c *gin.Context) {
	presented := h.cookies.Read(c.Request)
	h.authService.Logout(c.Request.Context(), presented)

	h.cookies.Clear(c.Writer)
	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}

// LogoutAll revokes every live refresh token of the authenticated user.
func (h *Auth) LogoutAll(c *gin.Context) {
	principal, ok := h.contextManager.GetPrincipal(c.Request.Context())
	if !ok {
		AbortWithError(c, http.StatusUnauthorized, "authentication required")
		return
	}

	userID, err := uuid.Parse(principal.UserID)
	if err != nil {
		AbortWithError(c, http.StatusUnauthorized, "invalid principal")
		return
	}

	if err := h.authService.LogoutAll(c.Request.Context(), userID); err != nil {
		h.logger.Error("Auth handler: logout-all failed",
			"user_id", principal.UserID,
			"error", err.Error())
		handleError(c, err)
		return
	}

	h.cookies.Clear(c.Writer)
	c.JSON(http.StatusOK, gin.H{"message": "all sessions revoked"})
}

func (h *Auth) attachPair(c *gin.Context, pair model.TokenPair) {
	ttl := time.Duration(h.tokenService.RefreshTTLSeconds()) * time.Second
	h.cookies.Attach(c.Writer, pair.RefreshToken, ttl)
}
