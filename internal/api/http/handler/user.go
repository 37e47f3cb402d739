package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/identra/identra/internal/logger"
	"github.com/identra/identra/internal/model"
)

// UserService defines user lookup and administration operations.
type UserService interface {
	GetByID(ctx context.Context, id uuid.UUID) (model.User, error)
	GetByEmail(ctx context.Context, email string) (model.User, error)
	List(ctx context.Context) ([]model.User, error)
	Update(ctx context.Context, id uuid.UUID, upd model.UserUpdate) (model.User, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// User handles HTTP endpoints for user administration.
type User struct {
	userService    UserService
	contextManager model.ContextManager
	logger         *logger.Logger
}

// NewUser creates a new User handler.
func NewUser(userService UserService, contextManager model.ContextManager, logger *logger.Logger) *User {
	return &User{
		userService:    userService,
		contextManager: contextManager,
		logger:         logger,
	}
}

// UpdateUserRequest is the user update body; absent fields stay
// unchanged.
type UpdateUserRequest struct {
	Name   *string `json:"name"`
	Gender *string `json:"gender"`
	Image  *string `json:"image"`
}

// Me returns the authenticated user.
func (h *User) Me(c *gin.Context) {
	principal, ok := h.contextManager.GetPrincipal(c.Request.Context())
	if !ok {
		AbortWithError(c, http.StatusUnauthorized, "authentication required")
		return
	}

	user, err := h.userService.GetByEmail(c.Request.Context(), principal.Email)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, toUserResponse(user))
}

// List returns all users.
func (h *User) List(c *gin.Context) {
	users, err := h.userService.List(c.Request.Context())
	if err != nil {
		handleError(c, err)
		return
	}

	out := make([]UserResponse, 0, len(users))
	for _, u := range users {
		out = append(out, toUserResponse(u))
	}
	c.JSON(http.StatusOK, out)
}

// GetByID returns one user by id.
func (h *User) GetByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		AbortWithError(c, http.StatusBadRequest, "invalid user id")
		return
	}

	user, err := h.userService.GetByID(c.Request.Context(), id)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, toUserResponse(user))
}

// GetByEmail returns one user by email.
func (h *User) GetByEmail(c *gin.Context) {
	user, err := h.userService.GetByEmail(c.Request.Context(), c.Param("email"))
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, toUserResponse(user))
}

// Update applies a partial update to a user.
func (h *User) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		AbortWithError(c, http.StatusBadRequest, "invalid user id")
		return
	}

	var req UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handleBindError(c, err)
		return
	}

	user, err := h.userService.Update(c.Request.Context(), id, model.UserUpdate{
		Name:   req.Name,
		Gender: req.Gender,
		Image:  req.Image,
	})
	if err != nil {
		h.logger.Error("User handler: update failed",
			"user_id", id,
			"error", err.Error())
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, toUserResponse(user))
}

// Delete removes a user.
func (h *User) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		AbortWithError(c, http.StatusBadRequest, "invalid user id")
		return
	}

	if err := h.userService.Delete(c.Request.Context(), id); err != nil {
		h.logger.Error("User handler: delete failed",
			"user_id", id,
			"error", err.Error())
		handleError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
