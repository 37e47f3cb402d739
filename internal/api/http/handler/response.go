package handler

import (
	"time"

	"github.com/identra/identra/internal/model"
)

// UserResponse is the public projection of a user record.
type UserResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Image     string    `json:"image,omitempty"`
	Gender    string    `json:"gender,omitempty"`
	Enabled   bool      `json:"enabled"`
	Provider  string    `json:"provider"`
	Roles     []string  `json:"roles"`
	CreatedAt time.Time `json:"createdAt"`
}

// TokenResponse is the body returned on successful issuance or rotation.
type TokenResponse struct {
	AccessToken  string       `json:"accessToken"`
	RefreshToken string       `json:"refreshToken"`
	ExpiresIn    int64        `json:"expiresIn"`
	TokenType    string       `json:"tokenType"`
	User         UserResponse `json:"user"`
}

func toUserResponse(user model.User) UserResponse {
	roles := user.Roles
	if roles == nil {
		roles = []string{}
	}
	return UserResponse{
		ID:        user.ID.String(),
		Name:      user.Name,
		Email:     user.Email,
		Image:     user.Image,
		Gender:    user.Gender,
		Enabled:   user.Enabled,
		Provider:  string(user.Provider),
		Roles:     roles,
		CreatedAt: user.CreatedAt,
	}
}

func toTokenResponse(pair model.TokenPair, user model.User) TokenResponse {
	return TokenResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		ExpiresIn:    pair.ExpiresIn,
		TokenType:    string(model.TokenTypeAccess),
		User:         toUserResponse(user),
	}
}
