package model

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// UserStore defines persistence operations for users.
type UserStore interface {
	GetByEmail(ctx context.Context, email string) (User, error)
	GetByID(ctx context.Context, id uuid.UUID) (User, error)
	List(ctx context.Context) ([]User, error)
	Create(ctx context.Context, user User) (User, error)
	Update(ctx context.Context, user User) (User, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// Provider identifies where a user's identity was first established.
type Provider string

const (
	ProviderLocal  Provider = "local"
	ProviderGoogle Provider = "google"
	ProviderGitHub Provider = "github"
)

// User represents a stored user. PasswordHash is empty for federated users.
type User struct {
	ID           uuid.UUID
	Name         string
	Email        string
	PasswordHash string
	Image        string
	Gender       string
	Enabled      bool
	Provider     Provider
	ProviderID   string
	Roles        []string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// UserUpdate carries the mutable user fields. Nil means "leave unchanged".
type UserUpdate struct {
	Name   *string
	Gender *string
	Image  *string
}

// ApplyUpdate returns a copy of user with the non-nil fields of upd applied.
// The stored record itself is only ever mutated by the persistence layer.
func ApplyUpdate(user User, upd UserUpdate) User {
	if upd.Name != nil {
		user.Name = *upd.Name
	}
	if upd.Gender != nil {
		user.Gender = *upd.Gender
	}
	if upd.Image != nil {
		user.Image = *upd.Image
	}
	return user
}
