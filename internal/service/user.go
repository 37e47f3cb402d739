package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/identra/identra/internal/logger"
	"github.com/identra/identra/internal/model"
)

// User provides user lookup and administration on top of the store.
type User struct {
	userStore model.UserStore
	logger    *logger.Logger
}

func NewUser(userStore model.UserStore, logger *logger.Logger) *User {
	return &User{userStore: userStore, logger: logger}
}

func (s *User) GetByID(ctx context.Context, id uuid.UUID) (model.User, error) {
	return s.userStore.GetByID(ctx, id)
}

func (s *User) GetByEmail(ctx context.Context, email string) (model.User, error) {
	return s.userStore.GetByEmail(ctx, email)
}

func (s *User) List(ctx context.Context) ([]model.User, error) {
	return s.userStore.List(ctx)
}

// Update loads the current record, applies the immutable update value and
// hands the result to the store, which is the only mutator of durable
// state.
func (s *User) Update(ctx context.Context, id uuid.UUID, upd model.UserUpdate) (model.User, error) {
	current, err := s.userStore.GetByID(ctx, id)
	if err != nil {
		return model.User{}, err
	}

	updated, err := s.userStore.Update(ctx, model.ApplyUpdate(current, upd))
	if err != nil {
		return model.User{}, err
	}

	s.logger.Info("User service: user updated",
		"user_id", id)
	return updated, nil
}

func (s *User) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.userStore.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("User service: user deleted",
		"user_id", id)
	return nil
}
