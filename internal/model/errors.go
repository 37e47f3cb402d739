package model

import "errors"

var (
	ErrNotFound       = errors.New("not found")
	ErrConflict       = errors.New("email already exists")
	ErrBadCredentials = errors.New("invalid email or password")
	ErrUserDisabled   = errors.New("user is disabled")
)
