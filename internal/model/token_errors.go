package model

import "errors"

// Signer failures, normalized from the JWT library.
var (
	ErrTokenExpired          = errors.New("token expired")
	ErrTokenMalformed        = errors.New("token malformed")
	ErrTokenSignatureInvalid = errors.New("token signature invalid")
	ErrTokenUnsupported      = errors.New("token unsupported")
)

// Lifecycle failures.
var (
	ErrTokenReused   = errors.New("refresh token reused")
	ErrOwnerMismatch = errors.New("refresh token does not belong to user")
)
