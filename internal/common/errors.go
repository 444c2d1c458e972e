// Package common defines shared constants and sentinel errors used across
// the client, the transport and the development node. Callers should use
// errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound      = errors.New("not found")
	ErrorAlreadyExists = errors.New("already exists")

	// Service-level errors.
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")

	// Validation errors.
	ErrorIncorrectMetadata = errors.New("incorrect metadata")
	ErrorSizeMismatch      = errors.New("size mismatch")

	// Auth errors (invalid or malformed upload token).
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)
