package auth

import "errors"

var (
	ErrNotFound        = errors.New("auth: not found")
	ErrConflict        = errors.New("auth: already exists")
	ErrInvalidInput    = errors.New("auth: invalid input")
	ErrInvalidToken    = errors.New("auth: invalid token")
	ErrUnauthenticated = errors.New("auth: unauthenticated")
	ErrForbidden       = errors.New("auth: forbidden")
	ErrRateLimited     = errors.New("auth: rate limited")
	ErrWeakPassword    = errors.New("auth: password too weak")
)
