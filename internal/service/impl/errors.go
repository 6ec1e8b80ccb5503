package impl

import "errors"

var (
	ErrInvalidRequest = errors.New("invalid request")
	ErrNotFound       = errors.New("not found")
	ErrForbidden      = errors.New("forbidden")
	ErrConflict       = errors.New("conflict")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrUnavailable    = errors.New("service unavailable")

	ErrEmptyPassword = errors.New("empty password")
	ErrInvalidToken  = errors.New("invalid token")
)
