package app

import "errors"

// ErrNotFound and related errors describe validation and runtime failures.
var (
	ErrNotFound           = errors.New("not found")
	ErrUnauthorized       = errors.New("session expired or unauthorized")
	ErrForbidden          = errors.New("forbidden")
	ErrConflict           = errors.New("already exists")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrNotSignedIn        = errors.New("not signed in")
	ErrWeakPassword       = errors.New("new password must be at least 8 characters")
	ErrSamePassword       = errors.New("new password must differ from the current password")
)
