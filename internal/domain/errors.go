package domain

import "errors"

var (
	ErrInvalidID       = errors.New("invalid id")
	ErrInvalidTitle    = errors.New("invalid title")
	ErrInvalidStatus   = errors.New("invalid status")
	ErrInvalidPriority = errors.New("invalid priority")
	ErrInvalidToken    = errors.New("invalid token")
	ErrInvalidInput    = errors.New("invalid input")
)
