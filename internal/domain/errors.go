package domain

import "errors"

// Sentinel errors shared by repositories, services and handlers.
var (
	ErrNotFound          = errors.New("not found")
	ErrInvalidEvent      = errors.New("invalid scheduled event")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrNotDispatchable   = errors.New("event cannot be dispatched")
	ErrForbidden         = errors.New("forbidden")
)
