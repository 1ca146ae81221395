package service

import "errors"

// Business errors surfaced to handlers.
var (
	// ErrNotOwner is returned when a user requests an owner-restricted view
	// of someone else's test session.
	ErrNotOwner = errors.New("test session belongs to another user")

	// ErrNotCompleted is returned when results are requested for a session
	// that has not been submitted yet.
	ErrNotCompleted = errors.New("test session is not completed")
)
