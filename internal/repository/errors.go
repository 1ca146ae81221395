package repository

import "errors"

// Sentinel errors shared by all repositories. Services translate these into
// API error codes; anything else is treated as an internal error.
var (
	ErrNotFound         = errors.New("not found")
	ErrConflict         = errors.New("already exists")
	ErrAlreadySubmitted = errors.New("already submitted")
	ErrUnavailable      = errors.New("backing store unavailable")
)
