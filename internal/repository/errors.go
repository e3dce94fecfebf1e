package repository

import "errors"

var (
	// ErrNotFound indicates the requested record does not exist or is inactive.
	ErrNotFound = errors.New("repository: not found")
	// ErrConflict indicates a concurrent write was detected during a conditional update.
	ErrConflict = errors.New("repository: conflict")
)
