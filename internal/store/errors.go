package store

import "errors"

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("not found")

// ErrConflict is returned when a write violates a uniqueness constraint.
var ErrConflict = errors.New("conflict")

// ErrForbidden is returned when a record exists but belongs to another user.
var ErrForbidden = errors.New("forbidden")
