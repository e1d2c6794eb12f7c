package domain

import "errors"

// Common domain errors
var (
	// ErrValidation is returned when input validation fails
	ErrValidation = errors.New("validation error")
	// ErrNotFound is returned when a referenced resource does not exist
	ErrNotFound = errors.New("resource not found")
	// ErrConflict is returned when an operation collides with existing state,
	// e.g. a duplicate active link or an already-present relation.
	ErrConflict = errors.New("conflict")
	// ErrDependency is returned when a repository or store call itself fails
	ErrDependency = errors.New("dependency failure")
	// ErrParse is surfaced from the external notification parser
	ErrParse = errors.New("parse failure")
)
