package service

import "errors"

var (
	// ErrNotFound means the referenced entity does not exist.
	ErrNotFound = errors.New("not found")
	// ErrInvalidInput means the request failed domain validation.
	ErrInvalidInput = errors.New("invalid input")
	// ErrConflict means the request collides with existing state, such as a
	// unique field already being taken.
	ErrConflict = errors.New("conflict")
)
