// Package service holds the persistence logic behind the HTTP handlers.
package service

import "errors"

var (
	// ErrNotFound is returned when the requested row does not exist
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when a unique value is already taken
	ErrConflict = errors.New("conflict")
	// ErrInvalidInput is returned when input references unknown rows
	ErrInvalidInput = errors.New("invalid input")
	// ErrInvalidCredentials is returned by Authenticate on a bad email/password
	ErrInvalidCredentials = errors.New("invalid credentials")
)
