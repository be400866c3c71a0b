// Package services holds the access, ledger, and reset-request operations
// that the HTTP handlers and the operator CLI call.
package services

import "errors"

var (
	// ErrInvalidCredentials covers both an unknown username and a wrong password.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrAlreadyExists indicates the username is already registered.
	ErrAlreadyExists = errors.New("user already exists")
	// ErrNotNumeric indicates a transaction amount that is not a real number.
	ErrNotNumeric = errors.New("amount is not numeric")
	// ErrOutOfRange indicates a transaction that would push an allocation
	// beyond what the ledger can represent.
	ErrOutOfRange = errors.New("allocation out of range")
	// ErrInvalidInput indicates a request missing a required value.
	ErrInvalidInput = errors.New("invalid input")
)
