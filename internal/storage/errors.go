package storage

import "errors"

var (
	// ErrNotFound is returned when the requested record does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrEmailTaken is returned when an email address is already registered.
	ErrEmailTaken = errors.New("email already registered")

	// ErrResetTokenInvalid is returned when a password-reset token does not
	// match any account or has expired. Callers cannot distinguish the two.
	ErrResetTokenInvalid = errors.New("invalid or expired reset token")
)
