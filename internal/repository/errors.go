package repository

import "errors"

var (
	// ErrNotFound is returned when a requested entity doesn't exist
	ErrNotFound = errors.New("not found")

	// ErrForeignKeyViolation is returned when a foreign key constraint fails
	ErrForeignKeyViolation = errors.New("foreign key violation")

	// ErrStoreUnavailable is returned when the backing store cannot be reached or written
	ErrStoreUnavailable = errors.New("store unavailable")

	// ErrCorruptData is returned when a stored record cannot be decoded
	ErrCorruptData = errors.New("corrupt stored data")
)
