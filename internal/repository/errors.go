package repository

import "errors"

var (
	// ErrNotFound is returned when a requested entity doesn't exist
	ErrNotFound = errors.New("not found")

	// ErrTxDone is returned when a finished transaction is used again
	ErrTxDone = errors.New("transaction already committed or rolled back")
)
