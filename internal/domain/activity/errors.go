package activity

import (
	"errors"
	"fmt"
)

var (
	// ErrStorage wraps any failure of the underlying storage: write, commit or connectivity.
	ErrStorage = errors.New("activity storage failure")
	// ErrDeserialization indicates a stored payload could not be decoded into an Activity.
	ErrDeserialization = errors.New("activity payload could not be decoded")
	// ErrInvalidInput indicates invalid input for activity operations.
	ErrInvalidInput = errors.New("invalid activity input")
	// ErrStopWalk is returned by a Visitor to end a walk early without error.
	ErrStopWalk = errors.New("stop walk")
)

func storageError(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrStorage, op, err)
}
