package directory

import (
	"errors"
	"fmt"
)

var (
	ErrDuplicateAccountID = errors.New("account ID already exists")
	ErrInvalidAccountID   = errors.New("invalid account ID")
	ErrNotFound           = errors.New("customer not found")
	// ErrPersistence marks a failed write to the record store. The
	// in-memory directory has already changed when it is returned.
	ErrPersistence = errors.New("persisting directory failed")
)

// PersistError wraps a record store failure.
type PersistError struct {
	Err error
}

func (e *PersistError) Error() string {
	return fmt.Sprintf("%s: %v", ErrPersistence, e.Err)
}

func (e *PersistError) Unwrap() []error {
	return []error{ErrPersistence, e.Err}
}
