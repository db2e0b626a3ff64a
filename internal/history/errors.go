package history

import (
	"errors"
	"fmt"
)

var (
	ErrLockTimeout = errors.New("history is locked by another process")
	ErrCorrupt     = errors.New("history file is corrupt")
)

// StoreError records which operation on the history file failed.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("history %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}
