package cart

import (
	"errors"
	"fmt"
)

var (
	// ErrSnapshotNotFound is returned by Storage.Load when no cart was saved under the key.
	ErrSnapshotNotFound = errors.New("cart snapshot not found")
	// ErrMalformedSnapshot marks a stored payload that cannot be decoded into line items.
	ErrMalformedSnapshot = errors.New("malformed cart snapshot")
	// ErrNotPersisted matches any *PersistError.
	ErrNotPersisted = errors.New("cart change not persisted")
)

// PersistError reports that a mutation was applied in memory but the snapshot
// could not be written, even after a retry.
type PersistError struct {
	Key     string
	Backend string
	Err     error
}

func (e *PersistError) Error() string {
	return fmt.Sprintf("persist cart %s to %s: %v", e.Key, e.Backend, e.Err)
}

func (e *PersistError) Unwrap() error { return e.Err }

func (e *PersistError) Is(target error) bool { return target == ErrNotPersisted }
