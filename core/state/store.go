package state

import (
	"context"
	"errors"
	"fmt"
)

// ErrNotFound is returned by Store.Get when the user has no session.
var ErrNotFound = errors.New("state: session not found")

var errNilSession = errors.New("nil session")

// StorageError wraps a backend failure. A turn that hits it is not committed.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("state: storage %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// Store maps a user id to its session. Implementations hand out copies:
// mutating a returned Session has no effect until Put.
type Store interface {
	// Get returns ErrNotFound when the user has no session.
	Get(ctx context.Context, userID int64) (*Session, error)
	// Create stores a fresh session for userID, replacing any prior one.
	Create(ctx context.Context, userID int64, flow string) (*Session, error)
	// Put upserts s under s.UserID.
	Put(ctx context.Context, s *Session) error
	// Delete removes the session. Deleting a missing session is not an error.
	Delete(ctx context.Context, userID int64) error
}

func storageErr(op string, err error) error {
	if err == nil {
		return nil
	}
	var se *StorageError
	if errors.As(err, &se) {
		return err
	}
	return &StorageError{Op: op, Err: err}
}
