package catalog

import (
	"errors"
	"fmt"
)

// ErrNotFound indicates a search/detail lookup yielded no record. Callers
// decide the fallback behavior; the sync engine treats it as non-fatal.
var ErrNotFound = errors.New("catalog: record not found")

// AuthError indicates the credential exchange against the upstream auth
// endpoint failed. It is fatal to the calling batch and is not retried.
type AuthError struct {
	Op  string
	Err error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("catalog auth: %s: %v", e.Op, e.Err)
}

func (e *AuthError) Unwrap() error { return e.Err }

// TransportError indicates a network or HTTP failure against the upstream
// catalog. It is fatal at page level; sub-resource callers may catch and
// count it instead.
type TransportError struct {
	Op     string
	Status int
	Err    error
}

func (e *TransportError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("catalog transport: %s: status %d: %v", e.Op, e.Status, e.Err)
	}
	return fmt.Sprintf("catalog transport: %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// IsAuthError reports whether err wraps an AuthError.
func IsAuthError(err error) bool {
	var ae *AuthError
	return errors.As(err, &ae)
}

// IsTransportError reports whether err wraps a TransportError.
func IsTransportError(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}
