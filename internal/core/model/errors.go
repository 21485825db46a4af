package model

import (
	"errors"
	"fmt"
)

var (
	// ErrStoreUnavailable is returned when the record store cannot be reached.
	// Callers must not treat it as empty data.
	ErrStoreUnavailable = errors.New("record store unavailable")

	// ErrMalformedInput is returned for events with an unparseable timestamp or unknown kind.
	ErrMalformedInput = errors.New("malformed input")

	// ErrConcurrentModification is returned when a versioned write lost the race.
	ErrConcurrentModification = errors.New("concurrent modification detected")

	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")

	// ErrNotFound is returned for missing users or settings rows. An update or
	// delete that matches no event is a false result, not this error.
	ErrNotFound = errors.New("not found")
)

// MalformedInputError carries the offending field. Index is the position in
// the input list, or -1 when the value was not part of a list.
type MalformedInputError struct {
	Index  int
	Field  string
	Value  string
	Reason string
}

func (e *MalformedInputError) Error() string {
	if e.Index >= 0 {
		return fmt.Sprintf("malformed input: event %d: %s %q: %s", e.Index, e.Field, e.Value, e.Reason)
	}
	return fmt.Sprintf("malformed input: %s %q: %s", e.Field, e.Value, e.Reason)
}

func (e *MalformedInputError) Unwrap() error {
	return ErrMalformedInput
}

// StoreError wraps a backend failure so errors.Is(err, ErrStoreUnavailable) holds.
func StoreError(op string, err error) error {
	return fmt.Errorf("%s: %w: %v", op, ErrStoreUnavailable, err)
}
