package moderation

import (
	"errors"
	"fmt"
)

// Sentinel error kinds, stable for errors.Is and HTTP status mapping.
var (
	ErrInvalidInput = errors.New("invalid_input")
	ErrNotFound     = errors.New("not_found")
	ErrConflict     = errors.New("conflict")
	ErrStorage      = errors.New("storage")
)

// OpError is a typed operation error. Msg is safe to log; it never reaches clients.
type OpError struct {
	Op   string
	Kind error
	Msg  string
	Err  error
}

func (e OpError) Error() string {
	switch {
	case e.Msg == "" && e.Err == nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Kind)
	case e.Err == nil:
		return fmt.Sprintf("%s: %v: %s", e.Op, e.Kind, e.Msg)
	default:
		return fmt.Sprintf("%s: %v: %v", e.Op, e.Kind, e.Err)
	}
}

func (e OpError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// ConflictError reports an entry that is no longer staged. Status is what it is now.
type ConflictError struct {
	Op     string
	ID     string
	Status Status
}

func (e ConflictError) Error() string {
	return fmt.Sprintf("%s: %v: entry %s is %s", e.Op, ErrConflict, e.ID, e.Status)
}

func (e ConflictError) Unwrap() error { return ErrConflict }

// NotFoundError reports an unknown entry id.
type NotFoundError struct {
	Op string
	ID string
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("%s: %v: entry %s", e.Op, ErrNotFound, e.ID)
}

func (e NotFoundError) Unwrap() error { return ErrNotFound }

func invalid(op, msg string) error {
	return OpError{Op: op, Kind: ErrInvalidInput, Msg: msg}
}

func storage(op string, err error) error {
	return OpError{Op: op, Kind: ErrStorage, Err: err}
}

// IsInvalidInput reports whether err is a validation failure.
func IsInvalidInput(err error) bool { return errors.Is(err, ErrInvalidInput) }

// IsConflict reports whether err is a lost compare-and-set.
func IsConflict(err error) bool { return errors.Is(err, ErrConflict) }

// IsNotFound reports whether err names an unknown entry.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

// IsStorage reports whether err comes from the store.
func IsStorage(err error) bool { return errors.Is(err, ErrStorage) }
