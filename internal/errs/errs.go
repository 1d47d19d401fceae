package errs

import (
	"errors"
	"fmt"
)

// DecodeError reports an image file that could not be decoded. During batch
// indexing it is counted and skipped; for a search query it is surfaced to
// the caller as a recoverable failure.
type DecodeError struct {
	Path string
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s: %v", e.Path, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// StoreError reports an I/O, permission, or lock failure on a persistent
// store. It aborts the enclosing operation; records committed before the
// failure remain intact.
type StoreError struct {
	Op    string
	Store string
	Err   error
}

func (e *StoreError) Error() string {
	if e.Store == "" {
		return fmt.Sprintf("store %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("store %s %s: %v", e.Op, e.Store, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// NotFoundError reports an explicitly requested index that does not exist.
// Missing files referenced by stored records are not errors; they are
// filtered lazily at search time.
type NotFoundError struct {
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("index %q not found", e.Name)
}

// Decode wraps err as a DecodeError for path.
func Decode(path string, err error) error {
	return &DecodeError{Path: path, Err: err}
}

// Store wraps err as a StoreError for the named store and operation.
func Store(op, store string, err error) error {
	return &StoreError{Op: op, Store: store, Err: err}
}

// NotFound returns a NotFoundError for the named index.
func NotFound(name string) error {
	return &NotFoundError{Name: name}
}

// IsDecode reports whether err is or wraps a DecodeError.
func IsDecode(err error) bool {
	var de *DecodeError
	return errors.As(err, &de)
}

// IsStore reports whether err is or wraps a StoreError.
func IsStore(err error) bool {
	var se *StoreError
	return errors.As(err, &se)
}

// IsNotFound reports whether err is or wraps a NotFoundError.
func IsNotFound(err error) bool {
	var ne *NotFoundError
	return errors.As(err, &ne)
}
