package focus

import "errors"

// ErrEmptyUserID rejects operations with no owner to act for.
var ErrEmptyUserID = errors.New("focus: empty user id")

// StoreError wraps a persistent-store failure with the operation that hit
// it. Callers at the transport boundary log it and answer with a benign
// result; it never escapes as a raw driver error.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return "focus: " + e.Op + ": " + e.Err.Error()
}

func (e *StoreError) Unwrap() error {
	return e.Err
}
