package lib

import "errors"

// WrapError adds a higher-level kind to an underlying error. Both the outer
// and the inner error remain matchable with errors.Is / errors.As.
func WrapError(outer error, inner error) error {
	return &wrappedError{outer: outer, inner: inner}
}

type wrappedError struct {
	outer error
	inner error
}

func (e *wrappedError) Error() string {
	return e.outer.Error() + ": " + e.inner.Error()
}

func (e *wrappedError) Is(target error) bool {
	return errors.Is(e.outer, target)
}

func (e *wrappedError) Unwrap() error {
	return e.inner
}
