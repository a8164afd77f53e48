package service

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidRequest = errors.New("invalid request")
	ErrNotFound       = errors.New("not found")
	ErrStorage        = errors.New("storage error")
	ErrUpstream       = errors.New("upstream error")
	// ErrConflict is wrapped into ErrStorage once the cart retry budget is spent.
	ErrConflict = errors.New("concurrent modification")
)

// ProviderError carries a failure reported by an external provider whose
// message is safe to show to the caller.
type ProviderError struct {
	Op  string
	Err error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *ProviderError) Unwrap() []error {
	return []error{ErrUpstream, e.Err}
}

func (e *ProviderError) Message() string {
	return e.Err.Error()
}

func invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidRequest, fmt.Sprintf(format, args...))
}

func notFoundf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrNotFound, fmt.Sprintf(format, args...))
}

func storage(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrStorage, op, err)
}
