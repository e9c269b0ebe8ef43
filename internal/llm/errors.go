package llm

import (
	"errors"
	"fmt"
)

// Adapter-level failures. Transport and SDK errors are wrapped with %w and
// otherwise passed through untouched.
var (
	ErrStreamingNotSupported = errors.New("streaming is not supported")
	ErrStreamNotImplemented  = errors.New("streaming is not implemented")
	ErrUnsupportedTask       = errors.New("unsupported task")
	ErrMultipleChoices       = errors.New("completion with more than one choice is not supported")
	ErrNoChoices             = errors.New("no choices in response")
)

// Kind names the failure carried by a DriverError.
type Kind string

const (
	KindStreaming       Kind = "streaming"
	KindUnsupportedTask Kind = "unsupported_task"
	KindMultipleChoices Kind = "multiple_choices"
	KindNoChoices       Kind = "no_choices"
)

// DriverError is a named adapter failure. Match the cause with errors.Is
// against the sentinels above, or read Kind via KindOf.
type DriverError struct {
	Driver string
	Kind   Kind
	Err    error
}

func (e *DriverError) Error() string {
	return fmt.Sprintf("%s: %v", e.Driver, e.Err)
}

func (e *DriverError) Unwrap() error {
	return e.Err
}

func newDriverError(driver string, kind Kind, err error) *DriverError {
	return &DriverError{Driver: driver, Kind: kind, Err: err}
}

// KindOf returns the failure kind of err if it is (or wraps) a DriverError.
func KindOf(err error) (Kind, bool) {
	var de *DriverError
	if errors.As(err, &de) {
		return de.Kind, true
	}
	return "", false
}

// choiceError maps a choice count other than one to a DriverError.
func choiceError(driver string, n int) error {
	if n == 0 {
		return newDriverError(driver, KindNoChoices, ErrNoChoices)
	}
	return newDriverError(driver, KindMultipleChoices, fmt.Errorf("%w (got %d)", ErrMultipleChoices, n))
}
