package helpers

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
)

// -----------------------------------------------------------------------------
// Custom Error Types
// -----------------------------------------------------------------------------

type SimulatorError struct {
	Message string
	Cause   error
}

func (e *SimulatorError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *SimulatorError) Unwrap() error {
	return e.Cause
}

// Distinct error types for errors.As
type ConfigurationError struct{ SimulatorError }
type TransportTimeoutError struct{ SimulatorError }
type TransportError struct{ SimulatorError }
type DecodeError struct{ SimulatorError }
type DatabaseError struct{ SimulatorError }

// -----------------------------------------------------------------------------

func NewConfigurationError(op string, cause error) error {
	return &ConfigurationError{SimulatorError{Message: fmt.Sprintf("%s failed", op), Cause: cause}}
}

func NewTransportTimeoutError(op string, cause error) error {
	return &TransportTimeoutError{SimulatorError{Message: fmt.Sprintf("%s timed out", op), Cause: cause}}
}

func NewTransportError(op string, cause error) error {
	return &TransportError{SimulatorError{Message: fmt.Sprintf("%s failed", op), Cause: cause}}
}

func NewDecodeError(op string, cause error) error {
	return &DecodeError{SimulatorError{Message: fmt.Sprintf("%s: malformed response", op), Cause: cause}}
}

func NewDatabaseError(op string, cause error) error {
	return &DatabaseError{SimulatorError{Message: fmt.Sprintf("%s failed", op), Cause: cause}}
}

// -----------------------------------------------------------------------------

// ClassifyTransportError maps low level http/net/context errors onto the
// poll taxonomy. Errors already classified are returned unchanged.
func ClassifyTransportError(op string, err error) error {
	if err == nil {
		return nil
	}

	var timeoutErr *TransportTimeoutError
	var transportErr *TransportError
	var decodeErr *DecodeError
	if errors.As(err, &timeoutErr) || errors.As(err, &transportErr) || errors.As(err, &decodeErr) {
		return err
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return NewTransportTimeoutError(op, err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return NewTransportTimeoutError(op, err)
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Timeout() {
		return NewTransportTimeoutError(op, err)
	}

	return NewTransportError(op, err)
}

// -----------------------------------------------------------------------------

// IsTimeout reports whether err is (or wraps) a TransportTimeoutError
func IsTimeout(err error) bool {
	var timeoutErr *TransportTimeoutError
	return errors.As(err, &timeoutErr)
}
