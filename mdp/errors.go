package mdp

import (
	"errors"
	"fmt"
)

// Sentinel errors for conditions callers may want to match with errors.Is.
var (
	ErrInvalidMessage     = errors.New("invalid message format")
	ErrProtocolViolation  = errors.New("protocol violation")
	ErrTimeout            = errors.New("operation timeout")
	ErrBrokerUnavailable  = errors.New("broker unavailable")
	ErrServiceNotFound    = errors.New("service not found")
	ErrWorkerDisconnected = errors.New("worker disconnected")
	ErrConnectionFailed   = errors.New("connection failed")
	ErrSocketError        = errors.New("socket error")
)

// Error is a structured protocol error carrying a stable code, a cause, and
// arbitrary diagnostic context.
type Error struct {
	Code    string
	Message string
	Cause   error
	Context map[string]interface{}
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("mdp %s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("mdp %s: %s", e.Code, e.Message)
}

// Unwrap exposes the underlying cause for errors.Is/errors.As.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is compares errors by code, matching any *Error with the same Code or
// delegating to the wrapped cause.
func (e *Error) Is(target error) bool {
	if target == nil {
		return false
	}
	var mdpErr *Error
	if errors.As(target, &mdpErr) {
		return e.Code == mdpErr.Code
	}
	return errors.Is(e.Cause, target)
}

// WithContext attaches a diagnostic key/value and returns the same error for
// chaining.
func (e *Error) WithContext(key string, value interface{}) *Error {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// Error code constants.
const (
	ErrCodeInvalidMessage    = "INVALID_MESSAGE"
	ErrCodeProtocolViolation = "PROTOCOL_VIOLATION"
	ErrCodeTimeout           = "TIMEOUT"
	ErrCodeServiceNotFound   = "SERVICE_NOT_FOUND"
	ErrCodeConnectionFailed  = "CONNECTION_FAILED"
	ErrCodeSocketError       = "SOCKET_ERROR"
)

// NewMDPError builds a structured Error.
func NewMDPError(code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Cause: cause}
}

// NewInvalidMessageError builds an ErrCodeInvalidMessage error.
func NewInvalidMessageError(message string, cause error) *Error {
	return NewMDPError(ErrCodeInvalidMessage, message, cause)
}

// NewProtocolViolationError builds an ErrCodeProtocolViolation error.
func NewProtocolViolationError(message string, cause error) *Error {
	return NewMDPError(ErrCodeProtocolViolation, message, cause)
}

// NewTimeoutError builds an ErrCodeTimeout error.
func NewTimeoutError(message string, cause error) *Error {
	return NewMDPError(ErrCodeTimeout, message, cause)
}

// NewServiceNotFoundError builds an ErrCodeServiceNotFound error naming the
// missing service.
func NewServiceNotFoundError(service string, cause error) *Error {
	return NewMDPError(ErrCodeServiceNotFound, fmt.Sprintf("service %q not found", service), cause).
		WithContext("service", service)
}

// NewConnectionFailedError builds an ErrCodeConnectionFailed error naming
// the endpoint that could not be reached.
func NewConnectionFailedError(endpoint string, cause error) *Error {
	return NewMDPError(ErrCodeConnectionFailed, fmt.Sprintf("failed to connect to %q", endpoint), cause).
		WithContext("endpoint", endpoint)
}

// IsRetryableError reports whether err represents a condition worth
// retrying (timeouts, dropped connections), as opposed to a permanent
// protocol error.
func IsRetryableError(err error) bool {
	if err == nil {
		return false
	}
	var mdpErr *Error
	if errors.As(err, &mdpErr) {
		switch mdpErr.Code {
		case ErrCodeTimeout, ErrCodeConnectionFailed, ErrCodeSocketError:
			return true
		default:
			return false
		}
	}
	return errors.Is(err, ErrTimeout) || errors.Is(err, ErrConnectionFailed) || errors.Is(err, ErrSocketError)
}

// IsPermanentError reports whether err represents a condition that will not
// clear up by retrying.
func IsPermanentError(err error) bool {
	if err == nil {
		return false
	}
	var mdpErr *Error
	if errors.As(err, &mdpErr) {
		switch mdpErr.Code {
		case ErrCodeProtocolViolation, ErrCodeInvalidMessage:
			return true
		default:
			return false
		}
	}
	return errors.Is(err, ErrProtocolViolation) || errors.Is(err, ErrInvalidMessage)
}
