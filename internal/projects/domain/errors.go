package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUnauthorized   = errors.New("unauthorized")
	ErrInvalidInput   = errors.New("invalid input")
	ErrInvalidPayload = errors.New("invalid callback payload")
	ErrNotFound       = errors.New("project not found")
	ErrPersistence    = errors.New("persistence error")
	// The two protocol failures carry the reason text stored in analysis_error.
	ErrDispatchFailed = errors.New(ReasonDispatchFailed)
	ErrTimedOut       = errors.New(ReasonTimedOut)
	ErrTerminalState  = errors.New("project already in a terminal state")
)

// InputError reports a rejected field of a user-submitted descriptor.
type InputError struct {
	Field   string
	Message string
}

func (e *InputError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

func (e *InputError) Unwrap() error { return ErrInvalidInput }

// PayloadError reports a completion callback body that could not be normalized.
type PayloadError struct {
	Reason   string
	Received []string
	Value    string
}

func (e *PayloadError) Error() string {
	if e.Value != "" {
		return fmt.Sprintf("%s: %q", e.Reason, e.Value)
	}
	if len(e.Received) > 0 {
		return fmt.Sprintf("%s (received keys: %s)", e.Reason, strings.Join(e.Received, ", "))
	}
	return e.Reason
}

func (e *PayloadError) Unwrap() error { return ErrInvalidPayload }
