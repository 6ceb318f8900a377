package models

import (
	"errors"
	"fmt"
)

// ErrorType categorizes model collaborator failures.
type ErrorType int

const (
	ErrorTypeTransient       ErrorType = iota // network, timeout, 5xx
	ErrorTypeContextOverflow                  // context window exceeded
	ErrorTypeAPILimit                         // rate limit or quota
	ErrorTypeFatal                            // auth, bad request, anything else
)

// String returns the string representation of ErrorType
func (e ErrorType) String() string {
	switch e {
	case ErrorTypeTransient:
		return "Transient"
	case ErrorTypeContextOverflow:
		return "ContextOverflow"
	case ErrorTypeAPILimit:
		return "APILimit"
	case ErrorTypeFatal:
		return "Fatal"
	default:
		return "Unknown"
	}
}

// CollaboratorError reports a failed model call. It ends the session; the
// conversation loop never retries it.
type CollaboratorError struct {
	Type       ErrorType `json:"type"`
	Provider   string    `json:"provider,omitempty"`
	StatusCode int       `json:"status_code,omitempty"`
	Message    string    `json:"message"`
	Err        error     `json:"-"`
}

// Error implements the error interface
func (e *CollaboratorError) Error() string {
	if e.Provider != "" {
		return fmt.Sprintf("[%s] %s: %s", e.Type, e.Provider, e.Message)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Unwrap exposes the underlying SDK error.
func (e *CollaboratorError) Unwrap() error {
	return e.Err
}

// NewCollaboratorError classifies err by HTTP status code. A zero status
// (no response received) is treated as transient.
func NewCollaboratorError(provider string, statusCode int, err error) *CollaboratorError {
	msg := "model call failed"
	if err != nil {
		msg = err.Error()
	}
	return &CollaboratorError{
		Type:       ClassifyStatus(statusCode),
		Provider:   provider,
		StatusCode: statusCode,
		Message:    msg,
		Err:        err,
	}
}

// ClassifyStatus maps an HTTP status code to an ErrorType.
func ClassifyStatus(statusCode int) ErrorType {
	switch {
	case statusCode == 0:
		return ErrorTypeTransient
	case statusCode == 429:
		return ErrorTypeAPILimit
	case statusCode == 413:
		return ErrorTypeContextOverflow
	case statusCode == 408, statusCode == 409:
		return ErrorTypeTransient
	case statusCode >= 500:
		return ErrorTypeTransient
	default:
		return ErrorTypeFatal
	}
}

// AsCollaboratorError extracts a CollaboratorError from err's chain.
func AsCollaboratorError(err error) (*CollaboratorError, bool) {
	var ce *CollaboratorError
	if errors.As(err, &ce) {
		return ce, true
	}
	return nil, false
}
