package types

import (
	"errors"
	"fmt"
)

// ErrorCode represents a unified error code across the service.
type ErrorCode string

// Generic error codes
const (
	ErrInvalidRequest     ErrorCode = "INVALID_REQUEST"
	ErrNotFound           ErrorCode = "NOT_FOUND"
	ErrUpstreamError      ErrorCode = "UPSTREAM_ERROR"
	ErrUpstreamTimeout    ErrorCode = "UPSTREAM_TIMEOUT"
	ErrInternalError      ErrorCode = "INTERNAL_ERROR"
	ErrServiceUnavailable ErrorCode = "SERVICE_UNAVAILABLE"
	ErrRateLimited        ErrorCode = "RATE_LIMITED"
)

// Voice provisioning error codes
const (
	ErrMissingAudio            ErrorCode = "MISSING_AUDIO"
	ErrCloneFailed             ErrorCode = "CLONE_FAILED"
	ErrVoiceCreationFailed     ErrorCode = "VOICE_CREATION_FAILED"
	ErrAssistantCreationFailed ErrorCode = "ASSISTANT_CREATION_FAILED"
	ErrPersistFailed           ErrorCode = "PERSIST_FAILED"
	ErrProvisioningInProgress  ErrorCode = "PROVISIONING_IN_PROGRESS"
	ErrUnexpected              ErrorCode = "UNEXPECTED_ERROR"
)

// Memory ingestion error codes
const (
	ErrTranscriptionFailed ErrorCode = "TRANSCRIPTION_FAILED"
	ErrEmbeddingFailed     ErrorCode = "EMBEDDING_FAILED"
	ErrTokenizerError      ErrorCode = "TOKENIZER_ERROR"
)

// Error represents a structured error with code, message, and metadata.
type Error struct {
	Code       ErrorCode `json:"code"`
	Message    string    `json:"message"`
	Details    string    `json:"details,omitempty"`
	HTTPStatus int       `json:"http_status,omitempty"`
	Retryable  bool      `json:"retryable"`
	Provider   string    `json:"provider,omitempty"`
	Cause      error     `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// NewError creates a new Error with the given code and message.
func NewError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// WithCause adds a cause to the error.
func (e *Error) WithCause(cause error) *Error {
	e.Cause = cause
	return e
}

// WithDetails attaches diagnostic details, typically an upstream response body.
func (e *Error) WithDetails(details string) *Error {
	e.Details = details
	return e
}

// WithHTTPStatus sets the HTTP status code.
func (e *Error) WithHTTPStatus(status int) *Error {
	e.HTTPStatus = status
	return e
}

// WithRetryable marks the error as retryable.
func (e *Error) WithRetryable(retryable bool) *Error {
	e.Retryable = retryable
	return e
}

// WithProvider sets the provider name.
func (e *Error) WithProvider(provider string) *Error {
	e.Provider = provider
	return e
}

// AsError extracts a *Error from the chain, if any.
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// IsErrorCode reports whether any *Error in the chain carries the code.
func IsErrorCode(err error, code ErrorCode) bool {
	e, ok := AsError(err)
	return ok && e.Code == code
}

// IsRetryable checks if an error is retryable.
func IsRetryable(err error) bool {
	if e, ok := AsError(err); ok {
		return e.Retryable
	}
	return false
}

// GetErrorCode extracts the error code from an error.
func GetErrorCode(err error) ErrorCode {
	if e, ok := AsError(err); ok {
		return e.Code
	}
	return ""
}

// UpstreamStatus returns the HTTP status carried by an upstream error,
// or 0 when the error does not carry one.
func UpstreamStatus(err error) int {
	if e, ok := AsError(err); ok {
		return e.HTTPStatus
	}
	return 0
}

// UpstreamDetails returns the diagnostic details carried by an upstream error.
func UpstreamDetails(err error) string {
	if e, ok := AsError(err); ok {
		return e.Details
	}
	return ""
}

// NewUpstreamError maps a non-2xx upstream response to an Error that keeps the
// upstream status and body.
func NewUpstreamError(provider string, status int, body string) *Error {
	code := ErrUpstreamError
	switch status {
	case 404:
		code = ErrNotFound
	case 429:
		code = ErrRateLimited
	case 400, 422:
		code = ErrInvalidRequest
	}
	return &Error{
		Code:       code,
		Message:    fmt.Sprintf("%s returned status %d", provider, status),
		Details:    body,
		HTTPStatus: status,
		Retryable:  status == 429 || status >= 500,
		Provider:   provider,
	}
}

// NewTransportError wraps a network or decode failure talking to an upstream.
// 本地/传输层异常统一映射为 500。
func NewTransportError(provider, message string, cause error) *Error {
	return &Error{
		Code:       ErrUpstreamError,
		Message:    message,
		Details:    errorText(cause),
		HTTPStatus: 500,
		Provider:   provider,
		Cause:      cause,
	}
}

func errorText(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
