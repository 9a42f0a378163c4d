package providers

import (
	"errors"
	"fmt"
)

// Error kinds. Every *Error unwraps to exactly one of these, so callers can
// branch with errors.Is.
var (
	ErrConfig               = errors.New("config error")
	ErrCapability           = errors.New("capability error")
	ErrUnsupportedOperation = errors.New("unsupported operation")
	ErrTransport            = errors.New("transport error")
	ErrProvider             = errors.New("provider error")
	ErrTimeout              = errors.New("timeout")
)

// Error codes carried in ErrorInfo.Code.
const (
	CodeParseError         = "PARSE_ERROR"
	CodeWebSocketError     = "WEBSOCKET_ERROR"
	CodePollingTimeout     = "POLLING_TIMEOUT"
	CodeTranscriptionError = "TRANSCRIPTION_ERROR"
	CodeConnectionTimeout  = "CONNECTION_TIMEOUT"
	CodeInvalidInput       = "INVALID_INPUT"
	CodeNotSupported       = "NOT_SUPPORTED"
	CodeNoResults          = "NO_RESULTS"
	CodeUnknownError       = "UNKNOWN_ERROR"
	CodeSessionClosed      = "SESSION_CLOSED"
	CodeConfigError        = "CONFIG_ERROR"
)

var defaultMessages = map[string]string{
	CodeParseError:         "Failed to parse provider response",
	CodeWebSocketError:     "WebSocket connection error",
	CodePollingTimeout:     "Transcription did not complete within timeout",
	CodeTranscriptionError: "Transcription failed",
	CodeConnectionTimeout:  "Connection timed out",
	CodeInvalidInput:       "Invalid input provided",
	CodeNotSupported:       "Operation not supported by this provider",
	CodeNoResults:          "No transcription results available",
	CodeUnknownError:       "An unknown error occurred",
	CodeSessionClosed:      "Streaming session is closed",
	CodeConfigError:        "Provider is not configured",
}

// DefaultMessage returns the stock message for code.
func DefaultMessage(code string) string {
	if m, ok := defaultMessages[code]; ok {
		return m
	}
	return defaultMessages[CodeUnknownError]
}

// ErrSessionClosed is returned by session operations once the session has
// reached a terminal state.
var ErrSessionClosed = &Error{
	Kind:    ErrUnsupportedOperation,
	Code:    CodeSessionClosed,
	Message: DefaultMessage(CodeSessionClosed),
}

// Error is the error type returned by adapters, sessions and the router.
type Error struct {
	Kind       error
	Code       string
	Message    string
	StatusCode int
	Provider   Name
	Details    any
	Err        error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = DefaultMessage(e.Code)
	}
	prefix := e.Code
	if e.Provider != "" {
		prefix = string(e.Provider) + ": " + prefix
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", prefix, msg)
}

// Unwrap exposes both the kind sentinel and the cause.
func (e *Error) Unwrap() []error {
	errs := make([]error, 0, 2)
	if e.Kind != nil {
		errs = append(errs, e.Kind)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// Info converts the error into the shape carried by TranscriptResponse.
func (e *Error) Info() *ErrorInfo {
	msg := e.Message
	if msg == "" {
		msg = DefaultMessage(e.Code)
	}
	details := e.Details
	if details == nil && e.Err != nil {
		details = e.Err.Error()
	}
	return &ErrorInfo{
		Code:       e.Code,
		Message:    msg,
		StatusCode: e.StatusCode,
		Details:    details,
	}
}

// AsError returns err as an *Error, wrapping foreign errors as UNKNOWN_ERROR
// provider errors.
func AsError(provider Name, err error) *Error {
	if err == nil {
		return nil
	}
	var pe *Error
	if errors.As(err, &pe) {
		return pe
	}
	return &Error{
		Kind:     ErrProvider,
		Code:     CodeUnknownError,
		Message:  err.Error(),
		Provider: provider,
		Err:      err,
	}
}

func NewConfigError(provider Name, msg string) *Error {
	return &Error{Kind: ErrConfig, Code: CodeConfigError, Message: msg, Provider: provider}
}

func NewCapabilityError(provider Name, msg string) *Error {
	return &Error{Kind: ErrCapability, Code: CodeNotSupported, Message: msg, Provider: provider}
}

// NewUnsupportedOperationError reports an operation the adapter does not offer.
func NewUnsupportedOperationError(provider Name, op string) *Error {
	return &Error{
		Kind:     ErrUnsupportedOperation,
		Code:     CodeNotSupported,
		Message:  fmt.Sprintf("%s is not supported by %s", op, provider),
		Provider: provider,
	}
}

func NewTransportError(provider Name, err error) *Error {
	return &Error{Kind: ErrTransport, Code: CodeWebSocketError, Message: DefaultMessage(CodeWebSocketError), Provider: provider, Err: err}
}

// NewProviderError wraps an explicit error returned by the provider.
func NewProviderError(provider Name, code, msg string, status int) *Error {
	if code == "" {
		code = CodeTranscriptionError
	}
	return &Error{Kind: ErrProvider, Code: code, Message: msg, StatusCode: status, Provider: provider}
}

func NewTimeoutError(provider Name, code, msg string) *Error {
	return &Error{Kind: ErrTimeout, Code: code, Message: msg, Provider: provider}
}

// NewInputError reports audio or options the adapter cannot send.
func NewInputError(provider Name, msg string) *Error {
	return &Error{Kind: ErrCapability, Code: CodeInvalidInput, Message: msg, Provider: provider}
}
