package models

import "fmt"

// Error codes used in API responses and internal error handling.
const (
	ErrCodeRendererUnavailable = "RENDERER_UNAVAILABLE"
	ErrCodeNavigation          = "NAVIGATION_FAILED"
	ErrCodeTimeout             = "CYCLE_TIMEOUT"
	ErrCodeLocatorNotFound     = "LOCATOR_NOT_FOUND"
	ErrCodeNotParseable        = "NOT_PARSEABLE"
	ErrCodePersistence         = "PERSISTENCE_FAILED"
	ErrCodeNoData              = "NO_DATA"
	ErrCodeInvalidInput        = "INVALID_INPUT"
	ErrCodeRateLimited         = "RATE_LIMITED"
	ErrCodeUnauthorized        = "UNAUTHORIZED"
	ErrCodeInternal            = "INTERNAL_ERROR"
)

// Sentinels for errors.Is. Any ExtractError with the same code matches.
var (
	ErrRendererUnavailable = &ExtractError{Code: ErrCodeRendererUnavailable, Message: "no working browser session"}
	ErrLocatorNotFound     = &ExtractError{Code: ErrCodeLocatorNotFound, Message: "no locator matched"}
	ErrNotParseable        = &ExtractError{Code: ErrCodeNotParseable, Message: "value not parseable"}
	ErrPersistence         = &ExtractError{Code: ErrCodePersistence, Message: "history write failed"}
)

// ErrorResponse is the body of every API error: {"error": "..."}.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// ExtractError is the internal error type carrying an error code.
// It implements the error interface and supports error wrapping via Unwrap.
type ExtractError struct {
	Code    string
	Message string
	Err     error // wrapped original error
}

func (e *ExtractError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *ExtractError) Unwrap() error {
	return e.Err
}

// Is reports whether target is an ExtractError with the same code.
func (e *ExtractError) Is(target error) bool {
	t, ok := target.(*ExtractError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// NewExtractError creates a new ExtractError.
func NewExtractError(code, message string, err error) *ExtractError {
	return &ExtractError{Code: code, Message: message, Err: err}
}

// ToResponse converts an internal error to the API-facing body.
func (e *ExtractError) ToResponse() ErrorResponse {
	msg := e.Message
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return ErrorResponse{Error: msg, Code: e.Code}
}
