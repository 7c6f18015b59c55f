package errors

import (
	"fmt"
	"time"
)

// ErrorCode represents a stable machine-readable error code.
type ErrorCode string

const (
	// Generic
	ErrCodeInternal     ErrorCode = "INTERNAL_ERROR"
	ErrCodeValidation   ErrorCode = "VALIDATION_ERROR"
	ErrCodeNotFound     ErrorCode = "NOT_FOUND"
	ErrCodeUnauthorized ErrorCode = "UNAUTHORIZED"
	ErrCodeForbidden    ErrorCode = "FORBIDDEN"
	ErrCodeBadRequest   ErrorCode = "BAD_REQUEST"

	// Sessions
	ErrCodeSessionNotFound ErrorCode = "SESSION_NOT_FOUND"
	ErrCodeSessionExpired  ErrorCode = "SESSION_EXPIRED"
	ErrCodeRefreshFailed   ErrorCode = "REFRESH_FAILED"

	// Payments
	ErrCodeIntentNotFound  ErrorCode = "INTENT_NOT_FOUND"
	ErrCodePurchaseFailed  ErrorCode = "PURCHASE_FAILED"
	ErrCodeGatewayMismatch ErrorCode = "GATEWAY_MISMATCH"

	// Presales / chain
	ErrCodePresaleNotFound  ErrorCode = "PRESALE_NOT_FOUND"
	ErrCodeSimulationRevert ErrorCode = "SIMULATION_REVERT"
	ErrCodeTxFailed         ErrorCode = "TX_FAILED"
	ErrCodeUserRejected     ErrorCode = "USER_REJECTED"

	// Infrastructure
	ErrCodeCacheError  ErrorCode = "CACHE_ERROR"
	ErrCodeUpstreamAPI ErrorCode = "UPSTREAM_API_ERROR"
	ErrCodeChainRPC    ErrorCode = "CHAIN_RPC_ERROR"
)

// AppError is the application error carried through handlers and middleware.
type AppError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   map[string]interface{} `json:"details,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	RequestID string                 `json:"request_id,omitempty"`
	Cause     error                  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

func (e *AppError) IsNotFound() bool {
	return e.Code == ErrCodeNotFound ||
		e.Code == ErrCodeSessionNotFound ||
		e.Code == ErrCodeIntentNotFound ||
		e.Code == ErrCodePresaleNotFound
}

func (e *AppError) IsUnauthorized() bool {
	return e.Code == ErrCodeUnauthorized || e.Code == ErrCodeForbidden || e.Code == ErrCodeSessionExpired
}

func (e *AppError) IsInternal() bool {
	return e.Code == ErrCodeInternal ||
		e.Code == ErrCodeCacheError ||
		e.Code == ErrCodeUpstreamAPI ||
		e.Code == ErrCodeChainRPC
}

// WithDetail attaches structured context to the error.
func (e *AppError) WithDetail(key string, value interface{}) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

func (e *AppError) WithRequestID(requestID string) *AppError {
	e.RequestID = requestID
	return e
}

func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:      code,
		Message:   message,
		Timestamp: time.Now(),
	}
}

func Wrap(err error, code ErrorCode, message string) *AppError {
	appErr := New(code, message)
	appErr.Cause = err
	return appErr
}

func Wrapf(err error, code ErrorCode, format string, args ...interface{}) *AppError {
	return Wrap(err, code, fmt.Sprintf(format, args...))
}

// Constructors for the common cases.

func NewValidationError(field, reason string) *AppError {
	return New(ErrCodeValidation, fmt.Sprintf("Validation failed for field '%s': %s", field, reason)).
		WithDetail("field", field).
		WithDetail("reason", reason)
}

func NewNotFoundError(resource string, id interface{}) *AppError {
	return New(ErrCodeNotFound, fmt.Sprintf("%s not found", resource)).
		WithDetail("resource", resource).
		WithDetail("id", id)
}

func NewIntentNotFoundError(trackID string) *AppError {
	return New(ErrCodeIntentNotFound, fmt.Sprintf("Purchase intent not found: %s", trackID)).
		WithDetail("track_id", trackID)
}

func NewSessionNotFoundError(sessionID string) *AppError {
	return New(ErrCodeSessionNotFound, fmt.Sprintf("Session not found: %s", sessionID)).
		WithDetail("session_id", sessionID)
}

func NewUnauthorizedError(reason string) *AppError {
	return New(ErrCodeUnauthorized, fmt.Sprintf("Unauthorized: %s", reason)).
		WithDetail("reason", reason)
}

func NewUpstreamAPIError(operation string, status int, err error) *AppError {
	return Wrap(err, ErrCodeUpstreamAPI, fmt.Sprintf("Upstream API call failed: %s", operation)).
		WithDetail("operation", operation).
		WithDetail("status", status)
}

func NewChainRPCError(operation string, err error) *AppError {
	return Wrap(err, ErrCodeChainRPC, fmt.Sprintf("Chain RPC call failed: %s", operation)).
		WithDetail("operation", operation)
}

func NewCacheError(operation string, err error) *AppError {
	return Wrap(err, ErrCodeCacheError, fmt.Sprintf("Cache operation failed: %s", operation)).
		WithDetail("operation", operation)
}

// AsAppError casts err to AppError when possible.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if err != nil {
		appErr, _ = err.(*AppError)
	}
	return appErr, appErr != nil
}
