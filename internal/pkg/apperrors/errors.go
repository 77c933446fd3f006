package apperrors

import "errors"

// Common errors
var (
	// Resource errors
	ErrResourceNotFound      = errors.New("resource not found")
	ErrResourceAlreadyExists = errors.New("resource already exists")
	ErrConflict              = errors.New("conflict")

	// Authentication errors
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrTokenExpired       = errors.New("token expired")
	ErrTokenInvalid       = errors.New("invalid token")
	ErrTokenNotFound      = errors.New("token not found")
	ErrTokenRevoked       = errors.New("token revoked")

	// Authorization errors
	ErrPermissionDenied = errors.New("permission denied")

	// Validation errors
	ErrValidationFailed = errors.New("validation failed")
	ErrBadRequest       = errors.New("bad request")
)

// Entity lookups. Each wraps ErrResourceNotFound so handlers map them to 404.
var (
	ErrUserNotFound     = &CustomError{Err: ErrResourceNotFound, Message: "user not found"}
	ErrLabNotFound      = &CustomError{Err: ErrResourceNotFound, Message: "lab not found"}
	ErrPostNotFound     = &CustomError{Err: ErrResourceNotFound, Message: "post not found"}
	ErrApprovalNotFound = &CustomError{Err: ErrResourceNotFound, Message: "no pending supervision request"}
)

// Uniqueness violations
var (
	ErrEmailAlreadyExists    = &CustomError{Err: ErrResourceAlreadyExists, Message: "email already in use"}
	ErrUsernameAlreadyExists = &CustomError{Err: ErrResourceAlreadyExists, Message: "username already taken"}
)

// Email verification errors
var (
	ErrEmailNotVerified     = errors.New("email not verified")
	ErrEmailAlreadyVerified = &CustomError{Err: ErrConflict, Message: "email already verified"}
)

// NewResourceNotFoundError creates a new custom error for resource not found with a message
func NewResourceNotFoundError(message string) error {
	return &CustomError{
		Err:     ErrResourceNotFound,
		Message: message,
	}
}

// NewConflictError creates a new custom error for conflict situations with a message
func NewConflictError(message string) error {
	return &CustomError{
		Err:     ErrConflict,
		Message: message,
	}
}

// NewForbiddenError creates a new custom error for permission denied with a message
func NewForbiddenError(message string) error {
	return &CustomError{
		Err:     ErrPermissionDenied,
		Message: message,
	}
}

// NewBadRequestError creates a new custom error for bad request with a message
func NewBadRequestError(message string) error {
	return &CustomError{
		Err:     ErrBadRequest,
		Message: message,
	}
}

// NewValidationError creates a validation failure carrying a client-facing message
func NewValidationError(message string) error {
	return &CustomError{
		Err:     ErrValidationFailed,
		Message: message,
	}
}

// Is returns whether err matches target or any of errList
func Is(err, target error, errList ...error) bool {
	if errors.Is(err, target) {
		return true
	}

	for _, e := range errList {
		if errors.Is(err, e) {
			return true
		}
	}

	return false
}

// CustomError represents application-specific errors with additional context
type CustomError struct {
	Err     error
	Message string
	Code    string
	Details map[string]interface{}
}

// Error implements error interface
func (e *CustomError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "unknown error"
}

// Unwrap implements errors.Unwrap interface
func (e *CustomError) Unwrap() error {
	return e.Err
}

// NewCustomError creates a CustomError with underlying error
func NewCustomError(err error, message string) *CustomError {
	return &CustomError{
		Err:     err,
		Message: message,
	}
}

// WithDetails returns a copy of the error carrying context details
func (e *CustomError) WithDetails(details map[string]interface{}) *CustomError {
	cp := *e
	cp.Details = details
	return &cp
}

// WithCode returns a copy of the error carrying an error code
func (e *CustomError) WithCode(code string) *CustomError {
	cp := *e
	cp.Code = code
	return &cp
}

// ClientMessage returns the most specific message attached to err,
// falling back to fallback when none is present.
func ClientMessage(err error, fallback string) string {
	var ce *CustomError
	if errors.As(err, &ce) && ce.Message != "" {
		return ce.Message
	}
	return fallback
}
