package errors

import "fmt"

// Error codes
const (
	ErrCodeNotFound     = "NOT_FOUND"
	ErrCodeValidation   = "VALIDATION_ERROR"
	ErrCodeInternal     = "INTERNAL_ERROR"
	ErrCodeBadRequest   = "BAD_REQUEST"
	ErrCodeInvalidGrade = "INVALID_GRADE"
	ErrCodeUnknownDeck  = "UNKNOWN_DECK"
	ErrCodeUnknownCard  = "UNKNOWN_CARD"
)

// AppError represents an application error with HTTP status code and error code
type AppError struct {
	Code    string // Error code (e.g., "NOT_FOUND", "INVALID_GRADE")
	Message string // Human-readable error message
	Status  int    // HTTP status code
	Err     error  // Wrapped underlying error (optional)
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for error wrapping support
func (e *AppError) Unwrap() error {
	return e.Err
}

// Code returns the application error code of err, or ErrCodeInternal when err
// is not an AppError.
func Code(err error) string {
	if appErr, ok := err.(*AppError); ok {
		return appErr.Code
	}
	return ErrCodeInternal
}

// NewNotFoundError creates a new NOT_FOUND error
func NewNotFoundError(resource string, id interface{}) *AppError {
	return &AppError{
		Code:    ErrCodeNotFound,
		Message: fmt.Sprintf("%s not found: %v", resource, id),
		Status:  404,
	}
}

// NewValidationError creates a new VALIDATION_ERROR
func NewValidationError(field string, reason string) *AppError {
	return &AppError{
		Code:    ErrCodeValidation,
		Message: fmt.Sprintf("validation failed for %s: %s", field, reason),
		Status:  400,
	}
}

// NewInternalError creates a new INTERNAL_ERROR
func NewInternalError(err error) *AppError {
	return &AppError{
		Code:    ErrCodeInternal,
		Message: "internal server error",
		Status:  500,
		Err:     err,
	}
}

// NewBadRequestError creates a new BAD_REQUEST error
func NewBadRequestError(message string) *AppError {
	return &AppError{
		Code:    ErrCodeBadRequest,
		Message: message,
		Status:  400,
	}
}

// NewInvalidGradeError creates a new INVALID_GRADE error for a grade outside
// the Again..Easy range.
func NewInvalidGradeError(grade int) *AppError {
	return &AppError{
		Code:    ErrCodeInvalidGrade,
		Message: fmt.Sprintf("invalid grade %d: must be between 0 (again) and 3 (easy)", grade),
		Status:  400,
	}
}

// NewUnknownDeckError creates a new UNKNOWN_DECK error
func NewUnknownDeckError(id string) *AppError {
	return &AppError{
		Code:    ErrCodeUnknownDeck,
		Message: fmt.Sprintf("deck not found: %s", id),
		Status:  404,
	}
}

// NewUnknownCardError creates a new UNKNOWN_CARD error
func NewUnknownCardError(id string) *AppError {
	return &AppError{
		Code:    ErrCodeUnknownCard,
		Message: fmt.Sprintf("card not found: %s", id),
		Status:  404,
	}
}
