package utils

import "fmt"

// Error codes returned in API responses
const (
	ErrCodeConfiguration        = "CONFIGURATION_ERROR"
	ErrCodeLoad                 = "LOAD_ERROR"
	ErrCodeUnresolvedRoster     = "UNRESOLVED_ROSTER"
	ErrCodeSubstitutionConflict = "SUBSTITUTION_CONFLICT"
	ErrCodeInternalConsistency  = "INTERNAL_CONSISTENCY"
	ErrCodeValidation           = "VALIDATION_ERROR"
	ErrCodeNotFound             = "NOT_FOUND"
	ErrCodeRateLimited          = "RATE_LIMITED"
	ErrCodeInternal             = "INTERNAL_ERROR"
)

// AppError represents an application error with a stable code
type AppError struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewAppError creates a new application error
func NewAppError(code, message string, details interface{}) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Details: details,
	}
}

// NewConfigurationError creates a fatal startup configuration error
func NewConfigurationError(message string) *AppError {
	return NewAppError(ErrCodeConfiguration, message, nil)
}

// NewLoadError creates an error for a game whose stats could not be loaded
func NewLoadError(gameKey, message string) *AppError {
	return NewAppError(ErrCodeLoad, message, map[string]string{"game": gameKey})
}

// NewInternalConsistencyError flags a computation that violated an invariant
func NewInternalConsistencyError(message string) *AppError {
	return NewAppError(ErrCodeInternalConsistency, message, nil)
}

// IsCode reports whether err is an *AppError carrying the given code
func IsCode(err error, code string) bool {
	appErr, ok := err.(*AppError)
	return ok && appErr.Code == code
}
