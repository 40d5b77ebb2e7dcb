package shared

import "errors"

// DomainError represents a domain-level error
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Common domain errors
var (
	ErrNotFound            = NewDomainError("NOT_FOUND", "Resource not found")
	ErrAlreadyExists       = NewDomainError("ALREADY_EXISTS", "Resource already exists")
	ErrInvalidInput        = NewDomainError("INVALID_INPUT", "Invalid input provided")
	ErrConcurrencyConflict = NewDomainError("CONCURRENCY_CONFLICT", "Resource was modified by another process")
	ErrInvalidState        = NewDomainError("INVALID_STATE", "Operation not allowed in current state")

	// Cost tracking errors
	ErrConfigurationMissing  = NewDomainError("CONFIGURATION_MISSING", "Required cost accounts are not configured")
	ErrImbalancedEntry       = NewDomainError("IMBALANCED_ENTRY", "Generated journal lines do not sum to zero")
	ErrDuplicateTrackingItem = NewDomainError("DUPLICATE_TRACKING_ITEM", "More than one tracking item matches the same source")
)

// IsDomainError reports whether err is a DomainError with the given code
func IsDomainError(err error, code string) bool {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}
