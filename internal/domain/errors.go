package domain

import "fmt"

// DomainError represents a domain-specific error
type DomainError struct {
	Code    string
	Message string
	Err     error
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError creates a new DomainError
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     nil,
	}
}

// NewDomainErrorWithCause creates a new DomainError with an underlying cause
func NewDomainErrorWithCause(code, message string, err error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Common domain error codes
const (
	ErrCodeValidation    = "VALIDATION_ERROR"
	ErrCodeNotFound      = "NOT_FOUND"
	ErrCodeChunking      = "CHUNKING_ERROR"
	ErrCodeIndex         = "INDEX_ERROR"
	ErrCodeLLM           = "LLM_ERROR"
	ErrCodeConsistency   = "CONSISTENCY_ERROR"
	ErrCodeInternalError = "INTERNAL_ERROR"
)

// Validation errors
var (
	ErrEmptyQuery          = NewDomainError(ErrCodeValidation, "query cannot be empty")
	ErrEmptyMessage        = NewDomainError(ErrCodeValidation, "message content cannot be empty")
	ErrInvalidSourceStatus = NewDomainError(ErrCodeValidation, "invalid source status")
	ErrInvalidURL          = NewDomainError(ErrCodeValidation, "invalid url")
)

// Chunking errors
var (
	ErrEmptyDocument      = NewDomainError(ErrCodeChunking, "document has no text content")
	ErrInvalidChunkConfig = NewDomainError(ErrCodeChunking, "chunk overlap must be smaller than chunk size")
)

// Not found errors
var (
	ErrSourceNotFound  = NewDomainError(ErrCodeNotFound, "source not found")
	ErrSessionNotFound = NewDomainError(ErrCodeNotFound, "chat session not found")
)
