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
	ErrCodeUnauthorized  = "UNAUTHORIZED"
	ErrCodeForbidden     = "FORBIDDEN"
	ErrCodeProvider      = "PROVIDER_ERROR"
	ErrCodeStorage       = "STORAGE_ERROR"
	ErrCodeInternalError = "INTERNAL_ERROR"
)

// Validation errors
var (
	ErrEmptyMessage        = NewDomainError(ErrCodeValidation, "message cannot be empty")
	ErrInvalidRole         = NewDomainError(ErrCodeValidation, "role must be 'user' or 'assistant'")
	ErrNoFile              = NewDomainError(ErrCodeValidation, "no file uploaded")
	ErrEmptyFile           = NewDomainError(ErrCodeValidation, "uploaded file contains no text")
	ErrUnsupportedFileType = NewDomainError(ErrCodeValidation, "unsupported file type, expected PDF or plain text")
	ErrInvalidChunkConfig  = NewDomainError(ErrCodeValidation, "chunk size must be greater than overlap")
)

// Not found errors
var (
	ErrDocumentNotFound = NewDomainError(ErrCodeNotFound, "document not found")
	ErrJobNotFound      = NewDomainError(ErrCodeNotFound, "ingest job not found")
)

// Authorization errors
var (
	ErrInvalidAPIKey = NewDomainError(ErrCodeUnauthorized, "invalid api key")
	ErrAdminRequired = NewDomainError(ErrCodeForbidden, "admin api key required")
)

// Provider errors wrap failures of the embedding/completion providers. They
// are surfaced to the caller, never swallowed into a fabricated answer.
var (
	ErrEmbeddingFailed  = NewDomainError(ErrCodeProvider, "embedding provider call failed")
	ErrCompletionFailed = NewDomainError(ErrCodeProvider, "completion provider call failed")
)

// NewProviderError wraps a provider failure with its cause
func NewProviderError(message string, err error) *DomainError {
	return NewDomainErrorWithCause(ErrCodeProvider, message, err)
}

// NewStorageError wraps a persistence failure with its cause
func NewStorageError(message string, err error) *DomainError {
	return NewDomainErrorWithCause(ErrCodeStorage, message, err)
}
