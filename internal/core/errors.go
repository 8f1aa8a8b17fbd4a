package core

import (
	"errors"
	"fmt"
)

// ErrorCategory classifies errors for handling decisions.
type ErrorCategory string

const (
	ErrCatPlanning ErrorCategory = "planning" // Malformed requirements, fatal before scheduling
	ErrCatCycle    ErrorCategory = "cycle"    // Dependency cycle, broken deterministically
	ErrCatSection  ErrorCategory = "section"  // Per-section execution failure, isolated
	ErrCatAssembly ErrorCategory = "assembly" // Element placement or reference resolution failure
	ErrCatBackend  ErrorCategory = "backend"  // Text-generation backend failure
	ErrCatTimeout  ErrorCategory = "timeout"  // Operation timed out
	ErrCatState    ErrorCategory = "state"    // Checkpoint corruption/conflict
	ErrCatInternal ErrorCategory = "internal" // Unexpected internal error
)

// DomainError represents a structured error from the domain layer.
type DomainError struct {
	Category  ErrorCategory
	Code      string
	Message   string
	Retryable bool
	Cause     error
	Details   map[string]interface{}
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %s (%v)", e.Category, e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Category, e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *DomainError) Unwrap() error {
	return e.Cause
}

// Is checks if this error matches a target.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Category == t.Category && e.Code == t.Code
}

// WithCause wraps an underlying error.
func (e *DomainError) WithCause(cause error) *DomainError {
	e.Cause = cause
	return e
}

// WithDetail adds contextual information.
func (e *DomainError) WithDetail(key string, value interface{}) *DomainError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// ErrPlanning creates a planning error. Planning errors are fatal and
// abort before any section is scheduled.
func ErrPlanning(code, message string) *DomainError {
	return &DomainError{
		Category:  ErrCatPlanning,
		Code:      code,
		Message:   message,
		Retryable: false,
	}
}

// ErrCycle creates a dependency cycle error. Cycle errors are non-fatal:
// the scheduler breaks the cycle and marks the run degraded.
func ErrCycle(message string) *DomainError {
	return &DomainError{
		Category:  ErrCatCycle,
		Code:      "DEPENDENCY_CYCLE",
		Message:   message,
		Retryable: false,
	}
}

// ErrSection creates a section execution error.
func ErrSection(code, message string) *DomainError {
	return &DomainError{
		Category:  ErrCatSection,
		Code:      code,
		Message:   message,
		Retryable: true,
	}
}

// ErrAssembly creates an assembly error.
func ErrAssembly(code, message string) *DomainError {
	return &DomainError{
		Category:  ErrCatAssembly,
		Code:      code,
		Message:   message,
		Retryable: false,
	}
}

// ErrBackend creates a backend error.
func ErrBackend(message string) *DomainError {
	return &DomainError{
		Category:  ErrCatBackend,
		Code:      "BACKEND_FAILED",
		Message:   message,
		Retryable: true,
	}
}

// ErrTimeout creates a timeout error.
func ErrTimeout(message string) *DomainError {
	return &DomainError{
		Category:  ErrCatTimeout,
		Code:      "TIMEOUT",
		Message:   message,
		Retryable: true,
	}
}

// ErrState creates a state error.
func ErrState(code, message string) *DomainError {
	return &DomainError{
		Category:  ErrCatState,
		Code:      code,
		Message:   message,
		Retryable: false,
	}
}

// IsRetryable checks if an error is retryable.
func IsRetryable(err error) bool {
	var domErr *DomainError
	if errors.As(err, &domErr) {
		return domErr.Retryable
	}
	return false
}

// GetCategory extracts the error category.
func GetCategory(err error) ErrorCategory {
	var domErr *DomainError
	if errors.As(err, &domErr) {
		return domErr.Category
	}
	return ErrCatInternal
}

// IsCategory checks if an error belongs to a category.
func IsCategory(err error, cat ErrorCategory) bool {
	return GetCategory(err) == cat
}

// Predefined error codes
const (
	CodeInvalidWordCount  = "INVALID_WORD_COUNT"
	CodeUnknownDocType    = "UNKNOWN_DOCUMENT_TYPE"
	CodeUnknownDependency = "UNKNOWN_DEPENDENCY"
	CodeEmptyPlan         = "EMPTY_PLAN"
	CodeAgentUnavailable  = "AGENT_UNAVAILABLE"
	CodeSectionFailed     = "SECTION_FAILED"
	CodeSandboxFailed     = "SANDBOX_FAILED"
	CodeElementUnplaced   = "ELEMENT_UNPLACED"
	CodeCheckpointStale   = "CHECKPOINT_STALE"
	CodeStateCorrupted    = "STATE_CORRUPTED"
)
