package errors

import (
	"fmt"
	"strings"
	"time"
)

// ErrorType represents the type of error
type ErrorType string

const (
	ErrorTypeLoad          ErrorType = "LOAD"
	ErrorTypeRuntime       ErrorType = "RUNTIME"
	ErrorTypeFatal         ErrorType = "FATAL"
	ErrorTypeResourceLimit ErrorType = "RESOURCE_LIMIT"
	ErrorTypeEvaluation    ErrorType = "EVALUATION"
	ErrorTypeConfig        ErrorType = "CONFIG"
	ErrorTypeUser          ErrorType = "USER"
)

// ErrorSeverity represents the severity level of an error
type ErrorSeverity string

const (
	SeverityInfo    ErrorSeverity = "INFO"
	SeverityWarning ErrorSeverity = "WARNING"
	SeverityError   ErrorSeverity = "ERROR"
	SeverityFatal   ErrorSeverity = "FATAL"
)

// ExecutionError represents a structured error with detailed information
type ExecutionError struct {
	Code      string                 `json:"code"`
	Message   string                 `json:"message"`
	Line      int                    `json:"line,omitempty"`
	Context   map[string]interface{} `json:"context,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	Severity  ErrorSeverity          `json:"severity"`
	Type      ErrorType              `json:"type"`
	Cause     error                  `json:"-"`
}

// Error implements the error interface
func (e *ExecutionError) Error() string {
	var builder strings.Builder

	// Format: [TYPE][CODE] message
	builder.WriteString(fmt.Sprintf("[%s][%s] %s", e.Type, e.Code, e.Message))
	if e.Line > 0 {
		builder.WriteString(fmt.Sprintf(" line %d", e.Line))
	}
	if e.Cause != nil {
		builder.WriteString(": ")
		builder.WriteString(e.Cause.Error())
	}

	return builder.String()
}

// Unwrap returns the underlying error
func (e *ExecutionError) Unwrap() error {
	return e.Cause
}

// Is checks if the error matches the target
func (e *ExecutionError) Is(target error) bool {
	if other, ok := target.(*ExecutionError); ok {
		return e.Code == other.Code && e.Type == other.Type
	}
	return false
}

// WithContext adds context information to the error
func (e *ExecutionError) WithContext(key string, value interface{}) *ExecutionError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// WithSeverity sets the severity level for the error
func (e *ExecutionError) WithSeverity(severity ErrorSeverity) *ExecutionError {
	e.Severity = severity
	return e
}

// WithLine sets the source line for the error
func (e *ExecutionError) WithLine(line int) *ExecutionError {
	e.Line = line
	return e
}

// Wrap wraps another error
func (e *ExecutionError) Wrap(err error) *ExecutionError {
	e.Cause = err
	return e
}

// UserMessage renders the error the way a program listing reports it
func (e *ExecutionError) UserMessage() string {
	if e.Line > 0 {
		return fmt.Sprintf("Error at line %d: %s", e.Line, e.Message)
	}
	return "Error: " + e.Message
}

// IsFatal reports whether the error must stop execution
func (e *ExecutionError) IsFatal() bool {
	return e.Type == ErrorTypeFatal || e.Type == ErrorTypeResourceLimit || e.Severity == SeverityFatal
}

func newError(errorType ErrorType, severity ErrorSeverity, code, message string) *ExecutionError {
	return &ExecutionError{
		Code:      code,
		Message:   message,
		Timestamp: time.Now(),
		Severity:  severity,
		Type:      errorType,
		Context:   make(map[string]interface{}),
	}
}

// NewLoadError creates an error for malformed program structure
func NewLoadError(code, message string, line int) *ExecutionError {
	return newError(ErrorTypeLoad, SeverityError, code, message).WithLine(line)
}

// NewRuntimeError creates a recoverable runtime error
func NewRuntimeError(code, message string) *ExecutionError {
	return newError(ErrorTypeRuntime, SeverityWarning, code, message)
}

// NewFatalError creates a runtime error that terminates execution
func NewFatalError(code, message string) *ExecutionError {
	return newError(ErrorTypeFatal, SeverityFatal, code, message)
}

// NewResourceLimitError creates an iteration cap or timeout error
func NewResourceLimitError(code, message string) *ExecutionError {
	return newError(ErrorTypeResourceLimit, SeverityFatal, code, message)
}

// NewEvaluationError creates an expression evaluation error
func NewEvaluationError(code, message string) *ExecutionError {
	return newError(ErrorTypeEvaluation, SeverityWarning, code, message)
}

// NewConfigError creates a configuration error
func NewConfigError(code, message string) *ExecutionError {
	return newError(ErrorTypeConfig, SeverityError, code, message)
}

// NewUserError creates an error for a mistyped session command
func NewUserError(code, message string) *ExecutionError {
	return newError(ErrorTypeUser, SeverityError, code, message)
}

// IsExecutionError checks if an error is an ExecutionError
func IsExecutionError(err error) bool {
	_, ok := err.(*ExecutionError)
	return ok
}

// GetExecutionError extracts an ExecutionError from an error
func GetExecutionError(err error) (*ExecutionError, bool) {
	execErr, ok := err.(*ExecutionError)
	return execErr, ok
}

// IsType reports whether err is an ExecutionError of the given type
func IsType(err error, errorType ErrorType) bool {
	if execErr, ok := GetExecutionError(err); ok {
		return execErr.Type == errorType
	}
	return false
}
