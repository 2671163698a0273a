package errors

import (
	"fmt"
)

// RecoveryAction represents the type of recovery action
type RecoveryAction string

const (
	// RecoveryActionContinue reports the error and resumes at the next statement
	RecoveryActionContinue RecoveryAction = "CONTINUE"
	// RecoveryActionAbort halts execution with an error status
	RecoveryActionAbort RecoveryAction = "ABORT"
	// RecoveryActionLimit halts execution with a resource limit status
	RecoveryActionLimit RecoveryAction = "LIMIT"
)

// RecoveryStrategy represents a strategy for recovering from an error
type RecoveryStrategy struct {
	Action  RecoveryAction `json:"action"`
	Message string         `json:"message"`
}

// ErrorHandler defines the interface for handling errors
type ErrorHandler interface {
	// Handle normalizes an arbitrary error into an ExecutionError
	Handle(err error) *ExecutionError

	// Recover returns the recovery strategy for an error
	Recover(err error) RecoveryStrategy
}

// RecoveryPolicy defines how to handle errors of a specific type
type RecoveryPolicy struct {
	DefaultAction RecoveryAction
}

// DefaultErrorHandler is the default implementation of ErrorHandler
type DefaultErrorHandler struct {
	recoveryPolicies map[ErrorType]RecoveryPolicy
}

// NewDefaultErrorHandler creates a new default error handler
func NewDefaultErrorHandler() *DefaultErrorHandler {
	return &DefaultErrorHandler{
		recoveryPolicies: map[ErrorType]RecoveryPolicy{
			ErrorTypeRuntime:       {DefaultAction: RecoveryActionContinue},
			ErrorTypeEvaluation:    {DefaultAction: RecoveryActionContinue},
			ErrorTypeFatal:         {DefaultAction: RecoveryActionAbort},
			ErrorTypeLoad:          {DefaultAction: RecoveryActionAbort},
			ErrorTypeConfig:        {DefaultAction: RecoveryActionAbort},
			ErrorTypeResourceLimit: {DefaultAction: RecoveryActionLimit},
		},
	}
}

// Handle processes an error and returns it as an ExecutionError
func (h *DefaultErrorHandler) Handle(err error) *ExecutionError {
	if err == nil {
		return nil
	}

	// If it's already an ExecutionError, return it as-is
	if execErr, ok := err.(*ExecutionError); ok {
		return execErr
	}

	return NewRuntimeError("UNKNOWN_ERROR", err.Error()).Wrap(err)
}

// Recover returns the recovery strategy for the error's type
func (h *DefaultErrorHandler) Recover(err error) RecoveryStrategy {
	execErr := h.Handle(err)
	if execErr == nil {
		return RecoveryStrategy{Action: RecoveryActionContinue}
	}

	policy, exists := h.recoveryPolicies[execErr.Type]
	if !exists {
		policy = RecoveryPolicy{DefaultAction: RecoveryActionContinue}
	}

	// Severity overrides the type policy so a runtime error can be escalated
	action := policy.DefaultAction
	if execErr.Severity == SeverityFatal && action == RecoveryActionContinue {
		action = RecoveryActionAbort
	}

	return RecoveryStrategy{
		Action:  action,
		Message: fmt.Sprintf("Recovery strategy for %s error: %s", execErr.Type, execErr.Message),
	}
}
