package engine

import (
	"time"

	"templecode/errors"
	"templecode/shared"
)

// ResultKind tells the main loop what a handler wants to happen next
type ResultKind uint8

const (
	KindContinue ResultKind = iota
	KindGoto
	KindJump
	KindEnd
	KindWaitForInput
	KindError
)

// ExecutionResult is returned by every statement handler
type ExecutionResult struct {
	Kind ResultKind
	// Index is the statement index for KindGoto
	Index int
	// Target is a label or line number for KindJump
	Target string
	// Prompt and Variable describe a KindWaitForInput request
	Prompt   string
	Variable string
	// Numeric asks for the answer to be stored as a number
	Numeric bool
	// Err carries the failure for KindError
	Err *errors.ExecutionError
}

// Continue moves to the next statement
func Continue() ExecutionResult {
	return ExecutionResult{Kind: KindContinue}
}

// Goto moves to a resolved statement index
func Goto(index int) ExecutionResult {
	return ExecutionResult{Kind: KindGoto, Index: index}
}

// Jump moves to a label or line number resolved by the engine
func Jump(target string) ExecutionResult {
	return ExecutionResult{Kind: KindJump, Target: target}
}

// End halts the run normally
func End() ExecutionResult {
	return ExecutionResult{Kind: KindEnd}
}

// WaitForInput suspends the run until the input provider answers
func WaitForInput(prompt, variable string, numeric bool) ExecutionResult {
	return ExecutionResult{Kind: KindWaitForInput, Prompt: prompt, Variable: variable, Numeric: numeric}
}

// Fail reports err; recoverable errors continue at the next statement
func Fail(err *errors.ExecutionError) ExecutionResult {
	return ExecutionResult{Kind: KindError, Err: err}
}

// Status is the state of a run
type Status uint8

const (
	StatusRunning Status = iota
	StatusWaitingForInput
	StatusHaltedNormal
	StatusHaltedError
	StatusHaltedResourceLimit
)

// String returns the status name used in logs and the CLI
func (s Status) String() string {
	switch s {
	case StatusRunning:
		return "running"
	case StatusWaitingForInput:
		return "waiting_for_input"
	case StatusHaltedNormal:
		return "halted"
	case StatusHaltedError:
		return "halted_error"
	case StatusHaltedResourceLimit:
		return "halted_resource_limit"
	default:
		return "unknown"
	}
}

// IsHalted reports whether the run has terminated
func (s Status) IsHalted() bool {
	return s >= StatusHaltedNormal
}

// Screen holds the text-screen flags set by CLS, SCREEN and LOCATE
type Screen struct {
	Mode   int `json:"mode"`
	Row    int `json:"row"`
	Col    int `json:"col"`
	Clears int `json:"clears"`
}

// Result is what Execute returns. Output is only filled when no sink was
// supplied; partial output is always kept.
type Result struct {
	Status     Status
	Err        error
	Errors     []*errors.ExecutionError
	Iterations int
	Output     []string
	Variables  map[string]shared.Value
	Screen     Screen
	Duration   time.Duration
}
