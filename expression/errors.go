package expression

import (
	"fmt"

	"templecode/errors"
)

// Error codes reported by the evaluator
const (
	CodeDivisionByZero      = "DIVISION_BY_ZERO"
	CodeUnknownFunction     = "UNKNOWN_FUNCTION"
	CodeStackUnderflow      = "STACK_UNDERFLOW"
	CodeArity               = "ARITY"
	CodeDomain              = "DOMAIN"
	CodeMismatchedParens    = "MISMATCHED_PARENS"
	CodeUnexpectedCharacter = "UNEXPECTED_CHARACTER"
	CodeTokenLimit          = "TOKEN_LIMIT"
	CodeEmpty               = "EMPTY_EXPRESSION"
)

// Sentinels for use with errors.Is; they match on code and type only.
var (
	ErrDivisionByZero      = errors.NewEvaluationError(CodeDivisionByZero, "division by zero")
	ErrUnknownFunction     = errors.NewEvaluationError(CodeUnknownFunction, "unknown function")
	ErrStackUnderflow      = errors.NewEvaluationError(CodeStackUnderflow, "malformed expression")
	ErrArity               = errors.NewEvaluationError(CodeArity, "wrong number of arguments")
	ErrDomain              = errors.NewEvaluationError(CodeDomain, "result is not a finite number")
	ErrMismatchedParens    = errors.NewEvaluationError(CodeMismatchedParens, "mismatched parentheses")
	ErrUnexpectedCharacter = errors.NewEvaluationError(CodeUnexpectedCharacter, "unexpected character")
	ErrTokenLimit          = errors.NewEvaluationError(CodeTokenLimit, "expression too long")
	ErrEmpty               = errors.NewEvaluationError(CodeEmpty, "empty expression")
)

func newError(code, format string, args ...interface{}) *errors.ExecutionError {
	return errors.NewEvaluationError(code, fmt.Sprintf(format, args...))
}
