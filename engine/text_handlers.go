package engine

import (
	"fmt"
	"strings"

	"templecode/errors"
	"templecode/logging"
	"templecode/program"
)

// T: prints its text with *NAME* interpolation
func handleText(r *run, stmt *program.Statement) ExecutionResult {
	r.emitLine(r.interpolate(stmt.Args))
	return Continue()
}

// A: requests input, optionally into a named variable
func handleAccept(r *run, stmt *program.Statement) ExecutionResult {
	name := strings.TrimSpace(stmt.Args)
	if name != "" && !identifierPattern.MatchString(name) {
		return Fail(errors.NewRuntimeError("BAD_VARIABLE", fmt.Sprintf("A: expects a variable name, got %q", name)))
	}
	return WaitForInput("? ", name, false)
}

// M: matches the last input, or NAME's value in the M:NAME=pattern form,
// against comma-separated alternatives
func handleMatch(r *run, stmt *program.Statement) ExecutionResult {
	subject := r.state.LastInput
	patterns := stmt.Args

	if eq := strings.Index(patterns, "="); eq > 0 {
		name := strings.TrimSpace(patterns[:eq])
		if identifierPattern.MatchString(name) {
			if v, ok := r.vars.Get(name); ok {
				subject = v.String()
				patterns = patterns[eq+1:]
			}
		}
	}

	r.state.LastMatch = false
	for _, alt := range strings.Split(patterns, ",") {
		alt = strings.TrimSpace(alt)
		if alt != "" && wildcardMatch(strings.ToUpper(alt), strings.ToUpper(strings.TrimSpace(subject))) {
			r.state.LastMatch = true
			break
		}
	}
	r.engine.logger.Debug("match",
		logging.StringField("subject", subject),
		logging.BoolField("matched", r.state.LastMatch))
	return Continue()
}

// wildcardMatch matches the whole of s against pattern, where '*' stands
// for any run of characters. Only the most recent star is retried, so the
// cost stays O(len(pattern)*len(s)).
func wildcardMatch(pattern, s string) bool {
	p, t := []rune(pattern), []rune(s)
	pi, ti := 0, 0
	star, mark := -1, 0
	for ti < len(t) {
		switch {
		case pi < len(p) && p[pi] == '*':
			star, mark = pi, ti
			pi++
		case pi < len(p) && p[pi] == t[ti]:
			pi++
			ti++
		case star >= 0:
			mark++
			pi, ti = star+1, mark
		default:
			return false
		}
	}
	for pi < len(p) && p[pi] == '*' {
		pi++
	}
	return pi == len(p)
}

// Y: jumps when the last match succeeded
func handleJumpIfMatch(r *run, stmt *program.Statement) ExecutionResult {
	return conditionalJump(stmt, r.state.LastMatch)
}

// N: jumps when the last match failed
func handleJumpIfNoMatch(r *run, stmt *program.Statement) ExecutionResult {
	return conditionalJump(stmt, !r.state.LastMatch)
}

func conditionalJump(stmt *program.Statement, taken bool) ExecutionResult {
	target := strings.TrimSpace(stmt.Args)
	if !taken || target == "" {
		return Continue()
	}
	return Jump(target)
}

// C: computes NAME = expr; text variables take a text expression
func handleCompute(r *run, stmt *program.Statement) ExecutionResult {
	if err := r.assign(stmt.Args); err != nil {
		return Fail(err)
	}
	return Continue()
}

// U: prints a variable; an unknown variable prints an empty line
func handleShowVariable(r *run, stmt *program.Statement) ExecutionResult {
	name := strings.TrimSpace(stmt.Args)
	if name == "" {
		return Fail(errors.NewRuntimeError("BAD_VARIABLE", "U: expects a variable name"))
	}
	text := ""
	if v, ok := r.vars.Get(name); ok {
		text = v.String()
	}
	r.emitLine(text)
	return Continue()
}

// J: jumps unconditionally
func handleJump(r *run, stmt *program.Statement) ExecutionResult {
	target := strings.TrimSpace(stmt.Args)
	if target == "" {
		return Fail(errors.NewRuntimeError("MISSING_TARGET", "J: expects a label"))
	}
	return Jump(target)
}

func handleUnknownPrefix(r *run, stmt *program.Statement) ExecutionResult {
	return Fail(errors.NewRuntimeError("UNKNOWN_COMMAND",
		fmt.Sprintf("unknown command %c:", stmt.Prefix.Letter)))
}

// assign handles NAME = expr for C:, LET and implicit assignment
func (r *run) assign(text string) *errors.ExecutionError {
	eq := strings.Index(text, "=")
	if eq < 0 {
		return errors.NewRuntimeError("BAD_ASSIGNMENT", "assignment expects NAME = expression")
	}
	name := strings.TrimSpace(text[:eq])
	expr := strings.TrimSpace(text[eq+1:])
	if !identifierPattern.MatchString(name) {
		return errors.NewRuntimeError("BAD_VARIABLE", fmt.Sprintf("%q is not a variable name", name))
	}
	if expr == "" {
		return errors.NewRuntimeError("BAD_ASSIGNMENT", fmt.Sprintf("missing value for %s", strings.ToUpper(name)))
	}

	if strings.HasSuffix(name, "$") {
		s, err := r.text(expr)
		if err != nil {
			return err
		}
		r.vars.SetText(name, s)
		return nil
	}

	n, err := r.number(expr)
	if err != nil {
		return err
	}
	r.vars.SetNumber(name, n)
	return nil
}
