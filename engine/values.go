package engine

import (
	"regexp"
	"strings"

	"templecode/errors"
	"templecode/shared"
)

var (
	textVariablePattern = regexp.MustCompile(`[A-Za-z_][A-Za-z0-9_]*\$`)
	identifierPattern   = regexp.MustCompile(`^:?[A-Za-z_][A-Za-z0-9_]*\$?$`)
)

// comparators are tried longest first
var comparators = []string{"<>", "!=", "<=", ">=", "==", "=", "<", ">"}

// number evaluates a numeric expression against the variable store
func (r *run) number(text string) (float64, *errors.ExecutionError) {
	v, err := r.engine.evaluator.Eval(text, r.vars)
	if err != nil {
		if execErr, ok := errors.GetExecutionError(err); ok {
			return 0, execErr
		}
		return 0, errors.NewEvaluationError("EVALUATION_FAILED", err.Error()).Wrap(err)
	}
	return v, nil
}

// isTextExpression reports whether expr involves a quoted literal or a
// text variable
func isTextExpression(expr string) bool {
	return strings.Contains(expr, `"`) || textVariablePattern.MatchString(expr)
}

// text evaluates a text expression: quoted literals, text variables and
// numeric sub-expressions joined with '+'
func (r *run) text(expr string) (string, *errors.ExecutionError) {
	return r.joinText(expr, false)
}

// joinText evaluates a text expression. With interpolate set, *NAME*
// references inside quoted literals are substituted.
func (r *run) joinText(expr string, interpolate bool) (string, *errors.ExecutionError) {
	var b strings.Builder
	for _, part := range splitTopLevel(expr, '+') {
		part = strings.TrimSpace(part)
		switch {
		case part == "":
			return "", errors.NewEvaluationError("STACK_UNDERFLOW", "missing operand for +")
		case isQuoted(part):
			lit := part[1 : len(part)-1]
			if interpolate {
				lit = r.interpolate(lit)
			}
			b.WriteString(lit)
		case shared.IsTextName(part) && identifierPattern.MatchString(part):
			if v, ok := r.vars.Get(part); ok {
				b.WriteString(v.String())
			}
		default:
			n, err := r.number(part)
			if err != nil {
				return "", err
			}
			b.WriteString(shared.FormatNumber(n))
		}
	}
	return b.String(), nil
}

// value evaluates expr as text or as a number depending on its shape
func (r *run) value(expr string) (shared.Value, *errors.ExecutionError) {
	if isTextExpression(expr) {
		s, err := r.text(expr)
		return shared.Text(s), err
	}
	n, err := r.number(expr)
	return shared.Number(n), err
}

// printValue evaluates a PRINT item; quoted literals are interpolated
func (r *run) printValue(expr string) (shared.Value, *errors.ExecutionError) {
	if isTextExpression(expr) {
		s, err := r.joinText(expr, true)
		return shared.Text(s), err
	}
	n, err := r.number(expr)
	return shared.Number(n), err
}

// condition evaluates an IF or guard condition. A comparison with a text
// operand compares strings; anything else is numeric and true when non-zero.
func (r *run) condition(expr string) (bool, *errors.ExecutionError) {
	if isTextExpression(expr) {
		if left, op, right, ok := splitComparison(expr); ok {
			l, err := r.text(left)
			if err != nil {
				return false, err
			}
			rt, err := r.text(right)
			if err != nil {
				return false, err
			}
			return compareText(l, op, rt), nil
		}
	}
	n, err := r.number(expr)
	if err != nil {
		return false, err
	}
	return n != 0, nil
}

func compareText(l, op, r string) bool {
	switch op {
	case "=", "==":
		return l == r
	case "<>", "!=":
		return l != r
	case "<":
		return l < r
	case ">":
		return l > r
	case "<=":
		return l <= r
	case ">=":
		return l >= r
	}
	return false
}

// splitComparison finds the first comparator outside quotes and parentheses
func splitComparison(expr string) (string, string, string, bool) {
	depth := 0
	inQuote := false
	for i := 0; i < len(expr); i++ {
		switch c := expr[i]; {
		case c == '"':
			inQuote = !inQuote
		case inQuote:
		case c == '(':
			depth++
		case c == ')':
			depth--
		case depth == 0:
			for _, op := range comparators {
				if strings.HasPrefix(expr[i:], op) {
					return expr[:i], op, expr[i+len(op):], true
				}
			}
		}
	}
	return "", "", "", false
}

// splitTopLevel splits on sep outside quotes and parentheses
func splitTopLevel(s string, sep byte) []string {
	var parts []string
	depth := 0
	inQuote := false
	start := 0
	for i := 0; i < len(s); i++ {
		switch c := s[i]; {
		case c == '"':
			inQuote = !inQuote
		case inQuote:
		case c == '(':
			depth++
		case c == ')':
			depth--
		case c == sep && depth == 0:
			parts = append(parts, s[start:i])
			start = i + 1
		}
	}
	return append(parts, s[start:])
}

func isQuoted(s string) bool {
	return len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' && strings.Count(s, `"`) == 2
}

// interpolate replaces *NAME* with the value of NAME in one left-to-right
// scan. Unknown names become "". A '*' that does not open a well-formed
// reference is copied as is.
func (r *run) interpolate(text string) string {
	if !strings.Contains(text, "*") {
		return text
	}

	var b strings.Builder
	for i := 0; i < len(text); {
		if text[i] != '*' {
			b.WriteByte(text[i])
			i++
			continue
		}
		end := scanReference(text, i+1)
		if end < 0 {
			b.WriteByte('*')
			i++
			continue
		}
		if v, ok := r.vars.Get(text[i+1 : end]); ok {
			b.WriteString(v.String())
		}
		i = end + 1
	}
	return b.String()
}

// scanReference returns the index of the closing '*' of an identifier that
// starts at i, or -1
func scanReference(text string, i int) int {
	j := i
	for j < len(text) && isIdentByte(text[j], j == i) {
		j++
	}
	if j == i {
		return -1
	}
	if j < len(text) && text[j] == '$' {
		j++
	}
	if j < len(text) && text[j] == '*' {
		return j
	}
	return -1
}

func isIdentByte(c byte, first bool) bool {
	switch {
	case c == '_', c >= 'A' && c <= 'Z', c >= 'a' && c <= 'z':
		return true
	case c >= '0' && c <= '9':
		return !first
	}
	return false
}
