package shared

import "strings"

// ValueKind tags the payload carried by a Value
type ValueKind uint8

const (
	KindNumber ValueKind = iota
	KindText
)

// String returns the name of the kind
func (k ValueKind) String() string {
	if k == KindText {
		return "text"
	}
	return "number"
}

// Value is a tagged variable value: either a number or a text string
type Value struct {
	Kind ValueKind `json:"kind"`
	Num  float64   `json:"num,omitempty"`
	Str  string    `json:"str,omitempty"`
}

// Number creates a numeric value
func Number(n float64) Value {
	return Value{Kind: KindNumber, Num: n}
}

// Text creates a text value
func Text(s string) Value {
	return Value{Kind: KindText, Str: s}
}

// IsText reports whether the value carries text
func (v Value) IsText() bool {
	return v.Kind == KindText
}

// String renders the value the way it appears in program output
func (v Value) String() string {
	if v.Kind == KindText {
		return v.Str
	}
	return FormatNumber(v.Num)
}

// IsTextName reports whether a variable name denotes a text variable (X$)
func IsTextName(name string) bool {
	return strings.HasSuffix(name, "$")
}

// NormalizeName upper-cases a variable name and strips a leading ':'
// so that Logo-style :SIDE and SIDE refer to the same variable
func NormalizeName(name string) string {
	return strings.ToUpper(strings.TrimPrefix(strings.TrimSpace(name), ":"))
}
