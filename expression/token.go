package expression

import "fmt"

// TokenType classifies a lexical token of an expression
type TokenType uint8

const (
	TokenNumber TokenType = iota
	TokenOperator
	TokenFunction
	TokenVariable
	TokenLeftParen
	TokenRightParen
	TokenComparator
	TokenComma
)

var tokenTypeNames = [...]string{
	TokenNumber:     "NUMBER",
	TokenOperator:   "OPERATOR",
	TokenFunction:   "FUNCTION",
	TokenVariable:   "VARIABLE",
	TokenLeftParen:  "LPAREN",
	TokenRightParen: "RPAREN",
	TokenComparator: "COMPARATOR",
	TokenComma:      "COMMA",
}

// String returns the name of the token type
func (t TokenType) String() string {
	if int(t) < len(tokenTypeNames) {
		return tokenTypeNames[t]
	}
	return fmt.Sprintf("TokenType(%d)", t)
}

// Token is a single lexical unit. Text is upper-cased for names and
// canonical for operators ("%" for MOD, "<>" for "!=", "=" for "==").
type Token struct {
	Type  TokenType
	Text  string
	Value float64
	// Args is the argument count of a function token after ToPostfix
	Args int
	// Pos is the byte offset of the token in the source text
	Pos int
}

// String returns a debug representation of the token
func (t Token) String() string {
	switch t.Type {
	case TokenNumber:
		return fmt.Sprintf("%s(%g)", t.Type, t.Value)
	case TokenFunction:
		return fmt.Sprintf("%s(%s/%d)", t.Type, t.Text, t.Args)
	default:
		return fmt.Sprintf("%s(%s)", t.Type, t.Text)
	}
}

// unaryMinus is the operator text used for negation after ToPostfix
const unaryMinus = "NEG"
