package expression

import (
	"strconv"
	"strings"
	"unicode"
)

// MaxTokens bounds the number of tokens accepted from a single expression
const MaxTokens = 1000

// wordOperators are identifiers that lex as operators
var wordOperators = map[string]struct {
	typ  TokenType
	text string
}{
	"MOD": {TokenOperator, "%"},
	"AND": {TokenOperator, "AND"},
	"OR":  {TokenOperator, "OR"},
}

// Tokenize splits expression text into tokens.
// Names are upper-cased and a leading ':' on a name is dropped, so
// :SIDE and SIDE are the same variable.
func Tokenize(text string) ([]Token, error) {
	var tokens []Token
	runes := []rune(text)
	i := 0

	emit := func(tok Token) error {
		if len(tokens) >= MaxTokens {
			return newError(CodeTokenLimit, "expression exceeds %d tokens", MaxTokens)
		}
		tokens = append(tokens, tok)
		return nil
	}

	for i < len(runes) {
		r := runes[i]
		start := i

		switch {
		case unicode.IsSpace(r):
			i++
			continue

		case unicode.IsDigit(r) || (r == '.' && i+1 < len(runes) && unicode.IsDigit(runes[i+1])):
			i = scanNumber(runes, i)
			lit := string(runes[start:i])
			value, err := strconv.ParseFloat(lit, 64)
			if err != nil {
				return nil, newError(CodeUnexpectedCharacter, "invalid number %q", lit)
			}
			if err := emit(Token{Type: TokenNumber, Text: lit, Value: value, Pos: start}); err != nil {
				return nil, err
			}
			continue

		case r == ':' || isIdentStart(r):
			if r == ':' {
				i++
				if i >= len(runes) || !isIdentStart(runes[i]) {
					return nil, newError(CodeUnexpectedCharacter, "unexpected character ':' at position %d", start)
				}
			}
			nameStart := i
			for i < len(runes) && isIdentPart(runes[i]) {
				i++
			}
			if i < len(runes) && runes[i] == '$' {
				i++
			}
			name := strings.ToUpper(string(runes[nameStart:i]))

			if op, ok := wordOperators[name]; ok && r != ':' {
				if err := emit(Token{Type: op.typ, Text: op.text, Pos: start}); err != nil {
					return nil, err
				}
				continue
			}

			typ := TokenVariable
			if r != ':' {
				if nextNonSpace(runes, i) == '(' {
					typ = TokenFunction
				} else if spec, ok := functions[name]; ok && spec.arity == 0 {
					typ = TokenFunction
				}
			}
			if err := emit(Token{Type: typ, Text: name, Pos: start}); err != nil {
				return nil, err
			}
			continue
		}

		var tok Token
		switch r {
		case '+', '-', '*', '/', '%', '^':
			tok = Token{Type: TokenOperator, Text: string(r)}
			i++
		case '(':
			tok = Token{Type: TokenLeftParen, Text: "("}
			i++
		case ')':
			tok = Token{Type: TokenRightParen, Text: ")"}
			i++
		case ',':
			tok = Token{Type: TokenComma, Text: ","}
			i++
		case '=':
			tok = Token{Type: TokenComparator, Text: "="}
			i++
			if i < len(runes) && runes[i] == '=' {
				i++
			}
		case '!':
			if i+1 < len(runes) && runes[i+1] == '=' {
				tok = Token{Type: TokenComparator, Text: "<>"}
				i += 2
			} else {
				return nil, newError(CodeUnexpectedCharacter, "unexpected character '!' at position %d", start)
			}
		case '<':
			i++
			switch {
			case i < len(runes) && runes[i] == '=':
				tok = Token{Type: TokenComparator, Text: "<="}
				i++
			case i < len(runes) && runes[i] == '>':
				tok = Token{Type: TokenComparator, Text: "<>"}
				i++
			default:
				tok = Token{Type: TokenComparator, Text: "<"}
			}
		case '>':
			i++
			if i < len(runes) && runes[i] == '=' {
				tok = Token{Type: TokenComparator, Text: ">="}
				i++
			} else {
				tok = Token{Type: TokenComparator, Text: ">"}
			}
		default:
			return nil, newError(CodeUnexpectedCharacter, "unexpected character %q at position %d", r, start)
		}

		tok.Pos = start
		if err := emit(tok); err != nil {
			return nil, err
		}
	}

	return tokens, nil
}

func scanNumber(runes []rune, i int) int {
	for i < len(runes) && unicode.IsDigit(runes[i]) {
		i++
	}
	if i < len(runes) && runes[i] == '.' {
		i++
		for i < len(runes) && unicode.IsDigit(runes[i]) {
			i++
		}
	}
	// Exponent only when digits follow, so "2E" stays a number then a name
	if i < len(runes) && (runes[i] == 'e' || runes[i] == 'E') {
		j := i + 1
		if j < len(runes) && (runes[j] == '+' || runes[j] == '-') {
			j++
		}
		if j < len(runes) && unicode.IsDigit(runes[j]) {
			for j < len(runes) && unicode.IsDigit(runes[j]) {
				j++
			}
			i = j
		}
	}
	return i
}

func nextNonSpace(runes []rune, i int) rune {
	for i < len(runes) {
		if !unicode.IsSpace(runes[i]) {
			return runes[i]
		}
		i++
	}
	return 0
}

func isIdentStart(r rune) bool {
	return r == '_' || unicode.IsLetter(r)
}

func isIdentPart(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}
