package program

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// splitWords splits a turtle line into words. Brackets outside quotes are
// words of their own, a quoted string stays one word, and a parenthesized
// group is merged back into a single word.
func splitWords(text string) []string {
	runes := []rune(text)
	closing := pairedQuotes(runes)

	var words []string
	var cur strings.Builder
	flush := func() {
		if cur.Len() > 0 {
			words = append(words, cur.String())
			cur.Reset()
		}
	}

	inQuote := false
	for i, r := range runes {
		switch {
		case r == '"' && (inQuote || closing[i]):
			inQuote = !inQuote
			cur.WriteRune(r)
		case inQuote:
			cur.WriteRune(r)
		case r == '[' || r == ']':
			flush()
			words = append(words, string(r))
		case unicode.IsSpace(r):
			flush()
		default:
			cur.WriteRune(r)
		}
	}
	flush()

	return mergeParens(words)
}

// pairedQuotes marks opening quotes that have a closing partner. A lone
// Logo-style quote ("RED) is an ordinary character.
func pairedQuotes(runes []rune) map[int]bool {
	opens := make(map[int]bool)
	open := -1
	for i, r := range runes {
		if r != '"' {
			continue
		}
		if open < 0 {
			open = i
		} else {
			opens[open] = true
			open = -1
		}
	}
	return opens
}

func mergeParens(words []string) []string {
	merged := make([]string, 0, len(words))
	depth := 0
	for _, w := range words {
		if depth > 0 && w != "[" && w != "]" {
			merged[len(merged)-1] += " " + w
		} else {
			merged = append(merged, w)
		}
		depth += strings.Count(w, "(") - strings.Count(w, ")")
		if depth < 0 {
			depth = 0
		}
	}
	return merged
}

// splitTrailingBrackets removes ']' characters that end a non-turtle line
// inside a block and reports how many were removed
func splitTrailingBrackets(text string) (string, int) {
	if strings.Count(text, `"`)%2 != 0 {
		return text, 0
	}
	closes := 0
	body := strings.TrimRightFunc(text, unicode.IsSpace)
	for strings.HasSuffix(body, "]") {
		closes++
		body = strings.TrimRightFunc(strings.TrimSuffix(body, "]"), unicode.IsSpace)
	}
	return body, closes
}

// splitKeyword separates the leading identifier from the rest: "X=5" gives
// ("X", "=5"), `PRINT "HI"` gives ("PRINT", `"HI"`)
func splitKeyword(body string) (string, string) {
	if strings.HasPrefix(body, "'") {
		return "'", strings.TrimSpace(body[1:])
	}
	end := strings.IndexFunc(body, func(r rune) bool {
		return !(r == '_' || r == '$' || unicode.IsLetter(r) || unicode.IsDigit(r))
	})
	switch {
	case end < 0:
		return strings.ToUpper(body), ""
	case end == 0:
		_, size := utf8.DecodeRuneInString(body)
		return strings.ToUpper(body[:size]), strings.TrimSpace(body[size:])
	default:
		return strings.ToUpper(body[:end]), strings.TrimSpace(body[end:])
	}
}

// ParseInline builds a single statement from text that is not part of the
// loaded stream, such as the branch of an IF. Block constructs are not
// available inline.
func ParseInline(text string, procs map[string]Procedure) Statement {
	text = strings.TrimSpace(text)
	stmt := Statement{Command: text, Raw: text, Block: -1}

	if m := pilotPattern.FindStringSubmatch(text); m != nil {
		l := &loader{prog: &Program{Labels: map[string]int{}}, procs: procs}
		_ = l.emitPrefixed(text, m)
		if len(l.prog.Statements) == 1 {
			inline := l.prog.Statements[0]
			inline.Raw = text
			return inline
		}
	}

	words := splitWords(text)
	if len(words) > 0 {
		up := strings.ToUpper(words[0])
		_, isProc := procs[up]
		if (IsTurtleKeyword(up) && up != "TO") || isProc {
			l := &loader{procs: procs}
			n := len(words) - 1
			if arity, ok := TurtleArity(up); ok {
				n = arity
				if n < 0 {
					n = -n
				}
			} else if isProc {
				n = len(procs[up].Params)
			}
			args, _ := l.collectArgs(words, 1, n)
			stmt.Keyword = up
			stmt.Words = args
			stmt.Args = strings.Join(args, " ")
			return stmt
		}
	}

	stmt.Keyword, stmt.Args = splitKeyword(text)
	return stmt
}
