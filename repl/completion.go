package repl

import (
	"sort"
	"strings"
	"unicode"

	"templecode/program"
	"templecode/suggest"
)

// KeywordCompleter implements readline.AutoCompleter over the dialect
// keywords, the session commands and the procedures defined so far
type KeywordCompleter struct {
	keywords   []string
	procedures func() []string
	suggester  *suggest.Suggester
}

// NewKeywordCompleter creates a completer. procedures may be nil.
func NewKeywordCompleter(procedures func() []string) *KeywordCompleter {
	var keywords []string
	for _, w := range append(program.TurtleKeywords(), program.ImperativeKeywords()...) {
		if unicode.IsLetter(rune(w[0])) {
			keywords = append(keywords, w)
		}
	}
	sort.Strings(keywords)
	return &KeywordCompleter{
		keywords:   keywords,
		procedures: procedures,
		suggester:  suggest.New(),
	}
}

// findWordStart finds where the word under the cursor begins. A word is
// letters, digits, '_' and '$', optionally led by ':'.
func findWordStart(line []rune, pos int) int {
	start := pos
	for start > 0 {
		r := line[start-1]
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || r == '$' {
			start--
			continue
		}
		if r == ':' {
			start--
		}
		break
	}
	return start
}

// Do implements readline.AutoCompleter. It returns the remaining suffix
// of each candidate and the length of the typed prefix.
func (kc *KeywordCompleter) Do(line []rune, pos int) (newLine [][]rune, length int) {
	if pos > len(line) {
		pos = len(line)
	}
	start := findWordStart(line, pos)
	word := string(line[start:pos])
	if word == "" {
		return nil, 0
	}

	var candidates []string
	if strings.HasPrefix(word, ":") {
		// session commands only make sense at the start of the line
		if strings.TrimSpace(string(line[:start])) != "" {
			return nil, 0
		}
		candidates = CommandNames()
	} else {
		candidates = kc.words()
	}

	upper := strings.ToUpper(word)
	typedLower := word == strings.ToLower(word)
	seen := make(map[string]bool)
	var suffixes []string
	for _, c := range candidates {
		if len(c) <= len(word) || !strings.HasPrefix(strings.ToUpper(c), upper) {
			continue
		}
		suffix := c[len(word):]
		if typedLower {
			suffix = strings.ToLower(suffix)
		}
		if !seen[suffix] {
			seen[suffix] = true
			suffixes = append(suffixes, suffix)
		}
	}
	sort.Strings(suffixes)

	for _, s := range suffixes {
		newLine = append(newLine, []rune(s))
	}
	return newLine, len([]rune(word))
}

func (kc *KeywordCompleter) words() []string {
	if kc.procedures == nil {
		return kc.keywords
	}
	return append(append([]string{}, kc.keywords...), kc.procedures()...)
}

// closestCommand suggests a session command for a misspelled one
func (kc *KeywordCompleter) closestCommand(word string) string {
	return strings.ToLower(kc.suggester.Suggest(word, CommandNames()))
}
