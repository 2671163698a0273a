// Package suggest finds the closest known name for a misspelled command,
// label or line number.
package suggest

import (
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

// DefaultMaxDistance is the largest edit distance still offered as a hint
const DefaultMaxDistance = 2

// commonTypos maps frequent misspellings to the word that was meant
var commonTypos = map[string]string{
	"PRITN": "PRINT", "PIRNT": "PRINT", "PRNT": "PRINT", "PRNIT": "PRINT", "PINT": "PRINT",
	"GOTP": "GOTO", "GTOO": "GOTO", "GOOT": "GOTO", "GOT0": "GOTO",
	"IMPUT": "INPUT", "INPT": "INPUT", "INPTU": "INPUT", "INUT": "INPUT",
	"LOACTE": "LOCATE", "LOCAT": "LOCATE", "LCATE": "LOCATE",
	"FORWAD": "FORWARD", "FORWADR": "FORWARD", "FORWAR": "FORWARD", "FORWRD": "FORWARD",
	"FWD": "FORWARD", "FORARD": "FORWARD",
	"BACKWAD": "BACK", "BAKC": "BACK", "BCK": "BACK", "BKWD": "BACK",
	"LEFF": "LEFT", "LFT": "LEFT", "LETF": "LEFT",
	"RIGTH": "RIGHT", "RIGT": "RIGHT", "RIHT": "RIGHT", "RGT": "RIGHT", "RGHT": "RIGHT",
	"PENP": "PENUP", "PENU": "PENUP", "PNUP": "PENUP", "PNEUP": "PENUP",
	"PEND": "PENDOWN", "PENDN": "PENDOWN", "PNDOWN": "PENDOWN", "PENDONW": "PENDOWN",
	"REPAT": "REPEAT", "REPEATT": "REPEAT", "REPET": "REPEAT", "RPT": "REPEAT", "REPTEAT": "REPEAT",
	"HIME": "HOME", "HOEM": "HOME", "HME": "HOME", "HOMW": "HOME",
	"FRO": "FOR", "NEX": "NEXT", "NXET": "NEXT", "NECT": "NEXT",
	"GOSBU": "GOSUB", "GOUSB": "GOSUB", "RETRUN": "RETURN", "RETUNR": "RETURN",
}

// Suggester ranks candidate names against an unknown word.
// Matching is case-insensitive and results are deterministic: ties are
// broken by the candidate name.
type Suggester struct {
	maxDistance int
	typos       map[string]string
}

// Option configures a Suggester
type Option func(*Suggester)

// WithMaxDistance overrides DefaultMaxDistance
func WithMaxDistance(n int) Option {
	return func(s *Suggester) {
		if n >= 0 {
			s.maxDistance = n
		}
	}
}

// WithTypos adds entries to the misspelling table
func WithTypos(typos map[string]string) Option {
	return func(s *Suggester) {
		for k, v := range typos {
			s.typos[strings.ToUpper(k)] = strings.ToUpper(v)
		}
	}
}

// New creates a Suggester with the built-in misspelling table
func New(opts ...Option) *Suggester {
	s := &Suggester{
		maxDistance: DefaultMaxDistance,
		typos:       make(map[string]string, len(commonTypos)),
	}
	for k, v := range commonTypos {
		s.typos[k] = v
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Suggest returns the candidate closest to word, or "" when nothing is
// close enough. The misspelling table wins when its answer is a candidate;
// then an in-order (abbreviation) match; then plain edit distance.
func (s *Suggester) Suggest(word string, candidates []string) string {
	word = strings.ToUpper(strings.TrimSpace(word))
	if word == "" || len(candidates) == 0 {
		return ""
	}

	upper := make([]string, 0, len(candidates))
	byUpper := make(map[string]string, len(candidates))
	for _, c := range candidates {
		u := strings.ToUpper(c)
		if _, seen := byUpper[u]; seen || u == word {
			continue
		}
		byUpper[u] = c
		upper = append(upper, u)
	}
	if len(upper) == 0 {
		return ""
	}
	sort.Strings(upper)

	if meant, ok := s.typos[word]; ok {
		if c, known := byUpper[meant]; known {
			return c
		}
	}
	if best, ok := s.abbreviation(word, upper); ok {
		return byUpper[best]
	}
	if best, ok := s.closest(word, upper); ok {
		return byUpper[best]
	}
	return ""
}

// abbreviation finds candidates that contain every letter of word in order,
// such as FWRD for FORWARD. Short words are skipped since almost every
// candidate contains them.
func (s *Suggester) abbreviation(word string, sorted []string) (string, bool) {
	if len(word) < 3 {
		return "", false
	}
	ranks := fuzzy.RankFind(word, sorted)
	if len(ranks) == 0 {
		return "", false
	}
	sort.SliceStable(ranks, func(i, j int) bool {
		if ranks[i].Distance != ranks[j].Distance {
			return ranks[i].Distance < ranks[j].Distance
		}
		return ranks[i].Target < ranks[j].Target
	})
	if ranks[0].Distance > s.maxDistance+1 {
		return "", false
	}
	return ranks[0].Target, true
}

// closest picks the candidate with the smallest edit distance
func (s *Suggester) closest(word string, sorted []string) (string, bool) {
	best, bestDistance := "", s.maxDistance+1
	for _, c := range sorted {
		if d := fuzzy.LevenshteinDistance(word, c); d < bestDistance {
			best, bestDistance = c, d
		}
	}
	return best, best != ""
}
