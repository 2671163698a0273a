package program

import "strings"

// turtleArity is the fixed argument count of each turtle command.
// -3 means "up to three" (color setters).
var turtleArity = map[string]int{
	"FORWARD": 1, "FD": 1,
	"BACK": 1, "BK": 1, "BACKWARD": 1,
	"LEFT": 1, "LT": 1,
	"RIGHT": 1, "RT": 1,
	"PENUP": 0, "PU": 0,
	"PENDOWN": 0, "PD": 0,
	"SETXY": 2,
	"SETX":  1,
	"SETY":  1,
	"SETHEADING": 1, "SETH": 1,
	"HOME":       0,
	"HIDETURTLE": 0, "HT": 0,
	"SHOWTURTLE": 0, "ST": 0,
	"SETPENCOLOR": -3, "SETPC": -3,
	"SETBGCOLOR": -3, "SETBG": -3,
	"SETPENWIDTH": 1, "SETPW": 1, "PENWIDTH": 1,
	"CLEARSCREEN": 0, "CS": 0,
	"STOP":   0,
	"REPEAT": 1,
}

// imperativeKeywords are the BASIC-like statement keywords
var imperativeKeywords = map[string]bool{
	"PRINT":  true,
	"LET":    true,
	"INPUT":  true,
	"IF":     true,
	"GOTO":   true,
	"FOR":    true,
	"NEXT":   true,
	"GOSUB":  true,
	"RETURN": true,
	"END":    true,
	"REM":    true,
	"'":      true,
	"CLS":    true,
	"SCREEN": true,
	"LOCATE": true,
}

// TurtleArity returns the argument count of a turtle command.
// A negative count means "up to -n arguments".
func TurtleArity(word string) (int, bool) {
	n, ok := turtleArity[strings.ToUpper(word)]
	return n, ok
}

// IsTurtleKeyword reports whether word starts a turtle command, including TO
func IsTurtleKeyword(word string) bool {
	up := strings.ToUpper(word)
	if up == "TO" {
		return true
	}
	_, ok := turtleArity[up]
	return ok
}

// IsImperativeKeyword reports whether word starts a BASIC-like statement
func IsImperativeKeyword(word string) bool {
	return imperativeKeywords[strings.ToUpper(word)]
}

// TurtleKeywords returns every turtle command word
func TurtleKeywords() []string {
	words := make([]string, 0, len(turtleArity)+1)
	for w := range turtleArity {
		words = append(words, w)
	}
	return append(words, "TO")
}

// ImperativeKeywords returns every BASIC-like keyword
func ImperativeKeywords() []string {
	words := make([]string, 0, len(imperativeKeywords))
	for w := range imperativeKeywords {
		words = append(words, w)
	}
	return words
}
