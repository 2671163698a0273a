package dialect

import (
	"regexp"

	"templecode/program"
)

var prefixTags = map[byte]Tag{
	'T': TagText,
	'A': TagAccept,
	'M': TagMatch,
	'Y': TagJumpIfMatch,
	'N': TagJumpIfNoMatch,
	'C': TagCompute,
	'U': TagShowVariable,
	'J': TagJump,
	'L': TagLabel,
	'E': TagEnd,
	'R': TagRemark,
}

var turtleTags = map[string]Tag{
	"FORWARD": TagForward, "FD": TagForward,
	"BACK": TagBack, "BK": TagBack, "BACKWARD": TagBack,
	"LEFT": TagLeft, "LT": TagLeft,
	"RIGHT": TagRight, "RT": TagRight,
	"PENUP": TagPenUp, "PU": TagPenUp,
	"PENDOWN": TagPenDown, "PD": TagPenDown,
	"SETXY":      TagSetXY,
	"SETX":       TagSetX,
	"SETY":       TagSetY,
	"SETHEADING": TagSetHeading, "SETH": TagSetHeading,
	"HOME":       TagHome,
	"HIDETURTLE": TagHideTurtle, "HT": TagHideTurtle,
	"SHOWTURTLE": TagShowTurtle, "ST": TagShowTurtle,
	"SETPENCOLOR": TagSetPenColor, "SETPC": TagSetPenColor,
	"SETBGCOLOR": TagSetBgColor, "SETBG": TagSetBgColor,
	"SETPENWIDTH": TagSetPenWidth, "SETPW": TagSetPenWidth, "PENWIDTH": TagSetPenWidth,
	"CLEARSCREEN": TagClearScreen, "CS": TagClearScreen,
	"STOP":   TagStop,
	"REPEAT": TagRepeat,
	"TO":     TagProcDef,
}

var imperativeTags = map[string]Tag{
	"PRINT":  TagPrint,
	"LET":    TagLet,
	"INPUT":  TagInput,
	"IF":     TagIf,
	"GOTO":   TagGoto,
	"FOR":    TagFor,
	"NEXT":   TagNext,
	"GOSUB":  TagGosub,
	"RETURN": TagReturn,
	"END":    TagEnd,
	"REM":    TagRemark,
	"'":      TagRemark,
	"CLS":    TagCls,
	"SCREEN": TagScreen,
	"LOCATE": TagLocate,
}

// assignmentPattern matches implicit LET: NAME = expr, NAME$ = expr
var assignmentPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*\$?\s*=`)

// Classify returns the handler tag for a statement. Precedence, highest
// first: letter-colon prefix, procedure invocation, turtle keyword,
// imperative keyword or assignment, plain text. Structural statements
// resolved by the loader (block close, procedure END, unknown turtle
// words) are recognized from their fields.
func Classify(stmt *program.Statement, procs map[string]program.Procedure) Tag {
	if !stmt.Prefix.IsZero() {
		if tag, ok := prefixTags[stmt.Prefix.Letter]; ok {
			return tag
		}
		return TagUnknownPrefix
	}

	switch {
	case stmt.Keyword == "]":
		return TagBlockEnd
	case stmt.EndsProcedure != "":
		return TagProcEnd
	case stmt.Unknown:
		return TagUnknownTurtle
	}

	if _, ok := procs[stmt.Keyword]; ok {
		return TagCall
	}
	if tag, ok := turtleTags[stmt.Keyword]; ok {
		return tag
	}
	if tag, ok := imperativeTags[stmt.Keyword]; ok {
		return tag
	}
	if assignmentPattern.MatchString(stmt.Command) {
		return TagLet
	}
	return TagPlainText
}
