package dialect

import "fmt"

// Dialect is one of the three sub-languages
type Dialect uint8

const (
	DialectText Dialect = iota
	DialectImperative
	DialectTurtle
)

// String returns the dialect name used in logs
func (d Dialect) String() string {
	switch d {
	case DialectText:
		return "text"
	case DialectImperative:
		return "imperative"
	case DialectTurtle:
		return "turtle"
	default:
		return "unknown"
	}
}

// Tag identifies the handler for a statement. The set is closed.
type Tag uint8

const (
	// Label/text dialect
	TagText Tag = iota
	TagAccept
	TagMatch
	TagJumpIfMatch
	TagJumpIfNoMatch
	TagCompute
	TagShowVariable
	TagJump
	TagLabel
	TagUnknownPrefix

	// Shared by dialects
	TagEnd
	TagRemark
	TagPlainText

	// Imperative dialect
	TagPrint
	TagLet
	TagInput
	TagIf
	TagGoto
	TagFor
	TagNext
	TagGosub
	TagReturn
	TagCls
	TagScreen
	TagLocate

	// Turtle dialect
	TagForward
	TagBack
	TagLeft
	TagRight
	TagPenUp
	TagPenDown
	TagSetXY
	TagSetX
	TagSetY
	TagSetHeading
	TagHome
	TagHideTurtle
	TagShowTurtle
	TagSetPenColor
	TagSetBgColor
	TagSetPenWidth
	TagClearScreen
	TagRepeat
	TagBlockEnd
	TagProcDef
	TagProcEnd
	TagStop
	TagCall
	TagUnknownTurtle

	// NumTags is the size of a dispatch table indexed by Tag
	NumTags
)

var tagNames = [NumTags]string{
	TagText:          "TEXT",
	TagAccept:        "ACCEPT",
	TagMatch:         "MATCH",
	TagJumpIfMatch:   "JUMP_IF_MATCH",
	TagJumpIfNoMatch: "JUMP_IF_NO_MATCH",
	TagCompute:       "COMPUTE",
	TagShowVariable:  "SHOW_VARIABLE",
	TagJump:          "JUMP",
	TagLabel:         "LABEL",
	TagUnknownPrefix: "UNKNOWN_PREFIX",
	TagEnd:           "END",
	TagRemark:        "REMARK",
	TagPlainText:     "PLAIN_TEXT",
	TagPrint:         "PRINT",
	TagLet:           "LET",
	TagInput:         "INPUT",
	TagIf:            "IF",
	TagGoto:          "GOTO",
	TagFor:           "FOR",
	TagNext:          "NEXT",
	TagGosub:         "GOSUB",
	TagReturn:        "RETURN",
	TagCls:           "CLS",
	TagScreen:        "SCREEN",
	TagLocate:        "LOCATE",
	TagForward:       "FORWARD",
	TagBack:          "BACK",
	TagLeft:          "LEFT",
	TagRight:         "RIGHT",
	TagPenUp:         "PENUP",
	TagPenDown:       "PENDOWN",
	TagSetXY:         "SETXY",
	TagSetX:          "SETX",
	TagSetY:          "SETY",
	TagSetHeading:    "SETHEADING",
	TagHome:          "HOME",
	TagHideTurtle:    "HIDETURTLE",
	TagShowTurtle:    "SHOWTURTLE",
	TagSetPenColor:   "SETPENCOLOR",
	TagSetBgColor:    "SETBGCOLOR",
	TagSetPenWidth:   "SETPENWIDTH",
	TagClearScreen:   "CLEARSCREEN",
	TagRepeat:        "REPEAT",
	TagBlockEnd:      "BLOCK_END",
	TagProcDef:       "TO",
	TagProcEnd:       "PROCEDURE_END",
	TagStop:          "STOP",
	TagCall:          "CALL",
	TagUnknownTurtle: "UNKNOWN_TURTLE",
}

// String returns the tag name
func (t Tag) String() string {
	if t < NumTags {
		return tagNames[t]
	}
	return fmt.Sprintf("Tag(%d)", t)
}

// Dialect reports which sub-language the tag belongs to
func (t Tag) Dialect() Dialect {
	switch {
	case t <= TagUnknownPrefix:
		return DialectText
	case t >= TagForward:
		return DialectTurtle
	default:
		return DialectImperative
	}
}
