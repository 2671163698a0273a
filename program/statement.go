package program

import "fmt"

// Condition is the optional guard on a prefixed statement (TY:, TN:, T(expr):)
type Condition uint8

const (
	CondNone Condition = iota
	CondYes
	CondNo
	CondExpr
)

// Prefix is the letter-colon form of a label/text dialect statement
type Prefix struct {
	Letter byte
	Cond   Condition
	// Expr holds the guard expression when Cond is CondExpr
	Expr string
}

// IsZero reports whether the statement had no prefix
func (p Prefix) IsZero() bool {
	return p.Letter == 0
}

// Statement is one executable unit. Statements are immutable once loaded.
type Statement struct {
	Index       int
	SourceIndex int
	Raw         string
	// Command is the statement text without line number or *LABEL prefix
	Command string
	// Keyword is the upper-cased leading word, or "T:" style for prefixed statements
	Keyword string
	// Args is the text after the keyword, trimmed, original case
	Args string
	// Words holds the argument words of a turtle command
	Words      []string
	Label      string
	LineNumber int
	Prefix     Prefix
	// Block links REPEAT with its ']' (both directions) and TO with its END; -1 otherwise
	Block int
	// EndsProcedure names the procedure closed by this END
	EndsProcedure string
	// Unknown marks a word inside a turtle line that matched no command
	Unknown bool
}

// SourceLine returns the 1-based source line of the statement
func (s *Statement) SourceLine() int {
	return s.SourceIndex + 1
}

// DisplayLine is the line shown in error messages: the BASIC line number
// when there is one, otherwise the source line
func (s *Statement) DisplayLine() int {
	if s.LineNumber > 0 {
		return s.LineNumber
	}
	return s.SourceLine()
}

// String returns a compact debug form
func (s *Statement) String() string {
	return fmt.Sprintf("#%d@%d %s", s.Index, s.SourceLine(), s.Command)
}

// Procedure is a turtle-dialect definition TO NAME :P1 ... END
type Procedure struct {
	Name   string
	Params []string
	// DefIndex is the TO statement; BodyStart the first body statement;
	// BodyEnd the closing END statement
	DefIndex  int
	BodyStart int
	BodyEnd   int
}

// Program is the loaded, indexed statement stream
type Program struct {
	Statements []Statement
	// Labels maps upper-cased label names to statement indices
	Labels map[string]int
	// Lines maps BASIC line numbers to statement indices
	Lines      map[int]int
	Procedures map[string]Procedure
	Warnings   []string
}

// Len returns the number of statements; it is also the terminal PC value
func (p *Program) Len() int {
	return len(p.Statements)
}

// LabelNames returns every label, for suggestion lookups
func (p *Program) LabelNames() []string {
	names := make([]string, 0, len(p.Labels))
	for name := range p.Labels {
		names = append(names, name)
	}
	return names
}

// ProcedureNames returns every procedure name
func (p *Program) ProcedureNames() []string {
	names := make([]string, 0, len(p.Procedures))
	for name := range p.Procedures {
		names = append(names, name)
	}
	return names
}
