package engine

import (
	"fmt"
	"strconv"

	"templecode/errors"
	"templecode/program"
)

// Keys placed in ExecutionError.Context for suggestion lookups
const (
	contextLookup     = "lookup"
	contextLookupKind = "lookup_kind"

	lookupLabel   = "label"
	lookupLine    = "line"
	lookupCommand = "command"
)

// emitLine completes the current output line
func (r *run) emitLine(text string) {
	if r.hasPart {
		text = r.pending.String() + text
		r.pending.Reset()
		r.hasPart = false
	}
	if r.sink != nil {
		r.sink.WriteLine(text)
		return
	}
	r.output = append(r.output, text)
}

// writePartial appends text to the current line without ending it
func (r *run) writePartial(text string) {
	r.pending.WriteString(text)
	r.hasPart = true
}

// column is the length of the unfinished output line
func (r *run) column() int {
	return r.pending.Len()
}

func (r *run) flushPartial() {
	if r.hasPart {
		r.emitLine("")
	}
}

// report writes an error line and logs it
func (r *run) report(stmt *program.Statement, err *errors.ExecutionError) {
	line := 0
	if stmt != nil {
		line = stmt.DisplayLine()
		err.WithLine(line)
	}
	r.errs = append(r.errs, err)
	r.engine.logger.ErrorExecution(err)

	msg := fmt.Sprintf("Error at line %d: %s", line, err.Message)
	if hint := r.suggestion(err); hint != "" {
		msg += fmt.Sprintf(" (did you mean %s?)", hint)
	}
	r.flushPartial()
	r.emitLine(msg)
}

// suggestion asks the suggester for the closest known name
func (r *run) suggestion(err *errors.ExecutionError) string {
	s := r.engine.suggester
	if s == nil {
		return ""
	}
	word, _ := err.Context[contextLookup].(string)
	kind, _ := err.Context[contextLookupKind].(string)
	if word == "" {
		return ""
	}

	var candidates []string
	switch kind {
	case lookupLabel:
		candidates = r.prog.LabelNames()
	case lookupLine:
		for n := range r.prog.Lines {
			candidates = append(candidates, strconv.Itoa(n))
		}
	case lookupCommand:
		candidates = append(candidates, program.TurtleKeywords()...)
		candidates = append(candidates, program.ImperativeKeywords()...)
		candidates = append(candidates, r.prog.ProcedureNames()...)
	}
	if len(candidates) == 0 {
		return ""
	}
	return s.Suggest(word, candidates)
}
