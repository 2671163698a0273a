package program

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"templecode/errors"
)

// Load error codes
const (
	CodeLineOrder          = "LINE_ORDER"
	CodeBadLineNumber      = "BAD_LINE_NUMBER"
	CodeDuplicateLabel     = "DUPLICATE_LABEL"
	CodeUnmatchedBracket   = "UNMATCHED_BRACKET"
	CodeRepeatWithoutBlock = "REPEAT_WITHOUT_BLOCK"
	CodeNestedProcedure    = "NESTED_PROCEDURE"
	CodeMissingEnd         = "MISSING_END"
	CodeBadProcedure       = "BAD_PROCEDURE"
	CodeDuplicateProcedure = "DUPLICATE_PROCEDURE"
)

// Options controls loading
type Options struct {
	// StrictLabels turns a duplicate label into a load error.
	// By default the first definition wins and a warning is recorded.
	StrictLabels bool
}

var (
	pilotPattern      = regexp.MustCompile(`^([A-Za-z])([YyNn]|\((.*?)\))?\s*:(.*)$`)
	lineNumberPattern = regexp.MustCompile(`^(\d+)(?:\s+(.*))?$`)
	starLabelPattern  = regexp.MustCompile(`^\*([A-Za-z_][A-Za-z0-9_]*)\s*(.*)$`)
)

type loader struct {
	opts  Options
	prog  *Program
	procs map[string]Procedure

	srcIndex   int
	raw        string
	lineNumber int
	lastLine   int

	// blocks holds the indices of REPEAT statements whose '[' is open
	blocks            []int
	pendingRepeat     int
	pendingRepeatLine int

	proc      *Procedure
	procDepth int
}

// Load parses source into an indexed Program. Loading is pure: the same
// source always yields the same statements and indices.
func Load(source string, opts Options) (*Program, error) {
	l := &loader{
		opts: opts,
		prog: &Program{
			Labels:     make(map[string]int),
			Lines:      make(map[int]int),
			Procedures: make(map[string]Procedure),
		},
		procs:         make(map[string]Procedure),
		pendingRepeat: -1,
	}

	lines := strings.Split(strings.ReplaceAll(source, "\r\n", "\n"), "\n")
	if err := l.registerProcedures(lines); err != nil {
		return nil, err
	}

	for i, line := range lines {
		l.srcIndex = i
		if err := l.loadLine(line); err != nil {
			return nil, err
		}
	}

	if err := l.finish(); err != nil {
		return nil, err
	}
	return l.prog, nil
}

// registerProcedures records every TO header so calls may precede definitions
func (l *loader) registerProcedures(lines []string) error {
	for i, line := range lines {
		text := strings.TrimSpace(line)
		if m := lineNumberPattern.FindStringSubmatch(text); m != nil {
			text = strings.TrimSpace(m[2])
		}
		if m := starLabelPattern.FindStringSubmatch(text); m != nil {
			text = strings.TrimSpace(m[2])
		}

		words := strings.Fields(text)
		if len(words) == 0 || strings.ToUpper(words[0]) != "TO" {
			continue
		}
		if len(words) < 2 || strings.HasPrefix(words[1], ":") {
			return errors.NewLoadError(CodeBadProcedure, "TO requires a procedure name", i+1)
		}

		name := strings.ToUpper(words[1])
		if IsTurtleKeyword(name) || IsImperativeKeyword(name) {
			return errors.NewLoadError(CodeBadProcedure, fmt.Sprintf("cannot define procedure %s: it is a command", name), i+1)
		}
		if _, exists := l.procs[name]; exists {
			return errors.NewLoadError(CodeDuplicateProcedure, fmt.Sprintf("procedure %s is already defined", name), i+1)
		}

		var params []string
		for _, w := range words[2:] {
			if !strings.HasPrefix(w, ":") {
				break
			}
			params = append(params, strings.ToUpper(strings.TrimPrefix(w, ":")))
		}
		l.procs[name] = Procedure{Name: name, Params: params, DefIndex: -1, BodyStart: -1, BodyEnd: -1}
	}
	return nil
}

func (l *loader) loadLine(line string) error {
	text := strings.TrimSpace(line)
	if text == "" {
		return nil
	}
	l.raw = text
	l.lineNumber = 0

	if m := lineNumberPattern.FindStringSubmatch(text); m != nil {
		n, err := strconv.Atoi(m[1])
		if err != nil {
			return l.errorf(CodeBadLineNumber, "invalid line number %s", m[1])
		}
		if n <= l.lastLine {
			return l.errorf(CodeLineOrder, "line number %d must be greater than %d", n, l.lastLine)
		}
		l.lastLine = n
		l.lineNumber = n
		text = strings.TrimSpace(m[2])
	}

	label := ""
	if m := starLabelPattern.FindStringSubmatch(text); m != nil {
		label = strings.ToUpper(m[1])
		text = strings.TrimSpace(m[2])
	}

	start := len(l.prog.Statements)

	if text != "" {
		if err := l.loadStatementText(text); err != nil {
			return err
		}
	}

	if label != "" {
		// A label whose line produced nothing still needs a target
		if len(l.prog.Statements) == start {
			if err := l.emitLabelStatement(label, "*"+label); err != nil {
				return err
			}
		} else {
			if l.prog.Statements[start].Label == "" {
				l.prog.Statements[start].Label = label
			}
			if err := l.defineLabel(label, start); err != nil {
				return err
			}
		}
	}

	if l.lineNumber > 0 {
		if len(l.prog.Statements) == start {
			l.emit(Statement{Command: "REM", Keyword: "REM"})
		}
		l.prog.Lines[l.lineNumber] = start
	}
	return nil
}

func (l *loader) loadStatementText(text string) error {
	words := splitWords(text)

	if l.isTurtleStart(words) {
		return l.splitTurtle(words)
	}
	if l.pendingRepeat >= 0 {
		return errors.NewLoadError(CodeRepeatWithoutBlock, "REPEAT must be followed by '['", l.pendingRepeatLine)
	}

	body, closes := text, 0
	if len(l.blocks) > 0 {
		body, closes = splitTrailingBrackets(text)
	}

	if body != "" {
		if m := pilotPattern.FindStringSubmatch(body); m != nil {
			if err := l.emitPrefixed(body, m); err != nil {
				return err
			}
		} else {
			l.emitPlain(body)
		}
	}

	for i := 0; i < closes; i++ {
		if err := l.closeBlock(); err != nil {
			return err
		}
	}
	return nil
}

func (l *loader) isTurtleStart(words []string) bool {
	if len(words) == 0 {
		return false
	}
	first := strings.ToUpper(words[0])
	if first == "[" || first == "]" {
		return true
	}
	if first == "END" {
		return l.proc != nil
	}
	if IsTurtleKeyword(first) {
		return true
	}
	_, isProc := l.procs[first]
	return isProc
}

func (l *loader) isCommandWord(word string) bool {
	if word == "[" || word == "]" {
		return true
	}
	up := strings.ToUpper(word)
	if IsTurtleKeyword(up) || IsImperativeKeyword(up) {
		return true
	}
	_, isProc := l.procs[up]
	return isProc
}

// splitTurtle emits one statement per turtle command on the line
func (l *loader) splitTurtle(words []string) error {
	i := 0
	for i < len(words) {
		w := words[i]
		up := strings.ToUpper(w)

		if l.pendingRepeat >= 0 {
			if w != "[" {
				return errors.NewLoadError(CodeRepeatWithoutBlock, "REPEAT must be followed by '['", l.pendingRepeatLine)
			}
			l.blocks = append(l.blocks, l.pendingRepeat)
			l.pendingRepeat = -1
			i++
			continue
		}

		switch {
		case w == "[":
			return l.errorf(CodeUnmatchedBracket, "'[' without REPEAT")

		case w == "]":
			if err := l.closeBlock(); err != nil {
				return err
			}
			i++

		case up == "TO":
			next, err := l.beginProcedure(words, i)
			if err != nil {
				return err
			}
			i = next

		case up == "END" && l.proc != nil:
			if err := l.endProcedure(); err != nil {
				return err
			}
			i++

		case up == "REPEAT":
			args, next := l.collectArgs(words, i+1, 1)
			idx := l.emitTurtle(words[i:next], up, args)
			l.pendingRepeat = idx
			l.pendingRepeatLine = l.srcIndex + 1
			i = next

		case IsTurtleKeyword(up):
			arity, _ := TurtleArity(up)
			if arity < 0 {
				arity = -arity
			}
			args, next := l.collectArgs(words, i+1, arity)
			l.emitTurtle(words[i:next], up, args)
			i = next

		case l.isProcedure(up):
			proc := l.procs[up]
			args, next := l.collectArgs(words, i+1, len(proc.Params))
			l.emitTurtle(words[i:next], up, args)
			i = next

		case IsImperativeKeyword(up) || pilotPattern.MatchString(w):
			// The rest of the bracket level belongs to this statement
			j := i + 1
			for j < len(words) && words[j] != "]" && words[j] != "[" {
				j++
			}
			body := strings.Join(words[i:j], " ")
			if m := pilotPattern.FindStringSubmatch(body); m != nil {
				if err := l.emitPrefixed(body, m); err != nil {
					return err
				}
			} else {
				l.emitPlain(body)
			}
			i = j

		default:
			j := i + 1
			for j < len(words) && !l.isCommandWord(words[j]) {
				j++
			}
			idx := l.emitTurtle(words[i:j], up, append([]string(nil), words[i+1:j]...))
			l.prog.Statements[idx].Unknown = true
			i = j
		}
	}
	return nil
}

func (l *loader) isProcedure(name string) bool {
	_, ok := l.procs[name]
	return ok
}

// collectArgs takes up to n argument words starting at i, stopping early
// at a command word. Missing arguments are left for the handler to report.
func (l *loader) collectArgs(words []string, i, n int) ([]string, int) {
	var args []string
	for k := 0; k < n && i < len(words); k++ {
		if l.isCommandWord(words[i]) {
			break
		}
		var arg string
		arg, i = takeArg(words, i)
		args = append(args, arg)
	}
	return args, i
}

// takeArg joins an argument word with operator continuations: "10 + 5"
func takeArg(words []string, i int) (string, int) {
	arg := words[i]
	i++
	for i < len(words) {
		if words[i] == "[" || words[i] == "]" {
			break
		}
		if endsWithOperator(arg) {
			arg += " " + words[i]
			i++
			continue
		}
		if isOperatorWord(words[i]) && i+1 < len(words) && words[i+1] != "[" && words[i+1] != "]" {
			arg += " " + words[i] + " " + words[i+1]
			i += 2
			continue
		}
		break
	}
	return arg, i
}

func isOperatorWord(w string) bool {
	switch strings.ToUpper(w) {
	case "+", "-", "*", "/", "^", "%", "MOD", "=", "<", ">", "<=", ">=", "<>":
		return true
	}
	return false
}

func endsWithOperator(w string) bool {
	if w == "" {
		return false
	}
	return strings.ContainsAny(w[len(w)-1:], "+-*/^%(<>=")
}

func (l *loader) beginProcedure(words []string, i int) (int, error) {
	if l.proc != nil {
		return 0, l.errorf(CodeNestedProcedure, "TO inside procedure %s", l.proc.Name)
	}
	if i+1 >= len(words) || words[i+1] == "[" || words[i+1] == "]" {
		return 0, l.errorf(CodeBadProcedure, "TO requires a procedure name")
	}

	name := strings.ToUpper(words[i+1])
	j := i + 2
	var params []string
	for j < len(words) && strings.HasPrefix(words[j], ":") {
		params = append(params, strings.ToUpper(strings.TrimPrefix(words[j], ":")))
		j++
	}
	proc, known := l.procs[name]
	if !known {
		// TO in the middle of a line escapes the header pre-pass
		proc = Procedure{Name: name, Params: params}
		l.procs[name] = proc
	}

	header := append([]string{name}, proc.Params...)
	idx := l.emitTurtle(words[i:j], "TO", header)

	proc.DefIndex = idx
	proc.BodyStart = idx + 1
	l.proc = &proc
	l.procDepth = len(l.blocks)
	return j, nil
}

func (l *loader) endProcedure() error {
	if len(l.blocks) != l.procDepth {
		return l.errorf(CodeUnmatchedBracket, "unclosed '[' in procedure %s", l.proc.Name)
	}
	idx := l.emit(Statement{Command: "END", Keyword: "END", EndsProcedure: l.proc.Name})

	l.proc.BodyEnd = idx
	l.prog.Statements[l.proc.DefIndex].Block = idx
	l.prog.Procedures[l.proc.Name] = *l.proc
	l.proc = nil
	return nil
}

func (l *loader) closeBlock() error {
	if len(l.blocks) == 0 || (l.proc != nil && len(l.blocks) <= l.procDepth) {
		return l.errorf(CodeUnmatchedBracket, "']' without matching '['")
	}
	open := l.blocks[len(l.blocks)-1]
	l.blocks = l.blocks[:len(l.blocks)-1]

	idx := l.emit(Statement{Command: "]", Keyword: "]"})
	l.prog.Statements[idx].Block = open
	l.prog.Statements[open].Block = idx
	return nil
}

func (l *loader) finish() error {
	if l.pendingRepeat >= 0 {
		return errors.NewLoadError(CodeRepeatWithoutBlock, "REPEAT must be followed by '['", l.pendingRepeatLine)
	}
	if len(l.blocks) > 0 {
		open := l.prog.Statements[l.blocks[len(l.blocks)-1]]
		return errors.NewLoadError(CodeUnmatchedBracket, "'[' is never closed", open.SourceLine())
	}
	if l.proc != nil {
		def := l.prog.Statements[l.proc.DefIndex]
		return errors.NewLoadError(CodeMissingEnd, fmt.Sprintf("procedure %s has no END", l.proc.Name), def.SourceLine())
	}
	return nil
}

func (l *loader) emit(stmt Statement) int {
	stmt.Index = len(l.prog.Statements)
	stmt.SourceIndex = l.srcIndex
	stmt.Raw = l.raw
	stmt.LineNumber = l.lineNumber
	stmt.Block = -1
	l.prog.Statements = append(l.prog.Statements, stmt)
	return stmt.Index
}

func (l *loader) emitTurtle(words []string, keyword string, args []string) int {
	return l.emit(Statement{
		Command: strings.Join(words, " "),
		Keyword: keyword,
		Args:    strings.Join(args, " "),
		Words:   args,
	})
}

func (l *loader) emitPlain(body string) {
	keyword, args := splitKeyword(body)
	l.emit(Statement{Command: body, Keyword: keyword, Args: args})
}

func (l *loader) emitPrefixed(body string, m []string) error {
	prefix := Prefix{Letter: strings.ToUpper(m[1])[0]}
	switch cond := strings.ToUpper(m[2]); {
	case cond == "":
		prefix.Cond = CondNone
	case cond == "Y":
		prefix.Cond = CondYes
	case cond == "N":
		prefix.Cond = CondNo
	default:
		prefix.Cond = CondExpr
		prefix.Expr = strings.TrimSpace(m[3])
	}
	args := strings.TrimSpace(m[4])

	stmt := Statement{
		Command: body,
		Keyword: string(prefix.Letter) + ":",
		Args:    args,
		Prefix:  prefix,
	}

	if prefix.Letter == 'L' {
		fields := strings.Fields(args)
		if len(fields) == 0 {
			l.emit(stmt)
			return nil
		}
		stmt.Label = strings.ToUpper(fields[0])
		return l.emitLabeled(stmt)
	}

	l.emit(stmt)
	return nil
}

func (l *loader) emitLabelStatement(label, command string) error {
	return l.emitLabeled(Statement{
		Command: command,
		Keyword: "L:",
		Args:    label,
		Label:   label,
		Prefix:  Prefix{Letter: 'L'},
	})
}

func (l *loader) emitLabeled(stmt Statement) error {
	if err := l.defineLabel(stmt.Label, len(l.prog.Statements)); err != nil {
		return err
	}
	l.emit(stmt)
	return nil
}

func (l *loader) defineLabel(name string, idx int) error {
	if prev, exists := l.prog.Labels[name]; exists {
		if l.opts.StrictLabels {
			return l.errorf(CodeDuplicateLabel, "label %s is already defined on line %d", name, l.prog.Statements[prev].SourceLine())
		}
		l.prog.Warnings = append(l.prog.Warnings,
			fmt.Sprintf("line %d: duplicate label %s ignored (first defined on line %d)",
				l.srcIndex+1, name, l.prog.Statements[prev].SourceLine()))
		return nil
	}
	l.prog.Labels[name] = idx
	return nil
}

func (l *loader) errorf(code, format string, args ...interface{}) error {
	return errors.NewLoadError(code, fmt.Sprintf(format, args...), l.srcIndex+1)
}
