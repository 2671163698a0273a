package engine

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"templecode/errors"
	"templecode/logging"
	"templecode/program"
)

var (
	forPattern         = regexp.MustCompile(`(?i)^([A-Za-z_][A-Za-z0-9_]*)\s*=\s*(.+?)\s+TO\s+(.+?)(?:\s+STEP\s+(.+))?$`)
	inputPromptPattern = regexp.MustCompile(`^"([^"]*)"\s*[;,]?\s*(.*)$`)
	lineNumberPattern  = regexp.MustCompile(`^\d+$`)
)

// PRINT writes items separated by ';' (no spacing) or ',' (next print
// zone). A trailing separator keeps the line open.
func handlePrint(r *run, stmt *program.Statement) ExecutionResult {
	args := strings.TrimSpace(stmt.Args)
	if args == "" {
		r.emitLine("")
		return Continue()
	}

	items, seps := splitPrintItems(args)
	for i, item := range items {
		if item = strings.TrimSpace(item); item != "" {
			v, err := r.printValue(item)
			if err != nil {
				return Fail(err)
			}
			r.writePartial(v.String())
		}
		if seps[i] == ',' {
			zone := r.engine.config.PrintZoneWidth
			r.writePartial(strings.Repeat(" ", zone-r.column()%zone))
		}
	}

	if seps[len(seps)-1] == 0 {
		r.emitLine("")
	}
	return Continue()
}

// splitPrintItems splits PRINT arguments at top-level ';' and ','. seps[i]
// is the separator after items[i], 0 for the last item.
func splitPrintItems(args string) ([]string, []byte) {
	var items []string
	var seps []byte
	depth := 0
	inQuote := false
	start := 0
	for i := 0; i < len(args); i++ {
		switch c := args[i]; {
		case c == '"':
			inQuote = !inQuote
		case inQuote:
		case c == '(':
			depth++
		case c == ')':
			depth--
		case (c == ';' || c == ',') && depth == 0:
			items = append(items, args[start:i])
			seps = append(seps, c)
			start = i + 1
		}
	}
	if rest := strings.TrimSpace(args[start:]); rest != "" || len(items) == 0 {
		items = append(items, rest)
		seps = append(seps, 0)
	}
	return items, seps
}

// LET NAME = expr, or the implicit NAME = expr form
func handleLet(r *run, stmt *program.Statement) ExecutionResult {
	text := stmt.Command
	if stmt.Keyword == "LET" {
		text = stmt.Args
	}
	if err := r.assign(text); err != nil {
		return Fail(err)
	}
	return Continue()
}

// INPUT ["prompt";] VAR
func handleInput(r *run, stmt *program.Statement) ExecutionResult {
	args := strings.TrimSpace(stmt.Args)
	prompt := "? "
	name := args
	if m := inputPromptPattern.FindStringSubmatch(args); m != nil {
		prompt = m[1]
		if !strings.HasSuffix(prompt, " ") {
			prompt += " "
		}
		name = strings.TrimSpace(m[2])
	}
	if !identifierPattern.MatchString(name) {
		return Fail(errors.NewRuntimeError("BAD_VARIABLE", "INPUT expects a variable name"))
	}
	return WaitForInput(prompt, strings.ToUpper(name), true)
}

// IF cond THEN stmt|line [ELSE stmt|line]
func handleIf(r *run, stmt *program.Statement) ExecutionResult {
	args := stmt.Args
	then := findKeyword(args, "THEN")
	if then < 0 {
		return Fail(errors.NewRuntimeError("MISSING_THEN", "IF requires THEN"))
	}
	cond := strings.TrimSpace(args[:then])
	branches := args[then+len("THEN"):]
	thenPart, elsePart := branches, ""
	if i := findKeyword(branches, "ELSE"); i >= 0 {
		thenPart, elsePart = branches[:i], branches[i+len("ELSE"):]
	}

	truth, err := r.condition(cond)
	if err != nil {
		return Fail(err)
	}
	branch := strings.TrimSpace(elsePart)
	if truth {
		branch = strings.TrimSpace(thenPart)
	}

	switch {
	case branch == "":
		return Continue()
	case lineNumberPattern.MatchString(branch):
		return Jump(branch)
	}

	inline := program.ParseInline(branch, r.prog.Procedures)
	inline.Index = stmt.Index
	inline.SourceIndex = stmt.SourceIndex
	inline.LineNumber = stmt.LineNumber
	return r.execute(&inline)
}

// findKeyword returns the index of a whole-word keyword outside quotes
func findKeyword(s, keyword string) int {
	inQuote := false
	for i := 0; i+len(keyword) <= len(s); i++ {
		c := s[i]
		if c == '"' {
			inQuote = !inQuote
			continue
		}
		if inQuote || !strings.EqualFold(s[i:i+len(keyword)], keyword) {
			continue
		}
		before := i == 0 || !isIdentByte(s[i-1], false)
		end := i + len(keyword)
		after := end == len(s) || !isIdentByte(s[end], false)
		if before && after {
			return i
		}
	}
	return -1
}

// GOTO line|label
func handleGoto(r *run, stmt *program.Statement) ExecutionResult {
	target := strings.TrimSpace(stmt.Args)
	if target == "" {
		return Fail(errors.NewRuntimeError("MISSING_TARGET", "GOTO expects a line number"))
	}
	return Jump(target)
}

// FOR v = a TO b [STEP s]. An empty range skips past the matching NEXT.
func handleFor(r *run, stmt *program.Statement) ExecutionResult {
	m := forPattern.FindStringSubmatch(strings.TrimSpace(stmt.Args))
	if m == nil {
		return Fail(errors.NewRuntimeError("BAD_FOR", "FOR expects VAR = start TO end [STEP step]"))
	}
	name := strings.ToUpper(m[1])

	start, err := r.number(m[2])
	if err != nil {
		return Fail(err)
	}
	limit, err := r.number(m[3])
	if err != nil {
		return Fail(err)
	}
	step := 1.0
	if m[4] != "" {
		if step, err = r.number(m[4]); err != nil {
			return Fail(err)
		}
	}

	if step == 0 {
		r.report(stmt, errors.NewRuntimeError("ZERO_STEP", fmt.Sprintf("FOR %s has a STEP of 0", name)))
		return Goto(r.skipForBody(r.state.PC, name))
	}

	// Re-entering a FOR drops the previous loop over the same variable
	floor := r.state.loopFloor()
	if _, pos, ok := r.state.LoopStack.find(floor, func(c *LoopContext) bool {
		return c.Kind == LoopFor && c.Variable == name
	}); ok {
		r.dropLoops(pos)
	}

	r.vars.SetNumber(name, start)
	ctx := &LoopContext{
		Kind:      LoopFor,
		Variable:  name,
		Current:   start,
		Limit:     limit,
		Step:      step,
		BodyStart: r.state.PC + 1,
		Start:     r.state.PC,
		End:       -1,
	}
	if ctx.finished(start) {
		return Goto(r.skipForBody(r.state.PC, name))
	}

	r.state.LoopStack.push(ctx)
	r.engine.logger.Debug("loop entered",
		logging.StringField("variable", name),
		logging.Float64Field("start", start),
		logging.Float64Field("limit", limit),
		logging.Float64Field("step", step))
	return Continue()
}

// skipForBody returns the index after the NEXT that closes the FOR at from
func (r *run) skipForBody(from int, name string) int {
	stmts := r.prog.Statements
	depth := 0
	for i := from + 1; i < len(stmts); i++ {
		switch stmts[i].Keyword {
		case "FOR":
			depth++
		case "NEXT":
			if depth > 0 {
				depth--
				continue
			}
			next := strings.ToUpper(strings.TrimSpace(stmts[i].Args))
			if next == "" || next == name {
				return i + 1
			}
		}
	}
	return len(stmts)
}

// NEXT [v] advances the innermost matching FOR; inner loops are dropped
func handleNext(r *run, stmt *program.Statement) ExecutionResult {
	name := strings.ToUpper(strings.TrimSpace(stmt.Args))
	ctx, pos, ok := r.state.LoopStack.find(r.state.loopFloor(), func(c *LoopContext) bool {
		return c.Kind == LoopFor && (name == "" || c.Variable == name)
	})
	if !ok {
		msg := "NEXT without FOR"
		if name != "" {
			msg = fmt.Sprintf("NEXT %s without FOR", name)
		}
		return Fail(errors.NewRuntimeError("NEXT_WITHOUT_FOR", msg))
	}
	r.dropLoops(pos + 1)

	value := r.vars.Number(ctx.Variable) + ctx.Step
	r.vars.SetNumber(ctx.Variable, value)
	ctx.Current = value
	if ctx.finished(value) {
		r.state.LoopStack.pop()
		return Continue()
	}
	return Goto(ctx.BodyStart)
}

// GOSUB line|label
func handleGosub(r *run, stmt *program.Statement) ExecutionResult {
	target := strings.TrimSpace(stmt.Args)
	if target == "" {
		return Fail(errors.NewRuntimeError("MISSING_TARGET", "GOSUB expects a line number"))
	}
	idx, err := r.resolve(target)
	if err != nil {
		return Fail(err)
	}
	if err := r.checkCallDepth(); err != nil {
		return Fail(err)
	}
	r.state.CallStack.push(&CallFrame{
		ReturnIndex: r.state.PC + 1,
		LoopDepth:   r.state.LoopStack.size(),
	})
	return Goto(idx)
}

// RETURN pops a GOSUB frame; an empty stack is fatal
func handleReturn(r *run, stmt *program.Statement) ExecutionResult {
	frame, ok := r.state.CallStack.pop()
	if !ok {
		return Fail(errors.NewFatalError("RETURN_WITHOUT_GOSUB", "RETURN without GOSUB"))
	}
	if frame.Procedure != "" {
		return Fail(errors.NewFatalError("CORRUPT_CALL_STACK",
			fmt.Sprintf("RETURN inside procedure %s", frame.Procedure)))
	}
	r.dropLoops(frame.LoopDepth)
	return Goto(frame.ReturnIndex)
}

func (r *run) checkCallDepth() *errors.ExecutionError {
	if limit := r.engine.config.MaxCallDepth; r.state.CallStack.size() >= limit {
		return errors.NewFatalError("CALL_DEPTH", fmt.Sprintf("call depth limit of %d exceeded", limit))
	}
	return nil
}

func handleEnd(r *run, stmt *program.Statement) ExecutionResult {
	return End()
}

func handleRemark(r *run, stmt *program.Statement) ExecutionResult {
	return Continue()
}

// CLS clears the text screen and homes the cursor
func handleCls(r *run, stmt *program.Statement) ExecutionResult {
	r.state.Screen.Clears++
	r.state.Screen.Row, r.state.Screen.Col = 0, 0
	return Continue()
}

// SCREEN n selects the screen mode
func handleScreen(r *run, stmt *program.Statement) ExecutionResult {
	mode, err := r.integer(stmt.Args)
	if err != nil {
		return Fail(err)
	}
	r.state.Screen.Mode = mode
	return Continue()
}

// LOCATE row, col moves the text cursor
func handleLocate(r *run, stmt *program.Statement) ExecutionResult {
	parts := splitTopLevel(stmt.Args, ',')
	if len(parts) != 2 {
		return Fail(errors.NewRuntimeError("BAD_LOCATE", "LOCATE expects row, column"))
	}
	row, err := r.integer(parts[0])
	if err != nil {
		return Fail(err)
	}
	col, err := r.integer(parts[1])
	if err != nil {
		return Fail(err)
	}
	r.state.Screen.Row, r.state.Screen.Col = row, col
	return Continue()
}

// integer evaluates expr and truncates it
func (r *run) integer(expr string) (int, *errors.ExecutionError) {
	if strings.TrimSpace(expr) == "" {
		return 0, errors.NewRuntimeError("MISSING_ARGUMENT", "missing numeric argument")
	}
	n, err := r.number(expr)
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

// handlePlainText prints a statement no dialect recognizes, with *NAME*
// interpolation
func handlePlainText(r *run, stmt *program.Statement) ExecutionResult {
	r.emitLine(r.interpolate(stmt.Command))
	return Continue()
}

func unknownCommand(keyword, command string) *errors.ExecutionError {
	name := keyword
	if name == "" {
		name = strconv.Quote(command)
	}
	return errors.NewRuntimeError("UNKNOWN_COMMAND", fmt.Sprintf("unknown command %s", name)).
		WithContext(contextLookup, keyword).
		WithContext(contextLookupKind, lookupCommand)
}
