package engine

import (
	"fmt"
	"math"
	"strings"

	"templecode/errors"
	"templecode/logging"
	"templecode/program"
	"templecode/shared"
	"templecode/turtle"
)

// repeatCounter holds the iteration number of the innermost REPEAT
const repeatCounter = "REPCOUNT"

// numbers evaluates the first n argument words of a turtle command
func (r *run) numbers(stmt *program.Statement, n int) ([]float64, *errors.ExecutionError) {
	if len(stmt.Words) < n {
		return nil, errors.NewRuntimeError("MISSING_ARGUMENT",
			fmt.Sprintf("%s expects %d argument(s), got %d", stmt.Keyword, n, len(stmt.Words)))
	}
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		v, err := r.number(stmt.Words[i])
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// turtleUnary wraps a one-argument turtle mutator as a handler
func turtleUnary(apply func(t *turtle.State, v float64)) handlerFunc {
	return func(r *run, stmt *program.Statement) ExecutionResult {
		args, err := r.numbers(stmt, 1)
		if err != nil {
			return Fail(err)
		}
		apply(r.turtle, args[0])
		return Continue()
	}
}

// turtleNullary wraps an argument-less turtle mutator as a handler
func turtleNullary(apply func(t *turtle.State)) handlerFunc {
	return func(r *run, stmt *program.Statement) ExecutionResult {
		apply(r.turtle)
		return Continue()
	}
}

func handleSetXY(r *run, stmt *program.Statement) ExecutionResult {
	args, err := r.numbers(stmt, 2)
	if err != nil {
		return Fail(err)
	}
	r.turtle.SetPosition(args[0], args[1])
	return Continue()
}

// CLEARSCREEN homes the turtle without drawing and raises the clear flag.
// The segment history is kept.
func handleClearScreen(r *run, stmt *program.Statement) ExecutionResult {
	down := r.turtle.PenIsDown
	r.turtle.PenUp()
	r.turtle.Home()
	if down {
		r.turtle.PenDown()
	}
	r.turtle.RequestClear()
	return Continue()
}

func handleSetPenColor(r *run, stmt *program.Statement) ExecutionResult {
	c, err := r.color(stmt)
	if err != nil {
		return Fail(err)
	}
	r.turtle.SetPenColor(c)
	return Continue()
}

func handleSetBgColor(r *run, stmt *program.Statement) ExecutionResult {
	c, err := r.color(stmt)
	if err != nil {
		return Fail(err)
	}
	r.turtle.SetBackground(c)
	return Continue()
}

// color reads a color name, a palette index or R G B components
func (r *run) color(stmt *program.Statement) (turtle.RGB, *errors.ExecutionError) {
	switch len(stmt.Words) {
	case 1:
		word := stmt.Words[0]
		if c, ok := turtle.NamedColor(word); ok {
			return c, nil
		}
		if strings.HasPrefix(word, `"`) {
			return turtle.RGB{}, errors.NewRuntimeError("UNKNOWN_COLOR", fmt.Sprintf("unknown color %s", strings.Trim(word, `"`)))
		}
		n, err := r.number(word)
		if err != nil {
			return turtle.RGB{}, err
		}
		c, ok := turtle.PaletteColor(int(n))
		if !ok {
			return turtle.RGB{}, errors.NewRuntimeError("UNKNOWN_COLOR", fmt.Sprintf("no palette color %s", shared.FormatNumber(n)))
		}
		return c, nil
	case 3:
		rgb, err := r.numbers(stmt, 3)
		if err != nil {
			return turtle.RGB{}, err
		}
		return turtle.FromComponents(rgb[0], rgb[1], rgb[2]), nil
	default:
		return turtle.RGB{}, errors.NewRuntimeError("MISSING_ARGUMENT",
			fmt.Sprintf("%s expects a color name, a palette index or R G B", stmt.Keyword))
	}
}

// REPEAT n [ opens a counted block; n <= 0 skips it
func handleRepeat(r *run, stmt *program.Statement) ExecutionResult {
	if stmt.Block < 0 {
		return Fail(errors.NewRuntimeError("REPEAT_WITHOUT_BLOCK", "REPEAT needs a [ ... ] block"))
	}
	args, err := r.numbers(stmt, 1)
	if err != nil {
		return Fail(err)
	}
	count := math.Floor(args[0])
	if count < 1 {
		return Goto(stmt.Block + 1)
	}

	ctx := &LoopContext{
		Kind:      LoopRepeat,
		Variable:  repeatCounter,
		Current:   1,
		Limit:     count,
		Step:      1,
		BodyStart: stmt.Index + 1,
		Start:     stmt.Index,
		End:       stmt.Block,
	}
	if _, nested := r.state.LoopStack.innermostRepeat(0); !nested {
		prev, existed := r.vars.Get(repeatCounter)
		ctx.Saved = &savedBinding{value: prev, existed: existed}
	}
	r.state.LoopStack.push(ctx)
	r.vars.SetNumber(repeatCounter, 1)
	r.engine.logger.Debug("repeat entered", logging.IntField("count", int(count)), logging.IntField("block_end", stmt.Block))
	return Continue()
}

// ] ends one pass of the REPEAT it closes
func handleBlockEnd(r *run, stmt *program.Statement) ExecutionResult {
	ctx, pos, ok := r.state.LoopStack.find(r.state.loopFloor(), func(c *LoopContext) bool {
		return c.Kind == LoopRepeat && c.End == stmt.Index
	})
	if !ok {
		return Fail(errors.NewRuntimeError("BLOCK_NOT_ACTIVE", "] reached without an active REPEAT"))
	}
	r.dropLoops(pos + 1)

	if ctx.Current < ctx.Limit {
		ctx.Current++
		r.vars.SetNumber(repeatCounter, ctx.Current)
		return Goto(ctx.BodyStart)
	}

	r.dropLoops(pos)
	return Continue()
}

// TO skips over the procedure body
func handleProcDef(r *run, stmt *program.Statement) ExecutionResult {
	if stmt.Block < 0 {
		return Fail(errors.NewFatalError("CORRUPT_PROGRAM", "procedure definition without END"))
	}
	return Goto(stmt.Block + 1)
}

// handleCall binds the procedure parameters, saving the caller's bindings
func handleCall(r *run, stmt *program.Statement) ExecutionResult {
	proc, ok := r.prog.Procedures[stmt.Keyword]
	if !ok {
		return Fail(unknownCommand(stmt.Keyword, stmt.Command))
	}
	if len(stmt.Words) < len(proc.Params) {
		return Fail(errors.NewRuntimeError("MISSING_ARGUMENT",
			fmt.Sprintf("%s expects %d argument(s), got %d", proc.Name, len(proc.Params), len(stmt.Words))))
	}
	if err := r.checkCallDepth(); err != nil {
		return Fail(err)
	}

	values := make([]shared.Value, len(proc.Params))
	for i := range proc.Params {
		v, err := r.argument(stmt.Words[i])
		if err != nil {
			return Fail(err)
		}
		values[i] = v
	}

	saved := make(map[string]savedBinding, len(proc.Params))
	for i, param := range proc.Params {
		if _, seen := saved[param]; !seen {
			prev, existed := r.vars.Get(param)
			saved[param] = savedBinding{value: prev, existed: existed}
		}
		r.vars.Set(param, values[i])
	}

	r.state.CallStack.push(&CallFrame{
		ReturnIndex: r.state.PC + 1,
		Procedure:   proc.Name,
		Saved:       saved,
		LoopDepth:   r.state.LoopStack.size(),
	})
	r.engine.logger.Debug("procedure call",
		logging.StringField("procedure", proc.Name),
		logging.IntField("depth", r.state.CallStack.size()))
	return Goto(proc.BodyStart)
}

// argument evaluates a procedure argument; a Logo-quoted word is text
func (r *run) argument(word string) (shared.Value, *errors.ExecutionError) {
	if strings.HasPrefix(word, `"`) && !isQuoted(word) {
		return shared.Text(word[1:]), nil
	}
	return r.value(word)
}

// handleProcEnd returns from the procedure whose END was reached
func handleProcEnd(r *run, stmt *program.Statement) ExecutionResult {
	return r.returnFromProcedure(stmt.EndsProcedure)
}

// STOP leaves the current procedure; outside a procedure it ends the run
func handleStop(r *run, stmt *program.Statement) ExecutionResult {
	frame, ok := r.state.CallStack.peek()
	if !ok || frame.Procedure == "" {
		return End()
	}
	return r.returnFromProcedure(frame.Procedure)
}

func (r *run) returnFromProcedure(name string) ExecutionResult {
	frame, ok := r.state.CallStack.pop()
	if !ok {
		// END of a procedure reached without a call
		return Continue()
	}
	if frame.Procedure != name {
		return Fail(errors.NewFatalError("CORRUPT_CALL_STACK",
			fmt.Sprintf("END of %s reached inside %s", name, describeFrame(frame))))
	}

	r.dropLoops(frame.LoopDepth)
	for param, b := range frame.Saved {
		r.restore(param, b)
	}
	return Goto(frame.ReturnIndex)
}

// dropLoops pops loop contexts until depth remain. REPCOUNT follows the
// innermost REPEAT left, or gets its old binding back once none is.
func (r *run) dropLoops(depth int) {
	left := false
	for r.state.LoopStack.size() > depth {
		ctx, _ := r.state.LoopStack.pop()
		if ctx.Kind != LoopRepeat {
			continue
		}
		left = true
		if ctx.Saved != nil {
			r.restore(repeatCounter, *ctx.Saved)
		}
	}
	if !left {
		return
	}
	if outer, ok := r.state.LoopStack.innermostRepeat(0); ok {
		r.vars.SetNumber(repeatCounter, outer.Current)
	}
}

func (r *run) restore(name string, b savedBinding) {
	if b.existed {
		r.vars.Set(name, b.value)
	} else {
		r.vars.Delete(name)
	}
}

func describeFrame(f *CallFrame) string {
	if f.Procedure == "" {
		return "a GOSUB"
	}
	return f.Procedure
}

func handleUnknownTurtle(r *run, stmt *program.Statement) ExecutionResult {
	return Fail(unknownCommand(stmt.Keyword, stmt.Command))
}
