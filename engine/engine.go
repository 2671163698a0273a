package engine

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"templecode/dialect"
	"templecode/errors"
	"templecode/expression"
	"templecode/logging"
	"templecode/program"
	"templecode/shared"
	"templecode/turtle"
)

// InputProvider answers input requests synchronously. It is the only
// point at which a run suspends.
type InputProvider interface {
	ReadInput(prompt string) (string, error)
}

// InputFunc adapts a function to InputProvider
type InputFunc func(prompt string) (string, error)

// ReadInput calls f
func (f InputFunc) ReadInput(prompt string) (string, error) {
	return f(prompt)
}

// OutputSink receives output lines as they are produced
type OutputSink interface {
	WriteLine(line string)
}

// SinkFunc adapts a function to OutputSink
type SinkFunc func(line string)

// WriteLine calls f
func (f SinkFunc) WriteLine(line string) {
	f(line)
}

// handlerFunc executes one statement against the run context
type handlerFunc func(r *run, stmt *program.Statement) ExecutionResult

// Engine executes loaded programs. The dispatch table is built once per
// engine; an Engine runs one program at a time.
type Engine struct {
	config       Config
	logger       logging.Logger
	evaluator    *expression.Evaluator
	suggester    Suggester
	errorHandler errors.ErrorHandler
	now          func() time.Time
	handlers     [dialect.NumTags]handlerFunc
	vars         *shared.VariableStore
	current      *run
	lastStatus   Status
}

// New creates an engine. Zero limits in config are replaced by defaults.
func New(config Config, opts ...Option) *Engine {
	config = config.withDefaults()

	evOpts := []expression.Option{expression.WithCacheSize(config.CacheSize)}
	if config.Seed != 0 {
		evOpts = append(evOpts, expression.WithSeed(config.Seed))
	}

	e := &Engine{
		config:       config,
		logger:       logging.NewNopLogger(),
		evaluator:    expression.NewEvaluator(evOpts...),
		errorHandler: errors.NewDefaultErrorHandler(),
		now:          time.Now,
		vars:         shared.NewVariableStore(),
		lastStatus:   StatusHaltedNormal,
	}
	e.handlers = newHandlerTable()

	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Config returns the effective configuration
func (e *Engine) Config() Config {
	return e.config
}

// Variables returns a copy of the variable store
func (e *Engine) Variables() map[string]shared.Value {
	return e.vars.Snapshot()
}

// ResetVariables clears the variable store
func (e *Engine) ResetVariables() {
	e.vars = shared.NewVariableStore()
}

// Status reports the state of the current run, or how the last run ended
func (e *Engine) Status() Status {
	if e.current != nil {
		return e.current.state.Status
	}
	return e.lastStatus
}

// Execute runs prog to completion. The turtle is mutated in place and is
// never reset. When sink is nil the output lines are returned in
// Result.Output. No error escapes Execute: failures are reported as output
// lines and a terminal status.
func (e *Engine) Execute(prog *program.Program, t *turtle.State, input InputProvider, sink OutputSink) (result Result) {
	if !e.config.PreserveVariables {
		e.vars = shared.NewVariableStore()
	}
	if t == nil {
		t = turtle.New()
	}
	r := newRun(e, prog, t, input, sink)
	e.current = r
	defer func() {
		e.current = nil
		e.lastStatus = result.Status
	}()

	e.logger.Info("run started", logging.IntField("statements", prog.Len()))
	for _, w := range prog.Warnings {
		e.logger.Warn(w)
	}

	defer func() {
		if rec := recover(); rec != nil {
			err := errors.NewFatalError("INTERNAL_ERROR", fmt.Sprintf("internal error: %v", rec))
			r.report(r.currentStatement(), err)
			r.halt(StatusHaltedError, err)
			result = r.result()
		}
	}()

	r.loop()
	result = r.result()

	e.logger.Info("run finished",
		logging.StringField("status", result.Status.String()),
		logging.IntField("iterations", result.Iterations),
		logging.DurationField("duration", result.Duration))
	return result
}

// run is the mutable context handed to every handler
type run struct {
	engine *Engine
	prog   *program.Program
	turtle *turtle.State
	vars   *shared.VariableStore
	input  InputProvider
	sink   OutputSink
	state  *ExecutionState

	output  []string
	pending strings.Builder
	hasPart bool
	errs    []*errors.ExecutionError
	haltErr *errors.ExecutionError
}

func newRun(e *Engine, prog *program.Program, t *turtle.State, input InputProvider, sink OutputSink) *run {
	return &run{
		engine: e,
		prog:   prog,
		turtle: t,
		vars:   e.vars,
		input:  input,
		sink:   sink,
		state:  newExecutionState(e.now()),
	}
}

func (r *run) loop() {
	cfg := r.engine.config
	stmts := r.prog.Statements

	for !r.state.Status.IsHalted() {
		if r.state.PC < 0 || r.state.PC >= len(stmts) {
			r.halt(StatusHaltedNormal, nil)
			return
		}

		if r.state.Iterations >= cfg.MaxIterations {
			err := errors.NewResourceLimitError("ITERATION_LIMIT",
				fmt.Sprintf("iteration limit of %d exceeded", cfg.MaxIterations))
			r.report(&stmts[r.state.PC], err)
			r.halt(StatusHaltedResourceLimit, err)
			return
		}
		r.state.Iterations++

		if cfg.Timeout > 0 && r.state.Iterations%cfg.TimeCheckInterval == 0 {
			if r.engine.now().Sub(r.state.Start) > cfg.Timeout {
				err := errors.NewResourceLimitError("TIMEOUT",
					fmt.Sprintf("time limit of %s exceeded", cfg.Timeout))
				r.report(&stmts[r.state.PC], err)
				r.halt(StatusHaltedResourceLimit, err)
				return
			}
		}

		stmt := &stmts[r.state.PC]
		r.apply(stmt, r.execute(stmt))
	}
}

// execute checks the statement guard, classifies and dispatches it
func (r *run) execute(stmt *program.Statement) ExecutionResult {
	ok, err := r.guardHolds(stmt)
	if err != nil {
		return Fail(err)
	}
	if !ok {
		return Continue()
	}

	tag := dialect.Classify(stmt, r.prog.Procedures)
	handler := r.engine.handlers[tag]
	if handler == nil {
		return Fail(errors.NewFatalError("NO_HANDLER", fmt.Sprintf("no handler for %s", tag)))
	}
	return handler(r, stmt)
}

// guardHolds evaluates the Y, N or (expr) condition of a prefixed statement
func (r *run) guardHolds(stmt *program.Statement) (bool, *errors.ExecutionError) {
	switch stmt.Prefix.Cond {
	case program.CondYes:
		return r.state.LastMatch, nil
	case program.CondNo:
		return !r.state.LastMatch, nil
	case program.CondExpr:
		return r.condition(stmt.Prefix.Expr)
	default:
		return true, nil
	}
}

func (r *run) apply(stmt *program.Statement, res ExecutionResult) {
	switch res.Kind {
	case KindContinue:
		r.state.PC++

	case KindGoto:
		r.engine.logger.Debug("goto", logging.IntField("from", stmt.Index), logging.IntField("to", res.Index))
		r.state.PC = res.Index

	case KindJump:
		idx, err := r.resolve(res.Target)
		if err != nil {
			r.report(stmt, err)
			r.state.PC++
			return
		}
		r.engine.logger.Debug("jump", logging.StringField("target", res.Target), logging.IntField("to", idx))
		r.dropLoops(r.state.LoopStack.exitDepth(r.state.loopFloor(), idx))
		r.state.PC = idx

	case KindEnd:
		r.halt(StatusHaltedNormal, nil)

	case KindWaitForInput:
		if err := r.awaitInput(res); err != nil {
			r.report(stmt, err)
			r.halt(StatusHaltedError, err)
			return
		}
		r.state.PC++

	case KindError:
		r.fail(stmt, res.Err)
	}
}

// fail applies the recovery policy to err
func (r *run) fail(stmt *program.Statement, err *errors.ExecutionError) {
	r.report(stmt, err)
	switch r.engine.errorHandler.Recover(err).Action {
	case errors.RecoveryActionAbort:
		r.halt(StatusHaltedError, err)
	case errors.RecoveryActionLimit:
		r.halt(StatusHaltedResourceLimit, err)
	default:
		r.state.PC++
	}
}

func (r *run) awaitInput(res ExecutionResult) *errors.ExecutionError {
	if r.input == nil {
		return errors.NewFatalError("NO_INPUT", "input requested but no input provider is available")
	}

	prompt := res.Prompt
	if r.hasPart {
		prompt = r.pending.String() + prompt
		r.pending.Reset()
		r.hasPart = false
	}

	r.state.Status = StatusWaitingForInput
	answer, err := r.input.ReadInput(prompt)
	if err != nil {
		return errors.NewFatalError("INPUT_FAILED", "input provider failed").Wrap(err)
	}
	r.state.Status = StatusRunning

	answer = strings.TrimRight(answer, "\r\n")
	r.state.LastInput = answer
	if res.Variable != "" {
		r.storeInput(res.Variable, answer, res.Numeric)
	}
	return nil
}

// storeInput binds an answer. Text variables take it verbatim; other
// variables take a number when the answer parses as one. A numeric request
// that does not parse stores 0.
func (r *run) storeInput(name, answer string, numeric bool) {
	switch n, err := strconv.ParseFloat(strings.TrimSpace(answer), 64); {
	case shared.IsTextName(name):
		r.vars.SetText(name, answer)
	case err == nil:
		r.vars.SetNumber(name, n)
	case numeric:
		r.vars.SetNumber(name, 0)
	default:
		r.vars.SetText(name, answer)
	}
}

// resolve maps a label or line number to a statement index
func (r *run) resolve(target string) (int, *errors.ExecutionError) {
	name := strings.ToUpper(strings.TrimPrefix(strings.TrimSpace(target), "*"))
	if idx, ok := r.prog.Labels[name]; ok {
		return idx, nil
	}
	if n, err := strconv.Atoi(name); err == nil {
		if idx, ok := r.prog.Lines[n]; ok {
			return idx, nil
		}
		return 0, errors.NewRuntimeError("UNKNOWN_LINE", fmt.Sprintf("line %d does not exist", n)).
			WithContext(contextLookup, name).
			WithContext(contextLookupKind, lookupLine)
	}
	return 0, errors.NewRuntimeError("UNKNOWN_LABEL", fmt.Sprintf("unknown label %s", name)).
		WithContext(contextLookup, name).
		WithContext(contextLookupKind, lookupLabel)
}

func (r *run) halt(status Status, err *errors.ExecutionError) {
	r.state.Status = status
	if err != nil {
		r.haltErr = err
	}
}

func (r *run) currentStatement() *program.Statement {
	if r.state.PC >= 0 && r.state.PC < len(r.prog.Statements) {
		return &r.prog.Statements[r.state.PC]
	}
	return nil
}

func (r *run) result() Result {
	r.flushPartial()
	if !r.state.Status.IsHalted() {
		r.state.Status = StatusHaltedNormal
	}

	res := Result{
		Status:     r.state.Status,
		Errors:     r.errs,
		Iterations: r.state.Iterations,
		Output:     r.output,
		Variables:  r.vars.Snapshot(),
		Screen:     r.state.Screen,
		Duration:   r.engine.now().Sub(r.state.Start),
	}
	if r.haltErr != nil {
		res.Err = r.haltErr
	}
	return res
}
