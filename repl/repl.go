package repl

import (
	goerrors "errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-billy/v5/util"

	"templecode/engine"
	"templecode/errors"
	"templecode/input"
	"templecode/logging"
	"templecode/program"
	"templecode/serialization"
	"templecode/turtle"
)

// REPL is an interactive TempleCode session. The engine keeps variables
// between entries and the turtle keeps drawing until :reset.
type REPL struct {
	engine         *engine.Engine
	turtle         *turtle.State
	lines          input.Provider
	out            io.Writer
	fs             billy.Filesystem
	logger         logging.Logger
	formats        *serialization.SerializerRegistry
	prompt         string
	continuePrompt string
	running        bool
	history        []string
	historySize    int
	showWelcome    bool
	verbose        bool
	strictLabels   bool
	version        string
	buffer         *MultiLineBuffer
	listing        *Listing
	procedures     map[string]string
	displayManager *DisplayManager
	completer      *KeywordCompleter
}

// REPLConfig contains configuration for the REPL
type REPLConfig struct {
	Engine        engine.Config
	EngineOptions []engine.Option
	// Input supplies both session lines and answers to A: and INPUT.
	// Defaults to a plain reader on stdin.
	Input  input.Provider
	Output io.Writer
	// FS resolves :run, :save and :load paths; defaults to the OS
	FS             billy.Filesystem
	Logger         logging.Logger
	Verbose        bool
	EnableColors   bool
	ShowWelcome    bool
	StrictLabels   bool
	Prompt         string // Main prompt (default: "> ")
	ContinuePrompt string // Continuation prompt (default: "... ")
	HistorySize    int    // Maximum history size (default: 1000)
	Version        string
}

// NewREPLWithConfig creates a new REPL instance with configuration
func NewREPLWithConfig(config REPLConfig) (*REPL, error) {
	out := config.Output
	if out == nil {
		out = os.Stdout
	}
	lines := config.Input
	if lines == nil {
		lines = input.NewReader(os.Stdin, nil)
	}
	fs := config.FS
	if fs == nil {
		fs = osfs.New("")
	}
	logger := config.Logger
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	formats, err := serialization.NewDefaultSerializerRegistry()
	if err != nil {
		return nil, err
	}

	prompt := config.Prompt
	if prompt == "" {
		prompt = "> "
	}
	continuePrompt := config.ContinuePrompt
	if continuePrompt == "" {
		continuePrompt = "... "
	}
	historySize := config.HistorySize
	if historySize <= 0 {
		historySize = 1000
	}
	version := config.Version
	if version == "" {
		version = "dev"
	}

	engineConfig := config.Engine
	engineConfig.PreserveVariables = true
	opts := append([]engine.Option{engine.WithLogger(logger)}, config.EngineOptions...)

	r := &REPL{
		engine:         engine.New(engineConfig, opts...),
		turtle:         turtle.New(),
		lines:          lines,
		out:            out,
		fs:             fs,
		logger:         logger.WithComponent("repl"),
		formats:        formats,
		prompt:         prompt,
		continuePrompt: continuePrompt,
		history:        make([]string, 0),
		historySize:    historySize,
		showWelcome:    config.ShowWelcome,
		verbose:        config.Verbose,
		strictLabels:   config.StrictLabels,
		version:        version,
		buffer:         NewMultiLineBuffer(),
		listing:        NewListing(),
		procedures:     make(map[string]string),
		displayManager: NewDisplayManager(out, config.EnableColors, config.Verbose),
	}
	r.completer = NewKeywordCompleter(r.ProcedureNames)
	return r, nil
}

// SetInput replaces the line source, e.g. with a readline provider built
// around Completer()
func (r *REPL) SetInput(lines input.Provider) {
	r.lines = lines
}

// Completer returns the Tab completer bound to this session
func (r *REPL) Completer() *KeywordCompleter {
	return r.completer
}

// Run reads and processes lines until :quit or end of input
func (r *REPL) Run() error {
	r.running = true
	if r.showWelcome {
		r.displayManager.ShowWelcome(r.version)
	}
	r.logger.Debug("session started")

	for r.running {
		line, err := r.lines.ReadInput(r.displayManager.GetPrompt(r.buffer, r.prompt, r.continuePrompt))
		switch {
		case goerrors.Is(err, input.ErrInterrupted):
			if r.buffer.IsActive() {
				r.buffer.Clear()
				r.displayManager.ShowInfo("buffer cleared")
			} else {
				r.displayManager.ShowInfo("type :quit or press Ctrl+D to leave")
			}
			continue
		case goerrors.Is(err, io.EOF):
			if r.buffer.IsActive() {
				r.executeBuffer()
			}
			r.running = false
			return nil
		case err != nil:
			r.running = false
			return fmt.Errorf("reading input: %w", err)
		}
		r.ProcessLine(line)
	}
	return nil
}

// ProcessLine handles one session line: a command, a continuation, a
// numbered listing edit or an immediate statement
func (r *REPL) ProcessLine(line string) {
	trimmed := strings.TrimSpace(line)

	if r.buffer.IsActive() {
		if body, more := continuation(line); more {
			r.buffer.AddLine(body)
			return
		}
		r.buffer.AddLine(line)
		r.executeBuffer()
		return
	}

	if trimmed == "" {
		return
	}
	r.addHistory(trimmed)

	if strings.HasPrefix(trimmed, ":") {
		if err := r.handleBuiltInCommand(trimmed); err != nil {
			r.displayError(err)
		}
		return
	}

	if body, more := continuation(line); more {
		r.buffer.AddLine(body)
		return
	}

	if n, text, ok := splitLineNumber(trimmed); ok {
		if !r.listing.Store(n, text) {
			r.displayManager.ShowWarning(fmt.Sprintf("line %d does not exist", n))
		}
		return
	}

	r.Execute(line)
}

// continuation strips a trailing backslash and reports whether one was there
func continuation(line string) (string, bool) {
	trimmed := strings.TrimRight(line, " \t")
	if strings.HasSuffix(trimmed, "\\") {
		return strings.TrimSuffix(trimmed, "\\"), true
	}
	return line, false
}

func (r *REPL) executeBuffer() {
	source := r.buffer.GetContent()
	r.buffer.Clear()
	if strings.TrimSpace(source) != "" {
		r.addHistory(strings.ReplaceAll(source, "\n", " \\ "))
		r.Execute(source)
	}
}

// Execute loads and runs source against the session engine and turtle.
// Procedures defined by earlier entries stay callable.
func (r *REPL) Execute(source string) engine.Result {
	defined := procedureBlocks(source)
	prog, err := program.Load(r.withProcedures(source, defined), program.Options{StrictLabels: r.strictLabels})
	if err != nil {
		r.displayError(err)
		return engine.Result{Status: engine.StatusHaltedError, Err: err}
	}

	res := r.engine.Execute(prog, r.turtle, r.lines, engine.SinkFunc(func(line string) {
		fmt.Fprintln(r.out, line)
	}))
	for name, text := range defined {
		r.procedures[name] = text
	}
	r.displayManager.ShowRunSummary(res)
	return res
}

// withProcedures appends the session's stored definitions that source
// does not redefine. They go after source so its line numbers hold.
func (r *REPL) withProcedures(source string, defined map[string]string) string {
	names := make([]string, 0, len(r.procedures))
	for name := range r.procedures {
		if _, own := defined[name]; !own {
			names = append(names, name)
		}
	}
	if len(names) == 0 {
		return source
	}
	sort.Strings(names)

	var b strings.Builder
	b.WriteString(source)
	for _, name := range names {
		b.WriteString("\n")
		b.WriteString(r.procedures[name])
	}
	return b.String()
}

// procedureBlocks extracts every TO ... END definition in source keyed
// by upper-cased procedure name
func procedureBlocks(source string) map[string]string {
	blocks := make(map[string]string)
	var (
		name    string
		current []string
	)
	for _, line := range strings.Split(strings.ReplaceAll(source, "\r\n", "\n"), "\n") {
		words := strings.Fields(line)
		if name == "" {
			if len(words) < 2 || !strings.EqualFold(words[0], "TO") {
				continue
			}
			name = strings.ToUpper(words[1])
			current = []string{strings.TrimSpace(line)}
			// TO NAME ... END on one line
			if len(words) > 2 && strings.EqualFold(words[len(words)-1], "END") {
				blocks[name] = current[0]
				name = ""
			}
			continue
		}
		current = append(current, strings.TrimSpace(line))
		if len(words) > 0 && strings.EqualFold(words[len(words)-1], "END") {
			blocks[name] = strings.Join(current, "\n")
			name = ""
		}
	}
	return blocks
}

// ProcedureNames lists the procedures defined in this session
func (r *REPL) ProcedureNames() []string {
	names := make([]string, 0, len(r.procedures))
	for name := range r.procedures {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *REPL) addHistory(entry string) {
	r.history = append(r.history, entry)
	if len(r.history) > r.historySize {
		r.history = r.history[len(r.history)-r.historySize:]
	}
}

// GetHistory returns the session history, oldest first
func (r *REPL) GetHistory() []string {
	return r.history
}

// GetTurtle returns the session turtle
func (r *REPL) GetTurtle() *turtle.State {
	return r.turtle
}

// GetEngine returns the session engine
func (r *REPL) GetEngine() *engine.Engine {
	return r.engine
}

// GetListing returns the stored numbered program
func (r *REPL) GetListing() *Listing {
	return r.listing
}

// GetBuffer returns the continuation buffer
func (r *REPL) GetBuffer() *MultiLineBuffer {
	return r.buffer
}

// IsRunning reports whether Run is still reading lines
func (r *REPL) IsRunning() bool {
	return r.running
}

// displayError shows load errors the way runs report them
func (r *REPL) displayError(err error) {
	if execErr, ok := errors.GetExecutionError(err); ok {
		r.logger.ErrorExecution(execErr)
		fmt.Fprintln(r.out, execErr.UserMessage())
		return
	}
	r.displayManager.ShowError(err.Error())
}

// readProgram reads a program file through the session filesystem
func (r *REPL) readProgram(path string) (string, error) {
	data, err := util.ReadFile(r.fs, path)
	if err != nil {
		return "", fmt.Errorf("cannot read %s: %w", path, err)
	}
	return string(data), nil
}
