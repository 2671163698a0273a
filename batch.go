package main

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"

	"templecode/engine"
	"templecode/input"
	"templecode/logging"
	"templecode/program"
	"templecode/serialization"
	"templecode/suggest"
	"templecode/turtle"
)

// Exit codes of the run command
const (
	exitOK            = 0
	exitProgramError  = 1
	exitResourceLimit = 2
)

// BatchOptions describes a non-interactive run of one program file
type BatchOptions struct {
	Path   string
	Config *Config
	FS     billy.Filesystem
	Stdin  io.Reader
	Stdout io.Writer
	// Interactive shows prompts on Stdout and reads answers from Stdin as typed
	Interactive bool
	// Export writes the final drawing to this path when set
	Export       string
	ExportFormat string
	Logger       logging.Logger
}

// BatchMode loads and runs a program file to completion. The returned
// error covers reading, loading and exporting; runtime failures are
// printed by the engine and reported through the result status.
func BatchMode(opts BatchOptions) (engine.Result, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = DefaultConfig()
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	logger = logger.WithComponent("batch")

	prog, err := loadProgramFile(opts.FS, opts.Path, cfg.Engine.StrictLabels)
	if err != nil {
		return engine.Result{}, err
	}
	if cfg.Engine.Verbose {
		logger.Info("program loaded",
			logging.StringField("file", opts.Path),
			logging.IntField("statements", prog.Len()),
			logging.IntField("labels", len(prog.Labels)),
			logging.IntField("procedures", len(prog.Procedures)))
	}

	answers, closeAnswers, err := answerSource(opts, cfg)
	if err != nil {
		return engine.Result{}, err
	}
	defer closeAnswers()

	settings, err := cfg.EngineSettings()
	if err != nil {
		return engine.Result{}, err
	}
	eng := engine.New(settings,
		engine.WithLogger(logger),
		engine.WithSuggester(suggest.New()))

	t := turtle.New()
	sink := engine.SinkFunc(func(line string) {
		fmt.Fprintln(opts.Stdout, line)
	})
	result := eng.Execute(prog, t, answers, sink)

	if result.Status == engine.StatusHaltedResourceLimit {
		logger.Warn("run stopped by a resource limit", logging.IntField("iterations", result.Iterations))
	}

	if opts.Export != "" {
		if err := exportDrawing(opts.FS, t, opts.Export, opts.ExportFormat); err != nil {
			return result, err
		}
		logger.Info("drawing exported", logging.StringField("file", opts.Export))
	}
	return result, nil
}

// exitCode maps a finished run to the process exit status
func exitCode(result engine.Result) int {
	switch {
	case result.Status == engine.StatusHaltedResourceLimit:
		return exitResourceLimit
	case result.Status == engine.StatusHaltedError, len(result.Errors) > 0:
		return exitProgramError
	default:
		return exitOK
	}
}

// loadProgramFile reads and loads a program from fs
func loadProgramFile(fs billy.Filesystem, path string, strictLabels bool) (*program.Program, error) {
	source, err := util.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}
	return program.Load(string(source), program.Options{StrictLabels: strictLabels})
}

// answerSource picks where A: and INPUT answers come from: a configured
// script, the terminal, or piped stdin
func answerSource(opts BatchOptions, cfg *Config) (engine.InputProvider, func(), error) {
	noop := func() {}

	if script := cfg.Input.Script; script != "" {
		data, err := util.ReadFile(opts.FS, script)
		if err != nil {
			return nil, noop, fmt.Errorf("cannot read answer script %s: %w", script, err)
		}

		var (
			source  input.Provider
			release = noop
		)
		if strings.EqualFold(filepath.Ext(script), ".lua") {
			lua, err := input.NewLuaScript(string(data))
			if err != nil {
				return nil, noop, err
			}
			timeout, err := cfg.LuaTimeout()
			if err != nil {
				lua.Close()
				return nil, noop, err
			}
			if timeout > 0 {
				lua.SetTimeout(timeout)
			}
			source = lua
			release = func() { lua.Close() }
		} else {
			source = input.ParseScript(string(data))
		}

		if cfg.Input.Echo {
			source = input.Echo(source, opts.Stdout)
		}
		return source, release, nil
	}

	if opts.Stdin == nil {
		return nil, noop, nil
	}
	if opts.Interactive {
		return input.NewReader(opts.Stdin, opts.Stdout), noop, nil
	}
	var source input.Provider = input.NewReader(opts.Stdin, nil)
	if cfg.Input.Echo {
		source = input.Echo(source, opts.Stdout)
	}
	return source, noop, nil
}

// exportDrawing serializes the turtle to path in format, or in the format
// implied by the path extension
func exportDrawing(fs billy.Filesystem, t *turtle.State, path, format string) error {
	registry, err := serialization.NewDefaultSerializerRegistry()
	if err != nil {
		return err
	}
	serializer, err := registry.ResolveFormat(format, path)
	if err != nil {
		return err
	}
	data, err := serializer.Serialize(t.Snapshot())
	if err != nil {
		return err
	}
	if err := util.WriteFile(fs, path, data, 0o644); err != nil {
		return fmt.Errorf("cannot write %s: %w", path, err)
	}
	return nil
}
