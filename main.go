package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"templecode/engine"
	"templecode/errors"
	"templecode/input"
	"templecode/logging"
	"templecode/repl"
	"templecode/suggest"
)

var version = "0.1.0"

// defaultConfigPath is used when neither --config nor TEMPLECODE_CONFIG is set
const defaultConfigPath = "~/.templecode/config.yaml"

// app holds the process surroundings so commands can run against an
// in-memory filesystem and buffers
type app struct {
	fs         billy.Filesystem
	stdin      io.Reader
	stdout     io.Writer
	stderr     io.Writer
	isTerminal func() bool
	// resolve turns a command-line path into a filesystem path
	resolve func(string) string
	// newLineEditor builds the interactive line source for the REPL
	newLineEditor func(cfg *Config, completer *repl.KeywordCompleter) (input.Provider, func(), error)

	exit int
}

// globalFlags are shared by every command
type globalFlags struct {
	configPath    string
	verbose       bool
	logLevel      string
	maxIterations int
	timeout       string
	seed          int64
	strictLabels  bool
}

// runFlags belong to the run command
type runFlags struct {
	inputScript  string
	export       string
	exportFormat string
	watch        bool
}

func main() {
	a := &app{
		fs:            osfs.New(""),
		stdin:         os.Stdin,
		stdout:        os.Stdout,
		stderr:        os.Stderr,
		isTerminal:    stdinIsTerminal,
		resolve:       absolutePath,
		newLineEditor: readlineEditor,
	}
	os.Exit(a.execute(os.Args[1:]))
}

// execute runs the command line and returns the process exit code
func (a *app) execute(args []string) int {
	a.exit = exitOK
	if args == nil {
		// cobra falls back to os.Args on nil
		args = []string{}
	}
	root := a.newRootCommand()
	root.SetArgs(args)
	if err := root.Execute(); err != nil {
		a.printError(err)
		if a.exit == exitOK {
			a.exit = exitProgramError
		}
	}
	return a.exit
}

func (a *app) newRootCommand() *cobra.Command {
	var flags globalFlags
	var rf runFlags

	root := &cobra.Command{
		Use:   "templecode [file]",
		Short: "Run PILOT, BASIC and Logo programs, alone or mixed",
		Long: `TempleCode runs programs that freely mix PILOT, BASIC and Logo lines.
With a file argument the program is run; without one an interactive
session starts.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				return a.runProgram(cmd.Context(), flags, rf, args[0])
			}
			return a.runREPL(flags)
		},
	}
	root.SetIn(a.stdin)
	root.SetOut(a.stdout)
	root.SetErr(a.stderr)

	pf := root.PersistentFlags()
	pf.StringVarP(&flags.configPath, "config", "c", "", "Path to a YAML or JSON config file")
	pf.BoolVarP(&flags.verbose, "verbose", "v", false, "Enable verbose logging")
	pf.StringVar(&flags.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	pf.IntVar(&flags.maxIterations, "max-iterations", 0, "Maximum statements a run may execute")
	pf.StringVar(&flags.timeout, "timeout", "", `Wall-clock budget of a run, e.g. "5s", or "off"`)
	pf.Int64Var(&flags.seed, "seed", 0, "Seed for RANDOM, for reproducible runs")
	pf.BoolVar(&flags.strictLabels, "strict-labels", false, "Reject programs that define a label twice")

	addRunFlags(root, &rf)

	runCmd := &cobra.Command{
		Use:   "run <file>",
		Short: "Run a program file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runProgram(cmd.Context(), flags, rf, args[0])
		},
	}
	addRunFlags(runCmd, &rf)

	checkCmd := &cobra.Command{
		Use:   "check <file>...",
		Short: "Load programs without running them and report problems",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.checkPrograms(flags, args)
		},
	}

	replCmd := &cobra.Command{
		Use:   "repl",
		Short: "Start an interactive session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runREPL(flags)
		},
	}

	configCmd := &cobra.Command{
		Use:   "config [path]",
		Short: "Write the effective configuration to a file or stdout",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.writeConfig(flags, args)
		},
	}

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(a.stdout, "templecode %s\n", version)
		},
	}

	root.AddCommand(runCmd, checkCmd, replCmd, configCmd, versionCmd)
	return root
}

func addRunFlags(cmd *cobra.Command, rf *runFlags) {
	f := cmd.Flags()
	f.StringVarP(&rf.inputScript, "input-script", "i", "", "Answers for A: and INPUT, one per line, or a .lua script")
	f.StringVarP(&rf.export, "export", "o", "", "Write the final drawing to this file")
	f.StringVar(&rf.exportFormat, "export-format", "", "Drawing format (json, cbor, binary); defaults to the file extension")
	f.BoolVarP(&rf.watch, "watch", "w", false, "Run again whenever the file changes")
}

// loadSettings reads the config file and applies flag overrides
func (a *app) loadSettings(flags globalFlags, overrides Config) (*Config, logging.Logger, error) {
	path := flags.configPath
	if path == "" {
		path = os.Getenv("TEMPLECODE_CONFIG")
	}
	explicit := path != ""
	if !explicit {
		path = defaultConfigPath
	}

	resolved := a.resolve(expandHome(path))
	if explicit {
		// only the default location may be absent
		if _, err := a.fs.Stat(resolved); err != nil {
			return nil, nil, fmt.Errorf("config file %s: %w", path, err)
		}
	}
	cfg, err := LoadConfig(a.fs, resolved)
	if err != nil {
		return nil, nil, err
	}

	overrides.Engine.MaxIterations = flags.maxIterations
	overrides.Engine.Timeout = flags.timeout
	overrides.Engine.Seed = flags.seed
	overrides.Engine.StrictLabels = flags.strictLabels
	overrides.Engine.Verbose = flags.verbose
	overrides.Logging.Level = flags.logLevel
	if err := cfg.ApplyOverrides(overrides); err != nil {
		return nil, nil, err
	}

	logger, err := cfg.NewLogger()
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

// runProgram runs one file, and with --watch keeps running it after each
// change until interrupted
func (a *app) runProgram(ctx context.Context, flags globalFlags, rf runFlags, path string) error {
	var overrides Config
	if rf.inputScript != "" {
		overrides.Input.Script = a.resolve(rf.inputScript)
	}
	cfg, logger, err := a.loadSettings(flags, overrides)
	if err != nil {
		return err
	}

	opts := BatchOptions{
		Path:         a.resolve(path),
		Config:       cfg,
		FS:           a.fs,
		Stdin:        a.stdin,
		Stdout:       a.stdout,
		Interactive:  a.isTerminal(),
		ExportFormat: rf.exportFormat,
		Logger:       logger,
	}
	if rf.export != "" {
		opts.Export = a.resolve(rf.export)
	}

	runOnce := func() {
		result, err := BatchMode(opts)
		if err != nil {
			a.printError(err)
			a.exit = exitProgramError
			return
		}
		a.exit = exitCode(result)
	}

	runOnce()
	if !rf.watch {
		return nil
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	watcher, err := newProgramWatcher(opts.Path, defaultWatchDebounce, logger)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.stderr, "watching %s, press Ctrl+C to stop\n", path)
	return watcher.Loop(ctx, func() {
		fmt.Fprintf(a.stderr, "--- %s changed, running again\n", path)
		runOnce()
	})
}

// checkPrograms loads each file and reports load errors and warnings
func (a *app) checkPrograms(flags globalFlags, paths []string) error {
	cfg, _, err := a.loadSettings(flags, Config{})
	if err != nil {
		return err
	}

	failed := 0
	for _, path := range paths {
		prog, err := loadProgramFile(a.fs, a.resolve(path), cfg.Engine.StrictLabels)
		if err != nil {
			fmt.Fprintf(a.stderr, "%s: ", path)
			a.printError(err)
			failed++
			continue
		}
		for _, w := range prog.Warnings {
			fmt.Fprintf(a.stderr, "%s: Warning: %s\n", path, w)
		}
		fmt.Fprintf(a.stdout, "%s: %d statements, %d labels, %d procedures\n",
			path, prog.Len(), len(prog.Labels), len(prog.Procedures))
	}
	if failed > 0 {
		a.exit = exitProgramError
	}
	return nil
}

// runREPL starts an interactive session; with a terminal on stdin the
// line editor gets history and completion
func (a *app) runREPL(flags globalFlags) error {
	cfg, logger, err := a.loadSettings(flags, Config{})
	if err != nil {
		return err
	}
	settings, err := cfg.EngineSettings()
	if err != nil {
		return err
	}

	interactive := a.isTerminal()
	r, err := repl.NewREPLWithConfig(repl.REPLConfig{
		Engine:         settings,
		EngineOptions:  []engine.Option{engine.WithSuggester(suggest.New())},
		Input:          input.NewReader(a.stdin, nil),
		Output:         a.stdout,
		FS:             a.fs,
		Logger:         logger,
		Verbose:        cfg.Engine.Verbose,
		EnableColors:   cfg.REPL.Colors && interactive,
		ShowWelcome:    cfg.REPL.ShowWelcome && interactive,
		StrictLabels:   cfg.Engine.StrictLabels,
		Prompt:         cfg.REPL.Prompt,
		ContinuePrompt: cfg.REPL.ContinuePrompt,
		HistorySize:    cfg.REPL.HistorySize,
		Version:        version,
	})
	if err != nil {
		return err
	}

	if interactive && a.newLineEditor != nil {
		lines, closeLines, err := a.newLineEditor(cfg, r.Completer())
		if err != nil {
			return err
		}
		defer closeLines()
		r.SetInput(lines)
	}
	return r.Run()
}

// writeConfig prints the effective configuration, or saves it to path
func (a *app) writeConfig(flags globalFlags, args []string) error {
	cfg, _, err := a.loadSettings(flags, Config{})
	if err != nil {
		return err
	}
	if len(args) == 0 {
		return writeConfigYAML(a.stdout, cfg)
	}
	path := a.resolve(expandHome(args[0]))
	if err := SaveConfig(a.fs, cfg, path); err != nil {
		return err
	}
	fmt.Fprintf(a.stdout, "configuration written to %s\n", args[0])
	return nil
}

// printError prints err the way runtime errors are printed
func (a *app) printError(err error) {
	if execErr, ok := errors.GetExecutionError(err); ok {
		msg := execErr.UserMessage()
		if execErr.Cause != nil {
			msg += ": " + execErr.Cause.Error()
		}
		fmt.Fprintln(a.stderr, msg)
		return
	}
	fmt.Fprintf(a.stderr, "Error: %v\n", err)
}

// readlineEditor builds the terminal line source for the REPL
func readlineEditor(cfg *Config, completer *repl.KeywordCompleter) (input.Provider, func(), error) {
	rl, err := input.NewReadline(input.ReadlineConfig{
		HistoryFile:  expandHome(cfg.REPL.HistoryFile),
		HistoryLimit: cfg.REPL.HistorySize,
		AutoComplete: completer,
	})
	if err != nil {
		return nil, nil, err
	}
	return rl, func() { rl.Close() }, nil
}

// stdinIsTerminal reports whether stdin is an interactive terminal
func stdinIsTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// absolutePath anchors relative paths at the working directory so the
// OS filesystem accepts paths outside it
func absolutePath(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return path
}
