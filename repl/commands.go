package repl

import (
	"fmt"
	"strings"

	"github.com/go-git/go-billy/v5/util"

	"templecode/errors"
	"templecode/serialization"
)

// CommandHandler handles one session command; args exclude the name
type CommandHandler func(r *REPL, args []string) error

type builtinCommand struct {
	names   []string
	usage   string
	help    string
	handler CommandHandler
}

// builtinCommands is the session command table, in help order
var builtinCommands []builtinCommand

// commandIndex maps every name and alias to its entry
var commandIndex map[string]*builtinCommand

func init() {
	builtinCommands = []builtinCommand{
		{[]string{"help", "h"}, ":help", "show this help", cmdHelp},
		{[]string{"quit", "q", "exit"}, ":quit", "leave the session", cmdQuit},
		{[]string{"list", "l"}, ":list", "show the stored program", cmdList},
		{[]string{"run", "r"}, ":run [file]", "run the stored program or a file", cmdRun},
		{[]string{"new"}, ":new", "forget the stored program", cmdNew},
		{[]string{"vars"}, ":vars", "show variables", cmdVars},
		{[]string{"turtle", "t"}, ":turtle", "show the turtle", cmdTurtle},
		{[]string{"reset"}, ":reset", "clear variables, procedures and the drawing", cmdReset},
		{[]string{"save"}, ":save <file> [fmt]", "export the drawing (" + strings.Join(serialization.SupportedFormats(), ", ") + ")", cmdSave},
		{[]string{"load"}, ":load <file> [fmt]", "restore an exported drawing", cmdLoad},
		{[]string{"buffer", "b"}, ":buffer", "show pending continuation lines", cmdBuffer},
		{[]string{"rb"}, ":rb", "drop pending continuation lines", cmdResetBuffer},
		{[]string{"history", "hist"}, ":history", "show session history", cmdHistory},
		{[]string{"clear", "c"}, ":clear", "clear the screen", cmdClear},
		{[]string{"version", "v"}, ":version", "show the version", cmdVersion},
	}
	commandIndex = make(map[string]*builtinCommand)
	for i := range builtinCommands {
		for _, name := range builtinCommands[i].names {
			commandIndex[name] = &builtinCommands[i]
		}
	}
}

// CommandNames returns every command spelling with its leading colon
func CommandNames() []string {
	names := make([]string, 0, len(commandIndex))
	for _, c := range builtinCommands {
		for _, name := range c.names {
			names = append(names, ":"+name)
		}
	}
	return names
}

func (r *REPL) handleBuiltInCommand(line string) error {
	parts := strings.Fields(strings.TrimSpace(line[1:]))
	if len(parts) == 0 {
		return errors.NewUserError("INVALID_COMMAND", "missing command name after ':'")
	}
	command := strings.ToLower(parts[0])
	entry, ok := commandIndex[command]
	if !ok {
		msg := fmt.Sprintf("unknown command: :%s", command)
		if hint := r.completer.closestCommand(":" + command); hint != "" {
			msg += fmt.Sprintf(" (did you mean %s?)", hint)
		}
		return errors.NewUserError("UNKNOWN_COMMAND", msg)
	}
	return entry.handler(r, parts[1:])
}

func usageError(usage string) error {
	return errors.NewUserError("INVALID_COMMAND", "usage: "+usage)
}

func cmdHelp(r *REPL, _ []string) error {
	r.displayManager.ShowHelp()
	return nil
}

func cmdQuit(r *REPL, _ []string) error {
	r.running = false
	return nil
}

func cmdList(r *REPL, _ []string) error {
	r.displayManager.ShowListing(r.listing)
	return nil
}

func cmdRun(r *REPL, args []string) error {
	switch len(args) {
	case 0:
		if r.listing.Len() == 0 {
			return errors.NewUserError("EMPTY_PROGRAM", "no program lines stored")
		}
		r.Execute(r.listing.Source())
	case 1:
		source, err := r.readProgram(args[0])
		if err != nil {
			return err
		}
		r.Execute(source)
	default:
		return usageError(":run [file]")
	}
	return nil
}

func cmdNew(r *REPL, _ []string) error {
	r.listing.Clear()
	return nil
}

func cmdVars(r *REPL, _ []string) error {
	r.displayManager.ShowVariables(r.engine.Variables())
	return nil
}

func cmdTurtle(r *REPL, _ []string) error {
	r.displayManager.ShowTurtle(r.turtle.Snapshot())
	return nil
}

func cmdReset(r *REPL, _ []string) error {
	r.engine.ResetVariables()
	r.turtle.Reset()
	r.procedures = make(map[string]string)
	r.displayManager.ShowSuccess("session reset")
	return nil
}

func cmdSave(r *REPL, args []string) error {
	if len(args) < 1 || len(args) > 2 {
		return usageError(":save <file> [format]")
	}
	format := ""
	if len(args) == 2 {
		format = args[1]
	}
	serializer, err := r.formats.ResolveFormat(format, args[0])
	if err != nil {
		return err
	}
	data, err := serializer.Serialize(r.turtle.Snapshot())
	if err != nil {
		return err
	}
	if err := util.WriteFile(r.fs, args[0], data, 0o644); err != nil {
		return fmt.Errorf("cannot write %s: %w", args[0], err)
	}
	r.displayManager.ShowSuccess(fmt.Sprintf("saved %d lines to %s as %s", len(r.turtle.Lines), args[0], serializer.GetName()))
	return nil
}

func cmdLoad(r *REPL, args []string) error {
	if len(args) < 1 || len(args) > 2 {
		return usageError(":load <file> [format]")
	}
	format := ""
	if len(args) == 2 {
		format = args[1]
	}
	serializer, err := r.formats.ResolveFormat(format, args[0])
	if err != nil {
		return err
	}
	data, err := util.ReadFile(r.fs, args[0])
	if err != nil {
		return fmt.Errorf("cannot read %s: %w", args[0], err)
	}
	snap, err := serializer.Deserialize(data)
	if err != nil {
		return err
	}
	r.turtle.Restore(snap)
	r.displayManager.ShowSuccess(fmt.Sprintf("loaded %d lines from %s", len(snap.Lines), args[0]))
	return nil
}

func cmdBuffer(r *REPL, _ []string) error {
	r.displayManager.ShowBufferContent(r.buffer)
	return nil
}

func cmdResetBuffer(r *REPL, _ []string) error {
	r.buffer.Clear()
	r.displayManager.ShowInfo("buffer cleared")
	return nil
}

func cmdHistory(r *REPL, _ []string) error {
	r.displayManager.ShowHistory(r.history)
	return nil
}

func cmdClear(r *REPL, _ []string) error {
	r.displayManager.ClearScreen()
	return nil
}

func cmdVersion(r *REPL, _ []string) error {
	r.displayManager.ShowInfo("TempleCode " + r.version)
	return nil
}
