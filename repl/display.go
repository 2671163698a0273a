package repl

import (
	"fmt"
	"io"
	"sort"

	"templecode/engine"
	"templecode/shared"
	"templecode/turtle"
)

// ANSI color codes keyed by message kind
var colors = map[string]string{
	"primary":      "\033[36m", // Cyan
	"continuation": "\033[90m", // Dark gray
	"reset":        "\033[0m",
	"success":      "\033[32m", // Green
	"error":        "\033[31m", // Red
	"warning":      "\033[33m", // Yellow
	"info":         "\033[34m", // Blue
}

// DisplayManager formats REPL messages onto the session writer
type DisplayManager struct {
	out       io.Writer
	useColors bool
	verbose   bool
}

// NewDisplayManager creates a new display manager
func NewDisplayManager(out io.Writer, useColors, verbose bool) *DisplayManager {
	return &DisplayManager{
		out:       out,
		useColors: useColors,
		verbose:   verbose,
	}
}

// GetPrompt returns the continuation prompt while the buffer is active
func (dm *DisplayManager) GetPrompt(buffer *MultiLineBuffer, primary, continuation string) string {
	if buffer.IsActive() {
		return dm.paint(continuation, "continuation")
	}
	return dm.paint(primary, "primary")
}

// paint wraps text in the color for kind when colors are enabled
func (dm *DisplayManager) paint(text, kind string) string {
	if !dm.useColors || text == "" {
		return text
	}
	color, ok := colors[kind]
	if !ok {
		color = colors["primary"]
	}
	return color + text + colors["reset"]
}

func (dm *DisplayManager) printf(format string, args ...interface{}) {
	fmt.Fprintf(dm.out, format, args...)
}

// ShowWelcome displays the banner
func (dm *DisplayManager) ShowWelcome(version string) {
	dm.printf("%s\n", dm.paint("TempleCode "+version+" - PILOT, BASIC and Logo in one program", "success"))
	dm.printf("Type %s for commands, %s to leave.\n", dm.paint(":help", "primary"), dm.paint(":quit", "primary"))
	dm.printf("Numbered lines are stored; anything else runs at once.\n\n")
}

// ShowHelp lists the session commands
func (dm *DisplayManager) ShowHelp() {
	dm.printf("%s\n", dm.paint("Commands:", "info"))
	for _, c := range builtinCommands {
		dm.printf("  %-18s %s\n", dm.paint(c.usage, "primary"), c.help)
	}
	dm.printf("\n%s\n", dm.paint("Editing:", "info"))
	dm.printf("  10 PRINT \"HI\"      store line 10 in the listing\n")
	dm.printf("  10                 delete line 10\n")
	dm.printf("  REPEAT 4 [ \\      end a line with \\ to continue it\n")
	dm.printf("  Ctrl+C             drop the pending continuation\n")
	dm.printf("  Ctrl+D             leave the session\n")
}

// ShowBufferContent displays the pending continuation lines
func (dm *DisplayManager) ShowBufferContent(buffer *MultiLineBuffer) {
	if buffer.IsEmpty() {
		dm.ShowInfo("buffer is empty")
		return
	}
	dm.ShowInfo(fmt.Sprintf("buffer holds %d lines:", buffer.GetLineCount()))
	for i, line := range buffer.GetLines() {
		dm.printf("%s %s\n", dm.paint(fmt.Sprintf("%3d:", i+1), "continuation"), line)
	}
}

// ShowListing prints the stored program in line number order
func (dm *DisplayManager) ShowListing(listing *Listing) {
	if listing.Len() == 0 {
		dm.ShowInfo("no program lines stored")
		return
	}
	for _, line := range listing.Lines() {
		dm.printf("%s\n", line)
	}
}

// ShowVariables prints every variable sorted by name
func (dm *DisplayManager) ShowVariables(vars map[string]shared.Value) {
	if len(vars) == 0 {
		dm.ShowInfo("no variables set")
		return
	}
	names := make([]string, 0, len(vars))
	for name := range vars {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		dm.printf("  %s = %s\n", dm.paint(name, "primary"), shared.FormatValueForDisplay(vars[name]))
	}
}

// ShowTurtle prints the turtle pose and drawing counters
func (dm *DisplayManager) ShowTurtle(snap turtle.Snapshot) {
	pen := "up"
	if snap.PenDown {
		pen = "down"
	}
	visible := "hidden"
	if snap.Visible {
		visible = "shown"
	}
	dm.printf("  position  %s, %s\n", shared.FormatNumber(snap.X), shared.FormatNumber(snap.Y))
	dm.printf("  heading   %s\n", shared.FormatNumber(snap.Heading))
	dm.printf("  pen       %s, %s, width %s\n", pen, snap.PenColor, shared.FormatNumber(snap.PenWidth))
	dm.printf("  turtle    %s on %s\n", visible, snap.Background)
	dm.printf("  lines     %d (%d clears)\n", len(snap.Lines), snap.Clears)
}

// ShowRunSummary reports how a run ended; quiet unless verbose or failed
func (dm *DisplayManager) ShowRunSummary(res engine.Result) {
	switch {
	case res.Status == engine.StatusHaltedResourceLimit:
		dm.ShowWarning(fmt.Sprintf("run stopped after %d steps", res.Iterations))
	case dm.verbose:
		dm.ShowInfo(fmt.Sprintf("%s after %d steps in %s", res.Status, res.Iterations, res.Duration))
	}
}

// ShowHistory displays the session history
func (dm *DisplayManager) ShowHistory(history []string) {
	if len(history) == 0 {
		dm.ShowInfo("history is empty")
		return
	}
	for i, cmd := range history {
		dm.printf("%s %s\n", dm.paint(fmt.Sprintf("%3d:", i+1), "continuation"), cmd)
	}
}

// ShowError displays an error message
func (dm *DisplayManager) ShowError(message string) {
	dm.printf("%s\n", dm.paint("Error: "+message, "error"))
}

// ShowWarning displays a warning message
func (dm *DisplayManager) ShowWarning(message string) {
	dm.printf("%s\n", dm.paint("Warning: "+message, "warning"))
}

// ShowInfo displays an info message
func (dm *DisplayManager) ShowInfo(message string) {
	dm.printf("%s\n", dm.paint(message, "info"))
}

// ShowSuccess displays a success message
func (dm *DisplayManager) ShowSuccess(message string) {
	dm.printf("%s\n", dm.paint("✓ "+message, "success"))
}

// ClearScreen clears the terminal screen
func (dm *DisplayManager) ClearScreen() {
	dm.printf("\033[H\033[2J")
}

// SetColors enables or disables color output
func (dm *DisplayManager) SetColors(enabled bool) {
	dm.useColors = enabled
}
