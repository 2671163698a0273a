package input

import (
	"io"

	"github.com/chzyer/readline"
)

// lineEditor is the part of *readline.Instance the provider uses
type lineEditor interface {
	SetPrompt(prompt string)
	Readline() (string, error)
	Close() error
}

// ReadlineConfig configures the interactive provider
type ReadlineConfig struct {
	HistoryFile  string
	HistoryLimit int
	Stdin        io.ReadCloser
	Stdout       io.Writer
	// AutoComplete is consulted on Tab; nil disables completion
	AutoComplete readline.AutoCompleter
}

// Readline answers prompts from an interactive terminal with line
// editing and history
type Readline struct {
	editor lineEditor
}

// NewReadline opens a readline instance on the terminal
func NewReadline(config ReadlineConfig) (*Readline, error) {
	rl, err := readline.NewEx(&readline.Config{
		HistoryFile:     config.HistoryFile,
		HistoryLimit:    config.HistoryLimit,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
		Stdin:           config.Stdin,
		Stdout:          config.Stdout,
		AutoComplete:    config.AutoComplete,
	})
	if err != nil {
		return nil, err
	}
	return &Readline{editor: rl}, nil
}

// ReadInput implements Provider. Ctrl-C maps to ErrInterrupted and
// Ctrl-D to io.EOF.
func (r *Readline) ReadInput(prompt string) (string, error) {
	r.editor.SetPrompt(prompt)
	line, err := r.editor.Readline()
	switch {
	case err == readline.ErrInterrupt:
		return "", ErrInterrupted
	case err != nil:
		return "", err
	}
	return line, nil
}

// Close releases the terminal
func (r *Readline) Close() error {
	return r.editor.Close()
}
