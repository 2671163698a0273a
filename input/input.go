// Package input provides answer sources for A: and INPUT statements.
//
// Every provider implements engine.InputProvider: ReadInput shows the
// prompt (when it has somewhere to show it) and returns one answer line
// without its line terminator.
package input

import (
	"errors"
	"fmt"
	"io"
)

var (
	// ErrExhausted is returned when a scripted source has no answers left
	ErrExhausted = fmt.Errorf("no scripted answers left: %w", io.EOF)
	// ErrInterrupted is returned when the user cancels the prompt
	ErrInterrupted = errors.New("input interrupted")
)

// Provider is the answer source contract shared by this package
type Provider interface {
	ReadInput(prompt string) (string, error)
}

// Echoing writes each prompt and answer to w, so scripted runs leave a
// transcript that reads like an interactive session
type Echoing struct {
	source Provider
	w      io.Writer
}

// Echo wraps source so prompts and answers are copied to w
func Echo(source Provider, w io.Writer) *Echoing {
	return &Echoing{source: source, w: w}
}

// ReadInput implements Provider
func (e *Echoing) ReadInput(prompt string) (string, error) {
	answer, err := e.source.ReadInput(prompt)
	if err != nil {
		return "", err
	}
	fmt.Fprintf(e.w, "%s%s\n", prompt, answer)
	return answer, nil
}
