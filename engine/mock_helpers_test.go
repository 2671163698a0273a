package engine

import (
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"templecode/program"
	"templecode/turtle"
)

// scriptedInput answers prompts from a fixed list and records each prompt
type scriptedInput struct {
	answers []string
	prompts []string
	// onRead is called before answering, with the engine still suspended
	onRead func()
}

func newScriptedInput(answers ...string) *scriptedInput {
	return &scriptedInput{answers: answers}
}

func (s *scriptedInput) ReadInput(prompt string) (string, error) {
	s.prompts = append(s.prompts, prompt)
	if s.onRead != nil {
		s.onRead()
	}
	if len(s.answers) == 0 {
		return "", io.EOF
	}
	answer := s.answers[0]
	s.answers = s.answers[1:]
	return answer, nil
}

// suggesterFunc adapts a function to Suggester
type suggesterFunc func(word string, candidates []string) string

func (f suggesterFunc) Suggest(word string, candidates []string) string {
	return f(word, candidates)
}

// fakeClock advances by step on every reading
type fakeClock struct {
	now  time.Time
	step time.Duration
}

func (c *fakeClock) Now() time.Time {
	c.now = c.now.Add(c.step)
	return c.now
}

func mustLoad(t *testing.T, source string) *program.Program {
	t.Helper()
	prog, err := program.Load(source, program.Options{})
	require.NoError(t, err)
	return prog
}

// runSource loads and executes source on a fresh engine and turtle
func runSource(t *testing.T, source string, input InputProvider, opts ...Option) (Result, *turtle.State) {
	t.Helper()
	return runSourceWithConfig(t, Config{Seed: 1}, source, input, opts...)
}

func runSourceWithConfig(t *testing.T, config Config, source string, input InputProvider, opts ...Option) (Result, *turtle.State) {
	t.Helper()
	tu := turtle.New()
	res := New(config, opts...).Execute(mustLoad(t, source), tu, input, nil)
	return res, tu
}
