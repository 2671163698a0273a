package input

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/chzyer/readline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueue(t *testing.T) {
	q := NewQueue("a", "b")

	got, err := q.ReadInput("first? ")
	require.NoError(t, err)
	assert.Equal(t, "a", got)
	assert.Equal(t, 1, q.Remaining())

	got, err = q.ReadInput("second? ")
	require.NoError(t, err)
	assert.Equal(t, "b", got)

	_, err = q.ReadInput("third? ")
	assert.ErrorIs(t, err, ErrExhausted)
	assert.ErrorIs(t, err, io.EOF)
	assert.Equal(t, []string{"first? ", "second? ", "third? "}, q.Prompts())
}

func TestParseScript(t *testing.T) {
	tests := []struct {
		name string
		text string
		want int
	}{
		{"empty", "", 0},
		{"trailing newline", "one\ntwo\n", 2},
		{"crlf", "one\r\ntwo\r\n", 2},
		{"comments skipped", "# header\none\n#two\nthree", 2},
		{"blank answers kept", "one\n\nthree", 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseScript(tt.text).Remaining())
		})
	}

	q := ParseScript("Ada\r\n42\n")
	first, _ := q.ReadInput("")
	second, _ := q.ReadInput("")
	assert.Equal(t, "Ada", first)
	assert.Equal(t, "42", second)
}

func TestReader(t *testing.T) {
	var out bytes.Buffer
	r := NewReader(strings.NewReader("yes\r\nno"), &out)

	got, err := r.ReadInput("? ")
	require.NoError(t, err)
	assert.Equal(t, "yes", got)

	got, err = r.ReadInput("again? ")
	require.NoError(t, err)
	assert.Equal(t, "no", got)

	_, err = r.ReadInput("more? ")
	assert.ErrorIs(t, err, io.EOF)
	assert.Equal(t, "? again? more? ", out.String())
}

func TestEcho(t *testing.T) {
	var out bytes.Buffer
	p := Echo(NewQueue("blue"), &out)

	got, err := p.ReadInput("Color? ")
	require.NoError(t, err)
	assert.Equal(t, "blue", got)
	assert.Equal(t, "Color? blue\n", out.String())

	_, err = p.ReadInput("Again? ")
	assert.ErrorIs(t, err, ErrExhausted)
	assert.Equal(t, "Color? blue\n", out.String())
}

type fakeEditor struct {
	prompts []string
	lines   []string
	err     error
	closed  bool
}

func (f *fakeEditor) SetPrompt(prompt string) { f.prompts = append(f.prompts, prompt) }

func (f *fakeEditor) Readline() (string, error) {
	if len(f.lines) == 0 {
		return "", f.err
	}
	line := f.lines[0]
	f.lines = f.lines[1:]
	return line, nil
}

func (f *fakeEditor) Close() error {
	f.closed = true
	return nil
}

func TestReadline(t *testing.T) {
	t.Run("answers and prompts", func(t *testing.T) {
		editor := &fakeEditor{lines: []string{"Ada"}, err: io.EOF}
		r := &Readline{editor: editor}

		got, err := r.ReadInput("Name? ")
		require.NoError(t, err)
		assert.Equal(t, "Ada", got)
		assert.Equal(t, []string{"Name? "}, editor.prompts)

		_, err = r.ReadInput("Name? ")
		assert.ErrorIs(t, err, io.EOF)
		require.NoError(t, r.Close())
		assert.True(t, editor.closed)
	})

	t.Run("ctrl-c interrupts", func(t *testing.T) {
		r := &Readline{editor: &fakeEditor{err: readline.ErrInterrupt}}
		_, err := r.ReadInput("? ")
		assert.True(t, errors.Is(err, ErrInterrupted))
	})
}

func TestLuaScript_AnswerFunction(t *testing.T) {
	script, err := NewLuaScript(`
function answer(prompt, n)
  if n > 3 then return nil end
  if string.find(prompt, "Age") then return 40 + n end
  return "reply " .. n
end`)
	require.NoError(t, err)
	defer script.Close()

	got, err := script.ReadInput("Name? ")
	require.NoError(t, err)
	assert.Equal(t, "reply 1", got)

	got, err = script.ReadInput("Age? ")
	require.NoError(t, err)
	assert.Equal(t, "42", got)

	_, err = script.ReadInput("x")
	require.NoError(t, err)

	_, err = script.ReadInput("x")
	assert.ErrorIs(t, err, ErrExhausted)
}

func TestLuaScript_AnswerTable(t *testing.T) {
	script, err := NewLuaScript(`answers = {"yes", 7, "no"}`)
	require.NoError(t, err)
	defer script.Close()

	var got []string
	for {
		answer, err := script.ReadInput("? ")
		if err != nil {
			assert.ErrorIs(t, err, ErrExhausted)
			break
		}
		got = append(got, answer)
	}
	assert.Equal(t, []string{"yes", "7", "no"}, got)
}

func TestLuaScript_Errors(t *testing.T) {
	t.Run("syntax error", func(t *testing.T) {
		_, err := NewLuaScript("function answer(")
		assert.Error(t, err)
	})

	t.Run("no answer source", func(t *testing.T) {
		_, err := NewLuaScript("x = 1")
		assert.Error(t, err)
	})

	t.Run("sandbox has no os library", func(t *testing.T) {
		script, err := NewLuaScript(`function answer() return os.getenv("HOME") end`)
		require.NoError(t, err)
		defer script.Close()
		_, err = script.ReadInput("? ")
		assert.Error(t, err)
	})

	t.Run("runaway script times out", func(t *testing.T) {
		script, err := NewLuaScript(`function answer() while true do end end`)
		require.NoError(t, err)
		defer script.Close()
		script.SetTimeout(50 * time.Millisecond)
		_, err = script.ReadInput("? ")
		assert.Error(t, err)
	})

	t.Run("unsupported return type", func(t *testing.T) {
		script, err := NewLuaScript(`function answer() return {} end`)
		require.NoError(t, err)
		defer script.Close()
		_, err = script.ReadInput("? ")
		assert.Error(t, err)
	})
}
