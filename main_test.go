package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testApp struct {
	*app
	stdout *bytes.Buffer
	stderr *bytes.Buffer
}

// newTestApp builds an app over memfs with piped stdin
func newTestApp(t *testing.T, stdin string, files map[string]string) *testApp {
	t.Helper()
	t.Setenv("TEMPLECODE_CONFIG", "")

	fs := memfs.New()
	for name, content := range files {
		require.NoError(t, util.WriteFile(fs, name, []byte(content), 0o644))
	}
	stdout, stderr := &bytes.Buffer{}, &bytes.Buffer{}
	return &testApp{
		app: &app{
			fs:         fs,
			stdin:      strings.NewReader(stdin),
			stdout:     stdout,
			stderr:     stderr,
			isTerminal: func() bool { return false },
			resolve:    func(p string) string { return p },
		},
		stdout: stdout,
		stderr: stderr,
	}
}

func (ta *testApp) files() billy.Filesystem {
	return ta.fs
}

func TestCLI_Version(t *testing.T) {
	ta := newTestApp(t, "", nil)
	assert.Equal(t, exitOK, ta.execute([]string{"version"}))
	assert.Equal(t, "templecode "+version+"\n", ta.stdout.String())
}

func TestCLI_RunFileArgument(t *testing.T) {
	ta := newTestApp(t, "", map[string]string{"hello.tc": "T:Hello\n10 PRINT 6 * 7\n"})

	assert.Equal(t, exitOK, ta.execute([]string{"hello.tc"}))
	assert.Equal(t, "Hello\n42\n", ta.stdout.String())
	assert.Empty(t, ta.stderr.String())
}

func TestCLI_RunWithInputScript(t *testing.T) {
	ta := newTestApp(t, "", map[string]string{
		"ask.tc":      "A:NAME\nT:Hi *NAME*\n",
		"answers.txt": "Ada\n",
	})

	assert.Equal(t, exitOK, ta.execute([]string{"run", "--input-script", "answers.txt", "ask.tc"}))
	assert.Equal(t, "? Ada\nHi Ada\n", ta.stdout.String())
}

func TestCLI_RunReadsAnswersFromStdin(t *testing.T) {
	ta := newTestApp(t, "5\n", map[string]string{"double.tc": "INPUT N\nPRINT N * 2\n"})

	assert.Equal(t, exitOK, ta.execute([]string{"run", "double.tc"}))
	assert.Equal(t, "? 5\n10\n", ta.stdout.String())
}

func TestCLI_ExitCodes(t *testing.T) {
	files := map[string]string{
		"loop.tc":   "10 GOTO 10\n",
		"typo.tc":   "FD 10 FORWRD 10\n",
		"stop.tc":   "T:done\nE:\n",
		"nobody.tc": "TO BOX\n",
	}
	tests := []struct {
		name string
		args []string
		want int
	}{
		{"normal", []string{"run", "stop.tc"}, exitOK},
		{"runtime error", []string{"run", "typo.tc"}, exitProgramError},
		{"iteration limit", []string{"--max-iterations", "10", "run", "loop.tc"}, exitResourceLimit},
		{"load error", []string{"run", "nobody.tc"}, exitProgramError},
		{"missing file", []string{"run", "absent.tc"}, exitProgramError},
		{"bad timeout flag", []string{"--timeout", "soon", "run", "stop.tc"}, exitProgramError},
		{"too many args", []string{"a.tc", "b.tc"}, exitProgramError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ta := newTestApp(t, "", files)
			assert.Equal(t, tt.want, ta.execute(tt.args))
		})
	}
}

func TestCLI_LoadErrorIsPrintedWithItsLine(t *testing.T) {
	ta := newTestApp(t, "", map[string]string{"bad.tc": "T:ok\nREPEAT 2 [ FD 1\n"})

	assert.Equal(t, exitProgramError, ta.execute([]string{"run", "bad.tc"}))
	assert.Empty(t, ta.stdout.String())
	assert.True(t, strings.HasPrefix(ta.stderr.String(), "Error at line 2: "), ta.stderr.String())
}

func TestCLI_Check(t *testing.T) {
	ta := newTestApp(t, "", map[string]string{
		"good.tc": "*START\nT:hi\nJ:START\n",
		"dup.tc":  "*A\n*A\nT:x\n",
		"bad.tc":  "TO BOX\n",
	})

	assert.Equal(t, exitProgramError, ta.execute([]string{"check", "good.tc", "dup.tc", "bad.tc"}))

	out := ta.stdout.String()
	assert.Regexp(t, `good\.tc: \d+ statements, 1 labels, 0 procedures\n`, out)
	assert.Contains(t, out, "dup.tc: ")
	assert.NotContains(t, out, "bad.tc")

	errOut := ta.stderr.String()
	assert.Contains(t, errOut, "dup.tc: Warning: ")
	assert.Contains(t, errOut, "bad.tc: Error at line")
}

func TestCLI_CheckStrictLabels(t *testing.T) {
	ta := newTestApp(t, "", map[string]string{"dup.tc": "*A\n*A\n"})
	assert.Equal(t, exitProgramError, ta.execute([]string{"check", "--strict-labels", "dup.tc"}))
	assert.Contains(t, ta.stderr.String(), "label A is already defined")
}

func TestCLI_Export(t *testing.T) {
	ta := newTestApp(t, "", map[string]string{"sq.tc": "REPEAT 4 [ FD 10 RT 90 ]\n"})

	assert.Equal(t, exitOK, ta.execute([]string{"run", "-o", "sq.cbor", "sq.tc"}))
	_, err := ta.files().Stat("sq.cbor")
	assert.NoError(t, err)
}

func TestCLI_ConfigFile(t *testing.T) {
	t.Run("limits come from the file", func(t *testing.T) {
		ta := newTestApp(t, "", map[string]string{
			"tc.yaml": "engine:\n  max_iterations: 7\n",
			"loop.tc": "10 GOTO 10\n",
		})
		assert.Equal(t, exitResourceLimit, ta.execute([]string{"--config", "tc.yaml", "loop.tc"}))
		assert.Contains(t, ta.stdout.String(), "iteration limit of 7 exceeded")
	})

	t.Run("flags win over the file", func(t *testing.T) {
		ta := newTestApp(t, "", map[string]string{
			"tc.yaml": "engine:\n  max_iterations: 7\n",
			"loop.tc": "10 GOTO 10\n",
		})
		assert.Equal(t, exitResourceLimit, ta.execute([]string{"-c", "tc.yaml", "--max-iterations", "3", "loop.tc"}))
		assert.Contains(t, ta.stdout.String(), "iteration limit of 3 exceeded")
	})

	t.Run("environment variable", func(t *testing.T) {
		ta := newTestApp(t, "", map[string]string{"tc.json": `{"engine": {"max_iterations": 4}}`})
		t.Setenv("TEMPLECODE_CONFIG", "tc.json")
		assert.Equal(t, exitOK, ta.execute([]string{"config"}))
		assert.Contains(t, ta.stdout.String(), "max_iterations: 4\n")
	})

	t.Run("explicit file must exist", func(t *testing.T) {
		ta := newTestApp(t, "", nil)
		assert.Equal(t, exitProgramError, ta.execute([]string{"--config", "nope.yaml", "config"}))
		assert.Contains(t, ta.stderr.String(), "config file nope.yaml")
	})

	t.Run("invalid file", func(t *testing.T) {
		ta := newTestApp(t, "", map[string]string{
			"tc.yaml": "engine:\n  iterations: 7\n",
			"p.tc":    "T:x\n",
		})
		assert.Equal(t, exitProgramError, ta.execute([]string{"--config", "tc.yaml", "p.tc"}))
		assert.Contains(t, ta.stderr.String(), "Error: tc.yaml does not match the config schema")
		assert.Contains(t, ta.stderr.String(), "iterations")
	})
}

func TestCLI_ConfigCommandWritesFile(t *testing.T) {
	ta := newTestApp(t, "", nil)

	assert.Equal(t, exitOK, ta.execute([]string{"--seed", "3", "config", "out/tc.json"}))
	assert.Equal(t, "configuration written to out/tc.json\n", ta.stdout.String())

	cfg, err := LoadConfig(ta.files(), "out/tc.json")
	require.NoError(t, err)
	assert.Equal(t, int64(3), cfg.Engine.Seed)
}

func TestCLI_REPLFromPipe(t *testing.T) {
	ta := newTestApp(t, "LET A = 6\nPRINT A * 7\n:quit\nPRINT 0\n", nil)

	assert.Equal(t, exitOK, ta.execute(nil))
	assert.Equal(t, "42\n", ta.stdout.String())
}

func TestCLI_REPLCommand(t *testing.T) {
	ta := newTestApp(t, "FD 10\n:turtle\n", nil)

	assert.Equal(t, exitOK, ta.execute([]string{"repl"}))
	assert.Contains(t, ta.stdout.String(), "lines     1 (0 clears)")
}
