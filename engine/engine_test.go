package engine

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"templecode/dialect"
	"templecode/errors"
	"templecode/program"
	"templecode/shared"
	"templecode/turtle"
)

func TestExecute_StraightLineRunsOnceInOrder(t *testing.T) {
	res, _ := runSource(t, "T:a\n10 PRINT \"b\"\nFD 0\nT:c", nil)

	assert.Equal(t, StatusHaltedNormal, res.Status)
	assert.Equal(t, []string{"a", "b", "c"}, res.Output)
	assert.Equal(t, 4, res.Iterations)
	assert.Nil(t, res.Err)
}

func TestExecute_SelfJumpHaltsAtIterationCap(t *testing.T) {
	t.Run("default cap", func(t *testing.T) {
		res, _ := runSource(t, "10 GOTO 10", nil)

		assert.Equal(t, StatusHaltedResourceLimit, res.Status)
		assert.Equal(t, DefaultMaxIterations, res.Iterations)
		require.Error(t, res.Err)
		assert.True(t, errors.IsType(res.Err, errors.ErrorTypeResourceLimit))
	})

	t.Run("configured cap", func(t *testing.T) {
		res, _ := runSourceWithConfig(t, Config{MaxIterations: 50}, "L:TOP\nJ:TOP", nil)

		assert.Equal(t, StatusHaltedResourceLimit, res.Status)
		assert.Equal(t, 50, res.Iterations)
		assert.Equal(t, []string{"Error at line 1: iteration limit of 50 exceeded"}, res.Output)
	})
}

func TestExecute_Timeout(t *testing.T) {
	clock := &fakeClock{now: time.Unix(0, 0), step: time.Second}
	config := Config{Timeout: 5 * time.Second, TimeCheckInterval: 1}

	res, _ := runSourceWithConfig(t, config, "10 GOTO 10", nil, WithClock(clock.Now))

	assert.Equal(t, StatusHaltedResourceLimit, res.Status)
	execErr, ok := errors.GetExecutionError(res.Err)
	require.True(t, ok)
	assert.Equal(t, "TIMEOUT", execErr.Code)
	assert.Less(t, res.Iterations, 10)
}

func TestExecute_Interpolation(t *testing.T) {
	tests := []struct {
		name   string
		source string
		want   string
	}{
		{"number", "C:X = 5\nT:*X*", "5"},
		{"fraction", "C:X = 2.5\nT:x=*X*", "x=2.5"},
		{"text", "C:X$ = \"hi\"\nT:*X$*", "hi"},
		{"unknown", "T:[*NOPE*]", "[]"},
		{"lower case name", "C:N = 3\nT:*n* items", "3 items"},
		{"lone star", "C:A = 2\nT:2*3 = 6, *A*", "2*3 = 6, 2"},
		{"adjacent", "C:A = 1\nC:B = 2\nT:*A**B*", "12"},
		{"colon form is not a reference", "T:*:X*", "*:X*"},
		{"plain text", "X = 5\nValue is *X*", "Value is 5"},
		{"print literal", "X = 5\nPRINT \"value *X*\"", "value 5"},
		{"print literal joined", "N$ = \"Ada\"\nPRINT \"hi *N$*, \" + N$", "hi Ada, Ada"},
		{"print unknown", "PRINT \"[*NOPE*]\"", "[]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, _ := runSource(t, tt.source, nil)
			require.Len(t, res.Output, 1)
			assert.Equal(t, tt.want, res.Output[0])
		})
	}
}

func TestExecute_DivisionByZeroIsRecoverable(t *testing.T) {
	res, _ := runSource(t, "PRINT 10/0\nT:after", nil)

	assert.Equal(t, StatusHaltedNormal, res.Status)
	assert.Equal(t, []string{"Error at line 1: division by zero", "after"}, res.Output)
	for _, line := range res.Output {
		assert.NotContains(t, line, "NaN")
		assert.NotContains(t, line, "Inf")
	}
	require.Len(t, res.Errors, 1)
	assert.Equal(t, "DIVISION_BY_ZERO", res.Errors[0].Code)
	assert.Equal(t, 1, res.Errors[0].Line)
}

func TestExecute_ErrorLineUsesLineNumber(t *testing.T) {
	res, _ := runSource(t, "10 PRINT 1\n20 LET X = (1\n30 PRINT 3", nil)

	require.Len(t, res.Output, 3)
	assert.True(t, strings.HasPrefix(res.Output[1], "Error at line 20: "), res.Output[1])
	assert.Equal(t, "3", res.Output[2])
}

func TestExecute_Suggestions(t *testing.T) {
	suggester := suggesterFunc(func(word string, candidates []string) string {
		for _, c := range candidates {
			if c == "FORWARD" && word == "FORWRD" {
				return c
			}
			if c == "LOOP" && word == "LOPP" {
				return c
			}
		}
		return ""
	})

	t.Run("unknown word in a turtle line", func(t *testing.T) {
		res, tu := runSource(t, "FD 10 FORWRD 10", nil, WithSuggester(suggester))
		assert.Equal(t, []string{"Error at line 1: unknown command FORWRD (did you mean FORWARD?)"}, res.Output)
		assert.Len(t, tu.Lines, 1)
	})

	t.Run("plain text is printed without a hint", func(t *testing.T) {
		res, _ := runSource(t, "FORWRD is not a command", nil, WithSuggester(suggester))
		assert.Equal(t, []string{"FORWRD is not a command"}, res.Output)
	})

	t.Run("unknown label continues", func(t *testing.T) {
		res, _ := runSource(t, "J:LOPP\nT:next\nL:LOOP", nil, WithSuggester(suggester))
		assert.Equal(t, StatusHaltedNormal, res.Status)
		assert.Equal(t, []string{"Error at line 1: unknown label LOPP (did you mean LOOP?)", "next"}, res.Output)
	})

	t.Run("no suggester", func(t *testing.T) {
		res, _ := runSource(t, "GOTO 99\nT:next", nil)
		assert.Equal(t, []string{"Error at line 1: line 99 does not exist", "next"}, res.Output)
	})
}

func TestExecute_InputSuspendsAndResumes(t *testing.T) {
	eng := New(Config{})
	input := newScriptedInput("41")
	var during Status
	input.onRead = func() { during = eng.Status() }

	res := eng.Execute(mustLoad(t, "INPUT \"Age\"; A\nPRINT A + 1"), turtle.New(), input, nil)

	assert.Equal(t, StatusWaitingForInput, during)
	assert.Equal(t, StatusHaltedNormal, eng.Status())
	assert.Equal(t, []string{"Age "}, input.prompts)
	assert.Equal(t, []string{"42"}, res.Output)
}

func TestExecute_InputProviderFailureHalts(t *testing.T) {
	res, _ := runSource(t, "T:before\nA:NAME\nT:after", newScriptedInput())

	assert.Equal(t, StatusHaltedError, res.Status)
	require.Error(t, res.Err)
	assert.Equal(t, "before", res.Output[0])
	assert.NotContains(t, res.Output, "after")
}

func TestExecute_MissingInputProviderHalts(t *testing.T) {
	res, _ := runSource(t, "INPUT X", nil)
	assert.Equal(t, StatusHaltedError, res.Status)
}

func TestExecute_SinkReceivesLines(t *testing.T) {
	var lines []string
	sink := SinkFunc(func(line string) { lines = append(lines, line) })

	res := New(Config{}).Execute(mustLoad(t, "T:one\nT:two"), turtle.New(), nil, sink)

	assert.Equal(t, []string{"one", "two"}, lines)
	assert.Empty(t, res.Output)
}

func TestExecute_PanicBecomesHaltedError(t *testing.T) {
	eng := New(Config{})
	eng.handlers[dialect.TagText] = func(r *run, stmt *program.Statement) ExecutionResult {
		panic("boom")
	}

	var res Result
	require.NotPanics(t, func() {
		res = eng.Execute(mustLoad(t, "10 PRINT 1\n20 T:x\n30 PRINT 3"), turtle.New(), nil, nil)
	})

	assert.Equal(t, StatusHaltedError, res.Status)
	assert.Equal(t, []string{"1", "Error at line 20: internal error: boom"}, res.Output)
}

func TestExecute_EveryTagHasAHandler(t *testing.T) {
	table := newHandlerTable()
	for tag := dialect.Tag(0); tag < dialect.NumTags; tag++ {
		assert.NotNil(t, table[tag], "no handler for %s", tag)
	}
}

func TestExecute_TextAndNumberVariablesAreDisjoint(t *testing.T) {
	res, _ := runSource(t, "C:X = 1\nC:X$ = \"one\"\nT:*X* *X$*", nil)

	assert.Equal(t, []string{"1 one"}, res.Output)
	assert.Equal(t, shared.Number(1), res.Variables["X"])
	assert.Equal(t, shared.Text("one"), res.Variables["X$"])
}

func TestEngine_VariablesPersistOnlyWhenConfigured(t *testing.T) {
	prog := mustLoad(t, "C:N = N + 1")

	fresh := New(Config{})
	fresh.Execute(prog, nil, nil, nil)
	fresh.Execute(prog, nil, nil, nil)
	assert.Equal(t, shared.Number(1), fresh.Variables()["N"])

	kept := New(Config{PreserveVariables: true})
	kept.Execute(prog, nil, nil, nil)
	kept.Execute(prog, nil, nil, nil)
	assert.Equal(t, shared.Number(2), kept.Variables()["N"])

	snapshot := kept.Variables()
	snapshot["N"] = shared.Number(99)
	assert.Equal(t, shared.Number(2), kept.Variables()["N"])

	kept.ResetVariables()
	assert.Empty(t, kept.Variables())
}

func TestExecute_TurtlePersistsAcrossRuns(t *testing.T) {
	eng := New(Config{})
	tu := turtle.New()

	eng.Execute(mustLoad(t, "FD 10"), tu, nil, nil)
	eng.Execute(mustLoad(t, "FD 10"), tu, nil, nil)

	assert.InDelta(t, 20, tu.Y, 1e-9)
	assert.Len(t, tu.Lines, 2)
}

func TestConfig_Defaults(t *testing.T) {
	cfg := New(Config{}).Config()
	assert.Equal(t, DefaultMaxIterations, cfg.MaxIterations)
	assert.Equal(t, DefaultTimeout, cfg.Timeout)
	assert.Equal(t, DefaultTimeCheckInterval, cfg.TimeCheckInterval)
	assert.Equal(t, DefaultPrintZoneWidth, cfg.PrintZoneWidth)

	cfg = New(Config{MaxIterations: 7, Timeout: -1}).Config()
	assert.Equal(t, 7, cfg.MaxIterations)
	assert.Equal(t, time.Duration(-1), cfg.Timeout)
}
