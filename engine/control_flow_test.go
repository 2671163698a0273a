package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"templecode/shared"
	"templecode/turtle"
)

func TestForNext(t *testing.T) {
	t.Run("ascending runs the body four times", func(t *testing.T) {
		res, _ := runSource(t, "10 FOR I = 1 TO 4 STEP 1\n20 PRINT I\n30 NEXT I", nil)
		assert.Equal(t, []string{"1", "2", "3", "4"}, res.Output)
		assert.Equal(t, shared.Number(5), res.Variables["I"])
	})

	t.Run("descending runs the body four times", func(t *testing.T) {
		res, _ := runSource(t, "10 FOR I = 4 TO 1 STEP -1\n20 PRINT I\n30 NEXT I", nil)
		assert.Equal(t, []string{"4", "3", "2", "1"}, res.Output)
	})

	t.Run("fractional step", func(t *testing.T) {
		res, _ := runSource(t, "FOR X = 0 TO 1 STEP 0.5\nPRINT X\nNEXT", nil)
		assert.Equal(t, []string{"0", "0.5", "1"}, res.Output)
	})

	t.Run("empty range skips the body", func(t *testing.T) {
		res, _ := runSource(t, "FOR I = 5 TO 1\nPRINT I\nNEXT I\nPRINT \"done\"", nil)
		assert.Equal(t, []string{"done"}, res.Output)
	})

	t.Run("empty range skips nested loops", func(t *testing.T) {
		source := "FOR I = 1 TO 0\nFOR J = 1 TO 2\nPRINT J\nNEXT J\nNEXT I\nPRINT \"done\""
		res, _ := runSource(t, source, nil)
		assert.Equal(t, []string{"done"}, res.Output)
	})

	t.Run("nested loops", func(t *testing.T) {
		source := "FOR I = 1 TO 2\nFOR J = 1 TO 2\nPRINT I * 10 + J\nNEXT J\nNEXT I"
		res, _ := runSource(t, source, nil)
		assert.Equal(t, []string{"11", "12", "21", "22"}, res.Output)
	})

	t.Run("zero step is reported and skipped", func(t *testing.T) {
		res, _ := runSource(t, "FOR I = 1 TO 3 STEP 0\nPRINT I\nNEXT I\nT:after", nil)
		assert.Equal(t, StatusHaltedNormal, res.Status)
		assert.Equal(t, []string{"Error at line 1: FOR I has a STEP of 0", "after"}, res.Output)
	})

	t.Run("NEXT without FOR is recoverable", func(t *testing.T) {
		res, _ := runSource(t, "NEXT I\nT:after", nil)
		assert.Equal(t, []string{"Error at line 1: NEXT I without FOR", "after"}, res.Output)
	})
}

func TestGosubReturn(t *testing.T) {
	t.Run("returns after the call", func(t *testing.T) {
		source := "10 GOSUB 100\n20 PRINT \"back\"\n30 END\n100 PRINT \"sub\"\n110 RETURN"
		res, _ := runSource(t, source, nil)
		assert.Equal(t, []string{"sub", "back"}, res.Output)
		assert.Equal(t, StatusHaltedNormal, res.Status)
	})

	t.Run("RETURN on an empty stack is fatal", func(t *testing.T) {
		res, _ := runSource(t, "10 RETURN\n20 PRINT \"unreached\"", nil)
		assert.Equal(t, StatusHaltedError, res.Status)
		assert.Equal(t, []string{"Error at line 10: RETURN without GOSUB"}, res.Output)
		require.Error(t, res.Err)
	})

	t.Run("loops inside a subroutine are discarded on RETURN", func(t *testing.T) {
		source := "10 GOSUB 100\n20 PRINT \"ok\"\n30 END\n100 FOR I = 1 TO 5\n110 RETURN"
		res, _ := runSource(t, source, nil)
		assert.Equal(t, []string{"ok"}, res.Output)
	})

	t.Run("unbounded recursion hits the call depth limit", func(t *testing.T) {
		res, _ := runSourceWithConfig(t, Config{MaxCallDepth: 10}, "10 GOSUB 10", nil)
		assert.Equal(t, StatusHaltedError, res.Status)
		assert.Equal(t, []string{"Error at line 10: call depth limit of 10 exceeded"}, res.Output)
	})
}

func TestIfThenElse(t *testing.T) {
	tests := []struct {
		name   string
		source string
		want   []string
	}{
		{"then statement", "X = 5\nIF X > 3 THEN PRINT \"big\"", []string{"big"}},
		{"false without else", "X = 1\nIF X > 3 THEN PRINT \"big\"\nPRINT \"end\"", []string{"end"}},
		{"else branch", "X = 1\nIF X > 3 THEN PRINT \"big\" ELSE PRINT \"small\"", []string{"small"}},
		{"then line number", "10 IF 1 THEN 30\n20 PRINT \"skipped\"\n30 PRINT \"landed\"", []string{"landed"}},
		{"else line number", "10 IF 0 THEN 20 ELSE 30\n20 PRINT \"then\"\n30 PRINT \"else\"", []string{"else"}},
		{"text comparison", "A$ = \"YES\"\nIF A$ = \"YES\" THEN PRINT \"agreed\"", []string{"agreed"}},
		{"text inequality", "A$ = \"NO\"\nIF A$ <> \"YES\" THEN PRINT \"declined\"", []string{"declined"}},
		{"keyword inside quotes", "IF 1 THEN PRINT \"THEN ELSE\"", []string{"THEN ELSE"}},
		{"turtle branch", "IF 1 THEN FD 10\nPRINT 1", []string{"1"}},
		{"pilot branch", "IF 1 THEN T:pilot", []string{"pilot"}},
		{"missing THEN", "IF 1 PRINT 2", []string{"Error at line 1: IF requires THEN"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, _ := runSource(t, tt.source, nil)
			assert.Equal(t, tt.want, res.Output)
		})
	}
}

func TestIf_InlineTurtleMoves(t *testing.T) {
	_, tu := runSource(t, "IF 2 > 1 THEN FORWARD 25", nil)
	assert.InDelta(t, 25, tu.Y, 1e-9)
}

func TestRepeat(t *testing.T) {
	t.Run("square closes on the origin", func(t *testing.T) {
		_, tu := runSource(t, "REPEAT 4 [ FORWARD 100 RIGHT 90 ]", nil)

		assert.InDelta(t, 0, tu.X, 1e-9)
		assert.InDelta(t, 0, tu.Y, 1e-9)
		assert.InDelta(t, 0, tu.Heading, 1e-9)
		require.Len(t, tu.Lines, 4)
		assert.InDelta(t, 0, tu.Lines[3].X2, 1e-9)
		assert.InDelta(t, 0, tu.Lines[3].Y2, 1e-9)
	})

	t.Run("nested blocks", func(t *testing.T) {
		_, tu := runSource(t, "REPEAT 2 [ REPEAT 3 [ FD 1 ] RT 180 ]", nil)
		assert.Len(t, tu.Lines, 6)
	})

	t.Run("REPCOUNT tracks the innermost block", func(t *testing.T) {
		res, _ := runSource(t, "REPEAT 2 [ REPEAT 2 [ PRINT REPCOUNT ] PRINT REPCOUNT * 10 ]", nil)
		assert.Equal(t, []string{"1", "2", "10", "1", "2", "20"}, res.Output)
	})

	t.Run("zero count skips the block", func(t *testing.T) {
		res, tu := runSource(t, "REPEAT 0 [ FD 10 ]\nPRINT \"after\"", nil)
		assert.Empty(t, tu.Lines)
		assert.Equal(t, []string{"after"}, res.Output)
	})

	t.Run("count is an expression", func(t *testing.T) {
		_, tu := runSource(t, "C:N = 3\nREPEAT :N + 1 [ FD 1 ]", nil)
		assert.Len(t, tu.Lines, 4)
	})

	t.Run("REPCOUNT is unbound after the outermost block", func(t *testing.T) {
		source := "TO SQUARE :S\nREPEAT 4 [FD :S RT 90]\nEND\nSQUARE 50\nPRINT REPCOUNT"
		res, _ := runSource(t, source, nil)
		assert.Equal(t, []string{"0"}, res.Output)
		assert.NotContains(t, res.Variables, "REPCOUNT")
	})

	t.Run("REPCOUNT gets the user binding back", func(t *testing.T) {
		res, _ := runSource(t, "REPCOUNT = 7\nREPEAT 2 [ REPEAT 2 [ FD 1 ] ]\nPRINT REPCOUNT", nil)
		assert.Equal(t, []string{"7"}, res.Output)
	})

	t.Run("jumping out leaves the block", func(t *testing.T) {
		res, tu := runSource(t, "REPEAT 3 [ FD 10 J:OUT ]\nL:OUT\nPRINT REPCOUNT", nil)
		assert.Equal(t, []string{"0"}, res.Output)
		assert.Len(t, tu.Lines, 1)
	})
}

func TestJumpOutOfRepeatDoesNotGrowTheLoopStack(t *testing.T) {
	prog := mustLoad(t, "*TOP\nC:N = N + 1\nE(N > 50):\nREPEAT 3 [ FD 1 J:TOP ]")
	r := newRun(New(Config{Seed: 1}), prog, turtle.New(), nil, nil)
	r.loop()

	assert.Equal(t, StatusHaltedNormal, r.state.Status)
	assert.Zero(t, r.state.LoopStack.size())
	assert.Len(t, r.turtle.Lines, 50)
}

func TestProcedures(t *testing.T) {
	t.Run("call with parameter", func(t *testing.T) {
		source := "TO SQUARE :SIZE\nREPEAT 4 [FD :SIZE RT 90]\nEND\nSQUARE 50"
		res, tu := runSource(t, source, nil)

		require.Len(t, tu.Lines, 4)
		assert.InDelta(t, 50, tu.Lines[0].Y2, 1e-9)
		_, bound := res.Variables["SIZE"]
		assert.False(t, bound, "parameter should be unbound after the call")
	})

	t.Run("caller bindings are restored", func(t *testing.T) {
		source := "C:SIZE = 7\nTO SHOW :SIZE\nT:*SIZE*\nEND\nSHOW 3\nT:*SIZE*"
		res, _ := runSource(t, source, nil)
		assert.Equal(t, []string{"3", "7"}, res.Output)
	})

	t.Run("callee sees caller variables", func(t *testing.T) {
		source := "TO INNER\nPRINT :DEPTH\nEND\nTO OUTER :DEPTH\nINNER\nEND\nOUTER 2"
		res, _ := runSource(t, source, nil)
		assert.Equal(t, []string{"2"}, res.Output)
	})

	t.Run("recursion with STOP", func(t *testing.T) {
		source := "TO COUNT :N\nIF :N > 3 THEN STOP\nPRINT :N\nCOUNT :N + 1\nEND\nCOUNT 1\nPRINT \"done\""
		res, _ := runSource(t, source, nil)
		assert.Equal(t, []string{"1", "2", "3", "done"}, res.Output)
	})

	t.Run("STOP outside a procedure ends the run", func(t *testing.T) {
		res, _ := runSource(t, "PRINT 1\nSTOP\nPRINT 2", nil)
		assert.Equal(t, []string{"1"}, res.Output)
		assert.Equal(t, StatusHaltedNormal, res.Status)
	})

	t.Run("definition is skipped in sequence", func(t *testing.T) {
		res, _ := runSource(t, "PRINT 1\nTO NOISY\nPRINT 99\nEND\nPRINT 2", nil)
		assert.Equal(t, []string{"1", "2"}, res.Output)
	})

	t.Run("text argument", func(t *testing.T) {
		source := "TO GREET :WHO\nT:hello *WHO*\nEND\nGREET \"world"
		res, _ := runSource(t, source, nil)
		assert.Equal(t, []string{"hello world"}, res.Output)
	})
}
