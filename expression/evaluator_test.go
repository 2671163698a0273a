package expression

import (
	goerrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvaluator_Arithmetic(t *testing.T) {
	e := NewEvaluator(WithSeed(1))

	tests := []struct {
		expr string
		want float64
	}{
		{"2+3*4", 14},
		{"2^10", 1024},
		{"2^3^2", 512},
		{"(2+3)*4", 20},
		{"-2^2", 4},
		{"2^-1", 0.5},
		{"10 - 4 - 3", 3},
		{"7 MOD 3", 1},
		{"7 % 3", 1},
		{"5>3", 1},
		{"5<3", 0},
		{"3 = 3", 1},
		{"0.1 + 0.2 = 0.3", 1},
		{"3 <> 3", 0},
		{"1 < 2 AND 2 < 3", 1},
		{"1 > 2 OR 0", 0},
		{"1 + 2 > 2", 1},
		{"MAX(2, 7)", 7},
		{"MIN(2, 7)", 2},
		{"POW(2, 8)", 256},
		{"SQRT(16) + ABS(-3)", 7},
		{"INT(3.7)", 3},
		{"INT(-3.5)", -4},
		{"FLOOR(2.9) + CEIL(2.1)", 5},
		{"ROUND(2.4)", 2},
		{"SIN(0)", 0},
		{"COS(0)", 1},
		{"EXP(0)", 1},
		{"1e3", 1000},
		{".5 * 4", 2},
	}
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			got, err := e.Eval(tt.expr, nil)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestEvaluator_Variables(t *testing.T) {
	e := NewEvaluator()
	vars := MapVariables{"X": 5, "SIDE": 40}

	got, err := e.Eval("x * 2", vars)
	require.NoError(t, err)
	assert.Equal(t, 10.0, got)

	got, err = e.Eval(":side / 4", vars)
	require.NoError(t, err)
	assert.Equal(t, 10.0, got)

	got, err = e.Eval("UNKNOWN + 1", vars)
	require.NoError(t, err)
	assert.Equal(t, 1.0, got)
}

func TestEvaluator_Errors(t *testing.T) {
	e := NewEvaluator()

	tests := []struct {
		expr string
		want error
	}{
		{"10/0", ErrDivisionByZero},
		{"5 MOD 0", ErrDivisionByZero},
		{"FOO(1)", ErrUnknownFunction},
		{"SQRT(-1)", ErrDomain},
		{"LOG(0)", ErrDomain},
		{"MAX(1)", ErrArity},
		{"MAX(1,)", ErrArity},
		{"SIN(1, 2)", ErrArity},
		{"(1+2", ErrMismatchedParens},
		{"1+2)", ErrMismatchedParens},
		{"1 +", ErrStackUnderflow},
		{"* 2", ErrStackUnderflow},
		{"(1+)", ErrStackUnderflow},
		{"1 2", ErrStackUnderflow},
		{"2 # 3", ErrUnexpectedCharacter},
		{"\"text\"", ErrUnexpectedCharacter},
		{"", ErrEmpty},
	}
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			_, err := e.Eval(tt.expr, nil)
			require.Error(t, err)
			assert.True(t, goerrors.Is(err, tt.want), "got %v", err)
		})
	}
}

func TestTokenize_TokenLimit(t *testing.T) {
	long := "1"
	for i := 0; i < MaxTokens; i++ {
		long += "+1"
	}
	_, err := Tokenize(long)
	require.Error(t, err)
	assert.True(t, goerrors.Is(err, ErrTokenLimit))
}

func TestTokenize_Kinds(t *testing.T) {
	tokens, err := Tokenize("MAX(:a, 2) >= rnd MOD 3")
	require.NoError(t, err)

	var kinds []TokenType
	for _, tok := range tokens {
		kinds = append(kinds, tok.Type)
	}
	assert.Equal(t, []TokenType{
		TokenFunction, TokenLeftParen, TokenVariable, TokenComma, TokenNumber, TokenRightParen,
		TokenComparator, TokenFunction, TokenOperator, TokenNumber,
	}, kinds)
	assert.Equal(t, "A", tokens[2].Text)
	assert.Equal(t, "%", tokens[8].Text)
}

func TestToPostfix_FunctionArgCount(t *testing.T) {
	tokens, err := Tokenize("MAX(1 + 2, 3) * RND()")
	require.NoError(t, err)
	postfix, err := ToPostfix(tokens)
	require.NoError(t, err)

	var rendered []string
	for _, tok := range postfix {
		rendered = append(rendered, tok.String())
	}
	assert.Equal(t, []string{
		"NUMBER(1)", "NUMBER(2)", "OPERATOR(+)", "NUMBER(3)", "FUNCTION(MAX/2)",
		"FUNCTION(RND/0)", "OPERATOR(*)",
	}, rendered)
}

func TestEvaluator_RandomIsSeedable(t *testing.T) {
	a := NewEvaluator(WithSeed(42))
	b := NewEvaluator(WithSeed(42))

	for i := 0; i < 5; i++ {
		x, err := a.Eval("RANDOM", nil)
		require.NoError(t, err)
		y, err := b.Eval("RND()", nil)
		require.NoError(t, err)
		assert.Equal(t, x, y)
		assert.GreaterOrEqual(t, x, 0.0)
		assert.Less(t, x, 1.0)
	}
}

func TestEvaluator_CacheKeyedOnText(t *testing.T) {
	e := NewEvaluator(WithCacheSize(2))
	vars := MapVariables{"I": 1}

	first, err := e.Eval("I * 10", vars)
	require.NoError(t, err)
	vars["I"] = 2
	second, err := e.Eval("I * 10", vars)
	require.NoError(t, err)

	assert.Equal(t, 10.0, first)
	assert.Equal(t, 20.0, second)
	assert.Equal(t, 1, e.CacheLen())

	_, _ = e.Eval("1", nil)
	_, _ = e.Eval("2", nil)
	assert.Equal(t, 2, e.CacheLen())

	uncached := NewEvaluator(WithCacheSize(0))
	_, err = uncached.Eval("1+1", nil)
	require.NoError(t, err)
	assert.Equal(t, 0, uncached.CacheLen())
}
