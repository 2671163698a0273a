package expression

import (
	"math"
	"math/rand"
	"time"

	"github.com/golang/groupcache/lru"
)

// DefaultCacheSize is the number of compiled expressions kept per evaluator
const DefaultCacheSize = 256

// equalityTolerance is used by = and <>
const equalityTolerance = 1e-10

// Variables resolves variable names to numbers. Names arrive upper-cased.
// A missing variable evaluates to 0.
type Variables interface {
	Lookup(name string) (float64, bool)
}

// MapVariables is a Variables backed by a plain map
type MapVariables map[string]float64

// Lookup returns the value of name
func (m MapVariables) Lookup(name string) (float64, bool) {
	v, ok := m[name]
	return v, ok
}

type funcSpec struct {
	arity int
	fn    func(e *Evaluator, args []float64) (float64, error)
}

func unary(f func(float64) float64) funcSpec {
	return funcSpec{arity: 1, fn: func(_ *Evaluator, args []float64) (float64, error) {
		return f(args[0]), nil
	}}
}

func binary(f func(float64, float64) float64) funcSpec {
	return funcSpec{arity: 2, fn: func(_ *Evaluator, args []float64) (float64, error) {
		return f(args[0], args[1]), nil
	}}
}

var random = funcSpec{arity: 0, fn: func(e *Evaluator, _ []float64) (float64, error) {
	return e.rng.Float64(), nil
}}

// functions is the fixed function table; trigonometry takes radians
var functions = map[string]funcSpec{
	"SIN":    unary(math.Sin),
	"COS":    unary(math.Cos),
	"TAN":    unary(math.Tan),
	"ASIN":   unary(math.Asin),
	"ACOS":   unary(math.Acos),
	"ATAN":   unary(math.Atan),
	"SQRT":   unary(math.Sqrt),
	"ABS":    unary(math.Abs),
	"LOG":    unary(math.Log),
	"EXP":    unary(math.Exp),
	"FLOOR":  unary(math.Floor),
	"CEIL":   unary(math.Ceil),
	"ROUND":  unary(math.RoundToEven),
	"INT":    unary(math.Floor),
	"POW":    binary(math.Pow),
	"MIN":    binary(math.Min),
	"MAX":    binary(math.Max),
	"RANDOM": random,
	"RND":    random,
	"RAND":   random,
}

// IsFunction reports whether name is a built-in function
func IsFunction(name string) bool {
	_, ok := functions[name]
	return ok
}

// Evaluator compiles and evaluates numeric expressions. It owns a parse
// cache keyed on expression text and a random source. An Evaluator is
// not safe for concurrent use.
type Evaluator struct {
	cache *lru.Cache
	rng   *rand.Rand
}

// Option configures an Evaluator
type Option func(*Evaluator)

// WithCacheSize sets the parse cache capacity; 0 disables caching
func WithCacheSize(size int) Option {
	return func(e *Evaluator) {
		if size <= 0 {
			e.cache = nil
			return
		}
		e.cache = lru.New(size)
	}
}

// WithSeed makes RANDOM deterministic
func WithSeed(seed int64) Option {
	return func(e *Evaluator) {
		e.rng = rand.New(rand.NewSource(seed))
	}
}

// NewEvaluator creates an evaluator with its own cache and random source
func NewEvaluator(opts ...Option) *Evaluator {
	e := &Evaluator{
		cache: lru.New(DefaultCacheSize),
		rng:   rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Compile tokenizes and converts text to postfix, consulting the cache.
// The returned slice is shared with the cache and must not be modified.
func (e *Evaluator) Compile(text string) ([]Token, error) {
	if e.cache != nil {
		if cached, ok := e.cache.Get(text); ok {
			return cached.([]Token), nil
		}
	}

	tokens, err := Tokenize(text)
	if err != nil {
		return nil, err
	}
	postfix, err := ToPostfix(tokens)
	if err != nil {
		return nil, err
	}

	if e.cache != nil {
		e.cache.Add(text, postfix)
	}
	return postfix, nil
}

// CacheLen returns the number of cached expressions
func (e *Evaluator) CacheLen() int {
	if e.cache == nil {
		return 0
	}
	return e.cache.Len()
}

// Eval compiles text and evaluates it against vars
func (e *Evaluator) Eval(text string, vars Variables) (float64, error) {
	postfix, err := e.Compile(text)
	if err != nil {
		return 0, err
	}
	return e.Evaluate(postfix, vars)
}

// Evaluate runs a postfix token sequence on an operand stack.
// The result is always finite.
func (e *Evaluator) Evaluate(postfix []Token, vars Variables) (float64, error) {
	stack := make([]float64, 0, len(postfix))

	pop := func() (float64, bool) {
		if len(stack) == 0 {
			return 0, false
		}
		v := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		return v, true
	}

	for _, token := range postfix {
		switch token.Type {
		case TokenNumber:
			stack = append(stack, token.Value)

		case TokenVariable:
			var value float64
			if vars != nil {
				value, _ = vars.Lookup(token.Text)
			}
			stack = append(stack, value)

		case TokenFunction:
			spec, ok := functions[token.Text]
			if !ok {
				return 0, newError(CodeUnknownFunction, "unknown function %s", token.Text)
			}
			if token.Args != spec.arity {
				return 0, newError(CodeArity, "%s expects %d argument(s), got %d", token.Text, spec.arity, token.Args)
			}
			if len(stack) < spec.arity {
				return 0, newError(CodeStackUnderflow, "not enough operands for %s", token.Text)
			}
			args := make([]float64, spec.arity)
			copy(args, stack[len(stack)-spec.arity:])
			stack = stack[:len(stack)-spec.arity]

			result, err := spec.fn(e, args)
			if err != nil {
				return 0, err
			}
			if math.IsNaN(result) || math.IsInf(result, 0) {
				return 0, newError(CodeDomain, "%s: result is not a finite number", token.Text)
			}
			stack = append(stack, result)

		case TokenOperator, TokenComparator:
			if token.Text == unaryMinus {
				v, ok := pop()
				if !ok {
					return 0, newError(CodeStackUnderflow, "missing operand for unary minus")
				}
				stack = append(stack, -v)
				continue
			}

			right, okR := pop()
			left, okL := pop()
			if !okR || !okL {
				return 0, newError(CodeStackUnderflow, "missing operand for %s", token.Text)
			}
			result, err := applyBinary(token.Text, left, right)
			if err != nil {
				return 0, err
			}
			stack = append(stack, result)

		default:
			return 0, newError(CodeMismatchedParens, "unexpected %s in postfix sequence", token.Type)
		}
	}

	if len(stack) != 1 {
		if len(stack) == 0 {
			return 0, newError(CodeStackUnderflow, "empty expression")
		}
		return 0, newError(CodeStackUnderflow, "malformed expression: %d values left on stack", len(stack))
	}
	return stack[0], nil
}

func applyBinary(op string, left, right float64) (float64, error) {
	var result float64
	switch op {
	case "+":
		result = left + right
	case "-":
		result = left - right
	case "*":
		result = left * right
	case "/":
		if right == 0 {
			return 0, newError(CodeDivisionByZero, "division by zero")
		}
		result = left / right
	case "%":
		if right == 0 {
			return 0, newError(CodeDivisionByZero, "modulo by zero")
		}
		result = math.Mod(left, right)
	case "^":
		result = math.Pow(left, right)
	case "=":
		result = boolToFloat(math.Abs(left-right) < equalityTolerance)
	case "<>":
		result = boolToFloat(math.Abs(left-right) >= equalityTolerance)
	case "<":
		result = boolToFloat(left < right)
	case ">":
		result = boolToFloat(left > right)
	case "<=":
		result = boolToFloat(left <= right)
	case ">=":
		result = boolToFloat(left >= right)
	case "AND":
		result = boolToFloat(left != 0 && right != 0)
	case "OR":
		result = boolToFloat(left != 0 || right != 0)
	default:
		return 0, newError(CodeUnexpectedCharacter, "unknown operator %s", op)
	}

	if math.IsNaN(result) || math.IsInf(result, 0) {
		return 0, newError(CodeDomain, "%s: result is not a finite number", op)
	}
	return result, nil
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
