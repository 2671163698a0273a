package expression

// OperatorInfo holds the binding strength of an operator
type OperatorInfo struct {
	precedence  int
	associative bool // true for left-associative, false for right-associative
}

// Operator precedence, lowest first
const (
	PrecedenceOr       = 1
	PrecedenceAnd      = 2
	PrecedenceRelation = 3
	PrecedenceAdd      = 4
	PrecedenceMul      = 5
	PrecedencePower    = 6
	PrecedenceUnary    = 7
)

var operatorPrecedence = map[string]OperatorInfo{
	"OR":       {precedence: PrecedenceOr, associative: true},
	"AND":      {precedence: PrecedenceAnd, associative: true},
	"=":        {precedence: PrecedenceRelation, associative: true},
	"<>":       {precedence: PrecedenceRelation, associative: true},
	"<":        {precedence: PrecedenceRelation, associative: true},
	">":        {precedence: PrecedenceRelation, associative: true},
	"<=":       {precedence: PrecedenceRelation, associative: true},
	">=":       {precedence: PrecedenceRelation, associative: true},
	"+":        {precedence: PrecedenceAdd, associative: true},
	"-":        {precedence: PrecedenceAdd, associative: true},
	"*":        {precedence: PrecedenceMul, associative: true},
	"/":        {precedence: PrecedenceMul, associative: true},
	"%":        {precedence: PrecedenceMul, associative: true},
	"^":        {precedence: PrecedencePower, associative: false},
	unaryMinus: {precedence: PrecedenceUnary, associative: false},
}

// argFrame tracks the argument count inside one pair of parentheses
type argFrame struct {
	function bool
	commas   int
	hasArg   bool
}

// ToPostfix converts infix tokens to reverse polish order using the
// shunting-yard algorithm. Function tokens in the result carry their
// argument count in Args.
func ToPostfix(tokens []Token) ([]Token, error) {
	if len(tokens) == 0 {
		return nil, newError(CodeEmpty, "empty expression")
	}

	output := make([]Token, 0, len(tokens))
	var operatorStack []Token
	var frames []argFrame

	markArg := func() {
		if len(frames) > 0 {
			frames[len(frames)-1].hasArg = true
		}
	}

	// expectOperand is true where a unary operator may appear
	expectOperand := true

	for i := 0; i < len(tokens); i++ {
		token := tokens[i]

		switch token.Type {
		case TokenNumber, TokenVariable:
			if !expectOperand {
				return nil, newError(CodeStackUnderflow, "unexpected %q at position %d", token.Text, token.Pos)
			}
			markArg()
			output = append(output, token)
			expectOperand = false

		case TokenFunction:
			if !expectOperand {
				return nil, newError(CodeStackUnderflow, "unexpected %q at position %d", token.Text, token.Pos)
			}
			markArg()
			if i+1 < len(tokens) && tokens[i+1].Type == TokenLeftParen {
				operatorStack = append(operatorStack, token)
				expectOperand = true
				continue
			}
			// Bare zero-argument function such as RND
			token.Args = 0
			output = append(output, token)
			expectOperand = false

		case TokenLeftParen:
			if !expectOperand {
				return nil, newError(CodeStackUnderflow, "unexpected '(' at position %d", token.Pos)
			}
			isCall := len(operatorStack) > 0 && operatorStack[len(operatorStack)-1].Type == TokenFunction &&
				i > 0 && tokens[i-1].Type == TokenFunction
			if !isCall {
				markArg()
			}
			frames = append(frames, argFrame{function: isCall})
			operatorStack = append(operatorStack, token)
			expectOperand = true

		case TokenComma:
			if len(frames) == 0 || !frames[len(frames)-1].function {
				return nil, newError(CodeMismatchedParens, "comma outside function call at position %d", token.Pos)
			}
			if !frames[len(frames)-1].hasArg {
				return nil, newError(CodeArity, "missing argument at position %d", token.Pos)
			}
			for len(operatorStack) > 0 && operatorStack[len(operatorStack)-1].Type != TokenLeftParen {
				output = append(output, operatorStack[len(operatorStack)-1])
				operatorStack = operatorStack[:len(operatorStack)-1]
			}
			frames[len(frames)-1].commas++
			frames[len(frames)-1].hasArg = false
			expectOperand = true

		case TokenRightParen:
			for len(operatorStack) > 0 && operatorStack[len(operatorStack)-1].Type != TokenLeftParen {
				output = append(output, operatorStack[len(operatorStack)-1])
				operatorStack = operatorStack[:len(operatorStack)-1]
			}
			if len(operatorStack) == 0 || len(frames) == 0 {
				return nil, newError(CodeMismatchedParens, "unmatched ')' at position %d", token.Pos)
			}
			operatorStack = operatorStack[:len(operatorStack)-1]
			frame := frames[len(frames)-1]
			frames = frames[:len(frames)-1]
			if expectOperand && frame.hasArg {
				return nil, newError(CodeStackUnderflow, "missing operand before ')' at position %d", token.Pos)
			}

			if frame.function {
				fn := operatorStack[len(operatorStack)-1]
				operatorStack = operatorStack[:len(operatorStack)-1]
				if frame.commas > 0 && !frame.hasArg {
					return nil, newError(CodeArity, "missing argument to %s", fn.Text)
				}
				fn.Args = frame.commas
				if frame.hasArg {
					fn.Args++
				}
				output = append(output, fn)
			} else if !frame.hasArg {
				return nil, newError(CodeStackUnderflow, "empty parentheses at position %d", token.Pos)
			}
			expectOperand = false

		case TokenOperator, TokenComparator:
			if expectOperand {
				switch token.Text {
				case "-":
					markArg()
					token.Text = unaryMinus
					operatorStack = append(operatorStack, token)
					continue
				case "+":
					// Unary plus is a no-op
					continue
				default:
					return nil, newError(CodeStackUnderflow, "missing operand before %q at position %d", token.Text, token.Pos)
				}
			}

			current := operatorPrecedence[token.Text]
			for len(operatorStack) > 0 {
				top := operatorStack[len(operatorStack)-1]
				if top.Type != TokenOperator && top.Type != TokenComparator {
					break
				}
				topInfo := operatorPrecedence[top.Text]
				if topInfo.precedence > current.precedence ||
					(topInfo.precedence == current.precedence && current.associative) {
					output = append(output, top)
					operatorStack = operatorStack[:len(operatorStack)-1]
					continue
				}
				break
			}
			operatorStack = append(operatorStack, token)
			expectOperand = true
		}
	}

	if expectOperand {
		return nil, newError(CodeStackUnderflow, "expression ends with an operator")
	}

	for len(operatorStack) > 0 {
		top := operatorStack[len(operatorStack)-1]
		operatorStack = operatorStack[:len(operatorStack)-1]
		if top.Type == TokenLeftParen {
			return nil, newError(CodeMismatchedParens, "unmatched '(' at position %d", top.Pos)
		}
		output = append(output, top)
	}

	return output, nil
}
