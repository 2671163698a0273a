package engine

import (
	"time"

	"github.com/emirpasic/gods/stacks/arraystack"

	"templecode/shared"
)

// LoopKind distinguishes FOR loops from REPEAT blocks
type LoopKind uint8

const (
	LoopFor LoopKind = iota
	LoopRepeat
)

// LoopContext is one active FOR or REPEAT
type LoopContext struct {
	Kind      LoopKind
	Variable  string
	Current   float64
	Limit     float64
	Step      float64
	BodyStart int
	// Start is the FOR or REPEAT statement; End the matching ']' of a REPEAT
	Start int
	End   int
	// Saved is the REPCOUNT binding an outermost REPEAT replaced
	Saved *savedBinding
}

func (c *LoopContext) finished(value float64) bool {
	if c.Step > 0 {
		return value > c.Limit
	}
	return value < c.Limit
}

type savedBinding struct {
	value   shared.Value
	existed bool
}

// CallFrame is pushed by GOSUB and by procedure calls
type CallFrame struct {
	ReturnIndex int
	// Procedure is empty for a GOSUB frame
	Procedure string
	Saved     map[string]savedBinding
	LoopDepth int
}

// loopStack and callStack wrap the untyped gods stack
type loopStack struct {
	s *arraystack.Stack
}

func newLoopStack() loopStack {
	return loopStack{s: arraystack.New()}
}

func (l loopStack) push(c *LoopContext) {
	l.s.Push(c)
}

func (l loopStack) peek() (*LoopContext, bool) {
	v, ok := l.s.Peek()
	if !ok {
		return nil, false
	}
	return v.(*LoopContext), true
}

func (l loopStack) pop() (*LoopContext, bool) {
	v, ok := l.s.Pop()
	if !ok {
		return nil, false
	}
	return v.(*LoopContext), true
}

func (l loopStack) size() int {
	return l.s.Size()
}

// find returns the innermost context matching pred and its position from
// the bottom, searching no deeper than floor
func (l loopStack) find(floor int, pred func(*LoopContext) bool) (*LoopContext, int, bool) {
	// Values lists the top of the stack first
	values := l.s.Values()
	for i, v := range values {
		pos := len(values) - 1 - i
		if pos < floor {
			break
		}
		if c := v.(*LoopContext); pred(c) {
			return c, pos, true
		}
	}
	return nil, 0, false
}

// exitDepth is the depth left after a jump to idx leaves every REPEAT
// block above floor that does not contain idx
func (l loopStack) exitDepth(floor, idx int) int {
	depth := l.s.Size()
	for _, v := range l.s.Values() {
		c := v.(*LoopContext)
		if depth <= floor || c.Kind != LoopRepeat || (idx > c.Start && idx <= c.End) {
			break
		}
		depth--
	}
	return depth
}

// innermostRepeat returns the closest REPEAT above floor
func (l loopStack) innermostRepeat(floor int) (*LoopContext, bool) {
	c, _, ok := l.find(floor, func(c *LoopContext) bool { return c.Kind == LoopRepeat })
	return c, ok
}

type callStack struct {
	s *arraystack.Stack
}

func newCallStack() callStack {
	return callStack{s: arraystack.New()}
}

func (c callStack) push(f *CallFrame) {
	c.s.Push(f)
}

func (c callStack) pop() (*CallFrame, bool) {
	v, ok := c.s.Pop()
	if !ok {
		return nil, false
	}
	return v.(*CallFrame), true
}

func (c callStack) peek() (*CallFrame, bool) {
	v, ok := c.s.Peek()
	if !ok {
		return nil, false
	}
	return v.(*CallFrame), true
}

func (c callStack) size() int {
	return c.s.Size()
}

// ExecutionState is created fresh for every run
type ExecutionState struct {
	PC         int
	Iterations int
	Start      time.Time
	Status     Status
	LastMatch  bool
	LastInput  string
	CallStack  callStack
	LoopStack  loopStack
	Screen     Screen
}

func newExecutionState(start time.Time) *ExecutionState {
	return &ExecutionState{
		Start:     start,
		Status:    StatusRunning,
		CallStack: newCallStack(),
		LoopStack: newLoopStack(),
	}
}

// loopFloor is the loop depth owned by the current procedure or subroutine
func (s *ExecutionState) loopFloor() int {
	if f, ok := s.CallStack.peek(); ok {
		return f.LoopDepth
	}
	return 0
}
