package input

import (
	"context"
	"fmt"
	"time"

	lua "github.com/yuin/gopher-lua"
)

// DefaultLuaCallTimeout bounds a single call into an answer script
const DefaultLuaCallTimeout = time.Second

// LuaScript computes answers with a Lua script. The script either defines
//
//	function answer(prompt, n) ... end
//
// called with the prompt and the 1-based request number, or a global
// array named answers that is consumed in order. Returning nil, or running
// out of array entries, ends the input.
type LuaScript struct {
	state   *lua.LState
	answer  lua.LValue
	list    *lua.LTable
	count   int
	timeout time.Duration
}

// NewLuaScript compiles source in a sandbox holding only the base, table,
// string and math libraries
func NewLuaScript(source string) (*LuaScript, error) {
	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	for _, lib := range []struct {
		name string
		open lua.LGFunction
	}{
		{lua.BaseLibName, lua.OpenBase},
		{lua.TabLibName, lua.OpenTable},
		{lua.StringLibName, lua.OpenString},
		{lua.MathLibName, lua.OpenMath},
	} {
		if err := L.CallByParam(lua.P{Fn: L.NewFunction(lib.open), NRet: 0, Protect: true}, lua.LString(lib.name)); err != nil {
			L.Close()
			return nil, fmt.Errorf("failed to open lua library %q: %w", lib.name, err)
		}
	}

	s := &LuaScript{state: L, timeout: DefaultLuaCallTimeout}
	if err := s.withDeadline(func() error { return L.DoString(source) }); err != nil {
		L.Close()
		return nil, fmt.Errorf("failed to load answer script: %w", err)
	}

	if fn := L.GetGlobal("answer"); fn.Type() == lua.LTFunction {
		s.answer = fn
	} else if tb, ok := L.GetGlobal("answers").(*lua.LTable); ok {
		s.list = tb
	} else {
		L.Close()
		return nil, fmt.Errorf("answer script must define function answer(prompt, n) or table answers")
	}
	return s, nil
}

// SetTimeout changes the per-call limit; zero or less disables it
func (s *LuaScript) SetTimeout(d time.Duration) {
	s.timeout = d
}

// ReadInput implements Provider
func (s *LuaScript) ReadInput(prompt string) (string, error) {
	s.count++
	if s.list != nil {
		v := s.state.RawGetInt(s.list, s.count)
		if v == lua.LNil {
			return "", ErrExhausted
		}
		return lua.LVAsString(v), nil
	}

	var ret lua.LValue
	err := s.withDeadline(func() error {
		if err := s.state.CallByParam(lua.P{Fn: s.answer, NRet: 1, Protect: true},
			lua.LString(prompt), lua.LNumber(s.count)); err != nil {
			return err
		}
		ret = s.state.Get(-1)
		s.state.Pop(1)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("answer script failed: %w", err)
	}

	switch ret.Type() {
	case lua.LTNil:
		return "", ErrExhausted
	case lua.LTString, lua.LTNumber:
		return lua.LVAsString(ret), nil
	case lua.LTBool:
		return ret.String(), nil
	default:
		return "", fmt.Errorf("answer script returned a %s", ret.Type())
	}
}

// Close releases the Lua state
func (s *LuaScript) Close() error {
	s.state.Close()
	return nil
}

func (s *LuaScript) withDeadline(fn func() error) error {
	if s.timeout <= 0 {
		return fn()
	}
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	s.state.SetContext(ctx)
	defer s.state.RemoveContext()
	return fn()
}
