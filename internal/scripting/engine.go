package scripting

import (
	"fmt"
	"sort"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// Facts is the flat numeric snapshot a condition sees as the table s.
type Facts map[string]float64

// Engine wraps a single gopher-lua VM holding compiled achievement conditions.
// Single-goroutine access only (game loop).
type Engine struct {
	vm    *lua.LState
	log   *zap.Logger
	conds map[string]*lua.LFunction
	// ids whose condition came from LoadOverrides; Compile leaves them alone
	overridden map[string]bool
}

// NewEngine creates an empty engine. Conditions are added with Compile.
func NewEngine(log *zap.Logger) *Engine {
	vm := lua.NewState(lua.Options{SkipOpenLibs: false})
	vm.SetGlobal("API_VERSION", lua.LNumber(1))
	return &Engine{
		vm:         vm,
		log:        log,
		conds:      make(map[string]*lua.LFunction),
		overridden: make(map[string]bool),
	}
}

// Close releases the VM.
func (e *Engine) Close() {
	e.vm.Close()
}

// Compile registers expr as the condition for id. The expression is the
// body of a return statement with the facts table bound to s. An id that
// already has an override keeps it; expr is still checked for syntax.
func (e *Engine) Compile(id, expr string) error {
	fn, err := e.vm.LoadString("local s = ...\nreturn " + expr)
	if err != nil {
		return fmt.Errorf("compile condition %s: %w", id, err)
	}
	if e.overridden[id] {
		e.log.Debug("keeping lua condition override", zap.String("id", id))
		return nil
	}
	e.conds[id] = fn
	return nil
}

// LoadOverrides runs a Lua file that may define a global table named
// conditions mapping achievement ids to functions of s. Each function
// replaces the condition of the same id, whether it is compiled before or
// after the overrides are loaded.
func (e *Engine) LoadOverrides(path string) error {
	if err := e.vm.DoFile(path); err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	tbl, ok := e.vm.GetGlobal("conditions").(*lua.LTable)
	if !ok {
		return nil
	}
	var bad error
	tbl.ForEach(func(k, v lua.LValue) {
		fn, ok := v.(*lua.LFunction)
		if !ok {
			bad = fmt.Errorf("%s: condition %s is not a function", path, k.String())
			return
		}
		e.conds[k.String()] = fn
		e.overridden[k.String()] = true
		e.log.Debug("lua condition override", zap.String("id", k.String()))
	})
	return bad
}

// Has reports whether a condition is registered for id.
func (e *Engine) Has(id string) bool {
	_, ok := e.conds[id]
	return ok
}

// Eval runs the condition for id. Lua truthiness applies: nil and false are
// false, everything else is true.
func (e *Engine) Eval(id string, facts Facts) (bool, error) {
	fn, ok := e.conds[id]
	if !ok {
		return false, fmt.Errorf("no condition for %s", id)
	}

	t := e.vm.NewTable()
	keys := make([]string, 0, len(facts))
	for k := range facts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		t.RawSetString(k, lua.LNumber(facts[k]))
	}

	if err := e.vm.CallByParam(lua.P{
		Fn:      fn,
		NRet:    1,
		Protect: true,
	}, t); err != nil {
		return false, fmt.Errorf("eval condition %s: %w", id, err)
	}
	result := e.vm.Get(-1)
	e.vm.Pop(1)
	return lua.LVAsBool(result), nil
}
