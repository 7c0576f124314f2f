package scripting

import (
	"fmt"
	"os"
	"path/filepath"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// Engine wraps a single gopher-lua VM for policy execution.
// Single-goroutine access only (game loop).
type Engine struct {
	vm  *lua.LState
	log *zap.Logger
}

// NewEngine creates a Lua engine and loads all scripts from the given
// directory. A missing directory is not an error; every policy function
// has a Go fallback.
func NewEngine(scriptsDir string, log *zap.Logger) (*Engine, error) {
	vm := lua.NewState(lua.Options{
		SkipOpenLibs: false,
	})

	vm.SetGlobal("API_VERSION", lua.LNumber(1))

	e := &Engine{vm: vm, log: log}
	if err := e.loadDir(scriptsDir); err != nil {
		vm.Close()
		return nil, fmt.Errorf("load scripts: %w", err)
	}
	return e, nil
}

// Close releases the VM.
func (e *Engine) Close() {
	e.vm.Close()
}

// loadDir loads all .lua files in a directory.
func (e *Engine) loadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil // skip missing dirs
		}
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".lua" {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if err := e.vm.DoFile(path); err != nil {
			return fmt.Errorf("load %s: %w", path, err)
		}
		e.log.Debug("loaded lua script", zap.String("file", path))
	}
	return nil
}

// LoadString executes inline Lua source. Test hook.
func (e *Engine) LoadString(src string) error {
	return e.vm.DoString(src)
}

// PoolPolicyContext holds pre-packed data for the pool policy functions.
type PoolPolicyContext struct {
	TemplateID         int32
	TemplateName       string
	Category           string
	PoolSize           int
	ConfiguredCapacity int
}

func (e *Engine) policyTable(ctx PoolPolicyContext) *lua.LTable {
	t := e.vm.NewTable()
	t.RawSetString("template_id", lua.LNumber(ctx.TemplateID))
	t.RawSetString("template_name", lua.LString(ctx.TemplateName))
	t.RawSetString("category", lua.LString(ctx.Category))
	t.RawSetString("pool_size", lua.LNumber(ctx.PoolSize))
	t.RawSetString("capacity", lua.LNumber(ctx.ConfiguredCapacity))
	return t
}

// PoolCapacity calls the Lua pool_capacity function. Falls back to the
// configured capacity when the function is absent or errors.
func (e *Engine) PoolCapacity(ctx PoolPolicyContext) int {
	fn := e.vm.GetGlobal("pool_capacity")
	if fn == lua.LNil {
		return ctx.ConfiguredCapacity
	}

	if err := e.vm.CallByParam(lua.P{
		Fn:      fn,
		NRet:    1,
		Protect: true,
	}, e.policyTable(ctx)); err != nil {
		e.log.Error("lua pool_capacity error", zap.Error(err))
		return ctx.ConfiguredCapacity
	}

	result := e.vm.Get(-1)
	e.vm.Pop(1)

	n, ok := result.(lua.LNumber)
	if !ok {
		e.log.Error("lua pool_capacity returned non-number")
		return ctx.ConfiguredCapacity
	}
	if int(n) < 0 {
		return ctx.ConfiguredCapacity
	}
	return int(n)
}

// CanPool calls the Lua can_pool function. Falls back to true (pool it)
// when the function is absent or errors.
func (e *Engine) CanPool(ctx PoolPolicyContext) bool {
	fn := e.vm.GetGlobal("can_pool")
	if fn == lua.LNil {
		return true
	}

	if err := e.vm.CallByParam(lua.P{
		Fn:      fn,
		NRet:    1,
		Protect: true,
	}, e.policyTable(ctx)); err != nil {
		e.log.Error("lua can_pool error", zap.Error(err))
		return true
	}

	result := e.vm.Get(-1)
	e.vm.Pop(1)
	return result == lua.LTrue
}
