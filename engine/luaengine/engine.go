// Package luaengine embeds a gopher-lua state as a binding.Engine.
//
// Native functions are installed as Lua globals. A state is not safe for
// concurrent use, so every entry point serializes on the engine mutex; use
// one Engine per goroutine when scripts must run in parallel.
package luaengine

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sync"

	"github.com/google/uuid"
	lua "github.com/yuin/gopher-lua"

	"github.com/dayo05/aris-extension-template/binding"
	"github.com/dayo05/aris-extension-template/log"
)

// ErrClosed is returned by calls on a closed engine.
var ErrClosed = errors.New("lua engine is closed")

var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// keywords are the reserved words of Lua 5.1.
var keywords = map[string]struct{}{
	"and": {}, "break": {}, "do": {}, "else": {}, "elseif": {}, "end": {},
	"false": {}, "for": {}, "function": {}, "goto": {}, "if": {}, "in": {},
	"local": {}, "nil": {}, "not": {}, "or": {}, "repeat": {}, "return": {},
	"then": {}, "true": {}, "until": {}, "while": {},
}

type config struct {
	id            string
	label         string
	skipOpenLibs  bool
	callStackSize int
}

// Option configures New.
type Option func(*config)

// WithID overrides the generated engine id.
func WithID(id string) Option {
	return func(c *config) {
		c.id = id
	}
}

// WithLabel attaches a human-readable label (for example the engine kind)
// used in log records.
func WithLabel(label string) Option {
	return func(c *config) {
		c.label = label
	}
}

// WithoutStdlib skips opening the Lua standard libraries.
func WithoutStdlib() Option {
	return func(c *config) {
		c.skipOpenLibs = true
	}
}

// WithCallStackSize sets the Lua call stack size.
func WithCallStackSize(n int) Option {
	return func(c *config) {
		c.callStackSize = n
	}
}

// Engine is one Lua state able to receive native bindings.
type Engine struct {
	state  *lua.LState
	id     string
	label  string
	mu     sync.Mutex
	closed bool
}

// New creates a Lua engine with a fresh global namespace.
func New(opts ...Option) *Engine {
	cfg := config{callStackSize: lua.CallStackSize}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.id == "" {
		cfg.id = uuid.NewString()
	}

	state := lua.NewState(lua.Options{
		SkipOpenLibs:  cfg.skipOpenLibs,
		CallStackSize: cfg.callStackSize,
	})
	return &Engine{state: state, id: cfg.id, label: cfg.label}
}

// ID implements binding.Engine.
func (e *Engine) ID() string {
	return e.id
}

// Label returns the label given with WithLabel.
func (e *Engine) Label() string {
	return e.label
}

// Bind implements binding.Engine. Each binding becomes a global function.
// Names must be Lua identifiers, must not be keywords and must not shadow an
// existing global; any violation rejects the whole batch.
func (e *Engine) Bind(ctx context.Context, namespace string, bindings []binding.Binding) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return ErrClosed
	}

	seen := make(map[string]struct{}, len(bindings))
	for _, b := range bindings {
		if err := e.checkName(b.Name); err != nil {
			return err
		}
		if _, dup := seen[b.Name]; dup {
			return &binding.RejectedNameError{Name: b.Name, Reason: "bound twice in one batch"}
		}
		seen[b.Name] = struct{}{}
	}

	for _, b := range bindings {
		e.state.SetGlobal(b.Name, e.state.NewFunction(native(b)))
	}

	log.FromContext(ctx).DebugContext(ctx, "luaengine: bindings installed",
		"engine", e.id, "label", e.label, "namespace", namespace, "count", len(bindings))
	return nil
}

// DoString runs a Lua chunk. ctx is visible to native functions called by the chunk.
func (e *Engine) DoString(ctx context.Context, source string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return ErrClosed
	}
	e.state.SetContext(ctx)
	defer e.state.RemoveContext()
	return e.state.DoString(source)
}

// DoFile runs a Lua file.
func (e *Engine) DoFile(ctx context.Context, path string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return ErrClosed
	}
	e.state.SetContext(ctx)
	defer e.state.RemoveContext()
	return e.state.DoFile(path)
}

// Call invokes the global function name with args and returns its results
// converted to Go values.
func (e *Engine) Call(ctx context.Context, name string, args ...any) ([]any, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return nil, ErrClosed
	}

	L := e.state
	fn := L.GetGlobal(name)
	if fn.Type() != lua.LTFunction {
		return nil, fmt.Errorf("global %q is not a function", name)
	}

	L.SetContext(ctx)
	defer L.RemoveContext()

	largs := make([]lua.LValue, 0, len(args))
	for _, a := range args {
		largs = append(largs, toLua(L, a))
	}

	base := L.GetTop()
	if err := L.CallByParam(lua.P{Fn: fn, NRet: lua.MultRet, Protect: true}, largs...); err != nil {
		return nil, err
	}
	top := L.GetTop()
	out := make([]any, 0, top-base)
	for i := base + 1; i <= top; i++ {
		out = append(out, toGo(L.Get(i)))
	}
	L.Pop(top - base)
	return out, nil
}

// Global returns the Go value of a global variable.
func (e *Engine) Global(name string) any {
	e.mu.Lock()
	defer e.mu.Unlock()
	return toGo(e.state.GetGlobal(name))
}

// Close releases the Lua state.
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return
	}
	e.closed = true
	e.state.Close()
}

func (e *Engine) checkName(name string) error {
	if !identifierPattern.MatchString(name) {
		return &binding.RejectedNameError{Name: name, Reason: "not a Lua identifier"}
	}
	if _, ok := keywords[name]; ok {
		return &binding.RejectedNameError{Name: name, Reason: "reserved Lua keyword"}
	}
	if e.state.GetGlobal(name) != lua.LNil {
		return &binding.RejectedNameError{Name: name, Reason: "global already defined"}
	}
	return nil
}

// native adapts a binding to the Lua calling convention.
func native(b binding.Binding) lua.LGFunction {
	return func(L *lua.LState) int {
		ctx := L.Context()
		if ctx == nil {
			ctx = context.Background()
		}

		top := L.GetTop()
		args := make([]any, 0, top)
		for i := 1; i <= top; i++ {
			args = append(args, toGo(L.Get(i)))
		}

		out, err := b.Fn(ctx, args)
		if err != nil {
			L.RaiseError("%s: %v", b.Name, err)
			return 0
		}
		for _, v := range out {
			L.Push(toLua(L, v))
		}
		return len(out)
	}
}
