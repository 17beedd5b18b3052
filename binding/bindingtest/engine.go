// Package bindingtest provides an in-memory binding.Engine for tests.
package bindingtest

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/dayo05/aris-extension-template/binding"
)

// Engine records installed bindings in a flat global namespace.
// Re-installing a name is rejected, like the real engines do.
type Engine struct {
	globals  map[string]binding.Binding
	reserved map[string]struct{}
	// FailWith, when set, is returned by every Bind call.
	FailWith  error
	id        string
	bindCalls int
	mu        sync.Mutex
}

// NewEngine returns an empty engine with the given id.
func NewEngine(id string) *Engine {
	return &Engine{
		id:       id,
		globals:  make(map[string]binding.Binding),
		reserved: make(map[string]struct{}),
	}
}

// ID implements binding.Engine.
func (e *Engine) ID() string {
	return e.id
}

// Reserve marks names the engine refuses to bind.
func (e *Engine) Reserve(names ...string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, n := range names {
		e.reserved[n] = struct{}{}
	}
}

// Bind implements binding.Engine.
func (e *Engine) Bind(_ context.Context, _ string, bindings []binding.Binding) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.bindCalls++
	if e.FailWith != nil {
		return e.FailWith
	}
	for _, b := range bindings {
		if _, ok := e.reserved[b.Name]; ok {
			return &binding.RejectedNameError{Name: b.Name, Reason: "reserved"}
		}
		if _, ok := e.globals[b.Name]; ok {
			return &binding.RejectedNameError{Name: b.Name, Reason: "already defined"}
		}
	}
	for _, b := range bindings {
		e.globals[b.Name] = b
	}
	return nil
}

// Call invokes an installed binding by name.
func (e *Engine) Call(ctx context.Context, name string, args ...any) ([]any, error) {
	e.mu.Lock()
	b, ok := e.globals[name]
	e.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("bindingtest: %q is not bound in engine %s", name, e.id)
	}
	return b.Fn(ctx, args)
}

// Names returns the sorted names bound into the engine.
func (e *Engine) Names() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	names := make([]string, 0, len(e.globals))
	for n := range e.globals {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// BindCalls returns how many times Bind was called.
func (e *Engine) BindCalls() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.bindCalls
}
