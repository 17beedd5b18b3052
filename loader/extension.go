package loader

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/dayo05/aris-extension-template/aris"
	"github.com/dayo05/aris-extension-template/binding"
)

// ErrNotRegistered is returned by InitLua before the extension was handed
// to the host.
var ErrNotRegistered = errors.New("extension not registered with host")

// AlreadyInvokedError reports a second InitLua for the same engine.
type AlreadyInvokedError struct {
	Kind   aris.EngineKind
	Engine string
}

func (e *AlreadyInvokedError) Error() string {
	return fmt.Sprintf("%s extension already initialized engine %s", e.Kind, e.Engine)
}

// State is an extension's progress for one engine.
type State int

const (
	Unregistered State = iota
	Registered
	Invoked
)

func (s State) String() string {
	switch s {
	case Unregistered:
		return "unregistered"
	case Registered:
		return "registered"
	case Invoked:
		return "invoked"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Extension is the per-kind engine initializer handed to the host.
type Extension struct {
	glue    Glue
	variant Variant
	kind    aris.EngineKind

	mu         sync.Mutex
	registered bool
	// engine id -> true once installed, false while installing
	engines map[string]bool
}

// NewExtension returns an unregistered extension for kind.
func NewExtension(variant Variant, kind aris.EngineKind, glue Glue) *Extension {
	return &Extension{
		glue:    glue,
		variant: variant,
		kind:    kind,
		engines: make(map[string]bool),
	}
}

func (e *Extension) Variant() Variant      { return e.variant }
func (e *Extension) Kind() aris.EngineKind { return e.kind }

// MarkRegistered records the hand-off to the host.
func (e *Extension) MarkRegistered() {
	e.mu.Lock()
	e.registered = true
	e.mu.Unlock()
}

// State returns the extension's state for the engine with the given id.
func (e *Extension) State(engineID string) State {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.registered {
		return Unregistered
	}
	if e.engines[engineID] {
		return Invoked
	}
	return Registered
}

// InitLua installs the glue into engine. Glue errors are returned unchanged
// and leave the engine free for another attempt.
func (e *Extension) InitLua(ctx context.Context, engine binding.Engine) error {
	if engine == nil {
		return fmt.Errorf("%s extension: nil engine", e.kind)
	}
	id := engine.ID()

	e.mu.Lock()
	if !e.registered {
		e.mu.Unlock()
		return ErrNotRegistered
	}
	if _, seen := e.engines[id]; seen {
		e.mu.Unlock()
		return &AlreadyInvokedError{Kind: e.kind, Engine: id}
	}
	e.engines[id] = false
	e.mu.Unlock()

	err := e.glue.InitEngine(ctx, engine)

	e.mu.Lock()
	defer e.mu.Unlock()
	if err != nil {
		delete(e.engines, id)
		return err
	}
	e.engines[id] = true
	return nil
}

// Forget drops the state kept for a closed engine. Glue that keeps its own
// per-engine state is told as well.
func (e *Extension) Forget(engineID string) {
	e.mu.Lock()
	delete(e.engines, engineID)
	e.mu.Unlock()

	if f, ok := e.glue.(aris.Forgetter); ok {
		f.Forget(engineID)
	}
}
