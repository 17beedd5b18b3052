package aris

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/dayo05/aris-extension-template/binding"
)

// Initializer receives each newly constructed engine of the kind it was
// registered for.
type Initializer interface {
	InitLua(ctx context.Context, engine binding.Engine) error
}

// InitializerFunc adapts a function to Initializer.
type InitializerFunc func(ctx context.Context, engine binding.Engine) error

// InitLua implements Initializer.
func (f InitializerFunc) InitLua(ctx context.Context, engine binding.Engine) error {
	return f(ctx, engine)
}

// Forgetter is implemented by initializers that keep per-engine state. The
// runtime calls Forget once an engine of their kind is closed.
type Forgetter interface {
	Forget(engineID string)
}

// Engine is what the host constructs: a binding target it can shut down.
type Engine interface {
	binding.Engine
	Close(ctx context.Context) error
}

// Factory constructs an empty engine of a kind.
type Factory func(ctx context.Context, kind EngineKind) (Engine, error)

// InitError reports an engine whose initialization was aborted.
type InitError struct {
	Err    error
	Kind   EngineKind
	Engine string
}

func (e *InitError) Error() string {
	return fmt.Sprintf("%s engine %s: initialization aborted: %v", e.Kind, e.Engine, e.Err)
}

func (e *InitError) Unwrap() error {
	return e.Err
}

// Option configures a Runtime.
type Option func(*Runtime)

// WithFactory sets the engine factory. The default builds Lua engines.
func WithFactory(f Factory) Option {
	return func(r *Runtime) {
		r.factory = f
	}
}

// WithVersion sets the host version reported to loaders.
func WithVersion(v string) Option {
	return func(r *Runtime) {
		r.version = v
	}
}

// WithLogger sets the runtime logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Runtime) {
		r.logger = l
	}
}

// Version is the host API version implemented by this package.
const Version = "1.2.0"

// Runtime is the scripting host: extension lists plus the engines built so far.
type Runtime struct {
	factory    Factory
	logger     *slog.Logger
	extensions map[EngineKind][]Initializer
	version    string
	engines    []hosted
	mu         sync.RWMutex
}

type hosted struct {
	engine Engine
	kind   EngineKind
}

// NewRuntime creates a host with empty extension lists.
func NewRuntime(opts ...Option) *Runtime {
	r := &Runtime{
		factory:    LuaFactory(),
		logger:     slog.Default(),
		extensions: make(map[EngineKind][]Initializer),
		version:    Version,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Version returns the host API version.
func (r *Runtime) Version() string {
	return r.version
}

// AddExtension appends ext to the extension list of kind.
func (r *Runtime) AddExtension(kind EngineKind, ext Initializer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.extensions[kind] = append(r.extensions[kind], ext)
}

// Extensions returns how many extensions are registered for kind.
func (r *Runtime) Extensions(kind EngineKind) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.extensions[kind])
}

// NewEngine constructs an engine of kind and runs its extensions. On the
// first extension error the engine is closed and an *InitError returned.
func (r *Runtime) NewEngine(ctx context.Context, kind EngineKind) (Engine, error) {
	engine, err := r.factory(ctx, kind)
	if err != nil {
		return nil, fmt.Errorf("failed to construct %s engine: %w", kind, err)
	}

	r.mu.RLock()
	exts := append([]Initializer(nil), r.extensions[kind]...)
	r.mu.RUnlock()

	for _, ext := range exts {
		if err := ext.InitLua(ctx, engine); err != nil {
			r.logger.ErrorContext(ctx, "engine initialization failed",
				"kind", kind, "engine", engine.ID(), "error", err)
			if cerr := r.release(ctx, hosted{engine: engine, kind: kind}); cerr != nil {
				r.logger.WarnContext(ctx, "failed to close aborted engine", "engine", engine.ID(), "error", cerr)
			}
			return nil, &InitError{Err: err, Kind: kind, Engine: engine.ID()}
		}
	}

	r.mu.Lock()
	r.engines = append(r.engines, hosted{engine: engine, kind: kind})
	r.mu.Unlock()

	r.logger.InfoContext(ctx, "engine ready", "kind", kind, "engine", engine.ID(), "extensions", len(exts))
	return engine, nil
}

// CloseEngine closes one engine handed out by NewEngine and drops the
// per-engine state its extensions kept.
func (r *Runtime) CloseEngine(ctx context.Context, engine Engine) error {
	id := engine.ID()

	r.mu.Lock()
	var (
		found hosted
		ok    bool
	)
	for i, h := range r.engines {
		if h.engine.ID() == id {
			found, ok = h, true
			r.engines = append(r.engines[:i], r.engines[i+1:]...)
			break
		}
	}
	r.mu.Unlock()

	if !ok {
		return fmt.Errorf("engine %s is not hosted by this runtime", id)
	}
	return r.release(ctx, found)
}

// Shutdown closes every engine handed out by NewEngine.
func (r *Runtime) Shutdown(ctx context.Context) error {
	r.mu.Lock()
	engines := r.engines
	r.engines = nil
	r.mu.Unlock()

	var firstErr error
	for _, h := range engines {
		if err := r.release(ctx, h); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (r *Runtime) release(ctx context.Context, h hosted) error {
	err := h.engine.Close(ctx)

	r.mu.RLock()
	exts := append([]Initializer(nil), r.extensions[h.kind]...)
	r.mu.RUnlock()

	id := h.engine.ID()
	for _, ext := range exts {
		if f, ok := ext.(Forgetter); ok {
			f.Forget(id)
		}
	}
	return err
}
