package wasmengine

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"

	"github.com/dayo05/aris-extension-template/binding"
	"github.com/dayo05/aris-extension-template/log"
)

// DefaultMaxRequestSize limits argument payloads read from guest memory.
const DefaultMaxRequestSize = 1 << 20

// ErrClosed is returned by calls on a closed engine.
var ErrClosed = errors.New("wasm engine is closed")

type config struct {
	runtimeConfig  wazero.RuntimeConfig
	id             string
	label          string
	maxRequestSize uint32
}

// Option configures New.
type Option func(*config)

// WithID overrides the generated engine id.
func WithID(id string) Option {
	return func(c *config) {
		c.id = id
	}
}

// WithLabel attaches a human-readable label used in log records.
func WithLabel(label string) Option {
	return func(c *config) {
		c.label = label
	}
}

// WithMaxRequestSize sets the maximum argument payload size.
func WithMaxRequestSize(size uint32) Option {
	return func(c *config) {
		c.maxRequestSize = size
	}
}

// WithRuntimeConfig replaces the wazero runtime configuration.
func WithRuntimeConfig(rc wazero.RuntimeConfig) Option {
	return func(c *config) {
		c.runtimeConfig = rc
	}
}

// Engine owns one wazero runtime.
type Engine struct {
	runtime wazero.Runtime
	hosts   map[string]api.Module
	cfg     config
	mu      sync.Mutex
	closed  bool
}

// New creates an engine with its own wazero runtime.
func New(ctx context.Context, opts ...Option) *Engine {
	cfg := config{
		runtimeConfig:  wazero.NewRuntimeConfig(),
		maxRequestSize: DefaultMaxRequestSize,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.id == "" {
		cfg.id = uuid.NewString()
	}

	return &Engine{
		runtime: wazero.NewRuntimeWithConfig(ctx, cfg.runtimeConfig),
		hosts:   make(map[string]api.Module),
		cfg:     cfg,
	}
}

// ID implements binding.Engine.
func (e *Engine) ID() string {
	return e.cfg.id
}

// Label returns the label given with WithLabel.
func (e *Engine) Label() string {
	return e.cfg.label
}

// Bind implements binding.Engine by instantiating a host module named
// namespace that exports every binding.
func (e *Engine) Bind(ctx context.Context, namespace string, bindings []binding.Binding) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return ErrClosed
	}
	if namespace == "" {
		return &binding.RejectedNameError{Name: namespace, Reason: "empty module name"}
	}
	if e.runtime.Module(namespace) != nil {
		return &binding.RejectedNameError{Name: namespace, Reason: "module already instantiated"}
	}

	builder := e.runtime.NewHostModuleBuilder(namespace)
	seen := make(map[string]struct{}, len(bindings))
	for _, b := range bindings {
		if b.Name == "" {
			return &binding.RejectedNameError{Name: b.Name, Reason: "empty export name"}
		}
		if _, dup := seen[b.Name]; dup {
			return &binding.RejectedNameError{Name: b.Name, Reason: "bound twice in one batch"}
		}
		seen[b.Name] = struct{}{}

		b := b // capture for closure
		builder.NewFunctionBuilder().
			WithGoModuleFunction(api.GoModuleFunc(func(ctx context.Context, mod api.Module, stack []uint64) {
				e.handleCall(ctx, mod, stack, b)
			}), []api.ValueType{api.ValueTypeI64}, []api.ValueType{api.ValueTypeI64}).
			WithName(b.Name).
			Export(b.Name)
	}

	mod, err := builder.Instantiate(ctx)
	if err != nil {
		return fmt.Errorf("failed to instantiate host module %q: %w", namespace, err)
	}
	e.hosts[namespace] = mod

	log.FromContext(ctx).DebugContext(ctx, "wasmengine: host module instantiated",
		"engine", e.cfg.id, "label", e.cfg.label, "module", namespace, "exports", len(bindings))
	return nil
}

// Instantiate compiles and instantiates a guest module under name. The
// guest may import any namespace bound before this call.
func (e *Engine) Instantiate(ctx context.Context, name string, wasm []byte) (api.Module, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return nil, ErrClosed
	}
	compiled, err := e.runtime.CompileModule(ctx, wasm)
	if err != nil {
		return nil, fmt.Errorf("failed to compile module: %w", err)
	}
	mod, err := e.runtime.InstantiateModule(ctx, compiled, wazero.NewModuleConfig().WithName(name))
	if err != nil {
		return nil, fmt.Errorf("failed to instantiate module: %w", err)
	}
	if init := mod.ExportedFunction("_initialize"); init != nil {
		if _, err := init.Call(ctx); err != nil {
			return nil, fmt.Errorf("failed to call _initialize: %w", err)
		}
	}
	return mod, nil
}

// Exports returns the export names of the host module bound for namespace.
func (e *Engine) Exports(namespace string) []string {
	e.mu.Lock()
	defer e.mu.Unlock()

	mod, ok := e.hosts[namespace]
	if !ok {
		return nil
	}
	defs := mod.ExportedFunctionDefinitions()
	names := make([]string, 0, len(defs))
	for name := range defs {
		names = append(names, name)
	}
	return names
}

// Close releases the runtime and every module in it.
func (e *Engine) Close(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return nil
	}
	e.closed = true
	return e.runtime.Close(ctx)
}
