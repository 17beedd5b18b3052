package binding

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/dayo05/aris-extension-template/log"
)

// Default is the process-wide registry that providers declare into.
var Default = NewRegistry(WithMiddleware(PanicRecoveryMiddleware()))

// Registry maps provider names to their native functions.
// Writes are expected during process initialization only; reads are safe
// for concurrent use.
type Registry struct {
	providers  map[string]*providerEntry
	middleware []Middleware
	mu         sync.RWMutex
	sealed     bool
}

// providerEntry keeps functions in declaration order plus a name index.
type providerEntry struct {
	index     map[string]int
	name      string
	functions []Function
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithMiddleware adds middleware applied to every installed function.
// Middleware executes in FIFO order (first added wraps first).
func WithMiddleware(mw ...Middleware) RegistryOption {
	return func(r *Registry) {
		r.middleware = append(r.middleware, mw...)
	}
}

// NewRegistry creates an empty Registry.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		providers: make(map[string]*providerEntry),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Declare creates an empty provider. Declaring an existing provider is a no-op.
func (r *Registry) Declare(provider string) error {
	if provider == "" {
		return &InvalidNameError{Reason: "provider name cannot be empty"}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.sealed {
		return ErrSealed
	}
	r.entry(provider)
	return nil
}

// Register adds fn under provider as function. The provider is declared
// implicitly. Returns *DuplicateNameError when function already exists in
// provider.
func (r *Registry) Register(provider, function string, fn Func) error {
	return r.RegisterFunction(provider, Function{Name: function, Fn: fn})
}

// RegisterFunction is Register with a documented Function.
func (r *Registry) RegisterFunction(provider string, f Function) error {
	if err := validateFunction(provider, f); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.sealed {
		return ErrSealed
	}
	entry := r.entry(provider)
	if _, exists := entry.index[f.Name]; exists {
		return &DuplicateNameError{Provider: provider, Function: f.Name}
	}
	entry.add(f)
	return nil
}

// RegisterProvider registers every function of p. Either all functions are
// registered or, on the first error, none of them.
func (r *Registry) RegisterProvider(p Provider) error {
	name := p.Name()
	fns := p.Functions()
	if name == "" {
		return &InvalidNameError{Reason: "provider name cannot be empty"}
	}

	seen := make(map[string]struct{}, len(fns))
	for _, f := range fns {
		if err := validateFunction(name, f); err != nil {
			return err
		}
		if _, dup := seen[f.Name]; dup {
			return &DuplicateNameError{Provider: name, Function: f.Name}
		}
		seen[f.Name] = struct{}{}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.sealed {
		return ErrSealed
	}
	if existing, ok := r.providers[name]; ok {
		for _, f := range fns {
			if _, dup := existing.index[f.Name]; dup {
				return &DuplicateNameError{Provider: name, Function: f.Name}
			}
		}
	}

	entry := r.entry(name)
	for _, f := range fns {
		entry.add(f)
	}
	return nil
}

// InstallInto installs every function of provider into e, keyed by function
// name. The engine is not touched when the provider is unknown.
func (r *Registry) InstallInto(ctx context.Context, provider string, e Engine) error {
	if e == nil {
		return &InvalidNameError{Provider: provider, Reason: "engine cannot be nil"}
	}

	r.mu.RLock()
	entry, ok := r.providers[provider]
	if !ok {
		r.mu.RUnlock()
		return &UnknownProviderError{Provider: provider}
	}
	engineID := e.ID()
	bindings := make([]Binding, 0, len(entry.functions))
	for _, f := range entry.functions {
		bindings = append(bindings, Binding{
			Provider: provider,
			Name:     f.Name,
			Fn:       r.wrap(CallInfo{Provider: provider, Function: f.Name, Engine: engineID}, f.Fn),
		})
	}
	r.mu.RUnlock()

	if err := e.Bind(ctx, provider, bindings); err != nil {
		var bindErr *EngineBindingError
		if errors.As(err, &bindErr) {
			return err
		}
		return &EngineBindingError{Err: err, Provider: provider, Engine: engineID}
	}

	log.FromContext(ctx).DebugContext(ctx, "provider installed",
		"provider", provider, "engine", engineID, "functions", len(bindings))
	return nil
}

// Has reports whether provider declares function.
func (r *Registry) Has(provider, function string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, ok := r.providers[provider]
	if !ok {
		return false
	}
	_, ok = entry.index[function]
	return ok
}

// Providers returns the sorted names of all declared providers.
func (r *Registry) Providers() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Functions returns the functions of provider in declaration order.
func (r *Registry) Functions(provider string) ([]Function, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, ok := r.providers[provider]
	if !ok {
		return nil, false
	}
	out := make([]Function, len(entry.functions))
	copy(out, entry.functions)
	return out, true
}

// Seal rejects any further registration with ErrSealed.
func (r *Registry) Seal() {
	r.mu.Lock()
	r.sealed = true
	r.mu.Unlock()
}

// Sealed reports whether Seal has been called.
func (r *Registry) Sealed() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sealed
}

// entry returns the provider entry, creating it. Caller holds the write lock.
func (r *Registry) entry(provider string) *providerEntry {
	entry, ok := r.providers[provider]
	if !ok {
		entry = &providerEntry{
			name:  provider,
			index: make(map[string]int),
		}
		r.providers[provider] = entry
	}
	return entry
}

// wrap applies the middleware chain and attaches the call info.
func (r *Registry) wrap(info CallInfo, fn Func) Func {
	wrapped := fn
	// Apply middleware in reverse order so first middleware wraps outermost
	for i := len(r.middleware) - 1; i >= 0; i-- {
		wrapped = r.middleware[i](wrapped)
	}
	return func(ctx context.Context, args []any) ([]any, error) {
		return wrapped(WithCallInfo(ctx, info), args)
	}
}

func (e *providerEntry) add(f Function) {
	e.index[f.Name] = len(e.functions)
	e.functions = append(e.functions, f)
}

func validateFunction(provider string, f Function) error {
	if provider == "" {
		return &InvalidNameError{Function: f.Name, Reason: "provider name cannot be empty"}
	}
	if f.Name == "" {
		return &InvalidNameError{Provider: provider, Reason: "function name cannot be empty"}
	}
	if f.Fn == nil {
		return &InvalidNameError{Provider: provider, Function: f.Name, Reason: "function implementation cannot be nil"}
	}
	return nil
}
