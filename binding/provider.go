package binding

// Provider is a named group of native functions exposed together.
type Provider interface {
	// Name returns the provider identifier, unique across a registry.
	Name() string

	// Functions returns the declared functions in declaration order.
	Functions() []Function
}

// staticProvider implements Provider with a fixed function list.
type staticProvider struct {
	name      string
	functions []Function
}

func (p *staticProvider) Name() string {
	return p.name
}

func (p *staticProvider) Functions() []Function {
	out := make([]Function, len(p.functions))
	copy(out, p.functions)
	return out
}

// NewProvider returns a provider declaring the given functions.
// Validation happens when the provider is registered.
func NewProvider(name string, fns ...Function) Provider {
	return &staticProvider{
		name:      name,
		functions: append([]Function(nil), fns...),
	}
}
