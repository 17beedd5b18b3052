package binding

import (
	"context"
)

// Func is a native procedure callable from a script.
// args holds the converted script arguments (nil, bool, float64, string,
// []any or map[string]any). The returned values are pushed back to the
// script in order; a nil slice means the function returns nothing.
type Func func(ctx context.Context, args []any) ([]any, error)

// Function is a named native callable declared by a provider.
type Function struct {
	// Name is the lookup key inside the engine. Unique within a provider.
	Name string

	// Doc is a one-line description used by the doc exporter.
	Doc string

	// Fn is the implementation.
	Fn Func
}

// Binding is a Function prepared for installation into one engine.
// Fn is already wrapped by the registry middleware.
type Binding struct {
	Provider string
	Name     string
	Fn       Func
}

// Engine is an embedded scripting runtime that accepts native bindings.
// The handle is borrowed: the registry never keeps it after InstallInto returns.
type Engine interface {
	// ID identifies the engine instance.
	ID() string

	// Bind installs every binding into the engine's native-call namespace,
	// or none of them when any installation is rejected.
	Bind(ctx context.Context, namespace string, bindings []Binding) error
}
