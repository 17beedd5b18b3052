package binding

import (
	"errors"
	"fmt"
)

// ErrSealed is returned by write operations on a sealed registry.
var ErrSealed = errors.New("binding registry is sealed")

// DuplicateNameError reports a function registered twice under one provider.
type DuplicateNameError struct {
	Provider string
	Function string
}

func (e *DuplicateNameError) Error() string {
	return fmt.Sprintf("duplicate function name %q in provider %q", e.Function, e.Provider)
}

// InvalidNameError reports an empty provider or function name.
type InvalidNameError struct {
	Provider string
	Function string
	Reason   string
}

func (e *InvalidNameError) Error() string {
	if e.Function != "" || e.Provider != "" {
		return fmt.Sprintf("invalid binding %s.%s: %s", e.Provider, e.Function, e.Reason)
	}
	return "invalid binding: " + e.Reason
}

// UnknownProviderError reports an install request for a provider that was
// never declared. It usually means the glue table and the declared
// providers are out of sync.
type UnknownProviderError struct {
	Provider string
}

func (e *UnknownProviderError) Error() string {
	return fmt.Sprintf("unknown provider %q", e.Provider)
}

// EngineBindingError reports an engine that rejected a provider's bindings.
// It only concerns the named engine instance.
type EngineBindingError struct {
	Err      error
	Provider string
	Engine   string
}

func (e *EngineBindingError) Error() string {
	return fmt.Sprintf("engine %s rejected provider %q: %v", e.Engine, e.Provider, e.Err)
}

func (e *EngineBindingError) Unwrap() error {
	return e.Err
}

// RejectedNameError is returned by engines that refuse a specific name, for
// example a reserved keyword or a name already present in the namespace.
type RejectedNameError struct {
	Name   string
	Reason string
}

func (e *RejectedNameError) Error() string {
	return fmt.Sprintf("name %q rejected: %s", e.Name, e.Reason)
}
