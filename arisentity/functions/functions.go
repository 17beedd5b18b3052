// Package functions declares the native functions the entity mod exposes to
// the init engine.
package functions

import (
	"context"

	"github.com/dayo05/aris-extension-template/binding"
	"github.com/dayo05/aris-extension-template/log"
)

// ProviderName is the provider the init-engine glue installs.
const ProviderName = "EntityInitProviderGenerated"

// Provider returns the init provider declaration.
func Provider() binding.Provider {
	return binding.NewProvider(ProviderName,
		binding.Function{Name: "test", Doc: "Writes one informational \"Test\" log record.", Fn: Test},
	)
}

// Declare registers the init provider into r.
func Declare(r *binding.Registry) error {
	return r.RegisterProvider(Provider())
}

// Test logs "Test" at info level and returns nothing.
func Test(ctx context.Context, _ []any) ([]any, error) {
	log.FromContext(ctx).InfoContext(ctx, "Test")
	return nil, nil
}
