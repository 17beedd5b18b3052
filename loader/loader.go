// Package loader boots the mod under a host mod loader.
//
// Each loader variant differs only in how an Extension reaches the aris
// runtime; everything else runs through Boot and Run.
package loader

import (
	"context"
	"errors"
	"fmt"

	"github.com/dayo05/aris-extension-template/aris"
	"github.com/dayo05/aris-extension-template/binding"
	"github.com/dayo05/aris-extension-template/config"
	"github.com/dayo05/aris-extension-template/log"
)

// Variant names a host mod loader.
type Variant string

const (
	Fabric Variant = "fabric"
	Forge  Variant = "forge"
)

// Variants returns the supported loader variants.
func Variants() []Variant {
	return []Variant{Fabric, Forge}
}

// ParseVariant maps a variant name to a Variant.
func ParseVariant(s string) (Variant, error) {
	for _, v := range Variants() {
		if string(v) == s {
			return v, nil
		}
	}
	return "", fmt.Errorf("unknown loader variant %q", s)
}

// ErrVariantDisabled is returned by Boot when the manifest does not enable
// the adapter's variant.
var ErrVariantDisabled = errors.New("loader variant disabled")

// Host is the aris runtime as seen by a loader.
type Host interface {
	Version() string
	AddExtension(kind aris.EngineKind, ext aris.Initializer)
}

// Adapter hands extensions to the host in a variant-specific way.
type Adapter interface {
	Variant() Variant
	RegisterExtension(ext *Extension) error
}

// Glue installs the mod's providers into a freshly built engine.
type Glue interface {
	InitEngine(ctx context.Context, engine binding.Engine) error
}

// GlueLookup finds the glue for an engine kind.
type GlueLookup func(kind aris.EngineKind) (Glue, bool)

// MissingGlueError reports an extended engine kind with nothing to install.
type MissingGlueError struct {
	Kind aris.EngineKind
}

func (e *MissingGlueError) Error() string {
	return fmt.Sprintf("no glue for %s engine", e.Kind)
}

// Extensions builds one unregistered extension per kind.
func Extensions(variant Variant, kinds []aris.EngineKind, lookup GlueLookup) ([]*Extension, error) {
	exts := make([]*Extension, 0, len(kinds))
	for _, kind := range kinds {
		g, ok := lookup(kind)
		if !ok {
			return nil, &MissingGlueError{Kind: kind}
		}
		exts = append(exts, NewExtension(variant, kind, g))
	}
	return exts, nil
}

// Run performs the shared init and then registers every extension through
// the adapter. Nothing is registered when init fails.
func Run(ctx context.Context, adapter Adapter, init func(context.Context) error, exts ...*Extension) error {
	logger := log.FromContext(ctx).With("variant", adapter.Variant())

	if init != nil {
		if err := init(ctx); err != nil {
			return fmt.Errorf("%s: shared init: %w", adapter.Variant(), err)
		}
	}
	for _, ext := range exts {
		if err := adapter.RegisterExtension(ext); err != nil {
			return fmt.Errorf("%s: register %s extension: %w", adapter.Variant(), ext.Kind(), err)
		}
		ext.MarkRegistered()
		logger.DebugContext(ctx, "extension registered", "kind", ext.Kind())
	}
	return nil
}

// Boot checks cfg against the adapter and host, then runs init and
// registers an extension for every engine kind cfg extends.
func Boot(ctx context.Context, adapter Adapter, host Host, cfg config.Config, init func(context.Context) error, lookup GlueLookup) error {
	variant := adapter.Variant()
	if !cfg.Platforms.Enabled(string(variant)) {
		return fmt.Errorf("%s: %w", variant, ErrVariantDisabled)
	}
	if err := cfg.CheckHost(host.Version()); err != nil {
		return fmt.Errorf("%s: %w", variant, err)
	}
	exts, err := Extensions(variant, cfg.Engines.Kinds(), lookup)
	if err != nil {
		return fmt.Errorf("%s: %w", variant, err)
	}
	if err := Run(ctx, adapter, init, exts...); err != nil {
		return err
	}
	log.FromContext(ctx).InfoContext(ctx, "mod loaded",
		"mod_id", cfg.ModID, "variant", variant, "extensions", len(exts))
	return nil
}
