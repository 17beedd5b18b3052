// Package fabric boots the mod the way a fabric ModInitializer does:
// extensions are declared under entrypoint keys and reach the host at once.
package fabric

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/dayo05/aris-extension-template/aris"
	"github.com/dayo05/aris-extension-template/arisentity"
	"github.com/dayo05/aris-extension-template/config"
	"github.com/dayo05/aris-extension-template/loader"
)

var entrypoints = map[aris.EngineKind]string{
	aris.KindInit:         "aris-init",
	aris.KindInGame:       "aris-game",
	aris.KindClientInit:   "aris-client-init",
	aris.KindClientMain:   "aris-client",
	aris.KindClientInGame: "aris-client-game",
}

// Entrypoint returns the entrypoint key aris scans for kind.
func Entrypoint(kind aris.EngineKind) (string, bool) {
	key, ok := entrypoints[kind]
	return key, ok
}

// Adapter registers extensions with the host under their entrypoint key.
type Adapter struct {
	host loader.Host

	mu      sync.Mutex
	entries map[string][]*loader.Extension
}

// NewAdapter returns an adapter for host.
func NewAdapter(host loader.Host) *Adapter {
	return &Adapter{host: host, entries: make(map[string][]*loader.Extension)}
}

func (a *Adapter) Variant() loader.Variant { return loader.Fabric }

// RegisterExtension implements loader.Adapter.
func (a *Adapter) RegisterExtension(ext *loader.Extension) error {
	key, ok := Entrypoint(ext.Kind())
	if !ok {
		return fmt.Errorf("no fabric entrypoint for %s engine", ext.Kind())
	}
	a.mu.Lock()
	a.entries[key] = append(a.entries[key], ext)
	a.mu.Unlock()

	a.host.AddExtension(ext.Kind(), ext)
	return nil
}

// Entrypoints returns the keys that received at least one extension.
func (a *Adapter) Entrypoints() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	keys := make([]string, 0, len(a.entries))
	for k := range a.entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Mod is the fabric entry class.
type Mod struct {
	adapter *Adapter
	host    loader.Host
	init    func(context.Context) error
	glue    loader.GlueLookup
	cfg     config.Config
}

// Option configures a Mod.
type Option func(*Mod)

// WithConfig replaces the default manifest.
func WithConfig(cfg config.Config) Option {
	return func(m *Mod) {
		m.cfg = cfg
	}
}

// WithInit replaces arisentity.Init as the shared init.
func WithInit(init func(context.Context) error) Option {
	return func(m *Mod) {
		m.init = init
	}
}

// WithGlue replaces arisentity.Glue as the glue lookup.
func WithGlue(lookup loader.GlueLookup) Option {
	return func(m *Mod) {
		m.glue = lookup
	}
}

// NewMod returns the fabric mod for host.
func NewMod(host loader.Host, opts ...Option) *Mod {
	m := &Mod{
		adapter: NewAdapter(host),
		host:    host,
		init:    arisentity.Init,
		glue:    arisentity.Glue,
		cfg:     config.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Adapter returns the mod's adapter.
func (m *Mod) Adapter() *Adapter { return m.adapter }

// OnInitialize runs when the loader reaches the mod-load-ready state.
func (m *Mod) OnInitialize(ctx context.Context) error {
	return loader.Boot(ctx, m.adapter, m.host, m.cfg, m.init, m.glue)
}
