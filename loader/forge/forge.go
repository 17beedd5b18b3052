// Package forge boots the mod the way a forge @Mod constructor does:
// extensions wait on the mod bus and reach the host on ConstructModEvent.
package forge

import (
	"context"
	"sync"

	"github.com/dayo05/aris-extension-template/arisentity"
	"github.com/dayo05/aris-extension-template/config"
	"github.com/dayo05/aris-extension-template/loader"
	"github.com/dayo05/aris-extension-template/log"
)

// Adapter queues extensions until the bus constructs the mod.
type Adapter struct {
	host  loader.Host
	modID string

	mu          sync.Mutex
	pending     []*loader.Extension
	constructed bool
}

// NewAdapter subscribes a new adapter to bus.
func NewAdapter(bus *Bus, host loader.Host, modID string) *Adapter {
	a := &Adapter{host: host, modID: modID}
	bus.AddListener(a.onConstruct)
	return a
}

func (a *Adapter) Variant() loader.Variant { return loader.Forge }

// RegisterExtension implements loader.Adapter. Extensions registered after
// construction go to the host directly.
func (a *Adapter) RegisterExtension(ext *loader.Extension) error {
	a.mu.Lock()
	if !a.constructed {
		a.pending = append(a.pending, ext)
		a.mu.Unlock()
		return nil
	}
	a.mu.Unlock()
	a.host.AddExtension(ext.Kind(), ext)
	return nil
}

// Pending returns the number of extensions waiting for construction.
func (a *Adapter) Pending() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.pending)
}

func (a *Adapter) onConstruct(ctx context.Context, ev ConstructModEvent) error {
	if ev.ModID != "" && ev.ModID != a.modID {
		return nil
	}
	a.mu.Lock()
	if a.constructed {
		a.mu.Unlock()
		return nil
	}
	a.constructed = true
	pending := a.pending
	a.pending = nil
	a.mu.Unlock()

	for _, ext := range pending {
		a.host.AddExtension(ext.Kind(), ext)
	}
	log.FromContext(ctx).DebugContext(ctx, "extensions attached", "mod_id", a.modID, "count", len(pending))
	return nil
}

type options struct {
	init func(context.Context) error
	glue loader.GlueLookup
	cfg  config.Config
}

// Option configures New.
type Option func(*options)

// WithConfig replaces the default manifest.
func WithConfig(cfg config.Config) Option {
	return func(o *options) {
		o.cfg = cfg
	}
}

// WithInit replaces arisentity.Init as the shared init.
func WithInit(init func(context.Context) error) Option {
	return func(o *options) {
		o.init = init
	}
}

// WithGlue replaces arisentity.Glue as the glue lookup.
func WithGlue(lookup loader.GlueLookup) Option {
	return func(o *options) {
		o.glue = lookup
	}
}

// Mod is the constructed forge mod.
type Mod struct {
	adapter *Adapter
}

// Adapter returns the mod's adapter.
func (m *Mod) Adapter() *Adapter { return m.adapter }

// New constructs the mod: shared init now, extensions on the bus's
// ConstructModEvent.
func New(ctx context.Context, bus *Bus, host loader.Host, opts ...Option) (*Mod, error) {
	o := options{
		init: arisentity.Init,
		glue: arisentity.Glue,
		cfg:  config.Default(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	log.FromContext(ctx).InfoContext(ctx, "CTOR Entity")

	m := &Mod{adapter: NewAdapter(bus, host, o.cfg.ModID)}
	if err := loader.Boot(ctx, m.adapter, host, o.cfg, o.init, o.glue); err != nil {
		return nil, err
	}
	return m, nil
}
