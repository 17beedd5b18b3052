// Package arisentity is the entity mod's shared entry: the init that every
// loader variant runs and the glue each extension installs.
package arisentity

import (
	"context"
	"fmt"
	"sync"

	"github.com/dayo05/aris-extension-template/aris"
	"github.com/dayo05/aris-extension-template/arisentity/functions"
	"github.com/dayo05/aris-extension-template/arisentity/glue"
	"github.com/dayo05/aris-extension-template/binding"
	"github.com/dayo05/aris-extension-template/loader"
	"github.com/dayo05/aris-extension-template/log"
)

// ModID is the mod identifier both loaders register under.
const ModID = "arisentity"

// initializer declares the mod's providers exactly once per registry and
// hands every loader variant the same glue per engine kind.
type initializer struct {
	registry *binding.Registry
	once     sync.Once
	err      error

	mu    sync.Mutex
	glues map[aris.EngineKind]*sharedGlue
}

func newInitializer(r *binding.Registry) *initializer {
	return &initializer{registry: r, glues: make(map[aris.EngineKind]*sharedGlue)}
}

func (i *initializer) run(ctx context.Context) error {
	i.once.Do(func() {
		if err := functions.Declare(i.registry); err != nil {
			i.err = fmt.Errorf("%s: declare providers: %w", ModID, err)
			return
		}
		log.FromContext(ctx).InfoContext(ctx, "providers declared",
			"mod_id", ModID, "providers", i.registry.Providers())
	})
	return i.err
}

func (i *initializer) glue(kind aris.EngineKind) (loader.Glue, bool) {
	i.mu.Lock()
	defer i.mu.Unlock()

	if g, ok := i.glues[kind]; ok {
		return g, true
	}
	e, ok := glue.For(kind)
	if !ok {
		return nil, false
	}
	g := &sharedGlue{entry: e.WithRegistry(i.registry), engines: make(map[string]bool)}
	i.glues[kind] = g
	return g, true
}

// sharedGlue installs its entry at most once per engine, however many loader
// variants registered an extension for the kind.
type sharedGlue struct {
	entry glue.Entry

	mu sync.Mutex
	// engine id -> true once installed, false while installing
	engines map[string]bool
}

func (g *sharedGlue) InitEngine(ctx context.Context, engine binding.Engine) error {
	id := engine.ID()

	g.mu.Lock()
	if _, seen := g.engines[id]; seen {
		g.mu.Unlock()
		log.FromContext(ctx).DebugContext(ctx, "provider already installed",
			"provider", g.entry.Provider, "engine", id)
		return nil
	}
	g.engines[id] = false
	g.mu.Unlock()

	err := g.entry.InitEngine(ctx, engine)

	g.mu.Lock()
	defer g.mu.Unlock()
	if err != nil {
		delete(g.engines, id)
		return err
	}
	g.engines[id] = true
	return nil
}

// Forget implements aris.Forgetter.
func (g *sharedGlue) Forget(engineID string) {
	g.mu.Lock()
	delete(g.engines, engineID)
	g.mu.Unlock()
}

var shared = newInitializer(binding.Default)

// Init declares the mod's providers into binding.Default. Only the first
// call does any work; later calls, from any loader variant, return its error.
func Init(ctx context.Context) error {
	return shared.run(ctx)
}

// Glue returns the glue installed into engines of kind.
func Glue(kind aris.EngineKind) (loader.Glue, bool) {
	return shared.glue(kind)
}
