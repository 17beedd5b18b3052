package loader_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dayo05/aris-extension-template/aris"
	"github.com/dayo05/aris-extension-template/binding"
	"github.com/dayo05/aris-extension-template/binding/bindingtest"
	"github.com/dayo05/aris-extension-template/config"
	"github.com/dayo05/aris-extension-template/loader"
)

type fakeHost struct {
	version string
	added   []aris.EngineKind
}

func (h *fakeHost) Version() string { return h.version }

func (h *fakeHost) AddExtension(kind aris.EngineKind, _ aris.Initializer) {
	h.added = append(h.added, kind)
}

type fakeAdapter struct {
	variant loader.Variant
	host    *fakeHost
	fail    error
}

func (a *fakeAdapter) Variant() loader.Variant { return a.variant }

func (a *fakeAdapter) RegisterExtension(ext *loader.Extension) error {
	if a.fail != nil {
		return a.fail
	}
	a.host.AddExtension(ext.Kind(), ext)
	return nil
}

type fakeGlue struct {
	calls int
	err   error
}

func (g *fakeGlue) InitEngine(context.Context, binding.Engine) error {
	g.calls++
	return g.err
}

func lookupAll(g loader.Glue) loader.GlueLookup {
	return func(aris.EngineKind) (loader.Glue, bool) { return g, true }
}

func TestParseVariant(t *testing.T) {
	v, err := loader.ParseVariant("forge")
	require.NoError(t, err)
	assert.Equal(t, loader.Forge, v)

	_, err = loader.ParseVariant("quilt")
	assert.Error(t, err)
}

func TestRun_RegistersAfterInit(t *testing.T) {
	host := &fakeHost{}
	adapter := &fakeAdapter{variant: loader.Fabric, host: host}
	ext := loader.NewExtension(loader.Fabric, aris.KindInit, &fakeGlue{})

	var inited bool
	err := loader.Run(context.Background(), adapter, func(context.Context) error {
		inited = true
		assert.Empty(t, host.added, "init runs before registration")
		return nil
	}, ext)

	require.NoError(t, err)
	assert.True(t, inited)
	assert.Equal(t, []aris.EngineKind{aris.KindInit}, host.added)
	assert.Equal(t, loader.Registered, ext.State("any"))
}

func TestRun_InitFailureRegistersNothing(t *testing.T) {
	host := &fakeHost{}
	adapter := &fakeAdapter{variant: loader.Forge, host: host}
	ext := loader.NewExtension(loader.Forge, aris.KindInit, &fakeGlue{})
	boom := errors.New("boom")

	err := loader.Run(context.Background(), adapter, func(context.Context) error { return boom }, ext)

	assert.ErrorIs(t, err, boom)
	assert.Empty(t, host.added)
	assert.Equal(t, loader.Unregistered, ext.State("any"))
}

func TestRun_AdapterFailureLeavesExtensionUnregistered(t *testing.T) {
	boom := errors.New("refused")
	adapter := &fakeAdapter{variant: loader.Fabric, host: &fakeHost{}, fail: boom}
	ext := loader.NewExtension(loader.Fabric, aris.KindInit, &fakeGlue{})

	err := loader.Run(context.Background(), adapter, nil, ext)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, loader.Unregistered, ext.State("any"))
}

func TestBoot(t *testing.T) {
	t.Run("registers enabled kinds", func(t *testing.T) {
		host := &fakeHost{version: aris.Version}
		cfg := config.Default()
		cfg.Engines.ClientMain = true

		err := loader.Boot(context.Background(), &fakeAdapter{variant: loader.Fabric, host: host}, host, cfg, nil, lookupAll(&fakeGlue{}))
		require.NoError(t, err)
		assert.Equal(t, []aris.EngineKind{aris.KindInit, aris.KindClientMain}, host.added)
	})

	t.Run("disabled variant", func(t *testing.T) {
		host := &fakeHost{version: aris.Version}
		cfg := config.Default()
		cfg.Platforms.Forge = false

		var inited bool
		err := loader.Boot(context.Background(), &fakeAdapter{variant: loader.Forge, host: host}, host, cfg,
			func(context.Context) error { inited = true; return nil }, lookupAll(&fakeGlue{}))
		assert.ErrorIs(t, err, loader.ErrVariantDisabled)
		assert.False(t, inited)
		assert.Empty(t, host.added)
	})

	t.Run("incompatible host", func(t *testing.T) {
		host := &fakeHost{version: "3.0.0"}
		cfg := config.Default()
		cfg.ArisVersion = "^1.2"

		err := loader.Boot(context.Background(), &fakeAdapter{variant: loader.Fabric, host: host}, host, cfg, nil, lookupAll(&fakeGlue{}))
		var cfgErr *config.ConfigError
		assert.ErrorAs(t, err, &cfgErr)
	})

	t.Run("missing glue", func(t *testing.T) {
		host := &fakeHost{version: aris.Version}
		cfg := config.Default()
		cfg.Engines.InGame = true
		lookup := func(kind aris.EngineKind) (loader.Glue, bool) {
			return &fakeGlue{}, kind == aris.KindInit
		}

		err := loader.Boot(context.Background(), &fakeAdapter{variant: loader.Fabric, host: host}, host, cfg, nil, lookup)
		var missing *loader.MissingGlueError
		require.ErrorAs(t, err, &missing)
		assert.Equal(t, aris.KindInGame, missing.Kind)
		assert.Empty(t, host.added)
	})
}

func TestExtension_Lifecycle(t *testing.T) {
	ctx := context.Background()
	g := &fakeGlue{}
	ext := loader.NewExtension(loader.Fabric, aris.KindInit, g)
	engine := bindingtest.NewEngine("engine-a")

	assert.ErrorIs(t, ext.InitLua(ctx, engine), loader.ErrNotRegistered)
	assert.Zero(t, g.calls)

	ext.MarkRegistered()
	assert.Equal(t, loader.Registered, ext.State("engine-a"))

	require.NoError(t, ext.InitLua(ctx, engine))
	assert.Equal(t, loader.Invoked, ext.State("engine-a"))

	var again *loader.AlreadyInvokedError
	require.ErrorAs(t, ext.InitLua(ctx, engine), &again)
	assert.Equal(t, "engine-a", again.Engine)
	assert.Equal(t, 1, g.calls)

	other := bindingtest.NewEngine("engine-b")
	require.NoError(t, ext.InitLua(ctx, other))
	assert.Equal(t, loader.Invoked, ext.State("engine-b"))
	assert.Equal(t, 2, g.calls)
}

func TestExtension_FailureIsReturnedUnchanged(t *testing.T) {
	ctx := context.Background()
	glueErr := &binding.UnknownProviderError{Provider: "EntityInitProviderGenerated"}
	g := &fakeGlue{err: glueErr}
	ext := loader.NewExtension(loader.Forge, aris.KindInit, g)
	ext.MarkRegistered()
	engine := bindingtest.NewEngine("engine-a")

	err := ext.InitLua(ctx, engine)
	assert.Same(t, glueErr, err)
	assert.Equal(t, loader.Registered, ext.State("engine-a"))

	g.err = nil
	require.NoError(t, ext.InitLua(ctx, engine), "a failed engine may be retried")
	assert.Equal(t, loader.Invoked, ext.State("engine-a"))
}

type forgettingGlue struct {
	fakeGlue
	forgotten []string
}

func (g *forgettingGlue) Forget(id string) {
	g.forgotten = append(g.forgotten, id)
}

func TestExtension_Forget(t *testing.T) {
	ctx := context.Background()
	g := &forgettingGlue{}
	ext := loader.NewExtension(loader.Fabric, aris.KindInit, g)
	ext.MarkRegistered()
	engine := bindingtest.NewEngine("engine-a")

	require.NoError(t, ext.InitLua(ctx, engine))
	assert.Equal(t, loader.Invoked, ext.State("engine-a"))

	ext.Forget("engine-a")
	assert.Equal(t, loader.Registered, ext.State("engine-a"))
	assert.Equal(t, []string{"engine-a"}, g.forgotten)

	require.NoError(t, ext.InitLua(ctx, engine), "a forgotten id may be reused")
	assert.Equal(t, 2, g.calls)
}

func TestExtension_NilEngine(t *testing.T) {
	ext := loader.NewExtension(loader.Fabric, aris.KindInit, &fakeGlue{})
	ext.MarkRegistered()
	assert.Error(t, ext.InitLua(context.Background(), nil))
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "invoked", loader.Invoked.String())
	assert.Equal(t, "State(9)", loader.State(9).String())
}
