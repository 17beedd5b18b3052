package arisentity_test

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dayo05/aris-extension-template/aris"
	"github.com/dayo05/aris-extension-template/arisentity"
	"github.com/dayo05/aris-extension-template/arisentity/functions"
	"github.com/dayo05/aris-extension-template/binding"
	"github.com/dayo05/aris-extension-template/loader/fabric"
	"github.com/dayo05/aris-extension-template/loader/forge"
	"github.com/dayo05/aris-extension-template/log"
)

// Both loader variants boot in one process and into one host against
// binding.Default; the provider is declared once and installed once per engine.
func TestInit_AcrossVariants(t *testing.T) {
	rec := log.NewRecorder(slog.LevelInfo)
	ctx := log.WithLogger(context.Background(), slog.New(rec))
	host := aris.NewRuntime()
	defer host.Shutdown(ctx)

	require.NoError(t, fabric.NewMod(host).OnInitialize(ctx))

	bus := forge.NewBus()
	_, err := forge.New(ctx, bus, host)
	require.NoError(t, err)
	require.NoError(t, bus.Post(ctx, forge.ConstructModEvent{ModID: arisentity.ModID}))

	require.NoError(t, arisentity.Init(ctx))

	fns, ok := binding.Default.Functions(functions.ProviderName)
	require.True(t, ok)
	assert.Len(t, fns, 1)
	assert.Equal(t, 1, rec.Count(slog.LevelInfo, "providers declared"))
	assert.Equal(t, 2, host.Extensions(aris.KindInit))

	for n := 0; n < 2; n++ {
		engine, err := host.NewEngine(ctx, aris.KindInit)
		require.NoError(t, err)
		lua, ok := engine.(aris.LuaEngine)
		require.True(t, ok)

		rec.Reset()
		require.NoError(t, lua.DoString(ctx, "test()"))
		assert.Equal(t, 1, rec.Count(slog.LevelInfo, "Test"))

		require.NoError(t, host.CloseEngine(ctx, engine))
	}
}
