package binding_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dayo05/aris-extension-template/binding"
	"github.com/dayo05/aris-extension-template/binding/bindingtest"
)

func noop(context.Context, []any) ([]any, error) { return nil, nil }

func TestRegistry_RegisterDuplicate(t *testing.T) {
	tests := []struct {
		name     string
		provider string
		function string
	}{
		{name: "simple", provider: "P1", function: "test"},
		{name: "dotted provider", provider: "EntityInitProviderGenerated", function: "spawn"},
		{name: "unicode", provider: "P", function: "테스트"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg := binding.NewRegistry()
			require.NoError(t, reg.Register(tt.provider, tt.function, noop))

			err := reg.Register(tt.provider, tt.function, noop)
			require.Error(t, err)

			var dup *binding.DuplicateNameError
			require.ErrorAs(t, err, &dup)
			assert.Equal(t, tt.provider, dup.Provider)
			assert.Equal(t, tt.function, dup.Function)
		})
	}
}

func TestRegistry_SameNameDifferentProviders(t *testing.T) {
	reg := binding.NewRegistry()
	require.NoError(t, reg.Register("P1", "test", noop))
	require.NoError(t, reg.Register("P2", "test", noop))

	assert.True(t, reg.Has("P1", "test"))
	assert.True(t, reg.Has("P2", "test"))
	assert.Equal(t, []string{"P1", "P2"}, reg.Providers())
}

func TestRegistry_InvalidNames(t *testing.T) {
	reg := binding.NewRegistry()

	var invalid *binding.InvalidNameError
	assert.ErrorAs(t, reg.Register("", "test", noop), &invalid)
	assert.ErrorAs(t, reg.Register("P1", "", noop), &invalid)
	assert.ErrorAs(t, reg.Register("P1", "test", nil), &invalid)
	assert.ErrorAs(t, reg.Declare(""), &invalid)
	assert.Empty(t, reg.Providers())
}

func TestRegistry_RegisterProvider_AllOrNothing(t *testing.T) {
	reg := binding.NewRegistry()
	require.NoError(t, reg.Register("P1", "b", noop))

	err := reg.RegisterProvider(binding.NewProvider("P1",
		binding.Function{Name: "a", Fn: noop},
		binding.Function{Name: "b", Fn: noop},
	))
	var dup *binding.DuplicateNameError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, "b", dup.Function)
	assert.False(t, reg.Has("P1", "a"), "partial registration must not happen")

	err = reg.RegisterProvider(binding.NewProvider("P2",
		binding.Function{Name: "x", Fn: noop},
		binding.Function{Name: "x", Fn: noop},
	))
	require.ErrorAs(t, err, &dup)
	assert.NotContains(t, reg.Providers(), "P2")
}

func TestRegistry_FunctionsKeepDeclarationOrder(t *testing.T) {
	reg := binding.NewRegistry()
	require.NoError(t, reg.RegisterProvider(binding.NewProvider("P",
		binding.Function{Name: "zebra", Fn: noop},
		binding.Function{Name: "alpha", Fn: noop},
		binding.Function{Name: "middle", Fn: noop},
	)))

	fns, ok := reg.Functions("P")
	require.True(t, ok)
	names := make([]string, 0, len(fns))
	for _, f := range fns {
		names = append(names, f.Name)
	}
	assert.Equal(t, []string{"zebra", "alpha", "middle"}, names)

	_, ok = reg.Functions("missing")
	assert.False(t, ok)
}

func TestRegistry_InstallInto(t *testing.T) {
	reg := binding.NewRegistry()
	require.NoError(t, reg.Register("P1", "test", noop))
	require.NoError(t, reg.Register("P1", "spawn", noop))
	require.NoError(t, reg.Register("P2", "other", noop))

	engine := bindingtest.NewEngine("engine-a")
	require.NoError(t, reg.InstallInto(context.Background(), "P1", engine))

	assert.Equal(t, []string{"spawn", "test"}, engine.Names())
	for _, name := range engine.Names() {
		_, err := engine.Call(context.Background(), name)
		assert.NoError(t, err)
	}
}

func TestRegistry_InstallInto_EmptyProvider(t *testing.T) {
	reg := binding.NewRegistry()
	require.NoError(t, reg.Declare("Empty"))

	engine := bindingtest.NewEngine("engine-a")
	require.NoError(t, reg.InstallInto(context.Background(), "Empty", engine))
	assert.Empty(t, engine.Names())
	assert.Equal(t, 1, engine.BindCalls())
}

func TestRegistry_InstallInto_UnknownProvider(t *testing.T) {
	reg := binding.NewRegistry()
	require.NoError(t, reg.Register("P1", "test", noop))

	engine := bindingtest.NewEngine("engine-a")
	err := reg.InstallInto(context.Background(), "Nope", engine)

	var unknown *binding.UnknownProviderError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "Nope", unknown.Provider)
	assert.Empty(t, engine.Names())
	assert.Zero(t, engine.BindCalls(), "engine must not be touched")
}

func TestRegistry_InstallInto_EngineRejects(t *testing.T) {
	reg := binding.NewRegistry()
	require.NoError(t, reg.Register("P1", "test", noop))
	require.NoError(t, reg.Register("P1", "end", noop))

	engine := bindingtest.NewEngine("engine-a")
	engine.Reserve("end")

	err := reg.InstallInto(context.Background(), "P1", engine)
	var bindErr *binding.EngineBindingError
	require.ErrorAs(t, err, &bindErr)
	assert.Equal(t, "P1", bindErr.Provider)
	assert.Equal(t, "engine-a", bindErr.Engine)

	var rejected *binding.RejectedNameError
	require.ErrorAs(t, err, &rejected)
	assert.Equal(t, "end", rejected.Name)
	assert.Empty(t, engine.Names(), "installation is all-or-nothing")
}

func TestRegistry_InstallInto_Twice(t *testing.T) {
	reg := binding.NewRegistry()
	require.NoError(t, reg.Register("P1", "test", noop))

	engine := bindingtest.NewEngine("engine-a")
	require.NoError(t, reg.InstallInto(context.Background(), "P1", engine))

	err := reg.InstallInto(context.Background(), "P1", engine)
	var bindErr *binding.EngineBindingError
	assert.ErrorAs(t, err, &bindErr)
}

func TestRegistry_InstallInto_NilEngine(t *testing.T) {
	reg := binding.NewRegistry()
	require.NoError(t, reg.Declare("P1"))

	var invalid *binding.InvalidNameError
	assert.ErrorAs(t, reg.InstallInto(context.Background(), "P1", nil), &invalid)
}

func TestRegistry_EngineIsolation(t *testing.T) {
	reg := binding.NewRegistry()
	calls := map[string]int{}
	var mu sync.Mutex
	require.NoError(t, reg.Register("P1", "test", func(ctx context.Context, _ []any) ([]any, error) {
		info, ok := binding.CallInfoFrom(ctx)
		require.True(t, ok)
		mu.Lock()
		calls[info.Engine]++
		mu.Unlock()
		return nil, nil
	}))

	engineA := bindingtest.NewEngine("a")
	engineB := bindingtest.NewEngine("b")
	ctx := context.Background()

	require.NoError(t, reg.InstallInto(ctx, "P1", engineA))
	_, err := engineA.Call(ctx, "test")
	require.NoError(t, err)

	require.NoError(t, reg.InstallInto(ctx, "P1", engineB))

	_, err = engineA.Call(ctx, "test")
	require.NoError(t, err)
	_, err = engineB.Call(ctx, "test")
	require.NoError(t, err)

	assert.Equal(t, map[string]int{"a": 2, "b": 1}, calls)
	assert.Equal(t, []string{"test"}, engineA.Names())
}

func TestRegistry_ConcurrentInstall(t *testing.T) {
	reg := binding.NewRegistry()
	for i := 0; i < 8; i++ {
		require.NoError(t, reg.Register("P1", fmt.Sprintf("fn%d", i), noop))
	}
	reg.Seal()

	const engines = 32
	errs := make(chan error, engines)
	var wg sync.WaitGroup
	for i := 0; i < engines; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			engine := bindingtest.NewEngine(fmt.Sprintf("engine-%d", i))
			if err := reg.InstallInto(context.Background(), "P1", engine); err != nil {
				errs <- err
				return
			}
			if got := len(engine.Names()); got != 8 {
				errs <- fmt.Errorf("engine-%d: got %d bindings", i, got)
			}
		}(i)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Error(err)
	}
}

func TestRegistry_Seal(t *testing.T) {
	reg := binding.NewRegistry()
	require.NoError(t, reg.Register("P1", "test", noop))
	reg.Seal()

	assert.True(t, reg.Sealed())
	assert.ErrorIs(t, reg.Register("P1", "other", noop), binding.ErrSealed)
	assert.ErrorIs(t, reg.Declare("P2"), binding.ErrSealed)
	assert.ErrorIs(t, reg.RegisterProvider(binding.NewProvider("P3")), binding.ErrSealed)
	require.NoError(t, reg.InstallInto(context.Background(), "P1", bindingtest.NewEngine("a")))
}

func TestRegistry_MiddlewareOrder(t *testing.T) {
	var order []string
	mw := func(tag string) binding.Middleware {
		return func(next binding.Func) binding.Func {
			return func(ctx context.Context, args []any) ([]any, error) {
				order = append(order, tag+"-before")
				out, err := next(ctx, args)
				order = append(order, tag+"-after")
				return out, err
			}
		}
	}

	reg := binding.NewRegistry(binding.WithMiddleware(mw("mw1"), mw("mw2")))
	require.NoError(t, reg.Register("P1", "test", func(context.Context, []any) ([]any, error) {
		order = append(order, "fn")
		return nil, nil
	}))

	engine := bindingtest.NewEngine("a")
	require.NoError(t, reg.InstallInto(context.Background(), "P1", engine))
	_, err := engine.Call(context.Background(), "test")
	require.NoError(t, err)

	assert.Equal(t, []string{"mw1-before", "mw2-before", "fn", "mw2-after", "mw1-after"}, order)
}

func TestRegistry_ForcedEngineFailureKeepsOwnError(t *testing.T) {
	reg := binding.NewRegistry()
	require.NoError(t, reg.Register("P1", "test", noop))

	sentinel := errors.New("engine closed")
	engine := bindingtest.NewEngine("a")
	engine.FailWith = sentinel

	err := reg.InstallInto(context.Background(), "P1", engine)
	assert.ErrorIs(t, err, sentinel)

	preWrapped := &binding.EngineBindingError{Err: sentinel, Provider: "P1", Engine: "custom"}
	engine.FailWith = preWrapped
	err = reg.InstallInto(context.Background(), "P1", engine)
	var bindErr *binding.EngineBindingError
	require.ErrorAs(t, err, &bindErr)
	assert.Equal(t, "custom", bindErr.Engine)
}
