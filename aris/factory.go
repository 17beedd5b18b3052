package aris

import (
	"context"

	"github.com/dayo05/aris-extension-template/engine/luaengine"
	"github.com/dayo05/aris-extension-template/engine/wasmengine"
)

// LuaEngine adapts a luaengine.Engine to the host Engine interface.
type LuaEngine struct {
	*luaengine.Engine
}

// Close implements Engine.
func (e LuaEngine) Close(context.Context) error {
	e.Engine.Close()
	return nil
}

// LuaFactory builds Lua engines labelled with their kind.
func LuaFactory(opts ...luaengine.Option) Factory {
	return func(_ context.Context, kind EngineKind) (Engine, error) {
		all := append([]luaengine.Option{luaengine.WithLabel(string(kind))}, opts...)
		return LuaEngine{luaengine.New(all...)}, nil
	}
}

// WasmFactory builds wazero engines labelled with their kind.
func WasmFactory(opts ...wasmengine.Option) Factory {
	return func(ctx context.Context, kind EngineKind) (Engine, error) {
		all := append([]wasmengine.Option{wasmengine.WithLabel(string(kind))}, opts...)
		return wasmengine.New(ctx, all...), nil
	}
}
