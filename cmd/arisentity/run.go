package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dayo05/aris-extension-template/aris"
	"github.com/dayo05/aris-extension-template/binding"
	"github.com/dayo05/aris-extension-template/config"
	"github.com/dayo05/aris-extension-template/engine/wasmengine"
	"github.com/dayo05/aris-extension-template/loader"
	"github.com/dayo05/aris-extension-template/loader/fabric"
	"github.com/dayo05/aris-extension-template/loader/forge"
	"github.com/dayo05/aris-extension-template/log"
)

func (c *cli) runCommand(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	fs.SetOutput(new(flagErrorSink))
	configPath := fs.String("config", "", "manifest file (.yaml, .yml or .hcl)")
	variantName := fs.String("loader", string(loader.Fabric), "loader variant to boot under")
	engineName := fs.String("engine", "lua", "engine backend: lua or wasm")
	kindName := fs.String("kind", string(aris.KindInit), "engine kind to construct")
	docDir := fs.String("doc-dir", ".", "directory for exported docs when the manifest sets export_doc")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := c.loadConfig(*configPath)
	if err != nil {
		return err
	}
	variant, err := loader.ParseVariant(*variantName)
	if err != nil {
		return err
	}
	kind, err := aris.ParseKind(*kindName)
	if err != nil {
		return err
	}
	var factory aris.Factory
	switch *engineName {
	case "lua":
		factory = aris.LuaFactory()
	case "wasm":
		factory = aris.WasmFactory()
	default:
		return fmt.Errorf("unknown engine %q", *engineName)
	}

	logOpts, err := cfg.Log.Options()
	if err != nil {
		return err
	}
	logger, err := log.New(c.stderr, logOpts)
	if err != nil {
		return err
	}
	ctx = log.WithLogger(ctx, logger)

	host := aris.NewRuntime(aris.WithFactory(factory), aris.WithLogger(logger))
	defer func() {
		if err := host.Shutdown(ctx); err != nil {
			logger.WarnContext(ctx, "shutdown failed", "error", err)
		}
	}()

	if err := boot(ctx, variant, host, cfg); err != nil {
		return err
	}
	binding.Default.Seal()
	if cfg.ExportDoc {
		path, err := exportDocs(*docDir, cfg.ModID)
		if err != nil {
			return err
		}
		logger.InfoContext(ctx, "docs exported", "path", path)
	}

	engine, err := host.NewEngine(ctx, kind)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.stdout, "%s engine %s ready\n", kind, engine.ID())

	if fs.NArg() == 0 {
		return nil
	}
	return execute(ctx, engine, fs.Arg(0))
}

func boot(ctx context.Context, variant loader.Variant, host *aris.Runtime, cfg config.Config) error {
	switch variant {
	case loader.Forge:
		bus := forge.NewBus()
		if _, err := forge.New(ctx, bus, host, forge.WithConfig(cfg)); err != nil {
			return err
		}
		return bus.Post(ctx, forge.ConstructModEvent{ModID: cfg.ModID})
	default:
		return fabric.NewMod(host, fabric.WithConfig(cfg)).OnInitialize(ctx)
	}
}

// execute runs a Lua script or instantiates a wasm guest in engine.
func execute(ctx context.Context, engine aris.Engine, path string) error {
	switch e := engine.(type) {
	case aris.LuaEngine:
		if err := e.DoFile(ctx, path); err != nil {
			return fmt.Errorf("execution failed: %w", err)
		}
		return nil
	case *wasmengine.Engine:
		wasm, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read guest: %w", err)
		}
		name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		if _, err := e.Instantiate(ctx, name, wasm); err != nil {
			return fmt.Errorf("execution failed: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("engine %s cannot run %s", engine.ID(), path)
	}
}
