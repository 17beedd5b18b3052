package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/dayo05/aris-extension-template/arisentity"
	"github.com/dayo05/aris-extension-template/binding"
	"github.com/dayo05/aris-extension-template/config"
)

func (c *cli) docsCommand(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("docs", flag.ContinueOnError)
	fs.SetOutput(new(flagErrorSink))
	format := fs.String("format", "markdown", "output format: markdown or json")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *format != "markdown" && *format != "json" {
		return fmt.Errorf("unknown docs format %q", *format)
	}

	if err := arisentity.Init(ctx); err != nil {
		return err
	}
	catalog, err := binding.Describe(binding.Default)
	if err != nil {
		return err
	}
	if *format == "markdown" {
		return catalog.WriteMarkdown(c.stdout)
	}
	data, err := json.MarshalIndent(catalog, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal catalog: %w", err)
	}
	_, err = fmt.Fprintln(c.stdout, string(data))
	return err
}

func (c *cli) schemaCommand() error {
	data, err := config.Schema()
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(c.stdout, string(data))
	return err
}

func (c *cli) validateCommand(args []string) error {
	fs := flag.NewFlagSet("validate", flag.ContinueOnError)
	fs.SetOutput(new(flagErrorSink))
	configPath := fs.String("config", "", "manifest file (.yaml, .yml or .hcl)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *configPath == "" {
		return errors.New("arisentity validate: -config required")
	}
	cfg, err := c.loadConfig(*configPath)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.stdout, "ok: %s %s (%s)\n", cfg.ModID, cfg.Version, kindsSummary(cfg))
	return nil
}

func kindsSummary(cfg config.Config) string {
	kinds := cfg.Engines.Kinds()
	if len(kinds) == 0 {
		return "no engines extended"
	}
	names := make([]string, len(kinds))
	for i, k := range kinds {
		names[i] = string(k)
	}
	return strings.Join(names, ", ")
}

// exportDocs writes the catalog of binding.Default as Markdown to
// dir/<mod id>.md.
func exportDocs(dir, modID string) (string, error) {
	catalog, err := binding.Describe(binding.Default)
	if err != nil {
		return "", err
	}
	path := filepath.Join(dir, modID+".md")
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create docs: %w", err)
	}
	if err := writeDocs(f, catalog); err != nil {
		return "", err
	}
	return path, nil
}

// writeDocs renders catalog into w and closes it, reporting the close error
// when rendering succeeded.
func writeDocs(w io.WriteCloser, catalog *binding.Catalog) error {
	if err := catalog.WriteMarkdown(w); err != nil {
		_ = w.Close()
		return err
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("close docs: %w", err)
	}
	return nil
}
