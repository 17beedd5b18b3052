// Command arisentity boots the entity mod against a local aris runtime,
// exports its native function docs and checks manifests.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/dayo05/aris-extension-template/config"
)

func main() {
	c := &cli{stdout: os.Stdout, stderr: os.Stderr, lookup: os.LookupEnv}
	if err := c.run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type cli struct {
	stdout io.Writer
	stderr io.Writer
	lookup config.LookupFunc
}

func (c *cli) run(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return c.usageError()
	}
	switch args[1] {
	case "run":
		return c.runCommand(ctx, args[2:])
	case "docs":
		return c.docsCommand(ctx, args[2:])
	case "schema":
		return c.schemaCommand()
	case "validate":
		return c.validateCommand(args[2:])
	case "help", "-h", "--help":
		c.printUsage()
		return nil
	default:
		return c.usageError()
	}
}

func (c *cli) usageError() error {
	c.printUsage()
	return errors.New("invalid command")
}

func (c *cli) printUsage() {
	prog := filepath.Base(os.Args[0])
	fmt.Fprintf(c.stderr, "Usage: %s <command> [flags]\n", prog)
	fmt.Fprintln(c.stderr, "Commands:")
	fmt.Fprintln(c.stderr, "  run [-config file] [-loader fabric|forge] [-engine lua|wasm] [-kind init] [script]")
	fmt.Fprintln(c.stderr, "    boot the mod, build one engine of the kind and run the script in it")
	fmt.Fprintln(c.stderr, "  docs [-format markdown|json]")
	fmt.Fprintln(c.stderr, "    print the native function catalog")
	fmt.Fprintln(c.stderr, "  schema")
	fmt.Fprintln(c.stderr, "    print the manifest JSON schema")
	fmt.Fprintln(c.stderr, "  validate -config file")
	fmt.Fprintln(c.stderr, "    check a manifest")
}

type flagErrorSink struct{}

func (flagErrorSink) Write(p []byte) (int, error) {
	return len(p), nil
}

// loadConfig reads path, or the defaults when path is empty, then applies
// the environment and validates.
func (c *cli) loadConfig(path string) (config.Config, error) {
	cfg := config.Default()
	if path != "" {
		var err error
		if cfg, err = config.Load(path); err != nil {
			return config.Config{}, err
		}
	}
	cfg.ApplyEnv(c.lookup)
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}
