package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"gopkg.in/yaml.v3"
)

// Load reads a manifest from path on top of Default. The format follows the
// file extension: .yaml, .yml or .hcl.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config: %w", err)
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		return parseYAML(data)
	case ".hcl":
		return parseHCL(path, data)
	default:
		return Config{}, &ConfigError{Field: "path", Reason: fmt.Sprintf("unsupported extension %q", ext)}
	}
}

func parseYAML(data []byte) (Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse yaml config: %w", err)
	}
	return cfg, nil
}

type hclConfig struct {
	ModID       string        `hcl:"mod_id,optional"`
	Name        string        `hcl:"name,optional"`
	Description string        `hcl:"description,optional"`
	Authors     []string      `hcl:"authors,optional"`
	Version     string        `hcl:"version,optional"`
	ArisVersion string        `hcl:"aris_version,optional"`
	ExportDoc   *bool         `hcl:"export_doc,optional"`
	Platforms   *hclPlatforms `hcl:"platforms,block"`
	Engines     *hclEngines   `hcl:"engines,block"`
	Log         *hclLog       `hcl:"log,block"`
}

type hclPlatforms struct {
	Fabric *bool `hcl:"fabric,optional"`
	Forge  *bool `hcl:"forge,optional"`
}

type hclEngines struct {
	Init         *bool `hcl:"init,optional"`
	InGame       *bool `hcl:"in_game,optional"`
	ClientInit   *bool `hcl:"client_init,optional"`
	ClientMain   *bool `hcl:"client_main,optional"`
	ClientInGame *bool `hcl:"client_in_game,optional"`
}

type hclLog struct {
	Level  string `hcl:"level,optional"`
	Format string `hcl:"format,optional"`
}

func parseHCL(filename string, data []byte) (Config, error) {
	file, diags := hclparse.NewParser().ParseHCL(data, filename)
	if diags.HasErrors() {
		return Config{}, fmt.Errorf("failed to parse hcl config: %w", diags)
	}
	var raw hclConfig
	if diags := gohcl.DecodeBody(file.Body, nil, &raw); diags.HasErrors() {
		return Config{}, fmt.Errorf("failed to decode hcl config: %w", diags)
	}

	cfg := Default()
	setString(&cfg.ModID, raw.ModID)
	setString(&cfg.Name, raw.Name)
	setString(&cfg.Description, raw.Description)
	setString(&cfg.Version, raw.Version)
	setString(&cfg.ArisVersion, raw.ArisVersion)
	if raw.Authors != nil {
		cfg.Authors = raw.Authors
	}
	setBool(&cfg.ExportDoc, raw.ExportDoc)
	if p := raw.Platforms; p != nil {
		setBool(&cfg.Platforms.Fabric, p.Fabric)
		setBool(&cfg.Platforms.Forge, p.Forge)
	}
	if e := raw.Engines; e != nil {
		setBool(&cfg.Engines.Init, e.Init)
		setBool(&cfg.Engines.InGame, e.InGame)
		setBool(&cfg.Engines.ClientInit, e.ClientInit)
		setBool(&cfg.Engines.ClientMain, e.ClientMain)
		setBool(&cfg.Engines.ClientInGame, e.ClientInGame)
	}
	if l := raw.Log; l != nil {
		setString(&cfg.Log.Level, l.Level)
		setString(&cfg.Log.Format, l.Format)
	}
	return cfg, nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setBool(dst *bool, v *bool) {
	if v != nil {
		*dst = *v
	}
}
