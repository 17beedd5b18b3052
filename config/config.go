// Package config describes a mod's manifest: identity, enabled loader
// platforms, the engine kinds it extends and its logging setup.
//
// A manifest is read from YAML or HCL with Load, overridden from the
// environment with ApplyEnv and checked with Validate.
package config

import (
	"fmt"
	"regexp"

	"github.com/Masterminds/semver/v3"
	"github.com/go-playground/validator/v10"

	"github.com/dayo05/aris-extension-template/aris"
	"github.com/dayo05/aris-extension-template/log"
)

// Config is a mod manifest.
type Config struct {
	ModID       string   `yaml:"mod_id" json:"mod_id" validate:"required,modid" jsonschema:"required,pattern=^[a-z][a-z0-9_]{1\\,63}$"`
	Name        string   `yaml:"name" json:"name,omitempty" validate:"max=128"`
	Description string   `yaml:"description" json:"description,omitempty"`
	Authors     []string `yaml:"authors" json:"authors,omitempty" validate:"dive,required"`
	// Version is the mod's semantic version.
	Version string `yaml:"version" json:"version" validate:"required" jsonschema:"required"`
	// ArisVersion constrains the host runtime, e.g. ">= 1.2, < 2".
	ArisVersion string    `yaml:"aris_version" json:"aris_version,omitempty"`
	ExportDoc   bool      `yaml:"export_doc" json:"export_doc,omitempty"`
	Platforms   Platforms `yaml:"platforms" json:"platforms"`
	Engines     Engines   `yaml:"engines" json:"engines"`
	Log         Log       `yaml:"log" json:"log"`
}

// Platforms selects the loader variants the mod boots under.
type Platforms struct {
	Fabric bool `yaml:"fabric" json:"fabric"`
	Forge  bool `yaml:"forge" json:"forge"`
}

// Enabled reports whether the named loader variant may boot. A manifest that
// enables neither platform falls back to fabric.
func (p Platforms) Enabled(variant string) bool {
	if !p.Fabric && !p.Forge {
		return variant == "fabric"
	}
	switch variant {
	case "fabric":
		return p.Fabric
	case "forge":
		return p.Forge
	}
	return false
}

// Engines selects the engine kinds the mod extends.
type Engines struct {
	Init         bool `yaml:"init" json:"init"`
	InGame       bool `yaml:"in_game" json:"in_game"`
	ClientInit   bool `yaml:"client_init" json:"client_init"`
	ClientMain   bool `yaml:"client_main" json:"client_main"`
	ClientInGame bool `yaml:"client_in_game" json:"client_in_game"`
}

// Kinds returns the extended engine kinds in start-up order.
func (e Engines) Kinds() []aris.EngineKind {
	enabled := map[aris.EngineKind]bool{
		aris.KindInit:         e.Init,
		aris.KindInGame:       e.InGame,
		aris.KindClientInit:   e.ClientInit,
		aris.KindClientMain:   e.ClientMain,
		aris.KindClientInGame: e.ClientInGame,
	}
	var out []aris.EngineKind
	for _, k := range aris.Kinds() {
		if enabled[k] {
			out = append(out, k)
		}
	}
	return out
}

// Log configures the process logger.
type Log struct {
	Level  string `yaml:"level" json:"level,omitempty" validate:"omitempty,oneof=debug info warn error" jsonschema:"enum=debug,enum=info,enum=warn,enum=error"`
	Format string `yaml:"format" json:"format,omitempty" validate:"omitempty,oneof=text json" jsonschema:"enum=text,enum=json"`
}

// Options converts l into logger options.
func (l Log) Options() (log.Options, error) {
	if _, err := log.ParseLevel(l.Level); err != nil {
		return log.Options{}, &ConfigError{Field: "log.level", Reason: "unknown level", Err: err}
	}
	format := log.FormatText
	if l.Format != "" {
		format = log.Format(l.Format)
	}
	return log.Options{Level: l.Level, Format: format}, nil
}

// Default returns the manifest used when no file is given: both platforms
// enabled and only the init engine extended.
func Default() Config {
	return Config{
		ModID:       "arisentity",
		Name:        "Aris Entity",
		Description: "Aris Extension Project",
		Authors:     []string{"Dayo"},
		Version:     "0.1.0",
		Platforms:   Platforms{Fabric: true, Forge: true},
		// The mod ships an init-engine extension, so that kind is on by default.
		Engines:     Engines{Init: true},
		Log:         Log{Level: "info", Format: string(log.FormatText)},
	}
}

var modIDPattern = regexp.MustCompile(`^[a-z][a-z0-9_]{1,63}$`)

// validate is a package-level singleton; validator caches struct metadata.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("modid", func(fl validator.FieldLevel) bool {
		return modIDPattern.MatchString(fl.Field().String())
	})
	return v
}

// Validate checks field constraints and the version strings.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		if errs, ok := err.(validator.ValidationErrors); ok && len(errs) > 0 {
			fe := errs[0]
			return &ConfigError{Field: fe.Namespace(), Reason: fmt.Sprintf("failed %q constraint", fe.Tag()), Err: err}
		}
		return fmt.Errorf("config validation failed: %w", err)
	}
	if _, err := semver.NewVersion(c.Version); err != nil {
		return &ConfigError{Field: "version", Reason: "not a semantic version", Err: err}
	}
	if c.ArisVersion != "" {
		if _, err := semver.NewConstraint(c.ArisVersion); err != nil {
			return &ConfigError{Field: "aris_version", Reason: "not a version constraint", Err: err}
		}
	}
	return nil
}

// CheckHost reports whether the host runtime version satisfies ArisVersion.
// An empty constraint accepts every host.
func (c Config) CheckHost(version string) error {
	if c.ArisVersion == "" {
		return nil
	}
	constraint, err := semver.NewConstraint(c.ArisVersion)
	if err != nil {
		return &ConfigError{Field: "aris_version", Reason: "not a version constraint", Err: err}
	}
	v, err := semver.NewVersion(version)
	if err != nil {
		return &ConfigError{Field: "aris_version", Reason: fmt.Sprintf("host version %q is not semantic", version), Err: err}
	}
	if ok, errs := constraint.Validate(v); !ok {
		var cause error
		if len(errs) > 0 {
			cause = errs[0]
		}
		return &ConfigError{Field: "aris_version", Reason: fmt.Sprintf("host %s does not satisfy %q", v, c.ArisVersion), Err: cause}
	}
	return nil
}
