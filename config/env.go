package config

import "strings"

// LookupFunc matches os.LookupEnv.
type LookupFunc func(key string) (string, bool)

// ApplyEnv overrides c from environment variables. Flags are true only for
// the literal "true", compared case-insensitively.
func (c *Config) ApplyEnv(lookup LookupFunc) {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	flag := func(key string, dst *bool) {
		if v, ok := lookup(key); ok {
			*dst = strings.EqualFold(strings.TrimSpace(v), "true")
		}
	}

	str("MOD_ID", &c.ModID)
	str("ARCHIVES_NAME", &c.Name)
	str("MOD_DESCRIPTION", &c.Description)
	if v, ok := lookup("MOD_AUTHOR"); ok && v != "" {
		c.Authors = splitList(v)
	}
	str("MOD_VERSION", &c.Version)
	str("ARIS_VERSION", &c.ArisVersion)

	flag("ENABLE_FABRIC", &c.Platforms.Fabric)
	flag("ENABLE_FORGE", &c.Platforms.Forge)
	flag("EXTEND_INIT_ENGINE", &c.Engines.Init)
	flag("EXTEND_IN_GAME_ENGINE", &c.Engines.InGame)
	flag("EXTEND_CLIENT_INIT_ENGINE", &c.Engines.ClientInit)
	flag("EXTEND_CLIENT_MAIN_ENGINE", &c.Engines.ClientMain)
	flag("EXTEND_CLIENT_IN_GAME_ENGINE", &c.Engines.ClientInGame)
	flag("EXPORT_DOC_ON_BUILD", &c.ExportDoc)

	str("LOG_LEVEL", &c.Log.Level)
	str("LOG_FORMAT", &c.Log.Format)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
