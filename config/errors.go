package config

import "fmt"

// ConfigError reports an unusable manifest field.
type ConfigError struct {
	Err    error
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("config: field %s: %s: %v", e.Field, e.Reason, e.Err)
	}
	return fmt.Sprintf("config: field %s: %s", e.Field, e.Reason)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}
