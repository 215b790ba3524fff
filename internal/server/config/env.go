package config

import (
	"github.com/caarlos0/env/v11"
)

// parseEnv overlays config with the environment variables named in the
// struct tags. Unset variables leave fields untouched; malformed values panic.
func parseEnv(config *Config) {
	if err := env.Parse(config); err != nil {
		panic(err)
	}
}
