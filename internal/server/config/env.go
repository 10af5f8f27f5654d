package config

import "github.com/kelseyhightower/envconfig"

// EnvPrefix namespaces the environment variables read by parseEnv,
// e.g. AGRITRUST_DATABASE_DSN.
const EnvPrefix = "AGRITRUST"

// parseEnv overlays fields whose AGRITRUST_* variable is set. Unset
// variables leave the current value untouched. Durations use Go syntax
// ("15m"), lists are comma separated. Invalid values panic, like the
// JSON and flag layers.
func parseEnv(config *Config) {
	if err := envconfig.Process(EnvPrefix, config); err != nil {
		panic(err)
	}
}
