package config

import (
	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// EnvPrefix is prepended to every environment variable name.
const EnvPrefix = "TASKMANAGER_"

// parseEnv loads an optional .env file and overlays Config with
// TASKMANAGER_* environment variables. Unset variables keep their
// current values.
func parseEnv(config *Config) error {
	// the .env file is optional
	_ = godotenv.Load()

	return env.ParseWithOptions(config, env.Options{Prefix: EnvPrefix})
}
