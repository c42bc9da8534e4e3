package config

import (
	"os"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/maxbolgarin/errm"
	"github.com/maxbolgarin/revy/internal/agent"
	"github.com/maxbolgarin/revy/internal/provider"
	"github.com/maxbolgarin/revy/internal/reviewer"
	"github.com/maxbolgarin/revy/internal/server"
)

// Config represents the main application configuration
type Config struct {
	Server   server.Config   `yaml:"server"`
	Provider provider.Config `yaml:"provider"`
	Agent    agent.Config    `yaml:"agent"`
	Reviewer reviewer.Config `yaml:"reviewer"`
}

// Load reads configuration from the given YAML file, then applies
// environment variable overrides. An empty path means env-only config.
func Load(path string) (Config, error) {
	var cfg Config

	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return cfg, errm.Wrap(err, "config file is not accessible")
		}
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return cfg, errm.Wrap(err, "failed to read config file")
		}
		return cfg, nil
	}

	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return cfg, errm.Wrap(err, "failed to read config from environment")
	}

	return cfg, nil
}
