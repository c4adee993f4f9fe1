package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Env holds the settings read from the environment.
type Env struct {
	OutputDir string `env:"MICROMAG_OUTPUT_DIR"`
	Database  string `env:"MICROMAG_DB"`
	LogLevel  string `env:"MICROMAG_LOG_LEVEL" envDefault:"ops"`
}

// ParseEnv loads Env from environment variables.
func ParseEnv() (Env, error) {
	var e Env
	if err := env.Parse(&e); err != nil {
		return Env{}, fmt.Errorf("parse env: %w", err)
	}
	return e, nil
}

// ApplyEnv overrides the output directory and database of c with the
// environment values that are set.
func (c *RunConfig) ApplyEnv(e Env) {
	if e.OutputDir != "" {
		c.OutputDir = ptrString(e.OutputDir)
	}
	if e.Database != "" {
		c.Database = ptrString(e.Database)
	}
}
