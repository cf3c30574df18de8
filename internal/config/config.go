// Package config holds the CLI run configuration. Defaults come from
// the environment, flags take precedence.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	ProjectPath  string  `env:"ANIMKIT_PROJECT"`
	ProjectsDir  string  `env:"ANIMKIT_PROJECTS_DIR" envDefault:"projects"`
	SavePath     string  `env:"ANIMKIT_SAVE"`
	LoadPath     string  `env:"ANIMKIT_LOAD"`
	PreviewPath  string  `env:"ANIMKIT_PREVIEW"`
	PreviewWidth int     `env:"ANIMKIT_PREVIEW_WIDTH" envDefault:"640"`
	FPS          float64 `env:"ANIMKIT_FPS" envDefault:"60"`
	Play         bool    `env:"ANIMKIT_PLAY"`
	ShowStats    bool    `env:"ANIMKIT_STATS"`
	BuildVersion string
}

// FromEnv loads configuration from environment variables.
func FromEnv() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return &cfg, nil
}
