// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Tidemush Contributors

package main

import (
	"os"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"
)

// Config holds runtime configuration shared by the subcommands.
//
// Precedence, lowest to highest: flag defaults, config file, flags changed
// on the command line. The DATABASE_URL environment variable overrides the
// database URL from all of those.
type Config struct {
	DatabaseURL string `koanf:"database-url"`
	MetricsAddr string `koanf:"metrics-addr"`
	LogFormat   string `koanf:"log-format"`
	LogLevel    string `koanf:"log-level"`
}

// Validate checks that the configuration is valid. Empty values are left
// alone; the consumers apply their own defaults.
func (cfg *Config) Validate() error {
	if cfg.LogFormat != "" && cfg.LogFormat != "json" && cfg.LogFormat != "text" {
		return oops.Code("CONFIG_INVALID").
			Errorf("log-format must be 'json' or 'text', got %q", cfg.LogFormat)
	}
	return nil
}

// LoadConfig loads configuration from an optional YAML file and the given
// flag set.
func LoadConfig(path string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, oops.Code("CONFIG_INVALID").
				With("path", path).
				Wrap(err)
		}
	}

	// Passing k here makes flags still at their default value defer to
	// keys the file already set.
	if err := k.Load(posflag.Provider(flags, ".", k), nil); err != nil {
		return nil, oops.Code("CONFIG_INVALID").
			With("operation", "merge flags").
			Wrap(err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, oops.Code("CONFIG_INVALID").
			With("operation", "unmarshal config").
			Wrap(err)
	}

	if env := os.Getenv("DATABASE_URL"); env != "" {
		cfg.DatabaseURL = env
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
