// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatekeeper Contributors

// Package config loads process configuration from defaults, an optional
// YAML file, and command-line flags, in that order of precedence.
package config

import (
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"
)

// RedisConfig locates the key-value backend.
type RedisConfig struct {
	Addr     string `koanf:"addr"`
	Password string `koanf:"password"`
	DB       int    `koanf:"db"`
}

// MetricsConfig configures the observability HTTP server.
type MetricsConfig struct {
	// Addr is the listen address; empty disables the server.
	Addr string `koanf:"addr"`
}

// LogConfig configures structured logging.
type LogConfig struct {
	Format string `koanf:"format"`
}

// CommandConfig configures the chat command router.
type CommandConfig struct {
	// Prefix is the token every bot command starts with.
	Prefix string `koanf:"prefix"`
}

// Config is the full process configuration.
type Config struct {
	Redis   RedisConfig   `koanf:"redis"`
	Metrics MetricsConfig `koanf:"metrics"`
	Log     LogConfig     `koanf:"log"`
	Command CommandConfig `koanf:"command"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Redis:   RedisConfig{Addr: "localhost:6379"},
		Metrics: MetricsConfig{Addr: "127.0.0.1:9100"},
		Log:     LogConfig{Format: "json"},
		Command: CommandConfig{Prefix: "gk"},
	}
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.Redis.Addr == "" {
		return oops.Code("CONFIG_INVALID").Errorf("redis.addr is required")
	}
	if c.Log.Format != "json" && c.Log.Format != "text" {
		return oops.Code("CONFIG_INVALID").
			With("format", c.Log.Format).
			Errorf("log.format must be 'json' or 'text'")
	}
	if c.Command.Prefix == "" {
		return oops.Code("CONFIG_INVALID").Errorf("command.prefix is required")
	}
	return nil
}

// Load builds the configuration. path may be empty to skip the file layer;
// flags may be nil to skip the flag layer. Flag names map to config keys by
// replacing dashes with dots (redis-addr -> redis.addr).
//
// An unchanged flag contributes its default only for keys the file did not
// set, so flags must be registered with their effective defaults: a flag
// defaulted to "" would overwrite the built-in value for its key.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, oops.Code("CONFIG_LOAD_FAILED").With("path", path).Wrap(err)
		}
	}

	if flags != nil {
		provider := posflag.ProviderWithValue(flags, ".", k, func(key, value string) (string, interface{}) {
			return strings.ReplaceAll(key, "-", "."), value
		})
		if err := k.Load(provider, nil); err != nil {
			return nil, oops.Code("CONFIG_LOAD_FAILED").Wrap(err)
		}
	}

	cfg := Default()
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, oops.Code("CONFIG_LOAD_FAILED").Wrap(err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
