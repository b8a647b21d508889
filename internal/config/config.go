// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Yaug Contributors

// Package config loads yaug configuration from defaults, a YAML file,
// environment variables for secrets, and command-line flags.
package config

import (
	"io"
	"os"
	"time"

	"github.com/go-viper/mapstructure/v2"
	kyaml "github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/yaug/yaug/internal/auth"
	"github.com/yaug/yaug/internal/logging"
	"github.com/yaug/yaug/internal/offload"
	"github.com/yaug/yaug/internal/session"
	"github.com/yaug/yaug/internal/store"
	"github.com/yaug/yaug/pkg/secret"
)

// Default listen addresses.
const (
	DefaultWebAddr           = "127.0.0.1:8080"
	DefaultObservabilityAddr = "127.0.0.1:9100"
	DefaultShutdownTimeout   = 10 * time.Second
)

// Config is the effective yaug configuration.
type Config struct {
	Log           logging.Options     `koanf:"log" yaml:"log"`
	Web           WebConfig           `koanf:"web" yaml:"web"`
	Observability ObservabilityConfig `koanf:"observability" yaml:"observability"`
	Database      DatabaseConfig      `koanf:"database" yaml:"database"`
	Redis         RedisConfig         `koanf:"redis" yaml:"redis"`
	Session       SessionConfig       `koanf:"session" yaml:"session"`
	Hasher        auth.Params         `koanf:"hasher" yaml:"hasher"`
	Offload       offload.Options     `koanf:"offload" yaml:"offload"`
}

// WebConfig configures the login HTTP listener.
type WebConfig struct {
	Addr            string        `koanf:"addr" yaml:"addr"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" yaml:"shutdown_timeout"`
}

// ObservabilityConfig configures the metrics and health listener.
// An empty Addr disables it.
type ObservabilityConfig struct {
	Addr string `koanf:"addr" yaml:"addr"`
}

// DatabaseConfig configures the PostgreSQL credential store.
type DatabaseConfig struct {
	URL               secret.Secret[string] `koanf:"url" yaml:"url"`
	AutoMigrate       bool                  `koanf:"auto_migrate" yaml:"auto_migrate"`
	store.PoolOptions `koanf:",squash" yaml:",inline"`
}

// RedisConfig configures the session store. An empty Addr selects the
// in-process memory store.
type RedisConfig struct {
	Addr     string                `koanf:"addr" yaml:"addr"`
	Password secret.Secret[string] `koanf:"password" yaml:"password"`
	DB       int                   `koanf:"db" yaml:"db"`
	Prefix   string                `koanf:"prefix" yaml:"prefix"`
}

// SessionConfig configures session cookies.
type SessionConfig struct {
	session.Options `koanf:",squash" yaml:",inline"`
	CookieSecret    secret.Secret[string] `koanf:"cookie_secret" yaml:"cookie_secret"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Log: logging.Options{Format: logging.FormatJSON, Level: "info"},
		Web: WebConfig{
			Addr:            DefaultWebAddr,
			ShutdownTimeout: DefaultShutdownTimeout,
		},
		Observability: ObservabilityConfig{Addr: DefaultObservabilityAddr},
		Database: DatabaseConfig{
			PoolOptions: store.DefaultPoolOptions(),
		},
		Redis: RedisConfig{Prefix: "yaug:session"},
		Session: SessionConfig{
			Options: session.Options{
				CookieName: session.DefaultCookieName,
				TTL:        session.DefaultTTL,
				Secure:     true,
			},
		},
		Hasher: auth.DefaultParams(),
	}
}

// secretEnv maps environment variables to the secret keys they set.
var secretEnv = map[string]string{
	"DATABASE_URL":          "database.url",
	"REDIS_PASSWORD":        "redis.password",
	"SESSION_COOKIE_SECRET": "session.cookie_secret",
}

// Load builds the configuration. Later sources override earlier ones:
// defaults, the YAML file at path (skipped when empty), secret environment
// variables, then flags registered by RegisterFlags that were set
// explicitly. flags may be nil.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), kyaml.Parser()); err != nil {
			return nil, oops.Code("CONFIG_LOAD_FAILED").
				With("path", path).
				Wrap(err)
		}
	}

	for env, key := range secretEnv {
		if v, ok := os.LookupEnv(env); ok && v != "" {
			if err := k.Set(key, v); err != nil {
				return nil, oops.Code("CONFIG_LOAD_FAILED").
					With("env", env).
					Wrap(err)
			}
		}
	}

	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, flagMapper(flags)), nil); err != nil {
			return nil, oops.Code("CONFIG_LOAD_FAILED").
				With("source", "flags").
				Wrap(err)
		}
	}

	cfg := Default()
	err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToTimeDurationHookFunc(),
				mapstructure.TextUnmarshallerHookFunc(),
			),
			Result:           &cfg,
			WeaklyTypedInput: true,
			TagName:          "koanf",
		},
	})
	if err != nil {
		return nil, oops.Code("CONFIG_DECODE_FAILED").
			With("path", path).
			Wrap(err)
	}
	return &cfg, nil
}

// Validate checks settings that every command depends on.
func (c *Config) Validate() error {
	if err := c.Log.Validate(); err != nil {
		return err
	}
	if err := c.Hasher.Validate(); err != nil {
		return oops.Code("CONFIG_INVALID").
			With("field", "hasher").
			Wrap(err)
	}
	if err := c.Offload.Validate(); err != nil {
		return oops.Code("CONFIG_INVALID").
			With("field", "offload").
			Wrap(err)
	}
	if c.Web.Addr == "" {
		return invalid("web.addr", "web listen address is required")
	}
	if c.Web.ShutdownTimeout <= 0 {
		return invalid("web.shutdown_timeout", "shutdown timeout must be positive")
	}
	if c.Session.TTL <= 0 {
		return invalid("session.ttl", "session ttl must be positive")
	}
	if c.Database.MaxConns <= 0 {
		return invalid("database.max_conns", "max_conns must be positive")
	}
	if !c.Session.CookieSecret.IsZero() && len(c.Session.CookieSecret.Expose()) < session.MinKeyLength {
		return invalid("session.cookie_secret", "cookie secret must be at least 32 bytes")
	}
	return nil
}

// RequireDatabase reports a missing database URL.
func (c *Config) RequireDatabase() error {
	if c.Database.URL.IsZero() {
		return oops.Code("CONFIG_MISSING").
			With("field", "database.url").
			Errorf("database url is required (set database.url or DATABASE_URL)")
	}
	return nil
}

// RequireSessionSecret reports a missing cookie signing secret.
func (c *Config) RequireSessionSecret() error {
	if c.Session.CookieSecret.IsZero() {
		return oops.Code("CONFIG_MISSING").
			With("field", "session.cookie_secret").
			Errorf("cookie secret is required (set session.cookie_secret or SESSION_COOKIE_SECRET)")
	}
	return nil
}

// WriteYAML writes the configuration as YAML with secrets redacted.
func (c *Config) WriteYAML(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(c); err != nil {
		return oops.Code("CONFIG_ENCODE_FAILED").Wrap(err)
	}
	if err := enc.Close(); err != nil {
		return oops.Code("CONFIG_ENCODE_FAILED").Wrap(err)
	}
	return nil
}

func invalid(field, msg string) error {
	return oops.Code("CONFIG_INVALID").
		With("field", field).
		Errorf("%s", msg)
}
