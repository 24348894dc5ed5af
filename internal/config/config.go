// Package config loads and validates credsync.yaml.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/systmms/credsync/internal/breaker"
	"github.com/systmms/credsync/internal/logging"
	"github.com/systmms/credsync/internal/metrics"
	"github.com/systmms/credsync/internal/registry"
	"github.com/systmms/credsync/internal/syncer"
)

// Config holds the runtime configuration
type Config struct {
	Path       string
	Logger     *logging.Logger
	Definition *Definition
}

// Definition represents the credsync.yaml structure.
type Definition struct {
	Version   int                           `yaml:"version" json:"version"`
	Remote    RemoteConfig                  `yaml:"remote,omitempty" json:"remote,omitempty"`
	Sync      SyncConfig                    `yaml:"sync,omitempty" json:"sync,omitempty"`
	Breaker   BreakerConfig                 `yaml:"breaker,omitempty" json:"breaker,omitempty"`
	Providers []registry.ProviderDefinition `yaml:"providers,omitempty" json:"providers,omitempty"`
	Metrics   MetricsConfig                 `yaml:"metrics,omitempty" json:"metrics,omitempty"`
}

// RemoteConfig holds the remote service endpoint settings.
type RemoteConfig struct {
	BaseURL   string `yaml:"base_url" json:"base_url"`
	TimeoutMs int    `yaml:"timeout_ms,omitempty" json:"timeout_ms,omitempty"`
	CACert    string `yaml:"ca_cert,omitempty" json:"ca_cert,omitempty"`
}

// SyncConfig holds the orchestration settings.
type SyncConfig struct {
	MaxAttempts         int    `yaml:"max_attempts,omitempty" json:"max_attempts,omitempty"`
	BackoffBaseMs       int    `yaml:"backoff_base_ms,omitempty" json:"backoff_base_ms,omitempty"`
	GlobalTimeoutMs     int    `yaml:"global_timeout_ms,omitempty" json:"global_timeout_ms,omitempty"`
	SkipOAuthConfigured bool   `yaml:"skip_oauth_configured,omitempty" json:"skip_oauth_configured,omitempty"`
	EnvFile             string `yaml:"env_file,omitempty" json:"env_file,omitempty"`
	UseKeychain         bool   `yaml:"use_keychain,omitempty" json:"use_keychain,omitempty"`
}

// BreakerConfig holds the circuit breaker thresholds.
type BreakerConfig struct {
	FailureThreshold  int `yaml:"failure_threshold,omitempty" json:"failure_threshold,omitempty"`
	WindowMs          int `yaml:"window_ms,omitempty" json:"window_ms,omitempty"`
	ResetTimeoutMs    int `yaml:"reset_timeout_ms,omitempty" json:"reset_timeout_ms,omitempty"`
	HalfOpenSuccesses int `yaml:"half_open_successes,omitempty" json:"half_open_successes,omitempty"`
}

// MetricsConfig holds the optional metrics server settings.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled,omitempty" json:"enabled,omitempty"`
	Port    int    `yaml:"port,omitempty" json:"port,omitempty"`
	Path    string `yaml:"path,omitempty" json:"path,omitempty"`
}

// Load reads, parses and schema-validates the credsync.yaml file. A
// missing file yields an empty definition: every setting has a usable
// default and a remote may still be supplied by flag.
func (c *Config) Load() error {
	data, err := os.ReadFile(c.Path)
	if err != nil {
		if os.IsNotExist(err) {
			c.Definition = &Definition{Version: 1}
			return nil
		}
		return fmt.Errorf("failed to read config file %s: %w", c.Path, err)
	}

	if err := validateSchema(data); err != nil {
		return fmt.Errorf("invalid config file %s: %w", c.Path, err)
	}

	var def Definition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", c.Path, err)
	}
	if def.Version == 0 {
		def.Version = 1
	}
	if def.Version != 1 {
		return fmt.Errorf("unsupported config version %d in %s", def.Version, c.Path)
	}

	c.Definition = &def
	return nil
}

// definition returns the loaded definition or an empty one.
func (c *Config) definition() *Definition {
	if c.Definition == nil {
		return &Definition{Version: 1}
	}
	return c.Definition
}

// Registry builds the provider registry from builtins plus config
// overrides.
func (c *Config) Registry() *registry.Registry {
	return registry.New(c.definition().Providers)
}

// RemoteTimeout returns the per-attempt timeout.
func (c *Config) RemoteTimeout() time.Duration {
	if ms := c.definition().Remote.TimeoutMs; ms > 0 {
		return time.Duration(ms) * time.Millisecond
	}
	return 10 * time.Second
}

// SyncerConfig maps the sync section onto the orchestrator tuning.
func (c *Config) SyncerConfig() syncer.Config {
	s := c.definition().Sync
	cfg := syncer.Config{}
	if s.MaxAttempts > 0 {
		cfg.MaxAttempts = s.MaxAttempts
	}
	if s.BackoffBaseMs > 0 {
		cfg.BackoffBase = time.Duration(s.BackoffBaseMs) * time.Millisecond
	}
	if s.GlobalTimeoutMs > 0 {
		cfg.GlobalTimeout = time.Duration(s.GlobalTimeoutMs) * time.Millisecond
	}
	return cfg
}

// BreakerSettings maps the breaker section onto the registry tuning.
func (c *Config) BreakerSettings() breaker.Config {
	b := c.definition().Breaker
	cfg := breaker.Config{}
	if b.FailureThreshold > 0 {
		cfg.FailureThreshold = b.FailureThreshold
	}
	if b.WindowMs > 0 {
		cfg.Window = time.Duration(b.WindowMs) * time.Millisecond
	}
	if b.ResetTimeoutMs > 0 {
		cfg.ResetTimeout = time.Duration(b.ResetTimeoutMs) * time.Millisecond
	}
	if b.HalfOpenSuccesses > 0 {
		cfg.HalfOpenSuccesses = b.HalfOpenSuccesses
	}
	return cfg
}

// MetricsServerConfig maps the metrics section onto the server settings.
func (c *Config) MetricsServerConfig() metrics.ServerConfig {
	m := c.definition().Metrics
	cfg := metrics.DefaultServerConfig()
	cfg.Enabled = m.Enabled
	if m.Port > 0 {
		cfg.Port = m.Port
	}
	if m.Path != "" {
		cfg.Path = m.Path
	}
	return cfg
}
