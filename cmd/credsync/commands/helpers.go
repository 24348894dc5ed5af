package commands

import (
	"github.com/systmms/credsync/internal/breaker"
	"github.com/systmms/credsync/internal/config"
	"github.com/systmms/credsync/internal/loader"
	"github.com/systmms/credsync/internal/logging"
	"github.com/systmms/credsync/internal/metrics"
	"github.com/systmms/credsync/internal/oauthstate"
	"github.com/systmms/credsync/internal/registry"
	"github.com/systmms/credsync/internal/remotehttp"
	"github.com/systmms/credsync/internal/syncer"
	"github.com/systmms/credsync/pkg/remote"
)

// engine bundles the per-invocation wiring shared by the subcommands.
type engine struct {
	cfg      *config.Config
	logger   *logging.Logger
	registry *registry.Registry
	loader   *loader.Loader
	oauth    *oauthstate.Resolver
	breakers *breaker.Registry
	metrics  *metrics.SyncMetrics
}

// buildEngine loads configuration and assembles the offline parts of
// the engine: sources, validator, OAuth resolver and circuit registry.
func buildEngine(cfg *config.Config) (*engine, error) {
	if err := cfg.Load(); err != nil {
		return nil, err
	}
	logger := cfg.Logger

	syncCfg := syncConfigOf(cfg)

	envSource, err := loader.NewEnvSourceWithFile(logger, syncCfg.EnvFile)
	if err != nil {
		// Env-file trouble is never fatal; sync proceeds with the
		// process environment only.
		logger.Warn("%v", err)
	}

	sources := []loader.Source{envSource}
	if syncCfg.UseKeychain {
		sources = append(sources, loader.NewKeychainSource(logger))
	}

	return &engine{
		cfg:      cfg,
		logger:   logger,
		registry: cfg.Registry(),
		loader:   loader.New(logger, sources...),
		oauth:    oauthstate.New(logger),
		breakers: breaker.New(cfg.BreakerSettings()),
		metrics:  metrics.NewSyncMetrics(),
	}, nil
}

// syncConfigOf returns the sync section of the loaded definition.
func syncConfigOf(cfg *config.Config) config.SyncConfig {
	if cfg.Definition == nil {
		return config.SyncConfig{}
	}
	return cfg.Definition.Sync
}

// remoteClient builds the HTTP client for the configured remote, with
// baseURL (from a flag) taking precedence over the config file. Returns
// nil when no remote is configured anywhere; the orchestrator turns
// that into a NoRemoteConfigured error.
func (e *engine) remoteClient(baseURL string) (remote.Client, error) {
	url := baseURL
	var caCert string
	if e.cfg.Definition != nil {
		if url == "" {
			url = e.cfg.Definition.Remote.BaseURL
		}
		caCert = e.cfg.Definition.Remote.CACert
	}
	if url == "" {
		return nil, nil
	}

	client, err := remotehttp.New(remotehttp.Config{
		BaseURL: url,
		Timeout: e.cfg.RemoteTimeout(),
		CACert:  caCert,
	})
	if err != nil {
		return nil, err
	}
	return client, nil
}

// orchestrator assembles the full sync orchestrator around a client.
func (e *engine) orchestrator(client remote.Client) *syncer.Orchestrator {
	return syncer.New(e.cfg.SyncerConfig(), e.loader, e.registry, e.oauth, e.breakers, client, e.metrics, e.logger)
}
