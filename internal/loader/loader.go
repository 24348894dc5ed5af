// Package loader assembles the candidate credential set for a sync
// pass: environment lookup per provider definition, optional overlays,
// and validation. Absence of a credential is normal and produces no
// entry anywhere; only present-but-invalid values are recorded.
package loader

import (
	"os"

	"github.com/systmms/credsync/internal/logging"
	"github.com/systmms/credsync/internal/registry"
	"github.com/systmms/credsync/internal/secure"
	"github.com/systmms/credsync/internal/validation"
)

// Loaded is the result of one load pass.
type Loaded struct {
	// Valid maps provider name to its wrapped credential.
	Valid map[string]*secure.Secret

	// Invalid maps provider name to the validation outcome that
	// rejected its candidate.
	Invalid map[string]validation.Outcome
}

// Destroy wipes every loaded secret. Call when the pass is done.
func (l *Loaded) Destroy() {
	for _, s := range l.Valid {
		s.Destroy()
	}
}

// Source yields a candidate credential for a provider definition.
// Sources are consulted in order; the first hit wins.
type Source interface {
	Name() string
	Lookup(def registry.ProviderDefinition) (value string, found bool)
}

// Loader reads candidates from its sources and validates them.
type Loader struct {
	sources []Source
	logger  *logging.Logger
}

// New creates a loader over the given sources.
func New(logger *logging.Logger, sources ...Source) *Loader {
	return &Loader{sources: sources, logger: logger}
}

// Load reads a candidate for every definition with a source environment
// variable, validates it, and routes it into Valid or Invalid. Providers
// with no candidate anywhere are skipped silently.
func (l *Loader) Load(defs []registry.ProviderDefinition) *Loaded {
	result := &Loaded{
		Valid:   make(map[string]*secure.Secret),
		Invalid: make(map[string]validation.Outcome),
	}

	for _, def := range defs {
		if def.SourceEnvVar == "" {
			continue
		}

		candidate, source, found := l.lookup(def)
		if !found {
			continue
		}

		outcome := validation.Check(def, candidate)
		if !outcome.Valid {
			l.logger.Debug("Credential for %s from %s rejected: %s", def.Name, source, outcome.Reason)
			result.Invalid[def.Name] = outcome
			continue
		}

		l.logger.Debug("Loaded credential for %s from %s (%d chars)", def.Name, source, len(candidate))
		result.Valid[def.Name] = secure.NewSecret(candidate)
	}

	return result
}

// lookup consults the sources in order.
func (l *Loader) lookup(def registry.ProviderDefinition) (string, string, bool) {
	for _, src := range l.sources {
		if value, found := src.Lookup(def); found {
			return value, src.Name(), true
		}
	}
	return "", "", false
}

// EnvSource reads candidates from the process environment, optionally
// overlaid by values from an .env-style file. Overlay values take
// precedence over the process environment but are never exported to it.
type EnvSource struct {
	overlay map[string]string
}

// NewEnvSource creates a plain process-environment source.
func NewEnvSource() *EnvSource {
	return &EnvSource{}
}

// Name identifies the source in debug logs.
func (s *EnvSource) Name() string { return "env" }

// Lookup reads the definition's source variable.
func (s *EnvSource) Lookup(def registry.ProviderDefinition) (string, bool) {
	if v, ok := s.overlay[def.SourceEnvVar]; ok && v != "" {
		return v, true
	}
	v, ok := os.LookupEnv(def.SourceEnvVar)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}
