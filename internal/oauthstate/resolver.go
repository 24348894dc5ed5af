// Package oauthstate reads the credential-store file and classifies each
// provider's configured auth mode. A missing store is a normal state
// (fresh install); a corrupt one is an anomaly worth surfacing — the two
// map to different statuses so callers can tell them apart. The resolver
// never fails a sync pass: every path returns a status.
package oauthstate

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/systmms/credsync/internal/logging"
	"github.com/systmms/credsync/internal/storepath"
)

// Kind enumerates the auth-mode classifications.
type Kind int

const (
	// NotConfigured means the store has no auth record for the provider,
	// including when the store file itself does not exist.
	NotConfigured Kind = iota

	// Configured means OAuth credentials are active for the provider.
	// This is the only status that licenses skipping a provider when
	// skip-on-OAuth is requested.
	Configured

	// APIKeyConfigured means an API key is active for the provider.
	APIKeyConfigured

	// WellKnownConfigured means the provider uses the well-known auth mode.
	WellKnownConfigured

	// Unknown means the store could not be read or parsed; Reason says why.
	Unknown
)

// Status is the resolved auth mode for one provider.
type Status struct {
	Kind   Kind
	Reason string
}

// String renders the status for display.
func (s Status) String() string {
	switch s.Kind {
	case Configured:
		return "oauth"
	case APIKeyConfigured:
		return "api_key"
	case WellKnownConfigured:
		return "well_known"
	case Unknown:
		if s.Reason != "" {
			return "unknown (" + s.Reason + ")"
		}
		return "unknown"
	default:
		return "not_configured"
	}
}

// storeEntry is the on-disk shape of one provider record. AuthKind is a
// closed tagged union: oauth, api_key or well_known. Anything else maps
// to Unknown rather than a parse error.
type storeEntry struct {
	AuthKind string `json:"auth_kind"`
}

// storeDocument is the on-disk shape of the whole store file.
type storeDocument struct {
	Providers map[string]storeEntry `json:"providers"`
}

// Resolver classifies provider auth modes from the credential store.
type Resolver struct {
	logger *logging.Logger

	// pathFn is swapped in tests; defaults to storepath.Resolve.
	pathFn func() (string, error)
}

// New creates a resolver using the platform store location.
func New(logger *logging.Logger) *Resolver {
	return &Resolver{
		logger: logger,
		pathFn: storepath.Resolve,
	}
}

// NewWithPath creates a resolver reading from a fixed path.
func NewWithPath(logger *logging.Logger, path string) *Resolver {
	return &Resolver{
		logger: logger,
		pathFn: func() (string, error) { return path, nil },
	}
}

// Resolve returns the auth status for a single provider.
func (r *Resolver) Resolve(provider string) Status {
	return r.ResolveAll([]string{provider})[provider]
}

// ResolveAll reads the store once and returns a status for every
// requested provider.
func (r *Resolver) ResolveAll(providers []string) map[string]Status {
	result := make(map[string]Status, len(providers))

	doc, status, ok := r.readStore()
	if !ok {
		for _, p := range providers {
			result[p] = status
		}
		return result
	}

	for _, p := range providers {
		entry, found := doc.Providers[p]
		if !found {
			result[p] = Status{Kind: NotConfigured}
			continue
		}
		result[p] = classify(entry)
	}
	return result
}

// readStore loads and parses the store file. When ok is false, status is
// the uniform answer for every provider.
func (r *Resolver) readStore() (*storeDocument, Status, bool) {
	path, err := r.pathFn()
	if err != nil {
		// A path could not even be resolved; auth state is unknowable.
		return nil, Status{Kind: Unknown, Reason: err.Error()}, false
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			r.logger.Debug("Credential store not found at %s, treating all providers as not configured", path)
			return nil, Status{Kind: NotConfigured}, false
		}
		// Path resolved but the file is unreadable: an anomaly, not a
		// fresh install.
		return nil, Status{Kind: Unknown, Reason: fmt.Sprintf("read %s: %v", path, err)}, false
	}

	var doc storeDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, Status{Kind: Unknown, Reason: fmt.Sprintf("parse %s: %v", path, err)}, false
	}
	if doc.Providers == nil {
		doc.Providers = map[string]storeEntry{}
	}
	return &doc, Status{}, true
}

// classify maps a store entry's auth-kind tag to a status.
func classify(entry storeEntry) Status {
	switch entry.AuthKind {
	case "oauth":
		return Status{Kind: Configured}
	case "api_key":
		return Status{Kind: APIKeyConfigured}
	case "well_known":
		return Status{Kind: WellKnownConfigured}
	case "":
		return Status{Kind: NotConfigured}
	default:
		return Status{Kind: Unknown, Reason: fmt.Sprintf("unrecognized auth kind %q", entry.AuthKind)}
	}
}
