// Package remote defines the boundary with the service that receives
// synchronized credentials.
//
// The sync engine depends only on the Client interface, not on any
// specific transport. An implementation may speak HTTP, IPC or anything
// else, as long as failures surface as SyncError values carrying an
// HTTP-style status code and a timeout/connection distinction — that is
// all the engine needs to decide retryability and feed its circuit
// breakers.
//
// Implementations must be safe for concurrent use and must honor context
// cancellation on every call. They must never log the secret value; the
// secure.Secret passed to PutCredential only yields its plaintext inside
// a Reveal callback, which should be entered exactly once, to build the
// request body.
package remote

import (
	"context"
	"fmt"

	"github.com/systmms/credsync/internal/secure"
)

// AuthKind is the closed set of authentication modes the remote service
// reports for a provider.
type AuthKind string

const (
	AuthKindOAuth     AuthKind = "oauth"
	AuthKindAPIKey    AuthKind = "api_key"
	AuthKindWellKnown AuthKind = "well_known"
)

// Client is the interface the sync orchestrator consumes.
type Client interface {
	// PutCredential pushes a provider's credential to the remote
	// service. Failures are reported as *SyncError.
	PutCredential(ctx context.Context, provider string, secret *secure.Secret) error

	// GetCredentialStatus returns the auth kind the remote service has
	// configured for a provider, or nil when none is configured.
	GetCredentialStatus(ctx context.Context, provider string) (*AuthKind, error)
}

// SyncError is the structured failure returned by Client operations.
type SyncError struct {
	// Op is the logical operation that failed: "put_credential" or
	// "get_credential_status".
	Op string

	// Provider is the provider the operation targeted.
	Provider string

	// StatusCode is the HTTP-style status when the remote answered, 0
	// for transport-level failures.
	StatusCode int

	// Timeout marks a per-attempt deadline expiry.
	Timeout bool

	// ConnectionFailure marks a connection-level failure (refused,
	// reset, unreachable).
	ConnectionFailure bool

	// Message is human-readable context. Never used for retry decisions.
	Message string

	// Err is the underlying transport error, if any.
	Err error
}

// Error implements the error interface.
func (e *SyncError) Error() string {
	switch {
	case e.Timeout:
		return fmt.Sprintf("%s for %s timed out", e.Op, e.Provider)
	case e.ConnectionFailure:
		return fmt.Sprintf("%s for %s: connection failed: %s", e.Op, e.Provider, e.Message)
	case e.StatusCode != 0:
		return fmt.Sprintf("%s for %s failed with status %d: %s", e.Op, e.Provider, e.StatusCode, e.Message)
	default:
		return fmt.Sprintf("%s for %s failed: %s", e.Op, e.Provider, e.Message)
	}
}

// Unwrap returns the underlying transport error.
func (e *SyncError) Unwrap() error { return e.Err }

// Retryable reports whether the failure is transient. Timeouts and
// connection failures are retryable, as are 429 and the gateway-class
// 5xx statuses. Every other status — including 500, which indicates a
// server bug rather than a transient condition — is definitive.
func (e *SyncError) Retryable() bool {
	if e.Timeout || e.ConnectionFailure {
		return true
	}
	switch e.StatusCode {
	case 429, 502, 503, 504:
		return true
	}
	return false
}
