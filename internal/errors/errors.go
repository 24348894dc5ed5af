// Package errors defines the error taxonomy for the credential sync engine.
//
// Every failure the engine reports belongs to exactly one category. Retry
// decisions and metrics labels are derived from the category, never from
// matching the human-readable message.
package errors

import (
	"errors"
	"fmt"
)

// Category identifies the kind of a sync failure. Categories are stable
// strings so they can double as metrics label values.
type Category string

const (
	CategoryEnvLoad            Category = "env_load"
	CategoryKeyValidation      Category = "key_validation"
	CategoryProviderSync       Category = "provider_sync"
	CategoryNetwork            Category = "network"
	CategoryCircuitOpen        Category = "circuit_open"
	CategoryCancelled          Category = "cancelled"
	CategoryNoRemoteConfigured Category = "no_remote_configured"
	CategoryPathDetection      Category = "path_detection"
	CategoryGlobalTimeout      Category = "global_timeout"
	CategoryUnknown            Category = "unknown"
)

// Categorizer is implemented by errors that know their own category.
type Categorizer interface {
	Category() Category
}

// CategoryOf returns the category of err, walking the wrap chain.
// Errors outside the taxonomy report CategoryUnknown.
func CategoryOf(err error) Category {
	var c Categorizer
	if errors.As(err, &c) {
		return c.Category()
	}
	return CategoryUnknown
}

// EnvLoadError reports a failure to read an on-disk environment override
// file. It is never fatal: the sync proceeds with the process environment.
type EnvLoadError struct {
	Path string
	Err  error
}

func (e EnvLoadError) Error() string {
	return fmt.Sprintf("failed to load environment file %s: %v", e.Path, e.Err)
}

func (e EnvLoadError) Unwrap() error      { return e.Err }
func (e EnvLoadError) Category() Category { return CategoryEnvLoad }

// KeyValidationError reports a credential that failed local validation.
// The candidate value is never part of the message.
type KeyValidationError struct {
	Provider string
	Reason   string
}

func (e KeyValidationError) Error() string {
	return fmt.Sprintf("credential for %s failed validation: %s", e.Provider, e.Reason)
}

func (e KeyValidationError) Category() Category { return CategoryKeyValidation }

// ProviderSyncError reports that the remote service rejected or failed a
// credential push for a provider.
type ProviderSyncError struct {
	Provider   string
	StatusCode int
	Message    string
}

func (e ProviderSyncError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("remote rejected credential for %s (HTTP %d): %s", e.Provider, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("remote rejected credential for %s: %s", e.Provider, e.Message)
}

func (e ProviderSyncError) Category() Category { return CategoryProviderSync }

// NetworkError reports a transport-level failure. Timeout and connection
// failures carry distinct flags so callers can report them separately.
type NetworkError struct {
	Provider          string
	Timeout           bool
	ConnectionFailure bool
	Err               error
}

func (e NetworkError) Error() string {
	switch {
	case e.Timeout:
		return fmt.Sprintf("request for %s timed out: %v", e.Provider, e.Err)
	case e.ConnectionFailure:
		return fmt.Sprintf("connection failed for %s: %v", e.Provider, e.Err)
	default:
		return fmt.Sprintf("network error for %s: %v", e.Provider, e.Err)
	}
}

func (e NetworkError) Unwrap() error      { return e.Err }
func (e NetworkError) Category() Category { return CategoryNetwork }

// CircuitOpenError reports that the circuit breaker denied admission
// locally, without any network attempt.
type CircuitOpenError struct {
	Provider   string
	RetryAfter string
}

func (e CircuitOpenError) Error() string {
	if e.RetryAfter != "" {
		return fmt.Sprintf("circuit open for %s, retry after %s", e.Provider, e.RetryAfter)
	}
	return fmt.Sprintf("circuit open for %s", e.Provider)
}

func (e CircuitOpenError) Category() Category { return CategoryCircuitOpen }

// CancelledError reports cooperative cancellation of a sync pass.
type CancelledError struct {
	Provider string
}

func (e CancelledError) Error() string {
	if e.Provider != "" {
		return fmt.Sprintf("sync cancelled while processing %s", e.Provider)
	}
	return "sync cancelled"
}

func (e CancelledError) Category() Category { return CategoryCancelled }

// NoRemoteConfiguredError reports that no backing remote service is
// reachable or known.
type NoRemoteConfiguredError struct {
	Detail string
}

func (e NoRemoteConfiguredError) Error() string {
	if e.Detail != "" {
		return "no remote service configured: " + e.Detail
	}
	return "no remote service configured"
}

func (e NoRemoteConfiguredError) Category() Category { return CategoryNoRemoteConfigured }

// PathDetectionError reports that the credential-store location could not
// be determined at all.
type PathDetectionError struct {
	Detail string
}

func (e PathDetectionError) Error() string {
	return "could not determine credential store path: " + e.Detail
}

func (e PathDetectionError) Category() Category { return CategoryPathDetection }

// GlobalTimeoutError reports expiry of the whole-pass deadline.
type GlobalTimeoutError struct {
	Elapsed string
}

func (e GlobalTimeoutError) Error() string {
	if e.Elapsed != "" {
		return "sync exceeded global timeout after " + e.Elapsed
	}
	return "sync exceeded global timeout"
}

func (e GlobalTimeoutError) Category() Category { return CategoryGlobalTimeout }

// retryableStatus reports whether an HTTP-style status indicates a
// transient condition. 500 is deliberately excluded: it signals a server
// bug, not an overload.
func retryableStatus(status int) bool {
	switch status {
	case 429, 502, 503, 504:
		return true
	}
	return false
}

// IsRetryable reports whether err indicates a transient failure worth
// another attempt. The decision is made from the error's category and
// structured fields only.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	var netErr NetworkError
	if errors.As(err, &netErr) {
		return netErr.Timeout || netErr.ConnectionFailure
	}

	var syncErr ProviderSyncError
	if errors.As(err, &syncErr) {
		return retryableStatus(syncErr.StatusCode)
	}

	return false
}

// StatusCodeOf extracts an HTTP-style status code from err, or 0 when the
// error carries none.
func StatusCodeOf(err error) int {
	var syncErr ProviderSyncError
	if errors.As(err, &syncErr) {
		return syncErr.StatusCode
	}
	return 0
}
