// Package syncer coordinates a full credential synchronization pass:
// load and validate local credentials, consult the OAuth state and the
// per-provider circuit breaker, push missing credentials to the remote
// with bounded retry, and aggregate everything into a report.
package syncer

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/systmms/credsync/internal/breaker"
	cserrors "github.com/systmms/credsync/internal/errors"
	"github.com/systmms/credsync/internal/loader"
	"github.com/systmms/credsync/internal/logging"
	"github.com/systmms/credsync/internal/metrics"
	"github.com/systmms/credsync/internal/oauthstate"
	"github.com/systmms/credsync/internal/registry"
	"github.com/systmms/credsync/internal/secure"
	"github.com/systmms/credsync/pkg/remote"
)

// ErrSyncInProgress is returned when a second sync pass is requested
// while one is already running. Callers should surface "already in
// progress" instead of queuing.
var ErrSyncInProgress = errors.New("sync already in progress")

// gateWait is how long a caller waits for the exclusivity gate before
// failing fast.
const gateWait = 100 * time.Millisecond

// Options controls one sync pass.
type Options struct {
	// SkipOAuthConfigured skips providers whose remote auth mode is
	// already OAuth. Only the Configured status licenses a skip.
	SkipOAuthConfigured bool

	// GlobalTimeout bounds the whole pass. Zero means the default.
	GlobalTimeout time.Duration

	// Providers restricts the pass to a subset of provider names.
	// Empty means every registered provider.
	Providers []string

	// DryRun performs everything except the remote PUT.
	DryRun bool
}

// Config tunes the retry loop. The zero value is replaced by defaults.
type Config struct {
	// MaxAttempts bounds remote attempts per provider.
	MaxAttempts int

	// BackoffBase is the delay before the second attempt; it doubles
	// for each attempt after that.
	BackoffBase time.Duration

	// GlobalTimeout is the default whole-pass bound when Options does
	// not set one. The per-attempt timeout is the remote client's and
	// must be strictly shorter.
	GlobalTimeout time.Duration
}

// DefaultConfig returns the standard retry tuning.
func DefaultConfig() Config {
	return Config{
		MaxAttempts:   3,
		BackoffBase:   500 * time.Millisecond,
		GlobalTimeout: 60 * time.Second,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = d.MaxAttempts
	}
	if c.BackoffBase <= 0 {
		c.BackoffBase = d.BackoffBase
	}
	if c.GlobalTimeout <= 0 {
		c.GlobalTimeout = d.GlobalTimeout
	}
	return c
}

// Orchestrator runs sync passes. It owns the exclusivity gate and
// borrows the process-lifetime circuit registry.
type Orchestrator struct {
	config   Config
	loader   *loader.Loader
	registry *registry.Registry
	oauth    *oauthstate.Resolver
	breakers *breaker.Registry
	client   remote.Client
	metrics  *metrics.SyncMetrics
	logger   *logging.Logger

	// gate is the process-wide binary gate enforcing single-flight
	// exclusivity across passes.
	gate chan struct{}

	// sleep is swapped in tests to avoid real backoff waits.
	sleep func(ctx context.Context, d time.Duration) error
}

// New creates an orchestrator. The client may be nil when no remote is
// configured; Sync then fails with NoRemoteConfigured.
func New(config Config, ld *loader.Loader, reg *registry.Registry, oauth *oauthstate.Resolver, breakers *breaker.Registry, client remote.Client, m *metrics.SyncMetrics, logger *logging.Logger) *Orchestrator {
	gate := make(chan struct{}, 1)
	gate <- struct{}{}
	return &Orchestrator{
		config:   config.withDefaults(),
		loader:   ld,
		registry: reg,
		oauth:    oauth,
		breakers: breakers,
		client:   client,
		metrics:  m,
		logger:   logger,
		gate:     gate,
		sleep:    sleepCtx,
	}
}

// sleepCtx waits for d or until ctx is done.
func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Sync runs one synchronization pass and returns the aggregated report.
// Only one pass runs at a time process-wide; a concurrent call returns
// ErrSyncInProgress after a short non-blocking wait instead of queuing.
func (o *Orchestrator) Sync(ctx context.Context, opts Options) (*Report, error) {
	select {
	case <-o.gate:
	case <-time.After(gateWait):
		return nil, ErrSyncInProgress
	}
	defer func() { o.gate <- struct{}{} }()

	if o.client == nil {
		return nil, cserrors.NoRemoteConfiguredError{}
	}

	start := time.Now()

	globalTimeout := opts.GlobalTimeout
	if globalTimeout <= 0 {
		globalTimeout = o.config.GlobalTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, globalTimeout)
	defer cancel()

	report := &Report{}

	defs := o.selectDefinitions(opts.Providers)
	loaded := o.loader.Load(defs)
	defer loaded.Destroy()

	for provider, outcome := range loaded.Invalid {
		detail := string(outcome.Reason)
		if outcome.Detail != "" {
			detail = fmt.Sprintf("%s: %s", outcome.Reason, outcome.Detail)
		}
		report.add(Outcome{
			Provider: provider,
			Status:   StatusValidationFailed,
			Category: cserrors.CategoryKeyValidation,
			Detail:   detail,
		})
		o.metrics.RecordOutcome(provider, string(StatusValidationFailed))
		o.metrics.RecordError(provider, string(cserrors.CategoryKeyValidation))
	}

	// Deterministic processing order.
	names := make([]string, 0, len(loaded.Valid))
	for name := range loaded.Valid {
		names = append(names, name)
	}
	sort.Strings(names)

	statuses := o.oauth.ResolveAll(names)

	for _, name := range names {
		// Cancellation and global timeout are observed at provider
		// boundaries; completed work stays in the report.
		if err := ctx.Err(); err != nil {
			report.Aborted = abortCategory(err)
			break
		}

		outcome := o.syncProvider(ctx, name, loaded.Valid[name], statuses[name], opts)
		report.add(outcome)
		o.recordOutcome(outcome)

		if outcome.Status == StatusCancelled {
			report.Aborted = outcome.Category
			break
		}
	}

	report.Duration = time.Since(start)
	o.metrics.RecordDuration(report.Duration.Seconds())
	o.metrics.RecordCircuitStates(o.breakers.States())

	o.logger.Debug("Sync pass finished in %s: %s", report.Duration, report.Summary())
	return report, nil
}

// selectDefinitions returns the definitions for the requested subset, or
// all registered providers when the subset is empty.
func (o *Orchestrator) selectDefinitions(subset []string) []registry.ProviderDefinition {
	if len(subset) == 0 {
		return o.registry.All()
	}
	defs := make([]registry.ProviderDefinition, 0, len(subset))
	for _, name := range subset {
		defs = append(defs, o.registry.Get(name))
	}
	return defs
}

// syncProvider runs the skip check, breaker admission and retry loop for
// one provider.
func (o *Orchestrator) syncProvider(ctx context.Context, name string, secret *secure.Secret, status oauthstate.Status, opts Options) Outcome {
	if status.Kind == oauthstate.Unknown {
		o.logger.Warn("OAuth state for %s is unknown: %s", name, status.Reason)
	}

	if opts.SkipOAuthConfigured && status.Kind == oauthstate.Configured {
		o.logger.Debug("Skipping %s: OAuth already configured", name)
		return Outcome{
			Provider: name,
			Status:   StatusSkipped,
			Detail:   "oauth already configured",
		}
	}

	if ok, retryAfter := o.breakers.Allow(name); !ok {
		o.logger.Debug("Circuit open for %s, retry after %s", name, retryAfter)
		return Outcome{
			Provider:   name,
			Status:     StatusFailed,
			Category:   cserrors.CategoryCircuitOpen,
			RetryAfter: retryAfter,
			Retryable:  true,
			Detail:     cserrors.CircuitOpenError{Provider: name, RetryAfter: retryAfter.String()}.Error(),
		}
	}

	if opts.DryRun {
		return Outcome{
			Provider: name,
			Status:   StatusSynced,
			Detail:   "dry run, no request sent",
		}
	}

	return o.attemptPush(ctx, name, secret)
}

// attemptPush runs the bounded retry loop for one provider. Only
// retryable failures consume further attempts or count toward the
// circuit breaker threshold.
func (o *Orchestrator) attemptPush(ctx context.Context, name string, secret *secure.Secret) Outcome {
	var lastErr *remote.SyncError
	attempts := 0

	for attempt := 1; attempt <= o.config.MaxAttempts; attempt++ {
		attempts = attempt
		err := o.client.PutCredential(ctx, name, secret)
		if err == nil {
			o.breakers.RecordSuccess(name)
			o.metrics.RecordAttempts(name, attempts)
			o.logger.Debug("Synced credential for %s on attempt %d", name, attempt)
			return Outcome{Provider: name, Status: StatusSynced, Attempts: attempts}
		}

		syncErr := asSyncError(err, name)
		lastErr = syncErr

		if !syncErr.Retryable() {
			// A definitive rejection says nothing about endpoint
			// health; the breaker never sees it.
			break
		}
		o.breakers.RecordFailure(name)

		if attempt < o.config.MaxAttempts {
			delay := o.config.BackoffBase * time.Duration(1<<(attempt-1))
			o.logger.Debug("Attempt %d for %s failed (%s), retrying in %s", attempt, name, cserrors.CategoryOf(toTaxonomy(syncErr)), delay)
			if err := o.sleep(ctx, delay); err != nil {
				o.metrics.RecordAttempts(name, attempts)
				return Outcome{
					Provider: name,
					Status:   StatusCancelled,
					Category: abortCategory(err),
					Attempts: attempts,
				}
			}
		}
	}

	o.metrics.RecordAttempts(name, attempts)

	taxErr := toTaxonomy(lastErr)
	return Outcome{
		Provider:   name,
		Status:     StatusFailed,
		Category:   cserrors.CategoryOf(taxErr),
		StatusCode: lastErr.StatusCode,
		Retryable:  lastErr.Retryable(),
		Attempts:   attempts,
		Detail:     lastErr.Error(),
	}
}

// recordOutcome publishes one outcome to the metrics surface.
func (o *Orchestrator) recordOutcome(outcome Outcome) {
	o.metrics.RecordOutcome(outcome.Provider, string(outcome.Status))
	if outcome.Category != "" && outcome.Status != StatusSynced && outcome.Status != StatusSkipped {
		o.metrics.RecordError(outcome.Provider, string(outcome.Category))
	}
}

// asSyncError normalizes any client error into a *remote.SyncError.
func asSyncError(err error, provider string) *remote.SyncError {
	var syncErr *remote.SyncError
	if errors.As(err, &syncErr) {
		return syncErr
	}
	return &remote.SyncError{
		Op:       "put_credential",
		Provider: provider,
		Message:  err.Error(),
		Err:      err,
	}
}

// toTaxonomy maps a boundary SyncError to its engine error category.
func toTaxonomy(e *remote.SyncError) error {
	if e == nil {
		return nil
	}
	if e.Timeout || e.ConnectionFailure || e.StatusCode == 0 {
		return cserrors.NetworkError{
			Provider:          e.Provider,
			Timeout:           e.Timeout,
			ConnectionFailure: e.ConnectionFailure,
			Err:               e,
		}
	}
	return cserrors.ProviderSyncError{
		Provider:   e.Provider,
		StatusCode: e.StatusCode,
		Message:    e.Message,
	}
}

// abortCategory distinguishes deadline expiry from cancellation.
func abortCategory(err error) cserrors.Category {
	if errors.Is(err, context.DeadlineExceeded) {
		return cserrors.CategoryGlobalTimeout
	}
	return cserrors.CategoryCancelled
}
