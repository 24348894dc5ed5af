// Package breaker implements per-provider circuit breaking. Each
// provider gets an independent three-state machine; one provider's open
// circuit never affects another's admission. State lives for the process
// lifetime and is borrowed, not owned, by individual sync passes.
package breaker

import (
	"sync"
	"time"
)

// State is the fault-isolation state of one provider's circuit.
type State int

const (
	// Closed admits requests and counts retryable failures.
	Closed State = iota

	// Open rejects requests until the reset timeout elapses.
	Open

	// HalfOpen admits requests while probing for recovery.
	HalfOpen
)

// String renders the state for display and metrics.
func (s State) String() string {
	switch s {
	case Open:
		return "open"
	case HalfOpen:
		return "half_open"
	default:
		return "closed"
	}
}

// Config tunes the breaker thresholds. The zero value is replaced by
// defaults in New.
type Config struct {
	// FailureThreshold is the number of in-window retryable failures
	// that opens the circuit.
	FailureThreshold int

	// Window is the sliding window over which failures are counted.
	Window time.Duration

	// ResetTimeout is how long an open circuit rejects before the next
	// admission check moves it to half-open.
	ResetTimeout time.Duration

	// HalfOpenSuccesses is the number of consecutive successes that
	// close a half-open circuit.
	HalfOpenSuccesses int
}

// DefaultConfig returns the standard thresholds.
func DefaultConfig() Config {
	return Config{
		FailureThreshold:  5,
		Window:            60 * time.Second,
		ResetTimeout:      30 * time.Second,
		HalfOpenSuccesses: 2,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.FailureThreshold <= 0 {
		c.FailureThreshold = d.FailureThreshold
	}
	if c.Window <= 0 {
		c.Window = d.Window
	}
	if c.ResetTimeout <= 0 {
		c.ResetTimeout = d.ResetTimeout
	}
	if c.HalfOpenSuccesses <= 0 {
		c.HalfOpenSuccesses = d.HalfOpenSuccesses
	}
	return c
}

// circuit is the state machine for one provider. All fields are guarded
// by the registry mutex so a read-then-transition sequence (open to
// half-open) is atomic with respect to concurrent callers.
type circuit struct {
	state          State
	failures       []time.Time
	successes      int
	lastTransition time.Time
}

// Registry holds one circuit per provider name.
type Registry struct {
	mu       sync.Mutex
	config   Config
	circuits map[string]*circuit

	// now is swapped in tests to drive the clock.
	now func() time.Time
}

// New creates a registry with the given thresholds.
func New(config Config) *Registry {
	return &Registry{
		config:   config.withDefaults(),
		circuits: make(map[string]*circuit),
		now:      time.Now,
	}
}

// Allow reports whether a request for provider may proceed. When the
// circuit is open, retryAfter is the remaining wait before the next
// admission check will probe the endpoint again. An open circuit whose
// reset timeout has elapsed transitions to half-open here, on the
// admission check itself, not on a background timer.
func (r *Registry) Allow(provider string) (ok bool, retryAfter time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c := r.circuit(provider)
	switch c.state {
	case Closed, HalfOpen:
		return true, 0
	default:
		elapsed := r.now().Sub(c.lastTransition)
		if elapsed >= r.config.ResetTimeout {
			c.state = HalfOpen
			c.successes = 0
			c.lastTransition = r.now()
			return true, 0
		}
		return false, r.config.ResetTimeout - elapsed
	}
}

// RecordSuccess records a successful request. In half-open, enough
// consecutive successes close the circuit and clear failure history.
func (r *Registry) RecordSuccess(provider string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c := r.circuit(provider)
	if c.state != HalfOpen {
		return
	}
	c.successes++
	if c.successes >= r.config.HalfOpenSuccesses {
		c.state = Closed
		c.failures = nil
		c.successes = 0
		c.lastTransition = r.now()
	}
}

// RecordFailure records a retryable failure. Callers must not report
// non-retryable failures: a client error says nothing about the health
// of the provider endpoint. A failure while half-open reopens the
// circuit immediately; in closed state, reaching the in-window threshold
// opens it.
func (r *Registry) RecordFailure(provider string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c := r.circuit(provider)
	now := r.now()

	switch c.state {
	case HalfOpen:
		c.state = Open
		c.successes = 0
		c.lastTransition = now

	case Closed:
		c.failures = append(c.failures, now)
		c.pruneFailures(now, r.config.Window)
		if len(c.failures) >= r.config.FailureThreshold {
			c.state = Open
			c.lastTransition = now
		}
	}
}

// State returns the current state for provider without side effects.
func (r *Registry) State(provider string) State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.circuit(provider).state
}

// States returns a snapshot of every tracked provider's state.
func (r *Registry) States() map[string]State {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make(map[string]State, len(r.circuits))
	for name, c := range r.circuits {
		out[name] = c.state
	}
	return out
}

// Reset returns provider's circuit to closed with no history. Operator
// override and test isolation.
func (r *Registry) Reset(provider string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.circuits, provider)
}

// ResetAll clears every circuit.
func (r *Registry) ResetAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.circuits = make(map[string]*circuit)
}

// circuit returns the circuit for provider, creating it closed. Caller
// holds the mutex.
func (r *Registry) circuit(provider string) *circuit {
	c, ok := r.circuits[provider]
	if !ok {
		c = &circuit{state: Closed, lastTransition: r.now()}
		r.circuits[provider] = c
	}
	return c
}

// pruneFailures drops failures older than the window.
func (c *circuit) pruneFailures(now time.Time, window time.Duration) {
	cutoff := now.Add(-window)
	kept := c.failures[:0]
	for _, t := range c.failures {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	c.failures = kept
}
