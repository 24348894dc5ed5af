package syncer

import (
	"time"

	cserrors "github.com/systmms/credsync/internal/errors"
)

// Status is the outcome class for one provider in a sync pass.
type Status string

const (
	// StatusSynced means the credential was pushed successfully.
	StatusSynced Status = "synced"

	// StatusFailed means the push failed after admission and retries.
	StatusFailed Status = "failed"

	// StatusSkipped means the provider was skipped because the remote
	// already has OAuth configured and skip-on-OAuth was requested.
	StatusSkipped Status = "skipped"

	// StatusValidationFailed means the local candidate never left the
	// process.
	StatusValidationFailed Status = "validation_failed"

	// StatusCancelled means the pass was cancelled or timed out while
	// this provider was in flight.
	StatusCancelled Status = "cancelled"
)

// Outcome is the result of attempting to push one provider's credential.
type Outcome struct {
	Provider string `json:"provider"`
	Status   Status `json:"status"`

	// Category is the error category for failed outcomes.
	Category cserrors.Category `json:"category,omitempty"`

	// StatusCode is the HTTP-style status of the final attempt, if any.
	StatusCode int `json:"status_code,omitempty"`

	// Retryable reports whether the final failure was transient.
	Retryable bool `json:"retryable,omitempty"`

	// RetryAfter is set for circuit_open rejections.
	RetryAfter time.Duration `json:"retry_after,omitempty"`

	// Attempts is the number of remote attempts consumed.
	Attempts int `json:"attempts,omitempty"`

	// Detail is human-readable context, safe for display.
	Detail string `json:"detail,omitempty"`
}

// Summary classifies a whole pass so callers can render an accurate
// one-line result instead of a blanket success/failure flag.
type Summary string

const (
	// SummaryNothingToSync means no provider had a candidate credential.
	SummaryNothingToSync Summary = "nothing_to_sync"

	// SummaryAllSkipped means every candidate was skipped for OAuth.
	SummaryAllSkipped Summary = "all_skipped"

	// SummaryAllSynced means every attempted provider synced.
	SummaryAllSynced Summary = "all_synced"

	// SummaryPartialFailure means some providers synced, some did not.
	SummaryPartialFailure Summary = "partial_failure"

	// SummaryTotalFailure means nothing synced and something failed.
	SummaryTotalFailure Summary = "total_failure"
)

// Report is the aggregate result of one sync pass. Outcomes are
// partitioned by status.
type Report struct {
	Synced           []Outcome `json:"synced,omitempty"`
	Failed           []Outcome `json:"failed,omitempty"`
	Skipped          []Outcome `json:"skipped,omitempty"`
	ValidationFailed []Outcome `json:"validation_failed,omitempty"`
	Cancelled        []Outcome `json:"cancelled,omitempty"`

	// Duration is the wall time of the whole pass.
	Duration time.Duration `json:"duration"`

	// Aborted carries the category that cut the pass short (cancelled
	// or global_timeout), empty when the pass ran to completion.
	Aborted cserrors.Category `json:"aborted,omitempty"`
}

// add routes an outcome into its partition.
func (r *Report) add(o Outcome) {
	switch o.Status {
	case StatusSynced:
		r.Synced = append(r.Synced, o)
	case StatusFailed:
		r.Failed = append(r.Failed, o)
	case StatusSkipped:
		r.Skipped = append(r.Skipped, o)
	case StatusValidationFailed:
		r.ValidationFailed = append(r.ValidationFailed, o)
	case StatusCancelled:
		r.Cancelled = append(r.Cancelled, o)
	}
}

// Total returns the number of recorded outcomes.
func (r *Report) Total() int {
	return len(r.Synced) + len(r.Failed) + len(r.Skipped) + len(r.ValidationFailed) + len(r.Cancelled)
}

// Summary classifies the pass.
func (r *Report) Summary() Summary {
	if r.Total() == 0 {
		return SummaryNothingToSync
	}
	if len(r.Skipped) == r.Total() {
		return SummaryAllSkipped
	}
	if len(r.Synced) == 0 {
		if len(r.Failed) > 0 || len(r.ValidationFailed) > 0 || len(r.Cancelled) > 0 {
			return SummaryTotalFailure
		}
		return SummaryAllSkipped
	}
	if len(r.Failed) > 0 || len(r.ValidationFailed) > 0 || len(r.Cancelled) > 0 {
		return SummaryPartialFailure
	}
	return SummaryAllSynced
}
