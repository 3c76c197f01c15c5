package domain

import "fmt"

// TransientUpstreamError is a retry-eligible upstream failure (429/503 or
// a network-level error). Retries are bounded; exhaustion triggers the
// fallback chain rather than failing the run.
type TransientUpstreamError struct {
	StatusCode int
	Err        error
}

func (e *TransientUpstreamError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("transient upstream error: %v", e.Err)
	}
	return fmt.Sprintf("transient upstream error: status %d", e.StatusCode)
}

func (e *TransientUpstreamError) Unwrap() error { return e.Err }

// FatalUpstreamError is a non-retryable API contract violation (any error
// status outside the transient set). It propagates immediately.
type FatalUpstreamError struct {
	StatusCode int
	Body       string
}

func (e *FatalUpstreamError) Error() string {
	return fmt.Sprintf("fatal upstream error: status %d: %s", e.StatusCode, e.Body)
}

// ValidationError reports a malformed or missing required field. No retry,
// no fallback.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %q: %s", e.Field, e.Reason)
}

// SinkWriteError wraps a failed write to either durable sink.
type SinkWriteError struct {
	Sink string
	Err  error
}

func (e *SinkWriteError) Error() string {
	return fmt.Sprintf("%s sink write failed: %v", e.Sink, e.Err)
}

func (e *SinkWriteError) Unwrap() error { return e.Err }

// VerificationError reports a failed dual-sink cross-check. The run stops
// before versioning so a commit is never linked to unverified data.
type VerificationError struct {
	Report VerificationReport
}

func (e *VerificationError) Error() string {
	return fmt.Sprintf("verification failed for %s: postgres=%d csv_exists=%t",
		e.Report.Date, e.Report.PostgresCount, e.Report.CSVExists)
}
