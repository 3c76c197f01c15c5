package extract

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/zainulabidin776/apodflow/internal/core/domain"
)

// RetryConfig defines retry behavior for the upstream fetch.
type RetryConfig struct {
	MaxAttempts     int
	InitialDelay    time.Duration
	MaxDelay        time.Duration
	BackoffMultiple float64
}

// DefaultRetryConfig provides sensible defaults.
var DefaultRetryConfig = RetryConfig{
	MaxAttempts:     5,
	InitialDelay:    5 * time.Second,
	MaxDelay:        60 * time.Second,
	BackoffMultiple: 2.0,
}

// ErrRetriesExhausted signals that every attempt was transiently rejected;
// the caller should consult the fallback chain.
var ErrRetriesExhausted = errors.New("retries exhausted")

// Fetcher is the single-attempt upstream call wrapped by the retry policy.
type Fetcher interface {
	Fetch(ctx context.Context) (*domain.RawRecord, error)
}

// FetchWithRetry executes the upstream fetch with bounded exponential
// backoff. Fatal upstream errors propagate immediately; transient errors
// retry until the attempt budget runs out, then ErrRetriesExhausted is
// returned wrapping the last error. The attempt count consumed is always
// reported.
func FetchWithRetry(ctx context.Context, f Fetcher, config RetryConfig) (*domain.RawRecord, int, error) {
	var lastErr error

	for attempt := 1; attempt <= config.MaxAttempts; attempt++ {
		raw, err := f.Fetch(ctx)
		if err == nil {
			return raw, attempt, nil
		}

		var transient *domain.TransientUpstreamError
		if !errors.As(err, &transient) {
			// Fatal classification: client-side/API-contract problem.
			return nil, attempt, err
		}

		lastErr = err
		if attempt == config.MaxAttempts {
			break
		}

		delay := calculateBackoff(attempt-1, config)
		select {
		case <-ctx.Done():
			return nil, attempt, ctx.Err()
		case <-time.After(delay):
		}
	}

	return nil, config.MaxAttempts, fmt.Errorf("%w after %d attempts: %v",
		ErrRetriesExhausted, config.MaxAttempts, lastErr)
}

func calculateBackoff(attempt int, config RetryConfig) time.Duration {
	delay := float64(config.InitialDelay) * math.Pow(config.BackoffMultiple, float64(attempt))
	if delay > float64(config.MaxDelay) {
		delay = float64(config.MaxDelay)
	}
	return time.Duration(delay)
}
