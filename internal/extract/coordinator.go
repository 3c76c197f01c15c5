package extract

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/zainulabidin776/apodflow/internal/core/domain"
)

// Coordinator composes the retry policy and the fallback chain into one
// call. Except for a fatal upstream classification it always produces a
// usable record, tagged with how it was obtained.
type Coordinator struct {
	fetcher   Fetcher
	retry     RetryConfig
	fallbacks []Resolver
}

// NewCoordinator creates an extraction coordinator. Resolvers are tried
// in order once retries are exhausted; the last resolver is expected to
// always produce a record.
func NewCoordinator(fetcher Fetcher, retry RetryConfig, fallbacks ...Resolver) *Coordinator {
	return &Coordinator{
		fetcher:   fetcher,
		retry:     retry,
		fallbacks: fallbacks,
	}
}

// Extract runs the state machine: Attempting(1..max) -> Success, or
// ExhaustedRetries -> fallback chain. The outcome records the provenance
// tag and the number of attempts consumed.
func (c *Coordinator) Extract(ctx context.Context) (*domain.ExtractionOutcome, error) {
	raw, attempts, err := FetchWithRetry(ctx, c.fetcher, c.retry)
	if err == nil {
		slog.Info("Extracted live record", "date", raw.Date, "attempts", attempts)
		return &domain.ExtractionOutcome{
			Record:     rawToRecord(raw),
			Provenance: domain.ProvenanceLive,
			Attempts:   attempts,
		}, nil
	}

	if !errors.Is(err, ErrRetriesExhausted) {
		// Fatal upstream error or cancellation: the one path that surfaces.
		return nil, err
	}

	slog.Warn("Upstream retries exhausted, consulting fallback chain",
		"attempts", attempts, "error", err)

	for _, resolver := range c.fallbacks {
		rec, provenance, rerr := resolver.Resolve(ctx)
		if rerr != nil {
			return nil, fmt.Errorf("fallback resolver failed: %w", rerr)
		}
		if rec == nil {
			continue
		}
		slog.Info("Fallback produced record", "date", rec.Date, "provenance", provenance)
		return &domain.ExtractionOutcome{
			Record:     *rec,
			Provenance: provenance,
			Attempts:   attempts,
		}, nil
	}

	// Unreachable when the chain ends with PlaceholderResolver.
	return nil, fmt.Errorf("no fallback produced a record: %w", err)
}

func rawToRecord(raw *domain.RawRecord) domain.Record {
	return domain.Record{
		Date:        raw.Date,
		Title:       raw.Title,
		MediaURL:    raw.URL,
		HighDefURL:  raw.HDURL,
		MediaType:   domain.MediaType(raw.MediaType),
		Explanation: raw.Explanation,
		Attribution: raw.Copyright,
	}
}
