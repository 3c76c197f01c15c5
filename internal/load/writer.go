// Package load persists the canonical record to both sinks and
// cross-checks the result before versioning may proceed.
package load

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/zainulabidin776/apodflow/internal/core/domain"
	"github.com/zainulabidin776/apodflow/internal/infra/storage"
)

// DualSinkWriter writes a record to the relational store and the flat
// file. The two writes are independent and run concurrently; Write only
// returns once both have completed, so verification never races a write.
type DualSinkWriter struct {
	records storage.RecordRepository
	history storage.HistoryStore
}

// NewDualSinkWriter creates a writer over both sinks.
func NewDualSinkWriter(records storage.RecordRepository, history storage.HistoryStore) *DualSinkWriter {
	return &DualSinkWriter{records: records, history: history}
}

// Write upserts into Postgres and merges into the CSV. Either failure is
// a SinkWriteError; the run must not be marked successful on one.
func (w *DualSinkWriter) Write(ctx context.Context, rec *domain.Record) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := w.records.Upsert(gctx, rec); err != nil {
			return &domain.SinkWriteError{Sink: "postgres", Err: err}
		}
		slog.Debug("Upserted record", "sink", "postgres", "date", rec.Date)
		return nil
	})

	g.Go(func() error {
		if err := w.history.AppendAndDedupe(rec); err != nil {
			return &domain.SinkWriteError{Sink: "csv", Err: err}
		}
		slog.Debug("Merged record", "sink", "csv", "date", rec.Date)
		return nil
	})

	return g.Wait()
}
