package load

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/zainulabidin776/apodflow/internal/core/domain"
	"github.com/zainulabidin776/apodflow/internal/infra/storage"
)

// VerificationGate cross-checks both sinks after a dual write. It never
// mutates state and never retries; a failed check must surface to the
// operator as a sink-level problem.
type VerificationGate struct {
	records storage.RecordRepository
	history storage.HistoryStore
}

// NewVerificationGate creates a gate over both sinks.
func NewVerificationGate(records storage.RecordRepository, history storage.HistoryStore) *VerificationGate {
	return &VerificationGate{records: records, history: history}
}

// Verify reports whether both sinks reflect the expected record.
// Passed is true iff the relational store has at least one row for the
// date and the CSV file exists.
func (g *VerificationGate) Verify(ctx context.Context, expectedDate string) (*domain.VerificationReport, error) {
	count, err := g.records.CountByDate(ctx, expectedDate)
	if err != nil {
		return nil, fmt.Errorf("failed to verify postgres sink: %w", err)
	}

	report := &domain.VerificationReport{
		Date:          expectedDate,
		PostgresCount: count,
		CSVExists:     g.history.Exists(),
	}
	if report.CSVExists {
		rows, err := g.history.RowCount()
		if err != nil {
			return nil, fmt.Errorf("failed to verify csv sink: %w", err)
		}
		report.CSVRowCount = rows
	}

	report.Passed = report.PostgresCount > 0 && report.CSVExists

	slog.Info("Verification report",
		"date", report.Date,
		"postgres_count", report.PostgresCount,
		"csv_exists", report.CSVExists,
		"csv_rows", report.CSVRowCount,
		"passed", report.Passed)

	return report, nil
}
