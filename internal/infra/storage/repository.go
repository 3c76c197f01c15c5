package storage

import (
	"context"
	"errors"

	"github.com/zainulabidin776/apodflow/internal/core/domain"
)

var (
	// ErrRecordNotFound is returned when no record exists for a date
	ErrRecordNotFound = errors.New("record not found")
)

// RecordRepository handles canonical record storage in the relational sink.
type RecordRepository interface {
	// Upsert inserts or updates a record keyed on its date
	Upsert(ctx context.Context, rec *domain.Record) error

	// CountByDate returns how many rows exist for a date
	CountByDate(ctx context.Context, date string) (int, error)

	// Latest retrieves the most recent record by date
	Latest(ctx context.Context) (*domain.Record, error)

	// TotalCount returns the total number of stored records
	TotalCount(ctx context.Context) (int, error)
}

// HistoryStore is the flat-file sink. It doubles as the historical source
// for the extraction fallback chain and as the checksummed artifact for
// the metadata versioner.
type HistoryStore interface {
	// AppendAndDedupe merges a record into the file, last write wins per date
	AppendAndDedupe(rec *domain.Record) error

	// Latest returns the row with the maximum date, or ErrRecordNotFound
	Latest() (*domain.Record, error)

	// Exists reports whether the file is present on disk
	Exists() bool

	// RowCount returns the number of data rows (header excluded)
	RowCount() (int, error)

	// Path returns the absolute file path
	Path() string
}
