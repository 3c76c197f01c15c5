package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/zainulabidin776/apodflow/internal/core/domain"
	"github.com/zainulabidin776/apodflow/internal/infra/storage"
)

// RecordRepo implements storage.RecordRepository using PostgreSQL.
type RecordRepo struct {
	db *DB
}

// NewRecordRepo creates a new PostgreSQL record repository.
func NewRecordRepo(db *DB) *RecordRepo {
	return &RecordRepo{db: db}
}

const upsertRecordQuery = `
INSERT INTO apod_records
    (date, title, url, hdurl, media_type, explanation, copyright, retrieved_at, provenance)
VALUES
    (:date, :title, :url, :hdurl, :media_type, :explanation, :copyright, :retrieved_at, :provenance)
ON CONFLICT (date) DO UPDATE SET
    title        = EXCLUDED.title,
    url          = EXCLUDED.url,
    hdurl        = EXCLUDED.hdurl,
    media_type   = EXCLUDED.media_type,
    explanation  = EXCLUDED.explanation,
    copyright    = EXCLUDED.copyright,
    retrieved_at = EXCLUDED.retrieved_at,
    provenance   = EXCLUDED.provenance`

// Upsert inserts or updates a record keyed on date. Idempotent across
// repeated calls with identical data.
func (r *RecordRepo) Upsert(ctx context.Context, rec *domain.Record) error {
	if _, err := r.db.NamedExecContext(ctx, upsertRecordQuery, rec); err != nil {
		return fmt.Errorf("failed to upsert record for %s: %w", rec.Date, err)
	}
	return nil
}

// CountByDate returns how many rows exist for a date.
func (r *RecordRepo) CountByDate(ctx context.Context, date string) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count,
		"SELECT COUNT(*) FROM apod_records WHERE date = $1", date)
	if err != nil {
		return 0, fmt.Errorf("failed to count records: %w", err)
	}
	return count, nil
}

// Latest retrieves the most recent record by date.
func (r *RecordRepo) Latest(ctx context.Context) (*domain.Record, error) {
	var rec domain.Record
	err := r.db.GetContext(ctx, &rec,
		`SELECT date::text AS date, title, url, hdurl, media_type, explanation, copyright, retrieved_at, provenance
		 FROM apod_records ORDER BY date DESC LIMIT 1`)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrRecordNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest record: %w", err)
	}
	return &rec, nil
}

// TotalCount returns the total number of stored records.
func (r *RecordRepo) TotalCount(ctx context.Context) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM apod_records"); err != nil {
		return 0, fmt.Errorf("failed to count records: %w", err)
	}
	return count, nil
}
