// Package csvfile implements the flat-file sink: a single CSV with a
// header row and one row per date. The file is both the historical source
// for extraction fallback and the artifact checksummed by the versioner.
package csvfile

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/zainulabidin776/apodflow/internal/core/domain"
	"github.com/zainulabidin776/apodflow/internal/infra/storage"
)

var header = []string{
	"date", "title", "url", "hdurl", "media_type",
	"explanation", "copyright", "retrieved_at", "provenance",
}

// Store reads and writes the append-only CSV data file.
type Store struct {
	path string
}

// NewStore creates a store for the given file path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Path returns the file path.
func (s *Store) Path() string {
	return s.path
}

// Exists reports whether the file is present on disk.
func (s *Store) Exists() bool {
	_, err := os.Stat(s.path)
	return err == nil
}

// AppendAndDedupe merges a record into the file. An existing row with the
// same date is replaced (last write wins) and rows are kept sorted by date
// descending, matching the merge rules of the relational upsert.
func (s *Store) AppendAndDedupe(rec *domain.Record) error {
	rows, err := s.readAll()
	if err != nil {
		return err
	}

	merged := rows[:0]
	for _, r := range rows {
		if r.Date != rec.Date {
			merged = append(merged, r)
		}
	}
	merged = append(merged, *rec)

	sort.Slice(merged, func(i, j int) bool {
		return merged[i].Date > merged[j].Date
	})

	return s.writeAll(merged)
}

// Latest returns the row with the maximum date.
func (s *Store) Latest() (*domain.Record, error) {
	rows, err := s.readAll()
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, storage.ErrRecordNotFound
	}

	latest := rows[0]
	for _, r := range rows[1:] {
		if r.Date > latest.Date {
			latest = r
		}
	}
	return &latest, nil
}

// RowCount returns the number of data rows, header excluded.
func (s *Store) RowCount() (int, error) {
	rows, err := s.readAll()
	if err != nil {
		return 0, err
	}
	return len(rows), nil
}

func (s *Store) readAll() ([]domain.Record, error) {
	f, err := os.Open(s.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open csv: %w", err)
	}
	defer f.Close()

	raw, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read csv: %w", err)
	}
	if len(raw) <= 1 {
		return nil, nil
	}

	records := make([]domain.Record, 0, len(raw)-1)
	for _, row := range raw[1:] {
		if len(row) != len(header) {
			return nil, fmt.Errorf("malformed csv row: expected %d fields, got %d", len(header), len(row))
		}
		retrievedAt, _ := time.Parse(time.RFC3339, row[7])
		records = append(records, domain.Record{
			Date:        row[0],
			Title:       row[1],
			MediaURL:    row[2],
			HighDefURL:  row[3],
			MediaType:   domain.MediaType(row[4]),
			Explanation: row[5],
			Attribution: row[6],
			RetrievedAt: retrievedAt,
			Provenance:  domain.Provenance(row[8]),
		})
	}
	return records, nil
}

func (s *Store) writeAll(records []domain.Record) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("failed to create data dir: %w", err)
	}

	// Write to a temp file first so a crash mid-write cannot truncate the
	// historical store that the fallback chain depends on.
	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".apod_csv_*")
	if err != nil {
		return fmt.Errorf("failed to create temp csv: %w", err)
	}
	defer os.Remove(tmp.Name())

	w := csv.NewWriter(tmp)
	if err := w.Write(header); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write csv header: %w", err)
	}
	for _, r := range records {
		row := []string{
			r.Date, r.Title, r.MediaURL, r.HighDefURL, string(r.MediaType),
			r.Explanation, r.Attribution, r.RetrievedAt.Format(time.RFC3339), string(r.Provenance),
		}
		if err := w.Write(row); err != nil {
			tmp.Close()
			return fmt.Errorf("failed to write csv row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to flush csv: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp csv: %w", err)
	}

	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("failed to replace csv: %w", err)
	}
	return nil
}
