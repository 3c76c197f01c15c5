// Package transform maps extraction outcomes into canonical records,
// enforcing field constraints before anything is persisted.
package transform

import (
	"time"
	"unicode/utf8"

	"github.com/zainulabidin776/apodflow/internal/core/domain"
)

// Field defaults applied when the upstream omits optional values.
const (
	defaultTitle       = "No Title"
	defaultAttribution = "NASA"
)

// Normalizer validates and canonicalizes extracted records.
type Normalizer struct {
	now func() time.Time
}

// NewNormalizer creates a normalizer.
func NewNormalizer() *Normalizer {
	return &Normalizer{now: time.Now}
}

// Normalize enforces the canonical schema on an extraction outcome.
// A missing or empty date is a hard validation failure; every other field
// has an explicit default. Text fields are silently truncated to their
// caps.
func (n *Normalizer) Normalize(outcome *domain.ExtractionOutcome) (*domain.Record, error) {
	rec := outcome.Record

	if rec.Date == "" {
		return nil, &domain.ValidationError{Field: "date", Reason: "missing from upstream response"}
	}
	if _, err := time.Parse(domain.DateLayout, rec.Date); err != nil {
		return nil, &domain.ValidationError{Field: "date", Reason: "not a calendar date: " + rec.Date}
	}

	if rec.Title == "" {
		rec.Title = defaultTitle
	}
	if rec.MediaType != domain.MediaTypeImage && rec.MediaType != domain.MediaTypeVideo {
		rec.MediaType = domain.MediaTypeImage
	}
	if rec.Attribution == "" {
		rec.Attribution = defaultAttribution
	}

	rec.Explanation = truncate(rec.Explanation, domain.MaxExplanationLen)
	rec.Attribution = truncate(rec.Attribution, domain.MaxAttributionLen)

	if rec.RetrievedAt.IsZero() {
		rec.RetrievedAt = n.now()
	}
	rec.Provenance = outcome.Provenance

	return &rec, nil
}

// truncate caps a string at max characters, never splitting a multibyte
// rune.
func truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	return string([]rune(s)[:max])
}
