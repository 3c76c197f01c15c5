package domain

import "time"

type MediaType string

const (
	MediaTypeImage MediaType = "image"
	MediaTypeVideo MediaType = "video"
)

type Provenance string

const (
	// ProvenanceLive marks a record fetched from the upstream API this run.
	ProvenanceLive Provenance = "live"
	// ProvenanceCached marks a record recovered from a historical store.
	ProvenanceCached Provenance = "cached"
	// ProvenancePlaceholder marks a synthetic record emitted when no real
	// data could be obtained.
	ProvenancePlaceholder Provenance = "placeholder"
)

// Field caps applied by the normalizer before storage.
const (
	MaxExplanationLen = 1000
	MaxAttributionLen = 255
)

// DateLayout is the calendar-date key format used across both sinks.
const DateLayout = "2006-01-02"

// Record is the canonical unit flowing through the pipeline, keyed on Date.
type Record struct {
	Date        string     `json:"date"         db:"date"`
	Title       string     `json:"title"        db:"title"`
	MediaURL    string     `json:"url"          db:"url"`
	HighDefURL  string     `json:"hdurl"        db:"hdurl"`
	MediaType   MediaType  `json:"media_type"   db:"media_type"`
	Explanation string     `json:"explanation"  db:"explanation"`
	Attribution string     `json:"copyright"    db:"copyright"`
	RetrievedAt time.Time  `json:"retrieved_at" db:"retrieved_at"`
	Provenance  Provenance `json:"provenance"   db:"provenance"`
}

// RawRecord mirrors the upstream APOD API response body.
type RawRecord struct {
	Date        string `json:"date"`
	Title       string `json:"title"`
	URL         string `json:"url"`
	HDURL       string `json:"hdurl"`
	MediaType   string `json:"media_type"`
	Explanation string `json:"explanation"`
	Copyright   string `json:"copyright"`
}
