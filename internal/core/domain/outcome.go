package domain

// ExtractionOutcome carries the extracted record plus how it was obtained.
// It lives only between the extraction and normalization stages and is
// never persisted.
type ExtractionOutcome struct {
	Record     Record
	Provenance Provenance
	Attempts   int
}

// MetadataSource identifies which path produced a metadata document.
type MetadataSource string

const (
	MetadataSourceReal      MetadataSource = "real"
	MetadataSourceSimulated MetadataSource = "simulated"
)

// VersioningState is recomputed from the working tree every run; it is
// never cached across runs.
type VersioningState struct {
	CSVChecksum     string
	MetadataPresent bool
	MetadataSource  MetadataSource
	RepoDirty       bool
}

// VerificationReport is the read-only cross-check of both sinks.
type VerificationReport struct {
	Date          string
	PostgresCount int
	CSVExists     bool
	CSVRowCount   int
	Passed        bool
}

// MetadataResult describes the content-addressed metadata document
// produced for the data file.
type MetadataResult struct {
	Path     string
	Checksum string
	Source   MetadataSource
}

// CommitResult reports the outcome of a reconcile pass.
type CommitResult struct {
	Hash          string
	MadeNewCommit bool
}

// PublishResult reports a best-effort push. Reason is one of the
// PublishReason* codes when OK is false.
type PublishResult struct {
	OK     bool
	Reason string
}

const (
	PublishReasonNoRemote = "no-remote"
	PublishReasonAuth     = "auth"
	PublishReasonBranch   = "branch"
	PublishReasonNetwork  = "network"
	PublishReasonUpToDate = "up-to-date"
)
