package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/zainulabidin776/apodflow/internal/core/domain"
	"github.com/zainulabidin776/apodflow/internal/pipeline/metrics"
)

// Extractor produces one record per run, from the upstream API or a
// fallback tier.
type Extractor interface {
	Extract(ctx context.Context) (*domain.ExtractionOutcome, error)
}

// Normalizer validates and shapes an extraction outcome into a record
// ready for persistence.
type Normalizer interface {
	Normalize(outcome *domain.ExtractionOutcome) (*domain.Record, error)
}

// Writer persists a record to every configured sink.
type Writer interface {
	Write(ctx context.Context, rec *domain.Record) error
}

// Verifier cross-checks the sinks after a write.
type Verifier interface {
	Verify(ctx context.Context, expectedDate string) (*domain.VerificationReport, error)
}

// Versioner produces the content-addressed metadata document for the
// data file.
type Versioner interface {
	Version(ctx context.Context, filePath string) (*domain.MetadataResult, error)
}

// Reconciler commits data-repository changes under a label.
type Reconciler interface {
	Reconcile(ctx context.Context, commitLabel string) (*domain.CommitResult, error)
}

// Publisher pushes the data repository; it reports but never fails.
type Publisher interface {
	Publish(ctx context.Context, branch string) *domain.PublishResult
}

// RecordCache remembers the last good record for future fallback.
type RecordCache interface {
	SaveLast(ctx context.Context, rec *domain.Record) error
}

// Deps wires the pipeline stages into a runner.
type Deps struct {
	Extractor  Extractor
	Normalizer Normalizer
	Writer     Writer
	Verifier   Verifier
	Versioner  Versioner
	Reconciler Reconciler
	Publisher  Publisher
	Cache      RecordCache // optional
}

// Runner executes one full extract-transform-load-version pass per call.
type Runner struct {
	deps     Deps
	dataFile string // absolute path of the CSV inside the data directory
	branch   string
}

// NewRunner creates a runner over the wired stages.
func NewRunner(deps Deps, dataFile, branch string) *Runner {
	return &Runner{deps: deps, dataFile: dataFile, branch: branch}
}

// RunOnce executes the stages strictly in order. Any stage error aborts
// the run; the publish stage alone is best-effort and only reported.
func (r *Runner) RunOnce(ctx context.Context) error {
	runID := uuid.NewString()
	log := slog.With("run_id", runID)
	start := time.Now()

	err := r.run(ctx, log)
	metrics.RunDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.RunsTotal.WithLabelValues("failed").Inc()
		log.Error("Pipeline run failed", "error", err, "duration", time.Since(start))
		return err
	}
	metrics.RunsTotal.WithLabelValues("success").Inc()
	log.Info("Pipeline run finished", "duration", time.Since(start))
	return nil
}

func (r *Runner) run(ctx context.Context, log *slog.Logger) error {
	outcome, err := r.deps.Extractor.Extract(ctx)
	if err != nil {
		return fmt.Errorf("extraction failed: %w", err)
	}
	metrics.ExtractionAttempts.Add(float64(outcome.Attempts))
	metrics.RecordsByProvenance.WithLabelValues(string(outcome.Provenance)).Inc()
	log.Info("Extraction complete",
		"date", outcome.Record.Date,
		"provenance", outcome.Provenance,
		"attempts", outcome.Attempts)

	rec, err := r.deps.Normalizer.Normalize(outcome)
	if err != nil {
		return fmt.Errorf("normalization failed: %w", err)
	}

	if err := r.deps.Writer.Write(ctx, rec); err != nil {
		return fmt.Errorf("load failed: %w", err)
	}

	report, err := r.deps.Verifier.Verify(ctx, rec.Date)
	if err != nil {
		return fmt.Errorf("verification failed: %w", err)
	}
	if !report.Passed {
		return &domain.VerificationError{Report: *report}
	}

	meta, err := r.deps.Versioner.Version(ctx, r.dataFile)
	if err != nil {
		return fmt.Errorf("metadata production failed: %w", err)
	}
	log.Info("Metadata produced",
		"path", meta.Path, "checksum", meta.Checksum, "source", meta.Source)

	label := fmt.Sprintf("Update APOD data version for %s", rec.Date)
	commit, err := r.deps.Reconciler.Reconcile(ctx, label)
	if err != nil {
		return fmt.Errorf("reconcile failed: %w", err)
	}
	switch {
	case commit.MadeNewCommit:
		metrics.CommitsTotal.WithLabelValues("committed").Inc()
	default:
		metrics.CommitsTotal.WithLabelValues("noop").Inc()
	}

	publish := r.deps.Publisher.Publish(ctx, r.branch)
	reason := publish.Reason
	if publish.OK && reason == "" {
		reason = "pushed"
	}
	metrics.PublishTotal.WithLabelValues(reason).Inc()
	if !publish.OK {
		log.Warn("Publish skipped or failed", "reason", publish.Reason)
	}

	// Only a live record is worth remembering for outage fallback.
	if r.deps.Cache != nil && rec.Provenance == domain.ProvenanceLive {
		if err := r.deps.Cache.SaveLast(ctx, rec); err != nil {
			log.Warn("Failed to cache last record", "error", err)
		}
	}
	return nil
}
