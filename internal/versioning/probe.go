// Package versioning tracks the data file through a content-addressed
// metadata document and an idempotent git layer. The external dvc binary
// is optional: when absent or broken, the metadata document is simulated
// so downstream consumers see an identical contract.
package versioning

import (
	"context"
	"log/slog"
	"os/exec"
	"time"
)

const probeTimeout = 10 * time.Second

// Probe detects whether the external metadata tool is usable. Probed
// fresh on every call: the binary can appear, break, or vanish between
// scheduled runs.
type Probe struct {
	binary string
}

// NewProbe creates a probe for the given binary name or path.
func NewProbe(binary string) *Probe {
	return &Probe{binary: binary}
}

// Available reports whether the binary exists on the execution path and
// answers a no-op version query.
func (p *Probe) Available(ctx context.Context) bool {
	path, err := exec.LookPath(p.binary)
	if err != nil {
		slog.Debug("Metadata tool not on path", "binary", p.binary)
		return false
	}

	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	if err := exec.CommandContext(ctx, path, "version").Run(); err != nil {
		slog.Warn("Metadata tool present but not functional", "binary", path, "error", err)
		return false
	}
	return true
}
