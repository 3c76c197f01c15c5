package versioning

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-git/go-git/v5"

	"github.com/zainulabidin776/apodflow/internal/core/domain"
)

func writeDataFile(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "apod_data.csv")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write data file: %v", err)
	}
	return path
}

func TestSimulatedProduce_Idempotent(t *testing.T) {
	dir := t.TempDir()
	path := writeDataFile(t, dir, "date,title\n2024-11-14,Nebula\n")
	producer := NewSimulatedProducer()

	first, err := producer.Produce(context.Background(), path)
	if err != nil {
		t.Fatalf("first Produce failed: %v", err)
	}
	second, err := producer.Produce(context.Background(), path)
	if err != nil {
		t.Fatalf("second Produce failed: %v", err)
	}

	if first.Checksum != second.Checksum {
		t.Errorf("checksums differ across runs: %s != %s", first.Checksum, second.Checksum)
	}
	if second.Source != domain.MetadataSourceSimulated {
		t.Errorf("expected simulated source, got %s", second.Source)
	}
}

func TestSimulatedProduce_ChecksumMatchesFile(t *testing.T) {
	dir := t.TempDir()
	path := writeDataFile(t, dir, "date,title\n2024-11-14,Nebula\n")

	res, err := NewSimulatedProducer().Produce(context.Background(), path)
	if err != nil {
		t.Fatalf("Produce failed: %v", err)
	}

	direct, err := FileChecksum(path)
	if err != nil {
		t.Fatalf("FileChecksum failed: %v", err)
	}
	if res.Checksum != direct {
		t.Errorf("document checksum %s != direct hash %s", res.Checksum, direct)
	}

	// The document on disk must carry the same checksum in the tool's shape.
	doc, err := readDocument(res.Path)
	if err != nil {
		t.Fatalf("readDocument failed: %v", err)
	}
	if len(doc.Outs) != 1 || doc.Outs[0].MD5 != direct || doc.Outs[0].Hash != "md5" {
		t.Errorf("unexpected document: %+v", doc)
	}
	if doc.Outs[0].Path != "apod_data.csv" {
		t.Errorf("expected relative path in document, got %s", doc.Outs[0].Path)
	}
}

func TestSimulatedProduce_ReplacesStaleDocument(t *testing.T) {
	dir := t.TempDir()
	path := writeDataFile(t, dir, "v1")
	producer := NewSimulatedProducer()

	first, err := producer.Produce(context.Background(), path)
	if err != nil {
		t.Fatalf("Produce failed: %v", err)
	}

	writeDataFile(t, dir, "v2 with different content")
	second, err := producer.Produce(context.Background(), path)
	if err != nil {
		t.Fatalf("Produce failed: %v", err)
	}

	if first.Checksum == second.Checksum {
		t.Fatal("checksum should change with content")
	}

	doc, err := readDocument(second.Path)
	if err != nil {
		t.Fatalf("readDocument failed: %v", err)
	}
	if len(doc.Outs) != 1 {
		t.Fatalf("stale document must be replaced, not appended: %d outs", len(doc.Outs))
	}
	if doc.Outs[0].MD5 != second.Checksum {
		t.Errorf("document still carries stale checksum")
	}
}

func TestSimulatedProduce_MaintainsGitignore(t *testing.T) {
	dir := t.TempDir()
	path := writeDataFile(t, dir, "data")

	if _, err := NewSimulatedProducer().Produce(context.Background(), path); err != nil {
		t.Fatalf("Produce failed: %v", err)
	}
	// Second run must not duplicate the entry.
	if _, err := NewSimulatedProducer().Produce(context.Background(), path); err != nil {
		t.Fatalf("Produce failed: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, ".gitignore"))
	if err != nil {
		t.Fatalf("expected .gitignore to exist: %v", err)
	}
	if got := strings.Count(string(data), "/apod_data.csv"); got != 1 {
		t.Errorf("expected exactly one ignore entry, got %d in %q", got, data)
	}
}

func TestSimulatedProduce_MissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "apod_data.csv")
	if _, err := NewSimulatedProducer().Produce(context.Background(), path); err == nil {
		t.Fatal("expected error for missing data file")
	}
}

func TestProbe_AbsentBinary(t *testing.T) {
	probe := NewProbe("definitely-not-a-real-binary-name")
	if probe.Available(context.Background()) {
		t.Error("expected probe to fail for absent binary")
	}
}

// failingProducer simulates a tool that passes the probe but breaks at
// runtime.
type failingProducer struct{ calls int }

func (f *failingProducer) Produce(ctx context.Context, filePath string) (*domain.MetadataResult, error) {
	f.calls++
	return nil, errors.New("tool crashed")
}

// alwaysProbe reports a fixed availability; swapping the binary for a
// known-present one keeps this test hermetic.
func TestVersioner_FallsThroughOnRealPathFailure(t *testing.T) {
	dir := t.TempDir()
	path := writeDataFile(t, dir, "data")

	// "true" exists on any POSIX system and exits 0 for "true version".
	probe := NewProbe("true")
	real := &failingProducer{}
	v := NewVersioner(probe, real, NewSimulatedProducer())

	res, err := v.Version(context.Background(), path)
	if err != nil {
		t.Fatalf("Version failed: %v", err)
	}
	if real.calls != 1 {
		t.Errorf("expected real path to be tried once, got %d", real.calls)
	}
	if res.Source != domain.MetadataSourceSimulated {
		t.Errorf("expected simulated fallback, got %s", res.Source)
	}
}

func TestVersioner_SimulatedWhenToolAbsent(t *testing.T) {
	dir := t.TempDir()
	path := writeDataFile(t, dir, "data")

	real := &failingProducer{}
	v := NewVersioner(NewProbe("definitely-not-a-real-binary-name"), real, NewSimulatedProducer())

	res, err := v.Version(context.Background(), path)
	if err != nil {
		t.Fatalf("Version failed: %v", err)
	}
	if real.calls != 0 {
		t.Errorf("real path must not run when the probe fails, got %d calls", real.calls)
	}
	if res.Source != domain.MetadataSourceSimulated {
		t.Errorf("expected simulated source, got %s", res.Source)
	}
}

// writeFakeTool installs a shell stand-in for the dvc binary that records
// its invocations and mimics init/add just enough for the real path.
func writeFakeTool(t *testing.T) (binary, callLog string) {
	t.Helper()
	toolDir := t.TempDir()
	binary = filepath.Join(toolDir, "dvc")
	callLog = filepath.Join(toolDir, "calls.log")

	script := `#!/bin/sh
echo "$1" >> "` + callLog + `"
case "$1" in
version) exit 0 ;;
init) mkdir -p .dvc ;;
add)
  printf 'outs:\n- md5: d41d8cd98f00b204e9800998ecf8427e\n  size: 0\n  hash: md5\n  path: %s\n' "$2" > "$2.dvc"
  ;;
esac
`
	if err := os.WriteFile(binary, []byte(script), 0o755); err != nil {
		t.Fatalf("failed to write fake tool: %v", err)
	}
	return binary, callLog
}

func countCalls(t *testing.T, callLog, name string) int {
	t.Helper()
	data, err := os.ReadFile(callLog)
	if err != nil {
		t.Fatalf("failed to read call log: %v", err)
	}
	n := 0
	for _, line := range strings.Split(string(data), "\n") {
		if strings.TrimSpace(line) == name {
			n++
		}
	}
	return n
}

func TestToolProduce_InitializesWorkspaceOnce(t *testing.T) {
	dir := t.TempDir()
	path := writeDataFile(t, dir, "date,title\n2024-11-14,Nebula\n")
	binary, callLog := writeFakeTool(t)

	p := NewToolProducer(Config{DVCBinary: binary, Branch: "main"})

	res, err := p.Produce(context.Background(), path)
	if err != nil {
		t.Fatalf("first Produce failed: %v", err)
	}
	if res.Source != domain.MetadataSourceReal {
		t.Errorf("source = %s, want real", res.Source)
	}
	if _, err := os.Stat(filepath.Join(dir, ".dvc")); err != nil {
		t.Error("expected initialized tool workspace in data dir")
	}
	if _, err := git.PlainOpen(dir); err != nil {
		t.Errorf("expected git repository alongside tool workspace: %v", err)
	}

	if _, err := p.Produce(context.Background(), path); err != nil {
		t.Fatalf("second Produce failed: %v", err)
	}

	if got := countCalls(t, callLog, "init"); got != 1 {
		t.Errorf("init calls = %d, want exactly 1", got)
	}
	if got := countCalls(t, callLog, "add"); got != 2 {
		t.Errorf("add calls = %d, want 2", got)
	}
}

func TestToolProduce_SkipsInitWhenWorkspacePresent(t *testing.T) {
	dir := t.TempDir()
	path := writeDataFile(t, dir, "data")
	if err := os.MkdirAll(filepath.Join(dir, ".dvc"), 0o755); err != nil {
		t.Fatal(err)
	}
	binary, callLog := writeFakeTool(t)

	p := NewToolProducer(Config{DVCBinary: binary, Branch: "main"})
	if _, err := p.Produce(context.Background(), path); err != nil {
		t.Fatalf("Produce failed: %v", err)
	}

	if got := countCalls(t, callLog, "init"); got != 0 {
		t.Errorf("init calls = %d, want 0 for an initialized workspace", got)
	}
}
