package versioning

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"gopkg.in/yaml.v2"

	"github.com/zainulabidin776/apodflow/internal/core/domain"
)

// MetadataProducer produces the content-addressed metadata document for a
// file. Two implementations exist: one delegating to the external tool,
// one computing the document directly.
type MetadataProducer interface {
	Produce(ctx context.Context, filePath string) (*domain.MetadataResult, error)
}

// dvcDocument mirrors the .dvc file shape produced by `dvc add`.
type dvcDocument struct {
	Outs []dvcOut `yaml:"outs"`
}

type dvcOut struct {
	MD5  string `yaml:"md5"`
	Size int64  `yaml:"size"`
	Hash string `yaml:"hash"`
	Path string `yaml:"path"`
}

// MetadataPath returns the metadata document path for a data file.
func MetadataPath(filePath string) string {
	return filePath + ".dvc"
}

// FileChecksum computes the md5 content checksum of a file, hex encoded.
// md5 is dictated by the dvc document format, which downstream consumers
// of both production paths must be unable to tell apart.
func FileChecksum(filePath string) (string, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to open %s: %w", filePath, err)
	}
	defer f.Close()

	h := md5.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("failed to hash %s: %w", filePath, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// ToolProducer delegates metadata production to the external dvc binary.
type ToolProducer struct {
	binary string
	cfg    Config
}

// NewToolProducer creates the real-path producer.
func NewToolProducer(cfg Config) *ToolProducer {
	return &ToolProducer{binary: cfg.DVCBinary, cfg: cfg}
}

// Produce runs `dvc add` on the file and reads back the generated
// document. The tool workspace is initialized on first use.
func (p *ToolProducer) Produce(ctx context.Context, filePath string) (*domain.MetadataResult, error) {
	dir := filepath.Dir(filePath)
	name := filepath.Base(filePath)

	if err := p.ensureInitialized(ctx, dir); err != nil {
		return nil, err
	}

	cmd := exec.CommandContext(ctx, p.binary, "add", name)
	cmd.Dir = dir
	if out, err := cmd.CombinedOutput(); err != nil {
		return nil, fmt.Errorf("dvc add failed: %w: %s", err, strings.TrimSpace(string(out)))
	}

	doc, err := readDocument(MetadataPath(filePath))
	if err != nil {
		return nil, err
	}
	if len(doc.Outs) == 0 {
		return nil, fmt.Errorf("dvc produced a document with no outputs")
	}

	return &domain.MetadataResult{
		Path:     MetadataPath(filePath),
		Checksum: doc.Outs[0].MD5,
		Source:   domain.MetadataSourceReal,
	}, nil
}

// ensureInitialized runs `dvc init` once per data directory. A `.dvc/`
// workspace already on disk means a prior run initialized it. dvc init
// refuses to run outside a git repository, so when the reconciler has not
// been here yet the repository is created first, on the same branch the
// reconciler would pick.
func (p *ToolProducer) ensureInitialized(ctx context.Context, dir string) error {
	if _, err := os.Stat(filepath.Join(dir, ".dvc")); err == nil {
		return nil
	}

	if _, err := git.PlainOpen(dir); errors.Is(err, git.ErrRepositoryNotExists) {
		_, err = git.PlainInitWithOptions(dir, &git.PlainInitOptions{
			InitOptions: git.InitOptions{
				DefaultBranch: plumbing.NewBranchReferenceName(p.cfg.Branch),
			},
		})
		if err != nil {
			return fmt.Errorf("failed to init repository for dvc: %w", err)
		}
	}

	cmd := exec.CommandContext(ctx, p.binary, "init")
	cmd.Dir = dir
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("dvc init failed: %w: %s", err, strings.TrimSpace(string(out)))
	}
	slog.Info("Initialized dvc workspace", "dir", dir)
	return nil
}

// SimulatedProducer computes the checksum directly and synthesizes a
// document in the same shape the tool would have written.
type SimulatedProducer struct{}

// NewSimulatedProducer creates the simulated-path producer.
func NewSimulatedProducer() *SimulatedProducer {
	return &SimulatedProducer{}
}

// Produce writes (or refreshes) the metadata document. An existing
// document with the same checksum is left untouched; a stale one is
// replaced, never appended.
func (p *SimulatedProducer) Produce(ctx context.Context, filePath string) (*domain.MetadataResult, error) {
	info, err := os.Stat(filePath)
	if err != nil {
		return nil, fmt.Errorf("data file missing: %w", err)
	}

	checksum, err := FileChecksum(filePath)
	if err != nil {
		return nil, err
	}

	metaPath := MetadataPath(filePath)
	result := &domain.MetadataResult{
		Path:     metaPath,
		Checksum: checksum,
		Source:   domain.MetadataSourceSimulated,
	}

	if prior, err := readDocument(metaPath); err == nil &&
		len(prior.Outs) > 0 && prior.Outs[0].MD5 == checksum {
		return result, nil
	}

	doc := dvcDocument{Outs: []dvcOut{{
		MD5:  checksum,
		Size: info.Size(),
		Hash: "md5",
		Path: filepath.Base(filePath),
	}}}
	data, err := yaml.Marshal(&doc)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal metadata document: %w", err)
	}
	if err := os.WriteFile(metaPath, data, 0o644); err != nil {
		return nil, fmt.Errorf("failed to write metadata document: %w", err)
	}

	if err := ensureIgnored(filepath.Dir(filePath), filepath.Base(filePath)); err != nil {
		return nil, err
	}

	return result, nil
}

func readDocument(metaPath string) (*dvcDocument, error) {
	data, err := os.ReadFile(metaPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read metadata document: %w", err)
	}
	var doc dvcDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse metadata document: %w", err)
	}
	return &doc, nil
}

// ensureIgnored keeps the data file out of git, the way `dvc add` updates
// .gitignore on the real path.
func ensureIgnored(dir, name string) error {
	ignorePath := filepath.Join(dir, ".gitignore")
	entry := "/" + name

	data, err := os.ReadFile(ignorePath)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to read .gitignore: %w", err)
	}
	for _, line := range strings.Split(string(data), "\n") {
		if strings.TrimSpace(line) == entry {
			return nil
		}
	}

	content := string(data)
	if content != "" && !strings.HasSuffix(content, "\n") {
		content += "\n"
	}
	content += entry + "\n"
	if err := os.WriteFile(ignorePath, []byte(content), 0o644); err != nil {
		return fmt.Errorf("failed to update .gitignore: %w", err)
	}
	return nil
}

// Versioner selects a production path per call based on a fresh probe.
type Versioner struct {
	probe     *Probe
	real      MetadataProducer
	simulated MetadataProducer
}

// NewVersioner creates a dual-path metadata versioner.
func NewVersioner(probe *Probe, real, simulated MetadataProducer) *Versioner {
	return &Versioner{probe: probe, real: real, simulated: simulated}
}

// Version produces the metadata document for the file. Tool absence is
// never an error; a real-path runtime failure despite a passing probe
// falls through to the simulated path.
func (v *Versioner) Version(ctx context.Context, filePath string) (*domain.MetadataResult, error) {
	if v.probe.Available(ctx) {
		res, err := v.real.Produce(ctx, filePath)
		if err == nil {
			return res, nil
		}
		slog.Warn("Metadata tool failed at runtime, simulating", "error", err)
	}
	return v.simulated.Produce(ctx, filePath)
}
