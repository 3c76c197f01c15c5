package versioning

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-git/go-git/v5"
	gitconfig "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/zainulabidin776/apodflow/internal/core/domain"
)

// Config holds git and metadata-tool settings for the data repository.
type Config struct {
	Branch      string `yaml:"branch"`
	RemoteName  string `yaml:"remote_name"`
	RemoteURL   string `yaml:"remote_url"`
	AuthorName  string `yaml:"author_name"`
	AuthorEmail string `yaml:"author_email"`
	AuthToken   string `yaml:"auth_token"` // basic-auth token for push, optional
	DVCBinary   string `yaml:"dvc_binary"` // defaults to "dvc" on PATH
}

// Reconciler reconciles the data working tree against its git repository.
// Every run diffs current state before acting; re-running a finished
// pipeline produces no duplicate commits.
type Reconciler struct {
	dir string
	cfg Config
}

// NewReconciler creates a reconciler for the data directory.
func NewReconciler(dir string, cfg Config) *Reconciler {
	return &Reconciler{dir: dir, cfg: cfg}
}

// Reconcile stages whatever changed in the working tree and commits it
// under the given label. A clean tree is a no-op returning the prior HEAD
// hash. A failed commit degrades to "no new commit"; a failure to read
// HEAD after a successful commit escalates, since the result would not be
// trustworthy.
func (r *Reconciler) Reconcile(ctx context.Context, commitLabel string) (*domain.CommitResult, error) {
	repo, err := r.ensureRepository()
	if err != nil {
		return nil, err
	}

	wt, err := repo.Worktree()
	if err != nil {
		return nil, fmt.Errorf("failed to open worktree: %w", err)
	}

	status, err := wt.Status()
	if err != nil {
		return nil, fmt.Errorf("failed to read worktree status: %w", err)
	}

	priorHash := headHash(repo)
	if status.IsClean() {
		slog.Info("Working tree clean, nothing to commit", "hash", priorHash)
		return &domain.CommitResult{Hash: priorHash, MadeNewCommit: false}, nil
	}

	for path := range status {
		if _, err := wt.Add(path); err != nil {
			return nil, fmt.Errorf("failed to stage %s: %w", path, err)
		}
	}

	commit, err := wt.Commit(commitLabel, &git.CommitOptions{
		Author: &object.Signature{
			Name:  r.cfg.AuthorName,
			Email: r.cfg.AuthorEmail,
			When:  time.Now(),
		},
	})
	if err != nil {
		// Degrade: the pipeline continues, the operator sees no new commit.
		slog.Error("Commit failed, continuing without a new commit", "error", err)
		return &domain.CommitResult{Hash: priorHash, MadeNewCommit: false}, nil
	}

	head, err := repo.Head()
	if err != nil {
		return nil, fmt.Errorf("commit %s succeeded but HEAD is unreadable: %w", commit, err)
	}

	slog.Info("Committed data version", "hash", head.Hash().String(), "message", commitLabel)
	return &domain.CommitResult{Hash: head.Hash().String(), MadeNewCommit: true}, nil
}

// State recomputes the versioning view of the working tree. Never cached
// across runs.
func (r *Reconciler) State(dataFile string) (*domain.VersioningState, error) {
	state := &domain.VersioningState{}

	if checksum, err := FileChecksum(dataFile); err == nil {
		state.CSVChecksum = checksum
	}
	if doc, err := readDocument(MetadataPath(dataFile)); err == nil && len(doc.Outs) > 0 {
		state.MetadataPresent = true
	}

	repo, err := git.PlainOpen(r.dir)
	if errors.Is(err, git.ErrRepositoryNotExists) {
		state.RepoDirty = true
		return state, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open repository: %w", err)
	}
	wt, err := repo.Worktree()
	if err != nil {
		return nil, fmt.Errorf("failed to open worktree: %w", err)
	}
	status, err := wt.Status()
	if err != nil {
		return nil, fmt.Errorf("failed to read worktree status: %w", err)
	}
	state.RepoDirty = !status.IsClean()
	return state, nil
}

// ensureRepository opens the data repository, initializing it plus author
// identity and remote on first use. Existing configuration is never
// overwritten.
func (r *Reconciler) ensureRepository() (*git.Repository, error) {
	repo, err := git.PlainOpen(r.dir)
	if errors.Is(err, git.ErrRepositoryNotExists) {
		repo, err = git.PlainInitWithOptions(r.dir, &git.PlainInitOptions{
			InitOptions: git.InitOptions{
				DefaultBranch: plumbing.NewBranchReferenceName(r.cfg.Branch),
			},
		})
		if err != nil {
			return nil, fmt.Errorf("failed to init repository: %w", err)
		}
		slog.Info("Initialized data repository", "dir", r.dir, "branch", r.cfg.Branch)
	} else if err != nil {
		return nil, fmt.Errorf("failed to open repository: %w", err)
	}

	if err := r.ensureIdentity(repo); err != nil {
		return nil, err
	}
	if err := r.ensureRemote(repo); err != nil {
		return nil, err
	}
	return repo, nil
}

func (r *Reconciler) ensureIdentity(repo *git.Repository) error {
	cfg, err := repo.Config()
	if err != nil {
		return fmt.Errorf("failed to read repository config: %w", err)
	}
	if cfg.User.Name != "" || cfg.User.Email != "" {
		return nil
	}
	cfg.User.Name = r.cfg.AuthorName
	cfg.User.Email = r.cfg.AuthorEmail
	if err := repo.SetConfig(cfg); err != nil {
		return fmt.Errorf("failed to set repository identity: %w", err)
	}
	return nil
}

func (r *Reconciler) ensureRemote(repo *git.Repository) error {
	if r.cfg.RemoteURL == "" {
		return nil
	}
	_, err := repo.Remote(r.cfg.RemoteName)
	if err == nil {
		return nil
	}
	if !errors.Is(err, git.ErrRemoteNotFound) {
		return fmt.Errorf("failed to look up remote: %w", err)
	}
	_, err = repo.CreateRemote(&gitconfig.RemoteConfig{
		Name: r.cfg.RemoteName,
		URLs: []string{r.cfg.RemoteURL},
	})
	if err != nil {
		return fmt.Errorf("failed to create remote: %w", err)
	}
	slog.Info("Configured remote", "name", r.cfg.RemoteName, "url", r.cfg.RemoteURL)
	return nil
}

func headHash(repo *git.Repository) string {
	head, err := repo.Head()
	if err != nil {
		return ""
	}
	return head.Hash().String()
}
