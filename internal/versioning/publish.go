package versioning

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-git/go-git/v5"
	gitconfig "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/transport"
	githttp "github.com/go-git/go-git/v5/plumbing/transport/http"

	"github.com/zainulabidin776/apodflow/internal/core/domain"
)

// Publisher pushes the data repository to its remote. Entirely
// best-effort: every failure mode is captured as a non-ok result with a
// reason code and never fails the run.
type Publisher struct {
	dir string
	cfg Config
}

// NewPublisher creates a publisher for the data directory.
func NewPublisher(dir string, cfg Config) *Publisher {
	return &Publisher{dir: dir, cfg: cfg}
}

// Publish pushes the target branch. If the local branch differs from the
// target it tries to switch or create it first; if that fails too, it
// pushes the current branch rather than aborting.
func (p *Publisher) Publish(ctx context.Context, branch string) *domain.PublishResult {
	repo, err := git.PlainOpen(p.dir)
	if err != nil {
		slog.Warn("Publish skipped, repository unavailable", "error", err)
		return &domain.PublishResult{OK: false, Reason: domain.PublishReasonNoRemote}
	}

	if _, err := repo.Remote(p.cfg.RemoteName); err != nil {
		slog.Info("No remote configured, publish skipped", "remote", p.cfg.RemoteName)
		return &domain.PublishResult{OK: false, Reason: domain.PublishReasonNoRemote}
	}

	pushBranch := branch
	if current := currentBranch(repo); current != "" && current != branch {
		if err := p.switchBranch(repo, branch); err != nil {
			slog.Warn("Could not switch to publish branch, pushing current branch",
				"want", branch, "have", current, "error", err)
			pushBranch = current
		}
	}

	refSpec := gitconfig.RefSpec(fmt.Sprintf("refs/heads/%s:refs/heads/%s", pushBranch, pushBranch))
	opts := &git.PushOptions{
		RemoteName: p.cfg.RemoteName,
		RefSpecs:   []gitconfig.RefSpec{refSpec},
	}
	if p.cfg.AuthToken != "" {
		opts.Auth = &githttp.BasicAuth{Username: "token", Password: p.cfg.AuthToken}
	}

	err = repo.PushContext(ctx, opts)
	switch {
	case err == nil:
		slog.Info("Published to remote", "remote", p.cfg.RemoteName, "branch", pushBranch)
		return &domain.PublishResult{OK: true}
	case errors.Is(err, git.NoErrAlreadyUpToDate):
		slog.Info("Remote already up to date", "branch", pushBranch)
		return &domain.PublishResult{OK: true, Reason: domain.PublishReasonUpToDate}
	default:
		reason := classifyPushError(err)
		slog.Warn("Publish failed", "reason", reason, "error", err)
		return &domain.PublishResult{OK: false, Reason: reason}
	}
}

func (p *Publisher) switchBranch(repo *git.Repository, branch string) error {
	wt, err := repo.Worktree()
	if err != nil {
		return err
	}
	ref := plumbing.NewBranchReferenceName(branch)
	if err := wt.Checkout(&git.CheckoutOptions{Branch: ref}); err == nil {
		return nil
	}
	return wt.Checkout(&git.CheckoutOptions{Branch: ref, Create: true})
}

func currentBranch(repo *git.Repository) string {
	head, err := repo.Head()
	if err != nil || !head.Name().IsBranch() {
		return ""
	}
	return head.Name().Short()
}

func classifyPushError(err error) string {
	if errors.Is(err, transport.ErrAuthenticationRequired) ||
		errors.Is(err, transport.ErrAuthorizationFailed) {
		return domain.PublishReasonAuth
	}
	s := strings.ToLower(err.Error())
	if strings.Contains(s, "auth") || strings.Contains(s, "permission denied") {
		return domain.PublishReasonAuth
	}
	if strings.Contains(s, "branch") || strings.Contains(s, "non-fast-forward") ||
		strings.Contains(s, "reference") {
		return domain.PublishReasonBranch
	}
	return domain.PublishReasonNetwork
}
