package versioning

import (
	"context"
	"errors"
	"testing"

	"github.com/go-git/go-git/v5"
	gitconfig "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing/transport"

	"github.com/zainulabidin776/apodflow/internal/core/domain"
)

// commitOnce seeds a data directory with one committed metadata document
// and returns the working directory.
func commitOnce(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	seedWorktree(t, dir)
	r := NewReconciler(dir, testConfig())
	if _, err := r.Reconcile(context.Background(), "initial"); err != nil {
		t.Fatalf("Reconcile failed: %v", err)
	}
	return dir
}

func TestPublish_NoRepository(t *testing.T) {
	p := NewPublisher(t.TempDir(), testConfig())
	result := p.Publish(context.Background(), "main")
	if result.OK {
		t.Error("expected not-ok without a repository")
	}
	if result.Reason != domain.PublishReasonNoRemote {
		t.Errorf("reason = %q, want %q", result.Reason, domain.PublishReasonNoRemote)
	}
}

func TestPublish_NoRemoteConfigured(t *testing.T) {
	dir := commitOnce(t)

	p := NewPublisher(dir, testConfig())
	result := p.Publish(context.Background(), "main")
	if result.OK {
		t.Error("expected not-ok without a remote")
	}
	if result.Reason != domain.PublishReasonNoRemote {
		t.Errorf("reason = %q, want %q", result.Reason, domain.PublishReasonNoRemote)
	}
}

func TestPublish_LocalRemote(t *testing.T) {
	dir := commitOnce(t)

	bare := t.TempDir()
	if _, err := git.PlainInit(bare, true); err != nil {
		t.Fatalf("failed to init bare repo: %v", err)
	}
	repo, err := git.PlainOpen(dir)
	if err != nil {
		t.Fatalf("failed to open repo: %v", err)
	}
	if _, err := repo.CreateRemote(&gitconfig.RemoteConfig{
		Name: "origin",
		URLs: []string{bare},
	}); err != nil {
		t.Fatalf("failed to create remote: %v", err)
	}

	p := NewPublisher(dir, testConfig())

	result := p.Publish(context.Background(), "main")
	if !result.OK {
		t.Fatalf("push failed: reason=%q", result.Reason)
	}

	// Nothing new: still ok, flagged as already current.
	result = p.Publish(context.Background(), "main")
	if !result.OK {
		t.Fatalf("second push failed: reason=%q", result.Reason)
	}
	if result.Reason != domain.PublishReasonUpToDate {
		t.Errorf("reason = %q, want %q", result.Reason, domain.PublishReasonUpToDate)
	}
}

func TestClassifyPushError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"auth required", transport.ErrAuthenticationRequired, domain.PublishReasonAuth},
		{"authorization failed", transport.ErrAuthorizationFailed, domain.PublishReasonAuth},
		{"permission denied", errors.New("remote: permission denied"), domain.PublishReasonAuth},
		{"non fast forward", errors.New("non-fast-forward update"), domain.PublishReasonBranch},
		{"missing reference", errors.New("couldn't find remote reference"), domain.PublishReasonBranch},
		{"timeout", errors.New("dial tcp: i/o timeout"), domain.PublishReasonNetwork},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := classifyPushError(tt.err); got != tt.want {
				t.Errorf("classifyPushError(%v) = %q, want %q", tt.err, got, tt.want)
			}
		})
	}
}
