package versioning

import (
	"context"
	"testing"

	"github.com/go-git/go-git/v5"
)

func testConfig() Config {
	return Config{
		Branch:      "main",
		RemoteName:  "origin",
		AuthorName:  "Apodflow Pipeline",
		AuthorEmail: "pipeline@apodflow.local",
	}
}

func seedWorktree(t *testing.T, dir string) {
	t.Helper()
	path := writeDataFile(t, dir, "date,title\n2024-11-14,Nebula\n")
	if _, err := NewSimulatedProducer().Produce(context.Background(), path); err != nil {
		t.Fatalf("failed to produce metadata: %v", err)
	}
}

func TestReconcile_FirstCommit(t *testing.T) {
	dir := t.TempDir()
	seedWorktree(t, dir)

	r := NewReconciler(dir, testConfig())
	result, err := r.Reconcile(context.Background(), "Update APOD data version for 2024-11-14")
	if err != nil {
		t.Fatalf("Reconcile failed: %v", err)
	}
	if !result.MadeNewCommit {
		t.Error("expected a new commit on a dirty fresh tree")
	}
	if result.Hash == "" {
		t.Error("expected a commit hash")
	}
}

func TestReconcile_SecondRunIsNoOp(t *testing.T) {
	dir := t.TempDir()
	seedWorktree(t, dir)

	r := NewReconciler(dir, testConfig())
	first, err := r.Reconcile(context.Background(), "Update APOD data version for 2024-11-14")
	if err != nil {
		t.Fatalf("first Reconcile failed: %v", err)
	}

	second, err := r.Reconcile(context.Background(), "Update APOD data version for 2024-11-14")
	if err != nil {
		t.Fatalf("second Reconcile failed: %v", err)
	}
	if second.MadeNewCommit {
		t.Error("expected no-op on unchanged tree")
	}
	if second.Hash != first.Hash {
		t.Errorf("hash changed across no-op: %s -> %s", first.Hash, second.Hash)
	}
}

func TestReconcile_CommitsOnChange(t *testing.T) {
	dir := t.TempDir()
	seedWorktree(t, dir)

	r := NewReconciler(dir, testConfig())
	first, err := r.Reconcile(context.Background(), "Update APOD data version for 2024-11-14")
	if err != nil {
		t.Fatalf("first Reconcile failed: %v", err)
	}

	// New day, new content, refreshed metadata.
	path := writeDataFile(t, dir, "date,title\n2024-11-15,Galaxy\n2024-11-14,Nebula\n")
	if _, err := NewSimulatedProducer().Produce(context.Background(), path); err != nil {
		t.Fatalf("failed to refresh metadata: %v", err)
	}

	second, err := r.Reconcile(context.Background(), "Update APOD data version for 2024-11-15")
	if err != nil {
		t.Fatalf("second Reconcile failed: %v", err)
	}
	if !second.MadeNewCommit {
		t.Error("expected a new commit after metadata change")
	}
	if second.Hash == first.Hash {
		t.Error("expected a different commit hash")
	}
}

func TestReconcile_DataFileStaysOutOfGit(t *testing.T) {
	dir := t.TempDir()
	seedWorktree(t, dir)

	r := NewReconciler(dir, testConfig())
	if _, err := r.Reconcile(context.Background(), "initial"); err != nil {
		t.Fatalf("Reconcile failed: %v", err)
	}

	repo, err := git.PlainOpen(dir)
	if err != nil {
		t.Fatalf("failed to open repo: %v", err)
	}
	head, err := repo.Head()
	if err != nil {
		t.Fatalf("failed to read HEAD: %v", err)
	}
	commit, err := repo.CommitObject(head.Hash())
	if err != nil {
		t.Fatalf("failed to read commit: %v", err)
	}
	tree, err := commit.Tree()
	if err != nil {
		t.Fatalf("failed to read tree: %v", err)
	}

	if _, err := tree.File("apod_data.csv"); err == nil {
		t.Error("data file must not be committed, only its metadata document")
	}
	if _, err := tree.File("apod_data.csv.dvc"); err != nil {
		t.Error("metadata document should be committed")
	}
	if _, err := tree.File(".gitignore"); err != nil {
		t.Error("ignore rules should be committed")
	}
}

func TestReconcile_PreservesExistingIdentity(t *testing.T) {
	dir := t.TempDir()
	repo, err := git.PlainInit(dir, false)
	if err != nil {
		t.Fatalf("failed to init repo: %v", err)
	}
	cfg, err := repo.Config()
	if err != nil {
		t.Fatalf("failed to read config: %v", err)
	}
	cfg.User.Name = "Existing User"
	cfg.User.Email = "existing@example.com"
	if err := repo.SetConfig(cfg); err != nil {
		t.Fatalf("failed to set config: %v", err)
	}

	seedWorktree(t, dir)
	r := NewReconciler(dir, testConfig())
	if _, err := r.Reconcile(context.Background(), "commit"); err != nil {
		t.Fatalf("Reconcile failed: %v", err)
	}

	cfg, err = repo.Config()
	if err != nil {
		t.Fatalf("failed to re-read config: %v", err)
	}
	if cfg.User.Name != "Existing User" {
		t.Errorf("existing identity overwritten: %s", cfg.User.Name)
	}
}

func TestState_Recomputed(t *testing.T) {
	dir := t.TempDir()
	path := writeDataFile(t, dir, "data")

	r := NewReconciler(dir, testConfig())
	state, err := r.State(path)
	if err != nil {
		t.Fatalf("State failed: %v", err)
	}
	if state.MetadataPresent {
		t.Error("no metadata document yet")
	}
	if !state.RepoDirty {
		t.Error("uninitialized repo should read as dirty")
	}

	if _, err := NewSimulatedProducer().Produce(context.Background(), path); err != nil {
		t.Fatalf("Produce failed: %v", err)
	}
	if _, err := r.Reconcile(context.Background(), "commit"); err != nil {
		t.Fatalf("Reconcile failed: %v", err)
	}

	state, err = r.State(path)
	if err != nil {
		t.Fatalf("State failed: %v", err)
	}
	if !state.MetadataPresent {
		t.Error("metadata document should be present")
	}
	if state.RepoDirty {
		t.Error("tree should be clean after commit")
	}
	if state.CSVChecksum == "" {
		t.Error("checksum should be computed")
	}
}

func TestReconcile_EmptyDirNoCommit(t *testing.T) {
	dir := t.TempDir()

	r := NewReconciler(dir, testConfig())
	result, err := r.Reconcile(context.Background(), "nothing")
	if err != nil {
		t.Fatalf("Reconcile failed: %v", err)
	}
	if result.MadeNewCommit {
		t.Error("expected no commit for an empty tree")
	}
	if result.Hash != "" {
		t.Errorf("expected empty prior hash, got %s", result.Hash)
	}
}
