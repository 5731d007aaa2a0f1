package db

import (
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

func openTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := Open(filepath.Join(t.TempDir(), "test.db"), discard)
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func makePR(repoID, number int64) *PullRequest {
	return &PullRequest{
		Number:    number,
		Title:     fmt.Sprintf("PR %d", number),
		CreatedAt: "2026-08-01T10:00:00Z",
		UpdatedAt: "2026-08-02T10:00:00Z",
		Author:    "octocat",
		Head: Ref{
			RepoID: sql.NullInt64{Int64: repoID, Valid: true},
			Ref:    fmt.Sprintf("feature-%d", number),
			SHA:    "deadbeef",
		},
		Base: Ref{
			RepoID: sql.NullInt64{Int64: repoID, Valid: true},
			Ref:    "main",
			SHA:    "cafebabe",
		},
	}
}

// expectFatal swaps the fatal hook for a panicking one and asserts fn trips
// it. The real hook exits the process; tests observe the same control-flow
// cut via panic.
func expectFatal(t *testing.T, fn func()) {
	t.Helper()

	orig := fatal
	fatal = func(msg string) { panic("fatal: " + msg) }
	defer func() {
		fatal = orig
		if recover() == nil {
			t.Error("expected a fatal precondition abort, got none")
		}
	}()

	fn()
}

func TestOpen_MigratesToLatestVersion(t *testing.T) {
	store := openTestStore(t)

	version, err := store.SchemaVersion()
	if err != nil {
		t.Fatalf("failed to read schema version: %v", err)
	}
	want := Steps[len(Steps)-1].Version
	if version != want {
		t.Errorf("expected schema version %d, got %d", want, version)
	}

	// The legacy status table from v1 must be gone.
	var n int
	err = store.conn.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = 'pull_request_status'`).Scan(&n)
	if err != nil {
		t.Fatalf("failed to query sqlite_master: %v", err)
	}
	if n != 0 {
		t.Error("expected pull_request_status to be dropped")
	}
}

func TestOpen_ReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	store, err := Open(path, discard)
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	repo := &Repository{DBID: 1}
	if err := store.PutPullRequests([]*PullRequest{makePR(1, 42)}); err != nil {
		t.Fatalf("failed to put PR: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("failed to close store: %v", err)
	}

	store, err = Open(path, discard)
	if err != nil {
		t.Fatalf("failed to reopen store: %v", err)
	}
	defer store.Close()

	got, err := store.GetPullRequest(repo, 42)
	if err != nil {
		t.Fatalf("failed to get PR after reopen: %v", err)
	}
	if got == nil {
		t.Fatal("expected PR to survive reopen, got nil")
	}
}
