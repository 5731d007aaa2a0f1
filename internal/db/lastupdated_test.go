package db

import (
	"testing"
	"time"
)

func testMark(t *testing.T) time.Time {
	t.Helper()

	// A fixed instant with millisecond precision, the watermark's storage
	// granularity.
	mark, err := time.Parse(time.RFC3339Nano, "2026-08-15T12:34:56.789Z")
	if err != nil {
		t.Fatalf("failed to parse test mark: %v", err)
	}
	return mark
}

func TestStore_LastUpdatedRoundTrip(t *testing.T) {
	store := openTestStore(t)
	repo := &Repository{DBID: 1}

	// Absent until first set.
	got, err := store.GetLastUpdated(repo)
	if err != nil {
		t.Fatalf("failed to get mark: %v", err)
	}
	if got != nil {
		t.Errorf("expected absent mark initially, got %v", got)
	}

	mark := testMark(t)
	if err := store.SetLastUpdated(repo, mark); err != nil {
		t.Fatalf("failed to set mark: %v", err)
	}

	got, err = store.GetLastUpdated(repo)
	if err != nil {
		t.Fatalf("failed to get mark: %v", err)
	}
	if got == nil {
		t.Fatal("expected mark, got absent")
	}
	if !got.Equal(mark) {
		t.Errorf("expected mark %v, got %v", mark, got)
	}
}

func TestStore_SetLastUpdatedOverwrites(t *testing.T) {
	store := openTestStore(t)
	repo := &Repository{DBID: 1}

	first := testMark(t)
	if err := store.SetLastUpdated(repo, first); err != nil {
		t.Fatalf("failed to set mark: %v", err)
	}

	// The watermark advances past the stored records when closed PRs are
	// purged but still carry newer timestamps.
	second := first.Add(48 * time.Hour)
	if err := store.SetLastUpdated(repo, second); err != nil {
		t.Fatalf("failed to advance mark: %v", err)
	}

	got, err := store.GetLastUpdated(repo)
	if err != nil {
		t.Fatalf("failed to get mark: %v", err)
	}
	if !got.Equal(second) {
		t.Errorf("expected advanced mark %v, got %v", second, got)
	}
}

func TestStore_ClearLastUpdated(t *testing.T) {
	store := openTestStore(t)
	repo := &Repository{DBID: 1}

	if err := store.SetLastUpdated(repo, testMark(t)); err != nil {
		t.Fatalf("failed to set mark: %v", err)
	}
	if err := store.ClearLastUpdated(repo); err != nil {
		t.Fatalf("failed to clear mark: %v", err)
	}

	got, err := store.GetLastUpdated(repo)
	if err != nil {
		t.Fatalf("failed to get cleared mark: %v", err)
	}
	if got != nil {
		t.Errorf("expected absent mark after clear, got %v", got)
	}

	// Clearing an absent mark is a no-op.
	if err := store.ClearLastUpdated(repo); err != nil {
		t.Errorf("clearing an absent mark should be a no-op, got: %v", err)
	}
}

func TestStore_LastUpdatedTruncatesToMilliseconds(t *testing.T) {
	store := openTestStore(t)
	repo := &Repository{DBID: 1}

	mark := testMark(t).Add(123 * time.Microsecond)
	if err := store.SetLastUpdated(repo, mark); err != nil {
		t.Fatalf("failed to set mark: %v", err)
	}

	got, err := store.GetLastUpdated(repo)
	if err != nil {
		t.Fatalf("failed to get mark: %v", err)
	}
	if !got.Equal(mark.Truncate(time.Millisecond)) {
		t.Errorf("expected mark truncated to %v, got %v", mark.Truncate(time.Millisecond), got)
	}
}
