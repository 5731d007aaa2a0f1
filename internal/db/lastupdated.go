package db

import (
	"database/sql"
	"fmt"
	"time"
)

// GetLastUpdated returns a repository's sync watermark: the greatest
// updated-at timestamp seen across every PR ever fetched for it, open or
// closed. It can run ahead of the stored records because closed PRs are
// purged but still advance the watermark. Returns (nil, nil) when no mark
// has been set or it was cleared.
func (s *Store) GetLastUpdated(repo *Repository) (*time.Time, error) {
	id := mustRepoID(repo)

	var ms int64
	err := s.conn.QueryRow(`SELECT last_updated FROM pull_requests_last_updated WHERE repo_id = ?`, id).Scan(&ms)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading last-updated mark: %w", err)
	}

	t := time.UnixMilli(ms).UTC()
	return &t, nil
}

// SetLastUpdated upserts a repository's watermark. Stored at millisecond
// precision; anything finer is dropped.
func (s *Store) SetLastUpdated(repo *Repository, t time.Time) error {
	id := mustRepoID(repo)

	_, err := s.conn.Exec(`
		INSERT INTO pull_requests_last_updated (repo_id, last_updated)
		VALUES (?, ?)
		ON CONFLICT(repo_id) DO UPDATE SET
		    last_updated = excluded.last_updated`,
		id, t.UnixMilli())
	if err != nil {
		return fmt.Errorf("setting last-updated mark: %w", err)
	}
	return nil
}

// ClearLastUpdated deletes a repository's watermark, forcing the next sync
// to start from scratch.
func (s *Store) ClearLastUpdated(repo *Repository) error {
	return clearLastUpdated(s.conn, mustRepoID(repo))
}

func clearLastUpdated(q dbtx, id int64) error {
	if _, err := q.Exec(`DELETE FROM pull_requests_last_updated WHERE repo_id = ?`, id); err != nil {
		return fmt.Errorf("clearing last-updated mark: %w", err)
	}
	return nil
}
