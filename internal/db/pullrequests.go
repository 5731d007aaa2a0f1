package db

import (
	"database/sql"
	"fmt"
	"strings"
)

const pullRequestCols = `repo_id, number, title, created_at, updated_at, author,
       head_repo_id, head_ref, head_sha, base_ref, base_sha`

// PutPullRequests inserts or overwrites each record under its
// (base repo id, number) key. Records sharing an existing key replace it in
// place; the watermark table is untouched.
func (s *Store) PutPullRequests(prs []*PullRequest) error {
	// Derive every key first so a precondition abort happens before any
	// write.
	keys := make([]int64, len(prs))
	for i, pr := range prs {
		keys[i] = mustBaseRepoID(pr)
	}

	tx, err := s.conn.Begin()
	if err != nil {
		return fmt.Errorf("beginning put transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.Prepare(`
		INSERT INTO pull_requests (` + pullRequestCols + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(repo_id, number) DO UPDATE SET
		    title = excluded.title,
		    created_at = excluded.created_at,
		    updated_at = excluded.updated_at,
		    author = excluded.author,
		    head_repo_id = excluded.head_repo_id,
		    head_ref = excluded.head_ref,
		    head_sha = excluded.head_sha,
		    base_ref = excluded.base_ref,
		    base_sha = excluded.base_sha`)
	if err != nil {
		return fmt.Errorf("preparing upsert: %w", err)
	}
	defer stmt.Close()

	for i, pr := range prs {
		_, err := stmt.Exec(
			keys[i], pr.Number, pr.Title, pr.CreatedAt, pr.UpdatedAt, pr.Author,
			pr.Head.RepoID, pr.Head.Ref, pr.Head.SHA, pr.Base.Ref, pr.Base.SHA,
		)
		if err != nil {
			return fmt.Errorf("upserting pull request #%d: %w", pr.Number, err)
		}
	}

	return tx.Commit()
}

// DeletePullRequests removes each record by its composite key. Keys not
// present are ignored, so retrying a delete is harmless.
func (s *Store) DeletePullRequests(prs []*PullRequest) error {
	keys := make([]int64, len(prs))
	for i, pr := range prs {
		keys[i] = mustBaseRepoID(pr)
	}

	tx, err := s.conn.Begin()
	if err != nil {
		return fmt.Errorf("beginning delete transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.Prepare(`DELETE FROM pull_requests WHERE repo_id = ? AND number = ?`)
	if err != nil {
		return fmt.Errorf("preparing delete: %w", err)
	}
	defer stmt.Close()

	for i, pr := range prs {
		if _, err := stmt.Exec(keys[i], pr.Number); err != nil {
			return fmt.Errorf("deleting pull request #%d: %w", pr.Number, err)
		}
	}

	return tx.Commit()
}

// DeleteAllPullRequests removes a repository's whole partition: its sync
// watermark and every record whose base repo id matches. Both deletes commit
// together or not at all. The record delete is one contiguous sweep over the
// (repo_id, number) primary key prefix.
func (s *Store) DeleteAllPullRequests(repo *Repository) error {
	id := mustRepoID(repo)

	tx, err := s.conn.Begin()
	if err != nil {
		return fmt.Errorf("beginning partition delete: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := clearLastUpdated(tx, id); err != nil {
		return err
	}
	if _, err := tx.Exec(`DELETE FROM pull_requests WHERE repo_id = ?`, id); err != nil {
		return fmt.Errorf("deleting pull requests: %w", err)
	}

	return tx.Commit()
}

// GetAllPullRequests returns a repository's records ordered by number
// ascending, the primary key's natural order. A repository with no records
// yields an empty slice.
func (s *Store) GetAllPullRequests(repo *Repository) ([]*PullRequest, error) {
	id := mustRepoID(repo)

	rows, err := s.conn.Query(`
		SELECT `+pullRequestCols+`
		FROM pull_requests WHERE repo_id = ? ORDER BY number`, id)
	if err != nil {
		return nil, fmt.Errorf("querying pull requests: %w", err)
	}
	defer rows.Close()

	prs := []*PullRequest{}
	for rows.Next() {
		pr, err := scanPullRequest(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scanning pull request row: %w", err)
		}
		prs = append(prs, pr)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating pull request rows: %w", err)
	}

	return prs, nil
}

// GetPullRequest looks up one record by composite key. A miss returns
// (nil, nil).
func (s *Store) GetPullRequest(repo *Repository, number int64) (*PullRequest, error) {
	id := mustRepoID(repo)

	row := s.conn.QueryRow(`
		SELECT `+pullRequestCols+`
		FROM pull_requests WHERE repo_id = ? AND number = ?`, id, number)

	pr, err := scanPullRequest(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scanning pull request: %w", err)
	}
	return pr, nil
}

// CountPullRequests returns the number of records in a repository's
// partition.
func (s *Store) CountPullRequests(repo *Repository) (int64, error) {
	id := mustRepoID(repo)

	var n int64
	if err := s.conn.QueryRow(`SELECT COUNT(*) FROM pull_requests WHERE repo_id = ?`, id).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting pull requests: %w", err)
	}
	return n, nil
}

// Repositories returns the distinct partition ids present in either table,
// ascending.
func (s *Store) Repositories() ([]int64, error) {
	rows, err := s.conn.Query(`
		SELECT repo_id FROM pull_requests
		UNION
		SELECT repo_id FROM pull_requests_last_updated
		ORDER BY repo_id`)
	if err != nil {
		return nil, fmt.Errorf("querying repositories: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning repository id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating repository ids: %w", err)
	}
	return ids, nil
}

// PruneRepositories deletes every partition whose id is not in keep,
// watermarks included, and reports how many records went. It repairs stores
// where a repository was removed from the application without its partition
// being deleted first.
func (s *Store) PruneRepositories(keep []int64) (int64, error) {
	tx, err := s.conn.Begin()
	if err != nil {
		return 0, fmt.Errorf("beginning prune: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	clause, args := notInClause(keep)

	res, err := tx.Exec(`DELETE FROM pull_requests WHERE `+clause, args...)
	if err != nil {
		return 0, fmt.Errorf("pruning pull requests: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM pull_requests_last_updated WHERE `+clause, args...); err != nil {
		return 0, fmt.Errorf("pruning last-updated marks: %w", err)
	}

	pruned, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("counting pruned rows: %w", err)
	}
	return pruned, tx.Commit()
}

func notInClause(keep []int64) (string, []any) {
	if len(keep) == 0 {
		return "1 = 1", nil
	}
	args := make([]any, len(keep))
	for i, id := range keep {
		args[i] = id
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(keep)), ", ")
	return "repo_id NOT IN (" + placeholders + ")", args
}

type scanFunc func(dest ...any) error

func scanPullRequest(scan scanFunc) (*PullRequest, error) {
	var pr PullRequest
	var repoID int64

	err := scan(
		&repoID, &pr.Number, &pr.Title, &pr.CreatedAt, &pr.UpdatedAt, &pr.Author,
		&pr.Head.RepoID, &pr.Head.Ref, &pr.Head.SHA, &pr.Base.Ref, &pr.Base.SHA,
	)
	if err != nil {
		return nil, err
	}

	pr.Base.RepoID = sql.NullInt64{Int64: repoID, Valid: true}
	return &pr, nil
}
