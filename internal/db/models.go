package db

import "database/sql"

// Repository is the externally owned identity a store partition hangs off.
// DBID is zero until the surrounding application has persisted the
// repository; the store never assigns or mutates it.
type Repository struct {
	DBID  int64
	Owner string
	Name  string
}

// Ref describes one end of a pull request. RepoID is null when the ref's
// repository no longer exists upstream, which can happen for the head of a
// PR whose source fork was deleted.
type Ref struct {
	RepoID sql.NullInt64
	Ref    string
	SHA    string
}

// PullRequest is one open pull request as last observed from the remote.
// Its identity is (Base.RepoID, Number); updates replace the whole record.
type PullRequest struct {
	Number    int64
	Title     string
	CreatedAt string
	UpdatedAt string
	Author    string
	Head      Ref
	Base      Ref
}
