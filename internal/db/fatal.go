package db

import (
	"fmt"
	"os"
)

// fatal terminates the process with a message about a caller bug. Passing an
// unpersisted repository to a scoped operation is a programming error, not a
// runtime condition, so it is never surfaced as a returned error. Tests swap
// this for a panicking hook to observe the abort.
var fatal = func(msg string) {
	fmt.Fprintln(os.Stderr, "prdb: "+msg)
	os.Exit(1)
}

// mustRepoID returns the partition id for a repository, aborting if the
// repository has never been persisted.
func mustRepoID(repo *Repository) int64 {
	if repo == nil || repo.DBID == 0 {
		fatal("repository has no database id; it must be persisted before its pull requests can be stored")
	}
	return repo.DBID
}

// mustBaseRepoID returns the owning-partition id for a record. A pull
// request's base repository is always a known, persisted repository; a null
// base id means the caller skipped persisting it.
func mustBaseRepoID(pr *PullRequest) int64 {
	if !pr.Base.RepoID.Valid {
		fatal(fmt.Sprintf("pull request #%d has no persisted base repository", pr.Number))
	}
	return pr.Base.RepoID.Int64
}
