package db

import "prdb/internal/schema"

// Steps is the store's full schema history. Versions are declared in
// ascending order and applied forward-only; see internal/schema. History so
// far:
//
//	v1  pull_requests keyed by (repo_id, number), plus the since-removed
//	    pull_request_status table that tracked CI state per record.
//	v2  pull_requests re-declared with the (repo_id, updated_at) index used
//	    by recency-ordered listings.
//	v3  pull_request_status dropped (its fields were folded into the
//	    record); pull_requests_last_updated added as the per-repository
//	    sync watermark.
//	v4  reserved: status columns were removed from fetched records with no
//	    key or index change.
var Steps = []schema.Step{
	{
		Version: 1,
		Changes: map[string]*schema.Table{
			"pull_requests": {
				Columns:    pullRequestColumns,
				PrimaryKey: []string{"repo_id", "number"},
				Indexes: []schema.Index{
					{Name: "idx_pull_requests_repo", Columns: []string{"repo_id"}},
				},
			},
			"pull_request_status": {
				Columns: []schema.Column{
					{Name: "repo_id", Type: "INTEGER NOT NULL"},
					{Name: "number", Type: "INTEGER NOT NULL"},
					{Name: "state", Type: "TEXT NOT NULL"},
				},
				PrimaryKey: []string{"repo_id", "number"},
			},
		},
	},
	{
		Version: 2,
		Changes: map[string]*schema.Table{
			"pull_requests": {
				Columns:    pullRequestColumns,
				PrimaryKey: []string{"repo_id", "number"},
				Indexes: []schema.Index{
					{Name: "idx_pull_requests_repo", Columns: []string{"repo_id"}},
					{Name: "idx_pull_requests_repo_updated", Columns: []string{"repo_id", "updated_at"}},
				},
			},
		},
	},
	{
		Version: 3,
		Changes: map[string]*schema.Table{
			"pull_request_status": nil,
			"pull_requests_last_updated": {
				Columns: []schema.Column{
					{Name: "repo_id", Type: "INTEGER NOT NULL"},
					{Name: "last_updated", Type: "INTEGER NOT NULL"},
				},
				PrimaryKey: []string{"repo_id"},
			},
		},
	},
	{
		Version: 4,
		Changes: map[string]*schema.Table{},
	},
}

var pullRequestColumns = []schema.Column{
	{Name: "repo_id", Type: "INTEGER NOT NULL"},
	{Name: "number", Type: "INTEGER NOT NULL"},
	{Name: "title", Type: "TEXT NOT NULL"},
	{Name: "created_at", Type: "TEXT NOT NULL"},
	{Name: "updated_at", Type: "TEXT NOT NULL"},
	{Name: "author", Type: "TEXT NOT NULL"},
	{Name: "head_repo_id", Type: "INTEGER"},
	{Name: "head_ref", Type: "TEXT NOT NULL"},
	{Name: "head_sha", Type: "TEXT NOT NULL"},
	{Name: "base_ref", Type: "TEXT NOT NULL"},
	{Name: "base_sha", Type: "TEXT NOT NULL"},
}
