package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"prdb/internal/db"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show stored repositories and their sync watermarks",
	Long:  `Display the schema version and, per repository partition, the number of stored pull requests and the last-updated sync watermark.`,
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	store, cfg, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	version, err := store.SchemaVersion()
	if err != nil {
		return fmt.Errorf("reading schema version: %w", err)
	}

	fmt.Printf("Database:       %s\n", cfg.DBPath)
	fmt.Printf("Schema version: %d\n", version)
	fmt.Println()

	ids, err := store.Repositories()
	if err != nil {
		return fmt.Errorf("listing repositories: %w", err)
	}

	if len(ids) == 0 {
		fmt.Println("No repositories stored.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "REPO ID\tPULL REQUESTS\tLAST UPDATED")

	for _, id := range ids {
		repo := &db.Repository{DBID: id}

		count, err := store.CountPullRequests(repo)
		if err != nil {
			return fmt.Errorf("counting pull requests for repo %d: %w", id, err)
		}

		mark, err := store.GetLastUpdated(repo)
		if err != nil {
			return fmt.Errorf("reading watermark for repo %d: %w", id, err)
		}

		watermark := "-"
		if mark != nil {
			watermark = mark.Format(time.RFC3339)
		}

		fmt.Fprintf(w, "%d\t%d\t%s\n", id, count, watermark)
	}

	return w.Flush()
}
