package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var keepRepos []int64

var pruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete partitions for repositories no longer tracked",
	Long: `Delete every repository partition whose id is not in the keep list, sync
watermarks included. The keep list comes from --keep flags, falling back to
keep_repos in the config file.

Partitions like these are left behind when a repository is removed from the
application without its pull request data being deleted first.`,
	RunE: runPrune,
}

func init() {
	pruneCmd.Flags().Int64SliceVar(&keepRepos, "keep", nil, "Repository database id to keep (repeatable)")
	rootCmd.AddCommand(pruneCmd)
}

func runPrune(cmd *cobra.Command, args []string) error {
	store, cfg, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	keep := keepRepos
	if len(keep) == 0 {
		keep = cfg.KeepRepos
	}
	if len(keep) == 0 {
		return fmt.Errorf("refusing to prune everything: no --keep flags and no keep_repos in config")
	}

	pruned, err := store.PruneRepositories(keep)
	if err != nil {
		return fmt.Errorf("pruning: %w", err)
	}

	fmt.Printf("Pruned %d pull requests outside %d kept repositories.\n", pruned, len(keep))
	return nil
}
