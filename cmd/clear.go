package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"prdb/internal/db"
)

var (
	clearRepoID int64
	forceFlag   bool
)

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete one repository's data, or the whole database",
	Long: `With --repo, transactionally delete that repository's pull requests and
sync watermark. Without it, delete the database file to reset all state.`,
	RunE: runClear,
}

func init() {
	clearCmd.Flags().Int64Var(&clearRepoID, "repo", 0, "Repository database id to clear")
	clearCmd.Flags().BoolVarP(&forceFlag, "force", "f", false, "Skip confirmation prompt")
	rootCmd.AddCommand(clearCmd)
}

func runClear(cmd *cobra.Command, args []string) error {
	if clearRepoID != 0 {
		return clearRepository(clearRepoID)
	}
	return clearDatabase()
}

func clearRepository(id int64) error {
	if !confirm(fmt.Sprintf("This will delete all pull requests and the sync watermark for repository %d.", id)) {
		return nil
	}

	store, _, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.DeleteAllPullRequests(&db.Repository{DBID: id}); err != nil {
		return fmt.Errorf("deleting repository %d: %w", id, err)
	}

	fmt.Printf("Cleared repository %d.\n", id)
	return nil
}

func clearDatabase() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if _, err := os.Stat(cfg.DBPath); os.IsNotExist(err) {
		fmt.Println("Database does not exist. Nothing to clear.")
		return nil
	}

	if !confirm(fmt.Sprintf("This will delete: %s", cfg.DBPath)) {
		return nil
	}

	if err := os.Remove(cfg.DBPath); err != nil {
		return fmt.Errorf("deleting database: %w", err)
	}

	fmt.Printf("Deleted: %s\n", cfg.DBPath)
	return nil
}

func confirm(prompt string) bool {
	if forceFlag {
		return true
	}

	fmt.Println(prompt)
	fmt.Print("Are you sure? [y/N] ")

	reader := bufio.NewReader(os.Stdin)
	response, err := reader.ReadString('\n')
	if err != nil {
		fmt.Fprintf(os.Stderr, "reading response: %v\n", err)
		return false
	}

	response = strings.TrimSpace(strings.ToLower(response))
	if response != "y" && response != "yes" {
		fmt.Println("Aborted.")
		return false
	}
	return true
}
