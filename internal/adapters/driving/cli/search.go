package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/pcloud-cli/internal/core/domain"
)

var (
	searchFolderID int64
	searchJSON     bool
)

var searchCmd = &cobra.Command{
	Use:   "search [filename]",
	Short: "Find a file across all authenticated accounts",
	Long: `Searches one folder of every authenticated account for an exact
filename match. Accounts that fail to respond are skipped.

Examples:
  pcloud search report.pdf
  pcloud search report.pdf --folder 12345 --json`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().Int64Var(&searchFolderID, "folder", 0,
		"folder id to search in (0 = root)")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output matches as JSON")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	if sessionService == nil {
		return errors.New("session service not configured")
	}

	filename := args[0]
	matches, err := sessionService.FindFileInAccounts(context.Background(), filename, searchFolderID)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if searchJSON {
		return outputSearchJSON(cmd, matches)
	}
	return outputSearchTable(cmd, filename, matches)
}

func outputSearchJSON(cmd *cobra.Command, matches []domain.SearchMatch) error {
	data, err := json.MarshalIndent(matches, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal matches: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputSearchTable(cmd *cobra.Command, filename string, matches []domain.SearchMatch) error {
	if len(matches) == 0 {
		cmd.Printf("No file named %q found in any account.\n", filename)
		return nil
	}

	cmd.Printf("Found %q in %d account(s):\n", filename, len(matches))
	cmd.Println()
	for i, m := range matches {
		cmd.Printf("  [%d] %s (%s, file id %d)\n", i+1, m.AccountEmail, formatBytes(m.Size), m.FileID)
	}
	return nil
}
