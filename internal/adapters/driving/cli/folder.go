package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var folderCmd = &cobra.Command{
	Use:   "folder",
	Short: "Browse and create folders on one account",
}

var (
	folderListFolderID   int64
	folderCreateParentID int64
)

var folderListCmd = &cobra.Command{
	Use:   "list [account-id]",
	Short: "List one folder's contents",
	Args:  cobra.ExactArgs(1),
	RunE:  runFolderList,
}

var folderCreateCmd = &cobra.Command{
	Use:   "create [account-id] [name]",
	Short: "Create a folder",
	Args:  cobra.ExactArgs(2),
	RunE:  runFolderCreate,
}

func init() {
	folderListCmd.Flags().Int64Var(&folderListFolderID, "folder", 0,
		"folder id to list (0 = root)")
	folderCreateCmd.Flags().Int64Var(&folderCreateParentID, "parent", 0,
		"parent folder id (0 = root)")

	folderCmd.AddCommand(folderListCmd)
	folderCmd.AddCommand(folderCreateCmd)
	rootCmd.AddCommand(folderCmd)
}

func runFolderList(cmd *cobra.Command, args []string) error {
	if sessionService == nil {
		return errors.New("session service not configured")
	}

	accountID := args[0]
	entries, err := sessionService.ListFolder(context.Background(), accountID, folderListFolderID)
	if err != nil {
		return fmt.Errorf("failed to list folder: %w", err)
	}

	if len(entries) == 0 {
		cmd.Println("Folder is empty.")
		return nil
	}

	for _, e := range entries {
		if e.IsFile {
			cmd.Printf("  %s (%s, file id %d)\n", e.Name, formatBytes(e.Size), e.FileID)
		} else {
			cmd.Printf("  %s/ (folder id %d)\n", e.Name, e.FolderID)
		}
	}
	return nil
}

func runFolderCreate(cmd *cobra.Command, args []string) error {
	if sessionService == nil {
		return errors.New("session service not configured")
	}

	accountID, name := args[0], args[1]
	folderID, err := sessionService.CreateFolder(context.Background(), accountID, name, folderCreateParentID)
	if err != nil {
		return fmt.Errorf("failed to create folder: %w", err)
	}

	cmd.Printf("Created folder %s (id %d)\n", name, folderID)
	return nil
}
