package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/pcloud-cli/internal/adapters/driven/progress"
	"github.com/custodia-labs/pcloud-cli/internal/core/domain"
)

var (
	uploadFolderID int64
	uploadName     string
	uploadQuiet    bool
	uploadJSON     bool
)

var uploadCmd = &cobra.Command{
	Use:   "upload [file]",
	Short: "Upload a file to the account with the most free space",
	Long: `Uploads a local file, automatically picking the authenticated account
with the most free space that can hold it. Quota figures are refreshed
before selection.

Examples:
  pcloud upload report.pdf
  pcloud upload report.pdf --folder 12345
  pcloud upload report.pdf --name renamed.pdf --json`,
	Args: cobra.ExactArgs(1),
	RunE: runUpload,
}

func init() {
	uploadCmd.Flags().Int64Var(&uploadFolderID, "folder", 0,
		"destination folder id (0 = root)")
	uploadCmd.Flags().StringVar(&uploadName, "name", "",
		"remote filename (defaults to the local name)")
	uploadCmd.Flags().BoolVarP(&uploadQuiet, "quiet", "q", false,
		"suppress the progress display")
	uploadCmd.Flags().BoolVar(&uploadJSON, "json", false, "output the result as JSON")
	rootCmd.AddCommand(uploadCmd)
}

func runUpload(cmd *cobra.Command, args []string) error {
	if sessionService == nil {
		return errors.New("session service not configured")
	}

	filePath := args[0]
	sink := uploadSink(cmd)

	result, err := sessionService.UploadToSuitableAccount(
		context.Background(), filePath, uploadFolderID, uploadName, sink)
	if err != nil {
		if errors.Is(err, domain.ErrNoSuitableAccount) {
			return errors.New("upload failed: no authenticated account has enough free space")
		}
		return fmt.Errorf("upload failed: %w", err)
	}

	if uploadJSON {
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal result: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	cmd.Printf("Uploaded %s (%s) to account %s as file %d\n",
		result.Name, formatBytes(result.Size), result.AccountEmail, result.FileID)
	return nil
}

// uploadSink picks the progress display: none when quiet or emitting
// JSON, a terminal bar on a TTY, plain lines otherwise.
func uploadSink(cmd *cobra.Command) domain.ProgressSink {
	if uploadQuiet || uploadJSON {
		return progress.NoopSink{}
	}
	if term.IsTerminal(int(os.Stderr.Fd())) {
		return progress.NewBarSink(cmd.ErrOrStderr())
	}
	return progress.NewWriterSink(cmd.ErrOrStderr())
}
