package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var logoutCmd = &cobra.Command{
	Use:   "logout [account-id]",
	Short: "Clear an account's credentials",
	Long: `Clears the access token and identity details of one account. The
account stays registered and can be authenticated again later.`,
	Args: cobra.ExactArgs(1),
	RunE: runLogout,
}

func init() {
	rootCmd.AddCommand(logoutCmd)
}

func runLogout(cmd *cobra.Command, args []string) error {
	if sessionService == nil {
		return errors.New("session service not configured")
	}

	accountID := args[0]
	if err := sessionService.Logout(context.Background(), accountID); err != nil {
		return fmt.Errorf("logout failed: %w", err)
	}

	cmd.Printf("Logged out %s\n", accountID)
	return nil
}
