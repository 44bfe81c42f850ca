package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/pcloud-cli/internal/core/domain"
)

var accountsCmd = &cobra.Command{
	Use:   "accounts",
	Short: "Manage registered accounts",
	Long: `List and remove the accounts this client knows about.

Accounts are registered by 'pcloud login' or 'pcloud authorize' and
persist across runs in the credential file.`,
}

var accountsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered accounts",
	RunE:  runAccountsList,
}

var accountsRemoveCmd = &cobra.Command{
	Use:   "remove [account-id]",
	Short: "Remove one account from the registry",
	Args:  cobra.ExactArgs(1),
	RunE:  runAccountsRemove,
}

var accountsClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete the credential file and forget every account",
	RunE:  runAccountsClear,
}

var accountsClearYes bool

func init() {
	accountsClearCmd.Flags().BoolVarP(&accountsClearYes, "yes", "y", false,
		"skip the confirmation prompt")

	accountsCmd.AddCommand(accountsListCmd)
	accountsCmd.AddCommand(accountsRemoveCmd)
	accountsCmd.AddCommand(accountsClearCmd)
	rootCmd.AddCommand(accountsCmd)
}

func runAccountsList(cmd *cobra.Command, _ []string) error {
	if sessionService == nil {
		return errors.New("session service not configured")
	}

	accounts := sessionService.Accounts()
	if len(accounts) == 0 {
		cmd.Println("No accounts registered. Run 'pcloud login' or 'pcloud authorize'.")
		return nil
	}

	cmd.Println("Accounts:")
	cmd.Println()
	for _, account := range accounts {
		state := "not authenticated"
		if account.Authenticated {
			state = "authenticated"
		}
		cmd.Printf("  %s (%s, %s region, %s)\n",
			account.ID, account.AuthType, locationName(account.Location), state)
		if account.Email != "" && account.Email != account.ID {
			cmd.Printf("      Email: %s\n", account.Email)
		}
		cmd.Printf("      Quota: %s\n", describeQuota(account))
	}
	return nil
}

// describeQuota renders used/total/free space, or "unknown" until the
// first userinfo fetch fills the figures in.
func describeQuota(account *domain.Account) string {
	if account.QuotaBytes == nil || account.UsedQuotaBytes == nil {
		return "unknown"
	}
	free, _ := account.FreeSpace()
	return fmt.Sprintf("%s used of %s (%s free)",
		formatBytes(*account.UsedQuotaBytes), formatBytes(*account.QuotaBytes), formatBytes(free))
}

func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for v := n / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}

func runAccountsRemove(cmd *cobra.Command, args []string) error {
	if sessionService == nil {
		return errors.New("session service not configured")
	}

	accountID := args[0]
	if err := sessionService.RemoveAccount(context.Background(), accountID); err != nil {
		return fmt.Errorf("failed to remove account: %w", err)
	}

	cmd.Printf("Removed account %s\n", accountID)
	return nil
}

func runAccountsClear(cmd *cobra.Command, _ []string) error {
	if sessionService == nil {
		return errors.New("session service not configured")
	}

	if !accountsClearYes {
		cmd.Print("This deletes the credential file and forgets every account. Continue? [y/N]: ")
		reader := bufio.NewReader(cmd.InOrStdin())
		answer, _ := reader.ReadString('\n')
		if !strings.EqualFold(strings.TrimSpace(answer), "y") {
			cmd.Println("Aborted.")
			return nil
		}
	}

	if err := sessionService.ClearSavedCredentials(context.Background()); err != nil {
		return fmt.Errorf("failed to clear credentials: %w", err)
	}

	cmd.Println("Credential file deleted; all accounts forgotten.")
	return nil
}
