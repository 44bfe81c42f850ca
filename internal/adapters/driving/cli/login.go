package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/pcloud-cli/internal/core/domain"
)

var (
	loginLocation int
	loginForce    bool
)

var loginCmd = &cobra.Command{
	Use:   "login [email]",
	Short: "Authenticate an account with email and password",
	Long: `Authenticates a pCloud account directly with email and password and
registers it under its email address. The password is prompted for and
never echoed.

An account that is already authenticated is reused as-is; pass --force
to discard its token and authenticate again.

Examples:
  pcloud login alice@example.com
  pcloud login alice@example.com --location 2   # EU region
  pcloud login alice@example.com --force`,
	Args: cobra.ExactArgs(1),
	RunE: runLogin,
}

func init() {
	loginCmd.Flags().IntVar(&loginLocation, "location", int(domain.LocationUS),
		"server region (1 = US, 2 = EU)")
	loginCmd.Flags().BoolVar(&loginForce, "force", false,
		"re-authenticate even if the account already holds a token")
	rootCmd.AddCommand(loginCmd)
}

func runLogin(cmd *cobra.Command, args []string) error {
	if sessionService == nil {
		return errors.New("session service not configured")
	}

	email := strings.TrimSpace(args[0])
	location := domain.Location(loginLocation)
	if !location.Valid() {
		return fmt.Errorf("invalid location %d: use 1 (US) or 2 (EU)", loginLocation)
	}

	password, err := promptPassword(cmd, fmt.Sprintf("Password for %s: ", email))
	if err != nil {
		return err
	}

	account, err := sessionService.Login(context.Background(), email, password, location, loginForce)
	if err != nil {
		if domain.IsInvalidCredentials(err) {
			return errors.New("login failed: invalid email or password")
		}
		return fmt.Errorf("login failed: %w", err)
	}

	cmd.Printf("Logged in as %s (%s region)\n", account.Email, locationName(account.Location))
	return nil
}

// promptPassword reads a password without echo when stdin is a terminal,
// falling back to a plain line read otherwise (pipes, tests).
func promptPassword(cmd *cobra.Command, prompt string) (string, error) {
	cmd.Print(prompt)

	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		raw, err := term.ReadPassword(fd)
		cmd.Println()
		if err != nil {
			return "", fmt.Errorf("failed to read password: %w", err)
		}
		return string(raw), nil
	}

	var line string
	if _, err := fmt.Fscanln(cmd.InOrStdin(), &line); err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return line, nil
}

func locationName(loc domain.Location) string {
	switch loc {
	case domain.LocationEU:
		return "EU"
	default:
		return "US"
	}
}
