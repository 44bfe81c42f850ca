package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/pcloud-cli/internal/adapters/driven/pcloud"
	"github.com/custodia-labs/pcloud-cli/internal/adapters/driving/oauth"
	"github.com/custodia-labs/pcloud-cli/internal/core/domain"
)

var (
	authorizeAccountID string
	authorizeLocation  int
	authorizePort      int
	authorizeNoBrowser bool
	authorizeTimeout   time.Duration
)

var authorizeCmd = &cobra.Command{
	Use:   "authorize",
	Short: "Authenticate an account via the browser (OAuth)",
	Long: `Runs the OAuth authorization-code flow: opens the pCloud consent page
in the browser, receives the redirect on a local port, and exchanges the
code for an access token.

Requires the OAuth app identity to be configured first ('pcloud app set').

Examples:
  pcloud authorize
  pcloud authorize --account work --location 2
  pcloud authorize --no-browser          # print the URL instead`,
	RunE: runAuthorize,
}

func init() {
	authorizeCmd.Flags().StringVar(&authorizeAccountID, "account", "",
		"account id to bind the token to (defaults to a generated id)")
	authorizeCmd.Flags().IntVar(&authorizeLocation, "location", int(domain.LocationUS),
		"server region (1 = US, 2 = EU); overridden when the redirect reports one")
	authorizeCmd.Flags().IntVar(&authorizePort, "port", 0,
		"local port for the callback server (0 picks a free port)")
	authorizeCmd.Flags().BoolVar(&authorizeNoBrowser, "no-browser", false,
		"print the authorization URL instead of opening a browser")
	authorizeCmd.Flags().DurationVar(&authorizeTimeout, "timeout", 5*time.Minute,
		"how long to wait for the browser redirect")
	rootCmd.AddCommand(authorizeCmd)
}

func runAuthorize(cmd *cobra.Command, _ []string) error {
	if sessionService == nil {
		return errors.New("session service not configured")
	}

	location := domain.Location(authorizeLocation)
	if !location.Valid() {
		return fmt.Errorf("invalid location %d: use 1 (US) or 2 (EU)", authorizeLocation)
	}

	state := oauth.GenerateState()
	srv := oauth.NewCallbackServer(authorizePort, state)
	if err := srv.Start(); err != nil {
		return fmt.Errorf("failed to start callback server: %w", err)
	}
	defer srv.Stop() //nolint:errcheck // best-effort shutdown

	authURL, err := sessionService.AuthorizationURL(srv.RedirectURI())
	if err != nil {
		if errors.Is(err, domain.ErrConfigMissing) {
			return errors.New("no OAuth app configured: run 'pcloud app set' first")
		}
		return err
	}
	authURL = pcloud.WithState(authURL, state)

	if authorizeNoBrowser {
		cmd.Println("Open this URL in a browser to authorize:")
		cmd.Println()
		cmd.Printf("  %s\n", authURL)
	} else {
		cmd.Println("Opening browser for authorization...")
		if err := oauth.OpenBrowser(authURL); err != nil {
			cmd.Println("Could not open a browser. Open this URL manually:")
			cmd.Printf("  %s\n", authURL)
		}
	}
	cmd.Println()
	cmd.Printf("Waiting for authorization (listening on port %d)...\n", srv.Port())

	result, err := srv.WaitForResult(authorizeTimeout)
	if err != nil {
		return fmt.Errorf("authorization failed: %w", err)
	}

	// pCloud reports the account's region on the redirect; trust it over
	// the flag when present.
	if result.Location.Valid() {
		location = result.Location
	}

	accountID := authorizeAccountID
	if accountID == "" {
		accountID = "account-" + uuid.NewString()[:8]
	}

	account, err := sessionService.Authenticate(context.Background(), result.Code, location, accountID)
	if err != nil {
		return fmt.Errorf("token exchange failed: %w", err)
	}

	name := account.Email
	if name == "" {
		name = account.ID
	}
	cmd.Printf("Authorized %s (%s region)\n", name, locationName(account.Location))
	return nil
}
