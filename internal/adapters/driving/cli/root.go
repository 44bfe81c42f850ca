// Package cli implements the pcloud command-line interface.
package cli

import (
	"github.com/spf13/cobra"

	configfile "github.com/custodia-labs/pcloud-cli/internal/adapters/driven/config/file"
	"github.com/custodia-labs/pcloud-cli/internal/adapters/driven/credfile"
	"github.com/custodia-labs/pcloud-cli/internal/adapters/driven/pcloud"
	"github.com/custodia-labs/pcloud-cli/internal/core/ports/driving"
	"github.com/custodia-labs/pcloud-cli/internal/core/services"
	"github.com/custodia-labs/pcloud-cli/internal/logger"
)

// version is set at build time via -ldflags.
var version = "dev"

// Package-level services wired in PersistentPreRunE (or injected by tests).
var (
	verbose        bool
	sessionService driving.SessionService
	configStore    *configfile.Store
)

var rootCmd = &cobra.Command{
	Use:   "pcloud",
	Short: "Multi-account pCloud client",
	Long: `pcloud manages multiple pCloud accounts from one place.

Accounts authenticate with email/password or the OAuth authorization-code
flow; credentials persist across runs. Uploads pick the account with the
most free space automatically, and search fans out across every
authenticated account.`,
	SilenceUsage: true,
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		logger.SetVerbose(verbose)
		if sessionService != nil {
			// Already wired (tests inject their own service).
			return nil
		}
		return initServices()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
}

// initServices builds the production wiring: TOML config, JSON credential
// file, and the pCloud API client behind one session service.
func initServices() error {
	store, err := configfile.NewStore("")
	if err != nil {
		return err
	}
	configStore = store
	cfg := store.Config()

	client := pcloud.NewClient()
	creds := credfile.NewStore(cfg.Credentials.File, cfg.Credentials.StalenessDays)
	sessionService = services.NewSessionService(client, client, creds, cfg.App.ClientKey, cfg.App.ClientSecret)
	return nil
}

// SetSessionService injects a session service. Used by tests.
func SetSessionService(s driving.SessionService) {
	sessionService = s
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
