package cli

import (
	"errors"

	"github.com/spf13/cobra"

	configfile "github.com/custodia-labs/pcloud-cli/internal/adapters/driven/config/file"
)

var appCmd = &cobra.Command{
	Use:   "app",
	Short: "Manage the OAuth application identity",
	Long: `Sets and shows the OAuth application credentials used by the
delegated authorization flow ('pcloud authorize'). Register an app at
https://docs.pcloud.com/my_apps/ to obtain a client key and secret.`,
}

var appSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Set the OAuth client key and secret",
	RunE:  runAppSet,
}

var appShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the configured OAuth app",
	RunE:  runAppShow,
}

var (
	appClientKey    string
	appClientSecret string
	appRedirectURI  string
)

func init() {
	appSetCmd.Flags().StringVar(&appClientKey, "client-key", "", "OAuth client key")
	appSetCmd.Flags().StringVar(&appClientSecret, "client-secret", "", "OAuth client secret")
	appSetCmd.Flags().StringVar(&appRedirectURI, "redirect-uri", "",
		"redirect URI registered with the app (optional)")
	_ = appSetCmd.MarkFlagRequired("client-key")
	_ = appSetCmd.MarkFlagRequired("client-secret")

	appCmd.AddCommand(appSetCmd)
	appCmd.AddCommand(appShowCmd)
	rootCmd.AddCommand(appCmd)
}

func runAppSet(cmd *cobra.Command, _ []string) error {
	if configStore == nil {
		return errors.New("config store not configured")
	}

	app := configfile.AppConfig{
		ClientKey:    appClientKey,
		ClientSecret: appClientSecret,
		RedirectURI:  appRedirectURI,
	}
	if err := configStore.SetApp(app); err != nil {
		return err
	}
	if sessionService != nil {
		sessionService.SetClientCredentials(appClientKey, appClientSecret)
	}

	cmd.Printf("OAuth app saved to %s\n", configStore.Path())
	return nil
}

func runAppShow(cmd *cobra.Command, _ []string) error {
	if configStore == nil {
		return errors.New("config store not configured")
	}

	app := configStore.Config().App
	if app.ClientKey == "" {
		cmd.Println("No OAuth app configured. Run 'pcloud app set'.")
		return nil
	}

	cmd.Printf("Client key:   %s\n", app.ClientKey)
	cmd.Println("Client secret: (set)")
	if app.RedirectURI != "" {
		cmd.Printf("Redirect URI: %s\n", app.RedirectURI)
	}
	return nil
}
