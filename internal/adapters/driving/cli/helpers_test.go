package cli

import (
	"bytes"
	"context"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/custodia-labs/pcloud-cli/internal/core/domain"
	"github.com/custodia-labs/pcloud-cli/internal/core/ports/driving"
)

// stubSession is a scriptable SessionService for command tests.
type stubSession struct {
	accounts []*domain.Account

	loginAccount *domain.Account
	loginErr     error

	matches   []domain.SearchMatch
	searchErr error

	uploadResult *domain.UploadResult
	uploadErr    error

	entries []domain.Entry
	listErr error

	removedID string
	cleared   bool
}

var _ driving.SessionService = (*stubSession)(nil)

func (s *stubSession) Login(context.Context, string, string, domain.Location, bool) (*domain.Account, error) {
	return s.loginAccount, s.loginErr
}

func (s *stubSession) Authenticate(context.Context, string, domain.Location, string) (*domain.Account, error) {
	return s.loginAccount, s.loginErr
}

func (s *stubSession) Logout(context.Context, string) error { return nil }

func (s *stubSession) AuthorizationURL(string) (string, error) {
	return "https://my.pcloud.com/oauth2/authorize?client_id=test", nil
}

func (s *stubSession) SetClientCredentials(string, string) {}

func (s *stubSession) Accounts() []*domain.Account { return s.accounts }

func (s *stubSession) Account(id string) (*domain.Account, error) {
	for _, a := range s.accounts {
		if a.ID == id {
			return a, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (s *stubSession) RemoveAccount(_ context.Context, id string) error {
	s.removedID = id
	return nil
}

func (s *stubSession) ClearSavedCredentials(context.Context) error {
	s.cleared = true
	return nil
}

func (s *stubSession) SelectAccountForUpload(context.Context, int64) (*domain.Account, error) {
	if len(s.accounts) == 0 {
		return nil, domain.ErrNoSuitableAccount
	}
	return s.accounts[0], nil
}

func (s *stubSession) UploadToSuitableAccount(context.Context, string, int64, string, domain.ProgressSink) (*domain.UploadResult, error) {
	return s.uploadResult, s.uploadErr
}

func (s *stubSession) FindFileInAccounts(context.Context, string, int64) ([]domain.SearchMatch, error) {
	return s.matches, s.searchErr
}

func (s *stubSession) ListFolder(context.Context, string, int64) ([]domain.Entry, error) {
	return s.entries, s.listErr
}

func (s *stubSession) CreateFolder(context.Context, string, string, int64) (int64, error) {
	return 55, nil
}

// runCommand executes the root command with a stub session injected and
// returns the captured output.
func runCommand(t *testing.T, stub *stubSession, args ...string) (string, error) {
	t.Helper()

	previous := sessionService
	SetSessionService(stub)
	t.Cleanup(func() { sessionService = previous })

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	t.Cleanup(func() { rootCmd.SetArgs(nil) })

	t.Cleanup(func() { resetFlags(rootCmd) })

	err := rootCmd.Execute()
	return buf.String(), err
}

// resetFlags restores every changed flag on cmd and its subcommands to its
// default value so state does not leak between tests sharing rootCmd.
func resetFlags(cmd *cobra.Command) {
	cmd.Flags().Visit(func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	})
	for _, sub := range cmd.Commands() {
		resetFlags(sub)
	}
}
