package driving

import (
	"context"

	"github.com/custodia-labs/pcloud-cli/internal/core/domain"
)

// SessionService is the façade callers use to manage accounts and run
// cross-account operations.
//
// Implementations are single-flow: they assume one caller at a time and
// add no internal locking. Callers exposing a SessionService to concurrent
// goroutines must synchronize externally.
type SessionService interface {
	// Login authenticates an account with email/password. The email is
	// the account id. An already-authenticated account is returned as-is
	// unless force is set.
	Login(ctx context.Context, email, password string, location domain.Location, force bool) (*domain.Account, error)

	// Authenticate exchanges an authorization code for a token and binds
	// it to accountID, creating the account when absent. Requires the
	// registry-wide client credentials to be configured.
	Authenticate(ctx context.Context, code string, location domain.Location, accountID string) (*domain.Account, error)

	// Logout clears an account's credentials. The account stays registered.
	Logout(ctx context.Context, accountID string) error

	// AuthorizationURL builds the browser URL for the delegated flow.
	// Fails with domain.ErrConfigMissing when no client key is set.
	AuthorizationURL(redirectURI string) (string, error)

	// SetClientCredentials sets the registry-wide OAuth app identity.
	SetClientCredentials(key, secret string)

	// Accounts lists all registered accounts.
	Accounts() []*domain.Account

	// Account returns one account by id.
	Account(accountID string) (*domain.Account, error)

	// RemoveAccount unregisters an account and persists the change.
	RemoveAccount(ctx context.Context, accountID string) error

	// ClearSavedCredentials deletes the credential file and empties the
	// registry. The only operation that removes all identities at once.
	ClearSavedCredentials(ctx context.Context) error

	// SelectAccountForUpload picks the authenticated account with the
	// most free space that can hold fileSize bytes, refreshing quota
	// figures as it goes. Fails with domain.ErrNoSuitableAccount when
	// no account qualifies.
	SelectAccountForUpload(ctx context.Context, fileSize int64) (*domain.Account, error)

	// UploadToSuitableAccount uploads a local file to an automatically
	// selected account and reports which account served it.
	UploadToSuitableAccount(ctx context.Context, filePath string, folderID int64, filename string, sink domain.ProgressSink) (*domain.UploadResult, error)

	// FindFileInAccounts searches every authenticated account's folder
	// for an exact file name match. Per-account failures are skipped.
	FindFileInAccounts(ctx context.Context, filename string, folderID int64) ([]domain.SearchMatch, error)

	// ListFolder lists one folder of one account, non-recursively.
	ListFolder(ctx context.Context, accountID string, folderID int64) ([]domain.Entry, error)

	// CreateFolder creates a folder for one account and returns its id.
	CreateFolder(ctx context.Context, accountID, name string, parentID int64) (int64, error)
}
