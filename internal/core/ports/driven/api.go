package driven

import (
	"context"

	"github.com/custodia-labs/pcloud-cli/internal/core/domain"
)

// Authenticator performs the two credential-acquisition protocols against
// the remote API. Calls are account-independent: they produce the facts a
// caller then applies to an Account on success.
type Authenticator interface {
	// AcquireDirectToken requests a login token with email/password,
	// invalidating any prior session for the same client. Returns the
	// token and the profile facts the login response carries.
	AcquireDirectToken(ctx context.Context, email, password string, location domain.Location) (*domain.CredentialFacts, error)

	// ExchangeAuthorizationCode trades an authorization code (obtained
	// out-of-band via the browser flow) for an access token.
	ExchangeAuthorizationCode(ctx context.Context, code string, location domain.Location, clientKey, clientSecret, redirectURI string) (*domain.TokenFacts, error)

	// BuildAuthorizationURL constructs the URL a browser flow visits to
	// obtain an authorization code for the given OAuth app identity.
	BuildAuthorizationURL(clientKey, redirectURI string) string
}

// Operations hands out per-account operation handles. Each handle is
// scoped to exactly one account's token and region.
type Operations interface {
	UserOps(account *domain.Account) UserOps
	FolderOps(account *domain.Account) FolderOps
	FileOps(account *domain.Account) FileOps
}

// UserOps answers profile and quota queries for one account.
type UserOps interface {
	// GetUserInfo fetches the current profile snapshot, including the
	// quota figures the upload-selection algorithm needs.
	GetUserInfo(ctx context.Context) (*domain.UserInfo, error)
}

// FolderOps performs folder operations for one account.
type FolderOps interface {
	// ListContents returns the entries of a folder, non-recursively.
	// folderID 0 is the root folder.
	ListContents(ctx context.Context, folderID int64) ([]domain.Entry, error)

	// Create makes a new folder under the given parent and returns its id.
	Create(ctx context.Context, name string, parentID int64) (int64, error)
}

// FileOps performs file transfers for one account.
type FileOps interface {
	// Upload sends a local file to the given folder. filename overrides
	// the local name when non-empty. sink may be nil.
	Upload(ctx context.Context, localPath string, folderID int64, filename string, sink domain.ProgressSink) (*domain.UploadResult, error)
}
