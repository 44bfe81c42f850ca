package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/custodia-labs/pcloud-cli/internal/core/domain"
	"github.com/custodia-labs/pcloud-cli/internal/core/ports/driven"
	"github.com/custodia-labs/pcloud-cli/internal/core/ports/driving"
	"github.com/custodia-labs/pcloud-cli/internal/logger"
)

// Ensure SessionService implements the interface.
var _ driving.SessionService = (*SessionService)(nil)

// SessionService manages the account registry and orchestrates
// cross-account operations: credential acquisition, capacity-aware upload
// selection, and cross-account search.
//
// The service is single-flow: remote calls are sequential and blocking,
// and no internal locking is performed.
type SessionService struct {
	registry *AccountRegistry
	auth     driven.Authenticator
	ops      driven.Operations
	store    driven.CredentialStore // nil disables persistence
}

// NewSessionService creates a session service and loads any previously
// saved accounts from the credential store. A nil store disables
// persistence entirely.
func NewSessionService(auth driven.Authenticator, ops driven.Operations, store driven.CredentialStore, clientKey, clientSecret string) *SessionService {
	s := &SessionService{
		registry: NewAccountRegistry(clientKey, clientSecret),
		auth:     auth,
		ops:      ops,
		store:    store,
	}
	s.loadSavedAccounts()
	return s
}

// Registry exposes the underlying account registry.
func (s *SessionService) Registry() *AccountRegistry {
	return s.registry
}

// loadSavedAccounts populates the registry from the credential store.
// The store already degrades missing/corrupt files to an empty result.
func (s *SessionService) loadSavedAccounts() {
	if s.store == nil {
		return
	}
	accounts, err := s.store.Load(context.Background())
	if err != nil {
		logger.Warn("Could not load saved credentials: %v", err)
		return
	}
	loaded := 0
	for _, account := range accounts {
		if err := s.registry.Add(account); err != nil {
			logger.Warn("Skipping saved account %q: %v", account.ID, err)
			continue
		}
		loaded++
	}
	if loaded > 0 {
		logger.Info("Loaded %d account(s) from %s", loaded, s.store.Path())
	}
}

// persist rewrites the credential file. Failures are warnings: the
// in-memory registry stays authoritative for this process.
func (s *SessionService) persist(ctx context.Context) {
	if s.store == nil {
		return
	}
	if err := s.store.Save(ctx, s.registry.List()); err != nil {
		logger.Warn("Could not save account credentials: %v", err)
	}
}

// opCtx bounds a remote call with the account's request timeout.
func opCtx(ctx context.Context, account *domain.Account) (context.Context, context.CancelFunc) {
	timeout := account.RequestTimeout
	if timeout <= 0 {
		timeout = domain.DefaultRequestTimeout
	}
	return context.WithTimeout(ctx, timeout)
}

// Login authenticates an account with email/password. The email doubles
// as the account id. On success the account is registered and persisted;
// on any failure the account is left exactly as it was.
func (s *SessionService) Login(ctx context.Context, email, password string, location domain.Location, force bool) (*domain.Account, error) {
	if email == "" || password == "" {
		return nil, fmt.Errorf("email and password required: %w", domain.ErrInvalidInput)
	}
	if !location.Valid() {
		return nil, fmt.Errorf("unknown location %d: %w", location, domain.ErrInvalidInput)
	}

	account, err := s.registry.Get(email)
	isNew := err != nil
	if isNew {
		account = domain.NewAccount(email)
		account.Email = email
	} else if account.Authenticated && !force {
		logger.Info("Account %s already authenticated, skipping login", email)
		return account, nil
	}

	callCtx, cancel := opCtx(ctx, account)
	defer cancel()

	facts, err := s.auth.AcquireDirectToken(callCtx, email, password, location)
	if err != nil {
		return nil, err
	}

	account.SetCredentials(facts.AccessToken, location, domain.AuthTypeDirect)
	respEmail := facts.Email
	if respEmail == "" {
		respEmail = email
	}
	account.SetUserDetails(respEmail, facts.UserID, facts.QuotaBytes, facts.UsedQuotaBytes)

	if isNew {
		if err := s.registry.Add(account); err != nil {
			return nil, err
		}
	}
	s.persist(ctx)
	logger.Info("Account %s logged in", account.ID)
	return account, nil
}

// Authenticate exchanges an authorization code for a token and binds it to
// accountID, creating the account when absent. The account's own OAuth app
// identity takes precedence over the registry-wide one.
func (s *SessionService) Authenticate(ctx context.Context, code string, location domain.Location, accountID string) (*domain.Account, error) {
	if code == "" || accountID == "" {
		return nil, fmt.Errorf("code and account id required: %w", domain.ErrInvalidInput)
	}

	account, err := s.registry.Get(accountID)
	isNew := err != nil
	if isNew {
		account = domain.NewAccount(accountID)
	}

	clientKey, clientSecret := s.registry.ClientCredentials()
	if account.ClientKey != "" {
		clientKey, clientSecret = account.ClientKey, account.ClientSecret
	}
	if clientKey == "" || clientSecret == "" {
		return nil, domain.ErrConfigMissing
	}

	callCtx, cancel := opCtx(ctx, account)
	defer cancel()

	facts, err := s.auth.ExchangeAuthorizationCode(callCtx, code, location, clientKey, clientSecret, account.RedirectURI)
	if err != nil {
		return nil, err
	}

	// Prefer the region the remote confirmed for the token.
	confirmed := location
	if facts.Location.Valid() {
		confirmed = facts.Location
	}
	account.SetCredentials(facts.AccessToken, confirmed, domain.AuthTypeOAuth2)
	if facts.UserID != nil {
		account.UserID = facts.UserID
	}
	if facts.Email != "" {
		account.Email = facts.Email
	}

	if isNew {
		if err := s.registry.Add(account); err != nil {
			return nil, err
		}
	}
	s.persist(ctx)
	logger.Info("Account %s authenticated via OAuth", account.ID)
	return account, nil
}

// Logout clears an account's credentials. The account stays registered so
// its identity survives for a later re-login.
func (s *SessionService) Logout(ctx context.Context, accountID string) error {
	account, err := s.registry.Get(accountID)
	if err != nil {
		return err
	}
	account.ClearCredentials()
	s.persist(ctx)
	logger.Info("Account %s logged out", accountID)
	return nil
}

// AuthorizationURL builds the browser URL for the delegated flow.
func (s *SessionService) AuthorizationURL(redirectURI string) (string, error) {
	clientKey, _ := s.registry.ClientCredentials()
	if clientKey == "" {
		return "", fmt.Errorf("cannot build authorization URL: %w", domain.ErrConfigMissing)
	}
	return s.auth.BuildAuthorizationURL(clientKey, redirectURI), nil
}

// SetClientCredentials sets the registry-wide OAuth app identity.
func (s *SessionService) SetClientCredentials(key, secret string) {
	s.registry.SetClientCredentials(key, secret)
}

// Accounts lists all registered accounts.
func (s *SessionService) Accounts() []*domain.Account {
	return s.registry.List()
}

// Account returns one account by id.
func (s *SessionService) Account(accountID string) (*domain.Account, error) {
	return s.registry.Get(accountID)
}

// RemoveAccount unregisters an account outright and persists the change.
func (s *SessionService) RemoveAccount(ctx context.Context, accountID string) error {
	if err := s.registry.Remove(accountID); err != nil {
		return err
	}
	s.persist(ctx)
	return nil
}

// ClearSavedCredentials deletes the credential file and empties the
// registry in memory. File deletion failures are warnings.
func (s *SessionService) ClearSavedCredentials(ctx context.Context) error {
	if s.store != nil {
		if err := s.store.Clear(ctx); err != nil {
			logger.Warn("Could not delete credential file: %v", err)
		}
	}
	s.registry.ClearAccounts()
	return nil
}

// handle returns a registered, authenticated account or the reason it
// cannot serve operations.
func (s *SessionService) handle(accountID string) (*domain.Account, error) {
	account, err := s.registry.Get(accountID)
	if err != nil {
		return nil, err
	}
	if !account.Authenticated {
		return nil, fmt.Errorf("account %q: %w", accountID, domain.ErrNotAuthenticated)
	}
	return account, nil
}

// UserOps returns the user-operations handle for an account.
func (s *SessionService) UserOps(accountID string) (driven.UserOps, error) {
	account, err := s.handle(accountID)
	if err != nil {
		return nil, err
	}
	return s.ops.UserOps(account), nil
}

// FolderOps returns the folder-operations handle for an account.
func (s *SessionService) FolderOps(accountID string) (driven.FolderOps, error) {
	account, err := s.handle(accountID)
	if err != nil {
		return nil, err
	}
	return s.ops.FolderOps(account), nil
}

// FileOps returns the file-operations handle for an account.
func (s *SessionService) FileOps(accountID string) (driven.FileOps, error) {
	account, err := s.handle(accountID)
	if err != nil {
		return nil, err
	}
	return s.ops.FileOps(account), nil
}

// ListFolder lists a folder's contents for one account, non-recursively.
func (s *SessionService) ListFolder(ctx context.Context, accountID string, folderID int64) ([]domain.Entry, error) {
	account, err := s.handle(accountID)
	if err != nil {
		return nil, err
	}
	callCtx, cancel := opCtx(ctx, account)
	defer cancel()
	return s.ops.FolderOps(account).ListContents(callCtx, folderID)
}

// CreateFolder creates a folder for one account and returns its id.
func (s *SessionService) CreateFolder(ctx context.Context, accountID, name string, parentID int64) (int64, error) {
	if name == "" {
		return 0, fmt.Errorf("folder name required: %w", domain.ErrInvalidInput)
	}
	account, err := s.handle(accountID)
	if err != nil {
		return 0, err
	}
	callCtx, cancel := opCtx(ctx, account)
	defer cancel()
	return s.ops.FolderOps(account).Create(callCtx, name, parentID)
}

// SelectAccountForUpload picks the authenticated account with the most
// free space that can hold fileSize bytes. Quota figures are refreshed
// via the remote as each account is considered; a failure for one account
// skips it and never aborts the scan.
func (s *SessionService) SelectAccountForUpload(ctx context.Context, fileSize int64) (*domain.Account, error) {
	if fileSize < 0 {
		return nil, fmt.Errorf("negative file size: %w", domain.ErrInvalidInput)
	}

	var (
		best     *domain.Account
		bestFree int64
	)
	for _, account := range s.registry.List() {
		if !account.Authenticated {
			continue
		}

		callCtx, cancel := opCtx(ctx, account)
		info, err := s.ops.UserOps(account).GetUserInfo(callCtx)
		cancel()
		if err != nil {
			logger.Warn("Skipping account %s: quota query failed: %v", account.ID, err)
			continue
		}
		account.SetUserDetails(info.Email, info.UserID, info.QuotaBytes, info.UsedQuotaBytes)

		free, ok := account.FreeSpace()
		if !ok || free < fileSize {
			continue
		}
		// Ties keep the first account encountered.
		if best == nil || free > bestFree {
			best, bestFree = account, free
		}
	}

	if best == nil {
		return nil, domain.ErrNoSuitableAccount
	}
	logger.Info("Selected account %s (%s) with %d bytes free", best.ID, best.Email, bestFree)
	return best, nil
}

// UploadToSuitableAccount uploads a local file to an automatically
// selected account. The local file is checked before any selection or
// remote call happens.
func (s *SessionService) UploadToSuitableAccount(ctx context.Context, filePath string, folderID int64, filename string, sink domain.ProgressSink) (*domain.UploadResult, error) {
	info, err := os.Stat(filePath)
	if err != nil {
		return nil, fmt.Errorf("local file %s: %w", filePath, err)
	}

	account, err := s.SelectAccountForUpload(ctx, info.Size())
	if err != nil {
		return nil, err
	}

	if filename == "" {
		filename = filepath.Base(filePath)
	}

	callCtx, cancel := opCtx(ctx, account)
	defer cancel()

	result, err := s.ops.FileOps(account).Upload(callCtx, filePath, folderID, filename, sink)
	if err != nil {
		return nil, err
	}
	result.AccountID = account.ID
	result.AccountEmail = account.Email
	return result, nil
}

// FindFileInAccounts searches the given folder of every authenticated
// account for an exact, case-sensitive file name match. Accounts that fail
// to answer are logged and skipped; a missing file is an empty result, not
// an error.
func (s *SessionService) FindFileInAccounts(ctx context.Context, filename string, folderID int64) ([]domain.SearchMatch, error) {
	var matches []domain.SearchMatch

	for _, account := range s.registry.List() {
		if !account.Authenticated {
			logger.Debug("Skipping unauthenticated account %s", account.ID)
			continue
		}

		callCtx, cancel := opCtx(ctx, account)
		entries, err := s.ops.FolderOps(account).ListContents(callCtx, folderID)
		cancel()
		if err != nil {
			logger.Warn("Could not search account %s: %v", account.ID, err)
			continue
		}

		for _, entry := range entries {
			if entry.IsFile && entry.Name == filename {
				matches = append(matches, domain.SearchMatch{
					Entry:        entry,
					AccountID:    account.ID,
					AccountEmail: account.Email,
				})
			}
		}
	}

	if len(matches) == 0 {
		logger.Debug("File %q not found in folder %d of any account", filename, folderID)
	}
	return matches, nil
}
