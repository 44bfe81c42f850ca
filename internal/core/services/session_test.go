package services

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/pcloud-cli/internal/core/domain"
	"github.com/custodia-labs/pcloud-cli/internal/core/ports/driven"
)

// mockAuthenticator scripts credential acquisition.
type mockAuthenticator struct {
	directFacts *domain.CredentialFacts
	directErr   error
	directCalls int

	tokenFacts    *domain.TokenFacts
	exchangeErr   error
	exchangeCalls int
	lastClientKey string
}

func (m *mockAuthenticator) AcquireDirectToken(_ context.Context, _, _ string, _ domain.Location) (*domain.CredentialFacts, error) {
	m.directCalls++
	if m.directErr != nil {
		return nil, m.directErr
	}
	return m.directFacts, nil
}

func (m *mockAuthenticator) ExchangeAuthorizationCode(_ context.Context, _ string, _ domain.Location, clientKey, _, _ string) (*domain.TokenFacts, error) {
	m.exchangeCalls++
	m.lastClientKey = clientKey
	if m.exchangeErr != nil {
		return nil, m.exchangeErr
	}
	return m.tokenFacts, nil
}

func (m *mockAuthenticator) BuildAuthorizationURL(clientKey, redirectURI string) string {
	return "https://example.test/authorize?client_id=" + clientKey + "&redirect_uri=" + redirectURI
}

// accountFixture scripts the remote behaviour of one account.
type accountFixture struct {
	info    *domain.UserInfo
	infoErr error

	entries []domain.Entry
	listErr error

	uploadResult *domain.UploadResult
	uploadErr    error
}

// mockOperations hands out handles backed by per-account fixtures.
type mockOperations struct {
	fixtures map[string]*accountFixture
}

func newMockOperations() *mockOperations {
	return &mockOperations{fixtures: make(map[string]*accountFixture)}
}

func (m *mockOperations) fixture(id string) *accountFixture {
	f, ok := m.fixtures[id]
	if !ok {
		f = &accountFixture{}
		m.fixtures[id] = f
	}
	return f
}

func (m *mockOperations) UserOps(account *domain.Account) driven.UserOps {
	return mockHandle{m.fixture(account.ID)}
}

func (m *mockOperations) FolderOps(account *domain.Account) driven.FolderOps {
	return mockHandle{m.fixture(account.ID)}
}

func (m *mockOperations) FileOps(account *domain.Account) driven.FileOps {
	return mockHandle{m.fixture(account.ID)}
}

type mockHandle struct {
	f *accountFixture
}

func (h mockHandle) GetUserInfo(context.Context) (*domain.UserInfo, error) {
	if h.f.infoErr != nil {
		return nil, h.f.infoErr
	}
	return h.f.info, nil
}

func (h mockHandle) ListContents(context.Context, int64) ([]domain.Entry, error) {
	if h.f.listErr != nil {
		return nil, h.f.listErr
	}
	return h.f.entries, nil
}

func (h mockHandle) Create(context.Context, string, int64) (int64, error) {
	return 99, nil
}

func (h mockHandle) Upload(context.Context, string, int64, string, domain.ProgressSink) (*domain.UploadResult, error) {
	if h.f.uploadErr != nil {
		return nil, h.f.uploadErr
	}
	return h.f.uploadResult, nil
}

// mockCredentialStore records persistence calls in memory.
type mockCredentialStore struct {
	saved     [][]*domain.Account
	loadData  []*domain.Account
	loadErr   error
	clearCall int
}

func (m *mockCredentialStore) Save(_ context.Context, accounts []*domain.Account) error {
	snapshot := make([]*domain.Account, len(accounts))
	copy(snapshot, accounts)
	m.saved = append(m.saved, snapshot)
	return nil
}

func (m *mockCredentialStore) Load(context.Context) ([]*domain.Account, error) {
	return m.loadData, m.loadErr
}

func (m *mockCredentialStore) Clear(context.Context) error {
	m.clearCall++
	return nil
}

func (m *mockCredentialStore) Path() string { return "mock" }

func newTestService(auth *mockAuthenticator, ops *mockOperations, store driven.CredentialStore) *SessionService {
	if auth == nil {
		auth = &mockAuthenticator{}
	}
	if ops == nil {
		ops = newMockOperations()
	}
	return NewSessionService(auth, ops, store, "", "")
}

// addAuthenticated registers an account holding a token with the given
// quota figures scripted on the mock remote.
func addAuthenticated(t *testing.T, s *SessionService, ops *mockOperations, id string, quota, used int64) *domain.Account {
	t.Helper()
	account := domain.NewAccount(id)
	account.Email = id
	account.SetCredentials("tok-"+id, domain.LocationUS, domain.AuthTypeDirect)
	require.NoError(t, s.Registry().Add(account))
	ops.fixture(id).info = &domain.UserInfo{
		Email: id, UserID: 1, QuotaBytes: quota, UsedQuotaBytes: used,
	}
	return account
}

func TestSessionService_Login_Success(t *testing.T) {
	auth := &mockAuthenticator{
		directFacts: &domain.CredentialFacts{
			AccessToken: "tok123",
			UserInfo: domain.UserInfo{
				Email: "alice@example.com", UserID: 42,
				QuotaBytes: 10_000, UsedQuotaBytes: 2_000,
			},
		},
	}
	store := &mockCredentialStore{}
	s := newTestService(auth, nil, store)

	account, err := s.Login(context.Background(), "alice@example.com", "secret", domain.LocationEU, false)

	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", account.ID)
	assert.Equal(t, "tok123", account.AccessToken)
	assert.Equal(t, domain.LocationEU, account.Location)
	assert.Equal(t, domain.AuthTypeDirect, account.AuthType)
	assert.True(t, account.Authenticated)
	require.NotNil(t, account.QuotaBytes)
	assert.Equal(t, int64(10_000), *account.QuotaBytes)

	// Registered and persisted.
	assert.Equal(t, 1, s.Registry().Len())
	require.Len(t, store.saved, 1)
}

func TestSessionService_Login_EmailFallback(t *testing.T) {
	// The login response may omit the email; the input email stands in.
	auth := &mockAuthenticator{
		directFacts: &domain.CredentialFacts{AccessToken: "tok123"},
	}
	s := newTestService(auth, nil, nil)

	account, err := s.Login(context.Background(), "alice@example.com", "secret", domain.LocationUS, false)

	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", account.Email)
}

func TestSessionService_Login_FailureLeavesNoAccount(t *testing.T) {
	auth := &mockAuthenticator{
		directErr: &domain.AuthError{Code: 2009, Message: "Log in failed.", InvalidCredentials: true},
	}
	store := &mockCredentialStore{}
	s := newTestService(auth, nil, store)

	_, err := s.Login(context.Background(), "alice@example.com", "wrong", domain.LocationUS, false)

	require.Error(t, err)
	assert.True(t, domain.IsInvalidCredentials(err))
	assert.Equal(t, 0, s.Registry().Len())
	assert.Empty(t, store.saved)
}

func TestSessionService_Login_FailureKeepsExistingAccountIntact(t *testing.T) {
	auth := &mockAuthenticator{
		directFacts: &domain.CredentialFacts{AccessToken: "tok-old"},
	}
	s := newTestService(auth, nil, nil)
	_, err := s.Login(context.Background(), "alice@example.com", "secret", domain.LocationUS, false)
	require.NoError(t, err)

	auth.directErr = &domain.TransportError{Err: errors.New("connection refused")}
	_, err = s.Login(context.Background(), "alice@example.com", "secret", domain.LocationUS, true)

	require.Error(t, err)
	account, getErr := s.Account("alice@example.com")
	require.NoError(t, getErr)
	assert.Equal(t, "tok-old", account.AccessToken)
	assert.True(t, account.Authenticated)
}

func TestSessionService_Login_ReusesAuthenticatedAccount(t *testing.T) {
	auth := &mockAuthenticator{
		directFacts: &domain.CredentialFacts{AccessToken: "tok1"},
	}
	s := newTestService(auth, nil, nil)
	_, err := s.Login(context.Background(), "alice@example.com", "secret", domain.LocationUS, false)
	require.NoError(t, err)

	auth.directFacts = &domain.CredentialFacts{AccessToken: "tok2"}
	account, err := s.Login(context.Background(), "alice@example.com", "secret", domain.LocationUS, false)

	require.NoError(t, err)
	assert.Equal(t, "tok1", account.AccessToken)
	assert.Equal(t, 1, auth.directCalls)
}

func TestSessionService_Login_ForceReauthenticates(t *testing.T) {
	auth := &mockAuthenticator{
		directFacts: &domain.CredentialFacts{AccessToken: "tok1"},
	}
	s := newTestService(auth, nil, nil)
	_, err := s.Login(context.Background(), "alice@example.com", "secret", domain.LocationUS, false)
	require.NoError(t, err)

	auth.directFacts = &domain.CredentialFacts{AccessToken: "tok2"}
	account, err := s.Login(context.Background(), "alice@example.com", "secret", domain.LocationUS, true)

	require.NoError(t, err)
	assert.Equal(t, "tok2", account.AccessToken)
	assert.Equal(t, 2, auth.directCalls)
}

func TestSessionService_Login_InvalidInput(t *testing.T) {
	s := newTestService(nil, nil, nil)

	_, err := s.Login(context.Background(), "", "secret", domain.LocationUS, false)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = s.Login(context.Background(), "a@example.com", "", domain.LocationUS, false)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = s.Login(context.Background(), "a@example.com", "secret", domain.Location(7), false)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestSessionService_Authenticate_RequiresClientCredentials(t *testing.T) {
	s := newTestService(nil, nil, nil)

	_, err := s.Authenticate(context.Background(), "code123", domain.LocationUS, "work")

	assert.ErrorIs(t, err, domain.ErrConfigMissing)
}

func TestSessionService_Authenticate_Success(t *testing.T) {
	userID := int64(42)
	auth := &mockAuthenticator{
		tokenFacts: &domain.TokenFacts{
			AccessToken: "oauth-tok",
			Location:    domain.LocationEU,
			UserID:      &userID,
			Email:       "alice@example.com",
		},
	}
	s := NewSessionService(auth, newMockOperations(), nil, "app-key", "app-secret")

	account, err := s.Authenticate(context.Background(), "code123", domain.LocationUS, "work")

	require.NoError(t, err)
	assert.Equal(t, "work", account.ID)
	assert.Equal(t, "oauth-tok", account.AccessToken)
	assert.Equal(t, domain.AuthTypeOAuth2, account.AuthType)
	// The remote confirmed EU for the token; it wins over the argument.
	assert.Equal(t, domain.LocationEU, account.Location)
	assert.Equal(t, "alice@example.com", account.Email)
	assert.Equal(t, "app-key", auth.lastClientKey)
}

func TestSessionService_Authenticate_AccountCredentialsTakePrecedence(t *testing.T) {
	auth := &mockAuthenticator{
		tokenFacts: &domain.TokenFacts{AccessToken: "oauth-tok"},
	}
	s := NewSessionService(auth, newMockOperations(), nil, "app-key", "app-secret")

	account := domain.NewAccount("work")
	account.ClientKey = "own-key"
	account.ClientSecret = "own-secret"
	require.NoError(t, s.Registry().Add(account))

	_, err := s.Authenticate(context.Background(), "code123", domain.LocationUS, "work")

	require.NoError(t, err)
	assert.Equal(t, "own-key", auth.lastClientKey)
}

func TestSessionService_Logout(t *testing.T) {
	ops := newMockOperations()
	s := newTestService(nil, ops, nil)
	addAuthenticated(t, s, ops, "alice@example.com", 10_000, 0)

	require.NoError(t, s.Logout(context.Background(), "alice@example.com"))

	account, err := s.Account("alice@example.com")
	require.NoError(t, err)
	assert.False(t, account.Authenticated)
	assert.Empty(t, account.AccessToken)

	assert.ErrorIs(t, s.Logout(context.Background(), "missing"), domain.ErrNotFound)
}

func TestSessionService_AuthorizationURL_RequiresClientKey(t *testing.T) {
	s := newTestService(nil, nil, nil)

	_, err := s.AuthorizationURL("http://localhost:1234/callback")
	assert.ErrorIs(t, err, domain.ErrConfigMissing)

	s.SetClientCredentials("app-key", "app-secret")
	u, err := s.AuthorizationURL("http://localhost:1234/callback")
	require.NoError(t, err)
	assert.Contains(t, u, "app-key")
}

func TestSessionService_SelectAccountForUpload_PicksMostFree(t *testing.T) {
	ops := newMockOperations()
	s := newTestService(nil, ops, nil)
	addAuthenticated(t, s, ops, "a@example.com", 10_000, 7_000) // 3000 free
	addAuthenticated(t, s, ops, "b@example.com", 10_000, 5_000) // 5000 free
	addAuthenticated(t, s, ops, "c@example.com", 10_000, 9_800) // 200 free

	account, err := s.SelectAccountForUpload(context.Background(), 1_000)

	require.NoError(t, err)
	assert.Equal(t, "b@example.com", account.ID)
}

func TestSessionService_SelectAccountForUpload_TieKeepsFirst(t *testing.T) {
	ops := newMockOperations()
	s := newTestService(nil, ops, nil)
	addAuthenticated(t, s, ops, "a@example.com", 10_000, 5_000)
	addAuthenticated(t, s, ops, "b@example.com", 10_000, 5_000)

	account, err := s.SelectAccountForUpload(context.Background(), 1_000)

	require.NoError(t, err)
	assert.Equal(t, "a@example.com", account.ID)
}

func TestSessionService_SelectAccountForUpload_NoAuthenticatedAccount(t *testing.T) {
	ops := newMockOperations()
	s := newTestService(nil, ops, nil)
	require.NoError(t, s.Registry().Add(domain.NewAccount("a@example.com")))

	_, err := s.SelectAccountForUpload(context.Background(), 1)

	assert.ErrorIs(t, err, domain.ErrNoSuitableAccount)
}

func TestSessionService_SelectAccountForUpload_NothingFits(t *testing.T) {
	ops := newMockOperations()
	s := newTestService(nil, ops, nil)
	addAuthenticated(t, s, ops, "a@example.com", 10_000, 9_999)

	_, err := s.SelectAccountForUpload(context.Background(), 1_000)

	assert.ErrorIs(t, err, domain.ErrNoSuitableAccount)
}

func TestSessionService_SelectAccountForUpload_SkipsFailingQuotaQuery(t *testing.T) {
	ops := newMockOperations()
	s := newTestService(nil, ops, nil)
	broken := addAuthenticated(t, s, ops, "a@example.com", 10_000, 0)
	ops.fixture(broken.ID).infoErr = &domain.TransportError{Err: errors.New("timeout")}
	addAuthenticated(t, s, ops, "b@example.com", 10_000, 8_000)

	account, err := s.SelectAccountForUpload(context.Background(), 1_000)

	require.NoError(t, err)
	assert.Equal(t, "b@example.com", account.ID)
}

func TestSessionService_SelectAccountForUpload_RefreshesQuotaCache(t *testing.T) {
	ops := newMockOperations()
	s := newTestService(nil, ops, nil)
	account := addAuthenticated(t, s, ops, "a@example.com", 10_000, 1_000)
	// Stale cache says nearly full; the remote says otherwise.
	account.SetUserDetails(account.Email, 1, 10_000, 9_999)

	selected, err := s.SelectAccountForUpload(context.Background(), 5_000)

	require.NoError(t, err)
	assert.Equal(t, "a@example.com", selected.ID)
	require.NotNil(t, selected.UsedQuotaBytes)
	assert.Equal(t, int64(1_000), *selected.UsedQuotaBytes)
}

func TestSessionService_SelectAccountForUpload_NegativeSize(t *testing.T) {
	s := newTestService(nil, nil, nil)

	_, err := s.SelectAccountForUpload(context.Background(), -1)

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestSessionService_UploadToSuitableAccount_Success(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "report.pdf")
	require.NoError(t, os.WriteFile(path, []byte("hello world"), 0600))

	ops := newMockOperations()
	s := newTestService(nil, ops, nil)
	addAuthenticated(t, s, ops, "a@example.com", 10_000, 0)
	ops.fixture("a@example.com").uploadResult = &domain.UploadResult{
		FileID: 7, Name: "report.pdf", Size: 11,
	}

	result, err := s.UploadToSuitableAccount(context.Background(), path, 0, "", nil)

	require.NoError(t, err)
	assert.Equal(t, int64(7), result.FileID)
	assert.Equal(t, "a@example.com", result.AccountID)
	assert.Equal(t, "a@example.com", result.AccountEmail)
}

func TestSessionService_UploadToSuitableAccount_MissingLocalFile(t *testing.T) {
	ops := newMockOperations()
	s := newTestService(nil, ops, nil)
	account := addAuthenticated(t, s, ops, "a@example.com", 10_000, 0)

	_, err := s.UploadToSuitableAccount(context.Background(), "/does/not/exist", 0, "", nil)

	require.Error(t, err)
	assert.ErrorIs(t, err, fs.ErrNotExist)
	// The local check fails before any selection: no quota was fetched.
	assert.Nil(t, account.QuotaBytes)
}

func TestSessionService_FindFileInAccounts(t *testing.T) {
	ops := newMockOperations()
	s := newTestService(nil, ops, nil)
	addAuthenticated(t, s, ops, "a@example.com", 0, 0)
	addAuthenticated(t, s, ops, "b@example.com", 0, 0)
	addAuthenticated(t, s, ops, "c@example.com", 0, 0)

	ops.fixture("a@example.com").entries = []domain.Entry{
		{Name: "report.pdf", IsFile: true, FileID: 1, Size: 100},
		{Name: "report.pdf", IsFile: false, FolderID: 2}, // folder, not a match
	}
	ops.fixture("b@example.com").listErr = &domain.APIError{Code: 2005, Message: "Directory does not exist."}
	ops.fixture("c@example.com").entries = []domain.Entry{
		{Name: "Report.pdf", IsFile: true, FileID: 3}, // case differs, no match
		{Name: "report.pdf", IsFile: true, FileID: 4, Size: 200},
	}

	matches, err := s.FindFileInAccounts(context.Background(), "report.pdf", 0)

	require.NoError(t, err)
	require.Len(t, matches, 2)
	assert.Equal(t, "a@example.com", matches[0].AccountID)
	assert.Equal(t, int64(1), matches[0].FileID)
	assert.Equal(t, "c@example.com", matches[1].AccountID)
	assert.Equal(t, int64(4), matches[1].FileID)
}

func TestSessionService_FindFileInAccounts_NoMatchIsEmptyNotError(t *testing.T) {
	ops := newMockOperations()
	s := newTestService(nil, ops, nil)
	addAuthenticated(t, s, ops, "a@example.com", 0, 0)

	matches, err := s.FindFileInAccounts(context.Background(), "missing.txt", 0)

	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestSessionService_ListFolder_RequiresAuthentication(t *testing.T) {
	ops := newMockOperations()
	s := newTestService(nil, ops, nil)
	require.NoError(t, s.Registry().Add(domain.NewAccount("a@example.com")))

	_, err := s.ListFolder(context.Background(), "a@example.com", 0)
	assert.ErrorIs(t, err, domain.ErrNotAuthenticated)

	_, err = s.ListFolder(context.Background(), "missing", 0)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSessionService_CreateFolder(t *testing.T) {
	ops := newMockOperations()
	s := newTestService(nil, ops, nil)
	addAuthenticated(t, s, ops, "a@example.com", 0, 0)

	folderID, err := s.CreateFolder(context.Background(), "a@example.com", "docs", 0)
	require.NoError(t, err)
	assert.Equal(t, int64(99), folderID)

	_, err = s.CreateFolder(context.Background(), "a@example.com", "", 0)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestSessionService_RemoveAccount_Persists(t *testing.T) {
	store := &mockCredentialStore{}
	ops := newMockOperations()
	s := newTestService(nil, ops, store)
	addAuthenticated(t, s, ops, "a@example.com", 0, 0)

	require.NoError(t, s.RemoveAccount(context.Background(), "a@example.com"))

	assert.Equal(t, 0, s.Registry().Len())
	require.NotEmpty(t, store.saved)
	assert.Empty(t, store.saved[len(store.saved)-1])
}

func TestSessionService_ClearSavedCredentials(t *testing.T) {
	store := &mockCredentialStore{}
	ops := newMockOperations()
	s := newTestService(nil, ops, store)
	addAuthenticated(t, s, ops, "a@example.com", 0, 0)
	addAuthenticated(t, s, ops, "b@example.com", 0, 0)

	require.NoError(t, s.ClearSavedCredentials(context.Background()))

	assert.Equal(t, 0, s.Registry().Len())
	assert.Equal(t, 1, store.clearCall)
}

func TestNewSessionService_LoadsSavedAccounts(t *testing.T) {
	saved := domain.NewAccount("alice@example.com")
	saved.SetCredentials("tok123", domain.LocationUS, domain.AuthTypeDirect)
	store := &mockCredentialStore{loadData: []*domain.Account{saved}}

	s := newTestService(nil, nil, store)

	account, err := s.Account("alice@example.com")
	require.NoError(t, err)
	assert.True(t, account.Authenticated)
}

func TestNewSessionService_DuplicateSavedAccountFirstWins(t *testing.T) {
	first := domain.NewAccount("alice@example.com")
	first.AccessToken = "first"
	first.Authenticated = true
	second := domain.NewAccount("alice@example.com")
	second.AccessToken = "second"
	store := &mockCredentialStore{loadData: []*domain.Account{first, second}}

	s := newTestService(nil, nil, store)

	require.Equal(t, 1, s.Registry().Len())
	account, err := s.Account("alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, "first", account.AccessToken)
}
