// Package credfile persists the account registry as a single JSON file:
// an ordered list of flat account records, rewritten wholesale on every
// save. The file is a convenience cache of credentials, so loads degrade
// to "no saved accounts" instead of failing.
package credfile

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/custodia-labs/pcloud-cli/internal/core/domain"
	"github.com/custodia-labs/pcloud-cli/internal/core/ports/driven"
	"github.com/custodia-labs/pcloud-cli/internal/logger"
)

// Ensure Store implements the interface.
var _ driven.CredentialStore = (*Store)(nil)

// DefaultStalenessDays is how old a saved record may be before a warning
// is emitted at load time. Stale records are still loaded; only a live
// round-trip can truly confirm token validity.
const DefaultStalenessDays = 30

// record is the persisted shape of one account. Field names are part of
// the on-disk contract.
type record struct {
	AccountID             string `json:"account_id"`
	AccessToken           string `json:"access_token"`
	LocationID            int    `json:"location_id"`
	AuthType              string `json:"auth_type"`
	ClientKey             string `json:"client_key"`
	ClientSecret          string `json:"client_secret"`
	RedirectURI           string `json:"redirect_uri"`
	Email                 string `json:"email"`
	UserID                *int64 `json:"user_id"`
	QuotaTotalBytes       *int64 `json:"quota_total_bytes"`
	QuotaUsedBytes        *int64 `json:"quota_used_bytes"`
	IsAuthenticated       bool   `json:"is_authenticated"`
	RequestTimeoutSeconds int64  `json:"request_timeout_seconds"`
	SavedAt               int64  `json:"saved_at"`
}

// Store is the file-backed credential store.
type Store struct {
	mu            sync.Mutex
	filePath      string
	stalenessDays int
	now           func() time.Time
}

// NewStore creates a credential store backed by filePath. A non-positive
// stalenessDays falls back to DefaultStalenessDays.
func NewStore(filePath string, stalenessDays int) *Store {
	if stalenessDays <= 0 {
		stalenessDays = DefaultStalenessDays
	}
	return &Store{
		filePath:      filePath,
		stalenessDays: stalenessDays,
		now:           time.Now,
	}
}

// Save writes every account's full field set, stamping each record with
// the current time.
func (s *Store) Save(_ context.Context, accounts []*domain.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	savedAt := s.now().Unix()
	records := make([]record, 0, len(accounts))
	for _, account := range accounts {
		records = append(records, record{
			AccountID:             account.ID,
			AccessToken:           account.AccessToken,
			LocationID:            int(account.Location),
			AuthType:              string(account.AuthType),
			ClientKey:             account.ClientKey,
			ClientSecret:          account.ClientSecret,
			RedirectURI:           account.RedirectURI,
			Email:                 account.Email,
			UserID:                account.UserID,
			QuotaTotalBytes:       account.QuotaBytes,
			QuotaUsedBytes:        account.UsedQuotaBytes,
			IsAuthenticated:       account.Authenticated,
			RequestTimeoutSeconds: int64(account.RequestTimeout / time.Second),
			SavedAt:               savedAt,
		})
	}

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return err
	}

	if dir := filepath.Dir(s.filePath); dir != "." {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return err
		}
	}
	// Restricted permissions: the file holds live tokens.
	return os.WriteFile(s.filePath, data, 0600)
}

// Load reads previously saved accounts. A missing file, a payload that is
// not a list, or corrupt JSON all yield an empty result and nil error.
// Individual malformed records are skipped with a warning.
func (s *Store) Load(_ context.Context) ([]*domain.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		logger.Warn("Could not read credentials from %s: %v", s.filePath, err)
		return nil, nil
	}

	var records []record
	if err := json.Unmarshal(data, &records); err != nil {
		logger.Warn("Credentials file %s is not a list of accounts, skipping load", s.filePath)
		return nil, nil
	}

	accounts := make([]*domain.Account, 0, len(records))
	for _, rec := range records {
		account, ok := s.restore(rec)
		if !ok {
			continue
		}
		accounts = append(accounts, account)
	}
	return accounts, nil
}

// restore reconstructs one account from a persisted record.
func (s *Store) restore(rec record) (*domain.Account, bool) {
	// The email doubles as the identity when account_id is absent.
	id := rec.AccountID
	if id == "" {
		id = rec.Email
	}
	if id == "" {
		logger.Warn("Skipping saved record with no account_id or email")
		return nil, false
	}

	s.warnIfStale(id, rec.SavedAt)

	account := domain.NewAccount(id)
	account.AccessToken = rec.AccessToken
	if loc := domain.Location(rec.LocationID); loc.Valid() {
		account.Location = loc
	}
	if rec.AuthType != "" {
		account.AuthType = domain.AuthType(rec.AuthType)
	}
	account.ClientKey = rec.ClientKey
	account.ClientSecret = rec.ClientSecret
	account.RedirectURI = rec.RedirectURI
	account.Email = rec.Email
	account.UserID = rec.UserID
	account.QuotaBytes = rec.QuotaTotalBytes
	account.UsedQuotaBytes = rec.QuotaUsedBytes
	if rec.RequestTimeoutSeconds > 0 {
		account.RequestTimeout = time.Duration(rec.RequestTimeoutSeconds) * time.Second
	}
	// Derived from the token, never from the stored flag: a record
	// claiming authentication without a token is not authenticated.
	account.Authenticated = rec.AccessToken != ""
	return account, true
}

// warnIfStale emits a warning for records past the staleness threshold.
// A zero saved_at means the age is unknown and no warning fires.
func (s *Store) warnIfStale(id string, savedAt int64) {
	if savedAt <= 0 {
		return
	}
	age := s.now().Sub(time.Unix(savedAt, 0))
	ageDays := age.Hours() / 24
	if ageDays > float64(s.stalenessDays) {
		logger.Warn("Credentials for account %s are %.1f days old (limit %d days), they may be stale",
			id, ageDays, s.stalenessDays)
	}
}

// Clear deletes the backing file. A file that never existed is not an
// error.
func (s *Store) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.filePath); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// Path returns the backing file path.
func (s *Store) Path() string {
	return s.filePath
}
