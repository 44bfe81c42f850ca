package services

import (
	"fmt"

	"github.com/custodia-labs/pcloud-cli/internal/core/domain"
)

// AccountRegistry is an in-memory keyed collection of accounts plus the
// registry-wide OAuth app identity used for the delegated flow.
//
// Iteration order is insertion order so that selection tie-breaks and
// search results are stable. Callers must not depend on the ordering.
type AccountRegistry struct {
	accounts map[string]*domain.Account
	order    []string

	clientKey    string
	clientSecret string
}

// NewAccountRegistry creates an empty registry with an optional default
// OAuth app identity.
func NewAccountRegistry(clientKey, clientSecret string) *AccountRegistry {
	return &AccountRegistry{
		accounts:     make(map[string]*domain.Account),
		clientKey:    clientKey,
		clientSecret: clientSecret,
	}
}

// Add inserts an account. Fails without mutating state when the id is
// already present.
func (r *AccountRegistry) Add(account *domain.Account) error {
	if account == nil || account.ID == "" {
		return domain.ErrInvalidInput
	}
	if _, ok := r.accounts[account.ID]; ok {
		return fmt.Errorf("account %q: %w", account.ID, domain.ErrDuplicateAccount)
	}
	r.accounts[account.ID] = account
	r.order = append(r.order, account.ID)
	return nil
}

// Remove deletes an account by id.
func (r *AccountRegistry) Remove(accountID string) error {
	if _, ok := r.accounts[accountID]; !ok {
		return fmt.Errorf("account %q: %w", accountID, domain.ErrNotFound)
	}
	delete(r.accounts, accountID)
	for i, id := range r.order {
		if id == accountID {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

// Get returns an account by id.
func (r *AccountRegistry) Get(accountID string) (*domain.Account, error) {
	account, ok := r.accounts[accountID]
	if !ok {
		return nil, fmt.Errorf("account %q: %w", accountID, domain.ErrNotFound)
	}
	return account, nil
}

// List returns all accounts in insertion order.
func (r *AccountRegistry) List() []*domain.Account {
	accounts := make([]*domain.Account, 0, len(r.order))
	for _, id := range r.order {
		accounts = append(accounts, r.accounts[id])
	}
	return accounts
}

// Len returns the number of registered accounts.
func (r *AccountRegistry) Len() int {
	return len(r.accounts)
}

// ClearAccounts drops every account from the registry.
func (r *AccountRegistry) ClearAccounts() {
	r.accounts = make(map[string]*domain.Account)
	r.order = nil
}

// SetClientCredentials sets the registry-wide OAuth app identity.
func (r *AccountRegistry) SetClientCredentials(key, secret string) {
	r.clientKey = key
	r.clientSecret = secret
}

// ClientCredentials returns the registry-wide OAuth app identity.
func (r *AccountRegistry) ClientCredentials() (key, secret string) {
	return r.clientKey, r.clientSecret
}
