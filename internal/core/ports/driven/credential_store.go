package driven

import (
	"context"

	"github.com/custodia-labs/pcloud-cli/internal/core/domain"
)

// CredentialStore persists the full account set to a durable file.
//
// Persistence is a convenience, not a correctness requirement: the session
// layer treats Save failures as warnings and keeps the in-memory accounts
// usable. Load degrades to "no saved accounts" on a missing or corrupt file.
type CredentialStore interface {
	// Save writes every account's full field set, stamping each record
	// with the current time. The file is rewritten wholesale.
	Save(ctx context.Context, accounts []*domain.Account) error

	// Load reads previously saved accounts. A missing file, a non-list
	// payload, or corrupt JSON all yield an empty slice and nil error.
	// Individual malformed records are skipped with a warning.
	Load(ctx context.Context) ([]*domain.Account, error)

	// Clear deletes the backing file if present.
	Clear(ctx context.Context) error

	// Path returns the backing file path.
	Path() string
}
