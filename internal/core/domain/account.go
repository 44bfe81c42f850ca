package domain

import "time"

// AuthType identifies how an account's access token was obtained.
type AuthType string

const (
	// AuthTypeDirect is username/password authentication.
	AuthTypeDirect AuthType = "direct"

	// AuthTypeOAuth2 is the authorization-code flow. This is the default.
	AuthTypeOAuth2 AuthType = "oauth2"
)

// Location selects which regional API endpoint an account's calls go to.
type Location int

const (
	// LocationUS is the United States region (api.pcloud.com).
	LocationUS Location = 1

	// LocationEU is the European region (eapi.pcloud.com).
	LocationEU Location = 2
)

// DefaultRequestTimeout is the per-call timeout applied to account-scoped
// API requests unless overridden on the account.
const DefaultRequestTimeout = 3600 * time.Second

// Account represents one pCloud identity: its credential, region, and
// cached profile facts. Profile fields are pointers because they are
// unknown until the first successful userinfo round-trip.
//
// Accounts are not goroutine-safe; all access is expected from a single
// control flow (see SessionService).
type Account struct {
	// ID is the caller-chosen unique identifier, typically the email.
	// Immutable after creation.
	ID string `json:"account_id"`

	// AccessToken is the opaque API token. Empty when unauthenticated.
	AccessToken string `json:"access_token"`

	// Location is the server region the token is valid for.
	Location Location `json:"location_id"`

	// AuthType records which protocol produced the token.
	AuthType AuthType `json:"auth_type"`

	// ClientKey, ClientSecret and RedirectURI form the OAuth app identity.
	// Only needed for the authorization-code flow; empty accounts fall back
	// to the registry-wide app identity.
	ClientKey    string `json:"client_key"`
	ClientSecret string `json:"client_secret"`
	RedirectURI  string `json:"redirect_uri"`

	// Cached profile facts, nil until first populated.
	Email          string `json:"email"`
	UserID         *int64 `json:"user_id"`
	QuotaBytes     *int64 `json:"quota_total_bytes"`
	UsedQuotaBytes *int64 `json:"quota_used_bytes"`

	// Authenticated is true iff a non-empty token was set by a successful
	// credential-acquisition call (or derived from one at load time).
	Authenticated bool `json:"is_authenticated"`

	// RequestTimeout bounds each API call made for this account.
	RequestTimeout time.Duration `json:"-"`
}

// NewAccount creates an unauthenticated account with defaults.
func NewAccount(id string) *Account {
	return &Account{
		ID:             id,
		Location:       LocationUS,
		AuthType:       AuthTypeOAuth2,
		RequestTimeout: DefaultRequestTimeout,
	}
}

// SetCredentials installs a token obtained from a successful acquisition
// call and marks the account authenticated.
func (a *Account) SetCredentials(token string, location Location, authType AuthType) {
	a.AccessToken = token
	a.Location = location
	a.AuthType = authType
	a.Authenticated = true
}

// SetUserDetails caches profile facts from a userinfo response.
func (a *Account) SetUserDetails(email string, userID, quota, usedQuota int64) {
	a.Email = email
	a.UserID = &userID
	a.QuotaBytes = &quota
	a.UsedQuotaBytes = &usedQuota
}

// ClearCredentials drops the token and all profile facts and restores the
// default auth type. The region is kept so a re-login targets the same host.
func (a *Account) ClearCredentials() {
	a.AccessToken = ""
	a.AuthType = AuthTypeOAuth2
	a.Email = ""
	a.UserID = nil
	a.QuotaBytes = nil
	a.UsedQuotaBytes = nil
	a.Authenticated = false
}

// FreeSpace returns quota minus used quota. ok is false when either figure
// has not been fetched yet.
func (a *Account) FreeSpace() (free int64, ok bool) {
	if a.QuotaBytes == nil || a.UsedQuotaBytes == nil {
		return 0, false
	}
	return *a.QuotaBytes - *a.UsedQuotaBytes, true
}

// Valid reports whether a location value is one of the known regions.
func (l Location) Valid() bool {
	return l == LocationUS || l == LocationEU
}
