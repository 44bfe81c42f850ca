package domain

// Entry is one item of a folder listing.
type Entry struct {
	// Name is the entry's display name.
	Name string `json:"name"`
	// IsFile distinguishes files from folders.
	IsFile bool `json:"isfile"`
	// FileID is set for files, 0 otherwise.
	FileID int64 `json:"fileid,omitempty"`
	// FolderID is set for folders, 0 otherwise.
	FolderID int64 `json:"folderid,omitempty"`
	// Size is the file size in bytes, 0 for folders.
	Size int64 `json:"size,omitempty"`
}

// UserInfo is the profile snapshot returned by a userinfo call.
type UserInfo struct {
	Email          string
	UserID         int64
	QuotaBytes     int64
	UsedQuotaBytes int64
}

// CredentialFacts is the outcome of a successful direct login: a token
// plus the profile facts the login response carries.
type CredentialFacts struct {
	AccessToken string
	UserInfo
}

// TokenFacts is the outcome of a successful authorization-code exchange.
// The remote may omit the region and profile fields, so they are optional.
type TokenFacts struct {
	AccessToken string
	// Location is the region the remote confirmed the token for,
	// 0 when the response did not carry one.
	Location Location
	// UserID is nil when the response did not include it.
	UserID *int64
	// Email is empty when the response did not include it.
	Email string
}

// UploadResult is the remote's answer to an upload, annotated with the
// account that served it so callers can record where the data landed.
type UploadResult struct {
	FileID int64  `json:"fileid"`
	Name   string `json:"name"`
	Size   int64  `json:"size"`

	// AccountID and AccountEmail identify the serving account.
	AccountID    string `json:"account_id_used"`
	AccountEmail string `json:"account_email_used"`
}

// SearchMatch is a folder entry found during a cross-account search,
// annotated with the account it was found in.
type SearchMatch struct {
	Entry
	AccountID    string `json:"account_id_found_in"`
	AccountEmail string `json:"account_email_found_in"`
}
