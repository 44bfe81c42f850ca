package pcloud

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"golang.org/x/oauth2"

	"github.com/custodia-labs/pcloud-cli/internal/core/domain"
)

// directLoginResponse is the userinfo response when getauth is requested.
type directLoginResponse struct {
	apiEnvelope
	Auth      string `json:"auth"`
	Email     string `json:"email"`
	UserID    int64  `json:"userid"`
	Quota     int64  `json:"quota"`
	UsedQuota int64  `json:"usedquota"`
}

// AcquireDirectToken requests a login token with email/password. The
// logout flag clears any previous session for this client first.
func (c *Client) AcquireDirectToken(ctx context.Context, email, password string, location domain.Location) (*domain.CredentialFacts, error) {
	params := url.Values{}
	params.Set("getauth", "1")
	params.Set("logout", "1")
	params.Set("username", email)
	params.Set("password", password)

	body, err := c.get(ctx, location, "userinfo", params)
	if err != nil {
		return nil, err
	}

	var resp directLoginResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, &domain.ProtocolError{Detail: "direct login: undecodable response"}
	}

	if resp.Result != 0 || resp.Auth == "" {
		msg := resp.Error
		if msg == "" {
			msg = "unknown error during direct login"
		}
		return nil, &domain.AuthError{
			Message:            msg,
			Code:               resp.Result,
			InvalidCredentials: resp.Result == resultInvalidCredentials && resp.Auth == "",
		}
	}

	return &domain.CredentialFacts{
		AccessToken: resp.Auth,
		UserInfo: domain.UserInfo{
			Email:          resp.Email,
			UserID:         resp.UserID,
			QuotaBytes:     resp.Quota,
			UsedQuotaBytes: resp.UsedQuota,
		},
	}, nil
}

// tokenResponse is the oauth2_token response.
type tokenResponse struct {
	AccessToken      string `json:"access_token"`
	LocationID       int    `json:"locationid"`
	UserID           *int64 `json:"userid"`
	Email            string `json:"email"`
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

// ExchangeAuthorizationCode trades an authorization code for an access
// token. The response may confirm a different region than requested.
func (c *Client) ExchangeAuthorizationCode(ctx context.Context, code string, location domain.Location, clientKey, clientSecret, redirectURI string) (*domain.TokenFacts, error) {
	params := url.Values{}
	params.Set("client_id", clientKey)
	params.Set("client_secret", clientSecret)
	params.Set("code", code)
	params.Set("grant_type", "authorization_code")
	if redirectURI != "" {
		params.Set("redirect_uri", redirectURI)
	}

	body, err := c.get(ctx, location, "oauth2_token", params)
	if err != nil {
		return nil, err
	}

	var resp tokenResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, &domain.ProtocolError{Detail: "oauth exchange: undecodable response"}
	}

	if resp.AccessToken == "" {
		msg := resp.ErrorDescription
		if msg == "" {
			msg = resp.Error
		}
		if msg == "" {
			msg = "unknown error during oauth exchange"
		}
		return nil, &domain.AuthError{Message: msg}
	}

	return &domain.TokenFacts{
		AccessToken: resp.AccessToken,
		Location:    domain.Location(resp.LocationID),
		UserID:      resp.UserID,
		Email:       resp.Email,
	}, nil
}

// BuildAuthorizationURL constructs the browser URL for the delegated
// authorization flow.
func (c *Client) BuildAuthorizationURL(clientKey, redirectURI string) string {
	conf := oauth2.Config{
		ClientID:    clientKey,
		RedirectURL: redirectURI,
		Endpoint: oauth2.Endpoint{
			AuthURL: AuthorizeURL,
		},
	}
	// pCloud ignores an empty state; callers running a callback server
	// append their own.
	u := conf.AuthCodeURL("")
	return trimEmptyState(u)
}

// trimEmptyState drops the state parameter AuthCodeURL adds when the
// caller supplied none.
func trimEmptyState(raw string) string {
	parsed, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	q := parsed.Query()
	if q.Get("state") == "" {
		q.Del("state")
	}
	parsed.RawQuery = q.Encode()
	return parsed.String()
}

// WithState appends a state parameter to an authorization URL. The local
// callback flow uses it to correlate the redirect with its request.
func WithState(authURL, state string) string {
	parsed, err := url.Parse(authURL)
	if err != nil {
		return fmt.Sprintf("%s&state=%s", authURL, url.QueryEscape(state))
	}
	q := parsed.Query()
	q.Set("state", state)
	parsed.RawQuery = q.Encode()
	return parsed.String()
}
