// Package pcloud implements the remote capability surface against the
// pCloud JSON API. Every response carries a `result` code envelope; zero
// means success and anything else is an API-level failure.
package pcloud

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"golang.org/x/time/rate"

	"github.com/custodia-labs/pcloud-cli/internal/core/domain"
	"github.com/custodia-labs/pcloud-cli/internal/core/ports/driven"
)

const (
	// HostUS is the API host for the United States region.
	HostUS = "https://api.pcloud.com"

	// HostEU is the API host for the European region.
	HostEU = "https://eapi.pcloud.com"

	// AuthorizeURL is the fixed OAuth authorize endpoint. It is global;
	// only API calls are region-specific.
	AuthorizeURL = "https://my.pcloud.com/oauth2/authorize"

	// resultInvalidCredentials is the API result code for a rejected
	// email/password pair during direct login.
	resultInvalidCredentials = 2009

	// throttleRate is the proactive client-side request rate. pCloud
	// publishes no rate-limit headers, so a token bucket is all we have.
	throttleRate = 5.0

	// throttleBurst allows short bursts before throttling kicks in.
	throttleBurst = 5
)

// Ensure Client implements the driven ports.
var (
	_ driven.Authenticator = (*Client)(nil)
	_ driven.Operations    = (*Client)(nil)
)

// Client is the pCloud API client. One Client serves every account; each
// call carries the account's token and targets the account's region.
// Per-call deadlines come from the caller's context.
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	// hostOverride routes all regions to one host. Test hook.
	hostOverride string
}

// NewClient creates a pCloud API client with proactive throttling.
func NewClient() *Client {
	return &Client{
		httpClient: &http.Client{},
		limiter:    rate.NewLimiter(rate.Limit(throttleRate), throttleBurst),
	}
}

// NewClientWithHost creates a client that sends every request to the
// given host regardless of region. Used by tests against httptest servers.
func NewClientWithHost(host string) *Client {
	c := NewClient()
	c.hostOverride = host
	return c
}

// host returns the API host for a region.
func (c *Client) host(location domain.Location) string {
	if c.hostOverride != "" {
		return c.hostOverride
	}
	if location == domain.LocationEU {
		return HostEU
	}
	return HostUS
}

// apiEnvelope is the part of every response the error mapping needs.
type apiEnvelope struct {
	Result int    `json:"result"`
	Error  string `json:"error"`
}

// get issues one GET and returns the raw body. Only transport and
// HTTP-level failures are mapped here; result-code handling is the
// caller's job because auth calls map codes differently.
func (c *Client) get(ctx context.Context, location domain.Location, op string, params url.Values) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, &domain.TransportError{Err: err}
	}

	reqURL := fmt.Sprintf("%s/%s?%s", c.host(location), op, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, &domain.TransportError{Err: err}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &domain.TransportError{Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &domain.TransportError{Err: err}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &domain.TransportError{Err: fmt.Errorf("%s: HTTP %d", op, resp.StatusCode)}
	}
	return body, nil
}

// call issues one GET, enforces the success envelope, and decodes the
// body into out. A non-zero result code becomes an APIError.
func (c *Client) call(ctx context.Context, location domain.Location, op string, params url.Values, out any) error {
	body, err := c.get(ctx, location, op, params)
	if err != nil {
		return err
	}

	var env apiEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return &domain.ProtocolError{Detail: fmt.Sprintf("%s: undecodable response", op)}
	}
	if env.Result != 0 {
		msg := env.Error
		if msg == "" {
			msg = "unknown error"
		}
		return &domain.APIError{Code: env.Result, Message: msg}
	}

	if out != nil {
		if err := json.Unmarshal(body, out); err != nil {
			return &domain.ProtocolError{Detail: fmt.Sprintf("%s: unexpected response shape", op)}
		}
	}
	return nil
}

// UserOps returns the user-operations handle for one account.
func (c *Client) UserOps(account *domain.Account) driven.UserOps {
	return &userOps{client: c, account: account}
}

// FolderOps returns the folder-operations handle for one account.
func (c *Client) FolderOps(account *domain.Account) driven.FolderOps {
	return &folderOps{client: c, account: account}
}

// FileOps returns the file-operations handle for one account.
func (c *Client) FileOps(account *domain.Account) driven.FileOps {
	return &fileOps{client: c, account: account}
}

// authParams starts a parameter set carrying the account's token.
func authParams(account *domain.Account) url.Values {
	params := url.Values{}
	params.Set("auth", account.AccessToken)
	return params
}
