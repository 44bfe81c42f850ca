package domain

import (
	"errors"
	"fmt"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested account does not exist in the registry.
	ErrNotFound = errors.New("account not found")

	// ErrDuplicateAccount indicates an account with the same ID already exists.
	ErrDuplicateAccount = errors.New("account already exists")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotAuthenticated indicates the account has no usable token.
	ErrNotAuthenticated = errors.New("account not authenticated")

	// ErrNoSuitableAccount indicates no authenticated account has enough
	// free space for the requested upload.
	ErrNoSuitableAccount = errors.New("no suitable account for upload")

	// ErrConfigMissing indicates the OAuth app identity (client key/secret)
	// has not been configured.
	ErrConfigMissing = errors.New("client credentials not configured")
)

// AuthError is returned when the remote rejects credentials during login
// or code exchange. Recoverable by re-prompting the user.
type AuthError struct {
	// Message is the remote's error text, passed through verbatim.
	Message string
	// Code is the API result code, 0 when the remote supplied none.
	Code int
	// InvalidCredentials is set for the specific bad-email-or-password
	// result so callers can distinguish it from other auth failures.
	InvalidCredentials bool
}

func (e *AuthError) Error() string {
	if e.InvalidCredentials {
		return fmt.Sprintf("authentication failed: invalid credentials: %s (result %d)", e.Message, e.Code)
	}
	if e.Code != 0 {
		return fmt.Sprintf("authentication failed: %s (result %d)", e.Message, e.Code)
	}
	return fmt.Sprintf("authentication failed: %s", e.Message)
}

// APIError is any other non-zero result code from the remote API.
// The message is not interpreted beyond being carried to the caller.
type APIError struct {
	Code    int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.Code, e.Message)
}

// TransportError is a network or connection failure before a response
// could be decoded.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport error: %v", e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// ProtocolError indicates the remote's response was not parseable as
// expected (bad JSON, missing fields, unexpected content type).
type ProtocolError struct {
	Detail string
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("protocol error: %s", e.Detail)
}

// IsAuthFailure checks if the error is a credential rejection.
func IsAuthFailure(err error) bool {
	var authErr *AuthError
	return errors.As(err, &authErr)
}

// IsInvalidCredentials checks if the error is specifically a bad
// email/password rejection.
func IsInvalidCredentials(err error) bool {
	var authErr *AuthError
	if errors.As(err, &authErr) {
		return authErr.InvalidCredentials
	}
	return false
}

// IsTransportFailure checks if the error is a connectivity failure.
func IsTransportFailure(err error) bool {
	var transportErr *TransportError
	return errors.As(err, &transportErr)
}
