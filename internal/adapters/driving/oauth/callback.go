// Package oauth provides the local callback server and browser utilities
// for the delegated authorization flow. The server receives the redirect
// carrying the authorization code; the code exchange itself happens in
// the session layer.
package oauth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"html"
	"net"
	"net/http"
	"os/exec"
	"runtime"
	"strconv"
	"time"

	"github.com/custodia-labs/pcloud-cli/internal/core/domain"
)

// CallbackResult is what the redirect delivered: the authorization code
// and, when pCloud includes it, the region the code was issued for.
type CallbackResult struct {
	Code string
	// Location is 0 when the redirect carried no locationid.
	Location domain.Location
}

// CallbackServer handles the OAuth redirect on a local port.
type CallbackServer struct {
	port          int
	expectedState string
	resultChan    chan CallbackResult
	errChan       chan error
	server        *http.Server
	listener      net.Listener
}

// NewCallbackServer creates a callback server. expectedState ties the
// redirect back to the authorization request; empty disables the check.
func NewCallbackServer(port int, expectedState string) *CallbackServer {
	return &CallbackServer{
		port:          port,
		expectedState: expectedState,
		resultChan:    make(chan CallbackResult, 1),
		errChan:       make(chan error, 1),
	}
}

// Start begins listening. Port 0 picks a free port.
func (s *CallbackServer) Start() error {
	mux := http.NewServeMux()
	mux.HandleFunc("/callback", s.handleCallback)

	s.server = &http.Server{
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	addr := fmt.Sprintf("127.0.0.1:%d", s.port)
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	s.listener = listener

	if tcpAddr, ok := listener.Addr().(*net.TCPAddr); ok {
		s.port = tcpAddr.Port
	}

	go func() {
		if err := s.server.Serve(listener); err != nil && err != http.ErrServerClosed {
			select {
			case s.errChan <- err:
			default:
			}
		}
	}()

	return nil
}

// handleCallback processes the redirect request.
func (s *CallbackServer) handleCallback(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	if errParam := query.Get("error"); errParam != "" {
		desc := query.Get("error_description")
		s.errChan <- fmt.Errorf("authorization error: %s - %s", errParam, desc)
		writePage(w, "Authorization failed", html.EscapeString(desc))
		return
	}

	if s.expectedState != "" && query.Get("state") != s.expectedState {
		s.errChan <- fmt.Errorf("state mismatch in authorization callback")
		writePage(w, "Authorization failed", "Invalid state parameter.")
		return
	}

	code := query.Get("code")
	if code == "" {
		s.errChan <- fmt.Errorf("no authorization code received")
		writePage(w, "Authorization failed", "No code received.")
		return
	}

	result := CallbackResult{Code: code}
	if loc, err := strconv.Atoi(query.Get("locationid")); err == nil {
		result.Location = domain.Location(loc)
	}

	select {
	case s.resultChan <- result:
	default:
	}

	writePage(w, "Authorization successful", "You can close this window and return to the terminal.")
}

// WaitForResult blocks until the redirect arrives or the timeout expires.
func (s *CallbackServer) WaitForResult(timeout time.Duration) (CallbackResult, error) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	select {
	case result := <-s.resultChan:
		return result, nil
	case err := <-s.errChan:
		return CallbackResult{}, err
	case <-ctx.Done():
		return CallbackResult{}, fmt.Errorf("timeout waiting for authorization callback")
	}
}

// Stop shuts down the callback server.
func (s *CallbackServer) Stop() error {
	if s.server == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.server.Shutdown(ctx)
}

// Port returns the port the server is listening on.
func (s *CallbackServer) Port() int {
	return s.port
}

// RedirectURI returns the redirect URI for this callback server.
func (s *CallbackServer) RedirectURI() string {
	return fmt.Sprintf("http://localhost:%d/callback", s.port)
}

func writePage(w http.ResponseWriter, title, message string) {
	w.Header().Set("Content-Type", "text/html")
	fmt.Fprintf(w, `<!DOCTYPE html>
<html>
<head><title>pCloud CLI</title></head>
<body style="font-family: sans-serif; text-align: center; margin-top: 15%%;">
<h1>%s</h1>
<p>%s</p>
</body>
</html>`, title, message)
}

// OpenBrowser opens the default browser to the given URL.
func OpenBrowser(url string) error {
	var cmd *exec.Cmd

	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "linux":
		cmd = exec.Command("xdg-open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		return fmt.Errorf("unsupported platform: %s", runtime.GOOS)
	}

	return cmd.Start()
}

// GenerateState creates a random state token for the authorization URL.
func GenerateState() string {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return strconv.FormatInt(time.Now().UnixNano(), 10)
	}
	return base64.RawURLEncoding.EncodeToString(b)
}
