// Package auth receives the OAuth redirect of a browser login and hands the
// login code to "lark auth login".
package auth

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"flag"
	"fmt"
	"html/template"
	"net"
	"net/http"
	"os"
	"os/exec"
	"runtime"
	"strings"
	"time"

	"github.com/larkkit/lark-cli/internal/api"
)

// DefaultCallbackAddr is the listen address of the redirect receiver. The
// resulting redirect URI must be allowed in the app's security settings.
const DefaultCallbackAddr = "127.0.0.1:9876"

const callbackPath = "/callback"

// AuthorizePath is the platform page that asks the user to authorize the app.
const AuthorizePath = "/open-apis/authen/v1/index"

// ErrStateMismatch is returned when the redirect carries an unexpected state.
var ErrStateMismatch = errors.New("login state mismatch; restart the login")

// AuthorizeURL builds the page the user opens to log in. baseURL is the
// Open Platform origin.
func AuthorizeURL(baseURL, appID, redirectURI, state string) string {
	q := api.NewQuery().
		Set("app_id", appID).
		Set("redirect_uri", redirectURI).
		Set("state", api.Opt(state))
	return api.WithQuery(strings.TrimSuffix(baseURL, "/")+AuthorizePath, q)
}

type callbackResult struct {
	code string
	err  error
}

// CallbackServer waits for one OAuth redirect on a loopback address.
type CallbackServer struct {
	state    string
	result   chan callbackResult
	server   *http.Server
	listener net.Listener
}

// NewCallbackServer creates a server with a random state value.
func NewCallbackServer() (*CallbackServer, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return nil, fmt.Errorf("failed to generate login state: %w", err)
	}
	return &CallbackServer{
		state:  hex.EncodeToString(b),
		result: make(chan callbackResult, 1),
	}, nil
}

// State is the value the redirect must echo back.
func (s *CallbackServer) State() string {
	return s.state
}

// Listen starts serving on addr and returns the redirect URI to register
// with the authorize page.
func (s *CallbackServer) Listen(addr string) (string, error) {
	if addr == "" {
		addr = DefaultCallbackAddr
	}
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return "", fmt.Errorf("failed to start callback server: %w", err)
	}
	s.listener = listener

	mux := http.NewServeMux()
	mux.HandleFunc(callbackPath, s.handleCallback)
	s.server = &http.Server{
		Handler:      mux,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
	go func() {
		_ = s.server.Serve(listener)
	}()

	return "http://" + listener.Addr().String() + callbackPath, nil
}

// Wait blocks until the redirect arrives or ctx ends, then stops the server.
func (s *CallbackServer) Wait(ctx context.Context) (string, error) {
	if s.server == nil {
		return "", errors.New("callback server is not listening")
	}
	defer s.close()

	select {
	case r := <-s.result:
		return r.code, r.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (s *CallbackServer) close() {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.server.Shutdown(shutdownCtx); err != nil {
		_ = s.server.Close()
	}
}

func (s *CallbackServer) handleCallback(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	q := r.URL.Query()
	var res callbackResult
	switch {
	case subtle.ConstantTimeCompare([]byte(q.Get("state")), []byte(s.state)) != 1:
		res.err = ErrStateMismatch
	case q.Get("code") == "":
		res.err = errors.New("the redirect carried no login code; was the authorization denied?")
	default:
		res.code = q.Get("code")
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if res.err != nil {
		w.WriteHeader(http.StatusBadRequest)
	}
	_ = resultPage.Execute(w, pageData{OK: res.err == nil, Err: res.err})

	// Only the first redirect counts.
	select {
	case s.result <- res:
	default:
	}
}

type pageData struct {
	OK  bool
	Err error
}

var resultPage = template.Must(template.New("result").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>lark-cli login</title>
<style>body{font-family:-apple-system,BlinkMacSystemFont,sans-serif;max-width:32rem;margin:4rem auto;color:#1f2329}</style>
</head>
<body>
{{if .OK}}<h1>Logged in</h1>
<p>You can close this window and return to the terminal.</p>
{{else}}<h1>Login failed</h1>
<p>{{.Err}}</p>
{{end}}</body>
</html>
`))

// OpenBrowser opens url in the default browser. It does nothing under
// go test or when LARK_NO_BROWSER is set.
func OpenBrowser(url string) error {
	if shouldSkipAutoBrowserOpen() {
		return nil
	}

	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "linux":
		cmd = exec.Command("xdg-open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		return fmt.Errorf("unsupported platform")
	}
	return cmd.Start()
}

func shouldSkipAutoBrowserOpen() bool {
	if flag.Lookup("test.v") != nil {
		return true
	}
	switch strings.TrimSpace(strings.ToLower(os.Getenv("LARK_NO_BROWSER"))) {
	case "1", "true", "yes":
		return true
	}
	return false
}
