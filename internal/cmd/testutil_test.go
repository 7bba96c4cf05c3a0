// Package cmd test utilities.
//
// Commands are tested end to end: setupTestEnvWithHandler starts an
// httptest server, points LARK_BASE_URL at it and serves the tenant token
// endpoint, so every test only registers the Open Platform routes it needs:
//
//	handler := newRouteHandler().
//	    On("GET", "/open-apis/bot/v3/info", jsonResponse(200, `{"code":0,"bot":{"app_name":"demo"}}`))
//	setupTestEnvWithHandler(t, handler)
//
//	output := captureStdout(t, func() {
//	    if err := Execute(context.Background(), []string{"bot", "info"}); err != nil {
//	        t.Fatalf("bot info failed: %v", err)
//	    }
//	})
package cmd

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"testing"

	"github.com/99designs/keyring"

	"github.com/larkkit/lark-cli/internal/config"
)

const tenantTokenPath = "/open-apis/auth/v3/tenant_access_token/internal"

// captureStdout executes fn and returns what it wrote to stdout.
func captureStdout(t *testing.T, fn func()) string {
	t.Helper()
	old := os.Stdout
	r, w, _ := os.Pipe()
	os.Stdout = w

	fn()

	_ = w.Close()
	os.Stdout = old

	var buf bytes.Buffer
	_, _ = io.Copy(&buf, r)
	return buf.String()
}

// captureStderr executes fn and returns what it wrote to stderr.
func captureStderr(t *testing.T, fn func()) string {
	t.Helper()
	old := os.Stderr
	r, w, _ := os.Pipe()
	os.Stderr = w

	fn()

	_ = w.Close()
	os.Stderr = old

	var buf bytes.Buffer
	_, _ = io.Copy(&buf, r)
	return buf.String()
}

// withStdin replaces os.Stdin with input for the duration of fn.
func withStdin(t *testing.T, input string, fn func()) {
	t.Helper()
	old := os.Stdin
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("pipe: %v", err)
	}
	_, _ = w.WriteString(input)
	_ = w.Close()
	os.Stdin = r
	defer func() {
		os.Stdin = old
		_ = r.Close()
	}()
	fn()
}

// testEnv exposes the mock server of a test.
type testEnv struct {
	t      *testing.T
	server *httptest.Server
}

// setupTestEnvWithHandler starts a mock Open Platform server and configures
// credentials for it through LARK_* variables. Tokens live in memory so
// tests never share a token cache.
func setupTestEnvWithHandler(t *testing.T, handler http.Handler) *testEnv {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	t.Setenv("LARK_APP_ID", "cli_test")
	t.Setenv("LARK_APP_SECRET", "secret")
	t.Setenv("LARK_BASE_URL", server.URL)
	t.Setenv("LARK_ALLOW_PRIVATE", "1")
	t.Setenv("LARK_TOKEN_STORE", "memory")
	t.Setenv("LARK_OUTPUT", "text")
	useTestKeyring(t)

	return &testEnv{t: t, server: server}
}

// useTestKeyring gives the test its own in-memory keyring shared by every
// open within the test.
func useTestKeyring(t *testing.T) keyring.Keyring {
	t.Helper()
	ring := keyring.NewArrayKeyring(nil)
	restore := config.SetOpenKeyring(func(keyring.Config) (keyring.Keyring, error) {
		return ring, nil
	})
	t.Cleanup(restore)
	return ring
}

// clearCredentialEnv unsets the LARK_* credentials for tests that expect an
// unconfigured CLI.
func clearCredentialEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"LARK_APP_ID", "LARK_APP_SECRET", "LARK_BASE_URL", "LARK_PROFILE", "LARK_USER_ACCESS_TOKEN"} {
		t.Setenv(key, "")
		_ = os.Unsetenv(key)
	}
	useTestKeyring(t)
}

// jsonResponse returns a handler writing body with statusCode.
func jsonResponse(statusCode int, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(statusCode)
		_, _ = w.Write([]byte(body))
	}
}

// routeHandler routes requests by exact "METHOD PATH". The tenant token
// endpoint is always served; unknown routes get 404.
type routeHandler struct {
	mu     sync.Mutex
	routes map[string]http.HandlerFunc
	hits   map[string]int
}

func newRouteHandler() *routeHandler {
	rh := &routeHandler{
		routes: make(map[string]http.HandlerFunc),
		hits:   make(map[string]int),
	}
	return rh.On("POST", tenantTokenPath, jsonResponse(200, `{"code":0,"msg":"ok","tenant_access_token":"t-test","expire":7200}`))
}

// On registers handler for method and path, replacing any earlier one.
func (rh *routeHandler) On(method, path string, handler http.HandlerFunc) *routeHandler {
	rh.mu.Lock()
	defer rh.mu.Unlock()
	rh.routes[method+" "+path] = handler
	return rh
}

// Hits reports how many requests reached method and path.
func (rh *routeHandler) Hits(method, path string) int {
	rh.mu.Lock()
	defer rh.mu.Unlock()
	return rh.hits[method+" "+path]
}

func (rh *routeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	key := r.Method + " " + r.URL.Path
	rh.mu.Lock()
	handler, ok := rh.routes[key]
	rh.hits[key]++
	rh.mu.Unlock()
	if ok {
		handler(w, r)
		return
	}
	http.NotFound(w, r)
}

// decodeJSON parses command output into a map.
func decodeJSON(t *testing.T, output string) map[string]any {
	t.Helper()
	var v map[string]any
	if err := json.Unmarshal([]byte(output), &v); err != nil {
		t.Fatalf("output is not valid JSON: %v, output: %s", err, output)
	}
	return v
}

// decodeItems returns the "items" array of a JSON list output.
func decodeItems(t *testing.T, output string) []map[string]any {
	t.Helper()
	var wrapper struct {
		Items []map[string]any `json:"items"`
	}
	if err := json.Unmarshal([]byte(output), &wrapper); err != nil {
		t.Fatalf("output is not valid JSON: %v, output: %s", err, output)
	}
	return wrapper.Items
}

func TestRouteHandler(t *testing.T) {
	handler := newRouteHandler().
		On("GET", "/open-apis/test", jsonResponse(200, `{"code":0}`))
	env := setupTestEnvWithHandler(t, handler)

	resp, err := http.Get(env.server.URL + "/open-apis/test")
	if err != nil {
		t.Fatalf("GET failed: %v", err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != 200 {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}

	resp, err = http.Get(env.server.URL + "/open-apis/unknown")
	if err != nil {
		t.Fatalf("GET failed: %v", err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != 404 {
		t.Errorf("expected 404 for unknown route, got %d", resp.StatusCode)
	}
	if got := handler.Hits("GET", "/open-apis/test"); got != 1 {
		t.Errorf("expected 1 hit, got %d", got)
	}
	if os.Getenv("LARK_BASE_URL") != env.server.URL {
		t.Error("LARK_BASE_URL not set")
	}
}
