package cmd

import (
	"context"
	"strings"
	"testing"

	"github.com/larkkit/lark-cli/internal/api"
	"github.com/larkkit/lark-cli/internal/config"
)

func TestAuthLogin_VerifiesAndSavesProfile(t *testing.T) {
	handler := newRouteHandler()
	env := setupTestEnvWithHandler(t, handler)

	output := captureStdout(t, func() {
		err := Execute(context.Background(), []string{
			"auth", "login", "--profile", "work",
			"--app-id", "cli_work", "--app-secret", "s3cret-value",
			"--base-url", env.server.URL,
		})
		if err != nil {
			t.Fatalf("login failed: %v", err)
		}
	})

	if !strings.Contains(output, "Credentials saved.") || !strings.Contains(output, "Profile: work") {
		t.Errorf("unexpected output: %q", output)
	}
	if handler.Hits("POST", tenantTokenPath) != 1 {
		t.Errorf("expected one token request to verify credentials, got %d", handler.Hits("POST", tenantTokenPath))
	}

	p, err := config.LoadProfile("work")
	if err != nil {
		t.Fatalf("LoadProfile: %v", err)
	}
	if p.AppID != "cli_work" || p.AppSecret != "s3cret-value" || p.BaseURL != env.server.URL {
		t.Errorf("unexpected profile: %+v", p)
	}
	if current, _ := config.CurrentProfile(); current != "work" {
		t.Errorf("expected current profile work, got %q", current)
	}
}

func TestAuthLogin_RejectedCredentials(t *testing.T) {
	handler := newRouteHandler().
		On("POST", tenantTokenPath, jsonResponse(200, `{"code":10014,"msg":"app secret invalid"}`))
	env := setupTestEnvWithHandler(t, handler)

	err := Execute(context.Background(), []string{
		"auth", "login", "--app-id", "cli_bad", "--app-secret", "nope-nope",
		"--base-url", env.server.URL,
	})
	if err == nil {
		t.Fatal("expected error for rejected credentials")
	}
	if !strings.Contains(err.Error(), "credential check failed") {
		t.Errorf("unexpected error: %v", err)
	}
	if ExitCode(err) != exitAuth {
		t.Errorf("expected auth exit code, got %d", ExitCode(err))
	}
	if _, loadErr := config.LoadProfile("default"); loadErr == nil {
		t.Error("profile must not be saved when verification fails")
	}
}

func TestAuthLogin_SecretFromStdin(t *testing.T) {
	clearCredentialEnv(t)

	withStdin(t, "from-stdin-secret\n", func() {
		_ = captureStdout(t, func() {
			err := Execute(context.Background(), []string{
				"auth", "login", "--app-id", "cli_stdin", "--app-secret-stdin",
				"--base-url", "lark", "--no-verify",
			})
			if err != nil {
				t.Fatalf("login failed: %v", err)
			}
		})
	})

	p, err := config.LoadProfile("default")
	if err != nil {
		t.Fatalf("LoadProfile: %v", err)
	}
	if p.AppSecret != "from-stdin-secret" {
		t.Errorf("expected secret from stdin, got %q", p.AppSecret)
	}
	if p.BaseURL != api.LarkBaseURL {
		t.Errorf("expected lark base URL, got %q", p.BaseURL)
	}
}

func TestAuthLogin_Validation(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"missing app id", []string{"--app-secret", "x", "--no-verify"}, "--app-id is required"},
		{"missing secret", []string{"--app-id", "cli_x", "--no-verify"}, "--app-secret or --app-secret-stdin is required"},
		{"isv without tenant", []string{"--app-id", "cli_x", "--app-secret", "x", "--isv"}, "--tenant-key is required"},
		{"bad base url", []string{"--app-id", "cli_x", "--app-secret", "x", "--base-url", "ftp://example.com", "--no-verify"}, "invalid base URL"},
		{"browser with code", []string{"--browser", "--code", "abc"}, "none of the others can be"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearCredentialEnv(t)
			err := Execute(context.Background(), append([]string{"auth", "login"}, tt.args...))
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("expected %q in error, got %v", tt.want, err)
			}
		})
	}
}

func TestAuthStatus_NotConfigured(t *testing.T) {
	clearCredentialEnv(t)

	output := captureStdout(t, func() {
		if err := Execute(context.Background(), []string{"auth", "status"}); err != nil {
			t.Fatalf("status failed: %v", err)
		}
	})
	if !strings.Contains(output, "Not authenticated.") {
		t.Errorf("unexpected output: %q", output)
	}
}

func TestAuthStatus_ChecksToken(t *testing.T) {
	handler := newRouteHandler()
	setupTestEnvWithHandler(t, handler)

	output := captureStdout(t, func() {
		if err := Execute(context.Background(), []string{"auth", "status", "--json"}); err != nil {
			t.Fatalf("status failed: %v", err)
		}
	})
	status := decodeJSON(t, output)
	if status["authenticated"] != true || status["token_ok"] != true {
		t.Errorf("unexpected status: %v", status)
	}
	if status["app_secret"] != "******" {
		t.Errorf("secret must be masked, got %v", status["app_secret"])
	}
	if status["token_store"] != config.StoreMemory {
		t.Errorf("unexpected token store: %v", status["token_store"])
	}
	if status["user_token"] != "none" {
		t.Errorf("unexpected user token state: %v", status["user_token"])
	}
}

func TestAuthStatus_Offline(t *testing.T) {
	handler := newRouteHandler()
	setupTestEnvWithHandler(t, handler)

	output := captureStdout(t, func() {
		if err := Execute(context.Background(), []string{"auth", "status", "--offline"}); err != nil {
			t.Fatalf("status failed: %v", err)
		}
	})
	if strings.Contains(output, "Token check") {
		t.Errorf("offline status must not check tokens: %q", output)
	}
	if handler.Hits("POST", tenantTokenPath) != 0 {
		t.Error("offline status fetched a token")
	}
}

func TestAuthToken(t *testing.T) {
	setupTestEnvWithHandler(t, newRouteHandler())

	output := captureStdout(t, func() {
		if err := Execute(context.Background(), []string{"auth", "token"}); err != nil {
			t.Fatalf("token failed: %v", err)
		}
	})
	if strings.TrimSpace(output) != "t-test" {
		t.Errorf("expected tenant token, got %q", output)
	}
}

func TestAuthToken_UserFromEnv(t *testing.T) {
	setupTestEnvWithHandler(t, newRouteHandler())
	t.Setenv("LARK_USER_ACCESS_TOKEN", "u-env")

	output := captureStdout(t, func() {
		if err := Execute(context.Background(), []string{"auth", "token", "--type", "user"}); err != nil {
			t.Fatalf("token failed: %v", err)
		}
	})
	if strings.TrimSpace(output) != "u-env" {
		t.Errorf("expected user token, got %q", output)
	}
}

func TestAuthToken_Errors(t *testing.T) {
	setupTestEnvWithHandler(t, newRouteHandler())

	err := Execute(context.Background(), []string{"auth", "token", "--type", "user"})
	if err == nil || !strings.Contains(err.Error(), api.ErrMissingUserToken.Error()) {
		t.Errorf("expected missing user token error, got %v", err)
	}

	err = Execute(context.Background(), []string{"auth", "token", "--type", "bogus"})
	if err == nil {
		t.Fatal("expected error for invalid type")
	}
	if ExitCode(err) != exitUsage {
		t.Errorf("expected usage exit code, got %d", ExitCode(err))
	}
}

func TestAuthProfilesUseLogout(t *testing.T) {
	clearCredentialEnv(t)
	for _, name := range []string{"alpha", "beta"} {
		if err := config.SaveProfile(name, config.Profile{AppID: "cli_" + name, AppSecret: "secret"}); err != nil {
			t.Fatalf("SaveProfile(%s): %v", name, err)
		}
	}

	output := captureStdout(t, func() {
		if err := Execute(context.Background(), []string{"auth", "profiles"}); err != nil {
			t.Fatalf("profiles failed: %v", err)
		}
	})
	if output != "  alpha\n* beta\n" {
		t.Errorf("unexpected profiles output: %q", output)
	}

	output = captureStdout(t, func() {
		if err := Execute(context.Background(), []string{"auth", "use", "alpha"}); err != nil {
			t.Fatalf("use failed: %v", err)
		}
	})
	if !strings.Contains(output, "Switched to profile alpha") {
		t.Errorf("unexpected use output: %q", output)
	}
	if current, _ := config.CurrentProfile(); current != "alpha" {
		t.Errorf("expected alpha to be current, got %q", current)
	}

	if err := Execute(context.Background(), []string{"auth", "use", "missing"}); err == nil {
		t.Error("expected error switching to an unknown profile")
	}

	_ = captureStdout(t, func() {
		if err := Execute(context.Background(), []string{"auth", "logout", "--keep-cache"}); err != nil {
			t.Fatalf("logout failed: %v", err)
		}
	})
	names, err := config.ListProfiles()
	if err != nil {
		t.Fatalf("ListProfiles: %v", err)
	}
	if len(names) != 1 || names[0] != "beta" {
		t.Errorf("expected only beta to remain, got %v", names)
	}
}

func TestMaskToken(t *testing.T) {
	tests := map[string]string{
		"":             "",
		"short":        "*****",
		"abcdefgh":     "abcdefgh",
		"abcd1234wxyz": "abcd****wxyz",
	}
	for in, want := range tests {
		if got := maskToken(in); got != want {
			t.Errorf("maskToken(%q) = %q, want %q", in, got, want)
		}
	}
}
