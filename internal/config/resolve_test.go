package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/larkkit/lark-cli/internal/api"
	"github.com/larkkit/lark-cli/internal/cache"
)

var larkEnvVars = []string{
	"LARK_PROFILE", "LARK_APP_ID", "LARK_APP_SECRET", "LARK_BASE_URL",
	"LARK_HELPDESK_ID", "LARK_HELPDESK_TOKEN", "LARK_ENCRYPT_KEY",
	"LARK_VERIFICATION_TOKEN", "LARK_ISV", "LARK_TENANT_KEY",
	"LARK_USER_ACCESS_TOKEN", "LARK_TOKEN_STORE", "LARK_REDIS_URL",
	"LARK_REDIS_PREFIX", "LARK_TIMEOUT",
}

func clearLarkEnv(t *testing.T) {
	t.Helper()
	for _, k := range larkEnvVars {
		t.Setenv(k, "")
		_ = os.Unsetenv(k)
	}
}

func TestLoadEnv(t *testing.T) {
	clearLarkEnv(t)
	t.Setenv("LARK_APP_ID", "cli_env")
	t.Setenv("LARK_ISV", "true")
	t.Setenv("LARK_TIMEOUT", "5s")

	e, err := LoadEnv()
	require.NoError(t, err)
	assert.Equal(t, "cli_env", e.AppID)
	assert.True(t, e.ISV)
	assert.Equal(t, 5*time.Second, e.Timeout)
}

func TestLoadEnv_Invalid(t *testing.T) {
	clearLarkEnv(t)
	t.Setenv("LARK_TIMEOUT", "soon")

	_, err := LoadEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "LARK_")
}

func TestResolve_EnvOnlySkipsKeyring(t *testing.T) {
	clearLarkEnv(t)
	withFailingKeyring(t, errors.New("no keyring here"))
	t.Setenv("LARK_APP_ID", "cli_env")
	t.Setenv("LARK_APP_SECRET", "secret")

	r, err := Resolve(Overrides{TokenStore: StoreMemory})
	require.NoError(t, err)
	assert.Equal(t, "cli_env", r.Profile.AppID)
	assert.Equal(t, api.FeishuBaseURL, r.Profile.BaseURL)
	assert.Equal(t, StoreMemory, r.StoreKind)
}

func TestResolve_ProfileWithEnvAndFlagOverrides(t *testing.T) {
	clearLarkEnv(t)
	withMockKeyring(t)
	require.NoError(t, SaveProfile("work", Profile{
		AppID: "cli_saved", AppSecret: "saved", BaseURL: "lark", HelpdeskID: "h",
	}))
	t.Setenv("LARK_HELPDESK_TOKEN", "from-env")
	t.Setenv("LARK_TIMEOUT", "10s")

	r, err := Resolve(Overrides{Timeout: 3 * time.Second, UserToken: "u-flag"})
	require.NoError(t, err)
	assert.Equal(t, "work", r.ProfileName)
	assert.Equal(t, api.LarkBaseURL, r.Profile.BaseURL)
	assert.Equal(t, "from-env", r.Profile.HelpdeskToken)
	assert.Equal(t, 3*time.Second, r.Timeout)
	assert.Equal(t, StoreFile, r.StoreKind)

	cfg := r.APIConfig(time.Now())
	assert.Equal(t, "cli_saved", cfg.AppID)
	assert.Equal(t, "h", cfg.HelpdeskID)
	assert.Equal(t, "u-flag", cfg.UserAccessToken)
}

func TestResolve_ExpiredUserTokenNotUsed(t *testing.T) {
	clearLarkEnv(t)
	withMockKeyring(t)
	require.NoError(t, SaveProfile("", Profile{
		AppID: "cli_a", AppSecret: "s",
		UserAccessToken: "u-old", UserTokenExpiresAt: time.Now().Add(-time.Hour),
	}))

	r, err := Resolve(Overrides{})
	require.NoError(t, err)
	assert.Empty(t, r.APIConfig(time.Now()).UserAccessToken)
}

func TestResolve_NotConfigured(t *testing.T) {
	clearLarkEnv(t)
	withMockKeyring(t)

	_, err := Resolve(Overrides{})
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestResolve_KeyringErrorSurfacesWithoutEnv(t *testing.T) {
	clearLarkEnv(t)
	boom := errors.New("keyring locked")
	withFailingKeyring(t, boom)

	_, err := Resolve(Overrides{})
	assert.ErrorIs(t, err, boom)
}

func TestResolve_InvalidStore(t *testing.T) {
	clearLarkEnv(t)
	withMockKeyring(t)
	t.Setenv("LARK_APP_ID", "cli_a")
	t.Setenv("LARK_APP_SECRET", "s")

	_, err := Resolve(Overrides{TokenStore: "etcd"})
	var se *api.StructuredError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, api.ErrValidation, se.Code)

	_, err = Resolve(Overrides{TokenStore: StoreRedis})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "LARK_REDIS_URL")

	r, err := Resolve(Overrides{TokenStore: StoreRedis, RedisURL: "redis://localhost:6379/0"})
	require.NoError(t, err)
	assert.Equal(t, "redis://localhost:6379/0", r.RedisURL)
}

func TestResolve_InvalidBaseURL(t *testing.T) {
	clearLarkEnv(t)
	withMockKeyring(t)
	t.Setenv("LARK_APP_ID", "cli_a")
	t.Setenv("LARK_APP_SECRET", "s")

	_, err := Resolve(Overrides{BaseURL: "http://open.feishu.cn"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid base URL")
}

func TestExpandBaseURL(t *testing.T) {
	tests := map[string]string{
		"":                          api.FeishuBaseURL,
		"feishu":                    api.FeishuBaseURL,
		"Lark":                      api.LarkBaseURL,
		"https://open.example.com/": "https://open.example.com",
	}
	for in, want := range tests {
		got, err := ExpandBaseURL(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
}

func TestOpenTokenStore(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", t.TempDir())

	store, err := Resolved{StoreKind: StoreMemory}.OpenTokenStore()
	require.NoError(t, err)
	assert.IsType(t, &api.MemoryStore{}, store)

	store, err = Resolved{StoreKind: StoreFile}.OpenTokenStore()
	require.NoError(t, err)
	assert.IsType(t, &cache.TokenStore{}, store)

	store, err = Resolved{StoreKind: StoreRedis, RedisURL: "redis://localhost:6379/1"}.OpenTokenStore()
	require.NoError(t, err)
	assert.IsType(t, &api.RedisStore{}, store)
}

func TestDotEnv(t *testing.T) {
	clearLarkEnv(t)
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("LARK_APP_ID=cli_dot\nLARK_APP_SECRET=dot\nLARK_BASE_URL=lark\n"), 0o600))

	p, err := ReadDotEnv(path)
	require.NoError(t, err)
	assert.Equal(t, "cli_dot", p.AppID)
	assert.Equal(t, "lark", p.BaseURL)
	assert.Empty(t, os.Getenv("LARK_APP_ID"), "ReadDotEnv must not touch the environment")

	t.Setenv("LARK_APP_SECRET", "exported")
	require.NoError(t, LoadDotEnv(path))
	assert.Equal(t, "cli_dot", os.Getenv("LARK_APP_ID"))
	assert.Equal(t, "exported", os.Getenv("LARK_APP_SECRET"), "exports win over .env")
	_ = os.Unsetenv("LARK_APP_ID")

	require.NoError(t, LoadDotEnv(filepath.Join(t.TempDir(), "missing.env")))
}
