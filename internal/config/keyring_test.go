package config

import (
	"path/filepath"
	"testing"

	"github.com/99designs/keyring"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelectedBackend(t *testing.T) {
	tests := map[string]backend{
		"":        backendAuto,
		"auto":    backendAuto,
		" file ":  backendFile,
		"SYSTEM":  backendSystem,
		"os":      backendSystem,
		"native":  backendSystem,
		"kwallet": backendAuto,
	}
	for value, want := range tests {
		t.Setenv(envKeyringBackend, value)
		assert.Equal(t, want, selectedBackend(), value)
	}
}

func TestFileOnly(t *testing.T) {
	tests := []struct {
		goos string
		b    backend
		dbus string
		want bool
	}{
		{"darwin", backendFile, "ignored", true},
		{"linux", backendAuto, "", true},
		{"linux", backendAuto, "unix:path=/run/user/1000/bus", false},
		{"linux", backendSystem, "", false},
		{"windows", backendAuto, "", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, fileOnly(tt.goos, tt.b, tt.dbus), "%s/%s/%q", tt.goos, tt.b, tt.dbus)
	}
}

func TestKeyringConfig(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(envCredentialsDir, dir)

	t.Setenv(envKeyringBackend, "file")
	cfg := keyringConfig()
	assert.Equal(t, serviceName, cfg.ServiceName)
	assert.Equal(t, filepath.Join(dir, "keyring"), cfg.FileDir)
	assert.NotNil(t, cfg.FilePasswordFunc)
	assert.Equal(t, []keyring.BackendType{keyring.FileBackend}, cfg.AllowedBackends)

	t.Setenv(envKeyringBackend, "system")
	cfg = keyringConfig()
	assert.Empty(t, cfg.FileDir)
	assert.Nil(t, cfg.FilePasswordFunc)
	assert.Empty(t, cfg.AllowedBackends)
}

func TestConfigDir(t *testing.T) {
	t.Setenv(envCredentialsDir, "")
	fake := t.TempDir()
	prev := userConfigDir
	userConfigDir = func() (string, error) { return fake, nil }
	t.Cleanup(func() { userConfigDir = prev })

	assert.Equal(t, filepath.Join(fake, serviceName), ConfigDir())
	assert.Equal(t, filepath.Join(fake, serviceName, ".env"), DotEnvPath())

	t.Setenv(envCredentialsDir, "/srv/lark")
	assert.Equal(t, "/srv/lark", ConfigDir())
}

func TestKeyringFilePassword(t *testing.T) {
	t.Setenv(envKeyringPassword, "env-pass")
	password, err := keyringFilePassword("prompt")
	require.NoError(t, err)
	assert.Equal(t, "env-pass", password)

	t.Setenv(envKeyringPassword, " ")
	prev := stdinHasTTY
	stdinHasTTY = func() bool { return false }
	t.Cleanup(func() { stdinHasTTY = prev })
	_, err = keyringFilePassword("prompt")
	assert.ErrorContains(t, err, envKeyringPassword)
}
