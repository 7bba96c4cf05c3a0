// Package config stores app credential profiles in the OS keyring and
// resolves them, together with LARK_* environment overrides, into an
// api.Config.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/99designs/keyring"
)

const serviceName = "lark-cli"

const (
	envKeyringBackend  = "LARK_KEYRING_BACKEND"
	envKeyringPassword = "LARK_KEYRING_PASSWORD"
	envCredentialsDir  = "LARK_CREDENTIALS_DIR"
)

// backend is the LARK_KEYRING_BACKEND setting.
type backend string

const (
	backendAuto   backend = "auto"
	backendFile   backend = "file"
	backendSystem backend = "system"
)

var openKeyring = keyring.Open

var userConfigDir = os.UserConfigDir

var stdinHasTTY = func() bool {
	info, err := os.Stdin.Stat()
	return err == nil && info.Mode()&os.ModeCharDevice != 0
}

// SetOpenKeyring replaces the keyring opener and returns a func restoring
// the previous one. Tests use it with keyring.NewArrayKeyring.
func SetOpenKeyring(fn func(keyring.Config) (keyring.Keyring, error)) func() {
	prev := openKeyring
	openKeyring = fn
	return func() { openKeyring = prev }
}

func selectedBackend() backend {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(envKeyringBackend))) {
	case "file":
		return backendFile
	case "system", "os", "native":
		return backendSystem
	default:
		return backendAuto
	}
}

// keyringConfig picks the backend. Auto mode keeps the encrypted file
// backend configured as a fallback and uses it outright on Linux without a
// session bus, where the Secret Service cannot be reached.
func keyringConfig() keyring.Config {
	cfg := keyring.Config{ServiceName: serviceName}
	b := selectedBackend()
	if b == backendSystem {
		return cfg
	}
	cfg.FileDir = filepath.Join(ConfigDir(), "keyring")
	cfg.FilePasswordFunc = keyringFilePassword
	if fileOnly(runtime.GOOS, b, os.Getenv("DBUS_SESSION_BUS_ADDRESS")) {
		cfg.AllowedBackends = []keyring.BackendType{keyring.FileBackend}
	}
	return cfg
}

func fileOnly(goos string, b backend, dbusAddr string) bool {
	switch b {
	case backendFile:
		return true
	case backendAuto:
		return goos == "linux" && strings.TrimSpace(dbusAddr) == ""
	}
	return false
}

// ConfigDir is where lark-cli keeps its keyring files and .env.
func ConfigDir() string {
	if dir := strings.TrimSpace(os.Getenv(envCredentialsDir)); dir != "" {
		return dir
	}
	if dir, err := userConfigDir(); err == nil && strings.TrimSpace(dir) != "" {
		return filepath.Join(dir, serviceName)
	}
	if home, err := os.UserHomeDir(); err == nil && strings.TrimSpace(home) != "" {
		return filepath.Join(home, ".config", serviceName)
	}
	return filepath.Join(os.TempDir(), serviceName)
}

func keyringFilePassword(prompt string) (string, error) {
	if password := os.Getenv(envKeyringPassword); strings.TrimSpace(password) != "" {
		return password, nil
	}
	if !stdinHasTTY() {
		return "", fmt.Errorf("set %s when using file keyring in non-interactive environments", envKeyringPassword)
	}
	return keyring.TerminalPrompt(prompt)
}
