package cache

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultDir(t *testing.T) {
	dir, err := DefaultDir()
	require.NoError(t, err)
	assert.Equal(t, "lark-cli", filepath.Base(dir))
}

func TestIsCacheFilename(t *testing.T) {
	for name, want := range map[string]bool{
		"token_0123456789abcdef.json":  true,
		"token_0123456789ABCDEF.json":  true,
		"token_0123456789abcde.json":   false,
		"token_0123456789abcdeg.json":  false,
		"token_0123456789abcdef.txt":   false,
		"token_0123456789abcdef.json~": false,
		"0123456789abcdef.json":        false,
		".token-12345":                 false,
	} {
		assert.Equal(t, want, isCacheFilename(name), name)
	}
}

func TestPath_StableAndDistinct(t *testing.T) {
	s := NewTokenStore(t.TempDir())
	assert.Equal(t, s.path("tenant:cli_a"), s.path("tenant:cli_a"))
	assert.NotEqual(t, s.path("tenant:cli_a"), s.path("tenant:cli_b"))
	assert.True(t, isCacheFilename(filepath.Base(s.path("app:cli_a"))))
}

func TestFilesAndClearAll_OnlyTouchTokenFiles(t *testing.T) {
	dir := t.TempDir()
	write := func(p string) {
		t.Helper()
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o700))
		require.NoError(t, os.WriteFile(p, []byte("{}"), 0o600))
	}
	token := filepath.Join(dir, "token_0123456789abcdef.json")
	notes := filepath.Join(dir, "README.txt")
	nested := filepath.Join(dir, "completions", "token_fedcba9876543210.json")
	write(token)
	write(notes)
	write(nested)

	assert.Equal(t, []File{{Name: "token_0123456789abcdef.json", Size: 2}}, Files(dir))
	assert.Equal(t, 1, ClearAll(dir))

	assert.NoFileExists(t, token)
	assert.FileExists(t, notes)
	assert.FileExists(t, nested)
	assert.Empty(t, Files(dir))
	assert.Nil(t, Files(filepath.Join(dir, "missing")))
}
