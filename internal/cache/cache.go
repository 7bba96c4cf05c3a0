// Package cache provides a file-backed token store so access tokens survive
// between CLI invocations.
//
// Each key is one JSON file named after a hash of the key. Disable with
// LARK_NO_TOKEN_CACHE=1.
package cache

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/larkkit/lark-cli/internal/api"
)

const filePrefix = "token_"

type entry struct {
	Key       string    `json:"key"`
	Value     string    `json:"value"`
	ExpiresAt time.Time `json:"expires_at,omitzero"`
}

// TokenStore implements api.TokenStore on top of a directory.
type TokenStore struct {
	dir string
	now func() time.Time
	off bool
}

var _ api.TokenStore = (*TokenStore)(nil)

// NewTokenStore creates a TokenStore rooted at dir (typically from
// DefaultDir). With LARK_NO_TOKEN_CACHE set it never stores anything.
func NewTokenStore(dir string) *TokenStore {
	return &TokenStore{dir: dir, now: time.Now, off: disabled()}
}

// NewStore is a TokenStore for other short-lived values, such as completion
// lists. LARK_NO_TOKEN_CACHE does not apply to it.
func NewStore(dir string) *TokenStore {
	return &TokenStore{dir: dir, now: time.Now}
}

func (s *TokenStore) path(key string) string {
	hash := sha1.Sum([]byte(key))
	return filepath.Join(s.dir, filePrefix+hex.EncodeToString(hash[:8])+".json")
}

// Get returns api.ErrTokenNotFound on a miss, an expired entry, a corrupt
// file, or when the store is off.
func (s *TokenStore) Get(_ context.Context, key string) (string, error) {
	if s.off {
		return "", api.ErrTokenNotFound
	}
	path := s.path(key)
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return "", api.ErrTokenNotFound
	}
	if err != nil {
		return "", fmt.Errorf("read token cache: %w", err)
	}
	var e entry
	if err := json.Unmarshal(data, &e); err != nil || e.Key != key {
		return "", api.ErrTokenNotFound
	}
	if !e.ExpiresAt.IsZero() && !s.now().Before(e.ExpiresAt) {
		_ = os.Remove(path)
		return "", api.ErrTokenNotFound
	}
	return e.Value, nil
}

// Set writes the entry with owner-only permissions. A non-positive ttl keeps
// the entry until it is overwritten.
func (s *TokenStore) Set(_ context.Context, key, value string, ttl time.Duration) error {
	if s.off {
		return nil
	}
	e := entry{Key: key, Value: value}
	if ttl > 0 {
		e.ExpiresAt = s.now().Add(ttl)
	}
	data, err := json.Marshal(e)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		return fmt.Errorf("create token cache dir: %w", err)
	}

	tmp, err := os.CreateTemp(s.dir, ".token-*")
	if err != nil {
		return fmt.Errorf("write token cache: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write token cache: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("write token cache: %w", err)
	}
	if err := os.Rename(tmpName, s.path(key)); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("write token cache: %w", err)
	}
	return nil
}

// Clear removes the entry for key.
func (s *TokenStore) Clear(key string) {
	_ = os.Remove(s.path(key))
}

// File is one token file in a cache directory.
type File struct {
	Name string `json:"name"`
	Size int64  `json:"size"`
}

// Files lists the token files directly in dir. Other files and
// subdirectories are ignored; a missing dir has none.
func Files(dir string) []File {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	var files []File
	for _, e := range entries {
		if e.IsDir() || !isCacheFilename(e.Name()) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		files = append(files, File{Name: e.Name(), Size: info.Size()})
	}
	return files
}

// ClearAll removes the token files listed by Files and returns how many
// were removed.
func ClearAll(dir string) int {
	n := 0
	for _, f := range Files(dir) {
		if os.Remove(filepath.Join(dir, f.Name)) == nil {
			n++
		}
	}
	return n
}

// DefaultDir returns the platform-appropriate cache directory.
// Returns "$XDG_CACHE_HOME/lark-cli" or equivalent.
func DefaultDir() (string, error) {
	base, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, "lark-cli"), nil
}

func disabled() bool {
	return os.Getenv("LARK_NO_TOKEN_CACHE") != ""
}

// isCacheFilename matches "token_<16 hex digits>.json".
func isCacheFilename(name string) bool {
	hash, ok := strings.CutPrefix(name, filePrefix)
	if !ok {
		return false
	}
	hash, ok = strings.CutSuffix(hash, ".json")
	if !ok || len(hash) != 16 {
		return false
	}
	_, err := hex.DecodeString(hash)
	return err == nil
}
