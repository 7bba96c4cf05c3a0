package api

import (
	"context"
	"net/url"
	"strings"
	"sync"
	"time"
)

// TokenStore holds access tokens and app tickets between requests. Get
// returns ErrTokenNotFound for missing or expired keys. Implementations must
// be safe for concurrent use.
type TokenStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
}

// Store keys. Access tokens are scoped to the API host that issued them, so
// one store can serve Feishu, Lark and test hosts side by side. Tenant
// tokens of ISV apps are kept per tenant.
func tenantTokenKey(host, appID, tenantKey string) string {
	key := "tenant_access_token:" + host + ":" + appID
	if tenantKey != "" {
		key += ":" + tenantKey
	}
	return key
}

func appTokenKey(host, appID string) string {
	return "app_access_token:" + host + ":" + appID
}

// tokenHost is the host part of baseURL, or baseURL itself when it does not
// parse as an absolute URL.
func tokenHost(baseURL string) string {
	if u, err := url.Parse(baseURL); err == nil && u.Host != "" {
		return strings.ToLower(u.Host)
	}
	return baseURL
}

// AppTicketKey is where the event handler stores the app ticket pushed to
// ISV apps, and where the dispatcher reads it.
func AppTicketKey(appID string) string {
	return "app_ticket:" + appID
}

type memoryEntry struct {
	value     string
	expiresAt time.Time
}

// MemoryStore is an in-process TokenStore.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	now     func() time.Time
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: map[string]memoryEntry{},
		now:     time.Now,
	}
}

func (s *MemoryStore) Get(_ context.Context, key string) (string, error) {
	s.mu.RLock()
	entry, ok := s.entries[key]
	s.mu.RUnlock()
	if !ok {
		return "", ErrTokenNotFound
	}
	if !entry.expiresAt.IsZero() && !s.now().Before(entry.expiresAt) {
		s.mu.Lock()
		if current, ok := s.entries[key]; ok && current == entry {
			delete(s.entries, key)
		}
		s.mu.Unlock()
		return "", ErrTokenNotFound
	}
	return entry.value, nil
}

// Set stores value under key. A non-positive ttl keeps the entry until it is
// overwritten.
func (s *MemoryStore) Set(_ context.Context, key, value string, ttl time.Duration) error {
	entry := memoryEntry{value: value}
	if ttl > 0 {
		entry.expiresAt = s.now().Add(ttl)
	}
	s.mu.Lock()
	s.entries[key] = entry
	s.mu.Unlock()
	return nil
}
