package cache_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/larkkit/lark-cli/internal/api"
	"github.com/larkkit/lark-cli/internal/cache"
)

func TestTokenStore_SetAndGet(t *testing.T) {
	ctx := context.Background()
	s := cache.NewTokenStore(t.TempDir())

	if err := s.Set(ctx, "tenant_access_token:cli_a", "t-123", time.Hour); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, err := s.Get(ctx, "tenant_access_token:cli_a")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != "t-123" {
		t.Fatalf("Get = %q, want t-123", got)
	}
}

func TestTokenStore_ExpiredTTL(t *testing.T) {
	ctx := context.Background()
	s := cache.NewTokenStore(t.TempDir())

	if err := s.Set(ctx, "k", "v", time.Millisecond); err != nil {
		t.Fatalf("Set: %v", err)
	}
	time.Sleep(5 * time.Millisecond)

	if _, err := s.Get(ctx, "k"); !errors.Is(err, api.ErrTokenNotFound) {
		t.Fatalf("expected ErrTokenNotFound after expiry, got %v", err)
	}
}

func TestTokenStore_NoTTLKeepsEntry(t *testing.T) {
	ctx := context.Background()
	s := cache.NewTokenStore(t.TempDir())

	if err := s.Set(ctx, "app_ticket:cli_a", "ticket", 0); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if got, err := s.Get(ctx, "app_ticket:cli_a"); err != nil || got != "ticket" {
		t.Fatalf("Get = %q, %v", got, err)
	}
}

func TestTokenStore_MissOnEmpty(t *testing.T) {
	s := cache.NewTokenStore(t.TempDir())
	if _, err := s.Get(context.Background(), "k"); !errors.Is(err, api.ErrTokenNotFound) {
		t.Fatalf("expected ErrTokenNotFound, got %v", err)
	}
}

func TestTokenStore_CorruptFileIsMiss(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	s := cache.NewTokenStore(dir)
	if err := s.Set(ctx, "k", "v", time.Hour); err != nil {
		t.Fatalf("Set: %v", err)
	}
	files, _ := filepath.Glob(filepath.Join(dir, "token_*.json"))
	if len(files) != 1 {
		t.Fatalf("expected one token file, got %d", len(files))
	}
	if err := os.WriteFile(files[0], []byte("{not json"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Get(ctx, "k"); !errors.Is(err, api.ErrTokenNotFound) {
		t.Fatalf("expected ErrTokenNotFound for corrupt file, got %v", err)
	}
}

func TestTokenStore_FilePermissions(t *testing.T) {
	dir := t.TempDir()
	s := cache.NewTokenStore(dir)
	if err := s.Set(context.Background(), "k", "v", time.Hour); err != nil {
		t.Fatalf("Set: %v", err)
	}
	files, _ := filepath.Glob(filepath.Join(dir, "token_*.json"))
	if len(files) != 1 {
		t.Fatalf("expected one token file, got %d", len(files))
	}
	info, err := os.Stat(files[0])
	if err != nil {
		t.Fatal(err)
	}
	if perm := info.Mode().Perm(); perm&0o077 != 0 {
		t.Fatalf("token file is readable by others: %v", perm)
	}
}

func TestTokenStore_Clear(t *testing.T) {
	ctx := context.Background()
	s := cache.NewTokenStore(t.TempDir())

	_ = s.Set(ctx, "k", "v", time.Hour)
	s.Clear("k")

	if _, err := s.Get(ctx, "k"); !errors.Is(err, api.ErrTokenNotFound) {
		t.Fatalf("expected miss after clear, got %v", err)
	}
}

func TestTokenStore_DifferentKeys(t *testing.T) {
	ctx := context.Background()
	s := cache.NewTokenStore(t.TempDir())

	_ = s.Set(ctx, "tenant_access_token:cli_a", "a", time.Hour)
	_ = s.Set(ctx, "tenant_access_token:cli_b", "b", time.Hour)

	got1, _ := s.Get(ctx, "tenant_access_token:cli_a")
	got2, _ := s.Get(ctx, "tenant_access_token:cli_b")
	if got1 != "a" || got2 != "b" {
		t.Fatal("keys should have separate entries")
	}
}

func TestClearAll(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	s := cache.NewTokenStore(dir)

	_ = s.Set(ctx, "a", "1", time.Hour)
	_ = s.Set(ctx, "b", "2", time.Hour)

	cache.ClearAll(dir)

	files, _ := filepath.Glob(filepath.Join(dir, "*.json"))
	if len(files) != 0 {
		t.Fatalf("expected no cache files after ClearAll, got %d", len(files))
	}
}

func TestTokenStore_DisabledByEnv(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	t.Setenv("LARK_NO_TOKEN_CACHE", "1")

	s := cache.NewTokenStore(dir)
	if err := s.Set(ctx, "k", "v", time.Hour); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if _, err := s.Get(ctx, "k"); !errors.Is(err, api.ErrTokenNotFound) {
		t.Fatalf("expected miss when disabled via env, got %v", err)
	}

	// Verify no file was written
	files, _ := os.ReadDir(dir)
	if len(files) != 0 {
		t.Fatal("expected no files written when cache disabled")
	}
}

func TestTokenStore_WithClient(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	first := cache.NewTokenStore(dir)
	if err := first.Set(ctx, api.AppTicketKey("cli_a"), "ticket-1", 0); err != nil {
		t.Fatalf("Set: %v", err)
	}
	// A second process sees the ticket written by the event server.
	second := cache.NewTokenStore(dir)
	got, err := second.Get(ctx, api.AppTicketKey("cli_a"))
	if err != nil || got != "ticket-1" {
		t.Fatalf("Get = %q, %v", got, err)
	}
}
