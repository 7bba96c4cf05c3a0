package cmd

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/larkkit/lark-cli/internal/api"
	"github.com/larkkit/lark-cli/internal/cache"
)

const completionsTTL = 5 * time.Minute

// completionStore keeps completion lists next to the token cache, one entry
// per list, base URL and app.
func completionStore() *cache.TokenStore {
	if completionsNoCache || os.Getenv("LARK_COMPLETIONS_NO_CACHE") != "" {
		return nil
	}
	dir := os.Getenv("LARK_COMPLETIONS_CACHE_DIR")
	if dir == "" {
		base, err := cache.DefaultDir()
		if err != nil {
			return nil
		}
		dir = filepath.Join(base, "completions")
	}
	return cache.NewStore(dir)
}

func completionKey(client *api.Client, list string) string {
	return "completions:" + list + ":" + client.BaseURL + ":" + client.Config().AppID
}

func cachedCompletions(ctx context.Context, client *api.Client, list string) ([]CompletionItem, bool) {
	store := completionStore()
	if store == nil {
		return nil, false
	}
	raw, err := store.Get(ctx, completionKey(client, list))
	if err != nil {
		return nil, false
	}
	var items []CompletionItem
	if json.Unmarshal([]byte(raw), &items) != nil {
		return nil, false
	}
	return items, true
}

func storeCompletions(ctx context.Context, client *api.Client, list string, items []CompletionItem) {
	store := completionStore()
	if store == nil {
		return
	}
	raw, err := json.Marshal(items)
	if err != nil {
		return
	}
	_ = store.Set(ctx, completionKey(client, list), string(raw), completionsTTL)
}
