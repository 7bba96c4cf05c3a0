package cmd

import (
	"context"
	"strings"
	"testing"
)

func TestCompletions_Static(t *testing.T) {
	clearCredentialEnv(t)

	output := captureStdout(t, func() {
		if err := Execute(context.Background(), []string{"completions", "msg-types", "--json"}); err != nil {
			t.Fatalf("completions failed: %v", err)
		}
	})
	items := decodeItems(t, output)
	if len(items) != len(msgTypeItems) || items[0]["value"] != "text" {
		t.Errorf("unexpected msg types: %v", items)
	}

	output = captureStdout(t, func() {
		if err := Execute(context.Background(), []string{"completions", "receive-id-types"}); err != nil {
			t.Fatalf("completions failed: %v", err)
		}
	})
	lines := strings.Split(strings.TrimSpace(output), "\n")
	if len(lines) != len(receiveIDTypeItems) || !strings.HasPrefix(lines[0], "open_id") {
		t.Errorf("unexpected receive id types: %q", output)
	}
}

func TestCompletions_Endpoints(t *testing.T) {
	clearCredentialEnv(t)

	output := captureStdout(t, func() {
		if err := Execute(context.Background(), []string{"completions", "endpoints", "-o", "json"}); err != nil {
			t.Fatalf("completions failed: %v", err)
		}
	})
	found := false
	for _, item := range decodeItems(t, output) {
		if item["value"] == "bot.getBotInfo" {
			found = item["label"] == "GET /open-apis/bot/v3/info"
		}
	}
	if !found {
		t.Errorf("expected bot.getBotInfo with its route in %s", output)
	}
}

func TestCompletions_ChatsAreCached(t *testing.T) {
	handler := newRouteHandler().On("GET", "/open-apis/im/v1/chats", pagedChats)
	setupTestEnvWithHandler(t, handler)
	t.Setenv("LARK_COMPLETIONS_CACHE_DIR", t.TempDir())

	run := func(args ...string) []map[string]any {
		output := captureStdout(t, func() {
			if err := Execute(context.Background(), append([]string{"completions", "chats", "--json"}, args...)); err != nil {
				t.Fatalf("completions chats failed: %v", err)
			}
		})
		return decodeItems(t, output)
	}

	items := run()
	if len(items) != 3 || items[2]["value"] != "oc_design" || items[2]["label"] != "Design review" {
		t.Fatalf("unexpected chats: %v", items)
	}
	if hits := handler.Hits("GET", "/open-apis/im/v1/chats"); hits != 2 {
		t.Fatalf("expected 2 page requests, got %d", hits)
	}

	if items := run(); len(items) != 3 {
		t.Errorf("expected cached chats, got %v", items)
	}
	if hits := handler.Hits("GET", "/open-apis/im/v1/chats"); hits != 2 {
		t.Errorf("expected the cache to serve the second call, got %d hits", hits)
	}

	run("--no-cache")
	if hits := handler.Hits("GET", "/open-apis/im/v1/chats"); hits != 4 {
		t.Errorf("expected --no-cache to refetch, got %d hits", hits)
	}
}
