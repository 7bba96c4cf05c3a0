package cmd

import (
	"context"
	"strings"
	"testing"

	"github.com/larkkit/lark-cli/internal/api"
)

func TestFindEndpoints(t *testing.T) {
	all := findEndpoints("", "", 0)
	if len(all) != len(api.Endpoints()) {
		t.Fatalf("expected every endpoint, got %d of %d", len(all), len(api.Endpoints()))
	}

	bitable := findEndpoints("", "BITABLE", 0)
	if len(bitable) == 0 {
		t.Fatal("expected bitable endpoints")
	}
	for _, e := range bitable {
		if e.Scope != "Bitable" {
			t.Errorf("scope filter leaked %s", e.Key())
		}
	}

	if got := findEndpoints("", "", 3); len(got) != 3 {
		t.Errorf("expected limit 3, got %d", len(got))
	}

	ranked := findEndpoints("bitable.listRecords", "", 5)
	if len(ranked) == 0 || ranked[0].Key() != "bitable.listRecords" {
		t.Errorf("expected exact key first, got %v", ranked)
	}
}

func TestEndpointsCommand_Text(t *testing.T) {
	output := captureStdout(t, func() {
		if err := Execute(context.Background(), []string{"endpoints", "--scope", "bot"}); err != nil {
			t.Fatalf("endpoints failed: %v", err)
		}
	})
	if !strings.Contains(output, "KEY") || !strings.Contains(output, "bot.getBotInfo") {
		t.Errorf("unexpected output: %q", output)
	}
	if !strings.Contains(output, "/open-apis/bot/v3/info") {
		t.Errorf("expected the path column: %q", output)
	}
}

func TestEndpointsCommand_JSON(t *testing.T) {
	output := captureStdout(t, func() {
		if err := Execute(context.Background(), []string{"ep", "uploadImage", "--json"}); err != nil {
			t.Fatalf("endpoints failed: %v", err)
		}
	})
	items := decodeItems(t, output)
	if len(items) == 0 {
		t.Fatal("expected matches")
	}
	var found map[string]any
	for _, item := range items {
		if item["key"] == "message.uploadImage" {
			found = item
		}
	}
	if found == nil {
		t.Fatalf("message.uploadImage not among matches: %v", items)
	}
	if auth, _ := found["auth"].(string); !strings.Contains(auth, "tenant") {
		t.Errorf("expected auth capabilities, got %v", found["auth"])
	}
	if found["method"] != "POST" {
		t.Errorf("unexpected method: %v", found["method"])
	}
}

func TestEndpointsCommand_Empty(t *testing.T) {
	stderr := captureStderr(t, func() {
		_ = captureStdout(t, func() {
			if err := Execute(context.Background(), []string{"endpoints", "--scope", "nope"}); err != nil {
				t.Fatalf("endpoints failed: %v", err)
			}
		})
	})
	if !strings.Contains(stderr, "No endpoints found") {
		t.Errorf("expected empty notice, got %q", stderr)
	}
}
