package cmd

import (
	"context"
	"strconv"
	"strings"
	"testing"
	"time"
)

func runAppLink(t *testing.T, args ...string) string {
	t.Helper()
	return strings.TrimSpace(captureStdout(t, func() {
		if err := Execute(context.Background(), append([]string{"applink"}, args...)); err != nil {
			t.Fatalf("applink %v failed: %v", args, err)
		}
	}))
}

func TestAppLink_Links(t *testing.T) {
	clearCredentialEnv(t)

	tests := []struct {
		args []string
		want string
	}{
		{[]string{"scan"}, "https://applink.feishu.cn/client/qrcode/main"},
		{[]string{"scan", "--lark"}, "https://applink.larksuite.com/client/qrcode/main"},
		{[]string{"bot", "cli_other"}, "https://applink.feishu.cn/client/bot/open?appId=cli_other"},
		{[]string{"chat", "--chat-id", "oc_1"}, "https://applink.feishu.cn/client/chat/open?openChatId=oc_1"},
		{[]string{"chat", "--open-id", "ou_1"}, "https://applink.feishu.cn/client/chat/open?openId=ou_1"},
		{[]string{"calendar", "--type", "week"}, "https://applink.feishu.cn/client/calendar/view?type=week"},
		{[]string{"docs", "https://x.feishu.cn/docx/abc"}, "https://applink.feishu.cn/client/docs/open?url=https%3A%2F%2Fx.feishu.cn%2Fdocx%2Fabc"},
	}
	for _, tt := range tests {
		t.Run(strings.Join(tt.args, " "), func(t *testing.T) {
			if got := runAppLink(t, tt.args...); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestAppLink_BotDefaultsToProfileApp(t *testing.T) {
	setupTestEnvWithHandler(t, newRouteHandler())

	got := runAppLink(t, "bot")
	if got != "https://applink.feishu.cn/client/bot/open?appId=cli_test" {
		t.Errorf("unexpected link: %q", got)
	}
}

func TestAppLink_LarkProfileUsesLarkHost(t *testing.T) {
	clearCredentialEnv(t)
	t.Setenv("LARK_APP_ID", "cli_test")
	t.Setenv("LARK_APP_SECRET", "secret")
	t.Setenv("LARK_BASE_URL", "lark")

	got := runAppLink(t, "scan")
	if !strings.HasPrefix(got, "https://applink.larksuite.com/") {
		t.Errorf("expected lark host, got %q", got)
	}
}

func TestAppLink_Event(t *testing.T) {
	clearCredentialEnv(t)

	got := runAppLink(t, "event", "--start", "2024-03-01T10:00:00Z", "--end", "2024-03-01T11:00:00Z", "--summary", "Sync")
	start := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC).Unix()
	if !strings.Contains(got, "/client/calendar/event/create?") {
		t.Fatalf("unexpected link: %q", got)
	}
	for _, want := range []string{"startTime=" + strconv.FormatInt(start, 10), "endTime=" + strconv.FormatInt(start+3600, 10), "summary=Sync"} {
		if !strings.Contains(got, want) {
			t.Errorf("expected %q in %q", want, got)
		}
	}
}

func TestAppLink_JSON(t *testing.T) {
	clearCredentialEnv(t)

	output := captureStdout(t, func() {
		if err := Execute(context.Background(), []string{"applink", "scan", "-o", "json"}); err != nil {
			t.Fatalf("applink failed: %v", err)
		}
	})
	if got := decodeJSON(t, output)["url"]; got != "https://applink.feishu.cn/client/qrcode/main" {
		t.Errorf("unexpected url: %v", got)
	}
}

func TestAppLink_Errors(t *testing.T) {
	clearCredentialEnv(t)

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"chat without ids", []string{"chat"}, "exactly one of open id and chat id"},
		{"chat with both ids", []string{"chat", "--open-id", "ou_1", "--chat-id", "oc_1"}, "none of the others can be"},
		{"bad start", []string{"event", "--start", "someday"}, `invalid --start "someday"`},
		{"end before start", []string{"event", "--start", "2024-03-02", "--end", "2024-03-01"}, "end is before start"},
		{"bot without app", []string{"bot"}, "app id is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var err error
			_ = captureStderr(t, func() {
				err = Execute(context.Background(), append([]string{"applink"}, tt.args...))
			})
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("expected %q in error, got %v", tt.want, err)
			}
		})
	}
}

func TestParseLinkTime(t *testing.T) {
	got, err := parseLinkTime("date", "2024-03-01")
	if err != nil {
		t.Fatalf("parseLinkTime: %v", err)
	}
	if got.Year() != 2024 || got.Month() != time.March || got.Day() != 1 || got.Location() != time.Local {
		t.Errorf("unexpected time: %v", got)
	}
	tomorrow, err := parseLinkTime("date", "tomorrow 9:00")
	if err != nil {
		t.Fatalf("parseLinkTime: %v", err)
	}
	if tomorrow.Hour() != 9 || !tomorrow.After(time.Now()) {
		t.Errorf("unexpected time: %v", tomorrow)
	}
	if zero, err := parseLinkTime("date", ""); err != nil || !zero.IsZero() {
		t.Errorf("empty value should give zero time, got %v %v", zero, err)
	}
}
