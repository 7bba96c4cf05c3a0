package cmd

import (
	"context"
	"slices"
	"strings"
	"testing"
)

func TestLevenshtein(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"", "", 0},
		{"", "abc", 3},
		{"chat", "chat", 0},
		{"chta", "chat", 2},
		{"mesage", "message", 1},
		{"kitten", "sitting", 3},
	}
	for _, tt := range tests {
		if got := levenshtein(tt.a, tt.b); got != tt.want {
			t.Errorf("levenshtein(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestSuggestCommand(t *testing.T) {
	commands := []string{"auth", "api", "call", "chat", "message", "endpoints"}

	if got := suggestCommand("mesage", commands); got != "message" {
		t.Errorf("expected message, got %q", got)
	}
	if got := suggestCommand("CAL", commands); got != "call" {
		t.Errorf("expected call, got %q", got)
	}
	if got := suggestCommand("zzzzzzzz", commands); got != "" {
		t.Errorf("expected no suggestion, got %q", got)
	}
}

func TestSuggestFlag(t *testing.T) {
	flagNames := []string{"--output", "-o", "--dry-run", "--query"}

	if got := suggestFlag("--outptu", flagNames); got != "--output" {
		t.Errorf("expected --output, got %q", got)
	}
	if got := suggestFlag("--dryrun", flagNames); got != "--dry-run" {
		t.Errorf("expected --dry-run, got %q", got)
	}
	if got := suggestFlag("--", flagNames); got != "" {
		t.Errorf("expected no suggestion for bare dashes, got %q", got)
	}
}

func TestSuggestEndpoints(t *testing.T) {
	got := suggestEndpoints("getBotInf", 3)
	if len(got) == 0 || got[0] != "bot.getBotInfo" {
		t.Errorf("expected bot.getBotInfo first, got %v", got)
	}
	if len(got) > 3 {
		t.Errorf("limit not applied: %v", got)
	}

	got = suggestEndpoints("message.sendMesage", 5)
	if !slices.Contains(got, "message.sendMessage") {
		t.Errorf("expected message.sendMessage in %v", got)
	}

	if suggestEndpoints("", 3) != nil || suggestEndpoints("bot", 0) != nil {
		t.Error("expected nil for empty query or zero limit")
	}
}

func TestEnhanceUnknownError_Command(t *testing.T) {
	var err error
	stderr := captureStderr(t, func() {
		err = Execute(context.Background(), []string{"mesage"})
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if ExitCode(err) != exitUsage {
		t.Errorf("expected usage exit code, got %d", ExitCode(err))
	}
	if !containsAll(stderr, `unknown command "mesage"`, `Did you mean "message"?`) {
		t.Errorf("unexpected stderr: %q", stderr)
	}
}

func TestEnhanceUnknownError_Flag(t *testing.T) {
	var err error
	stderr := captureStderr(t, func() {
		err = Execute(context.Background(), []string{"endpoints", "--scop", "bot"})
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if !containsAll(stderr, `Did you mean "--scope"?`, `Run "lark endpoints --help"`) {
		t.Errorf("unexpected stderr: %q", stderr)
	}
}

func containsAll(s string, subs ...string) bool {
	for _, sub := range subs {
		if !strings.Contains(s, sub) {
			return false
		}
	}
	return true
}
