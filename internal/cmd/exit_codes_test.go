package cmd

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/spf13/pflag"

	"github.com/larkkit/lark-cli/internal/api"
	"github.com/larkkit/lark-cli/internal/config"
	"github.com/larkkit/lark-cli/internal/resolve"
)

func TestExitCode(t *testing.T) {
	apiErr := func(code, status int) error {
		return &api.APIError{Scope: "Message", API: "sendMessage", Code: code, StatusCode: status}
	}

	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, exitOK},
		{"help", pflag.ErrHelp, exitOK},
		{"not configured", fmt.Errorf("resolve: %w", config.ErrNotConfigured), exitAuth},
		{"missing user token", api.ErrMissingUserToken, exitAuth},
		{"ambiguous", &resolve.AmbiguousError{Query: "msg"}, exitUsage},
		{"secret invalid", apiErr(api.CodeAppSecretInvalid, 200), exitAuth},
		{"no permission", apiErr(api.CodeNoPermission, 400), exitForbidden},
		{"not found status", apiErr(1, 404), exitNotFound},
		{"frequency limit", apiErr(api.CodeFrequencyLimit, 400), exitRateLimited},
		{"server error", apiErr(api.CodeInternalServerError, 500), exitServer},
		{"field validation", apiErr(1254001, 200), exitUsage},
		{"deadline", context.DeadlineExceeded, exitNetwork},
		{"canceled", context.Canceled, exitNetwork},
		{"connection refused", errors.New("dial tcp: connection refused"), exitNetwork},
		{"unknown flag", errors.New("unknown flag: --nope"), exitUsage},
		{"required", errors.New("--chat is required"), exitUsage},
		{"generic", errors.New("boom"), exitGeneric},
		{"handled keeps code", &reportedError{err: errors.New("boom"), code: exitForbidden}, exitForbidden},
		{"handled without code", &reportedError{err: config.ErrNotConfigured}, exitAuth},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExitCode(tt.err); got != tt.want {
				t.Errorf("ExitCode(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}
