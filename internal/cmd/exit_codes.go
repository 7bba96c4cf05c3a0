package cmd

import (
	"context"
	"errors"
	"net"
	"net/url"
	"strings"

	"github.com/spf13/pflag"

	"github.com/larkkit/lark-cli/internal/api"
	"github.com/larkkit/lark-cli/internal/config"
	"github.com/larkkit/lark-cli/internal/resolve"
)

// Process exit codes. Scripts rely on these staying stable.
const (
	exitOK          = 0
	exitGeneric     = 1
	exitUsage       = 2
	exitAuth        = 3
	exitNotFound    = 4
	exitForbidden   = 5
	exitRateLimited = 6
	exitServer      = 7
	exitNetwork     = 8
)

var structuredExitCodes = map[api.ErrorCode]int{
	api.ErrUnauthorized: exitAuth,
	api.ErrForbidden:    exitForbidden,
	api.ErrNotFound:     exitNotFound,
	api.ErrRateLimited:  exitRateLimited,
	api.ErrServerError:  exitServer,
	api.ErrTimeout:      exitNetwork,
	api.ErrBadRequest:   exitUsage,
	api.ErrValidation:   exitUsage,
}

// usageMarkers are substrings of cobra, pflag and local argument errors.
var usageMarkers = []string{
	"unknown command",
	"unknown flag",
	"unknown shorthand flag",
	"unknown endpoint",
	"flag needs an argument",
	"flag provided but not defined",
	"requires at least",
	"requires exactly",
	"accepts ",
	"invalid argument",
	"invalid value",
	"missing path parameter",
	"must be",
	"is required",
}

var networkMarkers = []string{
	"connection refused",
	"connection reset",
	"no such host",
	"tls",
	"certificate",
	"i/o timeout",
}

// ExitCode maps an error to a process exit code.
func ExitCode(err error) int {
	if err == nil || errors.Is(err, pflag.ErrHelp) {
		return exitOK
	}
	var reported *reportedError
	if errors.As(err, &reported) {
		if reported.code != 0 {
			return reported.code
		}
		err = reported.err
	}

	var ambiguous *resolve.AmbiguousError
	switch {
	case errors.Is(err, config.ErrNotConfigured):
		return exitAuth
	case errors.As(err, &ambiguous):
		return exitUsage
	}
	if s := api.StructuredErrorFromError(err); s != nil {
		if code, ok := structuredExitCodes[s.Code]; ok {
			return code
		}
	}
	msg := strings.ToLower(err.Error())
	switch {
	case containsAny(msg, usageMarkers):
		return exitUsage
	case isNetworkError(err) || containsAny(msg, networkMarkers):
		return exitNetwork
	}
	return exitGeneric
}

func isNetworkError(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return true
	}
	var netErr net.Error
	var urlErr *url.Error
	return errors.As(err, &netErr) || errors.As(err, &urlErr)
}

func containsAny(s string, markers []string) bool {
	for _, m := range markers {
		if strings.Contains(s, m) {
			return true
		}
	}
	return false
}
