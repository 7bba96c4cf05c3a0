package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/larkkit/lark-cli/internal/api"
	"github.com/larkkit/lark-cli/internal/config"
	"github.com/larkkit/lark-cli/internal/iocontext"
	"github.com/larkkit/lark-cli/internal/outfmt"
)

// errReported marks errors RunE has already printed; Execute must not
// print them again.
var errReported = errors.New("error already reported")

type reportedError struct {
	err  error
	code int
}

func (e *reportedError) Error() string { return e.err.Error() }
func (e *reportedError) Unwrap() error { return errReported }

// RunE prints a command's error once, as a structured JSON object on stderr
// in JSON mode or as a message with hints otherwise, and keeps its exit code.
func RunE(fn func(cmd *cobra.Command, args []string) error) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		err := fn(cmd, args)
		if err == nil {
			return nil
		}
		errOut := iocontext.GetIO(cmd.Context()).ErrOut
		if isJSON(cmd) {
			if s := api.StructuredErrorFromError(err); s != nil {
				_ = outfmt.WriteJSON(errOut, s)
			}
		} else {
			_, _ = fmt.Fprint(errOut, HandleError(err))
		}
		return &reportedError{err: err, code: ExitCode(err)}
	}
}

type errorHint struct {
	match    func(error) bool
	headline string
	hints    []string
}

func isErr(target error) func(error) bool {
	return func(err error) bool { return errors.Is(err, target) }
}

func mentions(s string) func(error) bool {
	return func(err error) bool { return strings.Contains(err.Error(), s) }
}

// errorHints are tried in order; an empty headline prints the error itself.
var errorHints = []errorHint{
	{
		match: func(err error) bool {
			return errors.Is(err, config.ErrNotConfigured) || errors.Is(err, api.ErrMissingCredentials)
		},
		headline: "No app credentials configured.",
		hints:    []string{"Run: lark auth login --app-id <id> --app-secret-stdin", "Or export LARK_APP_ID and LARK_APP_SECRET"},
	},
	{
		match: isErr(api.ErrMissingUserToken),
		hints: []string{"Run: lark auth login --code <login code>", "Or pass --user-token / LARK_USER_ACCESS_TOKEN"},
	},
	{
		match: isErr(api.ErrMissingHelpdeskCredentials),
		hints: []string{"Run: lark auth login --helpdesk-id <id> --helpdesk-token <token>"},
	},
	{
		match: isErr(api.ErrAppTicketMissing),
		hints: []string{"Run 'lark event serve' where the platform can reach it, with a shared token store", "Retry after the ticket event arrives"},
	},
	{
		match:    mentions("connection refused"),
		headline: "Connection refused.",
		hints:    []string{"Check the base URL: lark auth status", "Check your network connection"},
	},
	{
		match:    mentions("no such host"),
		headline: "DNS resolution failed.",
		hints:    []string{"Check the base URL spelling", "Verify your DNS settings"},
	},
	{
		match:    mentions("certificate"),
		headline: "TLS certificate error.",
		hints:    []string{"Verify the server's certificate", "Check for an intercepting proxy"},
	},
}

var apiErrorHints = map[api.ErrorCode][]string{
	api.ErrUnauthorized: {"The access token or app credentials were rejected", "Run: lark auth status"},
	api.ErrForbidden:    {"The app lacks a permission scope for this API", "Enable the scope in the developer console and publish a new version"},
	api.ErrNotFound:     {"Check the resource token or ID"},
	api.ErrValidation:   {"Check your request parameters", "Use --dry-run to see the request that would be sent"},
	api.ErrBadRequest:   {"Check your request parameters", "Use --dry-run to see the request that would be sent"},
	api.ErrRateLimited:  {"Frequency limit reached; wait and retry"},
	api.ErrServerError:  {"Platform error; retry later"},
}

// HandleError renders err for a terminal, with hints where a known cause
// has a known fix.
func HandleError(err error) string {
	if err == nil {
		return ""
	}
	var b strings.Builder
	var apiErr *api.APIError
	if errors.As(err, &apiErr) {
		fmt.Fprintf(&b, "API error: %s\n\n", apiErr.Error())
		hints, ok := apiErrorHints[api.ErrorCodeFromEnvelope(apiErr.Code, apiErr.StatusCode)]
		if !ok {
			hints = []string{"Use --debug for more details", "Look up the error code in the Open Platform documentation"}
		}
		writeHints(&b, hints)
		if apiErr.LogID != "" {
			fmt.Fprintf(&b, "\nLog ID: %s\n", apiErr.LogID)
		}
		return b.String()
	}
	for _, h := range errorHints {
		if !h.match(err) {
			continue
		}
		if h.headline != "" {
			b.WriteString(h.headline + "\n\n")
		} else {
			fmt.Fprintf(&b, "Error: %s\n\n", err)
		}
		writeHints(&b, h.hints)
		return b.String()
	}
	fmt.Fprintf(&b, "Error: %s\n", err)
	return b.String()
}

func writeHints(b *strings.Builder, hints []string) {
	b.WriteString("Suggestions:\n")
	for _, h := range hints {
		fmt.Fprintf(b, "  - %s\n", h)
	}
}
