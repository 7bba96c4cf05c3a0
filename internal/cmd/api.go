package cmd

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/larkkit/lark-cli/internal/api"
)

const openAPIPrefix = "/open-apis/"

type apiAuthFlags struct {
	app      bool
	user     bool
	helpdesk bool
	noAuth   bool
}

// caps turns the auth flags into dispatcher capabilities. A tenant token is
// the default; --user prefers the user token and falls back to the tenant
// or app token when none is configured.
func (f apiAuthFlags) caps() (api.Capability, error) {
	if f.noAuth && (f.app || f.user || f.helpdesk) {
		return 0, errors.New("--no-auth cannot be combined with other auth flags")
	}
	if f.noAuth {
		return 0, nil
	}
	caps := api.NeedTenantToken
	if f.app {
		caps = api.NeedAppToken
	}
	if f.user {
		caps |= api.NeedUserToken
	}
	if f.helpdesk {
		caps |= api.NeedHelpdeskAuth
	}
	return caps, nil
}

// normalizeAPIPath accepts "/open-apis/..." paths as well as the short form
// "im/v1/chats".
func normalizeAPIPath(path string) (string, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return "", errors.New("path is required")
	}
	if strings.Contains(path, "://") {
		return "", fmt.Errorf("path %q must be relative to the base URL", path)
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	if !strings.HasPrefix(path, openAPIPrefix) {
		path = strings.TrimSuffix(openAPIPrefix, "/") + path
	}
	return path, nil
}

func newAPICmd() *cobra.Command {
	var (
		auth       apiAuthFlags
		tenant     bool
		fields     []string
		rawFields  []string
		params     []string
		attach     []string
		inputFile  string
		jsonBody   string
		download   string
		includeHdr bool
	)

	cmd := &cobra.Command{
		Use:   "api <METHOD> <path>",
		Short: "Make raw requests to any Open Platform endpoint",
		Long: `Make raw requests to any Open Platform endpoint through the same
dispatcher the typed commands use: token fetching, the {code, msg, data}
envelope and error mapping all apply.

The path is relative to the base URL. The "/open-apis" prefix is optional.`,
		Example: `  # Tenant-token GET
  lark api GET /open-apis/bot/v3/info

  # Query parameters
  lark api GET im/v1/chats --param page_size=20

  # POST with fields
  lark api POST im/v1/messages --param receive_id_type=chat_id \
    -f receive_id=oc_xxx -f msg_type=text -F 'content="{\"text\":\"hi\"}"'

  # Body from a file
  lark api POST bitable/v1/apps/app1/tables -i table.json

  # Upload an image
  lark api POST im/v1/images -f image_type=message --attach image=@logo.png

  # Download a file
  lark api GET im/v1/files/file_xxx --download out.bin

  # Helpdesk API
  lark api GET helpdesk/v1/tickets/123 --helpdesk`,
		Args: cobra.ExactArgs(2),
		RunE: RunE(func(cmd *cobra.Command, args []string) error {
			method := strings.ToUpper(args[0])
			path, err := normalizeAPIPath(args[1])
			if err != nil {
				return err
			}
			caps, err := auth.caps()
			if err != nil {
				return err
			}

			body, err := buildRequestBody(cmd, fields, rawFields, inputFile, jsonBody)
			if err != nil {
				return err
			}
			if len(attach) > 0 {
				if body == nil {
					body = map[string]any{}
				}
				for _, a := range attach {
					field, file, err := parseAttachment(a)
					if err != nil {
						return err
					}
					body[field] = file
				}
				caps |= api.FileUpload
			}
			if download != "" {
				caps |= api.FileDownload
			}

			q := api.NewQuery()
			for _, p := range params {
				key, value, err := parseField(p)
				if err != nil {
					return err
				}
				q.Set(key, value)
			}
			path = api.WithQuery(path, q)

			client, err := getClient()
			if err != nil {
				return err
			}
			req := api.Request{
				Scope:  "Raw",
				API:    method + " " + strings.TrimPrefix(path, strings.TrimSuffix(openAPIPrefix, "/")),
				Method: method,
				URL:    strings.TrimSuffix(client.BaseURL, "/") + path,
				Caps:   caps,
			}
			if body != nil {
				req.Body = body
			}
			if handled, err := maybeDryRun(cmd, req); handled || err != nil {
				return err
			}

			result, err := client.RawRequest(cmdContext(cmd), req)
			if err != nil {
				return err
			}
			return printResult(cmd, result, download, includeHdr)
		}),
	}

	fs := cmd.Flags()
	fs.BoolVar(&tenant, "tenant", false, "Authenticate with a tenant access token (default)")
	fs.BoolVar(&auth.app, "app", false, "Authenticate with an app access token")
	fs.BoolVar(&auth.user, "user", false, "Authenticate with the user access token")
	fs.BoolVar(&auth.helpdesk, "helpdesk", false, "Add the helpdesk authorization header")
	fs.BoolVar(&auth.noAuth, "no-auth", false, "Send no credentials")
	fs.StringArrayVarP(&fields, "field", "f", nil, "Body field as key=value (string)")
	fs.StringArrayVarP(&rawFields, "raw-field", "F", nil, "Body field as key=value (JSON parsed)")
	fs.StringArrayVar(&params, "param", nil, "Query parameter as key=value")
	fs.StringArrayVar(&attach, "attach", nil, "Upload a file as field=@path (multipart)")
	fs.StringVarP(&inputFile, "input", "i", "", "Read request body from file (use - for stdin)")
	fs.StringVarP(&jsonBody, "body", "d", "", "Request body as inline JSON string")
	fs.StringVar(&download, "download", "", "Save the raw response to a file (- for stdout)")
	fs.BoolVar(&includeHdr, "include", false, "Include status, log id and rate limit in output")
	flagAlias(fs, "include", "inc")
	cmd.MarkFlagsMutuallyExclusive("tenant", "app")

	return cmd
}

// printResult writes a dispatcher result: downloads go to a file, JSON
// payloads are pretty-printed or fed to the output pipeline.
func printResult(cmd *cobra.Command, result *api.Result, download string, include bool) error {
	if download != "" {
		return writeDownload(cmd, download, result.File)
	}
	if flags.Silent {
		return nil
	}

	body := apiJSONBody(result.Data)
	if include {
		payload := map[string]any{
			"status": result.StatusCode,
			"log_id": result.LogID,
			"data":   body,
		}
		if meta := result.RateLimit.Meta(); meta != nil {
			payload["rate_limit"] = meta
		}
		return printJSON(cmd, payload)
	}
	if body == nil {
		printIfNotQuiet(cmd, "OK\n")
		return nil
	}
	return printJSON(cmd, body)
}

func apiJSONBody(respBody []byte) any {
	if len(respBody) == 0 {
		return nil
	}
	if !json.Valid(respBody) {
		return string(respBody)
	}
	pretty := &bytes.Buffer{}
	if err := json.Indent(pretty, respBody, "", "  "); err != nil {
		return json.RawMessage(respBody)
	}
	return json.RawMessage(pretty.Bytes())
}

// buildRequestBody merges --body or --input with -f and -F fields; fields
// win over the JSON document.
func buildRequestBody(cmd *cobra.Command, fields, rawFields []string, inputFile, jsonBody string) (map[string]any, error) {
	body, err := readJSONObject(cmdContext(cmd), jsonBody, inputFile)
	if err != nil {
		return nil, err
	}
	if body == nil {
		body = make(map[string]any)
	}

	for _, field := range fields {
		key, value, err := parseField(field)
		if err != nil {
			return nil, err
		}
		body[key] = value
	}
	for _, field := range rawFields {
		key, value, err := parseRawField(field)
		if err != nil {
			return nil, err
		}
		body[key] = value
	}

	if len(body) == 0 {
		return nil, nil
	}
	return body, nil
}
