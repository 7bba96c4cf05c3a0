package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/larkkit/lark-cli/internal/api"
	"github.com/larkkit/lark-cli/internal/resolve"
	"github.com/larkkit/lark-cli/internal/urlparse"
)

// lookupCall resolves an endpoint name the way "lark call" accepts it.
// Unknown names carry did-you-mean suggestions.
func lookupCall(query string) (api.Endpoint, error) {
	e, err := resolve.Endpoint(query)
	if err == nil {
		return e, nil
	}
	var ambiguous *resolve.AmbiguousError
	if errors.As(err, &ambiguous) {
		return api.Endpoint{}, err
	}
	msg := fmt.Sprintf("unknown endpoint %q", query)
	if suggestions := suggestEndpoints(query, 3); len(suggestions) > 0 {
		msg += "\n\nDid you mean:\n  " + strings.Join(suggestions, "\n  ")
	}
	return api.Endpoint{}, errors.New(msg + "\n\nRun 'lark endpoints' to list all endpoints.")
}

// callValues collects URL tokens, -p/-P parameters, a JSON document and
// attachments into endpoint values. Explicit parameters win over the
// document, which wins over the URL.
func callValues(cmd *cobra.Command, e api.Endpoint, params, rawParams, attach []string, jsonBody, inputFile, resourceURL string) (api.Values, error) {
	values := api.Values{}
	if resourceURL != "" {
		parsed, err := urlparse.Parse(resourceURL)
		if err != nil {
			return nil, fmt.Errorf("--url: %w", err)
		}
		for k, v := range parsed.Params() {
			values[k] = v
		}
	}
	doc, err := readJSONObject(cmdContext(cmd), jsonBody, inputFile)
	if err != nil {
		return nil, err
	}
	for k, v := range doc {
		values[k] = v
	}
	for _, p := range params {
		key, value, err := parseField(p)
		if err != nil {
			return nil, err
		}
		values[key] = value
	}
	for _, p := range rawParams {
		key, value, err := parseRawField(p)
		if err != nil {
			return nil, err
		}
		values[key] = value
	}
	if len(attach) > 0 && !e.Caps.Has(api.FileUpload) {
		return nil, fmt.Errorf("%s does not accept file uploads", e.Key())
	}
	for _, a := range attach {
		field, file, err := parseAttachment(a)
		if err != nil {
			return nil, err
		}
		values[field] = file
	}
	return values, nil
}

func newCallCmd() *cobra.Command {
	var (
		params    []string
		rawParams []string
		attach    []string
		jsonBody  string
		inputFile string
		download  string
		docURL    string
		include   bool
	)

	cmd := &cobra.Command{
		Use:   "call <endpoint>",
		Short: "Call a registered endpoint by name",
		Long: `Call any endpoint from the registry by its key (see 'lark endpoints').

Parameters fill path placeholders, query fields and body fields of the
endpoint; anything the endpoint does not declare is ignored. Names may be
abbreviated: "bitlistrec" resolves to bitable.listRecords.`,
		Example: `  lark call bot.getBotInfo
  lark call bitable.listRecords -p app_token=app1 -p table_id=tbl1 -P page_size=50
  lark call bitable.listRecords --url 'https://acme.feishu.cn/base/app1?table=tbl1&view=vew1'
  lark call bitable.createRecord -p app_token=app1 -p table_id=tbl1 -P 'fields={"Name":"x"}'
  lark call message.uploadImage -p image_type=message --attach image=@logo.png
  lark call drive.downloadFile -p file_token=box123 --download report.pdf`,
		Args: cobra.ExactArgs(1),
		RunE: RunE(func(cmd *cobra.Command, args []string) error {
			e, err := lookupCall(args[0])
			if err != nil {
				return err
			}
			if !strings.EqualFold(e.Key(), strings.TrimSpace(args[0])) && !flags.Quiet && !flags.Silent {
				_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Using %s\n", e.Key())
			}
			if e.Caps.Has(api.FileDownload) && download == "" {
				return fmt.Errorf("%s returns a file: use --download <path> (- for stdout)", e.Key())
			}

			values, err := callValues(cmd, e, params, rawParams, attach, jsonBody, inputFile, docURL)
			if err != nil {
				return err
			}

			client, err := getClient()
			if err != nil {
				return err
			}
			req, err := e.Request(client.BaseURL, values)
			if err != nil {
				return fmt.Errorf("%s: %w", e.Key(), err)
			}
			if handled, err := maybeDryRun(cmd, req); handled || err != nil {
				return err
			}

			result, err := client.RawRequest(cmdContext(cmd), req)
			if err != nil {
				return err
			}
			return printResult(cmd, result, download, include)
		}),
	}

	fs := cmd.Flags()
	fs.StringArrayVarP(&params, "param", "p", nil, "Parameter as key=value (string)")
	fs.StringArrayVarP(&rawParams, "raw-param", "P", nil, "Parameter as key=value (JSON parsed)")
	fs.StringArrayVar(&attach, "attach", nil, "Upload a file as field=@path")
	fs.StringVarP(&jsonBody, "body", "d", "", "Parameters as an inline JSON object")
	fs.StringVarP(&inputFile, "input", "i", "", "Read parameters from a JSON file (use - for stdin)")
	fs.StringVar(&download, "download", "", "Save a file response to path (- for stdout)")
	fs.StringVar(&docURL, "url", "", "Take tokens such as app_token and table_id from a document URL")
	fs.BoolVar(&include, "include", false, "Include status, log id and rate limit in output")

	cmd.ValidArgsFunction = func(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
		if len(args) > 0 {
			return nil, cobra.ShellCompDirectiveNoFileComp
		}
		var keys []string
		for _, e := range api.Endpoints() {
			keys = append(keys, e.Key()+"\t"+e.Doc)
		}
		return keys, cobra.ShellCompDirectiveNoFileComp
	}

	return cmd
}
