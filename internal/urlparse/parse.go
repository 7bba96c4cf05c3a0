// Package urlparse extracts resource tokens from Feishu/Lark web URLs so
// a link copied from the browser can stand in for endpoint parameters.
package urlparse

import (
	"fmt"
	"net/url"
	"regexp"
	"slices"
	"strings"
)

// ParsedURL is a parsed document or file URL.
type ParsedURL struct {
	Host         string
	ResourceType string // bitable, docx, doc, sheet, wiki, file, folder
	Token        string
	TableID      string // bitable ?table=
	ViewID       string // bitable ?view=
}

// Path segments in URL form, mapped to resource types.
var resourceTypes = map[string]string{
	"base":         "bitable",
	"docx":         "docx",
	"docs":         "doc",
	"sheets":       "sheet",
	"wiki":         "wiki",
	"file":         "file",
	"drive/folder": "folder",
}

// urlPattern matches /{segment}/{token} with an optional trailing slash.
var urlPattern = regexp.MustCompile(`^/(base|docx|docs|sheets|wiki|file|drive/folder)/([A-Za-z0-9_-]+)/?$`)

// Parse extracts the resource type and token from a URL such as
// https://acme.feishu.cn/base/bascnXXXX?table=tblYYYY&view=vewZZZZ.
func Parse(rawURL string) (*ParsedURL, error) {
	if rawURL == "" {
		return nil, fmt.Errorf("URL cannot be empty")
	}

	parsed, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}
	if parsed.Scheme == "" {
		return nil, fmt.Errorf("invalid URL: missing scheme (expected https://...)")
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("invalid URL scheme %q: expected http or https", parsed.Scheme)
	}
	if parsed.Host == "" {
		return nil, fmt.Errorf("invalid URL: missing host")
	}

	matches := urlPattern.FindStringSubmatch(parsed.Path)
	if matches == nil {
		segments := make([]string, 0, len(resourceTypes))
		for k := range resourceTypes {
			segments = append(segments, "/"+k)
		}
		slices.Sort(segments)
		return nil, fmt.Errorf("unsupported URL path %q: expected one of %s followed by a token", parsed.Path, strings.Join(segments, ", "))
	}

	p := &ParsedURL{
		Host:         parsed.Host,
		ResourceType: resourceTypes[matches[1]],
		Token:        matches[2],
	}
	if p.ResourceType == "bitable" {
		q := parsed.Query()
		p.TableID = q.Get("table")
		p.ViewID = q.Get("view")
	}
	return p, nil
}

// Params returns the endpoint parameters the URL identifies, keyed the way
// endpoint descriptors name them.
func (p *ParsedURL) Params() map[string]string {
	params := map[string]string{}
	switch p.ResourceType {
	case "bitable":
		params["app_token"] = p.Token
		if p.TableID != "" {
			params["table_id"] = p.TableID
		}
		if p.ViewID != "" {
			params["view_id"] = p.ViewID
		}
	case "file":
		params["file_token"] = p.Token
	case "folder":
		params["folder_token"] = p.Token
	case "wiki":
		params["node_token"] = p.Token
	default:
		params["document_id"] = p.Token
		params["obj_token"] = p.Token
	}
	return params
}
