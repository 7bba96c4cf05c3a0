package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// Capability selects the cross-cutting behavior the dispatcher applies to a
// request.
type Capability uint8

const (
	NeedTenantToken Capability = 1 << iota
	NeedAppToken
	NeedUserToken
	NeedHelpdeskAuth
	FileUpload
	FileDownload
)

// Has reports whether all bits of flag are set.
func (c Capability) Has(flag Capability) bool {
	return c&flag == flag
}

func (c Capability) String() string {
	names := []struct {
		flag Capability
		name string
	}{
		{NeedTenantToken, "tenant"},
		{NeedAppToken, "app"},
		{NeedUserToken, "user"},
		{NeedHelpdeskAuth, "helpdesk"},
		{FileUpload, "upload"},
		{FileDownload, "download"},
	}
	var parts []string
	for _, n := range names {
		if c.Has(n.flag) {
			parts = append(parts, n.name)
		}
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, ",")
}

// Request is a single, fully resolved call. URL already carries the
// substituted path and the encoded query string.
type Request struct {
	Scope  string
	API    string
	Method string
	URL    string
	Body   any
	Caps   Capability

	// UserAccessToken overrides Config.UserAccessToken for this call.
	UserAccessToken string
}

// Result is what a request settles to on success.
type Result struct {
	// Data is the unwrapped payload: the envelope's data field, the bot
	// field for the bot info endpoint, or the whole envelope.
	Data json.RawMessage
	// File holds the raw response body of download endpoints.
	File []byte

	StatusCode int
	Header     http.Header
	LogID      string
	RateLimit  *RateLimitInfo
}

// Download is the decoded form of a download response.
type Download struct {
	File []byte `json:"file"`
}

// File is a multipart file part.
type File struct {
	Name    string
	Content []byte
}

var supportedMethods = map[string]bool{
	http.MethodGet:    true,
	http.MethodPost:   true,
	http.MethodPut:    true,
	http.MethodPatch:  true,
	http.MethodDelete: true,
}

func validateMethod(method string) error {
	if !supportedMethods[method] {
		return fmt.Errorf("%w: %q", ErrUnsupportedMethod, method)
	}
	return nil
}

// Values are named inputs to an endpoint. A nil value is undefined and is
// left out of the path, query and body.
type Values map[string]any

// Opt returns nil for the zero value of T so optional typed fields can be
// placed in Values without sending empty parameters.
func Opt[T comparable](v T) any {
	var zero T
	if v == zero {
		return nil
	}
	return v
}

// Query is an ordered query-string builder. Keys keep the order in which
// they were first set; undefined values are omitted on encode.
type Query struct {
	keys   []string
	values map[string]any
}

// NewQuery returns an empty Query.
func NewQuery() *Query {
	return &Query{values: map[string]any{}}
}

// Set assigns a value. Setting nil marks the key undefined.
func (q *Query) Set(key string, value any) *Query {
	if _, ok := q.values[key]; !ok {
		q.keys = append(q.keys, key)
	}
	q.values[key] = value
	return q
}

// Encode renders key=value pairs joined by '&' with standard URL escaping.
// Slices expand to repeated keys.
func (q *Query) Encode() string {
	if q == nil {
		return ""
	}
	var b strings.Builder
	write := func(key, value string) {
		if b.Len() > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(key))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(value))
	}
	for _, key := range q.keys {
		switch v := q.values[key].(type) {
		case nil:
			continue
		case []string:
			for _, item := range v {
				write(key, item)
			}
		case []int:
			for _, item := range v {
				write(key, fmt.Sprint(item))
			}
		case []any:
			for _, item := range v {
				write(key, stringify(item))
			}
		default:
			write(key, stringify(v))
		}
	}
	return b.String()
}

// WithQuery appends an encoded query to a path, or returns the path as is
// when nothing is defined.
func WithQuery(path string, q *Query) string {
	encoded := q.Encode()
	if encoded == "" {
		return path
	}
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + encoded
}

// FillPath substitutes ":name" placeholder segments in template.
func FillPath(template string, params Values) (string, error) {
	segments := strings.Split(template, "/")
	for i, seg := range segments {
		if !strings.HasPrefix(seg, ":") {
			continue
		}
		name := seg[1:]
		value, ok := params[name]
		if !ok || value == nil {
			return "", fmt.Errorf("missing path parameter %q for %s", name, template)
		}
		s := stringify(value)
		if s == "" {
			return "", fmt.Errorf("missing path parameter %q for %s", name, template)
		}
		segments[i] = url.PathEscape(s)
	}
	return strings.Join(segments, "/"), nil
}

func stringify(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case []byte:
		return string(t)
	case fmt.Stringer:
		return t.String()
	case map[string]any, []any, Values:
		data, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprint(t)
		}
		return string(data)
	default:
		return fmt.Sprint(t)
	}
}
