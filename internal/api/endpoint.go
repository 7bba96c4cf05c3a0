package api

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

// Endpoint describes one Open Platform API: where it lives, which inputs go
// to the query string and body, and what the dispatcher must do for it.
type Endpoint struct {
	Scope  string
	Name   string
	Method string
	// Path is a template with ":name" placeholders,
	// e.g. "/open-apis/bitable/v1/apps/:app_token/tables/:table_id".
	Path string
	// Query lists query-string fields in the order they are encoded.
	Query []string
	// Body whitelists body fields. A nil Body sends no body.
	Body []string
	Caps Capability
	Doc  string
}

// Key is the registry name, e.g. "bitable.listRecords".
func (e Endpoint) Key() string {
	return strings.ToLower(e.Scope) + "." + e.Name
}

// PathParams returns the placeholder names in Path.
func (e Endpoint) PathParams() []string {
	var names []string
	for _, seg := range strings.Split(e.Path, "/") {
		if strings.HasPrefix(seg, ":") {
			names = append(names, seg[1:])
		}
	}
	return names
}

// Bind resolves the endpoint against values: placeholders are substituted,
// query fields are encoded in descriptor order, and whitelisted body fields
// are collected. Undefined values are dropped.
func (e Endpoint) Bind(values Values) (path string, body any, err error) {
	path, err = FillPath(e.Path, values)
	if err != nil {
		return "", nil, err
	}

	q := NewQuery()
	for _, key := range e.Query {
		q.Set(key, values[key])
	}
	path = WithQuery(path, q)

	if e.Body == nil {
		return path, nil, nil
	}
	fields := map[string]any{}
	for _, key := range e.Body {
		if v, ok := values[key]; ok && v != nil {
			fields[key] = v
		}
	}
	return path, fields, nil
}

// Request builds a dispatchable request for the endpoint.
func (e Endpoint) Request(baseURL string, values Values) (Request, error) {
	path, body, err := e.Bind(values)
	if err != nil {
		return Request{}, err
	}
	return Request{
		Scope:  e.Scope,
		API:    e.Name,
		Method: e.Method,
		URL:    strings.TrimSuffix(baseURL, "/") + path,
		Body:   body,
		Caps:   e.Caps,
	}, nil
}

// Call binds values to the endpoint and dispatches it, decoding the
// unwrapped result into out.
func (c *Client) Call(ctx context.Context, e Endpoint, values Values, out any) error {
	req, err := e.Request(c.BaseURL, values)
	if err != nil {
		return fmt.Errorf("%s %s: %w", e.Scope, e.Name, err)
	}
	return c.Do(ctx, req, out)
}

// callInto dispatches e and decodes the unwrapped data into a new T.
func callInto[T any](ctx context.Context, c *Client, e Endpoint, values Values) (*T, error) {
	var out T
	if err := c.Call(ctx, e, values, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

var endpointIndex = map[string]Endpoint{}

func register(e Endpoint) Endpoint {
	key := e.Key()
	if _, dup := endpointIndex[key]; dup {
		panic(fmt.Sprintf("api: endpoint %s registered twice", key))
	}
	endpointIndex[key] = e
	return e
}

// Endpoints returns every registered endpoint sorted by key.
func Endpoints() []Endpoint {
	out := make([]Endpoint, 0, len(endpointIndex))
	for _, e := range endpointIndex {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key() < out[j].Key() })
	return out
}

// LookupEndpoint finds an endpoint by key, case-insensitively.
func LookupEndpoint(key string) (Endpoint, bool) {
	key = strings.TrimSpace(key)
	if e, ok := endpointIndex[key]; ok {
		return e, true
	}
	for k, e := range endpointIndex {
		if strings.EqualFold(k, key) {
			return e, true
		}
	}
	return Endpoint{}, false
}
