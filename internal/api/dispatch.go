package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"sort"
	"time"
)

// botInfoAPI answers with the bot object next to code/msg instead of
// inside data.
const botInfoAPI = "getBotInfo"

// Do dispatches req and decodes the result into out. For download requests
// out may be *Download, *[]byte or nil; otherwise it receives the
// unwrapped JSON payload.
func (c *Client) Do(ctx context.Context, req Request, out any) error {
	result, err := c.RawRequest(ctx, req)
	if err != nil {
		return err
	}
	return decodeResult(result, req, out)
}

func decodeResult(result *Result, req Request, out any) error {
	if out == nil {
		return nil
	}
	if req.Caps.Has(FileDownload) {
		switch dst := out.(type) {
		case *Download:
			dst.File = result.File
			return nil
		case *[]byte:
			*dst = result.File
			return nil
		default:
			return fmt.Errorf("%s %s: download result needs *Download or *[]byte, got %T", req.Scope, req.API, out)
		}
	}
	if raw, ok := out.(*json.RawMessage); ok {
		*raw = result.Data
		return nil
	}
	if len(result.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(result.Data, out); err != nil {
		return fmt.Errorf("unexpected API response format (JSON decode failed): %w", err)
	}
	return nil
}

// RawRequest performs one call: it resolves credentials, encodes the body,
// issues the HTTP request and unwraps the response envelope.
func (c *Client) RawRequest(ctx context.Context, req Request) (*Result, error) {
	if err := validateMethod(req.Method); err != nil {
		return nil, err
	}

	body, contentType, err := encodeBody(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", req.Scope, req.API, err)
	}

	var bodyReader io.Reader
	if body != nil {
		bodyReader = bytes.NewReader(body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.URL, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}
	if c.UserAgent != "" {
		httpReq.Header.Set("User-Agent", c.UserAgent)
	}
	if err := c.authorize(ctx, httpReq, req); err != nil {
		return nil, err
	}

	c.Logger.DebugContext(ctx, "lark request",
		"scope", req.Scope, "api", req.API, "method", req.Method, "url", req.URL, "caps", req.Caps.String())
	start := time.Now()

	resp, err := c.HTTP.Do(httpReq)
	if err != nil {
		c.Logger.DebugContext(ctx, "lark request failed", "scope", req.Scope, "api", req.API, "error", err)
		return nil, fmt.Errorf("request failed: %w", err)
	}
	respBody, err := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	rateLimit := c.recordRateLimit(resp.Header)

	result, err := unwrap(req, resp, respBody)
	if result != nil {
		result.RateLimit = rateLimit
	}

	code := 0
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		code = apiErr.Code
	}
	c.Logger.DebugContext(ctx, "lark response",
		"scope", req.Scope, "api", req.API, "status", resp.StatusCode, "code", code,
		"log_id", logIDFromHeader(resp.Header), "duration", time.Since(start))

	return result, err
}

func encodeBody(req Request) ([]byte, string, error) {
	if req.Body == nil {
		return nil, "", nil
	}
	if req.Caps.Has(FileUpload) {
		return encodeMultipart(req.Body)
	}
	data, err := json.Marshal(req.Body)
	if err != nil {
		return nil, "", fmt.Errorf("failed to marshal request body: %w", err)
	}
	return data, "application/json; charset=utf-8", nil
}

// encodeMultipart turns a flat body into form fields. Byte buffers and File
// values become file parts with their bytes untouched; everything else is
// stringified.
func encodeMultipart(body any) ([]byte, string, error) {
	var fields map[string]any
	switch b := body.(type) {
	case map[string]any:
		fields = b
	case Values:
		fields = b
	default:
		data, err := json.Marshal(body)
		if err != nil {
			return nil, "", fmt.Errorf("failed to marshal upload body: %w", err)
		}
		if err := json.Unmarshal(data, &fields); err != nil {
			return nil, "", fmt.Errorf("upload body must be an object: %w", err)
		}
	}

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	buf := &bytes.Buffer{}
	writer := multipart.NewWriter(buf)
	for _, key := range keys {
		switch v := fields[key].(type) {
		case nil:
			continue
		case []byte:
			if err := writeFilePart(writer, key, key, v); err != nil {
				return nil, "", err
			}
		case File:
			if err := writeFilePart(writer, key, v.Name, v.Content); err != nil {
				return nil, "", err
			}
		case *File:
			if err := writeFilePart(writer, key, v.Name, v.Content); err != nil {
				return nil, "", err
			}
		default:
			if err := writer.WriteField(key, stringify(v)); err != nil {
				return nil, "", fmt.Errorf("failed to write field %s: %w", key, err)
			}
		}
	}
	if err := writer.Close(); err != nil {
		return nil, "", fmt.Errorf("failed to close multipart writer: %w", err)
	}
	return buf.Bytes(), writer.FormDataContentType(), nil
}

func writeFilePart(writer *multipart.Writer, field, filename string, content []byte) error {
	if filename == "" {
		filename = field
	}
	part, err := writer.CreateFormFile(field, filename)
	if err != nil {
		return fmt.Errorf("failed to create form file %s: %w", field, err)
	}
	if _, err := part.Write(content); err != nil {
		return fmt.Errorf("failed to write file content %s: %w", field, err)
	}
	return nil
}

type envelope struct {
	Code  *int            `json:"code"`
	Msg   string          `json:"msg"`
	Data  json.RawMessage `json:"data"`
	Bot   json.RawMessage `json:"bot"`
	Error *struct {
		FieldViolations []FieldViolation `json:"field_violations"`
	} `json:"error"`
}

func unwrap(req Request, resp *http.Response, body []byte) (*Result, error) {
	result := &Result{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		LogID:      logIDFromHeader(resp.Header),
	}

	// Download bodies are never inspected: a JSON file is as opaque as a PDF.
	if req.Caps.Has(FileDownload) {
		result.File = body
		return result, nil
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("unexpected API response format (JSON decode failed, status %d): %w", resp.StatusCode, err)
	}
	if env.Code != nil && *env.Code != 0 {
		return nil, newAPIError(req, resp, &env)
	}

	// A present data field wins even when it is null; only an absent one
	// falls back to the whole envelope.
	switch {
	case req.API == botInfoAPI && len(env.Bot) > 0:
		result.Data = env.Bot
	case len(env.Data) > 0:
		result.Data = env.Data
	default:
		result.Data = body
	}
	return result, nil
}

func newAPIError(req Request, resp *http.Response, env *envelope) *APIError {
	var violations []FieldViolation
	if env.Error != nil {
		violations = env.Error.FieldViolations
	}
	return &APIError{
		Scope:           req.Scope,
		API:             req.API,
		Code:            *env.Code,
		Msg:             appendViolations(env.Msg, violations),
		FieldViolations: violations,
		StatusCode:      resp.StatusCode,
		LogID:           logIDFromHeader(resp.Header),
	}
}

func logIDFromHeader(header http.Header) string {
	if header == nil {
		return ""
	}
	if id := header.Get("X-Tt-Logid"); id != "" {
		return id
	}
	return header.Get("X-Request-Id")
}
