package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Envelope codes the CLI and callers branch on.
const (
	CodeAppTicketInvalid     = 10012
	CodeAppSecretInvalid     = 10014
	CodeFrequencyLimit       = 99991400
	CodeAccessTokenMissing   = 99991661
	CodeTenantTokenInvalid   = 99991663
	CodeAppTokenInvalid      = 99991664
	CodeUserTokenInvalid     = 99991668
	CodeNoPermission         = 99991672
	CodeUserTokenExpired     = 99991677
	CodeUserNoPermission     = 99991679
	CodeInternalServerError  = 55001
	CodeInternalServerError2 = 1069302
)

// ErrorCode is the stable, machine-readable class of a failure, printed in
// JSON error output and mapped to exit codes.
type ErrorCode string

const (
	ErrBadRequest   ErrorCode = "bad_request"
	ErrUnauthorized ErrorCode = "unauthorized"
	ErrForbidden    ErrorCode = "forbidden"
	ErrNotFound     ErrorCode = "not_found"
	ErrValidation   ErrorCode = "validation_failed"
	ErrRateLimited  ErrorCode = "rate_limited"
	ErrServerError  ErrorCode = "server_error"
	ErrTimeout      ErrorCode = "timeout"
	ErrUnknown      ErrorCode = "unknown"
)

var suggestions = map[ErrorCode]string{
	ErrUnauthorized: "Run 'lark auth login' or check the app credentials",
	ErrForbidden:    "Grant the required permission scope to the app in the developer console",
	ErrNotFound:     "Verify the resource token or ID exists",
	ErrRateLimited:  "Wait a moment and retry",
	ErrValidation:   "Check the input values",
	ErrBadRequest:   "Check the request format and parameters",
	ErrServerError:  "The platform encountered an error; try again later",
	ErrTimeout:      "The request timed out; check network connectivity and retry",
}

// IsRetryable reports whether the same call may succeed later.
func (c ErrorCode) IsRetryable() bool {
	return c == ErrRateLimited || c == ErrServerError || c == ErrTimeout
}

func (c ErrorCode) Suggestion() string { return suggestions[c] }

var statusCodes = map[int]ErrorCode{
	http.StatusBadRequest:          ErrBadRequest,
	http.StatusUnauthorized:        ErrUnauthorized,
	http.StatusForbidden:           ErrForbidden,
	http.StatusNotFound:            ErrNotFound,
	http.StatusUnprocessableEntity: ErrValidation,
	http.StatusTooManyRequests:     ErrRateLimited,
}

// ErrorCodeFromStatus classifies an HTTP status.
func ErrorCodeFromStatus(status int) ErrorCode {
	if c, ok := statusCodes[status]; ok {
		return c
	}
	if status >= 500 && status < 600 {
		return ErrServerError
	}
	return ErrUnknown
}

var envelopeCodes = map[int]ErrorCode{
	CodeAppTicketInvalid:     ErrUnauthorized,
	CodeAppSecretInvalid:     ErrUnauthorized,
	CodeAccessTokenMissing:   ErrUnauthorized,
	CodeTenantTokenInvalid:   ErrUnauthorized,
	CodeAppTokenInvalid:      ErrUnauthorized,
	CodeUserTokenInvalid:     ErrUnauthorized,
	CodeUserTokenExpired:     ErrUnauthorized,
	CodeNoPermission:         ErrForbidden,
	CodeUserNoPermission:     ErrForbidden,
	CodeFrequencyLimit:       ErrRateLimited,
	CodeInternalServerError:  ErrServerError,
	CodeInternalServerError2: ErrServerError,
}

// ErrorCodeFromEnvelope classifies an envelope code. Codes without a fixed
// meaning fall back to the HTTP status. The bitable 12540xx and im 2300xx
// ranges are parameter errors.
func ErrorCodeFromEnvelope(code, status int) ErrorCode {
	if c, ok := envelopeCodes[code]; ok {
		return c
	}
	if (code >= 1254000 && code < 1254100) || (code >= 230001 && code < 230100) {
		return ErrValidation
	}
	return ErrorCodeFromStatus(status)
}

// StructuredError is the JSON shape of an error on stderr in JSON mode.
type StructuredError struct {
	Code       ErrorCode      `json:"code"`
	Message    string         `json:"message"`
	Retryable  bool           `json:"retryable"`
	Suggestion string         `json:"suggestion,omitempty"`
	Context    map[string]any `json:"context,omitempty"`
}

func (e *StructuredError) Error() string {
	return "[" + string(e.Code) + "] " + e.Message
}

func NewStructuredError(code ErrorCode, message string) *StructuredError {
	return &StructuredError{
		Code:       code,
		Message:    message,
		Retryable:  code.IsRetryable(),
		Suggestion: code.Suggestion(),
	}
}

// NewValidationError reports got as not one of allowed.
func NewValidationError(field, got string, allowed []string) *StructuredError {
	list := strings.Join(allowed, ", ")
	return &StructuredError{
		Code:       ErrValidation,
		Message:    fmt.Sprintf("invalid %s %q: must be one of %s", field, got, list),
		Suggestion: "Use one of: " + list,
		Context:    map[string]any{"field": field, "got": got, "allowed": allowed},
	}
}

// StructuredErrorFromAPIError keeps the envelope code, log id and field
// violations in Context.
func StructuredErrorFromAPIError(apiErr *APIError) *StructuredError {
	se := NewStructuredError(ErrorCodeFromEnvelope(apiErr.Code, apiErr.StatusCode), apiErr.Msg)
	se.Context = map[string]any{
		"scope":       apiErr.Scope,
		"api":         apiErr.API,
		"lark_code":   apiErr.Code,
		"status_code": apiErr.StatusCode,
	}
	if apiErr.LogID != "" {
		se.Context["log_id"] = apiErr.LogID
	}
	if len(apiErr.FieldViolations) > 0 {
		se.Context["field_violations"] = apiErr.FieldViolations
	}
	return se
}

var sentinelCodes = []struct {
	err  error
	code ErrorCode
}{
	{ErrMissingCredentials, ErrUnauthorized},
	{ErrMissingHelpdeskCredentials, ErrUnauthorized},
	{ErrAppTicketMissing, ErrUnauthorized},
	{ErrMissingUserToken, ErrUnauthorized},
	{ErrUnsupportedMethod, ErrBadRequest},
	{context.DeadlineExceeded, ErrTimeout},
}

// StructuredErrorFromError classifies any error; unrecognised ones are
// ErrUnknown.
func StructuredErrorFromError(err error) *StructuredError {
	if err == nil {
		return nil
	}
	var se *StructuredError
	if errors.As(err, &se) {
		return se
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return StructuredErrorFromAPIError(apiErr)
	}
	for _, s := range sentinelCodes {
		if errors.Is(err, s.err) {
			return NewStructuredError(s.code, err.Error())
		}
	}
	return &StructuredError{Code: ErrUnknown, Message: err.Error()}
}
