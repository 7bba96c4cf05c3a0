package api

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrTokenNotFound is returned by token stores on a miss or an expired entry.
	ErrTokenNotFound = errors.New("token not found")
	// ErrAppTicketMissing means an ISV app token was needed before the
	// platform pushed an app ticket. A resend has been requested.
	ErrAppTicketMissing = errors.New("app ticket not received yet; a resend was requested")
	// ErrMissingCredentials means AppID or AppSecret is not configured.
	ErrMissingCredentials = errors.New("app id and app secret are required")
	// ErrMissingHelpdeskCredentials means a helpdesk endpoint was called
	// without HelpdeskID/HelpdeskToken.
	ErrMissingHelpdeskCredentials = errors.New("helpdesk id and helpdesk token are required")
	// ErrMissingUserToken means an endpoint that only accepts a user access
	// token was called without one.
	ErrMissingUserToken = errors.New("user access token is required")
	// ErrUnsupportedMethod is returned for HTTP methods other than
	// GET, POST, PUT, PATCH and DELETE.
	ErrUnsupportedMethod = errors.New("unsupported HTTP method")
)

// FieldViolation is one entry of error.field_violations in a failed envelope.
type FieldViolation struct {
	Field       string `json:"field"`
	Value       string `json:"value,omitempty"`
	Description string `json:"description"`
}

// APIError is the remote API reporting failure through a non-zero code.
type APIError struct {
	Scope string
	API   string
	Code  int
	// Msg is the envelope message with ", <field> <description>" appended
	// for every field violation.
	Msg             string
	FieldViolations []FieldViolation
	StatusCode      int
	LogID           string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s %s failed: code %d: %s", e.Scope, e.API, e.Code, e.Msg)
}

func appendViolations(msg string, violations []FieldViolation) string {
	if len(violations) == 0 {
		return msg
	}
	var b strings.Builder
	b.WriteString(msg)
	for _, v := range violations {
		_, _ = fmt.Fprintf(&b, ", %s %s", v.Field, v.Description)
	}
	return b.String()
}

// IsAPIError reports whether err carries an APIError.
func IsAPIError(err error) bool {
	var e *APIError
	return errors.As(err, &e)
}

// APIErrorCode returns the envelope code of err, or 0 if err is not an APIError.
func APIErrorCode(err error) int {
	var e *APIError
	if errors.As(err, &e) {
		return e.Code
	}
	return 0
}

// IsTokenInvalid reports whether the platform rejected the access token.
func IsTokenInvalid(err error) bool {
	switch APIErrorCode(err) {
	case CodeTenantTokenInvalid, CodeAppTokenInvalid, CodeUserTokenInvalid, CodeUserTokenExpired, CodeAccessTokenMissing:
		return true
	default:
		return false
	}
}
