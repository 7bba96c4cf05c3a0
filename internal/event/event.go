// Package event decodes Open Platform event callbacks and serves them over
// HTTP.
package event

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"

	larkevent "github.com/larksuite/oapi-sdk-go/v3/event"
)

// Callback types that get special treatment.
const (
	TypeURLVerification = "url_verification"
	TypeAppTicket       = "app_ticket"
)

var (
	ErrMissingEncryptKey = errors.New("event is encrypted but no encrypt key is configured")
	ErrInvalidToken      = errors.New("event verification token mismatch")
	ErrInvalidSignature  = errors.New("event signature mismatch")
)

// Options configure decoding.
type Options struct {
	EncryptKey string
	// VerificationToken, when set, must match the token in the payload.
	VerificationToken string
}

// Event is a decoded callback in either schema.
type Event struct {
	// Schema is "2.0" for v2 events and "1.0" for v1 and verification
	// callbacks.
	Schema     string `json:"schema"`
	Type       string `json:"type"`
	EventID    string `json:"event_id,omitempty"`
	Token      string `json:"-"`
	AppID      string `json:"app_id,omitempty"`
	TenantKey  string `json:"tenant_key,omitempty"`
	CreateTime string `json:"create_time,omitempty"`
	Challenge  string `json:"challenge,omitempty"`
	// Event is the event body, unparsed.
	Event json.RawMessage `json:"event,omitempty"`
}

type header struct {
	EventID    string `json:"event_id"`
	EventType  string `json:"event_type"`
	CreateTime string `json:"create_time"`
	Token      string `json:"token"`
	AppID      string `json:"app_id"`
	TenantKey  string `json:"tenant_key"`
}

type envelope struct {
	Encrypt   string          `json:"encrypt"`
	Schema    string          `json:"schema"`
	Header    *header         `json:"header"`
	Event     json.RawMessage `json:"event"`
	Challenge string          `json:"challenge"`
	Token     string          `json:"token"`
	Type      string          `json:"type"`
	UUID      string          `json:"uuid"`
	TS        string          `json:"ts"`
}

type v1Body struct {
	Type      string `json:"type"`
	AppID     string `json:"app_id"`
	TenantKey string `json:"tenant_key"`
	AppTicket string `json:"app_ticket"`
}

// Decode decrypts body if needed, parses it and checks the verification
// token.
func Decode(body []byte, opts Options) (*Event, error) {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("decode event: %w", err)
	}
	if env.Encrypt != "" {
		if opts.EncryptKey == "" {
			return nil, ErrMissingEncryptKey
		}
		plain, err := larkevent.EventDecrypt(env.Encrypt, opts.EncryptKey)
		if err != nil {
			return nil, fmt.Errorf("decrypt event: %w", err)
		}
		env = envelope{}
		if err := json.Unmarshal(plain, &env); err != nil {
			return nil, fmt.Errorf("decode decrypted event: %w", err)
		}
	}

	ev := &Event{Event: env.Event}
	switch {
	case env.Header != nil:
		ev.Schema = env.Schema
		if ev.Schema == "" {
			ev.Schema = "2.0"
		}
		ev.Type = env.Header.EventType
		ev.EventID = env.Header.EventID
		ev.Token = env.Header.Token
		ev.AppID = env.Header.AppID
		ev.TenantKey = env.Header.TenantKey
		ev.CreateTime = env.Header.CreateTime
	case env.Type == TypeURLVerification:
		ev.Schema = "1.0"
		ev.Type = TypeURLVerification
		ev.Token = env.Token
		ev.Challenge = env.Challenge
	default:
		ev.Schema = "1.0"
		ev.Token = env.Token
		ev.EventID = env.UUID
		ev.CreateTime = env.TS
		var inner v1Body
		if len(env.Event) > 0 {
			if err := json.Unmarshal(env.Event, &inner); err != nil {
				return nil, fmt.Errorf("decode event body: %w", err)
			}
		}
		ev.Type = inner.Type
		ev.AppID = inner.AppID
		ev.TenantKey = inner.TenantKey
		if ev.Type == "" {
			return nil, errors.New("decode event: no event type")
		}
	}

	if opts.VerificationToken != "" &&
		subtle.ConstantTimeCompare([]byte(ev.Token), []byte(opts.VerificationToken)) != 1 {
		return nil, ErrInvalidToken
	}
	return ev, nil
}

// AppTicket returns the ticket carried by an app_ticket event.
func (e *Event) AppTicket() (string, bool) {
	if e.Type != TypeAppTicket || len(e.Event) == 0 {
		return "", false
	}
	var body v1Body
	if err := json.Unmarshal(e.Event, &body); err != nil || body.AppTicket == "" {
		return "", false
	}
	return body.AppTicket, true
}

// Signature computes hex(sha256(timestamp + nonce + encryptKey + body)).
func Signature(timestamp, nonce, encryptKey string, body []byte) string {
	h := sha256.New()
	h.Write([]byte(timestamp + nonce + encryptKey))
	h.Write(body)
	return hex.EncodeToString(h.Sum(nil))
}

// VerifySignature checks the X-Lark-Signature of a callback request.
func VerifySignature(timestamp, nonce, encryptKey string, body []byte, signature string) error {
	want := Signature(timestamp, nonce, encryptKey, body)
	if subtle.ConstantTimeCompare([]byte(want), []byte(signature)) != 1 {
		return ErrInvalidSignature
	}
	return nil
}
