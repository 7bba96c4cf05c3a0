package validation

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Input size limits enforced before a request is built.
const (
	MaxTextMessageBytes = 150 * 1024 // text and post messages
	MaxCardMessageBytes = 30 * 1024  // interactive cards
	MaxJSONPayload      = 1 << 20    // --body and --input documents
	MaxUploadBytes      = 30 << 20   // im file upload limit
)

// ValidateMessageContent checks the content JSON of an outgoing message
// against the size limit of its msg_type.
func ValidateMessageContent(msgType, content string) error {
	if content == "" {
		return fmt.Errorf("message content cannot be empty")
	}
	if !json.Valid([]byte(content)) {
		return fmt.Errorf("message content must be a JSON string for msg_type %q", msgType)
	}
	limit := MaxTextMessageBytes
	if msgType == "interactive" {
		limit = MaxCardMessageBytes
	}
	if len(content) > limit {
		return fmt.Errorf("message content exceeds maximum size of %d bytes (got %d)", limit, len(content))
	}
	return nil
}

// ValidateJSONPayload checks a request body document for size and syntax.
func ValidateJSONPayload(payload string) error {
	if payload == "" {
		return fmt.Errorf("JSON payload cannot be empty")
	}
	if len(payload) > MaxJSONPayload {
		return fmt.Errorf("JSON payload exceeds maximum size of %d bytes (got %d)", MaxJSONPayload, len(payload))
	}
	if !json.Valid([]byte(payload)) {
		return fmt.Errorf("JSON payload is not valid JSON")
	}
	return nil
}

// ValidateUploadSize rejects files above the single-request upload limit.
func ValidateUploadSize(name string, size int64) error {
	if size > MaxUploadBytes {
		return fmt.Errorf("%s is %d bytes; single-request uploads are limited to %d bytes", name, size, MaxUploadBytes)
	}
	return nil
}

var receiveIDTypes = []string{"open_id", "user_id", "union_id", "email", "chat_id"}

// ValidateReceiveIDType checks the receive_id_type of a message target.
func ValidateReceiveIDType(t string) error {
	for _, allowed := range receiveIDTypes {
		if t == allowed {
			return nil
		}
	}
	return fmt.Errorf("invalid receive id type %q: must be one of %s", t, strings.Join(receiveIDTypes, ", "))
}

// InferReceiveIDType guesses the id type from the platform's id prefixes:
// oc_ chats, ou_ open ids, on_ union ids, and anything with @ an email.
func InferReceiveIDType(id string) (string, bool) {
	switch {
	case strings.HasPrefix(id, "oc_"):
		return "chat_id", true
	case strings.HasPrefix(id, "ou_"):
		return "open_id", true
	case strings.HasPrefix(id, "on_"):
		return "union_id", true
	case strings.Contains(id, "@"):
		return "email", true
	default:
		return "", false
	}
}
