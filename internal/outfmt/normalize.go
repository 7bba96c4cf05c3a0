package outfmt

import (
	"bytes"
	"encoding/json"
	"reflect"
)

// normalizeJSONOutput gives list output one shape: slices and top-level
// JSON arrays become {"items": [...]}, the same shape the platform uses for
// paged lists, so ".items[]" works on every command. Nil slices become [].
func normalizeJSONOutput(v any) any {
	switch raw := v.(type) {
	case nil:
		return nil
	case []byte:
		return v
	case json.RawMessage:
		if trimmed := bytes.TrimSpace(raw); len(trimmed) > 0 && trimmed[0] == '[' {
			return map[string]any{"items": raw}
		}
		return v
	}

	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return v
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return v
	}
	if rv.Type().Elem().Kind() == reflect.Uint8 {
		return v
	}
	if rv.Kind() == reflect.Slice && rv.IsNil() {
		return map[string]any{"items": []any{}}
	}
	return map[string]any{"items": rv.Interface()}
}
