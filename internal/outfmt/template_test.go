package outfmt

import (
	"bytes"
	"strings"
	"testing"
)

func TestWriteTemplate(t *testing.T) {
	message := map[string]any{
		"message_id":  "om_1",
		"msg_type":    "text",
		"create_time": "1609296809000",
		"update_time": float64(1609296809),
		"mentions":    []string{"ou_1", "ou_2"},
	}

	tests := []struct {
		name string
		data any
		tmpl string
		want string
	}{
		{"fields", message, "{{.message_id}}: {{.msg_type}}", "om_1: text"},
		{"range", chatPage(), "{{range .items}}{{.name}};{{end}}", "Release crew;Ops;"},
		{"json", map[string]any{"chat_id": "oc_1"}, "{{json .}}", "{\n  \"chat_id\": \"oc_1\"\n}\n"},
		{"join", message, `{{join .mentions ","}}`, "ou_1,ou_2"},
		{"ms and s timestamps", message, "{{ts .create_time}} {{ts .update_time}}", "2020-12-30T02:53:29Z 2020-12-30T02:53:29Z"},
		{"unparsable timestamp", map[string]any{"t": "soon"}, "{{ts .t}}", "soon"},
		{"default on missing", message, `{{.root_id | default "-"}}`, "-"},
		{"default on present", message, `{{.msg_type | default "-"}}`, "text"},
		{"missing string key", map[string]string{"name": "Ops"}, "{{.chat_id}}", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := WriteTemplate(&buf, tt.data, tt.tmpl); err != nil {
				t.Fatalf("WriteTemplate: %v", err)
			}
			if buf.String() != tt.want {
				t.Errorf("WriteTemplate = %q, want %q", buf.String(), tt.want)
			}
		})
	}
}

func TestWriteTemplate_Errors(t *testing.T) {
	tests := []struct {
		name string
		tmpl string
		want string
	}{
		{"unclosed action", "{{.name", "invalid template"},
		{"unknown function", "{{upper .name}}", "invalid template"},
		{"index out of range", "{{index .items 5}}", "template execution error at line 1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := WriteTemplate(&bytes.Buffer{}, chatPage(), tt.tmpl)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %v, want %q", err, tt.want)
			}
		})
	}
}
