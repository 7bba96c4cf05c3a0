package outfmt

import (
	"bytes"
	"encoding/json"
	"reflect"
	"strings"
	"testing"
)

func TestFilter(t *testing.T) {
	members := []chatRow{{"oc_1", "Release crew"}, {"oc_2", "Ops"}}

	tests := []struct {
		name string
		in   any
		opts Options
		want any
	}{
		{"no query gives plain values", members, Options{}, map[string]any{"items": []any{
			map[string]any{"chat_id": "oc_1", "name": "Release crew"},
			map[string]any{"chat_id": "oc_2", "name": "Ops"},
		}}},
		{"typed slice is wrapped", members, Options{Query: ".items[1].name"}, "Ops"},
		{"raw page", json.RawMessage(`{"items":[{"chat_id":"oc_9"}],"has_more":false}`), Options{Query: ".items[].chat_id"}, "oc_9"},
		{"raw array", json.RawMessage(`["ou_1","ou_2"]`), Options{Query: ".items | length"}, 2},
		{"args", members, Options{Query: `[.items[] | select(.name == $name) | .chat_id]`, Args: map[string]string{"name": "Ops"}}, []any{"oc_2"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Filter(tt.in, tt.opts)
			if err != nil {
				t.Fatalf("Filter: %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Filter = %#v, want %#v", got, tt.want)
			}
		})
	}
}

func TestFilter_Errors(t *testing.T) {
	if _, err := Filter(map[string]any{}, Options{Query: ".items[["}); err == nil || !strings.Contains(err.Error(), "invalid filter expression") {
		t.Errorf("expected parse error, got %v", err)
	}
	if _, err := Filter(map[string]any{"c": make(chan int)}, Options{Query: "."}); err == nil {
		t.Error("expected marshal error for a channel")
	}
}

func TestFilter_DoesNotMutateRawMessage(t *testing.T) {
	raw := json.RawMessage(`{"it":"literal","items":"canonical"}`)
	original := append([]byte(nil), raw...)

	got, err := Filter(raw, Options{Query: `.["it"]`})
	if err != nil {
		t.Fatal(err)
	}
	if got != "literal" {
		t.Errorf("got %v", got)
	}
	if !bytes.Equal(raw, original) {
		t.Errorf("raw payload was mutated: %s", raw)
	}
}
