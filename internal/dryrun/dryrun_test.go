package dryrun

import (
	"bytes"
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/larkkit/lark-cli/internal/api"
)

func TestIsEnabled(t *testing.T) {
	assert.False(t, IsEnabled(context.Background()))
	assert.True(t, IsEnabled(WithDryRun(context.Background(), true)))
	assert.False(t, IsEnabled(WithDryRun(context.Background(), false)))
}

func TestFromRequest(t *testing.T) {
	p := FromRequest(api.Request{
		Scope:  "Message",
		API:    "uploadImage",
		Method: http.MethodPost,
		URL:    "https://open.feishu.cn/open-apis/im/v1/images",
		Caps:   api.NeedTenantToken | api.FileUpload,
		Body: map[string]any{
			"image_type": "message",
			"image":      api.File{Name: "a.png", Content: []byte("12345")},
			"tags":       []string{"x"},
			"raw":        []byte("abc"),
		},
	})

	assert.Equal(t, &Preview{
		DryRun:   true,
		Method:   "POST",
		Endpoint: "Message.uploadImage",
		URL:      "https://open.feishu.cn/open-apis/im/v1/images",
		Auth:     "tenant,upload",
		Body: map[string]any{
			"image_type": "message",
			"image":      "<file a.png, 5 bytes>",
			"tags":       `["x"]`,
			"raw":        "<3 bytes>",
		},
	}, p)
}

func TestFromRequest_Warnings(t *testing.T) {
	p := FromRequest(api.Request{Scope: "Helpdesk", API: "deleteTicket", Method: http.MethodDelete, Caps: api.NeedHelpdeskAuth})
	assert.Equal(t, []string{"This action is irreversible", "Requires helpdesk credentials"}, p.Warnings)
	assert.Nil(t, p.Body)
}

func TestPreview_Write(t *testing.T) {
	p := &Preview{
		Method:   "DELETE",
		Endpoint: "Message.deleteMessage",
		URL:      "https://open.feishu.cn/open-apis/im/v1/messages/om_1",
		Auth:     "tenant",
		Body:     map[string]any{"b": 2, "a": 1},
		Warnings: []string{"This action is irreversible"},
	}
	var buf bytes.Buffer
	p.Write(&buf)

	want := "\n[DRY-RUN] Would DELETE Message.deleteMessage\n" + rule + "\n" +
		"  url: https://open.feishu.cn/open-apis/im/v1/messages/om_1\n" +
		"  auth: tenant\n" +
		"  body.a: 1\n" +
		"  body.b: 2\n" +
		"\nWarnings:\n  ! This action is irreversible\n" +
		rule + "\nNo changes made (dry-run mode)\n"
	assert.Equal(t, want, buf.String())
}

func TestPreview_WriteMinimal(t *testing.T) {
	var buf bytes.Buffer
	(&Preview{Method: "GET", Endpoint: "Bot.getBotInfo"}).Write(&buf)
	assert.Equal(t, "\n[DRY-RUN] Would GET Bot.getBotInfo\n"+rule+"\n"+rule+"\nNo changes made (dry-run mode)\n", buf.String())
}
