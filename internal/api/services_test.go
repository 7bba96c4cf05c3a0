package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBitableListRecords_Query(t *testing.T) {
	srv := newLarkServer(t)
	srv.handle("/open-apis/bitable/v1/apps/app1/tables/tbl1/records", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "view_id=vew1&filter=CurrentValue.%5BDone%5D%3Dtrue&page_size=20", r.URL.RawQuery)
		writeJSON(w, http.StatusOK, okEnvelope(map[string]any{
			"has_more":   true,
			"page_token": "next",
			"total":      2,
			"items": []map[string]any{
				{"record_id": "rec1", "fields": map[string]any{"Name": "a"}},
				{"record_id": "rec2", "fields": map[string]any{"Name": "b"}},
			},
		}))
	})
	client := srv.client()

	page, err := client.Bitable().ListRecords(context.Background(), "app1", "tbl1", RecordQuery{
		ViewID:     "vew1",
		Filter:     "CurrentValue.[Done]=true",
		PageParams: PageParams{PageSize: 20},
	})
	require.NoError(t, err)
	assert.True(t, page.HasMore)
	assert.Equal(t, "next", page.PageToken)
	require.Len(t, page.Items, 2)
	assert.Equal(t, "rec2", page.Items[1].RecordID)
}

func TestMessageSend_Body(t *testing.T) {
	srv := newLarkServer(t)
	srv.handle("/open-apis/im/v1/messages", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "receive_id_type=chat_id", r.URL.RawQuery)
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, map[string]any{
			"receive_id": "oc_1",
			"msg_type":   "text",
			"content":    `{"text":"hi"}`,
			"uuid":       "u-1",
		}, body)
		writeJSON(w, http.StatusOK, okEnvelope(map[string]any{"message_id": "om_1", "msg_type": "text", "chat_id": "oc_1"}))
	})
	client := srv.client()

	msg, err := client.Message().Send(context.Background(), SendMessageRequest{
		ReceiveIDType: "chat_id",
		ReceiveID:     "oc_1",
		MsgType:       MsgTypeText,
		Content:       TextContent("hi"),
		UUID:          "u-1",
	})
	require.NoError(t, err)
	assert.Equal(t, "om_1", msg.MessageID)
}

func TestMessageSend_RequiresReceiveIDType(t *testing.T) {
	client := New(Config{AppID: testAppID, AppSecret: testAppSecret})
	_, err := client.Message().Send(context.Background(), SendMessageRequest{ReceiveID: "oc_1"})
	require.Error(t, err)
}

func TestMessageResource_Download(t *testing.T) {
	srv := newLarkServer(t)
	srv.handle("/open-apis/im/v1/messages/om_1/resources/img_1", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "type=image", r.URL.RawQuery)
		_, _ = w.Write([]byte{0x89, 'P', 'N', 'G'})
	})
	client := srv.client()

	file, err := client.Message().Resource(context.Background(), "om_1", "img_1", "image")
	require.NoError(t, err)
	assert.Equal(t, []byte{0x89, 'P', 'N', 'G'}, file.File)
}

func TestMessageUploadImage(t *testing.T) {
	srv := newLarkServer(t)
	srv.handle("/open-apis/im/v1/images", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "message", r.FormValue("image_type"))
		f, _, err := r.FormFile("image")
		require.NoError(t, err)
		data, _ := io.ReadAll(f)
		assert.Equal(t, "img", string(data))
		writeJSON(w, http.StatusOK, okEnvelope(map[string]any{"image_key": "img_v2_1"}))
	})
	client := srv.client()

	key, err := client.Message().UploadImage(context.Background(), "", "a.png", []byte("img"))
	require.NoError(t, err)
	assert.Equal(t, "img_v2_1", key)
}

func TestHelpdeskListTickets_Query(t *testing.T) {
	srv := newLarkServer(t)
	srv.handle("/open-apis/helpdesk/v1/tickets", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "agent_id=ou_a&status_list=1&status_list=50&page=1&page_size=10", r.URL.RawQuery)
		writeJSON(w, http.StatusOK, okEnvelope(map[string]any{"total": 1, "tickets": []map[string]any{{"ticket_id": "t1"}}}))
	})
	client := srv.client(func(c *Config) {
		c.HelpdeskID = "hd"
		c.HelpdeskToken = "tok"
	})

	list, err := client.Helpdesk().ListTickets(context.Background(), TicketQuery{
		AgentID:    "ou_a",
		StatusList: []int{1, 50},
		Page:       1,
		PageSize:   10,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, list.Total)
	assert.Equal(t, "t1", list.Tickets[0].TicketID)
}

func TestSearchCreateItem_Body(t *testing.T) {
	srv := newLarkServer(t)
	srv.handle("/open-apis/search/v2/data_sources/ds1/items", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "doc-1", body["id"])
		assert.Equal(t, map[string]any{"title": "Runbook"}, body["metadata"])
		assert.NotContains(t, body, "structured_data")
		assert.NotContains(t, body, "data_source_id")
		writeJSON(w, http.StatusOK, okEnvelope(nil))
	})
	client := srv.client()

	err := client.Search().CreateItem(context.Background(), "ds1", SearchItem{
		ID:       "doc-1",
		ACL:      []SearchItemACL{{Access: "allow", Value: "everyone", Type: "user"}},
		Metadata: json.RawMessage(`{"title":"Runbook"}`),
	})
	require.NoError(t, err)
}

func TestContactBatchGetUserID(t *testing.T) {
	srv := newLarkServer(t)
	srv.handle("/open-apis/contact/v3/users/batch_get_id", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, []any{"a@example.com"}, body["emails"])
		assert.NotContains(t, body, "mobiles")
		writeJSON(w, http.StatusOK, okEnvelope(map[string]any{
			"user_list": []map[string]any{{"user_id": "ou_1", "email": "a@example.com"}},
		}))
	})
	client := srv.client()

	ids, err := client.Contact().BatchGetUserID(context.Background(), "open_id", []string{"a@example.com"}, nil)
	require.NoError(t, err)
	require.Len(t, ids, 1)
	assert.Equal(t, "ou_1", ids[0].UserID)
}

func TestAttendanceGetGroup_KeepsRaw(t *testing.T) {
	srv := newLarkServer(t)
	srv.handle("/open-apis/attendance/v1/groups/g1", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "employee_type=employee_id", r.URL.RawQuery)
		writeJSON(w, http.StatusOK, okEnvelope(map[string]any{"group_id": "g1", "group_name": "HQ", "time_zone": "Asia/Shanghai"}))
	})
	client := srv.client()

	group, err := client.Attendance().GetGroup(context.Background(), "g1", "employee_id", "")
	require.NoError(t, err)
	assert.Equal(t, "HQ", group.GroupName)
	assert.Contains(t, string(group.Raw), "Asia/Shanghai")
}
