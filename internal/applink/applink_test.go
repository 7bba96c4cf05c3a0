package applink

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestForBaseURL(t *testing.T) {
	assert.Equal(t, LarkHost, ForBaseURL("https://open.larksuite.com").Host)
	assert.Equal(t, FeishuHost, ForBaseURL("https://open.feishu.cn").Host)
	assert.Equal(t, FeishuHost, ForBaseURL("").Host)
}

func TestMiniProgram(t *testing.T) {
	b := Builder{}
	got, err := b.MiniProgram(MiniProgram{AppID: "cli_1", Mode: ModeWindow, Path: "pages/home?x=1"})
	require.NoError(t, err)
	assert.Equal(t, "https://applink.feishu.cn/client/mini_program/open?appId=cli_1&mode=window&path=pages%2Fhome%3Fx%3D1", got)

	_, err = b.MiniProgram(MiniProgram{})
	assert.Error(t, err)
}

func TestWebAppAndBot(t *testing.T) {
	b := Builder{Host: LarkHost}
	got, err := b.WebApp(WebApp{AppID: "cli_1", Mode: ModeSidebarSemi})
	require.NoError(t, err)
	assert.Equal(t, "https://applink.larksuite.com/client/web_app/open?appId=cli_1&mode=sidebar-semi", got)

	got, err = b.Bot("cli_1")
	require.NoError(t, err)
	assert.Equal(t, "https://applink.larksuite.com/client/bot/open?appId=cli_1", got)
}

func TestChat(t *testing.T) {
	b := Builder{}
	got, err := b.Chat(Chat{OpenChatID: "oc_1"})
	require.NoError(t, err)
	assert.Equal(t, "https://applink.feishu.cn/client/chat/open?openChatId=oc_1", got)

	got, err = b.Chat(Chat{OpenID: "ou_1"})
	require.NoError(t, err)
	assert.Equal(t, "https://applink.feishu.cn/client/chat/open?openId=ou_1", got)

	_, err = b.Chat(Chat{})
	assert.Error(t, err)
	_, err = b.Chat(Chat{OpenID: "ou_1", OpenChatID: "oc_1"})
	assert.Error(t, err)
}

func TestCalendar(t *testing.T) {
	b := Builder{}
	assert.Equal(t, "https://applink.feishu.cn/client/calendar/view", b.Calendar(Calendar{}))
	assert.Equal(t,
		"https://applink.feishu.cn/client/calendar/view?type=week&date=1609296809",
		b.Calendar(Calendar{Type: "week", Date: time.Unix(1609296809, 0)}))
}

func TestCalendarEvent(t *testing.T) {
	b := Builder{}
	start := time.Unix(1700000000, 0)
	got, err := b.CalendarEvent(CalendarEvent{Start: start, End: start.Add(time.Hour), Summary: "Weekly sync"})
	require.NoError(t, err)
	assert.Equal(t, "https://applink.feishu.cn/client/calendar/event/create?startTime=1700000000&endTime=1700003600&summary=Weekly+sync", got)

	_, err = b.CalendarEvent(CalendarEvent{Start: start, End: start.Add(-time.Hour)})
	assert.Error(t, err)
}

func TestDocsWebURLScan(t *testing.T) {
	b := Builder{}
	got, err := b.Docs("https://example.feishu.cn/docx/abc")
	require.NoError(t, err)
	assert.Equal(t, "https://applink.feishu.cn/client/docs/open?url=https%3A%2F%2Fexample.feishu.cn%2Fdocx%2Fabc", got)

	got, err = b.WebURL("https://example.com", ModeWindow)
	require.NoError(t, err)
	assert.Equal(t, "https://applink.feishu.cn/client/web_url/open?url=https%3A%2F%2Fexample.com&mode=window", got)

	_, err = b.Docs("")
	assert.Error(t, err)
	_, err = b.WebURL("", "")
	assert.Error(t, err)

	assert.Equal(t, "https://applink.feishu.cn/client/qrcode/main", b.Scan())
}
