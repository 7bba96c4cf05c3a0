// Package applink builds AppLink URLs that open Feishu/Lark client pages.
package applink

import (
	"errors"
	"strings"
	"time"

	"github.com/larkkit/lark-cli/internal/api"
)

const (
	FeishuHost = "https://applink.feishu.cn"
	LarkHost   = "https://applink.larksuite.com"
)

// Builder renders links against one AppLink host.
type Builder struct {
	Host string
}

// ForBaseURL picks the AppLink host matching an Open Platform base URL.
func ForBaseURL(baseURL string) Builder {
	if strings.Contains(baseURL, "larksuite.com") {
		return Builder{Host: LarkHost}
	}
	return Builder{Host: FeishuHost}
}

func (b Builder) link(path string, q *api.Query) string {
	host := b.Host
	if host == "" {
		host = FeishuHost
	}
	return api.WithQuery(strings.TrimSuffix(host, "/")+"/client/"+path, q)
}

// Open modes of mini programs and web apps.
const (
	ModeWindow      = "window"
	ModeWindowSemi  = "window-semi"
	ModeSidebarSemi = "sidebar-semi"
	ModeAppCenter   = "appCenter"
)

// MiniProgram opens a gadget.
type MiniProgram struct {
	AppID       string
	Mode        string
	Path        string
	PathAndroid string
	PathIOS     string
	PathPC      string
}

var errAppIDRequired = errors.New("app id is required")

func (b Builder) MiniProgram(p MiniProgram) (string, error) {
	if p.AppID == "" {
		return "", errAppIDRequired
	}
	q := api.NewQuery().
		Set("appId", p.AppID).
		Set("mode", api.Opt(p.Mode)).
		Set("path", api.Opt(p.Path)).
		Set("path_android", api.Opt(p.PathAndroid)).
		Set("path_ios", api.Opt(p.PathIOS)).
		Set("path_pc", api.Opt(p.PathPC))
	return b.link("mini_program/open", q), nil
}

// WebApp opens an H5 app, optionally at a path appended to its home page.
type WebApp struct {
	AppID string
	Mode  string
	Path  string
}

func (b Builder) WebApp(p WebApp) (string, error) {
	if p.AppID == "" {
		return "", errAppIDRequired
	}
	q := api.NewQuery().
		Set("appId", p.AppID).
		Set("mode", api.Opt(p.Mode)).
		Set("path", api.Opt(p.Path))
	return b.link("web_app/open", q), nil
}

// Bot opens the chat with an app's bot.
func (b Builder) Bot(appID string) (string, error) {
	if appID == "" {
		return "", errAppIDRequired
	}
	return b.link("bot/open", api.NewQuery().Set("appId", appID)), nil
}

// Chat opens a direct chat by open id or a group by chat id. Exactly one
// must be set.
type Chat struct {
	OpenID     string
	OpenChatID string
}

func (b Builder) Chat(p Chat) (string, error) {
	if (p.OpenID == "") == (p.OpenChatID == "") {
		return "", errors.New("exactly one of open id and chat id is required")
	}
	q := api.NewQuery().
		Set("openId", api.Opt(p.OpenID)).
		Set("openChatId", api.Opt(p.OpenChatID))
	return b.link("chat/open", q), nil
}

// Calendar opens the calendar. An empty Type uses the client default.
type Calendar struct {
	// Type is "day", "three_day", "week" or "month".
	Type string
	Date time.Time
}

func (b Builder) Calendar(p Calendar) string {
	q := api.NewQuery().Set("type", api.Opt(p.Type))
	if !p.Date.IsZero() {
		q.Set("date", p.Date.Unix())
	}
	return b.link("calendar/view", q)
}

// CalendarEvent opens the event creation page pre-filled with the given
// values.
type CalendarEvent struct {
	Start   time.Time
	End     time.Time
	Summary string
}

func (b Builder) CalendarEvent(p CalendarEvent) (string, error) {
	if !p.Start.IsZero() && !p.End.IsZero() && p.End.Before(p.Start) {
		return "", errors.New("event end is before start")
	}
	q := api.NewQuery()
	if !p.Start.IsZero() {
		q.Set("startTime", p.Start.Unix())
	}
	if !p.End.IsZero() {
		q.Set("endTime", p.End.Unix())
	}
	q.Set("summary", api.Opt(p.Summary))
	return b.link("calendar/event/create", q), nil
}

// Docs opens a cloud document URL in the client.
func (b Builder) Docs(docURL string) (string, error) {
	if docURL == "" {
		return "", errors.New("document url is required")
	}
	return b.link("docs/open", api.NewQuery().Set("url", docURL)), nil
}

// WebURL opens any web page in the client browser.
func (b Builder) WebURL(pageURL, mode string) (string, error) {
	if pageURL == "" {
		return "", errors.New("url is required")
	}
	q := api.NewQuery().Set("url", pageURL).Set("mode", api.Opt(mode))
	return b.link("web_url/open", q), nil
}

// Scan opens the QR code scanner.
func (b Builder) Scan() string {
	return b.link("qrcode/main", nil)
}
