package api

import (
	"context"
	"net/http"
)

var botGetInfo = register(Endpoint{
	Scope: "Bot", Name: botInfoAPI, Method: http.MethodGet,
	Path: "/open-apis/bot/v3/info",
	Caps: NeedTenantToken,
	Doc:  "Bot profile of the app",
})

// BotInfo is the bot object returned by the bot info endpoint.
type BotInfo struct {
	ActivateStatus int      `json:"activate_status"`
	AppName        string   `json:"app_name"`
	AvatarURL      string   `json:"avatar_url"`
	IPWhiteList    []string `json:"ip_white_list"`
	OpenID         string   `json:"open_id"`
}

// Info returns the bot of the current app.
func (s BotService) Info(ctx context.Context) (*BotInfo, error) {
	var result BotInfo
	if err := s.Call(ctx, botGetInfo, nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}
