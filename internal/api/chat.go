package api

import (
	"context"
	"net/http"
)

var (
	chatCreate = register(Endpoint{
		Scope: "Chat", Name: "createChat", Method: http.MethodPost,
		Path:  "/open-apis/im/v1/chats",
		Query: []string{"user_id_type", "set_bot_manager"},
		Body: []string{"avatar", "name", "description", "i18n_names", "owner_id", "user_id_list", "bot_id_list",
			"chat_mode", "chat_type", "external", "join_message_visibility", "leave_message_visibility", "membership_approval"},
		Caps: NeedTenantToken,
		Doc:  "Create a group chat",
	})
	chatGet = register(Endpoint{
		Scope: "Chat", Name: "getChat", Method: http.MethodGet,
		Path:  "/open-apis/im/v1/chats/:chat_id",
		Query: []string{"user_id_type"},
		Caps:  NeedTenantToken | NeedUserToken,
		Doc:   "Chat details",
	})
	chatList = register(Endpoint{
		Scope: "Chat", Name: "listChats", Method: http.MethodGet,
		Path:  "/open-apis/im/v1/chats",
		Query: []string{"user_id_type", "sort_type", "page_token", "page_size"},
		Caps:  NeedTenantToken | NeedUserToken,
		Doc:   "Chats the bot or user belongs to",
	})
	chatAddMembers = register(Endpoint{
		Scope: "Chat", Name: "addChatMembers", Method: http.MethodPost,
		Path:  "/open-apis/im/v1/chats/:chat_id/members",
		Query: []string{"member_id_type", "succeed_type"},
		Body:  []string{"id_list"},
		Caps:  NeedTenantToken | NeedUserToken,
		Doc:   "Add users or bots to a chat",
	})
)

// Chat is a group chat.
type Chat struct {
	ChatID      string `json:"chat_id"`
	Avatar      string `json:"avatar,omitempty"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	OwnerID     string `json:"owner_id,omitempty"`
	OwnerIDType string `json:"owner_id_type,omitempty"`
	External    bool   `json:"external"`
	TenantKey   string `json:"tenant_key,omitempty"`
	ChatMode    string `json:"chat_mode,omitempty"`
	ChatType    string `json:"chat_type,omitempty"`
	UserCount   string `json:"user_count,omitempty"`
	BotCount    string `json:"bot_count,omitempty"`
}

// CreateChatRequest is the body of createChat.
type CreateChatRequest struct {
	Name          string
	Description   string
	Avatar        string
	OwnerID       string
	UserIDList    []string
	BotIDList     []string
	ChatMode      string
	ChatType      string
	External      bool
	UserIDType    string
	SetBotManager bool
}

// Create creates a group chat and returns it.
func (s ChatService) Create(ctx context.Context, req CreateChatRequest) (*Chat, error) {
	values := Values{
		"user_id_type":    Opt(req.UserIDType),
		"set_bot_manager": Opt(req.SetBotManager),
		"name":            Opt(req.Name),
		"description":     Opt(req.Description),
		"avatar":          Opt(req.Avatar),
		"owner_id":        Opt(req.OwnerID),
		"chat_mode":       Opt(req.ChatMode),
		"chat_type":       Opt(req.ChatType),
		"external":        Opt(req.External),
	}
	if len(req.UserIDList) > 0 {
		values["user_id_list"] = req.UserIDList
	}
	if len(req.BotIDList) > 0 {
		values["bot_id_list"] = req.BotIDList
	}
	return callInto[Chat](ctx, s.Client, chatCreate, values)
}

// Get returns a chat.
func (s ChatService) Get(ctx context.Context, chatID, userIDType string) (*Chat, error) {
	chat, err := callInto[Chat](ctx, s.Client, chatGet, Values{
		"chat_id":      chatID,
		"user_id_type": Opt(userIDType),
	})
	if err != nil {
		return nil, err
	}
	if chat.ChatID == "" {
		chat.ChatID = chatID
	}
	return chat, nil
}

// List returns one page of chats.
func (s ChatService) List(ctx context.Context, userIDType string, page PageParams) (*Page[Chat], error) {
	return callInto[Page[Chat]](ctx, s.Client, chatList, page.values(Values{"user_id_type": Opt(userIDType)}))
}

// AddMembersResult lists ids the platform refused.
type AddMembersResult struct {
	InvalidIDList    []string `json:"invalid_id_list"`
	NotExistedIDList []string `json:"not_existed_id_list"`
	PendingIDList    []string `json:"pending_approval_id_list"`
}

// AddMembers adds members of memberIDType ("open_id", "user_id", "union_id"
// or "app_id") to a chat.
func (s ChatService) AddMembers(ctx context.Context, chatID, memberIDType string, ids []string) (*AddMembersResult, error) {
	return callInto[AddMembersResult](ctx, s.Client, chatAddMembers, Values{
		"chat_id":        chatID,
		"member_id_type": Opt(memberIDType),
		"id_list":        ids,
	})
}
