package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
)

var (
	messageSend = register(Endpoint{
		Scope: "Message", Name: "sendMessage", Method: http.MethodPost,
		Path:  "/open-apis/im/v1/messages",
		Query: []string{"receive_id_type"},
		Body:  []string{"receive_id", "msg_type", "content", "uuid"},
		Caps:  NeedTenantToken | NeedUserToken,
		Doc:   "Send a message to a user or chat",
	})
	messageReply = register(Endpoint{
		Scope: "Message", Name: "replyMessage", Method: http.MethodPost,
		Path: "/open-apis/im/v1/messages/:message_id/reply",
		Body: []string{"content", "msg_type", "reply_in_thread", "uuid"},
		Caps: NeedTenantToken | NeedUserToken,
		Doc:  "Reply to a message",
	})
	messageGet = register(Endpoint{
		Scope: "Message", Name: "getMessage", Method: http.MethodGet,
		Path:  "/open-apis/im/v1/messages/:message_id",
		Query: []string{"user_id_type"},
		Caps:  NeedTenantToken | NeedUserToken,
		Doc:   "Message by id",
	})
	messageDelete = register(Endpoint{
		Scope: "Message", Name: "deleteMessage", Method: http.MethodDelete,
		Path: "/open-apis/im/v1/messages/:message_id",
		Caps: NeedTenantToken | NeedUserToken,
		Doc:  "Recall a message",
	})
	messageList = register(Endpoint{
		Scope: "Message", Name: "listMessages", Method: http.MethodGet,
		Path:  "/open-apis/im/v1/messages",
		Query: []string{"container_id_type", "container_id", "start_time", "end_time", "sort_type", "page_size", "page_token"},
		Caps:  NeedTenantToken | NeedUserToken,
		Doc:   "Message history of a chat or thread",
	})
	messageUploadImage = register(Endpoint{
		Scope: "Message", Name: "uploadImage", Method: http.MethodPost,
		Path: "/open-apis/im/v1/images",
		Body: []string{"image_type", "image"},
		Caps: NeedTenantToken | FileUpload,
		Doc:  "Upload an image for messages or avatars",
	})
	messageUploadFile = register(Endpoint{
		Scope: "Message", Name: "uploadFile", Method: http.MethodPost,
		Path: "/open-apis/im/v1/files",
		Body: []string{"file_type", "file_name", "duration", "file"},
		Caps: NeedTenantToken | FileUpload,
		Doc:  "Upload a file for messages",
	})
	messageDownloadFile = register(Endpoint{
		Scope: "Message", Name: "downloadFile", Method: http.MethodGet,
		Path: "/open-apis/im/v1/files/:file_key",
		Caps: NeedTenantToken | FileDownload,
		Doc:  "Download a file uploaded by the app",
	})
	messageResource = register(Endpoint{
		Scope: "Message", Name: "getMessageResource", Method: http.MethodGet,
		Path:  "/open-apis/im/v1/messages/:message_id/resources/:file_key",
		Query: []string{"type"},
		Caps:  NeedTenantToken | FileDownload,
		Doc:   "Download an image or file attached to a message",
	})
)

// Message types accepted by msg_type.
const (
	MsgTypeText        = "text"
	MsgTypePost        = "post"
	MsgTypeImage       = "image"
	MsgTypeFile        = "file"
	MsgTypeInteractive = "interactive"
	MsgTypeShareChat   = "share_chat"
)

// Message is an IM message.
type Message struct {
	MessageID  string `json:"message_id"`
	RootID     string `json:"root_id,omitempty"`
	ParentID   string `json:"parent_id,omitempty"`
	ThreadID   string `json:"thread_id,omitempty"`
	MsgType    string `json:"msg_type"`
	CreateTime string `json:"create_time,omitempty"`
	UpdateTime string `json:"update_time,omitempty"`
	Deleted    bool   `json:"deleted"`
	ChatID     string `json:"chat_id,omitempty"`
	Sender     *struct {
		ID         string `json:"id"`
		IDType     string `json:"id_type"`
		SenderType string `json:"sender_type"`
	} `json:"sender,omitempty"`
	Body *struct {
		Content string `json:"content"`
	} `json:"body,omitempty"`
}

// SendMessageRequest sends Content to ReceiveID. Content is the JSON string
// the platform expects for MsgType; UUID deduplicates retries within an hour.
type SendMessageRequest struct {
	ReceiveIDType string
	ReceiveID     string
	MsgType       string
	Content       string
	UUID          string
}

// TextContent renders the content of a text message.
func TextContent(text string) string {
	data, _ := json.Marshal(map[string]string{"text": text})
	return string(data)
}

// Send sends a message.
func (s MessageService) Send(ctx context.Context, req SendMessageRequest) (*Message, error) {
	if req.ReceiveIDType == "" {
		return nil, errors.New("receive id type is required")
	}
	return callInto[Message](ctx, s.Client, messageSend, Values{
		"receive_id_type": req.ReceiveIDType,
		"receive_id":      req.ReceiveID,
		"msg_type":        req.MsgType,
		"content":         req.Content,
		"uuid":            Opt(req.UUID),
	})
}

// Reply replies to messageID.
func (s MessageService) Reply(ctx context.Context, messageID, msgType, content string, inThread bool, uuid string) (*Message, error) {
	return callInto[Message](ctx, s.Client, messageReply, Values{
		"message_id":      messageID,
		"msg_type":        msgType,
		"content":         content,
		"reply_in_thread": Opt(inThread),
		"uuid":            Opt(uuid),
	})
}

// Get returns a message. Merged-forward messages return several items.
func (s MessageService) Get(ctx context.Context, messageID string) ([]Message, error) {
	var result struct {
		Items []Message `json:"items"`
	}
	if err := s.Call(ctx, messageGet, Values{"message_id": messageID}, &result); err != nil {
		return nil, err
	}
	return result.Items, nil
}

// Delete recalls a message.
func (s MessageService) Delete(ctx context.Context, messageID string) error {
	return s.Call(ctx, messageDelete, Values{"message_id": messageID}, nil)
}

// MessageQuery selects message history. ContainerIDType is "chat" or
// "thread"; times are unix seconds.
type MessageQuery struct {
	ContainerIDType string
	ContainerID     string
	StartTime       string
	EndTime         string
	SortType        string
	PageParams
}

// List returns one page of message history.
func (s MessageService) List(ctx context.Context, q MessageQuery) (*Page[Message], error) {
	containerType := q.ContainerIDType
	if containerType == "" {
		containerType = "chat"
	}
	return callInto[Page[Message]](ctx, s.Client, messageList, q.PageParams.values(Values{
		"container_id_type": containerType,
		"container_id":      q.ContainerID,
		"start_time":        Opt(q.StartTime),
		"end_time":          Opt(q.EndTime),
		"sort_type":         Opt(q.SortType),
	}))
}

// UploadImage uploads an image and returns its image key. imageType is
// "message" or "avatar".
func (s MessageService) UploadImage(ctx context.Context, imageType, name string, content []byte) (string, error) {
	if imageType == "" {
		imageType = "message"
	}
	var result struct {
		ImageKey string `json:"image_key"`
	}
	err := s.Call(ctx, messageUploadImage, Values{
		"image_type": imageType,
		"image":      File{Name: name, Content: content},
	}, &result)
	if err != nil {
		return "", err
	}
	return result.ImageKey, nil
}

// UploadFile uploads a message file and returns its file key. fileType is
// one of opus, mp4, pdf, doc, xls, ppt or stream.
func (s MessageService) UploadFile(ctx context.Context, fileType, name string, content []byte, durationMS int) (string, error) {
	if fileType == "" {
		fileType = "stream"
	}
	var result struct {
		FileKey string `json:"file_key"`
	}
	err := s.Call(ctx, messageUploadFile, Values{
		"file_type": fileType,
		"file_name": name,
		"duration":  Opt(durationMS),
		"file":      File{Name: name, Content: content},
	}, &result)
	if err != nil {
		return "", err
	}
	return result.FileKey, nil
}

// DownloadFile returns a file uploaded by the app.
func (s MessageService) DownloadFile(ctx context.Context, fileKey string) (*Download, error) {
	return callInto[Download](ctx, s.Client, messageDownloadFile, Values{"file_key": fileKey})
}

// Resource returns an image or file attached to a message. resourceType is
// "image" or "file".
func (s MessageService) Resource(ctx context.Context, messageID, fileKey, resourceType string) (*Download, error) {
	return callInto[Download](ctx, s.Client, messageResource, Values{
		"message_id": messageID,
		"file_key":   fileKey,
		"type":       resourceType,
	})
}
