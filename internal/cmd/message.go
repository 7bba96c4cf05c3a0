package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/larkkit/lark-cli/internal/api"
	"github.com/larkkit/lark-cli/internal/iocontext"
	"github.com/larkkit/lark-cli/internal/validation"
)

const uuidAuto = "auto"

func newMessageCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "message",
		Aliases: []string{"msg"},
		Short:   "Send and reply to messages",
	}
	cmd.AddCommand(newMessageSendCmd())
	cmd.AddCommand(newMessageReplyCmd())
	return cmd
}

// messageContent picks the content JSON from --text, --content or
// --content-file. --text always produces a text message.
func messageContent(cmd *cobra.Command, text, content, contentFile, msgType string) (string, string, error) {
	set := 0
	for _, v := range []string{text, content, contentFile} {
		if v != "" {
			set++
		}
	}
	if set == 0 {
		return "", "", errors.New("one of --text, --content or --content-file is required")
	}
	if set > 1 {
		return "", "", errors.New("use only one of --text, --content and --content-file")
	}

	switch {
	case text != "":
		if msgType != "" && msgType != api.MsgTypeText {
			return "", "", fmt.Errorf("--text sends a text message, not %q", msgType)
		}
		return api.MsgTypeText, api.TextContent(text), nil
	case contentFile != "":
		data, err := iocontext.ReadInput(cmdContext(cmd), contentFile)
		if err != nil {
			return "", "", fmt.Errorf("failed to read content: %w", err)
		}
		content = strings.TrimSpace(string(data))
	}
	if msgType == "" {
		return "", "", errors.New("--msg-type is required with --content")
	}
	return msgType, content, nil
}

func dedupeKey(v string) string {
	if v == uuidAuto {
		return uuid.NewString()
	}
	return v
}

func newMessageSendCmd() *cobra.Command {
	var (
		to          string
		toType      string
		chatName    string
		text        string
		content     string
		contentFile string
		msgType     string
		dedupe      string
	)

	cmd := &cobra.Command{
		Use:   "send",
		Short: "Send a message to a user or chat",
		Long: `Send a message as the bot.

The recipient type is inferred from the id prefix (oc_ chat, ou_ open id,
on_ union id, an address with @ is an email) unless --to-type is given.
--chat looks a group up by name instead.

--uuid makes retries idempotent for an hour; "auto" generates one.`,
		Example: `  lark message send --to oc_84983ff6516d731e5b5f68d4ea2e1da5 --text "deploy finished"
  lark message send --chat "Release crew" --text "v1.4.0 is out" --uuid auto
  lark message send --to alice@example.com --msg-type interactive --content-file card.json`,
		Args: cobra.NoArgs,
		RunE: RunE(func(cmd *cobra.Command, _ []string) error {
			if (to == "") == (chatName == "") {
				return errors.New("exactly one of --to or --chat is required")
			}
			kind, body, err := messageContent(cmd, text, content, contentFile, msgType)
			if err != nil {
				return err
			}
			if err := validation.ValidateMessageContent(kind, body); err != nil {
				return err
			}

			client, err := getClient()
			if err != nil {
				return err
			}

			receiveID, receiveType := to, toType
			if chatName != "" {
				if receiveID, err = findChat(cmdContext(cmd), client, chatName); err != nil {
					return err
				}
				receiveType = "chat_id"
			}
			if receiveType == "" {
				inferred, ok := validation.InferReceiveIDType(receiveID)
				if !ok {
					return fmt.Errorf("cannot infer the id type of %q: pass --to-type", receiveID)
				}
				receiveType = inferred
			}
			if err := validation.ValidateReceiveIDType(receiveType); err != nil {
				return err
			}

			send := api.SendMessageRequest{
				ReceiveIDType: receiveType,
				ReceiveID:     receiveID,
				MsgType:       kind,
				Content:       body,
				UUID:          dedupeKey(dedupe),
			}

			if e, ok := api.LookupEndpoint("message.sendMessage"); ok {
				req, err := e.Request(client.BaseURL, api.Values{
					"receive_id_type": send.ReceiveIDType,
					"receive_id":      send.ReceiveID,
					"msg_type":        send.MsgType,
					"content":         send.Content,
					"uuid":            api.Opt(send.UUID),
				})
				if err != nil {
					return err
				}
				if handled, err := maybeDryRun(cmd, req); handled || err != nil {
					return err
				}
			}

			msg, err := client.Message().Send(cmdContext(cmd), send)
			if err != nil {
				return err
			}
			if isJSON(cmd) {
				return printJSON(cmd, msg)
			}
			printAction(cmd, "Sent", "message", msg.MessageID, "")
			return nil
		}),
	}

	fs := cmd.Flags()
	fs.StringVar(&to, "to", "", "Recipient id (chat id, open id, union id or email)")
	fs.StringVar(&toType, "to-type", "", "Recipient id type: open_id|user_id|union_id|email|chat_id")
	fs.StringVar(&chatName, "chat", "", "Group chat name (fuzzy matched)")
	fs.StringVar(&text, "text", "", "Plain text to send")
	fs.StringVar(&content, "content", "", "Content JSON for --msg-type")
	fs.StringVar(&contentFile, "content-file", "", "Read content JSON from file (- for stdin)")
	fs.StringVar(&msgType, "msg-type", "", "text|post|image|file|interactive|share_chat")
	fs.StringVar(&dedupe, "uuid", "", `Deduplication key ("auto" to generate)`)
	registerStaticCompletions(cmd, "to-type", []string{"open_id", "user_id", "union_id", "email", "chat_id"})
	_ = cmd.RegisterFlagCompletionFunc("chat", func(c *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		items, err := chatCompletionItems(c)
		if err != nil {
			return nil, cobra.ShellCompDirectiveNoFileComp
		}
		names := make([]string, 0, len(items))
		for _, item := range items {
			names = append(names, item.Label)
		}
		return names, cobra.ShellCompDirectiveNoFileComp
	})
	registerStaticCompletions(cmd, "msg-type", []string{
		api.MsgTypeText, api.MsgTypePost, api.MsgTypeImage, api.MsgTypeFile, api.MsgTypeInteractive, api.MsgTypeShareChat,
	})
	return withEndpoint(cmd, "message.sendMessage")
}

func newMessageReplyCmd() *cobra.Command {
	var (
		text        string
		content     string
		contentFile string
		msgType     string
		inThread    bool
		dedupe      string
	)

	cmd := &cobra.Command{
		Use:     "reply <message-id>",
		Short:   "Reply to a message",
		Example: `  lark message reply om_dc13264520392913993dd051dba21dcf --text "on it" --thread`,
		Args:    cobra.ExactArgs(1),
		RunE: RunE(func(cmd *cobra.Command, args []string) error {
			kind, body, err := messageContent(cmd, text, content, contentFile, msgType)
			if err != nil {
				return err
			}
			if err := validation.ValidateMessageContent(kind, body); err != nil {
				return err
			}
			client, err := getClient()
			if err != nil {
				return err
			}
			key := dedupeKey(dedupe)

			if e, ok := api.LookupEndpoint("message.replyMessage"); ok {
				req, err := e.Request(client.BaseURL, api.Values{
					"message_id":      args[0],
					"content":         body,
					"msg_type":        kind,
					"reply_in_thread": api.Opt(inThread),
					"uuid":            api.Opt(key),
				})
				if err != nil {
					return err
				}
				if handled, err := maybeDryRun(cmd, req); handled || err != nil {
					return err
				}
			}

			msg, err := client.Message().Reply(cmdContext(cmd), args[0], kind, body, inThread, key)
			if err != nil {
				return err
			}
			if isJSON(cmd) {
				return printJSON(cmd, msg)
			}
			printAction(cmd, "Replied", "with message", msg.MessageID, "")
			return nil
		}),
	}

	fs := cmd.Flags()
	fs.StringVar(&text, "text", "", "Plain text to send")
	fs.StringVar(&content, "content", "", "Content JSON for --msg-type")
	fs.StringVar(&contentFile, "content-file", "", "Read content JSON from file (- for stdin)")
	fs.StringVar(&msgType, "msg-type", "", "text|post|image|file|interactive|share_chat")
	fs.BoolVar(&inThread, "thread", false, "Reply in a thread")
	fs.StringVar(&dedupe, "uuid", "", `Deduplication key ("auto" to generate)`)
	return withEndpoint(cmd, "message.replyMessage")
}
