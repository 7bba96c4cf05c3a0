package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/larkkit/lark-cli/internal/api"
)

var completionsNoCache bool

// CompletionItem represents an autocomplete suggestion
type CompletionItem struct {
	Value       string `json:"value"`
	Label       string `json:"label"`
	Description string `json:"description,omitempty"`
}

func outputCompletionItems(cmd *cobra.Command, items []CompletionItem) error {
	if isJSON(cmd) {
		return printJSON(cmd, items)
	}

	w := newTabWriterFromCmd(cmd)
	for _, item := range items {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\n", item.Value, item.Label, item.Description)
	}
	return w.Flush()
}

func newCompletionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completions",
		Short: "Get autocomplete values",
		Long:  "Retrieve valid values for flags and arguments: chats, endpoints, message types and receive id types",
	}

	cmd.PersistentFlags().BoolVar(&completionsNoCache, "no-cache", false, "Disable completions cache")

	cmd.AddCommand(newCompletionsChatsCmd())
	cmd.AddCommand(newCompletionsEndpointsCmd())
	cmd.AddCommand(newCompletionsStaticCmd("msg-types", "List message types", msgTypeItems))
	cmd.AddCommand(newCompletionsStaticCmd("receive-id-types", "List recipient id types", receiveIDTypeItems))

	return cmd
}

// chatCompletionItems lists the chats of the bot, cached for a few minutes.
func chatCompletionItems(cmd *cobra.Command) ([]CompletionItem, error) {
	client, err := getClient()
	if err != nil {
		return nil, err
	}
	if items, ok := cachedCompletions(cmdContext(cmd), client, "chats"); ok {
		return items, nil
	}

	var items []CompletionItem
	token := ""
	for p := 0; p < maxChatPages; p++ {
		page, err := client.Chat().List(cmdContext(cmd), "", api.PageParams{PageSize: 100, PageToken: token})
		if err != nil {
			return nil, fmt.Errorf("failed to list chats: %w", err)
		}
		for _, c := range page.Items {
			items = append(items, CompletionItem{Value: c.ChatID, Label: c.Name, Description: c.Description})
		}
		if !page.HasMore || page.PageToken == "" {
			break
		}
		token = page.PageToken
	}

	storeCompletions(cmdContext(cmd), client, "chats", items)
	return items, nil
}

func newCompletionsChatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "chats",
		Short: "List chat IDs with names",
		RunE: RunE(func(cmd *cobra.Command, _ []string) error {
			items, err := chatCompletionItems(cmd)
			if err != nil {
				return err
			}
			return outputCompletionItems(cmd, items)
		}),
	}
}

func newCompletionsEndpointsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "endpoints",
		Short: "List endpoint keys for 'lark call'",
		RunE: RunE(func(cmd *cobra.Command, _ []string) error {
			endpoints := api.Endpoints()
			items := make([]CompletionItem, len(endpoints))
			for i, e := range endpoints {
				items[i] = CompletionItem{Value: e.Key(), Label: e.Method + " " + e.Path, Description: e.Doc}
			}
			return outputCompletionItems(cmd, items)
		}),
	}
}

var msgTypeItems = []CompletionItem{
	{Value: api.MsgTypeText, Label: "Text", Description: `{"text": "..."}`},
	{Value: api.MsgTypePost, Label: "Rich text", Description: "Post with title and paragraphs"},
	{Value: api.MsgTypeImage, Label: "Image", Description: `{"image_key": "..."}`},
	{Value: api.MsgTypeFile, Label: "File", Description: `{"file_key": "..."}`},
	{Value: api.MsgTypeInteractive, Label: "Card", Description: "Message card JSON"},
	{Value: api.MsgTypeShareChat, Label: "Shared chat", Description: `{"chat_id": "..."}`},
}

var receiveIDTypeItems = []CompletionItem{
	{Value: "open_id", Label: "Open ID", Description: "ou_ prefix, per app"},
	{Value: "union_id", Label: "Union ID", Description: "on_ prefix, per developer"},
	{Value: "user_id", Label: "User ID", Description: "Tenant-wide employee id"},
	{Value: "email", Label: "Email", Description: "Work email address"},
	{Value: "chat_id", Label: "Chat ID", Description: "oc_ prefix"},
}

func newCompletionsStaticCmd(use, short string, items []CompletionItem) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short + " (static values, no API call)",
		RunE: RunE(func(cmd *cobra.Command, _ []string) error {
			return outputCompletionItems(cmd, items)
		}),
	}
}
