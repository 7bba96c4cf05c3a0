package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/larkkit/lark-cli/internal/api"
	"github.com/larkkit/lark-cli/internal/resolve"
)

// maxChatPages bounds how far name lookups page through the chat list.
const maxChatPages = 20

func newChatCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "chat",
		Aliases: []string{"chats"},
		Short:   "List group chats",
	}
	cmd.AddCommand(newChatListCmd())
	return cmd
}

func newChatListCmd() *cobra.Command {
	var (
		pageSize   int
		pageToken  string
		all        bool
		userIDType string
	)

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List chats the bot belongs to",
		Example: `  lark chat list
  lark chat list --all --json
  lark chat list --page-size 50 --page-token xxx`,
		Args: cobra.NoArgs,
		RunE: RunE(func(cmd *cobra.Command, _ []string) error {
			client, err := getClient()
			if err != nil {
				return err
			}

			var (
				chats     []api.Chat
				hasMore   bool
				nextToken = pageToken
			)
			for page := 0; ; page++ {
				res, err := client.Chat().List(cmdContext(cmd), userIDType, api.PageParams{PageSize: pageSize, PageToken: nextToken})
				if err != nil {
					return err
				}
				chats = append(chats, res.Items...)
				hasMore, nextToken = res.HasMore, res.PageToken
				if !all || !hasMore || nextToken == "" || page+1 >= maxChatPages {
					break
				}
			}

			if isJSON(cmd) {
				payload := map[string]any{"items": chats, "has_more": hasMore}
				if hasMore {
					payload["page_token"] = nextToken
				}
				return printJSON(cmd, payload)
			}

			f := newFormatter(cmd)
			if len(chats) == 0 {
				f.Empty("No chats found")
				return nil
			}
			f.StartTable([]string{"CHAT ID", "NAME", "MODE", "EXTERNAL"})
			for _, c := range chats {
				f.Row(c.ChatID, c.Name, c.ChatMode, fmt.Sprint(c.External))
			}
			if err := f.EndTable(); err != nil {
				return err
			}
			if hasMore && !flags.Quiet {
				_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "More results: --page-token %s\n", nextToken)
			}
			return nil
		}),
	}

	cmd.Flags().IntVar(&pageSize, "page-size", 0, "Chats per page (server default when 0)")
	cmd.Flags().StringVar(&pageToken, "page-token", "", "Continue from a previous page")
	cmd.Flags().BoolVar(&all, "all", false, "Fetch every page")
	cmd.Flags().StringVar(&userIDType, "user-id-type", "", "open_id, user_id or union_id for owner ids")
	registerStaticCompletions(cmd, "user-id-type", []string{"open_id", "user_id", "union_id"})
	return withEndpoint(cmd, "chat.listChats")
}

// findChat resolves a chat name to its ID by paging through the chats the
// bot belongs to.
func findChat(ctx context.Context, client *api.Client, name string) (string, error) {
	var chats []api.Chat
	token := ""
	for page := 0; page < maxChatPages; page++ {
		res, err := client.Chat().List(ctx, "", api.PageParams{PageSize: 100, PageToken: token})
		if err != nil {
			return "", err
		}
		chats = append(chats, res.Items...)
		if !res.HasMore || res.PageToken == "" {
			break
		}
		token = res.PageToken
	}
	id, err := resolve.Best(name, resolve.Chats(chats))
	if err != nil {
		return "", fmt.Errorf("chat %q: %w", name, err)
	}
	return id, nil
}
