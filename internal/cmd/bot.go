package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newBotCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bot",
		Short: "Inspect the app's bot",
	}
	cmd.AddCommand(newBotInfoCmd())
	return cmd
}

func newBotInfoCmd() *cobra.Command {
	return withEndpoint(&cobra.Command{
		Use:   "info",
		Short: "Show the bot profile",
		Args:  cobra.NoArgs,
		RunE: RunE(func(cmd *cobra.Command, _ []string) error {
			client, err := getClient()
			if err != nil {
				return err
			}
			info, err := client.Bot().Info(cmdContext(cmd))
			if err != nil {
				return err
			}
			if isJSON(cmd) {
				return printJSON(cmd, info)
			}

			status := "inactive"
			switch info.ActivateStatus {
			case 2:
				status = "active"
			case 3:
				status = "disabled"
			}
			w := newTabWriterFromCmd(cmd)
			_, _ = fmt.Fprintf(w, "Name:\t%s\n", info.AppName)
			_, _ = fmt.Fprintf(w, "Open ID:\t%s\n", info.OpenID)
			_, _ = fmt.Fprintf(w, "Status:\t%s\n", status)
			if info.AvatarURL != "" {
				_, _ = fmt.Fprintf(w, "Avatar:\t%s\n", info.AvatarURL)
			}
			if len(info.IPWhiteList) > 0 {
				_, _ = fmt.Fprintf(w, "IP allowlist:\t%s\n", strings.Join(info.IPWhiteList, ", "))
			}
			return w.Flush()
		}),
	}, "bot.getBotInfo")
}
