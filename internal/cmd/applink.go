package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/larkkit/lark-cli/internal/applink"
	"github.com/larkkit/lark-cli/internal/cli"
)

// parseLinkTime reads a time flag in local time unless it carries an offset.
func parseLinkTime(flag, v string) (time.Time, error) {
	if v == "" {
		return time.Time{}, nil
	}
	t, err := cli.ParseTime(v, time.Now())
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --%s %q: use RFC3339, YYYY-MM-DD, \"YYYY-MM-DD HH:MM\", a day such as \"tomorrow 10:00\" or an offset such as \"2h\"", flag, v)
	}
	return t, nil
}

func newAppLinkCmd() *cobra.Command {
	var lark bool

	cmd := &cobra.Command{
		Use:   "applink",
		Short: "Print AppLink URLs that open pages in the client",
		Long: `Print AppLink URLs that open client pages such as a bot chat, a mini
program or the calendar. The Lark host is used when --lark is set or the
current profile points at open.larksuite.com.`,
	}
	cmd.PersistentFlags().BoolVar(&lark, "lark", false, "Use the Lark (international) AppLink host")

	builder := func() applink.Builder {
		if lark {
			return applink.Builder{Host: applink.LarkHost}
		}
		if r, err := newClientFactory().resolve(); err == nil {
			return applink.ForBaseURL(r.Profile.BaseURL)
		}
		return applink.Builder{Host: applink.FeishuHost}
	}

	cmd.AddCommand(newAppLinkMiniProgramCmd(builder))
	cmd.AddCommand(newAppLinkWebAppCmd(builder))
	cmd.AddCommand(newAppLinkBotCmd(builder))
	cmd.AddCommand(newAppLinkChatCmd(builder))
	cmd.AddCommand(newAppLinkCalendarCmd(builder))
	cmd.AddCommand(newAppLinkEventCmd(builder))
	cmd.AddCommand(newAppLinkDocsCmd(builder))
	cmd.AddCommand(newAppLinkWebURLCmd(builder))
	cmd.AddCommand(newAppLinkScanCmd(builder))
	return cmd
}

func printLink(cmd *cobra.Command, link string) error {
	if isJSON(cmd) {
		return printJSON(cmd, map[string]any{"url": link})
	}
	_, _ = fmt.Fprintln(cmd.OutOrStdout(), link)
	return nil
}

var linkModes = []string{applink.ModeWindow, applink.ModeWindowSemi, applink.ModeSidebarSemi, applink.ModeAppCenter}

func newAppLinkMiniProgramCmd(builder func() applink.Builder) *cobra.Command {
	var p applink.MiniProgram
	cmd := &cobra.Command{
		Use:     "mini-program <app-id>",
		Aliases: []string{"gadget"},
		Short:   "Open a mini program",
		Args:    cobra.ExactArgs(1),
		RunE: RunE(func(cmd *cobra.Command, args []string) error {
			p.AppID = args[0]
			link, err := builder().MiniProgram(p)
			if err != nil {
				return err
			}
			return printLink(cmd, link)
		}),
	}
	cmd.Flags().StringVar(&p.Mode, "mode", "", "window|window-semi|sidebar-semi|appCenter")
	cmd.Flags().StringVar(&p.Path, "path", "", "Page path on every platform")
	cmd.Flags().StringVar(&p.PathAndroid, "path-android", "", "Page path on Android")
	cmd.Flags().StringVar(&p.PathIOS, "path-ios", "", "Page path on iOS")
	cmd.Flags().StringVar(&p.PathPC, "path-pc", "", "Page path on desktop")
	registerStaticCompletions(cmd, "mode", linkModes)
	return cmd
}

func newAppLinkWebAppCmd(builder func() applink.Builder) *cobra.Command {
	var p applink.WebApp
	cmd := &cobra.Command{
		Use:   "web-app <app-id>",
		Short: "Open a web app",
		Args:  cobra.ExactArgs(1),
		RunE: RunE(func(cmd *cobra.Command, args []string) error {
			p.AppID = args[0]
			link, err := builder().WebApp(p)
			if err != nil {
				return err
			}
			return printLink(cmd, link)
		}),
	}
	cmd.Flags().StringVar(&p.Mode, "mode", "", "window|window-semi|sidebar-semi|appCenter")
	cmd.Flags().StringVar(&p.Path, "path", "", "Path appended to the app's home page")
	registerStaticCompletions(cmd, "mode", linkModes)
	return cmd
}

func newAppLinkBotCmd(builder func() applink.Builder) *cobra.Command {
	return &cobra.Command{
		Use:   "bot [app-id]",
		Short: "Open the chat with an app's bot (default: the current app)",
		Args:  cobra.MaximumNArgs(1),
		RunE: RunE(func(cmd *cobra.Command, args []string) error {
			appID := ""
			if len(args) > 0 {
				appID = args[0]
			} else if r, err := newClientFactory().resolve(); err == nil {
				appID = r.Profile.AppID
			}
			link, err := builder().Bot(appID)
			if err != nil {
				return err
			}
			return printLink(cmd, link)
		}),
	}
}

func newAppLinkChatCmd(builder func() applink.Builder) *cobra.Command {
	var p applink.Chat
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Open a direct chat (--open-id) or a group (--chat-id)",
		Args:  cobra.NoArgs,
		RunE: RunE(func(cmd *cobra.Command, _ []string) error {
			link, err := builder().Chat(p)
			if err != nil {
				return err
			}
			return printLink(cmd, link)
		}),
	}
	cmd.Flags().StringVar(&p.OpenID, "open-id", "", "Open id of the user")
	cmd.Flags().StringVar(&p.OpenChatID, "chat-id", "", "Chat id of the group")
	cmd.MarkFlagsMutuallyExclusive("open-id", "chat-id")
	return cmd
}

func newAppLinkCalendarCmd(builder func() applink.Builder) *cobra.Command {
	var view, date string
	cmd := &cobra.Command{
		Use:   "calendar",
		Short: "Open the calendar view",
		Args:  cobra.NoArgs,
		RunE: RunE(func(cmd *cobra.Command, _ []string) error {
			d, err := parseLinkTime("date", date)
			if err != nil {
				return err
			}
			return printLink(cmd, builder().Calendar(applink.Calendar{Type: view, Date: d}))
		}),
	}
	cmd.Flags().StringVar(&view, "type", "", "day|three_day|week|month")
	cmd.Flags().StringVar(&date, "date", "", "Date to show (e.g. 2024-03-01, today, next mon)")
	registerStaticCompletions(cmd, "type", []string{"day", "three_day", "week", "month"})
	return cmd
}

func newAppLinkEventCmd(builder func() applink.Builder) *cobra.Command {
	var start, end, summary string
	cmd := &cobra.Command{
		Use:   "event",
		Short: "Open the calendar event creation page",
		Args:  cobra.NoArgs,
		RunE: RunE(func(cmd *cobra.Command, _ []string) error {
			s, err := parseLinkTime("start", start)
			if err != nil {
				return err
			}
			e, err := parseLinkTime("end", end)
			if err != nil {
				return err
			}
			link, err := builder().CalendarEvent(applink.CalendarEvent{Start: s, End: e, Summary: summary})
			if err != nil {
				return err
			}
			return printLink(cmd, link)
		}),
	}
	cmd.Flags().StringVar(&start, "start", "", "Start time (e.g. \"2024-03-01 10:00\", \"tomorrow 10:00\", 2h)")
	cmd.Flags().StringVar(&end, "end", "", "End time")
	cmd.Flags().StringVar(&summary, "summary", "", "Event title")
	return cmd
}

func newAppLinkDocsCmd(builder func() applink.Builder) *cobra.Command {
	return &cobra.Command{
		Use:   "docs <url>",
		Short: "Open a cloud document",
		Args:  cobra.ExactArgs(1),
		RunE: RunE(func(cmd *cobra.Command, args []string) error {
			link, err := builder().Docs(args[0])
			if err != nil {
				return err
			}
			return printLink(cmd, link)
		}),
	}
}

func newAppLinkWebURLCmd(builder func() applink.Builder) *cobra.Command {
	var mode string
	cmd := &cobra.Command{
		Use:   "web-url <url>",
		Short: "Open a web page in the client browser",
		Args:  cobra.ExactArgs(1),
		RunE: RunE(func(cmd *cobra.Command, args []string) error {
			link, err := builder().WebURL(args[0], mode)
			if err != nil {
				return err
			}
			return printLink(cmd, link)
		}),
	}
	cmd.Flags().StringVar(&mode, "mode", "", "window|sidebar-semi")
	return cmd
}

func newAppLinkScanCmd(builder func() applink.Builder) *cobra.Command {
	return &cobra.Command{
		Use:   "scan",
		Short: "Open the QR code scanner",
		Args:  cobra.NoArgs,
		RunE: RunE(func(cmd *cobra.Command, _ []string) error {
			return printLink(cmd, builder().Scan())
		}),
	}
}
