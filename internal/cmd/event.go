package cmd

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/larkkit/lark-cli/internal/api"
	"github.com/larkkit/lark-cli/internal/config"
	"github.com/larkkit/lark-cli/internal/event"
	"github.com/larkkit/lark-cli/internal/iocontext"
	"github.com/larkkit/lark-cli/internal/outfmt"
)

func newEventCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "event",
		Short: "Decode and receive event callbacks",
	}
	cmd.AddCommand(newEventDecodeCmd())
	cmd.AddCommand(newEventServeCmd())
	cmd.AddCommand(newEventResendTicketCmd())
	return cmd
}

// eventOptions merges the flags with the keys of the resolved profile.
// Decoding works without app credentials, so a missing profile is fine.
func eventOptions(encryptKey, verificationToken string) event.Options {
	opts := event.Options{EncryptKey: encryptKey, VerificationToken: verificationToken}
	if r, err := newClientFactory().resolve(); err == nil {
		if opts.EncryptKey == "" {
			opts.EncryptKey = r.Profile.EncryptKey
		}
		if opts.VerificationToken == "" {
			opts.VerificationToken = r.Profile.VerificationToken
		}
	}
	return opts
}

func newEventDecodeCmd() *cobra.Command {
	var encryptKey, verificationToken string

	cmd := &cobra.Command{
		Use:   "decode [file]",
		Short: "Decrypt and parse a callback body from a file or stdin",
		Example: `  lark event decode body.json
  pbpaste | lark event decode --encrypt-key "$KEY"`,
		Args: cobra.MaximumNArgs(1),
		RunE: RunE(func(cmd *cobra.Command, args []string) error {
			input := "-"
			if len(args) > 0 {
				input = args[0]
			}
			body, err := iocontext.ReadInput(cmdContext(cmd), input)
			if err != nil {
				return fmt.Errorf("failed to read event: %w", err)
			}
			ev, err := event.Decode(body, eventOptions(encryptKey, verificationToken))
			if err != nil {
				return err
			}
			return printJSON(cmd, ev)
		}),
	}

	cmd.Flags().StringVar(&encryptKey, "encrypt-key", "", "Encrypt key (default: profile)")
	cmd.Flags().StringVar(&verificationToken, "verification-token", "", "Verification token (default: profile)")
	return cmd
}

func newEventServeCmd() *cobra.Command {
	var (
		addr              string
		path              string
		encryptKey        string
		verificationToken string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run an HTTP endpoint for event callbacks",
		Long: `Run an HTTP endpoint for event callbacks.

URL verification is answered automatically. app_ticket events of marketplace
apps are written to the token store, so app and tenant tokens can be fetched
by any process sharing that store (use --token-store redis across hosts).
Every other event is printed as one JSON line.`,
		Example: `  lark event serve --addr :9000 --token-store redis --redis-url redis://localhost:6379/0
  lark event serve --path /webhook/event --jq '.event.message.content'`,
		Args: cobra.NoArgs,
		RunE: RunE(func(cmd *cobra.Command, _ []string) error {
			opts := eventOptions(encryptKey, verificationToken)

			var store api.TokenStore
			r, err := newClientFactory().resolve()
			switch {
			case err == nil:
				if store, err = r.OpenTokenStore(); err != nil {
					return err
				}
			case errors.Is(err, config.ErrNotConfigured):
				printIfNotQuiet(cmd, "No app credentials: app tickets will not be stored\n")
			default:
				return err
			}

			out := iocontext.GetIO(cmd.Context()).Out
			var mu sync.Mutex
			handler := &event.Handler{
				Options: opts,
				Store:   store,
				OnEvent: func(ctx context.Context, ev *event.Event) error {
					mu.Lock()
					defer mu.Unlock()
					return outfmt.NewFormatter(outfmt.WithMode(ctx, outfmt.JSONL), out, out).Output(ev)
				},
			}

			mux := http.NewServeMux()
			mux.Handle(path, handler)
			srv := &http.Server{
				Handler:           mux,
				ReadHeaderTimeout: 10 * time.Second,
				BaseContext: func(net.Listener) context.Context {
					return cmd.Context()
				},
			}

			ln, err := net.Listen("tcp", addr)
			if err != nil {
				return fmt.Errorf("listen %s: %w", addr, err)
			}
			if !flags.Silent {
				_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Listening on http://%s%s\n", ln.Addr(), path)
			}

			ctx, stop := signal.NotifyContext(cmdContext(cmd), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			errCh := make(chan error, 1)
			go func() { errCh <- srv.Serve(ln) }()

			select {
			case err := <-errCh:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return err
			case <-ctx.Done():
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				return srv.Shutdown(shutdownCtx)
			}
		}),
	}

	cmd.Flags().StringVar(&addr, "addr", ":8080", "Listen address")
	cmd.Flags().StringVar(&path, "path", "/", "Callback path")
	cmd.Flags().StringVar(&encryptKey, "encrypt-key", "", "Encrypt key (default: profile)")
	cmd.Flags().StringVar(&verificationToken, "verification-token", "", "Verification token (default: profile)")
	return cmd
}

func newEventResendTicketCmd() *cobra.Command {
	return withEndpoint(&cobra.Command{
		Use:   "resend-ticket",
		Short: "Ask the platform to push a new app ticket",
		Args:  cobra.NoArgs,
		RunE: RunE(func(cmd *cobra.Command, _ []string) error {
			client, err := getClient()
			if err != nil {
				return err
			}
			if err := client.Auth().ResendAppTicket(cmdContext(cmd)); err != nil {
				return err
			}
			printAction(cmd, "Requested", "a new app ticket", nil, "")
			return nil
		}),
	}, "auth.appTicketResend")
}
