package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/larkkit/lark-cli/internal/api"
	"github.com/larkkit/lark-cli/internal/auth"
	"github.com/larkkit/lark-cli/internal/cache"
	"github.com/larkkit/lark-cli/internal/config"
	"github.com/larkkit/lark-cli/internal/iocontext"
)

// Token kinds printed by "auth token".
const (
	tokenTenant = "tenant"
	tokenApp    = "app"
	tokenUser   = "user"
)

// newAuthCmd returns the auth command with subcommands
func newAuthCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage app credentials and tokens",
		Long:  "Configure app credentials stored in your OS keychain, switch profiles and inspect access tokens.",
	}

	cmd.AddCommand(newAuthLoginCmd())
	cmd.AddCommand(newAuthStatusCmd())
	cmd.AddCommand(newAuthTokenCmd())
	cmd.AddCommand(newAuthRefreshCmd())
	cmd.AddCommand(newAuthLogoutCmd())
	cmd.AddCommand(newAuthProfilesCmd())
	cmd.AddCommand(newAuthUseCmd())

	return cmd
}

func profileName() string {
	if flags.Profile != "" {
		return flags.Profile
	}
	if current, err := config.CurrentProfile(); err == nil && current != "" {
		return current
	}
	return "default"
}

// newAuthLoginCmd creates the auth login command
func newAuthLoginCmd() *cobra.Command {
	var (
		p           config.Profile
		secretStdin bool
		envFile     string
		code        string
		browser     bool
		callback    string
		noVerify    bool
	)

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Save app credentials, or exchange a login code for a user token",
		Long: strings.TrimSpace(`
Save app credentials to a keychain profile and make it the current one.

The credentials are checked by fetching a tenant access token unless
--no-verify is given or the app is a marketplace (ISV) app, whose tokens need
an app ticket pushed through 'lark event serve'.

With --code, the login code from the OAuth redirect is exchanged for a user
access token, which is stored on the current profile. --browser opens the
authorize page and receives the redirect on a local address; add
http://127.0.0.1:9876/callback (or your --callback-addr) to the app's
redirect URLs first.
`),
		Example: strings.TrimSpace(`
  # Self-built app
  printf '%s' "$SECRET" | lark auth login --app-id cli_xxx --app-secret-stdin

  # Lark (international) tenant under a named profile
  lark auth login --app-id cli_xxx --app-secret s3cr3t --base-url lark --profile intl

  # Load LARK_* values from a .env file
  lark auth login --env-file .env

  # Store a user access token
  lark auth login --code 6a1...

  # Log in as a user through the browser
  lark auth login --browser
`),
		RunE: RunE(func(cmd *cobra.Command, _ []string) error {
			if browser {
				received, err := browserLoginCode(cmd, callback)
				if err != nil {
					return err
				}
				code = received
			}
			if code != "" {
				return loginWithCode(cmd, code)
			}

			profile := config.Profile{}
			if envFile != "" {
				loaded, err := config.ReadDotEnv(envFile)
				if err != nil {
					return err
				}
				profile = loaded
			}
			mergeProfileFlags(cmd, &profile, p)
			if secretStdin {
				secret, err := readSecret(cmd)
				if err != nil {
					return err
				}
				profile.AppSecret = secret
			}
			if profile.AppID == "" {
				return errors.New("--app-id is required")
			}
			if profile.AppSecret == "" {
				return errors.New("--app-secret or --app-secret-stdin is required")
			}
			if profile.ISV && profile.TenantKey == "" {
				return errors.New("--tenant-key is required for --isv apps")
			}
			baseURL, err := config.ExpandBaseURL(profile.BaseURL)
			if err != nil {
				return err
			}
			profile.BaseURL = baseURL

			if !noVerify && !profile.ISV {
				client := newClientFactory().newClient(config.Resolved{Profile: profile}, api.NewMemoryStore())
				if _, err := client.TenantAccessToken(cmdContext(cmd)); err != nil {
					return fmt.Errorf("credential check failed: %w", err)
				}
			}

			name := flags.Profile
			if name == "" {
				name = "default"
			}
			if err := config.SaveProfile(name, profile); err != nil {
				return fmt.Errorf("failed to save credentials: %w", err)
			}

			if isJSON(cmd) {
				return printJSON(cmd, map[string]any{
					"profile":  name,
					"app_id":   profile.AppID,
					"base_url": profile.BaseURL,
					"isv":      profile.ISV,
					"verified": !noVerify && !profile.ISV,
				})
			}
			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintln(out, "Credentials saved.")
			_, _ = fmt.Fprintf(out, "  Profile: %s\n", name)
			_, _ = fmt.Fprintf(out, "  App ID: %s\n", profile.AppID)
			_, _ = fmt.Fprintf(out, "  Base URL: %s\n", profile.BaseURL)
			return nil
		}),
	}

	fs := cmd.Flags()
	fs.StringVar(&p.AppID, "app-id", "", "App ID (cli_...)")
	fs.StringVar(&p.AppSecret, "app-secret", "", "App secret (prefer --app-secret-stdin)")
	fs.BoolVar(&secretStdin, "app-secret-stdin", false, "Read the app secret from stdin")
	fs.StringVar(&p.BaseURL, "base-url", "", "feishu, lark or an https origin (default feishu)")
	fs.StringVar(&p.HelpdeskID, "helpdesk-id", "", "Helpdesk ID for helpdesk APIs")
	fs.StringVar(&p.HelpdeskToken, "helpdesk-token", "", "Helpdesk token for helpdesk APIs")
	fs.StringVar(&p.EncryptKey, "encrypt-key", "", "Event encrypt key")
	fs.StringVar(&p.VerificationToken, "verification-token", "", "Event verification token")
	fs.BoolVar(&p.ISV, "isv", false, "Marketplace app (tokens need an app ticket)")
	fs.StringVar(&p.TenantKey, "tenant-key", "", "Tenant key of a marketplace app installation")
	fs.StringVar(&envFile, "env-file", "", "Load LARK_* values from a .env file")
	fs.StringVar(&code, "code", "", "Exchange a login code for a user access token")
	fs.BoolVar(&browser, "browser", false, "Log in as a user through the browser")
	fs.StringVar(&callback, "callback-addr", auth.DefaultCallbackAddr, "Listen address for the browser login redirect")
	fs.BoolVar(&noVerify, "no-verify", false, "Save without fetching a tenant token first")
	cmd.MarkFlagsMutuallyExclusive("browser", "code")
	registerStaticCompletions(cmd, "base-url", []string{"feishu", "lark"})

	return cmd
}

// mergeProfileFlags copies the login flags the user set onto profile.
func mergeProfileFlags(cmd *cobra.Command, profile *config.Profile, p config.Profile) {
	set := func(name string, dst *string, v string) {
		if cmd.Flags().Changed(name) {
			*dst = strings.TrimSpace(v)
		}
	}
	set("app-id", &profile.AppID, p.AppID)
	set("app-secret", &profile.AppSecret, p.AppSecret)
	set("base-url", &profile.BaseURL, p.BaseURL)
	set("helpdesk-id", &profile.HelpdeskID, p.HelpdeskID)
	set("helpdesk-token", &profile.HelpdeskToken, p.HelpdeskToken)
	set("encrypt-key", &profile.EncryptKey, p.EncryptKey)
	set("verification-token", &profile.VerificationToken, p.VerificationToken)
	set("tenant-key", &profile.TenantKey, p.TenantKey)
	if cmd.Flags().Changed("isv") {
		profile.ISV = p.ISV
	}
}

func readSecret(cmd *cobra.Command) (string, error) {
	reader := bufio.NewReader(iocontext.GetIO(cmd.Context()).In)
	line, err := reader.ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("failed to read app secret from stdin: %w", err)
	}
	secret := strings.TrimSpace(line)
	if secret == "" {
		return "", errors.New("app secret from stdin is empty")
	}
	return secret, nil
}

// browserLoginCode sends the user to the authorize page and waits for the
// redirect carrying the login code.
func browserLoginCode(cmd *cobra.Command, addr string) (string, error) {
	r, err := newClientFactory().resolve()
	if err != nil {
		return "", err
	}
	srv, err := auth.NewCallbackServer()
	if err != nil {
		return "", err
	}
	redirectURI, err := srv.Listen(addr)
	if err != nil {
		return "", err
	}
	authorizeURL := auth.AuthorizeURL(r.Profile.BaseURL, r.Profile.AppID, redirectURI, srv.State())

	errOut := cmd.ErrOrStderr()
	_, _ = fmt.Fprintf(errOut, "Open this URL in your browser to log in:\n  %s\n", authorizeURL)
	if err := auth.OpenBrowser(authorizeURL); err != nil {
		_, _ = fmt.Fprintf(errOut, "Could not open browser automatically: %v\n", err)
	}
	_, _ = fmt.Fprintln(errOut, "Waiting for the login redirect...")

	code, err := srv.Wait(cmdContext(cmd))
	if err != nil {
		return "", fmt.Errorf("browser login: %w", err)
	}
	return code, nil
}

func loginWithCode(cmd *cobra.Command, code string) error {
	client, r, err := newClientFactory().client()
	if err != nil {
		return err
	}
	token, err := client.Auth().ExchangeCode(cmdContext(cmd), code)
	if err != nil {
		return err
	}
	expiresAt := time.Now().Add(time.Duration(token.ExpiresIn) * time.Second)
	name := r.ProfileName
	if name == "" {
		name = profileName()
	}
	if err := config.SaveUserToken(name, token.AccessToken, token.RefreshToken, expiresAt); err != nil {
		return fmt.Errorf("failed to save user token: %w", err)
	}

	if isJSON(cmd) {
		return printJSON(cmd, map[string]any{
			"profile":    name,
			"name":       token.Name,
			"open_id":    token.OpenID,
			"expires_at": expiresAt.UTC().Format(time.RFC3339),
		})
	}
	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(out, "User token saved for %s (%s)\n", token.Name, token.OpenID)
	_, _ = fmt.Fprintf(out, "  Profile: %s\n", name)
	_, _ = fmt.Fprintf(out, "  Expires: %s\n", expiresAt.Format(time.RFC3339))
	return nil
}

func userTokenState(p config.Profile, now time.Time) string {
	switch {
	case p.UserAccessToken == "":
		return "none"
	case p.HasUserToken(now):
		return "valid"
	case p.UserRefreshToken != "":
		return "expired (run 'lark auth refresh')"
	default:
		return "expired"
	}
}

// newAuthStatusCmd creates the auth status command
func newAuthStatusCmd() *cobra.Command {
	var offline bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the active credentials and check that a token can be fetched",
		Example: strings.TrimSpace(`
  lark auth status
  lark auth status --offline --json
`),
		RunE: RunE(func(cmd *cobra.Command, _ []string) error {
			client, r, err := newClientFactory().client()
			if errors.Is(err, config.ErrNotConfigured) {
				if isJSON(cmd) {
					return printJSON(cmd, map[string]any{
						"authenticated": false,
						"message":       "Not authenticated. Run 'lark auth login' to configure credentials.",
					})
				}
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Not authenticated.")
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Run 'lark auth login' to configure credentials.")
				return nil
			}
			if err != nil {
				return err
			}

			p := r.Profile
			status := map[string]any{
				"authenticated": true,
				"profile":       r.ProfileName,
				"app_id":        p.AppID,
				"app_secret":    maskToken(p.AppSecret),
				"base_url":      p.BaseURL,
				"isv":           p.ISV,
				"token_store":   r.StoreKind,
				"helpdesk":      p.HelpdeskID != "" && p.HelpdeskToken != "",
				"user_token":    userTokenState(p, time.Now()),
			}
			if p.TenantKey != "" {
				status["tenant_key"] = p.TenantKey
			}

			if !offline {
				var tokenErr error
				if p.ISV {
					_, tokenErr = client.AppAccessToken(cmdContext(cmd))
				} else {
					_, tokenErr = client.TenantAccessToken(cmdContext(cmd))
				}
				status["token_ok"] = tokenErr == nil
				if tokenErr != nil {
					status["token_error"] = tokenErr.Error()
				}
			}

			if isJSON(cmd) {
				return printJSON(cmd, status)
			}
			w := newTabWriterFromCmd(cmd)
			_, _ = fmt.Fprintf(w, "Profile:\t%s\n", r.ProfileName)
			_, _ = fmt.Fprintf(w, "App ID:\t%s\n", p.AppID)
			_, _ = fmt.Fprintf(w, "App secret:\t%s\n", maskToken(p.AppSecret))
			_, _ = fmt.Fprintf(w, "Base URL:\t%s\n", p.BaseURL)
			if p.ISV {
				_, _ = fmt.Fprintf(w, "ISV tenant:\t%s\n", p.TenantKey)
			}
			_, _ = fmt.Fprintf(w, "Token store:\t%s\n", r.StoreKind)
			_, _ = fmt.Fprintf(w, "User token:\t%s\n", status["user_token"])
			if ok, checked := status["token_ok"].(bool); checked {
				if ok {
					_, _ = fmt.Fprintf(w, "Token check:\tok\n")
				} else {
					_, _ = fmt.Fprintf(w, "Token check:\tfailed: %s\n", status["token_error"])
				}
			}
			return w.Flush()
		}),
	}

	cmd.Flags().BoolVar(&offline, "offline", false, "Do not fetch a token")
	return cmd
}

// newAuthTokenCmd prints an access token for use in other tools.
func newAuthTokenCmd() *cobra.Command {
	var kind string

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Print an access token",
		Example: strings.TrimSpace(`
  curl -H "Authorization: Bearer $(lark auth token)" https://open.feishu.cn/open-apis/bot/v3/info
  lark auth token --type app
`),
		Args: cobra.NoArgs,
		RunE: RunE(func(cmd *cobra.Command, _ []string) error {
			client, r, err := newClientFactory().client()
			if err != nil {
				return err
			}

			var token string
			switch kind {
			case tokenTenant:
				token, err = client.TenantAccessToken(cmdContext(cmd))
			case tokenApp:
				token, err = client.AppAccessToken(cmdContext(cmd))
			case tokenUser:
				token = client.Config().UserAccessToken
				if token == "" {
					err = fmt.Errorf("profile %s: %w", r.ProfileName, api.ErrMissingUserToken)
				}
			default:
				err = api.NewValidationError("token type", kind, []string{tokenTenant, tokenApp, tokenUser})
			}
			if err != nil {
				return err
			}

			if isJSON(cmd) {
				return printJSON(cmd, map[string]any{"type": kind, "token": token})
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		}),
	}

	cmd.Flags().StringVar(&kind, "type", tokenTenant, "Token type: tenant|app|user")
	registerStaticCompletions(cmd, "type", []string{tokenTenant, tokenApp, tokenUser})
	return cmd
}

// newAuthRefreshCmd renews the stored user access token.
func newAuthRefreshCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Refresh the stored user access token",
		Args:  cobra.NoArgs,
		RunE: RunE(func(cmd *cobra.Command, _ []string) error {
			client, r, err := newClientFactory().client()
			if err != nil {
				return err
			}
			if r.Profile.UserRefreshToken == "" {
				return fmt.Errorf("profile %s has no refresh token; run 'lark auth login --code <code>'", r.ProfileName)
			}
			token, err := client.Auth().RefreshUserToken(cmdContext(cmd), r.Profile.UserRefreshToken)
			if err != nil {
				return err
			}
			expiresAt := time.Now().Add(time.Duration(token.ExpiresIn) * time.Second)
			if err := config.SaveUserToken(r.ProfileName, token.AccessToken, token.RefreshToken, expiresAt); err != nil {
				return fmt.Errorf("failed to save user token: %w", err)
			}
			if isJSON(cmd) {
				return printJSON(cmd, map[string]any{
					"profile":    r.ProfileName,
					"expires_at": expiresAt.UTC().Format(time.RFC3339),
				})
			}
			printAction(cmd, "Refreshed", "user token for profile", r.ProfileName, "")
			return nil
		}),
	}
}

// newAuthLogoutCmd creates the auth logout command
func newAuthLogoutCmd() *cobra.Command {
	var keepCache bool

	cmd := &cobra.Command{
		Use:   "logout",
		Short: "Remove a profile from the keychain",
		Long:  "Delete the stored credentials of the current (or --profile) profile and clear cached tokens.",
		Args:  cobra.NoArgs,
		RunE: RunE(func(cmd *cobra.Command, _ []string) error {
			name := profileName()
			if _, err := config.LoadProfile(name); errors.Is(err, config.ErrNotConfigured) {
				printIfNotQuiet(cmd, "No credentials found for profile %s.\n", name)
				return nil
			}
			if err := config.DeleteProfile(name); err != nil {
				return fmt.Errorf("failed to remove credentials: %w", err)
			}
			if !keepCache {
				if dir, err := cache.DefaultDir(); err == nil {
					cache.ClearAll(dir)
				}
			}
			printAction(cmd, "Removed", "profile", name, "")
			return nil
		}),
	}

	cmd.Flags().BoolVar(&keepCache, "keep-cache", false, "Keep cached access tokens")
	return cmd
}

func newAuthProfilesCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "profiles",
		Aliases: []string{"ls"},
		Short:   "List stored profiles",
		Args:    cobra.NoArgs,
		RunE: RunE(func(cmd *cobra.Command, _ []string) error {
			names, err := config.ListProfiles()
			if err != nil {
				return err
			}
			current, _ := config.CurrentProfile()

			type row struct {
				Name    string `json:"name"`
				Current bool   `json:"current"`
			}
			rows := make([]row, 0, len(names))
			for _, n := range names {
				rows = append(rows, row{Name: n, Current: n == current})
			}
			if isJSON(cmd) {
				return printJSON(cmd, map[string]any{"items": rows})
			}
			if len(rows) == 0 {
				_, _ = fmt.Fprintln(cmd.ErrOrStderr(), "No profiles. Run 'lark auth login'.")
				return nil
			}
			for _, r := range rows {
				marker := " "
				if r.Current {
					marker = "*"
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", marker, r.Name)
			}
			return nil
		}),
	}
}

func newAuthUseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "use <profile>",
		Short: "Switch the current profile",
		Args:  cobra.ExactArgs(1),
		RunE: RunE(func(cmd *cobra.Command, args []string) error {
			name := args[0]
			if _, err := config.LoadProfile(name); err != nil {
				if errors.Is(err, config.ErrNotConfigured) {
					return fmt.Errorf("profile %q not found", name)
				}
				return err
			}
			if err := config.SetCurrentProfile(name); err != nil {
				return err
			}
			printAction(cmd, "Switched to", "profile", name, "")
			return nil
		}),
	}
}

// maskToken masks a secret for display, showing only first and last 4 characters
func maskToken(token string) string {
	if len(token) < 8 {
		return strings.Repeat("*", len(token))
	}
	return token[:4] + strings.Repeat("*", len(token)-8) + token[len(token)-4:]
}
