package api

import (
	"crypto/tls"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

const (
	FeishuBaseURL = "https://open.feishu.cn"
	LarkBaseURL   = "https://open.larksuite.com"

	DefaultTimeout = 30 * time.Second
)

// Config holds everything a Client needs. It is supplied once at construction
// and never re-specified per call.
type Config struct {
	AppID     string
	AppSecret string

	// HelpdeskID and HelpdeskToken authenticate helpdesk-scoped endpoints.
	HelpdeskID    string
	HelpdeskToken string

	// EncryptKey and VerificationToken are used by event callback decoding.
	EncryptKey        string
	VerificationToken string

	// BaseURL defaults to FeishuBaseURL.
	BaseURL string

	// ISV marks a marketplace app: app tokens need an app ticket and tenant
	// tokens are minted per TenantKey.
	ISV       bool
	TenantKey string

	// UserAccessToken is used for endpoints that accept a user token.
	UserAccessToken string

	Timeout    time.Duration
	TokenStore TokenStore
	HTTPClient *http.Client
	Logger     *slog.Logger
	UserAgent  string
}

// Client is the Open Platform API client.
//
// A Client is safe for concurrent use. The token store is the only state
// shared between in-flight requests; token refreshes for the same key are
// coalesced so concurrent callers wait for a single fetch.
type Client struct {
	BaseURL   string
	UserAgent string
	HTTP      *http.Client
	Logger    *slog.Logger

	cfg    Config
	tokens TokenStore
	flight singleflight.Group

	// now is replaced in tests.
	now func() time.Time

	rateLimitMu   sync.Mutex
	lastRateLimit *RateLimitInfo
}

// New creates a new Open Platform API client.
func New(cfg Config) *Client {
	baseURL := strings.TrimSuffix(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = FeishuBaseURL
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		baseTransport, ok := http.DefaultTransport.(*http.Transport)
		if !ok {
			baseTransport = &http.Transport{}
		}
		transport := baseTransport.Clone()
		if transport.TLSClientConfig == nil {
			transport.TLSClientConfig = &tls.Config{}
		} else {
			transport.TLSClientConfig = transport.TLSClientConfig.Clone()
		}
		transport.TLSClientConfig.MinVersion = tls.VersionTLS12

		timeout := cfg.Timeout
		if timeout == 0 {
			timeout = DefaultTimeout
		}
		httpClient = &http.Client{
			Timeout:   timeout,
			Transport: transport,
		}
	} else {
		clone := *httpClient
		httpClient = &clone
		if cfg.Timeout > 0 {
			httpClient.Timeout = cfg.Timeout
		}
	}
	// The envelope, not the redirect target, decides the outcome.
	httpClient.CheckRedirect = func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}

	store := cfg.TokenStore
	if store == nil {
		store = NewMemoryStore()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	cfg.BaseURL = baseURL
	return &Client{
		BaseURL:   baseURL,
		UserAgent: cfg.UserAgent,
		HTTP:      httpClient,
		Logger:    logger,
		cfg:       cfg,
		tokens:    store,
		now:       time.Now,
	}
}

// Config returns a copy of the configuration the client was built with.
func (c *Client) Config() Config {
	return c.cfg
}

// TokenStore returns the store used for access tokens and app tickets.
func (c *Client) TokenStore() TokenStore {
	return c.tokens
}

// url joins the base URL with an API path.
func (c *Client) url(path string) string {
	if path != "" && path[0] != '/' {
		path = "/" + path
	}
	return c.BaseURL + path
}
