package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/larkkit/lark-cli/internal/api"
	"github.com/larkkit/lark-cli/internal/cache"
	"github.com/larkkit/lark-cli/internal/validation"
)

// Token store kinds selectable with --token-store or LARK_TOKEN_STORE.
const (
	StoreMemory = "memory"
	StoreFile   = "file"
	StoreRedis  = "redis"
)

// Env holds the LARK_* environment overrides.
type Env struct {
	Profile           string        `env:"PROFILE"`
	AppID             string        `env:"APP_ID"`
	AppSecret         string        `env:"APP_SECRET"`
	BaseURL           string        `env:"BASE_URL"`
	HelpdeskID        string        `env:"HELPDESK_ID"`
	HelpdeskToken     string        `env:"HELPDESK_TOKEN"`
	EncryptKey        string        `env:"ENCRYPT_KEY"`
	VerificationToken string        `env:"VERIFICATION_TOKEN"`
	ISV               bool          `env:"ISV"`
	TenantKey         string        `env:"TENANT_KEY"`
	UserAccessToken   string        `env:"USER_ACCESS_TOKEN"`
	TokenStore        string        `env:"TOKEN_STORE"`
	RedisURL          string        `env:"REDIS_URL"`
	RedisPrefix       string        `env:"REDIS_PREFIX"`
	Timeout           time.Duration `env:"TIMEOUT"`
}

// LoadEnv parses the LARK_* variables.
func LoadEnv() (Env, error) {
	var e Env
	if err := env.ParseWithOptions(&e, env.Options{Prefix: "LARK_"}); err != nil {
		return Env{}, fmt.Errorf("invalid LARK_* environment: %w", err)
	}
	return e, nil
}

// DotEnvPath is the optional .env file loaded before the environment is read.
func DotEnvPath() string {
	return filepath.Join(ConfigDir(), ".env")
}

// LoadDotEnv loads path if it exists. Variables already set in the
// environment are not overwritten, so explicit exports take precedence.
func LoadDotEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// ReadDotEnv returns a profile from the LARK_* keys of a .env file without
// touching the process environment.
func ReadDotEnv(path string) (Profile, error) {
	vars, err := godotenv.Read(path)
	if err != nil {
		return Profile{}, fmt.Errorf("read %s: %w", path, err)
	}
	e, err := env.ParseAsWithOptions[Env](env.Options{Prefix: "LARK_", Environment: vars})
	if err != nil {
		return Profile{}, fmt.Errorf("parse %s: %w", path, err)
	}
	p := Profile{}
	applyEnv(&p, e)
	return p, nil
}

// Overrides are command-line settings; they win over env and profile.
type Overrides struct {
	Profile    string
	BaseURL    string
	TokenStore string
	RedisURL   string
	Timeout    time.Duration
	UserToken  string
}

// Resolved is the outcome of merging profile, environment and flags.
type Resolved struct {
	ProfileName string
	Profile     Profile
	StoreKind   string
	RedisURL    string
	RedisPrefix string
	Timeout     time.Duration
}

// Resolve merges the stored profile, LARK_* variables and overrides.
// Credentials may come from the environment alone, in which case a missing
// keyring profile is not an error.
func Resolve(o Overrides) (Resolved, error) {
	e, err := LoadEnv()
	if err != nil {
		return Resolved{}, err
	}

	var (
		name    = firstNonEmpty(o.Profile, e.Profile)
		profile Profile
		loadErr error
	)
	// Full credentials in the environment skip the keyring unless a profile
	// is asked for explicitly.
	if name != "" || e.AppID == "" || e.AppSecret == "" {
		if name == "" {
			if name, err = CurrentProfile(); err != nil {
				name = defaultProfile
			}
		}
		// Env-only setups (CI, containers) have no keyring profile.
		if profile, loadErr = LoadProfile(name); loadErr != nil {
			profile = Profile{}
		}
	}
	applyEnv(&profile, e)
	if o.BaseURL != "" {
		profile.BaseURL = o.BaseURL
	}
	if o.UserToken != "" {
		profile.UserAccessToken = o.UserToken
		profile.UserTokenExpiresAt = time.Time{}
	}

	if profile.AppID == "" || profile.AppSecret == "" {
		if loadErr != nil && !errors.Is(loadErr, ErrNotConfigured) {
			return Resolved{}, loadErr
		}
		return Resolved{}, ErrNotConfigured
	}
	baseURL, err := ExpandBaseURL(profile.BaseURL)
	if err != nil {
		return Resolved{}, err
	}
	profile.BaseURL = baseURL

	r := Resolved{
		ProfileName: name,
		Profile:     profile,
		StoreKind:   firstNonEmpty(o.TokenStore, e.TokenStore, StoreFile),
		RedisURL:    firstNonEmpty(o.RedisURL, e.RedisURL),
		RedisPrefix: e.RedisPrefix,
		Timeout:     e.Timeout,
	}
	if o.Timeout > 0 {
		r.Timeout = o.Timeout
	}
	if err := validateStore(r.StoreKind, r.RedisURL); err != nil {
		return Resolved{}, err
	}
	return r, nil
}

func applyEnv(p *Profile, e Env) {
	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	set(&p.AppID, e.AppID)
	set(&p.AppSecret, e.AppSecret)
	set(&p.BaseURL, e.BaseURL)
	set(&p.HelpdeskID, e.HelpdeskID)
	set(&p.HelpdeskToken, e.HelpdeskToken)
	set(&p.EncryptKey, e.EncryptKey)
	set(&p.VerificationToken, e.VerificationToken)
	set(&p.TenantKey, e.TenantKey)
	if e.UserAccessToken != "" {
		p.UserAccessToken = e.UserAccessToken
		p.UserTokenExpiresAt = time.Time{}
	}
	if e.ISV {
		p.ISV = true
	}
}

// ExpandBaseURL maps the "feishu" and "lark" shortcuts and validates
// anything else as an https origin.
func ExpandBaseURL(raw string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "feishu":
		return api.FeishuBaseURL, nil
	case "lark", "larksuite":
		return api.LarkBaseURL, nil
	}
	raw = strings.TrimSuffix(strings.TrimSpace(raw), "/")
	if err := validation.ValidateBaseURL(raw); err != nil {
		return "", fmt.Errorf("invalid base URL: %w", err)
	}
	return raw, nil
}

func validateStore(kind, redisURL string) error {
	switch kind {
	case StoreMemory, StoreFile:
		return nil
	case StoreRedis:
		if redisURL == "" {
			return errors.New("redis token store needs LARK_REDIS_URL or --redis-url")
		}
		return validation.ValidateRedisURL(redisURL)
	default:
		return api.NewValidationError("token store", kind, []string{StoreMemory, StoreFile, StoreRedis})
	}
}

// OpenTokenStore builds the store selected by r.
func (r Resolved) OpenTokenStore() (api.TokenStore, error) {
	switch r.StoreKind {
	case StoreMemory:
		return api.NewMemoryStore(), nil
	case StoreRedis:
		return api.NewRedisStoreFromURL(r.RedisURL, r.RedisPrefix)
	default:
		dir, err := cache.DefaultDir()
		if err != nil {
			return nil, fmt.Errorf("token cache dir: %w", err)
		}
		return cache.NewTokenStore(dir), nil
	}
}

// APIConfig turns the resolved profile into a client configuration. The
// caller fills in TokenStore, Logger and HTTPClient.
func (r Resolved) APIConfig(now time.Time) api.Config {
	p := r.Profile
	cfg := api.Config{
		AppID:             p.AppID,
		AppSecret:         p.AppSecret,
		HelpdeskID:        p.HelpdeskID,
		HelpdeskToken:     p.HelpdeskToken,
		EncryptKey:        p.EncryptKey,
		VerificationToken: p.VerificationToken,
		BaseURL:           p.BaseURL,
		ISV:               p.ISV,
		TenantKey:         p.TenantKey,
		Timeout:           r.Timeout,
	}
	if p.HasUserToken(now) {
		cfg.UserAccessToken = p.UserAccessToken
	}
	return cfg
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
