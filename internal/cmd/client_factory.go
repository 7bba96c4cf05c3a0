package cmd

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/larkkit/lark-cli/internal/api"
	"github.com/larkkit/lark-cli/internal/config"
)

type clientFactory struct {
	overrides config.Overrides
	userAgent string
	logger    *slog.Logger
	now       func() time.Time
}

func newClientFactory() *clientFactory {
	o := config.Overrides{
		Profile:    flags.Profile,
		TokenStore: flags.TokenStore,
		RedisURL:   flags.RedisURL,
		UserToken:  flags.UserToken,
	}
	if flags.TimeoutSet {
		o.Timeout = flags.Timeout
	}
	return &clientFactory{
		overrides: o,
		userAgent: fmt.Sprintf("lark-cli/%s", version),
		logger:    slog.Default(),
		now:       time.Now,
	}
}

func (f *clientFactory) resolve() (config.Resolved, error) {
	return config.Resolve(f.overrides)
}

// client builds an API client for the resolved profile with its own token
// store.
func (f *clientFactory) client() (*api.Client, config.Resolved, error) {
	r, err := f.resolve()
	if err != nil {
		return nil, config.Resolved{}, err
	}
	store, err := r.OpenTokenStore()
	if err != nil {
		return nil, config.Resolved{}, err
	}
	return f.newClient(r, store), r, nil
}

func (f *clientFactory) newClient(r config.Resolved, store api.TokenStore) *api.Client {
	cfg := r.APIConfig(f.now())
	cfg.TokenStore = store
	cfg.Logger = f.logger
	cfg.UserAgent = f.userAgent
	return api.New(cfg)
}

// getClient creates an API client from the resolved profile, environment
// and flags.
func getClient() (*api.Client, error) {
	client, _, err := newClientFactory().client()
	return client, err
}
