package api

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// tokenExpiryDelta is subtracted from the platform-reported lifetime so a
// cached token is refreshed before the platform stops accepting it.
const tokenExpiryDelta = 3 * time.Minute

const helpdeskAuthHeader = "X-Lark-Helpdesk-Authorization"

var (
	authTenantTokenInternal = register(Endpoint{
		Scope: "Auth", Name: "tenantAccessTokenInternal", Method: http.MethodPost,
		Path: "/open-apis/auth/v3/tenant_access_token/internal",
		Body: []string{"app_id", "app_secret"},
		Doc:  "Tenant access token for a self-built app",
	})
	authAppTokenInternal = register(Endpoint{
		Scope: "Auth", Name: "appAccessTokenInternal", Method: http.MethodPost,
		Path: "/open-apis/auth/v3/app_access_token/internal",
		Body: []string{"app_id", "app_secret"},
		Doc:  "App access token for a self-built app",
	})
	authAppToken = register(Endpoint{
		Scope: "Auth", Name: "appAccessToken", Method: http.MethodPost,
		Path: "/open-apis/auth/v3/app_access_token",
		Body: []string{"app_id", "app_secret", "app_ticket"},
		Doc:  "App access token for a marketplace app",
	})
	authTenantToken = register(Endpoint{
		Scope: "Auth", Name: "tenantAccessToken", Method: http.MethodPost,
		Path: "/open-apis/auth/v3/tenant_access_token",
		Body: []string{"app_access_token", "tenant_key"},
		Doc:  "Tenant access token for a marketplace app",
	})
	authAppTicketResend = register(Endpoint{
		Scope: "Auth", Name: "appTicketResend", Method: http.MethodPost,
		Path: "/open-apis/auth/v3/app_ticket/resend",
		Body: []string{"app_id", "app_secret"},
		Doc:  "Ask the platform to push the app ticket again",
	})
	authUserAccessToken = register(Endpoint{
		Scope: "Auth", Name: "getUserAccessToken", Method: http.MethodPost,
		Path: "/open-apis/authen/v1/access_token",
		Body: []string{"grant_type", "code"},
		Caps: NeedAppToken,
		Doc:  "Exchange a login code for a user access token",
	})
	authRefreshUserAccessToken = register(Endpoint{
		Scope: "Auth", Name: "refreshUserAccessToken", Method: http.MethodPost,
		Path: "/open-apis/authen/v1/refresh_access_token",
		Body: []string{"grant_type", "refresh_token"},
		Caps: NeedAppToken,
		Doc:  "Refresh a user access token",
	})
	authUserInfo = register(Endpoint{
		Scope: "Auth", Name: "getUserInfo", Method: http.MethodGet,
		Path: "/open-apis/authen/v1/user_info",
		Caps: NeedUserToken,
		Doc:  "Profile of the user owning the user access token",
	})
)

type accessTokenResponse struct {
	TenantAccessToken string `json:"tenant_access_token"`
	AppAccessToken    string `json:"app_access_token"`
	Expire            int    `json:"expire"`
}

func (r accessTokenResponse) ttl() time.Duration {
	return time.Duration(r.Expire)*time.Second - tokenExpiryDelta
}

// authorize attaches credentials to an outgoing request. A configured user
// token wins over tenant and app tokens; the helpdesk header is added on top
// of whichever bearer token applies.
func (c *Client) authorize(ctx context.Context, httpReq *http.Request, req Request) error {
	userToken := req.UserAccessToken
	if userToken == "" {
		userToken = c.cfg.UserAccessToken
	}

	switch {
	case req.Caps.Has(NeedUserToken) && userToken != "":
		httpReq.Header.Set("Authorization", "Bearer "+userToken)
	case req.Caps.Has(NeedTenantToken):
		token, err := c.TenantAccessToken(ctx)
		if err != nil {
			return err
		}
		httpReq.Header.Set("Authorization", "Bearer "+token)
	case req.Caps.Has(NeedAppToken):
		token, err := c.AppAccessToken(ctx)
		if err != nil {
			return err
		}
		httpReq.Header.Set("Authorization", "Bearer "+token)
	case req.Caps.Has(NeedUserToken):
		return fmt.Errorf("%s %s: %w", req.Scope, req.API, ErrMissingUserToken)
	}

	if req.Caps.Has(NeedHelpdeskAuth) {
		if c.cfg.HelpdeskID == "" || c.cfg.HelpdeskToken == "" {
			return fmt.Errorf("%s %s: %w", req.Scope, req.API, ErrMissingHelpdeskCredentials)
		}
		raw := c.cfg.HelpdeskID + ":" + c.cfg.HelpdeskToken
		httpReq.Header.Set(helpdeskAuthHeader, base64.StdEncoding.EncodeToString([]byte(raw)))
	}
	return nil
}

// TenantAccessToken returns a cached tenant access token or fetches a new one.
func (c *Client) TenantAccessToken(ctx context.Context) (string, error) {
	if err := c.requireAppCredentials(); err != nil {
		return "", err
	}
	tenantKey := ""
	if c.cfg.ISV {
		if c.cfg.TenantKey == "" {
			return "", errors.New("tenant key is required for marketplace apps")
		}
		tenantKey = c.cfg.TenantKey
	}
	return c.cachedToken(ctx, tenantTokenKey(tokenHost(c.BaseURL), c.cfg.AppID, tenantKey), c.fetchTenantToken)
}

// AppAccessToken returns a cached app access token or fetches a new one.
func (c *Client) AppAccessToken(ctx context.Context) (string, error) {
	if err := c.requireAppCredentials(); err != nil {
		return "", err
	}
	return c.cachedToken(ctx, appTokenKey(tokenHost(c.BaseURL), c.cfg.AppID), c.fetchAppToken)
}

func (c *Client) requireAppCredentials() error {
	if c.cfg.AppID == "" || c.cfg.AppSecret == "" {
		return ErrMissingCredentials
	}
	return nil
}

// cachedToken serves key from the store, or runs fetch once for all
// concurrent callers asking for the same key.
func (c *Client) cachedToken(ctx context.Context, key string, fetch func(context.Context) (string, time.Duration, error)) (string, error) {
	token, err := c.tokens.Get(ctx, key)
	if err == nil {
		return token, nil
	}
	if !errors.Is(err, ErrTokenNotFound) {
		return "", err
	}

	// The shared fetch outlives any single caller; each caller still stops
	// waiting when its own context ends.
	shared := context.WithoutCancel(ctx)
	ch := c.flight.DoChan(key, func() (any, error) {
		if token, err := c.tokens.Get(shared, key); err == nil {
			return token, nil
		}
		token, ttl, err := fetch(shared)
		if err != nil {
			return "", err
		}
		if ttl > 0 {
			if err := c.tokens.Set(shared, key, token, ttl); err != nil {
				return "", err
			}
		}
		return token, nil
	})
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	}
}

func (c *Client) fetchTenantToken(ctx context.Context) (string, time.Duration, error) {
	var resp accessTokenResponse
	if !c.cfg.ISV {
		err := c.Call(ctx, authTenantTokenInternal, Values{
			"app_id":     c.cfg.AppID,
			"app_secret": c.cfg.AppSecret,
		}, &resp)
		if err != nil {
			return "", 0, err
		}
		return resp.TenantAccessToken, resp.ttl(), nil
	}

	appToken, err := c.AppAccessToken(ctx)
	if err != nil {
		return "", 0, err
	}
	err = c.Call(ctx, authTenantToken, Values{
		"app_access_token": appToken,
		"tenant_key":       c.cfg.TenantKey,
	}, &resp)
	if err != nil {
		return "", 0, err
	}
	return resp.TenantAccessToken, resp.ttl(), nil
}

func (c *Client) fetchAppToken(ctx context.Context) (string, time.Duration, error) {
	var resp accessTokenResponse
	if !c.cfg.ISV {
		err := c.Call(ctx, authAppTokenInternal, Values{
			"app_id":     c.cfg.AppID,
			"app_secret": c.cfg.AppSecret,
		}, &resp)
		if err != nil {
			return "", 0, err
		}
		return resp.AppAccessToken, resp.ttl(), nil
	}

	ticket, err := c.tokens.Get(ctx, AppTicketKey(c.cfg.AppID))
	if errors.Is(err, ErrTokenNotFound) {
		if resendErr := c.Auth().ResendAppTicket(ctx); resendErr != nil {
			return "", 0, errors.Join(ErrAppTicketMissing, resendErr)
		}
		return "", 0, ErrAppTicketMissing
	}
	if err != nil {
		return "", 0, err
	}
	err = c.Call(ctx, authAppToken, Values{
		"app_id":     c.cfg.AppID,
		"app_secret": c.cfg.AppSecret,
		"app_ticket": ticket,
	}, &resp)
	if err != nil {
		return "", 0, err
	}
	return resp.AppAccessToken, resp.ttl(), nil
}

// UserAccessToken is the data of the authen access token endpoints.
type UserAccessToken struct {
	AccessToken      string `json:"access_token"`
	TokenType        string `json:"token_type"`
	ExpiresIn        int    `json:"expires_in"`
	RefreshToken     string `json:"refresh_token"`
	RefreshExpiresIn int    `json:"refresh_expires_in"`
	Name             string `json:"name,omitempty"`
	EnName           string `json:"en_name,omitempty"`
	AvatarURL        string `json:"avatar_url,omitempty"`
	OpenID           string `json:"open_id"`
	UnionID          string `json:"union_id,omitempty"`
	UserID           string `json:"user_id,omitempty"`
	Email            string `json:"email,omitempty"`
	TenantKey        string `json:"tenant_key,omitempty"`
}

// UserInfo is the profile returned for a user access token.
type UserInfo struct {
	Name      string `json:"name"`
	EnName    string `json:"en_name,omitempty"`
	AvatarURL string `json:"avatar_url,omitempty"`
	OpenID    string `json:"open_id"`
	UnionID   string `json:"union_id,omitempty"`
	UserID    string `json:"user_id,omitempty"`
	Email     string `json:"email,omitempty"`
	Mobile    string `json:"mobile,omitempty"`
	TenantKey string `json:"tenant_key,omitempty"`
}

// ResendAppTicket asks the platform to push a fresh app ticket event.
func (s AuthService) ResendAppTicket(ctx context.Context) error {
	if err := s.requireAppCredentials(); err != nil {
		return err
	}
	return s.Call(ctx, authAppTicketResend, Values{
		"app_id":     s.cfg.AppID,
		"app_secret": s.cfg.AppSecret,
	}, nil)
}

// ExchangeCode trades a login authorization code for a user access token.
func (s AuthService) ExchangeCode(ctx context.Context, code string) (*UserAccessToken, error) {
	var result UserAccessToken
	err := s.Call(ctx, authUserAccessToken, Values{
		"grant_type": "authorization_code",
		"code":       code,
	}, &result)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// RefreshUserToken renews a user access token.
func (s AuthService) RefreshUserToken(ctx context.Context, refreshToken string) (*UserAccessToken, error) {
	var result UserAccessToken
	err := s.Call(ctx, authRefreshUserAccessToken, Values{
		"grant_type":    "refresh_token",
		"refresh_token": refreshToken,
	}, &result)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// UserInfo returns the profile of the given user token's owner.
func (s AuthService) UserInfo(ctx context.Context, userAccessToken string) (*UserInfo, error) {
	req, err := authUserInfo.Request(s.BaseURL, nil)
	if err != nil {
		return nil, err
	}
	req.UserAccessToken = userAccessToken
	var result UserInfo
	if err := s.Do(ctx, req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}
