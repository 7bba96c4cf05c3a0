package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/99designs/keyring"
)

// Profile holds the credentials of one app.
type Profile struct {
	AppID     string `json:"app_id"`
	AppSecret string `json:"app_secret"`
	// BaseURL is a URL or one of the shortcuts "feishu" and "lark".
	BaseURL string `json:"base_url,omitempty"`

	HelpdeskID    string `json:"helpdesk_id,omitempty"`
	HelpdeskToken string `json:"helpdesk_token,omitempty"`

	EncryptKey        string `json:"encrypt_key,omitempty"`
	VerificationToken string `json:"verification_token,omitempty"`

	ISV       bool   `json:"isv,omitempty"`
	TenantKey string `json:"tenant_key,omitempty"`

	// User token obtained through "auth login".
	UserAccessToken    string    `json:"user_access_token,omitempty"`
	UserRefreshToken   string    `json:"user_refresh_token,omitempty"`
	UserTokenExpiresAt time.Time `json:"user_token_expires_at,omitzero"`
}

// HasUserToken reports whether a stored user token is still valid at now.
func (p Profile) HasUserToken(now time.Time) bool {
	if p.UserAccessToken == "" {
		return false
	}
	return p.UserTokenExpiresAt.IsZero() || now.Before(p.UserTokenExpiresAt)
}

// ErrNotConfigured is returned when no profile is configured
var ErrNotConfigured = errors.New("lark not configured - run 'lark auth login' first")

// Keyring item keys. The default profile lives under its bare name so
// keyrings written before named profiles existed keep working.
const (
	defaultProfile = "default"
	profilePrefix  = "profile:"
	indexKey       = "profiles_index"
	currentKey     = "current_profile"
)

func profileName(name string) string {
	if name = strings.TrimSpace(name); name == "" {
		return defaultProfile
	}
	return name
}

func itemKey(name string) string {
	if name = profileName(name); name != defaultProfile {
		return profilePrefix + name
	}
	return defaultProfile
}

// vault is the keyring seen as a profile store.
type vault struct {
	ring keyring.Keyring
}

func openVault() (vault, error) {
	ring, err := openKeyring(keyringConfig())
	if err != nil {
		return vault{}, fmt.Errorf("failed to open keyring: %w", err)
	}
	return vault{ring: ring}, nil
}

// get decodes the item at key into out and reports whether it existed.
func (v vault) get(key string, out any) (bool, error) {
	item, err := v.ring.Get(key)
	if errors.Is(err, keyring.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(item.Data, out); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

func (v vault) put(key, label string, in any) error {
	data, err := json.Marshal(in)
	if err != nil {
		return err
	}
	return v.ring.Set(keyring.Item{Key: key, Data: data, Label: label})
}

// names lists profiles in the order they were first saved.
func (v vault) names() ([]string, error) {
	var names []string
	found, err := v.get(indexKey, &names)
	if err != nil {
		return nil, fmt.Errorf("failed to read profile index: %w", err)
	}
	if !found {
		var legacy Profile
		if ok, _ := v.get(defaultProfile, &legacy); ok {
			return []string{defaultProfile}, nil
		}
	}
	return names, nil
}

func (v vault) setNames(names []string) error {
	var out []string
	for _, n := range names {
		if n = strings.TrimSpace(n); n != "" && !slices.Contains(out, n) {
			out = append(out, n)
		}
	}
	if err := v.put(indexKey, "", out); err != nil {
		return fmt.Errorf("failed to save profile index: %w", err)
	}
	return nil
}

func (v vault) current() (string, error) {
	item, err := v.ring.Get(currentKey)
	if errors.Is(err, keyring.ErrKeyNotFound) {
		return defaultProfile, nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get current profile: %w", err)
	}
	return string(item.Data), nil
}

func (v vault) setCurrent(name string) error {
	return v.ring.Set(keyring.Item{Key: currentKey, Data: []byte(profileName(name))})
}

// SaveProfile stores the credentials under a named profile and makes it
// the current one.
func SaveProfile(name string, profile Profile) error {
	v, err := openVault()
	if err != nil {
		return err
	}
	name = profileName(name)
	if err := v.put(itemKey(name), serviceName+" "+name, profile); err != nil {
		return fmt.Errorf("failed to save profile: %w", err)
	}
	names, err := v.names()
	if err != nil {
		return err
	}
	if err := v.setNames(append(names, name)); err != nil {
		return err
	}
	return v.setCurrent(name)
}

// LoadProfile retrieves credentials for a named profile
func LoadProfile(name string) (Profile, error) {
	v, err := openVault()
	if err != nil {
		return Profile{}, err
	}
	var p Profile
	found, err := v.get(itemKey(name), &p)
	if err != nil {
		return Profile{}, fmt.Errorf("failed to get profile: %w", err)
	}
	if !found {
		return Profile{}, ErrNotConfigured
	}
	return p, nil
}

// DeleteProfile removes a stored profile. When it was the current profile,
// the first remaining one takes its place.
func DeleteProfile(name string) error {
	v, err := openVault()
	if err != nil {
		return err
	}
	name = profileName(name)
	if err := v.ring.Remove(itemKey(name)); err != nil && !errors.Is(err, keyring.ErrKeyNotFound) {
		return fmt.Errorf("failed to remove profile: %w", err)
	}
	names, err := v.names()
	if err != nil {
		return err
	}
	names = slices.DeleteFunc(names, func(n string) bool { return n == name })
	if err := v.setNames(names); err != nil {
		return err
	}
	if cur, err := v.current(); err == nil && cur == name {
		next := defaultProfile
		if len(names) > 0 {
			next = names[0]
		}
		return v.setCurrent(next)
	}
	return nil
}

// ListProfiles returns the known profile names
func ListProfiles() ([]string, error) {
	v, err := openVault()
	if err != nil {
		return nil, err
	}
	return v.names()
}

// CurrentProfile returns the active profile name
func CurrentProfile() (string, error) {
	v, err := openVault()
	if err != nil {
		return "", err
	}
	return v.current()
}

// SetCurrentProfile sets the active profile name
func SetCurrentProfile(name string) error {
	v, err := openVault()
	if err != nil {
		return err
	}
	return v.setCurrent(name)
}

// SaveUserToken records a user token on an existing profile.
func SaveUserToken(name, accessToken, refreshToken string, expiresAt time.Time) error {
	profile, err := LoadProfile(name)
	if err != nil {
		return err
	}
	profile.UserAccessToken = accessToken
	profile.UserRefreshToken = refreshToken
	profile.UserTokenExpiresAt = expiresAt
	return SaveProfile(name, profile)
}
