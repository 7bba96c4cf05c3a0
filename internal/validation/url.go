// Package validation checks user-supplied endpoints and inputs before they
// reach the network.
//
// ValidateBaseURL guards the Open Platform base URL, since the app secret is
// posted to it. Private ranges can be allowed with LARK_ALLOW_PRIVATE or
// SetAllowPrivate(true), e.g. for a local proxy. Cloud metadata endpoints
// stay blocked either way.
package validation

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/netip"
	"net/url"
	"os"
	"strconv"
	"strings"
	"sync/atomic"
	"time"
)

var allowPrivate atomic.Bool

func init() {
	v, _ := strconv.ParseBool(strings.TrimSpace(os.Getenv("LARK_ALLOW_PRIVATE")))
	allowPrivate.Store(v)
}

// SetAllowPrivate enables or disables private and localhost base URLs.
func SetAllowPrivate(enabled bool) {
	allowPrivate.Store(enabled)
}

// openPlatformHosts skip the DNS check.
var openPlatformHosts = map[string]bool{
	"open.feishu.cn":     true,
	"open.larksuite.com": true,
}

var metadataHosts = map[string]bool{
	"metadata":                 true,
	"metadata.google.internal": true,
	"instance-data":            true,
	"169.254.169.254":          true,
	"fd00:ec2::254":            true,
}

var metadataAddrs = []netip.Addr{
	netip.MustParseAddr("169.254.169.254"),
	netip.MustParseAddr("fd00:ec2::254"),
}

// reservedPrefixes are blocked on top of netip's loopback, link-local and
// RFC 1918/4193 checks.
var reservedPrefixes = []netip.Prefix{
	netip.MustParsePrefix("100.64.0.0/10"),
	netip.MustParsePrefix("192.0.0.0/24"),
	netip.MustParsePrefix("192.0.2.0/24"),
	netip.MustParsePrefix("198.18.0.0/15"),
	netip.MustParsePrefix("198.51.100.0/24"),
	netip.MustParsePrefix("203.0.113.0/24"),
	netip.MustParsePrefix("240.0.0.0/4"),
	netip.MustParsePrefix("100::/64"),
	netip.MustParsePrefix("2001::/32"),
	netip.MustParsePrefix("2001:10::/28"),
	netip.MustParsePrefix("2001:db8::/32"),
	netip.MustParsePrefix("ff00::/8"),
}

// lookupAddrs resolves a base URL host; tests swap it out.
var lookupAddrs = func(ctx context.Context, host string) ([]netip.Addr, error) {
	return net.DefaultResolver.LookupNetIP(ctx, "ip", host)
}

// ValidateBaseURL checks an Open Platform base URL: an https origin (http
// only when private URLs are allowed) with no path, query or fragment, that
// does not point at localhost, private ranges or cloud metadata endpoints.
func ValidateBaseURL(rawURL string) error {
	if rawURL == "" {
		return errors.New("URL cannot be empty")
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL format: %w", err)
	}
	switch u.Scheme {
	case "https":
	case "http":
		if !allowPrivate.Load() {
			return errors.New("base URL must use https")
		}
	default:
		return fmt.Errorf("invalid URL scheme: only http and https are allowed, got %q", u.Scheme)
	}
	if strings.TrimSuffix(u.Path, "/") != "" {
		return fmt.Errorf("base URL must not contain a path, got %q", u.Path)
	}
	if u.RawQuery != "" || u.Fragment != "" {
		return errors.New("base URL must not contain a query or fragment")
	}

	host := strings.ToLower(u.Hostname())
	switch {
	case host == "":
		return errors.New("URL must contain a hostname")
	case openPlatformHosts[host]:
		return nil
	case isCloudMetadata(host):
		return errors.New("cloud metadata endpoints are not allowed")
	case !allowPrivate.Load() && isLocalhost(host):
		return errors.New("localhost URLs are not allowed")
	}

	if addr, err := netip.ParseAddr(host); err == nil {
		return checkAddr(addr)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	addrs, err := lookupAddrs(ctx, host)
	if err != nil {
		// Unresolvable hosts fail later at request time.
		return nil
	}
	for _, addr := range addrs {
		if err := checkAddr(addr); err != nil {
			return fmt.Errorf("domain %q resolves to forbidden IP %s: %w", host, addr, err)
		}
	}
	return nil
}

// ValidateRedisURL checks a token-store redis URL.
func ValidateRedisURL(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid redis URL: %w", err)
	}
	switch u.Scheme {
	case "redis", "rediss", "unix":
	default:
		return fmt.Errorf("invalid redis URL scheme %q: use redis, rediss or unix", u.Scheme)
	}
	if u.Scheme != "unix" && u.Host == "" {
		return errors.New("redis URL must contain a host")
	}
	return nil
}

func isLocalhost(host string) bool {
	host = strings.ToLower(host)
	if host == "localhost" || strings.HasSuffix(host, ".localhost") {
		return true
	}
	addr, err := netip.ParseAddr(host)
	return err == nil && (addr.IsLoopback() || addr.IsUnspecified())
}

func isCloudMetadata(host string) bool {
	host = strings.ToLower(host)
	return metadataHosts[host] || strings.HasSuffix(host, ".metadata.google.internal")
}

func checkAddr(addr netip.Addr) error {
	addr = addr.Unmap()
	for _, m := range metadataAddrs {
		if addr == m {
			return errors.New("cloud metadata IP address is not allowed")
		}
	}
	switch {
	case addr.IsUnspecified():
		return errors.New("unspecified IP addresses are not allowed")
	case addr.IsLinkLocalUnicast() || addr.IsLinkLocalMulticast():
		return errors.New("link-local IP addresses are not allowed")
	case allowPrivate.Load():
		return nil
	case addr.IsLoopback():
		return errors.New("loopback IP addresses are not allowed")
	case addr.IsPrivate() || isReserved(addr):
		return errors.New("private IP addresses are not allowed")
	}
	return nil
}

func isReserved(addr netip.Addr) bool {
	for _, p := range reservedPrefixes {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}
