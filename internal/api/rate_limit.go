package api

import (
	"net/http"
	"strconv"
	"strings"
	"time"
)

// Reset values above this are epoch seconds; smaller ones are relative.
const epochCutoff = 1_000_000_000

var (
	limitHeaders = []string{"X-Ogw-Ratelimit-Limit", "X-RateLimit-Limit"}
	resetHeaders = []string{"X-Ogw-Ratelimit-Reset", "X-RateLimit-Reset"}
)

// RateLimitInfo is the gateway's frequency-control state from the last
// response that carried it. Zero fields were absent or unparseable.
type RateLimitInfo struct {
	Limit   int
	Reset   string
	ResetAt time.Time
}

// Meta renders the info for --include output; nil when nothing is known.
func (r *RateLimitInfo) Meta() map[string]any {
	if r == nil {
		return nil
	}
	meta := make(map[string]any, 2)
	if r.Limit > 0 {
		meta["limit"] = r.Limit
	}
	switch {
	case !r.ResetAt.IsZero():
		meta["reset_at"] = r.ResetAt.UTC().Format(time.RFC3339)
	case r.Reset != "":
		meta["reset"] = r.Reset
	}
	if len(meta) == 0 {
		return nil
	}
	return meta
}

// LastRateLimit returns a copy of the most recent info, or nil.
func (c *Client) LastRateLimit() *RateLimitInfo {
	c.rateLimitMu.Lock()
	defer c.rateLimitMu.Unlock()
	if c.lastRateLimit == nil {
		return nil
	}
	info := *c.lastRateLimit
	return &info
}

// recordRateLimit stores h's rate limit headers. Responses without them
// leave the previous value alone.
func (c *Client) recordRateLimit(h http.Header) *RateLimitInfo {
	info, ok := readRateLimit(h, c.now())
	if !ok {
		return nil
	}
	c.rateLimitMu.Lock()
	stored := info
	c.lastRateLimit = &stored
	c.rateLimitMu.Unlock()
	return &info
}

func readRateLimit(h http.Header, now time.Time) (RateLimitInfo, bool) {
	limit := headerValue(h, limitHeaders)
	reset := headerValue(h, resetHeaders)
	if limit == "" && reset == "" {
		return RateLimitInfo{}, false
	}
	info := RateLimitInfo{Reset: reset}
	if n, err := strconv.Atoi(limit); err == nil {
		info.Limit = n
	}
	info.ResetAt = resetTime(reset, now)
	return info, true
}

func headerValue(h http.Header, names []string) string {
	for _, name := range names {
		if v := strings.TrimSpace(h.Get(name)); v != "" {
			return v
		}
	}
	return ""
}

// resetTime accepts relative seconds, epoch seconds or an HTTP date.
func resetTime(v string, now time.Time) time.Time {
	if v == "" {
		return time.Time{}
	}
	if n, err := strconv.ParseInt(v, 10, 64); err == nil {
		if n > epochCutoff {
			return time.Unix(n, 0).UTC()
		}
		if n >= 0 {
			return now.Add(time.Duration(n) * time.Second).UTC()
		}
		return time.Time{}
	}
	if t, err := http.ParseTime(v); err == nil {
		return t.UTC()
	}
	return time.Time{}
}
