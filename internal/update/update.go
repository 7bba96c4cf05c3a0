// Package update checks GitHub for a newer lark-cli release.
package update

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"golang.org/x/mod/semver"
)

const (
	DefaultReleasesURL = "https://api.github.com/repos/larkkit/lark-cli/releases/latest"
	CheckTimeout       = 5 * time.Second
)

var errNoRelease = errors.New("no stable release")

type Release struct {
	TagName    string `json:"tag_name"`
	HTMLURL    string `json:"html_url"`
	Prerelease bool   `json:"prerelease"`
}

type CheckResult struct {
	CurrentVersion  string
	LatestVersion   string
	UpdateURL       string
	UpdateAvailable bool
}

// Checker queries a releases endpoint. The zero value asks GitHub with
// http.DefaultClient.
type Checker struct {
	URL  string
	HTTP *http.Client
}

// Disabled reports whether LARK_NO_UPDATE_CHECK is set.
func Disabled() bool {
	return os.Getenv("LARK_NO_UPDATE_CHECK") != ""
}

// Latest fetches the newest stable release.
func (c Checker) Latest(ctx context.Context) (Release, error) {
	url, client := c.URL, c.HTTP
	if url == "" {
		url = DefaultReleasesURL
	}
	if client == nil {
		client = http.DefaultClient
	}
	ctx, cancel := context.WithTimeout(ctx, CheckTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Release{}, err
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	resp, err := client.Do(req)
	if err != nil {
		return Release{}, err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return Release{}, fmt.Errorf("releases: HTTP %d", resp.StatusCode)
	}

	var r Release
	if err := json.NewDecoder(resp.Body).Decode(&r); err != nil {
		return Release{}, fmt.Errorf("releases: %w", err)
	}
	if r.TagName == "" || r.Prerelease {
		return Release{}, errNoRelease
	}
	return r, nil
}

// Check compares current against the latest release. It returns nil for
// dev builds and on any failure so the CLI never waits on it.
func (c Checker) Check(ctx context.Context, current string) *CheckResult {
	if current == "" || current == "dev" {
		return nil
	}
	r, err := c.Latest(ctx)
	if err != nil {
		slog.Debug("update check failed", "error", err)
		return nil
	}
	have, latest := semverOf(current), semverOf(r.TagName)
	return &CheckResult{
		CurrentVersion:  current,
		LatestVersion:   strings.TrimPrefix(r.TagName, "v"),
		UpdateURL:       r.HTMLURL,
		UpdateAvailable: semver.IsValid(have) && semver.IsValid(latest) && semver.Compare(latest, have) > 0,
	}
}

func semverOf(v string) string {
	if strings.HasPrefix(v, "v") {
		return v
	}
	return "v" + v
}
