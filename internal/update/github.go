package update

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/mod/semver"
)

const (
	defaultAPIBase = "https://api.github.com"
	defaultRepo    = "stakingagency/delegation-dashboard"

	httpTimeout = 15 * time.Second
)

// HTTPDoer is the part of *http.Client the checker uses
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Checker looks up the latest release of the dashboard on GitHub
type Checker struct {
	APIBase  string
	Repo     string // owner/name
	HTTP     HTTPDoer
	CacheDir string // empty disables the cache
	now      func() time.Time
}

// NewChecker returns a checker for the public repository that caches
// results under cacheDir
func NewChecker(cacheDir string) *Checker {
	return &Checker{
		APIBase:  defaultAPIBase,
		Repo:     defaultRepo,
		HTTP:     &http.Client{Timeout: httpTimeout},
		CacheDir: cacheDir,
		now:      time.Now,
	}
}

// FetchLatestRelease gets the latest release from GitHub
func (c *Checker) FetchLatestRelease(ctx context.Context) (*Release, error) {
	url := fmt.Sprintf("%s/repos/%s/releases/latest", strings.TrimRight(c.APIBase, "/"), c.Repo)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/vnd.github.v3+json")
	req.Header.Set("User-Agent", "delegation-dashboard")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch release: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("no releases found")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("GitHub API error: %s", resp.Status)
	}

	var release Release
	if err := json.NewDecoder(resp.Body).Decode(&release); err != nil {
		return nil, fmt.Errorf("failed to parse release: %w", err)
	}
	return &release, nil
}

// Check compares current with the latest release. A fresh cached answer
// is returned without calling GitHub.
func (c *Checker) Check(ctx context.Context, current string) (CheckResult, error) {
	now := time.Now
	if c.now != nil {
		now = c.now
	}

	if c.CacheDir != "" {
		if entry, err := LoadCache(c.CacheDir); err == nil && entry.validAt(now()) {
			return CheckResult{
				CurrentVersion:  strings.TrimPrefix(current, "v"),
				LatestVersion:   entry.LatestVersion,
				UpdateAvailable: IsNewerVersion(current, entry.LatestVersion),
				ReleaseURL:      entry.ReleaseURL,
				Cached:          true,
			}, nil
		}
	}

	release, err := c.FetchLatestRelease(ctx)
	if err != nil {
		return CheckResult{}, err
	}
	res := CheckResult{
		CurrentVersion:  strings.TrimPrefix(current, "v"),
		LatestVersion:   strings.TrimPrefix(release.TagName, "v"),
		UpdateAvailable: IsNewerVersion(current, release.TagName),
		ReleaseURL:      release.HTMLURL,
	}

	if c.CacheDir != "" {
		_ = SaveCache(c.CacheDir, &CacheEntry{
			CheckedAt:     now(),
			LatestVersion: res.LatestVersion,
			ReleaseURL:    res.ReleaseURL,
		})
	}
	return res, nil
}

// IsNewerVersion returns true if latest is newer than current
func IsNewerVersion(current, latest string) bool {
	// Ensure both have 'v' prefix for semver comparison
	if !strings.HasPrefix(current, "v") {
		current = "v" + current
	}
	if !strings.HasPrefix(latest, "v") {
		latest = "v" + latest
	}

	// Handle "dev" or "unknown" versions
	if !semver.IsValid(current) {
		return true
	}
	if !semver.IsValid(latest) {
		return false
	}

	return semver.Compare(latest, current) > 0
}
