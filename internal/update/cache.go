package update

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"
)

const (
	cacheFileName = "update-check.json"
	cacheDuration = 24 * time.Hour
)

// CacheEntry stores the last update check result
type CacheEntry struct {
	CheckedAt     time.Time `json:"checked_at"`
	LatestVersion string    `json:"latest_version"`
	ReleaseURL    string    `json:"release_url,omitempty"`
}

func (e *CacheEntry) validAt(now time.Time) bool {
	return now.Sub(e.CheckedAt) < cacheDuration
}

// DefaultCacheDir returns the per-user cache directory of the dashboard
func DefaultCacheDir() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "delegation-dashboard")
}

// GetCachePath returns the path to the cache file
func GetCachePath(dir string) string {
	return filepath.Join(dir, cacheFileName)
}

// LoadCache loads the cached update check result
func LoadCache(dir string) (*CacheEntry, error) {
	data, err := os.ReadFile(GetCachePath(dir))
	if err != nil {
		return nil, err
	}

	var entry CacheEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, err
	}
	return &entry, nil
}

// SaveCache saves the update check result
func SaveCache(dir string, entry *CacheEntry) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(entry, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(GetCachePath(dir), data, 0o644)
}
