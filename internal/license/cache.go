package license

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rotisserie/eris"
)

// Entry is a cached validation result.
type Entry struct {
	KeyHash      string    `json:"key_hash"`
	Valid        bool      `json:"valid"`
	Tier         string    `json:"tier"`
	CustomerName string    `json:"customer_name,omitempty"`
	ExpiresAt    string    `json:"expires_at,omitempty"`
	CachedAt     time.Time `json:"cached_at"`
}

// Cache persists validation results by key hash. Load returns nil, nil
// when there is no entry.
type Cache interface {
	Load(ctx context.Context, keyHash string) (*Entry, error)
	Store(ctx context.Context, e Entry) error
}

// FileCache keeps the most recent validation in a single JSON file.
type FileCache struct {
	path string
	mu   sync.Mutex
}

// NewFileCache returns a FileCache writing to path.
func NewFileCache(path string) *FileCache {
	return &FileCache{path: path}
}

// DefaultCachePath returns ~/.revenue-intel/license_cache.json.
func DefaultCachePath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", eris.Wrap(err, "license: resolve home dir")
	}
	return filepath.Join(home, ".revenue-intel", "license_cache.json"), nil
}

func (c *FileCache) Load(_ context.Context, keyHash string) (*Entry, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	b, err := os.ReadFile(c.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "license: read cache file")
	}
	var e Entry
	if err := json.Unmarshal(b, &e); err != nil {
		return nil, eris.Wrap(err, "license: decode cache file")
	}
	if e.KeyHash != keyHash {
		return nil, nil
	}
	return &e, nil
}

func (c *FileCache) Store(_ context.Context, e Entry) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(c.path), 0o700); err != nil {
		return eris.Wrap(err, "license: create cache dir")
	}
	b, err := json.Marshal(e)
	if err != nil {
		return eris.Wrap(err, "license: encode cache entry")
	}
	if err := os.WriteFile(c.path, b, 0o600); err != nil {
		return eris.Wrap(err, "license: write cache file")
	}
	return nil
}
