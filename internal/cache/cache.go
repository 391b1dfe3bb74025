package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/ppiankov/spotlight/internal/model"
)

const keyPrefix = "spotlight:v1:"

// Cache defines the interface for caching
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// Key builds a namespaced cache key from its parts.
// Parts are hashed so keys stay short and filesystem-safe.
func Key(namespace string, parts ...string) string {
	h := sha256.New()
	for _, p := range parts {
		h.Write([]byte(p))
		h.Write([]byte{0})
	}
	return keyPrefix + namespace + ":" + hex.EncodeToString(h.Sum(nil))
}

// New creates the cache described by cfg: memory in front of disk when a
// directory is set, memory only otherwise, or a no-op cache when disabled.
func New(cfg model.CacheConfig) Cache {
	if !cfg.Enabled {
		return NoopCache{}
	}
	if cfg.Dir == "" {
		return NewMemoryCache(cfg.MemoryTTL, 10*time.Minute)
	}
	return NewLayeredCache(cfg.MemoryTTL, cfg.Dir, cfg.DiskTTL)
}

// NoopCache stores nothing
type NoopCache struct{}

func (NoopCache) Get(string) ([]byte, bool) { return nil, false }
func (NoopCache) Set(string, []byte, time.Duration) error { return nil }
func (NoopCache) Delete(string) error { return nil }
func (NoopCache) Clear() error { return nil }
