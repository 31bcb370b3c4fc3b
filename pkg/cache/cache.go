// Package cache memoizes agent output for a bounded time, keyed by agent and context fingerprint.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/simplelru"
)

const (
	DefaultMaxSize       = 1000
	DefaultSweepInterval = 5 * time.Minute
)

type Config struct {
	MaxSize       int
	SweepInterval time.Duration
}

type Stats struct {
	Size        int    `json:"size"`
	MaxSize     int    `json:"max_size"`
	Hits        uint64 `json:"hits"`
	Misses      uint64 `json:"misses"`
	Evictions   uint64 `json:"evictions"`
	Expirations uint64 `json:"expirations"`
}

type entry[T any] struct {
	data      T
	timestamp time.Time
	ttl       time.Duration
}

// Cache is a TTL cache bounded in size. When full, the oldest inserted entry is evicted;
// reads never change eviction order.
type Cache[T any] struct {
	mu      sync.Mutex
	entries *simplelru.LRU[string, entry[T]]
	config  Config
	now     func() time.Time
	logger  *slog.Logger
	stats   Stats

	stop     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

func New[T any](logger *slog.Logger, config Config) (*Cache[T], error) {
	if config.MaxSize <= 0 {
		config.MaxSize = DefaultMaxSize
	}

	if config.SweepInterval <= 0 {
		config.SweepInterval = DefaultSweepInterval
	}

	entries, err := simplelru.NewLRU[string, entry[T]](config.MaxSize, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create cache: %w", err)
	}

	return &Cache[T]{
		entries: entries,
		config:  config,
		now:     time.Now,
		logger:  logger.With("module", "cache"),
		stop:    make(chan struct{}),
	}, nil
}

// WithClock replaces the cache's time source.
func (c *Cache[T]) WithClock(now func() time.Time) *Cache[T] {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.now = now

	return c
}

// Set stores data under key. Re-setting a key counts as a fresh insertion.
func (c *Cache[T]) Set(key string, data T, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries.Remove(key)

	if c.entries.Add(key, entry[T]{data: data, timestamp: c.now(), ttl: ttl}) {
		c.stats.Evictions++
	}
}

// Get returns the data for key if it has not expired. An expired entry is removed.
func (c *Cache[T]) Get(key string) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero T

	e, ok := c.entries.Peek(key)
	if !ok {
		c.stats.Misses++

		return zero, false
	}

	if !c.valid(e) {
		c.entries.Remove(key)
		c.stats.Expirations++
		c.stats.Misses++

		return zero, false
	}

	c.stats.Hits++

	return e.data, true
}

// Has reports whether key holds a live entry. An expired entry is removed.
func (c *Cache[T]) Has(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries.Peek(key)
	if !ok {
		return false
	}

	if !c.valid(e) {
		c.entries.Remove(key)
		c.stats.Expirations++

		return false
	}

	return true
}

func (c *Cache[T]) Delete(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.entries.Remove(key)
}

func (c *Cache[T]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries.Purge()
}

func (c *Cache[T]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.entries.Len()
}

func (c *Cache[T]) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	stats := c.stats
	stats.Size = c.entries.Len()
	stats.MaxSize = c.config.MaxSize

	return stats
}

// Sweep removes every expired entry and returns how many were dropped.
func (c *Cache[T]) Sweep() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0

	for _, key := range c.entries.Keys() {
		e, ok := c.entries.Peek(key)
		if ok && !c.valid(e) {
			c.entries.Remove(key)
			removed++
		}
	}

	c.stats.Expirations += uint64(removed)

	return removed
}

// Start runs the periodic sweep until ctx is done or Stop is called.
func (c *Cache[T]) Start(ctx context.Context) {
	c.wg.Add(1)

	go func() {
		defer c.wg.Done()

		ticker := time.NewTicker(c.config.SweepInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-c.stop:
				return
			case <-ticker.C:
				removed := c.Sweep()
				if removed > 0 {
					c.logger.DebugContext(ctx, "Swept expired cache entries", "removed", removed)
				}
			}
		}
	}()
}

func (c *Cache[T]) Stop() {
	c.stopOnce.Do(func() { close(c.stop) })
	c.wg.Wait()
}

func (c *Cache[T]) valid(e entry[T]) bool {
	return c.now().Sub(e.timestamp) < e.ttl
}

// GenerateKey derives a stable key from agentID and the JSON form of analysisCtx.
// Map keys are encoded in sorted order, so equal content yields equal keys.
func GenerateKey(agentID string, analysisCtx any) (string, error) {
	payload, err := json.Marshal(analysisCtx)
	if err != nil {
		return "", fmt.Errorf("failed to fingerprint context: %w", err)
	}

	sum := sha256.Sum256(payload)

	return agentID + ":" + hex.EncodeToString(sum[:]), nil
}
