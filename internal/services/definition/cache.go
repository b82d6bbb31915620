package definition

import (
	"context"
	"log/slog"
	"time"

	lru "github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/sync/singleflight"

	"github.com/quackextractor/wordrush/internal/services/words"
)

// Unavailable is returned when no definition can be produced for a word.
// Lookup failures are never surfaced as errors to players.
const Unavailable = "No definition available"

const (
	// DefaultCapacity bounds the number of cached definitions
	DefaultCapacity = 500
	// DefaultTTL evicts definitions a day after they were fetched
	DefaultTTL = 24 * time.Hour
)

// Fetcher resolves a word to its definition text via an external collaborator
type Fetcher interface {
	Fetch(ctx context.Context, word string) (string, error)
}

// Store is an optional second-level definition store shared across restarts
type Store interface {
	Get(ctx context.Context, word string) (string, bool, error)
	Set(ctx context.Context, word, def string) error
}

// Cache memoizes definition lookups with a bounded, TTL-evicted map.
// Concurrent misses for the same word collapse into a single outstanding
// fetch; every waiter receives the same result.
type Cache struct {
	fetcher Fetcher
	store   Store // may be nil
	entries *lru.LRU[string, string]
	group   singleflight.Group
	logger  *slog.Logger
}

// NewCache creates a definition cache over the given fetcher.
// Non-positive capacity or TTL fall back to the defaults.
func NewCache(fetcher Fetcher, capacity int, ttl time.Duration, logger *slog.Logger) *Cache {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{
		fetcher: fetcher,
		entries: lru.NewLRU[string, string](capacity, nil, ttl),
		logger:  logger.With(slog.String("component", "definitions")),
	}
}

// WithStore attaches a second-level store consulted on cache misses
func (c *Cache) WithStore(store Store) *Cache {
	c.store = store
	return c
}

// Get returns the definition for word, fetching it on a miss. Failed fetches
// return Unavailable and are not cached, so the next request retries.
func (c *Cache) Get(ctx context.Context, word string) string {
	word = words.Normalize(word)

	if def, ok := c.entries.Get(word); ok {
		return def
	}

	result, err, _ := c.group.Do(word, func() (any, error) {
		// A waiter may have populated the cache while we queued
		if def, ok := c.entries.Get(word); ok {
			return def, nil
		}

		if c.store != nil {
			def, ok, err := c.store.Get(ctx, word)
			if err != nil {
				c.logger.Warn("definition store read failed",
					slog.String("word", word),
					slog.Any("error", err))
			} else if ok {
				c.entries.Add(word, def)
				return def, nil
			}
		}

		def, err := c.fetcher.Fetch(ctx, word)
		if err != nil {
			return nil, err
		}

		c.entries.Add(word, def)
		if c.store != nil {
			if err := c.store.Set(ctx, word, def); err != nil {
				c.logger.Warn("definition store write failed",
					slog.String("word", word),
					slog.Any("error", err))
			}
		}
		return def, nil
	})
	if err != nil {
		c.logger.Warn("definition fetch failed",
			slog.String("word", word),
			slog.Any("error", err))
		return Unavailable
	}
	return result.(string)
}

// Len returns the number of cached definitions
func (c *Cache) Len() int {
	return c.entries.Len()
}
