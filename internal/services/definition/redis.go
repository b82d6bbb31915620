package definition

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "wordrush"

// RedisStore keeps fetched definitions in Redis so they survive restarts
// and are shared by any process pointed at the same instance. Room state is
// never stored here; only collaborator output is.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

var _ Store = (*RedisStore)(nil)

// NewRedisStore connects to the Redis instance at the given URL
func NewRedisStore(url string, ttl time.Duration) (*RedisStore, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return NewRedisStoreWithClient(client, ttl), nil
}

// NewRedisStoreWithClient wraps an existing client (for testing)
func NewRedisStoreWithClient(client *redis.Client, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisStore{client: client, ttl: ttl}
}

// Close closes the Redis connection
func (s *RedisStore) Close() error {
	return s.client.Close()
}

// Get returns the stored definition for word, if any
func (s *RedisStore) Get(ctx context.Context, word string) (string, bool, error) {
	def, err := s.client.Get(ctx, definitionKey(word)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, err
	}
	return def, true, nil
}

// Set stores the definition for word with the configured TTL
func (s *RedisStore) Set(ctx context.Context, word, def string) error {
	return s.client.Set(ctx, definitionKey(word), def, s.ttl).Err()
}

func definitionKey(word string) string {
	return fmt.Sprintf("%s:definition:%s", keyPrefix, word)
}
