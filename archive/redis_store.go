package archive

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"sort"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/amobagan/nutristream/provider"
)

// RedisStore is a provider.ContextStore that keeps JSON values under
// "<prefix>:<key>".
type RedisStore[C any] struct {
	rdb       goredis.UniversalClient
	keyPrefix string
}

func NewRedisStore[C any](rdb goredis.UniversalClient, keyPrefix string) *RedisStore[C] {
	return &RedisStore[C]{rdb: rdb, keyPrefix: keyPrefix}
}

func (s *RedisStore[C]) fullKey(key string) string {
	if s.keyPrefix == "" {
		return key
	}
	return s.keyPrefix + ":" + key
}

// Load returns (nil, nil) if the key does not exist.
func (s *RedisStore[C]) Load(ctx context.Context, key string) (*C, error) {
	raw, err := s.rdb.Get(ctx, s.fullKey(key)).Bytes()
	if stderrors.Is(err, goredis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis store load %q: %w", key, err)
	}

	var val C
	if err := json.Unmarshal(raw, &val); err != nil {
		return nil, fmt.Errorf("redis store unmarshal %q: %w", key, err)
	}
	return &val, nil
}

// Save stores val as JSON. A ttl of 0 means no expiration.
func (s *RedisStore[C]) Save(ctx context.Context, key string, val *C, ttl time.Duration) error {
	if val == nil {
		return nil
	}
	data, err := json.Marshal(val)
	if err != nil {
		return fmt.Errorf("redis store marshal %q: %w", key, err)
	}
	if err := s.rdb.Set(ctx, s.fullKey(key), data, ttl).Err(); err != nil {
		return fmt.Errorf("redis store save %q: %w", key, err)
	}
	return nil
}

func (s *RedisStore[C]) Delete(ctx context.Context, key string) error {
	if err := s.rdb.Del(ctx, s.fullKey(key)).Err(); err != nil {
		return fmt.Errorf("redis store delete %q: %w", key, err)
	}
	return nil
}

// Keys scans the prefix and returns the keys without it, sorted.
func (s *RedisStore[C]) Keys(ctx context.Context) ([]string, error) {
	pattern := s.fullKey("*")
	var keys []string
	iter := s.rdb.Scan(ctx, 0, pattern, 100).Iterator()
	for iter.Next(ctx) {
		k := iter.Val()
		if s.keyPrefix != "" {
			k = strings.TrimPrefix(k, s.keyPrefix+":")
		}
		keys = append(keys, k)
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("redis store scan: %w", err)
	}
	sort.Strings(keys)
	return keys, nil
}

var (
	_ provider.ContextStore[any] = (*RedisStore[any])(nil)
	_ Lister                     = (*RedisStore[any])(nil)
	_ Lister                     = (*provider.MemoryStore[any])(nil)
)
