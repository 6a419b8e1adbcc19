package license

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/redis/go-redis/v9"
	"github.com/rotisserie/eris"
)

const redisKeyPrefix = "license:"

// RedisCache stores validations in Redis. Entries expire after GraceTTL.
type RedisCache struct {
	rdb *redis.Client
}

// NewRedisCache returns a RedisCache using rdb.
func NewRedisCache(rdb *redis.Client) *RedisCache {
	return &RedisCache{rdb: rdb}
}

func (c *RedisCache) Load(ctx context.Context, keyHash string) (*Entry, error) {
	val, err := c.rdb.Get(ctx, redisKeyPrefix+keyHash).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "license: redis get")
	}
	var e Entry
	if err := json.Unmarshal([]byte(val), &e); err != nil {
		return nil, eris.Wrap(err, "license: decode redis entry")
	}
	return &e, nil
}

func (c *RedisCache) Store(ctx context.Context, e Entry) error {
	b, err := json.Marshal(e)
	if err != nil {
		return eris.Wrap(err, "license: encode redis entry")
	}
	if err := c.rdb.Set(ctx, redisKeyPrefix+e.KeyHash, b, GraceTTL).Err(); err != nil {
		return eris.Wrap(err, "license: redis set")
	}
	return nil
}
