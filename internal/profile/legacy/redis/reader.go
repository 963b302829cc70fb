// Package redis reads legacy values from Redis, where the previous app
// backend mirrored its key-value storage.
package redis

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Reader issues GET for each legacy key under an optional prefix.
type Reader struct {
	client redis.Cmdable
	prefix string
}

func New(client redis.Cmdable, prefix string) *Reader {
	return &Reader{client: client, prefix: prefix}
}

func (r *Reader) GetItem(ctx context.Context, key string) (string, bool, error) {
	v, err := r.client.Get(ctx, r.prefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("redis get %s: %w", key, err)
	}
	return v, true, nil
}
