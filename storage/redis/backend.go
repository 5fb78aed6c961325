// Package redis stores TTL envelopes in Redis. Expiring entries also get a
// native Redis expiry, so the server evicts them without a sweep.
package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultKeyPrefix namespaces every key this backend writes.
const DefaultKeyPrefix = "roomgames:"

// deleteIfScript removes KEYS[1] only while it holds ARGV[1].
var deleteIfScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Backend implements ttl.Backend and ttl.ExpiredDeleter.
type Backend struct {
	rdb    *redis.Client
	prefix string
}

// Open connects to the server at rawURL (redis://[:password@]host:port/db)
// and verifies the connection.
func Open(ctx context.Context, rawURL, prefix string) (*Backend, error) {
	opts, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return New(rdb, prefix), nil
}

// New wraps an existing client. An empty prefix uses DefaultKeyPrefix.
func New(rdb *redis.Client, prefix string) *Backend {
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	return &Backend{rdb: rdb, prefix: prefix}
}

// Close closes the client.
func (b *Backend) Close() error { return b.rdb.Close() }

func (b *Backend) Get(ctx context.Context, key string) ([]byte, bool, error) {
	raw, err := b.rdb.Get(ctx, b.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get: %w", err)
	}
	return raw, true, nil
}

func (b *Backend) Put(ctx context.Context, key string, data []byte, expiresAt int64) error {
	k := b.prefix + key
	_, err := b.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, k, data, 0)
		if expiresAt != 0 {
			pipe.ExpireAt(ctx, k, time.Unix(expiresAt, 0))
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (b *Backend) Delete(ctx context.Context, key string) error {
	if err := b.rdb.Del(ctx, b.prefix+key).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

func (b *Backend) DeleteIf(ctx context.Context, key string, expected []byte) (bool, error) {
	n, err := deleteIfScript.Run(ctx, b.rdb, []string{b.prefix + key}, expected).Int()
	if err != nil {
		return false, fmt.Errorf("redis delete if: %w", err)
	}
	return n > 0, nil
}

func (b *Backend) Keys(ctx context.Context) ([]string, error) {
	var keys []string
	iter := b.rdb.Scan(ctx, 0, b.prefix+"*", 200).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, strings.TrimPrefix(iter.Val(), b.prefix))
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("redis scan: %w", err)
	}
	return keys, nil
}

// DeleteExpired is a no-op: Redis evicts expired keys on its own.
func (b *Backend) DeleteExpired(context.Context, int64) (int, error) {
	return 0, nil
}
