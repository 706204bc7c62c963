package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	red "github.com/redis/go-redis/v9"
)

const defaultRedisPrefix = "pimis:session"

// RedisBackend keeps one session per namespace in a redis hash, so several
// terminals can share a login.
type RedisBackend struct {
	client red.UniversalClient
	key    string
}

// RedisOptions configures NewRedisBackend.
type RedisOptions struct {
	Addr      string
	DB        int
	Prefix    string
	Namespace string
}

// NewRedisBackend connects to redis and returns a backend for the namespace.
func NewRedisBackend(opts RedisOptions) *RedisBackend {
	client := red.NewClient(&red.Options{Addr: opts.Addr, DB: opts.DB})
	return NewRedisBackendWithClient(client, opts.Prefix, opts.Namespace)
}

// NewRedisBackendWithClient wraps an existing client.
func NewRedisBackendWithClient(client red.UniversalClient, prefix, namespace string) *RedisBackend {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		prefix = defaultRedisPrefix
	}
	namespace = strings.TrimSpace(namespace)
	if namespace == "" {
		namespace = "default"
	}
	return &RedisBackend{client: client, key: prefix + ":" + namespace}
}

// HashKey returns the redis key holding the session hash
func (r *RedisBackend) HashKey() string {
	return r.key
}

func (r *RedisBackend) Load(ctx context.Context, key Key) (string, bool, error) {
	v, err := r.client.HGet(ctx, r.key, string(key)).Result()
	if err != nil {
		if errors.Is(err, red.Nil) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("redis hget %s: %w", key, err)
	}
	return v, true, nil
}

// Apply runs the batch in a MULTI/EXEC transaction.
func (r *RedisBackend) Apply(ctx context.Context, batch Batch) error {
	if batch.empty() {
		return nil
	}

	deleted := make(map[Key]struct{}, len(batch.Delete))
	fields := make([]string, 0, len(batch.Delete))
	for _, k := range batch.Delete {
		deleted[k] = struct{}{}
		fields = append(fields, string(k))
	}
	values := make(map[string]any, len(batch.Set))
	for k, v := range batch.Set {
		if _, gone := deleted[k]; !gone {
			values[string(k)] = v
		}
	}

	_, err := r.client.TxPipelined(ctx, func(pipe red.Pipeliner) error {
		if len(values) > 0 {
			pipe.HSet(ctx, r.key, values)
		}
		if len(fields) > 0 {
			pipe.HDel(ctx, r.key, fields...)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis session transaction: %w", err)
	}
	return nil
}

func (r *RedisBackend) Close() error {
	return r.client.Close()
}
