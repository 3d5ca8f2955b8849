// Package redis implements session.Backend on a Redis hash whose TTL is
// refreshed on every write, so abandoned sessions expire on their own.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "flowdecoder:session:"

var (
	// ErrFailedToParseURL is returned when the connection URL is invalid.
	ErrFailedToParseURL = errors.New("failed to parse redis connection url")
	// ErrNotReady is returned when the server does not answer PING.
	ErrNotReady = errors.New("redis is not ready")
)

// Store keeps one session namespace in a single hash.
type Store struct {
	db  redis.UniversalClient
	key string
	ttl time.Duration
}

// Connect parses url, pings the server and returns a Store for namespace.
func Connect(ctx context.Context, url, namespace string, ttl time.Duration) (*Store, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, errors.Join(ErrFailedToParseURL, err)
	}

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.Join(ErrNotReady, err)
	}
	return New(client, namespace, ttl)
}

// New wraps an existing client. A zero ttl leaves the hash without expiry.
func New(client redis.UniversalClient, namespace string, ttl time.Duration) (*Store, error) {
	namespace = strings.TrimSpace(namespace)
	if namespace == "" {
		return nil, fmt.Errorf("session namespace is empty")
	}
	return &Store{db: client, key: keyPrefix + namespace, ttl: ttl}, nil
}

// Key returns the hash key holding this namespace.
func (s *Store) Key() string { return s.key }

// Get returns the stored values for keys; missing keys are absent from the map.
func (s *Store) Get(ctx context.Context, keys []string) (map[string]any, error) {
	out := make(map[string]any, len(keys))
	if len(keys) == 0 {
		return out, nil
	}
	vals, err := s.db.HMGet(ctx, s.key, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("read session hash: %w", err)
	}
	for i, raw := range vals {
		str, ok := raw.(string)
		if !ok {
			continue
		}
		var v any
		if err := json.Unmarshal([]byte(str), &v); err != nil {
			continue
		}
		out[keys[i]] = v
	}
	return out, nil
}

// Set writes values and refreshes the hash TTL in one pipeline.
func (s *Store) Set(ctx context.Context, values map[string]any) error {
	if len(values) == 0 {
		return nil
	}
	fields := make(map[string]any, len(values))
	for key, v := range values {
		raw, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("encode %s: %w", key, err)
		}
		fields[key] = string(raw)
	}

	_, err := s.db.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, s.key, fields)
		if s.ttl > 0 {
			pipe.Expire(ctx, s.key, s.ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("write session hash: %w", err)
	}
	return nil
}

// Clear deletes the whole namespace hash.
func (s *Store) Clear(ctx context.Context) error {
	if err := s.db.Del(ctx, s.key).Err(); err != nil {
		return fmt.Errorf("delete session hash: %w", err)
	}
	return nil
}

// Close terminates the Redis connection.
func (s *Store) Close() error {
	return s.db.Close()
}
