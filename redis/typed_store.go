package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// TypedStore provides typed JSON-serialized operations on Redis under a
// common key prefix.
type TypedStore[C any] struct {
	client    *Client
	keyPrefix string
}

// NewTypedStore creates a TypedStore backed by the given Redis client.
// All keys are prefixed with keyPrefix followed by a colon separator.
func NewTypedStore[C any](client *Client, keyPrefix string) *TypedStore[C] {
	return &TypedStore[C]{
		client:    client,
		keyPrefix: keyPrefix,
	}
}

func (s *TypedStore[C]) fullKey(key string) string {
	if s.keyPrefix == "" {
		return key
	}
	return s.keyPrefix + ":" + key
}

// Load deserializes JSON from Redis. Returns (nil, nil) if key doesn't exist.
func (s *TypedStore[C]) Load(ctx context.Context, key string) (*C, error) {
	raw, err := s.client.Get(ctx, s.fullKey(key))
	if err != nil {
		if IsNil(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("typed store load %q: %w", key, err)
	}

	var val C
	if err := json.Unmarshal([]byte(raw), &val); err != nil {
		return nil, fmt.Errorf("typed store unmarshal %q: %w", key, err)
	}
	return &val, nil
}

// Save serializes to JSON and stores with TTL. TTL of 0 means no expiration.
func (s *TypedStore[C]) Save(ctx context.Context, key string, val *C, ttl time.Duration) error {
	data, err := json.Marshal(val)
	if err != nil {
		return fmt.Errorf("typed store marshal %q: %w", key, err)
	}
	if err := s.client.Set(ctx, s.fullKey(key), string(data), ttl); err != nil {
		return fmt.Errorf("typed store save %q: %w", key, err)
	}
	return nil
}

// SaveIfAbsent stores val only when key is not present. It reports whether
// the value was written.
func (s *TypedStore[C]) SaveIfAbsent(ctx context.Context, key string, val *C) (bool, error) {
	data, err := json.Marshal(val)
	if err != nil {
		return false, fmt.Errorf("typed store marshal %q: %w", key, err)
	}
	ok, err := s.client.SetNX(ctx, s.fullKey(key), string(data), 0)
	if err != nil {
		return false, fmt.Errorf("typed store save %q: %w", key, err)
	}
	return ok, nil
}

// Delete removes the key.
func (s *TypedStore[C]) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.fullKey(key)); err != nil {
		return fmt.Errorf("typed store delete %q: %w", key, err)
	}
	return nil
}

// Keys lists the stored keys with the prefix removed.
func (s *TypedStore[C]) Keys(ctx context.Context) ([]string, error) {
	pattern := "*"
	if s.keyPrefix != "" {
		pattern = s.keyPrefix + ":*"
	}
	full, err := s.client.Keys(ctx, pattern)
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(full))
	for _, k := range full {
		if s.keyPrefix != "" {
			k = strings.TrimPrefix(k, s.keyPrefix+":")
		}
		keys = append(keys, k)
	}
	return keys, nil
}
