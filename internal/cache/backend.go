// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// backend.go stores persistence records in Valkey with a per-user byte
// quota. The size of every record is tracked in a usage hash per user so
// a write can be refused before it lands, the way browser storage refuses
// writes past its limit.
package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/redis/go-redis/v9"

	"caroumate/internal/persist"
)

// usagePrefix is the key prefix of the per-user size hash.
const usagePrefix = "caroumate-usage:"

// Backend implements persist.Backend on Valkey.
type Backend struct {
	client *redis.Client
	quota  int64
}

// NewBackend creates a Backend. quota is the byte limit per user; zero or
// less disables it.
func NewBackend(client *redis.Client, quota int64) *Backend {
	return &Backend{client: client, quota: quota}
}

// Write stores data at key unless it would push the owner past the quota.
// The check and the write are not atomic; two concurrent writes for the
// same user may overshoot by one record.
func (b *Backend) Write(ctx context.Context, key string, data []byte) error {
	usageKey := usagePrefix + persist.Owner(key)

	if b.quota > 0 {
		used, err := b.usage(ctx, usageKey, key)
		if err != nil {
			return err
		}
		if used+int64(len(data)) > b.quota {
			slog.Debug("valkey write over quota", "key", key, "used", used, "size", len(data), "quota", b.quota)
			return fmt.Errorf("%w: %d of %d bytes", persist.ErrQuotaExceeded, used+int64(len(data)), b.quota)
		}
	}

	_, err := b.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, key, data, 0)
		pipe.HSet(ctx, usageKey, key, len(data))
		return nil
	})
	if err != nil {
		return writeError(key, err)
	}
	return nil
}

// writeError wraps a failed write. A maxmemory refusal becomes
// persist.ErrQuotaExceeded so the history layer evicts and retries.
func writeError(key string, err error) error {
	if strings.Contains(err.Error(), "OOM ") {
		return fmt.Errorf("%w: valkey write %s: %v", persist.ErrQuotaExceeded, key, err)
	}
	return fmt.Errorf("valkey write %s: %w", key, err)
}

// Read returns the value at key, or persist.ErrNotFound.
func (b *Backend) Read(ctx context.Context, key string) ([]byte, error) {
	val, err := b.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, persist.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("valkey read %s: %w", key, err)
	}
	return val, nil
}

// Remove deletes key and its usage entry.
func (b *Backend) Remove(ctx context.Context, key string) error {
	_, err := b.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		pipe.HDel(ctx, usagePrefix+persist.Owner(key), key)
		return nil
	})
	if err != nil {
		return fmt.Errorf("valkey remove %s: %w", key, err)
	}
	return nil
}

// Incr atomically increments the counter at key.
func (b *Backend) Incr(ctx context.Context, key string) (int64, error) {
	n, err := b.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("valkey incr %s: %w", key, err)
	}
	return n, nil
}

// usage sums the recorded sizes in usageKey, leaving out the record being
// replaced.
func (b *Backend) usage(ctx context.Context, usageKey, replacing string) (int64, error) {
	sizes, err := b.client.HGetAll(ctx, usageKey).Result()
	if err != nil {
		return 0, fmt.Errorf("valkey usage: %w", err)
	}
	var total int64
	for k, v := range sizes {
		if k == replacing {
			continue
		}
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			slog.Warn("invalid usage entry", "key", usageKey, "field", k, "value", v)
			continue
		}
		total += n
	}
	return total, nil
}
