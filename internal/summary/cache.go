package summary

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
)

// Entry is one cached summary.
type Entry struct {
	Summary     string    `json:"summary"`
	Model       string    `json:"model"`
	GeneratedAt time.Time `json:"generatedAt"`
}

// Fresh reports whether the entry is younger than t's TTL at now.
func (e Entry) Fresh(t Type, now time.Time) bool {
	if e.GeneratedAt.IsZero() {
		return false
	}
	return now.Sub(e.GeneratedAt) < t.TTL()
}

// Blob is the per-event cache document, keyed by summary type.
type Blob map[Type]Entry

// Cache stores one Blob per event. Get returns a nil Blob and no error when
// nothing is cached. Put replaces the whole blob; concurrent writers for the
// same event can lose each other's entries.
type Cache interface {
	Get(ctx context.Context, eventID string) (Blob, error)
	Put(ctx context.Context, eventID string, b Blob) error
}

// MemoryCache is a process-local Cache.
type MemoryCache struct {
	mu    sync.Mutex
	blobs map[string]Blob
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{blobs: make(map[string]Blob)}
}

func (m *MemoryCache) Get(_ context.Context, eventID string) (Blob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.blobs[eventID]
	if !ok {
		return nil, nil
	}
	return b.clone(), nil
}

func (m *MemoryCache) Put(_ context.Context, eventID string, b Blob) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.blobs[eventID] = b.clone()
	return nil
}

func (b Blob) clone() Blob {
	out := make(Blob, len(b))
	for k, v := range b {
		out[k] = v
	}
	return out
}

// RedisKeyPrefix namespaces summary blobs in Redis.
const RedisKeyPrefix = "lockstep:summary:"

// RedisCache keeps blobs in Redis as JSON strings. Keys expire after the
// longest TTL since no entry can be fresh beyond it.
type RedisCache struct {
	rdb redis.Cmdable
}

func NewRedisCache(rdb redis.Cmdable) *RedisCache {
	return &RedisCache{rdb: rdb}
}

// DialRedis parses a redis:// URL and pings the server.
func DialRedis(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

func (r *RedisCache) Get(ctx context.Context, eventID string) (Blob, error) {
	data, err := r.rdb.Get(ctx, RedisKeyPrefix+eventID).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get: %w", err)
	}
	var b Blob
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("decode summary blob: %w", err)
	}
	return b, nil
}

func (r *RedisCache) Put(ctx context.Context, eventID string, b Blob) error {
	data, err := json.Marshal(b)
	if err != nil {
		return fmt.Errorf("encode summary blob: %w", err)
	}
	if err := r.rdb.Set(ctx, RedisKeyPrefix+eventID, data, TypeNudge.TTL()).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}
