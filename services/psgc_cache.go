package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"

	"psgc_api_go/config"

	"github.com/redis/go-redis/v9"
)

// CacheKeyVersion is bumped whenever the cached response shape changes
const CacheKeyVersion = "v1"

// CacheStore is a byte-oriented key/value store with per-entry TTL.
// Entries expire passively; Flush drops everything this store owns.
type CacheStore interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Flush(ctx context.Context) error
}

// Cache is the process-wide response cache
var Cache CacheStore = NoopCache{}

// InitializeCache selects the backend named by CACHE_DRIVER
func InitializeCache(cfg *config.Config) (CacheStore, error) {
	switch cfg.CacheDriver {
	case config.CacheDriverRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.RedisAddr, err)
		}
		log.Printf("[INFO] Response cache: redis (%s)", cfg.RedisAddr)
		Cache = NewRedisCache(client, cfg.CachePrefix)
	case config.CacheDriverNone:
		log.Println("[INFO] Response cache disabled")
		Cache = NoopCache{}
	default:
		log.Println("[INFO] Response cache: in-memory")
		Cache = NewMemoryCache(time.Minute)
	}
	return Cache, nil
}

// CacheKey derives the key for one read: entity, action and every non-empty
// parameter in sorted order. Equal inputs always give equal keys.
func CacheKey(entity, action string, params map[string]string) string {
	names := make([]string, 0, len(params))
	for name, value := range params {
		if strings.TrimSpace(value) != "" {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	var b strings.Builder
	b.WriteString(CacheKeyVersion)
	b.WriteByte(':')
	b.WriteString(entity)
	b.WriteByte(':')
	b.WriteString(action)
	for _, name := range names {
		b.WriteByte(':')
		b.WriteString(url.QueryEscape(name))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(strings.TrimSpace(params[name])))
	}
	return b.String()
}

// NoopCache never stores anything
type NoopCache struct{}

func (NoopCache) Get(context.Context, string) ([]byte, bool, error) { return nil, false, nil }

func (NoopCache) Set(context.Context, string, []byte, time.Duration) error { return nil }

func (NoopCache) Flush(context.Context) error { return nil }

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

// MemoryCache keeps entries in process memory; a background goroutine evicts
// expired entries every interval.
type MemoryCache struct {
	store map[string]*memoryEntry
	mu    sync.RWMutex
	stop  chan struct{}
	once  sync.Once
}

// NewMemoryCache creates an in-memory cache and starts its cleanup loop
func NewMemoryCache(interval time.Duration) *MemoryCache {
	mc := &MemoryCache{
		store: make(map[string]*memoryEntry),
		stop:  make(chan struct{}),
	}

	go mc.cleanup(interval)

	return mc
}

func (mc *MemoryCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	mc.mu.RLock()
	entry, ok := mc.store[key]
	mc.mu.RUnlock()

	if !ok || time.Now().After(entry.expiresAt) {
		return nil, false, nil
	}
	return entry.value, true, nil
}

func (mc *MemoryCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}

	stored := make([]byte, len(value))
	copy(stored, value)

	mc.mu.Lock()
	mc.store[key] = &memoryEntry{value: stored, expiresAt: time.Now().Add(ttl)}
	mc.mu.Unlock()
	return nil
}

func (mc *MemoryCache) Flush(context.Context) error {
	mc.mu.Lock()
	mc.store = make(map[string]*memoryEntry)
	mc.mu.Unlock()
	return nil
}

// Len returns the number of stored entries, expired ones included
func (mc *MemoryCache) Len() int {
	mc.mu.RLock()
	defer mc.mu.RUnlock()
	return len(mc.store)
}

// Stop ends the cleanup goroutine
func (mc *MemoryCache) Stop() {
	mc.once.Do(func() { close(mc.stop) })
}

func (mc *MemoryCache) cleanup(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-mc.stop:
			return
		case <-ticker.C:
			mc.evictExpired(time.Now())
		}
	}
}

func (mc *MemoryCache) evictExpired(now time.Time) {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	for key, entry := range mc.store {
		if now.After(entry.expiresAt) {
			delete(mc.store, key)
		}
	}
}

// RedisCache stores entries under "<prefix>:<key>"
type RedisCache struct {
	client *redis.Client
	prefix string
}

// NewRedisCache wraps an existing client
func NewRedisCache(client *redis.Client, prefix string) *RedisCache {
	return &RedisCache{client: client, prefix: prefix}
}

func (rc *RedisCache) key(key string) string {
	if rc.prefix == "" {
		return key
	}
	return rc.prefix + ":" + key
}

func (rc *RedisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	b, err := rc.client.Get(ctx, rc.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return b, true, nil
}

func (rc *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	return rc.client.Set(ctx, rc.key(key), value, ttl).Err()
}

// Flush deletes every key under this cache's prefix using SCAN batches
func (rc *RedisCache) Flush(ctx context.Context) error {
	var cursor uint64
	pattern := rc.key(CacheKeyVersion + ":*")
	for {
		keys, next, err := rc.client.Scan(ctx, cursor, pattern, 500).Result()
		if err != nil {
			return fmt.Errorf("failed to scan cache keys: %w", err)
		}
		if len(keys) > 0 {
			if err := rc.client.Del(ctx, keys...).Err(); err != nil {
				return fmt.Errorf("failed to delete cache keys: %w", err)
			}
		}
		cursor = next
		if cursor == 0 {
			return nil
		}
	}
}

// Close releases the redis connection pool
func (rc *RedisCache) Close() error {
	return rc.client.Close()
}
