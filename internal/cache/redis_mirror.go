package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// redisMirror is a warm secondary for the in-process LRU: it is populated
// on every LRU fill and consulted only on an LRU miss, so a freshly
// started replica doesn't need to hit Store for data another replica
// already warmed. Grounded on internal/common/cache/redis_cache.go's
// key-prefix/Set-Get-with-JSON idiom.
type redisMirror struct {
	client *redis.Client
	prefix string
}

func newRedisMirror(client *redis.Client, prefix string) *redisMirror {
	return &redisMirror{client: client, prefix: prefix}
}

func (m *redisMirror) fullKey(key string) string {
	return fmt.Sprintf("%s:%s", m.prefix, key)
}

func (m *redisMirror) set(ctx context.Context, key string, value interface{}, ttl time.Duration) {
	if m.client == nil {
		return
	}
	data, err := json.Marshal(value)
	if err != nil {
		return
	}
	// Best-effort: a mirror-write failure must never surface to the caller.
	_ = m.client.Set(ctx, m.fullKey(key), data, ttl).Err()
}

func (m *redisMirror) get(ctx context.Context, key string, dest interface{}) bool {
	if m.client == nil {
		return false
	}
	data, err := m.client.Get(ctx, m.fullKey(key)).Bytes()
	if err != nil {
		return false
	}
	return json.Unmarshal(data, dest) == nil
}

func (m *redisMirror) deletePrefix(ctx context.Context, key string) {
	if m.client == nil {
		return
	}
	_ = m.client.Del(ctx, m.fullKey(key)).Err()
}
