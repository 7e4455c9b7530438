package collector

import (
	"context"
	"sync"
	"time"

	"EntryRadar/pkg/model"
)

// SnapshotKey 市场快照的缓存键
const SnapshotKey = "market_snapshot"

// FetchFunc 上游获取函数，未命中缓存时调用
type FetchFunc func(ctx context.Context) (*model.MarketSnapshot, error)

type cacheEntry struct {
	mu       sync.Mutex
	value    *model.MarketSnapshot
	cachedAt time.Time
}

// SnapshotCache 短TTL快照缓存，每个键独立加锁，
// 同一TTL窗口内上游最多被调用一次。获取失败直接向上传递。
type SnapshotCache struct {
	ttl     time.Duration
	mu      sync.RWMutex
	entries map[string]*cacheEntry
	now     func() time.Time
}

// NewSnapshotCache 创建快照缓存
func NewSnapshotCache(ttl time.Duration) *SnapshotCache {
	return &SnapshotCache{
		ttl:     ttl,
		entries: make(map[string]*cacheEntry),
		now:     time.Now,
	}
}

// GetOrFetch 返回缓存值，过期或不存在时调用 fetch 并写入缓存
func (c *SnapshotCache) GetOrFetch(ctx context.Context, key string, fetch FetchFunc) (*model.MarketSnapshot, error) {
	entry := c.entry(key)

	entry.mu.Lock()
	defer entry.mu.Unlock()

	if entry.value != nil && c.now().Sub(entry.cachedAt) < c.ttl {
		return entry.value, nil
	}

	value, err := fetch(ctx)
	if err != nil {
		return nil, err
	}

	entry.value = value
	entry.cachedAt = c.now()
	return value, nil
}

// Invalidate 作废指定键的缓存
func (c *SnapshotCache) Invalidate(key string) {
	entry := c.entry(key)
	entry.mu.Lock()
	entry.value = nil
	entry.mu.Unlock()
}

func (c *SnapshotCache) entry(key string) *cacheEntry {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	if ok {
		return entry
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if entry, ok = c.entries[key]; ok {
		return entry
	}
	entry = &cacheEntry{}
	c.entries[key] = entry
	return entry
}
