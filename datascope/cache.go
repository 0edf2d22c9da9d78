package datascope

import (
	"context"
	"sync"
	"time"
)

/* ========================================================================
 * ConfigCache - 权限配置缓存
 * ========================================================================
 * 职责: 定义权限资源 -> 角色配置列表的缓存接口，并提供进程内实现
 * 一致性: 读穿透 + 变更失效，失效到下次读取之间存在短暂陈旧窗口
 * ======================================================================== */

// DefaultCacheTTL 缓存默认过期时间
const DefaultCacheTTL = 10 * time.Minute

// ConfigCache 权限配置缓存
//
// key 为权限资源标识。缓存错误视同未命中，由调用方回源。
type ConfigCache interface {
	// Get 读取缓存，第二返回值表示是否命中
	Get(ctx context.Context, resource string) ([]RoleScopeConfig, bool, error)

	// Put 写入缓存
	Put(ctx context.Context, resource string, configs []RoleScopeConfig) error

	// Invalidate 按权限资源失效缓存
	Invalidate(ctx context.Context, resources ...string) error
}

// memoryEntry 带过期时间的缓存项
type memoryEntry struct {
	configs  []RoleScopeConfig
	expireAt time.Time
}

// MemoryCache 进程内 TTL 缓存，单实例部署或测试使用
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	ttl     time.Duration
}

// NewMemoryCache 创建进程内缓存，ttl <= 0 时使用默认值
func NewMemoryCache(ttl time.Duration) *MemoryCache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &MemoryCache{
		entries: make(map[string]memoryEntry),
		ttl:     ttl,
	}
}

// Get 读取缓存
func (c *MemoryCache) Get(_ context.Context, resource string) ([]RoleScopeConfig, bool, error) {
	c.mu.RLock()
	entry, ok := c.entries[resource]
	c.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}
	if timeNow().After(entry.expireAt) {
		c.mu.Lock()
		delete(c.entries, resource)
		c.mu.Unlock()
		return nil, false, nil
	}
	return entry.configs, true, nil
}

// Put 写入缓存，空配置列表同样缓存（负缓存，避免反复回源）
func (c *MemoryCache) Put(_ context.Context, resource string, configs []RoleScopeConfig) error {
	c.mu.Lock()
	c.entries[resource] = memoryEntry{
		configs:  configs,
		expireAt: timeNow().Add(c.ttl),
	}
	c.mu.Unlock()
	return nil
}

// Invalidate 按权限资源失效缓存
func (c *MemoryCache) Invalidate(_ context.Context, resources ...string) error {
	c.mu.Lock()
	for _, resource := range resources {
		delete(c.entries, resource)
	}
	c.mu.Unlock()
	return nil
}

// Len 当前缓存项数量
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
