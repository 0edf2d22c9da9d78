package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/aisgo/ais-datascope/datascope"
)

/* ========================================================================
 * ScopeCache - 数据权限配置的 Redis 缓存
 * ========================================================================
 * 职责: 多实例部署下共享权限配置缓存，配合变更事件广播失效
 * 存储: 每个权限资源一个 key，值为配置列表 JSON；空列表同样缓存
 * ======================================================================== */

// DefaultKeyPrefix 缓存 key 前缀
const DefaultKeyPrefix = "datascope:scope:"

// ScopeCache Redis 权限配置缓存
type ScopeCache struct {
	client Clienter
	prefix string
	ttl    time.Duration
	log    *zap.Logger
}

var _ datascope.ConfigCache = (*ScopeCache)(nil)

// NewScopeCache 创建 Redis 权限配置缓存
func NewScopeCache(client Clienter, prefix string, ttl time.Duration, log *zap.Logger) *ScopeCache {
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	if ttl <= 0 {
		ttl = datascope.DefaultCacheTTL
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &ScopeCache{client: client, prefix: prefix, ttl: ttl, log: log}
}

func (c *ScopeCache) key(resource string) string {
	return c.prefix + resource
}

// Get 读取权限资源的配置列表
func (c *ScopeCache) Get(ctx context.Context, resource string) ([]datascope.RoleScopeConfig, bool, error) {
	raw, err := c.client.Get(ctx, c.key(resource))
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, err
	}

	var configs []datascope.RoleScopeConfig
	if err := json.Unmarshal([]byte(raw), &configs); err != nil {
		// 脏数据按未命中处理，顺手清掉
		c.log.Warn("corrupted scope config cache entry",
			zap.String("resource", resource),
			zap.Error(err),
		)
		_ = c.client.Del(ctx, c.key(resource))
		return nil, false, nil
	}
	return configs, true, nil
}

// Put 写入权限资源的配置列表，空列表同样缓存
func (c *ScopeCache) Put(ctx context.Context, resource string, configs []datascope.RoleScopeConfig) error {
	if configs == nil {
		configs = []datascope.RoleScopeConfig{}
	}
	raw, err := json.Marshal(configs)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.key(resource), string(raw), c.ttl)
}

// Invalidate 删除指定权限资源的缓存
func (c *ScopeCache) Invalidate(ctx context.Context, resources ...string) error {
	if len(resources) == 0 {
		return nil
	}
	keys := make([]string, 0, len(resources))
	for _, resource := range resources {
		keys = append(keys, c.key(resource))
	}
	return c.client.Del(ctx, keys...)
}
