package cache

import (
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/aisgo/ais-datascope/cache/redis"
	"github.com/aisgo/ais-datascope/conf"
	"github.com/aisgo/ais-datascope/datascope"
)

/* ========================================================================
 * Cache Module
 * ========================================================================
 * 职责: 提供 Redis 客户端与权限配置共享缓存的依赖注入模块
 * ======================================================================== */

// ScopeCacheParams 权限配置缓存依赖
type ScopeCacheParams struct {
	fx.In

	Client *redis.Client
	Config conf.ScopeCacheConfig
	Logger *zap.Logger
}

// ProvideScopeCache 构造权限配置缓存
//
// backend 为 memory 时退化为进程内缓存，单实例部署不依赖 Redis。
func ProvideScopeCache(p ScopeCacheParams) datascope.ConfigCache {
	if p.Config.Backend == "memory" {
		return datascope.NewMemoryCache(p.Config.TTL)
	}
	return redis.NewScopeCache(p.Client, p.Config.KeyPrefix, p.Config.TTL, p.Logger)
}

// Module 缓存模块
// 提供: redis.Clienter, *redis.Client, datascope.ConfigCache
var Module = fx.Module("cache",
	fx.Provide(
		redis.NewClient,
		func(c *redis.Client) redis.Clienter { return c },
		ProvideScopeCache,
	),
)
