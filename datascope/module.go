package datascope

import (
	"go.uber.org/fx"
	"go.uber.org/zap"
)

/* ========================================================================
 * DataScope Module
 * ========================================================================
 * 职责: 提供数据权限解析处理器的依赖注入模块
 * ======================================================================== */

// HandlerParams Handler 依赖
type HandlerParams struct {
	fx.In

	Store     ConfigStore
	Principal PrincipalContext
	Hierarchy OrgHierarchy
	Logger    *zap.Logger

	// Cache 可选，缺省使用进程内缓存
	Cache ConfigCache `optional:"true"`
	// Metrics 可选，缺省不埋点
	Metrics Metrics `optional:"true"`
}

// HandlerResult Handler 产出
type HandlerResult struct {
	fx.Out

	Handler *Handler
}

// ProvideHandler 构造数据权限解析处理器
func ProvideHandler(p HandlerParams) HandlerResult {
	return HandlerResult{
		Handler: NewHandler(p.Store, p.Principal, p.Hierarchy, p.Logger, HandlerOptions{
			Cache:   p.Cache,
			Metrics: p.Metrics,
		}),
	}
}

// Module 数据权限模块
// 提供: *Handler
var Module = fx.Module("datascope",
	fx.Provide(ProvideHandler),
)
