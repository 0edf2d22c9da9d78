package store

import (
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/aisgo/ais-datascope/cache/redis"
	"github.com/aisgo/ais-datascope/datascope"
)

var _ Locker = (*redis.Client)(nil)

/* ========================================================================
 * Store Module
 * ========================================================================
 * 职责: 提供配置存储与组织层级查询的依赖注入模块
 * ======================================================================== */

// StoreParams 存储层依赖
type StoreParams struct {
	fx.In

	DB     *gorm.DB
	Logger *zap.Logger

	// Cache / Notifier / Locker 仅写路径需要，均可缺省
	Cache    datascope.ConfigCache `optional:"true"`
	Notifier Notifier              `optional:"true"`
	Locker   Locker                `optional:"true"`
}

// StoreResult 存储层产出
type StoreResult struct {
	fx.Out

	ConfigStore datascope.ConfigStore
	Hierarchy   datascope.OrgHierarchy
	Assignment  *AssignmentStore
}

// ProvideStores 构造存储层组件
func ProvideStores(p StoreParams) StoreResult {
	return StoreResult{
		ConfigStore: NewGormConfigStore(p.DB, p.Logger),
		Hierarchy:   NewGormOrgHierarchy(p.DB, p.Logger),
		Assignment:  NewAssignmentStore(p.DB, p.Cache, p.Notifier, p.Locker, p.Logger),
	}
}

// Module 存储模块
// 提供: datascope.ConfigStore, datascope.OrgHierarchy, *AssignmentStore
var Module = fx.Module("store",
	fx.Provide(ProvideStores),
)
