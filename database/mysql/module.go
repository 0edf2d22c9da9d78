package mysql

import (
	"go.uber.org/fx"
)

/* ========================================================================
 * MySQL Module
 * ========================================================================
 * 职责: 提供 MySQL 依赖注入模块
 * ======================================================================== */

// Module MySQL 模块
// 提供: *gorm.DB
var Module = fx.Module("mysql",
	fx.Provide(NewDB),
)
