package gormscope

import (
	"gorm.io/gorm"

	"github.com/aisgo/ais-datascope/datascope"
)

/* ========================================================================
 * GORM Scope - 数据权限查询过滤
 * ========================================================================
 * 职责: 将解析后的数据权限落到 GORM 查询条件上
 * 用法: db.Scopes(gormscope.Apply(scope, "owner_id")).Find(&rows)
 * ======================================================================== */

// DefaultUserColumn 业务表默认的归属人列
const DefaultUserColumn = "create_user"

// Apply 按解析结果过滤查询
//
// ALL 不追加条件；CUSTOM 将自定义 SQL 与基础用户集合做 OR 并整体括号，
// 保证与调用方已有条件（软删除、业务过滤）AND 组合时不改变语义；
// 其余类型按归属人列 IN 用户集合过滤。
// 用户集合为空的非 ALL 权限按仅本人处理，过滤行为保持收紧而非放开。
func Apply(scope *datascope.DataScope, userColumn string) func(*gorm.DB) *gorm.DB {
	if userColumn == "" {
		userColumn = DefaultUserColumn
	}
	return func(db *gorm.DB) *gorm.DB {
		if scope == nil || scope.Unrestricted() {
			return db
		}

		userIDs := scope.ScopeUserIDs
		if len(userIDs) == 0 {
			userIDs = []int64{scope.CurrentUserID}
		}

		if scope.ScopeType == datascope.ScopeCustom && scope.CustomRulesSQL != "" {
			return db.Where(
				db.Session(&gorm.Session{NewDB: true}).
					Where(userColumn+" IN ?", userIDs).
					Or(scope.CustomRulesSQL),
			)
		}
		return db.Where(userColumn+" IN ?", userIDs)
	}
}
