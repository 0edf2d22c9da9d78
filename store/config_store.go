package store

import (
	"context"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/aisgo/ais-datascope/datascope"
)

/* ========================================================================
 * ConfigStore - 权限配置读取
 * ========================================================================
 * 职责: 按权限资源标识读取启用状态的角色权限配置
 * ======================================================================== */

// GormConfigStore 基于 GORM 的权限配置存储
type GormConfigStore struct {
	db     *gorm.DB
	logger *zap.Logger
}

var _ datascope.ConfigStore = (*GormConfigStore)(nil)

// NewGormConfigStore 创建权限配置存储
func NewGormConfigStore(db *gorm.DB, logger *zap.Logger) *GormConfigStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GormConfigStore{db: db, logger: logger}
}

// roleScopeRow 关联查询结果行
type roleScopeRow struct {
	RoleID      int64  `gorm:"column:role_id"`
	ScopeType   string `gorm:"column:scope_type"`
	CustomRules string `gorm:"column:custom_rules"`
}

// ListRoleScopesByPermissionResource 按权限资源标识查询角色权限配置
//
// 只返回启用且未软删除的配置；同一角色可以出现多行（基础类型 + CUSTOM 叠加）。
func (s *GormConfigStore) ListRoleScopesByPermissionResource(ctx context.Context, code string) ([]datascope.RoleScopeConfig, error) {
	var rows []roleScopeRow
	err := s.db.WithContext(ctx).
		Model(&SysRoleDataScope{}).
		Select("sys_role_data_scope.role_id", "sys_data_scope.scope_type", "sys_data_scope.custom_rules").
		Joins("JOIN sys_data_scope ON sys_data_scope.id = sys_role_data_scope.data_scope_id AND sys_data_scope.deleted = 0").
		Where("sys_data_scope.permission_resource = ?", code).
		Where("sys_data_scope.status = ?", StatusEnabled).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	configs := make([]datascope.RoleScopeConfig, 0, len(rows))
	for _, row := range rows {
		configs = append(configs, datascope.RoleScopeConfig{
			RoleID:      row.RoleID,
			ScopeType:   row.ScopeType,
			CustomRules: row.CustomRules,
		})
	}
	return configs, nil
}
