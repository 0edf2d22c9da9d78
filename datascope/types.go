package datascope

import "context"

/* ========================================================================
 * DataScope Types - 数据权限核心类型
 * ========================================================================
 * 职责: 定义数据权限对象与外部协作者接口
 * ======================================================================== */

// RoleScopeConfig 角色在某个权限资源上的数据权限配置
// 由外部配置存储拥有，本引擎只读
type RoleScopeConfig struct {
	// RoleID 角色 ID
	RoleID int64 `json:"role_id"`
	// ScopeType 权限类型原始值（ALL / UNIT / UNIT_AND_CHILD / SELF / SELF_AND_CHILD / CUSTOM）
	ScopeType string `json:"scope_type"`
	// CustomRules 自定义规则 JSON（仅 CUSTOM 类型使用）
	CustomRules string `json:"custom_rules"`
}

// DataScope 数据权限解析结果
// 每次解析新建，交由查询改写层消费后即弃
type DataScope struct {
	// ScopeType 最终权限类型
	ScopeType ScopeType `json:"scope_type"`
	// CurrentUserID 当前用户 ID
	CurrentUserID int64 `json:"current_user_id"`
	// ScopeUserIDs 可见用户 ID 集合（ALL 时为空，表示不过滤）
	ScopeUserIDs []int64 `json:"scope_user_ids"`
	// CustomRulesSQL 编译后的自定义规则 SQL 片段（仅 CUSTOM 类型非空）
	CustomRulesSQL string `json:"custom_rules_sql"`
	// PermissionCode 权限资源标识
	PermissionCode string `json:"permission_code"`
}

// Unrestricted 是否无需过滤（ALL 权限）
func (d *DataScope) Unrestricted() bool {
	return d.ScopeType == ScopeAll
}

// ========================================================================
// 外部协作者接口
// ========================================================================

// ConfigStore 数据权限配置存储
type ConfigStore interface {
	// ListRoleScopesByPermissionResource 按权限资源标识查询角色权限配置
	ListRoleScopesByPermissionResource(ctx context.Context, code string) ([]RoleScopeConfig, error)
}

// PrincipalContext 当前登录主体信息
type PrincipalContext interface {
	// CurrentUserID 当前用户 ID
	CurrentUserID(ctx context.Context) (int64, error)

	// CurrentUserRoleIDs 当前用户持有的角色 ID 集合
	CurrentUserRoleIDs(ctx context.Context) ([]int64, error)

	// CurrentUserDisplayName 当前用户显示名称
	CurrentUserDisplayName(ctx context.Context) (string, error)

	// CurrentUserOrgIDs 当前用户所属组织 ID 集合
	CurrentUserOrgIDs(ctx context.Context) ([]int64, error)
}

// OrgHierarchy 组织层级查询
type OrgHierarchy interface {
	// GetUserOrgIDs 用户所属组织 ID 列表
	GetUserOrgIDs(ctx context.Context, userID int64) ([]int64, error)

	// GetPrincipalOrgIDs 用户担任负责人的组织 ID 列表
	GetPrincipalOrgIDs(ctx context.Context, userID int64) ([]int64, error)

	// GetUserIDsByOrgIDs 组织内所有用户 ID 列表
	GetUserIDsByOrgIDs(ctx context.Context, orgIDs []int64) ([]int64, error)

	// GetUnitAndChildUserIDs 本组织 + 下级组织用户 ID 列表（要求负责人身份）
	GetUnitAndChildUserIDs(ctx context.Context, userID int64) ([]int64, error)

	// GetSelfAndChildUserIDs 本人 + 下级组织用户 ID 列表（要求负责人身份）
	GetSelfAndChildUserIDs(ctx context.Context, userID int64) ([]int64, error)
}

// ========================================================================
// 辅助函数
// ========================================================================

// dedupeIDs 去重并保持首次出现顺序
func dedupeIDs(ids []int64) []int64 {
	if len(ids) == 0 {
		return nil
	}
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
