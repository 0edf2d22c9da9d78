package store

import (
	"time"

	"gorm.io/gorm"
	"gorm.io/plugin/soft_delete"

	"github.com/aisgo/ais-datascope/utils/id-generator/snowflake"
)

/* ========================================================================
 * Store Models - 数据权限持久化模型
 * ========================================================================
 * 职责: 定义权限配置、角色关联、组织层级的表结构
 * 字段: 与系统内其他服务的 BaseEntity 保持一致
 * ======================================================================== */

// 配置状态
const (
	StatusEnabled  = 1
	StatusDisabled = 0
)

// BaseModel 所有模型的基类
// 包含通用字段：ID、创建时间、更新时间、软删除标记
type BaseModel struct {
	ID         int64                 `json:"id,string" gorm:"primaryKey;comment:主键ID"`
	CreateTime time.Time             `json:"create_time" gorm:"column:create_time;autoCreateTime;comment:创建时间"`
	UpdateTime time.Time             `json:"update_time" gorm:"column:update_time;autoUpdateTime;comment:更新时间"`
	Deleted    soft_delete.DeletedAt `json:"-" gorm:"column:deleted;default:0;softDelete:flag;comment:软删除标记(1=已删除)"`
}

// BeforeCreate GORM 钩子：在创建记录前自动生成雪花 ID
// 注意: 在多实例部署环境中，必须配置环境变量 SNOWFLAKE_NODE_ID
func (m *BaseModel) BeforeCreate(tx *gorm.DB) error {
	if m.ID == 0 {
		m.ID = snowflake.Generate()
	}
	return nil
}

// SysDataScope 数据权限配置
type SysDataScope struct {
	BaseModel
	Name               string `json:"name" gorm:"column:name;size:64;comment:配置名称"`
	PermissionResource string `json:"permission_resource" gorm:"column:permission_resource;size:128;index;comment:权限资源标识"`
	ScopeType          string `json:"scope_type" gorm:"column:scope_type;size:32;comment:权限类型"`
	CustomRules        string `json:"custom_rules" gorm:"column:custom_rules;type:text;comment:自定义规则JSON"`
	Status             int    `json:"status" gorm:"column:status;default:1;comment:状态(1=启用 0=停用)"`
	Remark             string `json:"remark" gorm:"column:remark;size:255;comment:备注"`
}

// TableName 表名
func (SysDataScope) TableName() string {
	return "sys_data_scope"
}

// SysRoleDataScope 角色与数据权限配置关联
type SysRoleDataScope struct {
	BaseModel
	RoleID      int64 `json:"role_id,string" gorm:"column:role_id;index;comment:角色ID"`
	DataScopeID int64 `json:"data_scope_id,string" gorm:"column:data_scope_id;index;comment:数据权限配置ID"`
}

// TableName 表名
func (SysRoleDataScope) TableName() string {
	return "sys_role_data_scope"
}

// SysOrg 组织
type SysOrg struct {
	BaseModel
	Name        string `json:"name" gorm:"column:name;size:64;comment:组织名称"`
	ParentID    int64  `json:"parent_id,string" gorm:"column:parent_id;index;comment:上级组织ID(0=根)"`
	PrincipalID int64  `json:"principal_id,string" gorm:"column:principal_id;index;comment:负责人用户ID"`
	Status      int    `json:"status" gorm:"column:status;default:1;comment:状态(1=启用 0=停用)"`
}

// TableName 表名
func (SysOrg) TableName() string {
	return "sys_org"
}

// SysUserOrg 用户与组织关联
type SysUserOrg struct {
	BaseModel
	UserID int64 `json:"user_id,string" gorm:"column:user_id;index;comment:用户ID"`
	OrgID  int64 `json:"org_id,string" gorm:"column:org_id;index;comment:组织ID"`
}

// TableName 表名
func (SysUserOrg) TableName() string {
	return "sys_user_org"
}
