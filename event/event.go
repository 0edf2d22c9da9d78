package event

import "time"

/* ========================================================================
 * ScopeChangeEvent - 数据权限变更事件
 * ========================================================================
 * 职责: 定义配置 / 角色关联变更的广播事件，驱动多实例缓存失效
 * 一致性: 发布相对写操作是发后即忘，失效生效前存在短暂陈旧窗口
 * ======================================================================== */

// DefaultTopic 变更事件默认主题
const DefaultTopic = "datascope-scope-change"

// 变更原因
const (
	ReasonConfigUpdated     = "config_updated"
	ReasonConfigDeleted     = "config_deleted"
	ReasonAssignmentChanged = "assignment_changed"
)

// ScopeChangeEvent 数据权限变更事件
type ScopeChangeEvent struct {
	// EventID 事件唯一标识，ULID，按发布时间可排序
	EventID string `json:"event_id"`
	// Resources 受影响的权限资源标识
	Resources []string `json:"resources"`
	// RoleID 触发变更的角色 ID，配置级变更时为 0
	RoleID int64 `json:"role_id,omitempty"`
	// Reason 变更原因
	Reason string `json:"reason"`
	// At 变更发生时间
	At time.Time `json:"at"`
}
