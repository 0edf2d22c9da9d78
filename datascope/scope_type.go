package datascope

/* ========================================================================
 * ScopeType - 数据权限类型
 * ========================================================================
 * 职责: 定义权限类型枚举与优先级选择
 * 优先级: ALL > UNIT_AND_CHILD > UNIT > SELF_AND_CHILD > SELF
 * ======================================================================== */

// ScopeType 数据权限类型
type ScopeType string

const (
	// ScopeAll 全部数据
	ScopeAll ScopeType = "ALL"
	// ScopeUnitAndChild 本组织及下级组织数据
	ScopeUnitAndChild ScopeType = "UNIT_AND_CHILD"
	// ScopeUnit 本组织数据
	ScopeUnit ScopeType = "UNIT"
	// ScopeSelfAndChild 本人及下级组织数据
	ScopeSelfAndChild ScopeType = "SELF_AND_CHILD"
	// ScopeSelf 本人数据
	ScopeSelf ScopeType = "SELF"
	// ScopeCustom 自定义规则（叠加在基础类型之上，不参与基础类型竞选）
	ScopeCustom ScopeType = "CUSTOM"
	// ScopeUnknown 未知类型，仅在异常降级路径产生
	ScopeUnknown ScopeType = "UNKNOWN"
)

// scopePriority 显式优先级表，数值越小权限越宽
// 注意: 这里刻意不依赖声明顺序，新增类型必须同时登记优先级
var scopePriority = map[ScopeType]int{
	ScopeAll:          1,
	ScopeUnitAndChild: 2,
	ScopeUnit:         3,
	ScopeSelfAndChild: 4,
	ScopeSelf:         5,
	ScopeCustom:       6,
	ScopeUnknown:      7,
}

// Priority 权限类型优先级，未登记类型按最窄处理
func (t ScopeType) Priority() int {
	if p, ok := scopePriority[t]; ok {
		return p
	}
	return scopePriority[ScopeUnknown]
}

// Valid 是否为已登记的权限类型
func (t ScopeType) Valid() bool {
	_, ok := scopePriority[t]
	return ok
}

// IsStandard 是否为五种标准类型之一（可直接解析用户集合）
func (t ScopeType) IsStandard() bool {
	switch t {
	case ScopeAll, ScopeUnit, ScopeUnitAndChild, ScopeSelf, ScopeSelfAndChild:
		return true
	}
	return false
}

// ParseScopeType 解析原始权限类型值，无法识别时返回 ScopeUnknown
func ParseScopeType(raw string) ScopeType {
	t := ScopeType(raw)
	if t.Valid() {
		return t
	}
	return ScopeUnknown
}

// ResolveBaseScopeType 从多条角色配置中确定基础权限类型
//
// 多角色持有不同权限类型时取最宽者（任一角色授予更宽可见性，用户即获得该可见性）。
// CUSTOM 类型不参与基础类型竞选，只贡献自定义条件；
// 无法解析的原始值按 UNKNOWN（最窄）参与比较。
// 没有任何标准类型配置时返回 ScopeUnknown，由调用方决定降级策略。
func ResolveBaseScopeType(configs []RoleScopeConfig) ScopeType {
	best := ScopeUnknown
	for _, cfg := range configs {
		t := ParseScopeType(cfg.ScopeType)
		if t == ScopeCustom {
			continue
		}
		if t.Priority() < best.Priority() {
			best = t
		}
	}
	return best
}
