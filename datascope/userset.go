package datascope

import (
	"context"

	"go.uber.org/zap"
)

/* ========================================================================
 * UserSetResolver - 可见用户集合解析
 * ========================================================================
 * 职责: 按权限类型解析当前用户可见的用户 ID 集合
 * 原则: 层级查询失败或身份不满足时逐级降级，最终兜底到仅本人可见
 * ======================================================================== */

// UserSetResolver 可见用户集合解析器
type UserSetResolver struct {
	hierarchy OrgHierarchy
	logger    *zap.Logger
}

// NewUserSetResolver 创建可见用户集合解析器
func NewUserSetResolver(hierarchy OrgHierarchy, logger *zap.Logger) *UserSetResolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UserSetResolver{hierarchy: hierarchy, logger: logger}
}

// Resolve 解析可见用户集合
//
// ALL 返回空集合（表示不过滤）；其余类型返回的集合始终包含本人。
// 降级链:
//
//	UNIT_AND_CHILD -> UNIT -> {本人}
//	SELF_AND_CHILD -> {本人}
//	UNIT           -> {本人}
//
// 未知类型同样兜底到仅本人，保证失败关闭。
func (r *UserSetResolver) Resolve(ctx context.Context, userID int64, scopeType ScopeType) []int64 {
	switch scopeType {
	case ScopeAll:
		return nil
	case ScopeSelf:
		return []int64{userID}
	case ScopeUnit:
		return r.resolveUnit(ctx, userID)
	case ScopeUnitAndChild:
		return r.resolveUnitAndChild(ctx, userID)
	case ScopeSelfAndChild:
		return r.resolveSelfAndChild(ctx, userID)
	default:
		return []int64{userID}
	}
}

// resolveUnit 本组织可见: 同组织全部用户，无组织归属时降级为仅本人
func (r *UserSetResolver) resolveUnit(ctx context.Context, userID int64) []int64 {
	orgIDs, err := r.hierarchy.GetUserOrgIDs(ctx, userID)
	if err != nil {
		return r.degrade(userID, ScopeUnit, "query user orgs failed", err)
	}
	if len(orgIDs) == 0 {
		return r.degrade(userID, ScopeUnit, "user has no org", nil)
	}
	userIDs, err := r.hierarchy.GetUserIDsByOrgIDs(ctx, orgIDs)
	if err != nil {
		return r.degrade(userID, ScopeUnit, "query org members failed", err)
	}
	return withSelf(userIDs, userID)
}

// resolveUnitAndChild 本组织及下级可见: 要求负责人身份，不满足时降级到本组织
func (r *UserSetResolver) resolveUnitAndChild(ctx context.Context, userID int64) []int64 {
	userIDs, err := r.hierarchy.GetUnitAndChildUserIDs(ctx, userID)
	if err != nil {
		r.logger.Warn("data scope degraded",
			zap.Int64("userId", userID),
			zap.String("scopeType", string(ScopeUnitAndChild)),
			zap.String("degradeTo", string(ScopeUnit)),
			zap.Error(err),
		)
		return r.resolveUnit(ctx, userID)
	}
	if len(userIDs) == 0 {
		r.logger.Warn("data scope degraded",
			zap.Int64("userId", userID),
			zap.String("scopeType", string(ScopeUnitAndChild)),
			zap.String("degradeTo", string(ScopeUnit)),
			zap.String("reason", "user is not an org principal"),
		)
		return r.resolveUnit(ctx, userID)
	}
	return withSelf(userIDs, userID)
}

// resolveSelfAndChild 本人及下级可见: 要求负责人身份，不满足时降级为仅本人
func (r *UserSetResolver) resolveSelfAndChild(ctx context.Context, userID int64) []int64 {
	userIDs, err := r.hierarchy.GetSelfAndChildUserIDs(ctx, userID)
	if err != nil {
		return r.degrade(userID, ScopeSelfAndChild, "query self and child users failed", err)
	}
	if len(userIDs) == 0 {
		return r.degrade(userID, ScopeSelfAndChild, "user is not an org principal", nil)
	}
	return withSelf(userIDs, userID)
}

// degrade 记录降级并返回仅本人集合
func (r *UserSetResolver) degrade(userID int64, scopeType ScopeType, reason string, err error) []int64 {
	r.logger.Warn("data scope degraded",
		zap.Int64("userId", userID),
		zap.String("scopeType", string(scopeType)),
		zap.String("degradeTo", string(ScopeSelf)),
		zap.String("reason", reason),
		zap.Error(err),
	)
	return []int64{userID}
}

// withSelf 保证集合包含本人并去重
func withSelf(userIDs []int64, userID int64) []int64 {
	return dedupeIDs(append([]int64{userID}, userIDs...))
}
