package datascope

import (
	"context"

	"go.uber.org/zap"
)

/* ========================================================================
 * Variable - 运行期变量解析
 * ========================================================================
 * 职责: 将规则中的变量名解析为当前主体 / 当前时间的实际取值
 * 原则: 变量与操作符的组合受静态表约束，取值失败返回 nil 并记录日志
 * ======================================================================== */

// Variable 规则变量名
type Variable string

const (
	VarCurrentUserID    Variable = "currentUserId"
	VarCurrentUserName  Variable = "currentUserName"
	VarCurrentUserRoles Variable = "currentUserRoleIds"
	VarCurrentUserOrgs  Variable = "currentUserOrgIds"
	VarToday            Variable = "today"
	VarLastDay          Variable = "lastDay"
	VarLastWeek         Variable = "lastWeek"
	VarLastMonth        Variable = "lastMonth"
	VarCurrentMonth     Variable = "currentMonth"
	VarCurrentQuarter   Variable = "currentQuarter"
	VarCurrentYear      Variable = "currentYear"
)

// variableOperators 变量允许的操作符表，包初始化时构建后只读
var variableOperators map[Variable]map[Operator]struct{}

func init() {
	scalarOps := []Operator{
		OpEqual, OpNotEqual,
		OpGreaterThan, OpGreaterThanOrEqual,
		OpLessThan, OpLessThanOrEqual,
		OpIn,
	}
	nameOps := []Operator{OpEqual, OpNotEqual, OpLike, OpNotLike, OpIn}
	listOps := []Operator{OpIn, OpNotIn}
	rangeOps := []Operator{OpBetween}
	yearOps := []Operator{
		OpBetween,
		OpGreaterThan, OpGreaterThanOrEqual,
		OpLessThan, OpLessThanOrEqual,
	}

	variableOperators = make(map[Variable]map[Operator]struct{})
	register := func(v Variable, ops []Operator) {
		set := make(map[Operator]struct{}, len(ops))
		for _, op := range ops {
			set[op] = struct{}{}
		}
		variableOperators[v] = set
	}

	register(VarCurrentUserID, scalarOps)
	register(VarCurrentUserName, nameOps)
	register(VarCurrentUserRoles, listOps)
	register(VarCurrentUserOrgs, listOps)
	register(VarToday, rangeOps)
	register(VarLastDay, rangeOps)
	register(VarLastWeek, rangeOps)
	register(VarLastMonth, rangeOps)
	register(VarCurrentMonth, rangeOps)
	register(VarCurrentQuarter, rangeOps)
	register(VarCurrentYear, yearOps)
}

// ParseVariable 识别变量名，非变量返回 false（调用方按字面量处理）
func ParseVariable(raw string) (Variable, bool) {
	v := Variable(raw)
	_, ok := variableOperators[v]
	return v, ok
}

// Allows 变量是否允许与该操作符组合
func (v Variable) Allows(op Operator) bool {
	ops, ok := variableOperators[v]
	if !ok {
		return false
	}
	_, ok = ops[op]
	return ok
}

// VariableResolver 变量解析器
type VariableResolver struct {
	principal PrincipalContext
	logger    *zap.Logger
}

// NewVariableResolver 创建变量解析器
func NewVariableResolver(principal PrincipalContext, logger *zap.Logger) *VariableResolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &VariableResolver{principal: principal, logger: logger}
}

// Resolve 解析变量取值
//
// 返回值类型: int64 / string / []int64 / time.Time / TimeRange。
// 变量与操作符组合非法、或主体信息查询失败时返回 nil，由调用方整体放弃编译。
// currentYear 对单边比较做方向展开: > / >= 取年末，< / <= 取年初，其余取整年区间。
func (r *VariableResolver) Resolve(ctx context.Context, v Variable, op Operator) any {
	if !v.Allows(op) {
		r.logger.Warn("variable does not allow operator",
			zap.String("variable", string(v)),
			zap.String("operator", op.SQLToken()),
		)
		return nil
	}

	switch v {
	case VarCurrentUserID:
		userID, err := r.principal.CurrentUserID(ctx)
		if err != nil {
			return r.lookupFailed(v, err)
		}
		return userID
	case VarCurrentUserName:
		name, err := r.principal.CurrentUserDisplayName(ctx)
		if err != nil {
			return r.lookupFailed(v, err)
		}
		return name
	case VarCurrentUserRoles:
		roleIDs, err := r.principal.CurrentUserRoleIDs(ctx)
		if err != nil {
			return r.lookupFailed(v, err)
		}
		return dedupeIDs(roleIDs)
	case VarCurrentUserOrgs:
		orgIDs, err := r.principal.CurrentUserOrgIDs(ctx)
		if err != nil {
			return r.lookupFailed(v, err)
		}
		return dedupeIDs(orgIDs)
	case VarToday:
		return todayRange()
	case VarLastDay:
		return lastDayRange()
	case VarLastWeek:
		return lastWeekRange()
	case VarLastMonth:
		return lastMonthRange()
	case VarCurrentMonth:
		return currentMonthRange()
	case VarCurrentQuarter:
		return currentQuarterRange()
	case VarCurrentYear:
		switch {
		case op.IsGreaterFamily():
			return yearEnd()
		case op.IsLessFamily():
			return yearStart()
		default:
			return currentYearRange()
		}
	}
	return nil
}

func (r *VariableResolver) lookupFailed(v Variable, err error) any {
	r.logger.Error("resolve variable failed",
		zap.String("variable", string(v)),
		zap.Error(err),
	)
	return nil
}
