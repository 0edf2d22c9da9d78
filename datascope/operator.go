package datascope

import "strings"

/* ========================================================================
 * Operator - 查询操作符白名单
 * ========================================================================
 * 职责: 定义自定义规则允许的 SQL 操作符及其渲染属性
 * 设计: 封闭白名单，引擎绝不拼接白名单之外的操作符
 * ======================================================================== */

// Operator 查询操作符，值即 SQL 记号
type Operator string

const (
	OpEqual              Operator = "="
	OpNotEqual           Operator = "!="
	OpGreaterThan        Operator = ">"
	OpGreaterThanOrEqual Operator = ">="
	OpLessThan           Operator = "<"
	OpLessThanOrEqual    Operator = "<="
	OpIn                 Operator = "IN"
	OpNotIn              Operator = "NOT IN"
	OpBetween            Operator = "BETWEEN"
	OpLike               Operator = "LIKE"
	OpNotLike            Operator = "NOT LIKE"
	OpIsNull             Operator = "IS NULL"
	OpIsNotNull          Operator = "IS NOT NULL"
)

// operatorAliases 线上配置里出现过的写法都归一到白名单记号
var operatorAliases = map[string]Operator{
	"=":           OpEqual,
	"EQ":          OpEqual,
	"EQUAL":       OpEqual,
	"!=":          OpNotEqual,
	"<>":          OpNotEqual,
	"NE":          OpNotEqual,
	"NOT_EQUAL":   OpNotEqual,
	">":           OpGreaterThan,
	"GT":          OpGreaterThan,
	">=":          OpGreaterThanOrEqual,
	"GTE":         OpGreaterThanOrEqual,
	"<":           OpLessThan,
	"LT":          OpLessThan,
	"<=":          OpLessThanOrEqual,
	"LTE":         OpLessThanOrEqual,
	"IN":          OpIn,
	"NOT_IN":      OpNotIn,
	"NOT IN":      OpNotIn,
	"BETWEEN":     OpBetween,
	"LIKE":        OpLike,
	"NOT_LIKE":    OpNotLike,
	"NOT LIKE":    OpNotLike,
	"IS_NULL":     OpIsNull,
	"IS NULL":     OpIsNull,
	"IS_NOT_NULL": OpIsNotNull,
	"IS NOT NULL": OpIsNotNull,
}

// ParseOperator 解析操作符，不在白名单内时返回 false
func ParseOperator(raw string) (Operator, bool) {
	key := strings.ToUpper(strings.TrimSpace(raw))
	op, ok := operatorAliases[key]
	return op, ok
}

// SQLToken 操作符的 SQL 记号
func (o Operator) SQLToken() string {
	return string(o)
}

// IsUnary 一元操作符（IS NULL / IS NOT NULL），渲染时不带值
func (o Operator) IsUnary() bool {
	return o == OpIsNull || o == OpIsNotNull
}

// IsRange 区间操作符
func (o Operator) IsRange() bool {
	return o == OpBetween
}

// IsSet 集合操作符
func (o Operator) IsSet() bool {
	return o == OpIn || o == OpNotIn
}

// IsLike 模糊匹配操作符
func (o Operator) IsLike() bool {
	return o == OpLike || o == OpNotLike
}

// IsGreaterFamily 大于方向比较（> / >=）
func (o Operator) IsGreaterFamily() bool {
	return o == OpGreaterThan || o == OpGreaterThanOrEqual
}

// IsLessFamily 小于方向比较（< / <=）
func (o Operator) IsLessFamily() bool {
	return o == OpLessThan || o == OpLessThanOrEqual
}

// IsComparison 单边比较操作符
func (o Operator) IsComparison() bool {
	return o.IsGreaterFamily() || o.IsLessFamily()
}
