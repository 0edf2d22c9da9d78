package datascope

import (
	"encoding/json"
	"strings"

	"go.uber.org/zap"

	"github.com/aisgo/ais-datascope/validator"
)

/* ========================================================================
 * Condition - 自定义规则编解码
 * ========================================================================
 * 职责: 将角色配置里的规则 JSON 解码为条件列表
 * 原则: 宽容解码，单条非法丢单条，整体非法丢整体，绝不报错到调用方
 * ======================================================================== */

// LogicOperator 条件间的逻辑连接符
type LogicOperator string

const (
	LogicAnd LogicOperator = "AND"
	LogicOr  LogicOperator = "OR"
)

// RawCondition 规则 JSON 中的单条条件原始形态
type RawCondition struct {
	// Field 目标列名
	Field string `json:"field" validate:"required" error_msg:"required:rule field is required"`
	// Operator 操作符原始值
	Operator string `json:"operator" validate:"required" error_msg:"required:rule operator is required"`
	// Value 字面量比较值，变量无法识别时的兜底
	Value string `json:"value,omitempty"`
	// Logic 与前一条件的逻辑连接符，缺省 AND
	Logic string `json:"logic" validate:"omitempty,oneof=AND OR and or" error_msg:"oneof:rule logic must be AND or OR"`
	// Variable 运行期变量名，空串表示纯字面量条件
	Variable string `json:"variable,omitempty"`
}

// Condition 解码校验后的条件
type Condition struct {
	Field    string
	Operator Operator
	Value    string
	Logic    LogicOperator
	Variable string
}

var conditionValidate = validator.New()

// RuleCodec 自定义规则编解码器
type RuleCodec struct {
	logger *zap.Logger
}

// NewRuleCodec 创建规则编解码器
func NewRuleCodec(logger *zap.Logger) *RuleCodec {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RuleCodec{logger: logger}
}

// Decode 解码规则 JSON
//
// 空白输入返回空列表；JSON 整体非法时记录错误并返回空列表；
// 单条条件字段缺失、操作符不在白名单或逻辑符非法时丢弃该条并继续。
func (c *RuleCodec) Decode(raw string) []Condition {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}

	var rawConds []RawCondition
	if err := json.Unmarshal([]byte(raw), &rawConds); err != nil {
		c.logger.Error("decode custom rules failed",
			zap.Error(err),
		)
		return nil
	}

	conds := make([]Condition, 0, len(rawConds))
	for i, rc := range rawConds {
		if err := conditionValidate.Validate(&rc); err != nil {
			c.logger.Warn("drop invalid custom rule condition",
				zap.Int("index", i),
				zap.String("field", rc.Field),
				zap.Error(err),
			)
			continue
		}
		op, ok := ParseOperator(rc.Operator)
		if !ok {
			c.logger.Warn("drop custom rule condition with unsupported operator",
				zap.Int("index", i),
				zap.String("field", rc.Field),
				zap.String("operator", rc.Operator),
			)
			continue
		}
		logic := LogicAnd
		if strings.EqualFold(rc.Logic, string(LogicOr)) {
			logic = LogicOr
		}
		conds = append(conds, Condition{
			Field:    strings.TrimSpace(rc.Field),
			Operator: op,
			Value:    rc.Value,
			Logic:    logic,
			Variable: strings.TrimSpace(rc.Variable),
		})
	}
	return conds
}

// Encode 编码条件列表为规则 JSON，供管理端写回配置
func (c *RuleCodec) Encode(conds []Condition) (string, error) {
	if len(conds) == 0 {
		return "", nil
	}
	rawConds := make([]RawCondition, 0, len(conds))
	for _, cond := range conds {
		rawConds = append(rawConds, RawCondition{
			Field:    cond.Field,
			Operator: string(cond.Operator),
			Value:    cond.Value,
			Logic:    string(cond.Logic),
			Variable: cond.Variable,
		})
	}
	data, err := json.Marshal(rawConds)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
