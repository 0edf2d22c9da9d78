package datascope

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

/* ========================================================================
 * Compiler - 条件编译为 SQL 片段
 * ========================================================================
 * 职责: 将条件列表编译为可并入 WHERE 的 SQL 谓词片段
 * 原则: 任一条件编译失败即整体放弃返回空串，绝不输出残缺片段;
 *       含 OR 的条件组整体加括号，保证与软删除等基础过滤 AND 合并后语义不变
 * ======================================================================== */

const sqlTimeLayout = "2006-01-02 15:04:05"

// Compiler 谓词编译器
type Compiler struct {
	variables *VariableResolver
	logger    *zap.Logger
}

// NewCompiler 创建谓词编译器
func NewCompiler(variables *VariableResolver, logger *zap.Logger) *Compiler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Compiler{variables: variables, logger: logger}
}

// Compile 编译条件列表
//
// 空列表返回空串；单条件不加括号；全 AND 直接顺序连接；
// 出现任一 OR 时整组加一层括号。任何条件编译失败返回空串。
func (c *Compiler) Compile(ctx context.Context, conds []Condition) string {
	if len(conds) == 0 {
		return ""
	}

	fragments := make([]string, 0, len(conds))
	hasOr := false
	for i, cond := range conds {
		fragment, err := c.compileCondition(ctx, cond)
		if err != nil {
			c.logger.Error("compile custom rule condition failed",
				zap.Int("index", i),
				zap.String("field", cond.Field),
				zap.String("operator", cond.Operator.SQLToken()),
				zap.Error(err),
			)
			return ""
		}
		if i > 0 {
			if cond.Logic == LogicOr {
				hasOr = true
			}
			fragments = append(fragments, string(cond.Logic))
		}
		fragments = append(fragments, fragment)
	}

	sql := strings.Join(fragments, " ")
	if hasOr && len(conds) > 1 {
		sql = "(" + sql + ")"
	}
	return sql
}

// compileCondition 编译单条条件
func (c *Compiler) compileCondition(ctx context.Context, cond Condition) (string, error) {
	if cond.Field == "" {
		return "", fmt.Errorf("condition field is required")
	}
	if cond.Operator.IsUnary() {
		return cond.Field + " " + cond.Operator.SQLToken(), nil
	}

	var rendered string
	var err error
	if v, ok := ParseVariable(cond.Variable); ok {
		value := c.variables.Resolve(ctx, v, cond.Operator)
		if value == nil {
			return "", fmt.Errorf("resolve variable %q failed", cond.Variable)
		}
		rendered, err = c.renderValue(value, cond.Operator)
	} else {
		// 变量名为空或无法识别时按字面量处理
		rendered, err = c.renderLiteral(cond.Value, cond.Operator)
	}
	if err != nil {
		return "", err
	}
	return cond.Field + " " + cond.Operator.SQLToken() + " " + rendered, nil
}

// renderValue 渲染变量解析结果
func (c *Compiler) renderValue(value any, op Operator) (string, error) {
	switch v := value.(type) {
	case int64:
		if op.IsSet() {
			return "(" + strconv.FormatInt(v, 10) + ")", nil
		}
		return strconv.FormatInt(v, 10), nil
	case string:
		if op.IsSet() {
			return "(" + quoteString(v) + ")", nil
		}
		return quoteString(v), nil
	case []int64:
		if len(v) == 0 {
			return "", fmt.Errorf("empty id list for operator %s", op.SQLToken())
		}
		parts := make([]string, 0, len(v))
		for _, id := range v {
			parts = append(parts, strconv.FormatInt(id, 10))
		}
		return "(" + strings.Join(parts, ", ") + ")", nil
	case time.Time:
		return quoteString(v.Format(sqlTimeLayout)), nil
	case TimeRange:
		if !op.IsRange() {
			return "", fmt.Errorf("time range requires BETWEEN, got %s", op.SQLToken())
		}
		return quoteString(v.Start.Format(sqlTimeLayout)) +
			" AND " +
			quoteString(v.End.Format(sqlTimeLayout)), nil
	}
	return "", fmt.Errorf("unsupported value type %T", value)
}

// renderLiteral 渲染字面量，按操作符形态拆分
func (c *Compiler) renderLiteral(raw string, op Operator) (string, error) {
	raw = strings.TrimSpace(raw)
	switch {
	case op.IsSet():
		parts := splitList(raw)
		if len(parts) == 0 {
			return "", fmt.Errorf("empty list literal for operator %s", op.SQLToken())
		}
		rendered := make([]string, 0, len(parts))
		for _, p := range parts {
			rendered = append(rendered, renderScalarLiteral(p))
		}
		return "(" + strings.Join(rendered, ", ") + ")", nil
	case op.IsRange():
		parts := splitList(raw)
		if len(parts) != 2 {
			return "", fmt.Errorf("BETWEEN literal requires exactly two values, got %d", len(parts))
		}
		return renderScalarLiteral(parts[0]) + " AND " + renderScalarLiteral(parts[1]), nil
	case op.IsLike():
		if raw == "" {
			return "", fmt.Errorf("empty literal for operator %s", op.SQLToken())
		}
		return quoteString(raw), nil
	default:
		if raw == "" {
			return "", fmt.Errorf("empty literal for operator %s", op.SQLToken())
		}
		return renderScalarLiteral(raw), nil
	}
}

// renderScalarLiteral 数值按数值渲染，其余加引号
func renderScalarLiteral(raw string) string {
	if _, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return raw
	}
	if _, err := strconv.ParseFloat(raw, 64); err == nil {
		return raw
	}
	return quoteString(raw)
}

// quoteString 单引号包裹，内部单引号按 SQL 规则翻倍
func quoteString(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// splitList 逗号分隔的列表字面量
func splitList(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, p)
	}
	return out
}
