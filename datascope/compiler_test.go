package datascope

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"
)

func newTestCompiler(principal PrincipalContext) *Compiler {
	if principal == nil {
		principal = &fakePrincipal{userID: 42, name: "alice", roleIDs: []int64{1, 2}, orgIDs: []int64{7}}
	}
	return NewCompiler(NewVariableResolver(principal, zap.NewNop()), zap.NewNop())
}

func TestCompileEmpty(t *testing.T) {
	c := newTestCompiler(nil)
	if got := c.Compile(context.Background(), nil); got != "" {
		t.Fatalf("expected empty sql, got: %q", got)
	}
}

func TestCompileSingleConditionNoParens(t *testing.T) {
	c := newTestCompiler(nil)
	conds := []Condition{{Field: "status", Operator: OpEqual, Value: "1", Logic: LogicAnd}}
	if got := c.Compile(context.Background(), conds); got != "status = 1" {
		t.Fatalf("unexpected sql: %q", got)
	}
}

func TestCompileAllAndNoParens(t *testing.T) {
	c := newTestCompiler(nil)
	conds := []Condition{
		{Field: "a", Operator: OpEqual, Value: "1", Logic: LogicAnd},
		{Field: "b", Operator: OpEqual, Value: "2", Logic: LogicAnd},
	}
	if got := c.Compile(context.Background(), conds); got != "a = 1 AND b = 2" {
		t.Fatalf("unexpected sql: %q", got)
	}
}

func TestCompileOrWrapsWholeGroup(t *testing.T) {
	c := newTestCompiler(nil)
	conds := []Condition{
		{Field: "a", Operator: OpEqual, Value: "1", Logic: LogicAnd},
		{Field: "b", Operator: OpEqual, Value: "2", Logic: LogicOr},
	}
	if got := c.Compile(context.Background(), conds); got != "(a = 1 OR b = 2)" {
		t.Fatalf("unexpected sql: %q", got)
	}

	mixed := []Condition{
		{Field: "a", Operator: OpEqual, Value: "1", Logic: LogicAnd},
		{Field: "b", Operator: OpEqual, Value: "2", Logic: LogicAnd},
		{Field: "c", Operator: OpEqual, Value: "3", Logic: LogicOr},
	}
	if got := c.Compile(context.Background(), mixed); got != "(a = 1 AND b = 2 OR c = 3)" {
		t.Fatalf("unexpected sql: %q", got)
	}
}

func TestCompileUnaryOperatorNoValue(t *testing.T) {
	c := newTestCompiler(nil)
	conds := []Condition{{Field: "deleted_at", Operator: OpIsNull, Logic: LogicAnd}}
	if got := c.Compile(context.Background(), conds); got != "deleted_at IS NULL" {
		t.Fatalf("unexpected sql: %q", got)
	}
}

func TestCompileStringLiteralQuoted(t *testing.T) {
	c := newTestCompiler(nil)
	conds := []Condition{{Field: "name", Operator: OpEqual, Value: "o'neil", Logic: LogicAnd}}
	if got := c.Compile(context.Background(), conds); got != "name = 'o''neil'" {
		t.Fatalf("unexpected sql: %q", got)
	}
}

func TestCompileListAndRangeLiterals(t *testing.T) {
	c := newTestCompiler(nil)
	ctx := context.Background()

	in := []Condition{{Field: "status", Operator: OpIn, Value: "1, 2, draft", Logic: LogicAnd}}
	if got := c.Compile(ctx, in); got != "status IN (1, 2, 'draft')" {
		t.Fatalf("unexpected sql: %q", got)
	}

	between := []Condition{{Field: "score", Operator: OpBetween, Value: "60,90", Logic: LogicAnd}}
	if got := c.Compile(ctx, between); got != "score BETWEEN 60 AND 90" {
		t.Fatalf("unexpected sql: %q", got)
	}

	badRange := []Condition{{Field: "score", Operator: OpBetween, Value: "60", Logic: LogicAnd}}
	if got := c.Compile(ctx, badRange); got != "" {
		t.Fatalf("expected empty sql for malformed range, got: %q", got)
	}
}

func TestCompileVariableConditions(t *testing.T) {
	c := newTestCompiler(nil)
	ctx := context.Background()

	owner := []Condition{{Field: "owner_id", Operator: OpEqual, Variable: "currentUserId", Logic: LogicAnd}}
	if got := c.Compile(ctx, owner); got != "owner_id = 42" {
		t.Fatalf("unexpected sql: %q", got)
	}

	roles := []Condition{{Field: "role_id", Operator: OpIn, Variable: "currentUserRoleIds", Logic: LogicAnd}}
	if got := c.Compile(ctx, roles); got != "role_id IN (1, 2)" {
		t.Fatalf("unexpected sql: %q", got)
	}
}

func TestCompileUnknownVariableFallsBackToLiteral(t *testing.T) {
	c := newTestCompiler(nil)
	ctx := context.Background()

	// 未识别的变量名不做替换，回退到 value 的字面量
	conds := []Condition{{Field: "owner_id", Operator: OpEqual, Value: "42", Variable: "currentTenantId", Logic: LogicAnd}}
	if got := c.Compile(ctx, conds); got != "owner_id = 42" {
		t.Fatalf("unexpected sql: %q", got)
	}

	// 回退后 value 为空按编译失败处理
	noValue := []Condition{{Field: "owner_id", Operator: OpEqual, Variable: "currentTenantId", Logic: LogicAnd}}
	if got := c.Compile(ctx, noValue); got != "" {
		t.Fatalf("expected empty sql without literal fallback, got: %q", got)
	}
}

func TestCompileCurrentYearDirection(t *testing.T) {
	freezeTime(t, time.Date(2026, 5, 15, 10, 30, 0, 0, time.UTC))
	c := newTestCompiler(nil)
	ctx := context.Background()

	gte := []Condition{{Field: "created_at", Operator: OpGreaterThanOrEqual, Variable: "currentYear", Logic: LogicAnd}}
	if got := c.Compile(ctx, gte); got != "created_at >= '2026-12-31 23:59:59'" {
		t.Fatalf("unexpected sql: %q", got)
	}

	lt := []Condition{{Field: "created_at", Operator: OpLessThan, Variable: "currentYear", Logic: LogicAnd}}
	if got := c.Compile(ctx, lt); got != "created_at < '2026-01-01 00:00:00'" {
		t.Fatalf("unexpected sql: %q", got)
	}

	between := []Condition{{Field: "created_at", Operator: OpBetween, Variable: "currentYear", Logic: LogicAnd}}
	want := "created_at BETWEEN '2026-01-01 00:00:00' AND '2026-12-31 23:59:59'"
	if got := c.Compile(ctx, between); got != want {
		t.Fatalf("unexpected sql: %q", got)
	}
}

func TestCompileFailureDropsWholeFragment(t *testing.T) {
	principal := &fakePrincipal{err: errors.New("session expired")}
	c := newTestCompiler(principal)
	conds := []Condition{
		{Field: "status", Operator: OpEqual, Value: "1", Logic: LogicAnd},
		{Field: "owner_id", Operator: OpEqual, Variable: "currentUserId", Logic: LogicAnd},
	}
	if got := c.Compile(context.Background(), conds); got != "" {
		t.Fatalf("expected empty sql when any condition fails, got: %q", got)
	}
}

func TestCompileEmptyVariableListFails(t *testing.T) {
	principal := &fakePrincipal{userID: 42, roleIDs: nil}
	c := newTestCompiler(principal)
	conds := []Condition{{Field: "role_id", Operator: OpIn, Variable: "currentUserRoleIds", Logic: LogicAnd}}
	if got := c.Compile(context.Background(), conds); got != "" {
		t.Fatalf("expected empty sql for empty id list, got: %q", got)
	}
}
