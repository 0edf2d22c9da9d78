package store

import (
	"context"
	"sort"
	"testing"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/aisgo/ais-datascope/datascope"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&SysDataScope{}, &SysRoleDataScope{}, &SysOrg{}, &SysUserOrg{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func sortedIDs(ids []int64) []int64 {
	out := append([]int64(nil), ids...)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func equalIDs(a, b []int64) bool {
	a, b = sortedIDs(a), sortedIDs(b)
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestConfigStoreListByPermissionResource(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	scopes := []*SysDataScope{
		{Name: "user self", PermissionResource: "sys:user", ScopeType: "SELF", Status: StatusEnabled},
		{Name: "user custom", PermissionResource: "sys:user", ScopeType: "CUSTOM",
			CustomRules: `[{"field":"owner_id","operator":"=","variable":"currentUserId"}]`,
			Status:      StatusEnabled},
		{Name: "user disabled", PermissionResource: "sys:user", ScopeType: "ALL", Status: StatusDisabled},
		{Name: "order unit", PermissionResource: "sys:order", ScopeType: "UNIT", Status: StatusEnabled},
	}
	for _, scope := range scopes {
		if err := db.Create(scope).Error; err != nil {
			t.Fatalf("seed scope: %v", err)
		}
	}
	links := []*SysRoleDataScope{
		{RoleID: 1, DataScopeID: scopes[0].ID},
		{RoleID: 1, DataScopeID: scopes[1].ID},
		{RoleID: 1, DataScopeID: scopes[2].ID},
		{RoleID: 2, DataScopeID: scopes[3].ID},
	}
	for _, link := range links {
		if err := db.Create(link).Error; err != nil {
			t.Fatalf("seed link: %v", err)
		}
	}

	store := NewGormConfigStore(db, zap.NewNop())
	configs, err := store.ListRoleScopesByPermissionResource(ctx, "sys:user")
	if err != nil {
		t.Fatalf("list configs: %v", err)
	}
	if len(configs) != 2 {
		t.Fatalf("expected 2 configs (disabled excluded), got: %d", len(configs))
	}
	types := map[string]bool{}
	for _, cfg := range configs {
		if cfg.RoleID != 1 {
			t.Fatalf("unexpected role: %d", cfg.RoleID)
		}
		types[cfg.ScopeType] = true
	}
	if !types["SELF"] || !types["CUSTOM"] {
		t.Fatalf("unexpected scope types: %v", types)
	}

	// 软删除配置后不再返回
	if err := db.Delete(&SysDataScope{}, scopes[0].ID).Error; err != nil {
		t.Fatalf("delete scope: %v", err)
	}
	configs, err = store.ListRoleScopesByPermissionResource(ctx, "sys:user")
	if err != nil {
		t.Fatalf("list configs: %v", err)
	}
	if len(configs) != 1 || configs[0].ScopeType != "CUSTOM" {
		t.Fatalf("expected only CUSTOM to survive, got: %+v", configs)
	}
}

// seedOrgTree 组织树:
//
//	sales(负责人 100) -> east -> east-1
//	                  -> west
//
// 用户: 100,101 属 sales; 110 属 east; 111 属 east-1; 120 属 west
func seedOrgTree(t *testing.T, db *gorm.DB) (salesID int64) {
	t.Helper()
	sales := &SysOrg{Name: "sales", ParentID: 0, PrincipalID: 100, Status: StatusEnabled}
	if err := db.Create(sales).Error; err != nil {
		t.Fatalf("seed org: %v", err)
	}
	east := &SysOrg{Name: "east", ParentID: sales.ID, Status: StatusEnabled}
	west := &SysOrg{Name: "west", ParentID: sales.ID, Status: StatusEnabled}
	for _, org := range []*SysOrg{east, west} {
		if err := db.Create(org).Error; err != nil {
			t.Fatalf("seed org: %v", err)
		}
	}
	east1 := &SysOrg{Name: "east-1", ParentID: east.ID, Status: StatusEnabled}
	if err := db.Create(east1).Error; err != nil {
		t.Fatalf("seed org: %v", err)
	}

	members := map[int64]int64{
		100: sales.ID, 101: sales.ID,
		110: east.ID, 111: east1.ID, 120: west.ID,
	}
	for userID, orgID := range members {
		if err := db.Create(&SysUserOrg{UserID: userID, OrgID: orgID}).Error; err != nil {
			t.Fatalf("seed user org: %v", err)
		}
	}
	return sales.ID
}

func TestOrgHierarchyQueries(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	salesID := seedOrgTree(t, db)
	h := NewGormOrgHierarchy(db, zap.NewNop())

	orgIDs, err := h.GetUserOrgIDs(ctx, 100)
	if err != nil || !equalIDs(orgIDs, []int64{salesID}) {
		t.Fatalf("unexpected user orgs: %v, %v", orgIDs, err)
	}

	principalOrgs, err := h.GetPrincipalOrgIDs(ctx, 100)
	if err != nil || !equalIDs(principalOrgs, []int64{salesID}) {
		t.Fatalf("unexpected principal orgs: %v, %v", principalOrgs, err)
	}
	principalOrgs, err = h.GetPrincipalOrgIDs(ctx, 101)
	if err != nil || len(principalOrgs) != 0 {
		t.Fatalf("expected no principal orgs for regular member: %v, %v", principalOrgs, err)
	}

	memberIDs, err := h.GetUserIDsByOrgIDs(ctx, []int64{salesID})
	if err != nil || !equalIDs(memberIDs, []int64{100, 101}) {
		t.Fatalf("unexpected org members: %v, %v", memberIDs, err)
	}

	// 负责人: 本组织及全部下级
	unitChild, err := h.GetUnitAndChildUserIDs(ctx, 100)
	if err != nil || !equalIDs(unitChild, []int64{100, 101, 110, 111, 120}) {
		t.Fatalf("unexpected unit and child users: %v, %v", unitChild, err)
	}

	// 负责人: 本人及下级，不含同组织成员 101
	selfChild, err := h.GetSelfAndChildUserIDs(ctx, 100)
	if err != nil || !equalIDs(selfChild, []int64{100, 110, 111, 120}) {
		t.Fatalf("unexpected self and child users: %v, %v", selfChild, err)
	}

	// 非负责人: 两个查询都返回空，交由解析层降级
	unitChild, err = h.GetUnitAndChildUserIDs(ctx, 101)
	if err != nil || len(unitChild) != 0 {
		t.Fatalf("expected empty for non principal: %v, %v", unitChild, err)
	}
	selfChild, err = h.GetSelfAndChildUserIDs(ctx, 101)
	if err != nil || len(selfChild) != 0 {
		t.Fatalf("expected empty for non principal: %v, %v", selfChild, err)
	}
}

// capturingNotifier 记录广播的变更
type capturingNotifier struct {
	roleIDs   []int64
	resources [][]string
	reasons   []string
}

func (n *capturingNotifier) NotifyScopeChange(ctx context.Context, roleID int64, resources []string, reason string) {
	n.roleIDs = append(n.roleIDs, roleID)
	n.resources = append(n.resources, resources)
	n.reasons = append(n.reasons, reason)
}

func TestAssignRoleScopesDiffing(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	scopeA := &SysDataScope{Name: "a", PermissionResource: "sys:user", ScopeType: "SELF", Status: StatusEnabled}
	scopeB := &SysDataScope{Name: "b", PermissionResource: "sys:order", ScopeType: "UNIT", Status: StatusEnabled}
	scopeC := &SysDataScope{Name: "c", PermissionResource: "sys:report", ScopeType: "ALL", Status: StatusEnabled}
	for _, scope := range []*SysDataScope{scopeA, scopeB, scopeC} {
		if err := db.Create(scope).Error; err != nil {
			t.Fatalf("seed scope: %v", err)
		}
	}

	cache := datascope.NewMemoryCache(time.Minute)
	for _, resource := range []string{"sys:user", "sys:order", "sys:report"} {
		if err := cache.Put(ctx, resource, nil); err != nil {
			t.Fatalf("seed cache: %v", err)
		}
	}
	notifier := &capturingNotifier{}
	assigner := NewAssignmentStore(db, cache, notifier, nil, zap.NewNop())

	// 初次分配 A + B
	if err := assigner.AssignRoleScopes(ctx, 7, []int64{scopeA.ID, scopeB.ID}); err != nil {
		t.Fatalf("assign: %v", err)
	}
	var active []SysRoleDataScope
	if err := db.Where("role_id = ?", 7).Find(&active).Error; err != nil {
		t.Fatalf("query links: %v", err)
	}
	if len(active) != 2 {
		t.Fatalf("expected 2 active links, got: %d", len(active))
	}

	// 改派为 B + C: A 被软删除, C 新增
	if err := assigner.AssignRoleScopes(ctx, 7, []int64{scopeB.ID, scopeC.ID}); err != nil {
		t.Fatalf("reassign: %v", err)
	}
	active = nil
	if err := db.Where("role_id = ?", 7).Find(&active).Error; err != nil {
		t.Fatalf("query links: %v", err)
	}
	gotScopes := make([]int64, 0, len(active))
	for _, link := range active {
		gotScopes = append(gotScopes, link.DataScopeID)
	}
	if !equalIDs(gotScopes, []int64{scopeB.ID, scopeC.ID}) {
		t.Fatalf("unexpected active scopes: %v", gotScopes)
	}
	var all []SysRoleDataScope
	if err := db.Unscoped().Where("role_id = ?", 7).Find(&all).Error; err != nil {
		t.Fatalf("query all links: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected soft-deleted link retained, got: %d rows", len(all))
	}

	// 再分配回 A: 软删除行被恢复而非新建
	if err := assigner.AssignRoleScopes(ctx, 7, []int64{scopeA.ID}); err != nil {
		t.Fatalf("recover assign: %v", err)
	}
	all = nil
	if err := db.Unscoped().Where("role_id = ?", 7).Find(&all).Error; err != nil {
		t.Fatalf("query all links: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected no new rows on recover, got: %d", len(all))
	}
	active = nil
	if err := db.Where("role_id = ?", 7).Find(&active).Error; err != nil {
		t.Fatalf("query links: %v", err)
	}
	if len(active) != 1 || active[0].DataScopeID != scopeA.ID {
		t.Fatalf("expected only A active, got: %+v", active)
	}

	// 缓存被失效，事件被广播
	if cache.Len() != 0 {
		t.Fatalf("expected all cached resources invalidated, len=%d", cache.Len())
	}
	if len(notifier.reasons) != 3 {
		t.Fatalf("expected 3 notifications, got: %d", len(notifier.reasons))
	}
	for _, reason := range notifier.reasons {
		if reason != "assignment_changed" {
			t.Fatalf("unexpected reason: %q", reason)
		}
	}
}

func TestSaveAndDeleteDataScope(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	cache := datascope.NewMemoryCache(time.Minute)
	if err := cache.Put(ctx, "sys:user", nil); err != nil {
		t.Fatalf("seed cache: %v", err)
	}
	notifier := &capturingNotifier{}
	assigner := NewAssignmentStore(db, cache, notifier, nil, zap.NewNop())

	scope := &SysDataScope{Name: "user self", PermissionResource: "sys:user", ScopeType: "SELF", Status: StatusEnabled}
	if err := assigner.SaveDataScope(ctx, scope); err != nil {
		t.Fatalf("save scope: %v", err)
	}
	if scope.ID == 0 {
		t.Fatalf("expected generated id")
	}
	if _, hit, _ := cache.Get(ctx, "sys:user"); hit {
		t.Fatalf("expected cache invalidated on save")
	}

	if err := db.Create(&SysRoleDataScope{RoleID: 1, DataScopeID: scope.ID}).Error; err != nil {
		t.Fatalf("seed link: %v", err)
	}
	if err := assigner.DeleteDataScope(ctx, scope.ID); err != nil {
		t.Fatalf("delete scope: %v", err)
	}

	var scopes []SysDataScope
	if err := db.Find(&scopes).Error; err != nil {
		t.Fatalf("query scopes: %v", err)
	}
	if len(scopes) != 0 {
		t.Fatalf("expected scope soft-deleted")
	}
	var links []SysRoleDataScope
	if err := db.Find(&links).Error; err != nil {
		t.Fatalf("query links: %v", err)
	}
	if len(links) != 0 {
		t.Fatalf("expected links soft-deleted")
	}
	if got := notifier.reasons[len(notifier.reasons)-1]; got != "config_deleted" {
		t.Fatalf("unexpected reason: %q", got)
	}
}

// fakeLocker 记录加锁 key 并直接执行
type fakeLocker struct {
	keys []string
}

func (l *fakeLocker) WithLock(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	l.keys = append(l.keys, key)
	return fn(ctx)
}

func TestAssignRoleScopesUsesLocker(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	scope := &SysDataScope{Name: "a", PermissionResource: "sys:user", ScopeType: "SELF", Status: StatusEnabled}
	if err := db.Create(scope).Error; err != nil {
		t.Fatalf("seed scope: %v", err)
	}

	locker := &fakeLocker{}
	assigner := NewAssignmentStore(db, nil, nil, locker, zap.NewNop())
	if err := assigner.AssignRoleScopes(ctx, 9, []int64{scope.ID}); err != nil {
		t.Fatalf("assign: %v", err)
	}

	if len(locker.keys) != 1 || locker.keys[0] != "scope-assign:9" {
		t.Fatalf("unexpected lock keys: %v", locker.keys)
	}
	var count int64
	if err := db.Model(&SysRoleDataScope{}).Where("role_id = ?", 9).Count(&count).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected link created under lock, got: %d", count)
	}
}
