package store

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/aisgo/ais-datascope/datascope"
	"github.com/aisgo/ais-datascope/event"
)

/* ========================================================================
 * AssignmentStore - 配置写路径
 * ========================================================================
 * 职责: 维护角色与数据权限配置的关联、配置本身的增改停用，
 *       写成功后失效本地缓存并广播变更事件
 * 一致性: 缓存失效与事件广播相对写操作是发后即忘
 * ======================================================================== */

// Notifier 变更广播，由 event.Publisher 实现
type Notifier interface {
	NotifyScopeChange(ctx context.Context, roleID int64, resources []string, reason string)
}

var _ Notifier = (*event.Publisher)(nil)

// Locker 分布式锁，多实例部署下串行化同一角色的授权变更
type Locker interface {
	WithLock(ctx context.Context, key string, fn func(ctx context.Context) error) error
}

// AssignmentStore 配置写入口
type AssignmentStore struct {
	db       *gorm.DB
	cache    datascope.ConfigCache
	notifier Notifier
	locker   Locker
	logger   *zap.Logger
}

// NewAssignmentStore 创建配置写入口
//
// cache、notifier、locker 均可为 nil（单实例无缓存部署、或未启用事件总线）。
func NewAssignmentStore(db *gorm.DB, cache datascope.ConfigCache, notifier Notifier, locker Locker, logger *zap.Logger) *AssignmentStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AssignmentStore{db: db, cache: cache, notifier: notifier, locker: locker, logger: logger}
}

// AssignRoleScopes 全量指定角色的数据权限配置关联
//
// 与现有关联做差集: 新增缺失的、软删除多余的、恢复此前软删除过的，
// 全部在一个事务内完成；随后失效所有受影响权限资源的缓存。
// 配置了分布式锁时，同一角色的变更跨实例串行执行。
func (s *AssignmentStore) AssignRoleScopes(ctx context.Context, roleID int64, scopeIDs []int64) error {
	if s.locker == nil {
		return s.assignRoleScopes(ctx, roleID, scopeIDs)
	}
	return s.locker.WithLock(ctx, fmt.Sprintf("scope-assign:%d", roleID), func(ctx context.Context) error {
		return s.assignRoleScopes(ctx, roleID, scopeIDs)
	})
}

func (s *AssignmentStore) assignRoleScopes(ctx context.Context, roleID int64, scopeIDs []int64) error {
	desired := make(map[int64]struct{}, len(scopeIDs))
	for _, id := range scopeIDs {
		desired[id] = struct{}{}
	}

	// 含软删除行的现状
	var links []SysRoleDataScope
	if err := s.db.WithContext(ctx).Unscoped().
		Where("role_id = ?", roleID).
		Find(&links).Error; err != nil {
		return err
	}

	var toCreate []int64
	var toRecover []int64
	var toRemove []int64
	existing := make(map[int64]struct{}, len(links))
	for _, link := range links {
		existing[link.DataScopeID] = struct{}{}
		_, wanted := desired[link.DataScopeID]
		switch {
		case wanted && link.Deleted != 0:
			toRecover = append(toRecover, link.ID)
		case !wanted && link.Deleted == 0:
			toRemove = append(toRemove, link.ID)
		}
	}
	for id := range desired {
		if _, ok := existing[id]; !ok {
			toCreate = append(toCreate, id)
		}
	}

	affected := s.affectedResources(ctx, roleID, scopeIDs, links)

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(toCreate) > 0 {
			rows := make([]SysRoleDataScope, 0, len(toCreate))
			for _, scopeID := range toCreate {
				rows = append(rows, SysRoleDataScope{RoleID: roleID, DataScopeID: scopeID})
			}
			if err := tx.Create(&rows).Error; err != nil {
				return err
			}
		}
		if len(toRecover) > 0 {
			if err := tx.Unscoped().Model(&SysRoleDataScope{}).
				Where("id IN ?", toRecover).
				UpdateColumn("deleted", 0).Error; err != nil {
				return err
			}
		}
		if len(toRemove) > 0 {
			if err := tx.Where("id IN ?", toRemove).
				Delete(&SysRoleDataScope{}).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info("role data scope assignment updated",
		zap.Int64("roleId", roleID),
		zap.Int("created", len(toCreate)),
		zap.Int("recovered", len(toRecover)),
		zap.Int("removed", len(toRemove)),
	)
	s.afterChange(ctx, roleID, affected, event.ReasonAssignmentChanged)
	return nil
}

// SaveDataScope 新增或更新数据权限配置
func (s *AssignmentStore) SaveDataScope(ctx context.Context, scope *SysDataScope) error {
	if err := s.db.WithContext(ctx).Save(scope).Error; err != nil {
		return err
	}
	s.afterChange(ctx, 0, []string{scope.PermissionResource}, event.ReasonConfigUpdated)
	return nil
}

// DeleteDataScope 软删除数据权限配置及其全部角色关联
func (s *AssignmentStore) DeleteDataScope(ctx context.Context, scopeID int64) error {
	var scope SysDataScope
	if err := s.db.WithContext(ctx).First(&scope, scopeID).Error; err != nil {
		return err
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&SysDataScope{}, scopeID).Error; err != nil {
			return err
		}
		return tx.Where("data_scope_id = ?", scopeID).
			Delete(&SysRoleDataScope{}).Error
	})
	if err != nil {
		return err
	}

	s.afterChange(ctx, 0, []string{scope.PermissionResource}, event.ReasonConfigDeleted)
	return nil
}

// affectedResources 变更前后涉及的全部权限资源标识
func (s *AssignmentStore) affectedResources(ctx context.Context, roleID int64, scopeIDs []int64, links []SysRoleDataScope) []string {
	idSet := make(map[int64]struct{}, len(scopeIDs)+len(links))
	for _, id := range scopeIDs {
		idSet[id] = struct{}{}
	}
	for _, link := range links {
		idSet[link.DataScopeID] = struct{}{}
	}
	if len(idSet) == 0 {
		return nil
	}
	ids := make([]int64, 0, len(idSet))
	for id := range idSet {
		ids = append(ids, id)
	}

	var resources []string
	err := s.db.WithContext(ctx).Unscoped().
		Model(&SysDataScope{}).
		Distinct("permission_resource").
		Where("id IN ?", ids).
		Pluck("permission_resource", &resources).Error
	if err != nil {
		s.logger.Warn("resolve affected permission resources failed",
			zap.Int64("roleId", roleID),
			zap.Error(err),
		)
		return nil
	}
	return resources
}

// afterChange 写成功后的缓存失效与事件广播
func (s *AssignmentStore) afterChange(ctx context.Context, roleID int64, resources []string, reason string) {
	if len(resources) == 0 {
		return
	}
	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, resources...); err != nil {
			s.logger.Warn("invalidate scope config cache failed",
				zap.Strings("resources", resources),
				zap.Error(err),
			)
		}
	}
	if s.notifier != nil {
		s.notifier.NotifyScopeChange(ctx, roleID, resources, reason)
	}
}
