package store

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/aisgo/ais-datascope/datascope"
)

/* ========================================================================
 * OrgHierarchy - 组织层级查询
 * ========================================================================
 * 职责: 基于 parent_id 树提供组织成员与下级组织的用户集合查询
 * ======================================================================== */

// maxOrgDepth 组织树遍历深度上限，超出按脏数据处理
const maxOrgDepth = 64

// GormOrgHierarchy 基于 GORM 的组织层级查询
type GormOrgHierarchy struct {
	db     *gorm.DB
	logger *zap.Logger
}

var _ datascope.OrgHierarchy = (*GormOrgHierarchy)(nil)

// NewGormOrgHierarchy 创建组织层级查询
func NewGormOrgHierarchy(db *gorm.DB, logger *zap.Logger) *GormOrgHierarchy {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GormOrgHierarchy{db: db, logger: logger}
}

// GetUserOrgIDs 用户所属组织 ID 列表
func (h *GormOrgHierarchy) GetUserOrgIDs(ctx context.Context, userID int64) ([]int64, error) {
	var orgIDs []int64
	err := h.db.WithContext(ctx).
		Model(&SysUserOrg{}).
		Where("user_id = ?", userID).
		Pluck("org_id", &orgIDs).Error
	return orgIDs, err
}

// GetPrincipalOrgIDs 用户担任负责人的组织 ID 列表
func (h *GormOrgHierarchy) GetPrincipalOrgIDs(ctx context.Context, userID int64) ([]int64, error) {
	var orgIDs []int64
	err := h.db.WithContext(ctx).
		Model(&SysOrg{}).
		Where("principal_id = ?", userID).
		Where("status = ?", StatusEnabled).
		Pluck("id", &orgIDs).Error
	return orgIDs, err
}

// GetUserIDsByOrgIDs 组织内所有用户 ID 列表
func (h *GormOrgHierarchy) GetUserIDsByOrgIDs(ctx context.Context, orgIDs []int64) ([]int64, error) {
	if len(orgIDs) == 0 {
		return nil, nil
	}
	var userIDs []int64
	err := h.db.WithContext(ctx).
		Model(&SysUserOrg{}).
		Where("org_id IN ?", orgIDs).
		Pluck("user_id", &userIDs).Error
	return userIDs, err
}

// GetUnitAndChildUserIDs 本组织 + 下级组织用户 ID 列表
//
// 仅对组织负责人生效；非负责人返回空集合，由解析层降级。
func (h *GormOrgHierarchy) GetUnitAndChildUserIDs(ctx context.Context, userID int64) ([]int64, error) {
	principalOrgIDs, err := h.GetPrincipalOrgIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(principalOrgIDs) == 0 {
		return nil, nil
	}

	childOrgIDs, err := h.descendantOrgIDs(ctx, principalOrgIDs)
	if err != nil {
		return nil, err
	}
	return h.GetUserIDsByOrgIDs(ctx, append(principalOrgIDs, childOrgIDs...))
}

// GetSelfAndChildUserIDs 本人 + 下级组织用户 ID 列表
//
// 仅对组织负责人生效；集合不含负责人所在组织的同级成员。
func (h *GormOrgHierarchy) GetSelfAndChildUserIDs(ctx context.Context, userID int64) ([]int64, error) {
	principalOrgIDs, err := h.GetPrincipalOrgIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(principalOrgIDs) == 0 {
		return nil, nil
	}

	childOrgIDs, err := h.descendantOrgIDs(ctx, principalOrgIDs)
	if err != nil {
		return nil, err
	}
	userIDs, err := h.GetUserIDsByOrgIDs(ctx, childOrgIDs)
	if err != nil {
		return nil, err
	}
	return append([]int64{userID}, userIDs...), nil
}

// descendantOrgIDs 逐层展开下级组织，不含起点组织自身
func (h *GormOrgHierarchy) descendantOrgIDs(ctx context.Context, rootIDs []int64) ([]int64, error) {
	seen := make(map[int64]struct{}, len(rootIDs))
	for _, id := range rootIDs {
		seen[id] = struct{}{}
	}

	var result []int64
	frontier := rootIDs
	for depth := 0; len(frontier) > 0; depth++ {
		if depth >= maxOrgDepth {
			return nil, fmt.Errorf("org tree deeper than %d levels, possible cycle", maxOrgDepth)
		}

		var childIDs []int64
		err := h.db.WithContext(ctx).
			Model(&SysOrg{}).
			Where("parent_id IN ?", frontier).
			Where("status = ?", StatusEnabled).
			Pluck("id", &childIDs).Error
		if err != nil {
			return nil, err
		}

		next := childIDs[:0]
		for _, id := range childIDs {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			result = append(result, id)
			next = append(next, id)
		}
		frontier = next
	}
	return result, nil
}
