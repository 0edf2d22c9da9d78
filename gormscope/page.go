package gormscope

import (
	"context"
	"math"

	"gorm.io/gorm"

	"github.com/aisgo/ais-datascope/datascope"
	"github.com/aisgo/ais-datascope/errors"
)

/* ========================================================================
 * Page Query - 权限过滤分页查询
 * ========================================================================
 * 职责: 在数据权限过滤之上提供统计 + 分页读取
 * ======================================================================== */

// PageResult 分页查询结果
type PageResult[T any] struct {
	List     []T   `json:"list"`
	Total    int64 `json:"total"`
	Page     int   `json:"page"`
	PageSize int   `json:"pageSize"`
	Pages    int64 `json:"pages"`
}

// FindPage 带数据权限过滤的分页查询
//
// query 为空时仅按权限过滤。
func FindPage[T any](ctx context.Context, db *gorm.DB, scope *datascope.DataScope, userColumn string, page, pageSize int, query string, args ...any) (*PageResult[T], error) {
	// 参数校验
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 10
	}
	if pageSize > 1000 {
		pageSize = 1000 // 限制最大页大小
	}

	var model T
	tx := db.WithContext(ctx).Model(&model).Scopes(Apply(scope, userColumn))
	if query != "" {
		tx = tx.Where(query, args...)
	}

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, "failed to count records", err)
	}

	var list []T
	offset := (page - 1) * pageSize
	if err := tx.Offset(offset).Limit(pageSize).Find(&list).Error; err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, "failed to find records", err)
	}

	pages := int64(math.Ceil(float64(total) / float64(pageSize)))
	return &PageResult[T]{
		List:     list,
		Total:    total,
		Page:     page,
		PageSize: pageSize,
		Pages:    pages,
	}, nil
}
