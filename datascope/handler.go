package datascope

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

/* ========================================================================
 * Handler - 数据权限解析编排
 * ========================================================================
 * 职责: 编排 配置读取 -> 类型竞选 -> 用户集合解析 -> 自定义规则编译
 * 原则: 失败关闭。任何内部失败都产出 UNKNOWN + 仅本人可见的安全结果，
 *       绝不向调用方抛错，绝不因解析失败放大可见范围
 * ======================================================================== */

// Metrics 解析过程埋点，由 metrics 包提供实现
type Metrics interface {
	// ObserveResolution 记录一次解析结果
	ObserveResolution(permissionCode string, scopeType ScopeType, degraded bool, elapsed time.Duration)
	// CacheHit 记录缓存命中
	CacheHit(permissionCode string)
	// CacheMiss 记录缓存未命中
	CacheMiss(permissionCode string)
}

// NopMetrics 空埋点实现
type NopMetrics struct{}

func (NopMetrics) ObserveResolution(string, ScopeType, bool, time.Duration) {}
func (NopMetrics) CacheHit(string)                                         {}
func (NopMetrics) CacheMiss(string)                                        {}

// Handler 数据权限解析处理器
type Handler struct {
	store     ConfigStore
	cache     ConfigCache
	principal PrincipalContext
	codec     *RuleCodec
	compiler  *Compiler
	users     *UserSetResolver
	metrics   Metrics
	logger    *zap.Logger
}

// HandlerOptions Handler 可选依赖
type HandlerOptions struct {
	// Cache 配置缓存，nil 时使用进程内缓存
	Cache ConfigCache
	// Metrics 埋点，nil 时为空实现
	Metrics Metrics
}

// NewHandler 创建数据权限解析处理器
func NewHandler(
	store ConfigStore,
	principal PrincipalContext,
	hierarchy OrgHierarchy,
	logger *zap.Logger,
	opts HandlerOptions,
) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	cache := opts.Cache
	if cache == nil {
		cache = NewMemoryCache(DefaultCacheTTL)
	}
	metrics := opts.Metrics
	if metrics == nil {
		metrics = NopMetrics{}
	}
	variables := NewVariableResolver(principal, logger)
	return &Handler{
		store:     store,
		cache:     cache,
		principal: principal,
		codec:     NewRuleCodec(logger),
		compiler:  NewCompiler(variables, logger),
		users:     NewUserSetResolver(hierarchy, logger),
		metrics:   metrics,
		logger:    logger,
	}
}

// Resolve 解析当前用户在指定权限资源上的数据权限
//
// 永不返回 nil，永不 panic:
//   - 权限资源标识为空、配置读取失败或任何内部异常 -> UNKNOWN + 仅本人可见
//   - 权限资源未配置任何角色权限 -> ALL（约定: 未配置即不管控）
//   - 存在 CUSTOM 配置且编译出非空 SQL -> 类型升格为 CUSTOM，
//     同时保留基础类型解析出的用户集合
func (h *Handler) Resolve(ctx context.Context, userID int64, permissionCode string) (scope *DataScope) {
	start := timeNow()
	corrID := newCorrelationID()

	defer func() {
		if rec := recover(); rec != nil {
			h.logger.Error("data scope resolution panic",
				zap.String("corrId", corrID),
				zap.Int64("userId", userID),
				zap.String("permissionCode", permissionCode),
				zap.Any("panic", rec),
			)
			scope = h.degraded(corrID, userID, permissionCode, start, "panic")
		}
	}()

	permissionCode = strings.TrimSpace(permissionCode)
	if permissionCode == "" {
		return h.degraded(corrID, userID, permissionCode, start, "blank permission code")
	}

	h.logger.Debug("data scope resolution started",
		zap.String("corrId", corrID),
		zap.Int64("userId", userID),
		zap.String("permissionCode", permissionCode),
	)

	configs, err := h.loadConfigs(ctx, permissionCode)
	if err != nil {
		h.logger.Error("load data scope configs failed",
			zap.String("corrId", corrID),
			zap.String("permissionCode", permissionCode),
			zap.Error(err),
		)
		return h.degraded(corrID, userID, permissionCode, start, "config unavailable")
	}

	roleIDs, err := h.principal.CurrentUserRoleIDs(ctx)
	if err != nil {
		h.logger.Error("load current user roles failed",
			zap.String("corrId", corrID),
			zap.Int64("userId", userID),
			zap.Error(err),
		)
		return h.degraded(corrID, userID, permissionCode, start, "role lookup failed")
	}
	configs = filterByRoles(configs, roleIDs)

	// 未配置即不管控
	if len(configs) == 0 {
		scope = &DataScope{
			ScopeType:      ScopeAll,
			CurrentUserID:  userID,
			PermissionCode: permissionCode,
		}
		h.built(corrID, scope, start, false)
		return scope
	}

	baseType := ResolveBaseScopeType(configs)
	if baseType == ScopeUnknown {
		if !hasCustom(configs) {
			// 配置存在但全部无法识别，按最窄处理
			return h.degraded(corrID, userID, permissionCode, start, "no recognizable scope type")
		}
		// 仅有 CUSTOM 配置时基础可见性收敛为本人
		baseType = ScopeSelf
	}

	scope = &DataScope{
		ScopeType:      baseType,
		CurrentUserID:  userID,
		ScopeUserIDs:   h.users.Resolve(ctx, userID, baseType),
		PermissionCode: permissionCode,
	}

	if customSQL := h.compileCustom(ctx, corrID, configs); customSQL != "" {
		scope.ScopeType = ScopeCustom
		scope.CustomRulesSQL = customSQL
	}

	h.built(corrID, scope, start, false)
	return scope
}

// loadConfigs 读穿透加载配置，缓存错误视同未命中
func (h *Handler) loadConfigs(ctx context.Context, permissionCode string) ([]RoleScopeConfig, error) {
	configs, hit, err := h.cache.Get(ctx, permissionCode)
	if err != nil {
		h.logger.Warn("data scope cache read failed",
			zap.String("permissionCode", permissionCode),
			zap.Error(err),
		)
	} else if hit {
		h.metrics.CacheHit(permissionCode)
		return configs, nil
	}
	h.metrics.CacheMiss(permissionCode)

	configs, err = h.store.ListRoleScopesByPermissionResource(ctx, permissionCode)
	if err != nil {
		return nil, err
	}
	if putErr := h.cache.Put(ctx, permissionCode, configs); putErr != nil {
		h.logger.Warn("data scope cache write failed",
			zap.String("permissionCode", permissionCode),
			zap.Error(putErr),
		)
	}
	return configs, nil
}

// compileCustom 编译所有 CUSTOM 配置
//
// 每个角色的规则独立解码编译，单角色失败只丢弃该角色的规则。
// 多个角色编译出的片段按 OR 合并（任一角色的规则放行即可见）。
func (h *Handler) compileCustom(ctx context.Context, corrID string, configs []RoleScopeConfig) string {
	fragments := make([]string, 0, 1)
	for _, cfg := range configs {
		if ParseScopeType(cfg.ScopeType) != ScopeCustom {
			continue
		}
		conds := h.codec.Decode(cfg.CustomRules)
		if len(conds) == 0 {
			continue
		}
		fragment := h.compiler.Compile(ctx, conds)
		if fragment == "" {
			h.logger.Warn("skip custom rules for role",
				zap.String("corrId", corrID),
				zap.Int64("roleId", cfg.RoleID),
			)
			continue
		}
		fragments = append(fragments, fragment)
	}

	switch len(fragments) {
	case 0:
		return ""
	case 1:
		return fragments[0]
	default:
		return "(" + strings.Join(fragments, " OR ") + ")"
	}
}

// degraded 产出安全降级结果
func (h *Handler) degraded(corrID string, userID int64, permissionCode string, start time.Time, reason string) *DataScope {
	scope := &DataScope{
		ScopeType:      ScopeUnknown,
		CurrentUserID:  userID,
		ScopeUserIDs:   []int64{userID},
		PermissionCode: permissionCode,
	}
	elapsed := timeNow().Sub(start)
	h.logger.Warn("data scope resolution degraded",
		zap.String("corrId", corrID),
		zap.Int64("userId", userID),
		zap.String("permissionCode", permissionCode),
		zap.String("reason", reason),
		zap.Int64("elapsedMs", elapsed.Milliseconds()),
	)
	h.metrics.ObserveResolution(permissionCode, ScopeUnknown, true, elapsed)
	return scope
}

// built 记录解析完成
func (h *Handler) built(corrID string, scope *DataScope, start time.Time, degraded bool) {
	elapsed := timeNow().Sub(start)
	h.logger.Info("data scope resolution built",
		zap.String("corrId", corrID),
		zap.Int64("userId", scope.CurrentUserID),
		zap.String("permissionCode", scope.PermissionCode),
		zap.String("scopeType", string(scope.ScopeType)),
		zap.Int("scopeUserCount", len(scope.ScopeUserIDs)),
		zap.Bool("hasCustomRules", scope.CustomRulesSQL != ""),
		zap.Int64("elapsedMs", elapsed.Milliseconds()),
	)
	h.metrics.ObserveResolution(scope.PermissionCode, scope.ScopeType, degraded, elapsed)
}

// newCorrelationID 解析链路短 ID，取 UUID 前 8 位
func newCorrelationID() string {
	id := strings.ReplaceAll(uuid.NewString(), "-", "")
	return id[:8]
}

// filterByRoles 只保留当前用户持有角色的配置
func filterByRoles(configs []RoleScopeConfig, roleIDs []int64) []RoleScopeConfig {
	if len(configs) == 0 || len(roleIDs) == 0 {
		return nil
	}
	held := make(map[int64]struct{}, len(roleIDs))
	for _, id := range roleIDs {
		held[id] = struct{}{}
	}
	out := make([]RoleScopeConfig, 0, len(configs))
	for _, cfg := range configs {
		if _, ok := held[cfg.RoleID]; ok {
			out = append(out, cfg)
		}
	}
	return out
}

// hasCustom 是否存在 CUSTOM 配置
func hasCustom(configs []RoleScopeConfig) bool {
	for _, cfg := range configs {
		if ParseScopeType(cfg.ScopeType) == ScopeCustom {
			return true
		}
	}
	return false
}
