package event

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/aisgo/ais-datascope/datascope"
	"github.com/aisgo/ais-datascope/metrics"
	"github.com/aisgo/ais-datascope/mq"
)

/* ========================================================================
 * Invalidator - 变更事件消费
 * ========================================================================
 * 职责: 消费权限变更事件并失效本实例的配置缓存
 * 原则: 事件非法直接丢弃（重试也不会变合法）；缓存失效失败要求重投
 * ======================================================================== */

// Invalidator 缓存失效消费器
type Invalidator struct {
	cache  datascope.ConfigCache
	logger *zap.Logger
}

// NewInvalidator 创建缓存失效消费器
func NewInvalidator(cache datascope.ConfigCache, logger *zap.Logger) *Invalidator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Invalidator{cache: cache, logger: logger}
}

// Subscribe 在消费者上订阅变更主题
func (i *Invalidator) Subscribe(consumer mq.Consumer, topic string) error {
	if topic == "" {
		topic = DefaultTopic
	}
	return consumer.Subscribe(topic, i.Handle)
}

// Handle 处理一批变更事件
func (i *Invalidator) Handle(ctx context.Context, msgs []*mq.ConsumedMessage) (mq.ConsumeResult, error) {
	for _, msg := range msgs {
		var ev ScopeChangeEvent
		if err := json.Unmarshal(msg.Body, &ev); err != nil {
			i.logger.Error("drop malformed scope change event",
				zap.String("msgId", msg.MsgID),
				zap.Error(err),
			)
			continue
		}
		if len(ev.Resources) == 0 {
			continue
		}

		if err := i.cache.Invalidate(ctx, ev.Resources...); err != nil {
			i.logger.Error("invalidate scope config cache failed",
				zap.Strings("resources", ev.Resources),
				zap.Error(err),
			)
			return mq.ConsumeRetryLater, err
		}

		metrics.InvalidationTotal.WithLabelValues(ev.Reason).Inc()
		i.logger.Info("scope config cache invalidated",
			zap.Strings("resources", ev.Resources),
			zap.Int64("roleId", ev.RoleID),
			zap.String("reason", ev.Reason),
		)
	}
	return mq.ConsumeSuccess, nil
}
