package event

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/aisgo/ais-datascope/mq"
	"github.com/aisgo/ais-datascope/utils/id-generator/ulid"
)

/* ========================================================================
 * Publisher - 变更事件发布
 * ========================================================================
 * 职责: 将权限变更事件发布到消息总线
 * 原则: 发后即忘，发布失败只记日志，不影响写路径
 * ======================================================================== */

// Publisher 变更事件发布器
type Publisher struct {
	producer mq.Producer
	topic    string
	logger   *zap.Logger
}

// NewPublisher 创建变更事件发布器
func NewPublisher(producer mq.Producer, topic string, logger *zap.Logger) *Publisher {
	if topic == "" {
		topic = DefaultTopic
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Publisher{producer: producer, topic: topic, logger: logger}
}

// Publish 发布变更事件
//
// 序列化失败返回错误；投递采用异步发送，broker 侧失败仅记录日志。
func (p *Publisher) Publish(ctx context.Context, ev ScopeChangeEvent) error {
	if ev.EventID == "" {
		ev.EventID = ulid.GenerateString()
	}
	if ev.At.IsZero() {
		ev.At = time.Now()
	}
	body, err := json.Marshal(ev)
	if err != nil {
		return err
	}

	key := ""
	if len(ev.Resources) > 0 {
		key = ev.Resources[0]
	}
	msg := mq.NewMessage(p.topic, body).
		WithKey(key).
		WithProperty("reason", ev.Reason)

	return p.producer.SendAsync(ctx, msg, func(result *mq.SendResult, err error) {
		if err != nil {
			p.logger.Error("publish scope change event failed",
				zap.Strings("resources", ev.Resources),
				zap.String("reason", ev.Reason),
				zap.Error(err),
			)
			return
		}
		p.logger.Debug("scope change event published",
			zap.Strings("resources", ev.Resources),
			zap.String("reason", ev.Reason),
			zap.String("msgId", result.MsgID),
		)
	})
}

// NotifyScopeChange 供存储层写路径调用的便捷入口
func (p *Publisher) NotifyScopeChange(ctx context.Context, roleID int64, resources []string, reason string) {
	if len(resources) == 0 {
		return
	}
	ev := ScopeChangeEvent{
		Resources: resources,
		RoleID:    roleID,
		Reason:    reason,
		At:        time.Now(),
	}
	if err := p.Publish(ctx, ev); err != nil {
		p.logger.Error("encode scope change event failed",
			zap.Strings("resources", resources),
			zap.Error(err),
		)
	}
}
