package event

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/aisgo/ais-datascope/datascope"
	"github.com/aisgo/ais-datascope/mq"

	// 注册 broker 工厂
	_ "github.com/aisgo/ais-datascope/mq/kafka"
	_ "github.com/aisgo/ais-datascope/mq/rocketmq"

	"github.com/aisgo/ais-datascope/shutdown"
)

/* ========================================================================
 * Event Module
 * ========================================================================
 * 职责: 装配变更事件总线（生产者 + 失效消费者）
 * ======================================================================== */

// Config 事件总线配置
type Config struct {
	// Topic 变更事件主题，缺省 DefaultTopic
	Topic string `yaml:"topic" mapstructure:"topic"`
	// MQ broker 配置
	MQ *mq.Config `yaml:"mq" mapstructure:"mq"`
}

// BusParams 事件总线依赖
type BusParams struct {
	fx.In

	Lc     fx.Lifecycle
	Config Config
	Cache  datascope.ConfigCache
	Logger *zap.Logger

	// Shutdown 可选，注册后按优先级参与优雅关停
	Shutdown *shutdown.Manager `optional:"true"`
}

// BusResult 事件总线产出
type BusResult struct {
	fx.Out

	Publisher   *Publisher
	Invalidator *Invalidator
}

// NewBus 创建事件总线
func NewBus(p BusParams) (BusResult, error) {
	producer, err := mq.NewProducer(p.Config.MQ, p.Logger)
	if err != nil {
		return BusResult{}, err
	}
	consumer, err := mq.NewConsumer(p.Config.MQ, p.Logger)
	if err != nil {
		_ = producer.Close()
		return BusResult{}, err
	}

	topic := p.Config.Topic
	if topic == "" {
		topic = DefaultTopic
	}

	publisher := NewPublisher(producer, topic, p.Logger)
	invalidator := NewInvalidator(p.Cache, p.Logger)

	p.Lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := invalidator.Subscribe(consumer, topic); err != nil {
				return err
			}
			return consumer.Start()
		},
		OnStop: func(ctx context.Context) error {
			if err := consumer.Close(); err != nil {
				return err
			}
			return producer.Close()
		},
	})

	// 消费者先于生产者关闭，避免关停期间自己还在广播
	if p.Shutdown != nil {
		p.Shutdown.RegisterHookWithPriority("event-consumer", func(ctx context.Context) error {
			return consumer.Close()
		}, shutdown.PriorityHigh)
		p.Shutdown.RegisterHookWithPriority("event-producer", func(ctx context.Context) error {
			return producer.Close()
		}, shutdown.PriorityNormal)
	}

	return BusResult{Publisher: publisher, Invalidator: invalidator}, nil
}

// Module 事件总线模块
// 提供: *Publisher, *Invalidator
var Module = fx.Module("event",
	fx.Provide(NewBus),
)
