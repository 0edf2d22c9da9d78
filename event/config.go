package event

import (
	"github.com/aisgo/ais-datascope/conf"
	"github.com/aisgo/ais-datascope/mq"
)

// ConfigFromApp 从服务配置段装配事件总线配置
//
// broker 仅支持 kafka / rocketmq，其他值按 rocketmq 处理。
func ConfigFromApp(c conf.EventBusConfig) Config {
	mqCfg := mq.DefaultConfig()

	switch mq.Type(c.Broker) {
	case mq.TypeKafka:
		mqCfg.Type = mq.TypeKafka
		if len(c.Endpoints) > 0 {
			mqCfg.Kafka.Brokers = c.Endpoints
		}
		if c.Group != "" {
			mqCfg.Kafka.Consumer.GroupID = c.Group
		}
		if c.AccessKey != "" {
			mqCfg.Kafka.SASL.Enable = true
			mqCfg.Kafka.SASL.Mechanism = "SCRAM-SHA-512"
			mqCfg.Kafka.SASL.Username = c.AccessKey
			mqCfg.Kafka.SASL.Password = c.SecretKey
		}
		mqCfg.Kafka.TLS.Enable = c.TLSEnabled
	default:
		mqCfg.Type = mq.TypeRocketMQ
		if len(c.Endpoints) > 0 {
			mqCfg.RocketMQ.NameServers = c.Endpoints
		}
		if c.Group != "" {
			mqCfg.RocketMQ.Consumer.GroupName = c.Group
		}
		mqCfg.RocketMQ.AccessKey = c.AccessKey
		mqCfg.RocketMQ.SecretKey = c.SecretKey
	}

	return Config{Topic: c.Topic, MQ: mqCfg}
}
