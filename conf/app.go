package conf

import "time"

/* ========================================================================
 * App Config - 数据权限服务配置根
 * ========================================================================
 * 职责: 聚合各组件配置，供 fx 装配时拆解下发
 * ======================================================================== */

// LoggerConfig 日志配置段
type LoggerConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
	Output string `yaml:"output" mapstructure:"output"`
}

// DatabaseConfig 数据库配置段
type DatabaseConfig struct {
	Driver          string `yaml:"driver" mapstructure:"driver"` // mysql, postgres
	Host            string `yaml:"host" mapstructure:"host"`
	Port            int    `yaml:"port" mapstructure:"port"`
	User            string `yaml:"user" mapstructure:"user"`
	Password        string `yaml:"password" mapstructure:"password"`
	Database        string `yaml:"database" mapstructure:"database"`
	MaxOpenConns    int    `yaml:"max_open_conns" mapstructure:"max_open_conns"`
	MaxIdleConns    int    `yaml:"max_idle_conns" mapstructure:"max_idle_conns"`
	ConnMaxLifetime string `yaml:"conn_max_lifetime" mapstructure:"conn_max_lifetime"`
}

// RedisConfig Redis 配置段
type RedisConfig struct {
	Host         string `yaml:"host" mapstructure:"host"`
	Port         int    `yaml:"port" mapstructure:"port"`
	Password     string `yaml:"password" mapstructure:"password"`
	DB           int    `yaml:"db" mapstructure:"db"`
	PoolSize     int    `yaml:"pool_size" mapstructure:"pool_size"`
	MinIdleConns int    `yaml:"min_idle_conns" mapstructure:"min_idle_conns"`
}

// ScopeCacheConfig 权限配置缓存段
type ScopeCacheConfig struct {
	// Backend memory 或 redis
	Backend string `yaml:"backend" mapstructure:"backend"`
	// TTL 缓存过期时间
	TTL time.Duration `yaml:"ttl" mapstructure:"ttl"`
	// KeyPrefix Redis key 前缀
	KeyPrefix string `yaml:"key_prefix" mapstructure:"key_prefix"`
}

// EventBusConfig 失效事件总线配置段
type EventBusConfig struct {
	// Enabled 是否启用跨实例失效广播
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`
	// Broker kafka 或 rocketmq
	Broker string `yaml:"broker" mapstructure:"broker"`
	// Topic 失效事件主题
	Topic string `yaml:"topic" mapstructure:"topic"`
	// Group 消费组
	Group string `yaml:"group" mapstructure:"group"`
	// Endpoints broker 地址列表
	Endpoints []string `yaml:"endpoints" mapstructure:"endpoints"`
	// AccessKey / SecretKey 认证凭据（kafka 走 SASL/SCRAM，rocketmq 走 ACL）
	AccessKey string `yaml:"access_key" mapstructure:"access_key"`
	SecretKey string `yaml:"secret_key" mapstructure:"secret_key"`
	// TLSEnabled kafka 是否启用 TLS
	TLSEnabled bool `yaml:"tls_enabled" mapstructure:"tls_enabled"`
}

// MetricsConfig 指标配置段
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" mapstructure:"enabled"`
	Path    string `yaml:"path" mapstructure:"path"`
}

// Config 服务配置根
type Config struct {
	Logger   LoggerConfig     `yaml:"logger" mapstructure:"logger"`
	Database DatabaseConfig   `yaml:"database" mapstructure:"database"`
	Redis    RedisConfig      `yaml:"redis" mapstructure:"redis"`
	Cache    ScopeCacheConfig `yaml:"cache" mapstructure:"cache"`
	EventBus EventBusConfig   `yaml:"event_bus" mapstructure:"event_bus"`
	Metrics  MetricsConfig    `yaml:"metrics" mapstructure:"metrics"`
}
