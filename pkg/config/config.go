// Package config 提供 TOML 配置加载、环境变量覆盖与 schema 校验
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// Config 基础配置结构
type Config struct {
	// 服务名称
	ServiceName string `mapstructure:"service_name"`
	// 服务版本
	Version string `mapstructure:"version"`
	// 环境：dev, staging, prod
	Environment string `mapstructure:"environment"`
	// HTTP 服务配置
	HTTP HTTPConfig `mapstructure:"http"`
	// gRPC 服务配置
	GRPC GRPCConfig `mapstructure:"grpc"`
	// 数据库配置
	Database DatabaseConfig `mapstructure:"database"`
	// Redis 配置
	Redis RedisConfig `mapstructure:"redis"`
	// Kafka 配置
	Kafka KafkaConfig `mapstructure:"kafka"`
	// 日志配置
	Logger LoggerConfig `mapstructure:"logger"`
	// 指标配置
	Metrics MetricsConfig `mapstructure:"metrics"`
	// 执行引擎配置
	Engine EngineConfig `mapstructure:"engine"`
	// 下单接口限流配置
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	// 实时推送配置
	Stream StreamConfig `mapstructure:"stream"`
	// 出入金配置
	Account AccountConfig `mapstructure:"account"`
	// KYC 配置
	KYC KYCConfig `mapstructure:"kyc"`
	// 行情参考价配置
	MarketData MarketDataConfig `mapstructure:"marketdata"`
}

// HTTPConfig HTTP 服务配置
type HTTPConfig struct {
	// 监听地址
	Host string `mapstructure:"host" default:"0.0.0.0"`
	// 监听端口
	Port int `mapstructure:"port" default:"8080"`
	// 读超时（秒）
	ReadTimeout int `mapstructure:"read_timeout" default:"30"`
	// 写超时（秒）
	WriteTimeout int `mapstructure:"write_timeout" default:"30"`
}

// GRPCConfig gRPC 服务配置
type GRPCConfig struct {
	// 监听地址
	Host string `mapstructure:"host" default:"0.0.0.0"`
	// 监听端口
	Port int `mapstructure:"port" default:"50051"`
	// 最大并发流数
	MaxConcurrentStreams int `mapstructure:"max_concurrent_streams" default:"1000"`
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	// 驱动：memory（默认，内置存储）或 mysql
	Driver string `mapstructure:"driver" default:"memory"`
	// 数据源名称（mysql 必填）
	DSN string `mapstructure:"dsn"`
	// 最大连接数
	MaxOpenConns int `mapstructure:"max_open_conns" default:"25"`
	// 最大空闲连接数
	MaxIdleConns int `mapstructure:"max_idle_conns" default:"5"`
	// 连接最大生命周期（秒）
	ConnMaxLifetime int `mapstructure:"conn_max_lifetime" default:"300"`
	// 是否启用日志
	LogEnabled bool `mapstructure:"log_enabled" default:"false"`
	// 慢查询阈值（毫秒）
	SlowQueryThreshold int `mapstructure:"slow_query_threshold" default:"1000"`
}

// RedisConfig Redis 配置
type RedisConfig struct {
	// 是否启用（关闭时参考价只用内存表）
	Enabled bool `mapstructure:"enabled" default:"false"`
	// 主机地址
	Host string `mapstructure:"host" default:"localhost"`
	// 端口
	Port int `mapstructure:"port" default:"6379"`
	// 密码
	Password string `mapstructure:"password"`
	// 数据库编号
	DB int `mapstructure:"db" default:"0"`
	// 最大连接数
	MaxPoolSize int `mapstructure:"max_pool_size" default:"10"`
	// 连接超时（秒）
	ConnTimeout int `mapstructure:"conn_timeout" default:"5"`
	// 读超时（秒）
	ReadTimeout int `mapstructure:"read_timeout" default:"3"`
	// 写超时（秒）
	WriteTimeout int `mapstructure:"write_timeout" default:"3"`
}

// KafkaConfig Kafka 配置
type KafkaConfig struct {
	// 是否启用（关闭时不做事件镜像、不消费行情）
	Enabled bool `mapstructure:"enabled" default:"false"`
	// Broker 地址列表
	Brokers []string `mapstructure:"brokers"`
	// Consumer Group ID
	GroupID string `mapstructure:"group_id"`
	// 订单事件镜像 topic
	OrderEventsTopic string `mapstructure:"order_events_topic" default:"oms.order.events"`
	// 行情参考价 topic
	PriceTopic string `mapstructure:"price_topic" default:"oms.market.prices"`
}

// LoggerConfig 日志配置
type LoggerConfig struct {
	// 日志级别
	Level string `mapstructure:"level" default:"info"`
	// 输出格式
	Format string `mapstructure:"format" default:"json"`
	// 输出目标
	Output string `mapstructure:"output" default:"stdout"`
	// 文件路径
	FilePath string `mapstructure:"file_path" default:"logs/oms.log"`
	// 最大文件大小（MB）
	MaxSize int `mapstructure:"max_size" default:"100"`
	// 最大备份文件数
	MaxBackups int `mapstructure:"max_backups" default:"10"`
	// 最大保留天数
	MaxAge int `mapstructure:"max_age" default:"30"`
	// 是否压缩
	Compress bool `mapstructure:"compress" default:"true"`
	// 是否输出调用者信息
	WithCaller bool `mapstructure:"with_caller" default:"true"`
}

// MetricsConfig 指标配置
type MetricsConfig struct {
	// 是否启用
	Enabled bool `mapstructure:"enabled" default:"true"`
	// Prometheus 监听端口
	Port int `mapstructure:"port" default:"9090"`
	// 指标路径
	Path string `mapstructure:"path" default:"/metrics"`
}

// EngineConfig 执行引擎配置
type EngineConfig struct {
	// 指令队列容量
	QueueCapacity int `mapstructure:"queue_capacity" default:"10000"`
	// 报单模拟时延（毫秒）
	SendLatencyMS int `mapstructure:"send_latency_ms" default:"200"`
	// 二次成交模拟时延（毫秒）
	FillLatencyMS int `mapstructure:"fill_latency_ms" default:"300"`
	// 撤单模拟时延（毫秒）
	CancelLatencyMS int `mapstructure:"cancel_latency_ms" default:"200"`
	// 模拟拒单概率 [0,1]
	RejectProb float64 `mapstructure:"reject_prob" default:"0.1"`
	// 模拟部分成交概率 [0,1]
	PartialProb float64 `mapstructure:"partial_prob" default:"0.5"`
	// 随机种子（0 表示按时间播种）
	Seed int64 `mapstructure:"seed" default:"0"`
}

// RateLimitConfig 令牌桶限流配置
type RateLimitConfig struct {
	// 是否启用
	Enabled bool `mapstructure:"enabled"`
	// 每秒补充的令牌数
	QPS int `mapstructure:"qps" default:"50"`
	// 桶容量（突发上限）
	Burst int `mapstructure:"burst" default:"100"`
}

// StreamConfig 实时推送配置
type StreamConfig struct {
	// 每个客户端的事件缓冲队列长度
	ClientQueueSize int `mapstructure:"client_queue_size" default:"256"`
	// WebSocket 心跳间隔（秒）
	PingInterval int `mapstructure:"ping_interval" default:"30"`
}

// AccountConfig 出入金配置
type AccountConfig struct {
	// 支付通道实现：mock 或 gateway
	Provider string `mapstructure:"provider" default:"mock"`
	// gateway 模式下的网关地址
	GatewayURL string `mapstructure:"gateway_url"`
}

// KYCConfig KYC 配置
type KYCConfig struct {
	// KYC 实现：mock 或 vendor
	Provider string `mapstructure:"provider" default:"mock"`
	// vendor 模式下的服务地址
	VendorURL string `mapstructure:"vendor_url"`
}

// MarketDataConfig 行情参考价配置
type MarketDataConfig struct {
	// 启动时预置的参考价（symbol -> price）
	Prices map[string]float64 `mapstructure:"prices"`
	// Redis 缓存 TTL（秒）
	CacheTTL int `mapstructure:"cache_ttl" default:"60"`
}

// Load 从 TOML 文件加载配置，支持环境变量覆盖
func Load(configPath string) (*Config, error) {
	v := viper.New()

	v.SetConfigFile(configPath)
	v.SetConfigType("toml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	v.SetEnvPrefix("APP")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// LoadWithDefaults 从 TOML 文件加载配置，文件缺失时回落到默认值
func LoadWithDefaults(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigFile(configPath)
	v.SetConfigType("toml")

	// 配置文件不存在时忽略，完全依赖默认值和环境变量
	_ = v.ReadInConfig()

	v.SetEnvPrefix("APP")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// Validate 验证配置的有效性
func (c *Config) Validate() error {
	if c.ServiceName == "" {
		return fmt.Errorf("service_name is required")
	}
	if c.Environment == "" {
		c.Environment = "dev"
	}
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTP.Port)
	}
	if c.GRPC.Port <= 0 || c.GRPC.Port > 65535 {
		return fmt.Errorf("invalid gRPC port: %d", c.GRPC.Port)
	}
	switch c.Database.Driver {
	case "memory":
	case "mysql":
		if c.Database.DSN == "" {
			return fmt.Errorf("database DSN is required for mysql driver")
		}
	default:
		return fmt.Errorf("unsupported database driver: %s", c.Database.Driver)
	}
	if c.Engine.QueueCapacity <= 0 {
		return fmt.Errorf("engine queue_capacity must be positive: %d", c.Engine.QueueCapacity)
	}
	if c.Engine.RejectProb < 0 || c.Engine.RejectProb > 1 {
		return fmt.Errorf("engine reject_prob out of range: %f", c.Engine.RejectProb)
	}
	if c.Engine.PartialProb < 0 || c.Engine.PartialProb > 1 {
		return fmt.Errorf("engine partial_prob out of range: %f", c.Engine.PartialProb)
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka brokers are required when kafka is enabled")
	}
	return nil
}

// setDefaults 设置默认值
func setDefaults(v *viper.Viper) {
	v.SetDefault("service_name", "oms")
	v.SetDefault("version", "0.1.0")
	v.SetDefault("environment", "dev")

	v.SetDefault("http.host", "0.0.0.0")
	v.SetDefault("http.port", 8080)
	v.SetDefault("http.read_timeout", 30)
	v.SetDefault("http.write_timeout", 30)

	v.SetDefault("grpc.host", "0.0.0.0")
	v.SetDefault("grpc.port", 50051)
	v.SetDefault("grpc.max_concurrent_streams", 1000)

	v.SetDefault("database.driver", "memory")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", 300)
	v.SetDefault("database.log_enabled", false)
	v.SetDefault("database.slow_query_threshold", 1000)

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.max_pool_size", 10)
	v.SetDefault("redis.conn_timeout", 5)
	v.SetDefault("redis.read_timeout", 3)
	v.SetDefault("redis.write_timeout", 3)

	v.SetDefault("kafka.enabled", false)
	v.SetDefault("kafka.order_events_topic", "oms.order.events")
	v.SetDefault("kafka.price_topic", "oms.market.prices")

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "json")
	v.SetDefault("logger.output", "stdout")
	v.SetDefault("logger.file_path", "logs/oms.log")
	v.SetDefault("logger.max_size", 100)
	v.SetDefault("logger.max_backups", 10)
	v.SetDefault("logger.max_age", 30)
	v.SetDefault("logger.compress", true)
	v.SetDefault("logger.with_caller", true)

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.port", 9090)
	v.SetDefault("metrics.path", "/metrics")

	v.SetDefault("rate_limit.enabled", false)
	v.SetDefault("rate_limit.qps", 50)
	v.SetDefault("rate_limit.burst", 100)

	v.SetDefault("engine.queue_capacity", 10000)
	v.SetDefault("engine.send_latency_ms", 200)
	v.SetDefault("engine.fill_latency_ms", 300)
	v.SetDefault("engine.cancel_latency_ms", 200)
	v.SetDefault("engine.reject_prob", 0.1)
	v.SetDefault("engine.partial_prob", 0.5)
	v.SetDefault("engine.seed", 0)

	v.SetDefault("stream.client_queue_size", 256)
	v.SetDefault("stream.ping_interval", 30)

	v.SetDefault("account.provider", "mock")
	v.SetDefault("kyc.provider", "mock")

	v.SetDefault("marketdata.cache_ttl", 60)
}

// GetEnv 获取环境变量，支持默认值
func GetEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
