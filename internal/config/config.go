package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/storefront-next/internal/logger"

	"github.com/spf13/viper"
)

// Config 应用配置结构
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Log      LogConfig      `mapstructure:"log"`
	Gateway  GatewayConfig  `mapstructure:"gateway"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Session  SessionConfig  `mapstructure:"session"`
	Queue    QueueConfig    `mapstructure:"queue"`
	Browse   BrowseConfig   `mapstructure:"browse"`
	Checkout CheckoutConfig `mapstructure:"checkout"`
	CORS     CORSConfig     `mapstructure:"cors"`
	Security SecurityConfig `mapstructure:"security"`
	Platform PlatformConfig `mapstructure:"platform"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port string `mapstructure:"port"`
	Mode string `mapstructure:"mode"` // debug / release
}

// LogConfig 日志配置
type LogConfig struct {
	Dir        string `mapstructure:"dir"`
	Filename   string `mapstructure:"filename"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
}

// ToLoggerOptions 转换为 logger 配置
func (c LogConfig) ToLoggerOptions() logger.Options {
	return logger.Options{
		Dir:        c.Dir,
		Filename:   c.Filename,
		MaxSizeMB:  c.MaxSizeMB,
		MaxBackups: c.MaxBackups,
		MaxAgeDays: c.MaxAgeDays,
		Compress:   c.Compress,
	}
}

// GatewayConfig 订单平台网关配置
type GatewayConfig struct {
	BaseURL        string            `mapstructure:"base_url"`
	TimeoutSeconds int               `mapstructure:"timeout_seconds"`
	PricebookID    string            `mapstructure:"pricebook_id"`
	Auth           GatewayAuthConfig `mapstructure:"auth"`
}

// Timeout 网关单次调用超时
func (c GatewayConfig) Timeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return 15 * time.Second
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// GatewayAuthConfig 网关认证配置（JWT bearer 断言换取访问令牌）
type GatewayAuthConfig struct {
	Mode            string `mapstructure:"mode"` // none / jwt_bearer
	TokenURL        string `mapstructure:"token_url"`
	ClientID        string `mapstructure:"client_id"`
	Subject         string `mapstructure:"subject"`
	Audience        string `mapstructure:"audience"`
	PrivateKeyPath  string `mapstructure:"private_key_path"`
	AssertionTTLSec int    `mapstructure:"assertion_ttl_seconds"`
}

// RedisConfig Redis 配置
type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Prefix   string `mapstructure:"prefix"`
}

// SessionConfig 浏览会话配置
type SessionConfig struct {
	Header     string `mapstructure:"header"`
	TTLMinutes int    `mapstructure:"ttl_minutes"`
}

// TTL 会话状态保留时长
func (c SessionConfig) TTL() time.Duration {
	if c.TTLMinutes <= 0 {
		return 2 * time.Hour
	}
	return time.Duration(c.TTLMinutes) * time.Minute
}

// QueueConfig 异步队列配置
type QueueConfig struct {
	Enabled     bool           `mapstructure:"enabled"`
	Host        string         `mapstructure:"host"`
	Port        int            `mapstructure:"port"`
	Password    string         `mapstructure:"password"`
	DB          int            `mapstructure:"db"`
	Concurrency int            `mapstructure:"concurrency"`
	Queues      map[string]int `mapstructure:"queues"`
}

// BrowseConfig 商品浏览配置
type BrowseConfig struct {
	DefaultPageSize    int `mapstructure:"default_page_size"`
	MaxPageSize        int `mapstructure:"max_page_size"`
	FamilyCacheSeconds int `mapstructure:"family_cache_seconds"`
}

// CheckoutConfig 结算配置
type CheckoutConfig struct {
	DocumentEnabled bool `mapstructure:"document_enabled"`
}

// CORSConfig 跨域配置
type CORSConfig struct {
	AllowedOrigins   []string `mapstructure:"allowed_origins"`
	AllowedMethods   []string `mapstructure:"allowed_methods"`
	AllowedHeaders   []string `mapstructure:"allowed_headers"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
	MaxAge           int      `mapstructure:"max_age"`
}

// SecurityConfig 安全配置
type SecurityConfig struct {
	OrderRateLimit OrderRateLimitConfig `mapstructure:"order_rate_limit"`
}

// OrderRateLimitConfig 下单限流配置
type OrderRateLimitConfig struct {
	WindowSeconds int `mapstructure:"window_seconds"`
	MaxRequests   int `mapstructure:"max_requests"`
}

// DatabasePoolConfig 数据库连接池配置
type DatabasePoolConfig struct {
	MaxOpenConns           int `mapstructure:"max_open_conns"`
	MaxIdleConns           int `mapstructure:"max_idle_conns"`
	ConnMaxLifetimeSeconds int `mapstructure:"conn_max_lifetime_seconds"`
	ConnMaxIdleTimeSeconds int `mapstructure:"conn_max_idle_time_seconds"`
}

// PlatformConfig 本地订单平台模拟器配置（cmd/stubgateway）
type PlatformConfig struct {
	Driver string             `mapstructure:"driver"` // 数据库驱动（sqlite/postgres）
	DSN    string             `mapstructure:"dsn"`    // 数据库连接串
	Seed   bool               `mapstructure:"seed"`   // 启动时写入演示数据
	Pool   DatabasePoolConfig `mapstructure:"pool"`
}

// Load 从 config.yml 加载配置
func Load() *Config {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")     // 从当前目录查找
	viper.AddConfigPath("../")   // 如果从 cmd/server 运行
	viper.AddConfigPath("./etc") // etc 文件夹

	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", "8080")
	viper.SetDefault("server.mode", "debug")
	viper.SetDefault("log.dir", "")
	viper.SetDefault("log.filename", "storefront.log")
	viper.SetDefault("log.max_size_mb", 100)
	viper.SetDefault("log.max_backups", 7)
	viper.SetDefault("log.max_age_days", 30)
	viper.SetDefault("log.compress", true)
	viper.SetDefault("gateway.base_url", "http://127.0.0.1:8090")
	viper.SetDefault("gateway.timeout_seconds", 15)
	viper.SetDefault("gateway.pricebook_id", "")
	viper.SetDefault("gateway.auth.mode", "none")
	viper.SetDefault("gateway.auth.token_url", "")
	viper.SetDefault("gateway.auth.client_id", "")
	viper.SetDefault("gateway.auth.subject", "")
	viper.SetDefault("gateway.auth.audience", "")
	viper.SetDefault("gateway.auth.private_key_path", "")
	viper.SetDefault("gateway.auth.assertion_ttl_seconds", 180)
	viper.SetDefault("redis.enabled", false)
	viper.SetDefault("redis.host", "127.0.0.1")
	viper.SetDefault("redis.port", 6379)
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.db", 0)
	viper.SetDefault("redis.prefix", "sf")
	viper.SetDefault("session.header", "X-Session-ID")
	viper.SetDefault("session.ttl_minutes", 120)
	viper.SetDefault("queue.enabled", true)
	viper.SetDefault("queue.host", "127.0.0.1")
	viper.SetDefault("queue.port", 6379)
	viper.SetDefault("queue.password", "")
	viper.SetDefault("queue.db", 1)
	viper.SetDefault("queue.concurrency", 10)
	viper.SetDefault("queue.queues", map[string]int{
		"default":  10,
		"critical": 5,
	})
	viper.SetDefault("browse.default_page_size", 12)
	viper.SetDefault("browse.max_page_size", 100)
	viper.SetDefault("browse.family_cache_seconds", 60)
	viper.SetDefault("checkout.document_enabled", true)
	viper.SetDefault("cors.allowed_origins", []string{"*"})
	viper.SetDefault("cors.allowed_methods", []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"})
	viper.SetDefault("cors.allowed_headers", []string{
		"Content-Type",
		"Content-Length",
		"Accept-Encoding",
		"Authorization",
		"Cache-Control",
		"X-Requested-With",
		"X-Session-ID",
	})
	viper.SetDefault("cors.allow_credentials", true)
	viper.SetDefault("cors.max_age", 600)
	viper.SetDefault("security.order_rate_limit.window_seconds", 60)
	viper.SetDefault("security.order_rate_limit.max_requests", 10)
	viper.SetDefault("platform.driver", "sqlite")
	viper.SetDefault("platform.dsn", "./db/platform.db")
	viper.SetDefault("platform.seed", true)
	viper.SetDefault("platform.pool.max_open_conns", 1)
	viper.SetDefault("platform.pool.max_idle_conns", 1)
	viper.SetDefault("platform.pool.conn_max_lifetime_seconds", 0)
	viper.SetDefault("platform.pool.conn_max_idle_time_seconds", 0)

	// 环境变量支持
	viper.AutomaticEnv()                                   // 自动读取环境变量
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_")) // server.port -> SERVER_PORT

	if err := viper.ReadInConfig(); err != nil {
		logger.Warnw("config_file_read_failed",
			"error", err,
			"fallback", "env_or_defaults",
		)
	} else {
		logger.Infow("config_file_loaded", "file", viper.ConfigFileUsed())
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		logger.Errorw("config_unmarshal_failed", "error", err)
		panic(fmt.Errorf("配置解析失败: %w", err))
	}

	return &cfg
}
