package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config 全局配置结构体（完全匹配config.yaml）
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`     // 服务器配置
	Database   DatabaseConfig   `mapstructure:"database"`   // PostgreSQL配置
	Settlement SettlementConfig `mapstructure:"settlement"` // 结算配置
	Prediction PredictionConfig `mapstructure:"prediction"` // 竞猜配置
	Notify     NotifyConfig     `mapstructure:"notify"`     // 通知配置
	Log        LogConfig        `mapstructure:"log"`        // 日志配置
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Port int    `mapstructure:"port"` // 服务端口
	Mode string `mapstructure:"mode"` // Gin运行模式：debug/release/test
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	DSN             string        `mapstructure:"dsn"`               // 连接DSN
	MaxOpenConns    int           `mapstructure:"max_open_conns"`    // 最大打开连接数
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`    // 最大空闲连接数
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"` // 连接最大存活时间
	LogLevel        string        `mapstructure:"log_level"`         // GORM日志级别：silent/error/warn/info
}

// SettlementConfig 结算事务与补偿任务配置
type SettlementConfig struct {
	Timeout     time.Duration `mapstructure:"timeout"`      // 单次结算事务超时，超时整体回滚
	HookTimeout time.Duration `mapstructure:"hook_timeout"` // 提交后钩子（通知、成就）整体超时
	SweepCron   string        `mapstructure:"sweep_cron"`   // 补偿扫描Cron表达式
	SweepLimit  int           `mapstructure:"sweep_limit"`  // 每轮最多补偿的比赛数
}

// PredictionConfig 竞猜配置
type PredictionConfig struct {
	PickLimit int `mapstructure:"pick_limit"` // 每组每人最多有效选择数
}

// NotifyConfig 通知分发配置
type NotifyConfig struct {
	Driver  string        `mapstructure:"driver"` // log/webhook/redis
	Webhook WebhookConfig `mapstructure:"webhook"`
	Redis   RedisConfig   `mapstructure:"redis"`
}

// WebhookConfig 推送网关配置
type WebhookConfig struct {
	BaseURL   string `mapstructure:"base_url"`   // 推送网关地址
	Timeout   int    `mapstructure:"timeout"`    // 请求超时（秒）
	Proxy     string `mapstructure:"proxy"`      // 代理地址
	AuthToken string `mapstructure:"auth_token"` // 网关认证Token
}

// RedisConfig Redis 发布订阅配置
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Channel  string `mapstructure:"channel"` // 通知发布频道
}

// LogConfig 日志配置
type LogConfig struct {
	Level string `mapstructure:"level"`
}

// LoadConfig 加载配置文件（config/config.yaml），敏感项从 .env 覆盖（不提交 git）
func LoadConfig() (*Config, error) {
	return LoadConfigFrom("./config")
}

// LoadConfigFrom 从指定目录加载 config.yaml
func LoadConfigFrom(dir string) (*Config, error) {
	// 1. 加载 .env（若存在），env 中的值会覆盖 config.yaml 中同名字段
	_ = godotenv.Load() // 忽略错误（.env 可不存在）

	// 2. 读取 config.yaml
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(dir)
	setDefaults(v)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("读取配置文件失败: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("解析配置文件失败: %w", err)
	}

	// 3. 敏感字段：用 env 覆盖（优先级 env > yaml）
	overrideFromEnv(&cfg)
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "release")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 25)
	v.SetDefault("database.conn_max_lifetime", 5*time.Minute)
	v.SetDefault("database.log_level", "warn")
	v.SetDefault("settlement.timeout", 15*time.Second)
	v.SetDefault("settlement.hook_timeout", time.Minute)
	v.SetDefault("settlement.sweep_cron", "*/5 * * * *")
	v.SetDefault("settlement.sweep_limit", 50)
	v.SetDefault("prediction.pick_limit", 5)
	v.SetDefault("notify.driver", "log")
	v.SetDefault("notify.webhook.timeout", 5)
	v.SetDefault("notify.redis.channel", "league:notifications")
	v.SetDefault("log.level", "info")
}

// overrideFromEnv 用环境变量覆盖敏感配置
func overrideFromEnv(cfg *Config) {
	if v := os.Getenv("DATABASE_DSN"); v != "" {
		cfg.Database.DSN = v
	}
	if v := os.Getenv("NOTIFY_WEBHOOK_TOKEN"); v != "" {
		cfg.Notify.Webhook.AuthToken = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.Notify.Redis.Password = v
	}
	if v := os.Getenv("SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
}

func (c *Config) validate() error {
	if c.Database.DSN == "" {
		return fmt.Errorf("database.dsn 未配置（可通过 DATABASE_DSN 设置）")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port 必须在 1-65535 之间，当前 %d", c.Server.Port)
	}
	if c.Settlement.Timeout <= 0 {
		return fmt.Errorf("settlement.timeout 必须大于 0")
	}
	if c.Settlement.HookTimeout <= 0 {
		return fmt.Errorf("settlement.hook_timeout 必须大于 0")
	}
	switch c.Notify.Driver {
	case "log", "webhook", "redis":
	default:
		return fmt.Errorf("未支持的 notify.driver: %s", c.Notify.Driver)
	}
	return nil
}
