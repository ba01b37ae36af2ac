package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Redis      RedisConfig      `mapstructure:"redis"`
	JWT        JWTConfig        `mapstructure:"jwt"`
	Email      EmailConfig      `mapstructure:"email"`
	Queue      QueueConfig      `mapstructure:"queue"`
	CORS       CORSConfig       `mapstructure:"cors"`
	Lifecycle  LifecycleConfig  `mapstructure:"lifecycle"`
	Membership MembershipConfig `mapstructure:"membership"`
	Payment    PaymentConfig    `mapstructure:"payment"`
	OSS        OSSConfig        `mapstructure:"oss"`
}

type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
	Mode string `mapstructure:"mode"`
}

type DatabaseConfig struct {
	Driver       string `mapstructure:"driver"` // mysql, postgres, sqlite
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	Username     string `mapstructure:"username"`
	Password     string `mapstructure:"password"`
	Database     string `mapstructure:"database"`
	SSLMode      string `mapstructure:"ssl_mode"`
	MaxIdleConns int    `mapstructure:"max_idle_conns"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	PoolSize int    `mapstructure:"pool_size"`
}

// Enabled redis 为可选依赖，未配置 host 时通知同步发送且不加分布式锁
func (c RedisConfig) Enabled() bool {
	return c.Host != ""
}

type JWTConfig struct {
	Secret      string `mapstructure:"secret"`
	ExpireHours int    `mapstructure:"expire_hours"`
}

type EmailConfig struct {
	SMTPHost string `mapstructure:"smtp_host"`
	SMTPPort int    `mapstructure:"smtp_port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"`
	FromName string `mapstructure:"from_name"`
}

type QueueConfig struct {
	NotificationQueue string `mapstructure:"notification_queue"`
	MaxWorkers        int    `mapstructure:"max_workers"`
	MaxAttempts       int    `mapstructure:"max_attempts"` // 发送失败后重新入队的次数上限
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	AllowedMethods []string `mapstructure:"allowed_methods"`
	AllowedHeaders []string `mapstructure:"allowed_headers"`
}

type LifecycleConfig struct {
	SweepSchedule      string        `mapstructure:"sweep_schedule"`       // cron 表达式，默认每天 00:00
	ReminderWindowDays int           `mapstructure:"reminder_window_days"` // 到期提醒窗口（天）
	ExpiringWindowDays int           `mapstructure:"expiring_window_days"` // 管理端即将到期列表默认窗口（天）
	NotifyTimeout      time.Duration `mapstructure:"notify_timeout"`
	SweepLockTTL       time.Duration `mapstructure:"sweep_lock_ttl"`
}

type MembershipConfig struct {
	AdminEmail   string                 `mapstructure:"admin_email"`
	Pricing      map[string]TierPricing `mapstructure:"pricing"`
	BankAccounts []BankAccount          `mapstructure:"bank_accounts"`
}

type TierPricing struct {
	DisplayName   string  `mapstructure:"display_name" json:"display_name"`
	Price         float64 `mapstructure:"price" json:"price"`
	DurationMonth int     `mapstructure:"duration_months" json:"duration_months"`
}

type BankAccount struct {
	BankName string `mapstructure:"bank_name" json:"bank_name"`
	Holder   string `mapstructure:"holder" json:"holder"`
	IBAN     string `mapstructure:"iban" json:"iban"`
}

type PaymentConfig struct {
	ServerKey  string `mapstructure:"server_key"`
	Production bool   `mapstructure:"production"`
}

type OSSConfig struct {
	Endpoint        string `mapstructure:"endpoint"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	AccessKeySecret string `mapstructure:"access_key_secret"`
	BucketName      string `mapstructure:"bucket_name"`
}

// Enabled 是否配置了 OSS
func (c OSSConfig) Enabled() bool {
	return c.Endpoint != "" && c.AccessKeyID != ""
}

func Load(configPath string) (*Config, error) {
	// .env 中的变量先进入进程环境，再由 viper.AutomaticEnv 覆盖 yaml
	_ = godotenv.Load()

	// 优先尝试读取 config.local.yaml（包含真实密钥，不提交到git）
	dir := filepath.Dir(configPath)
	localConfigPath := filepath.Join(dir, "config.local.yaml")

	if _, err := os.Stat(localConfigPath); err == nil {
		configPath = localConfigPath
	}

	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")

	// 环境变量覆盖
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 5000)
	v.SetDefault("server.mode", "debug")
	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.max_idle_conns", 10)
	v.SetDefault("database.max_open_conns", 50)
	v.SetDefault("jwt.expire_hours", 24)
	v.SetDefault("email.smtp_port", 587)
	v.SetDefault("email.from_name", "Members")
	v.SetDefault("queue.notification_queue", "member_notifications")
	v.SetDefault("queue.max_workers", 2)
	v.SetDefault("queue.max_attempts", 3)
	v.SetDefault("lifecycle.sweep_schedule", "0 0 * * *")
	v.SetDefault("lifecycle.reminder_window_days", 10)
	v.SetDefault("lifecycle.expiring_window_days", 30)
	v.SetDefault("lifecycle.notify_timeout", 10*time.Second)
	v.SetDefault("lifecycle.sweep_lock_ttl", 30*time.Minute)
}
