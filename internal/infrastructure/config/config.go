package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// 支援的儲存後端
const (
	DriverFile     = "file"
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverRedis    = "redis"
	DriverS3       = "s3"
)

// Config 應用配置
type Config struct {
	App         AppConfig       `mapstructure:"app"`
	Server      ServerConfig    `mapstructure:"server"`
	Storage     StorageConfig   `mapstructure:"storage"`
	Cache       CacheConfig     `mapstructure:"cache"`
	RateLimit   RateLimitConfig `mapstructure:"rate_limit"`
	Metrics     MetricsConfig   `mapstructure:"metrics"`
	DedupWindow time.Duration   `mapstructure:"dedup_window"`
	LogLevel    string          `mapstructure:"log_level"`
	LogDir      string          `mapstructure:"log_dir"`
}

// AppConfig 應用程式設定
type AppConfig struct {
	Env     string `mapstructure:"env"`
	Debug   bool   `mapstructure:"debug"`
	Version string `mapstructure:"version"`
	Name    string `mapstructure:"name"`
}

// ServerConfig 服務器配置
type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	MaxBodyBytes    int64         `mapstructure:"max_body_bytes"`
}

// StorageConfig 食譜集合的儲存設定
type StorageConfig struct {
	Driver      string         `mapstructure:"driver"`
	SeedSamples bool           `mapstructure:"seed_samples"`
	Timeout     time.Duration  `mapstructure:"timeout"`
	File        FileConfig     `mapstructure:"file"`
	SQLite      SQLiteConfig   `mapstructure:"sqlite"`
	Postgres    PostgresConfig `mapstructure:"postgres"`
	Redis       RedisConfig    `mapstructure:"redis"`
	S3          S3Config       `mapstructure:"s3"`
}

// FileConfig JSON 檔案後端
type FileConfig struct {
	Path string `mapstructure:"path"`
}

// SQLiteConfig SQLite 後端
type SQLiteConfig struct {
	Path string `mapstructure:"path"`
}

// PostgresConfig Postgres 後端
type PostgresConfig struct {
	DSN string `mapstructure:"dsn"`
}

// RedisConfig Redis 後端
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Key      string `mapstructure:"key"`
}

// S3Config S3 或 MinIO 後端
type S3Config struct {
	Bucket          string `mapstructure:"bucket"`
	Key             string `mapstructure:"key"`
	Region          string `mapstructure:"region"`
	Endpoint        string `mapstructure:"endpoint"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	PathStyle       bool   `mapstructure:"path_style"`
}

// CacheConfig 搜尋結果快取配置
type CacheConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	MaxSize         int           `mapstructure:"max_size"`
	TTL             time.Duration `mapstructure:"ttl"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
}

// RateLimitConfig 速率限制配置
type RateLimitConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Requests int           `mapstructure:"requests"`
	Window   time.Duration `mapstructure:"window"`
}

// MetricsConfig Prometheus 指標
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// LoadConfig 載入設定
func LoadConfig() (*Config, error) {
	// .env 不存在時只使用環境變數與預設值
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	v := viper.New()

	// 設定預設值
	setDefaults(v)

	// 設定環境變數前綴
	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// 綁定環境變量
	bindEnv(v, "server.port", "PORT")
	bindEnv(v, "storage.driver", "STORAGE_DRIVER")
	bindEnv(v, "storage.seed_samples", "SEED_SAMPLES")
	bindEnv(v, "storage.file.path", "RECIPES_FILE")
	bindEnv(v, "storage.sqlite.path", "SQLITE_PATH")
	bindEnv(v, "storage.postgres.dsn", "DATABASE_URL")
	bindEnv(v, "storage.redis.addr", "REDIS_ADDR")
	bindEnv(v, "storage.redis.password", "REDIS_PASSWORD")
	bindEnv(v, "storage.redis.db", "REDIS_DB")
	bindEnv(v, "storage.s3.bucket", "S3_BUCKET")
	bindEnv(v, "storage.s3.region", "S3_REGION", "AWS_REGION")
	bindEnv(v, "storage.s3.endpoint", "S3_ENDPOINT")
	bindEnv(v, "storage.s3.access_key_id", "AWS_ACCESS_KEY_ID")
	bindEnv(v, "storage.s3.secret_access_key", "AWS_SECRET_ACCESS_KEY")
	bindEnv(v, "storage.s3.path_style", "S3_PATH_STYLE")
	bindEnv(v, "cache.enabled", "CACHE_ENABLED")
	bindEnv(v, "rate_limit.enabled", "RATE_LIMIT_ENABLED")
	bindEnv(v, "rate_limit.requests", "RATE_LIMIT_REQUESTS")
	bindEnv(v, "rate_limit.window", "RATE_LIMIT_WINDOW")
	bindEnv(v, "metrics.enabled", "METRICS_ENABLED")
	bindEnv(v, "dedup_window", "DEDUP_WINDOW")
	bindEnv(v, "log_level", "LOG_LEVEL")

	// 設定設定檔名稱和路徑
	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")

	// 讀取設定檔
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// 解析設定
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	config.Storage.Driver = strings.ToLower(strings.TrimSpace(config.Storage.Driver))

	// 驗證必要設定
	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &config, nil
}

// bindEnv 綁定設定鍵與環境變數，同時保留 APP_ 前綴的名稱
func bindEnv(v *viper.Viper, key string, envs ...string) {
	prefixed := "APP_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
	_ = v.BindEnv(append([]string{key, prefixed}, envs...)...)
}

// setDefaults 設定預設值
func setDefaults(v *viper.Viper) {
	// 應用程式設定
	v.SetDefault("app.env", "development")
	v.SetDefault("app.debug", true)
	v.SetDefault("app.version", "1.0.0")
	v.SetDefault("app.name", "recipe-manager")

	// 伺服器設定
	v.SetDefault("server.port", 5000)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.idle_timeout", "120s")
	v.SetDefault("server.request_timeout", "30s")
	v.SetDefault("server.shutdown_timeout", "5s")
	v.SetDefault("server.max_body_bytes", 1<<20) // 1MB

	// 儲存設定
	v.SetDefault("storage.driver", DriverFile)
	v.SetDefault("storage.seed_samples", true)
	v.SetDefault("storage.timeout", "5s")
	v.SetDefault("storage.file.path", "recipes.json")
	v.SetDefault("storage.sqlite.path", "recipes.db")
	v.SetDefault("storage.postgres.dsn", "")
	v.SetDefault("storage.redis.addr", "localhost:6379")
	v.SetDefault("storage.redis.password", "")
	v.SetDefault("storage.redis.db", 0)
	v.SetDefault("storage.redis.key", "recipes:collection")
	v.SetDefault("storage.s3.bucket", "")
	v.SetDefault("storage.s3.key", "recipes.json")
	v.SetDefault("storage.s3.region", "us-east-1")
	v.SetDefault("storage.s3.endpoint", "")
	v.SetDefault("storage.s3.access_key_id", "")
	v.SetDefault("storage.s3.secret_access_key", "")
	v.SetDefault("storage.s3.path_style", false)

	// 快取設定
	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.max_size", 256)
	v.SetDefault("cache.ttl", "5m")
	v.SetDefault("cache.cleanup_interval", "1m")

	// 限流設定
	v.SetDefault("rate_limit.enabled", false)
	v.SetDefault("rate_limit.requests", 100)
	v.SetDefault("rate_limit.window", "1m")

	// 指標
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")

	v.SetDefault("dedup_window", "0s")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_dir", "logs")
}

// validateConfig 驗證設定
func validateConfig(config *Config) error {
	// 驗證伺服器設定
	if config.Server.Port <= 0 || config.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", config.Server.Port)
	}
	if config.Server.MaxBodyBytes <= 0 {
		return fmt.Errorf("invalid server max body bytes")
	}

	// 驗證儲存設定
	switch config.Storage.Driver {
	case DriverFile:
		if config.Storage.File.Path == "" {
			return fmt.Errorf("storage file path is required")
		}
	case DriverMemory:
	case DriverSQLite:
		if config.Storage.SQLite.Path == "" {
			return fmt.Errorf("storage sqlite path is required")
		}
	case DriverPostgres:
		if config.Storage.Postgres.DSN == "" {
			return fmt.Errorf("storage postgres dsn is required")
		}
	case DriverRedis:
		if config.Storage.Redis.Addr == "" || config.Storage.Redis.Key == "" {
			return fmt.Errorf("storage redis addr and key are required")
		}
	case DriverS3:
		if config.Storage.S3.Bucket == "" || config.Storage.S3.Key == "" {
			return fmt.Errorf("storage s3 bucket and key are required")
		}
	default:
		return fmt.Errorf("unknown storage driver %q", config.Storage.Driver)
	}
	if config.Storage.Timeout <= 0 {
		return fmt.Errorf("invalid storage timeout")
	}

	// 驗證快取設定
	if config.Cache.Enabled {
		if config.Cache.MaxSize <= 0 {
			return fmt.Errorf("invalid cache max size")
		}
		if config.Cache.TTL <= 0 {
			return fmt.Errorf("invalid cache ttl")
		}
		if config.Cache.CleanupInterval <= 0 {
			return fmt.Errorf("invalid cache cleanup interval")
		}
	}

	// 驗證限流設定
	if config.RateLimit.Enabled {
		if config.RateLimit.Requests <= 0 || config.RateLimit.Window <= 0 {
			return fmt.Errorf("invalid rate limit settings")
		}
	}

	if config.Metrics.Enabled && !strings.HasPrefix(config.Metrics.Path, "/") {
		return fmt.Errorf("metrics path must start with /")
	}

	return nil
}
