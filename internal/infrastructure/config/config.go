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

// Config 應用配置
type Config struct {
	App            AppConfig          `mapstructure:"app"`
	Server         ServerConfig       `mapstructure:"server"`
	ContentStore   ContentStoreConfig `mapstructure:"content_store"`
	OpenRouter     OpenRouterConfig   `mapstructure:"openrouter"`
	Redis          RedisConfig        `mapstructure:"redis"`
	Quota          QuotaConfig        `mapstructure:"quota"`
	Lock           LockConfig         `mapstructure:"lock"`
	Auth           AuthConfig         `mapstructure:"auth"`
	Unsplash       UnsplashConfig     `mapstructure:"unsplash"`
	DedupWindow    time.Duration      `mapstructure:"dedup_window"`
	RequestTimeout time.Duration      `mapstructure:"request_timeout"`
	MaxBodySize    int64              `mapstructure:"max_body_size"`
	LogLevel       string             `mapstructure:"log_level"`
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
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
}

// ContentStoreConfig 內容庫（Strapi）設定
type ContentStoreConfig struct {
	BaseURL  string        `mapstructure:"base_url"`
	APIToken string        `mapstructure:"api_token"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// OpenRouterConfig OpenRouter 配置
type OpenRouterConfig struct {
	BaseURL     string        `mapstructure:"base_url"`
	APIKey      string        `mapstructure:"api_key"`
	Model       string        `mapstructure:"model"`
	MaxTokens   int           `mapstructure:"max_tokens"`
	Temperature float64       `mapstructure:"temperature"`
	Timeout     time.Duration `mapstructure:"timeout"`
	Referer     string        `mapstructure:"referer"`
	Title       string        `mapstructure:"title"`
}

// RedisConfig Redis 連線設定，未啟用時鎖與去重停用、配額服務不可用
type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// QuotaRule 單一配額規則
type QuotaRule struct {
	Name   string        `mapstructure:"name"`
	Limit  int64         `mapstructure:"limit"`
	Window time.Duration `mapstructure:"window"`
}

// QuotaConfig 依方案區分的配額規則
type QuotaConfig struct {
	Free QuotaRule `mapstructure:"free"`
	Pro  QuotaRule `mapstructure:"pro"`
}

// LockConfig 建議鎖設定
type LockConfig struct {
	Enabled       bool          `mapstructure:"enabled"`
	TTL           time.Duration `mapstructure:"ttl"`
	WaitTimeout   time.Duration `mapstructure:"wait_timeout"`
	RetryInterval time.Duration `mapstructure:"retry_interval"`
}

// AuthConfig 身分驗證設定
type AuthConfig struct {
	JWTSecret string `mapstructure:"jwt_secret"`
	Issuer    string `mapstructure:"issuer"`
}

// UnsplashConfig 食譜圖片搜尋設定
type UnsplashConfig struct {
	Enabled   bool          `mapstructure:"enabled"`
	BaseURL   string        `mapstructure:"base_url"`
	AccessKey string        `mapstructure:"access_key"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

// LoadConfig 載入設定
func LoadConfig() (*Config, error) {
	// 加載 .env 文件（不存在時忽略）
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
	bindings := map[string]string{
		"content_store.base_url":  "STRAPI_URL",
		"content_store.api_token": "STRAPI_API_TOKEN",
		"openrouter.api_key":      "OPENROUTER_API_KEY",
		"openrouter.model":        "OPENROUTER_MODEL",
		"openrouter.max_tokens":   "MODEL_MAX_TOKENS",
		"redis.enabled":           "REDIS_ENABLED",
		"redis.addr":              "REDIS_ADDR",
		"redis.password":          "REDIS_PASSWORD",
		"quota.free.limit":        "QUOTA_FREE_LIMIT",
		"quota.pro.limit":         "QUOTA_PRO_LIMIT",
		"lock.enabled":            "LOCK_ENABLED",
		"auth.jwt_secret":         "JWT_SECRET",
		"unsplash.enabled":        "UNSPLASH_ENABLED",
		"unsplash.access_key":     "UNSPLASH_ACCESS_KEY",
		"dedup_window":            "DEDUP_WINDOW",
		"log_level":               "LOG_LEVEL",
		"server.port":             "PORT",
	}
	for key, env := range bindings {
		if err := v.BindEnv(key, "APP_"+strings.ToUpper(strings.ReplaceAll(key, ".", "_")), env); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", env, err)
		}
	}

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

	// 驗證必要設定
	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &config, nil
}

// setDefaults 設定預設值
func setDefaults(v *viper.Viper) {
	// 應用程式設定
	v.SetDefault("app.env", "development")
	v.SetDefault("app.debug", true)
	v.SetDefault("app.version", "1.0.0")
	v.SetDefault("app.name", "pantry-chef")

	// 伺服器設定
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "150s")
	v.SetDefault("server.idle_timeout", "120s")

	// 內容庫設定
	v.SetDefault("content_store.base_url", "http://localhost:1337")
	v.SetDefault("content_store.timeout", "15s")

	// OpenRouter 設定
	v.SetDefault("openrouter.base_url", "https://openrouter.ai/api/v1")
	v.SetDefault("openrouter.model", "google/gemini-2.5-flash-lite")
	v.SetDefault("openrouter.max_tokens", 4000)
	v.SetDefault("openrouter.temperature", 0.7)
	v.SetDefault("openrouter.timeout", "60s")
	v.SetDefault("openrouter.title", "Pantry Chef")

	// Redis 設定
	v.SetDefault("redis.enabled", true)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.db", 0)

	// 配額設定
	v.SetDefault("quota.free.name", "free_meal_recommendations")
	v.SetDefault("quota.free.limit", 5)
	v.SetDefault("quota.free.window", "720h")
	v.SetDefault("quota.pro.name", "pro_tier")
	v.SetDefault("quota.pro.limit", 1000)
	v.SetDefault("quota.pro.window", "720h")

	// 建議鎖設定
	v.SetDefault("lock.enabled", true)
	v.SetDefault("lock.ttl", "90s")
	v.SetDefault("lock.wait_timeout", "30s")
	v.SetDefault("lock.retry_interval", "200ms")

	// 圖片搜尋設定
	v.SetDefault("unsplash.enabled", false)
	v.SetDefault("unsplash.base_url", "https://api.unsplash.com")
	v.SetDefault("unsplash.timeout", "5s")

	v.SetDefault("dedup_window", "1s")
	v.SetDefault("request_timeout", "120s")
	v.SetDefault("max_body_size", 1<<20) // 1MB
	v.SetDefault("log_level", "info")
}

// validateConfig 驗證設定
func validateConfig(config *Config) error {
	// 驗證伺服器設定
	if config.Server.Port == 0 {
		return fmt.Errorf("server port is required")
	}
	if config.ContentStore.BaseURL == "" {
		return fmt.Errorf("content store base url is required")
	}
	if config.OpenRouter.APIKey == "" {
		return fmt.Errorf("openrouter api key is required")
	}
	if config.Auth.JWTSecret == "" {
		return fmt.Errorf("jwt secret is required")
	}

	// 驗證配額設定
	for _, rule := range []QuotaRule{config.Quota.Free, config.Quota.Pro} {
		if rule.Limit <= 0 || rule.Window <= 0 {
			return fmt.Errorf("invalid quota rule %q", rule.Name)
		}
	}

	// 驗證建議鎖設定
	if config.Lock.Enabled {
		if config.Lock.TTL <= 0 || config.Lock.WaitTimeout <= 0 || config.Lock.RetryInterval <= 0 {
			return fmt.Errorf("invalid lock timings")
		}
	}

	if config.Unsplash.Enabled && config.Unsplash.AccessKey == "" {
		return fmt.Errorf("unsplash access key is required when unsplash is enabled")
	}

	return nil
}
