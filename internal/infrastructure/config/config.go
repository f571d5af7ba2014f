package config

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/spf13/viper"

	sharedConfig "github.com/hrshiti/inplay-sub000/internal/shared/config"
)

type Config struct {
	Server    sharedConfig.ServerConfig    `mapstructure:"server"`
	Database  sharedConfig.DatabaseConfig  `mapstructure:"database"`
	Logger    sharedConfig.LoggerConfig    `mapstructure:"logger"`
	Auth      sharedConfig.AuthConfig      `mapstructure:"auth"`
	Redis     sharedConfig.RedisConfig     `mapstructure:"redis"`
	License   sharedConfig.LicenseConfig   `mapstructure:"license"`
	Streaming sharedConfig.StreamingConfig `mapstructure:"streaming"`
	Storage   sharedConfig.StorageConfig   `mapstructure:"storage"`
	Metrics   sharedConfig.MetricsConfig   `mapstructure:"metrics"`
	RateLimit sharedConfig.RateLimitConfig `mapstructure:"ratelimit"`
}

var (
	appConfig   *Config
	appConfigMu sync.RWMutex
)

// Load reads configs/config.yaml (when present) and INPLAY_* environment overrides.
func Load(env string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath("../configs")
	v.AddConfigPath("../../configs")

	v.SetEnvPrefix("INPLAY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if env != "" && env != "default" {
		v.Set("server.mode", env)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	appConfigMu.Lock()
	appConfig = &config
	appConfigMu.Unlock()

	return &config, nil
}

// Get returns the loaded configuration
func Get() *Config {
	appConfigMu.RLock()
	defer appConfigMu.RUnlock()
	return appConfig
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "debug")

	v.SetDefault("database.driver", "mysql")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 3306)
	v.SetDefault("database.username", "root")
	v.SetDefault("database.password", "password")
	v.SetDefault("database.database", "inplay_dev")
	v.SetDefault("database.max_idle_conns", 10)
	v.SetDefault("database.max_open_conns", 100)
	v.SetDefault("database.conn_max_lifetime", 60)
	v.SetDefault("database.auto_migrate", false)

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.output_path", "stdout")

	v.SetDefault("auth.jwt.secret", "change-me-in-production")
	v.SetDefault("auth.jwt.access_exp_minutes", 15)

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("license.download_expiry_days", 30)
	v.SetDefault("license.fetch_url_expiry_hours", 24)
	v.SetDefault("license.max_devices", 3)
	v.SetDefault("license.access_count_threshold", 1000)
	v.SetDefault("license.sweep_interval", "6h")
	v.SetDefault("license.sweep_batch_size", 500)
	v.SetDefault("license.sweep_lock_ttl", "10m")

	v.SetDefault("streaming.expiry_minutes", 60)
	v.SetDefault("streaming.local_base_url", "http://localhost:8080/media")

	v.SetDefault("storage.region", "us-east-1")
	v.SetDefault("storage.use_ssl", true)

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")

	v.SetDefault("ratelimit.validate_per_minute", 60)
	v.SetDefault("ratelimit.validate_per_hour", 600)
}
