package config

import (
	"fmt"
	"time"
)

type ServerConfig struct {
	Host           string   `mapstructure:"host"`
	Port           int      `mapstructure:"port"`
	Mode           string   `mapstructure:"mode"`
	BaseURL        string   `mapstructure:"base_url"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

func (s *ServerConfig) GetAddr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

const (
	DriverMySQL  = "mysql"
	DriverSQLite = "sqlite"
)

type DatabaseConfig struct {
	// Driver selects the gorm dialector: DriverMySQL or DriverSQLite.
	Driver          string `mapstructure:"driver"`
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	Username        string `mapstructure:"username"`
	Password        string `mapstructure:"password"`
	Database        string `mapstructure:"database"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"`
	AutoMigrate     bool   `mapstructure:"auto_migrate"`
}

func (d *DatabaseConfig) GetDSN() string {
	if d.Driver == DriverSQLite {
		return d.Database
	}
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&collation=utf8mb4_general_ci&parseTime=true&loc=UTC",
		d.Username, d.Password, d.Host, d.Port, d.Database)
}

type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	OutputPath string `mapstructure:"output_path"`
}

type JWTConfig struct {
	Secret           string `mapstructure:"secret"`
	AccessExpMinutes int    `mapstructure:"access_exp_minutes"`
}

type AuthConfig struct {
	JWT JWTConfig `mapstructure:"jwt"`
}

type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

func (r *RedisConfig) GetAddr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// LicenseConfig holds download license policy.
type LicenseConfig struct {
	DownloadExpiryDays   int           `mapstructure:"download_expiry_days"`
	FetchURLExpiryHours  int           `mapstructure:"fetch_url_expiry_hours"`
	MaxDevices           int           `mapstructure:"max_devices"`
	AccessCountThreshold int64         `mapstructure:"access_count_threshold"`
	SweepInterval        time.Duration `mapstructure:"sweep_interval"`
	SweepBatchSize       int           `mapstructure:"sweep_batch_size"`
	SweepLockTTL         time.Duration `mapstructure:"sweep_lock_ttl"`
}

func (l *LicenseConfig) DownloadExpiry() time.Duration {
	return time.Duration(l.DownloadExpiryDays) * 24 * time.Hour
}

func (l *LicenseConfig) FetchURLExpiry() time.Duration {
	return time.Duration(l.FetchURLExpiryHours) * time.Hour
}

type StreamingConfig struct {
	ExpiryMinutes int    `mapstructure:"expiry_minutes"`
	LocalBaseURL  string `mapstructure:"local_base_url"`
}

func (s *StreamingConfig) Expiry() time.Duration {
	return time.Duration(s.ExpiryMinutes) * time.Minute
}

// StorageConfig describes the S3-compatible bucket holding remote assets.
type StorageConfig struct {
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Bucket    string `mapstructure:"bucket"`
	Region    string `mapstructure:"region"`
	UseSSL    bool   `mapstructure:"use_ssl"`
}

func (s *StorageConfig) Configured() bool {
	return s.Endpoint != "" && s.Bucket != ""
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// RateLimitConfig bounds anonymous license validation per client IP.
// Applied only when Redis is enabled.
type RateLimitConfig struct {
	ValidatePerMinute int `mapstructure:"validate_per_minute"`
	ValidatePerHour   int `mapstructure:"validate_per_hour"`
}
