package config

import (
	"fmt"
	"time"
)

type ServerConfig struct {
	Host           string   `mapstructure:"host"`
	Port           int      `mapstructure:"port"`
	Mode           string   `mapstructure:"mode"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

func (s *ServerConfig) GetAddr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// DatabaseConfig selects the gorm dialector. Driver is one of mysql,
// postgres or sqlite; for sqlite, Database is the file path.
type DatabaseConfig struct {
	Driver          string `mapstructure:"driver"`
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	Username        string `mapstructure:"username"`
	Password        string `mapstructure:"password"`
	Database        string `mapstructure:"database"`
	SSLMode         string `mapstructure:"ssl_mode"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"`
}

func (d *DatabaseConfig) GetDSN() string {
	switch d.Driver {
	case "postgres":
		return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s TimeZone=UTC",
			d.Host, d.Port, d.Username, d.Password, d.Database, d.SSLMode)
	case "sqlite":
		return d.Database
	default:
		return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
			d.Username, d.Password, d.Host, d.Port, d.Database)
	}
}

type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	OutputPath string `mapstructure:"output_path"`
	SourceAll  bool   `mapstructure:"source_all"`
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

// StorageConfig configures the object store holding photo bytes. Driver is
// s3 (any S3-compatible endpoint) or memory.
type StorageConfig struct {
	Driver       string        `mapstructure:"driver"`
	Endpoint     string        `mapstructure:"endpoint"`
	Region       string        `mapstructure:"region"`
	Bucket       string        `mapstructure:"bucket"`
	AccessKey    string        `mapstructure:"access_key"`
	SecretKey    string        `mapstructure:"secret_key"`
	UseSSL       bool          `mapstructure:"use_ssl"`
	UsePathStyle bool          `mapstructure:"use_path_style"`
	Timeout      time.Duration `mapstructure:"timeout"`
}

// QuotaConfig tunes the owner critical section and upload validation.
type QuotaConfig struct {
	LockWaitTimeout time.Duration `mapstructure:"lock_wait_timeout"`
	MaxRetries      int           `mapstructure:"max_retries"`
	RetryBaseDelay  time.Duration `mapstructure:"retry_base_delay"`
	RetryMaxDelay   time.Duration `mapstructure:"retry_max_delay"`
	MaxUploadBytes  int64         `mapstructure:"max_upload_bytes"`
	CleanupTimeout  time.Duration `mapstructure:"cleanup_timeout"`
	StatusCacheTTL  time.Duration `mapstructure:"status_cache_ttl"`
}

// BillingConfig feeds the plan source: the plan given to new owners and
// per-owner assignments coming from the billing side.
type BillingConfig struct {
	DefaultPlan string            `mapstructure:"default_plan"`
	OwnerPlans  map[string]string `mapstructure:"owner_plans"`
}

// SweeperConfig drives the background jobs of the server. A zero
// DriftReportInterval disables the periodic ledger reconcile.
type SweeperConfig struct {
	Enabled             bool          `mapstructure:"enabled"`
	Interval            time.Duration `mapstructure:"interval"`
	BatchSize           int           `mapstructure:"batch_size"`
	DriftReportInterval time.Duration `mapstructure:"drift_report_interval"`
}

// RateLimitConfig throttles upload requests per owner. It needs Redis; zero
// values disable the corresponding window.
type RateLimitConfig struct {
	UploadsPerMinute int `mapstructure:"uploads_per_minute"`
	UploadsPerHour   int `mapstructure:"uploads_per_hour"`
}
