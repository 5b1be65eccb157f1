package config

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/spf13/viper"

	sharedConfig "photopick/internal/shared/config"
)

type Config struct {
	Server    sharedConfig.ServerConfig    `mapstructure:"server"`
	Database  sharedConfig.DatabaseConfig  `mapstructure:"database"`
	Logger    sharedConfig.LoggerConfig    `mapstructure:"logger"`
	Redis     sharedConfig.RedisConfig     `mapstructure:"redis"`
	Storage   sharedConfig.StorageConfig   `mapstructure:"storage"`
	Quota     sharedConfig.QuotaConfig     `mapstructure:"quota"`
	Billing   sharedConfig.BillingConfig   `mapstructure:"billing"`
	Sweeper   sharedConfig.SweeperConfig   `mapstructure:"sweeper"`
	RateLimit sharedConfig.RateLimitConfig `mapstructure:"rate_limit"`
}

var (
	appConfig   *Config
	appConfigMu sync.RWMutex
)

// Load reads configs/config.yaml (or configPath when given) and applies
// PHOTOPICK_* environment overrides. A missing config file is not an error;
// defaults plus environment are enough to run against sqlite.
func Load(env, configPath string) (*Config, error) {
	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath("../configs")
		v.AddConfigPath("../../configs")
	}

	v.SetEnvPrefix("PHOTOPICK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configPath != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if env != "" && env != "default" {
		v.Set("server.mode", env)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	appConfigMu.Lock()
	appConfig = &cfg
	appConfigMu.Unlock()

	return &cfg, nil
}

// Get returns the last loaded configuration.
func Get() *Config {
	appConfigMu.RLock()
	defer appConfigMu.RUnlock()
	return appConfig
}

// Validate rejects combinations the services cannot start with.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "mysql", "postgres", "sqlite":
	default:
		return fmt.Errorf("database.driver must be mysql, postgres or sqlite, got %q", c.Database.Driver)
	}

	switch c.Storage.Driver {
	case "memory":
	case "s3":
		if c.Storage.Bucket == "" {
			return fmt.Errorf("storage.bucket is required for the s3 driver")
		}
	default:
		return fmt.Errorf("storage.driver must be s3 or memory, got %q", c.Storage.Driver)
	}

	if c.Quota.MaxRetries < 0 {
		return fmt.Errorf("quota.max_retries cannot be negative")
	}
	if c.RateLimit.UploadsPerMinute < 0 || c.RateLimit.UploadsPerHour < 0 {
		return fmt.Errorf("rate_limit windows cannot be negative")
	}
	if c.Quota.LockWaitTimeout <= 0 {
		return fmt.Errorf("quota.lock_wait_timeout must be positive")
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "debug")

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 3306)
	v.SetDefault("database.username", "root")
	v.SetDefault("database.password", "password")
	v.SetDefault("database.database", "photopick.db")
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.max_idle_conns", 10)
	v.SetDefault("database.max_open_conns", 100)
	v.SetDefault("database.conn_max_lifetime", 60)

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.output_path", "stdout")

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("storage.driver", "memory")
	v.SetDefault("storage.region", "us-east-1")
	v.SetDefault("storage.use_path_style", true)
	v.SetDefault("storage.timeout", "30s")

	v.SetDefault("quota.lock_wait_timeout", "3s")
	v.SetDefault("quota.max_retries", 3)
	v.SetDefault("quota.retry_base_delay", "50ms")
	v.SetDefault("quota.retry_max_delay", "1s")
	v.SetDefault("quota.max_upload_bytes", 50<<20)
	v.SetDefault("quota.cleanup_timeout", "10s")
	v.SetDefault("quota.status_cache_ttl", "30s")

	v.SetDefault("billing.default_plan", "FREE")

	v.SetDefault("sweeper.enabled", true)
	v.SetDefault("sweeper.interval", "5m")
	v.SetDefault("sweeper.batch_size", 100)
	v.SetDefault("sweeper.drift_report_interval", "1h")

	v.SetDefault("rate_limit.uploads_per_minute", 60)
	v.SetDefault("rate_limit.uploads_per_hour", 0)
}
