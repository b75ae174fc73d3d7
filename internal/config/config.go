package config

import (
	"fmt"
	"net"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/spf13/viper"

	"github.com/urlmon/urlmon/internal/domain"
)

const (
	LogLevelDebug = "debug"
	LogLevelInfo  = "info"
	LogLevelWarn  = "warn"
	LogLevelError = "error"
)

type ServerConfig struct {
	Addr          string `mapstructure:"addr"`
	LogDir        string `mapstructure:"log_dir"`
	LogLevel      string `mapstructure:"log_level"`
	RatePerMinute int    `mapstructure:"rate_per_minute"`
	RateBurst     int    `mapstructure:"rate_burst"`
}

type URLConfig struct {
	Name string `mapstructure:"name"`
	URL  string `mapstructure:"url"`
}

type MonitoringConfig struct {
	CheckIntervalSeconds  int `mapstructure:"check_interval_seconds"`
	TimeoutSeconds        int `mapstructure:"timeout_seconds"`
	HistoryRetentionHours int `mapstructure:"history_retention_hours"`
	// MaxConcurrentChecks caps in-flight checks across all targets.
	// Zero means one slot per target, i.e. no global cap beyond the
	// per-target no-overlap rule.
	MaxConcurrentChecks  int `mapstructure:"max_concurrent_checks"`
	ShutdownGraceSeconds int `mapstructure:"shutdown_grace_seconds"`
}

type StorageConfig struct {
	CSVFile              string `mapstructure:"csv_file"`
	SQLitePath           string `mapstructure:"sqlite_path"`
	DatabaseURL          string `mapstructure:"database_url"`
	FlushIntervalSeconds int    `mapstructure:"flush_interval_seconds"`
}

type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	URLs       []URLConfig      `mapstructure:"urls"`
	Monitoring MonitoringConfig `mapstructure:"monitoring"`
	Storage    StorageConfig    `mapstructure:"storage"`
}

// Load reads the JSON config file at path (default "config.json" in the
// working directory), applies environment overrides (SERVER_ADDR,
// MONITORING_TIMEOUT_SECONDS, ...) and validates the result. Validation
// failures come back as *domain.ConfigError; the caller must not start on
// one.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("json")
		v.AddConfigPath(".")
	}

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, &domain.ConfigError{Reason: err.Error()}
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.log_dir", "logs")
	v.SetDefault("server.log_level", LogLevelInfo)
	v.SetDefault("server.rate_per_minute", 120)
	v.SetDefault("server.rate_burst", 60)
	v.SetDefault("monitoring.check_interval_seconds", 60)
	v.SetDefault("monitoring.timeout_seconds", 5)
	v.SetDefault("monitoring.history_retention_hours", 24)
	v.SetDefault("monitoring.max_concurrent_checks", 0)
	v.SetDefault("monitoring.shutdown_grace_seconds", 10)
	v.SetDefault("storage.csv_file", "monitoring-url.csv")
	v.SetDefault("storage.sqlite_path", "")
	v.SetDefault("storage.database_url", "")
	v.SetDefault("storage.flush_interval_seconds", 5)
}

func (c *Config) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Server,
			validation.Required,
			validation.By(func(value interface{}) error {
				sc, ok := value.(ServerConfig)
				if !ok {
					return validation.NewError("validation_invalid_type", "must be a ServerConfig")
				}
				return validation.ValidateStruct(&sc,
					validation.Field(&sc.Addr,
						validation.Required,
						validation.By(validateHostPort),
					),
					validation.Field(&sc.LogDir, validation.Required),
					validation.Field(&sc.LogLevel,
						validation.Required,
						validation.In(LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError),
					),
					validation.Field(&sc.RatePerMinute, validation.Min(0)),
					validation.Field(&sc.RateBurst, validation.Min(0)),
				)
			}),
		),
		validation.Field(&c.URLs,
			validation.Required,
			validation.Length(1, 0),
			validation.Each(validation.By(validateURLConfig)),
		),
		validation.Field(&c.Monitoring,
			validation.Required,
			validation.By(func(value interface{}) error {
				mc, ok := value.(MonitoringConfig)
				if !ok {
					return validation.NewError("validation_invalid_type", "must be a MonitoringConfig")
				}
				return validation.ValidateStruct(&mc,
					validation.Field(&mc.CheckIntervalSeconds, validation.Required, validation.Min(1)),
					validation.Field(&mc.TimeoutSeconds, validation.Required, validation.Min(1)),
					validation.Field(&mc.HistoryRetentionHours, validation.Required, validation.Min(1)),
					validation.Field(&mc.MaxConcurrentChecks, validation.Min(0)),
					validation.Field(&mc.ShutdownGraceSeconds, validation.Required, validation.Min(1)),
				)
			}),
		),
		validation.Field(&c.Storage,
			validation.By(func(value interface{}) error {
				sc, ok := value.(StorageConfig)
				if !ok {
					return validation.NewError("validation_invalid_type", "must be a StorageConfig")
				}
				return validation.ValidateStruct(&sc,
					validation.Field(&sc.FlushIntervalSeconds, validation.Required, validation.Min(1)),
				)
			}),
		),
	)
}

func validateHostPort(value interface{}) error {
	addr, ok := value.(string)
	if !ok {
		return validation.NewError("validation_invalid_type", "must be a string")
	}

	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return validation.NewError("validation_invalid_hostport", "must be in host:port format")
	}

	if port == "" {
		return validation.NewError("validation_invalid_port", "port cannot be empty")
	}

	if host != "" {
		if err := is.Host.Validate(host); err != nil {
			return validation.NewError("validation_invalid_host", "invalid host")
		}
	}

	return nil
}

func validateURLConfig(value interface{}) error {
	uc, ok := value.(URLConfig)
	if !ok {
		return validation.NewError("validation_invalid_type", "must be a URLConfig")
	}

	if strings.TrimSpace(uc.Name) == "" {
		return validation.NewError("validation_empty_name", "url entry needs a name")
	}

	if strings.TrimSpace(uc.URL) == "" {
		return validation.NewError("validation_empty_url", "url entry needs a url")
	}

	return nil
}

func (c *Config) CheckInterval() time.Duration {
	return time.Duration(c.Monitoring.CheckIntervalSeconds) * time.Second
}

func (c *Config) CheckTimeout() time.Duration {
	return time.Duration(c.Monitoring.TimeoutSeconds) * time.Second
}

func (c *Config) Retention() time.Duration {
	return time.Duration(c.Monitoring.HistoryRetentionHours) * time.Hour
}

func (c *Config) FlushInterval() time.Duration {
	return time.Duration(c.Storage.FlushIntervalSeconds) * time.Second
}

func (c *Config) ShutdownGrace() time.Duration {
	return time.Duration(c.Monitoring.ShutdownGraceSeconds) * time.Second
}
