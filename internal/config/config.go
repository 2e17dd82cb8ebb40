// Package config loads and validates service configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	DB       DBConfig       `mapstructure:"db"`
	Fetch    FetchConfig    `mapstructure:"fetch"`
	Tasks    TasksConfig    `mapstructure:"tasks"`
	Schedule ScheduleConfig `mapstructure:"schedule"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// ServerConfig controls the read API HTTP server.
type ServerConfig struct {
	Port int `mapstructure:"port"`
}

// DBConfig controls access to the relational store.
// DSN is a file path for SQLite or a postgres:// URL for the
// production branch.
type DBConfig struct {
	DSN          string `mapstructure:"dsn"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
	MaxIdleConns int    `mapstructure:"max_idle_conns"`
	BackupDir    string `mapstructure:"backup_dir"`
	BackupBucket string `mapstructure:"backup_bucket"`
}

// FetchConfig governs the cached HTTP fetcher.
type FetchConfig struct {
	CacheDir       string `mapstructure:"cache_dir"`
	UserAgent      string `mapstructure:"user_agent"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
	DelayMs        int    `mapstructure:"delay_ms"`
	DetailDelayMs  int    `mapstructure:"detail_delay_ms"`
}

// TasksConfig controls runner retry behavior.
type TasksConfig struct {
	QueueDepth     int `mapstructure:"queue_depth"`
	MaxRetries     int `mapstructure:"max_retries"`
	BackoffSeconds int `mapstructure:"backoff_seconds"`
}

// ScheduleConfig holds cron specs for the periodic refresh tasks.
type ScheduleConfig struct {
	Rankings   string `mapstructure:"rankings"`
	Fighters   string `mapstructure:"fighters"`
	Events     string `mapstructure:"events"`
	FightStats string `mapstructure:"fight_stats"`
	Analytics  string `mapstructure:"analytics"`
	Cleanup    string `mapstructure:"cleanup"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("UFC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	// DATABASE_URL wins over the configured DSN; this is how the
	// hosted environments hand us the postgres connection string.
	if err := v.BindEnv("db.dsn", "UFC_DB_DSN", "DATABASE_URL"); err != nil {
		return Config{}, fmt.Errorf("bind db env: %w", err)
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("db.dsn", "ufc_ranker_v2.db")
	v.SetDefault("db.max_open_conns", 10)
	v.SetDefault("db.max_idle_conns", 5)
	v.SetDefault("db.backup_dir", "")
	v.SetDefault("db.backup_bucket", "")
	v.SetDefault("fetch.cache_dir", ".cache")
	v.SetDefault("fetch.user_agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
	v.SetDefault("fetch.timeout_seconds", 30)
	v.SetDefault("fetch.delay_ms", 750)
	v.SetDefault("fetch.detail_delay_ms", 2000)
	v.SetDefault("tasks.queue_depth", 64)
	v.SetDefault("tasks.max_retries", 3)
	v.SetDefault("tasks.backoff_seconds", 60)
	v.SetDefault("schedule.rankings", "0 6 * * *")
	v.SetDefault("schedule.fighters", "0 7 * * *")
	v.SetDefault("schedule.events", "0 8 * * *")
	v.SetDefault("schedule.fight_stats", "0 9 * * *")
	v.SetDefault("schedule.analytics", "0 10 * * *")
	v.SetDefault("schedule.cleanup", "0 2 * * 1")
	v.SetDefault("logging.development", true)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0")
	}
	if c.DB.DSN == "" {
		return fmt.Errorf("db.dsn must be set")
	}
	if c.Fetch.TimeoutSeconds <= 0 {
		return fmt.Errorf("fetch.timeout_seconds must be > 0")
	}
	if c.Tasks.QueueDepth <= 0 {
		return fmt.Errorf("tasks.queue_depth must be > 0")
	}
	if c.Tasks.MaxRetries < 0 {
		return fmt.Errorf("tasks.max_retries must be >= 0")
	}
	return nil
}

// FetchTimeout converts the HTTP timeout config into a duration.
func (c Config) FetchTimeout() time.Duration {
	return time.Duration(c.Fetch.TimeoutSeconds) * time.Second
}

// FetchDelay is the polite pacing delay between page fetches.
func (c Config) FetchDelay() time.Duration {
	return time.Duration(c.Fetch.DelayMs) * time.Millisecond
}

// DetailDelay is the longer pause between page-detail fetches.
func (c Config) DetailDelay() time.Duration {
	return time.Duration(c.Fetch.DetailDelayMs) * time.Millisecond
}

// TaskBackoff is the fixed wait between task retry attempts.
func (c Config) TaskBackoff() time.Duration {
	return time.Duration(c.Tasks.BackoffSeconds) * time.Second
}
