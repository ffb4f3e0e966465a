package config

import (
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/spf13/viper"
)

type Config struct {
	App     AppConfig     `mapstructure:"app"`
	Server  ServerConfig  `mapstructure:"server"`
	Log     LogConfig     `mapstructure:"log"`
	DB      DBConfig      `mapstructure:"db"`
	Cron    CronConfig    `mapstructure:"cron"`
	Import  ImportConfig  `mapstructure:"import"`
	Auth    AuthConfig    `mapstructure:"auth"`
	Redis   RedisConfig   `mapstructure:"redis"`
	Metrics MetricsConfig `mapstructure:"metrics"`
}

type AppConfig struct {
	Env string `mapstructure:"env"`
	// Timezone decides calendar days for daily flows and investment days.
	Timezone string `mapstructure:"timezone"`
}

type ServerConfig struct {
	HTTPAddr        string        `mapstructure:"http_addr"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type LogConfig struct {
	Level             string `mapstructure:"level"`
	Encoding          string `mapstructure:"encoding"`
	Development       bool   `mapstructure:"development"`
	Sampling          bool   `mapstructure:"sampling"`
	DisableCaller     bool   `mapstructure:"disable_caller"`
	DisableStacktrace bool   `mapstructure:"disable_stacktrace"`
}

type DBConfig struct {
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
	Timezone        string        `mapstructure:"timezone"`
	SlowThreshold   time.Duration `mapstructure:"slow_threshold"`
}

type CronConfig struct {
	Enabled       bool          `mapstructure:"enabled"`
	PoolSnapshot  string        `mapstructure:"pool_snapshot"`
	SnapshotEvery time.Duration `mapstructure:"snapshot_every"`
}

type ImportConfig struct {
	MaxFileBytes int64 `mapstructure:"max_file_bytes"`
	// Path, when set, is imported once at startup.
	Path string `mapstructure:"path"`
}

type AuthConfig struct {
	Disabled bool     `mapstructure:"disabled"`
	Tokens   []string `mapstructure:"tokens"`
}

type RedisConfig struct {
	URL       string        `mapstructure:"url"`
	KeyPrefix string        `mapstructure:"key_prefix"`
	ItemTTL   time.Duration `mapstructure:"item_ttl"`
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// Location resolves App.Timezone, falling back to UTC.
func (c AppConfig) Location() *time.Location {
	if tz := strings.TrimSpace(c.Timezone); tz != "" {
		if loc, err := time.LoadLocation(tz); err == nil {
			return loc
		}
	}
	return time.UTC
}

func Load(path string, envOnly bool) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("CSINV")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.AutomaticEnv()
	v.SetDefault("app.env", "dev")
	v.SetDefault("app.timezone", "UTC")
	v.SetDefault("server.http_addr", ":8080")
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "60s")
	v.SetDefault("server.shutdown_timeout", "10s")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.encoding", "console")
	v.SetDefault("log.development", true)
	v.SetDefault("log.sampling", false)
	v.SetDefault("log.disable_caller", false)
	v.SetDefault("log.disable_stacktrace", false)
	v.SetDefault("db.dsn", "")
	v.SetDefault("db.max_open_conns", 20)
	v.SetDefault("db.max_idle_conns", 5)
	v.SetDefault("db.conn_max_lifetime", "30m")
	v.SetDefault("db.conn_max_idle_time", "5m")
	v.SetDefault("db.timezone", "UTC")
	v.SetDefault("db.slow_threshold", "500ms")
	v.SetDefault("cron.enabled", true)
	v.SetDefault("cron.pool_snapshot", "@every 1h")
	v.SetDefault("cron.snapshot_every", "1h")
	v.SetDefault("import.max_file_bytes", 50<<20)
	v.SetDefault("import.path", "")
	v.SetDefault("auth.disabled", false)
	v.SetDefault("auth.tokens", []string{})
	v.SetDefault("redis.url", "")
	v.SetDefault("redis.key_prefix", "csinv")
	v.SetDefault("redis.item_ttl", "24h")
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")

	if !envOnly {
		if err := v.ReadInConfig(); err != nil {
			return Config{}, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}
	tokens := cfg.Auth.Tokens[:0]
	for _, tok := range cfg.Auth.Tokens {
		if tok = strings.TrimSpace(tok); tok != "" {
			tokens = append(tokens, tok)
		}
	}
	cfg.Auth.Tokens = tokens

	return cfg, nil
}
