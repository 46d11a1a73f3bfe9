package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

const envPrefix = "CHOIR"

type AppConfig struct {
	API       *APIConfig       `mapstructure:"api"`
	Gin       *GinConfig       `mapstructure:"gin"`
	Postgres  *PostgresConfig  `mapstructure:"postgres"`
	Redis     *RedisConfig     `mapstructure:"redis"`
	RateLimit *RateLimitConfig `mapstructure:"rate_limit"`
	Admin     *AdminConfig     `mapstructure:"admin"`

	mu sync.RWMutex
	v  *viper.Viper
}

type APIConfig struct {
	Port               string        `mapstructure:"port"`
	Environment        string        `mapstructure:"environment"`
	BaseURL            string        `mapstructure:"base_url"`
	JWTSigningKey      string        `mapstructure:"jwt_signing_key"`
	JWTTTL             time.Duration `mapstructure:"jwt_ttl"`
	AllowedCORSDomains []string      `mapstructure:"allowed_cors_domains"`
	Timezone           string        `mapstructure:"timezone"`
}

type GinConfig struct {
	Mode string `mapstructure:"mode"`
}

type PostgresConfig struct {
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DB       string `mapstructure:"db"`
	SSLMode  string `mapstructure:"sslmode"`
}

// DSN is the libpq keyword/value connection string.
func (c *PostgresConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DB, c.SSLMode)
}

// RedisConfig is optional. An empty Addr disables Redis.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type RateLimitConfig struct {
	PerMinute int `mapstructure:"per_minute"`
}

// AdminConfig is the account created by seed-admin and at serve start.
type AdminConfig struct {
	Email    string `mapstructure:"email"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("api.port", "8080")
	v.SetDefault("api.environment", "development")
	v.SetDefault("api.base_url", "localhost:8080")
	v.SetDefault("api.jwt_signing_key", "")
	v.SetDefault("api.jwt_ttl", 72*time.Hour)
	v.SetDefault("api.allowed_cors_domains", []string{"http://localhost:3000"})
	v.SetDefault("api.timezone", "UTC")
	v.SetDefault("gin.mode", "debug")
	v.SetDefault("postgres.host", "localhost")
	v.SetDefault("postgres.port", "5432")
	v.SetDefault("postgres.user", "postgres")
	v.SetDefault("postgres.password", "")
	v.SetDefault("postgres.db", "choir")
	v.SetDefault("postgres.sslmode", "disable")
	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("rate_limit.per_minute", 120)
	v.SetDefault("admin.email", "")
	v.SetDefault("admin.password", "")
	v.SetDefault("admin.name", "Administrator")
}

// Load reads the YAML file at path. Every key may be overridden by an
// environment variable such as CHOIR_API_PORT or CHOIR_POSTGRES_HOST.
func Load(path string) (*AppConfig, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigFile(path)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// A missing file is fine, defaults and the environment still apply.
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("v.ReadInConfig -> %w", err)
		}
	}

	conf := &AppConfig{v: v}
	if err := v.Unmarshal(conf); err != nil {
		return nil, fmt.Errorf("v.Unmarshal -> %w", err)
	}

	if err := conf.Validate(); err != nil {
		return nil, err
	}

	return conf, nil
}

func (c *AppConfig) Validate() error {
	if c.API == nil || c.Gin == nil || c.Postgres == nil || c.RateLimit == nil {
		return errors.New("config: missing required section")
	}
	if strings.TrimSpace(c.API.JWTSigningKey) == "" {
		return errors.New("config: api.jwt_signing_key is required")
	}
	port, err := strconv.Atoi(c.API.Port)
	if err != nil || port <= 0 || port > 65535 {
		return fmt.Errorf("config: invalid api.port %q", c.API.Port)
	}
	if c.API.JWTTTL <= 0 {
		return errors.New("config: api.jwt_ttl must be positive")
	}
	if _, err := time.LoadLocation(c.API.Timezone); err != nil {
		return fmt.Errorf("config: invalid api.timezone %q", c.API.Timezone)
	}
	if c.RateLimit.PerMinute < 0 {
		return errors.New("config: rate_limit.per_minute must not be negative")
	}

	return nil
}

// Location is the choir's local time zone. Validate guarantees it loads.
func (c *AppConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.API.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// CORSDomains and RateLimitPerMinute can change at runtime through Watch.
func (c *AppConfig) CORSDomains() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]string(nil), c.API.AllowedCORSDomains...)
}

func (c *AppConfig) RateLimitPerMinute() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.RateLimit.PerMinute
}

// Watch reloads the hot keys when the config file changes and then calls
// onChange. Every other key needs a restart.
func (c *AppConfig) Watch(onChange func(*AppConfig)) {
	if c.v == nil {
		return
	}

	c.v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}

		domains := c.v.GetStringSlice("api.allowed_cors_domains")
		if len(domains) == 1 {
			domains = splitList(domains[0])
		}
		perMinute := c.v.GetInt("rate_limit.per_minute")

		c.mu.Lock()
		c.API.AllowedCORSDomains = domains
		if perMinute >= 0 {
			c.RateLimit.PerMinute = perMinute
		}
		c.mu.Unlock()

		if onChange != nil {
			onChange(c)
		}
	})
	c.v.WatchConfig()
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
