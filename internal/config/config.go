package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config is the full application configuration, read from configs/config.yml
// and overridable through environment variables (SERVER_PORT, DB_PASSWORD, ...).
type Config struct {
	Server ServerConfig `mapstructure:"server"`
	DB     DBConfig     `mapstructure:"db"`
	Redis  RedisConfig  `mapstructure:"redis"`
	Auth   AuthConfig   `mapstructure:"auth"`
	SMTP   SMTPConfig   `mapstructure:"smtp"`

	Superuser SuperuserConfig `mapstructure:"superuser"`
}

// SuperuserConfig describes the administrative account seeded at startup.
type SuperuserConfig struct {
	Username  string `mapstructure:"username"`
	Email     string `mapstructure:"email"`
	Password  string `mapstructure:"password"`
	FirstName string `mapstructure:"first_name"`
	LastName  string `mapstructure:"last_name"`
}

type ServerConfig struct {
	Port        string   `mapstructure:"port"`
	LogLevel    string   `mapstructure:"log_level"`
	BaseURL     string   `mapstructure:"base_url"`
	CORSOrigins []string `mapstructure:"cors_origins"`
	HSTSMaxAge  int      `mapstructure:"hsts_max_age"`
}

type DBConfig struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	User         string `mapstructure:"user"`
	Password     string `mapstructure:"password"`
	Name         string `mapstructure:"name"`
	SSLMode      string `mapstructure:"sslmode"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
	MaxIdleConns int    `mapstructure:"max_idle_conns"`
}

// DSN builds a keyword/value connection string understood by the pgx driver.
func (c DBConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

type AuthConfig struct {
	PrivateKeyPath      string `mapstructure:"private_key_path"`
	PublicKeyPath       string `mapstructure:"public_key_path"`
	Issuer              string `mapstructure:"issuer"`
	Audience            string `mapstructure:"audience"`
	AccessTokenMinutes  int    `mapstructure:"access_token_minutes"`
	RefreshTokenMinutes int    `mapstructure:"refresh_token_minutes"`
	ResetTokenHours     int    `mapstructure:"reset_token_hours"`
	CacheSeconds        int    `mapstructure:"cache_seconds"`
	RateLimitMax        int    `mapstructure:"rate_limit_max"`
	RateLimitWindowSec  int    `mapstructure:"rate_limit_window_sec"`
}

func (c AuthConfig) AccessTokenTTL() time.Duration {
	return time.Duration(c.AccessTokenMinutes) * time.Minute
}

func (c AuthConfig) RefreshTokenTTL() time.Duration {
	return time.Duration(c.RefreshTokenMinutes) * time.Minute
}

func (c AuthConfig) ResetTokenTTL() time.Duration {
	return time.Duration(c.ResetTokenHours) * time.Hour
}

func (c AuthConfig) CacheTTL() time.Duration {
	return time.Duration(c.CacheSeconds) * time.Second
}

func (c AuthConfig) RateLimitWindow() time.Duration {
	return time.Duration(c.RateLimitWindowSec) * time.Second
}

type SMTPConfig struct {
	Host      string `mapstructure:"host"`
	Port      int    `mapstructure:"port"`
	User      string `mapstructure:"user"`
	Password  string `mapstructure:"password"`
	FromEmail string `mapstructure:"from_email"`
	FromName  string `mapstructure:"from_name"`
}

// Enabled reports whether outgoing mail is configured at all.
func (c SMTPConfig) Enabled() bool {
	return c.Host != ""
}

const (
	defaultPort          = "8080"
	defaultLogLevel      = "info"
	defaultAccessMinutes = 15
	defaultRefreshDays   = 7
	defaultResetHours    = 48
	defaultCacheSeconds  = 3600
	defaultRateMax       = 30
	defaultRateWindowSec = 60
	defaultHSTSMaxAge    = 31536000
)

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", defaultPort)
	v.SetDefault("server.log_level", defaultLogLevel)
	v.SetDefault("server.base_url", "http://localhost:8080")
	v.SetDefault("server.hsts_max_age", defaultHSTSMaxAge)

	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("db.max_open_conns", 25)
	v.SetDefault("db.max_idle_conns", 5)

	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.db", 0)

	v.SetDefault("auth.private_key_path", "private_key.pem")
	v.SetDefault("auth.public_key_path", "public_key.pem")
	v.SetDefault("auth.access_token_minutes", defaultAccessMinutes)
	v.SetDefault("auth.refresh_token_minutes", defaultRefreshDays*24*60)
	v.SetDefault("auth.reset_token_hours", defaultResetHours)
	v.SetDefault("auth.cache_seconds", defaultCacheSeconds)
	v.SetDefault("auth.rate_limit_max", defaultRateMax)
	v.SetDefault("auth.rate_limit_window_sec", defaultRateWindowSec)
}

// Load reads configs/config.yml (optional), merges environment variables and
// an optional .env file, and validates the result.
func Load() (*Config, error) {
	// .env is a development convenience; absence is not an error
	_ = godotenv.Load()

	v := viper.New()
	v.AddConfigPath("configs")
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	for _, path := range []string{c.Auth.PrivateKeyPath, c.Auth.PublicKeyPath} {
		if !strings.HasSuffix(path, "key.pem") {
			return fmt.Errorf("signing key path %q must end with 'key.pem'", path)
		}
	}
	if c.Auth.AccessTokenMinutes <= 0 || c.Auth.RefreshTokenMinutes <= 0 {
		return fmt.Errorf("token lifetimes must be positive")
	}
	if c.Auth.RefreshTokenMinutes <= c.Auth.AccessTokenMinutes {
		return fmt.Errorf("refresh token lifetime must exceed access token lifetime")
	}
	return nil
}
