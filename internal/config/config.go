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

const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"
)

type Config struct {
	AppEnv   string `mapstructure:"APP_ENV"`
	Server   ServerConfig
	Database DatabaseConfig
	Auth     AuthConfig
	Lending  LendingConfig
	Redis    RedisConfig
	LogLevel string `mapstructure:"LOG_LEVEL"`
}

type ServerConfig struct {
	Port                      string        `mapstructure:"SERVER_PORT"`
	Timeout                   time.Duration `mapstructure:"SERVER_TIMEOUT"`
	CORSAllowedOrigins        []string      `mapstructure:"CORS_ALLOWED_ORIGINS"`
	CatalogWriteRequiresAdmin bool          `mapstructure:"CATALOG_WRITE_REQUIRES_ADMIN"`
}

type DatabaseConfig struct {
	Driver          string `mapstructure:"DB_DRIVER"`
	Path            string `mapstructure:"DB_PATH"`
	Host            string `mapstructure:"DB_HOST"`
	Port            string `mapstructure:"DB_PORT"`
	User            string `mapstructure:"DB_USER"`
	Password        string `mapstructure:"DB_PASSWORD"`
	Name            string `mapstructure:"DB_NAME"`
	SSLMode         string `mapstructure:"DB_SSL_MODE"`
	MaxOpenConns    int    `mapstructure:"DB_MAX_OPEN_CONNS"`
	MaxIdleConns    int    `mapstructure:"DB_MAX_IDLE_CONNS"`
	ConnMaxLifetime int    `mapstructure:"DB_CONN_MAX_LIFETIME"`
}

type AuthConfig struct {
	SecretKey          string        `mapstructure:"JWT_SECRET_KEY"`
	AccessTokenExpiry  time.Duration `mapstructure:"JWT_ACCESS_TOKEN_EXPIRES"`
	RefreshTokenExpiry time.Duration `mapstructure:"JWT_REFRESH_TOKEN_EXPIRES"`
}

// LendingConfig holds the fine policy applied at return time.
type LendingConfig struct {
	BorrowingPeriodDays int     `mapstructure:"BORROWING_PERIOD_DAYS"`
	FineRatePerDay      float64 `mapstructure:"FINE_RATE_PER_DAY"`
}

type RedisConfig struct {
	Host     string `mapstructure:"REDIS_HOST"`
	Port     string `mapstructure:"REDIS_PORT"`
	Password string `mapstructure:"REDIS_PASSWORD"`
	DB       int    `mapstructure:"REDIS_DB"`
}

// Enabled reports whether a Redis server was configured.
func (r RedisConfig) Enabled() bool {
	return r.Host != ""
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")

	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("SERVER_TIMEOUT", "15s")
	v.SetDefault("CORS_ALLOWED_ORIGINS", "*")
	v.SetDefault("CATALOG_WRITE_REQUIRES_ADMIN", false)

	v.SetDefault("DB_DRIVER", DriverSQLite)
	v.SetDefault("DB_PATH", "library.db")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 25)
	v.SetDefault("DB_MAX_IDLE_CONNS", 10)
	v.SetDefault("DB_CONN_MAX_LIFETIME", 300)

	v.SetDefault("JWT_SECRET_KEY", "your_default_jwt_secret_key")
	v.SetDefault("JWT_ACCESS_TOKEN_EXPIRES", 3600)
	v.SetDefault("JWT_REFRESH_TOKEN_EXPIRES", 86400)

	v.SetDefault("BORROWING_PERIOD_DAYS", 7)
	v.SetDefault("FINE_RATE_PER_DAY", 2.0)

	v.SetDefault("REDIS_PORT", "6379")
	v.SetDefault("REDIS_DB", 0)
}

// Load reads the optional .env file and the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf(".env file could not be loaded: %w", err)
	}

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Config, error) {
	var cfg Config

	cfg.AppEnv = v.GetString("APP_ENV")
	cfg.LogLevel = v.GetString("LOG_LEVEL")

	cfg.Server.Port = v.GetString("SERVER_PORT")
	cfg.Server.Timeout = v.GetDuration("SERVER_TIMEOUT")
	cfg.Server.CORSAllowedOrigins = splitList(v.GetString("CORS_ALLOWED_ORIGINS"))
	cfg.Server.CatalogWriteRequiresAdmin = v.GetBool("CATALOG_WRITE_REQUIRES_ADMIN")

	cfg.Database.Driver = v.GetString("DB_DRIVER")
	cfg.Database.Path = v.GetString("DB_PATH")
	cfg.Database.Host = v.GetString("DB_HOST")
	cfg.Database.Port = v.GetString("DB_PORT")
	cfg.Database.User = v.GetString("DB_USER")
	cfg.Database.Password = v.GetString("DB_PASSWORD")
	cfg.Database.Name = v.GetString("DB_NAME")
	cfg.Database.SSLMode = v.GetString("DB_SSL_MODE")
	cfg.Database.MaxOpenConns = v.GetInt("DB_MAX_OPEN_CONNS")
	cfg.Database.MaxIdleConns = v.GetInt("DB_MAX_IDLE_CONNS")
	cfg.Database.ConnMaxLifetime = v.GetInt("DB_CONN_MAX_LIFETIME")

	// Token lifetimes are configured in seconds.
	cfg.Auth.SecretKey = v.GetString("JWT_SECRET_KEY")
	cfg.Auth.AccessTokenExpiry = time.Duration(v.GetInt64("JWT_ACCESS_TOKEN_EXPIRES")) * time.Second
	cfg.Auth.RefreshTokenExpiry = time.Duration(v.GetInt64("JWT_REFRESH_TOKEN_EXPIRES")) * time.Second

	cfg.Lending.BorrowingPeriodDays = v.GetInt("BORROWING_PERIOD_DAYS")
	cfg.Lending.FineRatePerDay = v.GetFloat64("FINE_RATE_PER_DAY")

	cfg.Redis.Host = v.GetString("REDIS_HOST")
	cfg.Redis.Port = v.GetString("REDIS_PORT")
	cfg.Redis.Password = v.GetString("REDIS_PASSWORD")
	cfg.Redis.DB = v.GetInt("REDIS_DB")

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	switch c.Database.Driver {
	case DriverSQLite, DriverPostgres:
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.Database.Driver)
	}

	if c.Auth.SecretKey == "" {
		return errors.New("JWT_SECRET_KEY must not be empty")
	}
	if c.Auth.AccessTokenExpiry <= 0 || c.Auth.RefreshTokenExpiry <= 0 {
		return errors.New("token expiry must be positive")
	}
	if c.Lending.BorrowingPeriodDays < 0 {
		return errors.New("BORROWING_PERIOD_DAYS must not be negative")
	}
	if c.Lending.FineRatePerDay < 0 {
		return errors.New("FINE_RATE_PER_DAY must not be negative")
	}

	return nil
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
