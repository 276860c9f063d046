// File: pkg/config/config.go
package config

import (
	"fmt"
	"log"
	"net/url"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type JWTConfig struct {
	SecretKey       string        `envconfig:"JWT_SECRET" required:"true"`
	AccessTokenTTL  time.Duration `envconfig:"ACCESS_TOKEN_TTL" default:"30s"`
	RefreshTokenTTL time.Duration `envconfig:"REFRESH_TOKEN_TTL" default:"50s"`
	CookieSecure    bool          `envconfig:"COOKIE_SECURE" default:"false"`
}

type ServerConfig struct {
	Port               string   `envconfig:"PORT" default:"8080"`
	RateLimitPerMinute int      `envconfig:"RATE_LIMIT_PER_MINUTE" default:"10"`
	AllowedOrigins     []string `envconfig:"CORS_ALLOWED_ORIGINS" default:"http://localhost:5173"`
	Production         bool     `envconfig:"PRODUCTION" default:"false"`
}

// DBConfig describes the persistence backend. Client is "memory" or
// "postgres" (alias "pg").
type DBConfig struct {
	Client   string `envconfig:"DB_CLIENT" default:"memory"`
	Host     string `envconfig:"DB_HOST" default:"localhost"`
	Port     int    `envconfig:"DB_PORT" default:"5432"`
	User     string `envconfig:"DB_USER" default:"postgres"`
	Password string `envconfig:"DB_PASSWORD" default:"postgres"`
	Name     string `envconfig:"DB_NAME" default:"todo"`
	SSLMode  string `envconfig:"DB_SSLMODE" default:"disable"`
}

type RedisConfig struct {
	Address            string        `envconfig:"REDIS_ADDRESS"`
	Password           string        `envconfig:"REDIS_PASSWORD"`
	PermissionCacheTTL time.Duration `envconfig:"PERMISSIONS_CACHE_TTL" default:"10m"`
}

type LogConfig struct {
	Level string `envconfig:"LOG_LEVEL" default:"info"`
}

// TestConfig holds pre-issued tokens used by integration tests.
type TestConfig struct {
	AccessToken           string `envconfig:"TEST_ACCESS_TOKEN"`
	AccessTokenSuperAdmin string `envconfig:"TEST_ACCESS_TOKEN_SUPER_ADMIN"`
}

type SeedConfig struct {
	AdminName     string `envconfig:"SEED_ADMIN_NAME" default:"Super Admin"`
	AdminEmail    string `envconfig:"SEED_ADMIN_EMAIL" default:"admin@todo.local"`
	AdminPassword string `envconfig:"SEED_ADMIN_PASSWORD"`
}

type Config struct {
	Server ServerConfig
	DB     DBConfig
	Redis  RedisConfig
	JWT    JWTConfig
	Log    LogConfig
	Test   TestConfig
	Seed   SeedConfig
}

// New loads .env (when present) and then reads the process environment.
func New() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, using process environment")
	}
	return FromEnv()
}

// FromEnv reads the configuration from the process environment only.
func FromEnv() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to read configuration: %w", err)
	}
	cfg.DB.Client = strings.ToLower(strings.TrimSpace(cfg.DB.Client))
	if cfg.DB.Client == "pg" {
		cfg.DB.Client = "postgres"
	}
	switch cfg.DB.Client {
	case "memory", "postgres":
	default:
		return nil, fmt.Errorf("unsupported DB_CLIENT %q", cfg.DB.Client)
	}
	if strings.TrimSpace(cfg.JWT.SecretKey) == "" {
		return nil, fmt.Errorf("JWT_SECRET must not be empty")
	}
	if cfg.JWT.AccessTokenTTL <= 0 || cfg.JWT.RefreshTokenTTL <= 0 {
		return nil, fmt.Errorf("token TTLs must be positive")
	}
	return &cfg, nil
}

// DSN builds the postgres connection URL from the DB_* parts.
func (c DBConfig) DSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:     c.Name,
		RawQuery: "sslmode=" + url.QueryEscape(c.SSLMode),
	}
	return u.String()
}

func (c ServerConfig) Address() string {
	return ":" + c.Port
}
