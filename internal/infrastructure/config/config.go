package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port     string `env:"PORT,      default=3000"`
	Env      string `env:"ENV,       default=development"`
	LogLevel string `env:"LOG_LEVEL, default=info"`

	// StaticDir holds the built dashboard. Empty disables static serving.
	StaticDir string `env:"STATIC_DIR"`

	Database DatabaseConfig
	Auth     AuthConfig
	Redis    RedisConfig
}

type DatabaseConfig struct {
	// URL selects PostgreSQL when set; otherwise SQLitePath is used.
	URL             string        `env:"DATABASE_URL"`
	SQLitePath      string        `env:"SQLITE_PATH,          default=refonic.db"`
	MaxOpenConns    int           `env:"DB_MAX_OPEN_CONNS,    default=10"`
	MaxIdleConns    int           `env:"DB_MAX_IDLE_CONNS,    default=5"`
	ConnMaxLifetime time.Duration `env:"DB_CONN_MAX_LIFETIME, default=5m"`
}

type AuthConfig struct {
	DefaultPassword string        `env:"DEFAULT_PASSWORD, default=admin"`
	JWTSecret       string        `env:"JWT_SECRET"`
	TokenTTL        time.Duration `env:"TOKEN_TTL,        default=24h"`
	// Required turns on bearer-token checks for the product routes.
	Required        bool          `env:"AUTH_REQUIRED,    default=false"`
	LoginRateLimit  int           `env:"LOGIN_RATE_LIMIT,  default=5"`
	LoginRateWindow time.Duration `env:"LOGIN_RATE_WINDOW, default=1m"`
}

type RedisConfig struct {
	// Addr is host:port or a redis:// URL. Empty disables the login rate
	// limiter.
	Addr     string `env:"REDIS_ADDR"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB, default=0"`
}

// IsProduction reports whether ENV is "production".
func (c *Config) IsProduction() bool { return c.Env == "production" }

// Load reads a local .env file when present, then the process environment.
func Load(ctx context.Context) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("config: read .env: %w", err)
	}
	return FromLookuper(ctx, envconfig.OsLookuper())
}

// FromLookuper builds a Config from an arbitrary source. Tests use
// envconfig.MapLookuper.
func FromLookuper(ctx context.Context, l envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: l}); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if cfg.Auth.JWTSecret == "" {
		if cfg.IsProduction() {
			return nil, errors.New("config: JWT_SECRET is required in production")
		}
		cfg.Auth.JWTSecret = "dev-secret-change-me"
	}
	return &cfg, nil
}
