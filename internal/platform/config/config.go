package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Addr               string        `yaml:"addr" env:"APP_ADDR" env-default:":8080"`
	Environment        string        `yaml:"environment" env:"APP_ENV" env-default:"development"`
	DatabaseURL        string        `yaml:"database_url" env:"DATABASE_URL"`
	RedisURL           string        `yaml:"redis_url" env:"REDIS_URL"`
	JWTSecret          string        `yaml:"jwt_secret" env:"JWT_SECRET"`
	TokenTTL           time.Duration `yaml:"token_ttl" env:"TOKEN_TTL" env-default:"8h"`
	LogLevel           string        `yaml:"log_level" env:"LOG_LEVEL" env-default:"info"`
	CORSOrigins        []string      `yaml:"cors_origins" env:"CORS_ORIGINS" env-separator:"," env-default:"http://localhost:5173"`
	MigrationsDir      string        `yaml:"migrations_dir" env:"MIGRATIONS_DIR" env-default:"migrations"`
	RunMigrations      bool          `yaml:"run_migrations" env:"RUN_MIGRATIONS" env-default:"true"`
	RunSeed            bool          `yaml:"run_seed" env:"RUN_SEED" env-default:"true"`
	SeedTenantName     string        `yaml:"seed_tenant_name" env:"SEED_TENANT_NAME" env-default:"Default Tenant"`
	SeedCurrency       string        `yaml:"seed_currency" env:"SEED_CURRENCY" env-default:"USD"`
	SeedAdminEmail     string        `yaml:"seed_admin_email" env:"SEED_ADMIN_EMAIL"`
	SeedAdminPassword  string        `yaml:"seed_admin_password" env:"SEED_ADMIN_PASSWORD"`
	SeedCatalog        bool          `yaml:"seed_catalog" env:"SEED_CATALOG" env-default:"true"`
	MaxBodyBytes       int64         `yaml:"max_body_bytes" env:"MAX_BODY_BYTES" env-default:"1048576"`
	RateLimitPerMinute int           `yaml:"rate_limit_per_minute" env:"RATE_LIMIT_PER_MINUTE" env-default:"60"`
	CatalogCacheTTL    time.Duration `yaml:"catalog_cache_ttl" env:"CATALOG_CACHE_TTL" env-default:"1h"`
	MetricsEnabled     bool          `yaml:"metrics_enabled" env:"METRICS_ENABLED" env-default:"true"`
	JobQueueSize       int           `yaml:"job_queue_size" env:"JOB_QUEUE_SIZE" env-default:"128"`
	ShutdownTimeout    time.Duration `yaml:"shutdown_timeout" env:"SHUTDOWN_TIMEOUT" env-default:"10s"`
}

// Load reads the environment, layered over the YAML file named by
// CONFIG_PATH when it is set.
func Load() (Config, error) {
	var cfg Config
	if path := strings.TrimSpace(os.Getenv("CONFIG_PATH")); path != "" {
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
		return cfg, nil
	}
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return Config{}, fmt.Errorf("read environment: %w", err)
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.DatabaseURL) == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.Environment == "production" {
		if len(strings.TrimSpace(c.JWTSecret)) < 32 {
			return fmt.Errorf("JWT_SECRET must be set to a strong value in production")
		}
		if c.RunSeed && strings.TrimSpace(c.SeedAdminPassword) == "" {
			return fmt.Errorf("SEED_ADMIN_PASSWORD must be changed or RUN_SEED disabled in production")
		}
	}
	if c.MaxBodyBytes < 1024 {
		return fmt.Errorf("MAX_BODY_BYTES must be at least 1024")
	}
	if c.RateLimitPerMinute <= 0 {
		return fmt.Errorf("RATE_LIMIT_PER_MINUTE must be positive")
	}
	if c.TokenTTL <= 0 {
		return fmt.Errorf("TOKEN_TTL must be positive")
	}
	if c.JobQueueSize <= 0 {
		return fmt.Errorf("JOB_QUEUE_SIZE must be positive")
	}
	return nil
}

func (c Config) IsProduction() bool {
	return c.Environment == "production"
}
