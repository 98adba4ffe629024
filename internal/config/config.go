package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

type Config struct {
	Env       string    `yml:"env" default:"local"`
	Postgres  Postgres  `yml:"postgres"`
	Server    Server    `yml:"server" env-required:"true"`
	Auth      Auth      `yml:"auth"`
	SMTP      SMTP      `yml:"smtp"`
	RateLimit RateLimit `yml:"rate_limit"`
	Cache     Cache     `yml:"cache"`
}

type Postgres struct {
	Username        string        `env:"POSTGRES_USER" env-required:"true"`
	Password        string        `env:"POSTGRES_PASSWORD" env-required:"true"`
	Host            string        `yml:"host" env-required:"true"`
	Port            string        `env:"POSTGRES_PORT" env-required:"true"`
	Database        string        `env:"POSTGRES_DB" env-required:"true"`
	MaxOpenConns    int           `yml:"max_open_conns" default:"50"`
	MaxIdleConns    int           `yml:"max_idle_conns" default:"10"`
	ConnMaxLifetime time.Duration `yml:"conn_max_lifetime" default:"5m"`
	ConnMaxIdleTime time.Duration `yml:"conn_max_idle_time" default:"1m"`
}

type Server struct {
	Host    string        `yml:"host" default:"localhost"`
	Port    string        `yml:"port" default:"8080"`
	Timeout time.Duration `yml:"timeout" default:"5s"`
}

type Auth struct {
	JWTSecret string        `yml:"jwt_secret" env:"JWT_SECRET" env-required:"true"`
	TokenTTL  time.Duration `yml:"token_ttl" default:"24h"`
}

type SMTP struct {
	Enabled  bool          `yml:"enabled" env:"SMTP_ENABLED" default:"false"`
	Host     string        `yml:"host" env:"SMTP_HOST"`
	Port     int           `yml:"port" env:"SMTP_PORT" default:"587"`
	Username string        `yml:"username" env:"SMTP_USERNAME"`
	Password string        `env:"SMTP_PASSWORD"`
	From     string        `yml:"from" env:"SMTP_FROM" default:"nobody@addons.example.org"`
	SiteURL  string        `yml:"site_url" default:"http://localhost:8080"`
	Timeout  time.Duration `yml:"timeout" default:"10s"`
}

type RateLimit struct {
	// Flag is a ulule/limiter formatted rate, e.g. "10-M".
	Flag     string `yml:"flag" default:"10-M"`
	RedisURL string `yml:"redis_url" env:"REDIS_URL"`
}

type Cache struct {
	RatingsTTL time.Duration `yml:"ratings_ttl" default:"1m"`
}

// Load reads the YAML file pointed to by CONFIG_PATH. Values from an optional
// .env file are exported to the environment first so env overrides apply.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("cannot load .env file: %w", err)
	}

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		return nil, errors.New("CONFIG_PATH is not set")
	}

	if _, err := os.Stat(configPath); err != nil {
		return nil, fmt.Errorf("config file does not exist: %w", err)
	}

	var cfg Config
	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		return nil, fmt.Errorf("cannot read config: %w", err)
	}

	return &cfg, nil
}

func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}

	return cfg
}

// ConnString builds the PostgreSQL URL without query parameters.
func (p Postgres) ConnString() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s",
		p.Username, p.Password, p.Host, p.Port, p.Database,
	)
}
