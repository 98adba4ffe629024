package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/YusovID/addon-reviews/internal/config"
	"github.com/YusovID/addon-reviews/pkg/logger/sl"
	"github.com/YusovID/addon-reviews/pkg/logger/slogpretty"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/ilyakaznacheev/cleanenv"
)

const usage = `usage: migrator [up|down|version]

commands:
  up        apply the pending review schema migrations (default)
  down      roll the review schema back completely
  version   print the applied schema version

environment:
  CONFIG_PATH        service config; only its env and postgres sections are read
  MIGRATIONS_PATH    directory holding the *.up.sql and *.down.sql files
  MIGRATIONS_TABLE   bookkeeping table, defaults to review_schema_migrations`

const defaultMigrationsTable = "review_schema_migrations"

type migratorConfig struct {
	Env             string
	ConnStr         string
	MigrationsPath  string
	MigrationsTable string
}

func main() {
	cmd := "up"
	if len(os.Args) > 1 {
		cmd = os.Args[1]
	}

	if cmd == "-h" || cmd == "--help" || cmd == "help" {
		fmt.Println(usage)
		return
	}

	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "migrator: %s\n\n%s\n", err, usage)
		os.Exit(2)
	}

	log := slogpretty.SetupLogger(cfg.Env).With(slog.String("command", cmd), slog.String("table", cfg.MigrationsTable))

	if err := run(log, cfg, cmd); err != nil {
		log.Error("review schema migration failed", sl.Err(err))
		os.Exit(1)
	}
}

func run(log *slog.Logger, cfg *migratorConfig, cmd string) error {
	m, err := migrate.New(
		"file://"+cfg.MigrationsPath,
		fmt.Sprintf("%s?sslmode=disable&x-migrations-table=%s", cfg.ConnStr, cfg.MigrationsTable),
	)
	if err != nil {
		return fmt.Errorf("failed to open migration source or database: %w", err)
	}
	defer func() {
		if srcErr, dbErr := m.Close(); srcErr != nil || dbErr != nil {
			log.Warn("failed to close migrator", sl.Err(errors.Join(srcErr, dbErr)))
		}
	}()

	switch cmd {
	case "up":
		return up(log, m)
	case "down":
		return down(log, m)
	case "version":
		return version(log, m)
	default:
		return fmt.Errorf("unknown command '%s'\n%s", cmd, usage)
	}
}

func loadConfig() (*migratorConfig, error) {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		return nil, errors.New("CONFIG_PATH is not set")
	}

	migrationsPath := os.Getenv("MIGRATIONS_PATH")
	if migrationsPath == "" {
		return nil, errors.New("MIGRATIONS_PATH is not set")
	}

	migrationsTable := os.Getenv("MIGRATIONS_TABLE")
	if migrationsTable == "" {
		migrationsTable = defaultMigrationsTable
	}

	// API secrets are not required to migrate the schema.
	var cfg struct {
		Env      string          `yml:"env" default:"local"`
		Postgres config.Postgres `yml:"postgres"`
	}
	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		return nil, fmt.Errorf("failed to read database settings from '%s': %w", configPath, err)
	}

	return &migratorConfig{
		Env:             cfg.Env,
		ConnStr:         cfg.Postgres.ConnString(),
		MigrationsPath:  migrationsPath,
		MigrationsTable: migrationsTable,
	}, nil
}

func up(log *slog.Logger, m *migrate.Migrate) error {
	err := m.Up()
	switch {
	case errors.Is(err, migrate.ErrNoChange):
		log.Info("review schema is already up to date")
		return nil
	case err != nil:
		return fmt.Errorf("failed to apply review schema migrations: %w", err)
	}

	log.Info("review schema migrated")

	return nil
}

func down(log *slog.Logger, m *migrate.Migrate) error {
	err := m.Down()
	switch {
	case errors.Is(err, migrate.ErrNoChange):
		log.Info("review schema has nothing to roll back")
		return nil
	case err != nil:
		return fmt.Errorf("failed to roll back review schema: %w", err)
	}

	log.Info("review schema rolled back")

	return nil
}

func version(log *slog.Logger, m *migrate.Migrate) error {
	v, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		log.Info("review schema has no migrations applied")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read review schema version: %w", err)
	}

	log.Info("review schema version", slog.Uint64("version", uint64(v)), slog.Bool("dirty", dirty))

	return nil
}
