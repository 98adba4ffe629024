package postgres

import (
	"fmt"
	"log/slog"

	"github.com/Masterminds/squirrel"
	"github.com/YusovID/addon-reviews/internal/config"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

const uniqueViolation = "23505"

type Postgres struct {
	db  *sqlx.DB
	log *slog.Logger
	sq  squirrel.StatementBuilderType
}

func NewDB(cfg config.Postgres, log *slog.Logger) (*Postgres, error) {
	db, err := sqlx.Connect("postgres", cfg.ConnString()+"?sslmode=disable")
	if err != nil {
		return nil, fmt.Errorf("can't connect to database: %v", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	return &Postgres{
		db:  db,
		log: log,
		sq:  squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}, nil
}

func (p *Postgres) DB() *sqlx.DB {
	return p.db
}
