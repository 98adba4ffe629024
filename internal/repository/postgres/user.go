package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	sq "github.com/Masterminds/squirrel"
	"github.com/YusovID/addon-reviews/internal/apperrors"
	"github.com/YusovID/addon-reviews/internal/domain"
	"github.com/jmoiron/sqlx"
)

type UserRepository struct {
	db  *sqlx.DB
	log *slog.Logger
	sq  sq.StatementBuilderType
}

func NewUserRepository(db *sqlx.DB, log *slog.Logger) *UserRepository {
	return &UserRepository{
		db:  db,
		log: log,
		sq:  sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

func (ur *UserRepository) GetUser(ctx context.Context, userID int64) (*domain.User, error) {
	const op = "internal.repository.postgres.GetUser"

	query, args, err := ur.sq.Select("id", "username", "email").
		From("users").
		Where(sq.Eq{"id": userID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: failed to build query: %w", op, err)
	}

	var user domain.User
	if err := ur.db.GetContext(ctx, &user, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w: user with id '%d'", op, apperrors.ErrNotFound, userID)
		}

		return nil, fmt.Errorf("%s: failed to execute query: %w", op, err)
	}

	return &user, nil
}

func (ur *UserRepository) GetPermissions(ctx context.Context, userID int64) ([]string, error) {
	const op = "internal.repository.postgres.GetPermissions"

	query, args, err := ur.sq.Select("permission").
		From("user_permissions").
		Where(sq.Eq{"user_id": userID}).
		OrderBy("permission").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: failed to build query: %w", op, err)
	}

	permissions := []string{}
	if err := ur.db.SelectContext(ctx, &permissions, query, args...); err != nil {
		return nil, fmt.Errorf("%s: failed to execute query: %w", op, err)
	}

	return permissions, nil
}
