package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	sq "github.com/Masterminds/squirrel"
	"github.com/YusovID/addon-reviews/internal/apperrors"
	"github.com/YusovID/addon-reviews/internal/domain"
	"github.com/jmoiron/sqlx"
)

var addonColumns = []string{"id", "guid", "slug", "name", "status", "is_listed", "disabled_by_user", "deleted"}

var versionColumns = []string{"id", "addon_id", "version", "status", "license_id", "deleted", "created"}

type AddonRepository struct {
	db  *sqlx.DB
	log *slog.Logger
	sq  sq.StatementBuilderType
}

func NewAddonRepository(db *sqlx.DB, log *slog.Logger) *AddonRepository {
	return &AddonRepository{
		db:  db,
		log: log,
		sq:  sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// GetAddon accepts a numeric id, a slug or a GUID. Digits-only references are ids.
func (r *AddonRepository) GetAddon(ctx context.Context, ref string) (*domain.Addon, error) {
	const op = "internal.repository.postgres.GetAddon"

	var where sq.Sqlizer
	if id, err := strconv.ParseInt(ref, 10, 64); err == nil {
		where = sq.Eq{"id": id}
	} else {
		where = sq.Or{sq.Eq{"slug": ref}, sq.Eq{"guid": ref}}
	}

	query, args, err := r.sq.Select(addonColumns...).
		From("addons").
		Where(where).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: failed to build query: %w", op, err)
	}

	var addon domain.Addon
	if err := r.db.GetContext(ctx, &addon, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w: addon '%s'", op, apperrors.ErrNotFound, ref)
		}

		return nil, fmt.Errorf("%s: failed to execute query: %w", op, err)
	}

	return &addon, nil
}

func (r *AddonRepository) GetAddonByID(ctx context.Context, ext sqlx.ExtContext, addonID int64) (*domain.Addon, error) {
	const op = "internal.repository.postgres.GetAddonByID"

	query, args, err := r.sq.Select(addonColumns...).
		From("addons").
		Where(sq.Eq{"id": addonID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: failed to build query: %w", op, err)
	}

	var addon domain.Addon
	if err := sqlx.GetContext(ctx, ext, &addon, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w: addon with id '%d'", op, apperrors.ErrNotFound, addonID)
		}

		return nil, fmt.Errorf("%s: failed to execute query: %w", op, err)
	}

	return &addon, nil
}

func (r *AddonRepository) GetVersion(ctx context.Context, versionID int64) (*domain.Version, error) {
	const op = "internal.repository.postgres.GetVersion"

	query, args, err := r.sq.Select(versionColumns...).
		From("versions").
		Where(sq.Eq{"id": versionID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: failed to build query: %w", op, err)
	}

	var version domain.Version
	if err := r.db.GetContext(ctx, &version, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w: version with id '%d'", op, apperrors.ErrNotFound, versionID)
		}

		return nil, fmt.Errorf("%s: failed to execute query: %w", op, err)
	}

	return &version, nil
}

func (r *AddonRepository) GetCurrentVersion(ctx context.Context, ext sqlx.ExtContext, addonID int64) (*domain.Version, error) {
	const op = "internal.repository.postgres.GetCurrentVersion"

	query, args, err := r.sq.Select(versionColumns...).
		From("versions").
		Where(sq.Eq{"addon_id": addonID, "deleted": false}).
		OrderBy("created DESC", "id DESC").
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: failed to build query: %w", op, err)
	}

	var version domain.Version
	if err := sqlx.GetContext(ctx, ext, &version, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w: no current version for addon '%d'", op, apperrors.ErrNotFound, addonID)
		}

		return nil, fmt.Errorf("%s: failed to execute query: %w", op, err)
	}

	return &version, nil
}

func (r *AddonRepository) IsAuthor(ctx context.Context, addonID, userID int64) (bool, error) {
	const op = "internal.repository.postgres.IsAuthor"

	if userID == 0 {
		return false, nil
	}

	query, args, err := r.sq.Select("1").
		Prefix("SELECT EXISTS (").
		From("addon_users").
		Where(sq.Eq{"addon_id": addonID, "user_id": userID}).
		Suffix(")").
		ToSql()
	if err != nil {
		return false, fmt.Errorf("%s: failed to build query: %w", op, err)
	}

	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, args...); err != nil {
		return false, fmt.Errorf("%s: failed to execute query: %w", op, err)
	}

	return exists, nil
}

func (r *AddonRepository) ListAuthors(ctx context.Context, addonID int64) ([]domain.User, error) {
	const op = "internal.repository.postgres.ListAuthors"

	query, args, err := r.sq.Select("u.id", "u.username", "u.email").
		From("users u").
		Join("addon_users au ON au.user_id = u.id").
		Where(sq.Eq{"au.addon_id": addonID}).
		OrderBy("u.id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: failed to build query: %w", op, err)
	}

	authors := []domain.User{}
	if err := r.db.SelectContext(ctx, &authors, query, args...); err != nil {
		return nil, fmt.Errorf("%s: failed to execute query: %w", op, err)
	}

	return authors, nil
}
