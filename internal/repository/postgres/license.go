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

type LicenseRepository struct {
	log *slog.Logger
	sq  sq.StatementBuilderType
}

func NewLicenseRepository(log *slog.Logger) *LicenseRepository {
	return &LicenseRepository{
		log: log,
		sq:  sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

func (r *LicenseRepository) GetLicenseForUpdate(ctx context.Context, tx *sqlx.Tx, licenseID int64) (*domain.License, error) {
	const op = "internal.repository.postgres.GetLicenseForUpdate"

	query, args, err := r.sq.Select("id", "name_id", "text_id", "on_form", "builtin").
		From("licenses").
		Where(sq.Eq{"id": licenseID}).
		Suffix("FOR UPDATE").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: failed to build query: %w", op, err)
	}

	var license domain.License
	if err := tx.GetContext(ctx, &license, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w: license with id '%d'", op, apperrors.ErrNotFound, licenseID)
		}

		return nil, fmt.Errorf("%s: failed to get license with lock: %w", op, err)
	}

	return &license, nil
}

func (r *LicenseRepository) GetTranslation(ctx context.Context, tx *sqlx.Tx, translationID int64, locale string) (*domain.Translation, error) {
	const op = "internal.repository.postgres.GetTranslation"

	query, args, err := r.sq.Select("id", "locale", "localized_string").
		From("translations").
		Where(sq.Eq{"id": translationID, "locale": locale}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: failed to build query: %w", op, err)
	}

	var translation domain.Translation
	if err := tx.GetContext(ctx, &translation, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w: translation '%d' in '%s'", op, apperrors.ErrNotFound, translationID, locale)
		}

		return nil, fmt.Errorf("%s: failed to execute query: %w", op, err)
	}

	return &translation, nil
}

func (r *LicenseRepository) UpdateFlags(ctx context.Context, tx *sqlx.Tx, license *domain.License) error {
	const op = "internal.repository.postgres.UpdateFlags"

	query, args, err := r.sq.Update("licenses").
		Set("on_form", license.OnForm).
		Set("builtin", license.Builtin).
		Where(sq.Eq{"id": license.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%s: failed to build update query: %w", op, err)
	}

	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s: failed to execute update: %w", op, err)
	}

	if rowsAffected, err := res.RowsAffected(); err == nil && rowsAffected == 0 {
		return fmt.Errorf("%s: %w: license with id '%d'", op, apperrors.ErrNotFound, license.ID)
	}

	return nil
}

func (r *LicenseRepository) CloneLicense(ctx context.Context, tx *sqlx.Tx, license *domain.License, onForm bool) (*domain.License, error) {
	const op = "internal.repository.postgres.CloneLicense"

	nameID, err := r.copyTranslation(ctx, tx, license.NameID)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to copy name: %w", op, err)
	}

	textID, err := r.copyTranslation(ctx, tx, license.TextID)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to copy text: %w", op, err)
	}

	query, args, err := r.sq.Insert("licenses").
		Columns("name_id", "text_id", "on_form", "builtin").
		Values(nameID, textID, onForm, license.Builtin).
		Suffix("RETURNING id, name_id, text_id, on_form, builtin").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: failed to build insert query: %w", op, err)
	}

	var clone domain.License
	if err := tx.GetContext(ctx, &clone, query, args...); err != nil {
		return nil, fmt.Errorf("%s: failed to execute insert: %w", op, err)
	}

	return &clone, nil
}

// copyTranslation duplicates every locale of a translation under a fresh id.
func (r *LicenseRepository) copyTranslation(ctx context.Context, tx *sqlx.Tx, src sql.NullInt64) (sql.NullInt64, error) {
	if !src.Valid {
		return sql.NullInt64{}, nil
	}

	var newID int64
	if err := tx.GetContext(ctx, &newID, "SELECT nextval('translations_id_seq')"); err != nil {
		return sql.NullInt64{}, fmt.Errorf("failed to allocate translation id: %w", err)
	}

	const copyQuery = `INSERT INTO translations (id, locale, localized_string)
		SELECT $1, locale, localized_string FROM translations WHERE id = $2`

	if _, err := tx.ExecContext(ctx, copyQuery, newID, src.Int64); err != nil {
		return sql.NullInt64{}, fmt.Errorf("failed to copy translations: %w", err)
	}

	return sql.NullInt64{Int64: newID, Valid: true}, nil
}

func (r *LicenseRepository) SetVersionLicense(ctx context.Context, tx *sqlx.Tx, versionID, licenseID int64) error {
	const op = "internal.repository.postgres.SetVersionLicense"

	query, args, err := r.sq.Update("versions").
		Set("license_id", licenseID).
		Where(sq.Eq{"id": versionID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%s: failed to build update query: %w", op, err)
	}

	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s: failed to execute update: %w", op, err)
	}

	if rowsAffected, err := res.RowsAffected(); err == nil && rowsAffected == 0 {
		return fmt.Errorf("%s: %w: version with id '%d'", op, apperrors.ErrNotFound, versionID)
	}

	return nil
}

func (r *LicenseRepository) UpdateTranslations(ctx context.Context, tx *sqlx.Tx, translationID int64, locales []string, value string) (int64, error) {
	const op = "internal.repository.postgres.UpdateTranslations"

	query, args, err := r.sq.Update("translations").
		Set("localized_string", value).
		Where(sq.Eq{"id": translationID, "locale": locales}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("%s: failed to build update query: %w", op, err)
	}

	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("%s: failed to execute update: %w", op, err)
	}

	return res.RowsAffected()
}

func (r *LicenseRepository) DeleteTranslations(ctx context.Context, tx *sqlx.Tx, translationID int64, locales []string) (int64, error) {
	const op = "internal.repository.postgres.DeleteTranslations"

	query, args, err := r.sq.Delete("translations").
		Where(sq.Eq{"id": translationID, "locale": locales}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("%s: failed to build delete query: %w", op, err)
	}

	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("%s: failed to execute delete: %w", op, err)
	}

	return res.RowsAffected()
}
