package postgres

import (
	"context"
	"fmt"
	"log/slog"

	sq "github.com/Masterminds/squirrel"
	"github.com/YusovID/addon-reviews/internal/domain"
	"github.com/jmoiron/sqlx"
)

type ActivityLogRepository struct {
	log *slog.Logger
	sq  sq.StatementBuilderType
}

func NewActivityLogRepository(log *slog.Logger) *ActivityLogRepository {
	return &ActivityLogRepository{
		log: log,
		sq:  sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

func (r *ActivityLogRepository) Record(ctx context.Context, ext sqlx.ExtContext, entry *domain.ActivityLog) error {
	const op = "internal.repository.postgres.Record"

	query, args, err := r.sq.Insert("activity_log").
		Columns("user_id", "action", "addon_id", "review_id", "license_id").
		Values(entry.UserID, entry.Action, entry.AddonID, entry.ReviewID, entry.LicenseID).
		Suffix("RETURNING id, created").
		ToSql()
	if err != nil {
		return fmt.Errorf("%s: failed to build insert query: %w", op, err)
	}

	if err := ext.QueryRowxContext(ctx, query, args...).Scan(&entry.ID, &entry.Created); err != nil {
		return fmt.Errorf("%s: failed to execute insert: %w", op, err)
	}

	r.log.Debug("activity recorded",
		slog.String("op", op),
		slog.Int("action", int(entry.Action)),
		slog.Int64("id", entry.ID),
	)

	return nil
}

func (r *ActivityLogRepository) ListByLicense(ctx context.Context, ext sqlx.ExtContext, action domain.ActivityAction, licenseID int64) ([]domain.ActivityLog, error) {
	const op = "internal.repository.postgres.ListByLicense"

	query, args, err := r.sq.Select("id", "user_id", "action", "addon_id", "review_id", "license_id", "created").
		From("activity_log").
		Where(sq.Eq{"action": action, "license_id": licenseID}).
		OrderBy("id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: failed to build query: %w", op, err)
	}

	entries := []domain.ActivityLog{}
	if err := sqlx.SelectContext(ctx, ext, &entries, query, args...); err != nil {
		return nil, fmt.Errorf("%s: failed to execute query: %w", op, err)
	}

	return entries, nil
}
