package postgres

import (
	"context"
	"fmt"
	"log/slog"

	sq "github.com/Masterminds/squirrel"
	"github.com/YusovID/addon-reviews/internal/domain"
	"github.com/jmoiron/sqlx"
)

type FlagRepository struct {
	db  *sqlx.DB
	log *slog.Logger
	sq  sq.StatementBuilderType
}

func NewFlagRepository(db *sqlx.DB, log *slog.Logger) *FlagRepository {
	return &FlagRepository{
		db:  db,
		log: log,
		sq:  sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// UpsertFlag relies on the (review_id, user_id) unique key so concurrent submissions
// from the same user collapse into one row.
func (r *FlagRepository) UpsertFlag(ctx context.Context, tx *sqlx.Tx, flag *domain.ReviewFlag) (*domain.ReviewFlag, error) {
	const op = "internal.repository.postgres.UpsertFlag"

	query, args, err := r.sq.Insert("review_flags").
		Columns("review_id", "user_id", "flag", "note").
		Values(flag.ReviewID, flag.UserID, flag.Flag, flag.Note).
		Suffix(`ON CONFLICT (review_id, user_id) DO UPDATE
			SET flag = EXCLUDED.flag, note = EXCLUDED.note, modified = NOW()
			RETURNING id, review_id, user_id, flag, note, created, modified`).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: failed to build upsert query: %w", op, err)
	}

	var stored domain.ReviewFlag
	if err := tx.GetContext(ctx, &stored, query, args...); err != nil {
		return nil, fmt.Errorf("%s: failed to execute upsert: %w", op, err)
	}

	return &stored, nil
}

func (r *FlagRepository) ListByReview(ctx context.Context, reviewID int64) ([]domain.ReviewFlag, error) {
	const op = "internal.repository.postgres.ListByReview"

	query, args, err := r.sq.Select("id", "review_id", "user_id", "flag", "note", "created", "modified").
		From("review_flags").
		Where(sq.Eq{"review_id": reviewID}).
		OrderBy("id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: failed to build query: %w", op, err)
	}

	flags := []domain.ReviewFlag{}
	if err := r.db.SelectContext(ctx, &flags, query, args...); err != nil {
		return nil, fmt.Errorf("%s: failed to execute query: %w", op, err)
	}

	return flags, nil
}
