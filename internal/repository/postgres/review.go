package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/YusovID/addon-reviews/internal/apperrors"
	"github.com/YusovID/addon-reviews/internal/domain"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

const (
	constraintOneReply = "reviews_one_reply"

	msgDuplicateReview = "The same user can not leave a review on the same version more than once."
	msgDuplicateReply  = "This review already has a reply."
)

var reviewColumns = []string{
	"r.id", "r.addon_id", "r.version_id", "r.user_id", "r.reply_to", "r.rating", "r.title", "r.body",
	"r.ip_address", "r.editorreview", "r.is_latest", "r.deleted", "r.created", "r.modified",
}

type ReviewRepository struct {
	db  *sqlx.DB
	log *slog.Logger
	sq  sq.StatementBuilderType
}

func NewReviewRepository(db *sqlx.DB, log *slog.Logger) *ReviewRepository {
	return &ReviewRepository{
		db:  db,
		log: log,
		sq:  sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// selectReviews joins the author name, add-on slug and version string needed for serialization.
func (r *ReviewRepository) selectReviews() sq.SelectBuilder {
	columns := append(append([]string{}, reviewColumns...), "v.version AS version_string", "u.username", "a.slug AS addon_slug")

	return r.sq.Select(columns...).
		From("reviews r").
		Join("users u ON u.id = r.user_id").
		Join("addons a ON a.id = r.addon_id").
		LeftJoin("versions v ON v.id = r.version_id")
}

func (r *ReviewRepository) GetReview(ctx context.Context, ext sqlx.ExtContext, reviewID int64) (*domain.Review, error) {
	const op = "internal.repository.postgres.GetReview"

	return r.getReview(ctx, ext, op, reviewID, false)
}

func (r *ReviewRepository) GetReviewUnfiltered(ctx context.Context, ext sqlx.ExtContext, reviewID int64) (*domain.Review, error) {
	const op = "internal.repository.postgres.GetReviewUnfiltered"

	return r.getReview(ctx, ext, op, reviewID, true)
}

func (r *ReviewRepository) getReview(ctx context.Context, ext sqlx.ExtContext, op string, reviewID int64, withDeleted bool) (*domain.Review, error) {
	builder := r.selectReviews().Where(sq.Eq{"r.id": reviewID})
	if !withDeleted {
		builder = builder.Where(sq.Eq{"r.deleted": false})
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: failed to build query: %w", op, err)
	}

	var review domain.Review
	if err := sqlx.GetContext(ctx, ext, &review, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w: review with id '%d'", op, apperrors.ErrNotFound, reviewID)
		}

		return nil, fmt.Errorf("%s: failed to get review: %w", op, err)
	}

	reviews := []domain.Review{review}
	if err := r.attachReplies(ctx, ext, reviews, withDeleted); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &reviews[0], nil
}

func (r *ReviewRepository) ListByAddon(ctx context.Context, addonID int64, page domain.Page) ([]domain.Review, int, error) {
	const op = "internal.repository.postgres.ListByAddon"

	where := sq.And{
		sq.Eq{"r.addon_id": addonID, "r.reply_to": nil, "r.is_latest": true, "r.deleted": false},
	}

	return r.list(ctx, op, where, page, false)
}

func (r *ReviewRepository) ListByAddonWithDeleted(ctx context.Context, addonID int64, page domain.Page) ([]domain.Review, int, error) {
	const op = "internal.repository.postgres.ListByAddonWithDeleted"

	where := sq.And{
		sq.Eq{"r.addon_id": addonID, "r.reply_to": nil},
		sq.Or{sq.Eq{"r.is_latest": true}, sq.Eq{"r.deleted": true}},
	}

	return r.list(ctx, op, where, page, true)
}

func (r *ReviewRepository) ListByUser(ctx context.Context, userID int64, page domain.Page) ([]domain.Review, int, error) {
	const op = "internal.repository.postgres.ListByUser"

	where := sq.And{sq.Eq{"r.user_id": userID, "r.deleted": false}}

	return r.list(ctx, op, where, page, false)
}

func (r *ReviewRepository) ListByUserWithDeleted(ctx context.Context, userID int64, page domain.Page) ([]domain.Review, int, error) {
	const op = "internal.repository.postgres.ListByUserWithDeleted"

	where := sq.And{sq.Eq{"r.user_id": userID}}

	return r.list(ctx, op, where, page, true)
}

func (r *ReviewRepository) list(ctx context.Context, op string, where sq.And, page domain.Page, withDeleted bool) ([]domain.Review, int, error) {
	log := r.log.With(slog.String("op", op))

	countQuery, countArgs, err := r.sq.Select("COUNT(*)").
		From("reviews r").
		Where(where).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("%s: failed to build count query: %w", op, err)
	}

	var count int
	if err := r.db.GetContext(ctx, &count, countQuery, countArgs...); err != nil {
		return nil, 0, fmt.Errorf("%s: failed to count reviews: %w", op, err)
	}

	query, args, err := r.selectReviews().
		Where(where).
		OrderBy("r.created DESC", "r.id DESC").
		Limit(uint64(page.Size)).
		Offset(page.Offset()).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("%s: failed to build query: %w", op, err)
	}

	reviews := []domain.Review{}
	if err := r.db.SelectContext(ctx, &reviews, query, args...); err != nil {
		return nil, 0, fmt.Errorf("%s: failed to execute query: %w", op, err)
	}

	if err := r.attachReplies(ctx, r.db, reviews, withDeleted); err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}

	log.Debug("reviews listed", slog.Int("count", count), slog.Int("page_len", len(reviews)))

	return reviews, count, nil
}

// attachReplies loads the replies of the top-level reviews in one query and nests them.
func (r *ReviewRepository) attachReplies(ctx context.Context, ext sqlx.ExtContext, reviews []domain.Review, withDeleted bool) error {
	parentIDs := make([]int64, 0, len(reviews))
	for _, review := range reviews {
		if !review.IsReply() {
			parentIDs = append(parentIDs, review.ID)
		}
	}

	if len(parentIDs) == 0 {
		return nil
	}

	builder := r.selectReviews().Where(sq.Eq{"r.reply_to": parentIDs})
	if !withDeleted {
		builder = builder.Where(sq.Eq{"r.deleted": false})
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return fmt.Errorf("failed to build replies query: %w", err)
	}

	var replies []domain.Review
	if err := sqlx.SelectContext(ctx, ext, &replies, query, args...); err != nil {
		return fmt.Errorf("failed to select replies: %w", err)
	}

	mapRepliesToReviews(reviews, replies)

	return nil
}

func mapRepliesToReviews(reviews []domain.Review, replies []domain.Review) {
	byParent := make(map[int64]*domain.Review, len(reviews))
	for i := range reviews {
		byParent[reviews[i].ID] = &reviews[i]
	}

	for i := range replies {
		if parent, ok := byParent[replies[i].ReplyTo.Int64]; ok {
			reply := replies[i]
			parent.Reply = &reply
		}
	}
}

func (r *ReviewRepository) GroupedRatings(ctx context.Context, addonID int64) (map[int]int, error) {
	const op = "internal.repository.postgres.GroupedRatings"

	query, args, err := r.sq.Select("rating", "COUNT(*) AS total").
		From("reviews").
		Where(sq.Eq{"addon_id": addonID, "reply_to": nil, "is_latest": true, "deleted": false}).
		Where(sq.NotEq{"rating": nil}).
		GroupBy("rating").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: failed to build query: %w", op, err)
	}

	var rows []struct {
		Rating int `db:"rating"`
		Total  int `db:"total"`
	}
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("%s: failed to execute query: %w", op, err)
	}

	grouped := map[int]int{1: 0, 2: 0, 3: 0, 4: 0, 5: 0}
	for _, row := range rows {
		grouped[row.Rating] = row.Total
	}

	return grouped, nil
}

func (r *ReviewRepository) CreateReview(ctx context.Context, tx *sqlx.Tx, review *domain.Review) error {
	const op = "internal.repository.postgres.CreateReview"

	builder := r.sq.Insert("reviews").
		Columns("addon_id", "version_id", "user_id", "reply_to", "rating", "title", "body",
			"ip_address", "editorreview", "is_latest", "deleted").
		Values(review.AddonID, review.VersionID, review.UserID, review.ReplyTo, review.Rating, review.Title, review.Body,
			review.IPAddress, review.EditorReview, false, false).
		Suffix("RETURNING id, created, modified")

	if !review.Created.IsZero() {
		builder = r.sq.Insert("reviews").
			Columns("addon_id", "version_id", "user_id", "reply_to", "rating", "title", "body",
				"ip_address", "editorreview", "is_latest", "deleted", "created", "modified").
			Values(review.AddonID, review.VersionID, review.UserID, review.ReplyTo, review.Rating, review.Title, review.Body,
				review.IPAddress, review.EditorReview, false, false, review.Created, review.Created).
			Suffix("RETURNING id, created, modified")
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return fmt.Errorf("%s: failed to build insert query: %w", op, err)
	}

	if err := tx.QueryRowxContext(ctx, query, args...).Scan(&review.ID, &review.Created, &review.Modified); err != nil {
		if verr := reviewConflictError(err); verr != nil {
			return verr
		}

		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23503" {
			return fmt.Errorf("%s: %w: referenced row is missing", op, apperrors.ErrNotFound)
		}

		return fmt.Errorf("%s: failed to execute insert: %w", op, err)
	}

	return nil
}

// reviewConflictError maps violations of the one-review-per-version and
// one-reply-per-review indexes to validation errors.
func reviewConflictError(err error) error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) || pqErr.Code != uniqueViolation {
		return nil
	}

	switch pqErr.Constraint {
	case constraintOneReply:
		return apperrors.NewFieldError("", msgDuplicateReply)
	default:
		return apperrors.NewFieldError("", msgDuplicateReview)
	}
}

func (r *ReviewRepository) GetReviewForUpdate(ctx context.Context, tx *sqlx.Tx, reviewID int64) (*domain.Review, error) {
	const op = "internal.repository.postgres.GetReviewForUpdate"

	query, args, err := r.sq.Select(reviewColumns...).
		From("reviews r").
		Where(sq.Eq{"r.id": reviewID}).
		Suffix("FOR UPDATE").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: failed to build query: %w", op, err)
	}

	var review domain.Review
	if err := tx.GetContext(ctx, &review, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w: review with id '%d'", op, apperrors.ErrNotFound, reviewID)
		}

		return nil, fmt.Errorf("%s: failed to get review with lock: %w", op, err)
	}

	return &review, nil
}

func (r *ReviewRepository) GetReplyForUpdate(ctx context.Context, tx *sqlx.Tx, reviewID int64) (*domain.Review, error) {
	const op = "internal.repository.postgres.GetReplyForUpdate"

	query, args, err := r.sq.Select(reviewColumns...).
		From("reviews r").
		Where(sq.Eq{"r.reply_to": reviewID}).
		Suffix("FOR UPDATE").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s: failed to build query: %w", op, err)
	}

	var reply domain.Review
	if err := tx.GetContext(ctx, &reply, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w: reply to review '%d'", op, apperrors.ErrNotFound, reviewID)
		}

		return nil, fmt.Errorf("%s: failed to get reply with lock: %w", op, err)
	}

	return &reply, nil
}

func (r *ReviewRepository) UpdateContent(ctx context.Context, tx *sqlx.Tx, review *domain.Review) error {
	const op = "internal.repository.postgres.UpdateContent"

	query, args, err := r.sq.Update("reviews").
		Set("title", review.Title).
		Set("body", review.Body).
		Set("rating", review.Rating).
		Set("editorreview", review.EditorReview).
		Set("deleted", review.Deleted).
		Set("modified", sq.Expr("NOW()")).
		Where(sq.Eq{"id": review.ID}).
		Suffix("RETURNING modified").
		ToSql()
	if err != nil {
		return fmt.Errorf("%s: failed to build update query: %w", op, err)
	}

	if err := tx.QueryRowxContext(ctx, query, args...).Scan(&review.Modified); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%s: %w: review with id '%d'", op, apperrors.ErrNotFound, review.ID)
		}

		if verr := reviewConflictError(err); verr != nil {
			return verr
		}

		return fmt.Errorf("%s: failed to execute update: %w", op, err)
	}

	return nil
}

func (r *ReviewRepository) SetDeleted(ctx context.Context, tx *sqlx.Tx, reviewIDs []int64, deleted bool) error {
	const op = "internal.repository.postgres.SetDeleted"

	if len(reviewIDs) == 0 {
		return nil
	}

	query, args, err := r.sq.Update("reviews").
		Set("deleted", deleted).
		Set("modified", sq.Expr("NOW()")).
		Where(sq.Eq{"id": reviewIDs}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%s: failed to build update query: %w", op, err)
	}

	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		if verr := reviewConflictError(err); verr != nil {
			return verr
		}

		return fmt.Errorf("%s: failed to execute update: %w", op, err)
	}

	return nil
}

func (r *ReviewRepository) HardDelete(ctx context.Context, tx *sqlx.Tx, reviewID int64) error {
	const op = "internal.repository.postgres.HardDelete"

	query, args, err := r.sq.Delete("reviews").
		Where(sq.Eq{"id": reviewID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%s: failed to build delete query: %w", op, err)
	}

	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s: failed to execute delete: %w", op, err)
	}

	if rowsAffected, err := res.RowsAffected(); err == nil && rowsAffected == 0 {
		return fmt.Errorf("%s: %w: review with id '%d'", op, apperrors.ErrNotFound, reviewID)
	}

	return nil
}

func (r *ReviewRepository) SetEditorReview(ctx context.Context, tx *sqlx.Tx, reviewID int64, pending bool) error {
	const op = "internal.repository.postgres.SetEditorReview"

	query, args, err := r.sq.Update("reviews").
		Set("editorreview", pending).
		Where(sq.Eq{"id": reviewID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%s: failed to build update query: %w", op, err)
	}

	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s: failed to execute update: %w", op, err)
	}

	if rowsAffected, err := res.RowsAffected(); err == nil && rowsAffected == 0 {
		return fmt.Errorf("%s: %w: review with id '%d'", op, apperrors.ErrNotFound, reviewID)
	}

	return nil
}

func (r *ReviewRepository) SetCreated(ctx context.Context, tx *sqlx.Tx, reviewID int64, created time.Time) error {
	const op = "internal.repository.postgres.SetCreated"

	query, args, err := r.sq.Update("reviews").
		Set("created", created).
		Where(sq.Eq{"id": reviewID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%s: failed to build update query: %w", op, err)
	}

	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s: failed to execute update: %w", op, err)
	}

	if rowsAffected, err := res.RowsAffected(); err == nil && rowsAffected == 0 {
		return fmt.Errorf("%s: %w: review with id '%d'", op, apperrors.ErrNotFound, reviewID)
	}

	return nil
}

func (r *ReviewRepository) RecomputeIsLatest(ctx context.Context, tx *sqlx.Tx, userID, addonID int64) error {
	const op = "internal.repository.postgres.RecomputeIsLatest"

	latest := sq.Expr(`(id = COALESCE((
		SELECT id FROM reviews
		WHERE user_id = ? AND addon_id = ? AND reply_to IS NULL AND deleted = FALSE
		ORDER BY created DESC, id DESC
		LIMIT 1), 0))`, userID, addonID)

	query, args, err := r.sq.Update("reviews").
		Set("is_latest", latest).
		Where(sq.Eq{"user_id": userID, "addon_id": addonID, "reply_to": nil}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%s: failed to build update query: %w", op, err)
	}

	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("%s: failed to execute update: %w", op, err)
	}

	return nil
}
