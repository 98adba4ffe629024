package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/YusovID/addon-reviews/internal/apperrors"
	"github.com/YusovID/addon-reviews/internal/authz"
	"github.com/YusovID/addon-reviews/internal/domain"
	"github.com/YusovID/addon-reviews/internal/moderation"
	"github.com/YusovID/addon-reviews/internal/notify"
	"github.com/YusovID/addon-reviews/internal/repository"
	"github.com/YusovID/addon-reviews/pkg/api"
	"github.com/YusovID/addon-reviews/pkg/logger/sl"
	"github.com/jmoiron/sqlx"
)

const (
	DefaultPageSize = 25
	MaxPageSize     = 50
	MaxTitleLength  = 255

	FlagAcceptedMessage = "Thanks; this review has been flagged for editor approval."
)

// ReviewInput is the body of a new top-level review.
type ReviewInput struct {
	Body    *string
	Title   *string
	Rating  *int
	Version *int64
}

// ReviewPatch holds the fields of a partial edit; nil fields are left untouched.
type ReviewPatch struct {
	Body    *string
	Title   *string
	Rating  *int
	Version *int64
}

type ReplyInput struct {
	Body  *string
	Title *string
}

type ReviewService interface {
	ListReviews(ctx context.Context, caller domain.Caller, scope domain.ReviewScope, filter domain.ListFilter, page domain.Page, withGroupedRatings bool) (*api.ReviewList, error)
	GetReview(ctx context.Context, caller domain.Caller, addonRef string, reviewID int64) (interface{}, error)
	CreateReview(ctx context.Context, caller domain.Caller, addonRef string, in ReviewInput) (*api.Review, error)
	ReplyToReview(ctx context.Context, caller domain.Caller, addonRef string, reviewID int64, in ReplyInput) (*api.Reply, bool, error)
	EditReview(ctx context.Context, caller domain.Caller, addonRef string, reviewID int64, patch ReviewPatch) (interface{}, error)
	DeleteReview(ctx context.Context, caller domain.Caller, addonRef string, reviewID int64, hard bool) error
	UndeleteReview(ctx context.Context, caller domain.Caller, addonRef string, reviewID int64) (interface{}, error)
	FlagReview(ctx context.Context, caller domain.Caller, addonRef string, reviewID int64, reason domain.FlagReason, note string) (*domain.ReviewFlag, error)
}

// RatingsCache is told when the ratings of an add-on may have changed.
type RatingsCache interface {
	Forget(addonID int64)
}

type noopRatingsCache struct{}

func (noopRatingsCache) Forget(int64) {}

// ReviewRepositories bundles the stores the review workflow reads and writes.
type ReviewRepositories struct {
	Query    repository.ReviewQueryRepository
	Audit    repository.ReviewAuditRepository
	Command  repository.ReviewCommandRepository
	Flags    repository.FlagRepository
	Addons   repository.AddonRepository
	Users    repository.UserRepository
	Activity repository.ActivityLogRepository
}

type ReviewServiceImpl struct {
	BaseService

	repos    ReviewRepositories
	notifier notify.Notifier
	ratings  RatingsCache
	siteURL  string
}

func NewReviewService(
	db Transactor,
	log *slog.Logger,
	repos ReviewRepositories,
	notifier notify.Notifier,
	ratings RatingsCache,
	siteURL string,
) *ReviewServiceImpl {
	if ratings == nil {
		ratings = noopRatingsCache{}
	}

	return &ReviewServiceImpl{
		BaseService: NewBaseService(db, log),
		repos:       repos,
		notifier:    notifier,
		ratings:     ratings,
		siteURL:     siteURL,
	}
}

func normalizePage(page domain.Page) domain.Page {
	if page.Number < 1 {
		page.Number = 1
	}

	if page.Size < 1 {
		page.Size = DefaultPageSize
	}

	if page.Size > MaxPageSize {
		page.Size = MaxPageSize
	}

	return page
}

func forbidden(d authz.Decision) error {
	return &apperrors.ForbiddenError{Reason: d.Reason}
}

// loadAddon resolves the add-on reference and whether the caller is one of its authors.
// Deleted add-ons resolve to a not-found error.
func (s *ReviewServiceImpl) loadAddon(ctx context.Context, caller domain.Caller, ref string) (*domain.Addon, bool, error) {
	addon, err := s.repos.Addons.GetAddon(ctx, ref)
	if err != nil {
		return nil, false, err
	}

	if addon.Deleted {
		return nil, false, fmt.Errorf("%w: addon '%s'", apperrors.ErrNotFound, ref)
	}

	isAuthor, err := s.repos.Addons.IsAuthor(ctx, addon.ID, caller.UserID)
	if err != nil {
		return nil, false, fmt.Errorf("failed to check authorship: %w", err)
	}

	return addon, isAuthor, nil
}

// loadReadableAddon hides add-ons the caller may not browse behind a not-found error.
func (s *ReviewServiceImpl) loadReadableAddon(ctx context.Context, caller domain.Caller, ref string) (*domain.Addon, error) {
	addon, isAuthor, err := s.loadAddon(ctx, caller, ref)
	if err != nil {
		return nil, err
	}

	if !authz.Authorize(caller, authz.ActionViewAddon, authz.Resource{Addon: addon, IsAddonAuthor: isAuthor}).Allowed {
		return nil, fmt.Errorf("%w: addon '%s'", apperrors.ErrNotFound, ref)
	}

	return addon, nil
}

func (s *ReviewServiceImpl) ListReviews(
	ctx context.Context,
	caller domain.Caller,
	scope domain.ReviewScope,
	filter domain.ListFilter,
	page domain.Page,
	withGroupedRatings bool,
) (*api.ReviewList, error) {
	const op = "internal.service.review.ListReviews"
	log := s.log.With(slog.String("op", op), slog.String("filter", string(filter)))

	if scope.AddonRef == "" && scope.UserID == 0 {
		return nil, fmt.Errorf("%s: %w", op, apperrors.ErrParse)
	}

	page = normalizePage(page)

	// with_deleted is silently ignored for callers who may not see deleted reviews
	withDeleted := filter == domain.FilterWithDeleted &&
		authz.Authorize(caller, authz.ActionViewDeleted, authz.Resource{}).Allowed

	var (
		reviews []domain.Review
		count   int
		grouped map[int]int
		err     error
	)

	if scope.AddonRef != "" {
		addon, err := s.loadReadableAddon(ctx, caller, scope.AddonRef)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		if withDeleted {
			reviews, count, err = s.repos.Audit.ListByAddonWithDeleted(ctx, addon.ID, page)
		} else {
			reviews, count, err = s.repos.Query.ListByAddon(ctx, addon.ID, page)
		}
		if err != nil {
			return nil, fmt.Errorf("%s: failed to list reviews: %w", op, err)
		}

		if withGroupedRatings {
			grouped, err = s.repos.Query.GroupedRatings(ctx, addon.ID)
			if err != nil {
				return nil, fmt.Errorf("%s: failed to get grouped ratings: %w", op, err)
			}
		}
	} else {
		if _, err := s.repos.Users.GetUser(ctx, scope.UserID); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		if withDeleted {
			reviews, count, err = s.repos.Audit.ListByUserWithDeleted(ctx, scope.UserID, page)
		} else {
			reviews, count, err = s.repos.Query.ListByUser(ctx, scope.UserID, page)
		}
		if err != nil {
			return nil, fmt.Errorf("%s: failed to list reviews: %w", op, err)
		}
	}

	log.Debug("reviews listed", slog.Int("count", count), slog.Bool("with_deleted", withDeleted))

	results := make([]interface{}, 0, len(reviews))
	for i := range reviews {
		results = append(results, toAPI(caller, &reviews[i]))
	}

	return &api.ReviewList{
		Count:          count,
		Page:           page.Number,
		PageSize:       page.Size,
		Results:        results,
		GroupedRatings: grouped,
	}, nil
}

func (s *ReviewServiceImpl) GetReview(ctx context.Context, caller domain.Caller, addonRef string, reviewID int64) (interface{}, error) {
	const op = "internal.service.review.GetReview"

	addon, err := s.loadReadableAddon(ctx, caller, addonRef)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var review *domain.Review

	err = s.transaction(ctx, op, func(tx *sqlx.Tx) error {
		var err error

		if authz.Authorize(caller, authz.ActionViewDeleted, authz.Resource{}).Allowed {
			review, err = s.repos.Audit.GetReviewUnfiltered(ctx, tx, reviewID)
		} else {
			review, err = s.repos.Query.GetReview(ctx, tx, reviewID)
		}

		return err
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if review.AddonID != addon.ID {
		return nil, fmt.Errorf("%s: %w: review '%d' does not belong to addon '%s'", op, apperrors.ErrNotFound, reviewID, addonRef)
	}

	return toAPI(caller, review), nil
}

func (s *ReviewServiceImpl) CreateReview(ctx context.Context, caller domain.Caller, addonRef string, in ReviewInput) (*api.Review, error) {
	const op = "internal.service.review.CreateReview"
	log := s.log.With(slog.String("op", op), slog.Int64("user_id", caller.UserID), slog.String("addon", addonRef))

	if caller.IsAnonymous() {
		return nil, fmt.Errorf("%s: %w", op, apperrors.ErrUnauthenticated)
	}

	addon, isAuthor, err := s.loadAddon(ctx, caller, addonRef)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if d := authz.Authorize(caller, authz.ActionCreate, authz.Resource{Addon: addon, IsAddonAuthor: isAuthor}); !d.Allowed {
		return nil, fmt.Errorf("%s: %w", op, forbidden(d))
	}

	if in.Version == nil {
		return nil, apperrors.NewFieldError("version", "This field is required.")
	}

	version, err := s.repos.Addons.GetVersion(ctx, *in.Version)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NewFieldError("version", fmt.Sprintf("Invalid pk \"%d\" - object does not exist.", *in.Version))
		}

		return nil, fmt.Errorf("%s: failed to get version: %w", op, err)
	}

	if version.AddonID != addon.ID || !version.IsPublic() {
		return nil, apperrors.NewFieldError("version", "Version does not exist on this add-on or is not public.")
	}

	if err := validateRating(in.Rating, true); err != nil {
		return nil, err
	}

	if err := validateTitle(in.Title); err != nil {
		return nil, err
	}

	review := &domain.Review{
		AddonID:   addon.ID,
		VersionID: sql.NullInt64{Int64: version.ID, Valid: true},
		UserID:    caller.UserID,
		Rating:    sql.NullInt16{Int16: int16(*in.Rating), Valid: true},
		Title:     optionalText(in.Title),
		Body:      cleanBody(in.Body),
		IPAddress: caller.IPAddress,
	}
	review.EditorReview = hasLink(review)

	var created *domain.Review

	err = s.transaction(ctx, op, func(tx *sqlx.Tx) error {
		if err := s.repos.Command.CreateReview(ctx, tx, review); err != nil {
			return fmt.Errorf("%s: failed to create review: %w", op, err)
		}

		if err := s.repos.Command.RecomputeIsLatest(ctx, tx, review.UserID, review.AddonID); err != nil {
			return fmt.Errorf("%s: failed to recompute latest: %w", op, err)
		}

		if review.EditorReview {
			if err := s.autoFlag(ctx, tx, review.ID, caller.UserID); err != nil {
				return fmt.Errorf("%s: %w", op, err)
			}
		}

		if err := s.record(ctx, tx, caller, domain.ActionAddReview, review); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}

		var err error
		created, err = s.repos.Query.GetReview(ctx, tx, review.ID)

		return err
	})
	if err != nil {
		return nil, err
	}

	reviewWritesTotal.WithLabelValues("create").Inc()
	s.ratings.Forget(addon.ID)
	log.Info("review created", slog.Int64("review_id", created.ID), slog.Bool("editorreview", created.EditorReview))

	s.notifyAuthors(ctx, addon, created)

	return toAPIReview(caller, created), nil
}

// ReplyToReview creates the developer reply, or rewrites the existing one. The
// boolean result reports whether a new reply was created.
func (s *ReviewServiceImpl) ReplyToReview(ctx context.Context, caller domain.Caller, addonRef string, reviewID int64, in ReplyInput) (*api.Reply, bool, error) {
	const op = "internal.service.review.ReplyToReview"
	log := s.log.With(slog.String("op", op), slog.Int64("user_id", caller.UserID), slog.Int64("review_id", reviewID))

	if caller.IsAnonymous() {
		return nil, false, fmt.Errorf("%s: %w", op, apperrors.ErrUnauthenticated)
	}

	addon, isAuthor, err := s.loadAddon(ctx, caller, addonRef)
	if err != nil {
		return nil, false, fmt.Errorf("%s: %w", op, err)
	}

	var (
		parent  *domain.Review
		reply   *domain.Review
		created bool
	)

	err = s.transaction(ctx, op, func(tx *sqlx.Tx) error {
		var err error

		parent, err = s.repos.Command.GetReviewForUpdate(ctx, tx, reviewID)
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}

		if parent.Deleted || parent.AddonID != addon.ID {
			return fmt.Errorf("%s: %w: review with id '%d'", op, apperrors.ErrNotFound, reviewID)
		}

		if d := authz.Authorize(caller, authz.ActionReply, authz.Resource{Addon: addon, Review: parent, IsAddonAuthor: isAuthor}); !d.Allowed {
			return fmt.Errorf("%s: %w", op, forbidden(d))
		}

		if parent.IsReply() {
			return &apperrors.ValidationError{Message: "Can not reply to a review that is already a reply."}
		}

		body := cleanBody(in.Body)
		if !body.Valid || strings.TrimSpace(body.String) == "" {
			return apperrors.NewFieldError("body", "This field is required.")
		}

		if err := validateTitle(in.Title); err != nil {
			return err
		}

		existing, err := s.repos.Command.GetReplyForUpdate(ctx, tx, parent.ID)
		switch {
		case err == nil:
			existing.Body = body
			existing.Title = optionalText(in.Title)
			existing.Deleted = false
			existing.EditorReview = existing.EditorReview || hasLink(existing)

			if err := s.repos.Command.UpdateContent(ctx, tx, existing); err != nil {
				return fmt.Errorf("%s: failed to update reply: %w", op, err)
			}

			if err := s.record(ctx, tx, caller, domain.ActionEditReview, existing); err != nil {
				return fmt.Errorf("%s: %w", op, err)
			}

			reply = existing
		case errors.Is(err, apperrors.ErrNotFound):
			reply = &domain.Review{
				AddonID:   addon.ID,
				UserID:    caller.UserID,
				ReplyTo:   sql.NullInt64{Int64: parent.ID, Valid: true},
				Title:     optionalText(in.Title),
				Body:      body,
				IPAddress: caller.IPAddress,
			}
			reply.EditorReview = hasLink(reply)

			if err := s.repos.Command.CreateReview(ctx, tx, reply); err != nil {
				return fmt.Errorf("%s: failed to create reply: %w", op, err)
			}

			created = true
		default:
			return fmt.Errorf("%s: failed to get existing reply: %w", op, err)
		}

		if reply.EditorReview && hasLink(reply) {
			if err := s.autoFlag(ctx, tx, reply.ID, caller.UserID); err != nil {
				return fmt.Errorf("%s: %w", op, err)
			}
		}

		reply, err = s.repos.Query.GetReview(ctx, tx, reply.ID)

		return err
	})
	if err != nil {
		return nil, false, err
	}

	if created {
		reviewWritesTotal.WithLabelValues("reply").Inc()
		log.Info("reply created", slog.Int64("reply_id", reply.ID))
		s.notifyReviewAuthor(ctx, addon, parent)
	} else {
		reviewWritesTotal.WithLabelValues("edit").Inc()
		log.Info("reply updated", slog.Int64("reply_id", reply.ID))
	}

	return toAPIReply(caller, reply), created, nil
}

func (s *ReviewServiceImpl) EditReview(ctx context.Context, caller domain.Caller, addonRef string, reviewID int64, patch ReviewPatch) (interface{}, error) {
	const op = "internal.service.review.EditReview"
	log := s.log.With(slog.String("op", op), slog.Int64("user_id", caller.UserID), slog.Int64("review_id", reviewID))

	if caller.IsAnonymous() {
		return nil, fmt.Errorf("%s: %w", op, apperrors.ErrUnauthenticated)
	}

	addon, isAuthor, err := s.loadAddon(ctx, caller, addonRef)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var review *domain.Review

	err = s.transaction(ctx, op, func(tx *sqlx.Tx) error {
		var err error

		review, err = s.repos.Command.GetReviewForUpdate(ctx, tx, reviewID)
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}

		if review.Deleted || review.AddonID != addon.ID {
			return fmt.Errorf("%s: %w: review with id '%d'", op, apperrors.ErrNotFound, reviewID)
		}

		if d := authz.Authorize(caller, authz.ActionEdit, authz.Resource{Addon: addon, Review: review, IsAddonAuthor: isAuthor}); !d.Allowed {
			return fmt.Errorf("%s: %w", op, forbidden(d))
		}

		if err := applyPatch(review, patch); err != nil {
			return err
		}

		linked := hasLink(review) && patch.Body != nil
		if linked {
			review.EditorReview = true
		}

		if err := s.repos.Command.UpdateContent(ctx, tx, review); err != nil {
			return fmt.Errorf("%s: failed to update review: %w", op, err)
		}

		if linked {
			if err := s.autoFlag(ctx, tx, review.ID, caller.UserID); err != nil {
				return fmt.Errorf("%s: %w", op, err)
			}
		}

		if err := s.record(ctx, tx, caller, domain.ActionEditReview, review); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}

		review, err = s.repos.Query.GetReview(ctx, tx, review.ID)

		return err
	})
	if err != nil {
		return nil, err
	}

	reviewWritesTotal.WithLabelValues("edit").Inc()
	s.ratings.Forget(addon.ID)
	log.Info("review edited")

	return toAPI(caller, review), nil
}

// applyPatch copies the supplied fields. The version may be repeated but never changed,
// and replies silently drop rating and version.
func applyPatch(review *domain.Review, patch ReviewPatch) error {
	if !review.IsReply() {
		if patch.Version != nil && (!review.VersionID.Valid || *patch.Version != review.VersionID.Int64) {
			return apperrors.NewFieldError("version", "Can not change version once the review has been created.")
		}

		if patch.Rating != nil {
			if err := validateRating(patch.Rating, true); err != nil {
				return err
			}

			review.Rating = sql.NullInt16{Int16: int16(*patch.Rating), Valid: true}
		}
	}

	if patch.Title != nil {
		if err := validateTitle(patch.Title); err != nil {
			return err
		}

		review.Title = optionalText(patch.Title)
	}

	if patch.Body != nil {
		body := cleanBody(patch.Body)
		if review.IsReply() && strings.TrimSpace(body.String) == "" {
			return apperrors.NewFieldError("body", "This field may not be blank.")
		}

		review.Body = body
	}

	return nil
}

func (s *ReviewServiceImpl) DeleteReview(ctx context.Context, caller domain.Caller, addonRef string, reviewID int64, hard bool) error {
	const op = "internal.service.review.DeleteReview"
	log := s.log.With(slog.String("op", op), slog.Int64("user_id", caller.UserID), slog.Int64("review_id", reviewID), slog.Bool("hard", hard))

	if caller.IsAnonymous() {
		return fmt.Errorf("%s: %w", op, apperrors.ErrUnauthenticated)
	}

	addon, isAuthor, err := s.loadAddon(ctx, caller, addonRef)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	err = s.transaction(ctx, op, func(tx *sqlx.Tx) error {
		review, err := s.repos.Command.GetReviewForUpdate(ctx, tx, reviewID)
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}

		if review.AddonID != addon.ID || (review.Deleted && !hard) {
			return fmt.Errorf("%s: %w: review with id '%d'", op, apperrors.ErrNotFound, reviewID)
		}

		action := authz.ActionDelete
		if hard {
			action = authz.ActionHardDelete
		}

		if d := authz.Authorize(caller, action, authz.Resource{Addon: addon, Review: review, IsAddonAuthor: isAuthor}); !d.Allowed {
			return fmt.Errorf("%s: %w", op, forbidden(d))
		}

		if err := s.record(ctx, tx, caller, domain.ActionDeleteReview, review); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}

		if hard {
			return s.purge(ctx, tx, review)
		}

		return s.softDelete(ctx, tx, review)
	})
	if err != nil {
		return err
	}

	reviewWritesTotal.WithLabelValues("delete").Inc()
	s.ratings.Forget(addon.ID)
	log.Info("review deleted")

	return nil
}

// softDelete hides a review together with its reply.
func (s *ReviewServiceImpl) softDelete(ctx context.Context, tx *sqlx.Tx, review *domain.Review) error {
	ids, err := s.withReply(ctx, tx, review, false)
	if err != nil {
		return err
	}

	if err := s.repos.Command.SetDeleted(ctx, tx, ids, true); err != nil {
		return fmt.Errorf("failed to soft delete: %w", err)
	}

	if review.IsReply() {
		return nil
	}

	if err := s.repos.Command.RecomputeIsLatest(ctx, tx, review.UserID, review.AddonID); err != nil {
		return fmt.Errorf("failed to recompute latest: %w", err)
	}

	return nil
}

// purge removes the row for good. The reply and flags go with it through the foreign keys.
func (s *ReviewServiceImpl) purge(ctx context.Context, tx *sqlx.Tx, review *domain.Review) error {
	if err := s.repos.Command.HardDelete(ctx, tx, review.ID); err != nil {
		return fmt.Errorf("failed to hard delete: %w", err)
	}

	if review.IsReply() {
		return nil
	}

	if err := s.repos.Command.RecomputeIsLatest(ctx, tx, review.UserID, review.AddonID); err != nil {
		return fmt.Errorf("failed to recompute latest: %w", err)
	}

	return nil
}

// withReply returns the id of the review plus its reply when the reply's deleted
// state equals replyDeleted.
func (s *ReviewServiceImpl) withReply(ctx context.Context, tx *sqlx.Tx, review *domain.Review, replyDeleted bool) ([]int64, error) {
	ids := []int64{review.ID}
	if review.IsReply() {
		return ids, nil
	}

	reply, err := s.repos.Command.GetReplyForUpdate(ctx, tx, review.ID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return ids, nil
		}

		return nil, fmt.Errorf("failed to get reply: %w", err)
	}

	if reply.Deleted == replyDeleted {
		ids = append(ids, reply.ID)
	}

	return ids, nil
}

func (s *ReviewServiceImpl) UndeleteReview(ctx context.Context, caller domain.Caller, addonRef string, reviewID int64) (interface{}, error) {
	const op = "internal.service.review.UndeleteReview"
	log := s.log.With(slog.String("op", op), slog.Int64("user_id", caller.UserID), slog.Int64("review_id", reviewID))

	if caller.IsAnonymous() {
		return nil, fmt.Errorf("%s: %w", op, apperrors.ErrUnauthenticated)
	}

	addon, isAuthor, err := s.loadAddon(ctx, caller, addonRef)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var review *domain.Review

	err = s.transaction(ctx, op, func(tx *sqlx.Tx) error {
		var err error

		review, err = s.repos.Command.GetReviewForUpdate(ctx, tx, reviewID)
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}

		if review.AddonID != addon.ID {
			return fmt.Errorf("%s: %w: review with id '%d'", op, apperrors.ErrNotFound, reviewID)
		}

		if d := authz.Authorize(caller, authz.ActionUndelete, authz.Resource{Addon: addon, Review: review, IsAddonAuthor: isAuthor}); !d.Allowed {
			return fmt.Errorf("%s: %w", op, forbidden(d))
		}

		if review.Deleted {
			ids, err := s.withReply(ctx, tx, review, true)
			if err != nil {
				return fmt.Errorf("%s: %w", op, err)
			}

			if err := s.repos.Command.SetDeleted(ctx, tx, ids, false); err != nil {
				return fmt.Errorf("%s: failed to restore: %w", op, err)
			}

			if !review.IsReply() {
				if err := s.repos.Command.RecomputeIsLatest(ctx, tx, review.UserID, review.AddonID); err != nil {
					return fmt.Errorf("%s: failed to recompute latest: %w", op, err)
				}
			}

			if err := s.record(ctx, tx, caller, domain.ActionUndeleteReview, review); err != nil {
				return fmt.Errorf("%s: %w", op, err)
			}
		}

		review, err = s.repos.Audit.GetReviewUnfiltered(ctx, tx, review.ID)

		return err
	})
	if err != nil {
		return nil, err
	}

	reviewWritesTotal.WithLabelValues("undelete").Inc()
	s.ratings.Forget(addon.ID)
	log.Info("review restored")

	return toAPI(caller, review), nil
}

func (s *ReviewServiceImpl) FlagReview(
	ctx context.Context,
	caller domain.Caller,
	addonRef string,
	reviewID int64,
	reason domain.FlagReason,
	note string,
) (*domain.ReviewFlag, error) {
	const op = "internal.service.review.FlagReview"
	log := s.log.With(slog.String("op", op), slog.Int64("user_id", caller.UserID), slog.Int64("review_id", reviewID))

	if caller.IsAnonymous() {
		return nil, fmt.Errorf("%s: %w", op, apperrors.ErrUnauthenticated)
	}

	addon, isAuthor, err := s.loadAddon(ctx, caller, addonRef)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var flag *domain.ReviewFlag

	err = s.transaction(ctx, op, func(tx *sqlx.Tx) error {
		// deleted reviews can not be flagged, whatever the caller may see
		review, err := s.repos.Query.GetReview(ctx, tx, reviewID)
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}

		if review.AddonID != addon.ID {
			return fmt.Errorf("%s: %w: review with id '%d'", op, apperrors.ErrNotFound, reviewID)
		}

		if d := authz.Authorize(caller, authz.ActionFlag, authz.Resource{Addon: addon, Review: review, IsAddonAuthor: isAuthor}); !d.Allowed {
			return fmt.Errorf("%s: %w", op, forbidden(d))
		}

		reason, note := moderation.NormalizeFlag(reason, note)
		if err := moderation.ValidateFlag(reason, note); err != nil {
			return err
		}

		flag, err = s.repos.Flags.UpsertFlag(ctx, tx, &domain.ReviewFlag{
			ReviewID: review.ID,
			UserID:   caller.UserID,
			Flag:     reason,
			Note:     sql.NullString{String: note, Valid: note != ""},
		})
		if err != nil {
			return fmt.Errorf("%s: failed to store flag: %w", op, err)
		}

		if err := s.repos.Command.SetEditorReview(ctx, tx, review.ID, true); err != nil {
			return fmt.Errorf("%s: failed to mark review for moderation: %w", op, err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	moderationFlagsTotal.WithLabelValues("user").Inc()
	log.Info("review flagged", slog.String("flag", string(flag.Flag)))

	return flag, nil
}

// RefreshLatest recomputes is_latest after an out-of-band change to creation times.
func (s *ReviewServiceImpl) RefreshLatest(ctx context.Context, userID, addonID int64) error {
	const op = "internal.service.review.RefreshLatest"

	err := s.transaction(ctx, op, func(tx *sqlx.Tx) error {
		return s.repos.Command.RecomputeIsLatest(ctx, tx, userID, addonID)
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	s.ratings.Forget(addonID)

	return nil
}

// PurgeReview permanently deletes a review without an authorization check.
// It is meant for administrative tooling only.
func (s *ReviewServiceImpl) PurgeReview(ctx context.Context, reviewID int64) error {
	const op = "internal.service.review.PurgeReview"

	var addonID int64

	err := s.transaction(ctx, op, func(tx *sqlx.Tx) error {
		review, err := s.repos.Command.GetReviewForUpdate(ctx, tx, reviewID)
		if err != nil {
			return err
		}

		addonID = review.AddonID

		return s.purge(ctx, tx, review)
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	s.ratings.Forget(addonID)
	s.log.Info("review purged", slog.String("op", op), slog.Int64("review_id", reviewID))

	return nil
}

func (s *ReviewServiceImpl) autoFlag(ctx context.Context, tx *sqlx.Tx, reviewID, userID int64) error {
	_, err := s.repos.Flags.UpsertFlag(ctx, tx, &domain.ReviewFlag{
		ReviewID: reviewID,
		UserID:   userID,
		Flag:     domain.FlagOther,
		Note:     sql.NullString{String: moderation.SystemFlagNote, Valid: true},
	})
	if err != nil {
		return fmt.Errorf("failed to store automatic flag: %w", err)
	}

	moderationFlagsTotal.WithLabelValues("auto").Inc()

	return nil
}

func (s *ReviewServiceImpl) record(ctx context.Context, tx *sqlx.Tx, caller domain.Caller, action domain.ActivityAction, review *domain.Review) error {
	entry := &domain.ActivityLog{
		UserID:   sql.NullInt64{Int64: caller.UserID, Valid: true},
		Action:   action,
		AddonID:  sql.NullInt64{Int64: review.AddonID, Valid: true},
		ReviewID: sql.NullInt64{Int64: review.ID, Valid: true},
	}

	if err := s.repos.Activity.Record(ctx, tx, entry); err != nil {
		return fmt.Errorf("failed to record activity: %w", err)
	}

	return nil
}

// notifyAuthors runs after commit; delivery problems are logged and never fail the request.
func (s *ReviewServiceImpl) notifyAuthors(ctx context.Context, addon *domain.Addon, review *domain.Review) {
	const op = "internal.service.review.notifyAuthors"
	log := s.log.With(slog.String("op", op), slog.Int64("review_id", review.ID))

	authors, err := s.repos.Addons.ListAuthors(ctx, addon.ID)
	if err != nil {
		notificationFailuresTotal.Inc()
		log.Error("failed to list add-on authors", sl.Err(err))
		return
	}

	if err := s.notifier.Send(ctx, notify.NewReviewMessage(s.siteURL, addon, review, authors)); err != nil {
		notificationFailuresTotal.Inc()
		log.Error("failed to notify add-on authors", sl.Err(err))
	}
}

func (s *ReviewServiceImpl) notifyReviewAuthor(ctx context.Context, addon *domain.Addon, review *domain.Review) {
	const op = "internal.service.review.notifyReviewAuthor"
	log := s.log.With(slog.String("op", op), slog.Int64("review_id", review.ID))

	recipient, err := s.repos.Users.GetUser(ctx, review.UserID)
	if err != nil {
		notificationFailuresTotal.Inc()
		log.Error("failed to get review author", sl.Err(err))
		return
	}

	if err := s.notifier.Send(ctx, notify.NewReplyMessage(s.siteURL, addon, review, *recipient)); err != nil {
		notificationFailuresTotal.Inc()
		log.Error("failed to notify review author", sl.Err(err))
	}
}

func validateRating(rating *int, required bool) error {
	if rating == nil {
		if required {
			return apperrors.NewFieldError("rating", "This field is required.")
		}

		return nil
	}

	if *rating < 1 {
		return apperrors.NewFieldError("rating", "Ensure this value is greater than or equal to 1.")
	}

	if *rating > 5 {
		return apperrors.NewFieldError("rating", "Ensure this value is less than or equal to 5.")
	}

	return nil
}

func validateTitle(title *string) error {
	if title != nil && utf8.RuneCountInString(*title) > MaxTitleLength {
		return apperrors.NewFieldError("title", fmt.Sprintf("Ensure this field has no more than %d characters.", MaxTitleLength))
	}

	return nil
}

func cleanBody(body *string) sql.NullString {
	if body == nil {
		return sql.NullString{}
	}

	return sql.NullString{String: moderation.CleanBody(*body), Valid: true}
}

func optionalText(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}

	return sql.NullString{String: *s, Valid: true}
}

func hasLink(review *domain.Review) bool {
	return review.Body.Valid && moderation.ContainsLink(review.Body.String)
}
