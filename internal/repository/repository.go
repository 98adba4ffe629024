// package repository defines the interfaces for the data persistence layer.
// These interfaces abstract the underlying database implementation from the service layer.
package repository

import (
	"context"
	"time"

	"github.com/YusovID/addon-reviews/internal/domain"
	"github.com/jmoiron/sqlx"
)

// ReviewQueryRepository is the default-visible accessor: soft-deleted reviews
// never come out of it.
type ReviewQueryRepository interface {
	// GetReview returns a non-deleted review.
	// It returns apperrors.ErrNotFound if the review does not exist or is soft-deleted.
	GetReview(ctx context.Context, ext sqlx.ExtContext, reviewID int64) (*domain.Review, error)

	// ListByAddon returns the latest top-level review of every user for an add-on, newest first,
	// with non-deleted replies attached, plus the total count.
	ListByAddon(ctx context.Context, addonID int64, page domain.Page) ([]domain.Review, int, error)

	// ListByUser returns the user's top-level reviews and replies, newest first, plus the total count.
	ListByUser(ctx context.Context, userID int64, page domain.Page) ([]domain.Review, int, error)

	// GroupedRatings counts visible latest reviews of an add-on per rating value 1..5.
	GroupedRatings(ctx context.Context, addonID int64) (map[int]int, error)
}

// ReviewAuditRepository is the admin/audit accessor: it includes soft-deleted rows
// and must only be reached after an authorization check.
type ReviewAuditRepository interface {
	// GetReviewUnfiltered returns a review regardless of its deleted state, with its reply attached.
	// It returns apperrors.ErrNotFound if no row exists.
	GetReviewUnfiltered(ctx context.Context, ext sqlx.ExtContext, reviewID int64) (*domain.Review, error)

	// ListByAddonWithDeleted is ListByAddon including soft-deleted reviews and replies.
	ListByAddonWithDeleted(ctx context.Context, addonID int64, page domain.Page) ([]domain.Review, int, error)

	// ListByUserWithDeleted is ListByUser including soft-deleted rows.
	ListByUserWithDeleted(ctx context.Context, userID int64, page domain.Page) ([]domain.Review, int, error)
}

// ReviewCommandRepository defines write and locking operations on reviews.
// All methods are expected to be executed within a transaction.
type ReviewCommandRepository interface {
	// CreateReview inserts a review and fills its ID, Created and Modified fields.
	// A unique violation on the one-review-per-version or one-reply-per-review index
	// is returned as *apperrors.ValidationError.
	CreateReview(ctx context.Context, tx *sqlx.Tx, review *domain.Review) error

	// GetReviewForUpdate locks and returns a review regardless of its deleted state.
	GetReviewForUpdate(ctx context.Context, tx *sqlx.Tx, reviewID int64) (*domain.Review, error)

	// GetReplyForUpdate locks and returns the reply of a review, deleted or not.
	// It returns apperrors.ErrNotFound if there is none.
	GetReplyForUpdate(ctx context.Context, tx *sqlx.Tx, reviewID int64) (*domain.Review, error)

	// UpdateContent writes title, body, rating, editorreview and deleted of a review.
	UpdateContent(ctx context.Context, tx *sqlx.Tx, review *domain.Review) error

	// SetDeleted soft-deletes or restores the given reviews.
	SetDeleted(ctx context.Context, tx *sqlx.Tx, reviewIDs []int64, deleted bool) error

	// HardDelete removes a review permanently; its reply and flags go with it.
	HardDelete(ctx context.Context, tx *sqlx.Tx, reviewID int64) error

	// SetEditorReview toggles the moderation-pending marker.
	SetEditorReview(ctx context.Context, tx *sqlx.Tx, reviewID int64, pending bool) error

	// SetCreated overwrites the creation timestamp; callers must recompute is_latest afterwards.
	SetCreated(ctx context.Context, tx *sqlx.Tx, reviewID int64, created time.Time) error

	// RecomputeIsLatest marks the newest non-deleted top-level review of (user, addon)
	// as latest and clears the marker on all others.
	RecomputeIsLatest(ctx context.Context, tx *sqlx.Tx, userID, addonID int64) error
}

// FlagRepository persists moderation flags.
type FlagRepository interface {
	// UpsertFlag creates the (review, user) flag or overwrites its reason and note.
	UpsertFlag(ctx context.Context, tx *sqlx.Tx, flag *domain.ReviewFlag) (*domain.ReviewFlag, error)

	// ListByReview returns every flag attached to a review.
	ListByReview(ctx context.Context, reviewID int64) ([]domain.ReviewFlag, error)
}

// AddonRepository reads add-on, version and authorship data owned by other parts of the site.
type AddonRepository interface {
	// GetAddon resolves an add-on by numeric id, slug or GUID.
	// It returns apperrors.ErrNotFound if nothing matches.
	GetAddon(ctx context.Context, ref string) (*domain.Addon, error)

	// GetAddonByID returns an add-on by id. It returns apperrors.ErrNotFound if missing.
	GetAddonByID(ctx context.Context, ext sqlx.ExtContext, addonID int64) (*domain.Addon, error)

	// GetVersion returns a version by id. It returns apperrors.ErrNotFound if missing.
	GetVersion(ctx context.Context, versionID int64) (*domain.Version, error)

	// GetCurrentVersion returns the newest non-deleted version of an add-on.
	GetCurrentVersion(ctx context.Context, ext sqlx.ExtContext, addonID int64) (*domain.Version, error)

	// IsAuthor reports whether the user is listed as an author of the add-on.
	IsAuthor(ctx context.Context, addonID, userID int64) (bool, error)

	// ListAuthors returns the author accounts of an add-on.
	ListAuthors(ctx context.Context, addonID int64) ([]domain.User, error)
}

// UserRepository reads accounts and permission-group membership.
type UserRepository interface {
	// GetUser returns a user by id. It returns apperrors.ErrNotFound if missing.
	GetUser(ctx context.Context, userID int64) (*domain.User, error)

	// GetPermissions returns the permission names granted to a user.
	GetPermissions(ctx context.Context, userID int64) ([]string, error)
}

// ActivityLogRepository stores audit-log entries.
type ActivityLogRepository interface {
	// Record inserts an entry. The ext argument allows it to join the caller's transaction.
	Record(ctx context.Context, ext sqlx.ExtContext, entry *domain.ActivityLog) error

	// ListByLicense returns entries of the given action that reference a license.
	ListByLicense(ctx context.Context, ext sqlx.ExtContext, action domain.ActivityAction, licenseID int64) ([]domain.ActivityLog, error)
}

// LicenseRepository backs the license data fix. All methods run inside a transaction.
type LicenseRepository interface {
	// GetLicenseForUpdate locks and returns a license. It returns apperrors.ErrNotFound if missing.
	GetLicenseForUpdate(ctx context.Context, tx *sqlx.Tx, licenseID int64) (*domain.License, error)

	// GetTranslation returns the string stored for a translation id in a locale.
	GetTranslation(ctx context.Context, tx *sqlx.Tx, translationID int64, locale string) (*domain.Translation, error)

	// UpdateFlags writes on_form and builtin.
	UpdateFlags(ctx context.Context, tx *sqlx.Tx, license *domain.License) error

	// CloneLicense inserts a copy of the license with its own copies of the name and
	// text translations and returns the new row.
	CloneLicense(ctx context.Context, tx *sqlx.Tx, license *domain.License, onForm bool) (*domain.License, error)

	// SetVersionLicense points a version at a license.
	SetVersionLicense(ctx context.Context, tx *sqlx.Tx, versionID, licenseID int64) error

	// UpdateTranslations rewrites the string of a translation id in the given locales
	// and returns the number of rows changed.
	UpdateTranslations(ctx context.Context, tx *sqlx.Tx, translationID int64, locales []string, value string) (int64, error)

	// DeleteTranslations removes a translation id in the given locales and returns
	// the number of rows removed.
	DeleteTranslations(ctx context.Context, tx *sqlx.Tx, translationID int64, locales []string) (int64, error)
}
