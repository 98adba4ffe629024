package service

import (
	"context"
	"database/sql"
	"time"

	"github.com/YusovID/addon-reviews/internal/domain"
	"github.com/YusovID/addon-reviews/internal/notify"
	"github.com/YusovID/addon-reviews/internal/repository"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/mock"
)

type TransactorMock struct {
	mock.Mock
}

func (m *TransactorMock) BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error) {
	var tx *sqlx.Tx

	args := m.Called(ctx, opts)
	if args.Get(0) != nil {
		tx = args.Get(0).(*sqlx.Tx)
	}

	return tx, args.Error(1)
}

type ReviewQueryRepositoryMock struct {
	mock.Mock
}

var _ repository.ReviewQueryRepository = (*ReviewQueryRepositoryMock)(nil)

func (m *ReviewQueryRepositoryMock) GetReview(ctx context.Context, ext sqlx.ExtContext, reviewID int64) (*domain.Review, error) {
	args := m.Called(ctx, ext, reviewID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*domain.Review), args.Error(1)
}

func (m *ReviewQueryRepositoryMock) ListByAddon(ctx context.Context, addonID int64, page domain.Page) ([]domain.Review, int, error) {
	args := m.Called(ctx, addonID, page)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}

	return args.Get(0).([]domain.Review), args.Int(1), args.Error(2)
}

func (m *ReviewQueryRepositoryMock) ListByUser(ctx context.Context, userID int64, page domain.Page) ([]domain.Review, int, error) {
	args := m.Called(ctx, userID, page)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}

	return args.Get(0).([]domain.Review), args.Int(1), args.Error(2)
}

func (m *ReviewQueryRepositoryMock) GroupedRatings(ctx context.Context, addonID int64) (map[int]int, error) {
	args := m.Called(ctx, addonID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(map[int]int), args.Error(1)
}

type ReviewAuditRepositoryMock struct {
	mock.Mock
}

var _ repository.ReviewAuditRepository = (*ReviewAuditRepositoryMock)(nil)

func (m *ReviewAuditRepositoryMock) GetReviewUnfiltered(ctx context.Context, ext sqlx.ExtContext, reviewID int64) (*domain.Review, error) {
	args := m.Called(ctx, ext, reviewID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*domain.Review), args.Error(1)
}

func (m *ReviewAuditRepositoryMock) ListByAddonWithDeleted(ctx context.Context, addonID int64, page domain.Page) ([]domain.Review, int, error) {
	args := m.Called(ctx, addonID, page)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}

	return args.Get(0).([]domain.Review), args.Int(1), args.Error(2)
}

func (m *ReviewAuditRepositoryMock) ListByUserWithDeleted(ctx context.Context, userID int64, page domain.Page) ([]domain.Review, int, error) {
	args := m.Called(ctx, userID, page)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}

	return args.Get(0).([]domain.Review), args.Int(1), args.Error(2)
}

type ReviewCommandRepositoryMock struct {
	mock.Mock
}

var _ repository.ReviewCommandRepository = (*ReviewCommandRepositoryMock)(nil)

func (m *ReviewCommandRepositoryMock) CreateReview(ctx context.Context, tx *sqlx.Tx, review *domain.Review) error {
	args := m.Called(ctx, tx, review)
	return args.Error(0)
}

func (m *ReviewCommandRepositoryMock) GetReviewForUpdate(ctx context.Context, tx *sqlx.Tx, reviewID int64) (*domain.Review, error) {
	args := m.Called(ctx, tx, reviewID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*domain.Review), args.Error(1)
}

func (m *ReviewCommandRepositoryMock) GetReplyForUpdate(ctx context.Context, tx *sqlx.Tx, reviewID int64) (*domain.Review, error) {
	args := m.Called(ctx, tx, reviewID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*domain.Review), args.Error(1)
}

func (m *ReviewCommandRepositoryMock) UpdateContent(ctx context.Context, tx *sqlx.Tx, review *domain.Review) error {
	args := m.Called(ctx, tx, review)
	return args.Error(0)
}

func (m *ReviewCommandRepositoryMock) SetDeleted(ctx context.Context, tx *sqlx.Tx, reviewIDs []int64, deleted bool) error {
	args := m.Called(ctx, tx, reviewIDs, deleted)
	return args.Error(0)
}

func (m *ReviewCommandRepositoryMock) HardDelete(ctx context.Context, tx *sqlx.Tx, reviewID int64) error {
	args := m.Called(ctx, tx, reviewID)
	return args.Error(0)
}

func (m *ReviewCommandRepositoryMock) SetEditorReview(ctx context.Context, tx *sqlx.Tx, reviewID int64, pending bool) error {
	args := m.Called(ctx, tx, reviewID, pending)
	return args.Error(0)
}

func (m *ReviewCommandRepositoryMock) SetCreated(ctx context.Context, tx *sqlx.Tx, reviewID int64, created time.Time) error {
	args := m.Called(ctx, tx, reviewID, created)
	return args.Error(0)
}

func (m *ReviewCommandRepositoryMock) RecomputeIsLatest(ctx context.Context, tx *sqlx.Tx, userID, addonID int64) error {
	args := m.Called(ctx, tx, userID, addonID)
	return args.Error(0)
}

type FlagRepositoryMock struct {
	mock.Mock
}

var _ repository.FlagRepository = (*FlagRepositoryMock)(nil)

func (m *FlagRepositoryMock) UpsertFlag(ctx context.Context, tx *sqlx.Tx, flag *domain.ReviewFlag) (*domain.ReviewFlag, error) {
	args := m.Called(ctx, tx, flag)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*domain.ReviewFlag), args.Error(1)
}

func (m *FlagRepositoryMock) ListByReview(ctx context.Context, reviewID int64) ([]domain.ReviewFlag, error) {
	args := m.Called(ctx, reviewID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]domain.ReviewFlag), args.Error(1)
}

type AddonRepositoryMock struct {
	mock.Mock
}

var _ repository.AddonRepository = (*AddonRepositoryMock)(nil)

func (m *AddonRepositoryMock) GetAddon(ctx context.Context, ref string) (*domain.Addon, error) {
	args := m.Called(ctx, ref)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*domain.Addon), args.Error(1)
}

func (m *AddonRepositoryMock) GetAddonByID(ctx context.Context, ext sqlx.ExtContext, addonID int64) (*domain.Addon, error) {
	args := m.Called(ctx, ext, addonID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*domain.Addon), args.Error(1)
}

func (m *AddonRepositoryMock) GetVersion(ctx context.Context, versionID int64) (*domain.Version, error) {
	args := m.Called(ctx, versionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*domain.Version), args.Error(1)
}

func (m *AddonRepositoryMock) GetCurrentVersion(ctx context.Context, ext sqlx.ExtContext, addonID int64) (*domain.Version, error) {
	args := m.Called(ctx, ext, addonID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*domain.Version), args.Error(1)
}

func (m *AddonRepositoryMock) IsAuthor(ctx context.Context, addonID, userID int64) (bool, error) {
	args := m.Called(ctx, addonID, userID)
	return args.Bool(0), args.Error(1)
}

func (m *AddonRepositoryMock) ListAuthors(ctx context.Context, addonID int64) ([]domain.User, error) {
	args := m.Called(ctx, addonID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]domain.User), args.Error(1)
}

type UserRepositoryMock struct {
	mock.Mock
}

var _ repository.UserRepository = (*UserRepositoryMock)(nil)

func (m *UserRepositoryMock) GetUser(ctx context.Context, userID int64) (*domain.User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *UserRepositoryMock) GetPermissions(ctx context.Context, userID int64) ([]string, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]string), args.Error(1)
}

type ActivityLogRepositoryMock struct {
	mock.Mock
}

var _ repository.ActivityLogRepository = (*ActivityLogRepositoryMock)(nil)

func (m *ActivityLogRepositoryMock) Record(ctx context.Context, ext sqlx.ExtContext, entry *domain.ActivityLog) error {
	args := m.Called(ctx, ext, entry)
	return args.Error(0)
}

func (m *ActivityLogRepositoryMock) ListByLicense(ctx context.Context, ext sqlx.ExtContext, action domain.ActivityAction, licenseID int64) ([]domain.ActivityLog, error) {
	args := m.Called(ctx, ext, action, licenseID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]domain.ActivityLog), args.Error(1)
}

type LicenseRepositoryMock struct {
	mock.Mock
}

var _ repository.LicenseRepository = (*LicenseRepositoryMock)(nil)

func (m *LicenseRepositoryMock) GetLicenseForUpdate(ctx context.Context, tx *sqlx.Tx, licenseID int64) (*domain.License, error) {
	args := m.Called(ctx, tx, licenseID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*domain.License), args.Error(1)
}

func (m *LicenseRepositoryMock) GetTranslation(ctx context.Context, tx *sqlx.Tx, translationID int64, locale string) (*domain.Translation, error) {
	args := m.Called(ctx, tx, translationID, locale)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*domain.Translation), args.Error(1)
}

func (m *LicenseRepositoryMock) UpdateFlags(ctx context.Context, tx *sqlx.Tx, license *domain.License) error {
	args := m.Called(ctx, tx, license)
	return args.Error(0)
}

func (m *LicenseRepositoryMock) CloneLicense(ctx context.Context, tx *sqlx.Tx, license *domain.License, onForm bool) (*domain.License, error) {
	args := m.Called(ctx, tx, license, onForm)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*domain.License), args.Error(1)
}

func (m *LicenseRepositoryMock) SetVersionLicense(ctx context.Context, tx *sqlx.Tx, versionID, licenseID int64) error {
	args := m.Called(ctx, tx, versionID, licenseID)
	return args.Error(0)
}

func (m *LicenseRepositoryMock) UpdateTranslations(ctx context.Context, tx *sqlx.Tx, translationID int64, locales []string, value string) (int64, error) {
	args := m.Called(ctx, tx, translationID, locales, value)
	return args.Get(0).(int64), args.Error(1)
}

func (m *LicenseRepositoryMock) DeleteTranslations(ctx context.Context, tx *sqlx.Tx, translationID int64, locales []string) (int64, error) {
	args := m.Called(ctx, tx, translationID, locales)
	return args.Get(0).(int64), args.Error(1)
}

type NotifierMock struct {
	mock.Mock
}

var _ notify.Notifier = (*NotifierMock)(nil)

func (m *NotifierMock) Send(ctx context.Context, msg notify.Message) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

type RatingsCacheMock struct {
	mock.Mock
}

func (m *RatingsCacheMock) Forget(addonID int64) {
	m.Called(addonID)
}
