package service

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/YusovID/addon-reviews/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestCanonicalLocales(t *testing.T) {
	got, err := canonicalLocales([]string{"en-US", "fr", "DE"})
	require.NoError(t, err)
	assert.Equal(t, []string{"en-us", "fr", "de"}, got)

	_, err = canonicalLocales([]string{"not a locale"})
	assert.Error(t, err)
}

func TestLicenseServiceImpl_FixLegacyLicense(t *testing.T) {
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	locales := []string{"en-us", "fr", "de"}

	legacy := func() *domain.License {
		return &domain.License{
			ID:     5,
			NameID: sql.NullInt64{Int64: 50, Valid: true},
			TextID: sql.NullInt64{Int64: 51, Valid: true},
			OnForm: true,
		}
	}

	changes := func(addonIDs ...int64) []domain.ActivityLog {
		out := make([]domain.ActivityLog, 0, len(addonIDs))
		for i, id := range addonIDs {
			out = append(out, domain.ActivityLog{
				ID:        int64(i + 1),
				Action:    domain.ActionChangeLicense,
				AddonID:   sql.NullInt64{Int64: id, Valid: true},
				LicenseID: sql.NullInt64{Int64: 5, Valid: true},
			})
		}

		return out
	}

	testCases := []struct {
		name          string
		setupMocks    func(t *testing.T, transactor *TransactorMock, licenses *LicenseRepositoryMock, addons *AddonRepositoryMock, activity *ActivityLogRepositoryMock)
		expectedError bool
		expectedClone []int64
	}{
		{
			name: "Success",
			setupMocks: func(t *testing.T, transactor *TransactorMock, licenses *LicenseRepositoryMock, addons *AddonRepositoryMock, activity *ActivityLogRepositoryMock) {
				_, tx, smock := newMockDBAndTx(t)
				smock.ExpectCommit()
				transactor.On("BeginTxx", mock.Anything, (*sql.TxOptions)(nil)).Return(tx, nil).Once()

				licenses.On("GetLicenseForUpdate", ctx, tx, int64(5)).Return(legacy(), nil).Once()
				licenses.On("GetTranslation", ctx, tx, int64(50), "en-us").
					Return(&domain.Translation{ID: 50, Locale: "en-us", LocalizedString: DefaultLegacyLicenseName}, nil).Once()
				licenses.On("UpdateFlags", ctx, tx, mock.MatchedBy(func(l *domain.License) bool {
					return l.ID == 5 && !l.OnForm && l.Builtin == 1
				})).Return(nil).Once()
				activity.On("ListByLicense", ctx, tx, domain.ActionChangeLicense, int64(5)).Return(changes(10, 11, 12), nil).Once()

				for i, addonID := range []int64{10, 11, 12} {
					versionID := addonID * 100
					current := &domain.License{ID: 5, NameID: sql.NullInt64{Int64: 50, Valid: true}}
					clone := &domain.License{ID: int64(60 + i), OnForm: true}

					addons.On("GetCurrentVersion", ctx, tx, addonID).
						Return(&domain.Version{ID: versionID, AddonID: addonID, LicenseID: sql.NullInt64{Int64: 5, Valid: true}}, nil).Once()
					licenses.On("GetLicenseForUpdate", ctx, tx, int64(5)).Return(current, nil).Once()
					licenses.On("CloneLicense", ctx, tx, current, true).Return(clone, nil).Once()
					licenses.On("SetVersionLicense", ctx, tx, versionID, clone.ID).Return(nil).Once()
				}

				licenses.On("UpdateTranslations", ctx, tx, int64(50), locales, FixedLicenseName).Return(int64(3), nil).Once()
				licenses.On("DeleteTranslations", ctx, tx, int64(51), locales).Return(int64(3), nil).Once()
			},
			expectedClone: []int64{60, 61, 62},
		},
		{
			name: "Wrong license name",
			setupMocks: func(t *testing.T, transactor *TransactorMock, licenses *LicenseRepositoryMock, addons *AddonRepositoryMock, activity *ActivityLogRepositoryMock) {
				_, tx, smock := newMockDBAndTx(t)
				smock.ExpectRollback()
				transactor.On("BeginTxx", mock.Anything, (*sql.TxOptions)(nil)).Return(tx, nil).Once()

				licenses.On("GetLicenseForUpdate", ctx, tx, int64(5)).Return(legacy(), nil).Once()
				licenses.On("GetTranslation", ctx, tx, int64(50), "en-us").
					Return(&domain.Translation{ID: 50, Locale: "en-us", LocalizedString: "MIT"}, nil).Once()
			},
			expectedError: true,
		},
		{
			name: "Unexpected number of changed add-ons",
			setupMocks: func(t *testing.T, transactor *TransactorMock, licenses *LicenseRepositoryMock, addons *AddonRepositoryMock, activity *ActivityLogRepositoryMock) {
				_, tx, smock := newMockDBAndTx(t)
				smock.ExpectRollback()
				transactor.On("BeginTxx", mock.Anything, (*sql.TxOptions)(nil)).Return(tx, nil).Once()

				licenses.On("GetLicenseForUpdate", ctx, tx, int64(5)).Return(legacy(), nil).Once()
				licenses.On("GetTranslation", ctx, tx, int64(50), "en-us").
					Return(&domain.Translation{ID: 50, Locale: "en-us", LocalizedString: DefaultLegacyLicenseName}, nil).Once()
				licenses.On("UpdateFlags", ctx, tx, mock.Anything).Return(nil).Once()
				activity.On("ListByLicense", ctx, tx, domain.ActionChangeLicense, int64(5)).Return(changes(10), nil).Once()
			},
			expectedError: true,
		},
		{
			name: "Failure on BeginTxx",
			setupMocks: func(t *testing.T, transactor *TransactorMock, licenses *LicenseRepositoryMock, addons *AddonRepositoryMock, activity *ActivityLogRepositoryMock) {
				transactor.On("BeginTxx", mock.Anything, (*sql.TxOptions)(nil)).Return(nil, errors.New("cannot begin tx")).Once()
			},
			expectedError: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			transactorMock := new(TransactorMock)
			licensesMock := new(LicenseRepositoryMock)
			addonsMock := new(AddonRepositoryMock)
			activityMock := new(ActivityLogRepositoryMock)
			tc.setupMocks(t, transactorMock, licensesMock, addonsMock, activityMock)

			service := NewLicenseService(transactorMock, logger, licensesMock, addonsMock, activityMock)
			report, err := service.FixLegacyLicense(ctx, DefaultLicenseFix())

			if tc.expectedError {
				assert.Error(t, err)
				assert.Nil(t, report)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tc.expectedClone, report.ClonedLicenses)
				assert.Equal(t, int64(3), report.UpdatedTranslations)
				assert.Equal(t, int64(3), report.DeletedTranslations)
			}

			transactorMock.AssertExpectations(t)
			licensesMock.AssertExpectations(t)
			addonsMock.AssertExpectations(t)
			activityMock.AssertExpectations(t)
		})
	}
}
