package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/YusovID/addon-reviews/internal/apperrors"
	"github.com/YusovID/addon-reviews/internal/domain"
	"github.com/YusovID/addon-reviews/internal/repository"
	"github.com/jmoiron/sqlx"
	"golang.org/x/text/language"
)

const (
	DefaultLegacyLicenseID   = 5
	DefaultLegacyLicenseName = "Copyright Jason Savard"
	DefaultExpectedChanges   = 3
	FixedLicenseName         = "Mozilla Public License Version 1.1"
)

var DefaultBrokenLocales = []string{"en-us", "fr", "de"}

// LicenseFix describes which license to repair and what the repair must find.
type LicenseFix struct {
	LicenseID       int64
	ExpectedName    string
	ExpectedChanges int
	Locales         []string
	FixedName       string
}

func DefaultLicenseFix() LicenseFix {
	return LicenseFix{
		LicenseID:       DefaultLegacyLicenseID,
		ExpectedName:    DefaultLegacyLicenseName,
		ExpectedChanges: DefaultExpectedChanges,
		Locales:         DefaultBrokenLocales,
		FixedName:       FixedLicenseName,
	}
}

// LicenseFixReport summarizes what a successful run changed.
type LicenseFixReport struct {
	ClonedLicenses      []int64
	UpdatedTranslations int64
	DeletedTranslations int64
}

type LicenseService interface {
	FixLegacyLicense(ctx context.Context, fix LicenseFix) (*LicenseFixReport, error)
}

type LicenseServiceImpl struct {
	BaseService

	licenses repository.LicenseRepository
	addons   repository.AddonRepository
	activity repository.ActivityLogRepository
}

func NewLicenseService(
	db Transactor,
	log *slog.Logger,
	licenses repository.LicenseRepository,
	addons repository.AddonRepository,
	activity repository.ActivityLogRepository,
) *LicenseServiceImpl {
	return &LicenseServiceImpl{
		BaseService: NewBaseService(db, log),
		licenses:    licenses,
		addons:      addons,
		activity:    activity,
	}
}

// canonicalLocales turns BCP 47 tags into the lower-case form stored in translations.
func canonicalLocales(locales []string) ([]string, error) {
	out := make([]string, 0, len(locales))
	for _, l := range locales {
		tag, err := language.Parse(l)
		if err != nil {
			return nil, fmt.Errorf("invalid locale '%s': %w", l, err)
		}

		out = append(out, strings.ToLower(tag.String()))
	}

	return out, nil
}

// FixLegacyLicense hides the legacy license, moves every add-on that switched to it
// onto its own form-visible copy and rewrites the broken translations.
// Nothing is written unless every check passes.
func (s *LicenseServiceImpl) FixLegacyLicense(ctx context.Context, fix LicenseFix) (*LicenseFixReport, error) {
	const op = "internal.service.license.FixLegacyLicense"
	log := s.log.With(slog.String("op", op), slog.Int64("license_id", fix.LicenseID))

	locales, err := canonicalLocales(fix.Locales)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	report := &LicenseFixReport{}

	err = s.transaction(ctx, op, func(tx *sqlx.Tx) error {
		legacy, err := s.licenses.GetLicenseForUpdate(ctx, tx, fix.LicenseID)
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}

		if !legacy.NameID.Valid {
			return fmt.Errorf("%s: wrong license: license %d has no name", op, legacy.ID)
		}

		name, err := s.licenses.GetTranslation(ctx, tx, legacy.NameID.Int64, "en-us")
		if err != nil {
			return fmt.Errorf("%s: failed to get license name: %w", op, err)
		}

		if name.LocalizedString != fix.ExpectedName {
			return fmt.Errorf("%s: wrong license: name is '%s'", op, name.LocalizedString)
		}

		legacy.OnForm = false
		legacy.Builtin = 1

		if err := s.licenses.UpdateFlags(ctx, tx, legacy); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}

		changes, err := s.activity.ListByLicense(ctx, tx, domain.ActionChangeLicense, legacy.ID)
		if err != nil {
			return fmt.Errorf("%s: failed to list license changes: %w", op, err)
		}

		if len(changes) != fix.ExpectedChanges {
			return fmt.Errorf("%s: too many or few add-ons changed, found %d", op, len(changes))
		}

		for _, change := range changes {
			cloned, err := s.splitLicense(ctx, tx, change)
			if err != nil {
				return fmt.Errorf("%s: %w", op, err)
			}

			report.ClonedLicenses = append(report.ClonedLicenses, cloned)
		}

		report.UpdatedTranslations, err = s.licenses.UpdateTranslations(ctx, tx, legacy.NameID.Int64, locales, fix.FixedName)
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}

		if legacy.TextID.Valid {
			report.DeletedTranslations, err = s.licenses.DeleteTranslations(ctx, tx, legacy.TextID.Int64, locales)
			if err != nil {
				return fmt.Errorf("%s: %w", op, err)
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info("legacy license fixed",
		slog.Int("cloned", len(report.ClonedLicenses)),
		slog.Int64("updated_translations", report.UpdatedTranslations),
		slog.Int64("deleted_translations", report.DeletedTranslations),
	)

	return report, nil
}

// splitLicense gives the current version of the changed add-on a private copy of its license.
func (s *LicenseServiceImpl) splitLicense(ctx context.Context, tx *sqlx.Tx, change domain.ActivityLog) (int64, error) {
	if !change.AddonID.Valid {
		return 0, fmt.Errorf("activity %d does not reference an add-on", change.ID)
	}

	version, err := s.addons.GetCurrentVersion(ctx, tx, change.AddonID.Int64)
	if err != nil {
		return 0, fmt.Errorf("failed to get current version of add-on %d: %w", change.AddonID.Int64, err)
	}

	if !version.LicenseID.Valid {
		return 0, fmt.Errorf("%w: version %d has no license", apperrors.ErrNotFound, version.ID)
	}

	license, err := s.licenses.GetLicenseForUpdate(ctx, tx, version.LicenseID.Int64)
	if err != nil {
		return 0, err
	}

	clone, err := s.licenses.CloneLicense(ctx, tx, license, true)
	if err != nil {
		return 0, err
	}

	if err := s.licenses.SetVersionLicense(ctx, tx, version.ID, clone.ID); err != nil {
		return 0, err
	}

	return clone.ID, nil
}
