package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/YusovID/addon-reviews/internal/config"
	"github.com/YusovID/addon-reviews/internal/notify"
	"github.com/YusovID/addon-reviews/internal/repository/postgres"
	"github.com/YusovID/addon-reviews/internal/service"
	"github.com/YusovID/addon-reviews/pkg/logger/sl"
	"github.com/YusovID/addon-reviews/pkg/logger/slogpretty"
)

const usage = `usage: manage <command> [flags]

commands:
  fix-licenses     split the legacy license and repair its translations
  refresh-latest   recompute is_latest for one user and add-on
  hard-delete      permanently remove a review and its reply
  issue-token      print a bearer token for a user`

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}

	if err := run(ctx, os.Args[1], os.Args[2:]); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cmd string, args []string) error {
	cfg := config.MustLoad()
	log := slogpretty.SetupLogger(cfg.Env).With(slog.String("command", cmd))

	if cmd == "issue-token" {
		return issueToken(cfg, args)
	}

	db, err := postgres.NewDB(cfg.Postgres, log)
	if err != nil {
		return fmt.Errorf("failed to init db: %v", err)
	}
	defer func() {
		if err := db.DB().Close(); err != nil {
			log.Error("db close failed", sl.Err(err))
		}
	}()

	switch cmd {
	case "fix-licenses":
		return fixLicenses(ctx, log, db, args)
	case "refresh-latest":
		return refreshLatest(ctx, log, db, args)
	case "hard-delete":
		return hardDelete(ctx, log, db, args)
	default:
		return fmt.Errorf("unknown command '%s'\n%s", cmd, usage)
	}
}

func newReviewService(log *slog.Logger, db *postgres.Postgres) *service.ReviewServiceImpl {
	reviewRepo := postgres.NewReviewRepository(db.DB(), log)

	return service.NewReviewService(db.DB(), log, service.ReviewRepositories{
		Query:    reviewRepo,
		Audit:    reviewRepo,
		Command:  reviewRepo,
		Flags:    postgres.NewFlagRepository(db.DB(), log),
		Addons:   postgres.NewAddonRepository(db.DB(), log),
		Users:    postgres.NewUserRepository(db.DB(), log),
		Activity: postgres.NewActivityLogRepository(log),
	}, notify.NewLogNotifier(log), nil, "")
}

func fixLicenses(ctx context.Context, log *slog.Logger, db *postgres.Postgres, args []string) error {
	fix := service.DefaultLicenseFix()

	fs := flag.NewFlagSet("fix-licenses", flag.ContinueOnError)
	fs.Int64Var(&fix.LicenseID, "license", fix.LicenseID, "id of the legacy license")
	fs.StringVar(&fix.ExpectedName, "name", fix.ExpectedName, "expected en-us name of the legacy license")
	fs.IntVar(&fix.ExpectedChanges, "expected-changes", fix.ExpectedChanges, "number of license changes that must reference it")
	fs.StringVar(&fix.FixedName, "fixed-name", fix.FixedName, "name written into the broken locales")
	locales := fs.String("locales", strings.Join(fix.Locales, ","), "comma separated locales to repair")

	if err := fs.Parse(args); err != nil {
		return err
	}

	fix.Locales = strings.Split(*locales, ",")

	licenses := service.NewLicenseService(
		db.DB(),
		log,
		postgres.NewLicenseRepository(log),
		postgres.NewAddonRepository(db.DB(), log),
		postgres.NewActivityLogRepository(log),
	)

	report, err := licenses.FixLegacyLicense(ctx, fix)
	if err != nil {
		return fmt.Errorf("fix-licenses failed: %v", err)
	}

	log.Info("licenses fixed",
		slog.Any("cloned_licenses", report.ClonedLicenses),
		slog.Int64("updated_translations", report.UpdatedTranslations),
		slog.Int64("deleted_translations", report.DeletedTranslations),
	)

	return nil
}

func refreshLatest(ctx context.Context, log *slog.Logger, db *postgres.Postgres, args []string) error {
	fs := flag.NewFlagSet("refresh-latest", flag.ContinueOnError)
	userID := fs.Int64("user", 0, "user id")
	addonID := fs.Int64("addon", 0, "add-on id")

	if err := fs.Parse(args); err != nil {
		return err
	}

	if *userID <= 0 || *addonID <= 0 {
		return fmt.Errorf("refresh-latest: -user and -addon are required")
	}

	if err := newReviewService(log, db).RefreshLatest(ctx, *userID, *addonID); err != nil {
		return fmt.Errorf("refresh-latest failed: %v", err)
	}

	log.Info("latest review refreshed", slog.Int64("user_id", *userID), slog.Int64("addon_id", *addonID))

	return nil
}

func hardDelete(ctx context.Context, log *slog.Logger, db *postgres.Postgres, args []string) error {
	fs := flag.NewFlagSet("hard-delete", flag.ContinueOnError)
	reviewID := fs.Int64("review", 0, "review id")

	if err := fs.Parse(args); err != nil {
		return err
	}

	if *reviewID <= 0 {
		return fmt.Errorf("hard-delete: -review is required")
	}

	if err := newReviewService(log, db).PurgeReview(ctx, *reviewID); err != nil {
		return fmt.Errorf("hard-delete failed: %v", err)
	}

	log.Info("review deleted", slog.Int64("review_id", *reviewID))

	return nil
}

func issueToken(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("issue-token", flag.ContinueOnError)
	userID := fs.Int64("user", 0, "user id")

	if err := fs.Parse(args); err != nil {
		return err
	}

	if *userID <= 0 {
		return fmt.Errorf("issue-token: -user is required")
	}

	token, err := service.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL).Issue(*userID)
	if err != nil {
		return fmt.Errorf("issue-token failed: %v", err)
	}

	fmt.Println(token)

	return nil
}
