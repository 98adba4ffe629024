package main

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/YusovID/addon-reviews/internal/config"
	"github.com/YusovID/addon-reviews/internal/notify"
	"github.com/YusovID/addon-reviews/internal/repository/cached"
	"github.com/YusovID/addon-reviews/internal/repository/postgres"
	"github.com/YusovID/addon-reviews/internal/service"
	myhttp "github.com/YusovID/addon-reviews/internal/transport/http"
	"github.com/YusovID/addon-reviews/pkg/logger/sl"

	"github.com/YusovID/addon-reviews/pkg/logger/slogpretty"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg := config.MustLoad()
	log := slogpretty.SetupLogger(cfg.Env)

	log.Info("starting addon-reviews", slog.String("env", cfg.Env))

	errChan := make(chan error, 1)

	db, err := postgres.NewDB(cfg.Postgres, log)
	if err != nil {
		return fmt.Errorf("failed to init db: %v", err)
	}
	defer func() {
		if err := db.DB().Close(); err != nil {
			log.Error("db close failed", sl.Err(err))
		}
	}()

	reviewRepo := postgres.NewReviewRepository(db.DB(), log)
	reviewQuery := cached.NewReviewQueryRepository(reviewRepo, cfg.Cache.RatingsTTL, log)
	userRepo := postgres.NewUserRepository(db.DB(), log)

	reviews := service.NewReviewService(db.DB(), log, service.ReviewRepositories{
		Query:    reviewQuery,
		Audit:    reviewRepo,
		Command:  reviewRepo,
		Flags:    postgres.NewFlagRepository(db.DB(), log),
		Addons:   postgres.NewAddonRepository(db.DB(), log),
		Users:    userRepo,
		Activity: postgres.NewActivityLogRepository(log),
	}, notify.New(cfg.SMTP, log), reviewQuery, cfg.SMTP.SiteURL)

	auth := service.NewAuthService(log, service.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL), userRepo)

	flagLimiter, err := myhttp.NewFlagLimiter(cfg.RateLimit)
	if err != nil {
		return fmt.Errorf("failed to init rate limiter: %v", err)
	}

	srv := myhttp.NewServer(log, reviews, auth, flagLimiter)
	httpServer := &http.Server{
		Addr:              net.JoinHostPort(cfg.Server.Host, cfg.Server.Port),
		Handler:           srv.Routes(),
		ReadHeaderTimeout: cfg.Server.Timeout,
	}

	go startServer(log, httpServer, errChan)

	select {
	case err, ok := <-errChan:
		if ok {
			return fmt.Errorf("http server error: %v", err)
		}

	case <-ctx.Done():
		log.Info("stopping server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("error shuting down http server: %v", err)
	}

	return nil
}

func startServer(log *slog.Logger, httpServer *http.Server, errChan chan error) {
	defer close(errChan)

	log.Info("service started", slog.String("addr", httpServer.Addr))

	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		errChan <- fmt.Errorf("error listening and serving: %v", err)
	}
}
