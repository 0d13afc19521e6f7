// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Command api is the entry point for the Dublin Bikes HTTP API server.
//
// # Startup Sequence
//
//  1. Initialize structured logger.
//  2. Load configuration from environment variables (and .env).
//  3. Connect to PostgreSQL (pgxpool).
//  4. Connect to Redis.
//  5. Run database migrations (idempotent).
//  6. Start the verification mail dispatcher.
//  7. Wire HTTP handlers.
//  8. Start HTTP server with graceful shutdown.
//
// No business logic lives here. All wiring is explicit constructor injection.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/taibuivan/dublinbikes/internal/api"
	"github.com/taibuivan/dublinbikes/internal/bikes/station"
	"github.com/taibuivan/dublinbikes/internal/platform/clock"
	"github.com/taibuivan/dublinbikes/internal/platform/config"
	"github.com/taibuivan/dublinbikes/internal/platform/constants"
	"github.com/taibuivan/dublinbikes/internal/platform/mailer"
	"github.com/taibuivan/dublinbikes/internal/platform/migration"
	pgstore "github.com/taibuivan/dublinbikes/internal/platform/postgres"
	redisstore "github.com/taibuivan/dublinbikes/internal/platform/redis"
	"github.com/taibuivan/dublinbikes/internal/platform/sec"
	"github.com/taibuivan/dublinbikes/internal/users/account"
	"github.com/taibuivan/dublinbikes/internal/users/auth"
	"github.com/taibuivan/dublinbikes/internal/weather"
)

func main() {
	// ── 1. Logger ──────────────────────────────────────────────────────────
	// Initialize first so that subsequent startup errors are structured JSON.
	log := newLogger(slog.LevelInfo)
	slog.SetDefault(log)

	log.Info("service_initializing", slog.String("version", constants.AppVersion))

	// ── 2. Configuration ──────────────────────────────────────────────────
	cfg, err := config.Load()
	must(log, err, "load configuration")

	if cfg.Debug {
		log = newLogger(slog.LevelDebug)
		slog.SetDefault(log)
		log.Debug("debug_logging_enabled")
	}

	log.Info("configuration_loaded",
		slog.String("environment", cfg.Environment),
		slog.String("port", cfg.ServerPort),
		slog.Bool("smtp_enabled", cfg.Mail.Enabled()),
	)

	// Root context for startup. Use a 30s deadline so misconfiguration is
	// caught quickly rather than hanging indefinitely.
	startupCtx, startupCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer startupCancel()

	// Lives until shutdown; background sweepers stop when it is cancelled.
	appCtx, appCancel := context.WithCancel(context.Background())
	defer appCancel()

	// ── 3. PostgreSQL ─────────────────────────────────────────────────────
	pool, err := pgstore.NewPool(startupCtx, cfg.DatabaseURL, log)
	must(log, err, "connect to postgres")
	defer func() {
		log.Info("closing postgres pool")
		pool.Close()
	}()

	// ── 4. Redis ──────────────────────────────────────────────────────────
	rdb, err := redisstore.NewClient(startupCtx, cfg.RedisURL, log)
	must(log, err, "connect to redis")
	defer func() {
		log.Info("closing redis client")
		if cerr := rdb.Close(); cerr != nil {
			log.Error("redis close error", slog.Any("error", cerr))
		}
	}()

	// ── 5. Migrations ─────────────────────────────────────────────────────
	must(log, migration.RunUp(cfg.DatabaseURL, cfg.MigrationPath, cfg.Debug, log), "run migrations")

	// ── 6. Mail Dispatcher ────────────────────────────────────────────────
	var sender mailer.Sender = mailer.LogSender{Logger: log}
	if cfg.Mail.Enabled() {
		sender = mailer.NewSMTPSender(mailer.SMTPConfig{
			Host:     cfg.Mail.Server,
			Port:     cfg.Mail.Port,
			Username: cfg.Mail.Username,
			Password: cfg.Mail.Password,
			From:     cfg.Mail.From,
		})
	} else {
		log.Warn("smtp_not_configured_mail_logged_only")
	}
	dispatcher := mailer.NewDispatcher(sender, cfg.Mail.Workers, cfg.Mail.QueueSize, constants.MailSendTimeout, log)

	// ── 7. Domain Wiring ──────────────────────────────────────────────────
	codec, err := sec.NewTokenCodec(sec.TokenConfig{
		AccessSecret:  []byte(cfg.AccessTokenSecret),
		RefreshSecret: []byte(cfg.RefreshTokenSecret),
		AccessTTL:     cfg.AccessTokenTTL,
		RefreshTTL:    cfg.RefreshTokenTTL,
		Issuer:        constants.AuthIssuer,
	})
	must(log, err, "initialize token codec")

	systemClock := clock.System{}

	accountRepository := auth.NewAccountRepository(pool)
	authService := auth.NewService(accountRepository, codec, dispatcher, systemClock, auth.Config{
		CodeTTL:         cfg.VerificationCodeTTL,
		ResendCooldown:  cfg.ResendCooldown,
		FrontendBaseURL: cfg.FrontendBaseURL,
	}, log)
	authHandler := auth.NewHandler(authService)

	accountHandler := account.NewHandler(account.NewService(accountRepository, log), authHandler.Verifier())

	stationService := station.NewService(station.NewPostgresRepository(pool), systemClock, log)

	weatherClient := weather.NewClient(weather.Config{
		BaseURL:  cfg.WeatherBaseURL,
		APIKey:   cfg.WeatherAPIKey,
		CacheTTL: cfg.WeatherCacheTTL,
		Timeout:  constants.WeatherUpstreamTimeout,
	}, weather.NewRedisCache(rdb), log)

	// ── 8. Health handlers (wired with real dependency checkers) ──────────
	liveness, readiness := api.NewHealthHandlers(api.HealthDependencies{
		CheckDatabase: func(ctx context.Context) error {
			return pgstore.Ping(ctx, pool)
		},
		CheckCache: func(ctx context.Context) error {
			return redisstore.Ping(ctx, rdb)
		},
	}, log)

	// ── 9. HTTP Server ────────────────────────────────────────────────────
	server := api.NewServer(appCtx, cfg, log, api.Handlers{
		Liveness:  liveness,
		Readiness: readiness,
		Auth:      authHandler,
		Account:   accountHandler,
		Station:   station.NewHandler(stationService),
		Weather:   weather.NewHandler(weatherClient),
	})

	// ── 10. Graceful Shutdown ─────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)

	serverErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Block until OS signal or server error.
	select {
	case sig := <-quit:
		log.Info("shutdown signal received", slog.String("signal", sig.String()))
	case err := <-serverErr:
		log.Error("server startup error", slog.Any("error", err))
	}

	// Give in-flight requests enough time to complete.
	shutdownTimeout := constants.ShutdownTimeout
	log.Info("shutting down server", slog.Duration("timeout", shutdownTimeout))

	exitCode := 0
	if err := server.Shutdown(shutdownTimeout); err != nil {
		log.Error("shutdown error", slog.Any("error", err))
		exitCode = 1
	}

	// Requests are finished; flush the mail queued by them.
	drainCtx, drainCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	if err := dispatcher.Close(drainCtx); err != nil {
		log.Error("mail dispatcher drain error", slog.Any("error", err))
		exitCode = 1
	}
	drainCancel()

	if exitCode != 0 {
		appCancel()
		pool.Close()
		os.Exit(exitCode)
	}

	log.Info("server stopped cleanly")
}

// newLogger builds the JSON logger tagged with the application name.
func newLogger(level slog.Level) *slog.Logger {
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	return slog.New(handler).With(slog.String("app", constants.AppName))
}

// must logs a structured fatal error and terminates the process if err is non-nil.
//
// It is limited to startup wiring. After startup, all errors are returned and
// handled explicitly.
func must(log *slog.Logger, err error, context string) {
	if err != nil {
		log.Error("startup failure",
			slog.String("context", context),
			slog.Any("error", err),
		)
		os.Exit(1)
	}
}
