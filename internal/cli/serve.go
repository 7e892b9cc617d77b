package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/ignatzorin/proposal-workspace/internal/cache"
	"github.com/ignatzorin/proposal-workspace/internal/config"
	"github.com/ignatzorin/proposal-workspace/internal/db"
	"github.com/ignatzorin/proposal-workspace/internal/goroutine"
	"github.com/ignatzorin/proposal-workspace/internal/http/router"
	"github.com/ignatzorin/proposal-workspace/internal/infrastructure/persistence"
	"github.com/ignatzorin/proposal-workspace/internal/interface/http/handler"
	"github.com/ignatzorin/proposal-workspace/internal/logger"
	"github.com/ignatzorin/proposal-workspace/internal/metrics"
	"github.com/ignatzorin/proposal-workspace/internal/notification"
	"github.com/ignatzorin/proposal-workspace/internal/service"
	"github.com/ignatzorin/proposal-workspace/internal/usecase/lifecycle"
)

const shutdownTimeout = 10 * time.Second

func NewServeCommand(load ConfigLoader) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the notification dispatcher",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			return serve(cmd.Context(), cfg)
		},
	}
}

func serve(ctx context.Context, cfg *config.Config) error {
	log := logger.Init(cfg.LogLevel, cfg.Env)
	recovery := goroutine.NewRecoveryHandler(log)

	conn, err := db.Open(ctx, cfg.DBDriver, cfg.DSN())
	if err != nil {
		return err
	}
	defer safeClose(log, conn)

	if cfg.DBDriver == db.DriverPostgres {
		if _, err := db.RunMigrations(ctx, conn, cfg.MigrationsPath); err != nil {
			return err
		}
	}

	collectors := metrics.New()

	dispatcher := notification.NewDispatcher(
		newDeliverer(cfg, log),
		cfg.NotifyInterval,
		notification.WithRecorder(collectors),
		notification.WithLogger(logger.Component("notifications")),
	)
	dispatcher.Start(ctx)
	defer dispatcher.Stop()

	opts := []lifecycle.Option{
		lifecycle.WithObserver(collectors),
		lifecycle.WithLogger(logger.Component("lifecycle")),
	}
	checks := map[string]handler.Pinger{"database": conn}

	var listing lifecycle.ListingCache
	if cfg.RedisURL != "" {
		redisCache, err := cache.NewListingCache(cfg.RedisURL, cfg.ListingCacheTTL)
		if err != nil {
			log.WithError(err).Warn("redis unavailable, falling back to in-memory listing cache")
		} else {
			defer func() { _ = redisCache.Close() }()
			listing = redisCache
			checks["cache"] = handler.PingFunc(redisCache.Ping)
		}
	}
	if listing == nil {
		memory := cache.NewMemoryListingCache(cfg.ListingCacheTTL)
		recovery.SafeGoWithContext(ctx, "listing-cache-janitor", func(ctx context.Context) {
			memory.RunJanitor(ctx, cfg.ListingCacheTTL)
		})
		listing = memory
	}
	opts = append(opts, lifecycle.WithCache(listing))

	coordinator := lifecycle.NewCoordinator(
		persistence.NewSQLUnitOfWork(conn, cfg.TxTimeout),
		dispatcher,
		lifecycle.Config{RestoreWindow: cfg.RestoreWindow, ViewersCanEdit: cfg.ViewersCanEdit},
		opts...,
	)

	engine := router.SetupRouter(router.Deps{
		Config:          cfg,
		Log:             logger.Component("http"),
		Tokens:          service.NewTokenManager(cfg.JWTSecret, 0),
		Registry:        collectors.Registry,
		ProposalHandler: handler.NewProposalHandler(coordinator),
		HealthHandler:   handler.NewHealthHandler(checks, dispatcher),
	})

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	recovery.SafeGo("http-server", func() {
		log.WithField("port", cfg.HTTPPort).Info("http server started")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	})

	select {
	case <-ctx.Done():
	case err, ok := <-serveErr:
		if ok {
			return fmt.Errorf("serve: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("http server shutdown failed")
	}
	log.WithField("pending_notifications", dispatcher.Len()).Info("server stopped")
	return nil
}

// newDeliverer выбирает SMTP, если он настроен, иначе уведомления только пишутся в лог.
func newDeliverer(cfg *config.Config, log logrus.FieldLogger) notification.Deliverer {
	smtpCfg := notification.SMTPConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		From:     cfg.SMTPFrom,
		FromName: cfg.SMTPFromName,
	}
	if smtpCfg.IsConfigured() {
		return notification.NewSMTPDeliverer(smtpCfg)
	}
	log.Warn("SMTP not configured, notifications will be logged only")
	return notification.NewLogDeliverer(logger.Component("mail"))
}

func safeClose(log logrus.FieldLogger, conn *sqlx.DB) {
	if err := conn.Close(); err != nil {
		log.WithError(err).Error("database close failed")
	}
}
