// Command server starts the social video API HTTP service.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dhaval110/social-media-backend/internal/api"
	"github.com/dhaval110/social-media-backend/internal/auth"
	"github.com/dhaval110/social-media-backend/internal/auth/google"
	"github.com/dhaval110/social-media-backend/internal/config"
	"github.com/dhaval110/social-media-backend/internal/mail"
	"github.com/dhaval110/social-media-backend/internal/media"
	"github.com/dhaval110/social-media-backend/internal/observability/logging"
	"github.com/dhaval110/social-media-backend/internal/server"
	"github.com/dhaval110/social-media-backend/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Init(logging.Config{}).Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := logging.Init(logging.Config{Level: cfg.HTTP.LogLevel})
	auditLogger := logging.WithComponent(logger, "audit")

	tokens, err := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	if err != nil {
		logger.Error("failed to initialise token manager", "error", err)
		os.Exit(1)
	}

	startupCtx, startupCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer startupCancel()

	var store storage.Repository
	var storeCloser func(context.Context) error
	switch cfg.Storage.Driver {
	case "memory":
		store = storage.NewMemoryRepository()
	case "postgres":
		if err := storage.RunMigrations(startupCtx, cfg.Storage.PostgresDSN); err != nil {
			logger.Error("failed to apply migrations", "error", err)
			os.Exit(1)
		}
		pgStore, err := storage.NewPostgresRepository(startupCtx, storage.PostgresConfig{
			DSN:            cfg.Storage.PostgresDSN,
			MaxConns:       cfg.Storage.MaxConns,
			MinConns:       cfg.Storage.MinConns,
			ConnectTimeout: cfg.Storage.ConnTimeout,
		})
		if err != nil {
			logger.Error("failed to open datastore", "error", err)
			os.Exit(1)
		}
		store = pgStore
		storeCloser = pgStore.Close
	default:
		logger.Error("unsupported storage driver", "driver", cfg.Storage.Driver)
		os.Exit(1)
	}

	var mailer mail.Sender
	if cfg.Mail.PostmarkToken != "" {
		sender, err := mail.NewPostmarkSender(cfg.Mail.PostmarkToken, cfg.Mail.FromAddress)
		if err != nil {
			logger.Error("failed to initialise mailer", "error", err)
			os.Exit(1)
		}
		mailer = sender
	} else {
		logger.Warn("no mail provider configured, emails will only be logged")
		mailer = mail.NewLogSender(logging.WithComponent(logger, "mail"))
	}

	var mediaStore api.MediaStore
	if cfg.Media.Bucket != "" {
		s3Store, err := media.NewStorage(startupCtx, media.Config{
			Endpoint:  cfg.Media.Endpoint,
			Region:    cfg.Media.Region,
			AccessKey: cfg.Media.AccessKey,
			SecretKey: cfg.Media.SecretKey,
			Bucket:    cfg.Media.Bucket,
			PublicURL: cfg.Media.PublicURL,
		})
		if err != nil {
			logger.Error("failed to initialise media storage", "error", err)
			os.Exit(1)
		}
		mediaStore = s3Store
	} else {
		logger.Warn("no media bucket configured, uploads are disabled")
	}

	var googleVerifier google.Verifier
	if cfg.Auth.GoogleClientID != "" {
		verifier, err := google.NewIDTokenVerifier(cfg.Auth.GoogleClientID)
		if err != nil {
			logger.Error("failed to initialise google verifier", "error", err)
			os.Exit(1)
		}
		googleVerifier = verifier
	} else {
		logger.Warn("no google client id configured, federated login is disabled")
	}

	handler := &api.Handler{
		Store:     store,
		Tokens:    tokens,
		Google:    googleVerifier,
		Mailer:    mailer,
		Media:     mediaStore,
		BaseURL:   cfg.HTTP.BaseURL,
		AppScheme: cfg.HTTP.AppScheme,
		Logger:    logging.WithComponent(logger, "api"),
	}

	srv, err := server.New(handler, server.Config{
		Addr: cfg.HTTP.Addr,
		TLS: server.TLSConfig{
			CertFile: cfg.HTTP.TLSCert,
			KeyFile:  cfg.HTTP.TLSKey,
		},
		CORS: server.CORSConfig{AllowedOrigins: cfg.HTTP.CORSOrigins},
		RateLimit: server.RateLimitConfig{
			LoginLimit:    cfg.RateLimit.LoginLimit,
			LoginWindow:   cfg.RateLimit.LoginWindow,
			RedisAddr:     cfg.RateLimit.RedisAddr,
			RedisUsername: cfg.RateLimit.RedisUser,
			RedisPassword: cfg.RateLimit.RedisPass,
		},
		Logger:      logger,
		AuditLogger: auditLogger,
	})
	if err != nil {
		logger.Error("failed to initialise server", "error", err)
		os.Exit(1)
	}

	errs := make(chan error, 1)
	go func() {
		logger.Info("API listening", "addr", cfg.HTTP.Addr, "storage", cfg.Storage.Driver)
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errs <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		logger.Info("received shutdown signal", "signal", sig.String())
	case err := <-errs:
		logger.Error("server error", "error", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Warn("graceful shutdown failed", "error", err)
	}

	if storeCloser != nil {
		if err := storeCloser(ctx); err != nil {
			logger.Warn("failed to close datastore", "error", err)
		}
	}

	logger.Info("server stopped")
}
