package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/noah-isme/dojo-contact-api/internal/config"
	"github.com/noah-isme/dojo-contact-api/internal/database"
	"github.com/noah-isme/dojo-contact-api/internal/handler"
	"github.com/noah-isme/dojo-contact-api/internal/logging"
	"github.com/noah-isme/dojo-contact-api/internal/middleware"
	"github.com/noah-isme/dojo-contact-api/internal/repository"
	"github.com/noah-isme/dojo-contact-api/internal/router"
	"github.com/noah-isme/dojo-contact-api/internal/service"
)

const eventFlushTimeout = 3 * time.Second

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}
}

func runServe(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, logCloser, err := logging.New(logging.Options{
		Level:      cfg.LogLevel,
		Pretty:     cfg.AppEnv == "development",
		File:       cfg.LogFile,
		MaxSizeMB:  cfg.LogMaxSizeMB,
		MaxBackups: cfg.LogMaxBackups,
		MaxAgeDays: cfg.LogMaxAgeDays,
	}, os.Stdout)
	if err != nil {
		return fmt.Errorf("failed to initialise logger: %w", err)
	}
	defer logCloser.Close()

	app, cleanup, err := buildApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	logger.Info().
		Str("address", cfg.HTTPAddress()).
		Bool("verification", cfg.VerificationEnabled()).
		Bool("secondary", cfg.SecondaryEnabled()).
		Msg("starting contact relay")

	errCh := make(chan error, 1)
	go func() {
		errCh <- app.Listen(cfg.HTTPAddress())
	}()

	return waitForShutdown(ctx, app, errCh, logger)
}

// buildApp wires optional sinks around the relay. Sinks that fail to connect are disabled, not fatal.
func buildApp(ctx context.Context, cfg config.Config, logger zerolog.Logger) (*fiber.App, func(), error) {
	var closers []io.Closer
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			_ = closers[i].Close()
		}
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	channels := handler.HealthChannels{Verification: cfg.VerificationEnabled()}

	var secondary service.ContactDelivery
	if cfg.SecondaryEnabled() {
		db, err := database.ConnectPostgres(cfg.SupabaseDBURL)
		if err != nil {
			logger.Error().Err(err).Msg("secondary store disabled")
		} else {
			if sqlDB, err := db.DB(); err == nil {
				closers = append(closers, sqlDB)
			}
			secondary = service.NewStoreDelivery(repository.NewContactRepository(db, cfg.SupabaseTable))
			channels.Secondary = true
		}
	}

	publishers := []service.EventPublisher{service.NewLogPublisher(logger)}
	if cfg.RedisURL != "" {
		client, err := database.ConnectRedis(ctx, cfg.RedisURL)
		if err != nil {
			logger.Warn().Err(err).Msg("redis event stream disabled")
		} else {
			closers = append(closers, client)
			publishers = append(publishers, service.NewRedisStreamPublisher(client, cfg.RedisStream, 0))
		}
	}
	if cfg.NATSURL != "" {
		conn, err := database.ConnectNATS(cfg.NATSURL, cfg.AppName)
		if err != nil {
			logger.Warn().Err(err).Msg("nats events disabled")
		} else {
			closers = append(closers, closerFunc(func() error {
				conn.Close()
				return nil
			}))
			publishers = append(publishers, service.NewNATSPublisher(conn, cfg.NATSSubject))
		}
	}

	verifier := service.NewHumanVerifier(cfg.RecaptchaSecretKey, cfg.RecaptchaVerifyURL, cfg.BackendTimeout, logger)
	primary := service.NewHTTPBackend(cfg.BackendURL, cfg.BackendTimeout)
	if _, err := primary.BaseURL(); err != nil {
		logger.Error().Err(err).Msg("backend url missing, submissions will be refused")
	} else {
		channels.Primary = true
	}

	contactService := service.NewContactService(verifier, primary, secondary, validate, logger, publishers...)
	if flusher, ok := contactService.(service.EventFlusher); ok {
		// Closed first, so pending events still reach the sinks.
		closers = append(closers, closerFunc(func() error {
			flushCtx, cancel := context.WithTimeout(context.Background(), eventFlushTimeout)
			defer cancel()
			return flusher.FlushEvents(flushCtx)
		}))
	}

	app := fiber.New(router.AppConfig(cfg))

	middleware.Register(app, middleware.Config{
		Logger:        &logger,
		AllowOrigins:  cfg.CORSOrigins,
		AccessLogging: cfg.AppEnv == "development",
	})
	router.Register(app, cfg, router.Dependencies{
		ContactHandler:    handler.NewContactHandler(contactService, logger),
		DisciplineHandler: handler.NewDisciplineHandler(),
		Channels:          &channels,
	})

	return app, cleanup, nil
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

func waitForShutdown(ctx context.Context, app *fiber.App, errCh <-chan error, logger zerolog.Logger) error {
	shutdownCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("failed to start server: %w", err)
		}
		return nil
	case <-shutdownCtx.Done():
	}

	stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(stopCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}

	logger.Info().Msg("server stopped")
	return nil
}
