package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/nutrisms/nutrisms/internal/config"
	"github.com/nutrisms/nutrisms/internal/domain/patient"
	"github.com/nutrisms/nutrisms/internal/domain/report"
	"github.com/nutrisms/nutrisms/internal/domain/reporter"
	"github.com/nutrisms/nutrisms/internal/platform/auth"
	"github.com/nutrisms/nutrisms/internal/platform/db"
	"github.com/nutrisms/nutrisms/internal/platform/growth"
	"github.com/nutrisms/nutrisms/internal/platform/middleware"
	"github.com/nutrisms/nutrisms/internal/platform/sms"
)

// dedupTTL bounds how long gateway message IDs are remembered. Gateways
// retry within minutes, not days.
const dedupTTL = 24 * time.Hour

func main() {
	rootCmd := &cobra.Command{
		Use:   "nutrisms-server",
		Short: "SMS nutrition surveillance server",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the nutrition SMS server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			if err := db.Migrate(ctx, pool); err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}
			fmt.Println("Schema applied successfully.")
			return nil
		},
	}
}

func runServer() error {
	// Logger
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if os.Getenv("ENV") == "development" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}

	// Config
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid config")
	}

	// Database
	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	// Redis, for inbound message dedup. Optional: without it every
	// delivery is treated as new.
	var rdb *redis.Client
	if cfg.RedisURL != "" {
		opt, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("invalid REDIS_URL")
		}
		rdb = redis.NewClient(opt)
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to redis")
		}
		logger.Info().Msg("connected to redis")
	} else {
		logger.Warn().Msg("REDIS_URL not set; inbound dedup is disabled")
	}

	// Growth reference tables
	calc := growth.NewLMS()
	if cfg.GrowthReferencePath != "" {
		if err := calc.LoadFile(cfg.GrowthReferencePath); err != nil {
			logger.Fatal().Err(err).Str("path", cfg.GrowthReferencePath).Msg("failed to load growth reference")
		}
		logger.Info().Str("path", cfg.GrowthReferencePath).Msg("growth reference loaded")
	} else {
		logger.Warn().Msg("GROWTH_REFERENCE_PATH not set; reports will be stored unanalyzed")
	}

	// Outbound SMS
	var sender sms.Sender = sms.LogSender{}
	if cfg.GatewayURL != "" {
		sender = sms.NewGatewaySender(cfg.GatewayURL, cfg.GatewayToken)
		logger.Info().Str("gateway", cfg.GatewayURL).Msg("SMS gateway configured")
	} else {
		logger.Warn().Msg("GATEWAY_URL not set; replies are returned in the webhook response only")
	}

	// Services
	patientSvc := patient.NewService(patient.NewPatientRepoPG(pool), cfg.PatientSource)
	reporterSvc := reporter.NewService(reporter.NewReporterRepoPG(pool))
	reportSvc := report.NewService(report.NewReportRepoPG(pool), calc, logger)
	composer := report.NewComposer(logger)

	// SMS pipeline
	router := sms.NewRouter(cfg.SMSPrefix, sms.NewDedup(rdb, dedupTTL), sender, logger)
	router.Register(report.NewReportHandler(cfg.SMSPrefix,
		&report.CreateReportForm{Patients: patientSvc, Reporters: reporterSvc},
		reportSvc, composer, logger))
	router.Register(report.NewCancelHandler(cfg.SMSPrefix,
		&report.CancelReportForm{Patients: patientSvc},
		reporterSvc, reportSvc, composer, logger))

	// Echo server
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Global middleware
	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))

	// Gateway webhook
	e.POST("/sms/inbound", router.WebhookHandler())

	// Health check
	e.GET("/health", func(c echo.Context) error {
		status := "ok"
		code := http.StatusOK
		if !db.Healthy(c.Request().Context(), pool, 2*time.Second) {
			status = "degraded"
			code = http.StatusServiceUnavailable
		}
		return c.JSON(code, map[string]string{"status": status})
	})

	// Admin API
	apiV1 := e.Group("/api/v1")
	if cfg.IsDev() && cfg.JWTSecret == "" {
		apiV1.Use(auth.DevAuthMiddleware())
	} else {
		apiV1.Use(auth.JWTMiddleware([]byte(cfg.JWTSecret)))
	}

	patient.NewHandler(patientSvc).RegisterRoutes(apiV1)
	reporter.NewHandler(reporterSvc).RegisterRoutes(apiV1)
	report.NewHandler(reportSvc).RegisterRoutes(apiV1)

	// Graceful shutdown
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Msg("starting server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Fatal().Err(err).Msg("server shutdown failed")
	}
	logger.Info().Msg("server stopped")
	return nil
}
