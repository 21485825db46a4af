// Entry point for REST API
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"attendance.service/internal/api"
	"attendance.service/internal/api/handler"
	"attendance.service/internal/config"
	"attendance.service/internal/core"
	"attendance.service/internal/ports/messaging"
	"attendance.service/internal/ports/repository"
	"attendance.service/pkg/aws"
	"attendance.service/pkg/database"
	"attendance.service/pkg/logger"
	"attendance.service/pkg/telemetry"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("Could not load configuration")
	}

	logger.Setup(cfg.IsLocalDev)
	if cfg.SessionSecret == "" {
		log.Fatal().Msg("SESSION_SECRET is required")
	}

	ctx := context.Background()

	shutdownTracer, err := telemetry.InitTracer(ctx, "attendance-api", cfg.OTelEndpoint, cfg.IsLocalDev)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to init tracer")
	}
	defer func() {
		_ = shutdownTracer(context.Background())
	}()

	db, err := database.NewInstrumentedConnection(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Error opening database")
	}
	defer db.Close()
	log.Info().Msg("Successfully connected to the database.")

	repo := repository.NewPostgresRepository(db)
	if err := repo.Migrate(ctx); err != nil {
		log.Fatal().Err(err).Msg("Failed to migrate database")
	}

	awsCfg, err := aws.NewAWSConfig(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("unable to load SDK config")
	}

	loc, _ := cfg.Location()
	defaults, _ := cfg.DefaultRates()

	producer := messaging.NewSQSProducer(sqs.NewFromConfig(awsCfg), cfg.PayrollSQSQueueURL, cfg.EmailSQSQueueURL)
	auth := core.NewAuthService(repo, repo, cfg.SessionSecret, cfg.SessionTTL, cfg.BootstrapAdminPassword)
	if err := auth.EnsureAdmin(logger.EnrichContextWithLogger(ctx)); err != nil {
		log.Fatal().Err(err).Msg("Failed to bootstrap admin settings")
	}

	h := &handler.Handler{
		Attendance:   core.NewAttendanceService(repo, producer, loc, defaults),
		Reports:      core.NewReportService(repo, producer, loc, defaults),
		Auth:         auth,
		RecipientFor: cfg.RecipientFor,
	}
	router := api.NewRouter(h, cfg.AllowedOrigins())

	// otelhttp opens the span first so the request logger can pick up its ids
	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           otelhttp.NewHandler(logger.Middleware(router), "api"),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.ServerPort).Str("timezone", loc.String()).Msg("API Service starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("listen")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exiting")
}
