// @title Stagholme Invitations API
// @version 1.0
// @description Admin API for scheduled events and their calendar invitations.
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"

	"stagholme/config"
	_ "stagholme/docs"
	"stagholme/internal/adapters/auth"
	"stagholme/internal/adapters/calendar"
	"stagholme/internal/adapters/email"
	delivery "stagholme/internal/delivery/http"
	"stagholme/internal/delivery/http/controllers"
	"stagholme/internal/delivery/http/middleware"
	"stagholme/internal/repository/postgres"
	"stagholme/internal/services"
)

const shutdownTimeout = 30 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	logger := config.NewLogger(cfg)
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("server exited", "err", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	db, err := sql.Open("postgres", cfg.DBUrl)
	if err != nil {
		return err
	}
	defer db.Close()

	pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		return err
	}
	logger.Info("connected to database")

	loc, err := cfg.Invitation.Location()
	if err != nil {
		return err
	}

	// Adapters
	mailer, err := email.NewMailer(cfg.Mailer, logger)
	if err != nil {
		return err
	}
	renderer, err := email.NewTemplateRenderer()
	if err != nil {
		return err
	}
	calendarBuilder := calendar.NewBuilder(calendar.Config{
		UIDDomain:             cfg.Invitation.UIDDomain,
		DefaultOrganizerName:  cfg.Invitation.DefaultOrganizerName,
		DefaultOrganizerEmail: cfg.Invitation.DefaultOrganizerEmail,
		Location:              loc,
	})
	tokenVerifier := auth.NewJWTVerifier(cfg.JWTSecret, auth.RoleAdmin)

	// Repositories
	eventRepo := postgres.NewScheduledEventRepository(db, logger)
	trackingRepo := postgres.NewInvitationTrackingRepository(db)
	userRepo := postgres.NewUserRepository(db)

	// Services
	emailService := services.NewEmailService(mailer, renderer, logger)
	resolver := services.NewRecipientResolver(userRepo)
	dispatcher := services.NewInvitationDispatcher(calendarBuilder, emailService, services.DispatcherConfig{
		SendTimeout:     cfg.Invitation.SendTimeout,
		SendConcurrency: cfg.Invitation.SendConcurrency,
		Location:        loc,
	}, logger)
	sweeper := services.NewInvitationSweeper(eventRepo, trackingRepo, resolver, dispatcher, cfg.Invitation.ExpiryGrace, cfg.RequestTimeout, logger)
	scheduler := services.NewSweepScheduler(sweeper, services.SchedulerConfig{
		Interval:   cfg.Invitation.SweepInterval,
		RunOnStart: cfg.Invitation.RunOnStart,
	}, logger)
	eventService := services.NewScheduledEventService(eventRepo, trackingRepo, resolver, dispatcher, logger, cfg.RequestTimeout)

	// HTTP
	router := delivery.NewRouter(
		controllers.NewScheduledEventController(logger, eventService),
		controllers.NewSweepController(logger, scheduler),
		controllers.NewHealthController(db),
		middleware.RequireAuth(tokenVerifier, logger),
	)
	handler := middleware.LoggingMiddleware(logger, middleware.CORS(cfg.CORSAllowedOrigins, router))
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := scheduler.Start(ctx); err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", "port", cfg.Port, "env", cfg.Environment)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return err
		}
	case <-ctx.Done():
		logger.Info("shutting down")
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancelShutdown()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown", "err", err)
	}
	return scheduler.Stop(shutdownCtx)
}
