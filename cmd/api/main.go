package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/clinovahq/clinic-platform/internal/api/router"
	"github.com/clinovahq/clinic-platform/internal/appointments"
	"github.com/clinovahq/clinic-platform/internal/assistant"
	"github.com/clinovahq/clinic-platform/internal/auth"
	"github.com/clinovahq/clinic-platform/internal/calendar"
	appconfig "github.com/clinovahq/clinic-platform/internal/config"
	"github.com/clinovahq/clinic-platform/internal/doctors"
	"github.com/clinovahq/clinic-platform/internal/notify"
	"github.com/clinovahq/clinic-platform/internal/observability/metrics"
	"github.com/clinovahq/clinic-platform/internal/patients"
	"github.com/clinovahq/clinic-platform/internal/slotlock"
	"github.com/clinovahq/clinic-platform/pkg/logging"
)

func main() {
	_ = godotenv.Load()

	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting clinic-platform API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	ctx := context.Background()

	if cfg.DatabaseURL == "" {
		logger.Error("DATABASE_URL is required")
		os.Exit(1)
	}
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to create database pool", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	loc, err := time.LoadLocation(cfg.CalendarTimezone)
	if err != nil {
		logger.Warn("unknown timezone, falling back to UTC", "timezone", cfg.CalendarTimezone)
		loc = time.UTC
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	schedMetrics := metrics.NewSchedulingMetrics(registry)

	locker, redisClient := slotlock.Connect(slotlock.Config{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		TLS:      cfg.RedisTLS,
		TTL:      cfg.SlotLockTTL,
	}, logger)
	if redisClient != nil {
		defer func() { _ = redisClient.Close() }()
	} else {
		logger.Warn("slot locking disabled: no Redis address configured")
	}

	var calClient appointments.CalendarSync
	if cfg.GoogleCredentialsFile != "" {
		gc, err := calendar.NewGoogleClient(ctx, calendar.GoogleConfig{
			CredentialsFile: cfg.GoogleCredentialsFile,
			CalendarID:      cfg.GoogleCalendarID,
		}, logger)
		if err != nil {
			logger.Error("failed to create calendar client", "error", err)
			os.Exit(1)
		}
		calClient = gc
	} else {
		logger.Warn("calendar sync disabled: no Google credentials configured")
	}

	var sender notify.EmailSender
	if sg := notify.NewSendGridSender(notify.SendGridConfig{
		APIKey:    cfg.SendGridAPIKey,
		FromEmail: cfg.SendGridFromEmail,
		FromName:  cfg.SendGridFromName,
	}, logger); sg != nil {
		sender = sg
	} else if cfg.GoogleCredentialsFile != "" {
		gm, err := notify.NewGmailSender(ctx, notify.GmailConfig{
			CredentialsFile: cfg.GoogleCredentialsFile,
			Sender:          cfg.GmailSender,
		}, logger)
		if err != nil {
			logger.Error("failed to create gmail sender", "error", err)
			os.Exit(1)
		}
		sender = gm
	} else {
		logger.Warn("email notifications stubbed: no email provider configured")
		sender = notify.NewStubEmailSender(logger)
	}
	mailer := notify.NewMailer(sender, loc, logger)

	apptStore := appointments.NewStore(pool)
	apptService := appointments.NewService(apptStore, calClient, mailer, locker, schedMetrics, appointments.ServiceConfig{
		Grid: appointments.Grid{
			StartHour:    cfg.WorkdayStartHour,
			EndHour:      cfg.WorkdayEndHour,
			IntervalMins: cfg.SlotIntervalMins,
		},
		Timezone:     loc,
		TimezoneName: cfg.CalendarTimezone,
	}, logger)

	patientStore := patients.NewStore(pool)
	doctorStore := doctors.NewStore(pool)
	authService := auth.NewService(auth.NewStore(pool), cfg.JWTSecret, cfg.JWTTTL, logger)

	var assistantHandler *assistant.Handler
	if cfg.GeminiAPIKey != "" {
		llm, err := assistant.NewGeminiClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModelID)
		if err != nil {
			logger.Error("failed to create assistant client", "error", err)
			os.Exit(1)
		}
		defer func() { _ = llm.Close() }()
		assistantService := assistant.NewService(llm, assistant.ClinicInfo{
			Name:        cfg.SendGridFromName,
			OpeningHour: cfg.WorkdayStartHour,
			ClosingHour: cfg.WorkdayEndHour,
			SlotMinutes: cfg.SlotIntervalMins,
		}, logger)
		assistantHandler = assistant.NewHandler(assistantService, logger)
	} else {
		logger.Warn("assistant disabled: no Gemini key configured")
	}

	r := router.New(&router.Config{
		Logger:              logger,
		AuthHandler:         auth.NewHandler(authService, logger),
		AppointmentsHandler: appointments.NewHandler(apptService, logger),
		PatientsHandler:     patients.NewHandler(patientStore, logger),
		DoctorsHandler:      doctors.NewHandler(doctorStore, logger),
		AssistantHandler:    assistantHandler,
		MetricsHandler:      promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		JWTSecret:           cfg.JWTSecret,
		CORSAllowedOrigins:  cfg.CORSAllowedOrigins,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}
