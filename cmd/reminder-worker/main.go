package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/clinovahq/clinic-platform/internal/appointments"
	appconfig "github.com/clinovahq/clinic-platform/internal/config"
	"github.com/clinovahq/clinic-platform/internal/notify"
	"github.com/clinovahq/clinic-platform/internal/observability/metrics"
	"github.com/clinovahq/clinic-platform/internal/reminder"
	"github.com/clinovahq/clinic-platform/pkg/logging"
)

func main() {
	_ = godotenv.Load()

	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting reminder worker",
		"env", cfg.Env,
		"interval", cfg.ReminderInterval.String(),
		"hours_ahead", cfg.ReminderHoursAhead,
	)

	if cfg.DatabaseURL == "" {
		logger.Error("DATABASE_URL is required")
		os.Exit(1)
	}
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

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
		logger.Warn("reminder emails stubbed: no email provider configured")
		sender = notify.NewStubEmailSender(logger)
	}
	mailer := notify.NewMailer(sender, loc, logger)

	schedMetrics := metrics.NewSchedulingMetrics(prometheus.NewRegistry())
	store := appointments.NewStore(pool)
	worker := reminder.NewWorker(store, mailer, schedMetrics, logger).
		WithInterval(cfg.ReminderInterval).
		WithHoursAhead(cfg.ReminderHoursAhead)

	worker.Run(ctx)
	logger.Info("reminder worker stopped")
}
