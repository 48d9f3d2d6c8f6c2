// Command seed fills a development database with fake doctors, patients and
// appointments, plus one admin user (admin@clinova.example / changeme-now).
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/clinovahq/clinic-platform/internal/appointments"
	"github.com/clinovahq/clinic-platform/internal/auth"
	appconfig "github.com/clinovahq/clinic-platform/internal/config"
	"github.com/clinovahq/clinic-platform/pkg/logging"
)

var specialties = []string{
	"General Medicine", "Cardiology", "Dermatology", "Pediatrics", "Gynecology",
}

func main() {
	_ = godotenv.Load()

	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)

	if cfg.DatabaseURL == "" {
		logger.Error("DATABASE_URL is required")
		os.Exit(1)
	}
	ctx := context.Background()
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to create database pool", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := run(ctx, pool, cfg, logger); err != nil {
		logger.Error("seed failed", "error", err)
		os.Exit(1)
	}
	logger.Info("seed complete")
}

func run(ctx context.Context, pool *pgxpool.Pool, cfg *appconfig.Config, logger *logging.Logger) error {
	faker := gofakeit.New(0)

	authService := auth.NewService(auth.NewStore(pool), cfg.JWTSecret, cfg.JWTTTL, logger)
	if _, err := authService.Register(ctx, auth.RegisterRequest{
		Email:    "admin@clinova.example",
		FullName: "Clinic Admin",
		Password: "changeme-now",
		Role:     auth.RoleAdmin,
	}); err != nil && !errors.Is(err, auth.ErrEmailTaken) {
		return fmt.Errorf("seed admin: %w", err)
	}

	doctorIDs := make([]uuid.UUID, 0, 10)
	for i := 0; i < 10; i++ {
		id := uuid.New()
		email := faker.Email()
		_, err := pool.Exec(ctx, `
			INSERT INTO doctors (id, full_name, specialty, email)
			VALUES ($1, $2, $3, $4)`,
			id, faker.Name(), specialties[i%len(specialties)], email,
		)
		if err != nil {
			return fmt.Errorf("seed doctor: %w", err)
		}
		doctorIDs = append(doctorIDs, id)
	}

	patientIDs := make([]uuid.UUID, 0, 50)
	for i := 0; i < 50; i++ {
		id := uuid.New()
		email := faker.Email()
		phone := faker.Phone()
		birth := faker.DateRange(
			time.Date(1950, 1, 1, 0, 0, 0, 0, time.UTC),
			time.Date(2010, 1, 1, 0, 0, 0, 0, time.UTC),
		)
		_, err := pool.Exec(ctx, `
			INSERT INTO patients (id, first_name, last_name, email, phone, birth_date)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			id, faker.FirstName(), faker.LastName(), email, phone, birth,
		)
		if err != nil {
			return fmt.Errorf("seed patient: %w", err)
		}
		patientIDs = append(patientIDs, id)
	}

	grid := appointments.Grid{
		StartHour:    cfg.WorkdayStartHour,
		EndHour:      cfg.WorkdayEndHour,
		IntervalMins: cfg.SlotIntervalMins,
	}
	times := grid.Times()
	store := appointments.NewStore(pool)

	created := 0
	for day := 1; day <= 14; day++ {
		date := time.Now().AddDate(0, 0, day).Truncate(24 * time.Hour)
		for _, doctorID := range doctorIDs {
			// Book roughly a third of each doctor's day.
			for _, slot := range times {
				if faker.Number(0, 2) != 0 {
					continue
				}
				typ := appointments.TypeInPerson
				if faker.Bool() {
					typ = appointments.TypeVirtual
				}
				_, err := store.Create(ctx, appointments.CreateInput{
					DoctorID:  doctorID,
					PatientID: patientIDs[faker.Number(0, len(patientIDs)-1)],
					Date:      date,
					TimeOfDay: slot,
					Type:      typ,
					Reason:    faker.Sentence(6),
				})
				if err != nil {
					if errors.Is(err, appointments.ErrSchedulingConflict) {
						continue
					}
					return fmt.Errorf("seed appointment: %w", err)
				}
				created++
			}
		}
	}

	logger.Info("seeded database",
		"doctors", len(doctorIDs),
		"patients", len(patientIDs),
		"appointments", created,
	)
	return nil
}
