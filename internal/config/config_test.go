package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("ENV", "")
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("REMINDER_INTERVAL", "")
	cfg := Load()
	if cfg.Port != "8080" {
		t.Fatalf("expected default port, got %s", cfg.Port)
	}
	if cfg.Env != "development" {
		t.Fatalf("expected default env, got %s", cfg.Env)
	}
	if cfg.WorkdayStartHour != 8 || cfg.WorkdayEndHour != 18 {
		t.Fatalf("expected default workday 8-18, got %d-%d", cfg.WorkdayStartHour, cfg.WorkdayEndHour)
	}
	if cfg.SlotIntervalMins != 30 {
		t.Fatalf("expected default slot interval, got %d", cfg.SlotIntervalMins)
	}
	if cfg.ReminderInterval != 30*time.Minute {
		t.Fatalf("expected default reminder interval, got %s", cfg.ReminderInterval)
	}
	if cfg.ReminderHoursAhead != 24 {
		t.Fatalf("expected default reminder window, got %d", cfg.ReminderHoursAhead)
	}
	if cfg.GoogleCalendarID != "primary" {
		t.Fatalf("expected default calendar id, got %s", cfg.GoogleCalendarID)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("ENV", "production")
	t.Setenv("DATABASE_URL", "postgres://user@host/db")
	t.Setenv("JWT_TTL", "1h")
	t.Setenv("WORKDAY_START_HOUR", "9")
	t.Setenv("WORKDAY_END_HOUR", "17")
	t.Setenv("REMINDER_INTERVAL", "15m")
	t.Setenv("REDIS_TLS", "true")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://app.clinova.example, https://admin.clinova.example")
	cfg := Load()
	if cfg.Port != "9090" {
		t.Fatalf("expected override port, got %s", cfg.Port)
	}
	if cfg.DatabaseURL != "postgres://user@host/db" {
		t.Fatalf("expected db override, got %s", cfg.DatabaseURL)
	}
	if cfg.JWTTTL != time.Hour {
		t.Fatalf("expected jwt ttl override, got %s", cfg.JWTTTL)
	}
	if cfg.WorkdayStartHour != 9 || cfg.WorkdayEndHour != 17 {
		t.Fatalf("expected workday override, got %d-%d", cfg.WorkdayStartHour, cfg.WorkdayEndHour)
	}
	if cfg.ReminderInterval != 15*time.Minute {
		t.Fatalf("expected reminder interval override, got %s", cfg.ReminderInterval)
	}
	if !cfg.RedisTLS {
		t.Fatalf("expected redis tls override")
	}
	if len(cfg.CORSAllowedOrigins) != 2 || cfg.CORSAllowedOrigins[1] != "https://admin.clinova.example" {
		t.Fatalf("expected trimmed origin list, got %v", cfg.CORSAllowedOrigins)
	}
}

func TestInvalidNumericFallsBack(t *testing.T) {
	t.Setenv("WORKDAY_START_HOUR", "not-a-number")
	t.Setenv("REMINDER_INTERVAL", "soon")
	cfg := Load()
	if cfg.WorkdayStartHour != 8 {
		t.Fatalf("expected fallback start hour, got %d", cfg.WorkdayStartHour)
	}
	if cfg.ReminderInterval != 30*time.Minute {
		t.Fatalf("expected fallback reminder interval, got %s", cfg.ReminderInterval)
	}
}
