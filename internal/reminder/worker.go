package reminder

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/clinovahq/clinic-platform/internal/appointments"
	"github.com/clinovahq/clinic-platform/internal/observability/metrics"
	"github.com/clinovahq/clinic-platform/pkg/logging"
)

type reminderStore interface {
	ListNeedingReminder(ctx context.Context, hoursAhead int) ([]appointments.Appointment, error)
	GetByID(ctx context.Context, id uuid.UUID) (*appointments.Appointment, error)
	MarkReminderSent(ctx context.Context, id uuid.UUID) (bool, error)
}

type reminderMailer interface {
	SendReminder(ctx context.Context, appt *appointments.Appointment) error
}

// Worker periodically emails patients whose appointments start within the
// lookahead window and have not been reminded yet.
type Worker struct {
	store      reminderStore
	mailer     reminderMailer
	logger     *logging.Logger
	metrics    *metrics.SchedulingMetrics
	interval   time.Duration
	hoursAhead int
}

// NewWorker creates a reminder worker.
func NewWorker(store reminderStore, mailer reminderMailer, m *metrics.SchedulingMetrics, logger *logging.Logger) *Worker {
	if logger == nil {
		logger = logging.Default()
	}
	return &Worker{
		store:      store,
		mailer:     mailer,
		logger:     logger,
		metrics:    m,
		interval:   30 * time.Minute,
		hoursAhead: 24,
	}
}

func (w *Worker) WithInterval(d time.Duration) *Worker {
	if d > 0 {
		w.interval = d
	}
	return w
}

func (w *Worker) WithHoursAhead(h int) *Worker {
	if h > 0 {
		w.hoursAhead = h
	}
	return w
}

// Run processes due reminders immediately and then on every tick until the
// context is cancelled.
func (w *Worker) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	w.drain(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.drain(ctx)
		}
	}
}

func (w *Worker) drain(ctx context.Context) {
	start := time.Now()
	sent, err := w.ProcessDue(ctx)
	w.metrics.ObserveReminderRun(time.Since(start).Seconds())
	if err != nil {
		w.logger.Error("reminder run failed", "error", err)
		return
	}
	if sent > 0 {
		w.logger.Info("reminder run finished", "sent", sent)
	}
}

// ProcessDue sends a reminder for every due appointment. A failure on one
// appointment never blocks the rest; the flag is flipped only after the email
// went out, so a failed send is retried on the next run. Returns the number
// of reminders sent.
func (w *Worker) ProcessDue(ctx context.Context) (int, error) {
	due, err := w.store.ListNeedingReminder(ctx, w.hoursAhead)
	if err != nil {
		return 0, fmt.Errorf("reminder: list due: %w", err)
	}
	if len(due) == 0 {
		return 0, nil
	}

	w.logger.Info("reminder: processing due appointments", "count", len(due))

	sent := 0
	for i := range due {
		appt := &due[i]
		ok, err := w.processOne(ctx, appt)
		if err != nil {
			w.logger.Error("reminder: failed to process appointment",
				"appointment_id", appt.ID, "error", err)
			continue
		}
		if ok {
			sent++
		}
	}
	return sent, nil
}

// SendImmediate sends a reminder for each given appointment id regardless of
// the lookahead window. Already-reminded appointments are skipped.
func (w *Worker) SendImmediate(ctx context.Context, ids []uuid.UUID) (int, error) {
	sent := 0
	for _, id := range ids {
		appt, err := w.store.GetByID(ctx, id)
		if err != nil {
			w.logger.Error("reminder: failed to load appointment", "appointment_id", id, "error", err)
			continue
		}
		if appt.ReminderSent || appt.Status != appointments.StatusScheduled {
			continue
		}
		ok, err := w.processOne(ctx, appt)
		if err != nil {
			w.logger.Error("reminder: failed to process appointment",
				"appointment_id", appt.ID, "error", err)
			continue
		}
		if ok {
			sent++
		}
	}
	return sent, nil
}

func (w *Worker) processOne(ctx context.Context, appt *appointments.Appointment) (bool, error) {
	if !appt.HasPatientEmail() {
		w.logger.Warn("reminder: patient has no email, skipping", "appointment_id", appt.ID)
		return false, nil
	}

	if err := w.mailer.SendReminder(ctx, appt); err != nil {
		w.metrics.ObserveNotification("reminder", err)
		return false, fmt.Errorf("send reminder: %w", err)
	}
	w.metrics.ObserveNotification("reminder", nil)

	marked, err := w.store.MarkReminderSent(ctx, appt.ID)
	if err != nil {
		return false, fmt.Errorf("mark reminder sent: %w", err)
	}
	if !marked {
		w.logger.Warn("reminder: flag already set", "appointment_id", appt.ID)
		return false, nil
	}
	w.metrics.ObserveReminderSent()

	w.logger.Info("reminder sent", "appointment_id", appt.ID,
		"date", appt.Date.Format(time.DateOnly), "time", appt.TimeOfDay)
	return true, nil
}
