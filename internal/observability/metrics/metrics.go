package metrics

import "github.com/prometheus/client_golang/prometheus"

// SchedulingMetrics exposes counters for the appointment scheduling flows.
type SchedulingMetrics struct {
	createdTotal        *prometheus.CounterVec
	conflictsTotal      prometheus.Counter
	calendarSyncFailed  *prometheus.CounterVec
	notificationsTotal  *prometheus.CounterVec
	remindersSentTotal  prometheus.Counter
	reminderRunDuration prometheus.Histogram
}

func NewSchedulingMetrics(reg prometheus.Registerer) *SchedulingMetrics {
	m := &SchedulingMetrics{
		createdTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinic",
			Subsystem: "scheduling",
			Name:      "appointments_created_total",
			Help:      "Appointments created, by type",
		}, []string{"type"}),
		conflictsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "clinic",
			Subsystem: "scheduling",
			Name:      "conflicts_total",
			Help:      "Create/reschedule attempts rejected because the slot was taken",
		}),
		calendarSyncFailed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinic",
			Subsystem: "scheduling",
			Name:      "calendar_sync_failures_total",
			Help:      "External calendar calls that failed, by operation",
		}, []string{"op"}),
		notificationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinic",
			Subsystem: "scheduling",
			Name:      "notifications_total",
			Help:      "Transactional emails attempted, by kind and outcome",
		}, []string{"kind", "status"}),
		remindersSentTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "clinic",
			Subsystem: "scheduling",
			Name:      "reminders_sent_total",
			Help:      "Reminder emails dispatched and marked",
		}),
		reminderRunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "clinic",
			Subsystem: "scheduling",
			Name:      "reminder_run_seconds",
			Help:      "Duration of one reminder scheduler pass",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(
		m.createdTotal,
		m.conflictsTotal,
		m.calendarSyncFailed,
		m.notificationsTotal,
		m.remindersSentTotal,
		m.reminderRunDuration,
	)
	return m
}

func (m *SchedulingMetrics) ObserveCreated(apptType string) {
	if m == nil {
		return
	}
	m.createdTotal.WithLabelValues(apptType).Inc()
}

func (m *SchedulingMetrics) ObserveConflict() {
	if m == nil {
		return
	}
	m.conflictsTotal.Inc()
}

func (m *SchedulingMetrics) ObserveCalendarFailure(op string) {
	if m == nil {
		return
	}
	m.calendarSyncFailed.WithLabelValues(op).Inc()
}

func (m *SchedulingMetrics) ObserveNotification(kind string, err error) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.notificationsTotal.WithLabelValues(kind, status).Inc()
}

func (m *SchedulingMetrics) ObserveReminderSent() {
	if m == nil {
		return
	}
	m.remindersSentTotal.Inc()
}

func (m *SchedulingMetrics) ObserveReminderRun(seconds float64) {
	if m == nil {
		return
	}
	m.reminderRunDuration.Observe(seconds)
}
