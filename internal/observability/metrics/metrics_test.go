package metrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestSchedulingMetricsObserve(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewSchedulingMetrics(reg)
	m.ObserveCreated("virtual")
	m.ObserveConflict()
	m.ObserveCalendarFailure("create")
	m.ObserveNotification("confirmation", nil)
	m.ObserveNotification("reminder", errors.New("boom"))
	m.ObserveReminderSent()
	m.ObserveReminderRun(0.25)
}

func TestSchedulingMetricsNilSafe(t *testing.T) {
	var m *SchedulingMetrics
	m.ObserveCreated("in-person")
	m.ObserveConflict()
	m.ObserveCalendarFailure("delete")
	m.ObserveNotification("cancellation", nil)
	m.ObserveReminderSent()
	m.ObserveReminderRun(1.0)
}
