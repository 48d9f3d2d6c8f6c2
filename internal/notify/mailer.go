package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/clinovahq/clinic-platform/internal/appointments"
	"github.com/clinovahq/clinic-platform/pkg/logging"
)

// Mailer renders and dispatches the transactional appointment emails:
// confirmation, cancellation and reminder. A missing patient email is a
// no-op, not an error; callers treat any returned error as best-effort.
type Mailer struct {
	sender EmailSender
	loc    *time.Location
	logger *logging.Logger
}

// NewMailer creates a mailer. loc is the clinic timezone used to render
// dates; nil falls back to UTC.
func NewMailer(sender EmailSender, loc *time.Location, logger *logging.Logger) *Mailer {
	if logger == nil {
		logger = logging.Default()
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Mailer{sender: sender, loc: loc, logger: logger}
}

// SendConfirmation emails the patient that their appointment is booked.
func (m *Mailer) SendConfirmation(ctx context.Context, appt *appointments.Appointment) error {
	if !appt.HasPatientEmail() {
		m.logger.Debug("confirmation skipped, patient has no email", "appointment_id", appt.ID)
		return nil
	}
	date, clock := m.formatWhen(appt)
	msg := EmailMessage{
		To:      *appt.PatientEmail,
		ToName:  appt.PatientDisplayName(),
		Subject: fmt.Sprintf("Appointment confirmed with Dr. %s", appt.DoctorName),
		Body: fmt.Sprintf(`Dear %s,

Your appointment has been booked:

Date: %s
Time: %s
Doctor: Dr. %s
Type: %s
Reason: %s
%s
%s
If you need to reschedule or cancel, please contact us as soon as possible.

This is an automated message, please do not reply.`,
			appt.PatientDisplayName(), date, clock, appt.DoctorName, appt.Type, appt.Reason,
			meetLinkLine(appt), attendanceInstructions(appt)),
	}
	return m.dispatch(ctx, appt, "confirmation", msg)
}

// SendCancellation emails the patient that their appointment was cancelled.
// reason may be empty.
func (m *Mailer) SendCancellation(ctx context.Context, appt *appointments.Appointment, reason string) error {
	if !appt.HasPatientEmail() {
		m.logger.Debug("cancellation skipped, patient has no email", "appointment_id", appt.ID)
		return nil
	}
	date, clock := m.formatWhen(appt)
	reasonLine := ""
	if reason != "" {
		reasonLine = "Cancellation reason: " + reason + "\n"
	}
	msg := EmailMessage{
		To:      *appt.PatientEmail,
		ToName:  appt.PatientDisplayName(),
		Subject: fmt.Sprintf("Appointment cancelled with Dr. %s", appt.DoctorName),
		Body: fmt.Sprintf(`Dear %s,

The following appointment has been cancelled:

Date: %s
Time: %s
Doctor: Dr. %s
%s
If you wish to rebook, please contact us as soon as possible.

This is an automated message, please do not reply.`,
			appt.PatientDisplayName(), date, clock, appt.DoctorName, reasonLine),
	}
	return m.dispatch(ctx, appt, "cancellation", msg)
}

// SendReminder emails the patient 24 hours ahead of their appointment.
func (m *Mailer) SendReminder(ctx context.Context, appt *appointments.Appointment) error {
	if !appt.HasPatientEmail() {
		m.logger.Debug("reminder skipped, patient has no email", "appointment_id", appt.ID)
		return nil
	}
	date, clock := m.formatWhen(appt)
	msg := EmailMessage{
		To:      *appt.PatientEmail,
		ToName:  appt.PatientDisplayName(),
		Subject: fmt.Sprintf("Reminder: appointment with Dr. %s on %s", appt.DoctorName, date),
		Body: fmt.Sprintf(`Dear %s,

This is a reminder of your upcoming appointment:

Date: %s
Time: %s
Doctor: Dr. %s
Type: %s
%s
%s
If you cannot attend, please let us know in advance.

This is an automated message, please do not reply.`,
			appt.PatientDisplayName(), date, clock, appt.DoctorName, appt.Type,
			meetLinkLine(appt), attendanceInstructions(appt)),
	}
	return m.dispatch(ctx, appt, "reminder", msg)
}

func (m *Mailer) dispatch(ctx context.Context, appt *appointments.Appointment, kind string, msg EmailMessage) error {
	if m.sender == nil {
		m.logger.Warn("email sender not configured", "kind", kind, "appointment_id", appt.ID)
		return nil
	}
	if err := m.sender.Send(ctx, msg); err != nil {
		return fmt.Errorf("notify: send %s for appointment %s: %w", kind, appt.ID, err)
	}
	m.logger.Info("appointment email sent", "kind", kind, "appointment_id", appt.ID, "to", msg.To)
	return nil
}

func (m *Mailer) formatWhen(appt *appointments.Appointment) (string, string) {
	start := appt.StartsAt(m.loc)
	return start.Format("Monday, January 2, 2006"), start.Format("3:04 PM")
}

func meetLinkLine(appt *appointments.Appointment) string {
	if appt.MeetLink == nil || *appt.MeetLink == "" {
		return ""
	}
	return "Google Meet link: " + *appt.MeetLink + "\n"
}

func attendanceInstructions(appt *appointments.Appointment) string {
	if appt.Type == appointments.TypeVirtual {
		return `Instructions for your virtual visit:
 1. Open the Google Meet link 5 minutes before your appointment
 2. Make sure you have a stable internet connection
 3. Check that your camera and microphone work
`
	}
	return `Please remember:
 - Arrive 10 minutes before your appointment
 - Bring any relevant exams or medical documents
`
}
