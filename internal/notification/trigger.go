package notification

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/medconnect/telemed-scheduling/internal/appointment"
)

// Notification type tags consumed by the delivery collaborator.
const (
	TypePaymentRequested     = "payment_requested"
	TypeAppointmentConfirmed = "appointment_confirmed"
	TypeAppointmentCancelled = "appointment_cancelled"
	TypeAppointmentCompleted = "appointment_completed"
	TypeAppointmentNoShow    = "appointment_no_show"
)

// Trigger maps appointment transitions to notification rows. It is
// fire-and-forget: enqueue failures are logged and swallowed so they can
// never roll back or fail the transition that produced them.
type Trigger struct {
	repo   Repository
	logger zerolog.Logger
}

func NewTrigger(repo Repository, logger zerolog.Logger) *Trigger {
	return &Trigger{
		repo:   repo,
		logger: logger.With().Str("component", "notification").Logger(),
	}
}

var _ appointment.TransitionListener = (*Trigger)(nil)

func (t *Trigger) AppointmentTransitioned(ctx context.Context, appt *appointment.Appointment, from, to appointment.Status) {
	when := appt.StartAt.Format("Mon, 02 Jan 2006 15:04 MST")

	var out []Notification
	switch to {
	case appointment.StatusAwaitingPayment:
		out = append(out, t.build(appt, appt.PatientID, TypePaymentRequested,
			"Payment requested",
			fmt.Sprintf("Your consultation on %s is ready to begin. Please complete the payment to confirm.", when)))

	case appointment.StatusConfirmed:
		msg := fmt.Sprintf("The consultation on %s is confirmed.", when)
		out = append(out,
			t.build(appt, appt.PatientID, TypeAppointmentConfirmed, "Appointment confirmed", msg),
			t.build(appt, appt.DoctorID, TypeAppointmentConfirmed, "Appointment confirmed", msg),
		)

	case appointment.StatusCancelled:
		msg := fmt.Sprintf("The consultation on %s was cancelled.", when)
		out = append(out,
			t.build(appt, appt.PatientID, TypeAppointmentCancelled, "Appointment cancelled", msg),
			t.build(appt, appt.DoctorID, TypeAppointmentCancelled, "Appointment cancelled", msg),
		)

	case appointment.StatusCompleted:
		out = append(out, t.build(appt, appt.PatientID, TypeAppointmentCompleted,
			"Consultation completed",
			fmt.Sprintf("Your consultation on %s is complete. Any prescription is available on the appointment.", when)))

	case appointment.StatusNoShow:
		out = append(out, t.build(appt, appt.PatientID, TypeAppointmentNoShow,
			"Missed appointment",
			fmt.Sprintf("You were marked absent for the consultation on %s.", when)))
	}

	for _, n := range out {
		if err := t.repo.Insert(ctx, n); err != nil {
			t.logger.Warn().Err(err).
				Str("appointment_id", appt.ID.String()).
				Str("type", n.Type).
				Msg("failed to enqueue notification")
		}
	}
}

func (t *Trigger) build(appt *appointment.Appointment, recipient uuid.UUID, typ, title, message string) Notification {
	apptID := appt.ID
	return Notification{
		ID:            uuid.New(),
		RecipientID:   recipient,
		Type:          typ,
		Title:         title,
		Message:       message,
		AppointmentID: &apptID,
	}
}
