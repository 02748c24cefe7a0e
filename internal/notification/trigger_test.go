package notification

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medconnect/telemed-scheduling/internal/appointment"
)

type recordingRepo struct {
	inserted  []Notification
	insertErr error
}

func (r *recordingRepo) Insert(ctx context.Context, n Notification) error {
	if r.insertErr != nil {
		return r.insertErr
	}
	r.inserted = append(r.inserted, n)
	return nil
}

func (r *recordingRepo) ListByRecipient(ctx context.Context, recipientID uuid.UUID, limit, offset int) ([]Notification, error) {
	return nil, nil
}

func (r *recordingRepo) MarkRead(ctx context.Context, id, recipientID uuid.UUID) error {
	return nil
}

func testAppointment() *appointment.Appointment {
	return &appointment.Appointment{
		ID:        uuid.New(),
		PatientID: uuid.New(),
		DoctorID:  uuid.New(),
		StartAt:   time.Date(2030, 1, 7, 10, 0, 0, 0, time.UTC),
	}
}

func recipientsOf(ns []Notification) []uuid.UUID {
	out := make([]uuid.UUID, 0, len(ns))
	for _, n := range ns {
		out = append(out, n.RecipientID)
	}
	return out
}

func TestTriggerMapping(t *testing.T) {
	appt := testAppointment()

	tests := []struct {
		name       string
		to         appointment.Status
		wantType   string
		recipients []uuid.UUID
	}{
		{"payment requested", appointment.StatusAwaitingPayment, TypePaymentRequested, []uuid.UUID{appt.PatientID}},
		{"confirmed notifies both", appointment.StatusConfirmed, TypeAppointmentConfirmed, []uuid.UUID{appt.PatientID, appt.DoctorID}},
		{"cancelled notifies both", appointment.StatusCancelled, TypeAppointmentCancelled, []uuid.UUID{appt.PatientID, appt.DoctorID}},
		{"completed", appointment.StatusCompleted, TypeAppointmentCompleted, []uuid.UUID{appt.PatientID}},
		{"no-show", appointment.StatusNoShow, TypeAppointmentNoShow, []uuid.UUID{appt.PatientID}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &recordingRepo{}
			trigger := NewTrigger(repo, zerolog.Nop())

			trigger.AppointmentTransitioned(context.Background(), appt, appointment.StatusScheduled, tt.to)

			require.Len(t, repo.inserted, len(tt.recipients))
			assert.Equal(t, tt.recipients, recipientsOf(repo.inserted))
			for _, n := range repo.inserted {
				assert.Equal(t, tt.wantType, n.Type)
				assert.NotEmpty(t, n.Title)
				assert.NotEmpty(t, n.Message)
				require.NotNil(t, n.AppointmentID)
				assert.Equal(t, appt.ID, *n.AppointmentID)
				assert.False(t, n.Read)
			}
		})
	}
}

func TestTriggerIgnoresScheduled(t *testing.T) {
	repo := &recordingRepo{}
	trigger := NewTrigger(repo, zerolog.Nop())

	trigger.AppointmentTransitioned(context.Background(), testAppointment(), appointment.StatusScheduled, appointment.StatusScheduled)
	assert.Empty(t, repo.inserted)
}

func TestTriggerSwallowsInsertFailure(t *testing.T) {
	repo := &recordingRepo{insertErr: errors.New("connection reset")}
	trigger := NewTrigger(repo, zerolog.Nop())

	assert.NotPanics(t, func() {
		trigger.AppointmentTransitioned(context.Background(), testAppointment(), appointment.StatusAwaitingPayment, appointment.StatusConfirmed)
	})
	assert.Empty(t, repo.inserted)
}
