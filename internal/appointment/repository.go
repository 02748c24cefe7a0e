package appointment

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrPatientNotFound     = errors.New("patient not found")
	ErrAppointmentNotFound = errors.New("appointment not found")
	// ErrSlotTaken is returned when an insert collides with the database
	// exclusion constraint on overlapping live appointments.
	ErrSlotTaken = errors.New("a live appointment already occupies this time slot")
)

// FieldUpdate carries the role-scoped mutable fields. Nil means unchanged.
// Fee, patient, doctor and status are deliberately not here.
type FieldUpdate struct {
	Notes          *string
	Prescription   *string
	VideoSessionID *string
}

// Repository contains all DB interactions needed by the booking engine and
// the state machine.
type Repository interface {
	GetPatientByID(ctx context.Context, id uuid.UUID) (*Patient, error)
	GetAppointmentByID(ctx context.Context, id uuid.UUID) (*Appointment, error)

	// ListLiveByDoctorBetween returns the doctor's live appointments whose
	// slots intersect [from, to). Used for the booking conflict check.
	ListLiveByDoctorBetween(ctx context.Context, doctorID uuid.UUID, from, to time.Time) ([]Appointment, error)

	CreateAppointment(ctx context.Context, appt Appointment) (*Appointment, error)

	// UpdateAppointmentStatus is a compare-and-set: the row is only written
	// when its status still equals from. A miss surfaces as
	// ErrAppointmentNotFound.
	UpdateAppointmentStatus(ctx context.Context, id uuid.UUID, from, to Status) (*Appointment, error)

	UpdateAppointmentFields(ctx context.Context, id uuid.UUID, upd FieldUpdate) (*Appointment, error)

	ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]Appointment, error)
	ListByDoctor(ctx context.Context, doctorID uuid.UUID, limit, offset int) ([]Appointment, error)

	// Expiry worker
	FindStaleAwaitingPayment(ctx context.Context, cutoff time.Time) ([]Appointment, error)
}
