package appointment

import (
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusScheduled       Status = "scheduled"
	StatusAwaitingPayment Status = "awaiting_payment"
	StatusConfirmed       Status = "confirmed"
	StatusCompleted       Status = "completed"
	StatusCancelled       Status = "cancelled"
	StatusNoShow          Status = "no_show"
)

// Live statuses still occupy the doctor's time slot.
func (s Status) Live() bool {
	switch s {
	case StatusScheduled, StatusAwaitingPayment, StatusConfirmed:
		return true
	}
	return false
}

// Terminal statuses permit no further transitions. Appointments are never
// hard-deleted, they end up here.
func (s Status) Terminal() bool {
	switch s {
	case StatusCompleted, StatusCancelled, StatusNoShow:
		return true
	}
	return false
}

type ConsultationType string

const (
	TypeVideo    ConsultationType = "video"
	TypeInPerson ConsultationType = "in_person"
)

func (t ConsultationType) Valid() bool {
	return t == TypeVideo || t == TypeInPerson
}

type Patient struct {
	ID        uuid.UUID
	Name      string
	Email     *string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Appointment is one reservation of a doctor's time by a patient. FeeMinor
// is copied from the doctor's profile at creation and never changes
// afterwards; PatientID and DoctorID are likewise immutable.
type Appointment struct {
	ID             uuid.UUID
	PatientID      uuid.UUID
	DoctorID       uuid.UUID
	StartAt        time.Time
	DurationMins   int
	Type           ConsultationType
	Status         Status
	FeeMinor       int64
	Currency       string
	Notes          *string
	Prescription   *string
	VideoSessionID *string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// EndAt is the exclusive end of the occupied slot.
func (a *Appointment) EndAt() time.Time {
	return a.StartAt.Add(time.Duration(a.DurationMins) * time.Minute)
}

// Overlaps reports whether the half-open interval [start, start+duration)
// intersects this appointment's slot.
func (a *Appointment) Overlaps(start time.Time, duration time.Duration) bool {
	end := start.Add(duration)
	return a.StartAt.Before(end) && start.Before(a.EndAt())
}
