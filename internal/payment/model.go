package payment

import (
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusRefunded  Status = "refunded"
)

// Payment is one processor order tied 1:1 to an appointment. It moves
// pending → completed exactly once, driven by a verified signature.
type Payment struct {
	ID                 uuid.UUID
	AppointmentID      uuid.UUID
	PatientID          uuid.UUID
	DoctorID           uuid.UUID
	AmountMinor        int64
	Currency           string
	Status             Status
	OrderID            string
	ProcessorPaymentID *string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}
