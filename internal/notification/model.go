package notification

import (
	"time"

	"github.com/google/uuid"
)

type Notification struct {
	ID            uuid.UUID
	RecipientID   uuid.UUID
	Type          string
	Title         string
	Message       string
	AppointmentID *uuid.UUID
	Read          bool
	CreatedAt     time.Time
}
