package doctor

import (
	"time"

	"github.com/google/uuid"
)

type Doctor struct {
	ID        uuid.UUID
	Name      string
	Specialty *string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Profile carries what the booking engine needs to charge for a doctor:
// the admin approval flag, the consultation fee, and an optional IANA time
// zone for interpreting the weekly availability rules.
type Profile struct {
	DoctorID  uuid.UUID
	Approved  bool
	FeeMinor  int64
	Currency  string
	TimeZone  string
	CreatedAt time.Time
	UpdatedAt time.Time
}
