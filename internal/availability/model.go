package availability

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Weekday is the canonical ISO day numbering, Monday=1 .. Sunday=7. Storage
// and all scheduling comparisons use this numbering only; anything arriving
// in another convention is translated at the boundary.
type Weekday int

const (
	Monday    Weekday = 1
	Tuesday   Weekday = 2
	Wednesday Weekday = 3
	Thursday  Weekday = 4
	Friday    Weekday = 5
	Saturday  Weekday = 6
	Sunday    Weekday = 7
)

func (w Weekday) Valid() bool {
	return w >= Monday && w <= Sunday
}

// WeekdayOf is the single translation point from Go's Sunday=0 numbering.
func WeekdayOf(t time.Time) Weekday {
	if wd := t.Weekday(); wd != time.Sunday {
		return Weekday(wd)
	}
	return Sunday
}

// Rule is one recurring weekly open-hours window for a doctor. Start and End
// are minutes since midnight in the doctor's zone; the window is half-open,
// End itself is not bookable.
type Rule struct {
	ID        uuid.UUID
	DoctorID  uuid.UUID
	Weekday   Weekday
	Start     int
	End       int
	Enabled   bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

const minutesPerDay = 24 * 60

// ParseClock parses an "HH:MM" wall-clock string into minutes since midnight.
func ParseClock(s string) (int, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, fmt.Errorf("parse clock %q: %w", s, err)
	}
	return t.Hour()*60 + t.Minute(), nil
}

// FormatClock renders minutes since midnight as "HH:MM".
func FormatClock(minute int) string {
	return fmt.Sprintf("%02d:%02d", minute/60, minute%60)
}
