package availability

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Resolver decides whether an instant falls inside a doctor's open hours.
// It has no side effects and is safe for concurrent use by many booking
// attempts.
type Resolver struct {
	repo       Repository
	defaultLoc *time.Location
}

func NewResolver(repo Repository, defaultTimeZone string) (*Resolver, error) {
	loc, err := time.LoadLocation(defaultTimeZone)
	if err != nil {
		return nil, fmt.Errorf("load default time zone %q: %w", defaultTimeZone, err)
	}
	return &Resolver{repo: repo, defaultLoc: loc}, nil
}

// IsOpen reports whether instant falls inside at least one enabled rule for
// the doctor. timeZone is the doctor's configured IANA zone; empty means the
// platform default. The window is half-open: a rule ending at 12:00 does not
// make 12:00 bookable.
func (r *Resolver) IsOpen(ctx context.Context, doctorID uuid.UUID, instant time.Time, timeZone string) (bool, error) {
	loc := r.defaultLoc
	if timeZone != "" {
		parsed, err := time.LoadLocation(timeZone)
		if err != nil {
			return false, fmt.Errorf("load doctor time zone %q: %w", timeZone, err)
		}
		loc = parsed
	}

	local := instant.In(loc)
	weekday := WeekdayOf(local)
	minute := local.Hour()*60 + local.Minute()

	rules, err := r.repo.ListEnabledRules(ctx, doctorID, weekday)
	if err != nil {
		return false, fmt.Errorf("load rules for day: %w", err)
	}

	for _, rule := range rules {
		if rule.Start <= minute && minute < rule.End {
			return true, nil
		}
	}

	return false, nil
}
