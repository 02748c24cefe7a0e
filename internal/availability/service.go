package availability

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/medconnect/telemed-scheduling/internal/auth"
)

var (
	ErrInvalidWeekday = errors.New("weekday must be between 1 (Monday) and 7 (Sunday)")
	ErrInvalidWindow  = errors.New("window start must be before end")
	ErrNotRuleOwner   = errors.New("only the owning doctor may manage this rule")
)

// Service owns a doctor's recurring weekly open-hours rules. Overlapping
// rules for the same doctor and day are permitted, the union of enabled
// rules defines open time.
type Service struct {
	repo   Repository
	logger zerolog.Logger
}

func NewService(repo Repository, logger zerolog.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger.With().Str("component", "availability").Logger(),
	}
}

// SetRule creates a new open-hours window for the acting doctor.
func (s *Service) SetRule(ctx context.Context, actor auth.Actor, weekday Weekday, start, end int, enabled bool) (*Rule, error) {
	if actor.Role != auth.RoleDoctor {
		return nil, ErrNotRuleOwner
	}
	if !weekday.Valid() {
		return nil, ErrInvalidWeekday
	}
	if start < 0 || end > minutesPerDay || start >= end {
		return nil, ErrInvalidWindow
	}

	rule := Rule{
		ID:       uuid.New(),
		DoctorID: actor.ID,
		Weekday:  weekday,
		Start:    start,
		End:      end,
		Enabled:  enabled,
	}

	created, err := s.repo.InsertRule(ctx, rule)
	if err != nil {
		return nil, fmt.Errorf("insert availability rule: %w", err)
	}

	s.logger.Info().
		Str("doctor_id", actor.ID.String()).
		Int("weekday", int(weekday)).
		Str("window", FormatClock(start)+"-"+FormatClock(end)).
		Msg("availability rule created")

	return created, nil
}

// ListRules returns every rule for a doctor. Pure read, callable by anyone.
func (s *Service) ListRules(ctx context.Context, doctorID uuid.UUID) ([]Rule, error) {
	rules, err := s.repo.ListRulesByDoctor(ctx, doctorID)
	if err != nil {
		return nil, fmt.Errorf("list availability rules: %w", err)
	}
	return rules, nil
}

// ListRulesForDay returns the enabled rules for one doctor and weekday.
func (s *Service) ListRulesForDay(ctx context.Context, doctorID uuid.UUID, weekday Weekday) ([]Rule, error) {
	if !weekday.Valid() {
		return nil, ErrInvalidWeekday
	}
	rules, err := s.repo.ListEnabledRules(ctx, doctorID, weekday)
	if err != nil {
		return nil, fmt.Errorf("list availability rules for day: %w", err)
	}
	return rules, nil
}

// RemoveRule deletes a rule owned by the acting doctor.
func (s *Service) RemoveRule(ctx context.Context, actor auth.Actor, ruleID uuid.UUID) error {
	rule, err := s.repo.GetRuleByID(ctx, ruleID)
	if err != nil {
		return err
	}
	if actor.Role != auth.RoleDoctor || rule.DoctorID != actor.ID {
		return ErrNotRuleOwner
	}

	if err := s.repo.DeleteRule(ctx, ruleID); err != nil {
		return fmt.Errorf("delete availability rule: %w", err)
	}
	return nil
}
