package availability

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	ErrRuleNotFound = errors.New("availability rule not found")
)

// Repository contains all DB interactions needed by the store and resolver.
type Repository interface {
	InsertRule(ctx context.Context, rule Rule) (*Rule, error)
	GetRuleByID(ctx context.Context, id uuid.UUID) (*Rule, error)
	ListRulesByDoctor(ctx context.Context, doctorID uuid.UUID) ([]Rule, error)
	// ListEnabledRules returns only enabled rules for one doctor and weekday.
	ListEnabledRules(ctx context.Context, doctorID uuid.UUID, weekday Weekday) ([]Rule, error)
	DeleteRule(ctx context.Context, id uuid.UUID) error
}
