package availability

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// memRepository is an in-memory Repository used by the service and
// resolver tests.
type memRepository struct {
	mu    sync.Mutex
	rules map[uuid.UUID]Rule
}

func newMemRepository() *memRepository {
	return &memRepository{rules: make(map[uuid.UUID]Rule)}
}

func (m *memRepository) InsertRule(ctx context.Context, rule Rule) (*Rule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	rule.CreatedAt = now
	rule.UpdatedAt = now
	m.rules[rule.ID] = rule
	out := rule
	return &out, nil
}

func (m *memRepository) GetRuleByID(ctx context.Context, id uuid.UUID) (*Rule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rule, ok := m.rules[id]
	if !ok {
		return nil, ErrRuleNotFound
	}
	out := rule
	return &out, nil
}

func (m *memRepository) ListRulesByDoctor(ctx context.Context, doctorID uuid.UUID) ([]Rule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var result []Rule
	for _, rule := range m.rules {
		if rule.DoctorID == doctorID {
			result = append(result, rule)
		}
	}
	return result, nil
}

func (m *memRepository) ListEnabledRules(ctx context.Context, doctorID uuid.UUID, weekday Weekday) ([]Rule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var result []Rule
	for _, rule := range m.rules {
		if rule.DoctorID == doctorID && rule.Weekday == weekday && rule.Enabled {
			result = append(result, rule)
		}
	}
	return result, nil
}

func (m *memRepository) DeleteRule(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.rules[id]; !ok {
		return ErrRuleNotFound
	}
	delete(m.rules, id)
	return nil
}
