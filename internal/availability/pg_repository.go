package availability

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

func scanRule(row pgx.Row) (*Rule, error) {
	var r Rule

	err := row.Scan(
		&r.ID,
		&r.DoctorID,
		&r.Weekday,
		&r.Start,
		&r.End,
		&r.Enabled,
		&r.CreatedAt,
		&r.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrRuleNotFound
		}
		return nil, err
	}

	return &r, nil
}

func (r *PgRepository) InsertRule(ctx context.Context, rule Rule) (*Rule, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO availability_rules (id, doctor_id, weekday, start_minute, end_minute, enabled, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, now(), now())
		RETURNING id, doctor_id, weekday, start_minute, end_minute, enabled, created_at, updated_at
	`, rule.ID, rule.DoctorID, rule.Weekday, rule.Start, rule.End, rule.Enabled)

	return scanRule(row)
}

func (r *PgRepository) GetRuleByID(ctx context.Context, id uuid.UUID) (*Rule, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, doctor_id, weekday, start_minute, end_minute, enabled, created_at, updated_at
		FROM availability_rules
		WHERE id = $1
	`, id)
	return scanRule(row)
}

func (r *PgRepository) ListRulesByDoctor(ctx context.Context, doctorID uuid.UUID) ([]Rule, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, doctor_id, weekday, start_minute, end_minute, enabled, created_at, updated_at
		FROM availability_rules
		WHERE doctor_id = $1
		ORDER BY weekday, start_minute
	`, doctorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectRules(rows)
}

func (r *PgRepository) ListEnabledRules(ctx context.Context, doctorID uuid.UUID, weekday Weekday) ([]Rule, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, doctor_id, weekday, start_minute, end_minute, enabled, created_at, updated_at
		FROM availability_rules
		WHERE doctor_id = $1 AND weekday = $2 AND enabled
		ORDER BY start_minute
	`, doctorID, weekday)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectRules(rows)
}

func (r *PgRepository) DeleteRule(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM availability_rules
		WHERE id = $1
	`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrRuleNotFound
	}
	return nil
}

func collectRules(rows pgx.Rows) ([]Rule, error) {
	var result []Rule
	for rows.Next() {
		r, err := scanRule(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *r)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}
