package doctor

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

func scanDoctor(row pgx.Row) (*Doctor, error) {
	var d Doctor
	var specialty *string

	err := row.Scan(
		&d.ID,
		&d.Name,
		&specialty,
		&d.CreatedAt,
		&d.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrDoctorNotFound
		}
		return nil, err
	}

	d.Specialty = specialty
	return &d, nil
}

func scanProfile(row pgx.Row) (*Profile, error) {
	var p Profile
	var tz *string

	err := row.Scan(
		&p.DoctorID,
		&p.Approved,
		&p.FeeMinor,
		&p.Currency,
		&tz,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProfileNotFound
		}
		return nil, err
	}

	if tz != nil {
		p.TimeZone = *tz
	}
	return &p, nil
}

func (r *PgRepository) GetDoctorByID(ctx context.Context, id uuid.UUID) (*Doctor, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, name, specialty, created_at, updated_at
		FROM doctors
		WHERE id = $1
	`, id)
	return scanDoctor(row)
}

func (r *PgRepository) GetProfile(ctx context.Context, doctorID uuid.UUID) (*Profile, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT doctor_id, approved, fee_minor, currency, time_zone, created_at, updated_at
		FROM doctor_profiles
		WHERE doctor_id = $1
	`, doctorID)
	return scanProfile(row)
}

func (r *PgRepository) UpsertProfile(ctx context.Context, p Profile) (*Profile, error) {
	var tz *string
	if p.TimeZone != "" {
		tz = &p.TimeZone
	}

	row := r.pool.QueryRow(ctx, `
		INSERT INTO doctor_profiles (doctor_id, approved, fee_minor, currency, time_zone, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, now(), now())
		ON CONFLICT (doctor_id) DO UPDATE
		SET fee_minor = EXCLUDED.fee_minor,
		    currency = EXCLUDED.currency,
		    time_zone = EXCLUDED.time_zone,
		    updated_at = now()
		RETURNING doctor_id, approved, fee_minor, currency, time_zone, created_at, updated_at
	`, p.DoctorID, p.Approved, p.FeeMinor, p.Currency, tz)

	return scanProfile(row)
}

func (r *PgRepository) SetApproval(ctx context.Context, doctorID uuid.UUID, approved bool) (*Profile, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE doctor_profiles
		SET approved = $2,
		    updated_at = now()
		WHERE doctor_id = $1
		RETURNING doctor_id, approved, fee_minor, currency, time_zone, created_at, updated_at
	`, doctorID, approved)

	return scanProfile(row)
}
