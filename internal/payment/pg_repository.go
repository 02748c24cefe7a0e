package payment

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// uniqueViolation is raised by payments.appointment_id UNIQUE when two
// concurrent order opens race past the existence check.
const uniqueViolation = "23505"

type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

func scanPayment(row pgx.Row) (*Payment, error) {
	var p Payment

	err := row.Scan(
		&p.ID,
		&p.AppointmentID,
		&p.PatientID,
		&p.DoctorID,
		&p.AmountMinor,
		&p.Currency,
		&p.Status,
		&p.OrderID,
		&p.ProcessorPaymentID,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPaymentNotFound
		}
		return nil, err
	}

	return &p, nil
}

const paymentColumns = `id, appointment_id, patient_id, doctor_id, amount_minor, currency,
		       status, order_id, processor_payment_id, created_at, updated_at`

func (r *PgRepository) Insert(ctx context.Context, p Payment) (*Payment, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO payments (id, appointment_id, patient_id, doctor_id, amount_minor, currency,
		                      status, order_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now(), now())
		RETURNING `+paymentColumns+`
	`, p.ID, p.AppointmentID, p.PatientID, p.DoctorID, p.AmountMinor, p.Currency, p.Status, p.OrderID)

	created, err := scanPayment(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			// The concurrent winner's payment is the payment.
			return r.GetByAppointmentID(ctx, p.AppointmentID)
		}
		return nil, err
	}
	return created, nil
}

func (r *PgRepository) GetByOrderID(ctx context.Context, orderID string) (*Payment, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+paymentColumns+`
		FROM payments
		WHERE order_id = $1
	`, orderID)
	return scanPayment(row)
}

func (r *PgRepository) GetByAppointmentID(ctx context.Context, appointmentID uuid.UUID) (*Payment, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+paymentColumns+`
		FROM payments
		WHERE appointment_id = $1
	`, appointmentID)
	return scanPayment(row)
}

func (r *PgRepository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to Status, processorPaymentID *string) (*Payment, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE payments
		SET status = $2,
		    processor_payment_id = COALESCE($3, processor_payment_id),
		    updated_at = now()
		WHERE id = $1
		  AND status = $4
		RETURNING `+paymentColumns+`
	`, id, to, processorPaymentID, from)

	return scanPayment(row)
}
