package payment

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	ErrPaymentNotFound = errors.New("payment not found")
)

type Repository interface {
	Insert(ctx context.Context, p Payment) (*Payment, error)
	GetByOrderID(ctx context.Context, orderID string) (*Payment, error)
	GetByAppointmentID(ctx context.Context, appointmentID uuid.UUID) (*Payment, error)

	// UpdateStatus is a compare-and-set: the row is only written when its
	// status still equals from. A miss surfaces as ErrPaymentNotFound.
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to Status, processorPaymentID *string) (*Payment, error)
}
