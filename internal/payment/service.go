package payment

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/medconnect/telemed-scheduling/internal/appointment"
	"github.com/medconnect/telemed-scheduling/internal/auth"
)

var (
	ErrAmountMismatch   = errors.New("amount does not match the appointment fee")
	ErrInvalidSignature = errors.New("payment signature verification failed")
	ErrAlreadyPaid      = errors.New("appointment is already paid")
	ErrPaymentClosed    = errors.New("payment is already failed or refunded")
)

// AppointmentDriver is the slice of the appointment service the reconciler
// needs: loading the appointment being paid for and driving its
// awaiting_payment → confirmed transition.
type AppointmentDriver interface {
	GetAppointment(ctx context.Context, actor auth.Actor, id uuid.UUID) (*appointment.Appointment, error)
	Transition(ctx context.Context, actor auth.Actor, id uuid.UUID, to appointment.Status) (*appointment.Appointment, error)
}

type Service struct {
	repo      Repository
	appts     AppointmentDriver
	processor OrderOpener
	secret    string
	logger    zerolog.Logger
}

func NewService(repo Repository, appts AppointmentDriver, processor OrderOpener, secret string, logger zerolog.Logger) *Service {
	return &Service{
		repo:      repo,
		appts:     appts,
		processor: processor,
		secret:    secret,
		logger:    logger.With().Str("component", "payment").Logger(),
	}
}

// OpenOrder creates a pending payment tied 1:1 to the appointment and
// returns it with the processor's order id. claimedAmount, when the caller
// supplies one, must agree with the stored fee within rounding tolerance.
// Reopening an order for an appointment with a pending payment returns the
// existing payment.
func (s *Service) OpenOrder(ctx context.Context, actor auth.Actor, appointmentID uuid.UUID, claimedAmount *float64) (*Payment, error) {
	appt, err := s.appts.GetAppointment(ctx, actor, appointmentID)
	if err != nil {
		return nil, err
	}

	if claimedAmount != nil && !AmountWithinTolerance(appt.FeeMinor, *claimedAmount) {
		return nil, ErrAmountMismatch
	}

	existing, err := s.repo.GetByAppointmentID(ctx, appointmentID)
	if err != nil && !errors.Is(err, ErrPaymentNotFound) {
		return nil, fmt.Errorf("check existing payment: %w", err)
	}
	if existing != nil {
		switch existing.Status {
		case StatusPending:
			return existing, nil
		case StatusCompleted:
			return nil, ErrAlreadyPaid
		default:
			return nil, ErrPaymentClosed
		}
	}

	orderID, err := s.processor.OpenOrder(ctx, appt.FeeMinor, appt.Currency, appt.ID.String())
	if err != nil {
		return nil, fmt.Errorf("open processor order: %w", err)
	}

	p := Payment{
		ID:            uuid.New(),
		AppointmentID: appt.ID,
		PatientID:     appt.PatientID,
		DoctorID:      appt.DoctorID,
		AmountMinor:   appt.FeeMinor,
		Currency:      appt.Currency,
		Status:        StatusPending,
		OrderID:       orderID,
	}

	created, err := s.repo.Insert(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("insert payment: %w", err)
	}

	s.logger.Info().
		Str("order_id", orderID).
		Str("appointment_id", appt.ID.String()).
		Int64("amount_minor", appt.FeeMinor).
		Msg("payment order opened")

	return created, nil
}

// Confirm applies a processor confirmation to the payment and the linked
// appointment. The signature is the only thing trusted; callers and
// webhooks go through this same path and it is idempotent by order id, so
// a redelivered event is a no-op.
func (s *Service) Confirm(ctx context.Context, orderID, processorPaymentID, signature string) (*Payment, error) {
	if !VerifySignature(s.secret, orderID, processorPaymentID, signature) {
		s.logger.Warn().
			Str("order_id", orderID).
			Str("processor_payment_id", processorPaymentID).
			Msg("payment confirmation with invalid signature, possible tampering")
		return nil, ErrInvalidSignature
	}

	p, err := s.repo.GetByOrderID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	switch p.Status {
	case StatusCompleted:
		// Duplicate delivery of an already reconciled confirmation.
		return p, nil
	case StatusPending:
	default:
		return nil, ErrPaymentClosed
	}

	// Advance the appointment first: if it left awaiting_payment (say the
	// patient cancelled), the confirmation must fail and the payment stays
	// pending for manual follow-up.
	reconciler := auth.Actor{Role: auth.RolePaymentService}
	if _, err := s.appts.Transition(ctx, reconciler, p.AppointmentID, appointment.StatusConfirmed); err != nil {
		if !errors.Is(err, appointment.ErrInvalidTransition) {
			return nil, err
		}
		// A prior delivery may have confirmed the appointment and then
		// lost the payment write. Redelivery must still complete the
		// payment; any status other than confirmed keeps the rejection.
		appt, readErr := s.appts.GetAppointment(ctx, reconciler, p.AppointmentID)
		if readErr != nil || appt.Status != appointment.StatusConfirmed {
			return nil, err
		}
	}

	updated, err := s.repo.UpdateStatus(ctx, p.ID, StatusPending, StatusCompleted, &processorPaymentID)
	if err != nil {
		if errors.Is(err, ErrPaymentNotFound) {
			// A concurrent confirm won the CAS. Re-read and treat as done.
			current, readErr := s.repo.GetByOrderID(ctx, orderID)
			if readErr == nil && current.Status == StatusCompleted {
				return current, nil
			}
		}
		return nil, fmt.Errorf("complete payment: %w", err)
	}

	s.logger.Info().
		Str("order_id", orderID).
		Str("processor_payment_id", processorPaymentID).
		Msg("payment captured")

	return updated, nil
}

// VerifyEvent checks a processor event signature without mutating anything.
// Failure and refund events go through here before being applied.
func (s *Service) VerifyEvent(orderID, processorPaymentID, signature string) bool {
	ok := VerifySignature(s.secret, orderID, processorPaymentID, signature)
	if !ok {
		s.logger.Warn().
			Str("order_id", orderID).
			Msg("processor event with invalid signature, possible tampering")
	}
	return ok
}

// MarkFailed records a failed capture. The linked appointment is left
// alone: a failed payment never cancels anything automatically.
func (s *Service) MarkFailed(ctx context.Context, orderID string) (*Payment, error) {
	p, err := s.repo.GetByOrderID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if p.Status == StatusFailed {
		return p, nil
	}

	updated, err := s.repo.UpdateStatus(ctx, p.ID, StatusPending, StatusFailed, nil)
	if err != nil {
		if errors.Is(err, ErrPaymentNotFound) {
			return nil, ErrPaymentClosed
		}
		return nil, fmt.Errorf("fail payment: %w", err)
	}
	return updated, nil
}

// MarkRefunded records a refund of a captured payment. Reverting the
// confirmed appointment stays a manual cancellation.
func (s *Service) MarkRefunded(ctx context.Context, orderID string) (*Payment, error) {
	p, err := s.repo.GetByOrderID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if p.Status == StatusRefunded {
		return p, nil
	}

	updated, err := s.repo.UpdateStatus(ctx, p.ID, StatusCompleted, StatusRefunded, nil)
	if err != nil {
		if errors.Is(err, ErrPaymentNotFound) {
			return nil, ErrPaymentClosed
		}
		return nil, fmt.Errorf("refund payment: %w", err)
	}
	return updated, nil
}
