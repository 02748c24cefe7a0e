package appointment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/medconnect/telemed-scheduling/internal/auth"
	"github.com/medconnect/telemed-scheduling/internal/config"
	"github.com/medconnect/telemed-scheduling/internal/doctor"
	redisclient "github.com/medconnect/telemed-scheduling/internal/redis"
)

var (
	ErrDoctorNotFound    = errors.New("doctor not found")
	ErrProfileIncomplete = errors.New("doctor has no published consultation fee")
	ErrDoctorNotApproved = errors.New("doctor has not passed verification")
	ErrInvalidDate       = errors.New("appointment time must be strictly in the future")
	ErrInvalidDuration   = errors.New("invalid appointment duration")
	ErrInvalidType       = errors.New("consultation type must be video or in_person")
	ErrSlotUnavailable   = errors.New("time falls outside the doctor's open hours")
	ErrCalendarBusy      = errors.New("doctor calendar is being booked, please retry")
	ErrNotParticipant    = errors.New("actor is not part of this appointment")
	ErrFieldForbidden    = errors.New("actor role may not edit this field")
)

const (
	// DefaultDurationMins matches the platform's standard consultation slot.
	DefaultDurationMins = 30
	// maxDurationMins bounds the conflict-check window around a candidate
	// slot: no appointment is longer, so nothing outside the window can
	// overlap it.
	maxDurationMins = 240
)

// SlotResolver decides whether an instant falls inside the doctor's open
// hours. Implemented by availability.Resolver.
type SlotResolver interface {
	IsOpen(ctx context.Context, doctorID uuid.UUID, instant time.Time, timeZone string) (bool, error)
}

// TransitionListener is notified after each successful status transition.
// Implementations must not fail the transition: they swallow their own
// errors.
type TransitionListener interface {
	AppointmentTransitioned(ctx context.Context, appt *Appointment, from, to Status)
}

type Service struct {
	repo     Repository
	doctors  doctor.Repository
	resolver SlotResolver
	locker   redisclient.Locker
	listener TransitionListener
	cfg      config.Config
	logger   zerolog.Logger
}

func NewService(repo Repository, doctors doctor.Repository, resolver SlotResolver, locker redisclient.Locker, cfg config.Config, logger zerolog.Logger) *Service {
	return &Service{
		repo:     repo,
		doctors:  doctors,
		resolver: resolver,
		locker:   locker,
		cfg:      cfg,
		logger:   logger.With().Str("component", "appointment").Logger(),
	}
}

// SetTransitionListener wires the notification trigger. Optional.
func (s *Service) SetTransitionListener(l TransitionListener) {
	s.listener = l
}

// Book reserves a slot of the doctor's time for a patient. The conflict
// check and the insert run under a per-doctor lock so concurrent bookers
// targeting overlapping intervals cannot both succeed; the database
// exclusion constraint backstops the same invariant.
func (s *Service) Book(ctx context.Context, patientID, doctorID uuid.UUID, startAt time.Time, durationMins int, ctype ConsultationType, notes string) (*Appointment, error) {
	if _, err := s.repo.GetPatientByID(ctx, patientID); err != nil {
		if errors.Is(err, ErrPatientNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("load patient: %w", err)
	}

	if _, err := s.doctors.GetDoctorByID(ctx, doctorID); err != nil {
		if errors.Is(err, doctor.ErrDoctorNotFound) {
			return nil, ErrDoctorNotFound
		}
		return nil, fmt.Errorf("load doctor: %w", err)
	}

	prof, err := s.doctors.GetProfile(ctx, doctorID)
	if err != nil {
		if errors.Is(err, doctor.ErrProfileNotFound) {
			return nil, ErrProfileIncomplete
		}
		return nil, fmt.Errorf("load doctor profile: %w", err)
	}
	if prof.FeeMinor <= 0 {
		return nil, ErrProfileIncomplete
	}
	if !prof.Approved {
		return nil, ErrDoctorNotApproved
	}

	if !ctype.Valid() {
		return nil, ErrInvalidType
	}
	if durationMins == 0 {
		durationMins = DefaultDurationMins
	}
	if durationMins < 0 || durationMins > maxDurationMins {
		return nil, ErrInvalidDuration
	}

	startAt = startAt.UTC()
	if !startAt.After(time.Now()) {
		return nil, ErrInvalidDate
	}

	open, err := s.resolver.IsOpen(ctx, doctorID, startAt, prof.TimeZone)
	if err != nil {
		return nil, fmt.Errorf("resolve slot: %w", err)
	}
	if !open {
		return nil, ErrSlotUnavailable
	}

	duration := time.Duration(durationMins) * time.Minute

	var created *Appointment

	err = s.locker.WithDoctorLock(ctx, doctorID, func(lockCtx context.Context) error {
		// Inside the critical section re-check for overlapping live
		// appointments before inserting.
		windowFrom := startAt.Add(-maxDurationMins * time.Minute)
		windowTo := startAt.Add(duration)

		existing, err := s.repo.ListLiveByDoctorBetween(lockCtx, doctorID, windowFrom, windowTo)
		if err != nil {
			return fmt.Errorf("check overlapping appointments: %w", err)
		}
		for i := range existing {
			if existing[i].Overlaps(startAt, duration) {
				return ErrSlotTaken
			}
		}

		appt := Appointment{
			ID:           uuid.New(),
			PatientID:    patientID,
			DoctorID:     doctorID,
			StartAt:      startAt,
			DurationMins: durationMins,
			Type:         ctype,
			Status:       StatusScheduled,
			FeeMinor:     prof.FeeMinor,
			Currency:     prof.Currency,
		}
		if notes != "" {
			appt.Notes = &notes
		}

		created, err = s.repo.CreateAppointment(lockCtx, appt)
		if err != nil {
			return fmt.Errorf("create appointment: %w", err)
		}

		return nil
	})

	if err != nil {
		if errors.Is(err, redisclient.ErrLockNotAcquired) {
			return nil, ErrCalendarBusy
		}
		return nil, err
	}

	s.logger.Info().
		Str("appointment_id", created.ID.String()).
		Str("doctor_id", doctorID.String()).
		Time("start_at", created.StartAt).
		Msg("appointment booked")

	return created, nil
}

// Transition moves an appointment to a new status on behalf of an actor.
// The write is a compare-and-set against the status the actor saw; a
// concurrent change surfaces as an invalid transition, never as an
// overwrite.
func (s *Service) Transition(ctx context.Context, actor auth.Actor, id uuid.UUID, to Status) (*Appointment, error) {
	appt, err := s.repo.GetAppointmentByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.requireParticipant(actor, appt); err != nil {
		return nil, err
	}
	if err := CheckTransition(appt.Status, to, actor.Role); err != nil {
		return nil, err
	}

	from := appt.Status
	updated, err := s.repo.UpdateAppointmentStatus(ctx, id, from, to)
	if err != nil {
		if errors.Is(err, ErrAppointmentNotFound) {
			// The status changed under us, the CAS precondition failed.
			return nil, ErrInvalidTransition
		}
		return nil, fmt.Errorf("update appointment status: %w", err)
	}

	s.logger.Info().
		Str("appointment_id", id.String()).
		Str("from", string(from)).
		Str("to", string(to)).
		Str("actor_role", string(actor.Role)).
		Msg("appointment transitioned")

	if s.listener != nil {
		s.listener.AppointmentTransitioned(ctx, updated, from, to)
	}

	return updated, nil
}

// UpdateFields applies role-scoped edits to the mutable free-text fields.
// Patients may edit notes; doctors may additionally edit the prescription
// and the video session id. Fee, patient and doctor are immutable.
func (s *Service) UpdateFields(ctx context.Context, actor auth.Actor, id uuid.UUID, upd FieldUpdate) (*Appointment, error) {
	appt, err := s.repo.GetAppointmentByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.requireParticipant(actor, appt); err != nil {
		return nil, err
	}

	if actor.Role == auth.RolePatient && (upd.Prescription != nil || upd.VideoSessionID != nil) {
		return nil, ErrFieldForbidden
	}

	updated, err := s.repo.UpdateAppointmentFields(ctx, id, upd)
	if err != nil {
		return nil, fmt.Errorf("update appointment fields: %w", err)
	}
	return updated, nil
}

// GetAppointment returns an appointment visible to the actor.
func (s *Service) GetAppointment(ctx context.Context, actor auth.Actor, id uuid.UUID) (*Appointment, error) {
	appt, err := s.repo.GetAppointmentByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.requireParticipant(actor, appt); err != nil {
		return nil, err
	}
	return appt, nil
}

// ListMine returns the actor's own appointments.
func (s *Service) ListMine(ctx context.Context, actor auth.Actor, limit, offset int) ([]Appointment, error) {
	if limit <= 0 {
		limit = 20 // default
	}
	if limit > 100 {
		limit = 100 // max
	}
	if offset < 0 {
		offset = 0
	}

	switch actor.Role {
	case auth.RolePatient:
		return s.repo.ListByPatient(ctx, actor.ID, limit, offset)
	case auth.RoleDoctor:
		return s.repo.ListByDoctor(ctx, actor.ID, limit, offset)
	default:
		return nil, ErrNotParticipant
	}
}

// CancelStaleAwaitingPayment is intended to be called by the worker
// periodically. It cancels appointments that sat in awaiting_payment
// longer than the configured TTL.
func (s *Service) CancelStaleAwaitingPayment(ctx context.Context) error {
	cutoff := time.Now().Add(-s.cfg.UnpaidTTL)

	stale, err := s.repo.FindStaleAwaitingPayment(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("find stale awaiting_payment appointments: %w", err)
	}

	system := auth.Actor{Role: auth.RoleSystem}
	for _, appt := range stale {
		if _, err := s.Transition(ctx, system, appt.ID, StatusCancelled); err != nil {
			if errors.Is(err, ErrInvalidTransition) || errors.Is(err, ErrAppointmentNotFound) {
				continue // already moved on by someone else
			}
			s.logger.Error().Err(err).
				Str("appointment_id", appt.ID.String()).
				Msg("failed to cancel stale appointment")
		}
	}

	return nil
}

// requireParticipant restricts patient and doctor actors to their own
// appointments. Internal roles and admins see everything.
func (s *Service) requireParticipant(actor auth.Actor, appt *Appointment) error {
	switch actor.Role {
	case auth.RolePatient:
		if appt.PatientID != actor.ID {
			return ErrNotParticipant
		}
	case auth.RoleDoctor:
		if appt.DoctorID != actor.ID {
			return ErrNotParticipant
		}
	case auth.RoleAdmin, auth.RolePaymentService, auth.RoleSystem:
		// unrestricted
	default:
		return ErrNotParticipant
	}
	return nil
}
