package payment

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medconnect/telemed-scheduling/internal/appointment"
	"github.com/medconnect/telemed-scheduling/internal/auth"
)

const testSecret = "processor-secret"

// memRepository is an in-memory Repository with the same compare-and-set
// semantics as the SQL implementation.
type memRepository struct {
	mu       sync.Mutex
	payments map[uuid.UUID]Payment
}

func newMemRepository() *memRepository {
	return &memRepository{payments: make(map[uuid.UUID]Payment)}
}

func (m *memRepository) Insert(ctx context.Context, p Payment) (*Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	// One payment per appointment, same as the unique constraint: a losing
	// concurrent insert gets the winner's row back.
	for _, existing := range m.payments {
		if existing.AppointmentID == p.AppointmentID {
			out := existing
			return &out, nil
		}
	}

	m.payments[p.ID] = p
	out := p
	return &out, nil
}

func (m *memRepository) GetByOrderID(ctx context.Context, orderID string) (*Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, p := range m.payments {
		if p.OrderID == orderID {
			out := p
			return &out, nil
		}
	}
	return nil, ErrPaymentNotFound
}

func (m *memRepository) GetByAppointmentID(ctx context.Context, appointmentID uuid.UUID) (*Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, p := range m.payments {
		if p.AppointmentID == appointmentID {
			out := p
			return &out, nil
		}
	}
	return nil, ErrPaymentNotFound
}

func (m *memRepository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to Status, processorPaymentID *string) (*Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.payments[id]
	if !ok || p.Status != from {
		return nil, ErrPaymentNotFound
	}
	p.Status = to
	if processorPaymentID != nil {
		p.ProcessorPaymentID = processorPaymentID
	}
	m.payments[id] = p
	return &p, nil
}

// fakeAppointments is an AppointmentDriver over a map, enforcing the real
// transition table.
type fakeAppointments struct {
	mu    sync.Mutex
	appts map[uuid.UUID]appointment.Appointment
}

func newFakeAppointments() *fakeAppointments {
	return &fakeAppointments{appts: make(map[uuid.UUID]appointment.Appointment)}
}

func (f *fakeAppointments) add(appt appointment.Appointment) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.appts[appt.ID] = appt
}

func (f *fakeAppointments) statusOf(id uuid.UUID) appointment.Status {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.appts[id].Status
}

func (f *fakeAppointments) GetAppointment(ctx context.Context, actor auth.Actor, id uuid.UUID) (*appointment.Appointment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	a, ok := f.appts[id]
	if !ok {
		return nil, appointment.ErrAppointmentNotFound
	}
	return &a, nil
}

func (f *fakeAppointments) Transition(ctx context.Context, actor auth.Actor, id uuid.UUID, to appointment.Status) (*appointment.Appointment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	a, ok := f.appts[id]
	if !ok {
		return nil, appointment.ErrAppointmentNotFound
	}
	if err := appointment.CheckTransition(a.Status, to, actor.Role); err != nil {
		return nil, err
	}
	a.Status = to
	f.appts[id] = a
	return &a, nil
}

type paymentEnv struct {
	svc   *Service
	repo  *memRepository
	appts *fakeAppointments
	appt  appointment.Appointment
}

func newPaymentEnv(t *testing.T, status appointment.Status) *paymentEnv {
	t.Helper()

	appts := newFakeAppointments()
	appt := appointment.Appointment{
		ID:        uuid.New(),
		PatientID: uuid.New(),
		DoctorID:  uuid.New(),
		Status:    status,
		FeeMinor:  50000,
		Currency:  "INR",
	}
	appts.add(appt)

	repo := newMemRepository()
	svc := NewService(repo, appts, StubOrderOpener{}, testSecret, zerolog.Nop())

	return &paymentEnv{svc: svc, repo: repo, appts: appts, appt: appt}
}

func (e *paymentEnv) patient() auth.Actor {
	return auth.Actor{ID: e.appt.PatientID, Role: auth.RolePatient}
}

func amount(v float64) *float64 { return &v }

func TestOpenOrder(t *testing.T) {
	env := newPaymentEnv(t, appointment.StatusAwaitingPayment)
	ctx := context.Background()

	p, err := env.svc.OpenOrder(ctx, env.patient(), env.appt.ID, amount(500.00))
	require.NoError(t, err)

	assert.Equal(t, StatusPending, p.Status)
	assert.Equal(t, int64(50000), p.AmountMinor, "amount comes from the stored fee, not the caller")
	assert.Equal(t, "INR", p.Currency)
	assert.NotEmpty(t, p.OrderID)

	// Reopening returns the same pending order instead of minting another.
	again, err := env.svc.OpenOrder(ctx, env.patient(), env.appt.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, p.ID, again.ID)
	assert.Equal(t, p.OrderID, again.OrderID)
}

func TestOpenOrderAmountMismatch(t *testing.T) {
	env := newPaymentEnv(t, appointment.StatusAwaitingPayment)
	ctx := context.Background()

	_, err := env.svc.OpenOrder(ctx, env.patient(), env.appt.ID, amount(501.00))
	assert.ErrorIs(t, err, ErrAmountMismatch)

	// Sub-minor-unit drift from float marshalling is accepted.
	_, err = env.svc.OpenOrder(ctx, env.patient(), env.appt.ID, amount(500.004))
	assert.NoError(t, err)
}

// racingRepo hides existing payments from the pre-insert existence check,
// reproducing two order opens racing past it.
type racingRepo struct {
	*memRepository
	hide bool
}

func (r *racingRepo) GetByAppointmentID(ctx context.Context, appointmentID uuid.UUID) (*Payment, error) {
	if r.hide {
		return nil, ErrPaymentNotFound
	}
	return r.memRepository.GetByAppointmentID(ctx, appointmentID)
}

func TestOpenOrderConcurrentDuplicate(t *testing.T) {
	env := newPaymentEnv(t, appointment.StatusAwaitingPayment)
	ctx := context.Background()

	repo := &racingRepo{memRepository: env.repo}
	svc := NewService(repo, env.appts, StubOrderOpener{}, testSecret, zerolog.Nop())

	first, err := svc.OpenOrder(ctx, env.patient(), env.appt.ID, nil)
	require.NoError(t, err)

	// The loser's existence check ran before the winner's insert landed;
	// its own insert hits the one-payment-per-appointment constraint and
	// resolves to the winner's row instead of erroring.
	repo.hide = true
	second, err := svc.OpenOrder(ctx, env.patient(), env.appt.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, first.OrderID, second.OrderID)
	assert.Equal(t, StatusPending, second.Status)
}

func TestOpenOrderOnSettledPayment(t *testing.T) {
	env := newPaymentEnv(t, appointment.StatusAwaitingPayment)
	ctx := context.Background()

	p, err := env.svc.OpenOrder(ctx, env.patient(), env.appt.ID, nil)
	require.NoError(t, err)

	sig := ComputeSignature(testSecret, p.OrderID, "pay_1")
	_, err = env.svc.Confirm(ctx, p.OrderID, "pay_1", sig)
	require.NoError(t, err)

	_, err = env.svc.OpenOrder(ctx, env.patient(), env.appt.ID, nil)
	assert.ErrorIs(t, err, ErrAlreadyPaid)
}

func TestConfirm(t *testing.T) {
	env := newPaymentEnv(t, appointment.StatusAwaitingPayment)
	ctx := context.Background()

	p, err := env.svc.OpenOrder(ctx, env.patient(), env.appt.ID, nil)
	require.NoError(t, err)

	sig := ComputeSignature(testSecret, p.OrderID, "pay_1")
	confirmed, err := env.svc.Confirm(ctx, p.OrderID, "pay_1", sig)
	require.NoError(t, err)

	assert.Equal(t, StatusCompleted, confirmed.Status)
	require.NotNil(t, confirmed.ProcessorPaymentID)
	assert.Equal(t, "pay_1", *confirmed.ProcessorPaymentID)
	assert.Equal(t, appointment.StatusConfirmed, env.appts.statusOf(env.appt.ID))

	// Redelivered confirmation is a no-op returning the settled payment.
	again, err := env.svc.Confirm(ctx, p.OrderID, "pay_1", sig)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, again.Status)
	assert.Equal(t, confirmed.ID, again.ID)
}

func TestConfirmForgedSignature(t *testing.T) {
	env := newPaymentEnv(t, appointment.StatusAwaitingPayment)
	ctx := context.Background()

	p, err := env.svc.OpenOrder(ctx, env.patient(), env.appt.ID, nil)
	require.NoError(t, err)

	forged := ComputeSignature("wrong-secret", p.OrderID, "pay_1")
	_, err = env.svc.Confirm(ctx, p.OrderID, "pay_1", forged)
	assert.ErrorIs(t, err, ErrInvalidSignature)

	// Nothing moved.
	stored, err := env.repo.GetByOrderID(ctx, p.OrderID)
	require.NoError(t, err)
	assert.Equal(t, StatusPending, stored.Status)
	assert.Equal(t, appointment.StatusAwaitingPayment, env.appts.statusOf(env.appt.ID))
}

func TestConfirmAfterCancellation(t *testing.T) {
	env := newPaymentEnv(t, appointment.StatusAwaitingPayment)
	ctx := context.Background()

	p, err := env.svc.OpenOrder(ctx, env.patient(), env.appt.ID, nil)
	require.NoError(t, err)

	// Patient cancels while the processor confirmation is in flight.
	_, err = env.appts.Transition(ctx, env.patient(), env.appt.ID, appointment.StatusCancelled)
	require.NoError(t, err)

	sig := ComputeSignature(testSecret, p.OrderID, "pay_1")
	_, err = env.svc.Confirm(ctx, p.OrderID, "pay_1", sig)
	assert.ErrorIs(t, err, appointment.ErrInvalidTransition)

	// The payment stays pending for manual follow-up.
	stored, err := env.repo.GetByOrderID(ctx, p.OrderID)
	require.NoError(t, err)
	assert.Equal(t, StatusPending, stored.Status)
	assert.Equal(t, appointment.StatusCancelled, env.appts.statusOf(env.appt.ID))
}

func TestConfirmRetryAfterLostPaymentWrite(t *testing.T) {
	env := newPaymentEnv(t, appointment.StatusAwaitingPayment)
	ctx := context.Background()

	p, err := env.svc.OpenOrder(ctx, env.patient(), env.appt.ID, nil)
	require.NoError(t, err)

	// An earlier delivery confirmed the appointment, then the payment
	// write was lost before it landed.
	_, err = env.appts.Transition(ctx, auth.Actor{Role: auth.RolePaymentService}, env.appt.ID, appointment.StatusConfirmed)
	require.NoError(t, err)

	sig := ComputeSignature(testSecret, p.OrderID, "pay_1")
	confirmed, err := env.svc.Confirm(ctx, p.OrderID, "pay_1", sig)
	require.NoError(t, err, "redelivery must finish the reconciliation")
	assert.Equal(t, StatusCompleted, confirmed.Status)
	assert.Equal(t, appointment.StatusConfirmed, env.appts.statusOf(env.appt.ID))
}

func TestConfirmUnknownOrder(t *testing.T) {
	env := newPaymentEnv(t, appointment.StatusAwaitingPayment)

	sig := ComputeSignature(testSecret, "order_missing", "pay_1")
	_, err := env.svc.Confirm(context.Background(), "order_missing", "pay_1", sig)
	assert.ErrorIs(t, err, ErrPaymentNotFound)
}

func TestMarkFailed(t *testing.T) {
	env := newPaymentEnv(t, appointment.StatusAwaitingPayment)
	ctx := context.Background()

	p, err := env.svc.OpenOrder(ctx, env.patient(), env.appt.ID, nil)
	require.NoError(t, err)

	failed, err := env.svc.MarkFailed(ctx, p.OrderID)
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, failed.Status)

	// A failed payment never cancels the appointment.
	assert.Equal(t, appointment.StatusAwaitingPayment, env.appts.statusOf(env.appt.ID))

	// Redelivery is a no-op.
	again, err := env.svc.MarkFailed(ctx, p.OrderID)
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, again.Status)
}

func TestMarkRefunded(t *testing.T) {
	env := newPaymentEnv(t, appointment.StatusAwaitingPayment)
	ctx := context.Background()

	p, err := env.svc.OpenOrder(ctx, env.patient(), env.appt.ID, nil)
	require.NoError(t, err)

	// Refunding a pending payment is rejected.
	_, err = env.svc.MarkRefunded(ctx, p.OrderID)
	assert.ErrorIs(t, err, ErrPaymentClosed)

	sig := ComputeSignature(testSecret, p.OrderID, "pay_1")
	_, err = env.svc.Confirm(ctx, p.OrderID, "pay_1", sig)
	require.NoError(t, err)

	refunded, err := env.svc.MarkRefunded(ctx, p.OrderID)
	require.NoError(t, err)
	assert.Equal(t, StatusRefunded, refunded.Status)

	// The refund only touches the payment; undoing the confirmed
	// appointment stays a manual cancellation.
	assert.Equal(t, appointment.StatusConfirmed, env.appts.statusOf(env.appt.ID))
}

func TestVerifyEvent(t *testing.T) {
	env := newPaymentEnv(t, appointment.StatusAwaitingPayment)

	sig := ComputeSignature(testSecret, "order_1", "pay_1")
	assert.True(t, env.svc.VerifyEvent("order_1", "pay_1", sig))
	assert.False(t, env.svc.VerifyEvent("order_1", "pay_1", "bogus"))
}
