package appointment

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/medconnect/telemed-scheduling/internal/doctor"
)

// memRepository is an in-memory Repository for service tests. Its
// CreateAppointment enforces the same no-live-overlap rule as the database
// exclusion constraint, and UpdateAppointmentStatus has the same
// compare-and-set semantics as the SQL implementation.
type memRepository struct {
	mu       sync.Mutex
	patients map[uuid.UUID]Patient
	appts    map[uuid.UUID]Appointment
}

func newMemRepository() *memRepository {
	return &memRepository{
		patients: make(map[uuid.UUID]Patient),
		appts:    make(map[uuid.UUID]Appointment),
	}
}

func (m *memRepository) addPatient(id uuid.UUID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.patients[id] = Patient{ID: id, Name: "patient"}
}

func (m *memRepository) setUpdatedAt(id uuid.UUID, at time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a := m.appts[id]
	a.UpdatedAt = at
	m.appts[id] = a
}

func (m *memRepository) GetPatientByID(ctx context.Context, id uuid.UUID) (*Patient, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.patients[id]
	if !ok {
		return nil, ErrPatientNotFound
	}
	return &p, nil
}

func (m *memRepository) GetAppointmentByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	a, ok := m.appts[id]
	if !ok {
		return nil, ErrAppointmentNotFound
	}
	return &a, nil
}

func (m *memRepository) ListLiveByDoctorBetween(ctx context.Context, doctorID uuid.UUID, from, to time.Time) ([]Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var result []Appointment
	for _, a := range m.appts {
		if a.DoctorID != doctorID || !a.Status.Live() {
			continue
		}
		if a.StartAt.Before(to) && a.EndAt().After(from) {
			result = append(result, a)
		}
	}
	return result, nil
}

func (m *memRepository) CreateAppointment(ctx context.Context, appt Appointment) (*Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	duration := time.Duration(appt.DurationMins) * time.Minute
	for _, existing := range m.appts {
		if existing.DoctorID == appt.DoctorID && existing.Status.Live() && existing.Overlaps(appt.StartAt, duration) {
			return nil, ErrSlotTaken
		}
	}

	now := time.Now()
	appt.CreatedAt = now
	appt.UpdatedAt = now
	m.appts[appt.ID] = appt
	out := appt
	return &out, nil
}

func (m *memRepository) UpdateAppointmentStatus(ctx context.Context, id uuid.UUID, from, to Status) (*Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	a, ok := m.appts[id]
	if !ok || a.Status != from {
		return nil, ErrAppointmentNotFound
	}
	a.Status = to
	a.UpdatedAt = time.Now()
	m.appts[id] = a
	return &a, nil
}

func (m *memRepository) UpdateAppointmentFields(ctx context.Context, id uuid.UUID, upd FieldUpdate) (*Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	a, ok := m.appts[id]
	if !ok {
		return nil, ErrAppointmentNotFound
	}
	if upd.Notes != nil {
		a.Notes = upd.Notes
	}
	if upd.Prescription != nil {
		a.Prescription = upd.Prescription
	}
	if upd.VideoSessionID != nil {
		a.VideoSessionID = upd.VideoSessionID
	}
	a.UpdatedAt = time.Now()
	m.appts[id] = a
	return &a, nil
}

func (m *memRepository) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var result []Appointment
	for _, a := range m.appts {
		if a.PatientID == patientID {
			result = append(result, a)
		}
	}
	return clampPage(result, limit, offset), nil
}

func (m *memRepository) ListByDoctor(ctx context.Context, doctorID uuid.UUID, limit, offset int) ([]Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var result []Appointment
	for _, a := range m.appts {
		if a.DoctorID == doctorID {
			result = append(result, a)
		}
	}
	return clampPage(result, limit, offset), nil
}

func (m *memRepository) FindStaleAwaitingPayment(ctx context.Context, cutoff time.Time) ([]Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var result []Appointment
	for _, a := range m.appts {
		if a.Status == StatusAwaitingPayment && a.UpdatedAt.Before(cutoff) {
			result = append(result, a)
		}
	}
	return result, nil
}

func clampPage(items []Appointment, limit, offset int) []Appointment {
	if offset >= len(items) {
		return nil
	}
	items = items[offset:]
	if limit < len(items) {
		items = items[:limit]
	}
	return items
}

// memDoctorRepository is an in-memory doctor.Repository.
type memDoctorRepository struct {
	mu       sync.Mutex
	doctors  map[uuid.UUID]doctor.Doctor
	profiles map[uuid.UUID]doctor.Profile
}

func newMemDoctorRepository() *memDoctorRepository {
	return &memDoctorRepository{
		doctors:  make(map[uuid.UUID]doctor.Doctor),
		profiles: make(map[uuid.UUID]doctor.Profile),
	}
}

func (m *memDoctorRepository) addDoctor(id uuid.UUID, profile *doctor.Profile) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.doctors[id] = doctor.Doctor{ID: id, Name: "doctor"}
	if profile != nil {
		p := *profile
		p.DoctorID = id
		m.profiles[id] = p
	}
}

func (m *memDoctorRepository) GetDoctorByID(ctx context.Context, id uuid.UUID) (*doctor.Doctor, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	d, ok := m.doctors[id]
	if !ok {
		return nil, doctor.ErrDoctorNotFound
	}
	return &d, nil
}

func (m *memDoctorRepository) GetProfile(ctx context.Context, doctorID uuid.UUID) (*doctor.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.profiles[doctorID]
	if !ok {
		return nil, doctor.ErrProfileNotFound
	}
	return &p, nil
}

func (m *memDoctorRepository) UpsertProfile(ctx context.Context, p doctor.Profile) (*doctor.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.profiles[p.DoctorID] = p
	return &p, nil
}

func (m *memDoctorRepository) SetApproval(ctx context.Context, doctorID uuid.UUID, approved bool) (*doctor.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.profiles[doctorID]
	if !ok {
		return nil, doctor.ErrProfileNotFound
	}
	p.Approved = approved
	m.profiles[doctorID] = p
	return &p, nil
}
