package api

import (
	"time"

	"github.com/google/uuid"

	"github.com/medconnect/telemed-scheduling/internal/appointment"
	"github.com/medconnect/telemed-scheduling/internal/availability"
	"github.com/medconnect/telemed-scheduling/internal/doctor"
	"github.com/medconnect/telemed-scheduling/internal/notification"
	"github.com/medconnect/telemed-scheduling/internal/payment"
)

type SetRuleRequest struct {
	Weekday int    `json:"weekday"` // ISO, Monday=1 .. Sunday=7
	Start   string `json:"start"`   // "HH:MM"
	End     string `json:"end"`     // "HH:MM"
	Enabled *bool  `json:"enabled,omitempty"`
}

type RuleResponse struct {
	ID       uuid.UUID `json:"id"`
	DoctorID uuid.UUID `json:"doctor_id"`
	Weekday  int       `json:"weekday"`
	Start    string    `json:"start"`
	End      string    `json:"end"`
	Enabled  bool      `json:"enabled"`
}

func toRuleResponse(r *availability.Rule) RuleResponse {
	return RuleResponse{
		ID:       r.ID,
		DoctorID: r.DoctorID,
		Weekday:  int(r.Weekday),
		Start:    availability.FormatClock(r.Start),
		End:      availability.FormatClock(r.End),
		Enabled:  r.Enabled,
	}
}

type BookAppointmentRequest struct {
	DoctorID     string `json:"doctor_id"`
	StartAt      string `json:"start_at"` // RFC 3339
	DurationMins int    `json:"duration_mins,omitempty"`
	Type         string `json:"type"`
	Notes        string `json:"notes,omitempty"`
}

type AppointmentResponse struct {
	ID             uuid.UUID `json:"id"`
	PatientID      uuid.UUID `json:"patient_id"`
	DoctorID       uuid.UUID `json:"doctor_id"`
	StartAt        time.Time `json:"start_at"`
	DurationMins   int       `json:"duration_mins"`
	Type           string    `json:"type"`
	Status         string    `json:"status"`
	FeeMinor       int64     `json:"fee_minor"`
	Currency       string    `json:"currency"`
	Notes          *string   `json:"notes,omitempty"`
	Prescription   *string   `json:"prescription,omitempty"`
	VideoSessionID *string   `json:"video_session_id,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

func toAppointmentResponse(a *appointment.Appointment) AppointmentResponse {
	return AppointmentResponse{
		ID:             a.ID,
		PatientID:      a.PatientID,
		DoctorID:       a.DoctorID,
		StartAt:        a.StartAt,
		DurationMins:   a.DurationMins,
		Type:           string(a.Type),
		Status:         string(a.Status),
		FeeMinor:       a.FeeMinor,
		Currency:       a.Currency,
		Notes:          a.Notes,
		Prescription:   a.Prescription,
		VideoSessionID: a.VideoSessionID,
		CreatedAt:      a.CreatedAt,
	}
}

type UpsertProfileRequest struct {
	FeeMinor int64  `json:"fee_minor"`
	Currency string `json:"currency,omitempty"`
	TimeZone string `json:"time_zone,omitempty"`
}

type ApprovalRequest struct {
	Approved bool `json:"approved"`
}

type ProfileResponse struct {
	DoctorID uuid.UUID `json:"doctor_id"`
	Approved bool      `json:"approved"`
	FeeMinor int64     `json:"fee_minor"`
	Currency string    `json:"currency"`
	TimeZone string    `json:"time_zone,omitempty"`
}

func toProfileResponse(p *doctor.Profile) ProfileResponse {
	return ProfileResponse{
		DoctorID: p.DoctorID,
		Approved: p.Approved,
		FeeMinor: p.FeeMinor,
		Currency: p.Currency,
		TimeZone: p.TimeZone,
	}
}

type TransitionRequest struct {
	Status string `json:"status"`
}

type UpdateAppointmentRequest struct {
	Notes          *string `json:"notes,omitempty"`
	Prescription   *string `json:"prescription,omitempty"`
	VideoSessionID *string `json:"video_session_id,omitempty"`
}

type OpenOrderRequest struct {
	AppointmentID string   `json:"appointment_id"`
	Amount        *float64 `json:"amount,omitempty"` // major units, optional cross-check
}

type ConfirmPaymentRequest struct {
	OrderID            string `json:"order_id"`
	ProcessorPaymentID string `json:"payment_id"`
	Signature          string `json:"signature"`
}

type WebhookEvent struct {
	Event              string `json:"event"`
	OrderID            string `json:"order_id"`
	ProcessorPaymentID string `json:"payment_id"`
	Signature          string `json:"signature"`
}

type PaymentResponse struct {
	ID                 uuid.UUID `json:"id"`
	AppointmentID      uuid.UUID `json:"appointment_id"`
	AmountMinor        int64     `json:"amount_minor"`
	Currency           string    `json:"currency"`
	Status             string    `json:"status"`
	OrderID            string    `json:"order_id"`
	ProcessorPaymentID *string   `json:"payment_id,omitempty"`
}

func toPaymentResponse(p *payment.Payment) PaymentResponse {
	return PaymentResponse{
		ID:                 p.ID,
		AppointmentID:      p.AppointmentID,
		AmountMinor:        p.AmountMinor,
		Currency:           p.Currency,
		Status:             string(p.Status),
		OrderID:            p.OrderID,
		ProcessorPaymentID: p.ProcessorPaymentID,
	}
}

type NotificationResponse struct {
	ID            uuid.UUID  `json:"id"`
	Type          string     `json:"type"`
	Title         string     `json:"title"`
	Message       string     `json:"message"`
	AppointmentID *uuid.UUID `json:"appointment_id,omitempty"`
	Read          bool       `json:"read"`
	CreatedAt     time.Time  `json:"created_at"`
}

func toNotificationResponse(n notification.Notification) NotificationResponse {
	return NotificationResponse{
		ID:            n.ID,
		Type:          n.Type,
		Title:         n.Title,
		Message:       n.Message,
		AppointmentID: n.AppointmentID,
		Read:          n.Read,
		CreatedAt:     n.CreatedAt,
	}
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
