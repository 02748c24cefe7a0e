package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/medconnect/telemed-scheduling/internal/appointment"
	"github.com/medconnect/telemed-scheduling/internal/auth"
	"github.com/medconnect/telemed-scheduling/internal/payment"
)

func openOrderHandler(svc *payment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := auth.ActorFrom(r.Context())
		if err != nil {
			writeError(w, http.StatusUnauthorized, "unauthenticated", err.Error())
			return
		}

		var req OpenOrderRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		appointmentID, err := uuid.Parse(req.AppointmentID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_appointment_id", "appointment_id must be a valid UUID")
			return
		}

		p, err := svc.OpenOrder(r.Context(), actor, appointmentID, req.Amount)
		if err != nil {
			handlePaymentError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, toPaymentResponse(p))
	}
}

func confirmPaymentHandler(svc *payment.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ConfirmPaymentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}
		if req.OrderID == "" || req.ProcessorPaymentID == "" || req.Signature == "" {
			writeError(w, http.StatusBadRequest, "missing_fields", "order_id, payment_id and signature are required")
			return
		}

		p, err := svc.Confirm(r.Context(), req.OrderID, req.ProcessorPaymentID, req.Signature)
		if err != nil {
			handlePaymentError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toPaymentResponse(p))
	}
}

// paymentWebhookHandler receives asynchronous processor events. It is
// unauthenticated: the HMAC signature inside the event is the trust
// boundary, and duplicate deliveries must succeed with 200 so the
// processor stops retrying.
func paymentWebhookHandler(svc *payment.Service, logger zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var evt WebhookEvent
		if err := json.NewDecoder(r.Body).Decode(&evt); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}
		if evt.OrderID == "" {
			writeError(w, http.StatusBadRequest, "missing_order_id", "order_id is required")
			return
		}

		var err error
		switch evt.Event {
		case "payment.captured":
			_, err = svc.Confirm(r.Context(), evt.OrderID, evt.ProcessorPaymentID, evt.Signature)
		case "payment.failed":
			if !verifyWebhook(svc, evt) {
				err = payment.ErrInvalidSignature
			} else {
				_, err = svc.MarkFailed(r.Context(), evt.OrderID)
			}
		case "refund.processed":
			if !verifyWebhook(svc, evt) {
				err = payment.ErrInvalidSignature
			} else {
				_, err = svc.MarkRefunded(r.Context(), evt.OrderID)
			}
		default:
			logger.Debug().Str("event", evt.Event).Msg("ignoring unhandled webhook event")
			w.WriteHeader(http.StatusOK)
			return
		}

		if err != nil {
			handlePaymentError(w, err)
			return
		}

		w.WriteHeader(http.StatusOK)
	}
}

func verifyWebhook(svc *payment.Service, evt WebhookEvent) bool {
	return svc.VerifyEvent(evt.OrderID, evt.ProcessorPaymentID, evt.Signature)
}

func handlePaymentError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, payment.ErrPaymentNotFound):
		writeError(w, http.StatusNotFound, "payment_not_found", err.Error())
	case errors.Is(err, appointment.ErrAppointmentNotFound):
		writeError(w, http.StatusNotFound, "appointment_not_found", err.Error())
	case errors.Is(err, appointment.ErrNotParticipant):
		writeError(w, http.StatusForbidden, "not_participant", err.Error())
	case errors.Is(err, payment.ErrAmountMismatch):
		writeError(w, http.StatusBadRequest, "amount_mismatch", err.Error())
	case errors.Is(err, payment.ErrInvalidSignature):
		writeError(w, http.StatusUnauthorized, "invalid_signature", err.Error())
	case errors.Is(err, payment.ErrAlreadyPaid),
		errors.Is(err, payment.ErrPaymentClosed):
		writeError(w, http.StatusConflict, "payment_closed", err.Error())
	case errors.Is(err, appointment.ErrInvalidTransition):
		writeError(w, http.StatusConflict, "invalid_status_transition", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}
