package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/medconnect/telemed-scheduling/internal/auth"
	"github.com/medconnect/telemed-scheduling/internal/doctor"
)

func getProfileHandler(repo doctor.Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		doctorID, err := uuid.Parse(chi.URLParam(r, "doctorID"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_doctor_id", "doctorID must be a valid UUID")
			return
		}

		prof, err := repo.GetProfile(r.Context(), doctorID)
		if err != nil {
			handleDoctorError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toProfileResponse(prof))
	}
}

// upsertProfileHandler lets a doctor publish their consultation fee and time
// zone. The approved flag is admin-owned and untouched here.
func upsertProfileHandler(repo doctor.Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := auth.ActorFrom(r.Context())
		if err != nil {
			writeError(w, http.StatusUnauthorized, "unauthenticated", err.Error())
			return
		}

		doctorID, err := uuid.Parse(chi.URLParam(r, "doctorID"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_doctor_id", "doctorID must be a valid UUID")
			return
		}

		switch actor.Role {
		case auth.RoleAdmin:
		case auth.RoleDoctor:
			if actor.ID != doctorID {
				writeError(w, http.StatusForbidden, "not_profile_owner", "doctors may only edit their own profile")
				return
			}
		default:
			writeError(w, http.StatusForbidden, "not_profile_owner", "only doctors and admins may edit profiles")
			return
		}

		var req UpsertProfileRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}
		if req.FeeMinor <= 0 {
			writeError(w, http.StatusBadRequest, "invalid_fee", "fee_minor must be positive")
			return
		}
		if req.Currency == "" {
			req.Currency = "INR"
		}
		if req.TimeZone != "" {
			if _, err := time.LoadLocation(req.TimeZone); err != nil {
				writeError(w, http.StatusBadRequest, "invalid_time_zone", "time_zone must be a valid IANA zone name")
				return
			}
		}

		prof, err := repo.UpsertProfile(r.Context(), doctor.Profile{
			DoctorID: doctorID,
			FeeMinor: req.FeeMinor,
			Currency: req.Currency,
			TimeZone: req.TimeZone,
		})
		if err != nil {
			handleDoctorError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toProfileResponse(prof))
	}
}

func setApprovalHandler(repo doctor.Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := auth.ActorFrom(r.Context())
		if err != nil {
			writeError(w, http.StatusUnauthorized, "unauthenticated", err.Error())
			return
		}
		if actor.Role != auth.RoleAdmin {
			writeError(w, http.StatusForbidden, "admin_only", "only admins may approve doctors")
			return
		}

		doctorID, err := uuid.Parse(chi.URLParam(r, "doctorID"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_doctor_id", "doctorID must be a valid UUID")
			return
		}

		var req ApprovalRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		prof, err := repo.SetApproval(r.Context(), doctorID, req.Approved)
		if err != nil {
			handleDoctorError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toProfileResponse(prof))
	}
}

func handleDoctorError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, doctor.ErrDoctorNotFound):
		writeError(w, http.StatusNotFound, "doctor_not_found", err.Error())
	case errors.Is(err, doctor.ErrProfileNotFound):
		writeError(w, http.StatusNotFound, "profile_not_found", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}
