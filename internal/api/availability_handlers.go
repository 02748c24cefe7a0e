package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/medconnect/telemed-scheduling/internal/auth"
	"github.com/medconnect/telemed-scheduling/internal/availability"
)

func setRuleHandler(svc *availability.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := auth.ActorFrom(r.Context())
		if err != nil {
			writeError(w, http.StatusUnauthorized, "unauthenticated", err.Error())
			return
		}

		var req SetRuleRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		start, err := availability.ParseClock(req.Start)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_start", "start must be HH:MM")
			return
		}
		end, err := availability.ParseClock(req.End)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_end", "end must be HH:MM")
			return
		}

		enabled := true
		if req.Enabled != nil {
			enabled = *req.Enabled
		}

		rule, err := svc.SetRule(r.Context(), actor, availability.Weekday(req.Weekday), start, end, enabled)
		if err != nil {
			handleRuleError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, toRuleResponse(rule))
	}
}

func listRulesHandler(svc *availability.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		doctorID, err := uuid.Parse(chi.URLParam(r, "doctorID"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_doctor_id", "doctor id must be a valid UUID")
			return
		}

		var rules []availability.Rule
		if dayStr := r.URL.Query().Get("weekday"); dayStr != "" {
			day, convErr := strconv.Atoi(dayStr)
			if convErr != nil {
				writeError(w, http.StatusBadRequest, "invalid_weekday", "weekday must be 1..7")
				return
			}
			rules, err = svc.ListRulesForDay(r.Context(), doctorID, availability.Weekday(day))
		} else {
			rules, err = svc.ListRules(r.Context(), doctorID)
		}
		if err != nil {
			handleRuleError(w, err)
			return
		}

		resp := make([]RuleResponse, 0, len(rules))
		for i := range rules {
			resp = append(resp, toRuleResponse(&rules[i]))
		}

		writeJSON(w, http.StatusOK, resp)
	}
}

func removeRuleHandler(svc *availability.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := auth.ActorFrom(r.Context())
		if err != nil {
			writeError(w, http.StatusUnauthorized, "unauthenticated", err.Error())
			return
		}

		ruleID, err := uuid.Parse(chi.URLParam(r, "ruleID"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_rule_id", "rule id must be a valid UUID")
			return
		}

		if err := svc.RemoveRule(r.Context(), actor, ruleID); err != nil {
			handleRuleError(w, err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func handleRuleError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, availability.ErrInvalidWeekday),
		errors.Is(err, availability.ErrInvalidWindow):
		writeError(w, http.StatusBadRequest, "invalid_rule", err.Error())
	case errors.Is(err, availability.ErrNotRuleOwner):
		writeError(w, http.StatusForbidden, "not_rule_owner", err.Error())
	case errors.Is(err, availability.ErrRuleNotFound):
		writeError(w, http.StatusNotFound, "rule_not_found", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}
