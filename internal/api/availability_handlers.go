package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/clinicdesk/clinic-booking/internal/booking"
)

func listAvailabilityHandler(svc AvailabilityService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		doctorID, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_doctor_id", "id must be a valid UUID")
			return
		}

		rules, err := svc.ListRules(r.Context(), doctorID)
		if err != nil {
			writeBookingError(w, err)
			return
		}

		resp := make([]AvailabilityRuleResponse, 0, len(rules))
		for _, rule := range rules {
			resp = append(resp, toRuleResponse(rule))
		}
		writeJSON(w, http.StatusOK, map[string]any{"availability": resp})
	}
}

func upsertAvailabilityHandler(svc AvailabilityService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		doctorID, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_doctor_id", "id must be a valid UUID")
			return
		}

		var req AvailabilityRuleRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		rule, err := svc.UpsertRule(r.Context(), booking.AvailabilityRule{
			DoctorID:   doctorID,
			DayOfWeek:  req.DayOfWeek,
			StartTime:  req.StartTime,
			EndTime:    req.EndTime,
			TotalSlots: req.TotalSlots,
		})
		if err != nil {
			writeBookingError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toRuleResponse(*rule))
	}
}

// replaceAvailabilityHandler swaps the doctor's whole weekly schedule in one
// request, the way the schedule editor saves it.
func replaceAvailabilityHandler(svc AvailabilityService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		doctorID, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_doctor_id", "id must be a valid UUID")
			return
		}

		var req struct {
			Availability []AvailabilityRuleRequest `json:"availability"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		rules := make([]booking.AvailabilityRule, 0, len(req.Availability))
		for _, rr := range req.Availability {
			rules = append(rules, booking.AvailabilityRule{
				DoctorID:   doctorID,
				DayOfWeek:  rr.DayOfWeek,
				StartTime:  rr.StartTime,
				EndTime:    rr.EndTime,
				TotalSlots: rr.TotalSlots,
			})
		}

		saved, err := svc.ReplaceWeek(r.Context(), doctorID, rules)
		if err != nil {
			writeBookingError(w, err)
			return
		}

		resp := make([]AvailabilityRuleResponse, 0, len(saved))
		for _, rule := range saved {
			resp = append(resp, toRuleResponse(rule))
		}
		writeJSON(w, http.StatusOK, map[string]any{"availability": resp})
	}
}

func deleteAvailabilityHandler(svc AvailabilityService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		doctorID, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_doctor_id", "id must be a valid UUID")
			return
		}

		ruleID, err := uuid.Parse(chi.URLParam(r, "ruleID"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_rule_id", "ruleID must be a valid UUID")
			return
		}

		if err := svc.DeleteRule(r.Context(), doctorID, ruleID); err != nil {
			writeBookingError(w, err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}
