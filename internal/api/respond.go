package api

import (
	"encoding/json"
	"net/http"

	"github.com/clinicdesk/clinic-booking/internal/booking"
)

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{Error: code, Message: message})
}

// writeBookingError maps the engine's failure taxonomy onto HTTP statuses.
// Callers must be able to tell a booking conflict from an internal fault, so
// everything except VALIDATION_ERROR keeps its kind and message.
func writeBookingError(w http.ResponseWriter, err error) {
	kind := booking.KindOf(err)
	switch kind {
	case booking.KindInvalidDay, booking.KindInvalidSlot, booking.KindInvalidStatus:
		writeError(w, http.StatusBadRequest, string(kind), err.Error())
	case booking.KindSundayHoliday, booking.KindNoAvailability, booking.KindSlotTaken:
		writeError(w, http.StatusConflict, string(kind), err.Error())
	case booking.KindNotFound:
		writeError(w, http.StatusNotFound, string(kind), err.Error())
	case booking.KindValidationError:
		// Detail was already logged where the fault occurred.
		writeError(w, http.StatusInternalServerError, string(kind), "internal error")
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
	}
}
