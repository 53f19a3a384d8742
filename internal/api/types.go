package api

import (
	"time"

	"github.com/google/uuid"

	"github.com/clinicdesk/clinic-booking/internal/booking"
)

type CreateAppointmentRequest struct {
	DoctorID  string `json:"doctor_id"`
	Day       string `json:"day"`
	SlotIndex *int   `json:"slotIndex"`
	Reason    string `json:"reason"`
}

type RescheduleRequest struct {
	Day       string `json:"day"`
	SlotIndex *int   `json:"slotIndex"`
}

type StatusUpdateRequest struct {
	Status string `json:"status"`
}

type AppointmentResponse struct {
	ID          uuid.UUID `json:"id"`
	PatientID   uuid.UUID `json:"patient_id"`
	DoctorID    uuid.UUID `json:"doctor_id"`
	Day         string    `json:"day"`
	SlotIndex   int       `json:"slotIndex"`
	Reason      string    `json:"reason"`
	Status      string    `json:"status"`
	DoctorName  string    `json:"doctorName,omitempty"`
	PatientName string    `json:"patientName,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func toAppointmentResponse(d *booking.AppointmentDetail) AppointmentResponse {
	return AppointmentResponse{
		ID:          d.ID,
		PatientID:   d.PatientID,
		DoctorID:    d.DoctorID,
		Day:         d.Day,
		SlotIndex:   d.SlotIndex,
		Reason:      d.Reason,
		Status:      string(d.Status),
		DoctorName:  d.DoctorName,
		PatientName: d.PatientName,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
}

type AvailabilityRuleRequest struct {
	DayOfWeek  string `json:"day_of_week"`
	StartTime  string `json:"start_time"`
	EndTime    string `json:"end_time"`
	TotalSlots int    `json:"totalSlots"`
}

type AvailabilityRuleResponse struct {
	ID         uuid.UUID `json:"id"`
	DoctorID   uuid.UUID `json:"doctor_id"`
	DayOfWeek  string    `json:"day_of_week"`
	StartTime  string    `json:"start_time"`
	EndTime    string    `json:"end_time"`
	TotalSlots int       `json:"totalSlots"`
}

func toRuleResponse(r booking.AvailabilityRule) AvailabilityRuleResponse {
	return AvailabilityRuleResponse{
		ID:         r.ID,
		DoctorID:   r.DoctorID,
		DayOfWeek:  r.DayOfWeek,
		StartTime:  r.StartTime,
		EndTime:    r.EndTime,
		TotalSlots: r.TotalSlots,
	}
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
