package booking

import (
	"time"

	"github.com/google/uuid"
)

type AppointmentStatus string

const (
	StatusScheduled AppointmentStatus = "scheduled"
	StatusConfirmed AppointmentStatus = "confirmed"
	StatusCompleted AppointmentStatus = "completed"
	StatusCancelled AppointmentStatus = "cancelled"
)

// IsValidStatus reports whether s is one of the four known status tokens.
func IsValidStatus(s AppointmentStatus) bool {
	switch s {
	case StatusScheduled, StatusConfirmed, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// IsActive reports whether the status counts against slot capacity.
// Only scheduled and confirmed appointments occupy a slot.
func (s AppointmentStatus) IsActive() bool {
	return s == StatusScheduled || s == StatusConfirmed
}

// DefaultTotalSlots is the capacity assigned to an availability rule when
// the doctor does not specify one.
const DefaultTotalSlots = 10

// MaxReasonLength bounds the free-text booking reason.
const MaxReasonLength = 500

type Doctor struct {
	ID        uuid.UUID
	Name      string
	Specialty *string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Patient struct {
	ID        uuid.UUID
	Name      string
	Email     *string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// AvailabilityRule is a doctor's standing capacity for one weekday.
// At most one rule exists per (doctor, day). Start and end times are
// informational only; booking is gated by TotalSlots alone.
type AvailabilityRule struct {
	ID         uuid.UUID
	DoctorID   uuid.UUID
	DayOfWeek  string
	StartTime  string
	EndTime    string
	TotalSlots int
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Appointment is one reserved or historical booking. The slot it holds is
// addressed by (DoctorID, Day, SlotIndex); SlotIndex is a 0-based capacity
// unit within that doctor's day, not a clock time.
type Appointment struct {
	ID        uuid.UUID
	PatientID uuid.UUID
	DoctorID  uuid.UUID
	Day       string
	SlotIndex int
	Reason    string
	Status    AppointmentStatus
	CreatedAt time.Time
	UpdatedAt time.Time
}

// AppointmentDetail is an appointment enriched with display names for
// response shaping. The names are a read-only join, not part of the entity.
type AppointmentDetail struct {
	Appointment
	DoctorName  string
	PatientName string
}

type DayStatus string

const (
	DayHoliday   DayStatus = "holiday"
	DayNotOpened DayStatus = "not_opened"
	DayFull      DayStatus = "full"
	DayAvailable DayStatus = "available"
)

// SlotStatusSummary is the per-day projection served to booking UIs.
// SlotsAvailable and TotalSlots are meaningful only for full/available days.
type SlotStatusSummary struct {
	Status         DayStatus `json:"status"`
	SlotsAvailable int       `json:"slotsAvailable"`
	TotalSlots     int       `json:"totalSlots,omitempty"`
}
