package booking

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	ErrDoctorNotFound      = errors.New("doctor not found")
	ErrPatientNotFound     = errors.New("patient not found")
	ErrRuleNotFound        = errors.New("availability rule not found")
	ErrAppointmentNotFound = errors.New("appointment not found")

	// ErrSlotConflict is raised by AppointmentRepository implementations when
	// an insert or slot update violates the active-slot uniqueness constraint
	// (one scheduled/confirmed appointment per doctor, day, slot index).
	// It is the authoritative double-booking signal; the validator's
	// occupancy check is only a fast-path pre-check.
	ErrSlotConflict = errors.New("slot already held by an active appointment")
)

// AvailabilityRepository is the narrow store surface for a doctor's weekly
// capacity rules.
type AvailabilityRepository interface {
	GetRule(ctx context.Context, doctorID uuid.UUID, day string) (*AvailabilityRule, error)
	ListRules(ctx context.Context, doctorID uuid.UUID) ([]AvailabilityRule, error)
	UpsertRule(ctx context.Context, rule AvailabilityRule) (*AvailabilityRule, error)
	// ReplaceWeek atomically swaps all of a doctor's rules for the given set.
	ReplaceWeek(ctx context.Context, doctorID uuid.UUID, rules []AvailabilityRule) ([]AvailabilityRule, error)
	DeleteRule(ctx context.Context, doctorID, ruleID uuid.UUID) error
}

// AppointmentRepository is the ledger surface the validator, orchestrator and
// projector need. Implementations must back Insert and UpdateSlot with a
// uniqueness guarantee scoped to active statuses and surface violations as
// ErrSlotConflict.
type AppointmentRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error)
	// FindActive returns the scheduled/confirmed appointment holding the slot,
	// or ErrAppointmentNotFound if the slot is free.
	FindActive(ctx context.Context, doctorID uuid.UUID, day string, slotIndex int) (*Appointment, error)
	CountActiveByDay(ctx context.Context, doctorID uuid.UUID) (map[string]int, error)
	ListActiveSlotIndexes(ctx context.Context, doctorID uuid.UUID, day string) ([]int, error)

	Insert(ctx context.Context, appt Appointment) (*Appointment, error)
	// UpdateSlot rewrites day and slot index and resets status to scheduled.
	UpdateSlot(ctx context.Context, id uuid.UUID, day string, slotIndex int) (*Appointment, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status AppointmentStatus) (*Appointment, error)

	ListByPatient(ctx context.Context, patientID uuid.UUID) ([]Appointment, error)
	ListByDoctor(ctx context.Context, doctorID uuid.UUID) ([]Appointment, error)

	GetDoctor(ctx context.Context, id uuid.UUID) (*Doctor, error)
	GetPatient(ctx context.Context, id uuid.UUID) (*Patient, error)
}
