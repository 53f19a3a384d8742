package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// SlotStatusCache caches the per-doctor weekly projection. The write path
// invalidates it so summaries never lag a booking by more than one request.
type SlotStatusCache interface {
	Get(ctx context.Context, doctorID uuid.UUID) (map[string]SlotStatusSummary, bool)
	Set(ctx context.Context, doctorID uuid.UUID, status map[string]SlotStatusSummary)
	Invalidate(ctx context.Context, doctorID uuid.UUID)
}

// Service orchestrates bookings against the ledger. Validation is a
// fast-path pre-check; the ledger's active-slot uniqueness constraint is the
// real guarantee, and constraint violations on write are remapped to the
// same SLOT_TAKEN failure a validator miss would have produced.
type Service struct {
	rules     AvailabilityRepository
	ledger    AppointmentRepository
	validator *SlotValidator
	cache     SlotStatusCache
	log       zerolog.Logger
}

func NewService(rules AvailabilityRepository, ledger AppointmentRepository, validator *SlotValidator, cache SlotStatusCache, log zerolog.Logger) *Service {
	return &Service{
		rules:     rules,
		ledger:    ledger,
		validator: validator,
		cache:     cache,
		log:       log,
	}
}

// CreateAppointment books a slot for a patient. The returned detail carries
// the doctor's display name for response convenience.
func (s *Service) CreateAppointment(ctx context.Context, patientID, doctorID uuid.UUID, day string, slotIndex int, reason string) (*AppointmentDetail, error) {
	if _, err := s.validator.Validate(ctx, doctorID, day, slotIndex); err != nil {
		return nil, err
	}

	if _, err := s.ledger.GetPatient(ctx, patientID); err != nil {
		if errors.Is(err, ErrPatientNotFound) {
			return nil, newError(KindNotFound, "patient not found")
		}
		return nil, s.internal(ctx, fmt.Errorf("load patient: %w", err))
	}

	normalized := NormalizeDay(day)
	appt := Appointment{
		ID:        uuid.New(),
		PatientID: patientID,
		DoctorID:  doctorID,
		Day:       normalized,
		SlotIndex: slotIndex,
		Reason:    strings.TrimSpace(reason),
		Status:    StatusScheduled,
	}

	created, err := s.ledger.Insert(ctx, appt)
	if err != nil {
		if errors.Is(err, ErrSlotConflict) {
			// Lost the race between validation and insert. The constraint is
			// authoritative, so this is an ordinary conflict, not an anomaly.
			return nil, newError(KindSlotTaken, "slot %d on %s is already booked", slotIndex, normalized)
		}
		return nil, s.internal(ctx, fmt.Errorf("insert appointment: %w", err))
	}

	s.invalidate(ctx, doctorID)

	return s.withDoctorName(ctx, created), nil
}

// RescheduleAppointment moves an appointment to new coordinates. Moving to
// the current coordinates is an idempotent no-op. A successful move resets
// status to scheduled, demoting confirmed appointments back to pending
// confirmation.
func (s *Service) RescheduleAppointment(ctx context.Context, id uuid.UUID, newDay string, newSlotIndex int) (*AppointmentDetail, error) {
	appt, err := s.ledger.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrAppointmentNotFound) {
			return nil, newError(KindNotFound, "appointment not found")
		}
		return nil, s.internal(ctx, fmt.Errorf("load appointment: %w", err))
	}

	if appt.Status == StatusCancelled {
		return nil, newError(KindInvalidStatus, "cannot reschedule a cancelled appointment")
	}

	normalized := NormalizeDay(newDay)
	if appt.Day == normalized && appt.SlotIndex == newSlotIndex {
		// Same slot: the appointment already owns it, nothing to re-validate
		// and status is left untouched.
		return s.withDoctorName(ctx, appt), nil
	}

	if _, err := s.validator.Validate(ctx, appt.DoctorID, newDay, newSlotIndex); err != nil {
		return nil, err
	}

	updated, err := s.ledger.UpdateSlot(ctx, id, normalized, newSlotIndex)
	if err != nil {
		switch {
		case errors.Is(err, ErrSlotConflict):
			// Racing reschedules or a racing create claimed the target slot
			// first; the constraint decides, same as on insert.
			return nil, newError(KindSlotTaken, "slot %d on %s is already booked", newSlotIndex, normalized)
		case errors.Is(err, ErrAppointmentNotFound):
			return nil, newError(KindNotFound, "appointment not found")
		}
		return nil, s.internal(ctx, fmt.Errorf("reschedule appointment: %w", err))
	}

	s.invalidate(ctx, appt.DoctorID)

	return s.withDoctorName(ctx, updated), nil
}

// UpdateAppointmentStatus sets the appointment's status. No transition table
// is enforced beyond token validity; moving to cancelled or completed frees
// the slot for rebooking because only active statuses occupy capacity.
func (s *Service) UpdateAppointmentStatus(ctx context.Context, id uuid.UUID, status AppointmentStatus) (*AppointmentDetail, error) {
	if !IsValidStatus(status) {
		return nil, newError(KindInvalidStatus,
			"invalid status %q, must be one of: scheduled, confirmed, completed, cancelled", status)
	}

	updated, err := s.ledger.UpdateStatus(ctx, id, status)
	if err != nil {
		if errors.Is(err, ErrAppointmentNotFound) {
			return nil, newError(KindNotFound, "appointment not found")
		}
		return nil, s.internal(ctx, fmt.Errorf("update appointment status: %w", err))
	}

	s.invalidate(ctx, updated.DoctorID)

	detail := s.withDoctorName(ctx, updated)
	if patient, err := s.ledger.GetPatient(ctx, updated.PatientID); err == nil {
		detail.PatientName = patient.Name
	} else {
		detail.PatientName = "Unknown"
	}
	return detail, nil
}

// GetAppointment retrieves a single appointment with display names.
func (s *Service) GetAppointment(ctx context.Context, id uuid.UUID) (*AppointmentDetail, error) {
	appt, err := s.ledger.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrAppointmentNotFound) {
			return nil, newError(KindNotFound, "appointment not found")
		}
		return nil, s.internal(ctx, fmt.Errorf("load appointment: %w", err))
	}
	return s.withDoctorName(ctx, appt), nil
}

// ListPatientAppointments returns a patient's bookings, newest first, with
// doctor names attached.
func (s *Service) ListPatientAppointments(ctx context.Context, patientID uuid.UUID) ([]AppointmentDetail, error) {
	appts, err := s.ledger.ListByPatient(ctx, patientID)
	if err != nil {
		return nil, s.internal(ctx, fmt.Errorf("list patient appointments: %w", err))
	}

	details := make([]AppointmentDetail, 0, len(appts))
	for i := range appts {
		details = append(details, *s.withDoctorName(ctx, &appts[i]))
	}
	return details, nil
}

// ListDoctorAppointments returns a doctor's bookings ordered by day and slot,
// with patient names attached.
func (s *Service) ListDoctorAppointments(ctx context.Context, doctorID uuid.UUID) ([]AppointmentDetail, error) {
	appts, err := s.ledger.ListByDoctor(ctx, doctorID)
	if err != nil {
		return nil, s.internal(ctx, fmt.Errorf("list doctor appointments: %w", err))
	}

	details := make([]AppointmentDetail, 0, len(appts))
	for i := range appts {
		d := AppointmentDetail{Appointment: appts[i], PatientName: "Unknown"}
		if patient, err := s.ledger.GetPatient(ctx, appts[i].PatientID); err == nil {
			d.PatientName = patient.Name
		}
		details = append(details, d)
	}
	return details, nil
}

func (s *Service) withDoctorName(ctx context.Context, appt *Appointment) *AppointmentDetail {
	detail := &AppointmentDetail{Appointment: *appt, DoctorName: "Unknown"}
	if doctor, err := s.ledger.GetDoctor(ctx, appt.DoctorID); err == nil {
		detail.DoctorName = doctor.Name
	}
	return detail
}

func (s *Service) invalidate(ctx context.Context, doctorID uuid.UUID) {
	if s.cache != nil {
		s.cache.Invalidate(ctx, doctorID)
	}
}

func (s *Service) internal(ctx context.Context, err error) *Error {
	s.log.Error().Ctx(ctx).Err(err).Msg("booking internal error")
	return internalError(err)
}
