package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// SlotValidator decides whether a (doctor, day, slotIndex) triple is bookable.
// It reads the rule store and the ledger but never mutates either. A passing
// validation is not a reservation: the ledger's uniqueness constraint remains
// the final arbiter under concurrency.
type SlotValidator struct {
	rules  AvailabilityRepository
	ledger AppointmentRepository
	log    zerolog.Logger
}

func NewSlotValidator(rules AvailabilityRepository, ledger AppointmentRepository, log zerolog.Logger) *SlotValidator {
	return &SlotValidator{rules: rules, ledger: ledger, log: log}
}

// Validate runs the booking checks in fixed order, short-circuiting on the
// first failure: day syntax, Sunday policy, allowed-day set, slot index
// syntax, rule existence, capacity bound, occupancy. Cheap syntactic checks
// run before anything that touches a store. On success it returns the matched
// availability rule.
func (v *SlotValidator) Validate(ctx context.Context, doctorID uuid.UUID, day string, slotIndex int) (*AvailabilityRule, error) {
	normalized := NormalizeDay(day)
	if normalized == "" {
		return nil, newError(KindInvalidDay, "day is required")
	}

	// Sunday is a business policy, not a data error, so it is reported
	// distinctly and checked before the generic allowed-day test.
	if IsSunday(normalized) {
		return nil, newError(KindSundayHoliday, "appointments cannot be booked on sundays (clinic holiday)")
	}

	if !IsBookableDay(normalized) {
		return nil, newError(KindInvalidDay, "invalid day %q, must be one of %s", day, strings.Join(BookableDays, ", "))
	}

	if slotIndex < 0 {
		return nil, newError(KindInvalidSlot, "slot index must be a non-negative integer")
	}

	rule, err := v.rules.GetRule(ctx, doctorID, normalized)
	if err != nil {
		if errors.Is(err, ErrRuleNotFound) {
			return nil, newError(KindNoAvailability, "doctor has no availability set for %ss", normalized)
		}
		return nil, v.internal(ctx, fmt.Errorf("load availability rule: %w", err))
	}

	if slotIndex >= rule.TotalSlots {
		return nil, newError(KindInvalidSlot,
			"slot %d is invalid, doctor has %d slots on %ss (0-%d)",
			slotIndex, rule.TotalSlots, normalized, rule.TotalSlots-1)
	}

	_, err = v.ledger.FindActive(ctx, doctorID, normalized, slotIndex)
	switch {
	case err == nil:
		return nil, newError(KindSlotTaken, "slot %d on %s is already booked", slotIndex, normalized)
	case errors.Is(err, ErrAppointmentNotFound):
		// Slot is free.
	default:
		return nil, v.internal(ctx, fmt.Errorf("check slot occupancy: %w", err))
	}

	return rule, nil
}

// internal logs an unexpected store fault with detail and returns the generic
// VALIDATION_ERROR failure shown to callers.
func (v *SlotValidator) internal(ctx context.Context, err error) *Error {
	v.log.Error().Ctx(ctx).Err(err).Msg("slot validation internal error")
	return internalError(err)
}
