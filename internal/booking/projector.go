package booking

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Projector produces read-only availability views over the rule store and
// the ledger. Projections are best-effort snapshots: they are not isolated
// from concurrent writes, which is acceptable because the write path
// re-validates every booking.
type Projector struct {
	rules  AvailabilityRepository
	ledger AppointmentRepository
	cache  SlotStatusCache
	log    zerolog.Logger
}

func NewProjector(rules AvailabilityRepository, ledger AppointmentRepository, cache SlotStatusCache, log zerolog.Logger) *Projector {
	return &Projector{rules: rules, ledger: ledger, cache: cache, log: log}
}

// DoctorSlotStatus maps each of the seven weekday names to a summary:
// sunday is unconditionally the holiday, days without a rule are not_opened,
// and the rest report full or available with remaining capacity.
func (p *Projector) DoctorSlotStatus(ctx context.Context, doctorID uuid.UUID) (map[string]SlotStatusSummary, error) {
	if p.cache != nil {
		if cached, ok := p.cache.Get(ctx, doctorID); ok {
			return cached, nil
		}
	}

	rules, err := p.rules.ListRules(ctx, doctorID)
	if err != nil {
		return nil, p.internal(ctx, fmt.Errorf("list availability rules: %w", err))
	}

	booked, err := p.ledger.CountActiveByDay(ctx, doctorID)
	if err != nil {
		return nil, p.internal(ctx, fmt.Errorf("count active appointments: %w", err))
	}

	status := make(map[string]SlotStatusSummary, len(AllDays))
	status[holidayDay] = SlotStatusSummary{Status: DayHoliday}

	for _, rule := range rules {
		available := rule.TotalSlots - booked[rule.DayOfWeek]
		if available <= 0 {
			status[rule.DayOfWeek] = SlotStatusSummary{
				Status:         DayFull,
				SlotsAvailable: 0,
				TotalSlots:     rule.TotalSlots,
			}
			continue
		}
		status[rule.DayOfWeek] = SlotStatusSummary{
			Status:         DayAvailable,
			SlotsAvailable: available,
			TotalSlots:     rule.TotalSlots,
		}
	}

	for _, day := range BookableDays {
		if _, ok := status[day]; !ok {
			status[day] = SlotStatusSummary{Status: DayNotOpened}
		}
	}

	if p.cache != nil {
		p.cache.Set(ctx, doctorID, status)
	}
	return status, nil
}

// AvailableSlots returns the free slot indices for one day in ascending
// order. A day without a rule has no slots.
func (p *Projector) AvailableSlots(ctx context.Context, doctorID uuid.UUID, day string) ([]int, error) {
	normalized := NormalizeDay(day)

	rule, err := p.rules.GetRule(ctx, doctorID, normalized)
	if err != nil {
		if errors.Is(err, ErrRuleNotFound) {
			return []int{}, nil
		}
		return nil, p.internal(ctx, fmt.Errorf("load availability rule: %w", err))
	}

	taken, err := p.ledger.ListActiveSlotIndexes(ctx, doctorID, normalized)
	if err != nil {
		return nil, p.internal(ctx, fmt.Errorf("list occupied slots: %w", err))
	}

	occupied := make(map[int]bool, len(taken))
	for _, idx := range taken {
		occupied[idx] = true
	}

	available := make([]int, 0, rule.TotalSlots)
	for i := 0; i < rule.TotalSlots; i++ {
		if !occupied[i] {
			available = append(available, i)
		}
	}
	sort.Ints(available)

	return available, nil
}

func (p *Projector) internal(ctx context.Context, err error) *Error {
	p.log.Error().Ctx(ctx).Err(err).Msg("slot projection internal error")
	return internalError(err)
}
