package booking

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// RuleService manages a doctor's weekly availability rules. Rules are
// read-mostly: the booking path never writes them, and every mutation here
// invalidates the doctor's cached slot-status projection.
type RuleService struct {
	rules AvailabilityRepository
	cache SlotStatusCache
	log   zerolog.Logger
}

func NewRuleService(rules AvailabilityRepository, cache SlotStatusCache, log zerolog.Logger) *RuleService {
	return &RuleService{rules: rules, cache: cache, log: log}
}

// ListRules returns all of a doctor's availability rules.
func (s *RuleService) ListRules(ctx context.Context, doctorID uuid.UUID) ([]AvailabilityRule, error) {
	rules, err := s.rules.ListRules(ctx, doctorID)
	if err != nil {
		return nil, s.internal(ctx, fmt.Errorf("list availability rules: %w", err))
	}
	return rules, nil
}

// UpsertRule creates or updates the doctor's rule for one weekday.
func (s *RuleService) UpsertRule(ctx context.Context, rule AvailabilityRule) (*AvailabilityRule, error) {
	if err := s.checkRule(&rule); err != nil {
		return nil, err
	}

	saved, err := s.rules.UpsertRule(ctx, rule)
	if err != nil {
		return nil, s.internal(ctx, fmt.Errorf("upsert availability rule: %w", err))
	}

	s.invalidate(ctx, rule.DoctorID)
	return saved, nil
}

// ReplaceWeek swaps a doctor's entire weekly schedule for the given rules.
// Each rule must target a distinct bookable day.
func (s *RuleService) ReplaceWeek(ctx context.Context, doctorID uuid.UUID, rules []AvailabilityRule) ([]AvailabilityRule, error) {
	seen := make(map[string]bool, len(rules))
	for i := range rules {
		rules[i].DoctorID = doctorID
		if err := s.checkRule(&rules[i]); err != nil {
			return nil, err
		}
		if seen[rules[i].DayOfWeek] {
			return nil, newError(KindInvalidDay, "duplicate rule for %s", rules[i].DayOfWeek)
		}
		seen[rules[i].DayOfWeek] = true
	}

	saved, err := s.rules.ReplaceWeek(ctx, doctorID, rules)
	if err != nil {
		return nil, s.internal(ctx, fmt.Errorf("replace weekly schedule: %w", err))
	}

	s.invalidate(ctx, doctorID)
	return saved, nil
}

// DeleteRule removes one of the doctor's rules.
func (s *RuleService) DeleteRule(ctx context.Context, doctorID, ruleID uuid.UUID) error {
	if err := s.rules.DeleteRule(ctx, doctorID, ruleID); err != nil {
		if errors.Is(err, ErrRuleNotFound) {
			return newError(KindNotFound, "availability rule not found")
		}
		return s.internal(ctx, fmt.Errorf("delete availability rule: %w", err))
	}

	s.invalidate(ctx, doctorID)
	return nil
}

// checkRule normalizes and validates a rule in place. Sunday rules are
// rejected at the store boundary: the entity cannot exist for the holiday.
func (s *RuleService) checkRule(rule *AvailabilityRule) error {
	rule.DayOfWeek = NormalizeDay(rule.DayOfWeek)

	if IsSunday(rule.DayOfWeek) {
		return newError(KindSundayHoliday, "doctors cannot set availability for sundays (clinic holiday)")
	}
	if !IsBookableDay(rule.DayOfWeek) {
		return newError(KindInvalidDay, "invalid day %q, must be monday through saturday", rule.DayOfWeek)
	}

	if rule.TotalSlots == 0 {
		rule.TotalSlots = DefaultTotalSlots
	}
	if rule.TotalSlots < 0 {
		return newError(KindInvalidSlot, "total slots must be a positive integer")
	}
	return nil
}

func (s *RuleService) invalidate(ctx context.Context, doctorID uuid.UUID) {
	if s.cache != nil {
		s.cache.Invalidate(ctx, doctorID)
	}
}

func (s *RuleService) internal(ctx context.Context, err error) *Error {
	s.log.Error().Ctx(ctx).Err(err).Msg("availability internal error")
	return internalError(err)
}
