package booking

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// fakeStore is an in-memory implementation of both repositories. Its Insert
// and UpdateSlot enforce the active-slot uniqueness atomically under a
// mutex, mirroring the partial unique index, so the race between validation
// and commit behaves the same way it does against Postgres.
type fakeStore struct {
	mu       sync.Mutex
	rules    map[ruleKey]AvailabilityRule
	appts    map[uuid.UUID]Appointment
	doctors  map[uuid.UUID]Doctor
	patients map[uuid.UUID]Patient

	// failNext, when set, is returned by the next read operation to simulate
	// an unreachable store.
	failNext error
}

type ruleKey struct {
	doctorID uuid.UUID
	day      string
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		rules:    make(map[ruleKey]AvailabilityRule),
		appts:    make(map[uuid.UUID]Appointment),
		doctors:  make(map[uuid.UUID]Doctor),
		patients: make(map[uuid.UUID]Patient),
	}
}

func (f *fakeStore) addDoctor(name string) uuid.UUID {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := uuid.New()
	f.doctors[id] = Doctor{ID: id, Name: name}
	return id
}

func (f *fakeStore) addPatient(name string) uuid.UUID {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := uuid.New()
	f.patients[id] = Patient{ID: id, Name: name}
	return id
}

func (f *fakeStore) addRule(doctorID uuid.UUID, day string, totalSlots int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rules[ruleKey{doctorID, day}] = AvailabilityRule{
		ID:         uuid.New(),
		DoctorID:   doctorID,
		DayOfWeek:  day,
		TotalSlots: totalSlots,
	}
}

func (f *fakeStore) takeFailure() error {
	err := f.failNext
	f.failNext = nil
	return err
}

// AvailabilityRepository

func (f *fakeStore) GetRule(ctx context.Context, doctorID uuid.UUID, day string) (*AvailabilityRule, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.takeFailure(); err != nil {
		return nil, err
	}
	rule, ok := f.rules[ruleKey{doctorID, day}]
	if !ok {
		return nil, ErrRuleNotFound
	}
	return &rule, nil
}

func (f *fakeStore) ListRules(ctx context.Context, doctorID uuid.UUID) ([]AvailabilityRule, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.takeFailure(); err != nil {
		return nil, err
	}
	var result []AvailabilityRule
	for _, day := range BookableDays {
		if rule, ok := f.rules[ruleKey{doctorID, day}]; ok {
			result = append(result, rule)
		}
	}
	return result, nil
}

func (f *fakeStore) UpsertRule(ctx context.Context, rule AvailabilityRule) (*AvailabilityRule, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := ruleKey{rule.DoctorID, rule.DayOfWeek}
	if existing, ok := f.rules[key]; ok {
		rule.ID = existing.ID
	} else if rule.ID == uuid.Nil {
		rule.ID = uuid.New()
	}
	f.rules[key] = rule
	return &rule, nil
}

func (f *fakeStore) ReplaceWeek(ctx context.Context, doctorID uuid.UUID, rules []AvailabilityRule) ([]AvailabilityRule, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, day := range BookableDays {
		delete(f.rules, ruleKey{doctorID, day})
	}
	saved := make([]AvailabilityRule, 0, len(rules))
	for _, rule := range rules {
		rule.ID = uuid.New()
		rule.DoctorID = doctorID
		f.rules[ruleKey{doctorID, rule.DayOfWeek}] = rule
		saved = append(saved, rule)
	}
	return saved, nil
}

func (f *fakeStore) DeleteRule(ctx context.Context, doctorID, ruleID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for key, rule := range f.rules {
		if rule.ID == ruleID && rule.DoctorID == doctorID {
			delete(f.rules, key)
			return nil
		}
	}
	return ErrRuleNotFound
}

// AppointmentRepository

func (f *fakeStore) GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.takeFailure(); err != nil {
		return nil, err
	}
	appt, ok := f.appts[id]
	if !ok {
		return nil, ErrAppointmentNotFound
	}
	return &appt, nil
}

func (f *fakeStore) FindActive(ctx context.Context, doctorID uuid.UUID, day string, slotIndex int) (*Appointment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.takeFailure(); err != nil {
		return nil, err
	}
	if appt := f.findActiveLocked(doctorID, day, slotIndex, uuid.Nil); appt != nil {
		return appt, nil
	}
	return nil, ErrAppointmentNotFound
}

func (f *fakeStore) findActiveLocked(doctorID uuid.UUID, day string, slotIndex int, exclude uuid.UUID) *Appointment {
	for _, appt := range f.appts {
		if appt.ID != exclude &&
			appt.DoctorID == doctorID &&
			appt.Day == day &&
			appt.SlotIndex == slotIndex &&
			appt.Status.IsActive() {
			a := appt
			return &a
		}
	}
	return nil
}

func (f *fakeStore) CountActiveByDay(ctx context.Context, doctorID uuid.UUID) (map[string]int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.takeFailure(); err != nil {
		return nil, err
	}
	counts := make(map[string]int)
	for _, appt := range f.appts {
		if appt.DoctorID == doctorID && appt.Status.IsActive() {
			counts[appt.Day]++
		}
	}
	return counts, nil
}

func (f *fakeStore) ListActiveSlotIndexes(ctx context.Context, doctorID uuid.UUID, day string) ([]int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.takeFailure(); err != nil {
		return nil, err
	}
	var indexes []int
	for _, appt := range f.appts {
		if appt.DoctorID == doctorID && appt.Day == day && appt.Status.IsActive() {
			indexes = append(indexes, appt.SlotIndex)
		}
	}
	return indexes, nil
}

func (f *fakeStore) Insert(ctx context.Context, appt Appointment) (*Appointment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if appt.Status.IsActive() {
		if f.findActiveLocked(appt.DoctorID, appt.Day, appt.SlotIndex, uuid.Nil) != nil {
			return nil, ErrSlotConflict
		}
	}
	now := time.Now()
	appt.CreatedAt = now
	appt.UpdatedAt = now
	f.appts[appt.ID] = appt
	return &appt, nil
}

func (f *fakeStore) UpdateSlot(ctx context.Context, id uuid.UUID, day string, slotIndex int) (*Appointment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	appt, ok := f.appts[id]
	if !ok {
		return nil, ErrAppointmentNotFound
	}
	if f.findActiveLocked(appt.DoctorID, day, slotIndex, id) != nil {
		return nil, ErrSlotConflict
	}
	appt.Day = day
	appt.SlotIndex = slotIndex
	appt.Status = StatusScheduled
	appt.UpdatedAt = time.Now()
	f.appts[id] = appt
	return &appt, nil
}

func (f *fakeStore) UpdateStatus(ctx context.Context, id uuid.UUID, status AppointmentStatus) (*Appointment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	appt, ok := f.appts[id]
	if !ok {
		return nil, ErrAppointmentNotFound
	}
	appt.Status = status
	appt.UpdatedAt = time.Now()
	f.appts[id] = appt
	return &appt, nil
}

func (f *fakeStore) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]Appointment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var result []Appointment
	for _, appt := range f.appts {
		if appt.PatientID == patientID {
			result = append(result, appt)
		}
	}
	return result, nil
}

func (f *fakeStore) ListByDoctor(ctx context.Context, doctorID uuid.UUID) ([]Appointment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var result []Appointment
	for _, appt := range f.appts {
		if appt.DoctorID == doctorID {
			result = append(result, appt)
		}
	}
	return result, nil
}

func (f *fakeStore) GetDoctor(ctx context.Context, id uuid.UUID) (*Doctor, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	doctor, ok := f.doctors[id]
	if !ok {
		return nil, ErrDoctorNotFound
	}
	return &doctor, nil
}

func (f *fakeStore) GetPatient(ctx context.Context, id uuid.UUID) (*Patient, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	patient, ok := f.patients[id]
	if !ok {
		return nil, ErrPatientNotFound
	}
	return &patient, nil
}

// fakeCache counts invalidations so tests can assert the write path clears
// cached projections.
type fakeCache struct {
	mu            sync.Mutex
	entries       map[uuid.UUID]map[string]SlotStatusSummary
	invalidations int
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: make(map[uuid.UUID]map[string]SlotStatusSummary)}
}

func (c *fakeCache) Get(ctx context.Context, doctorID uuid.UUID) (map[string]SlotStatusSummary, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	status, ok := c.entries[doctorID]
	return status, ok
}

func (c *fakeCache) Set(ctx context.Context, doctorID uuid.UUID, status map[string]SlotStatusSummary) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[doctorID] = status
}

func (c *fakeCache) Invalidate(ctx context.Context, doctorID uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, doctorID)
	c.invalidations++
}

func testLogger() zerolog.Logger {
	return zerolog.Nop()
}

func newTestService(store *fakeStore, cache SlotStatusCache) *Service {
	log := testLogger()
	validator := NewSlotValidator(store, store, log)
	return NewService(store, store, validator, cache, log)
}
