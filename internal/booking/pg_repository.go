package booking

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Index backing the active-slot mutual exclusion; see db.EnsureSchema.
const activeSlotConstraint = "appointments_active_slot_key"

// PgStore implements AvailabilityRepository and AppointmentRepository on
// Postgres. Double-booking safety comes from the partial unique index on
// (doctor_id, day, slot_index) scoped to active statuses: violations are
// surfaced as ErrSlotConflict for the orchestrator to remap.
type PgStore struct {
	pool *pgxpool.Pool
}

func NewPgStore(pool *pgxpool.Pool) *PgStore {
	return &PgStore{pool: pool}
}

// Helpers

func scanRule(row pgx.Row) (*AvailabilityRule, error) {
	var r AvailabilityRule

	err := row.Scan(
		&r.ID,
		&r.DoctorID,
		&r.DayOfWeek,
		&r.StartTime,
		&r.EndTime,
		&r.TotalSlots,
		&r.CreatedAt,
		&r.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrRuleNotFound
		}
		return nil, err
	}

	return &r, nil
}

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment

	err := row.Scan(
		&a.ID,
		&a.PatientID,
		&a.DoctorID,
		&a.Day,
		&a.SlotIndex,
		&a.Reason,
		&a.Status,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAppointmentNotFound
		}
		return nil, err
	}

	return &a, nil
}

func isSlotConflict(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) &&
		pgErr.Code == "23505" &&
		pgErr.ConstraintName == activeSlotConstraint
}

const appointmentColumns = `id, patient_id, doctor_id, day, slot_index, reason, status, created_at, updated_at`
const ruleColumns = `id, doctor_id, day_of_week, start_time, end_time, total_slots, created_at, updated_at`

// AvailabilityRepository

func (s *PgStore) GetRule(ctx context.Context, doctorID uuid.UUID, day string) (*AvailabilityRule, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+ruleColumns+`
		FROM availability_rules
		WHERE doctor_id = $1 AND day_of_week = $2
	`, doctorID, day)
	return scanRule(row)
}

func (s *PgStore) ListRules(ctx context.Context, doctorID uuid.UUID) ([]AvailabilityRule, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+ruleColumns+`
		FROM availability_rules
		WHERE doctor_id = $1
		ORDER BY array_position($2::text[], day_of_week)
	`, doctorID, BookableDays)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []AvailabilityRule
	for rows.Next() {
		r, err := scanRule(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *r)
	}
	return result, rows.Err()
}

func (s *PgStore) UpsertRule(ctx context.Context, rule AvailabilityRule) (*AvailabilityRule, error) {
	id := rule.ID
	if id == uuid.Nil {
		id = uuid.New()
	}

	row := s.pool.QueryRow(ctx, `
		INSERT INTO availability_rules (id, doctor_id, day_of_week, start_time, end_time, total_slots, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, now(), now())
		ON CONFLICT (doctor_id, day_of_week) DO UPDATE
		SET start_time = EXCLUDED.start_time,
		    end_time = EXCLUDED.end_time,
		    total_slots = EXCLUDED.total_slots,
		    updated_at = now()
		RETURNING `+ruleColumns+`
	`, id, rule.DoctorID, rule.DayOfWeek, rule.StartTime, rule.EndTime, rule.TotalSlots)

	return scanRule(row)
}

func (s *PgStore) ReplaceWeek(ctx context.Context, doctorID uuid.UUID, rules []AvailabilityRule) ([]AvailabilityRule, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM availability_rules WHERE doctor_id = $1`, doctorID); err != nil {
		return nil, fmt.Errorf("clear weekly schedule: %w", err)
	}

	saved := make([]AvailabilityRule, 0, len(rules))
	for _, rule := range rules {
		row := tx.QueryRow(ctx, `
			INSERT INTO availability_rules (id, doctor_id, day_of_week, start_time, end_time, total_slots, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, now(), now())
			RETURNING `+ruleColumns+`
		`, uuid.New(), doctorID, rule.DayOfWeek, rule.StartTime, rule.EndTime, rule.TotalSlots)

		r, err := scanRule(row)
		if err != nil {
			return nil, fmt.Errorf("insert rule for %s: %w", rule.DayOfWeek, err)
		}
		saved = append(saved, *r)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return saved, nil
}

func (s *PgStore) DeleteRule(ctx context.Context, doctorID, ruleID uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `
		DELETE FROM availability_rules
		WHERE id = $1 AND doctor_id = $2
	`, ruleID, doctorID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrRuleNotFound
	}
	return nil
}

// AppointmentRepository

func (s *PgStore) GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE id = $1
	`, id)
	return scanAppointment(row)
}

func (s *PgStore) FindActive(ctx context.Context, doctorID uuid.UUID, day string, slotIndex int) (*Appointment, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE doctor_id = $1 AND day = $2 AND slot_index = $3
		  AND status IN ('scheduled', 'confirmed')
	`, doctorID, day, slotIndex)
	return scanAppointment(row)
}

func (s *PgStore) CountActiveByDay(ctx context.Context, doctorID uuid.UUID) (map[string]int, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT day, count(*)
		FROM appointments
		WHERE doctor_id = $1
		  AND status IN ('scheduled', 'confirmed')
		GROUP BY day
	`, doctorID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var day string
		var n int
		if err := rows.Scan(&day, &n); err != nil {
			return nil, err
		}
		counts[day] = n
	}
	return counts, rows.Err()
}

func (s *PgStore) ListActiveSlotIndexes(ctx context.Context, doctorID uuid.UUID, day string) ([]int, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT slot_index
		FROM appointments
		WHERE doctor_id = $1 AND day = $2
		  AND status IN ('scheduled', 'confirmed')
		ORDER BY slot_index
	`, doctorID, day)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var indexes []int
	for rows.Next() {
		var idx int
		if err := rows.Scan(&idx); err != nil {
			return nil, err
		}
		indexes = append(indexes, idx)
	}
	return indexes, rows.Err()
}

func (s *PgStore) Insert(ctx context.Context, appt Appointment) (*Appointment, error) {
	row := s.pool.QueryRow(ctx, `
		INSERT INTO appointments (id, patient_id, doctor_id, day, slot_index, reason, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, now(), now())
		RETURNING `+appointmentColumns+`
	`, appt.ID, appt.PatientID, appt.DoctorID, appt.Day, appt.SlotIndex, appt.Reason, appt.Status)

	created, err := scanAppointment(row)
	if err != nil {
		if isSlotConflict(err) {
			return nil, ErrSlotConflict
		}
		return nil, err
	}
	return created, nil
}

func (s *PgStore) UpdateSlot(ctx context.Context, id uuid.UUID, day string, slotIndex int) (*Appointment, error) {
	row := s.pool.QueryRow(ctx, `
		UPDATE appointments
		SET day = $2,
		    slot_index = $3,
		    status = 'scheduled',
		    updated_at = now()
		WHERE id = $1
		RETURNING `+appointmentColumns+`
	`, id, day, slotIndex)

	updated, err := scanAppointment(row)
	if err != nil {
		if isSlotConflict(err) {
			return nil, ErrSlotConflict
		}
		return nil, err
	}
	return updated, nil
}

func (s *PgStore) UpdateStatus(ctx context.Context, id uuid.UUID, status AppointmentStatus) (*Appointment, error) {
	row := s.pool.QueryRow(ctx, `
		UPDATE appointments
		SET status = $2,
		    updated_at = now()
		WHERE id = $1
		RETURNING `+appointmentColumns+`
	`, id, status)
	return scanAppointment(row)
}

func (s *PgStore) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]Appointment, error) {
	return s.listAppointments(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE patient_id = $1
		ORDER BY created_at DESC
	`, patientID)
}

func (s *PgStore) ListByDoctor(ctx context.Context, doctorID uuid.UUID) ([]Appointment, error) {
	return s.listAppointments(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE doctor_id = $1
		ORDER BY array_position($2::text[], day), slot_index
	`, doctorID, BookableDays)
}

func (s *PgStore) listAppointments(ctx context.Context, query string, args ...any) ([]Appointment, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *a)
	}
	return result, rows.Err()
}

func (s *PgStore) GetDoctor(ctx context.Context, id uuid.UUID) (*Doctor, error) {
	var d Doctor
	err := s.pool.QueryRow(ctx, `
		SELECT id, name, specialty, created_at, updated_at
		FROM doctors
		WHERE id = $1
	`, id).Scan(&d.ID, &d.Name, &d.Specialty, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrDoctorNotFound
		}
		return nil, err
	}
	return &d, nil
}

func (s *PgStore) GetPatient(ctx context.Context, id uuid.UUID) (*Patient, error) {
	var p Patient
	err := s.pool.QueryRow(ctx, `
		SELECT id, name, email, created_at, updated_at
		FROM patients
		WHERE id = $1
	`, id).Scan(&p.ID, &p.Name, &p.Email, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPatientNotFound
		}
		return nil, err
	}
	return &p, nil
}
