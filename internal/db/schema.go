package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// The partial unique index appointments_active_slot_key is the booking
// engine's mutual-exclusion mechanism: at most one scheduled or confirmed
// appointment may hold a (doctor, day, slot) triple at a time. Completed and
// cancelled rows fall outside its scope, which is what frees a slot on
// cancellation. Capacity (slot_index < total_slots) is deliberately not a
// schema constraint since it spans two tables; the validator enforces it at
// write time.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS doctors (
		id uuid PRIMARY KEY,
		name text NOT NULL,
		specialty text,
		created_at timestamptz NOT NULL DEFAULT now(),
		updated_at timestamptz NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS patients (
		id uuid PRIMARY KEY,
		name text NOT NULL,
		email text,
		created_at timestamptz NOT NULL DEFAULT now(),
		updated_at timestamptz NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS availability_rules (
		id uuid PRIMARY KEY,
		doctor_id uuid NOT NULL REFERENCES doctors (id),
		day_of_week text NOT NULL CHECK (day_of_week IN
			('monday', 'tuesday', 'wednesday', 'thursday', 'friday', 'saturday')),
		start_time text NOT NULL DEFAULT '',
		end_time text NOT NULL DEFAULT '',
		total_slots int NOT NULL DEFAULT 10 CHECK (total_slots > 0),
		created_at timestamptz NOT NULL DEFAULT now(),
		updated_at timestamptz NOT NULL DEFAULT now(),
		CONSTRAINT availability_rules_doctor_day_key UNIQUE (doctor_id, day_of_week)
	)`,
	`CREATE TABLE IF NOT EXISTS appointments (
		id uuid PRIMARY KEY,
		patient_id uuid NOT NULL REFERENCES patients (id),
		doctor_id uuid NOT NULL REFERENCES doctors (id),
		day text NOT NULL CHECK (day IN
			('monday', 'tuesday', 'wednesday', 'thursday', 'friday', 'saturday')),
		slot_index int NOT NULL CHECK (slot_index >= 0),
		reason text NOT NULL DEFAULT '',
		status text NOT NULL DEFAULT 'scheduled' CHECK (status IN
			('scheduled', 'confirmed', 'completed', 'cancelled')),
		created_at timestamptz NOT NULL DEFAULT now(),
		updated_at timestamptz NOT NULL DEFAULT now()
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS appointments_active_slot_key
		ON appointments (doctor_id, day, slot_index)
		WHERE status IN ('scheduled', 'confirmed')`,
	`CREATE INDEX IF NOT EXISTS appointments_patient_idx ON appointments (patient_id)`,
	`CREATE INDEX IF NOT EXISTS appointments_doctor_idx ON appointments (doctor_id)`,
}

// EnsureSchema applies the schema idempotently. Statements are plain
// IF NOT EXISTS DDL, so running it on every startup is safe.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	for _, stmt := range schema {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema statement: %w", err)
		}
	}
	return nil
}
