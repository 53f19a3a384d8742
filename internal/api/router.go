package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/clinicdesk/clinic-booking/internal/booking"
)

// BookingService is the orchestrator surface the appointment handlers need.
type BookingService interface {
	CreateAppointment(ctx context.Context, patientID, doctorID uuid.UUID, day string, slotIndex int, reason string) (*booking.AppointmentDetail, error)
	RescheduleAppointment(ctx context.Context, id uuid.UUID, newDay string, newSlotIndex int) (*booking.AppointmentDetail, error)
	UpdateAppointmentStatus(ctx context.Context, id uuid.UUID, status booking.AppointmentStatus) (*booking.AppointmentDetail, error)
	GetAppointment(ctx context.Context, id uuid.UUID) (*booking.AppointmentDetail, error)
	ListPatientAppointments(ctx context.Context, patientID uuid.UUID) ([]booking.AppointmentDetail, error)
	ListDoctorAppointments(ctx context.Context, doctorID uuid.UUID) ([]booking.AppointmentDetail, error)
}

// AvailabilityService manages doctors' weekly schedules.
type AvailabilityService interface {
	ListRules(ctx context.Context, doctorID uuid.UUID) ([]booking.AvailabilityRule, error)
	UpsertRule(ctx context.Context, rule booking.AvailabilityRule) (*booking.AvailabilityRule, error)
	ReplaceWeek(ctx context.Context, doctorID uuid.UUID, rules []booking.AvailabilityRule) ([]booking.AvailabilityRule, error)
	DeleteRule(ctx context.Context, doctorID, ruleID uuid.UUID) error
}

// SlotProjector serves the read-only availability views.
type SlotProjector interface {
	DoctorSlotStatus(ctx context.Context, doctorID uuid.UUID) (map[string]booking.SlotStatusSummary, error)
	AvailableSlots(ctx context.Context, doctorID uuid.UUID, day string) ([]int, error)
}

type RouterConfig struct {
	Booking   BookingService
	Rules     AvailabilityService
	Projector SlotProjector
	PgPool    *pgxpool.Pool
	Redis     *redis.Client
	Env       string
	Version   string
	Log       zerolog.Logger
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(cfg.Log))

	health := NewHealthHandler(cfg.PgPool, cfg.Redis, cfg.Env, cfg.Version)
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)

	r.Route("/appointments", func(r chi.Router) {
		r.Post("/", createAppointmentHandler(cfg.Booking))
		r.Get("/{id}", getAppointmentHandler(cfg.Booking))
		r.Post("/{id}/reschedule", rescheduleAppointmentHandler(cfg.Booking))
		r.Patch("/{id}/status", updateStatusHandler(cfg.Booking))
		r.Patch("/{id}/confirm", setStatusHandler(cfg.Booking, booking.StatusConfirmed))
		r.Patch("/{id}/complete", setStatusHandler(cfg.Booking, booking.StatusCompleted))
		r.Patch("/{id}/cancel", setStatusHandler(cfg.Booking, booking.StatusCancelled))
	})

	r.Get("/patients/{id}/appointments", listPatientAppointmentsHandler(cfg.Booking))

	r.Route("/doctors/{id}", func(r chi.Router) {
		r.Get("/appointments", listDoctorAppointmentsHandler(cfg.Booking))
		r.Get("/slot-status", slotStatusHandler(cfg.Projector))
		r.Get("/slots", availableSlotsHandler(cfg.Projector))

		r.Get("/availability", listAvailabilityHandler(cfg.Rules))
		r.Put("/availability", replaceAvailabilityHandler(cfg.Rules))
		r.Post("/availability", upsertAvailabilityHandler(cfg.Rules))
		r.Delete("/availability/{ruleID}", deleteAvailabilityHandler(cfg.Rules))
	})

	return r
}
