package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/nutrivida/clinic-scheduling/internal/schedule"
)

// BookingService is what the handlers need from the schedule service.
type BookingService interface {
	GetAvailableSlots(ctx context.Context, sess schedule.Session, date time.Time, d schedule.Duration, nutritionistID uuid.UUID) ([]schedule.TimeSlot, error)
	BookAppointment(ctx context.Context, sess schedule.Session, req schedule.BookingRequest) (*schedule.Appointment, error)
	CancelAppointment(ctx context.Context, sess schedule.Session, id uuid.UUID) (*schedule.Appointment, error)
	CompleteAppointment(ctx context.Context, sess schedule.Session, id uuid.UUID) (*schedule.Appointment, error)
	GetAppointment(ctx context.Context, sess schedule.Session, id uuid.UUID) (*schedule.Appointment, error)
	ListPatientAppointments(ctx context.Context, sess schedule.Session, limit, offset int) ([]schedule.Appointment, error)
	DaySchedule(ctx context.Context, sess schedule.Session, nutritionistID uuid.UUID, date time.Time) ([]schedule.Appointment, error)
	ListNutritionists(ctx context.Context, sess schedule.Session) ([]schedule.Nutritionist, error)
}

type RouterConfig struct {
	Service BookingService
	PgPool  *pgxpool.Pool
	Redis   *redis.Client
	Logger  zerolog.Logger
	Env     string
	Version string
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware)
	r.Use(RequestLogger(cfg.Logger))

	health := NewHealthHandler(cfg.PgPool, cfg.Redis, cfg.Env, cfg.Version)
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)

	r.Group(func(r chi.Router) {
		r.Use(SessionMiddleware)

		r.Get("/nutritionists", listNutritionistsHandler(cfg.Service))
		r.Get("/nutritionists/{id}/schedule", dayScheduleHandler(cfg.Service))

		r.Get("/slots", listSlotsHandler(cfg.Service))

		r.Post("/appointments", bookAppointmentHandler(cfg.Service))
		r.Get("/appointments", listAppointmentsHandler(cfg.Service))
		r.Get("/appointments/{id}", getAppointmentHandler(cfg.Service))
		r.Post("/appointments/{id}/cancel", cancelAppointmentHandler(cfg.Service))
		r.Post("/appointments/{id}/complete", completeAppointmentHandler(cfg.Service))
	})

	return r
}
