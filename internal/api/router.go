package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/clinicdesk/clinic-scheduling/internal/schedule"
)

// SchedulingService is the surface the handlers need from the scheduling
// core; *schedule.Service satisfies it, and tests substitute a stub.
type SchedulingService interface {
	Resolve(ctx context.Context, doctorID uuid.UUID, date time.Time) ([]schedule.TimeOfDay, error)
	ResolveMany(ctx context.Context, doctorIDs []uuid.UUID, date time.Time) ([]schedule.DoctorSlots, error)
	ResolveAll(ctx context.Context, date time.Time) ([]schedule.DoctorSlots, error)
	ResolveRange(ctx context.Context, doctorID uuid.UUID, start, end time.Time) (*schedule.RangeAvailability, error)

	SetAvailability(ctx context.Context, principal schedule.Principal, entries []schedule.TemplateEntry) ([]schedule.AvailabilityDay, error)

	Book(ctx context.Context, principal schedule.Principal, req schedule.BookingRequest) (*schedule.AppointmentDetail, error)
	Reschedule(ctx context.Context, principal schedule.Principal, id uuid.UUID, newDate time.Time, newTime string) (*schedule.AppointmentDetail, error)
	UpdateStatus(ctx context.Context, principal schedule.Principal, id uuid.UUID, to schedule.AppointmentStatus) (*schedule.Appointment, error)
	Cancel(ctx context.Context, principal schedule.Principal, id uuid.UUID) (*schedule.Appointment, error)

	GetAppointment(ctx context.Context, id uuid.UUID) (*schedule.AppointmentDetail, error)
	ListAppointments(ctx context.Context, filter schedule.AppointmentFilter) ([]schedule.AppointmentDetail, error)

	ListDoctors(ctx context.Context) ([]schedule.Doctor, error)
	GetDoctor(ctx context.Context, id uuid.UUID) (*schedule.Doctor, []schedule.AvailabilityDay, error)

	Match(ctx context.Context, req schedule.MatchRequest) (*schedule.MatchResult, error)

	ListNotifications(ctx context.Context, principal schedule.Principal) ([]schedule.Notification, error)
}

type RouterConfig struct {
	Service SchedulingService
	PgPool  *pgxpool.Pool
	Redis   *redis.Client
	Logger  *zap.Logger
	Env     string
	Version string
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(cfg.Logger))

	// Health endpoints
	health := NewHealthHandler(cfg.PgPool, cfg.Redis, cfg.Env, cfg.Version)
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)

	// Public doctor directory
	r.Get("/doctors", listDoctorsHandler(cfg.Service))
	r.Get("/doctors/{id}", getDoctorHandler(cfg.Service))

	// Everything else requires the gateway-asserted principal
	r.Group(func(r chi.Router) {
		r.Use(PrincipalMiddleware)

		r.Get("/availability/times", availableTimesHandler(cfg.Service))
		r.Get("/doctors/{id}/availability", doctorAvailabilityRangeHandler(cfg.Service))
		r.Put("/doctors/availability", setAvailabilityHandler(cfg.Service))
		r.Post("/doctors/match", matchDoctorsHandler(cfg.Service))

		r.Post("/appointments", createAppointmentHandler(cfg.Service))
		r.Get("/appointments", listAppointmentsHandler(cfg.Service))
		r.Get("/appointments/{id}", getAppointmentHandler(cfg.Service))
		r.Patch("/appointments/{id}/status", updateAppointmentStatusHandler(cfg.Service))
		r.Post("/appointments/{id}/reschedule", rescheduleAppointmentHandler(cfg.Service))
		r.Delete("/appointments/{id}", cancelAppointmentHandler(cfg.Service))

		r.Get("/notifications", listNotificationsHandler(cfg.Service))
	})

	return r
}
