package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/medconnect/telemed-scheduling/internal/appointment"
	"github.com/medconnect/telemed-scheduling/internal/availability"
	"github.com/medconnect/telemed-scheduling/internal/doctor"
	"github.com/medconnect/telemed-scheduling/internal/notification"
	"github.com/medconnect/telemed-scheduling/internal/payment"
)

type RouterConfig struct {
	Availability  *availability.Service
	Appointments  *appointment.Service
	Doctors       doctor.Repository
	Payments      *payment.Service
	Notifications notification.Repository
	PgPool        *pgxpool.Pool
	Redis         *redis.Client
	JWTSecret     string
	Env           string
	Version       string
	Logger        zerolog.Logger
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(cfg.Logger))
	r.Use(MetricsMiddleware)

	// Health and metrics
	health := NewHealthHandler(cfg.PgPool, cfg.Redis, cfg.Env, cfg.Version)
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)
	r.Handle("/metrics", promhttp.Handler())

	// Processor webhook: unauthenticated, trust comes from the event signature.
	r.Post("/payments/webhook", paymentWebhookHandler(cfg.Payments, cfg.Logger))

	// Everything else requires an authenticated actor.
	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(cfg.JWTSecret))

		r.Post("/availability/rules", setRuleHandler(cfg.Availability))
		r.Delete("/availability/rules/{ruleID}", removeRuleHandler(cfg.Availability))
		r.Get("/doctors/{doctorID}/availability", listRulesHandler(cfg.Availability))

		r.Get("/doctors/{doctorID}/profile", getProfileHandler(cfg.Doctors))
		r.Put("/doctors/{doctorID}/profile", upsertProfileHandler(cfg.Doctors))
		r.Post("/doctors/{doctorID}/approval", setApprovalHandler(cfg.Doctors))

		r.Post("/appointments", bookAppointmentHandler(cfg.Appointments))
		r.Get("/appointments", listAppointmentsHandler(cfg.Appointments))
		r.Get("/appointments/{id}", getAppointmentHandler(cfg.Appointments))
		r.Post("/appointments/{id}/status", transitionAppointmentHandler(cfg.Appointments))
		r.Patch("/appointments/{id}", updateAppointmentHandler(cfg.Appointments))

		r.Post("/payments/orders", openOrderHandler(cfg.Payments))
		r.Post("/payments/confirm", confirmPaymentHandler(cfg.Payments))

		r.Get("/notifications", listNotificationsHandler(cfg.Notifications))
		r.Post("/notifications/{id}/read", markNotificationReadHandler(cfg.Notifications))
	})

	return r
}
