// Package http is the thin JSON transport over the application services.
package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/example/studio-scheduler/internal/application"
)

// RouterConfig bundles handlers and cross-cutting middleware.
type RouterConfig struct {
	Studios    *StudioHandler
	Customers  *CustomerHandler
	Schedules  *ScheduleHandler
	Bookings   *BookingHandler
	Payroll    *PayrollHandler
	Resolver   *application.StudioService
	Logger     *slog.Logger
	Middleware []func(http.Handler) http.Handler
	// BookingMiddleware applies only to the booking routes (rate limiting).
	BookingMiddleware []func(http.Handler) http.Handler
}

// NewRouter assembles the route tree. Tenant-scoped routes resolve the
// {studioSlug} segment before dispatching to handlers.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()
	for _, mw := range cfg.Middleware {
		if mw != nil {
			r.Use(mw)
		}
	}

	r.Post("/studios", cfg.Studios.Create)

	r.Route("/studios/{studioSlug}", func(r chi.Router) {
		r.Use(resolveStudio(cfg.Resolver, cfg.Logger))

		r.Get("/", cfg.Studios.Get)
		r.Put("/settings", cfg.Studios.UpdateSettings)
		r.Post("/rooms", cfg.Studios.CreateRoom)
		r.Post("/instructors", cfg.Studios.CreateInstructor)
		r.Post("/plans", cfg.Studios.CreatePlan)

		r.Post("/customers", cfg.Customers.Register)
		r.Post("/customers/{customerID}/waiver", cfg.Customers.SignWaiver)
		r.Post("/customers/{customerID}/health-declarations", cfg.Customers.AddHealthDeclaration)
		r.Post("/customers/{customerID}/memberships", cfg.Studios.CheckoutPlan)

		r.Post("/series", cfg.Schedules.CreateSeries)
		r.Post("/series/{seriesID}/generate", cfg.Schedules.GenerateSeries)
		r.Post("/generate", cfg.Schedules.GenerateStudio)
		r.Post("/instances", cfg.Schedules.CreateAdHocInstance)
		r.Put("/instances/{instanceID}/schedule", cfg.Schedules.Reschedule)
		r.Delete("/instances/{instanceID}", cfg.Schedules.CancelInstance)
		r.Post("/instances/{instanceID}/attendance", cfg.Payroll.RecordAttendance)
		r.Get("/week-window", cfg.Schedules.WeekWindow)

		r.Post("/payroll/entries", cfg.Payroll.UpsertEntry)

		r.Group(func(r chi.Router) {
			for _, mw := range cfg.BookingMiddleware {
				if mw != nil {
					r.Use(mw)
				}
			}
			r.Post("/bookings", cfg.Bookings.Create)
			r.Post("/bookings/{bookingID}/cancel", cfg.Bookings.Cancel)
		})
	})

	return r
}

// resolveStudio loads the tenant named by the slug segment and stashes it in
// the request context.
func resolveStudio(studios *application.StudioService, logger *slog.Logger) func(http.Handler) http.Handler {
	responder := newResponder(logger)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			slug := chi.URLParam(r, "studioSlug")
			studio, err := studios.GetStudioBySlug(r.Context(), slug)
			if err != nil {
				responder.handleServiceError(r.Context(), w, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(ContextWithStudio(r.Context(), studio)))
		})
	}
}
