package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/example/studio-scheduler/internal/application"
	"github.com/example/studio-scheduler/internal/persistence"
)

// ScheduleHandler exposes series, instance generation and week-window
// operations.
type ScheduleHandler struct {
	schedules *application.ScheduleService
	responder responder
}

// NewScheduleHandler creates the handler.
func NewScheduleHandler(schedules *application.ScheduleService, logger *slog.Logger) *ScheduleHandler {
	return &ScheduleHandler{schedules: schedules, responder: newResponder(logger)}
}

type createSeriesRequest struct {
	Title                   string   `json:"title"`
	RoomID                  *string  `json:"room_id"`
	InstructorID            *string  `json:"instructor_id"`
	DayOfWeek               int      `json:"day_of_week"`
	StartHourLocal          int      `json:"start_hour_local"`
	StartMinuteLocal        int      `json:"start_minute_local"`
	DurationMinutes         int      `json:"duration_minutes"`
	RecurrenceIntervalWeeks int      `json:"recurrence_interval_weeks"`
	Capacity                int      `json:"capacity"`
	RemoteCapacity          int      `json:"remote_capacity"`
	PriceCents              int64    `json:"price_cents"`
	Currency                string   `json:"currency"`
	CancellationWindowHours int      `json:"cancellation_window_hours"`
	AllowedPlanIDs          []string `json:"allowed_plan_ids"`
}

// CreateSeries stores a recurrence template.
func (h *ScheduleHandler) CreateSeries(w http.ResponseWriter, r *http.Request) {
	studio, ok := StudioFromContext(r.Context())
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusNotFound, nil)
		return
	}
	principal, _ := PrincipalFromContext(r.Context())

	var req createSeriesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	series, err := h.schedules.CreateSeries(r.Context(), principal, persistence.EventSeries{
		StudioID:                studio.ID,
		Title:                   req.Title,
		RoomID:                  req.RoomID,
		InstructorID:            req.InstructorID,
		DayOfWeek:               time.Weekday(req.DayOfWeek),
		StartHourLocal:          req.StartHourLocal,
		StartMinuteLocal:        req.StartMinuteLocal,
		DurationMinutes:         req.DurationMinutes,
		RecurrenceIntervalWeeks: req.RecurrenceIntervalWeeks,
		Capacity:                req.Capacity,
		RemoteCapacity:          req.RemoteCapacity,
		PriceCents:              req.PriceCents,
		Currency:                req.Currency,
		CancellationWindowHours: req.CancellationWindowHours,
		AllowedPlanIDs:          req.AllowedPlanIDs,
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, series)
}

type generateRequest struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

type generateResponse struct {
	Created int `json:"created"`
}

// GenerateSeries materializes one series over the requested window.
func (h *ScheduleHandler) GenerateSeries(w http.ResponseWriter, r *http.Request) {
	studio, ok := StudioFromContext(r.Context())
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusNotFound, nil)
		return
	}
	principal, _ := PrincipalFromContext(r.Context())
	if !principal.CanManageSchedule() {
		h.responder.handleServiceError(r.Context(), w, application.ErrUnauthorized)
		return
	}

	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	series, err := h.schedules.GetSeries(r.Context(), chi.URLParam(r, "seriesID"))
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	if series.StudioID != studio.ID {
		h.responder.handleServiceError(r.Context(), w, application.ErrNotFound)
		return
	}

	created, err := h.schedules.GenerateForSeries(r.Context(), studio, series, req.From, req.To)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, generateResponse{Created: created})
}

// GenerateStudio materializes every active series of the studio.
func (h *ScheduleHandler) GenerateStudio(w http.ResponseWriter, r *http.Request) {
	studio, ok := StudioFromContext(r.Context())
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusNotFound, nil)
		return
	}
	principal, _ := PrincipalFromContext(r.Context())
	if !principal.CanManageSchedule() {
		h.responder.handleServiceError(r.Context(), w, application.ErrUnauthorized)
		return
	}

	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	created, err := h.schedules.GenerateForStudio(r.Context(), studio, req.From, req.To)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, generateResponse{Created: created})
}

type adHocInstanceRequest struct {
	Title                   string    `json:"title"`
	RoomID                  *string   `json:"room_id"`
	InstructorID            *string   `json:"instructor_id"`
	StartUTC                time.Time `json:"start_utc"`
	EndUTC                  time.Time `json:"end_utc"`
	Capacity                int       `json:"capacity"`
	RemoteCapacity          int       `json:"remote_capacity"`
	PriceCents              int64     `json:"price_cents"`
	Currency                string    `json:"currency"`
	CancellationWindowHours int       `json:"cancellation_window_hours"`
}

// CreateAdHocInstance stores a one-off class.
func (h *ScheduleHandler) CreateAdHocInstance(w http.ResponseWriter, r *http.Request) {
	studio, ok := StudioFromContext(r.Context())
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusNotFound, nil)
		return
	}
	principal, _ := PrincipalFromContext(r.Context())

	var req adHocInstanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	instance, err := h.schedules.CreateAdHocInstance(r.Context(), application.AdHocInstanceInput{
		Studio:                  studio,
		Principal:               principal,
		Title:                   req.Title,
		RoomID:                  req.RoomID,
		InstructorID:            req.InstructorID,
		StartUTC:                req.StartUTC,
		EndUTC:                  req.EndUTC,
		Capacity:                req.Capacity,
		RemoteCapacity:          req.RemoteCapacity,
		PriceCents:              req.PriceCents,
		Currency:                req.Currency,
		CancellationWindowHours: req.CancellationWindowHours,
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, instance)
}

type rescheduleRequest struct {
	StartUTC time.Time `json:"start_utc"`
	EndUTC   time.Time `json:"end_utc"`
}

// Reschedule moves an instance to a new window.
func (h *ScheduleHandler) Reschedule(w http.ResponseWriter, r *http.Request) {
	principal, _ := PrincipalFromContext(r.Context())

	var req rescheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	instance, err := h.schedules.RescheduleInstance(r.Context(), principal, chi.URLParam(r, "instanceID"), req.StartUTC, req.EndUTC)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, instance)
}

// CancelInstance marks an instance cancelled.
func (h *ScheduleHandler) CancelInstance(w http.ResponseWriter, r *http.Request) {
	principal, _ := PrincipalFromContext(r.Context())
	if err := h.schedules.CancelInstance(r.Context(), principal, chi.URLParam(r, "instanceID")); err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

type weekWindowResponse struct {
	StartUTC time.Time `json:"start_utc"`
	EndUTC   time.Time `json:"end_utc"`
}

// WeekWindow resolves the studio-local week containing the "at" instant
// (query parameter, RFC3339, defaults to now).
func (h *ScheduleHandler) WeekWindow(w http.ResponseWriter, r *http.Request) {
	studio, ok := StudioFromContext(r.Context())
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusNotFound, nil)
		return
	}

	at := time.Now().UTC()
	if raw := r.URL.Query().Get("at"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
			return
		}
		at = parsed
	}

	start, end, err := h.schedules.ComputeWeekWindow(studio, at)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, weekWindowResponse{StartUTC: start, EndUTC: end})
}
