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

// StudioHandler exposes tenant, room, instructor and plan management.
type StudioHandler struct {
	studios   *application.StudioService
	responder responder
}

// NewStudioHandler creates the handler.
func NewStudioHandler(studios *application.StudioService, logger *slog.Logger) *StudioHandler {
	return &StudioHandler{studios: studios, responder: newResponder(logger)}
}

type createStudioRequest struct {
	Slug         string `json:"slug"`
	Name         string `json:"name"`
	TimeZone     string `json:"time_zone"`
	WeekStartsOn int    `json:"week_starts_on"`
	Locale       string `json:"locale"`
}

type studioResponse struct {
	ID           string `json:"id"`
	Slug         string `json:"slug"`
	Name         string `json:"name"`
	TimeZone     string `json:"time_zone"`
	WeekStartsOn int    `json:"week_starts_on"`
	Locale       string `json:"locale"`
}

// Create onboards a studio.
func (h *StudioHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createStudioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	studio, err := h.studios.CreateStudio(r.Context(), application.CreateStudioInput{
		Slug:         req.Slug,
		Name:         req.Name,
		TimeZone:     req.TimeZone,
		WeekStartsOn: time.Weekday(req.WeekStartsOn),
		Locale:       req.Locale,
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, toStudioResponse(studio))
}

// Get resolves a studio by slug.
func (h *StudioHandler) Get(w http.ResponseWriter, r *http.Request) {
	studio, ok := StudioFromContext(r.Context())
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusNotFound, nil)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toStudioResponse(studio))
}

type updateSettingsRequest struct {
	Name         string `json:"name"`
	TimeZone     string `json:"time_zone"`
	WeekStartsOn int    `json:"week_starts_on"`
	Locale       string `json:"locale"`
}

// UpdateSettings applies zone, week-start and naming changes.
func (h *StudioHandler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	studio, ok := StudioFromContext(r.Context())
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusNotFound, nil)
		return
	}
	principal, _ := PrincipalFromContext(r.Context())

	var req updateSettingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	studio.Name = req.Name
	studio.TimeZone = req.TimeZone
	studio.WeekStartsOn = time.Weekday(req.WeekStartsOn)
	studio.Locale = req.Locale
	updated, err := h.studios.UpdateStudioSettings(r.Context(), principal, studio)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toStudioResponse(updated))
}

type createRoomRequest struct {
	Name     string `json:"name"`
	Capacity int    `json:"capacity"`
}

// CreateRoom adds a bookable room.
func (h *StudioHandler) CreateRoom(w http.ResponseWriter, r *http.Request) {
	studio, ok := StudioFromContext(r.Context())
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusNotFound, nil)
		return
	}
	principal, _ := PrincipalFromContext(r.Context())

	var req createRoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	room, err := h.studios.CreateRoom(r.Context(), principal, persistence.Room{
		StudioID: studio.ID,
		Name:     req.Name,
		Capacity: req.Capacity,
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, room)
}

type createInstructorRequest struct {
	Name         string `json:"name"`
	Email        string `json:"email"`
	RateCents    int64  `json:"rate_cents"`
	RateUnit     string `json:"rate_unit"`
	RateCurrency string `json:"rate_currency"`
}

// CreateInstructor adds an instructor with a payroll rate.
func (h *StudioHandler) CreateInstructor(w http.ResponseWriter, r *http.Request) {
	studio, ok := StudioFromContext(r.Context())
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusNotFound, nil)
		return
	}
	principal, _ := PrincipalFromContext(r.Context())

	var req createInstructorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	instructor, err := h.studios.CreateInstructor(r.Context(), principal, persistence.Instructor{
		StudioID:     studio.ID,
		Name:         req.Name,
		Email:        req.Email,
		RateCents:    req.RateCents,
		RateUnit:     persistence.RateUnit(req.RateUnit),
		RateCurrency: req.RateCurrency,
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, instructor)
}

type createPlanRequest struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	WeeklyLimit int    `json:"weekly_limit"`
	PunchTotal  int    `json:"punch_total"`
	PriceCents  int64  `json:"price_cents"`
	Currency    string `json:"currency"`
}

// CreatePlan adds a membership plan.
func (h *StudioHandler) CreatePlan(w http.ResponseWriter, r *http.Request) {
	studio, ok := StudioFromContext(r.Context())
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusNotFound, nil)
		return
	}
	principal, _ := PrincipalFromContext(r.Context())

	var req createPlanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	plan, err := h.studios.CreatePlan(r.Context(), principal, persistence.Plan{
		StudioID:    studio.ID,
		Name:        req.Name,
		Type:        persistence.PlanType(req.Type),
		WeeklyLimit: req.WeeklyLimit,
		PunchTotal:  req.PunchTotal,
		PriceCents:  req.PriceCents,
		Currency:    req.Currency,
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, plan)
}

type checkoutPlanRequest struct {
	PlanID string `json:"plan_id"`
}

// CheckoutPlan creates a membership for a customer.
func (h *StudioHandler) CheckoutPlan(w http.ResponseWriter, r *http.Request) {
	studio, ok := StudioFromContext(r.Context())
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusNotFound, nil)
		return
	}
	principal, _ := PrincipalFromContext(r.Context())
	customerID := chi.URLParam(r, "customerID")

	var req checkoutPlanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	membership, err := h.studios.CheckoutPlan(r.Context(), principal, studio.ID, customerID, req.PlanID)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, membership)
}

func toStudioResponse(studio persistence.Studio) studioResponse {
	return studioResponse{
		ID:           studio.ID,
		Slug:         studio.Slug,
		Name:         studio.Name,
		TimeZone:     studio.TimeZone,
		WeekStartsOn: int(studio.WeekStartsOn),
		Locale:       studio.Locale,
	}
}
