package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/example/studio-scheduler/internal/application"
)

// BookingHandler exposes seat reservation and cancellation.
type BookingHandler struct {
	bookings  *application.BookingService
	responder responder
}

// NewBookingHandler creates the handler.
func NewBookingHandler(bookings *application.BookingService, logger *slog.Logger) *BookingHandler {
	return &BookingHandler{bookings: bookings, responder: newResponder(logger)}
}

type createBookingRequest struct {
	CustomerID   string  `json:"customer_id"`
	InstanceID   string  `json:"instance_id"`
	MembershipID *string `json:"membership_id"`
	IsRemote     bool    `json:"is_remote"`
}

// Create arbitrates a seat reservation.
func (h *BookingHandler) Create(w http.ResponseWriter, r *http.Request) {
	studio, ok := StudioFromContext(r.Context())
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusNotFound, nil)
		return
	}
	principal, _ := PrincipalFromContext(r.Context())

	var req createBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	booking, err := h.bookings.CreateBooking(r.Context(), application.CreateBookingInput{
		Studio:       studio,
		Principal:    principal,
		CustomerID:   req.CustomerID,
		InstanceID:   req.InstanceID,
		MembershipID: req.MembershipID,
		IsRemote:     req.IsRemote,
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, booking)
}

type cancelBookingRequest struct {
	CustomerID string `json:"customer_id"`
}

// Cancel soft-cancels a booking ahead of its deadline.
func (h *BookingHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	studio, ok := StudioFromContext(r.Context())
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusNotFound, nil)
		return
	}
	principal, _ := PrincipalFromContext(r.Context())

	var req cancelBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	err := h.bookings.CancelBooking(r.Context(), application.CancelBookingInput{
		Studio:     studio,
		Principal:  principal,
		CustomerID: req.CustomerID,
		BookingID:  chi.URLParam(r, "bookingID"),
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}
