package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/example/studio-scheduler/internal/application"
)

// CustomerHandler exposes customer registration, waivers and health
// declarations.
type CustomerHandler struct {
	customers *application.CustomerService
	responder responder
}

// NewCustomerHandler creates the handler.
func NewCustomerHandler(customers *application.CustomerService, logger *slog.Logger) *CustomerHandler {
	return &CustomerHandler{customers: customers, responder: newResponder(logger)}
}

type registerCustomerRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

type customerResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// Register creates a customer account for the studio.
func (h *CustomerHandler) Register(w http.ResponseWriter, r *http.Request) {
	studio, ok := StudioFromContext(r.Context())
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusNotFound, nil)
		return
	}

	var req registerCustomerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	customer, err := h.customers.RegisterCustomer(r.Context(), application.RegisterCustomerInput{
		StudioID: studio.ID,
		Email:    req.Email,
		Name:     req.Name,
		Password: req.Password,
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, customerResponse{
		ID:    customer.ID,
		Email: customer.Email,
		Name:  customer.Name,
	})
}

// SignWaiver records the health-waiver signature.
func (h *CustomerHandler) SignWaiver(w http.ResponseWriter, r *http.Request) {
	customerID := chi.URLParam(r, "customerID")
	if err := h.customers.SignWaiver(r.Context(), customerID); err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

type healthDeclarationRequest struct {
	Notes string `json:"notes"`
}

// AddHealthDeclaration files a health statement.
func (h *CustomerHandler) AddHealthDeclaration(w http.ResponseWriter, r *http.Request) {
	customerID := chi.URLParam(r, "customerID")

	var req healthDeclarationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	if err := h.customers.AddHealthDeclaration(r.Context(), customerID, req.Notes); err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}
