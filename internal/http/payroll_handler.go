package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/example/studio-scheduler/internal/application"
	"github.com/example/studio-scheduler/internal/persistence"
)

// PayrollHandler exposes payroll computation and attendance recording.
type PayrollHandler struct {
	payroll   *application.PayrollService
	responder responder
}

// NewPayrollHandler creates the handler.
func NewPayrollHandler(payroll *application.PayrollService, logger *slog.Logger) *PayrollHandler {
	return &PayrollHandler{payroll: payroll, responder: newResponder(logger)}
}

type payrollEntryRequest struct {
	InstructorID string `json:"instructor_id"`
	InstanceID   string `json:"instance_id"`
}

// UpsertEntry recomputes the payroll row for an (instructor, instance) pair.
func (h *PayrollHandler) UpsertEntry(w http.ResponseWriter, r *http.Request) {
	principal, _ := PrincipalFromContext(r.Context())

	var req payrollEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	entry, err := h.payroll.ComputeForInstance(r.Context(), principal, req.InstructorID, req.InstanceID)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, entry)
}

type attendanceRequest struct {
	CustomerID string `json:"customer_id"`
	Status     string `json:"status"`
}

// RecordAttendance marks a customer present or absent.
func (h *PayrollHandler) RecordAttendance(w http.ResponseWriter, r *http.Request) {
	principal, _ := PrincipalFromContext(r.Context())

	var req attendanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	err := h.payroll.RecordAttendance(r.Context(), principal, chi.URLParam(r, "instanceID"), req.CustomerID, persistence.AttendanceStatus(req.Status))
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}
