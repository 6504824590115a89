package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/example/studio-scheduler/internal/application"
	"github.com/example/studio-scheduler/internal/logging"
)

var errBadRequestBody = errors.New("invalid request body")

type responder struct {
	logger *slog.Logger
}

func newResponder(logger *slog.Logger) responder {
	if logger == nil {
		logger = slog.Default()
	}
	return responder{logger: logger}
}

func (r responder) writeJSON(ctx context.Context, w http.ResponseWriter, status int, payload any) {
	if w == nil {
		return
	}

	if status == http.StatusNoContent || payload == nil {
		w.WriteHeader(status)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		r.loggerFor(ctx).ErrorContext(ctx, "failed to encode response", "error", err)
	}
}

func (r responder) writeError(ctx context.Context, w http.ResponseWriter, status int, err error) {
	message := http.StatusText(status)
	if err != nil {
		message = err.Error()
		r.loggerFor(ctx).ErrorContext(ctx, "request failed", "status", status, "error", err)
	}
	r.writeJSON(ctx, w, status, errorResponse{Message: message})
}

// bookingOutcomes maps expected business-rule results to stable error codes.
// Every entry responds 422 unless listed in conflictOutcomes.
var bookingOutcomes = map[error]string{
	application.ErrEventUnavailable:          "EVENT_UNAVAILABLE",
	application.ErrAlreadyBooked:             "ALREADY_BOOKED",
	application.ErrHealthDeclarationRequired: "HEALTH_DECLARATION_REQUIRED",
	application.ErrClassFull:                 "CLASS_FULL",
	application.ErrRemoteUnavailable:         "REMOTE_UNAVAILABLE",
	application.ErrRemoteFull:                "REMOTE_FULL",
	application.ErrMembershipNotActive:       "MEMBERSHIP_NOT_ACTIVE",
	application.ErrPlanUnavailable:           "PLAN_UNAVAILABLE",
	application.ErrNoRemainingUses:           "NO_REMAINING_USES",
	application.ErrWeeklyLimitReached:        "WEEKLY_LIMIT_REACHED",
	application.ErrPlanRequiredForClass:      "PLAN_REQUIRED_FOR_CLASS",
	application.ErrPlanNotEligible:           "PLAN_NOT_ELIGIBLE",
	application.ErrAlreadyCancelled:          "ALREADY_CANCELLED",
	application.ErrCancellationWindowClosed:  "CANCELLATION_WINDOW_CLOSED",
	application.ErrSchedulingConflict:        "SCHEDULING_CONFLICT",
}

var conflictOutcomes = map[error]struct{}{
	application.ErrAlreadyBooked:      {},
	application.ErrAlreadyCancelled:   {},
	application.ErrSchedulingConflict: {},
}

func (r responder) handleServiceError(ctx context.Context, w http.ResponseWriter, err error) {
	if err == nil {
		r.writeError(ctx, w, http.StatusInternalServerError, errors.New("unknown error"))
		return
	}

	switch {
	case errors.Is(err, application.ErrUnauthorized):
		r.writeJSON(ctx, w, http.StatusForbidden, errorResponse{
			ErrorCode: "FORBIDDEN",
			Message:   "you are not allowed to perform this operation",
		})
		return
	case errors.Is(err, application.ErrNotFound):
		r.writeJSON(ctx, w, http.StatusNotFound, errorResponse{Message: "resource not found"})
		return
	case errors.Is(err, application.ErrAlreadyExists):
		r.writeJSON(ctx, w, http.StatusConflict, errorResponse{
			ErrorCode: "ALREADY_EXISTS",
			Message:   "resource already exists",
		})
		return
	}

	for outcome, code := range bookingOutcomes {
		if errors.Is(err, outcome) {
			status := http.StatusUnprocessableEntity
			if _, conflict := conflictOutcomes[outcome]; conflict {
				status = http.StatusConflict
			}
			r.writeJSON(ctx, w, status, errorResponse{ErrorCode: code, Message: outcome.Error()})
			return
		}
	}

	var vErr *application.ValidationError
	if errors.As(err, &vErr) {
		r.writeJSON(ctx, w, http.StatusUnprocessableEntity, errorResponse{
			ErrorCode: "VALIDATION_FAILED",
			Message:   "validation failed",
			Errors:    vErr.FieldErrors,
		})
		return
	}

	r.loggerFor(ctx).ErrorContext(ctx, "unhandled service error", "error", err)
	r.writeJSON(ctx, w, http.StatusInternalServerError, errorResponse{Message: "internal server error"})
}

func (r responder) loggerFor(ctx context.Context) *slog.Logger {
	if logger := logging.FromContext(ctx); logger != nil {
		return logger
	}
	return r.logger
}

type errorResponse struct {
	ErrorCode string            `json:"error_code,omitempty"`
	Message   string            `json:"message"`
	Errors    map[string]string `json:"errors,omitempty"`
}
