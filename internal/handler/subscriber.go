package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/ninjainc/waitlist/internal/handler/dto"
	"github.com/ninjainc/waitlist/internal/middleware"
	"github.com/ninjainc/waitlist/internal/model"
	"github.com/ninjainc/waitlist/internal/redact"
	"github.com/ninjainc/waitlist/internal/service"
)

// SubscriberService is the subset of service.SubscriberService used here.
type SubscriberService interface {
	Subscribe(ctx context.Context, raw any) (*service.SubscribeResult, error)
	List(ctx context.Context) ([]*model.Subscriber, error)
}

// SubscriberHandler handles signup and listing requests.
type SubscriberHandler struct {
	svc    SubscriberService
	logger *slog.Logger
}

// NewSubscriberHandler creates a new SubscriberHandler.
func NewSubscriberHandler(svc SubscriberService, logger *slog.Logger) *SubscriberHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &SubscriberHandler{
		svc:    svc,
		logger: logger,
	}
}

// Subscribe handles POST /subscribe.
// New and repeat signups get the same response.
func (h *SubscriberHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	var req dto.SubscribeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, dto.ErrorResponse{Error: "Request body too large"})
			return
		}
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{
			Error:   "Invalid email address",
			Details: "request body must be a JSON object",
		})
		return
	}

	if _, err := h.svc.Subscribe(r.Context(), req.Email); err != nil {
		h.handleServiceError(w, r, err, false)
		return
	}

	writeJSON(w, http.StatusOK, dto.MessageResponse{Message: "Successfully subscribed!"})
}

// List handles GET /subscribers.
func (h *SubscriberHandler) List(w http.ResponseWriter, r *http.Request) {
	subscribers, err := h.svc.List(r.Context())
	if err != nil {
		h.handleServiceError(w, r, err, true)
		return
	}

	writeJSON(w, http.StatusOK, dto.ToSubscriberListResponse(subscribers))
}

// handleServiceError maps service errors to HTTP responses.
// withType adds the error kind to store failures; configuration failures
// always carry it.
func (h *SubscriberHandler) handleServiceError(w http.ResponseWriter, r *http.Request, err error, withType bool) {
	var svcErr *service.Error
	if !errors.As(err, &svcErr) {
		h.logger.Error("internal_error",
			"request_id", requestID(r),
			"error", redact.Error(err),
		)
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Internal server error"})
		return
	}

	switch svcErr.Kind {
	case service.KindValidation:
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{
			Error:   svcErr.Message,
			Details: svcErr.Cause(),
		})

	case service.KindConfiguration:
		h.logger.Error("database_configuration_error",
			"request_id", requestID(r),
			"path", r.URL.Path,
			"reason", svcErr.Message,
		)
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{
			Error: svcErr.Message,
			Type:  svcErr.Kind.String(),
		})

	default:
		details := redact.Message(svcErr.Cause())
		h.logger.Error("store_error",
			"request_id", requestID(r),
			"path", r.URL.Path,
			"error", details,
		)
		resp := dto.ErrorResponse{
			Error:   svcErr.Message,
			Details: details,
		}
		if withType {
			resp.Type = svcErr.Kind.String()
		}
		writeJSON(w, http.StatusInternalServerError, resp)
	}
}

func requestID(r *http.Request) string {
	return middleware.GetRequestID(r.Context())
}
