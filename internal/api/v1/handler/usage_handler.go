package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"app/internal/api/v1/dto"
	"app/internal/service"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

// UsageHandler exposes the metering endpoint called by the bot process.
type UsageHandler struct {
	usageSvc service.UsageService
	validate *validator.Validate
	logger   zerolog.Logger
}

// NewUsageHandler creates a new UsageHandler.
func NewUsageHandler(usageSvc service.UsageService, v *validator.Validate, logger zerolog.Logger) *UsageHandler {
	return &UsageHandler{usageSvc: usageSvc, validate: v, logger: logger}
}

// RegisterRoutes mounts the metering endpoint. No auth middleware: the
// caller is the bot process, gated by the server row's subscription state.
func (h *UsageHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.Handle("/usage", http.HandlerFunc(h.meter))
}

func (h *UsageHandler) meter(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodOptions:
		// Preflight is answered by the CORS layer; a bare OPTIONS gets an
		// empty success.
		w.WriteHeader(http.StatusNoContent)
		return
	case http.MethodPost:
	default:
		writeUsageError(w, http.StatusMethodNotAllowed, dto.UsageErrorResponse{Error: "Method not allowed"})
		return
	}

	var req dto.UsageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeUsageError(w, http.StatusBadRequest, dto.UsageErrorResponse{Error: "Invalid request payload"})
		return
	}
	if req.ServerID == "" {
		writeUsageError(w, http.StatusBadRequest, dto.UsageErrorResponse{Error: "server_id is required"})
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		writeUsageError(w, http.StatusBadRequest, dto.UsageErrorResponse{Error: "Validation failed: " + err.Error()})
		return
	}
	amount := 1
	if req.Amount != nil {
		amount = *req.Amount
	}

	res, err := h.usageSvc.Meter(r.Context(), req.ServerID, amount, req.DiscordGuildID)
	if err != nil {
		h.writeMeterError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(dto.UsageResponse{
		Success:    true,
		UsageCount: res.UsageCount,
		Remaining:  res.Remaining,
		Limit:      res.Limit,
	}); err != nil {
		h.logger.Error().Err(err).Msg("failed to encode usage response")
	}
}

// writeMeterError maps service failures onto the wire contract.
func (h *UsageHandler) writeMeterError(w http.ResponseWriter, err error) {
	var inactive service.InactiveSubscriptionError
	var quota service.QuotaExceededError
	switch {
	case errors.Is(err, service.ErrServerNotFound):
		writeUsageError(w, http.StatusNotFound, dto.UsageErrorResponse{Error: "Invalid server ID"})
	case errors.As(err, &inactive):
		writeUsageError(w, http.StatusForbidden, dto.UsageErrorResponse{
			Error:         "Server subscription is not active",
			CurrentStatus: inactive.Status,
		})
	case errors.As(err, &quota):
		writeUsageError(w, http.StatusTooManyRequests, dto.UsageErrorResponse{
			Error:        "Monthly usage limit exceeded",
			CurrentUsage: &quota.CurrentUsage,
			Limit:        &quota.Limit,
		})
	case errors.Is(err, service.ErrUsageUpdateFailed):
		writeUsageError(w, http.StatusInternalServerError, dto.UsageErrorResponse{Error: "Failed to update usage count"})
	default:
		writeUsageError(w, http.StatusInternalServerError, dto.UsageErrorResponse{Error: "Internal server error"})
	}
}

func writeUsageError(w http.ResponseWriter, status int, body dto.UsageErrorResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
