package handler

import (
	"encoding/json"
	"net/http"

	"app/internal/api/v1/dto"
	"app/internal/middleware"
	"app/internal/model"
	"app/internal/service"

	"github.com/rs/zerolog"
)

// SubscriptionHandler handles subscription-related endpoints.
type SubscriptionHandler struct {
	subSvc service.SubscriptionService
	logger zerolog.Logger
}

// NewSubscriptionHandler creates a new SubscriptionHandler.
func NewSubscriptionHandler(subSvc service.SubscriptionService, logger zerolog.Logger) *SubscriptionHandler {
	return &SubscriptionHandler{subSvc: subSvc, logger: logger}
}

// RegisterRoutes registers the subscription endpoints.
func (h *SubscriptionHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware, rateLimit func(http.Handler) http.Handler) {
	mux.Handle("/subscriptions/check", rateLimit(authMiddleware(http.HandlerFunc(h.check))))
}

// check reconciles the caller's subscription state against the payment
// provider and returns the derived status. Any failure past authentication
// yields a 500 with a pending payload so the dashboard degrades to the
// unsubscribed view.
func (h *SubscriptionHandler) check(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	user, ok := middleware.UserFromContext(r.Context())
	if !ok || user.ID == "" {
		http.Error(w, "Unauthorized: user not found in context", http.StatusUnauthorized)
		return
	}
	if user.Email == "" {
		http.Error(w, "Unauthorized: email not available", http.StatusUnauthorized)
		return
	}

	res, err := h.subSvc.Reconcile(r.Context(), service.Identity{
		UserID:          user.ID,
		Email:           user.Email,
		DiscordUserID:   user.DiscordUserID,
		DiscordUsername: user.DiscordUsername,
	})
	w.Header().Set("Content-Type", "application/json")
	if err != nil {
		h.logger.Error().Err(err).Str("user_id", user.ID).Msg("failed to reconcile subscription")
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(dto.SubscriptionCheckResponse{
			SubscriptionStatus: model.SubscriptionStatusPending,
			Error:              err.Error(),
		})
		return
	}
	if err := json.NewEncoder(w).Encode(dto.SubscriptionCheckResponse{
		SubscriptionStatus: res.Status,
		SubscriptionTier:   res.Tier,
		SubscriptionStart:  res.Start,
		SubscriptionEnd:    res.End,
	}); err != nil {
		h.logger.Error().Err(err).Msg("failed to encode response")
	}
}
