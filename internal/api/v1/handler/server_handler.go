package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"app/internal/api/v1/dto"
	"app/internal/middleware"
	"app/internal/model"
	"app/internal/service"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

// ServerHandler handles the dashboard's guild registry and analytics.
type ServerHandler struct {
	serverSvc service.ServerService
	validate  *validator.Validate
	logger    zerolog.Logger
}

// NewServerHandler creates a new ServerHandler.
func NewServerHandler(serverSvc service.ServerService, v *validator.Validate, logger zerolog.Logger) *ServerHandler {
	return &ServerHandler{serverSvc: serverSvc, validate: v, logger: logger}
}

// RegisterRoutes mounts v1 server and analytics routes.
func (h *ServerHandler) RegisterRoutes(mux *http.ServeMux, authMw func(http.Handler) http.Handler) {
	mux.Handle("/servers", authMw(http.HandlerFunc(h.handleServers)))
	mux.Handle("/servers/", authMw(http.HandlerFunc(h.handleServerByID)))
	mux.Handle("/analytics/usage", authMw(http.HandlerFunc(h.getUsageStats)))
}

func (h *ServerHandler) handleServers(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.registerServer(w, r)
	case http.MethodGet:
		h.listServers(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *ServerHandler) registerServer(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok || user.ID == "" {
		http.Error(w, "Unauthorized: user not found in context", http.StatusUnauthorized)
		return
	}
	var req dto.ServerCreateDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON payload: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		http.Error(w, "Validation failed: "+err.Error(), http.StatusBadRequest)
		return
	}

	srv, err := h.serverSvc.Register(r.Context(), user.ID, req.Name, req.InviteURL)
	if err != nil {
		http.Error(w, "Failed to register server", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(toServerDTO(srv))
}

func (h *ServerHandler) listServers(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok || user.ID == "" {
		http.Error(w, "Unauthorized: user not found in context", http.StatusUnauthorized)
		return
	}
	servers, err := h.serverSvc.List(r.Context(), user.ID)
	if err != nil {
		http.Error(w, "Failed to list servers", http.StatusInternalServerError)
		return
	}
	resp := make([]dto.ServerResponseDTO, 0, len(servers))
	for i := range servers {
		resp = append(resp, toServerDTO(&servers[i]))
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

func (h *ServerHandler) handleServerByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	user, ok := middleware.UserFromContext(r.Context())
	if !ok || user.ID == "" {
		http.Error(w, "Unauthorized: user not found in context", http.StatusUnauthorized)
		return
	}
	serverID := strings.TrimPrefix(r.URL.Path, "/servers/")
	if serverID == "" || strings.Contains(serverID, "/") {
		http.NotFound(w, r)
		return
	}
	if err := h.serverSvc.Delete(r.Context(), serverID, user.ID); err != nil {
		if errors.Is(err, service.ErrServerNotFound) {
			http.Error(w, "Server not found", http.StatusNotFound)
			return
		}
		http.Error(w, "Failed to delete server", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *ServerHandler) getUsageStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	user, ok := middleware.UserFromContext(r.Context())
	if !ok || user.ID == "" {
		http.Error(w, "Unauthorized: user not found in context", http.StatusUnauthorized)
		return
	}
	stats, err := h.serverSvc.UsageStats(r.Context(), user.ID)
	if err != nil {
		http.Error(w, "Failed to fetch usage stats", http.StatusInternalServerError)
		return
	}
	resp := make([]dto.UsageStatDTO, 0, len(stats))
	for _, st := range stats {
		resp = append(resp, dto.UsageStatDTO{
			DiscordGuildID:    st.DiscordGuildID,
			CommandsUsed:      st.CommandsUsed,
			MessagesModerated: st.MessagesModerated,
			LastActivity:      st.LastActivity,
		})
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

func toServerDTO(s *model.Server) dto.ServerResponseDTO {
	return dto.ServerResponseDTO{
		ID:                 s.ID,
		Name:               s.Name,
		InviteURL:          s.InviteURL,
		SubscriptionStatus: s.SubscriptionStatus,
		MonthlyLimit:       s.MonthlyLimit,
		UsageCount:         s.UsageCount,
		CreatedAt:          s.CreatedAt,
		UpdatedAt:          s.UpdatedAt,
	}
}
