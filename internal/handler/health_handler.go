package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/oakline/customer-directory/internal/cache"
	"github.com/oakline/customer-directory/internal/repository"
)

// HealthHandler handles health check requests
type HealthHandler struct {
	store  repository.CustomerStore
	cache  cache.Cache
	logger *slog.Logger
}

// NewHealthHandler creates a new health handler. customerCache may be nil
// when caching is disabled.
func NewHealthHandler(store repository.CustomerStore, customerCache cache.Cache, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{
		store:  store,
		cache:  customerCache,
		logger: logger,
	}
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status   string            `json:"status"`
	Services map[string]string `json:"services"`
}

// Health handles GET /health
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	response := HealthResponse{
		Status:   "healthy",
		Services: make(map[string]string),
	}

	// Check storage
	if err := h.store.Health(ctx); err != nil {
		h.logger.Error("storage health check failed", slog.String("error", err.Error()))
		response.Status = "unhealthy"
		response.Services["storage"] = "unhealthy"
	} else {
		response.Services["storage"] = "healthy"
	}

	// Check cache
	if h.cache != nil {
		if err := h.cache.Health(ctx); err != nil {
			h.logger.Error("cache health check failed", slog.String("error", err.Error()))
			response.Status = "unhealthy"
			response.Services["cache"] = "unhealthy"
		} else {
			response.Services["cache"] = "healthy"
		}
	} else {
		response.Services["cache"] = "not_configured"
	}

	// Return appropriate status code
	if response.Status == "healthy" {
		respondSuccess(w, response)
	} else {
		respondJSON(w, http.StatusServiceUnavailable, response)
	}
}
