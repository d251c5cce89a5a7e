// Package http exposes the bookkeeping service as a JSON API under /api/v1.
package http

import (
	"errors"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kjstillabower/solawi/internal/auth"
	"github.com/kjstillabower/solawi/internal/health"
	"github.com/kjstillabower/solawi/internal/service"
)

// Handler holds dependencies for HTTP handlers.
type Handler struct {
	svc              *service.Service
	health           *health.Checker
	logger           *zap.Logger
	version          string
	healthStatusMu   sync.Mutex
	healthStatusPrev string
}

// NewHandler returns a new Handler.
func NewHandler(svc *service.Service, checker *health.Checker, logger *zap.Logger, version string) *Handler {
	if version == "" {
		version = "dev"
	}
	return &Handler{svc: svc, health: checker, logger: logger, version: version}
}

// GetHealth handles GET /health.
func (h *Handler) GetHealth(w http.ResponseWriter, r *http.Request) {
	result := h.health.Check(r.Context())

	h.healthStatusMu.Lock()
	prev := h.healthStatusPrev
	if prev != "" && prev != result.Status {
		h.logger.Info("health status transition",
			zap.String("previous_status", prev),
			zap.String("current_status", result.Status),
			zap.String("reason", result.Reason))
	}
	h.healthStatusPrev = result.Status
	h.healthStatusMu.Unlock()

	writeJSON(w, result.StatusCode, map[string]interface{}{
		"status":    result.Status,
		"service":   "solawi",
		"version":   h.version,
		"checks":    result.Checks,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login handles POST /api/v1/login.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var body loginRequest
	if err := decodeJSON(w, r, &body); err != nil {
		writeServiceError(w, r, err)
		return
	}
	res, err := h.svc.Login(r.Context(), body.Email, body.Password)
	if errors.Is(err, auth.ErrInvalidCredentials) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "login failed"})
		return
	}
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
