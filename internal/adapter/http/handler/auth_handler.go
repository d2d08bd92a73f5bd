package handler

import (
	"encoding/json"
	"net/http"

	"github.com/iho/atmcore/internal/adapter/http/dto"
	"github.com/iho/atmcore/internal/adapter/http/middleware"
	"github.com/iho/atmcore/internal/infrastructure/metrics"
	"github.com/iho/atmcore/internal/usecase"
)

// AuthHandler handles login and logout.
type AuthHandler struct {
	authUC  *usecase.AuthUseCase
	metrics *metrics.Metrics
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authUC *usecase.AuthUseCase, m *metrics.Metrics) *AuthHandler {
	return &AuthHandler{authUC: authUC, metrics: m}
}

// Login verifies credentials and returns a session token.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	account, token, err := h.authUC.Login(r.Context(), req.ToUseCaseInput())
	if err != nil {
		h.metrics.LoginAttempts.WithLabelValues("failure").Inc()
		writeDomainError(w, err)

		return
	}

	h.metrics.LoginAttempts.WithLabelValues("success").Inc()

	writeJSON(w, http.StatusOK, dto.LoginResponse{
		Token:   token,
		Account: dto.AccountFromDomain(account),
	})
}

// Logout invalidates the caller's session token.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	token := middleware.BearerToken(r)
	if token == "" {
		writeError(w, http.StatusUnauthorized, "missing session token")
		return
	}

	if err := h.authUC.Logout(r.Context(), token); err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "logged out"})
}
