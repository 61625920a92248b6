package server

import (
	"encoding/json"
	"net/http"

	"github.com/L-Aguilar/microsaas-sub003/auth"
	apperrors "github.com/L-Aguilar/microsaas-sub003/internal/errors"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

type identityResponse struct {
	UserID   string  `json:"user_id"`
	Role     string  `json:"role"`
	TenantID *string `json:"tenant_id,omitempty"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email == "" || req.Password == "" {
		writeBadRequest(w, "email and password are required")
		return
	}

	signed, _, err := s.gate.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		s.deny(w, r, req.Email, err)
		return
	}

	writeJSON(w, http.StatusOK, tokenResponse{
		AccessToken: signed,
		TokenType:   "bearer",
		ExpiresIn:   int(s.config.GetTokenExpiry().Seconds()),
	})
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	rawToken := bearerToken(r)
	if rawToken == "" {
		s.deny(w, r, "", apperrors.ErrTokenMissing)
		return
	}

	signed, _, err := s.gate.Refresh(r.Context(), rawToken)
	if err != nil {
		s.deny(w, r, "", err)
		return
	}

	writeJSON(w, http.StatusOK, tokenResponse{
		AccessToken: signed,
		TokenType:   "bearer",
		ExpiresIn:   int(s.config.GetTokenExpiry().Seconds()),
	})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := s.gate.Logout(r.Context(), bearerToken(r)); err != nil {
		s.logger.Error().Err(err).Msg("logout revocation failed")
		writeInternalError(w)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "logged_out"})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	sc, ok := auth.FromContext(r.Context())
	if !ok {
		writeUnauthorized(w)
		return
	}
	writeJSON(w, http.StatusOK, identityResponse{
		UserID:   sc.UserID,
		Role:     string(sc.Role),
		TenantID: sc.TenantID,
	})
}
