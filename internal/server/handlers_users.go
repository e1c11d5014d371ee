package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/vrautomations/cryptotrack/internal/models"
	"github.com/vrautomations/cryptotrack/internal/services/auth"
)

type signupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	OK    bool              `json:"ok"`
	User  models.PublicUser `json:"user"`
	Token string            `json:"token"`
}

type meResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// handleSignup handles POST /api/users.
func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	var req signupRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		s.logger.Warn().Err(err).Msg("Invalid signup body")
		WriteMessage(w, http.StatusBadRequest, "Missing required fields")
		return
	}

	result, err := s.app.AuthService.Signup(r.Context(), req.Name, req.Email, req.Password)
	switch {
	case errors.Is(err, auth.ErrMissingField):
		WriteMessage(w, http.StatusBadRequest, "Missing required fields")
		return
	case errors.Is(err, auth.ErrDuplicateUser):
		WriteMessage(w, http.StatusConflict, "User already exists")
		return
	case err != nil:
		s.logger.Error().Err(err).Msg("Signup failed")
		WriteMessage(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	WriteJSON(w, http.StatusCreated, authResponse{OK: true, User: result.User, Token: result.Token})
}

// handleLogin handles POST /api/users/login.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	var req loginRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		s.logger.Warn().Err(err).Msg("Invalid login body")
		WriteMessage(w, http.StatusBadRequest, "Missing email or password")
		return
	}

	result, err := s.app.AuthService.Login(r.Context(), req.Email, req.Password)
	switch {
	case errors.Is(err, auth.ErrMissingField):
		WriteMessage(w, http.StatusBadRequest, "Missing email or password")
		return
	case errors.Is(err, auth.ErrInvalidCredentials):
		WriteMessage(w, http.StatusUnauthorized, "Invalid email or password")
		return
	case err != nil:
		s.logger.Error().Err(err).Msg("Login failed")
		WriteMessage(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	WriteJSON(w, http.StatusOK, authResponse{OK: true, User: result.User, Token: result.Token})
}

// handleMe handles GET /api/users/me.
func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	user, err := s.app.AuthService.ResolveHeader(r.Context(), r.Header.Get("Authorization"))
	switch {
	case errors.Is(err, auth.ErrNoToken):
		WriteMessage(w, http.StatusUnauthorized, "No token provided")
		return
	case errors.Is(err, auth.ErrUserNotFound):
		WriteMessage(w, http.StatusNotFound, "User not found")
		return
	case errors.Is(err, auth.ErrUnauthorized):
		WriteMessage(w, http.StatusUnauthorized, "Invalid token")
		return
	case err != nil:
		s.logger.Error().Err(err).Msg("Token resolution failed")
		WriteMessage(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	WriteJSON(w, http.StatusOK, meResponse{
		ID:        user.UserID,
		Name:      user.Name,
		Email:     user.Email,
		CreatedAt: user.CreatedAt,
	})
}
