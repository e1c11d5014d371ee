package server

import (
	"net/http"
	"strings"

	"github.com/vrautomations/cryptotrack/internal/common"
)

const rootBanner = "🚀 Crypto Tracker Backend is running."

// registerRoutes sets up all REST API routes on the mux.
func (s *Server) registerRoutes(mux *http.ServeMux) {
	// System
	mux.HandleFunc("/api/health", s.handleHealth)
	mux.HandleFunc("/api/version", s.handleVersion)

	// Market data
	mux.HandleFunc("/api/coins", s.handleCoins)
	mux.HandleFunc("/api/coins/current", s.handleCoinsCurrent)
	mux.HandleFunc("/api/history", s.handleSnapshot)
	mux.HandleFunc("/api/history/", s.handleHistory)

	// Users
	mux.HandleFunc("/api/users", s.handleSignup)
	mux.HandleFunc("/api/users/", s.routeUsers)

	mux.HandleFunc("/", s.handleRoot)
}

// handleRoot serves the liveness banner on "/" and the JSON 404 everywhere else.
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		WriteMessage(w, http.StatusNotFound, "Endpoint not found")
		return
	}
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(rootBanner))
}

// routeUsers dispatches /api/users/{action}.
func (s *Server) routeUsers(w http.ResponseWriter, r *http.Request) {
	switch strings.TrimPrefix(r.URL.Path, "/api/users/") {
	case "login":
		s.handleLogin(w, r)
	case "me":
		s.handleMe(w, r)
	case "":
		s.handleSignup(w, r)
	default:
		WriteMessage(w, http.StatusNotFound, "Endpoint not found")
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}
	WriteJSON(w, http.StatusOK, common.GetVersionInfo())
}
