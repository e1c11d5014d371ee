package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
)

// ErrorResponse is the error format of the data endpoints.
type ErrorResponse struct {
	Error string `json:"error"`
}

// MessageResponse is the error format of the account endpoints and the
// catch-all handlers.
type MessageResponse struct {
	Message string `json:"message"`
}

// WriteJSON writes a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

// WriteError writes a JSON {"error": ...} response.
func WriteError(w http.ResponseWriter, statusCode int, message string) {
	WriteJSON(w, statusCode, ErrorResponse{Error: message})
}

// WriteMessage writes a JSON {"message": ...} response.
func WriteMessage(w http.ResponseWriter, statusCode int, message string) {
	WriteJSON(w, statusCode, MessageResponse{Message: message})
}

// RequireMethod validates the HTTP method and returns true if it matches.
// If it doesn't match, it writes a 405 response and returns false.
func RequireMethod(w http.ResponseWriter, r *http.Request, methods ...string) bool {
	for _, m := range methods {
		if r.Method == m {
			return true
		}
	}
	w.Header().Set("Allow", strings.Join(methods, ", "))
	WriteMessage(w, http.StatusMethodNotAllowed, "Method not allowed")
	return false
}

// DecodeJSON decodes the request body into v. An empty body leaves v
// unchanged so the caller's required-field checks report it. Decoder
// errors are returned for logging and are not meant for the client.
func DecodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	if r.Body == nil || r.Body == http.NoBody {
		return nil
	}
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1MB limit
	if err := json.NewDecoder(r.Body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// PathParam extracts a path parameter from the URL path.
// For /api/history/{coinId}, PathParam(r, "/api/history/") returns the id.
// Anything after a further slash is dropped.
func PathParam(r *http.Request, prefix string) string {
	path := r.URL.Path
	if !strings.HasPrefix(path, prefix) {
		return ""
	}
	rest := path[len(prefix):]
	if idx := strings.Index(rest, "/"); idx >= 0 {
		return rest[:idx]
	}
	return rest
}
