// Package api provides the HTTP handlers for stored calibrations, practice
// sessions and their attributions.
package api

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"
)

type errorResponse struct {
	Error string `json:"error"`
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// splitPath trims prefix from path and splits the rest into at most two
// segments: an id and a sub-resource.
func splitPath(path, prefix string) (id, sub string) {
	rest := strings.Trim(strings.TrimPrefix(path, prefix), "/")
	id, sub, _ = strings.Cut(rest, "/")
	return id, sub
}

func formatTime(t time.Time) string {
	return t.Format(time.RFC3339)
}
