package api

import (
	"errors"
	"net/http"

	"github.com/ayusman/keysight/internal/store"
)

// SessionHandler handles HTTP requests for practice sessions.
type SessionHandler struct {
	store *store.Store
}

// NewSessionHandler creates a new SessionHandler with the given store.
func NewSessionHandler(s *store.Store) *SessionHandler {
	return &SessionHandler{store: s}
}

// ServeHTTP routes /api/sessions, /api/sessions/{id} and the
// /attributions and /summary sub-resources of a session.
func (h *SessionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id, sub := splitPath(r.URL.Path, "/api/sessions")

	if id == "" {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.list(w, r)
		return
	}

	switch sub {
	case "":
		switch r.Method {
		case http.MethodGet:
			h.get(w, r, id)
		case http.MethodDelete:
			h.delete(w, r, id)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	case "attributions":
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.attributions(w, r, id)
	case "summary":
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.summary(w, r, id)
	default:
		writeError(w, http.StatusNotFound, "Unknown session resource")
	}
}

type sessionResponse struct {
	ID            string `json:"id"`
	CalibrationID string `json:"calibration_id,omitempty"`
	Exercise      string `json:"exercise,omitempty"`
	StartedAt     string `json:"started_at"`
	EndedAt       string `json:"ended_at,omitempty"`
}

type listSessionsResponse struct {
	Sessions []sessionResponse `json:"sessions"`
}

type listAttributionsResponse struct {
	Attributions []*store.Attribution `json:"attributions"`
}

func toSessionResponse(s *store.Session) sessionResponse {
	resp := sessionResponse{
		ID:            s.ID,
		CalibrationID: s.CalibrationID,
		Exercise:      s.Exercise,
		StartedAt:     formatTime(s.StartedAt),
	}
	if s.EndedAt != nil {
		resp.EndedAt = formatTime(*s.EndedAt)
	}
	return resp
}

// list handles GET /api/sessions.
func (h *SessionHandler) list(w http.ResponseWriter, r *http.Request) {
	sessions, err := h.store.Sessions().List()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list sessions")
		return
	}

	response := listSessionsResponse{
		Sessions: make([]sessionResponse, 0, len(sessions)),
	}
	for _, s := range sessions {
		response.Sessions = append(response.Sessions, toSessionResponse(s))
	}

	writeJSON(w, http.StatusOK, response)
}

// get handles GET /api/sessions/{id}.
func (h *SessionHandler) get(w http.ResponseWriter, r *http.Request, id string) {
	s, err := h.store.Sessions().GetByID(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Session not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get session")
		return
	}

	writeJSON(w, http.StatusOK, toSessionResponse(s))
}

// delete handles DELETE /api/sessions/{id}.
func (h *SessionHandler) delete(w http.ResponseWriter, r *http.Request, id string) {
	if err := h.store.Sessions().Delete(id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Session not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to delete session")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// attributions handles GET /api/sessions/{id}/attributions.
func (h *SessionHandler) attributions(w http.ResponseWriter, r *http.Request, id string) {
	if _, err := h.store.Sessions().GetByID(id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Session not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get session")
		return
	}

	list, err := h.store.Attributions().ListBySession(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list attributions")
		return
	}
	if list == nil {
		list = []*store.Attribution{}
	}

	writeJSON(w, http.StatusOK, listAttributionsResponse{Attributions: list})
}

// summary handles GET /api/sessions/{id}/summary.
func (h *SessionHandler) summary(w http.ResponseWriter, r *http.Request, id string) {
	if _, err := h.store.Sessions().GetByID(id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Session not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get session")
		return
	}

	summary, err := h.store.Attributions().Summarize(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to summarize session")
		return
	}

	writeJSON(w, http.StatusOK, summary)
}
