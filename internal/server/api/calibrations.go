package api

import (
	"errors"
	"net/http"

	"github.com/ayusman/keysight/internal/calibrate"
	"github.com/ayusman/keysight/internal/store"
)

// latestID addresses the most recent calibration.
const latestID = "latest"

// CalibrationHandler handles HTTP requests for stored calibrations.
type CalibrationHandler struct {
	store *store.Store
}

// NewCalibrationHandler creates a new CalibrationHandler with the given store.
func NewCalibrationHandler(s *store.Store) *CalibrationHandler {
	return &CalibrationHandler{store: s}
}

// ServeHTTP routes /api/calibrations and /api/calibrations/{id}, where id
// may be "latest".
func (h *CalibrationHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id, sub := splitPath(r.URL.Path, "/api/calibrations")
	if sub != "" {
		writeError(w, http.StatusNotFound, "Unknown calibration resource")
		return
	}

	if id == "" {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.list(w, r)
		return
	}

	switch r.Method {
	case http.MethodGet:
		h.get(w, r, id)
	case http.MethodDelete:
		h.delete(w, r, id)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

type calibrationResponse struct {
	ID         string               `json:"id"`
	ImagePath  string               `json:"image_path,omitempty"`
	Band       calibrate.Band       `json:"band"`
	Edges      calibrate.Edges      `json:"edges"`
	Homography calibrate.Homography `json:"homography"`
	Width      int                  `json:"width"`
	Height     int                  `json:"height"`
	CreatedAt  string               `json:"created_at"`
}

type listCalibrationsResponse struct {
	Calibrations []calibrationResponse `json:"calibrations"`
}

func toCalibrationResponse(c *store.CalibrationRecord) calibrationResponse {
	return calibrationResponse{
		ID:         c.ID,
		ImagePath:  c.ImagePath,
		Band:       c.Calibration.Band,
		Edges:      c.Calibration.Edges,
		Homography: c.Calibration.Homography,
		Width:      c.Calibration.Width,
		Height:     c.Calibration.Height,
		CreatedAt:  formatTime(c.CreatedAt),
	}
}

// list handles GET /api/calibrations.
func (h *CalibrationHandler) list(w http.ResponseWriter, r *http.Request) {
	list, err := h.store.Calibrations().List()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list calibrations")
		return
	}

	response := listCalibrationsResponse{
		Calibrations: make([]calibrationResponse, 0, len(list)),
	}
	for _, c := range list {
		response.Calibrations = append(response.Calibrations, toCalibrationResponse(c))
	}

	writeJSON(w, http.StatusOK, response)
}

// get handles GET /api/calibrations/{id}.
func (h *CalibrationHandler) get(w http.ResponseWriter, r *http.Request, id string) {
	var (
		c   *store.CalibrationRecord
		err error
	)
	if id == latestID {
		c, err = h.store.Calibrations().Latest()
	} else {
		c, err = h.store.Calibrations().GetByID(id)
	}
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Calibration not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get calibration")
		return
	}

	writeJSON(w, http.StatusOK, toCalibrationResponse(c))
}

// delete handles DELETE /api/calibrations/{id}.
func (h *CalibrationHandler) delete(w http.ResponseWriter, r *http.Request, id string) {
	if err := h.store.Calibrations().Delete(id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Calibration not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to delete calibration")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
