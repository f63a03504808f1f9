package api

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/ayusman/signbridge/internal/detector"
	"github.com/ayusman/signbridge/internal/gesture"
)

// SamplesHandler exposes the shared training sample set.
type SamplesHandler struct {
	samples *gesture.SampleStore
	logger  *zap.Logger
}

// NewSamplesHandler creates a new SamplesHandler backed by samples.
func NewSamplesHandler(samples *gesture.SampleStore, logger *zap.Logger) *SamplesHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SamplesHandler{samples: samples, logger: logger}
}

type addSampleRequest struct {
	Letter string `json:"letter"`
	frameRequest
}

type addSampleResponse struct {
	Letter    string `json:"letter"`
	Count     int    `json:"count"`
	Persisted bool   `json:"persisted"`
}

type statusResponse struct {
	Counts  map[string]int        `json:"counts"`
	Letters []gesture.LetterCount `json:"letters"`
	Total   int                   `json:"total"`
	Trained bool                  `json:"trained"`
}

// Status handles GET /api/samples.
func (h *SamplesHandler) Status(w http.ResponseWriter, r *http.Request) {
	status := h.samples.Status()
	counts := make(map[string]int, len(status.Letters))
	for _, lc := range status.Letters {
		counts[lc.Letter] = lc.Count
	}
	writeJSON(w, http.StatusOK, statusResponse{
		Counts:  counts,
		Letters: status.Letters,
		Total:   status.Total,
		Trained: status.Trained,
	})
}

// Add handles POST /api/samples. A sample that could not be persisted is
// still kept in memory and reported with persisted=false.
func (h *SamplesHandler) Add(w http.ResponseWriter, r *http.Request) {
	var req addSampleRequest
	hand, err := decodeFrame(r, &req)
	if err != nil {
		if errors.Is(err, errInvalidJSON) {
			writeError(w, http.StatusBadRequest, "Invalid JSON")
			return
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	letter, err := gesture.NormalizeLetter(req.Letter)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	persisted := true
	if err := h.samples.Add(letter, hand); err != nil {
		switch {
		case errors.Is(err, gesture.ErrStorePersistence):
			h.logger.Warn("sample not persisted", zap.String("letter", letter), zap.Error(err))
			persisted = false
		case errors.Is(err, detector.ErrDegenerateGeometry):
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		case errors.Is(err, detector.ErrInvalidFrame), errors.Is(err, gesture.ErrInvalidLetter):
			writeError(w, http.StatusBadRequest, err.Error())
			return
		default:
			writeError(w, http.StatusInternalServerError, "Failed to add sample")
			return
		}
	}

	writeJSON(w, http.StatusCreated, addSampleResponse{
		Letter:    letter,
		Count:     h.samples.Counts()[letter],
		Persisted: persisted,
	})
}

// Clear handles DELETE /api/samples.
func (h *SamplesHandler) Clear(w http.ResponseWriter, r *http.Request) {
	if err := h.samples.Clear(); err != nil {
		if !errors.Is(err, gesture.ErrStorePersistence) {
			writeError(w, http.StatusInternalServerError, "Failed to clear samples")
			return
		}
		h.logger.Warn("sample clear not persisted", zap.Error(err))
	}
	w.WriteHeader(http.StatusNoContent)
}
