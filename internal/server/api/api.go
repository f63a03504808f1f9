// Package api provides HTTP API handlers for SignBridge.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/ayusman/signbridge/internal/detector"
)

var errInvalidJSON = errors.New("invalid JSON")

type errorResponse struct {
	Error string `json:"error"`
}

// frameRequest carries one hand frame as a landmark list.
type frameRequest struct {
	Points []detector.Point3D `json:"points"`
}

// resultResponse is a classification result; Letter is null when nothing
// was recognized.
type resultResponse struct {
	Letter     *string `json:"letter"`
	Confidence float64 `json:"confidence"`
	Source     string  `json:"source,omitempty"`
	Rule       string  `json:"rule,omitempty"`
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

// framer is implemented by request bodies that carry a frame.
type framer interface {
	landmarks() []detector.Point3D
}

func (f frameRequest) landmarks() []detector.Point3D { return f.Points }

// decodeFrame reads a JSON body into req and converts its landmark list
// to a hand frame.
func decodeFrame(r *http.Request, req framer) (*detector.HandLandmarks, error) {
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		return nil, fmt.Errorf("%w: %w", errInvalidJSON, err)
	}
	return detector.FromPoints(req.landmarks())
}
