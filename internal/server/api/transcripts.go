package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ayusman/signbridge/internal/store"
)

// TranscriptStore is the subset of store.TranscriptRepository used here.
type TranscriptStore interface {
	GetByID(id string) (*store.Transcript, error)
	List(limit int) ([]*store.Transcript, error)
	Delete(id string) error
}

// TranscriptsHandler serves committed letter streams.
type TranscriptsHandler struct {
	transcripts TranscriptStore
}

// NewTranscriptsHandler creates a new TranscriptsHandler.
func NewTranscriptsHandler(transcripts TranscriptStore) *TranscriptsHandler {
	return &TranscriptsHandler{transcripts: transcripts}
}

type transcriptResponse struct {
	ID        string `json:"id"`
	SessionID string `json:"session_id"`
	Text      string `json:"text"`
	Source    string `json:"source"`
	CreatedAt string `json:"created_at"`
}

type listTranscriptsResponse struct {
	Transcripts []transcriptResponse `json:"transcripts"`
}

func toTranscript(t *store.Transcript) transcriptResponse {
	return transcriptResponse{
		ID:        t.ID,
		SessionID: t.SessionID,
		Text:      t.Text,
		Source:    t.Source,
		CreatedAt: t.CreatedAt.Format(time.RFC3339),
	}
}

// List handles GET /api/transcripts, newest first. The optional limit
// query parameter caps the result.
func (h *TranscriptsHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "Invalid limit")
			return
		}
		limit = n
	}

	transcripts, err := h.transcripts.List(limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list transcripts")
		return
	}

	response := listTranscriptsResponse{
		Transcripts: make([]transcriptResponse, 0, len(transcripts)),
	}
	for _, t := range transcripts {
		response.Transcripts = append(response.Transcripts, toTranscript(t))
	}
	writeJSON(w, http.StatusOK, response)
}

// Get handles GET /api/transcripts/{id}.
func (h *TranscriptsHandler) Get(w http.ResponseWriter, r *http.Request) {
	t, err := h.transcripts.GetByID(chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Transcript not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get transcript")
		return
	}
	writeJSON(w, http.StatusOK, toTranscript(t))
}

// Delete handles DELETE /api/transcripts/{id}.
func (h *TranscriptsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.transcripts.Delete(chi.URLParam(r, "id")); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Transcript not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to delete transcript")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
