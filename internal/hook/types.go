// Package hook runs external programs for every letter SignBridge emits.
//
// A hook lives in its own directory under the hooks dir and is described by
// a hook.json manifest. For each letter event the executable receives a
// Request as JSON on stdin and answers with a Response on stdout.
package hook

import "encoding/json"

// Manifest describes a hook's metadata.
type Manifest struct {
	Name        string          `json:"name"`
	Version     string          `json:"version"`
	Description string          `json:"description"`
	Executable  string          `json:"executable"`
	Letters     string          `json:"letters,omitempty"`
	Config      json.RawMessage `json:"config,omitempty"`
}

// Request is sent to a hook for one emitted letter.
type Request struct {
	Event      string          `json:"event"`
	SessionID  string          `json:"session_id"`
	Letter     string          `json:"letter"`
	Confidence float64         `json:"confidence"`
	Text       string          `json:"text"`
	Config     json.RawMessage `json:"config,omitempty"`
}

// Response is the hook's answer.
type Response struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Hook is a discovered hook with its manifest and location.
type Hook struct {
	Manifest   Manifest
	Path       string
	Executable string
}

// Accepts reports whether the hook wants letter. An empty Letters list
// accepts every letter.
func (h *Hook) Accepts(letter string) bool {
	if h.Manifest.Letters == "" {
		return true
	}
	for _, r := range h.Manifest.Letters {
		if string(r) == letter {
			return true
		}
	}
	return false
}
