package api

import (
	"errors"
	"net/http"

	"github.com/ayusman/signbridge/internal/gesture"
)

// ClassifyHandler classifies single frames without a session.
type ClassifyHandler struct {
	classifier gesture.Classifier
	rules      *gesture.RuleClassifier
}

// NewClassifyHandler creates a handler. rules is used to name the matching
// rule when the answer came from the rule cascade and may be nil.
func NewClassifyHandler(classifier gesture.Classifier, rules *gesture.RuleClassifier) *ClassifyHandler {
	return &ClassifyHandler{classifier: classifier, rules: rules}
}

// Classify handles POST /api/classify.
func (h *ClassifyHandler) Classify(w http.ResponseWriter, r *http.Request) {
	var req frameRequest
	hand, err := decodeFrame(r, &req)
	if err != nil {
		if errors.Is(err, errInvalidJSON) {
			writeError(w, http.StatusBadRequest, "Invalid JSON")
			return
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	result := h.classifier.Classify(hand)
	resp := toResult(result)
	if result.Source == gesture.SourceRules && h.rules != nil {
		resp.Rule = h.rules.Explain(hand)
	}
	writeJSON(w, http.StatusOK, resp)
}

func toResult(r gesture.Result) resultResponse {
	if !r.HasLetter() {
		return resultResponse{}
	}
	letter := r.Letter
	return resultResponse{
		Letter:     &letter,
		Confidence: r.Confidence,
		Source:     string(r.Source),
	}
}
