package gesture

import "github.com/ayusman/signbridge/internal/detector"

// Arbiter prefers the trained model and falls back to the rule cascade.
type Arbiter struct {
	rules  Classifier
	model  Classifier
	params Params
}

// NewArbiter creates an Arbiter. model may be nil, in which case only the
// rules are used.
func NewArbiter(rules, model Classifier, params Params) *Arbiter {
	return &Arbiter{rules: rules, model: model, params: params}
}

// Classify returns the model result when it carries a letter with at least
// ModelMinConfidence, otherwise the rule result. The model reports nothing
// until its store is trained.
func (a *Arbiter) Classify(hand *detector.HandLandmarks) Result {
	if hand == nil {
		return Result{}
	}
	if a.model != nil {
		if r := a.model.Classify(hand); r.HasLetter() && r.Confidence >= a.params.ModelMinConfidence {
			return r
		}
	}
	return a.rules.Classify(hand)
}
