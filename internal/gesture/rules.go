package gesture

import "github.com/ayusman/signbridge/internal/detector"

// Source names the classifier that produced a Result.
type Source string

const (
	SourceRules Source = "rules"
	SourceModel Source = "model"
)

// Result is one classification. An empty Letter means no letter, in which
// case Confidence is 0.
type Result struct {
	Letter     string  `json:"letter,omitempty"`
	Confidence float64 `json:"confidence"`
	Source     Source  `json:"source,omitempty"`
}

// HasLetter reports whether r carries a letter.
func (r Result) HasLetter() bool {
	return r.Letter != ""
}

// Classifier maps one hand frame to a letter.
type Classifier interface {
	Classify(hand *detector.HandLandmarks) Result
}

type rule struct {
	name  string
	match func(f *Features) bool
	// emit returns the letter and confidence once match succeeded.
	emit func(f *Features) (string, float64)
}

func fixed(letter string, confidence float64) func(*Features) (string, float64) {
	return func(*Features) (string, float64) { return letter, confidence }
}

func allFolded(f *Features) bool { return f.Lenient.Only() }
func indexOnly(f *Features) bool { return f.Lenient.Only(Index) }

// letterRules is evaluated top to bottom and the first match wins. Several
// predicates overlap (C, O and F all accept a raised index with the thumb
// out), so the order decides the letter.
var letterRules = []rule{
	{
		name:  "fist-thumb-side",
		match: func(f *Features) bool { return allFolded(f) && f.ThumbSideways },
		emit:  fixed("A", ConfidenceHigh),
	},
	{
		name:  "flat-hand",
		match: func(f *Features) bool { return f.Strict.Only(Index, Middle, Ring, Pinky) && f.ThumbFolded },
		emit:  fixed("B", ConfidenceHigh),
	},
	{
		name:  "cupped-index",
		match: func(f *Features) bool { return f.ThumbOut && indexOnly(f) && !f.Strict.Has(Index) },
		emit:  fixed("C", ConfidenceMid),
	},
	{
		name:  "index-up",
		match: func(f *Features) bool { return indexOnly(f) && !f.ThumbOut },
		emit:  fixed("D", ConfidenceMid),
	},
	{
		name:  "fist-thumb-in",
		match: func(f *Features) bool { return allFolded(f) && !f.ThumbSideways },
		emit:  fixed("E", ConfidenceMid),
	},
	{
		name: "ring-pinch",
		match: func(f *Features) bool {
			return f.ThumbOut && indexOnly(f) && f.PinchDistance < PinchO*f.PalmSize
		},
		emit: fixed("O", ConfidenceMid),
	},
	{
		name: "ok-pinch",
		match: func(f *Features) bool {
			return f.ThumbOut && indexOnly(f) && f.PinchDistance < PinchF*f.PalmSize
		},
		emit: fixed("F", ConfidenceMid),
	},
	{
		name:  "pinky-up",
		match: func(f *Features) bool { return f.Lenient.Only(Pinky) },
		emit:  fixed("I", ConfidenceHigh),
	},
	{
		name:  "index-thumb",
		match: func(f *Features) bool { return indexOnly(f) && f.ThumbOut },
		emit:  fixed("L", ConfidenceHigh),
	},
	{
		name:  "two-fingers",
		match: func(f *Features) bool { return f.Lenient.Only(Index, Middle) },
		emit: func(f *Features) (string, float64) {
			switch {
			case f.ThumbOut:
				return "K", ConfidenceMid
			case f.IndexMiddleTogether:
				return "H", ConfidenceMid
			case f.IndexMiddleSpread:
				return "V", ConfidenceHigh
			default:
				return "U", ConfidenceMid
			}
		},
	},
	{
		name:  "three-fingers",
		match: func(f *Features) bool { return f.Lenient.Only(Index, Middle, Ring) },
		emit:  fixed("W", ConfidenceHigh),
	},
	{
		name:  "thumb-pinky",
		match: func(f *Features) bool { return f.Lenient.Only(Pinky) && f.ThumbOut },
		emit:  fixed("Y", ConfidenceHigh),
	},
}

// RuleClassifier classifies hand frames with a fixed geometric rule cascade.
// It holds no state and is safe for concurrent use.
type RuleClassifier struct{}

// NewRuleClassifier creates a RuleClassifier.
func NewRuleClassifier() *RuleClassifier {
	return &RuleClassifier{}
}

// Classify returns the letter of the first matching rule. Frames that are
// nil, degenerate or match no rule yield an empty Result.
func (c *RuleClassifier) Classify(hand *detector.HandLandmarks) Result {
	f, err := ExtractFeatures(hand)
	if err != nil {
		return Result{}
	}
	letter, confidence, _ := evaluate(&f)
	if letter == "" {
		return Result{}
	}
	return Result{Letter: letter, Confidence: confidence, Source: SourceRules}
}

// Explain returns the name of the rule that matches hand, or "" if none
// does. It is meant for diagnostics.
func (c *RuleClassifier) Explain(hand *detector.HandLandmarks) string {
	f, err := ExtractFeatures(hand)
	if err != nil {
		return ""
	}
	_, _, name := evaluate(&f)
	return name
}

func evaluate(f *Features) (string, float64, string) {
	for _, r := range letterRules {
		if r.match(f) {
			letter, confidence := r.emit(f)
			return letter, confidence, r.name
		}
	}
	return "", 0, ""
}
