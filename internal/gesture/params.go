package gesture

import (
	"fmt"
	"time"
)

// Geometric thresholds. All distances are relative to palm size unless
// stated otherwise. Changing any of these changes which letter a hand
// shape produces.
const (
	// LenientExtension is the extension ratio above which a finger counts as raised.
	LenientExtension = 0.78
	// StrictExtension is the extension ratio above which a finger counts as straight.
	StrictExtension = 0.95
	// MinSegment floors the extension ratio denominators.
	MinSegment = 0.01

	// ThumbOutRatio is the tip-IP over IP-MCP ratio above which the thumb is out.
	ThumbOutRatio = 0.75
	// ThumbSidewaysFactor compares wrist-tip against wrist-MCP distance.
	ThumbSidewaysFactor = 1.1
	// ThumbFoldedFactor bounds the tip to palm-center distance.
	ThumbFoldedFactor = 0.7

	// SpreadFactor compares index-middle tip distance against their MCP distance.
	SpreadFactor = 1.2
	// TogetherFactor bounds the index-middle tip distance.
	TogetherFactor = 0.4

	// PinchO bounds the thumb-index tip distance for O.
	PinchO = 0.42
	// PinchF bounds the thumb-index tip distance for F.
	PinchF = 0.55
)

// Fixed confidence tiers reported by the rule classifier.
const (
	ConfidenceLow  = 0.58
	ConfidenceMid  = 0.72
	ConfidenceHigh = 0.88
)

// Nearest-neighbour output bounds and distance slope.
const (
	MinModelConfidence = 0.5
	MaxModelConfidence = 0.95
	DistancePenalty    = 0.4
)

// Params groups the tunable knobs of the classifier arbiter, nearest
// neighbour, stabilizer and training recorder.
type Params struct {
	// KNeighbors is the number of nearest samples consulted per query.
	KNeighbors int
	// MinTotalSamples and MinSamplesPerLetter define model readiness
	// together with MinTrainedLetters.
	MinTotalSamples     int
	MinSamplesPerLetter int
	MinTrainedLetters   int

	// ModelMinConfidence is the confidence a model answer needs to shadow the rules.
	ModelMinConfidence float64

	// VoteWindow is the vote buffer capacity.
	VoteWindow int
	// VoteMajority is the number of identical votes that makes a letter stable.
	VoteMajority int
	// MinVoteConfidence is the confidence below which a vote counts as no letter.
	MinVoteConfidence float64
	// Hold is the minimum time before the same letter may be emitted again.
	Hold time.Duration

	// RecordingTarget is the number of samples one recording collects.
	RecordingTarget int
	// RecordingInterval is the minimum spacing between recorded samples.
	RecordingInterval time.Duration
}

// DefaultParams returns the reference parameter set.
func DefaultParams() Params {
	return Params{
		KNeighbors:          5,
		MinTotalSamples:     10,
		MinSamplesPerLetter: 5,
		MinTrainedLetters:   2,
		ModelMinConfidence:  0.55,
		VoteWindow:          8,
		VoteMajority:        5,
		MinVoteConfidence:   0.5,
		Hold:                500 * time.Millisecond,
		RecordingTarget:     15,
		RecordingInterval:   180 * time.Millisecond,
	}
}

// Validate reports the first inconsistent parameter.
func (p Params) Validate() error {
	switch {
	case p.KNeighbors < 1:
		return fmt.Errorf("k neighbors must be positive, got %d", p.KNeighbors)
	case p.MinTotalSamples < 1 || p.MinSamplesPerLetter < 1 || p.MinTrainedLetters < 1:
		return fmt.Errorf("sample minima must be positive")
	case p.ModelMinConfidence < 0 || p.ModelMinConfidence > 1:
		return fmt.Errorf("model min confidence must be in [0,1], got %g", p.ModelMinConfidence)
	case p.VoteWindow < 1:
		return fmt.Errorf("vote window must be positive, got %d", p.VoteWindow)
	case p.VoteMajority*2 <= p.VoteWindow || p.VoteMajority > p.VoteWindow:
		return fmt.Errorf("vote majority %d must be a strict majority of window %d", p.VoteMajority, p.VoteWindow)
	case p.MinVoteConfidence < 0 || p.MinVoteConfidence > 1:
		return fmt.Errorf("min vote confidence must be in [0,1], got %g", p.MinVoteConfidence)
	case p.Hold < 0:
		return fmt.Errorf("hold must not be negative")
	case p.RecordingTarget < 1:
		return fmt.Errorf("recording target must be positive, got %d", p.RecordingTarget)
	case p.RecordingInterval < 0:
		return fmt.Errorf("recording interval must not be negative")
	}
	return nil
}
