package gesture

import (
	"cmp"
	"math"
	"slices"

	"github.com/ayusman/signbridge/internal/detector"
)

// NearestNeighbor classifies frames by weighted vote among the k closest
// training samples.
type NearestNeighbor struct {
	store  *SampleStore
	params Params
}

// NewNearestNeighbor creates a classifier backed by store.
func NewNearestNeighbor(store *SampleStore, params Params) *NearestNeighbor {
	return &NearestNeighbor{store: store, params: params}
}

type neighbor struct {
	letter   string
	distance float64
}

// Classify returns an empty Result when the store is not trained or the
// frame cannot be normalized. Otherwise each of the k nearest samples
// votes for its letter with weight 1/(1+distance); the heaviest letter wins
// and equal weights go to the alphabetically first letter.
func (n *NearestNeighbor) Classify(hand *detector.HandLandmarks) Result {
	samples := n.store.Snapshot()
	if !trained(samples, n.params) {
		return Result{}
	}

	query, err := hand.Normalize()
	if err != nil {
		return Result{}
	}

	neighbors := make([]neighbor, len(samples))
	for i := range samples {
		neighbors[i] = neighbor{
			letter:   samples[i].Letter,
			distance: detector.EuclideanDistance(&query, &samples[i].Vector),
		}
	}
	slices.SortStableFunc(neighbors, func(a, b neighbor) int {
		return cmp.Compare(a.distance, b.distance)
	})

	k := min(n.params.KNeighbors, len(neighbors))
	nearest := neighbors[:k]

	weights := make(map[string]float64)
	var sum float64
	for _, nb := range nearest {
		weights[nb.letter] += 1 / (1 + nb.distance)
		sum += nb.distance
	}

	var best string
	bestWeight := -1.0
	for letter, w := range weights {
		if w > bestWeight || (w == bestWeight && letter < best) {
			best, bestWeight = letter, w
		}
	}

	return Result{
		Letter:     best,
		Confidence: modelConfidence(sum / float64(k)),
		Source:     SourceModel,
	}
}

func modelConfidence(meanDistance float64) float64 {
	c := 1 - meanDistance*DistancePenalty
	return math.Max(MinModelConfidence, math.Min(MaxModelConfidence, c))
}
