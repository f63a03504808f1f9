// Package gesture turns hand landmarks into fingerspelled letters: a rule
// cascade over hand geometry, a trainable nearest-neighbour model, and a
// vote-based stabilizer that produces a debounced letter stream.
package gesture

import (
	"math"

	"github.com/ayusman/signbridge/internal/detector"
)

// Finger identifies one of the five fingers.
type Finger int

const (
	Thumb Finger = iota
	Index
	Middle
	Ring
	Pinky
)

var (
	fingerTips = [5]int{detector.ThumbTip, detector.IndexTip, detector.MiddleTip, detector.RingTip, detector.PinkyTip}
	fingerPIPs = [5]int{detector.ThumbIP, detector.IndexPIP, detector.MiddlePIP, detector.RingPIP, detector.PinkyPIP}
	fingerMCPs = [5]int{detector.ThumbMCP, detector.IndexMCP, detector.MiddleMCP, detector.RingMCP, detector.PinkyMCP}
)

// ExtensionMask holds one bit per finger, thumb in bit 0.
type ExtensionMask uint8

// Has reports whether finger f is set.
func (m ExtensionMask) Has(f Finger) bool {
	return m&(1<<uint(f)) != 0
}

// Only reports whether, among the four non-thumb fingers, exactly the
// given ones are set. The thumb bit is ignored.
func (m ExtensionMask) Only(fingers ...Finger) bool {
	var want ExtensionMask
	for _, f := range fingers {
		want |= 1 << uint(f)
	}
	const nonThumb = ExtensionMask(0b11110)
	return m&nonThumb == want&nonThumb
}

// Features are the geometric measurements the rule cascade reads.
type Features struct {
	PalmSize float64
	// Ratios holds the extension ratio of each finger.
	Ratios  [5]float64
	Lenient ExtensionMask
	Strict  ExtensionMask

	ThumbOut      bool
	ThumbSideways bool
	ThumbFolded   bool

	IndexMiddleSpread   bool
	IndexMiddleTogether bool

	// PinchDistance is the absolute thumb tip to index tip distance.
	PinchDistance float64
}

// ExtractFeatures measures a hand frame. It fails with
// detector.ErrDegenerateGeometry when the palm size is below
// detector.MinPalmSize, and detector.ErrInvalidFrame for a nil frame.
func ExtractFeatures(h *detector.HandLandmarks) (Features, error) {
	var f Features
	if h == nil {
		return f, detector.ErrInvalidFrame
	}

	p := &h.Points
	f.PalmSize = h.PalmSize()
	if !detector.ValidPalmSize(f.PalmSize) {
		return f, detector.ErrDegenerateGeometry
	}

	for i := range f.Ratios {
		f.Ratios[i] = segmentRatio(p[fingerTips[i]], p[fingerPIPs[i]], p[fingerMCPs[i]])
		if f.Ratios[i] > LenientExtension {
			f.Lenient |= 1 << uint(i)
		}
		if f.Ratios[i] > StrictExtension {
			f.Strict |= 1 << uint(i)
		}
	}

	// Thumb: the IP joint plays the role of the PIP for the other fingers.
	f.ThumbOut = segmentRatio(p[detector.ThumbTip], p[detector.ThumbIP], p[detector.ThumbMCP]) > ThumbOutRatio
	f.ThumbSideways = detector.Distance(p[detector.ThumbTip], p[detector.Wrist]) >
		ThumbSidewaysFactor*detector.Distance(p[detector.ThumbMCP], p[detector.Wrist])
	palmCenter := detector.Midpoint(p[detector.IndexMCP], p[detector.MiddleMCP])
	f.ThumbFolded = detector.Distance(p[detector.ThumbTip], palmCenter) < ThumbFoldedFactor*f.PalmSize

	tipGap := detector.Distance(p[detector.IndexTip], p[detector.MiddleTip])
	mcpGap := math.Max(detector.Distance(p[detector.IndexMCP], p[detector.MiddleMCP]), MinSegment)
	f.IndexMiddleSpread = tipGap > SpreadFactor*mcpGap
	f.IndexMiddleTogether = tipGap < TogetherFactor*f.PalmSize

	f.PinchDistance = detector.Distance(p[detector.ThumbTip], p[detector.IndexTip])

	return f, nil
}

// segmentRatio returns |tip-mid| / |mid-base| with the denominator floored.
func segmentRatio(tip, mid, base detector.Point3D) float64 {
	return detector.Distance(tip, mid) / math.Max(detector.Distance(mid, base), MinSegment)
}
