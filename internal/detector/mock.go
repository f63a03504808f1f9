package detector

import (
	"sort"

	"gocv.io/x/gocv"
)

// MockDetector is a test implementation of the Detector interface.
// It allows tests to control the detection results.
type MockDetector struct {
	hands []HandLandmarks
	err   error
	calls int
}

// NewMockDetector creates a new MockDetector instance.
func NewMockDetector() *MockDetector {
	return &MockDetector{}
}

// SetHands sets the hands that will be returned by Detect.
func (m *MockDetector) SetHands(hands []HandLandmarks) {
	m.hands = hands
}

// SetError sets the error that will be returned by Detect.
func (m *MockDetector) SetError(err error) {
	m.err = err
}

// Calls returns how many times Detect has been called.
func (m *MockDetector) Calls() int {
	return m.calls
}

// Detect returns the pre-configured hands or error.
func (m *MockDetector) Detect(frame *gocv.Mat) ([]HandLandmarks, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.hands, nil
}

// Close is a no-op for the mock detector.
func (m *MockDetector) Close() error {
	return nil
}

// Synthetic hand shapes. Coordinates put the wrist at the origin with the
// fingers pointing towards +Y and a palm size of exactly 1.0.

type fingerPose int

const (
	folded fingerPose = iota
	curved
	extended
)

var fingerBases = [4]Point3D{
	{X: -0.35, Y: 1.0},
	{X: 0.0, Y: 1.0},
	{X: 0.3, Y: 0.95},
	{X: 0.55, Y: 0.85},
}

// Thumb poses as MCP, IP, tip.
var (
	thumbSideways = [3]Point3D{{X: -0.6, Y: 0.45}, {X: -0.85, Y: 0.65}, {X: -1.05, Y: 0.85}}
	thumbAcross   = [3]Point3D{{X: -0.6, Y: 0.45}, {X: -0.45, Y: 0.7}, {X: -0.2, Y: 0.8}}
	thumbTucked   = [3]Point3D{{X: -0.6, Y: 0.45}, {X: -0.5, Y: 0.65}, {X: -0.4, Y: 0.6}}
	thumbRing     = [3]Point3D{{X: -0.6, Y: 0.45}, {X: -0.6, Y: 1.2}, {X: -0.4, Y: 1.85}}
	thumbOK       = [3]Point3D{{X: -0.6, Y: 0.45}, {X: -0.65, Y: 1.0}, {X: -0.68, Y: 1.68}}
	thumbCupped   = [3]Point3D{{X: -0.6, Y: 0.45}, {X: -0.55, Y: 1.1}, {X: -0.25, Y: 1.6}}
)

func buildHand(thumb [3]Point3D, poses [4]fingerPose) HandLandmarks {
	h := HandLandmarks{Handedness: "Right", Score: 0.95}
	h.Points[Wrist] = Point3D{}
	h.Points[ThumbCMC] = Point3D{X: -0.35, Y: 0.25}
	h.Points[ThumbMCP] = thumb[0]
	h.Points[ThumbIP] = thumb[1]
	h.Points[ThumbTip] = thumb[2]

	for f, base := range fingerBases {
		mcp := IndexMCP + f*4
		h.Points[mcp] = base
		switch poses[f] {
		case extended:
			h.Points[mcp+1] = Point3D{X: base.X, Y: base.Y + 0.45}
			h.Points[mcp+2] = Point3D{X: base.X, Y: base.Y + 0.75}
			h.Points[mcp+3] = Point3D{X: base.X, Y: base.Y + 1.0}
		case curved:
			h.Points[mcp+1] = Point3D{X: base.X, Y: base.Y + 0.4}
			h.Points[mcp+2] = Point3D{X: base.X + 0.1, Y: base.Y + 0.6}
			h.Points[mcp+3] = Point3D{X: base.X + 0.2, Y: base.Y + 0.68}
		default:
			h.Points[mcp+1] = Point3D{X: base.X, Y: base.Y + 0.4}
			h.Points[mcp+2] = Point3D{X: base.X, Y: base.Y + 0.3}
			h.Points[mcp+3] = Point3D{X: base.X, Y: base.Y + 0.2}
		}
	}
	return h
}

var letterShapes = map[string]func() HandLandmarks{
	"A": func() HandLandmarks {
		return buildHand(thumbSideways, [4]fingerPose{folded, folded, folded, folded})
	},
	"B": func() HandLandmarks {
		return buildHand(thumbAcross, [4]fingerPose{extended, extended, extended, extended})
	},
	"C": func() HandLandmarks {
		return buildHand(thumbSideways, [4]fingerPose{curved, folded, folded, folded})
	},
	"D": func() HandLandmarks {
		return buildHand(thumbTucked, [4]fingerPose{extended, folded, folded, folded})
	},
	"E": func() HandLandmarks {
		return buildHand(thumbTucked, [4]fingerPose{folded, folded, folded, folded})
	},
	"F": func() HandLandmarks {
		return buildHand(thumbOK, [4]fingerPose{extended, folded, folded, folded})
	},
	"H": func() HandLandmarks {
		return buildHand(thumbTucked, [4]fingerPose{extended, extended, folded, folded})
	},
	"I": func() HandLandmarks {
		return buildHand(thumbTucked, [4]fingerPose{folded, folded, folded, extended})
	},
	"K": func() HandLandmarks {
		return buildHand(thumbSideways, [4]fingerPose{extended, extended, folded, folded})
	},
	"L": func() HandLandmarks {
		return buildHand(thumbSideways, [4]fingerPose{extended, folded, folded, folded})
	},
	"O": func() HandLandmarks {
		return buildHand(thumbRing, [4]fingerPose{extended, folded, folded, folded})
	},
	"U": func() HandLandmarks {
		h := buildHand(thumbTucked, [4]fingerPose{extended, extended, folded, folded})
		// Index leans out just enough to stop touching the middle finger.
		h.Points[IndexPIP] = Point3D{X: -0.37, Y: 1.45}
		h.Points[IndexDIP] = Point3D{X: -0.39, Y: 1.75}
		h.Points[IndexTip] = Point3D{X: -0.41, Y: 2.0}
		return h
	},
	"V": func() HandLandmarks {
		h := buildHand(thumbTucked, [4]fingerPose{extended, extended, folded, folded})
		h.Points[IndexPIP] = Point3D{X: -0.45, Y: 1.42}
		h.Points[IndexDIP] = Point3D{X: -0.55, Y: 1.7}
		h.Points[IndexTip] = Point3D{X: -0.7, Y: 1.93}
		return h
	},
	"W": func() HandLandmarks {
		return buildHand(thumbTucked, [4]fingerPose{extended, extended, extended, folded})
	},
}

// LetterLandmarks returns a synthetic hand shaped as the given fingerspelled
// letter. The second result is false for letters without a fixture.
func LetterLandmarks(letter string) (HandLandmarks, bool) {
	build, ok := letterShapes[letter]
	if !ok {
		return HandLandmarks{}, false
	}
	return build(), true
}

// FixtureLetters lists the letters LetterLandmarks can build, sorted.
func FixtureLetters() []string {
	letters := make([]string, 0, len(letterShapes))
	for l := range letterShapes {
		letters = append(letters, l)
	}
	sort.Strings(letters)
	return letters
}

// CupWithPinchLandmarks returns a curved index finger whose tip touches the
// thumb tip. It satisfies both the C and the O predicates.
func CupWithPinchLandmarks() HandLandmarks {
	return buildHand(thumbCupped, [4]fingerPose{curved, folded, folded, folded})
}

// ThumbPinkyLandmarks returns the Y hand shape: thumb and pinky out.
func ThumbPinkyLandmarks() HandLandmarks {
	return buildHand(thumbSideways, [4]fingerPose{folded, folded, folded, extended})
}

// MiddleOnlyLandmarks returns a hand with only the middle finger raised,
// which matches no letter.
func MiddleOnlyLandmarks() HandLandmarks {
	return buildHand(thumbTucked, [4]fingerPose{folded, extended, folded, folded})
}

// Jitter returns a copy of h with every coordinate offset by a small
// deterministic amount derived from seed.
func Jitter(h HandLandmarks, seed int, amount float64) HandLandmarks {
	out := h
	for i := range out.Points {
		// Cheap reproducible pseudo-noise in [-amount, amount].
		n := float64((seed*31+i*17)%21-10) / 10
		out.Points[i].X += n * amount
		out.Points[i].Y -= n * amount / 2
	}
	return out
}
