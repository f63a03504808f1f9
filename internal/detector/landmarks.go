// Package detector provides hand landmark types, frame validation and
// normalization for fingerspelling recognition.
package detector

import (
	"errors"
	"fmt"
	"math"
)

// Hand landmark indices following MediaPipe convention.
// See: https://developers.google.com/mediapipe/solutions/vision/hand_landmarker
const (
	Wrist        = 0
	ThumbCMC     = 1
	ThumbMCP     = 2
	ThumbIP      = 3
	ThumbTip     = 4
	IndexMCP     = 5
	IndexPIP     = 6
	IndexDIP     = 7
	IndexTip     = 8
	MiddleMCP    = 9
	MiddlePIP    = 10
	MiddleDIP    = 11
	MiddleTip    = 12
	RingMCP      = 13
	RingPIP      = 14
	RingDIP      = 15
	RingTip      = 16
	PinkyMCP     = 17
	PinkyPIP     = 18
	PinkyDIP     = 19
	PinkyTip     = 20
	NumLandmarks = 21
)

// VectorLen is the length of a normalized landmark vector (21 points x 3 axes).
const VectorLen = NumLandmarks * 3

// MinPalmSize is the smallest wrist to middle-MCP distance that can be normalized.
const MinPalmSize = 1e-6

var (
	// ErrInvalidFrame is returned when a frame has fewer than 21 landmarks.
	ErrInvalidFrame = errors.New("invalid hand frame")
	// ErrDegenerateGeometry is returned when the palm is too small to normalize.
	ErrDegenerateGeometry = errors.New("degenerate hand geometry")
)

// Point3D represents a 3D point in space with x, y, z coordinates.
// Z is optional in upstream payloads and decodes to 0 when absent.
type Point3D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// HandLandmarks represents the 21 hand landmarks of one detected hand.
type HandLandmarks struct {
	Points     [NumLandmarks]Point3D `json:"points"`
	Handedness string                `json:"handedness,omitempty"` // "Left" or "Right"
	Score      float64               `json:"score,omitempty"`
}

// Vector is a normalized hand frame flattened as x0, y0, z0, x1, ...
type Vector [VectorLen]float64

// FromPoints builds a hand frame from a variable-length landmark list.
// Lists shorter than NumLandmarks or holding a NaN or infinite coordinate
// are rejected; extra points are ignored.
func FromPoints(points []Point3D) (*HandLandmarks, error) {
	if len(points) < NumLandmarks {
		return nil, fmt.Errorf("%w: got %d landmarks, need %d", ErrInvalidFrame, len(points), NumLandmarks)
	}
	for i, p := range points[:NumLandmarks] {
		if !p.Finite() {
			return nil, fmt.Errorf("%w: landmark %d is not finite", ErrInvalidFrame, i)
		}
	}

	h := &HandLandmarks{}
	copy(h.Points[:], points[:NumLandmarks])
	return h, nil
}

// Finite reports whether every coordinate of p is a finite number.
func (p Point3D) Finite() bool {
	return isFinite(p.X) && isFinite(p.Y) && isFinite(p.Z)
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// ValidPalmSize reports whether size can be used as a normalization unit.
func ValidPalmSize(size float64) bool {
	return isFinite(size) && size >= MinPalmSize
}

// Distance returns the Euclidean distance between two points.
func Distance(a, b Point3D) float64 {
	dx := a.X - b.X
	dy := a.Y - b.Y
	dz := a.Z - b.Z
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}

// Midpoint returns the point halfway between a and b.
func Midpoint(a, b Point3D) Point3D {
	return Point3D{
		X: (a.X + b.X) / 2,
		Y: (a.Y + b.Y) / 2,
		Z: (a.Z + b.Z) / 2,
	}
}

// PalmSize returns the distance from the wrist to the middle finger MCP,
// the unit used for every scale-relative measurement.
func (h *HandLandmarks) PalmSize() float64 {
	return Distance(h.Points[Wrist], h.Points[MiddleMCP])
}

// Normalize translates the landmarks so the wrist is the origin, scales
// them by palm size and flattens the result.
// It fails with ErrDegenerateGeometry when the palm size is below
// MinPalmSize or not finite, or when a coordinate overflows.
func (h *HandLandmarks) Normalize() (Vector, error) {
	var v Vector
	if h == nil {
		return v, ErrInvalidFrame
	}

	scale := h.PalmSize()
	if !ValidPalmSize(scale) {
		return v, fmt.Errorf("%w: palm size %g", ErrDegenerateGeometry, scale)
	}

	wrist := h.Points[Wrist]
	for i, p := range h.Points {
		v[i*3] = (p.X - wrist.X) / scale
		v[i*3+1] = (p.Y - wrist.Y) / scale
		v[i*3+2] = (p.Z - wrist.Z) / scale
	}
	for i, c := range v {
		if !isFinite(c) {
			return Vector{}, fmt.Errorf("%w: landmark %d overflows", ErrDegenerateGeometry, i/3)
		}
	}

	return v, nil
}

// Transform returns a copy of the hand with every point scaled by s and
// then shifted by t.
func (h *HandLandmarks) Transform(s float64, t Point3D) *HandLandmarks {
	out := &HandLandmarks{Handedness: h.Handedness, Score: h.Score}
	for i, p := range h.Points {
		out.Points[i] = Point3D{
			X: p.X*s + t.X,
			Y: p.Y*s + t.Y,
			Z: p.Z*s + t.Z,
		}
	}
	return out
}

// EuclideanDistance returns the distance between two normalized vectors.
func EuclideanDistance(a, b *Vector) float64 {
	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return math.Sqrt(sum)
}
