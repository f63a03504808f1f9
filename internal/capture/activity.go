package capture

import (
	"image"
	"sync"

	"gocv.io/x/gocv"
)

const (
	// blurSize is the Gaussian kernel used before differencing.
	blurSize = 21
	// pixelDelta is the grey-level change that counts a pixel as changed.
	pixelDelta = 25
)

// ActivityGate decides whether a frame is worth sending to the landmark
// detector. While a hand is in view every frame passes. Without a hand a
// frame passes only when enough pixels changed since the previous frame,
// or after maxSkips consecutive frames were held back.
type ActivityGate struct {
	threshold   float64
	maxSkips    int
	prevGray    gocv.Mat
	initialized bool
	handPresent bool
	skipped     int
	mu          sync.Mutex
}

// NewActivityGate creates a gate. threshold is the percentage of changed
// pixels that counts as activity.
func NewActivityGate(threshold float64, maxSkips int) *ActivityGate {
	return &ActivityGate{
		threshold: threshold,
		maxSkips:  maxSkips,
		prevGray:  gocv.NewMat(),
	}
}

// Allow reports whether frame should be processed and returns the
// percentage of changed pixels.
func (g *ActivityGate) Allow(frame *gocv.Mat) (bool, float64) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if frame == nil || frame.Empty() {
		return false, 0
	}

	change, first := g.diff(frame)
	if first || g.handPresent || change > g.threshold || g.skipped >= g.maxSkips {
		g.skipped = 0
		return true, change
	}
	g.skipped++
	return false, change
}

// SetHandPresent records whether the last processed frame had a hand.
func (g *ActivityGate) SetHandPresent(present bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.handPresent = present
}

// Reset drops the baseline frame.
func (g *ActivityGate) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.release()
}

// Close releases the baseline frame.
func (g *ActivityGate) Close() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.release()
}

func (g *ActivityGate) release() {
	if !g.prevGray.Empty() {
		g.prevGray.Close()
		g.prevGray = gocv.NewMat()
	}
	g.initialized = false
	g.handPresent = false
	g.skipped = 0
}

// diff compares frame with the stored baseline and replaces it. The second
// result is true when there was no baseline yet.
func (g *ActivityGate) diff(frame *gocv.Mat) (float64, bool) {
	gray := gocv.NewMat()
	defer gray.Close()
	if frame.Channels() > 1 {
		gocv.CvtColor(*frame, &gray, gocv.ColorBGRToGray)
	} else {
		frame.CopyTo(&gray)
	}

	blurred := gocv.NewMat()
	defer blurred.Close()
	gocv.GaussianBlur(gray, &blurred, image.Point{X: blurSize, Y: blurSize}, 0, 0, gocv.BorderDefault)

	if !g.initialized {
		blurred.CopyTo(&g.prevGray)
		g.initialized = true
		return 0, true
	}

	delta := gocv.NewMat()
	defer delta.Close()
	gocv.AbsDiff(blurred, g.prevGray, &delta)

	mask := gocv.NewMat()
	defer mask.Close()
	gocv.Threshold(delta, &mask, pixelDelta, 255, gocv.ThresholdBinary)

	changed := gocv.CountNonZero(mask)
	total := mask.Rows() * mask.Cols()
	blurred.CopyTo(&g.prevGray)

	return float64(changed) / float64(total) * 100.0, false
}
